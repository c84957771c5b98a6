package server

import (
	"fmt"
	"html/template"
	"math"
	"strconv"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"

	"github.com/pfrederiksen/swim-times/internal/dashboard"
)

const (
	chartID     = "progression"
	chartWidth  = "760px"
	chartHeight = "380px"
)

// secondsLabelJS renders an axis value in race-time form when no tick label
// matches it.
const secondsLabelJS = `function (value) {
	var labels = %s;
	if (labels[value] !== undefined) { return labels[value]; }
	var m = Math.floor(value / 60);
	var s = (value - m * 60).toFixed(2);
	if (m === 0) { return s; }
	return m + ":" + (value - m * 60 < 10 ? "0" : "") + s;
}`

// chartView is a rendered chart ready to drop into the page
type chartView struct {
	Assets  []string
	Element template.HTML
	Script  template.HTML
}

// newChart lays a progression series out as a line chart with a time x axis
// and a log-scale y axis labelled by the series ticks.
func newChart(series *dashboard.Series) *charts.Line {
	line := charts.NewLine()

	lo, hi := math.Inf(1), math.Inf(-1)
	for _, l := range series.Lines {
		data := chartPoints(l.Swimmer, l.Points)
		for _, p := range l.Points {
			if plotted(p) {
				lo = math.Min(lo, p.Seconds)
				hi = math.Max(hi, p.Seconds)
			}
		}
		line.AddSeries(l.Swimmer, data, charts.WithLineChartOpts(opts.LineChart{
			ShowSymbol: opts.Bool(true),
		}))
	}

	yAxis := opts.YAxis{
		Type: "log",
		Name: "Time (log scale)",
		AxisLabel: &opts.AxisLabel{
			Formatter: opts.FuncOpts(fmt.Sprintf(secondsLabelJS, tickLabels(series.Ticks))),
		},
	}
	if !math.IsInf(lo, 1) {
		yAxis.Min = lo * 0.95
		yAxis.Max = hi * 1.05
	}

	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			ChartID: chartID,
			Width:   chartWidth,
			Height:  chartHeight,
		}),
		charts.WithTitleOpts(opts.Title{Title: "Time progression for " + series.Event}),
		charts.WithTooltipOpts(opts.Tooltip{
			Show:      opts.Bool(true),
			Trigger:   "item",
			Formatter: types.FuncStr("{a}<br/>{b}"),
		}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Bottom: "0"}),
		charts.WithXAxisOpts(opts.XAxis{Type: "time"}),
		charts.WithYAxisOpts(yAxis),
	)
	return line
}

// chartPoints converts one swimmer's points to chart data. Undated swims and
// non-positive times have no place on a time/log chart and are left out.
func chartPoints(swimmer string, points []dashboard.Point) []opts.LineData {
	data := make([]opts.LineData, 0, len(points))
	for _, p := range points {
		if !plotted(p) {
			continue
		}
		date := p.Date.Format(time.DateOnly)
		data = append(data, opts.LineData{
			Name:  fmt.Sprintf("%s %s %s %s", swimmer, p.Time, date, p.Meet),
			Value: []interface{}{date, p.Seconds},
		})
	}
	return data
}

func plotted(p dashboard.Point) bool {
	return !p.Date.IsZero() && p.Seconds > 0
}

// tickLabels encodes ticks as a JS object literal from value to label
func tickLabels(ticks []dashboard.Tick) string {
	labels := make(map[string]string, len(ticks))
	for _, t := range ticks {
		labels[strconv.FormatFloat(t.Value, 'f', -1, 64)] = t.Label
	}
	out, err := sonic.ConfigStd.MarshalToString(labels)
	if err != nil {
		return "{}"
	}
	return out
}

// renderChart renders line as an HTML element plus its setup script. The
// markup comes from go-echarts' own templates.
func renderChart(line *charts.Line) *chartView {
	snippet := line.RenderSnippet()
	return &chartView{
		Assets:  line.JSAssets.Values,
		Element: template.HTML(snippet.Element),
		Script:  template.HTML(snippet.Script),
	}
}
