package server

import (
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gin-gonic/gin"

	"github.com/pfrederiksen/swim-times/internal/dashboard"
	"github.com/pfrederiksen/swim-times/internal/filter"
	"github.com/pfrederiksen/swim-times/internal/logger"
	"github.com/pfrederiksen/swim-times/internal/swim"
)

// loadData fetches dashboard data and writes the error response on failure
func (s *Server) loadData(c *gin.Context) (*dashboard.Data, bool) {
	data, err := s.source.Data(c.Request.Context())
	if err == nil {
		return data, true
	}

	logger.Error("Failed to load dashboard data", logger.Fields{"path": c.Request.URL.Path}, err)
	status := http.StatusInternalServerError
	if errors.Is(err, dashboard.ErrNoResults) {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{"error": err.Error()})
	return nil, false
}

func (s *Server) personalBests(c *gin.Context) {
	data, ok := s.loadData(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"fetched_at":     data.FetchedAt,
		"grid":           data.Grid,
		"personal_bests": data.PersonalBests,
	})
}

// times lists results narrowed by the swimmer, event, course, range and pb
// query parameters. swimmer and event may repeat.
func (s *Server) times(c *gin.Context) {
	f, err := filterFromQuery(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	data, ok := s.loadData(c)
	if !ok {
		return
	}
	results := f.Apply(data.Results)
	if results == nil {
		results = []swim.Result{}
	}
	c.JSON(http.StatusOK, gin.H{
		"fetched_at": data.FetchedAt,
		"filter":     f.String(),
		"count":      len(results),
		"results":    results,
	})
}

func (s *Server) events(c *gin.Context) {
	data, ok := s.loadData(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": data.Events})
}

func (s *Server) progression(c *gin.Context) {
	event := strings.TrimSpace(c.Query("event"))
	if event == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "event is required"})
		return
	}

	data, ok := s.loadData(c)
	if !ok {
		return
	}
	event = swim.AbbreviateEvent(event)
	if !slices.Contains(data.Events, event) {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown event " + strconv.Quote(event)})
		return
	}
	c.JSON(http.StatusOK, dashboard.Progression(data.Results, event))
}

// refresh clears the cache. With ?redirect=/ it sends the browser back to
// the dashboard, which then fetches fresh data.
func (s *Server) refresh(c *gin.Context) {
	if err := s.source.Refresh(); err != nil {
		logger.Error("Failed to refresh dashboard", nil, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	logger.IncrCounter("dashboard.refresh")

	if c.Query("redirect") == "/" {
		c.Redirect(http.StatusSeeOther, "/")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "cleared"})
}

// index renders the dashboard page. The filter query parameters of
// /api/times narrow both tables and the chart; sort orders the times table
// and chart picks the charted event.
func (s *Server) index(c *gin.Context) {
	query := indexQuery{
		Swimmer: strings.TrimSpace(c.Query("swimmer")),
		Event:   strings.TrimSpace(c.Query("event")),
		Course:  strings.TrimSpace(c.Query("course")),
		Range:   strings.TrimSpace(c.Query("range")),
		Sort:    strings.TrimSpace(c.Query("sort")),
	}

	f, err := filterFromQuery(c)
	if err != nil {
		c.HTML(http.StatusBadRequest, "index.html", indexView{Error: err.Error(), Query: query})
		return
	}
	query.PB = f.PersonalBestsOnly

	var order dashboard.SortOrder
	if query.Sort != "" {
		if order, err = dashboard.ParseSortOrder(query.Sort); err != nil {
			c.HTML(http.StatusBadRequest, "index.html", indexView{Error: err.Error(), Query: query})
			return
		}
		query.Sort = string(order)
	}

	data, err := s.source.Data(c.Request.Context())
	if err != nil {
		logger.Error("Failed to load dashboard data", logger.Fields{"path": "/"}, err)
		c.HTML(http.StatusServiceUnavailable, "index.html", indexView{Error: err.Error(), Query: query})
		return
	}

	// the source may hand out shared data; sort a copy
	data = data.Narrow(slices.Clone(f.Apply(data.Results)))
	if order != "" {
		dashboard.SortResults(data.Results, order)
	}

	selected := swim.AbbreviateEvent(strings.TrimSpace(c.Query("chart")))
	if !slices.Contains(data.Events, selected) {
		selected = ""
		if len(data.Events) > 0 {
			selected = data.Events[0]
		}
	}

	view := indexView{
		Query:    query,
		Filter:   f.String(),
		Grid:     data.Grid,
		Events:   data.Events,
		Selected: selected,
		Results:  resultRows(data.Results),
	}
	if !data.FetchedAt.IsZero() {
		view.FetchedAt = data.FetchedAt.Local().Format("2006-01-02 15:04")
	}
	if selected != "" {
		view.Chart = renderChart(newChart(dashboard.Progression(data.Results, selected)))
	}
	c.HTML(http.StatusOK, "index.html", view)
}

// indexQuery echoes the page's query parameters back into its form
type indexQuery struct {
	Swimmer string
	Event   string
	Course  string
	Range   string
	PB      bool
	Sort    string
}

type indexView struct {
	Error     string
	FetchedAt string
	Query     indexQuery
	Filter    string
	Grid      dashboard.Grid
	Events    []string
	Selected  string
	Chart     *chartView
	Results   []resultRow
}

type resultRow struct {
	Event   string
	Swimmer string
	Time    string
	Seconds float64
	Date    string
	Meet    string
}

func resultRows(results []swim.Result) []resultRow {
	rows := make([]resultRow, 0, len(results))
	for _, r := range results {
		row := resultRow{
			Event:   r.Event,
			Swimmer: r.Swimmer,
			Time:    swim.FormatSeconds(r.Seconds),
			Seconds: r.Seconds,
			Meet:    r.Meet,
		}
		if !r.Date.IsZero() {
			row.Date = r.Date.Format(time.DateOnly)
		}
		rows = append(rows, row)
	}
	return rows
}

// filterFromQuery builds a filter from request query parameters
func filterFromQuery(c *gin.Context) (*filter.Filter, error) {
	f := filter.NewFilter()
	f.Swimmers = nonEmpty(c.QueryArray("swimmer"))
	f.Events = nonEmpty(c.QueryArray("event"))

	course, err := filter.ParseCourse(c.Query("course"))
	if err != nil {
		return nil, err
	}
	f.Course = course

	if r := strings.TrimSpace(c.Query("range")); r != "" {
		from, to, err := filter.ParseDateRange(r)
		if err != nil {
			return nil, err
		}
		f.DateFrom, f.DateTo = from, to
	}

	if pb := c.Query("pb"); pb != "" {
		only, err := strconv.ParseBool(pb)
		if err != nil {
			return nil, errors.Newf("invalid pb value %q", pb)
		}
		f.PersonalBestsOnly = only
	}
	return f, nil
}

func nonEmpty(values []string) []string {
	out := []string{}
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
