package dashboard

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pfrederiksen/swim-times/internal/swim"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func sampleResults() []swim.Result {
	return []swim.Result{
		{Swimmer: "Ada Lovelace", Meet: "Fall Classic", Date: day(2023, 9, 9), Event: "50 Yd Freestyle", Seconds: 29.80},
		{Swimmer: "Ada Lovelace", Meet: "Summer Open", Date: day(2023, 6, 10), Event: "50 Yd Freestyle", Seconds: 30.25},
		{Swimmer: "Ada Lovelace", Meet: "Fall Classic", Date: day(2023, 9, 9), Event: "100 Yd Backstroke", Seconds: 75.02},
		{Swimmer: "Grace Hopper", Meet: "Fall Classic", Date: day(2023, 9, 9), Event: "50 Yd Freestyle", Seconds: 31.10},
		{Swimmer: "Grace Hopper", Meet: "Winter Invite", Date: day(2023, 12, 2), Event: "200 M Individual Medley", Seconds: 170.5},
		{Swimmer: "Grace Hopper", Meet: "Winter Invite", Date: day(2023, 12, 2), Event: "100 Yd Butterfly", Seconds: 80.0},
	}
}

func TestPersonalBests(t *testing.T) {
	rows := sampleResults()
	bests := PersonalBests(rows)

	require.Len(t, bests, 5)
	for _, b := range bests {
		if b.Swimmer == "Ada Lovelace" && b.Event == "50 Yd Freestyle" {
			require.Equal(t, 29.80, b.Seconds)
			require.Equal(t, "Fall Classic", b.Meet)
		}
	}
	for i := 1; i < len(bests); i++ {
		require.LessOrEqual(t, bests[i-1].Event, bests[i].Event)
	}
}

func TestBuild(t *testing.T) {
	standards, err := parseStandards(strings.NewReader("Event,JO\n50 Y Free,28.49\n"))
	require.NoError(t, err)

	data := Build(sampleResults(), standards)

	t.Run("results are abbreviated and date ordered", func(t *testing.T) {
		require.Len(t, data.Results, 6)
		require.Equal(t, "50 Y Free", data.Results[0].Event)
		require.Equal(t, day(2023, 6, 10), data.Results[0].Date)
		for i := 1; i < len(data.Results); i++ {
			require.False(t, data.Results[i].Date.Before(data.Results[i-1].Date))
		}
	})

	t.Run("events ordered by distance, course, stroke", func(t *testing.T) {
		require.Equal(t, []string{"50 Y Free", "100 Y Back", "100 Y Fly", "200 L IM"}, data.Events)
	})

	t.Run("grid", func(t *testing.T) {
		grid := data.Grid
		require.Equal(t, []string{"Ada", "Grace"}, grid.Swimmers)
		require.Equal(t, []string{"JO"}, grid.Standards)
		require.Len(t, grid.Rows, 4)

		free := grid.Rows[0]
		require.Equal(t, "50 Y Free", free.Event)
		require.Equal(t, "28.49", free.Standards["JO"])
		require.Equal(t, "29.80", free.Cells[0].Time)
		require.True(t, free.Cells[0].Best)
		require.Equal(t, "31.10", free.Cells[1].Time)
		require.False(t, free.Cells[1].Best)

		back := grid.Rows[1]
		require.Equal(t, "1:15.02", back.Cells[0].Time)
		require.True(t, back.Cells[0].Best)
		require.Nil(t, back.Cells[1].Seconds)
		require.Equal(t, "", back.Cells[1].Time)
		require.Nil(t, back.Standards)

		require.Equal(t, "2:50.50", grid.Rows[3].Cells[1].Time)
	})

	t.Run("input is not modified", func(t *testing.T) {
		in := sampleResults()
		Build(in, nil)
		require.Equal(t, "50 Yd Freestyle", in[0].Event)
	})
}

func TestBuild_SharedFirstName(t *testing.T) {
	data := Build([]swim.Result{
		{Swimmer: "Ada Lovelace", Event: "50 Yd Freestyle", Seconds: 31},
		{Swimmer: "Ada Byron", Event: "50 Yd Freestyle", Seconds: 30},
	}, nil)

	require.Equal(t, []string{"Ada"}, data.Grid.Swimmers)
	require.Equal(t, "30.00", data.Grid.Rows[0].Cells[0].Time)
	require.Len(t, data.PersonalBests, 2)
}

func TestBuild_Empty(t *testing.T) {
	data := Build(nil, nil)
	require.Empty(t, data.Results)
	require.Empty(t, data.Grid.Rows)
	require.Empty(t, data.Events)
}

func TestData_Narrow(t *testing.T) {
	standards, err := parseStandards(strings.NewReader("Event,JO\n50 Y Free,28.49\n"))
	require.NoError(t, err)
	data := Build(sampleResults(), standards)

	var grace []swim.Result
	for _, r := range data.Results {
		if r.Swimmer == "Grace Hopper" {
			grace = append(grace, r)
		}
	}
	narrowed := data.Narrow(grace)

	require.Equal(t, data.FetchedAt, narrowed.FetchedAt)
	require.Len(t, narrowed.Results, len(grace))
	require.Equal(t, []string{"Grace"}, narrowed.Grid.Swimmers)
	require.Equal(t, []string{"JO"}, narrowed.Grid.Standards)
	for _, row := range narrowed.Grid.Rows {
		require.Len(t, row.Cells, 1)
		require.True(t, row.Cells[0].Best, "the only swimmer holds every row's best")
	}
	require.Len(t, data.Grid.Swimmers, 2, "the source data is untouched")

	empty := data.Narrow(nil)
	require.Empty(t, empty.Grid.Rows)
	require.Empty(t, empty.Events)
}
