package filter

import (
	"testing"
	"time"

	"github.com/pfrederiksen/swim-times/internal/swim"
)

func testResults() []swim.Result {
	return []swim.Result{
		{Swimmer: "Ada Lovelace", Event: "50 Yd Freestyle", Date: time.Date(2023, 6, 10, 0, 0, 0, 0, time.UTC), Seconds: 30.25, PersonalBest: true},
		{Swimmer: "Ada Lovelace", Event: "100 M Backstroke", Date: time.Date(2023, 9, 9, 0, 0, 0, 0, time.UTC), Seconds: 80.5},
		{Swimmer: "Grace Hopper", Event: "50 Yd Freestyle", Date: time.Date(2024, 1, 20, 0, 0, 0, 0, time.UTC), Seconds: 31.1},
		{Swimmer: "Grace Hopper", Event: "200 Yd Individual Medley", Seconds: 170.5, PersonalBest: true},
	}
}

func TestFilter_IsEmpty(t *testing.T) {
	f := NewFilter()
	if !f.IsEmpty() {
		t.Error("new filter should be empty")
	}

	f.Course = "Y"
	if f.IsEmpty() {
		t.Error("filter with a course should not be empty")
	}
}

func TestFilter_Apply(t *testing.T) {
	from := time.Date(2023, 7, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2023, 12, 31, 23, 59, 59, 0, time.UTC)

	tests := []struct {
		name      string
		filter    *Filter
		wantCount int
	}{
		{"empty filter", NewFilter(), 4},
		{"swimmer substring", &Filter{Swimmers: []string{"ADA"}}, 2},
		{"event full name", &Filter{Events: []string{"freestyle"}}, 2},
		{"event abbreviation", &Filter{Events: []string{"back"}}, 1},
		{"event abbreviation IM", &Filter{Events: []string{"200 Y IM"}}, 1},
		{"long course", &Filter{Course: "L"}, 1},
		{"yards", &Filter{Course: "y"}, 3},
		{"date from", &Filter{DateFrom: &from}, 3},
		{"date range", &Filter{DateFrom: &from, DateTo: &to}, 2},
		{"personal bests", &Filter{PersonalBestsOnly: true}, 2},
		{"combined", &Filter{Swimmers: []string{"grace"}, Events: []string{"free"}}, 1},
		{"no match", &Filter{Swimmers: []string{"katie"}}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.filter.Apply(testResults())
			if len(got) != tt.wantCount {
				t.Errorf("Apply() returned %d results, want %d: %+v", len(got), tt.wantCount, got)
			}
		})
	}
}

func TestParseCourse(t *testing.T) {
	tests := []struct {
		input   string
		want    string
		wantErr bool
	}{
		{"", "", false},
		{"yards", "Y", false},
		{"SCM", "S", false},
		{"lcm", "L", false},
		{"l", "L", false},
		{"pool", "", true},
	}

	for _, tt := range tests {
		got, err := ParseCourse(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseCourse(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseCourse(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestFilter_String(t *testing.T) {
	if got := NewFilter().String(); got != "No active filters" {
		t.Errorf("String() = %q", got)
	}

	from := time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)
	f := &Filter{DateFrom: &from, Swimmers: []string{"ada"}, Course: "Y", PersonalBestsOnly: true}
	want := "From: Jan 2, 2023 | Swimmers: ada | Course: Y | Personal bests only"
	if got := f.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestFilter_Clone(t *testing.T) {
	from := time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)
	f := &Filter{DateFrom: &from, Swimmers: []string{"ada"}, Events: []string{"free"}, Course: "L"}

	clone := f.Clone()
	clone.Swimmers[0] = "grace"
	*clone.DateFrom = from.AddDate(1, 0, 0)

	if f.Swimmers[0] != "ada" {
		t.Error("modifying clone swimmers changed the original")
	}
	if !f.DateFrom.Equal(from) {
		t.Error("modifying clone date changed the original")
	}
	if clone.Course != "L" || clone.Events[0] != "free" {
		t.Errorf("clone lost fields: %+v", clone)
	}
}
