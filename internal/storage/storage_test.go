package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pfrederiksen/swim-times/internal/swim"
)

func newTestCache(t *testing.T, ttl time.Duration) *Cache {
	t.Helper()
	cache, err := NewCache(filepath.Join(t.TempDir(), "nested", "dashboard.json"), ttl)
	if err != nil {
		t.Fatalf("Failed to create cache: %v", err)
	}
	return cache
}

func TestCache_SaveLoad(t *testing.T) {
	cache := newTestCache(t, time.Hour)
	improvement := -0.45

	results := []swim.Result{
		{
			Swimmer:      "Ada Lovelace",
			Club:         "Harbor Aquatics",
			Meet:         "Fall Classic 2023",
			Date:         time.Date(2023, time.September, 9, 0, 0, 0, 0, time.UTC),
			Age:          11,
			Event:        "50 Yd Freestyle",
			Seconds:      29.8,
			Improvement:  &improvement,
			PersonalBest: true,
			Extra:        map[string]string{"Place": "3"},
		},
	}

	if err := cache.Save([]string{"https://times.example.com/ada"}, results); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	snap, ok, err := cache.Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if !ok {
		t.Fatal("Load() ok = false, want fresh cache")
	}
	if len(snap.Results) != 1 {
		t.Fatalf("got %d results, want 1", len(snap.Results))
	}

	got := snap.Results[0]
	if got.Swimmer != "Ada Lovelace" || got.Seconds != 29.8 || !got.PersonalBest {
		t.Errorf("unexpected result: %+v", got)
	}
	if got.Improvement == nil || *got.Improvement != -0.45 {
		t.Errorf("improvement = %v, want -0.45", got.Improvement)
	}
	if !got.Date.Equal(results[0].Date) {
		t.Errorf("date = %v, want %v", got.Date, results[0].Date)
	}
	if got.Extra["Place"] != "3" {
		t.Errorf("extra = %v", got.Extra)
	}
	if len(snap.Sources) != 1 {
		t.Errorf("sources = %v", snap.Sources)
	}
}

func TestCache_Missing(t *testing.T) {
	cache := newTestCache(t, time.Hour)

	snap, ok, err := cache.Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if ok || snap != nil {
		t.Errorf("Load() = %v, %v; want nil, false", snap, ok)
	}
}

func TestCache_Expired(t *testing.T) {
	tests := []struct {
		name   string
		ttl    time.Duration
		age    time.Duration
		wantOK bool
	}{
		{"fresh", time.Hour, 30 * time.Minute, true},
		{"expired", time.Hour, 2 * time.Hour, false},
		{"no expiry", 0, 1000 * time.Hour, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cache := newTestCache(t, tt.ttl)
			saved := time.Date(2024, time.January, 1, 12, 0, 0, 0, time.UTC)
			cache.now = func() time.Time { return saved }
			if err := cache.Save(nil, nil); err != nil {
				t.Fatalf("Save() error: %v", err)
			}

			cache.now = func() time.Time { return saved.Add(tt.age) }
			snap, ok, err := cache.Load()
			if err != nil {
				t.Fatalf("Load() error: %v", err)
			}
			if ok != tt.wantOK {
				t.Errorf("Load() ok = %v, want %v", ok, tt.wantOK)
			}
			if snap == nil {
				t.Error("expired snapshot should still be returned")
			}
		})
	}
}

func TestCache_Clear(t *testing.T) {
	cache := newTestCache(t, time.Hour)
	if err := cache.Save(nil, nil); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	if err := cache.Clear(); err != nil {
		t.Fatalf("Clear() error: %v", err)
	}
	if _, err := os.Stat(cache.Path()); !os.IsNotExist(err) {
		t.Errorf("cache file still exists: %v", err)
	}
	if err := cache.Clear(); err != nil {
		t.Errorf("second Clear() error: %v", err)
	}
}

func TestCache_Corrupt(t *testing.T) {
	cache := newTestCache(t, time.Hour)
	if err := os.WriteFile(cache.Path(), []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, _, err := cache.Load(); err == nil {
		t.Error("Load() of corrupt cache should fail")
	}
}
