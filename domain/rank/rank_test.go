package rank_test

import (
	"testing"
	"time"

	"github.com/rankgate/rankgate/domain/rank"
)

func TestGenerate_Deterministic(t *testing.T) {
	a := rank.Generate("example.com", "seo tools", "London", 0)
	b := rank.Generate("example.com", "seo tools", "London", 0)

	if a != b {
		t.Errorf("same inputs produced different rankings: %+v vs %+v", a, b)
	}
}

func TestGenerate_InputsChangeOutput(t *testing.T) {
	base := rank.Generate("example.com", "seo tools", "London", 0)

	variants := []rank.Ranking{
		rank.Generate("other.com", "seo tools", "London", 0),
		rank.Generate("example.com", "rank tracker", "London", 0),
		rank.Generate("example.com", "seo tools", "Tokyo", 0),
		rank.Generate("example.com", "seo tools", "London", 1),
	}

	same := 0
	for _, v := range variants {
		if v.Position == base.Position && v.EstimatedTraffic == base.EstimatedTraffic {
			same++
		}
	}
	// A single coincidental collision is possible; all four matching
	// would mean the seed ignores part of the tuple.
	if same == len(variants) {
		t.Error("changing any input should change the output")
	}
}

func TestGenerate_Bounds(t *testing.T) {
	for day := 0; day < 30; day++ {
		r := rank.Generate("example.com", "seo tools", "New York", day)

		if r.Position < 1 || r.Position > 100 {
			t.Errorf("day %d: position %d out of [1,100]", day, r.Position)
		}
		if r.EstimatedTraffic < 10 {
			t.Errorf("day %d: traffic %d below floor", day, r.EstimatedTraffic)
		}
		switch r.Trend {
		case "up", "down":
			if r.Change < 1 || r.Change > 8 {
				t.Errorf("day %d: change %d out of [1,8]", day, r.Change)
			}
		case "stable":
			if r.Change != 0 {
				t.Errorf("day %d: stable trend with change %d", day, r.Change)
			}
		default:
			t.Errorf("day %d: unknown trend %q", day, r.Trend)
		}
	}
}

func TestHistory_DatesAscendEndingToday(t *testing.T) {
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	h := rank.History("example.com", "seo tools", "Paris", 7, now)

	if len(h) != 7 {
		t.Fatalf("got %d entries, want 7", len(h))
	}
	if h[0].Date != "2024-06-09" {
		t.Errorf("first date = %s, want 2024-06-09", h[0].Date)
	}
	if h[6].Date != "2024-06-15" {
		t.Errorf("last date = %s, want 2024-06-15", h[6].Date)
	}
	for i := 1; i < len(h); i++ {
		if h[i].Date <= h[i-1].Date {
			t.Errorf("dates not ascending at %d: %s then %s", i, h[i-1].Date, h[i].Date)
		}
	}
}

func TestHistory_Reproducible(t *testing.T) {
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	a := rank.History("example.com", "seo tools", "Paris", 7, now)
	b := rank.History("example.com", "seo tools", "Paris", 7, now)

	for i := range a {
		if a[i] != b[i] {
			t.Errorf("entry %d differs: %+v vs %+v", i, a[i], b[i])
		}
	}
}

func TestIsSupportedLocation(t *testing.T) {
	if !rank.IsSupportedLocation("Tokyo") {
		t.Error("Tokyo should be supported")
	}
	if rank.IsSupportedLocation("Atlantis") {
		t.Error("Atlantis should not be supported")
	}
	if rank.IsSupportedLocation("tokyo") {
		t.Error("matching is case-sensitive")
	}
}

func TestSupportedLocations_Count(t *testing.T) {
	if got := len(rank.SupportedLocations); got != 50 {
		t.Errorf("got %d locations, want 50", got)
	}
}
