package achievement

import (
	"testing"
	"time"

	"github.com/asertelegram/Sparkaph/internal/stats"
)

func TestSeasonActive(t *testing.T) {
	june := time.Date(2025, time.June, 15, 0, 0, 0, 0, time.UTC)
	january := time.Date(2025, time.January, 15, 0, 0, 0, 0, time.UTC)
	december := time.Date(2025, time.December, 15, 0, 0, 0, 0, time.UTC)

	if !SeasonSummer.Active(june) {
		t.Error("summer inactive in June")
	}
	if SeasonSummer.Active(january) {
		t.Error("summer active in January")
	}
	if !SeasonWinter.Active(january) || !SeasonWinter.Active(december) {
		t.Error("winter inactive in its own months")
	}
}

func TestSeasonBoundsWinterSpansYears(t *testing.T) {
	january := time.Date(2025, time.January, 15, 0, 0, 0, 0, time.UTC)
	start, end := SeasonWinter.Bounds(january)
	if start.Year() != 2024 || start.Month() != time.December {
		t.Errorf("start = %v, want Dec 2024", start)
	}
	if end.Year() != 2025 || end.Month() != time.March {
		t.Errorf("end = %v, want Mar 2025", end)
	}

	december := time.Date(2025, time.December, 15, 0, 0, 0, 0, time.UTC)
	start, end = SeasonWinter.Bounds(december)
	if start.Year() != 2025 || end.Year() != 2026 {
		t.Errorf("bounds = %v..%v, want Dec 2025..Mar 2026", start, end)
	}
}

func TestCurrentSeason(t *testing.T) {
	cases := []struct {
		month time.Month
		want  Season
	}{
		{time.March, SeasonSpring},
		{time.June, SeasonSummer},
		{time.September, SeasonAutumn},
		{time.December, SeasonWinter},
		{time.January, SeasonWinter},
	}
	for _, tc := range cases {
		now := time.Date(2025, tc.month, 10, 0, 0, 0, 0, time.UTC)
		if got := CurrentSeason(now); got != tc.want {
			t.Errorf("CurrentSeason(%s) = %s, want %s", tc.month, got, tc.want)
		}
	}
}

func TestEvaluableAt(t *testing.T) {
	june := time.Date(2025, time.June, 15, 0, 0, 0, 0, time.UTC)

	seasonal := &Definition{ID: "x", Season: SeasonWinter}
	if seasonal.EvaluableAt(june) {
		t.Error("winter achievement evaluable in June")
	}

	past := june.Add(-time.Hour)
	expired := &Definition{ID: "y", ExpiresAt: &past}
	if expired.EvaluableAt(june) {
		t.Error("expired achievement still evaluable")
	}

	plain := &Definition{ID: "z"}
	if !plain.EvaluableAt(june) {
		t.Error("unrestricted achievement not evaluable")
	}
}

func TestCatalogAvailable(t *testing.T) {
	june := time.Date(2025, time.June, 15, 0, 0, 0, 0, time.UTC)
	c := NewCatalog(
		&Definition{ID: "open"},
		&Definition{ID: "held"},
		&Definition{ID: "secret", Hidden: true},
		&Definition{ID: "winter_only", Season: SeasonWinter},
	)

	got := c.Available(map[string]bool{"held": true}, june)
	if len(got) != 1 || got[0].ID != "open" {
		ids := make([]string, len(got))
		for i, d := range got {
			ids[i] = d.ID
		}
		t.Errorf("available = %v, want [open]", ids)
	}
}

func TestDefaultCatalogPredicates(t *testing.T) {
	c := DefaultCatalog()
	june := time.Date(2025, time.June, 15, 7, 0, 0, 0, time.UTC)

	check := func(id string, snap stats.Snapshot, want bool) {
		t.Helper()
		def, ok := c.ByID(id)
		if !ok {
			t.Fatalf("missing definition %s", id)
		}
		if got := def.Predicate(snap); got != want {
			t.Errorf("%s predicate = %v for %+v, want %v", id, got, snap, want)
		}
	}

	check("first_challenge", stats.Snapshot{CompletedCount: 1}, true)
	check("first_challenge", stats.Snapshot{CompletedCount: 0}, false)
	check("challenge_master", stats.Snapshot{CompletedCount: 50}, true)
	check("streak_7", stats.Snapshot{StreakDays: 7}, true)
	check("streak_7", stats.Snapshot{StreakDays: 6}, false)
	check("level_5", stats.Snapshot{Level: 5}, true)
	check("perfect_week", stats.Snapshot{DaysActiveThisWeek: 7}, true)
	check("collection_starter", stats.Snapshot{BadgeCount: 5}, true)

	early := june // 07:00 UTC
	check("early_bird", stats.Snapshot{LastApprovedAt: &early}, true)
	late := june.Add(16 * time.Hour) // 23:00 UTC
	check("night_owl", stats.Snapshot{LastApprovedAt: &late}, true)
	check("early_bird", stats.Snapshot{LastApprovedAt: &late}, false)
	check("early_bird", stats.Snapshot{}, false)
}
