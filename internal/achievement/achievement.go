package achievement

import (
	"time"

	"github.com/asertelegram/Sparkaph/internal/stats"
)

type Type string

const (
	TypeChallenge  Type = "challenge"
	TypeStreak     Type = "streak"
	TypeSocial     Type = "social"
	TypeLevel      Type = "level"
	TypeSpecial    Type = "special"
	TypeCollection Type = "collection"
	TypeEvent      Type = "event"
)

// Season restricts an achievement to a calendar window. Empty means
// always evaluable.
type Season string

const (
	SeasonSpring Season = "spring"
	SeasonSummer Season = "summer"
	SeasonAutumn Season = "autumn"
	SeasonWinter Season = "winter"
)

// Active reports whether the season covers the given instant.
func (s Season) Active(now time.Time) bool {
	m := now.UTC().Month()
	switch s {
	case SeasonSpring:
		return m >= time.March && m <= time.May
	case SeasonSummer:
		return m >= time.June && m <= time.August
	case SeasonAutumn:
		return m >= time.September && m <= time.November
	case SeasonWinter:
		return m == time.December || m <= time.February
	}
	return false
}

// Bounds returns the start and end of the season containing now.
func (s Season) Bounds(now time.Time) (time.Time, time.Time) {
	y := now.UTC().Year()
	switch s {
	case SeasonSpring:
		return date(y, time.March), date(y, time.June)
	case SeasonSummer:
		return date(y, time.June), date(y, time.September)
	case SeasonAutumn:
		return date(y, time.September), date(y, time.December)
	case SeasonWinter:
		if now.UTC().Month() == time.December {
			return date(y, time.December), date(y+1, time.March)
		}
		return date(y-1, time.December), date(y, time.March)
	}
	return time.Time{}, time.Time{}
}

// CurrentSeason returns the season containing now.
func CurrentSeason(now time.Time) Season {
	switch m := now.UTC().Month(); {
	case m >= time.March && m <= time.May:
		return SeasonSpring
	case m >= time.June && m <= time.August:
		return SeasonSummer
	case m >= time.September && m <= time.November:
		return SeasonAutumn
	default:
		return SeasonWinter
	}
}

func date(y int, m time.Month) time.Time {
	return time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
}

// Bonus is a time-boxed point multiplier armed by an achievement reward and
// consumed by the next approved submission.
type Bonus struct {
	Multiplier int
	Duration   time.Duration
}

// Predicate decides whether a stats snapshot satisfies an achievement.
// Predicates must be pure: no store access, no clock access beyond the
// snapshot's Now.
type Predicate func(stats.Snapshot) bool

type Definition struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
	Type        Type   `json:"type"`
	// Points is credited to the user when the achievement unlocks.
	Points int    `json:"points"`
	Badge  string `json:"badge,omitempty"`
	Title  string `json:"title,omitempty"`
	Bonus  *Bonus `json:"-"`
	// Hidden achievements are excluded from "available" listings but are
	// still evaluated.
	Hidden    bool       `json:"hidden,omitempty"`
	Season    Season     `json:"season,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	Predicate Predicate  `json:"-"`
}

// EvaluableAt reports whether the definition may be evaluated at now:
// seasonal achievements outside their window or past their expiry are
// excluded even if the predicate would hold.
func (d *Definition) EvaluableAt(now time.Time) bool {
	if d.Season != "" && !d.Season.Active(now) {
		return false
	}
	if d.ExpiresAt != nil && now.After(*d.ExpiresAt) {
		return false
	}
	return true
}

// Catalog is the immutable achievement set, loaded once at startup and
// passed into the evaluator at construction.
type Catalog struct {
	defs []*Definition
	byID map[string]*Definition
}

func NewCatalog(defs ...*Definition) *Catalog {
	c := &Catalog{defs: defs, byID: make(map[string]*Definition, len(defs))}
	for _, d := range defs {
		c.byID[d.ID] = d
	}
	return c
}

func (c *Catalog) All() []*Definition {
	return c.defs
}

func (c *Catalog) ByID(id string) (*Definition, bool) {
	d, ok := c.byID[id]
	return d, ok
}

// Available lists achievements a user could still unlock: not yet held,
// not hidden, and evaluable at now.
func (c *Catalog) Available(unlocked map[string]bool, now time.Time) []*Definition {
	var out []*Definition
	for _, d := range c.defs {
		if unlocked[d.ID] || d.Hidden || !d.EvaluableAt(now) {
			continue
		}
		out = append(out, d)
	}
	return out
}
