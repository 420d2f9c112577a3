package services

import (
	"context"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/asertelegram/Sparkaph/internal/achievement"
	"github.com/asertelegram/Sparkaph/internal/challenge"
	"github.com/asertelegram/Sparkaph/internal/notification"
	"github.com/asertelegram/Sparkaph/internal/store/memstore"
	"github.com/asertelegram/Sparkaph/internal/user"
)

// testStart is a Tuesday noon UTC, comfortably inside summer.
var testStart = time.Date(2025, time.June, 10, 12, 0, 0, 0, time.UTC)

type recordedNote struct {
	userID int64
	kind   notification.Kind
	data   map[string]any
}

// recorderNotifier captures notifications instead of delivering them.
type recorderNotifier struct {
	mu    sync.Mutex
	notes []recordedNote
}

func (r *recorderNotifier) Notify(ctx context.Context, userID int64, kind notification.Kind, data map[string]any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notes = append(r.notes, recordedNote{userID: userID, kind: kind, data: data})
	return nil
}

func (r *recorderNotifier) count(userID int64, kind notification.Kind) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, note := range r.notes {
		if note.userID == userID && note.kind == kind {
			n++
		}
	}
	return n
}

// fixture wires the whole engine over the in-memory store and a fake clock.
type fixture struct {
	mem       *memstore.Mem
	clock     *clockwork.FakeClock
	notifier  *recorderNotifier
	guard     *SpamGuard
	scoring   *ScoringEngine
	evaluator *AchievementEvaluator
	allocator *SlotAllocator
	tracker   *AssignmentTracker
	pipeline  *SubmissionPipeline
	users     *UserService
	catalog   *CatalogService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	mem := memstore.New()
	clock := clockwork.NewFakeClockAt(testStart)
	notifier := &recorderNotifier{}

	// Generous limits so only the spam guard tests hit them.
	guard := NewSpamGuard(6000, 1000, clock)
	scoring := NewScoringEngine(mem.Users(), clock)
	evaluator := NewAchievementEvaluator(achievement.DefaultCatalog(), mem.Users(), mem.Submissions(), clock, notifier)
	tracker := NewAssignmentTracker(mem.Assignments(), mem.Challenges(), clock, notifier)
	allocator := NewSlotAllocator(mem.Challenges(), mem.Assignments(), clock, notifier)
	pipeline := NewSubmissionPipeline(mem.Assignments(), mem.Submissions(), guard, tracker, scoring, evaluator, clock, notifier)
	users := NewUserService(mem.Users(), guard, evaluator, clock, notifier)
	catalog := NewCatalogService(mem.Challenges(), clock)

	return &fixture{
		mem:       mem,
		clock:     clock,
		notifier:  notifier,
		guard:     guard,
		scoring:   scoring,
		evaluator: evaluator,
		allocator: allocator,
		tracker:   tracker,
		pipeline:  pipeline,
		users:     users,
		catalog:   catalog,
	}
}

func (f *fixture) registerUser(t *testing.T, id int64) *user.User {
	t.Helper()
	u, _, err := f.users.Register(context.Background(), &user.RegisterRequest{
		ID:       id,
		Username: "user" + strconv.FormatInt(id, 10),
	})
	if err != nil {
		t.Fatalf("register user %d: %v", id, err)
	}
	return u
}

func (f *fixture) addChallenge(t *testing.T, categoryID string, capacity int) *challenge.Challenge {
	t.Helper()
	c, err := f.catalog.Create(context.Background(), 999, &challenge.CreateRequest{
		CategoryID: categoryID,
		Text:       "do the thing",
		Capacity:   capacity,
	})
	if err != nil {
		t.Fatalf("create challenge: %v", err)
	}
	return c
}
