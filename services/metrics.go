package services

import "github.com/prometheus/client_golang/prometheus"

var (
	reservationConflicts = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "engine_reservation_conflicts_total",
			Help: "Reservation attempts that lost the capacity race and retried",
		},
	)
	assignmentsCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "engine_assignments_created_total",
			Help: "Assignments handed out by the allocator",
		},
	)
	assignmentsTerminated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "engine_assignments_terminated_total",
			Help: "Assignments ended, by reason",
		},
		[]string{"reason"},
	)
	remindersSent = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "engine_reminders_sent_total",
			Help: "Assignment reminders sent, by tier",
		},
		[]string{"tier"},
	)
	reviewsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "engine_reviews_total",
			Help: "Moderation decisions applied, by decision",
		},
		[]string{"decision"},
	)
	achievementsUnlocked = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "engine_achievements_unlocked_total",
			Help: "Achievements unlocked across all users",
		},
	)
	slotReleaseRetries = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "engine_slot_release_retries_total",
			Help: "Slot releases that needed at least one retry",
		},
	)
)

// InitMetrics registers the engine counters. Call this from main.go
func InitMetrics() {
	prometheus.MustRegister(reservationConflicts)
	prometheus.MustRegister(assignmentsCreated)
	prometheus.MustRegister(assignmentsTerminated)
	prometheus.MustRegister(remindersSent)
	prometheus.MustRegister(reviewsTotal)
	prometheus.MustRegister(achievementsUnlocked)
	prometheus.MustRegister(slotReleaseRetries)
}
