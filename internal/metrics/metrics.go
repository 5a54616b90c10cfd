// Package metrics defines the Prometheus collectors exported on /metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RPC handler latency (seconds)
	RPCDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "streakly_rpc_duration_seconds",
			Help:    "Connect RPC handler duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
		[]string{"procedure", "code"},
	)

	CompletionsToggled = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "streakly_completions_toggled_total",
			Help: "Total number of habit completion changes",
		},
		[]string{"state"}, // state: completed, uncompleted
	)

	AchievementsUnlocked = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "streakly_achievements_unlocked_total",
			Help: "Total number of achievements unlocked",
		},
		[]string{"category"},
	)

	PushDeliveries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "streakly_push_deliveries_total",
			Help: "Total number of push delivery attempts",
		},
		[]string{"result"}, // result: delivered, failed, pruned
	)

	RemindersFired = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "streakly_reminders_fired_total",
			Help: "Total number of reminders fired",
		},
		[]string{"kind"}, // kind: habit, todo
	)

	StoreWriteErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "streakly_store_write_errors_total",
			Help: "Total number of failed collection writes",
		},
		[]string{"collection"},
	)
)

// RecordRPC records the duration of one RPC call.
func RecordRPC(procedure, code string, duration time.Duration) {
	RPCDuration.WithLabelValues(procedure, code).Observe(duration.Seconds())
}

// RecordCompletion counts a completion being set or cleared.
func RecordCompletion(completed bool) {
	state := "uncompleted"
	if completed {
		state = "completed"
	}
	CompletionsToggled.WithLabelValues(state).Inc()
}

// RecordUnlock counts an unlocked achievement.
func RecordUnlock(category string) {
	AchievementsUnlocked.WithLabelValues(category).Inc()
}

// RecordPushDelivery counts a push delivery outcome.
func RecordPushDelivery(result string) {
	PushDeliveries.WithLabelValues(result).Inc()
}

// RecordReminder counts a fired reminder.
func RecordReminder(kind string) {
	RemindersFired.WithLabelValues(kind).Inc()
}

// RecordStoreWriteError counts a failed collection write.
func RecordStoreWriteError(collection string) {
	StoreWriteErrors.WithLabelValues(collection).Inc()
}
