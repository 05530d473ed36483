package observability

import (
	"sync"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type StatsSnapshot struct {
	Ticks             uint64            `json:"ticks"`
	ChangesDetected   uint64            `json:"changes_detected"`
	NotificationsSent uint64            `json:"notifications_sent"`
	ErrorsTotal       uint64            `json:"errors_total"`
	TickSecondsAvg    float64           `json:"tick_seconds_avg"`
	ErrorsByType      map[string]uint64 `json:"errors_by_type,omitempty"`
	ErrorsByStage     map[string]uint64 `json:"errors_by_stage,omitempty"`
}

var (
	ticks             uint64
	changesDetected   uint64
	notificationsSent uint64
	errorsTotal       uint64

	tickCount uint64
	tickNanos uint64

	statsMu       sync.Mutex
	errorsByType  = map[string]uint64{}
	errorsByStage = map[string]uint64{}
)

var (
	ticksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "review_monitor_ticks_total",
		Help: "Total number of poll ticks run.",
	})
	changesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "review_monitor_changes_total",
		Help: "Total number of ticks that detected a new review.",
	})
	notificationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "review_monitor_notifications_total",
		Help: "Total number of notification emails delivered.",
	})
	tickErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "review_monitor_tick_errors_total",
		Help: "Total number of failed ticks.",
	}, []string{"error_type", "stage"})
	tickDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "review_monitor_tick_duration_seconds",
		Help:    "Duration of poll ticks.",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 15, 30, 60},
	})
)

func IncTick() {
	atomic.AddUint64(&ticks, 1)
	ticksTotal.Inc()
}

func IncChange() {
	atomic.AddUint64(&changesDetected, 1)
	changesTotal.Inc()
}

func IncNotification() {
	atomic.AddUint64(&notificationsSent, 1)
	notificationsTotal.Inc()
}

func ObserveTickDuration(seconds float64) {
	if seconds <= 0 {
		return
	}
	atomic.AddUint64(&tickCount, 1)
	atomic.AddUint64(&tickNanos, uint64(seconds*1e9))
	tickDuration.Observe(seconds)
}

func IncError(errType, stage string) {
	if errType == "" {
		errType = "unknown"
	}
	if stage == "" {
		stage = "unknown"
	}
	atomic.AddUint64(&errorsTotal, 1)
	statsMu.Lock()
	errorsByType[errType]++
	errorsByStage[stage]++
	statsMu.Unlock()
	tickErrorsTotal.WithLabelValues(errType, stage).Inc()
}

func Snapshot() StatsSnapshot {
	statsMu.Lock()
	typeCopy := copyMap(errorsByType)
	stageCopy := copyMap(errorsByStage)
	statsMu.Unlock()

	count := atomic.LoadUint64(&tickCount)
	avg := 0.0
	if count > 0 {
		avg = float64(atomic.LoadUint64(&tickNanos)) / float64(count) / 1e9
	}

	return StatsSnapshot{
		Ticks:             atomic.LoadUint64(&ticks),
		ChangesDetected:   atomic.LoadUint64(&changesDetected),
		NotificationsSent: atomic.LoadUint64(&notificationsSent),
		ErrorsTotal:       atomic.LoadUint64(&errorsTotal),
		TickSecondsAvg:    avg,
		ErrorsByType:      typeCopy,
		ErrorsByStage:     stageCopy,
	}
}

func copyMap(src map[string]uint64) map[string]uint64 {
	if len(src) == 0 {
		return map[string]uint64{}
	}
	out := make(map[string]uint64, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}
