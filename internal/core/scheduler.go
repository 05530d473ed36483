package core

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/baxromumarov/review-monitor/internal/observability"
)

type Checker interface {
	Check(ctx context.Context) Outcome
}

// SchedulerService runs the checker on a fixed interval. Ticks, whether
// timer driven or triggered through Tick, never overlap.
type SchedulerService struct {
	checker  Checker
	interval time.Duration

	tickMu sync.Mutex

	lastMu  sync.RWMutex
	last    Outcome
	hasLast bool
}

func NewSchedulerService(checker Checker, interval time.Duration) *SchedulerService {
	if interval <= 0 {
		interval = time.Minute
	}
	return &SchedulerService{checker: checker, interval: interval}
}

func (s *SchedulerService) Start(ctx context.Context) {
	go s.Run(ctx)
}

// Run ticks immediately, then on every interval until ctx is done.
func (s *SchedulerService) Run(ctx context.Context) {
	slog.Info("review monitor started", "interval", s.interval.String())

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.Tick(ctx)

	for {
		select {
		case <-ctx.Done():
			slog.Info("review monitor stopped")
			return
		case <-ticker.C:
			s.Tick(ctx)
		}
	}
}

// Tick runs the pipeline once. Every failure, panics included, ends here:
// it is logged and counted, and the next tick is unaffected.
func (s *SchedulerService) Tick(ctx context.Context) (out Outcome) {
	s.tickMu.Lock()
	defer s.tickMu.Unlock()

	started := time.Now()
	defer func() {
		if r := recover(); r != nil {
			out = Outcome{
				Stage:     Stage("panic"),
				Err:       fmt.Errorf("tick panicked: %v", r),
				StartedAt: started,
				Duration:  time.Since(started),
			}
		}
		s.report(out)
	}()

	return s.checker.Check(ctx)
}

func (s *SchedulerService) Last() (Outcome, bool) {
	s.lastMu.RLock()
	defer s.lastMu.RUnlock()
	return s.last, s.hasLast
}

func (s *SchedulerService) report(out Outcome) {
	s.lastMu.Lock()
	s.last = out
	s.hasLast = true
	s.lastMu.Unlock()

	observability.IncTick()
	observability.ObserveTickDuration(out.Duration.Seconds())
	if out.Changed {
		observability.IncChange()
	}
	if out.Notified {
		observability.IncNotification()
	}

	if out.Err != nil {
		errType := observability.Classify(out.Err)
		observability.IncError(errType, string(out.Stage))
		level := slog.LevelError
		if errType == observability.ErrorParsing {
			level = slog.LevelWarn
		}
		slog.Log(context.Background(), level, "review check failed",
			"stage", out.Stage,
			"error_type", errType,
			"error", out.Err,
			"changed", out.Changed,
		)
		return
	}

	if out.Notified {
		slog.Info("new review found, notification sent", "counter", out.Counter, "preview", out.Preview)
		return
	}
	slog.Info("no new review", "counter", out.Counter, "duration", out.Duration.String())
}
