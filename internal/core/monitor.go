package core

import (
	"context"
	"encoding/json"
	"time"

	"github.com/baxromumarov/review-monitor/internal/httpx"
	"github.com/baxromumarov/review-monitor/internal/notify"
	"github.com/baxromumarov/review-monitor/internal/scraper"
)

type Fetcher interface {
	Fetch(ctx context.Context, url string) (httpx.RawContent, error)
}

type Detector interface {
	IsNewReview(ctx context.Context, counter string) (bool, error)
}

type Composer interface {
	Compose(detail string, hasDetail bool) notify.Content
}

type Sender interface {
	Send(ctx context.Context, msg notify.Message) error
}

type Stage string

const (
	StageFetch   Stage = "fetch"
	StageExtract Stage = "extract"
	StageDetect  Stage = "detect"
	StageSend    Stage = "send"
	StageDone    Stage = "done"
)

// Outcome is the result of one tick. Err is set when the tick stopped
// early at Stage.
type Outcome struct {
	Stage     Stage
	Changed   bool
	Notified  bool
	Counter   string
	Preview   string
	Err       error
	StartedAt time.Time
	Duration  time.Duration
}

func (o Outcome) MarshalJSON() ([]byte, error) {
	var errMsg string
	if o.Err != nil {
		errMsg = o.Err.Error()
	}
	return json.Marshal(struct {
		Stage     Stage     `json:"stage"`
		Changed   bool      `json:"changed"`
		Notified  bool      `json:"notified"`
		Counter   string    `json:"counter,omitempty"`
		Preview   string    `json:"preview,omitempty"`
		Error     string    `json:"error,omitempty"`
		StartedAt time.Time `json:"started_at"`
		Duration  string    `json:"duration"`
	}{
		Stage:     o.Stage,
		Changed:   o.Changed,
		Notified:  o.Notified,
		Counter:   o.Counter,
		Preview:   o.Preview,
		Error:     errMsg,
		StartedAt: o.StartedAt,
		Duration:  o.Duration.String(),
	})
}

// Monitor runs the poll, diff, notify pipeline for one page.
type Monitor struct {
	url        string
	fetcher    Fetcher
	normalizer scraper.Normalizer
	extractor  scraper.Extractor
	detector   Detector
	composer   Composer
	sender     Sender
	envelope   notify.Envelope
}

func NewMonitor(
	url string,
	fetcher Fetcher,
	normalizer scraper.Normalizer,
	extractor scraper.Extractor,
	detector Detector,
	composer Composer,
	sender Sender,
	envelope notify.Envelope,
) *Monitor {
	return &Monitor{
		url:        url,
		fetcher:    fetcher,
		normalizer: normalizer,
		extractor:  extractor,
		detector:   detector,
		composer:   composer,
		sender:     sender,
		envelope:   envelope,
	}
}

// Check runs every stage once. It never logs; the caller inspects the
// returned outcome.
func (m *Monitor) Check(ctx context.Context) Outcome {
	out := Outcome{StartedAt: time.Now()}
	done := func(stage Stage, err error) Outcome {
		out.Stage = stage
		out.Err = err
		out.Duration = time.Since(out.StartedAt)
		return out
	}

	raw, err := m.fetcher.Fetch(ctx, m.url)
	if err != nil {
		return done(StageFetch, err)
	}

	fragments := m.extractor.Extract(m.normalizer.Normalize(raw.Body))
	if !fragments.HasCounter {
		return done(StageExtract, scraper.ErrCounterMissing)
	}
	out.Counter = fragments.Counter

	changed, err := m.detector.IsNewReview(ctx, fragments.Counter)
	if err != nil {
		return done(StageDetect, err)
	}
	if !changed {
		return done(StageDone, nil)
	}
	out.Changed = true

	content := m.composer.Compose(fragments.Detail, fragments.HasDetail)
	out.Preview = content.Preview
	// The counter is already saved, so cancelling now would drop this
	// notification for good.
	if err := m.sender.Send(context.WithoutCancel(ctx), m.envelope.Wrap(content)); err != nil {
		return done(StageSend, err)
	}
	out.Notified = true
	return done(StageDone, nil)
}
