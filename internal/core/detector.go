package core

import (
	"context"
	"sync"

	"github.com/baxromumarov/review-monitor/internal/store"
)

type DetectorState int

const (
	NoPriorState DetectorState = iota
	PriorStateExists
)

func (s DetectorState) String() string {
	if s == PriorStateExists {
		return "prior_state_exists"
	}
	return "no_prior_state"
}

// ChangeDetector owns the persisted counter record. Nothing else reads or
// writes it.
type ChangeDetector struct {
	store store.StateStore
	key   string

	mu    sync.Mutex
	state DetectorState
}

func NewChangeDetector(s store.StateStore, key string) *ChangeDetector {
	if key == "" {
		key = store.DefaultKey
	}
	return &ChangeDetector{store: s, key: key}
}

// IsNewReview compares counter byte-for-byte with the stored record and
// persists it when it differs or no record exists yet. On any storage error
// it reports no change so a broken store never causes duplicate mail.
func (d *ChangeDetector) IsNewReview(ctx context.Context, counter string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	prev, found, err := d.store.Load(ctx, d.key)
	if err != nil {
		return false, err
	}
	if found {
		d.state = PriorStateExists
		if prev == counter {
			return false, nil
		}
	}

	if err := d.store.Save(ctx, d.key, counter); err != nil {
		return false, err
	}
	d.state = PriorStateExists
	return true, nil
}

func (d *ChangeDetector) State() DetectorState {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}
