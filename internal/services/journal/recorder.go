// Package journal records committed pickup changes read from the broker.
package journal

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/BearBump/PickupDesk/internal/broker/messages"
	"github.com/pkg/errors"
)

type Repository interface {
	RecordChange(ctx context.Context, msg messages.PickupChanged) (bool, error)
}

// Recorder writes each pickup.changed event to the repository, retrying
// transient failures a few times before giving up on the message.
type Recorder struct {
	repo     Repository
	attempts int
	backoff  time.Duration

	startedAtUnixNano  int64
	lastRecordUnixNano atomic.Int64
	totalReceived      atomic.Int64
	totalRecorded      atomic.Int64
	totalDuplicates    atomic.Int64
	totalErrors        atomic.Int64
	lastErrorMu        sync.Mutex
	lastError          string
}

func New(repo Repository) *Recorder {
	return &Recorder{
		repo:              repo,
		attempts:          3,
		backoff:           500 * time.Millisecond,
		startedAtUnixNano: time.Now().UTC().UnixNano(),
	}
}

func (r *Recorder) WithRetry(attempts int, backoff time.Duration) *Recorder {
	if attempts > 0 {
		r.attempts = attempts
	}
	if backoff >= 0 {
		r.backoff = backoff
	}
	return r
}

// Handle is the consumer callback. A returned error leaves the message
// uncommitted.
func (r *Recorder) Handle(ctx context.Context, msg messages.PickupChanged) error {
	r.totalReceived.Add(1)

	var err error
	for i := 0; i < r.attempts; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(r.backoff * time.Duration(i)):
			}
		}
		var isNew bool
		isNew, err = r.repo.RecordChange(ctx, msg)
		if err == nil {
			r.lastRecordUnixNano.Store(time.Now().UTC().UnixNano())
			if isNew {
				r.totalRecorded.Add(1)
				slog.Info("pickup change recorded", "pickup_id", msg.PickupID, "kind", msg.Kind)
			} else {
				r.totalDuplicates.Add(1)
			}
			return nil
		}
		slog.Warn("record pickup change failed", "pickup_id", msg.PickupID, "attempt", i+1, "error", err.Error())
	}

	r.totalErrors.Add(1)
	r.lastErrorMu.Lock()
	r.lastError = err.Error()
	r.lastErrorMu.Unlock()
	return errors.Wrapf(err, "record pickup %d", msg.PickupID)
}

type Stats struct {
	StartedAt       time.Time  `json:"startedAt"`
	LastRecordAt    *time.Time `json:"lastRecordAt,omitempty"`
	TotalReceived   int64      `json:"totalReceived"`
	TotalRecorded   int64      `json:"totalRecorded"`
	TotalDuplicates int64      `json:"totalDuplicates"`
	TotalErrors     int64      `json:"totalErrors"`
	LastError       string     `json:"lastError,omitempty"`
}

func (r *Recorder) Stats() Stats {
	st := Stats{
		StartedAt:       time.Unix(0, r.startedAtUnixNano).UTC(),
		TotalReceived:   r.totalReceived.Load(),
		TotalRecorded:   r.totalRecorded.Load(),
		TotalDuplicates: r.totalDuplicates.Load(),
		TotalErrors:     r.totalErrors.Load(),
	}
	if n := r.lastRecordUnixNano.Load(); n > 0 {
		t := time.Unix(0, n).UTC()
		st.LastRecordAt = &t
	}
	r.lastErrorMu.Lock()
	st.LastError = r.lastError
	r.lastErrorMu.Unlock()
	return st
}
