// Package couriers serves the courier list used to pick a carrier.
package couriers

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/BearBump/PickupDesk/internal/cache"
	"github.com/BearBump/PickupDesk/internal/models"
	"github.com/pkg/errors"
	"golang.org/x/sync/singleflight"
)

const cacheKey = "couriers:list"

type Source interface {
	FetchCouriers(ctx context.Context) ([]models.Courier, error)
}

// Directory fetches the courier list once per session and serves it from
// memory afterwards. A list that came back empty is fetched again on the next
// call; concurrent callers share one fetch. The optional shared cache is
// consulted before the source and filled after it.
type Directory struct {
	src   Source
	cache cache.BytesCache
	ttl   time.Duration

	mu       sync.RWMutex
	couriers []models.Courier

	group   singleflight.Group
	fetches int64
}

func New(src Source, c cache.BytesCache, ttl time.Duration) *Directory {
	return &Directory{src: src, cache: c, ttl: ttl}
}

func (d *Directory) List(ctx context.Context) ([]models.Courier, error) {
	if cs := d.cached(); len(cs) > 0 {
		return cs, nil
	}
	// The shared fetch outlives any single caller; each caller still stops
	// waiting when its own ctx is done.
	fetchCtx := context.WithoutCancel(ctx)
	ch := d.group.DoChan(cacheKey, func() (any, error) {
		if cs := d.cached(); len(cs) > 0 {
			return cs, nil
		}
		cs, err := d.load(fetchCtx)
		if err != nil {
			return nil, err
		}
		d.mu.Lock()
		d.couriers = cs
		d.mu.Unlock()
		return cs, nil
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return clone(res.Val.([]models.Courier)), nil
	}
}

// Fetches reports how many times the source was hit.
func (d *Directory) Fetches() int64 {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.fetches
}

func (d *Directory) cached() []models.Courier {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if len(d.couriers) == 0 {
		return nil
	}
	return clone(d.couriers)
}

func (d *Directory) load(ctx context.Context) ([]models.Courier, error) {
	if d.cache != nil {
		b, ok, err := d.cache.Get(ctx, cacheKey)
		if err != nil {
			slog.Warn("courier cache get failed", "error", err.Error())
		} else if ok {
			var cs []models.Courier
			if err := json.Unmarshal(b, &cs); err == nil && len(cs) > 0 {
				return cs, nil
			}
		}
	}

	d.mu.Lock()
	d.fetches++
	d.mu.Unlock()
	cs, err := d.src.FetchCouriers(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "fetch couriers")
	}

	if d.cache != nil && len(cs) > 0 {
		if b, err := json.Marshal(cs); err == nil {
			if err := d.cache.Set(ctx, cacheKey, b, d.ttl); err != nil {
				slog.Warn("courier cache set failed", "error", err.Error())
			}
		}
	}
	return cs, nil
}

func clone(cs []models.Courier) []models.Courier {
	return append([]models.Courier(nil), cs...)
}
