package couriers

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/BearBump/PickupDesk/internal/cache/rediscache"
	"github.com/BearBump/PickupDesk/internal/models"
	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"
)

type countingSource struct {
	calls   atomic.Int64
	results [][]models.Courier
	err     error
	gate    chan struct{}
}

func (s *countingSource) FetchCouriers(ctx context.Context) ([]models.Courier, error) {
	n := s.calls.Add(1)
	if s.gate != nil {
		<-s.gate
	}
	if s.err != nil {
		return nil, s.err
	}
	i := int(n) - 1
	if i >= len(s.results) {
		i = len(s.results) - 1
	}
	return s.results[i], nil
}

var two = []models.Courier{{ID: 7, Name: "J. Araya"}, {ID: 8, Name: "M. Flores"}}

func TestDirectory_FetchOnce(t *testing.T) {
	src := &countingSource{results: [][]models.Courier{two}}
	d := New(src, nil, 0)

	for range 3 {
		cs, err := d.List(context.Background())
		require.NoError(t, err)
		require.Equal(t, two, cs)
	}
	require.Equal(t, int64(1), src.calls.Load())
	require.Equal(t, int64(1), d.Fetches())
}

func TestDirectory_RefetchWhenEmpty(t *testing.T) {
	src := &countingSource{results: [][]models.Courier{nil, two}}
	d := New(src, nil, 0)

	cs, err := d.List(context.Background())
	require.NoError(t, err)
	require.Empty(t, cs)

	cs, err = d.List(context.Background())
	require.NoError(t, err)
	require.Len(t, cs, 2)

	_, _ = d.List(context.Background())
	require.Equal(t, int64(2), src.calls.Load())
}

func TestDirectory_ConcurrentCallersShareFetch(t *testing.T) {
	src := &countingSource{results: [][]models.Courier{two}, gate: make(chan struct{})}
	d := New(src, nil, 0)

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			cs, err := d.List(context.Background())
			require.NoError(t, err)
			require.Len(t, cs, 2)
		}()
	}
	require.Eventually(t, func() bool { return src.calls.Load() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(src.gate)
	wg.Wait()
	require.Equal(t, int64(1), src.calls.Load())
}

// ctxSource fails the way a real HTTP fetch would once its ctx is cancelled.
type ctxSource struct {
	calls atomic.Int64
	gate  chan struct{}
}

func (s *ctxSource) FetchCouriers(ctx context.Context) ([]models.Courier, error) {
	s.calls.Add(1)
	<-s.gate
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return two, nil
}

func TestDirectory_CancelledCallerDoesNotFailOthers(t *testing.T) {
	src := &ctxSource{gate: make(chan struct{})}
	d := New(src, nil, 0)

	firstCtx, cancelFirst := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := d.List(firstCtx)
		firstErr <- err
	}()
	require.Eventually(t, func() bool { return src.calls.Load() == 1 }, time.Second, 5*time.Millisecond)

	second := make(chan []models.Courier, 1)
	go func() {
		cs, err := d.List(context.Background())
		require.NoError(t, err)
		second <- cs
	}()

	cancelFirst()
	require.ErrorIs(t, <-firstErr, context.Canceled)

	close(src.gate)
	require.Equal(t, two, <-second)
	require.Equal(t, int64(1), src.calls.Load())

	// the shared fetch completed and filled the directory
	cs, err := d.List(context.Background())
	require.NoError(t, err)
	require.Len(t, cs, 2)
	require.Equal(t, int64(1), src.calls.Load())
}

func TestDirectory_Error(t *testing.T) {
	src := &countingSource{err: errors.New("timeout")}
	d := New(src, nil, 0)

	_, err := d.List(context.Background())
	require.ErrorContains(t, err, "fetch couriers")
}

func TestDirectory_ReturnsCopy(t *testing.T) {
	src := &countingSource{results: [][]models.Courier{two}}
	d := New(src, nil, 0)

	cs, _ := d.List(context.Background())
	cs[0].Name = "changed"
	again, _ := d.List(context.Background())
	require.Equal(t, "J. Araya", again[0].Name)
}

func TestDirectory_RedisTier(t *testing.T) {
	mr := miniredis.RunT(t)
	rc := rediscache.New(mr.Addr(), "pickupdesk:")
	defer rc.Close()

	src := &countingSource{results: [][]models.Courier{two}}
	first := New(src, rc, time.Hour)
	_, err := first.List(context.Background())
	require.NoError(t, err)

	raw, err := mr.Get("pickupdesk:" + cacheKey)
	require.NoError(t, err)
	var stored []models.Courier
	require.NoError(t, json.Unmarshal([]byte(raw), &stored))
	require.Equal(t, two, stored)

	// a second session sharing the cache does not hit the backend
	second := New(src, rc, time.Hour)
	cs, err := second.List(context.Background())
	require.NoError(t, err)
	require.Equal(t, two, cs)
	require.Equal(t, int64(1), src.calls.Load())
	require.Zero(t, second.Fetches())
}

func TestDirectory_RedisDownFallsBackToSource(t *testing.T) {
	mr := miniredis.RunT(t)
	rc := rediscache.New(mr.Addr(), "")
	defer rc.Close()
	mr.Close()

	src := &countingSource{results: [][]models.Courier{two}}
	cs, err := New(src, rc, time.Hour).List(context.Background())
	require.NoError(t, err)
	require.Len(t, cs, 2)
}
