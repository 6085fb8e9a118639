package cache

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/couchcryptid/cpi-lookup-service/internal/domain"
	"github.com/couchcryptid/cpi-lookup-service/internal/observability"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const ttl = 24 * time.Hour

func newTestStore() (*MemoryStore, *clockwork.FakeClock) {
	clock := clockwork.NewFakeClockAt(time.Date(2025, time.January, 10, 9, 0, 0, 0, time.UTC))
	return NewMemoryStore(clock, observability.NewMetricsForTesting()), clock
}

func record(month, year string, value int) domain.CPIRecord {
	return domain.CPIRecord{Month: month, Year: year, Value: &value, Notes: []domain.Footnote{}}
}

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, c.Write(&m))
	return m.GetCounter().GetValue()
}

func TestMemoryStore_SetGet(t *testing.T) {
	s, _ := newTestStore()
	ctx := context.Background()
	rec := record("March", "2019", 142)

	require.NoError(t, s.Set(ctx, rec.Key(), rec, ttl))

	got, ok, err := s.Get(ctx, "march2019")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, rec, got)
}

func TestMemoryStore_Miss(t *testing.T) {
	s, _ := newTestStore()

	_, ok, err := s.Get(context.Background(), "march2019")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryStore_ExpiresAtTTL(t *testing.T) {
	s, clock := newTestStore()
	ctx := context.Background()
	require.NoError(t, s.Set(ctx, "may2019", record("May", "2019", 149), ttl))

	clock.Advance(ttl - time.Second)
	_, ok, _ := s.Get(ctx, "may2019")
	assert.True(t, ok, "entry should survive until its expiry")

	clock.Advance(time.Second)
	_, ok, _ = s.Get(ctx, "may2019")
	assert.False(t, ok, "entry should be a miss at its expiry")
	assert.Equal(t, 1, s.Len(), "lazy expiry leaves the entry stored until purged")
}

func TestMemoryStore_OverwriteResetsExpiry(t *testing.T) {
	s, clock := newTestStore()
	ctx := context.Background()
	require.NoError(t, s.Set(ctx, "may2019", record("May", "2019", 149), ttl))

	clock.Advance(ttl / 2)
	require.NoError(t, s.Set(ctx, "may2019", record("May", "2019", 150), ttl))

	clock.Advance(ttl / 2)
	got, ok, _ := s.Get(ctx, "may2019")
	require.True(t, ok)
	assert.Equal(t, 150, *got.Value)
}

func TestMemoryStore_EntriesExpireIndependently(t *testing.T) {
	s, clock := newTestStore()
	ctx := context.Background()

	for i, month := range domain.EnglishMonths {
		rec := record(month, "2019", 140+i)
		require.NoError(t, s.Set(ctx, rec.Key(), rec, ttl))
	}
	clock.Advance(time.Hour)
	late := record("March", "2020", 150)
	require.NoError(t, s.Set(ctx, late.Key(), late, ttl))
	assert.Equal(t, 13, s.Len())

	clock.Advance(ttl - time.Hour)
	assert.Equal(t, 12, s.PurgeExpired())

	_, ok, _ := s.Get(ctx, "march2020")
	assert.True(t, ok)
	assert.Equal(t, 1, s.Len())
}

func TestMemoryStore_Run_SweepsExpired(t *testing.T) {
	s, clock := newTestStore()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, s.Set(ctx, "may2019", record("May", "2019", 149), time.Minute))
	require.NoError(t, s.Set(ctx, "june2019", record("June", "2019", 150), ttl))

	done := make(chan struct{})
	go func() {
		s.Run(ctx, 10*time.Minute)
		close(done)
	}()

	require.NoError(t, clock.BlockUntilContext(ctx, 1))
	clock.Advance(10 * time.Minute)

	assert.Eventually(t, func() bool { return s.Len() == 1 }, time.Second, 5*time.Millisecond)
	assert.InDelta(t, 1, counterValue(t, s.metrics.CacheEntriesSwept), 0)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestMemoryStore_ConcurrentAccess(t *testing.T) {
	s, _ := newTestStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := fmt.Sprintf("k%d", i%5)
			_ = s.Set(ctx, key, record("May", "2019", i), ttl)
			_, _, _ = s.Get(ctx, key)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 5, s.Len())
}

func TestNewMemoryStore_NilClock(t *testing.T) {
	s := NewMemoryStore(nil, nil)
	ctx := context.Background()
	require.NoError(t, s.Set(ctx, "may2019", record("May", "2019", 149), time.Hour))

	_, ok, err := s.Get(ctx, "may2019")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMemoryStore_CallerMutationsDoNotLeak(t *testing.T) {
	s, _ := newTestStore()
	ctx := context.Background()
	rec := record("March", "2019", 142)
	rec.Notes = []domain.Footnote{{Code: "P", Text: "Preliminary."}}
	require.NoError(t, s.Set(ctx, rec.Key(), rec, ttl))

	*rec.Value = 1
	rec.Notes[0].Code = "Y"

	got, ok, err := s.Get(ctx, "march2019")
	require.NoError(t, err)
	require.True(t, ok)
	*got.Value = 999
	got.Notes[0].Code = "X"

	again, _, _ := s.Get(ctx, "march2019")
	assert.Equal(t, 142, *again.Value)
	assert.Equal(t, "P", again.Notes[0].Code)
}
