package job

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"baja-recommender/types"
)

type fakeSource struct {
	batches [][]types.HistoricalBid
	since   []time.Time
}

func (f *fakeSource) ListPublishedSince(_ context.Context, since time.Time, _ int, fn func([]types.HistoricalBid) error) (int, error) {
	f.since = append(f.since, since)
	total := 0
	for _, b := range f.batches {
		total += len(b)
		if err := fn(b); err != nil {
			return total, err
		}
	}
	return total, nil
}

type fakeSink struct {
	stored []types.HistoricalBid
	err    error
}

func (f *fakeSink) Store(_ context.Context, bids []types.HistoricalBid) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.stored = append(f.stored, bids...)
	return len(bids), nil
}

func TestSyncJob_Run(t *testing.T) {
	src := &fakeSource{batches: [][]types.HistoricalBid{{{ID: "1"}, {ID: "2"}}, {{ID: "3"}}}}
	sink := &fakeSink{}
	job := NewSyncJob(src, sink)
	now := time.Date(2026, 5, 10, 3, 0, 0, 0, time.UTC)
	job.now = func() time.Time { return now }

	n, err := job.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Len(t, sink.stored, 3)
	assert.True(t, src.since[0].IsZero(), "first run is a full sync")

	_, err = job.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, now.Add(-lookback), src.since[1])
}

func TestSyncJob_SinkError(t *testing.T) {
	src := &fakeSource{batches: [][]types.HistoricalBid{{{ID: "1"}}}}
	job := NewSyncJob(src, &fakeSink{err: errors.New("bulk failed")})

	_, err := job.Run(context.Background())
	require.Error(t, err)

	// 失败后不推进 lastRun，下次仍然全量
	_, _ = job.Run(context.Background())
	assert.True(t, src.since[1].IsZero())
}

func TestStartSyncJob_InvalidSpec(t *testing.T) {
	_, err := StartSyncJob(NewSyncJob(&fakeSource{}, &fakeSink{}), "not a spec")
	assert.Error(t, err)

	c, err := StartSyncJob(NewSyncJob(&fakeSource{}, &fakeSink{}), "0 0 3 * * *")
	require.NoError(t, err)
	c.Stop()
}
