package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/OCAP2/courtstats/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPerEntity_PreservesOrder(t *testing.T) {
	ids := []core.EntityID{5, 1, 9, 3}

	got, err := PerEntity(context.Background(), ids, 2, func(_ context.Context, id core.EntityID) (int, error) {
		// later ids finish first
		time.Sleep(time.Duration(10-id) * time.Millisecond)
		return int(id) * 10, nil
	})
	require.NoError(t, err)
	assert.Equal(t, []int{50, 10, 90, 30}, got)
}

func TestPerEntity_RespectsLimit(t *testing.T) {
	var inFlight, peak atomic.Int32
	ids := make([]core.EntityID, 20)
	for i := range ids {
		ids[i] = core.EntityID(i)
	}

	_, err := PerEntity(context.Background(), ids, 3, func(_ context.Context, _ core.EntityID) (struct{}, error) {
		n := inFlight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(2 * time.Millisecond)
		inFlight.Add(-1)
		return struct{}{}, nil
	})
	require.NoError(t, err)
	assert.LessOrEqual(t, peak.Load(), int32(3))
}

func TestPerEntity_FirstErrorWins(t *testing.T) {
	boom := errors.New("boom")
	ids := []core.EntityID{1, 2, 3, 4}

	got, err := PerEntity(context.Background(), ids, 1, func(_ context.Context, id core.EntityID) (int, error) {
		if id == 2 {
			return 0, boom
		}
		return int(id), nil
	})
	assert.ErrorIs(t, err, boom)
	assert.Nil(t, got)
}

func TestPerEntity_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var calls atomic.Int32
	_, err := PerEntity(ctx, []core.EntityID{1, 2}, 0, func(_ context.Context, _ core.EntityID) (int, error) {
		calls.Add(1)
		return 0, nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, calls.Load())
}

func TestPerEntity_Empty(t *testing.T) {
	got, err := PerEntity(context.Background(), nil, 4, func(_ context.Context, _ core.EntityID) (int, error) {
		return 1, nil
	})
	require.NoError(t, err)
	assert.Empty(t, got)
}
