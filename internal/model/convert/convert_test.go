package convert

import (
	"database/sql"
	"testing"

	"github.com/OCAP2/courtstats/internal/model"
	"github.com/OCAP2/courtstats/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrajectoryToSamples(t *testing.T) {
	traj := core.Trajectory{
		{2: core.At(1, 2), 1: core.Missing()},
		{},
		{2: core.At(3, 4)},
	}

	samples := TrajectoryToSamples(7, traj)
	require.Len(t, samples, 3)

	assert.Equal(t, model.Sample{MatchID: 7, Frame: 0, EntityID: 1}, samples[0])
	assert.Equal(t, model.Sample{
		MatchID:  7,
		Frame:    0,
		EntityID: 2,
		X:        sql.NullFloat64{Float64: 1, Valid: true},
		Y:        sql.NullFloat64{Float64: 2, Valid: true},
	}, samples[1])
	assert.Equal(t, uint(2), samples[2].Frame)
}

func TestSamplesToTrajectory_RoundTrip(t *testing.T) {
	traj := core.Trajectory{
		{2: core.At(1, 2), 1: core.Missing()},
		{},
		{2: core.At(3, 4)},
	}

	got, err := SamplesToTrajectory(uint(len(traj)), TrajectoryToSamples(1, traj))
	require.NoError(t, err)
	assert.Equal(t, traj, got)
}

func TestSamplesToTrajectory_FrameOutOfRange(t *testing.T) {
	_, err := SamplesToTrajectory(2, []model.Sample{{Frame: 2}})
	assert.Error(t, err)
}
