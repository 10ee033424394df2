// Package convert provides functions to convert between GORM models and core trajectories
package convert

import (
	"database/sql"
	"fmt"
	"slices"

	"github.com/OCAP2/courtstats/internal/model"
	"github.com/OCAP2/courtstats/pkg/core"
)

// TrajectoryToSamples flattens traj into sample rows for matchID. Frames are visited in
// order and entities in ascending id order so that inserts are deterministic.
func TrajectoryToSamples(matchID uint, traj core.Trajectory) []model.Sample {
	var samples []model.Sample
	for i, frame := range traj {
		for _, id := range sortedIDs(frame) {
			rec := frame[id]
			s := model.Sample{
				MatchID:  matchID,
				Frame:    uint(i),
				EntityID: int(id),
			}
			if rec.Position != nil {
				s.X = sql.NullFloat64{Float64: rec.Position.X, Valid: true}
				s.Y = sql.NullFloat64{Float64: rec.Position.Y, Valid: true}
			}
			samples = append(samples, s)
		}
	}
	return samples
}

// SamplesToTrajectory rebuilds a trajectory with frameCount frames from sample rows.
func SamplesToTrajectory(frameCount uint, samples []model.Sample) (core.Trajectory, error) {
	traj := make(core.Trajectory, frameCount)
	for i := range traj {
		traj[i] = make(core.Frame)
	}
	for _, s := range samples {
		if s.Frame >= frameCount {
			return nil, fmt.Errorf("sample %d: frame %d beyond frame count %d", s.ID, s.Frame, frameCount)
		}
		rec := core.Missing()
		if s.X.Valid && s.Y.Valid {
			rec = core.At(s.X.Float64, s.Y.Float64)
		}
		traj[s.Frame][core.EntityID(s.EntityID)] = rec
	}
	return traj, nil
}

func sortedIDs(frame core.Frame) []core.EntityID {
	ids := make([]core.EntityID, 0, len(frame))
	for id := range frame {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}
