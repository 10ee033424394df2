// internal/storage/storage.go
package storage

import (
	"context"

	"github.com/OCAP2/courtstats/internal/model"
	"github.com/OCAP2/courtstats/pkg/core"
)

// Backend is the interface all storage implementations must satisfy
type Backend interface {
	// Lifecycle
	Init() error
	Close() error

	// Trajectories (returns the assigned match ID)
	SaveTrajectory(ctx context.Context, name string, traj core.Trajectory) (uint, error)
	LoadTrajectory(ctx context.Context, matchID uint) (core.Trajectory, error)

	// Analysis runs
	SaveRun(ctx context.Context, run *model.AnalysisRun) error
	ListRuns(ctx context.Context, matchID uint) ([]model.AnalysisRun, error)
}

// Exporter is an optional interface for backends that write their contents to files.
type Exporter interface {
	ExportedFilePaths() []string
}
