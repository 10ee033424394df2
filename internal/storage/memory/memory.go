// internal/storage/memory/memory.go
package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/OCAP2/courtstats/internal/config"
	"github.com/OCAP2/courtstats/internal/model"
	"github.com/OCAP2/courtstats/pkg/core"
)

// MatchRecord groups a stored trajectory with the runs computed over it
type MatchRecord struct {
	Match      model.Match
	Trajectory core.Trajectory
	Runs       []model.AnalysisRun
}

// Backend keeps trajectories and analysis runs in memory and exports them to JSON on Close
type Backend struct {
	cfg config.MemoryConfig

	matches map[uint]*MatchRecord
	adhoc   []model.AnalysisRun // runs over input that was never stored

	idCounter   uint
	exportPaths []string
	now         func() time.Time
	mu          sync.RWMutex
}

// New creates a new memory backend
func New(cfg config.MemoryConfig) *Backend {
	return &Backend{
		cfg:     cfg,
		matches: make(map[uint]*MatchRecord),
		now:     time.Now,
	}
}

// Init initializes the backend
func (b *Backend) Init() error {
	return nil
}

// Close exports everything recorded when an output directory is configured
func (b *Backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.cfg.OutputDir == "" {
		return nil
	}
	return b.exportAll()
}

// SaveTrajectory stores a copy of traj and returns its match ID
func (b *Backend) SaveTrajectory(_ context.Context, name string, traj core.Trajectory) (uint, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.idCounter++
	id := b.idCounter

	stored := traj.Filter(core.AllEntities())
	entities := make(map[core.EntityID]struct{})
	for _, frame := range stored {
		for eid := range frame {
			entities[eid] = struct{}{}
		}
	}

	b.matches[id] = &MatchRecord{
		Match: model.Match{
			ID:         id,
			CreatedAt:  b.now().UTC(),
			Name:       name,
			FrameCount: uint(len(stored)),
			Entities:   uint(len(entities)),
		},
		Trajectory: stored,
	}
	return id, nil
}

// LoadTrajectory returns a copy of a stored trajectory
func (b *Backend) LoadTrajectory(_ context.Context, matchID uint) (core.Trajectory, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	record, ok := b.matches[matchID]
	if !ok {
		return nil, fmt.Errorf("match %d: %w", matchID, core.ErrNotFound)
	}
	return record.Trajectory.Filter(core.AllEntities()), nil
}

// SaveRun records an analysis run. MatchID 0 means the input was not stored.
func (b *Backend) SaveRun(_ context.Context, run *model.AnalysisRun) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if run.CreatedAt.IsZero() {
		run.CreatedAt = b.now().UTC()
	}

	if run.MatchID == 0 {
		b.adhoc = append(b.adhoc, *run)
		return nil
	}
	record, ok := b.matches[run.MatchID]
	if !ok {
		return fmt.Errorf("match %d: %w", run.MatchID, core.ErrNotFound)
	}
	record.Runs = append(record.Runs, *run)
	return nil
}

// ListRuns returns the runs for a match in insertion order
func (b *Backend) ListRuns(_ context.Context, matchID uint) ([]model.AnalysisRun, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if matchID == 0 {
		return slices.Clone(b.adhoc), nil
	}
	record, ok := b.matches[matchID]
	if !ok {
		return nil, fmt.Errorf("match %d: %w", matchID, core.ErrNotFound)
	}
	return slices.Clone(record.Runs), nil
}

// ExportedFilePaths returns the files written by the last export
func (b *Backend) ExportedFilePaths() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return slices.Clone(b.exportPaths)
}
