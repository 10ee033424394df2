// Package gormstorage persists trajectories and analysis runs through GORM on Postgres or SQLite.
package gormstorage

import (
	"context"
	"errors"
	"fmt"

	"github.com/OCAP2/courtstats/internal/database"
	"github.com/OCAP2/courtstats/internal/model"
	"github.com/OCAP2/courtstats/internal/model/convert"
	"github.com/OCAP2/courtstats/pkg/core"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Connection modes
const (
	ModePostgres = "postgres" // Postgres, falling back to SQLite at Path
	ModeSQLite   = "sqlite"
)

const sampleBatchSize = 2000

// Dependencies holds everything the backend needs from the outside
type Dependencies struct {
	Manager *database.Manager
	Mode    string
	Path    string // SQLite file; in memory when empty
}

// Backend implements storage.Backend on a gorm database
type Backend struct {
	deps Dependencies
}

// New creates a new gorm backend. The connection is opened by Init.
func New(deps Dependencies) *Backend {
	return &Backend{deps: deps}
}

// Init connects and migrates the schema
func (b *Backend) Init() error {
	m := b.deps.Manager
	if m == nil {
		return fmt.Errorf("database manager not set")
	}

	var err error
	switch b.deps.Mode {
	case ModePostgres:
		m.SqliteFilePath = b.deps.Path
		err = m.Connect()
	default:
		err = m.ConnectSQLite(b.deps.Path)
	}
	if err != nil {
		return err
	}
	return m.Setup()
}

// Close closes the connection
func (b *Backend) Close() error {
	if b.deps.Manager == nil {
		return nil
	}
	return b.deps.Manager.Close()
}

func (b *Backend) db(ctx context.Context) (*gorm.DB, error) {
	m := b.deps.Manager
	if m == nil || !m.IsValid || m.DB == nil {
		return nil, fmt.Errorf("database not valid")
	}
	return m.DB.WithContext(ctx), nil
}

// SaveTrajectory writes a match row and one sample row per entity record
func (b *Backend) SaveTrajectory(ctx context.Context, name string, traj core.Trajectory) (uint, error) {
	db, err := b.db(ctx)
	if err != nil {
		return 0, err
	}

	entities := make(map[core.EntityID]struct{})
	for _, frame := range traj {
		for id := range frame {
			entities[id] = struct{}{}
		}
	}

	match := model.Match{
		Name:       name,
		FrameCount: uint(len(traj)),
		Entities:   uint(len(entities)),
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&match).Error; err != nil {
			return fmt.Errorf("failed to insert match: %w", err)
		}
		samples := convert.TrajectoryToSamples(match.ID, traj)
		if len(samples) == 0 {
			return nil
		}
		if err := tx.CreateInBatches(samples, sampleBatchSize).Error; err != nil {
			return fmt.Errorf("failed to insert samples: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	b.deps.Manager.Logger.Debug().
		Uint("matchId", match.ID).
		Uint("frames", match.FrameCount).
		Msg("Stored trajectory")
	return match.ID, nil
}

// LoadTrajectory rebuilds a stored trajectory
func (b *Backend) LoadTrajectory(ctx context.Context, matchID uint) (core.Trajectory, error) {
	db, err := b.db(ctx)
	if err != nil {
		return nil, err
	}

	var match model.Match
	if err := db.First(&match, matchID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("match %d: %w", matchID, core.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load match: %w", err)
	}

	var samples []model.Sample
	err = db.Where("match_id = ?", matchID).
		Order("frame, entity_id").
		Find(&samples).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load samples: %w", err)
	}

	return convert.SamplesToTrajectory(match.FrameCount, samples)
}

// SaveRun inserts an analysis run
func (b *Backend) SaveRun(ctx context.Context, run *model.AnalysisRun) error {
	db, err := b.db(ctx)
	if err != nil {
		return err
	}

	if run.MatchID != 0 {
		var count int64
		if err := db.Model(&model.Match{}).Where("id = ?", run.MatchID).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check match: %w", err)
		}
		if count == 0 {
			return fmt.Errorf("match %d: %w", run.MatchID, core.ErrNotFound)
		}
	}

	// NULL does not scan back into datatypes.JSON
	if len(run.Params) == 0 {
		run.Params = datatypes.JSON("{}")
	}
	if len(run.Result) == 0 {
		run.Result = datatypes.JSON("{}")
	}

	if err := db.Create(run).Error; err != nil {
		return fmt.Errorf("failed to insert analysis run: %w", err)
	}
	return nil
}

// ListRuns returns the runs recorded for a match, oldest first
func (b *Backend) ListRuns(ctx context.Context, matchID uint) ([]model.AnalysisRun, error) {
	db, err := b.db(ctx)
	if err != nil {
		return nil, err
	}

	if matchID != 0 {
		var count int64
		if err := db.Model(&model.Match{}).Where("id = ?", matchID).Count(&count).Error; err != nil {
			return nil, fmt.Errorf("failed to check match: %w", err)
		}
		if count == 0 {
			return nil, fmt.Errorf("match %d: %w", matchID, core.ErrNotFound)
		}
	}

	var runs []model.AnalysisRun
	err = db.Where("match_id = ?", matchID).
		Order("created_at, id").
		Find(&runs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list analysis runs: %w", err)
	}
	return runs, nil
}
