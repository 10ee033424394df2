// Package analysis runs heatmap and zone passes and records them.
package analysis

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/OCAP2/courtstats/internal/heatmap"
	"github.com/OCAP2/courtstats/internal/influx"
	"github.com/OCAP2/courtstats/internal/model"
	"github.com/OCAP2/courtstats/internal/source"
	"github.com/OCAP2/courtstats/internal/storage"
	"github.com/OCAP2/courtstats/internal/worker"
	"github.com/OCAP2/courtstats/internal/zones"
	"github.com/OCAP2/courtstats/pkg/core"
	"github.com/google/uuid"
	influxdb2_write "github.com/influxdata/influxdb-client-go/v2/api/write"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// PointWriter receives influx points. *influx.Manager satisfies it.
type PointWriter interface {
	WritePoint(point *influxdb2_write.Point) error
}

// Dependencies holds the optional collaborators of a Service.
// Nil Store and Points disable persistence and publishing respectively.
type Dependencies struct {
	Logger *slog.Logger
	Store  storage.Backend
	Points PointWriter
	Limit  int // per-entity concurrency, GOMAXPROCS when <= 0

	Now   func() time.Time
	NewID func() string
}

// Input is the trajectory under analysis and, when it was stored, its match ID.
type Input struct {
	Trajectory core.Trajectory
	MatchID    uint
}

// HeatmapRun is the outcome of one heatmap pass.
type HeatmapRun struct {
	RunID  string
	Entity core.EntityFilter
	heatmap.Result
}

// ZonesRun is the outcome of one zone pass.
type ZonesRun struct {
	RunID  string
	Entity core.EntityFilter
	Zones  []core.Zone
	zones.Distribution
}

// Service runs analyses and records each one as a model.AnalysisRun.
type Service struct {
	deps Dependencies
	log  *slog.Logger

	samples metric.Int64Counter
	skipped metric.Int64Counter
	clamped metric.Int64Counter
	runs    metric.Int64Counter
}

// New creates a Service. Metrics use the global OTel meter (no-op if not configured).
func New(deps Dependencies) (*Service, error) {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.NewID == nil {
		deps.NewID = uuid.NewString
	}

	s := &Service{deps: deps, log: deps.Logger.With("component", "analysis")}
	m := meter()

	var err error
	s.samples, err = m.Int64Counter(
		"analysis.samples.counted",
		metric.WithDescription("Localised samples counted into a grid or zone"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating samples counter: %w", err)
	}

	s.skipped, err = m.Int64Counter(
		"analysis.samples.skipped",
		metric.WithDescription("Records skipped because the entity had no position"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating skipped counter: %w", err)
	}

	s.clamped, err = m.Int64Counter(
		"analysis.samples.clamped",
		metric.WithDescription("Heatmap samples clamped onto an edge cell"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating clamped counter: %w", err)
	}

	s.runs, err = m.Int64Counter(
		"analysis.runs",
		metric.WithDescription("Completed analysis runs"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating runs counter: %w", err)
	}

	return s, nil
}

type heatmapParams struct {
	Surface core.Surface  `json:"surface"`
	Grid    core.GridSize `json:"grid"`
	Entity  *int          `json:"entity"`
}

type heatmapResult struct {
	Grid  heatmap.Grid  `json:"grid"`
	Stats heatmap.Stats `json:"stats"`
}

type zonesParams struct {
	Zones  []core.Zone `json:"zones"`
	Entity *int        `json:"entity"`
}

type zonesResult struct {
	Counts      []int     `json:"counts"`
	Percentages []float64 `json:"percentages"`
	Classified  int       `json:"classified"`
	Unmatched   int       `json:"unmatched"`
	Skipped     int       `json:"skipped"`
}

func entityParam(f core.EntityFilter) *int {
	if id, ok := f.Entity(); ok {
		v := int(id)
		return &v
	}
	return nil
}

func entityColumn(f core.EntityFilter) sql.NullInt64 {
	if id, ok := f.Entity(); ok {
		return sql.NullInt64{Int64: int64(id), Valid: true}
	}
	return sql.NullInt64{}
}

func entityAttr(f core.EntityFilter) attribute.KeyValue {
	if id, ok := f.Entity(); ok {
		return attribute.Int("entity", int(id))
	}
	return attribute.String("entity", "all")
}

// Heatmap accumulates the occupancy grid for cfg and records the run.
func (s *Service) Heatmap(ctx context.Context, in Input, cfg heatmap.Config) (HeatmapRun, error) {
	res, err := heatmap.Accumulate(in.Trajectory, cfg)
	if err != nil {
		return HeatmapRun{}, err
	}

	run := HeatmapRun{RunID: s.deps.NewID(), Entity: cfg.Filter, Result: res}
	ts := s.deps.Now().UTC()

	attrs := metric.WithAttributes(attribute.String("kind", model.RunKindHeatmap), entityAttr(cfg.Filter))
	s.samples.Add(ctx, int64(res.Stats.Samples), attrs)
	s.skipped.Add(ctx, int64(res.Stats.Skipped), attrs)
	s.clamped.Add(ctx, int64(res.Stats.Clamped), attrs)
	s.runs.Add(ctx, 1, attrs)

	s.log.Debug("Heatmap accumulated",
		"run", run.RunID,
		"samples", res.Stats.Samples,
		"skipped", res.Stats.Skipped,
		"clamped", res.Stats.Clamped,
		"offSurface", res.Stats.OffSurface)

	record, err := newRun(run.RunID, ts, in.MatchID, model.RunKindHeatmap, cfg.Filter,
		res.Stats.Samples, res.Stats.Skipped,
		heatmapParams{Surface: cfg.Surface, Grid: cfg.Grid, Entity: entityParam(cfg.Filter)},
		heatmapResult{Grid: res.Grid, Stats: res.Stats})
	if err != nil {
		return HeatmapRun{}, err
	}
	if err := s.record(ctx, record); err != nil {
		return HeatmapRun{}, err
	}

	s.publish(influx.HeatmapPoint(influx.RunTags{RunID: run.RunID, MatchID: in.MatchID, Entity: cfg.Filter}, res, ts))
	return run, nil
}

// Zones classifies samples into zs and records the run.
func (s *Service) Zones(ctx context.Context, in Input, zs []core.Zone, filter core.EntityFilter) (ZonesRun, error) {
	d, err := zones.Classify(in.Trajectory, zs, filter)
	if err != nil {
		return ZonesRun{}, err
	}

	run := ZonesRun{RunID: s.deps.NewID(), Entity: filter, Zones: zs, Distribution: d}
	ts := s.deps.Now().UTC()

	attrs := metric.WithAttributes(attribute.String("kind", model.RunKindZones), entityAttr(filter))
	s.samples.Add(ctx, int64(d.Classified), attrs)
	s.skipped.Add(ctx, int64(d.Skipped), attrs)
	s.runs.Add(ctx, 1, attrs)

	if d.Classified == 0 {
		s.log.Warn("No samples fell inside any zone", "run", run.RunID, "unmatched", d.Unmatched)
	}
	s.log.Debug("Zones classified",
		"run", run.RunID,
		"classified", d.Classified,
		"unmatched", d.Unmatched,
		"skipped", d.Skipped)

	record, err := newRun(run.RunID, ts, in.MatchID, model.RunKindZones, filter,
		d.Classified, d.Skipped,
		zonesParams{Zones: zs, Entity: entityParam(filter)},
		zonesResult{
			Counts:      d.Counts,
			Percentages: d.Percentages,
			Classified:  d.Classified,
			Unmatched:   d.Unmatched,
			Skipped:     d.Skipped,
		})
	if err != nil {
		return ZonesRun{}, err
	}
	if err := s.record(ctx, record); err != nil {
		return ZonesRun{}, err
	}

	s.publish(influx.ZonePoints(influx.RunTags{RunID: run.RunID, MatchID: in.MatchID, Entity: filter}, zs, d, ts)...)
	return run, nil
}

// EntityHeatmaps runs one heatmap per entity present in the trajectory, ascending by id.
// cfg.Filter is ignored.
func (s *Service) EntityHeatmaps(ctx context.Context, in Input, cfg heatmap.Config) ([]HeatmapRun, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	ids := source.Entities(in.Trajectory)
	s.log.Info("Computing per-entity heatmaps", "entities", len(ids))

	return worker.PerEntity(ctx, ids, s.deps.Limit, func(ctx context.Context, id core.EntityID) (HeatmapRun, error) {
		c := cfg
		c.Filter = core.OnlyEntity(id)
		return s.Heatmap(ctx, in, c)
	})
}

// EntityZones runs one zone pass per entity present in the trajectory, ascending by id.
func (s *Service) EntityZones(ctx context.Context, in Input, zs []core.Zone) ([]ZonesRun, error) {
	if err := core.ValidateZones(zs); err != nil {
		return nil, err
	}

	ids := source.Entities(in.Trajectory)
	return worker.PerEntity(ctx, ids, s.deps.Limit, func(ctx context.Context, id core.EntityID) (ZonesRun, error) {
		return s.Zones(ctx, in, zs, core.OnlyEntity(id))
	})
}

func newRun(id string, ts time.Time, matchID uint, kind string, filter core.EntityFilter, samples, skipped int, params, result any) (*model.AnalysisRun, error) {
	p, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("encoding %s params: %w", kind, err)
	}
	r, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("encoding %s result: %w", kind, err)
	}
	return &model.AnalysisRun{
		ID:        id,
		CreatedAt: ts,
		MatchID:   matchID,
		Kind:      kind,
		EntityID:  entityColumn(filter),
		Samples:   samples,
		Skipped:   skipped,
		Params:    p,
		Result:    r,
	}, nil
}

func (s *Service) record(ctx context.Context, run *model.AnalysisRun) error {
	if s.deps.Store == nil {
		return nil
	}
	if err := s.deps.Store.SaveRun(ctx, run); err != nil {
		return fmt.Errorf("saving %s run %s: %w", run.Kind, run.ID, err)
	}
	return nil
}

// publish is best effort; the run is already recorded.
func (s *Service) publish(points ...*influxdb2_write.Point) {
	if s.deps.Points == nil {
		return
	}
	for _, p := range points {
		if err := s.deps.Points.WritePoint(p); err != nil {
			s.log.Warn("Failed to publish point", "measurement", p.Name(), "error", err)
			return
		}
	}
}
