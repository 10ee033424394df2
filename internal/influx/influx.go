package influx

import (
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/OCAP2/courtstats/internal/config"
	"github.com/OCAP2/courtstats/internal/heatmap"
	"github.com/OCAP2/courtstats/internal/zones"
	"github.com/OCAP2/courtstats/pkg/core"
	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	influxdb2_api "github.com/influxdata/influxdb-client-go/v2/api"
	influxdb2_write "github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/influxdata/influxdb-client-go/v2/domain"
	"github.com/rs/zerolog"
)

// ErrDisabled is returned by Connect when influx publishing is turned off.
var ErrDisabled = errors.New("influx publishing is disabled")

// Measurements written per run
const (
	MeasurementZoneDwell = "zone_dwell"
	MeasurementHeatmap   = "heatmap_run"
)

// Manager handles InfluxDB connections and writes.
type Manager struct {
	Client       influxdb2.Client
	Writer       influxdb2_api.WriteAPI
	BackupWriter *gzip.Writer
	IsValid      bool
	Config       config.InfluxConfig
	Logger       zerolog.Logger

	backupFile *os.File
	mu         sync.Mutex // guards BackupWriter
}

// NewManager creates a new InfluxDB manager.
func NewManager(log zerolog.Logger, cfg config.InfluxConfig) *Manager {
	return &Manager{
		IsValid: false,
		Config:  cfg,
		Logger:  log,
	}
}

// Connect establishes a connection to InfluxDB. When the server cannot be reached,
// points go to a gzip line-protocol backup file instead.
func (m *Manager) Connect(ctx context.Context) error {
	if !m.Config.Enabled {
		return ErrDisabled
	}

	m.Client = influxdb2.NewClientWithOptions(
		m.Config.URL,
		m.Config.Token,
		influxdb2.DefaultOptions().
			SetBatchSize(2500).
			SetFlushInterval(1000),
	)

	// validate client connection health
	running, err := m.Client.Ping(ctx)
	if err != nil || !running {
		m.IsValid = false
		m.Logger.Warn().Err(err).Str("backupPath", m.Config.BackupPath).
			Msg("InfluxDB unreachable, writing to backup file")
		return m.openBackup()
	}

	if err := m.setupOrganizationAndBucket(ctx); err != nil {
		return err
	}
	m.createWriter()
	m.IsValid = true
	m.Logger.Info().Str("bucket", m.Config.Bucket).Msg("InfluxDB client initialized")
	return nil
}

func (m *Manager) openBackup() error {
	if m.BackupWriter != nil {
		return nil
	}
	file, err := os.OpenFile(m.Config.BackupPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("error creating backup file: %w", err)
	}
	m.backupFile = file
	m.BackupWriter = gzip.NewWriter(file)
	return nil
}

func (m *Manager) setupOrganizationAndBucket(ctx context.Context) error {
	orgName := m.Config.Org

	// ensure org exists
	influxOrg, err := m.Client.OrganizationsAPI().FindOrganizationByName(ctx, orgName)
	if err != nil {
		m.Logger.Info().Str("org", orgName).Msg("Organization not found, creating")
		influxOrg, err = m.Client.OrganizationsAPI().CreateOrganizationWithName(ctx, orgName)
		if err != nil {
			m.Logger.Error().Err(err).Str("org", orgName).Msg("Error creating organization")
			return err
		}
	}

	// ensure bucket exists with 90 day retention
	_, err = m.Client.BucketsAPI().FindBucketByName(ctx, m.Config.Bucket)
	if err != nil {
		m.Logger.Info().Str("bucket", m.Config.Bucket).Msg("Bucket not found, creating")

		rule := domain.RetentionRuleTypeExpire
		_, err = m.Client.BucketsAPI().CreateBucketWithName(ctx, influxOrg, m.Config.Bucket, domain.RetentionRule{
			Type:         &rule,
			EverySeconds: 60 * 60 * 24 * 90, // 90 days
		})
		if err != nil {
			m.Logger.Error().Err(err).Str("bucket", m.Config.Bucket).Msg("Error creating bucket")
			return err
		}
	}

	return nil
}

func (m *Manager) createWriter() {
	m.Writer = m.Client.WriteAPI(m.Config.Org, m.Config.Bucket)

	errorsCh := m.Writer.Errors()
	go func() {
		for writeErr := range errorsCh {
			m.Logger.Error().Err(writeErr).Str("bucket", m.Config.Bucket).
				Msg("Error sending data to InfluxDB")
		}
	}()
}

// WritePoint writes a point to InfluxDB or the backup file.
func (m *Manager) WritePoint(point *influxdb2_write.Point) error {
	if m.IsValid {
		m.Writer.WritePoint(point)
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.BackupWriter == nil {
		return fmt.Errorf("influxDB client not initialized and backup writer not available")
	}

	lineProtocol := influxdb2_write.PointToLineProtocol(point, time.Nanosecond)
	if _, err := m.BackupWriter.Write([]byte(lineProtocol)); err != nil {
		return fmt.Errorf("error writing to InfluxDB backup file: %w", err)
	}
	return nil
}

// Close flushes pending writes and releases the client and backup file.
func (m *Manager) Close() error {
	if m.Writer != nil {
		m.Writer.Flush()
	}
	if m.Client != nil {
		m.Client.Close()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	var err error
	if m.BackupWriter != nil {
		err = m.BackupWriter.Close()
		m.BackupWriter = nil
	}
	if m.backupFile != nil {
		if cerr := m.backupFile.Close(); err == nil {
			err = cerr
		}
		m.backupFile = nil
	}
	m.IsValid = false
	return err
}

// RunTags identifies the analysis run a point belongs to.
type RunTags struct {
	RunID   string
	MatchID uint
	Entity  core.EntityFilter
}

func (t RunTags) apply(p *influxdb2_write.Point) {
	p.AddTag("run", t.RunID)
	p.AddTag("match", strconv.FormatUint(uint64(t.MatchID), 10))
	if id, ok := t.Entity.Entity(); ok {
		p.AddTag("entity", strconv.Itoa(int(id)))
	} else {
		p.AddTag("entity", "all")
	}
}

// ZoneTag is the tag value for zone i: its name, or zone_N when unnamed.
func ZoneTag(zs []core.Zone, i int) string {
	if zs[i].Name != "" {
		return zs[i].Name
	}
	return "zone_" + strconv.Itoa(i+1)
}

// ZonePoints builds one point per zone with its count and percentage.
func ZonePoints(tags RunTags, zs []core.Zone, d zones.Distribution, ts time.Time) []*influxdb2_write.Point {
	points := make([]*influxdb2_write.Point, 0, len(zs))
	for i := range zs {
		p := influxdb2_write.NewPointWithMeasurement(MeasurementZoneDwell)
		tags.apply(p)
		p.AddTag("zone", ZoneTag(zs, i))
		p.AddField("count", d.Counts[i])
		p.AddField("percent", d.Percentages[i])
		p.AddField("low", zs[i].Low)
		p.AddField("high", zs[i].High)
		p.SetTime(ts)
		points = append(points, p)
	}
	return points
}

// HeatmapPoint summarises a heatmap pass in a single point.
func HeatmapPoint(tags RunTags, res heatmap.Result, ts time.Time) *influxdb2_write.Point {
	rows, cols := res.Grid.Dims()

	p := influxdb2_write.NewPointWithMeasurement(MeasurementHeatmap)
	tags.apply(p)
	p.AddField("rows", rows)
	p.AddField("cols", cols)
	p.AddField("samples", res.Stats.Samples)
	p.AddField("skipped", res.Stats.Skipped)
	p.AddField("clamped", res.Stats.Clamped)
	p.AddField("off_surface", res.Stats.OffSurface)
	p.AddField("max_cell", res.Grid.Max())
	p.SetTime(ts)
	return p
}
