package influx

import (
	"bufio"
	"compress/gzip"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/OCAP2/courtstats/internal/config"
	"github.com/OCAP2/courtstats/internal/heatmap"
	"github.com/OCAP2/courtstats/internal/zones"
	"github.com/OCAP2/courtstats/pkg/core"
	influxdb2_write "github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ts = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

func court() []core.Zone {
	return []core.Zone{
		{Low: 0, High: 23, Name: "Defense"},
		{Low: 23, High: 45},
	}
}

func readBackup(t *testing.T, path string) []string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	gz, err := gzip.NewReader(f)
	require.NoError(t, err)

	var lines []string
	sc := bufio.NewScanner(gz)
	for sc.Scan() {
		if sc.Text() != "" {
			lines = append(lines, sc.Text())
		}
	}
	require.NoError(t, sc.Err())
	return lines
}

func TestConnect_Disabled(t *testing.T) {
	m := NewManager(zerolog.New(io.Discard), config.InfluxConfig{Enabled: false})
	assert.ErrorIs(t, m.Connect(context.Background()), ErrDisabled)
	assert.NoError(t, m.Close())
}

func TestWritePoint_NotConnected(t *testing.T) {
	m := NewManager(zerolog.New(io.Discard), config.InfluxConfig{})
	err := m.WritePoint(influxdb2_write.NewPointWithMeasurement("x"))
	assert.Error(t, err)
}

func TestConnect_UnreachableFallsBackToBackup(t *testing.T) {
	backup := filepath.Join(t.TempDir(), "influx.lp.gz")
	m := NewManager(zerolog.New(io.Discard), config.InfluxConfig{
		Enabled:    true,
		URL:        "http://127.0.0.1:1",
		Org:        "courtstats",
		Bucket:     "dwell",
		BackupPath: backup,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, m.Connect(ctx))
	assert.False(t, m.IsValid)
	require.NotNil(t, m.BackupWriter)

	d := zones.Distribution{Counts: []int{3, 1}, Percentages: []float64{75, 25}}
	for _, p := range ZonePoints(RunTags{RunID: "r1", MatchID: 4, Entity: core.OnlyEntity(3)}, court(), d, ts) {
		require.NoError(t, m.WritePoint(p))
	}
	require.NoError(t, m.Close())

	lines := readBackup(t, backup)
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "zone_dwell,")
	assert.Contains(t, lines[0], "zone=Defense")
	assert.Contains(t, lines[0], "entity=3")
	assert.Contains(t, lines[0], "match=4")
	assert.Contains(t, lines[0], "count=3i")
	assert.Contains(t, lines[0], "percent=75")
	assert.Contains(t, lines[1], "zone=zone_2")
	assert.Contains(t, lines[1], "percent=25")
}

func TestZoneTag(t *testing.T) {
	zs := court()
	assert.Equal(t, "Defense", ZoneTag(zs, 0))
	assert.Equal(t, "zone_2", ZoneTag(zs, 1))
}

func TestHeatmapPoint(t *testing.T) {
	res := heatmap.Result{
		Grid:  heatmap.Grid{{1, 4}, {0, 2}},
		Stats: heatmap.Stats{Samples: 7, Skipped: 2, Clamped: 1},
	}

	p := HeatmapPoint(RunTags{RunID: "r2"}, res, ts)
	line := influxdb2_write.PointToLineProtocol(p, time.Nanosecond)

	assert.Contains(t, line, "heatmap_run,")
	assert.Contains(t, line, "entity=all")
	assert.Contains(t, line, "samples=7i")
	assert.Contains(t, line, "skipped=2i")
	assert.Contains(t, line, "clamped=1i")
	assert.Contains(t, line, "max_cell=4i")
	assert.Equal(t, ts, p.Time())
}
