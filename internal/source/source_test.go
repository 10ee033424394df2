package source

import (
	"bytes"
	"compress/gzip"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/OCAP2/courtstats/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleTracks = `{
	"players": [
		{"1": {"position_transformed": [1.5, 2.5]}, "2": {"position_transformed": null}},
		{"1": {"bbox": [0, 0, 10, 10]}},
		{}
	]
}`

func TestReadTracksJSON(t *testing.T) {
	traj, err := ReadTracksJSON(strings.NewReader(sampleTracks))
	require.NoError(t, err)
	require.Len(t, traj, 3)

	require.NotNil(t, traj[0][1].Position)
	assert.Equal(t, core.Position2D{X: 1.5, Y: 2.5}, *traj[0][1].Position)
	assert.Nil(t, traj[0][2].Position)

	rec, ok := traj[1][1]
	require.True(t, ok, "entity present without a position")
	assert.Nil(t, rec.Position)

	assert.Empty(t, traj[2])
}

func TestReadTracksJSON_Gzip(t *testing.T) {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	_, err := gz.Write([]byte(sampleTracks))
	require.NoError(t, err)
	require.NoError(t, gz.Close())

	traj, err := ReadTracksJSON(&buf)
	require.NoError(t, err)
	assert.Len(t, traj, 3)
}

func TestReadTracksJSON_Malformed(t *testing.T) {
	tests := map[string]string{
		"not json":          `{"players": [`,
		"non integer id":    `{"players": [{"abc": {"position_transformed": [1, 2]}}]}`,
		"three coordinates": `{"players": [{"1": {"position_transformed": [1, 2, 3]}}]}`,
		"string position":   `{"players": [{"1": {"position_transformed": "1,2"}}]}`,
		"empty input":       ``,
	}

	for name, in := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ReadTracksJSON(strings.NewReader(in))
			assert.ErrorIs(t, err, ErrMalformed)
		})
	}
}

func TestWriteTracksJSON_RoundTrip(t *testing.T) {
	traj := core.Trajectory{
		{3: core.At(4, 5), 7: core.Missing()},
		{},
		{3: core.At(-1, 0.25)},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteTracksJSON(&buf, traj))

	got, err := ReadTracksJSON(&buf)
	require.NoError(t, err)
	assert.Equal(t, traj, got)
}

func TestLoadTracksFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tracks.json")
	require.NoError(t, os.WriteFile(path, []byte(sampleTracks), 0644))

	traj, err := LoadTracksFile(path)
	require.NoError(t, err)
	assert.Len(t, traj, 3)

	_, err = LoadTracksFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestReadCSV(t *testing.T) {
	in := `frame,entity,x,y
0,1,1.0,2.0
0,2,,
3,1,5.5,6.5
`
	traj, err := ReadCSV(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, traj, 4, "sparse frames are expanded")

	assert.Equal(t, core.Position2D{X: 1, Y: 2}, *traj[0][1].Position)
	assert.Nil(t, traj[0][2].Position)
	assert.Empty(t, traj[1])
	assert.Empty(t, traj[2])
	assert.Equal(t, core.Position2D{X: 5.5, Y: 6.5}, *traj[3][1].Position)
}

func TestReadCSV_NoHeader(t *testing.T) {
	traj, err := ReadCSV(strings.NewReader("1,4,0.5,0.5\n"))
	require.NoError(t, err)
	require.Len(t, traj, 2)
	assert.Empty(t, traj[0])
	assert.NotNil(t, traj[1][4].Position)
}

func TestReadCSV_Errors(t *testing.T) {
	tests := map[string]string{
		"bad frame after header": "frame,entity,x,y\nx,1,1,1\n",
		"negative frame":         "-1,1,1,1\n",
		"bad entity":             "0,a,1,1\n",
		"half position":          "0,1,1,\n",
		"bad coordinate":         "0,1,one,1\n",
		"duplicate entity":       "0,1,1,1\n0,1,2,2\n",
		"wrong field count":      "0,1,1\n",
	}

	for name, in := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ReadCSV(strings.NewReader(in))
			assert.ErrorIs(t, err, ErrMalformed)
		})
	}
}

func TestEntities(t *testing.T) {
	traj := core.Trajectory{
		{9: core.At(0, 0), 2: core.Missing()},
		{},
		{5: core.At(1, 1), 2: core.At(1, 1)},
	}
	assert.Equal(t, []core.EntityID{2, 5, 9}, Entities(traj))
	assert.Empty(t, Entities(nil))
}
