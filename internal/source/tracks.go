// Package source reads and writes per-frame entity trajectories.
package source

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"

	"github.com/OCAP2/courtstats/pkg/core"
)

// ErrMalformed is returned for input that cannot be decoded into a trajectory.
var ErrMalformed = errors.New("malformed trajectory input")

var gzipMagic = []byte{0x1f, 0x8b}

type trackInfo struct {
	PositionTransformed json.RawMessage `json:"position_transformed,omitempty"`
}

type tracksFile struct {
	Players []map[string]trackInfo `json:"players"`
}

// LoadTracksFile opens a tracks JSON file, transparently decompressing gzip input.
func LoadTracksFile(path string) (core.Trajectory, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open tracks file: %w", err)
	}
	defer f.Close()

	return ReadTracksJSON(f)
}

// ReadTracksJSON decodes the tracking pipeline layout
//
//	{"players": [{"<id>": {"position_transformed": [x, y]}, ...}, ...]}
//
// where each element of players is one frame. A missing or null position_transformed
// yields a record with no position. Gzip input is detected by its magic bytes.
func ReadTracksJSON(r io.Reader) (core.Trajectory, error) {
	br := bufio.NewReader(r)
	if head, err := br.Peek(2); err == nil && bytes.Equal(head, gzipMagic) {
		gz, err := gzip.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("failed to open gzip stream: %w", err)
		}
		defer gz.Close()
		return decodeTracks(gz)
	}
	return decodeTracks(br)
}

func decodeTracks(r io.Reader) (core.Trajectory, error) {
	var file tracksFile
	if err := json.NewDecoder(r).Decode(&file); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	traj := make(core.Trajectory, len(file.Players))
	for i, players := range file.Players {
		frame := make(core.Frame, len(players))
		for key, info := range players {
			id, err := strconv.Atoi(key)
			if err != nil {
				return nil, fmt.Errorf("%w: frame %d: entity id %q is not an integer", ErrMalformed, i, key)
			}
			rec, err := decodePosition(info.PositionTransformed)
			if err != nil {
				return nil, fmt.Errorf("%w: frame %d entity %d: %v", ErrMalformed, i, id, err)
			}
			frame[core.EntityID(id)] = rec
		}
		traj[i] = frame
	}
	return traj, nil
}

func decodePosition(raw json.RawMessage) (core.Record, error) {
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return core.Missing(), nil
	}
	var xy []float64
	if err := json.Unmarshal(raw, &xy); err != nil {
		return core.Record{}, err
	}
	if len(xy) != 2 {
		return core.Record{}, fmt.Errorf("position has %d coordinates, want 2", len(xy))
	}
	return core.At(xy[0], xy[1]), nil
}

// WriteTracksJSON encodes traj in the layout ReadTracksJSON accepts.
func WriteTracksJSON(w io.Writer, traj core.Trajectory) error {
	file := tracksFile{Players: make([]map[string]trackInfo, len(traj))}
	for i, frame := range traj {
		players := make(map[string]trackInfo, len(frame))
		for id, rec := range frame {
			info := trackInfo{PositionTransformed: json.RawMessage("null")}
			if rec.Position != nil {
				b, err := json.Marshal([2]float64{rec.Position.X, rec.Position.Y})
				if err != nil {
					return fmt.Errorf("frame %d entity %d: %w", i, id, err)
				}
				info.PositionTransformed = b
			}
			players[strconv.Itoa(int(id))] = info
		}
		file.Players[i] = players
	}

	enc := json.NewEncoder(w)
	return enc.Encode(file)
}

// Entities returns the distinct entity ids in traj, ascending.
func Entities(traj core.Trajectory) []core.EntityID {
	seen := make(map[core.EntityID]struct{})
	for _, frame := range traj {
		for id := range frame {
			seen[id] = struct{}{}
		}
	}
	ids := make([]core.EntityID, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}
