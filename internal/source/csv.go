package source

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/OCAP2/courtstats/pkg/core"
)

// ReadCSV reads "frame,entity,x,y" rows. A leading header row is skipped. Empty x and y
// mark a record with no position. Frame numbers may be sparse; the result has one frame per
// index up to the largest frame seen, with unlisted frames left empty.
func ReadCSV(r io.Reader) (core.Trajectory, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = 4
	cr.TrimLeadingSpace = true

	var traj core.Trajectory
	line := 0
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		line++

		frameNum, err := strconv.Atoi(strings.TrimSpace(row[0]))
		if err != nil {
			if line == 1 {
				continue
			}
			return nil, fmt.Errorf("%w: line %d: frame %q", ErrMalformed, line, row[0])
		}
		if frameNum < 0 {
			return nil, fmt.Errorf("%w: line %d: negative frame %d", ErrMalformed, line, frameNum)
		}
		id, err := strconv.Atoi(strings.TrimSpace(row[1]))
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: entity %q", ErrMalformed, line, row[1])
		}
		rec, err := parseCSVPosition(row[2], row[3])
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrMalformed, line, err)
		}

		for len(traj) <= frameNum {
			traj = append(traj, make(core.Frame))
		}
		if _, dup := traj[frameNum][core.EntityID(id)]; dup {
			return nil, fmt.Errorf("%w: line %d: entity %d listed twice in frame %d", ErrMalformed, line, id, frameNum)
		}
		traj[frameNum][core.EntityID(id)] = rec
	}
	return traj, nil
}

func parseCSVPosition(xs, ys string) (core.Record, error) {
	xs, ys = strings.TrimSpace(xs), strings.TrimSpace(ys)
	if xs == "" && ys == "" {
		return core.Missing(), nil
	}
	if xs == "" || ys == "" {
		return core.Record{}, fmt.Errorf("position has only one coordinate")
	}
	x, err := strconv.ParseFloat(xs, 64)
	if err != nil {
		return core.Record{}, fmt.Errorf("x %q: %v", xs, err)
	}
	y, err := strconv.ParseFloat(ys, 64)
	if err != nil {
		return core.Record{}, fmt.Errorf("y %q: %v", ys, err)
	}
	return core.At(x, y), nil
}
