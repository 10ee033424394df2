// internal/storage/memory/export.go
package memory

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/OCAP2/courtstats/internal/model"
)

// MatchExport is the root JSON structure of an exported match
type MatchExport struct {
	MatchName  string              `json:"matchName"`
	MatchID    uint                `json:"matchId"`
	FrameCount uint                `json:"frameCount"`
	Entities   uint                `json:"entities"`
	ExportedAt time.Time           `json:"exportedAt"`
	Runs       []model.AnalysisRun `json:"runs"`
}

// exportAll writes one file per stored match, plus one for ad-hoc runs if there are any
func (b *Backend) exportAll() error {
	ids := make([]uint, 0, len(b.matches))
	for id := range b.matches {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	b.exportPaths = b.exportPaths[:0]
	for _, id := range ids {
		record := b.matches[id]
		path, err := b.exportJSON(MatchExport{
			MatchName:  record.Match.Name,
			MatchID:    record.Match.ID,
			FrameCount: record.Match.FrameCount,
			Entities:   record.Match.Entities,
			Runs:       record.Runs,
		}, record.Match.CreatedAt)
		if err != nil {
			return err
		}
		b.exportPaths = append(b.exportPaths, path)
	}

	if len(b.adhoc) > 0 {
		path, err := b.exportJSON(MatchExport{MatchName: "adhoc", Runs: b.adhoc}, b.adhoc[0].CreatedAt)
		if err != nil {
			return err
		}
		b.exportPaths = append(b.exportPaths, path)
	}
	return nil
}

// exportJSON writes a match export to {name}_{timestamp}.json[.gz]
func (b *Backend) exportJSON(export MatchExport, ts time.Time) (string, error) {
	export.ExportedAt = b.now().UTC()
	if export.Runs == nil {
		export.Runs = []model.AnalysisRun{}
	}

	// Build filename
	name := sanitizeName(export.MatchName)
	timestamp := ts.Format("20060102_150405")

	var filename string
	if b.cfg.CompressOutput {
		filename = fmt.Sprintf("%s_%s.json.gz", name, timestamp)
	} else {
		filename = fmt.Sprintf("%s_%s.json", name, timestamp)
	}
	if export.MatchID != 0 {
		filename = fmt.Sprintf("%d_%s", export.MatchID, filename)
	}

	outputPath := filepath.Join(b.cfg.OutputDir, filename)

	// Ensure output directory exists
	if err := os.MkdirAll(b.cfg.OutputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	var err error
	if b.cfg.CompressOutput {
		err = writeGzipJSON(outputPath, export)
	} else {
		err = writeJSON(outputPath, export)
	}
	if err != nil {
		return "", err
	}
	return outputPath, nil
}

func sanitizeName(name string) string {
	if name == "" {
		return "match"
	}
	return strings.NewReplacer(" ", "_", ":", "_", "/", "_", "\\", "_").Replace(name)
}

func writeJSON(path string, data MatchExport) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	encoder := json.NewEncoder(f)
	return encoder.Encode(data)
}

func writeGzipJSON(path string, data MatchExport) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	gzWriter := gzip.NewWriter(f)
	encoder := json.NewEncoder(gzWriter)
	if err := encoder.Encode(data); err != nil {
		gzWriter.Close()
		return err
	}
	return gzWriter.Close()
}
