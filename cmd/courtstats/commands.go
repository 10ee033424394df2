package main

import (
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/OCAP2/courtstats/internal/config"
	"github.com/OCAP2/courtstats/internal/heatmap"
	"github.com/OCAP2/courtstats/internal/source"
	"github.com/OCAP2/courtstats/pkg/core"
)

var gridFlagKeys = map[string]string{"rows": "grid.rows", "cols": "grid.cols"}

func handleHeatmap(args []string, stdout io.Writer) error {
	var c commonFlags
	fs := newFlagSet("heatmap", &c, "png")
	fs.Int("rows", 10, "grid rows along the court width")
	fs.Int("cols", 10, "grid columns along the court length")
	perEntity := fs.Bool("per-entity", false, "one heatmap per player instead of one for --entity")
	if err := c.parse(fs, args); err != nil {
		return err
	}
	if err := bindFlags(fs, gridFlagKeys); err != nil {
		return err
	}

	ctx := context.Background()
	a, err := newApp(ctx, c.configDir)
	if err != nil {
		return err
	}
	defer a.Close()

	in, err := a.input(ctx, c)
	if err != nil {
		return err
	}
	cfg := heatmap.Config{Surface: config.GetSurface(), Grid: config.GetGrid(), Filter: c.filter()}

	if *perEntity {
		runs, err := a.svc.EntityHeatmaps(ctx, in, cfg)
		if err != nil {
			return err
		}
		for _, run := range runs {
			id, _ := run.Entity.Entity()
			path := entityPath(c.out, "heatmap", c.format, id)
			if err := writeFile(path, func(w io.Writer) error {
				return writeHeatmap(w, c.format, run, cfg.Surface)
			}); err != nil {
				return err
			}
			fmt.Fprintln(stdout, path)
		}
		return nil
	}

	run, err := a.svc.Heatmap(ctx, in, cfg)
	if err != nil {
		return err
	}
	return emit(stdout, c.out, c.format, func(w io.Writer) error {
		return writeHeatmap(w, c.format, run, cfg.Surface)
	})
}

func handleZones(args []string, stdout io.Writer) error {
	var c commonFlags
	fs := newFlagSet("zones", &c, "json")
	zoneSpec := fs.String("zones", "", "zones as low:high[:name],... (default from config)")
	if err := c.parse(fs, args); err != nil {
		return err
	}

	ctx := context.Background()
	a, err := newApp(ctx, c.configDir)
	if err != nil {
		return err
	}
	defer a.Close()

	zs, err := zonesFromFlag(*zoneSpec)
	if err != nil {
		return err
	}
	in, err := a.input(ctx, c)
	if err != nil {
		return err
	}

	run, err := a.svc.Zones(ctx, in, zs, c.filter())
	if err != nil {
		return err
	}
	return emit(stdout, c.out, c.format, func(w io.Writer) error {
		return writeZones(w, c.format, run)
	})
}

func handleReport(args []string, stdout io.Writer) error {
	var c commonFlags
	fs := newFlagSet("report", &c, "png")
	fs.Int("rows", 10, "grid rows along the court width")
	fs.Int("cols", 10, "grid columns along the court length")
	zoneSpec := fs.String("zones", "", "zones as low:high[:name],... (default from config)")
	perEntity := fs.Bool("per-entity", false, "also write one heatmap and zone chart per player")
	if err := c.parse(fs, args); err != nil {
		return err
	}
	if err := bindFlags(fs, gridFlagKeys); err != nil {
		return err
	}
	if c.out == "" {
		c.out = "report"
	}
	if err := os.MkdirAll(c.out, 0755); err != nil {
		return fmt.Errorf("failed to create report directory: %w", err)
	}

	ctx := context.Background()
	a, err := newApp(ctx, c.configDir)
	if err != nil {
		return err
	}
	defer a.Close()

	zs, err := zonesFromFlag(*zoneSpec)
	if err != nil {
		return err
	}
	in, err := a.input(ctx, c)
	if err != nil {
		return err
	}
	cfg := heatmap.Config{Surface: config.GetSurface(), Grid: config.GetGrid(), Filter: c.filter()}

	hm, err := a.svc.Heatmap(ctx, in, cfg)
	if err != nil {
		return err
	}
	zr, err := a.svc.Zones(ctx, in, zs, cfg.Filter)
	if err != nil {
		return err
	}

	written := []string{
		filepath.Join(c.out, "heatmap_"+scopeName(cfg.Filter)+"."+c.format),
		filepath.Join(c.out, "zones_"+scopeName(cfg.Filter)+"."+c.format),
	}
	if err := writeFile(written[0], func(w io.Writer) error { return writeHeatmap(w, c.format, hm, cfg.Surface) }); err != nil {
		return err
	}
	if err := writeFile(written[1], func(w io.Writer) error { return writeZones(w, c.format, zr) }); err != nil {
		return err
	}

	if *perEntity {
		hms, err := a.svc.EntityHeatmaps(ctx, in, cfg)
		if err != nil {
			return err
		}
		zrs, err := a.svc.EntityZones(ctx, in, zs)
		if err != nil {
			return err
		}
		for i := range hms {
			id, _ := hms[i].Entity.Entity()
			hp := entityPath(c.out, "heatmap", c.format, id)
			zp := entityPath(c.out, "zones", c.format, id)
			if err := writeFile(hp, func(w io.Writer) error { return writeHeatmap(w, c.format, hms[i], cfg.Surface) }); err != nil {
				return err
			}
			if err := writeFile(zp, func(w io.Writer) error { return writeZones(w, c.format, zrs[i]) }); err != nil {
				return err
			}
			written = append(written, hp, zp)
		}
	}

	for _, path := range written {
		fmt.Fprintln(stdout, path)
	}
	return nil
}

func handleImport(args []string, stdout io.Writer) error {
	var c commonFlags
	fs := newFlagSet("import", &c, "json")
	name := fs.String("name", "", "match name (default: tracks file name)")
	if err := c.parse(fs, args); err != nil {
		return err
	}
	if c.tracks == "" {
		return fmt.Errorf("--tracks is required")
	}
	if *name == "" {
		base := filepath.Base(c.tracks)
		*name = strings.TrimSuffix(strings.TrimSuffix(base, ".gz"), filepath.Ext(strings.TrimSuffix(base, ".gz")))
	}

	ctx := context.Background()
	a, err := newApp(ctx, c.configDir)
	if err != nil {
		return err
	}
	defer a.Close()

	traj, err := loadTracks(c.tracks)
	if err != nil {
		return err
	}
	id, err := a.store.SaveTrajectory(ctx, *name, traj)
	if err != nil {
		return err
	}
	a.log.Info("Imported tracks", "match", id, "name", *name, "frames", len(traj))
	fmt.Fprintln(stdout, id)
	return nil
}

func handleRuns(args []string, stdout io.Writer) error {
	var c commonFlags
	fs := newFlagSet("runs", &c, "json")
	if err := c.parse(fs, args); err != nil {
		return err
	}

	ctx := context.Background()
	a, err := newApp(ctx, c.configDir)
	if err != nil {
		return err
	}
	defer a.Close()

	runs, err := a.store.ListRuns(ctx, c.matchID)
	if err != nil {
		return err
	}
	return writeJSON(stdout, runs)
}

func handleExport(args []string, stdout io.Writer) error {
	var c commonFlags
	fs := newFlagSet("export", &c, "json")
	if err := c.parse(fs, args); err != nil {
		return err
	}
	if c.matchID == 0 {
		return fmt.Errorf("--match is required")
	}

	ctx := context.Background()
	a, err := newApp(ctx, c.configDir)
	if err != nil {
		return err
	}
	defer a.Close()

	traj, err := a.store.LoadTrajectory(ctx, c.matchID)
	if err != nil {
		return err
	}
	if c.entitySet {
		traj = traj.Filter(c.filter())
	}

	if c.out == "" {
		return source.WriteTracksJSON(stdout, traj)
	}
	if err := writeFile(c.out, func(w io.Writer) error {
		if strings.HasSuffix(c.out, ".gz") {
			gz := gzip.NewWriter(w)
			if err := source.WriteTracksJSON(gz, traj); err != nil {
				gz.Close()
				return err
			}
			return gz.Close()
		}
		return source.WriteTracksJSON(w, traj)
	}); err != nil {
		return err
	}
	a.log.Info("Exported tracks", "match", c.matchID, "path", c.out, "frames", len(traj))
	fmt.Fprintln(stdout, c.out)
	return nil
}

func scopeName(f core.EntityFilter) string {
	if id, ok := f.Entity(); ok {
		return fmt.Sprintf("player%d", id)
	}
	return "all"
}

// entityPath names a per-player output file next to base.
func entityPath(base, kind, format string, id core.EntityID) string {
	dir := base
	if dir == "" {
		dir = "."
	} else if ext := filepath.Ext(dir); ext != "" {
		dir = filepath.Dir(dir)
	}
	return filepath.Join(dir, fmt.Sprintf("%s_player%d.%s", kind, id, format))
}

