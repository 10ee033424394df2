package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/OCAP2/courtstats/internal/analysis"
	"github.com/OCAP2/courtstats/internal/config"
	"github.com/OCAP2/courtstats/internal/influx"
	"github.com/OCAP2/courtstats/internal/logging"
	"github.com/OCAP2/courtstats/internal/otel"
	"github.com/OCAP2/courtstats/internal/source"
	"github.com/OCAP2/courtstats/internal/storage"
	"github.com/OCAP2/courtstats/pkg/core"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// commonFlags are shared by every analysis command.
type commonFlags struct {
	configDir string
	tracks    string
	matchID   uint
	entity    int
	entitySet bool
	format    string
	out       string
}

func newFlagSet(name string, c *commonFlags, defaultFormat string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.StringVar(&c.configDir, "config", ".", "directory holding "+config.FileName)
	fs.StringVar(&c.tracks, "tracks", "", "tracks file (.json, .json.gz or .csv)")
	fs.UintVar(&c.matchID, "match", 0, "stored match ID to analyse instead of --tracks")
	fs.IntVar(&c.entity, "entity", 0, "player ID to restrict to (default: all players)")
	fs.StringVar(&c.format, "format", defaultFormat, "output format: png, html or json")
	fs.StringVar(&c.out, "out", "", "output path")
	return fs
}

// parse parses args into fs and records whether --entity was given.
func (c *commonFlags) parse(fs *pflag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return err
	}
	c.entitySet = fs.Changed("entity")
	return nil
}

func (c commonFlags) filter() core.EntityFilter {
	if !c.entitySet {
		return core.AllEntities()
	}
	return core.OnlyEntity(core.EntityID(c.entity))
}

// app holds everything a command needs once configuration is loaded.
type app struct {
	logs    *logging.SlogManager
	log     *slog.Logger
	logFile *os.File
	store   storage.Backend
	influx  *influx.Manager
	otel    *otel.Provider
	metrics *os.File
	svc     *analysis.Service
}

// bindFlags lets set flags override the matching configuration keys.
func bindFlags(fs *pflag.FlagSet, keys map[string]string) error {
	for flagName, key := range keys {
		if err := viper.BindPFlag(key, fs.Lookup(flagName)); err != nil {
			return fmt.Errorf("binding --%s: %w", flagName, err)
		}
	}
	return nil
}

func newApp(ctx context.Context, configDir string) (*app, error) {
	if err := config.Load(configDir); err != nil {
		return nil, err
	}

	a := &app{logs: logging.NewSlogManager()}

	var logOut io.Writer = os.Stderr
	if dir := config.GetString("logsDir"); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create logs directory: %w", err)
		}
		f, err := os.OpenFile(logging.LogFilePath(dir, appName, time.Now()), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		a.logFile = f
		logOut = f
	}

	if config.GetBool("graylog.enabled") {
		if err := a.logs.EnableGraylog(config.GetString("graylog.address")); err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", appName, err)
		}
	}
	level := config.GetString("logLevel")
	a.logs.Setup(logOut, level, a.logs.GraylogWriter())
	a.log = a.logs.Logger()

	if config.GetBool("otel.enabled") {
		f, err := os.OpenFile(config.GetString("otel.metricsPath"), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to open metrics file: %w", err)
		}
		a.metrics = f
		a.otel, err = otel.New(otel.Config{Enabled: true, ServiceName: appName, Writer: f})
		if err != nil {
			a.Close()
			return nil, err
		}
	}

	storeLog := logging.NewZerolog(logOut, level, "storage")
	store, err := storage.NewBackend(config.GetStorageConfig(), storeLog)
	if err != nil {
		a.Close()
		return nil, err
	}
	if err := store.Init(); err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to initialize storage backend: %w", err)
	}
	a.store = store

	deps := analysis.Dependencies{Logger: a.log, Store: store}

	influxCfg := config.GetInfluxConfig()
	if influxCfg.Enabled {
		m := influx.NewManager(logging.NewZerolog(logOut, level, "influx"), influxCfg)
		if err := m.Connect(ctx); err != nil {
			a.log.Warn("InfluxDB publishing unavailable", "error", err)
		} else {
			a.influx = m
			deps.Points = m
		}
	}

	a.svc, err = analysis.New(deps)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.log.Info("Configuration loaded", "storage", config.GetStorageConfig().Type, "influx", influxCfg.Enabled)
	return a, nil
}

// Close releases resources in reverse order of acquisition.
func (a *app) Close() error {
	var errs []error
	if a.influx != nil {
		errs = append(errs, a.influx.Close())
	}
	if a.store != nil {
		errs = append(errs, a.store.Close())
		if exp, ok := a.store.(storage.Exporter); ok {
			for _, path := range exp.ExportedFilePaths() {
				a.log.Info("Exported runs", "path", path)
			}
		}
	}
	if a.otel != nil {
		errs = append(errs, a.otel.Shutdown(context.Background()))
	}
	if a.metrics != nil {
		errs = append(errs, a.metrics.Close())
	}
	errs = append(errs, a.logs.Close())
	if a.logFile != nil {
		errs = append(errs, a.logFile.Close())
	}
	return errors.Join(errs...)
}

// input loads the trajectory named by --tracks or --match.
func (a *app) input(ctx context.Context, c commonFlags) (analysis.Input, error) {
	switch {
	case c.tracks != "" && c.matchID != 0:
		return analysis.Input{}, errors.New("--tracks and --match are mutually exclusive")
	case c.matchID != 0:
		traj, err := a.store.LoadTrajectory(ctx, c.matchID)
		if err != nil {
			return analysis.Input{}, err
		}
		return analysis.Input{Trajectory: traj, MatchID: c.matchID}, nil
	case c.tracks != "":
		traj, err := loadTracks(c.tracks)
		if err != nil {
			return analysis.Input{}, err
		}
		a.log.Info("Loaded tracks", "path", c.tracks, "frames", len(traj))
		return analysis.Input{Trajectory: traj}, nil
	default:
		return analysis.Input{}, errors.New("one of --tracks or --match is required")
	}
}

func loadTracks(path string) (core.Trajectory, error) {
	if strings.EqualFold(filepath.Ext(path), ".csv") {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open tracks file: %w", err)
		}
		defer f.Close()
		return source.ReadCSV(f)
	}
	return source.LoadTracksFile(path)
}

// zonesFromFlag parses --zones when given and falls back to configuration.
func zonesFromFlag(spec string) ([]core.Zone, error) {
	if spec != "" {
		return config.ParseZones(spec)
	}
	return config.GetZones()
}
