package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/OCAP2/courtstats/pkg/core"
	"github.com/spf13/viper"
)

// FileName is the configuration file looked up in the config directory.
const FileName = "courtstats.cfg.json"

// MemoryConfig holds in-memory/JSON storage backend settings
type MemoryConfig struct {
	OutputDir      string `json:"outputDir" mapstructure:"outputDir"`
	CompressOutput bool   `json:"compressOutput" mapstructure:"compressOutput"`
}

// SQLiteConfig holds SQLite storage backend settings
type SQLiteConfig struct {
	Path string `json:"path" mapstructure:"path"`
}

// StorageConfig selects and configures the storage backend
type StorageConfig struct {
	Type   string       `json:"type" mapstructure:"type"`
	Memory MemoryConfig `json:"memory" mapstructure:"memory"`
	SQLite SQLiteConfig `json:"sqlite" mapstructure:"sqlite"`
}

// InfluxConfig holds InfluxDB publishing settings
type InfluxConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	URL        string `mapstructure:"url"`
	Token      string `mapstructure:"token"`
	Org        string `mapstructure:"org"`
	Bucket     string `mapstructure:"bucket"`
	BackupPath string `mapstructure:"backupPath"`
}

// Load reads configuration from JSON file and sets default values.
// configDir is the directory containing the config file. A missing file is not an error;
// the defaults below apply.
func Load(configDir string) error {
	setDefaults()

	viper.SetConfigName(FileName)
	viper.AddConfigPath(configDir)
	viper.SetConfigType("json")

	err := viper.ReadInConfig()
	if err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("error reading config file: %w", err)
	}

	return nil
}

func setDefaults() {
	viper.SetDefault("logLevel", "info")
	viper.SetDefault("logsDir", "./courtstats-logs")

	// basketball-sized court from the tracking pipeline
	viper.SetDefault("surface.length", 23.32)
	viper.SetDefault("surface.width", 68.0)
	viper.SetDefault("grid.rows", 10)
	viper.SetDefault("grid.cols", 10)
	viper.SetDefault("zones", []map[string]any{
		{"low": 0.0, "high": 23.0, "name": "Defense"},
		{"low": 23.0, "high": 45.0, "name": "Midfield"},
		{"low": 45.0, "high": 68.0, "name": "Attack"},
	})

	viper.SetDefault("storage.type", "memory")
	viper.SetDefault("storage.memory.outputDir", "./reports")
	viper.SetDefault("storage.memory.compressOutput", false)
	viper.SetDefault("storage.sqlite.path", "")

	viper.SetDefault("db.host", "localhost")
	viper.SetDefault("db.port", "5432")
	viper.SetDefault("db.username", "postgres")
	viper.SetDefault("db.password", "postgres")
	viper.SetDefault("db.database", "courtstats")

	viper.SetDefault("influx.enabled", false)
	viper.SetDefault("influx.url", "http://localhost:8086")
	viper.SetDefault("influx.token", "")
	viper.SetDefault("influx.org", "courtstats")
	viper.SetDefault("influx.bucket", "dwell")
	viper.SetDefault("influx.backupPath", "./courtstats-influx-backup.lp.gz")

	viper.SetDefault("otel.enabled", false)
	viper.SetDefault("otel.metricsPath", "./courtstats-metrics.json")

	viper.SetDefault("graylog.enabled", false)
	viper.SetDefault("graylog.address", "localhost:12201")
}

// GetString returns a string config value.
func GetString(key string) string {
	return viper.GetString(key)
}

// GetInt returns an int config value.
func GetInt(key string) int {
	return viper.GetInt(key)
}

// GetBool returns a bool config value.
func GetBool(key string) bool {
	return viper.GetBool(key)
}

// GetSurface returns the configured surface extents. Validation is left to the analysis.
func GetSurface() core.Surface {
	return core.Surface{
		Length: viper.GetFloat64("surface.length"),
		Width:  viper.GetFloat64("surface.width"),
	}
}

// GetGrid returns the configured heatmap resolution.
func GetGrid() core.GridSize {
	return core.GridSize{
		Rows: viper.GetInt("grid.rows"),
		Cols: viper.GetInt("grid.cols"),
	}
}

// GetZones returns the configured zone list in file order.
func GetZones() ([]core.Zone, error) {
	var zs []core.Zone
	if err := viper.UnmarshalKey("zones", &zs); err != nil {
		return nil, fmt.Errorf("error decoding zones: %w", err)
	}
	return zs, nil
}

// GetStorageConfig returns the storage backend settings.
func GetStorageConfig() StorageConfig {
	return StorageConfig{
		Type: viper.GetString("storage.type"),
		Memory: MemoryConfig{
			OutputDir:      viper.GetString("storage.memory.outputDir"),
			CompressOutput: viper.GetBool("storage.memory.compressOutput"),
		},
		SQLite: SQLiteConfig{
			Path: viper.GetString("storage.sqlite.path"),
		},
	}
}

// GetInfluxConfig returns the InfluxDB publishing settings.
func GetInfluxConfig() InfluxConfig {
	return InfluxConfig{
		Enabled:    viper.GetBool("influx.enabled"),
		URL:        viper.GetString("influx.url"),
		Token:      viper.GetString("influx.token"),
		Org:        viper.GetString("influx.org"),
		Bucket:     viper.GetString("influx.bucket"),
		BackupPath: viper.GetString("influx.backupPath"),
	}
}

// ParseZones parses the command line zone form "low:high[:name],low:high[:name],...".
func ParseZones(s string) ([]core.Zone, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("%w: zone list is empty", core.ErrInvalidConfiguration)
	}

	parts := strings.Split(s, ",")
	zs := make([]core.Zone, 0, len(parts))
	for i, part := range parts {
		fields := strings.SplitN(strings.TrimSpace(part), ":", 3)
		if len(fields) < 2 {
			return nil, fmt.Errorf("%w: zone %d %q is not low:high", core.ErrInvalidConfiguration, i, part)
		}
		low, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			return nil, fmt.Errorf("%w: zone %d low: %v", core.ErrInvalidConfiguration, i, err)
		}
		high, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return nil, fmt.Errorf("%w: zone %d high: %v", core.ErrInvalidConfiguration, i, err)
		}
		z := core.Zone{Low: low, High: high}
		if len(fields) == 3 {
			z.Name = fields[2]
		}
		zs = append(zs, z)
	}
	return zs, nil
}
