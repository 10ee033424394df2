// internal/storage/factory.go
package storage

import (
	"fmt"

	"github.com/OCAP2/courtstats/internal/config"
	"github.com/OCAP2/courtstats/internal/database"
	gormstorage "github.com/OCAP2/courtstats/internal/storage/gorm"
	"github.com/OCAP2/courtstats/internal/storage/memory"
	"github.com/rs/zerolog"
)

// NewBackend creates a storage backend based on configuration
func NewBackend(cfg config.StorageConfig, log zerolog.Logger) (Backend, error) {
	switch cfg.Type {
	case "postgres":
		return gormstorage.New(gormstorage.Dependencies{
			Manager: database.NewManager(log),
			Mode:    gormstorage.ModePostgres,
			Path:    cfg.SQLite.Path,
		}), nil
	case "sqlite":
		return gormstorage.New(gormstorage.Dependencies{
			Manager: database.NewManager(log),
			Mode:    gormstorage.ModeSQLite,
			Path:    cfg.SQLite.Path,
		}), nil
	case "memory", "":
		return memory.New(cfg.Memory), nil
	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Type)
	}
}
