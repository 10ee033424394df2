// internal/storage/storage_test.go
package storage_test

import (
	"io"
	"testing"

	"github.com/OCAP2/courtstats/internal/config"
	"github.com/OCAP2/courtstats/internal/storage"
	gormstorage "github.com/OCAP2/courtstats/internal/storage/gorm"
	"github.com/OCAP2/courtstats/internal/storage/memory"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Compile-time interface checks
var (
	_ storage.Backend  = (*memory.Backend)(nil)
	_ storage.Exporter = (*memory.Backend)(nil)
	_ storage.Backend  = (*gormstorage.Backend)(nil)
)

func TestNewBackend(t *testing.T) {
	log := zerolog.New(io.Discard)

	tests := []struct {
		typ  string
		want any
	}{
		{"memory", &memory.Backend{}},
		{"", &memory.Backend{}},
		{"sqlite", &gormstorage.Backend{}},
		{"postgres", &gormstorage.Backend{}},
	}

	for _, tt := range tests {
		t.Run(tt.typ, func(t *testing.T) {
			b, err := storage.NewBackend(config.StorageConfig{Type: tt.typ}, log)
			require.NoError(t, err)
			assert.IsType(t, tt.want, b)
		})
	}
}

func TestNewBackend_Unknown(t *testing.T) {
	_, err := storage.NewBackend(config.StorageConfig{Type: "mongo"}, zerolog.New(io.Discard))
	assert.EqualError(t, err, "unknown storage type: mongo")
}
