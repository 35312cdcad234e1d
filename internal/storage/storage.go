// Package storage provides the object storage backends for uploaded
// documents: Supabase Storage and Google Cloud Storage.
package storage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ArthurLoboLobo/projeto-estudos/internal/config"
	"github.com/ArthurLoboLobo/projeto-estudos/internal/domain/services"
)

// StatusError is a non-2xx response from the storage API.
type StatusError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s failed with status %d: %s", e.Op, e.StatusCode, e.Body)
}

// New builds the backend selected by STORAGE_BACKEND.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (services.ObjectStorage, error) {
	switch cfg.StorageBackend {
	case "", "supabase":
		s, err := NewSupabaseStorage(cfg.SupabaseURL, cfg.SupabaseKey, cfg.StorageBucket)
		if err != nil {
			return nil, err
		}
		logger.Info("object storage initialized", "backend", "supabase", "bucket", cfg.StorageBucket)
		return s, nil
	case "gcs":
		g, err := NewGCSStorage(ctx, cfg.StorageBucket, cfg.GCSCredentialsFile)
		if err != nil {
			return nil, err
		}
		logger.Info("object storage initialized", "backend", "gcs", "bucket", cfg.StorageBucket)
		return g, nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
}
