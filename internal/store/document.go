package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/pdf-saas/orchestrator/internal/config"
)

// DocumentStore keeps one persisted record per job id. Get returns exactly the bytes given
// to the last Put, or ErrRecordNotFound.
type DocumentStore interface {
	Put(ctx context.Context, jobID uuid.UUID, data []byte) (string, error)
	Get(ctx context.Context, jobID uuid.UUID) ([]byte, error)
	Type() string
}

func documentName(jobID uuid.UUID) string {
	return fmt.Sprintf("%s.json", jobID)
}

// NewDocumentStore builds the backend selected by the storage configuration.
func NewDocumentStore(cfg *config.Config) (DocumentStore, error) {
	switch cfg.Storage.Backend {
	case config.DocumentStoreS3:
		return NewS3DocumentStore(
			WithEndpoint(cfg.Storage.S3Endpoint),
			WithBucket(cfg.Storage.S3Bucket),
			WithAccessKey(cfg.Storage.S3AccessKey),
			WithSecretKey(cfg.Storage.S3SecretKey),
			WithSSL(cfg.Storage.S3UseSSL),
			WithPrefix(cfg.Storage.S3Prefix),
			WithRegion(cfg.Storage.S3Region),
		)
	case config.DocumentStoreRedis:
		return NewRedisDocumentStore(cfg.Storage.RedisAddr, cfg.Storage.RedisPassword, cfg.Storage.RedisDB, cfg.Storage.RedisPrefix)
	case config.DocumentStoreFS, "":
		return NewFSDocumentStore(cfg.Storage.Dir)
	default:
		return nil, fmt.Errorf("unknown document store %q", cfg.Storage.Backend)
	}
}
