package store

import (
	"context"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

type FSDocumentStore struct {
	dir string
}

var _ DocumentStore = (*FSDocumentStore)(nil)

func NewFSDocumentStore(dir string) (*FSDocumentStore, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, errors.Wrapf(err, "failed to create document directory %s", dir)
	}
	return &FSDocumentStore{dir: dir}, nil
}

func (s *FSDocumentStore) path(jobID uuid.UUID) string {
	return filepath.Join(s.dir, documentName(jobID))
}

// Put writes to a temporary file in the same directory and renames it over the target so a
// concurrent reader never sees a partial record.
func (s *FSDocumentStore) Put(ctx context.Context, jobID uuid.UUID, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	tmp, err := os.CreateTemp(s.dir, documentName(jobID)+".*.tmp")
	if err != nil {
		return "", errors.Wrap(err, "failed to create temporary document")
	}
	defer func() {
		_ = os.Remove(tmp.Name())
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return "", errors.Wrapf(err, "failed to write document %s", jobID)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return "", errors.Wrapf(err, "failed to sync document %s", jobID)
	}
	if err := tmp.Close(); err != nil {
		return "", errors.Wrapf(err, "failed to close document %s", jobID)
	}

	target := s.path(jobID)
	if err := os.Rename(tmp.Name(), target); err != nil {
		return "", errors.Wrapf(err, "failed to store document %s", jobID)
	}
	return target, nil
}

func (s *FSDocumentStore) Get(ctx context.Context, jobID uuid.UUID) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.path(jobID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrRecordNotFound
		}
		return nil, errors.Wrapf(err, "failed to read document %s", jobID)
	}
	return data, nil
}

func (s *FSDocumentStore) Type() string {
	return "fs"
}
