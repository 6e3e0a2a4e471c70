package storage

import (
	"io"

	"github.com/servicedesk/servicedesk/internal/config"
)

// Storage holds uploaded software artifacts. Paths are opaque keys
// chosen by the caller; the share-link resolver hands them to Open or
// DownloadURL after access checks pass.
type Storage interface {
	// Save stores an artifact at the given path
	Save(path string, file io.Reader) error

	// Open returns a reader for the artifact, or an error if it is
	// gone. The caller closes the reader.
	Open(path string) (io.ReadCloser, int64, error)

	// DownloadURL returns a short-lived URL for the artifact, or ""
	// when the backend can only serve via Open.
	DownloadURL(path string) string

	// Delete removes the artifact
	Delete(path string) error
}

// New selects the storage backend from config: S3-compatible object
// storage when configured, the local upload directory otherwise.
func New(cfg *config.Config) (Storage, error) {
	if cfg.S3Enabled() {
		return NewS3Storage(S3Config{
			Region:        cfg.S3Region,
			Bucket:        cfg.S3Bucket,
			AccessKey:     cfg.S3AccessKey,
			SecretKey:     cfg.S3SecretKey,
			Endpoint:      cfg.S3Endpoint,
			PresignExpiry: cfg.S3PresignExpiry,
		})
	}
	return NewLocalStorage(cfg.UploadDir)
}
