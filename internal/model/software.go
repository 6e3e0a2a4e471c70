package model

import (
	"time"
)

// Software is a catalog entry. A record may carry an uploaded artifact
// (FilePath set), an external URL, or both. Only records with a stored
// artifact can be share-linked.
type Software struct {
	ID          int64     `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Version     *string   `db:"version" json:"version,omitempty"`
	ExternalURL *string   `db:"external_url" json:"externalUrl,omitempty"`
	FilePath    *string   `db:"file_path" json:"filePath,omitempty"`
	FileName    *string   `db:"file_name" json:"fileName,omitempty"`
	FileSize    *int64    `db:"file_size" json:"fileSize,omitempty"`
	CreatedBy   int64     `db:"created_by" json:"createdBy"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
}

func (s *Software) HasFile() bool {
	return s.FilePath != nil && *s.FilePath != ""
}
