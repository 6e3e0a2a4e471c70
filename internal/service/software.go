package service

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/servicedesk/servicedesk/internal/model"
	"github.com/servicedesk/servicedesk/internal/repository"
	"github.com/servicedesk/servicedesk/internal/storage"
)

var ErrSoftwareNameRequired = errors.New("software name is required")

// SoftwareService is the minimal catalog surface the share subsystem
// needs: create a record, attach an uploaded artifact, read it back.
type SoftwareService struct {
	software repository.SoftwareRepository
	storage  storage.Storage
}

func NewSoftwareService(software repository.SoftwareRepository, storage storage.Storage) *SoftwareService {
	return &SoftwareService{software: software, storage: storage}
}

type CreateSoftwareInput struct {
	Name        string
	Version     string
	ExternalURL string
	CreatedBy   int64
}

func (s *SoftwareService) Create(in CreateSoftwareInput) (*model.Software, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return nil, ErrSoftwareNameRequired
	}

	software := &model.Software{
		Name:      in.Name,
		CreatedBy: in.CreatedBy,
		CreatedAt: time.Now(),
	}
	if in.Version != "" {
		version := in.Version
		software.Version = &version
	}
	if in.ExternalURL != "" {
		externalURL := in.ExternalURL
		software.ExternalURL = &externalURL
	}

	err := s.software.Create(software)
	if err != nil {
		return nil, fmt.Errorf("failed to create software: %w", err)
	}

	slog.Info("software created", "software_id", software.ID, "name", software.Name)
	return software, nil
}

func (s *SoftwareService) ByID(id int64) (*model.Software, error) {
	return s.software.ByID(id)
}

// AttachFile stores the uploaded artifact and records its path on the
// software record. The stored name is a UUID so original filenames
// never collide or leak into storage keys.
func (s *SoftwareService) AttachFile(id int64, originalName string, size int64, file io.Reader) (*model.Software, error) {
	software, err := s.software.ByID(id)
	if err != nil {
		return nil, err
	}

	ext := filepath.Ext(originalName)
	storagePath := "software/" + uuid.New().String() + ext

	err = s.storage.Save(storagePath, file)
	if err != nil {
		return nil, fmt.Errorf("failed to save artifact: %w", err)
	}

	err = s.software.SetFile(id, storagePath, originalName, size)
	if err != nil {
		// DB update failed; don't leave an orphaned blob behind.
		delErr := s.storage.Delete(storagePath)
		if delErr != nil {
			slog.Error("failed to delete artifact during cleanup", "error", delErr, "path", storagePath)
		}
		return nil, fmt.Errorf("failed to record artifact: %w", err)
	}

	// Replacing a previous artifact: best-effort removal of the old blob.
	if software.HasFile() && *software.FilePath != storagePath {
		delErr := s.storage.Delete(*software.FilePath)
		if delErr != nil {
			slog.Warn("failed to delete replaced artifact", "error", delErr, "path", *software.FilePath)
		}
	}

	return s.software.ByID(id)
}

// OpenArtifact returns a reader for the stored artifact.
func (s *SoftwareService) OpenArtifact(path string) (io.ReadCloser, int64, error) {
	return s.storage.Open(path)
}

// ArtifactURL returns a redirectable download URL when the storage
// backend supports one (S3 presigned), or "" to stream through the app.
func (s *SoftwareService) ArtifactURL(path string) string {
	return s.storage.DownloadURL(path)
}
