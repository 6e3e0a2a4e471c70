package service

import (
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/servicedesk/servicedesk/internal/crypto"
	"github.com/servicedesk/servicedesk/internal/model"
	"github.com/servicedesk/servicedesk/internal/repository"
)

var (
	// ErrShareNotFound covers unknown and expired codes alike, so a
	// caller cannot tell whether a code ever existed.
	ErrShareNotFound      = errors.New("Invalid or expired secret code")
	ErrShareNeedsPassword = errors.New("password required")
	ErrShareWrongPassword = errors.New("invalid password")
	ErrShareNoFile        = errors.New("software has no uploaded file to share")
)

const (
	secretCodeLen      = 8
	secretCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

	// collisions are vanishingly rare at 62^8; retries guard the race
	// where two issuers draw the same candidate before either commits
	maxCodeAttempts = 5
)

// ShareService mints and resolves share links: secret-code-addressed,
// optionally password- and time-gated capabilities for one artifact.
type ShareService struct {
	links    repository.ShareLinkRepository
	software repository.SoftwareRepository
}

func NewShareService(links repository.ShareLinkRepository, software repository.SoftwareRepository) *ShareService {
	return &ShareService{links: links, software: software}
}

// generateSecretCode returns a case-sensitive alphanumeric code drawn
// from crypto/rand with rejection sampling to avoid modulo bias.
func generateSecretCode() (string, error) {
	code := make([]byte, secretCodeLen)
	buf := make([]byte, 1)

	for i := 0; i < secretCodeLen; {
		_, err := rand.Read(buf)
		if err != nil {
			return "", fmt.Errorf("failed to generate secret code: %w", err)
		}
		// reject bytes outside the largest multiple of len(alphabet)
		if int(buf[0]) >= 256-(256%len(secretCodeAlphabet)) {
			continue
		}
		code[i] = secretCodeAlphabet[int(buf[0])%len(secretCodeAlphabet)]
		i++
	}

	return string(code), nil
}

type IssueShareInput struct {
	SoftwareID  int64
	Password    string
	Note        string
	ExpiresAt   *time.Time
	Permissions string
	CreatedBy   int64
}

// Issue mints a share link for a software record. The target must carry
// an uploaded artifact; a record with only an external URL has nothing
// to gate. The plaintext password, if any, is hashed before storage.
func (s *ShareService) Issue(in IssueShareInput) (*model.ShareLink, error) {
	software, err := s.software.ByID(in.SoftwareID)
	if err != nil {
		if errors.Is(err, repository.ErrSoftwareNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get software: %w", err)
	}

	if !software.HasFile() {
		return nil, ErrShareNoFile
	}

	link := &model.ShareLink{
		SoftwareID:  in.SoftwareID,
		Permissions: in.Permissions,
		CreatedBy:   in.CreatedBy,
		CreatedAt:   time.Now(),
	}
	if link.Permissions == "" {
		link.Permissions = model.PermissionDownload
	}
	if in.Note != "" {
		note := in.Note
		link.Note = &note
	}
	if in.ExpiresAt != nil {
		expiresAt := *in.ExpiresAt
		link.ExpiresAt = &expiresAt
	}
	if in.Password != "" {
		hashed, err := crypto.HashPassword(in.Password)
		if err != nil {
			return nil, fmt.Errorf("failed to hash share password: %w", err)
		}
		link.PasswordHash = &hashed
	}

	// Uniqueness is enforced by the DB constraint; regenerate on
	// collision rather than check-then-insert.
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		link.SecretCode, err = generateSecretCode()
		if err != nil {
			return nil, err
		}

		err = s.links.Create(link)
		if err == nil {
			slog.Info("share link issued",
				"share_link_id", link.ID,
				"software_id", link.SoftwareID,
				"created_by", link.CreatedBy,
				"has_password", link.HasPassword(),
				"expires_at", link.ExpiresAt,
			)
			return link, nil
		}
		if !errors.Is(err, repository.ErrDuplicateSecretCode) {
			return nil, fmt.Errorf("failed to create share link: %w", err)
		}
	}

	return nil, fmt.Errorf("failed to create share link: %w", repository.ErrDuplicateSecretCode)
}

// LinksForSoftware returns the existing links for a record, secret
// codes included, so an issuer can copy a code after creation.
func (s *ShareService) LinksForSoftware(softwareID int64) ([]*model.ShareLink, error) {
	_, err := s.software.ByID(softwareID)
	if err != nil {
		return nil, err
	}
	return s.links.BySoftwareID(softwareID)
}

// ShareGrant is the successful resolution of a secret code: the target
// artifact plus the note shown to the downloader.
type ShareGrant struct {
	Link     *model.ShareLink
	Software *model.Software
	FilePath string
	Note     *string
}

// Resolve turns a secret code (+ optional password) into a grant or a
// precise rejection. Unknown and expired codes are indistinguishable.
// A password-protected link rejects a missing password with
// ErrShareNeedsPassword and a wrong one with ErrShareWrongPassword.
func (s *ShareService) Resolve(code, password string) (*ShareGrant, error) {
	if code == "" {
		return nil, ErrShareNotFound
	}

	link, err := s.links.BySecretCode(code)
	if err != nil {
		if errors.Is(err, repository.ErrShareLinkNotFound) {
			return nil, ErrShareNotFound
		}
		return nil, fmt.Errorf("failed to get share link: %w", err)
	}

	if link.Expired(time.Now()) {
		return nil, ErrShareNotFound
	}

	if link.HasPassword() {
		if password == "" {
			return nil, ErrShareNeedsPassword
		}
		if !crypto.VerifyPassword(password, *link.PasswordHash) {
			return nil, ErrShareWrongPassword
		}
	}

	software, err := s.software.ByID(link.SoftwareID)
	if err != nil || !software.HasFile() {
		// Target vanished since issuance; same shape as unknown code.
		return nil, ErrShareNotFound
	}

	return &ShareGrant{
		Link:     link,
		Software: software,
		FilePath: *software.FilePath,
		Note:     link.Note,
	}, nil
}
