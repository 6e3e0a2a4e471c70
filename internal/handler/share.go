package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/servicedesk/servicedesk/internal/ctxkeys"
	"github.com/servicedesk/servicedesk/internal/model"
	"github.com/servicedesk/servicedesk/internal/service"
)

type shareHandler struct {
	shareService    *service.ShareService
	softwareService *service.SoftwareService
}

func NewShareHandler(shareService *service.ShareService, softwareService *service.SoftwareService) *shareHandler {
	return &shareHandler{
		shareService:    shareService,
		softwareService: softwareService,
	}
}

type createShareRequest struct {
	SoftwareID  int64      `json:"softwareId"`
	Password    string     `json:"password,omitempty"`
	Note        string     `json:"note,omitempty"`
	ExpiresAt   *time.Time `json:"expiresAt,omitempty"`
	Permissions string     `json:"permissions,omitempty"`
}

// Create mints a share link for a software artifact. The response
// includes the secret code; later reads return it as well.
func (h *shareHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createShareRequest
	err := decodeJSON(r, &req)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	link, err := h.shareService.Issue(service.IssueShareInput{
		SoftwareID:  req.SoftwareID,
		Password:    req.Password,
		Note:        req.Note,
		ExpiresAt:   req.ExpiresAt,
		Permissions: req.Permissions,
		CreatedBy:   ctxkeys.User(r.Context()).ID,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, link)
}

// List returns the existing links for a software record.
func (h *shareHandler) List(w http.ResponseWriter, r *http.Request) {
	softwareID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid software id")
		return
	}

	links, err := h.shareService.LinksForSoftware(softwareID)
	if err != nil {
		writeError(w, err)
		return
	}
	if links == nil {
		links = []*model.ShareLink{}
	}

	writeJSON(w, http.StatusOK, links)
}

type shareDownloadRequest struct {
	SecretCode string `json:"secretCode"`
	Password   string `json:"password,omitempty"`
}

type shareDownloadResponse struct {
	FilePath string  `json:"filePath"`
	FileName *string `json:"fileName,omitempty"`
	Note     *string `json:"note,omitempty"`
}

type needsPasswordResponse struct {
	Message       string `json:"message"`
	NeedsPassword bool   `json:"needsPassword"`
}

// Resolve is the anonymous share-download gate. Responses never reveal
// whether another code exists or anything about the target beyond the
// granted file. The needsPassword flag appears only when the link is
// password-protected and no password was supplied.
func (h *shareHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	var req shareDownloadRequest
	err := decodeJSON(r, &req)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	grant, err := h.shareService.Resolve(req.SecretCode, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrShareNeedsPassword) {
			writeJSON(w, http.StatusUnauthorized, needsPasswordResponse{
				Message:       "Password required",
				NeedsPassword: true,
			})
			return
		}
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, shareDownloadResponse{
		FilePath: grant.FilePath,
		FileName: grant.Software.FileName,
		Note:     grant.Note,
	})
}

// Download streams the artifact behind a secret code after the same
// resolution checks. The password rides in the X-Share-Password header
// or a "password" form/query value. S3-backed artifacts redirect to a
// short-lived presigned URL instead of streaming through the app.
func (h *shareHandler) Download(w http.ResponseWriter, r *http.Request) {
	code := r.PathValue("secretCode")
	password := r.Header.Get("X-Share-Password")
	if password == "" {
		password = r.FormValue("password")
	}

	grant, err := h.shareService.Resolve(code, password)
	if err != nil {
		if errors.Is(err, service.ErrShareNeedsPassword) {
			writeJSON(w, http.StatusUnauthorized, needsPasswordResponse{
				Message:       "Password required",
				NeedsPassword: true,
			})
			return
		}
		writeError(w, err)
		return
	}

	if url := h.softwareService.ArtifactURL(grant.FilePath); url != "" {
		http.Redirect(w, r, url, http.StatusFound)
		return
	}

	file, size, err := h.softwareService.OpenArtifact(grant.FilePath)
	if err != nil {
		slog.Error("failed to open granted artifact", "error", err, "path", grant.FilePath)
		writeMessage(w, http.StatusNotFound, service.ErrShareNotFound.Error())
		return
	}
	defer file.Close()

	name := "download"
	if grant.Software.FileName != nil {
		name = *grant.Software.FileName
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	if size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(size, 10))
	}

	_, err = io.Copy(w, file)
	if err != nil {
		slog.Warn("artifact download interrupted", "error", err, "path", grant.FilePath)
	}
}
