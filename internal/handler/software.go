package handler

import (
	"net/http"
	"strconv"

	"github.com/servicedesk/servicedesk/internal/ctxkeys"
	"github.com/servicedesk/servicedesk/internal/service"
)

// 512MB: installers can be large, but bound the multipart parse
const maxUploadSize = 512 << 20

type softwareHandler struct {
	softwareService *service.SoftwareService
}

func NewSoftwareHandler(softwareService *service.SoftwareService) *softwareHandler {
	return &softwareHandler{softwareService: softwareService}
}

type createSoftwareRequest struct {
	Name        string `json:"name"`
	Version     string `json:"version,omitempty"`
	ExternalURL string `json:"externalUrl,omitempty"`
}

func (h *softwareHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createSoftwareRequest
	err := decodeJSON(r, &req)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	software, err := h.softwareService.Create(service.CreateSoftwareInput{
		Name:        req.Name,
		Version:     req.Version,
		ExternalURL: req.ExternalURL,
		CreatedBy:   ctxkeys.User(r.Context()).ID,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, software)
}

func (h *softwareHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid software id")
		return
	}

	software, err := h.softwareService.ByID(id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, software)
}

// UploadFile attaches a multipart artifact to a software record.
func (h *softwareHandler) UploadFile(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid software id")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	err = r.ParseMultipartForm(32 << 20)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid multipart body")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Missing file field")
		return
	}
	defer file.Close()

	software, err := h.softwareService.AttachFile(id, header.Filename, header.Size, file)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, software)
}
