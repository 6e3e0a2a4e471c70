package handler

import (
	"log/slog"
	"net/http"

	"github.com/servicedesk/servicedesk/internal/ctxkeys"
	"github.com/servicedesk/servicedesk/internal/service"
)

type authHandler struct {
	authService    *service.AuthService
	sessionService *service.SessionService
}

func NewAuthHandler(authService *service.AuthService, sessionService *service.SessionService) *authHandler {
	return &authHandler{
		authService:    authService,
		sessionService: sessionService,
	}
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// Register creates a client account and logs it in.
func (h *authHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	err := decodeJSON(r, &req)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, err := h.authService.Register(service.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	session, err := h.sessionService.Mint(r.Context(), user.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	h.sessionService.SetCookie(w, session)

	writeJSON(w, http.StatusCreated, user)
}

type loginRequest struct {
	// Username accepts an email address or a username.
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login validates credentials and mints a fresh session. The 401 body
// carries no detail: unknown identifier and wrong password respond
// identically.
func (h *authHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	err := decodeJSON(r, &req)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, err := h.authService.Login(req.Username, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	session, err := h.sessionService.Mint(r.Context(), user.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	h.sessionService.SetCookie(w, session)

	slog.Info("user logged in", "user_id", user.ID)
	writeJSON(w, http.StatusOK, user)
}

// Logout destroys the session record server-side, not just the cookie.
func (h *authHandler) Logout(w http.ResponseWriter, r *http.Request) {
	sessionID := ctxkeys.SessionID(r.Context())
	if sessionID != "" {
		err := h.sessionService.Destroy(r.Context(), sessionID)
		if err != nil {
			slog.Error("failed to destroy session", "error", err)
		}
	}

	h.sessionService.ClearCookie(w)
	w.WriteHeader(http.StatusOK)
}

// CurrentUser returns the authenticated account, or 401.
func (h *authHandler) CurrentUser(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())
	if user == nil {
		writeMessage(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

type oidcHandler struct {
	oidcService    *service.OIDCService
	sessionService *service.SessionService
}

func NewOIDCHandler(oidcService *service.OIDCService, sessionService *service.SessionService) *oidcHandler {
	return &oidcHandler{
		oidcService:    oidcService,
		sessionService: sessionService,
	}
}

// Begin redirects the browser to the OpenID issuer.
func (h *oidcHandler) Begin(w http.ResponseWriter, r *http.Request) {
	url, err := h.oidcService.AuthURL()
	if err != nil {
		writeError(w, err)
		return
	}
	http.Redirect(w, r, url, http.StatusFound)
}

// Callback completes the code exchange. Success lands on "/", any
// failure redirects to the login page without raw OAuth errors.
func (h *oidcHandler) Callback(w http.ResponseWriter, r *http.Request) {
	user, err := h.oidcService.HandleCallback(r.Context(), r.URL.Query().Get("state"), r.URL.Query().Get("code"))
	if err != nil {
		http.Redirect(w, r, "/auth", http.StatusFound)
		return
	}

	session, err := h.sessionService.Mint(r.Context(), user.ID)
	if err != nil {
		slog.Error("failed to mint session after federated login", "error", err)
		http.Redirect(w, r, "/auth", http.StatusFound)
		return
	}
	h.sessionService.SetCookie(w, session)

	http.Redirect(w, r, "/", http.StatusFound)
}
