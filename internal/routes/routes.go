package routes

import (
	"net/http"
	"time"

	"github.com/servicedesk/servicedesk/internal/app"
	"github.com/servicedesk/servicedesk/internal/handler"
	"github.com/servicedesk/servicedesk/internal/middleware"
)

func SetupRoutes(a *app.App) http.Handler {
	auth := handler.NewAuthHandler(a.AuthService, a.SessionService)
	share := handler.NewShareHandler(a.ShareService, a.SoftwareService)
	software := handler.NewSoftwareHandler(a.SoftwareService)

	mux := http.NewServeMux()

	// Auth endpoints are rate limited against credential stuffing;
	// the anonymous download gate against secret-code guessing.
	authLimiter := middleware.RateLimit(middleware.NewRateLimiter(10, 15*time.Minute))
	shareLimiter := middleware.RateLimit(middleware.NewRateLimiter(30, time.Minute))

	// Local auth
	mux.HandleFunc("POST /api/register", authLimiter(auth.Register))
	mux.HandleFunc("POST /api/login", authLimiter(auth.Login))
	mux.HandleFunc("POST /api/logout", auth.Logout)
	mux.HandleFunc("GET /api/user", auth.CurrentUser)

	// Federated auth: routes exist only when OpenID is configured.
	if a.OIDCService != nil {
		oidc := handler.NewOIDCHandler(a.OIDCService, a.SessionService)
		mux.HandleFunc("GET /api/auth/openid", authLimiter(oidc.Begin))
		mux.HandleFunc("GET /api/auth/openid/callback", authLimiter(oidc.Callback))
	}

	// Software catalog (minimal; admin mutations)
	mux.HandleFunc("POST /api/software", middleware.RequireAdmin(software.Create))
	mux.HandleFunc("GET /api/software/{id}", middleware.RequireAuth(software.Get))
	mux.HandleFunc("POST /api/software/{id}/file", middleware.RequireAdmin(software.UploadFile))
	mux.HandleFunc("GET /api/software/{id}/share-links", middleware.RequireAuth(share.List))

	// Share links
	mux.HandleFunc("POST /api/share-links", middleware.RequireAuth(share.Create))
	mux.HandleFunc("POST /api/share-download", shareLimiter(share.Resolve))
	mux.HandleFunc("GET /api/share-download/{secretCode}/file", shareLimiter(share.Download))

	return middleware.Chain(mux,
		middleware.SessionMiddleware(a.SessionService, a.AuthService),
		middleware.RequestLogging,
	)
}
