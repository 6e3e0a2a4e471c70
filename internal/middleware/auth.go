package middleware

import (
	"net/http"

	"github.com/servicedesk/servicedesk/internal/ctxkeys"
	"github.com/servicedesk/servicedesk/internal/service"
)

// SessionMiddleware resolves the session cookie to a full account and
// stores it on the request context. The account is re-fetched from the
// user directory every request, so role changes apply immediately.
// Requests without a valid session continue unauthenticated.
func SessionMiddleware(sessionService *service.SessionService, authService *service.AuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(service.SessionCookieName)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			session, err := sessionService.Resolve(r.Context(), cookie.Value)
			if err != nil {
				sessionService.ClearCookie(w)
				next.ServeHTTP(w, r)
				return
			}

			user, err := authService.UserByID(session.UserID)
			if err != nil {
				// Account deleted since login; the session is dead.
				_ = sessionService.Destroy(r.Context(), session.ID)
				sessionService.ClearCookie(w)
				next.ServeHTTP(w, r)
				return
			}

			ctx := ctxkeys.WithUser(r.Context(), user)
			ctx = ctxkeys.WithSessionID(ctx, session.ID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAuth rejects unauthenticated requests with a bare 401.
func RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if ctxkeys.User(r.Context()) == nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"message":"Unauthorized"}`))
			return
		}
		next.ServeHTTP(w, r)
	}
}

// RequireAdmin rejects non-admin accounts with 403 (401 if anonymous).
func RequireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return RequireAuth(func(w http.ResponseWriter, r *http.Request) {
		if !ctxkeys.User(r.Context()).IsAdmin() {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusForbidden)
			w.Write([]byte(`{"message":"Forbidden"}`))
			return
		}
		next.ServeHTTP(w, r)
	})
}
