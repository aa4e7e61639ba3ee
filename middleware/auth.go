package middleware

import (
	"net/http"
	"strings"

	json "github.com/goccy/go-json"

	"Mediarr/services"
)

// publicPaths are reachable without a session. Everything else goes
// through token validation.
var publicPaths = map[string]bool{
	"/login":          true,
	"/logout":         true,
	"/api/auth/login": true,
	"/healthz":        true,
	"/metrics":        true,
	"/favicon.ico":    true,
}

func isPublic(path string) bool {
	if publicPaths[path] {
		return true
	}
	return strings.HasPrefix(path, "/static/")
}

// RequireAuth validates the session cookie. API paths answer with JSON
// 401; page paths redirect to the login page.
func RequireAuth(sessions *services.SessionService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isPublic(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			cookie, err := r.Cookie(services.SessionCookieName)
			if err == nil {
				err = sessions.ValidateToken(cookie.Value)
			}
			if err != nil {
				if strings.HasPrefix(r.URL.Path, "/api/") {
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusUnauthorized)
					json.NewEncoder(w).Encode(map[string]string{"error": "Unauthorized"})
					return
				}
				http.Redirect(w, r, "/login", http.StatusFound)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
