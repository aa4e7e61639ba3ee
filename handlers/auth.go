package handlers

import (
	"net/http"

	json "github.com/goccy/go-json"

	"Mediarr/logger"
	"Mediarr/services"
)

type AuthHandler struct {
	Sessions *services.SessionService
}

func NewAuthHandler(sessions *services.SessionService) *AuthHandler {
	return &AuthHandler{Sessions: sessions}
}

type loginRequest struct {
	LoginCode string `json:"login_code"`
}

// Login checks the shared login code and sets the session cookie.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.LoginCode == "" {
		respondError(w, http.StatusBadRequest, "login_code is required")
		return
	}

	if !h.Sessions.CheckLoginCode(req.LoginCode) {
		respondError(w, http.StatusUnauthorized, "Invalid login code")
		return
	}

	token, err := h.Sessions.GenerateToken()
	if err != nil {
		logger.Error().Err(err).Msg("failed to generate session token")
		respondError(w, http.StatusInternalServerError, "Failed to create session")
		return
	}

	http.SetCookie(w, h.Sessions.SessionCookie(token))
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Logout clears the cookie and sends the browser back to the login page.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, h.Sessions.ClearedCookie())
	http.Redirect(w, r, "/login", http.StatusFound)
}
