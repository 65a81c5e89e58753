package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/sakif/loyalty-club/internal/auth"
)

// sessionDuration is how long a staff login lasts. A venue shift, roughly.
const sessionDuration = 8 * time.Hour

// AuthHandler manages the staff login session.
//
// There is a single staff credential per deployment, configured as a bcrypt
// hash. On a correct password the handler issues a signed JWT in an HttpOnly
// cookie; the RequireStaff middleware checks it on every mutating route.
type AuthHandler struct {
	passwords *auth.PasswordService
	tokens    *auth.TokenService
	adminHash string
	logger    *slog.Logger
}

func NewAuthHandler(passwords *auth.PasswordService, tokens *auth.TokenService, adminHash string, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		passwords: passwords,
		tokens:    tokens,
		adminHash: adminHash,
		logger:    logger,
	}
}

// HandleLogin verifies the staff password and sets the session cookie.
//
// HTTP: POST /auth/login
// BODY: {"password": "..."}
//
// A wrong password gets a 401 with no detail about why — the response is the
// same whether the password was close or not.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, "Invalid JSON body", http.StatusBadRequest)
		return
	}

	if err := h.passwords.Verify(h.adminHash, in.Password); err != nil {
		h.logger.Warn("staff login failed")
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{
			Error:   "unauthorized",
			Message: "incorrect password",
		})
		return
	}

	token, err := h.tokens.GenerateStaff(sessionDuration)
	if err != nil {
		h.logger.Error("failed to issue session token", slog.String("error", err.Error()))
		writeError(w, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(sessionDuration.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	h.logger.Info("staff logged in")
	w.WriteHeader(http.StatusNoContent)
}

// HandleLogout clears the session cookie.
//
// HTTP: POST /auth/logout
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
	w.WriteHeader(http.StatusNoContent)
}
