package auth

import "net/http"

// SessionCookie is the name of the HttpOnly cookie carrying the staff JWT.
// HttpOnly keeps it out of reach of any script the UI might load.
const SessionCookie = "session"

// RequireStaff is a middleware that gates mutating routes behind a valid
// staff session. Requests without a valid token get 401 and never reach the
// handler.
func RequireStaff(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(SessionCookie)
			if err != nil || tokens.ValidateStaff(cookie.Value) != nil {
				http.Error(w, `{"error":"unauthorized","message":"valid staff session required"}`, http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
