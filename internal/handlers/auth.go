package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/datakeep/apiserver/internal/services"
)

// Header names carrying credentials and the bearer token. The token rides a
// plain header rather than an Authorization scheme; clients get it from the
// login response header and echo it back verbatim.
const (
	HeaderLogin    = "login"
	HeaderPassword = "password"
	HeaderToken    = "token"
)

// wrongTokenBody is the fixed payload for every rejected token, so callers
// cannot distinguish a missing token from an unknown one.
const wrongTokenBody = "Wrong token"

// AuthHandler provides the login endpoint.
type AuthHandler struct {
	authService *services.AuthService
}

func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// AuthRouter registers auth routes on the given router.
func AuthRouter(r chi.Router, authService *services.AuthService) {
	handler := NewAuthHandler(authService)

	r.Post("/login", handler.Login)
}

// Login verifies the login/password headers and returns the account's
// standing token in the token response header. The token is not minted per
// login: every successful login for an account hands back the same value.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	login := r.Header.Get(HeaderLogin)
	password := r.Header.Get(HeaderPassword)
	if login == "" || password == "" {
		writeError(w, http.StatusForbidden, "invalid credentials")
		return
	}

	ok, err := h.authService.Authenticate(r.Context(), login, password)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to authenticate")
		return
	}
	if !ok {
		writeError(w, http.StatusForbidden, "invalid credentials")
		return
	}

	token, err := h.authService.IssueSecurityKey(r.Context(), login)
	if err != nil {
		// The account passed Authenticate a moment ago; any failure here,
		// including a concurrent delete, is surfaced as a server error.
		writeError(w, http.StatusInternalServerError, "failed to issue token")
		return
	}

	w.Header().Set(HeaderToken, token)
	w.WriteHeader(http.StatusOK)
}

// Describe produces the audit description for a request. Implementations
// may read chi URL params; the middleware runs after route matching.
type Describe func(r *http.Request) string

// StaticAction describes a request with a fixed string.
func StaticAction(description string) Describe {
	return func(*http.Request) string { return description }
}

// ParamAction describes a request as "<prefix> <URL param value>".
func ParamAction(prefix, param string) Describe {
	return func(r *http.Request) string {
		return prefix + " " + chi.URLParam(r, param)
	}
}

// RequireToken gates a route on a valid bearer token. A successful check
// writes one audit entry attributing the described action to the token's
// account; a failed one answers 403 with the fixed "Wrong token" body and
// the underlying operation never runs.
func RequireToken(authService *services.AuthService, describe Describe) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ok, err := authService.CheckToken(r.Context(), r.Header.Get(HeaderToken), describe(r))
			if err != nil {
				writeError(w, http.StatusInternalServerError, "failed to check token")
				return
			}
			if !ok {
				w.WriteHeader(http.StatusForbidden)
				_, _ = w.Write([]byte(wrongTokenBody))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
