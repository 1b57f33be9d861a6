package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/datakeep/apiserver/internal/services"
	"github.com/datakeep/apiserver/internal/store"
)

// AccountHandler provides HTTP handlers for the user directory.
type AccountHandler struct {
	accountService *services.AccountService
	authService    *services.AuthService
}

func NewAccountHandler(accountService *services.AccountService, authService *services.AuthService) *AccountHandler {
	return &AccountHandler{
		accountService: accountService,
		authService:    authService,
	}
}

// UserRouter registers user directory routes on the given router. Every
// route is token-gated except the history listing, which the original
// design shipped unauthenticated; see the README.
func UserRouter(r chi.Router, accountService *services.AccountService, authService *services.AuthService) {
	handler := NewAccountHandler(accountService, authService)
	gate := func(describe Describe) func(http.Handler) http.Handler {
		return RequireToken(authService, describe)
	}

	r.With(gate(StaticAction("Get users list"))).Get("/", handler.ListUsers)
	r.With(gate(StaticAction("Insert user"))).Post("/", handler.CreateUser)
	r.Route("/{login}", func(r chi.Router) {
		r.With(gate(ParamAction("Get user", "login"))).Get("/", handler.GetUser)
		r.With(gate(ParamAction("Update user", "login"))).Put("/", handler.UpdateUser)
		r.With(gate(ParamAction("Delete user", "login"))).Delete("/", handler.DeleteUser)
		r.Get("/history", handler.GetHistory)
	})
}

func (h *AccountHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.accountService.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list users")
		return
	}
	writeJSON(w, http.StatusOK, accounts)
}

func (h *AccountHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req UpsertUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	req.Login = strings.TrimSpace(req.Login)
	if req.Login == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "missing login or password")
		return
	}

	account, err := h.accountService.Create(r.Context(), req.Login, req.Password)
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			writeError(w, http.StatusConflict, "login already exists")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to create user")
		return
	}

	writeJSON(w, http.StatusCreated, account)
}

func (h *AccountHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	login := chi.URLParam(r, "login")

	account, err := h.accountService.GetByLogin(r.Context(), login)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "user not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to fetch user")
		return
	}

	writeJSON(w, http.StatusOK, account)
}

// UpdateUser changes the account's password. The body must name the same
// login as the path; the token is never rotated here.
func (h *AccountHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	login := chi.URLParam(r, "login")

	var req UpsertUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	if req.Login != login {
		writeError(w, http.StatusBadRequest, "login mismatch")
		return
	}
	if req.Password == "" {
		writeError(w, http.StatusBadRequest, "missing password")
		return
	}

	if err := h.accountService.UpdatePassword(r.Context(), login, req.Password); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "user not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to update user")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *AccountHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	login := chi.URLParam(r, "login")

	if err := h.accountService.Delete(r.Context(), login); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "user not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to delete user")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *AccountHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	login := chi.URLParam(r, "login")

	entries, err := h.authService.History(r.Context(), login)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "user not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to fetch history")
		return
	}

	writeJSON(w, http.StatusOK, entries)
}

// UpsertUserRequest is the body of user create and update calls.
type UpsertUserRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}
