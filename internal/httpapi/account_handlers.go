package httpapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/Kobia22/SmartStock/internal/account"
	"github.com/Kobia22/SmartStock/internal/audit"
)

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

type processRegistrationRequest struct {
	Decision string `json:"decision"`
}

type assignPermissionsRequest struct {
	Username    string   `json:"username"`
	Permissions []string `json:"permissions"`
	Mode        string   `json:"mode,omitempty"`
}

func (a *API) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	acc, err := a.accounts.Register(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		handleAccountError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "account.register", map[string]any{
		"username": acc.Username,
	})
	writeJSON(w, http.StatusCreated, acc)
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	token, expiresAt, err := a.accounts.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		handleAccountError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "account.login", map[string]any{
		"username": strings.TrimSpace(req.Username),
	})
	writeJSON(w, http.StatusOK, loginResponse{Token: token, ExpiresAt: expiresAt})
}

func (a *API) handleProfile(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	actor, ok := a.principal(w, r)
	if !ok {
		return
	}
	acc, err := a.accounts.Profile(r.Context(), actor)
	if err != nil {
		handleAccountError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, acc)
}

func (a *API) handlePendingRegistrations(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	actor, ok := a.principal(w, r)
	if !ok {
		return
	}
	pending, err := a.accounts.PendingRegistrations(r.Context(), actor)
	if err != nil {
		handleAccountError(w, r, err)
		return
	}
	if pending == nil {
		pending = []*account.Account{}
	}
	writeJSON(w, http.StatusOK, pending)
}

func (a *API) handleProcessRegistration(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	username := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/admin/process-registration/"), "/")
	if username == "" || strings.Contains(username, "/") {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	actor, ok := a.principal(w, r)
	if !ok {
		return
	}
	var req processRegistrationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	decision := account.Decision(strings.ToUpper(strings.TrimSpace(req.Decision)))
	if err := a.accounts.ResolveRegistration(r.Context(), actor, username, decision); err != nil {
		handleAccountError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "account.registration.process", map[string]any{
		"username": username,
		"decision": string(decision),
	})
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleAssignPermissions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	actor, ok := a.principal(w, r)
	if !ok {
		return
	}
	var req assignPermissionsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	mode := account.ModeReplace
	if strings.EqualFold(strings.TrimSpace(req.Mode), "GRANT") {
		mode = account.ModeGrant
	}
	if err := a.accounts.SetPermissions(r.Context(), actor, req.Username, req.Permissions, mode); err != nil {
		handleAccountError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "account.permissions.assign", map[string]any{
		"username": strings.TrimSpace(req.Username),
		"count":    len(req.Permissions),
	})
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleUsers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	actor, ok := a.principal(w, r)
	if !ok {
		return
	}
	filter := account.FilterAll
	if strings.EqualFold(r.URL.Query().Get("filter"), "active") {
		filter = account.FilterActiveOnly
	}
	accounts, err := a.accounts.ListAccounts(r.Context(), actor, filter)
	if err != nil {
		handleAccountError(w, r, err)
		return
	}
	if accounts == nil {
		accounts = []*account.Account{}
	}
	writeJSON(w, http.StatusOK, accounts)
}
