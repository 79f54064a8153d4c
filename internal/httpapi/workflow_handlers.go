package httpapi

import (
	"net/http"
	"strings"

	"github.com/Kobia22/SmartStock/internal/audit"
	"github.com/Kobia22/SmartStock/internal/workflow"
)

type submitRequestRequest struct {
	Type           string `json:"request_type"`
	TargetUsername string `json:"target_username"`
	TargetEmail    string `json:"target_email,omitempty"`
	Reason         string `json:"reason,omitempty"`
}

type approveRequestRequest struct {
	Decision string `json:"decision"`
}

func (a *API) handleSubmitRequest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	actor, ok := a.principal(w, r)
	if !ok {
		return
	}
	var req submitRequestRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	typ := workflow.RequestType(strings.ToUpper(strings.TrimSpace(req.Type)))
	created, err := a.workflow.Submit(r.Context(), actor, typ, req.TargetUsername, req.TargetEmail, req.Reason)
	if err != nil {
		handleWorkflowError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "workflow.request.submit", map[string]any{
		"request_id":      created.ID,
		"request_type":    string(created.Type),
		"target_username": created.TargetUsername,
	})
	w.Header().Set("Location", "/api/admin/approve-request/"+created.ID)
	writeJSON(w, http.StatusCreated, created)
}

func (a *API) handleApproveRequest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	id := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/admin/approve-request/"), "/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	actor, ok := a.principal(w, r)
	if !ok {
		return
	}
	var req approveRequestRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	decision := workflow.Decision(strings.ToUpper(strings.TrimSpace(req.Decision)))
	resolved, err := a.workflow.Resolve(r.Context(), actor, id, decision)
	if err != nil {
		handleWorkflowError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "workflow.request.resolve", map[string]any{
		"request_id":      resolved.ID,
		"request_type":    string(resolved.Type),
		"status":          string(resolved.Status),
		"target_username": resolved.TargetUsername,
	})
	writeJSON(w, http.StatusOK, resolved)
}

func (a *API) handleListRequests(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	actor, ok := a.principal(w, r)
	if !ok {
		return
	}
	requests, err := a.workflow.List(r.Context(), actor)
	if err != nil {
		handleWorkflowError(w, r, err)
		return
	}
	if requests == nil {
		requests = []*workflow.Request{}
	}
	writeJSON(w, http.StatusOK, requests)
}
