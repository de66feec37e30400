package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/condoflow/be-approval-levels/internal/errors"
	"github.com/condoflow/be-approval-levels/internal/logger"
	"github.com/condoflow/be-approval-levels/internal/repository"
	"github.com/condoflow/be-approval-levels/internal/service"
)

// userIDHeader carries the acting user's id, set by the platform gateway.
const userIDHeader = "X-User-ID"

// HTTPHandler handles HTTP requests for the approval-levels admin API.
type HTTPHandler struct {
	levels    *service.LevelService
	directory *service.ApproverDirectory
	log       *logger.Logger
}

// NewHTTPHandler creates a new HTTP handler.
func NewHTTPHandler(levels *service.LevelService, directory *service.ApproverDirectory, log *logger.Logger) *HTTPHandler {
	return &HTTPHandler{
		levels:    levels,
		directory: directory,
		log:       log,
	}
}

// ListLevels handles GET /api/v1/approval-levels?client_id=
// An absent client_id yields an empty list; "no tenant selected" is not an error.
func (h *HTTPHandler) ListLevels(w http.ResponseWriter, r *http.Request) {
	levels, err := h.levels.List(r.Context(), r.URL.Query().Get("client_id"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]interface{}{"levels": levels})
}

// CreateLevel handles POST /api/v1/approval-levels
func (h *HTTPHandler) CreateLevel(w http.ResponseWriter, r *http.Request) {
	var req service.CreateLevelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, r, errors.InvalidInput("body", "invalid request body"))
		return
	}
	req.ActorID = r.Header.Get(userIDHeader)

	level, err := h.levels.Create(r.Context(), &req)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusCreated, level)
}

// UpdateLevel handles PUT /api/v1/approval-levels/update
func (h *HTTPHandler) UpdateLevel(w http.ResponseWriter, r *http.Request) {
	var req service.UpdateLevelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, r, errors.InvalidInput("body", "invalid request body"))
		return
	}
	req.ActorID = r.Header.Get(userIDHeader)

	level, err := h.levels.Update(r.Context(), &req)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, level)
}

// DeleteLevel handles DELETE /api/v1/approval-levels/delete?id=&client_id=
func (h *HTTPHandler) DeleteLevel(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	clientID := r.URL.Query().Get("client_id")

	if err := h.levels.Delete(r.Context(), id, clientID, r.Header.Get(userIDHeader)); err != nil {
		h.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CopyDefaults handles POST /api/v1/approval-levels/copy-defaults
// A parent with nothing to copy is a notice, not a failure.
func (h *HTTPHandler) CopyDefaults(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ParentClientID string `json:"parent_client_id"`
		ClientID       string `json:"client_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, r, errors.InvalidInput("body", "invalid request body"))
		return
	}

	levels, err := h.levels.CopyDefaults(r.Context(), req.ParentClientID, req.ClientID, r.Header.Get(userIDHeader))
	if err != nil {
		if errors.IsCode(err, errors.ErrCodeNoDefaults) {
			h.respondJSON(w, http.StatusOK, map[string]interface{}{
				"levels": []*repository.ApprovalLevel{},
				"notice": errors.MessageOf(err),
			})
			return
		}
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]interface{}{"levels": levels})
}

// ResolveLevel handles GET /api/v1/approval-levels/resolve?client_id=&amount=
// A null level in the response means no approval gate covers the amount.
func (h *HTTPHandler) ResolveLevel(w http.ResponseWriter, r *http.Request) {
	amount, err := decimal.NewFromString(r.URL.Query().Get("amount"))
	if err != nil {
		h.respondError(w, r, errors.InvalidInput("amount", "amount must be a decimal number"))
		return
	}

	level, err := h.levels.ResolveForAmount(r.Context(), r.URL.Query().Get("client_id"), amount)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]interface{}{"level": level})
}

// AuditTrail handles GET /api/v1/approval-levels/audit?client_id=&level_id=
func (h *HTTPHandler) AuditTrail(w http.ResponseWriter, r *http.Request) {
	var levelID *string
	if v := r.URL.Query().Get("level_id"); v != "" {
		levelID = &v
	}

	entries, err := h.levels.AuditTrail(r.Context(), r.URL.Query().Get("client_id"), levelID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]interface{}{"entries": entries})
}

// ListApprovers handles GET /api/v1/approvers?client_id=&roles=a,b
func (h *HTTPHandler) ListApprovers(w http.ResponseWriter, r *http.Request) {
	var roles []string
	if v := r.URL.Query().Get("roles"); v != "" {
		roles = strings.Split(v, ",")
	}

	approvers, err := h.directory.List(r.Context(), r.URL.Query().Get("client_id"), roles)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]interface{}{"approvers": approvers})
}

// ── response helpers ─────────────────────────────────────────────────────────

func (h *HTTPHandler) respondJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.log.Warn().Err(err).Msg("Failed to encode response")
	}
}

func (h *HTTPHandler) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := errors.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		h.log.Error().Err(err).Str("path", r.URL.Path).Msg("Request failed")
	}
	h.respondJSON(w, status, map[string]string{
		"error": errors.MessageOf(err),
		"code":  string(errors.CodeOf(err)),
	})
}
