// Package handlers provides the HTTP handlers for case enhancement, question
// categorization and learner sessions.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"runtime"
	"strings"
	"time"

	"github.com/giygas/clinical-cases-api/interfaces"
	"github.com/giygas/clinical-cases-api/logging"
	"github.com/giygas/clinical-cases-api/metrics"
	"github.com/go-chi/chi/v5"
)

// HTTPHandlerImpl implements the interfaces.HTTPHandler interface
type HTTPHandlerImpl struct {
	store           interfaces.KnowledgeStore
	resolver        interfaces.Resolver
	categorizer     interfaces.Categorizer
	sessions        interfaces.SessionStore
	validator       interfaces.DataValidator
	health          interfaces.HealthChecker
	followUpDefault bool
	startTime       time.Time
}

// Compile-time check to ensure HTTPHandlerImpl implements HTTPHandler
var _ interfaces.HTTPHandler = (*HTTPHandlerImpl)(nil)

// Dependencies groups what the handlers need
type Dependencies struct {
	Store       interfaces.KnowledgeStore
	Resolver    interfaces.Resolver
	Categorizer interfaces.Categorizer
	Sessions    interfaces.SessionStore
	Validator   interfaces.DataValidator
	Health      interfaces.HealthChecker
	// FollowUpDefault applies when a session request does not say
	FollowUpDefault bool
	StartTime       time.Time
}

// NewHTTPHandler creates a new HTTP handler with injected dependencies
func NewHTTPHandler(deps Dependencies) *HTTPHandlerImpl {
	start := deps.StartTime
	if start.IsZero() {
		start = time.Now()
	}
	return &HTTPHandlerImpl{
		store:           deps.Store,
		resolver:        deps.Resolver,
		categorizer:     deps.Categorizer,
		sessions:        deps.Sessions,
		validator:       deps.Validator,
		health:          deps.Health,
		followUpDefault: deps.FollowUpDefault,
		startTime:       start,
	}
}

// RespondWithJSON writes a JSON response
func (h *HTTPHandlerImpl) RespondWithJSON(w http.ResponseWriter, code int, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		logging.Error("Failed to marshal JSON response", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	if _, err := w.Write(data); err != nil {
		logging.Warn("Failed to write response", "error", err)
	}
}

// RespondWithError writes a JSON error response
func (h *HTTPHandlerImpl) RespondWithError(w http.ResponseWriter, code int, message string) {
	h.RespondWithJSON(w, code, map[string]any{
		"error":   http.StatusText(code),
		"message": message,
		"code":    code,
	})
}

// decodeJSON decodes the body into dst. An empty body is allowed when optional is set,
// and unknown fields are rejected when strict is set. It writes the error response
// itself and reports whether the caller may continue.
func (h *HTTPHandlerImpl) decodeJSON(w http.ResponseWriter, r *http.Request, dst any, optional, strict bool) bool {
	body := r.Body
	if body == nil {
		body = http.NoBody
	}
	dec := json.NewDecoder(body)
	if strict {
		dec.DisallowUnknownFields()
	}

	if err := dec.Decode(dst); err != nil {
		var maxBytesErr *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF) && optional:
			return true
		case errors.As(err, &maxBytesErr):
			h.RespondWithError(w, http.StatusRequestEntityTooLarge, "Request body too large")
			return false
		case errors.Is(err, io.EOF):
			h.RespondWithError(w, http.StatusBadRequest, "Request body is required")
			return false
		default:
			logging.Warn("Invalid JSON body", "path", r.URL.Path, "error", err)
			h.RespondWithError(w, http.StatusBadRequest, "Invalid JSON body")
			return false
		}
	}

	if err := h.validator.ValidateRequest(dst); err != nil {
		h.RespondWithError(w, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}

// respondSessionError maps session store errors to responses
func (h *HTTPHandlerImpl) respondSessionError(w http.ResponseWriter, err error) {
	if errors.Is(err, interfaces.ErrSessionNotFound) {
		h.RespondWithError(w, http.StatusNotFound, "Session not found or expired")
		return
	}
	if errors.Is(err, interfaces.ErrUnknownTopic) {
		h.RespondWithError(w, http.StatusNotFound, "Unknown topic")
		return
	}
	logging.Error("Session operation failed", "error", err)
	h.RespondWithError(w, http.StatusInternalServerError, "Session operation failed")
}

// formatUptimeHuman formats duration into a human-readable string
func formatUptimeHuman(d time.Duration) string {
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	var parts []string
	if days > 0 {
		parts = append(parts, fmt.Sprintf("%dd", days))
	}
	if hours > 0 || days > 0 {
		parts = append(parts, fmt.Sprintf("%dh", hours))
	}
	if minutes > 0 || hours > 0 || days > 0 {
		parts = append(parts, fmt.Sprintf("%dm", minutes))
	}
	parts = append(parts, fmt.Sprintf("%ds", seconds))

	return strings.Join(parts, " ")
}

// HealthCheck returns server health information
func (h *HTTPHandlerImpl) HealthCheck(w http.ResponseWriter, r *http.Request) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	status, data, httpStatus := h.health.HealthCheck()
	uptime := time.Since(h.startTime)

	h.RespondWithJSON(w, httpStatus, HealthResponse{
		Status:        status,
		Uptime:        formatUptimeHuman(uptime),
		UptimeSeconds: uptime.Seconds(),
		Data:          data,
		System: map[string]any{
			"goroutines": runtime.NumGoroutine(),
			"memory": map[string]any{
				"alloc_mb": int(m.Alloc / 1024 / 1024),
				"sys_mb":   int(m.Sys / 1024 / 1024),
				"num_gc":   m.NumGC,
			},
		},
	})
}

// ServeKnowledge returns the knowledge tables in use. Clients can revalidate with the
// returned ETag.
func (h *HTTPHandlerImpl) ServeKnowledge(w http.ResponseWriter, r *http.Request) {
	tables := h.store.GetTables()
	if tables == nil {
		h.RespondWithError(w, http.StatusServiceUnavailable, "Knowledge tables are not loaded")
		return
	}

	lastUpdated := h.store.GetLastUpdated()
	etag := fmt.Sprintf(`"%s-%d"`, tables.Version, lastUpdated.UnixNano())
	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", "no-cache")
	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	h.RespondWithJSON(w, http.StatusOK, KnowledgeResponse{
		Version:     tables.Version,
		Source:      h.store.GetSource(),
		LastUpdated: lastUpdated.Format(time.RFC3339),
		Keys: map[string][]string{
			"pmh":             tables.PMH.Keys(),
			"familyHistory":   tables.FamilyHistory.Keys(),
			"surgicalHistory": tables.SurgicalHistory.Keys(),
		},
		Topics: tables.TopicIDs(),
		Tables: tables,
	})
}

// EnhanceCase infers missing case data and merges it with the authored variant. Authored
// records may carry fields this service does not use; those are ignored.
func (h *HTTPHandlerImpl) EnhanceCase(w http.ResponseWriter, r *http.Request) {
	var req EnhanceCaseRequest
	if !h.decodeJSON(w, r, &req, false, false) {
		return
	}

	enhancement, merged := h.resolver.Enhance(req.toVariant())
	metrics.CaseEnhancements.Inc()

	h.RespondWithJSON(w, http.StatusOK, EnhanceCaseResponse{
		Enhancement: enhancement,
		Merged:      merged,
	})
}

// CategorizeQuestion classifies one question without touching any session
func (h *HTTPHandlerImpl) CategorizeQuestion(w http.ResponseWriter, r *http.Request) {
	var req QuestionRequest
	if !h.decodeJSON(w, r, &req, false, true) {
		return
	}
	if err := h.validator.ValidateQuestion(req.Question); err != nil {
		h.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.RespondWithJSON(w, http.StatusOK, h.categorizer.Categorize(req.Question))
}

// CreateSession starts a learner session
func (h *HTTPHandlerImpl) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req CreateSessionRequest
	if !h.decodeJSON(w, r, &req, true, true) {
		return
	}

	enabled := h.followUpDefault
	if req.FollowUpEnabled != nil {
		enabled = *req.FollowUpEnabled
	}

	info := h.sessions.Create(req.ChiefComplaint, enabled)
	w.Header().Set("Location", "/v1/sessions/"+info.ID)
	h.RespondWithJSON(w, http.StatusCreated, info)
}

// GetSession returns the session and its follow-up state
func (h *HTTPHandlerImpl) GetSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	info, err := h.sessions.Get(id)
	if err != nil {
		h.respondSessionError(w, err)
		return
	}
	state, err := h.sessions.Snapshot(id)
	if err != nil {
		h.respondSessionError(w, err)
		return
	}

	h.RespondWithJSON(w, http.StatusOK, SessionResponse{Session: info, State: state})
}

// TrackQuestion feeds a learner question to the session tracker
func (h *HTTPHandlerImpl) TrackQuestion(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req QuestionRequest
	if !h.decodeJSON(w, r, &req, false, true) {
		return
	}
	if err := h.validator.ValidateQuestion(req.Question); err != nil {
		h.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	cat, prompt, err := h.sessions.TrackQuestion(id, req.Question)
	if err != nil {
		h.respondSessionError(w, err)
		return
	}

	h.RespondWithJSON(w, http.StatusOK, TrackQuestionResponse{
		Categorization: cat,
		Prompt:         prompt,
	})
}

// CheckOnSubmit returns the pending follow-up suggestion before a stage change
func (h *HTTPHandlerImpl) CheckOnSubmit(w http.ResponseWriter, r *http.Request) {
	prompt, err := h.sessions.CheckOnSubmit(chi.URLParam(r, "id"))
	if err != nil {
		h.respondSessionError(w, err)
		return
	}
	h.RespondWithJSON(w, http.StatusOK, SubmitCheckResponse{Prompt: prompt})
}

// RevealHint records that the learner opened a topic hint
func (h *HTTPHandlerImpl) RevealHint(w http.ResponseWriter, r *http.Request) {
	topic := chi.URLParam(r, "topic")
	if err := h.validator.ValidateTopic(topic); err != nil {
		h.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	revealed, err := h.sessions.RevealHint(chi.URLParam(r, "id"), topic)
	if err != nil {
		h.respondSessionError(w, err)
		return
	}
	h.RespondWithJSON(w, http.StatusOK, RevealHintResponse{Topic: topic, Revealed: revealed})
}

// ResetSession clears the follow-up state for a new case
func (h *HTTPHandlerImpl) ResetSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req ResetSessionRequest
	if !h.decodeJSON(w, r, &req, true, true) {
		return
	}

	if err := h.sessions.Reset(id, req.ChiefComplaint); err != nil {
		h.respondSessionError(w, err)
		return
	}
	h.GetSession(w, r)
}

// DeleteSession ends a session
func (h *HTTPHandlerImpl) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if !h.sessions.Delete(chi.URLParam(r, "id")) {
		h.RespondWithError(w, http.StatusNotFound, "Session not found or expired")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
