// Package health reports whether the service has usable knowledge tables.
package health

import (
	"math"
	"net/http"
	"time"

	"github.com/giygas/clinical-cases-api/interfaces"
)

// HealthCheckerImpl implements the interfaces.HealthChecker interface
type HealthCheckerImpl struct {
	store     interfaces.KnowledgeStore
	sessions  interfaces.SessionStore
	startTime time.Time
}

// NewHealthChecker creates a new health checker with injected dependencies
func NewHealthChecker(store interfaces.KnowledgeStore, sessions interfaces.SessionStore, startTime time.Time) interfaces.HealthChecker {
	return &HealthCheckerImpl{
		store:     store,
		sessions:  sessions,
		startTime: startTime,
	}
}

// HealthCheck returns the status, response data and HTTP status.
// Missing or empty tables are unhealthy. A failed reload is degraded but still served,
// since the previous tables stay in use.
func (h *HealthCheckerImpl) HealthCheck() (status string, data map[string]any, httpStatus int) {
	tables := h.store.GetTables()
	lastUpdate := h.store.GetLastUpdated()
	lastError := h.store.GetLastError()

	entries, topics, version := 0, 0, ""
	if tables != nil {
		entries = tables.EntryCount()
		topics = len(tables.Topics)
		version = tables.Version
	}

	switch {
	case tables == nil || entries == 0 || topics == 0:
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable
	case lastError != "":
		status = "degraded"
		httpStatus = http.StatusOK
	default:
		status = "healthy"
		httpStatus = http.StatusOK
	}

	data = map[string]any{
		"knowledge_version": version,
		"knowledge_source":  h.store.GetSource(),
		"entries":           entries,
		"topics":            topics,
		"is_updating":       h.store.IsUpdating(),
		"uptime_hours":      math.Round(time.Since(h.startTime).Hours()*10) / 10,
	}
	if !lastUpdate.IsZero() {
		data["last_update"] = lastUpdate.Format(time.RFC3339)
	}
	if lastError != "" {
		data["last_error"] = lastError
	}
	if h.sessions != nil {
		data["sessions"] = h.sessions.Count()
	}

	return status, data, httpStatus
}
