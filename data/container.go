// Package data provides thread-safe storage for the knowledge tables in use.
// Tables are swapped atomically so a reload never exposes a half-built table set.
package data

import (
	"sync/atomic"
	"time"

	"github.com/giygas/clinical-cases-api/interfaces"
	"github.com/giygas/clinical-cases-api/knowledge"
	"github.com/giygas/clinical-cases-api/logging"
)

// Compile-time check to ensure KnowledgeContainer implements KnowledgeStore
var _ interfaces.KnowledgeStore = (*KnowledgeContainer)(nil)

// snapshot is swapped as a whole so tables and source always agree
type snapshot struct {
	tables *knowledge.Tables
	source string
}

// KnowledgeContainer holds the current knowledge tables and reload bookkeeping.
type KnowledgeContainer struct {
	current         atomic.Pointer[snapshot]
	lastUpdated     atomic.Value // time.Time
	lastError       atomic.Value // string
	updating        atomic.Bool
	serverStartTime atomic.Value // time.Time
}

// NewKnowledgeContainer creates an empty container. GetTables returns nil until the
// first UpdateTables.
func NewKnowledgeContainer() *KnowledgeContainer {
	kc := &KnowledgeContainer{}
	kc.lastUpdated.Store(time.Time{})
	kc.lastError.Store("")
	kc.serverStartTime.Store(time.Time{})
	return kc
}

// GetTables returns the current tables. The result is shared and must not be modified.
func (kc *KnowledgeContainer) GetTables() *knowledge.Tables {
	if s := kc.current.Load(); s != nil {
		return s.tables
	}
	return nil
}

// GetSource describes where the current tables were loaded from
func (kc *KnowledgeContainer) GetSource() string {
	if s := kc.current.Load(); s != nil {
		return s.source
	}
	return ""
}

// GetLastUpdated returns the time of the last successful swap
func (kc *KnowledgeContainer) GetLastUpdated() time.Time {
	if v, ok := kc.lastUpdated.Load().(time.Time); ok {
		return v
	}
	logging.Warn("Could not get the last updated value")
	return time.Time{}
}

// GetLastError returns the error of the last failed reload, or "" after a success
func (kc *KnowledgeContainer) GetLastError() string {
	if v, ok := kc.lastError.Load().(string); ok {
		return v
	}
	return ""
}

// IsUpdating returns true if a reload is in progress
func (kc *KnowledgeContainer) IsUpdating() bool {
	return kc.updating.Load()
}

// UpdateTables atomically replaces the current tables and clears the last error
func (kc *KnowledgeContainer) UpdateTables(tables *knowledge.Tables, source string) {
	kc.current.Store(&snapshot{tables: tables, source: source})
	kc.lastUpdated.Store(time.Now())
	kc.lastError.Store("")
}

// RecordFailure keeps the current tables and remembers why a reload failed
func (kc *KnowledgeContainer) RecordFailure(err error) {
	if err == nil {
		return
	}
	kc.lastError.Store(err.Error())
}

// BeginUpdate marks the start of a reload.
// Returns true if the reload can proceed, false if another one is in progress
func (kc *KnowledgeContainer) BeginUpdate() bool {
	return kc.updating.CompareAndSwap(false, true)
}

// EndUpdate marks the end of a reload
func (kc *KnowledgeContainer) EndUpdate() {
	kc.updating.Store(false)
}

// SetServerStartTime sets the server start time
func (kc *KnowledgeContainer) SetServerStartTime(startTime time.Time) {
	kc.serverStartTime.Store(startTime)
}

// GetServerStartTime returns the server start time
func (kc *KnowledgeContainer) GetServerStartTime() time.Time {
	if v, ok := kc.serverStartTime.Load().(time.Time); ok {
		return v
	}
	return time.Time{}
}
