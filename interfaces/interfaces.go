// Package interfaces defines core abstractions for the clinical cases API
// to improve testability, maintainability, and separation of concerns.
package interfaces

import (
	"errors"
	"net/http"
	"time"

	"github.com/giygas/clinical-cases-api/entities"
	"github.com/giygas/clinical-cases-api/knowledge"
)

// ErrSessionNotFound is returned by SessionStore operations on unknown or expired sessions.
var ErrSessionNotFound = errors.New("session not found")

// ErrUnknownTopic is returned when a topic id is not in the current knowledge tables.
var ErrUnknownTopic = errors.New("unknown topic")

// KnowledgeStore defines the contract for knowledge table storage.
// It provides thread-safe access to the current tables with atomic swaps on reload.
type KnowledgeStore interface {
	// Data retrieval methods
	GetTables() *knowledge.Tables
	GetSource() string
	GetLastUpdated() time.Time
	GetLastError() string
	IsUpdating() bool

	// Data update methods
	UpdateTables(tables *knowledge.Tables, source string)
	RecordFailure(err error)
	BeginUpdate() bool
	EndUpdate()
}

// KnowledgeParser loads knowledge tables from the embedded defaults or an override file.
type KnowledgeParser interface {
	// ParseKnowledge returns the parsed tables and a description of where they came from
	ParseKnowledge() (*knowledge.Tables, string, error)
}

// Resolver infers missing case data from a case variant.
type Resolver interface {
	Resolve(variant entities.CaseVariant) entities.Enhancement
	Merge(variant entities.CaseVariant, enhancement entities.Enhancement) entities.MergedVariant
	Enhance(variant entities.CaseVariant) (entities.Enhancement, entities.MergedVariant)
}

// Categorizer classifies one free-text question.
type Categorizer interface {
	Categorize(question string) entities.Categorization
}

// FollowUpTracker is the per-session follow-up state machine.
// Implementations are not safe for concurrent use.
type FollowUpTracker interface {
	TrackQuestion(question, chiefComplaint string) *entities.PromptEvent
	TrackCategorized(cat entities.Categorization, chiefComplaint string) *entities.PromptEvent
	CheckOnSubmit() *entities.SubmitPrompt
	RevealHint(topic string)
	Reset()
	SetEnabled(enabled bool)
	Enabled() bool
	Snapshot() entities.TrackerSnapshot
}

// SessionStore owns one FollowUpTracker per learner session and serializes access to it.
type SessionStore interface {
	Create(chiefComplaint string, followUpEnabled bool) entities.SessionInfo
	Get(id string) (entities.SessionInfo, error)
	TrackQuestion(id, question string) (entities.Categorization, *entities.PromptEvent, error)
	CheckOnSubmit(id string) (*entities.SubmitPrompt, error)
	RevealHint(id, topic string) ([]string, error)
	Reset(id, chiefComplaint string) error
	Snapshot(id string) (entities.TrackerSnapshot, error)
	Delete(id string) bool
	Count() int
}

// Scheduler defines the contract for job scheduling and health monitoring.
// It manages knowledge reloads and system health checks.
type Scheduler interface {
	// Lifecycle management
	Start() error
	Stop()
}

// HTTPHandler defines the contract for HTTP request handlers.
type HTTPHandler interface {
	HealthCheck(w http.ResponseWriter, r *http.Request)
	ServeKnowledge(w http.ResponseWriter, r *http.Request)
	EnhanceCase(w http.ResponseWriter, r *http.Request)
	CategorizeQuestion(w http.ResponseWriter, r *http.Request)
	CreateSession(w http.ResponseWriter, r *http.Request)
	GetSession(w http.ResponseWriter, r *http.Request)
	TrackQuestion(w http.ResponseWriter, r *http.Request)
	CheckOnSubmit(w http.ResponseWriter, r *http.Request)
	RevealHint(w http.ResponseWriter, r *http.Request)
	ResetSession(w http.ResponseWriter, r *http.Request)
	DeleteSession(w http.ResponseWriter, r *http.Request)
}

// HealthChecker defines the contract for health check functionality.
type HealthChecker interface {
	// HealthCheck returns the status, response data and HTTP status code
	HealthCheck() (status string, data map[string]any, httpStatus int)
}

// DataValidator defines the contract for data validation operations.
type DataValidator interface {
	// ValidateKnowledge checks a table set before it is swapped in
	ValidateKnowledge(tables *knowledge.Tables) error

	// ValidateRequest validates a decoded request body using its validate tags
	ValidateRequest(req any) error

	// ValidateQuestion validates learner question text
	ValidateQuestion(question string) error

	// ValidateTopic validates a topic id taken from a URL
	ValidateTopic(topic string) error
}
