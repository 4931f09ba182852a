package handlers

import "github.com/giygas/clinical-cases-api/entities"

// EnhanceCaseRequest is a case variant as authored. Omitted or null lists are filled from
// the knowledge tables; an explicit [] is kept.
type EnhanceCaseRequest struct {
	DiagnosisName         string                   `json:"diagnosisName" validate:"max=200"`
	ChiefComplaint        string                   `json:"chiefComplaint" validate:"max=200"`
	Age                   *int                     `json:"age" validate:"omitempty,min=0,max=120"`
	Gender                string                   `json:"gender" validate:"max=20"`
	PMHConditions         []string                 `json:"pmhConditions" validate:"omitempty,max=100,dive,max=100"`
	FamilyHistoryRelevant []string                 `json:"familyHistoryRelevant" validate:"omitempty,max=100,dive,max=100"`
	SurgicalHistory       []string                 `json:"surgicalHistory" validate:"omitempty,max=100,dive,max=100"`
	ScreeningData         *entities.ScreeningFacts `json:"screeningData"`
	VisitHistory          *entities.VisitHistory   `json:"visitHistory"`
}

func (r EnhanceCaseRequest) toVariant() entities.CaseVariant {
	return entities.CaseVariant{
		DiagnosisName:         r.DiagnosisName,
		ChiefComplaint:        r.ChiefComplaint,
		Age:                   r.Age,
		Gender:                r.Gender,
		PMHConditions:         r.PMHConditions,
		FamilyHistoryRelevant: r.FamilyHistoryRelevant,
		SurgicalHistory:       r.SurgicalHistory,
		ScreeningData:         r.ScreeningData,
		VisitHistory:          r.VisitHistory,
	}
}

// EnhanceCaseResponse carries the inferred data and the merged variant
type EnhanceCaseResponse struct {
	Enhancement entities.Enhancement   `json:"enhancement"`
	Merged      entities.MergedVariant `json:"merged"`
}

type QuestionRequest struct {
	Question string `json:"question" validate:"required,max=500"`
}

type CreateSessionRequest struct {
	ChiefComplaint  string `json:"chiefComplaint" validate:"max=200"`
	FollowUpEnabled *bool  `json:"followUpEnabled"`
}

type ResetSessionRequest struct {
	ChiefComplaint string `json:"chiefComplaint" validate:"max=200"`
}

// TrackQuestionResponse holds the question's categorization and the prompt it
// triggered, if any
type TrackQuestionResponse struct {
	Categorization entities.Categorization `json:"categorization"`
	Prompt         *entities.PromptEvent   `json:"prompt"`
}

type SubmitCheckResponse struct {
	Prompt *entities.SubmitPrompt `json:"prompt"`
}

type RevealHintResponse struct {
	Topic    string   `json:"topic"`
	Revealed []string `json:"revealed"`
}

type SessionResponse struct {
	Session entities.SessionInfo     `json:"session"`
	State   entities.TrackerSnapshot `json:"state"`
}

// KnowledgeResponse exposes the tables in use
type KnowledgeResponse struct {
	Version     string              `json:"version"`
	Source      string              `json:"source"`
	LastUpdated string              `json:"lastUpdated"`
	Keys        map[string][]string `json:"keys"`
	Topics      []string            `json:"topics"`
	Tables      any                 `json:"tables"`
}

// HealthResponse defines the structure for consistent JSON ordering
type HealthResponse struct {
	Status        string         `json:"status"`
	Uptime        string         `json:"uptime"`
	UptimeSeconds float64        `json:"uptime_seconds"`
	Data          map[string]any `json:"data"`
	System        map[string]any `json:"system"`
}
