package entities

import "time"

// TopicOther is the topic assigned to questions no rule matches.
const TopicOther = "other"

// Categorization is the classification of a single learner question.
type Categorization struct {
	Topic     string            `json:"topic"`
	IsGeneral bool              `json:"isGeneral"`
	Extra     map[string]string `json:"extra,omitempty"`
}

// TopicFollowUpState tracks one topic after a general question was asked about it.
type TopicFollowUpState struct {
	Topic                 string   `json:"topic"`
	QuestionsSinceGeneral int      `json:"questionsSinceGeneral"`
	Threshold             int      `json:"threshold"`
	HintIntro             string   `json:"hintIntro"`
	FollowUpPrompts       []string `json:"followUpPrompts"`
	Revealed              bool     `json:"revealed"`
	Shown                 bool     `json:"shown"`
}

// PromptEvent asks the learner to dig deeper on a topic. Emitted at most once per topic
// per session.
type PromptEvent struct {
	ShouldPrompt    bool     `json:"shouldPrompt"`
	Topic           string   `json:"topic"`
	HintIntro       string   `json:"hintIntro"`
	FollowUpPrompts []string `json:"followUpPrompts"`
}

// SubmitPrompt is the non-blocking nudge shown before a learner advances a stage.
type SubmitPrompt struct {
	ShouldPrompt    bool     `json:"shouldPrompt"`
	Blocking        bool     `json:"blocking"`
	Topic           string   `json:"topic"`
	Message         string   `json:"message"`
	HintIntro       string   `json:"hintIntro"`
	FollowUpPrompts []string `json:"followUpPrompts"`
}

// TrackerSnapshot is a copy of a tracker's per-session state.
type TrackerSnapshot struct {
	Enabled  bool                 `json:"enabled"`
	Pending  []TopicFollowUpState `json:"pending"`
	Hinted   []string             `json:"hinted"`
	Resolved []string             `json:"resolved"`
	Revealed []string             `json:"revealed"`
}

// SessionInfo describes one learner's case session.
type SessionInfo struct {
	ID              string    `json:"sessionId"`
	ChiefComplaint  string    `json:"chiefComplaint"`
	FollowUpEnabled bool      `json:"followUpEnabled"`
	CreatedAt       time.Time `json:"createdAt"`
	ExpiresAt       time.Time `json:"expiresAt"`
}
