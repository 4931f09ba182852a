// Package followup implements the per-session follow-up tracker. It watches the stream of
// learner questions and, topic by topic, decides when to suggest digging deeper after a
// general question went unfollowed.
//
// Topic lifecycle within a session: Unseen -> Pending -> Hinted or Resolved. A general
// question on a tracked topic makes it Pending; a specific question on it resolves it;
// reaching the topic threshold without one fires a single hint. Hinted and Resolved are
// terminal until Reset.
package followup

import (
	"fmt"
	"slices"

	"github.com/giygas/clinical-cases-api/entities"
	"github.com/giygas/clinical-cases-api/interfaces"
	"github.com/giygas/clinical-cases-api/knowledge"
	"github.com/giygas/clinical-cases-api/logging"
)

// Tracker holds the follow-up state of one session. It is not safe for concurrent use.
type Tracker struct {
	source      knowledge.Source
	categorizer interfaces.Categorizer
	enabled     bool

	// states holds Pending and Hinted topics in creation order; Shown marks Hinted.
	states   []*entities.TopicFollowUpState
	resolved []string
	revealed []string
}

var _ interfaces.FollowUpTracker = (*Tracker)(nil)

// NewTracker creates a tracker for a new session.
func NewTracker(source knowledge.Source, categorizer interfaces.Categorizer, enabled bool) *Tracker {
	return &Tracker{
		source:      source,
		categorizer: categorizer,
		enabled:     enabled,
	}
}

// TrackQuestion processes one learner question and returns a prompt when a pending topic
// reaches its threshold. At most one prompt is returned per call.
func (t *Tracker) TrackQuestion(question, chiefComplaint string) *entities.PromptEvent {
	if !t.enabled {
		return nil
	}
	return t.TrackCategorized(t.categorizer.Categorize(question), chiefComplaint)
}

// TrackCategorized is TrackQuestion for a question the caller already categorized.
func (t *Tracker) TrackCategorized(cat entities.Categorization, chiefComplaint string) *entities.PromptEvent {
	if !t.enabled {
		return nil
	}

	created := ""

	switch {
	case cat.IsGeneral:
		if t.startTracking(cat.Topic, chiefComplaint) {
			created = cat.Topic
		}
	case cat.Topic != entities.TopicOther:
		t.resolve(cat.Topic)
	}

	for _, s := range t.states {
		if !s.Shown && s.Topic != created {
			s.QuestionsSinceGeneral++
		}
	}

	for _, s := range t.states {
		if s.Shown || s.QuestionsSinceGeneral < s.Threshold {
			continue
		}
		s.Shown = true
		logging.Debug("Follow-up prompt fired",
			"topic", s.Topic,
			"questions_since_general", s.QuestionsSinceGeneral,
			"threshold", s.Threshold)
		return &entities.PromptEvent{
			ShouldPrompt:    true,
			Topic:           s.Topic,
			HintIntro:       s.HintIntro,
			FollowUpPrompts: cloneStrings(s.FollowUpPrompts),
		}
	}
	return nil
}

// startTracking moves an Unseen topic that requires follow-up to Pending.
func (t *Tracker) startTracking(topicID, chiefComplaint string) bool {
	if t.state(topicID) != nil || slices.Contains(t.resolved, topicID) {
		return false
	}
	tables := t.source.GetTables()
	if tables == nil {
		return false
	}
	topic, ok := tables.Topic(topicID)
	if !ok || !topic.RequiresFollowUp {
		return false
	}

	t.states = append(t.states, &entities.TopicFollowUpState{
		Topic:           topic.ID,
		Threshold:       topic.Threshold,
		HintIntro:       topic.HintIntro,
		FollowUpPrompts: tables.FollowUpPrompts(topic.ID, chiefComplaint),
		Revealed:        slices.Contains(t.revealed, topic.ID),
	})
	return true
}

// resolve moves a Pending topic to Resolved. Other states are left alone.
func (t *Tracker) resolve(topicID string) {
	for i, s := range t.states {
		if s.Topic != topicID || s.Shown {
			continue
		}
		t.states = append(t.states[:i], t.states[i+1:]...)
		t.resolved = append(t.resolved, topicID)
		logging.Debug("Follow-up topic resolved", "topic", topicID)
		return
	}
}

// CheckOnSubmit returns a non-blocking nudge for the first pending topic whose hint the
// learner has not revealed. It does not change any state.
func (t *Tracker) CheckOnSubmit() *entities.SubmitPrompt {
	if !t.enabled {
		return nil
	}

	for _, s := range t.states {
		if s.Shown || s.Revealed {
			continue
		}
		return &entities.SubmitPrompt{
			ShouldPrompt:    true,
			Blocking:        false,
			Topic:           s.Topic,
			Message:         t.submitMessage(s.Topic),
			HintIntro:       s.HintIntro,
			FollowUpPrompts: cloneStrings(s.FollowUpPrompts),
		}
	}
	return nil
}

func (t *Tracker) submitMessage(topicID string) string {
	label := topicID
	if tables := t.source.GetTables(); tables != nil {
		if topic, ok := tables.Topic(topicID); ok && topic.Label != "" {
			label = topic.Label
		}
	}
	return fmt.Sprintf("You asked about %s but did not follow up with specific questions. You may want to explore it further before moving on.", label)
}

// RevealHint records that the learner opened the hint for topic. Repeated calls are no-ops.
func (t *Tracker) RevealHint(topic string) {
	if !t.enabled || slices.Contains(t.revealed, topic) {
		return
	}
	t.revealed = append(t.revealed, topic)
	if s := t.state(topic); s != nil {
		s.Revealed = true
	}
}

// Revealed returns the topics whose hints were revealed, in reveal order.
func (t *Tracker) Revealed() []string {
	return cloneStrings(t.revealed)
}

// Reset discards all session state for a new case. The enabled flag is kept.
func (t *Tracker) Reset() {
	t.states = nil
	t.resolved = nil
	t.revealed = nil
}

func (t *Tracker) SetEnabled(enabled bool) {
	t.enabled = enabled
}

func (t *Tracker) Enabled() bool {
	return t.enabled
}

// Snapshot returns a copy of the tracker state.
func (t *Tracker) Snapshot() entities.TrackerSnapshot {
	snap := entities.TrackerSnapshot{
		Enabled:  t.enabled,
		Pending:  []entities.TopicFollowUpState{},
		Hinted:   []string{},
		Resolved: cloneStrings(t.resolved),
		Revealed: cloneStrings(t.revealed),
	}
	for _, s := range t.states {
		if s.Shown {
			snap.Hinted = append(snap.Hinted, s.Topic)
			continue
		}
		state := *s
		state.FollowUpPrompts = cloneStrings(s.FollowUpPrompts)
		snap.Pending = append(snap.Pending, state)
	}
	return snap
}

func (t *Tracker) state(topic string) *entities.TopicFollowUpState {
	for _, s := range t.states {
		if s.Topic == topic {
			return s
		}
	}
	return nil
}

func cloneStrings(s []string) []string {
	out := make([]string, len(s))
	copy(out, s)
	return out
}
