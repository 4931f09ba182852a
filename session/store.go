// Package session keeps one follow-up tracker per learner session in an expiring
// in-memory cache. Every operation on a session holds that session's lock, so trackers
// themselves need no locking.
package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/giygas/clinical-cases-api/entities"
	"github.com/giygas/clinical-cases-api/followup"
	"github.com/giygas/clinical-cases-api/interfaces"
	"github.com/giygas/clinical-cases-api/knowledge"
	"github.com/giygas/clinical-cases-api/logging"
	"github.com/giygas/clinical-cases-api/metrics"
	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

// Compile-time check to ensure Store implements SessionStore
var _ interfaces.SessionStore = (*Store)(nil)

type session struct {
	mu      sync.Mutex
	info    entities.SessionInfo
	tracker *followup.Tracker
}

// Store maps session ids to sessions. Sessions expire after ttl without activity.
type Store struct {
	cache       *cache.Cache
	ttl         time.Duration
	source      knowledge.Source
	categorizer interfaces.Categorizer
}

// NewStore creates a store whose sessions expire after ttl of inactivity.
func NewStore(source knowledge.Source, categorizer interfaces.Categorizer, ttl time.Duration) *Store {
	cleanup := ttl / 2
	if cleanup < time.Minute {
		cleanup = time.Minute
	}

	s := &Store{
		cache:       cache.New(ttl, cleanup),
		ttl:         ttl,
		source:      source,
		categorizer: categorizer,
	}
	s.cache.OnEvicted(func(id string, _ any) {
		metrics.ActiveSessions.Dec()
		logging.Debug("Session evicted", "session_id", id)
	})
	return s
}

// Create starts a session for a case with the given chief complaint.
func (s *Store) Create(chiefComplaint string, followUpEnabled bool) entities.SessionInfo {
	now := time.Now()
	sess := &session{
		info: entities.SessionInfo{
			ID:              uuid.NewString(),
			ChiefComplaint:  chiefComplaint,
			FollowUpEnabled: followUpEnabled,
			CreatedAt:       now,
			ExpiresAt:       now.Add(s.ttl),
		},
		tracker: followup.NewTracker(s.source, s.categorizer, followUpEnabled),
	}

	s.cache.Set(sess.info.ID, sess, cache.DefaultExpiration)
	metrics.ActiveSessions.Inc()
	logging.Info("Session created",
		"session_id", sess.info.ID,
		"chief_complaint", chiefComplaint,
		"followup_enabled", followUpEnabled)
	return sess.info
}

// withSession runs fn under the session lock and extends the session's lifetime.
func (s *Store) withSession(id string, fn func(*session)) error {
	v, found := s.cache.Get(id)
	if !found {
		return fmt.Errorf("session %s: %w", id, interfaces.ErrSessionNotFound)
	}
	sess := v.(*session)

	sess.mu.Lock()
	defer sess.mu.Unlock()

	sess.info.ExpiresAt = time.Now().Add(s.ttl)
	fn(sess)
	// Replace re-arms the expiration but fails if the session was deleted meanwhile
	if err := s.cache.Replace(id, sess, cache.DefaultExpiration); err != nil {
		logging.Debug("Session removed during request", "session_id", id)
	}
	return nil
}

func (s *Store) Get(id string) (entities.SessionInfo, error) {
	var info entities.SessionInfo
	err := s.withSession(id, func(sess *session) {
		info = sess.info
	})
	return info, err
}

// TrackQuestion categorizes one learner question once and feeds that categorization to
// the session tracker. It returns the categorization with the prompt it triggered, if any.
func (s *Store) TrackQuestion(id, question string) (entities.Categorization, *entities.PromptEvent, error) {
	var (
		cat   entities.Categorization
		event *entities.PromptEvent
	)
	err := s.withSession(id, func(sess *session) {
		cat = s.categorizer.Categorize(question)
		if sess.tracker.Enabled() {
			metrics.QuestionsCategorized.WithLabelValues(cat.Topic, metrics.Specificity(cat.IsGeneral)).Inc()
		}
		event = sess.tracker.TrackCategorized(cat, sess.info.ChiefComplaint)
	})
	if err != nil {
		return entities.Categorization{}, nil, err
	}

	if event != nil {
		metrics.FollowUpPrompts.WithLabelValues(event.Topic).Inc()
		logging.Info("Follow-up prompt emitted", "session_id", id, "topic", event.Topic)
	}
	return cat, event, nil
}

// CheckOnSubmit returns the session's pending follow-up suggestion, if any.
func (s *Store) CheckOnSubmit(id string) (*entities.SubmitPrompt, error) {
	var prompt *entities.SubmitPrompt
	err := s.withSession(id, func(sess *session) {
		prompt = sess.tracker.CheckOnSubmit()
	})
	if err != nil {
		return nil, err
	}

	if prompt != nil {
		metrics.SubmitNudges.WithLabelValues(prompt.Topic).Inc()
	}
	return prompt, nil
}

// RevealHint marks a topic hint as seen and returns the revealed topics. Topics missing
// from the current tables give ErrUnknownTopic.
func (s *Store) RevealHint(id, topic string) ([]string, error) {
	tables := s.source.GetTables()
	if tables == nil {
		return nil, fmt.Errorf("%w: %s", interfaces.ErrUnknownTopic, topic)
	}
	if _, ok := tables.Topic(topic); !ok {
		return nil, fmt.Errorf("%w: %s", interfaces.ErrUnknownTopic, topic)
	}

	var revealed []string
	err := s.withSession(id, func(sess *session) {
		already := len(sess.tracker.Revealed())
		sess.tracker.RevealHint(topic)
		revealed = sess.tracker.Revealed()
		if len(revealed) > already {
			metrics.HintsRevealed.WithLabelValues(topic).Inc()
		}
	})
	return revealed, err
}

// Reset discards the session's tracker state for a new case. A non-empty chief
// complaint replaces the session's complaint.
func (s *Store) Reset(id, chiefComplaint string) error {
	return s.withSession(id, func(sess *session) {
		sess.tracker.Reset()
		if chiefComplaint != "" {
			sess.info.ChiefComplaint = chiefComplaint
		}
		logging.Info("Session reset", "session_id", id, "chief_complaint", sess.info.ChiefComplaint)
	})
}

func (s *Store) Snapshot(id string) (entities.TrackerSnapshot, error) {
	var snap entities.TrackerSnapshot
	err := s.withSession(id, func(sess *session) {
		snap = sess.tracker.Snapshot()
	})
	return snap, err
}

// Delete removes a session. It reports whether the session existed.
func (s *Store) Delete(id string) bool {
	if _, found := s.cache.Get(id); !found {
		return false
	}
	s.cache.Delete(id)
	logging.Info("Session deleted", "session_id", id)
	return true
}

// Count returns the number of sessions held, including expired ones not yet purged.
func (s *Store) Count() int {
	return s.cache.ItemCount()
}
