// Package knowledge holds the clinical knowledge tables: diagnosis and complaint keyword
// mappings, question topics with their follow-up prompts, and the specific-question
// detectors. The default tables are embedded as versioned YAML.
package knowledge

import (
	"strings"
)

// Entry maps a keyword to a set of tags.
type Entry struct {
	Key           string   `yaml:"key" json:"key"`
	Tags          []string `yaml:"tags" json:"tags"`
	KeyNormalized string   `yaml:"-" json:"-"` // Pre-computed: Normalize(Key)
}

// Table is an ordered keyword table.
type Table []Entry

// ComplaintCategory maps a chief-complaint keyword to a follow-up category.
type ComplaintCategory struct {
	Key           string `yaml:"key" json:"key"`
	Category      string `yaml:"category" json:"category"`
	KeyNormalized string `yaml:"-" json:"-"`
}

// FollowUpSet is the list of follow-up prompts for one complaint category.
type FollowUpSet struct {
	Category string   `yaml:"category" json:"category"`
	Prompts  []string `yaml:"prompts" json:"prompts"`
}

// Topic is a history-taking category subject to follow-up tracking.
type Topic struct {
	ID               string        `yaml:"id" json:"id"`
	Label            string        `yaml:"label" json:"label"`
	RequiresFollowUp bool          `yaml:"requires_follow_up" json:"requiresFollowUp"`
	Threshold        int           `yaml:"threshold" json:"threshold"`
	HintIntro        string        `yaml:"hint_intro" json:"hintIntro"`
	GeneralPatterns  []string      `yaml:"general_patterns" json:"generalPatterns"`
	FollowUps        []FollowUpSet `yaml:"follow_ups" json:"followUps"`
}

// DetectorValue is one canonical value of a specific-question detector and the
// substrings that select it.
type DetectorValue struct {
	Value    string   `yaml:"value" json:"value"`
	Patterns []string `yaml:"patterns" json:"patterns"`
}

// Detector recognises specific questions on a topic.
type Detector struct {
	Topic    string          `yaml:"topic" json:"topic"`
	ExtraKey string          `yaml:"extra_key" json:"extraKey"`
	Values   []DetectorValue `yaml:"values" json:"values"`
}

// Tables is a complete, immutable set of knowledge tables.
type Tables struct {
	Version             string              `yaml:"version" json:"version"`
	PMH                 Table               `yaml:"pmh" json:"pmh"`
	FamilyHistory       Table               `yaml:"family_history" json:"familyHistory"`
	SurgicalHistory     Table               `yaml:"surgical_history" json:"surgicalHistory"`
	ComplaintCategories []ComplaintCategory `yaml:"complaint_categories" json:"complaintCategories"`
	Topics              []Topic             `yaml:"topics" json:"topics"`
	SpecificDetectors   []Detector          `yaml:"specific_detectors" json:"specificDetectors"`
}

// Keys returns the table keys in table order.
func (t Table) Keys() []string {
	keys := make([]string, 0, len(t))
	for _, e := range t {
		keys = append(keys, e.Key)
	}
	return keys
}

// Match returns the union of the tags of every entry whose key is a substring of
// subject, without duplicates, in first-seen order. No match returns an empty, non-nil slice.
func (t Table) Match(subject string) []string {
	result := []string{}
	s := Normalize(subject)
	if s == "" {
		return result
	}

	seen := make(map[string]struct{})
	for _, e := range t {
		key := e.KeyNormalized
		if key == "" {
			key = Normalize(e.Key)
		}
		if key == "" || !strings.Contains(s, key) {
			continue
		}
		for _, tag := range e.Tags {
			if _, dup := seen[tag]; dup {
				continue
			}
			seen[tag] = struct{}{}
			result = append(result, tag)
		}
	}
	return result
}

// Topic returns the topic with the given id.
func (t *Tables) Topic(id string) (Topic, bool) {
	for _, topic := range t.Topics {
		if topic.ID == id {
			return topic, true
		}
	}
	return Topic{}, false
}

// TopicIDs returns the topic ids in priority order.
func (t *Tables) TopicIDs() []string {
	ids := make([]string, 0, len(t.Topics))
	for _, topic := range t.Topics {
		ids = append(ids, topic.ID)
	}
	return ids
}

// ComplaintCategory returns the category of the first complaint keyword found in
// complaint, or "" when none matches.
func (t *Tables) ComplaintCategory(complaint string) string {
	c := Normalize(complaint)
	if c == "" {
		return ""
	}
	for _, cc := range t.ComplaintCategories {
		key := cc.KeyNormalized
		if key == "" {
			key = Normalize(cc.Key)
		}
		if key != "" && strings.Contains(c, key) {
			return cc.Category
		}
	}
	return ""
}

// FollowUpPrompts returns a copy of the topic's prompts for the complaint's category,
// falling back to the topic's first category.
func (t *Tables) FollowUpPrompts(topicID, complaint string) []string {
	topic, ok := t.Topic(topicID)
	if !ok || len(topic.FollowUps) == 0 {
		return []string{}
	}

	chosen := topic.FollowUps[0]
	if category := t.ComplaintCategory(complaint); category != "" {
		for _, set := range topic.FollowUps {
			if set.Category == category {
				chosen = set
				break
			}
		}
	}

	prompts := make([]string, len(chosen.Prompts))
	copy(prompts, chosen.Prompts)
	return prompts
}

// EntryCount returns the number of keyword entries across the three case tables.
func (t *Tables) EntryCount() int {
	return len(t.PMH) + len(t.FamilyHistory) + len(t.SurgicalHistory)
}

// normalizeKeys fills the pre-computed normalized keys.
func (t *Tables) normalizeKeys() {
	for _, table := range []Table{t.PMH, t.FamilyHistory, t.SurgicalHistory} {
		for i := range table {
			table[i].KeyNormalized = Normalize(table[i].Key)
		}
	}
	for i := range t.ComplaintCategories {
		t.ComplaintCategories[i].KeyNormalized = Normalize(t.ComplaintCategories[i].Key)
	}
}

// Source supplies the current tables. The data container implements it; Fixed wraps a
// single table set.
type Source interface {
	GetTables() *Tables
}

// FixedSource always serves the same tables.
type FixedSource struct {
	tables *Tables
}

// Fixed returns a Source serving t.
func Fixed(t *Tables) FixedSource {
	return FixedSource{tables: t}
}

func (f FixedSource) GetTables() *Tables {
	return f.tables
}
