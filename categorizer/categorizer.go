// Package categorizer maps a learner's free-text question to a history-taking topic and
// tells whether it was asked generally or about a specific item.
package categorizer

import (
	"strings"
	"sync"

	"github.com/giygas/clinical-cases-api/entities"
	"github.com/giygas/clinical-cases-api/interfaces"
	"github.com/giygas/clinical-cases-api/knowledge"
)

// Rule is one compiled matching rule. A question matches when it contains Pattern.
type Rule struct {
	Pattern    string `json:"pattern"`
	Topic      string `json:"topic"`
	General    bool   `json:"general"`
	ExtraKey   string `json:"extraKey,omitempty"`
	ExtraValue string `json:"extraValue,omitempty"`
}

// Compile builds the ordered rule list from t: every general pattern in topic priority
// order, then every specific detector pattern in table order. Empty patterns are skipped.
func Compile(t *knowledge.Tables) []Rule {
	if t == nil {
		return nil
	}

	var rules []Rule
	for _, topic := range t.Topics {
		for _, p := range topic.GeneralPatterns {
			if pattern := knowledge.Normalize(p); pattern != "" {
				rules = append(rules, Rule{Pattern: pattern, Topic: topic.ID, General: true})
			}
		}
	}
	for _, d := range t.SpecificDetectors {
		for _, v := range d.Values {
			for _, p := range v.Patterns {
				if pattern := knowledge.Normalize(p); pattern != "" {
					rules = append(rules, Rule{
						Pattern:    pattern,
						Topic:      d.Topic,
						ExtraKey:   d.ExtraKey,
						ExtraValue: v.Value,
					})
				}
			}
		}
	}
	return rules
}

// Classify applies rules to question. First match wins; no match is topic "other".
func Classify(rules []Rule, question string) entities.Categorization {
	q := knowledge.Normalize(question)
	if q != "" {
		for _, r := range rules {
			if !strings.Contains(q, r.Pattern) {
				continue
			}
			if r.General {
				return entities.Categorization{Topic: r.Topic, IsGeneral: true}
			}
			return entities.Categorization{
				Topic: r.Topic,
				Extra: map[string]string{r.ExtraKey: r.ExtraValue},
			}
		}
	}
	return entities.Categorization{Topic: entities.TopicOther}
}

// Categorizer classifies questions against the current knowledge tables. Rules are
// recompiled when the source starts serving a different table set.
type Categorizer struct {
	source knowledge.Source

	mu       sync.RWMutex
	compiled *knowledge.Tables
	rules    []Rule
}

var _ interfaces.Categorizer = (*Categorizer)(nil)

// New creates a categorizer reading tables from source.
func New(source knowledge.Source) *Categorizer {
	return &Categorizer{source: source}
}

// Categorize returns the topic, specificity and extracted detail of question.
func (c *Categorizer) Categorize(question string) entities.Categorization {
	return Classify(c.Rules(), question)
}

// Rules returns the compiled rule list for the current tables. The slice is shared and
// must not be modified.
func (c *Categorizer) Rules() []Rule {
	tables := c.source.GetTables()

	c.mu.RLock()
	if c.compiled == tables && c.rules != nil {
		rules := c.rules
		c.mu.RUnlock()
		return rules
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.compiled != tables || c.rules == nil {
		c.rules = Compile(tables)
		c.compiled = tables
	}
	return c.rules
}
