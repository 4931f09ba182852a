// Package validation checks knowledge tables before they are used and validates request
// input at the HTTP boundary.
package validation

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/giygas/clinical-cases-api/interfaces"
	"github.com/giygas/clinical-cases-api/knowledge"
	"github.com/giygas/clinical-cases-api/logging"
	"github.com/go-playground/validator/v10"
)

// MaxQuestionLength bounds a learner question, in characters.
const MaxQuestionLength = 500

var (
	topicRegex = regexp.MustCompile(`^[a-z][a-z_]{0,39}$`)

	// Markup that has no place in a typed question
	dangerousPatterns = []string{
		"<script", "</script>", "javascript:", "vbscript:", "onload=", "onerror=",
		"onclick=", "onmouseover=", "<iframe", "<object", "<embed", "eval(", "expression(",
		"{$ne:", "{$gt:", "{$where:", "${",
	}
)

// DataValidatorImpl implements the interfaces.DataValidator interface
type DataValidatorImpl struct {
	validate *validator.Validate
}

// NewDataValidator creates a new data validator
func NewDataValidator() interfaces.DataValidator {
	return &DataValidatorImpl{
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// ValidateKnowledge checks that a table set is complete enough to serve requests.
func (v *DataValidatorImpl) ValidateKnowledge(t *knowledge.Tables) error {
	if t == nil {
		return fmt.Errorf("knowledge tables are nil")
	}
	if strings.TrimSpace(t.Version) == "" {
		return fmt.Errorf("knowledge tables have no version")
	}

	tables := []struct {
		name  string
		table knowledge.Table
	}{
		{"pmh", t.PMH},
		{"family_history", t.FamilyHistory},
		{"surgical_history", t.SurgicalHistory},
	}
	for _, tbl := range tables {
		if err := validateTable(tbl.name, tbl.table); err != nil {
			return err
		}
	}

	for i, cc := range t.ComplaintCategories {
		if strings.TrimSpace(cc.Key) == "" || strings.TrimSpace(cc.Category) == "" {
			return fmt.Errorf("complaint category %d has an empty key or category", i)
		}
	}

	if len(t.Topics) == 0 {
		return fmt.Errorf("knowledge tables define no topics")
	}
	topics := make(map[string]bool, len(t.Topics))
	for _, topic := range t.Topics {
		if err := v.ValidateTopic(topic.ID); err != nil {
			return fmt.Errorf("invalid topic id %q: %w", topic.ID, err)
		}
		if topic.ID == "other" {
			return fmt.Errorf("topic id %q is reserved", topic.ID)
		}
		if topics[topic.ID] {
			return fmt.Errorf("duplicate topic id: %s", topic.ID)
		}
		topics[topic.ID] = true

		if err := validateTopic(topic); err != nil {
			return fmt.Errorf("invalid topic %s: %w", topic.ID, err)
		}
	}

	for i, d := range t.SpecificDetectors {
		if !topics[d.Topic] {
			return fmt.Errorf("detector %d references unknown topic %q", i, d.Topic)
		}
		if strings.TrimSpace(d.ExtraKey) == "" {
			return fmt.Errorf("detector %d for topic %s has no extra key", i, d.Topic)
		}
		if len(d.Values) == 0 {
			return fmt.Errorf("detector %d for topic %s has no values", i, d.Topic)
		}
		for _, value := range d.Values {
			if strings.TrimSpace(value.Value) == "" || !hasNonBlank(value.Patterns) {
				return fmt.Errorf("detector %d for topic %s has an empty value or no patterns", i, d.Topic)
			}
		}
	}

	return nil
}

func validateTable(name string, table knowledge.Table) error {
	seen := make(map[string]bool, len(table))
	for i, e := range table {
		key := knowledge.Normalize(e.Key)
		if key == "" {
			return fmt.Errorf("%s entry %d has an empty key", name, i)
		}
		if len(e.Tags) == 0 {
			return fmt.Errorf("%s entry %q has no tags", name, e.Key)
		}
		if seen[key] {
			// Duplicates are harmless for matching, only worth a warning
			logging.Warn("Duplicate knowledge key", "table", name, "key", e.Key)
		}
		seen[key] = true
	}
	return nil
}

func validateTopic(topic knowledge.Topic) error {
	if !hasNonBlank(topic.GeneralPatterns) {
		return fmt.Errorf("no general patterns")
	}
	if !topic.RequiresFollowUp {
		return nil
	}
	if topic.Threshold < 1 {
		return fmt.Errorf("threshold must be at least 1, got %d", topic.Threshold)
	}
	if strings.TrimSpace(topic.HintIntro) == "" {
		return fmt.Errorf("no hint intro")
	}
	if len(topic.FollowUps) == 0 {
		return fmt.Errorf("no follow-up prompts")
	}
	for _, set := range topic.FollowUps {
		if strings.TrimSpace(set.Category) == "" || !hasNonBlank(set.Prompts) {
			return fmt.Errorf("follow-up category %q is empty", set.Category)
		}
	}
	return nil
}

func hasNonBlank(values []string) bool {
	for _, s := range values {
		if strings.TrimSpace(s) != "" {
			return true
		}
	}
	return false
}

// ValidateRequest validates a decoded request body using its validate tags.
func (v *DataValidatorImpl) ValidateRequest(req any) error {
	err := v.validate.Struct(req)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return fmt.Errorf("invalid request: %w", err)
	}

	messages := make([]string, 0, len(validationErrors))
	for _, fe := range validationErrors {
		if fe.Param() != "" {
			messages = append(messages, fmt.Sprintf("%s must satisfy %s=%s", fe.Field(), fe.Tag(), fe.Param()))
		} else {
			messages = append(messages, fmt.Sprintf("%s must satisfy %s", fe.Field(), fe.Tag()))
		}
	}
	return fmt.Errorf("invalid request: %s", strings.Join(messages, "; "))
}

// ValidateQuestion validates learner question text.
func (v *DataValidatorImpl) ValidateQuestion(question string) error {
	if strings.TrimSpace(question) == "" {
		return fmt.Errorf("question cannot be empty")
	}
	if !utf8.ValidString(question) {
		return fmt.Errorf("question must be valid UTF-8")
	}
	if n := utf8.RuneCountInString(question); n > MaxQuestionLength {
		return fmt.Errorf("question too long: maximum %d characters, got %d", MaxQuestionLength, n)
	}

	lower := strings.ToLower(question)
	for _, pattern := range dangerousPatterns {
		if strings.Contains(lower, pattern) {
			return fmt.Errorf("question contains potentially dangerous content")
		}
	}

	if hasExcessiveRepetition(question) {
		return fmt.Errorf("question contains excessive character repetition")
	}
	return nil
}

// ValidateTopic validates a topic id taken from a URL.
func (v *DataValidatorImpl) ValidateTopic(topic string) error {
	if topic == "" {
		return fmt.Errorf("topic cannot be empty")
	}
	if !topicRegex.MatchString(topic) {
		return fmt.Errorf("topic must be lowercase letters and underscores, at most 40 characters")
	}
	return nil
}

// hasExcessiveRepetition reports the same byte repeated more than 10 times in a row
func hasExcessiveRepetition(input string) bool {
	run := 1
	for i := 1; i < len(input); i++ {
		if input[i] == input[i-1] {
			run++
			if run > 10 {
				return true
			}
			continue
		}
		run = 1
	}
	return false
}
