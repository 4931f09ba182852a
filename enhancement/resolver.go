// Package enhancement infers missing case attributes from a case variant and merges them
// with the authored data.
package enhancement

import (
	"github.com/giygas/clinical-cases-api/entities"
	"github.com/giygas/clinical-cases-api/interfaces"
	"github.com/giygas/clinical-cases-api/knowledge"
	"github.com/giygas/clinical-cases-api/logging"
	"github.com/giygas/clinical-cases-api/screening"
)

// Defaults substituted for missing variant fields.
const (
	DefaultAge    = 55
	DefaultGender = entities.GenderMale
)

// Field names reported in MergedVariant.FilledFields.
const (
	FieldPMHConditions         = "pmhConditions"
	FieldFamilyHistoryRelevant = "familyHistoryRelevant"
	FieldSurgicalHistory       = "surgicalHistory"
	FieldScreeningData         = "screeningData"
	FieldVisitHistory          = "visitHistory"
)

// Compile-time check to ensure Resolver implements the Resolver interface
var _ interfaces.Resolver = (*Resolver)(nil)

// Resolver matches a variant against the knowledge tables. It is safe for concurrent use
// when its random source is.
type Resolver struct {
	source knowledge.Source
	rng    screening.RandomSource
}

// NewResolver creates a resolver reading tables from source. A nil rng uses a
// time-seeded source.
func NewResolver(source knowledge.Source, rng screening.RandomSource) *Resolver {
	if rng == nil {
		rng = screening.NewRandomSource(0)
	}
	return &Resolver{source: source, rng: rng}
}

// Resolve returns a freshly built Enhancement for variant. It never fails: missing fields
// fall back to defaults and unmatched text yields empty sets.
func (r *Resolver) Resolve(variant entities.CaseVariant) entities.Enhancement {
	age := DefaultAge
	if variant.Age != nil {
		age = *variant.Age
	}
	gender := variant.Gender
	if gender == "" {
		gender = DefaultGender
	}

	enh := entities.Enhancement{
		PMHConditions:         []string{},
		FamilyHistoryRelevant: []string{},
		SurgicalHistory:       []string{},
		ScreeningData:         screening.Generate(age, gender, r.rng),
		VisitHistory:          entities.NewVisitHistory(),
	}

	tables := r.tables()
	if tables != nil {
		enh.PMHConditions = tables.PMH.Match(variant.DiagnosisName)
		enh.FamilyHistoryRelevant = tables.FamilyHistory.Match(variant.ChiefComplaint)
		enh.SurgicalHistory = tables.SurgicalHistory.Match(variant.DiagnosisName)
	}

	logging.Debug("Case enhancement resolved",
		"diagnosis", variant.DiagnosisName,
		"chief_complaint", variant.ChiefComplaint,
		"pmh_count", len(enh.PMHConditions),
		"family_count", len(enh.FamilyHistoryRelevant),
		"surgical_count", len(enh.SurgicalHistory),
	)

	return enh
}

// Merge fills each absent field of variant from enhancement. A field is absent only when
// nil; an authored empty list is kept.
func (r *Resolver) Merge(variant entities.CaseVariant, enhancement entities.Enhancement) entities.MergedVariant {
	return Merge(variant, enhancement)
}

// Enhance resolves and merges in one call.
func (r *Resolver) Enhance(variant entities.CaseVariant) (entities.Enhancement, entities.MergedVariant) {
	enh := r.Resolve(variant)
	return enh, Merge(variant, enh)
}

func (r *Resolver) tables() *knowledge.Tables {
	if r.source == nil {
		return nil
	}
	return r.source.GetTables()
}

// Merge is the field-by-field "explicit wins" merge. It never deep-merges.
func Merge(variant entities.CaseVariant, enhancement entities.Enhancement) entities.MergedVariant {
	merged := entities.MergedVariant{
		CaseVariant:  variant,
		FilledFields: []string{},
	}

	if variant.PMHConditions == nil {
		merged.PMHConditions = cloneStrings(enhancement.PMHConditions)
		merged.FilledFields = append(merged.FilledFields, FieldPMHConditions)
	}
	if variant.FamilyHistoryRelevant == nil {
		merged.FamilyHistoryRelevant = cloneStrings(enhancement.FamilyHistoryRelevant)
		merged.FilledFields = append(merged.FilledFields, FieldFamilyHistoryRelevant)
	}
	if variant.SurgicalHistory == nil {
		merged.SurgicalHistory = cloneStrings(enhancement.SurgicalHistory)
		merged.FilledFields = append(merged.FilledFields, FieldSurgicalHistory)
	}
	if variant.ScreeningData == nil {
		screeningData := enhancement.ScreeningData
		merged.ScreeningData = &screeningData
		merged.FilledFields = append(merged.FilledFields, FieldScreeningData)
	}
	if variant.VisitHistory == nil {
		visits := enhancement.VisitHistory
		merged.VisitHistory = &visits
		merged.FilledFields = append(merged.FilledFields, FieldVisitHistory)
	}

	return merged
}

func cloneStrings(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	return out
}
