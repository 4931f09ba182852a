package enhancement

import (
	"slices"
	"testing"

	"github.com/giygas/clinical-cases-api/entities"
	"github.com/giygas/clinical-cases-api/knowledge"
	"github.com/giygas/clinical-cases-api/screening"
)

func intPtr(v int) *int { return &v }

func newResolver(t *testing.T) *Resolver {
	t.Helper()
	tables, err := knowledge.Default()
	if err != nil {
		t.Fatalf("Failed to load default tables: %v", err)
	}
	return NewResolver(knowledge.Fixed(tables), screening.NewRandomSource(11))
}

func TestResolveNSTEMIScenario(t *testing.T) {
	r := newResolver(t)

	enh := r.Resolve(entities.CaseVariant{
		DiagnosisName:  "NSTEMI",
		ChiefComplaint: "Chest pain",
		Age:            intPtr(62),
		Gender:         "male",
	})

	wantPMH := []string{"hypertension", "hyperlipidemia", "diabetes_type2", "cad"}
	if !slices.Equal(enh.PMHConditions, wantPMH) {
		t.Errorf("pmh = %v, want %v", enh.PMHConditions, wantPMH)
	}
	for _, tag := range []string{"coronary_artery_disease", "mi_before_55", "sudden_cardiac_death"} {
		if !slices.Contains(enh.FamilyHistoryRelevant, tag) {
			t.Errorf("family history %v missing %s", enh.FamilyHistoryRelevant, tag)
		}
	}
	if enh.SurgicalHistory == nil || len(enh.SurgicalHistory) != 0 {
		t.Errorf("expected empty surgical history, got %v", enh.SurgicalHistory)
	}

	included := screening.Included(enh.ScreeningData)
	for _, name := range []string{"colonoscopy", "psa", "diabetesScreening", "lipidPanel", "hepatitisC", "hiv", "shingles"} {
		if !slices.Contains(included, name) {
			t.Errorf("expected %s in screening, got %v", name, included)
		}
	}
	for _, name := range []string{"mammogram", "papSmear", "dexa", "aaa", "pneumonia"} {
		if slices.Contains(included, name) {
			t.Errorf("did not expect %s in screening, got %v", name, included)
		}
	}

	v := enh.VisitHistory
	if v.Specialists == nil || v.ERVisits == nil || v.UrgentCare == nil || v.Hospitalizations == nil {
		t.Error("visit history lists must be non-nil")
	}
	if len(v.Specialists)+len(v.ERVisits)+len(v.UrgentCare)+len(v.Hospitalizations) != 0 {
		t.Error("visit history lists must be empty")
	}
}

func TestResolveUnionsOverlappingKeys(t *testing.T) {
	tables := &knowledge.Tables{
		PMH: knowledge.Table{
			{Key: "heart failure", Tags: []string{"hypertension", "cad"}},
			{Key: "failure", Tags: []string{"cad", "ckd"}},
			{Key: "unrelated", Tags: []string{"nope"}},
		},
	}
	r := NewResolver(knowledge.Fixed(tables), screening.NewRandomSource(1))

	enh := r.Resolve(entities.CaseVariant{DiagnosisName: "Acute HEART FAILURE exacerbation"})
	want := []string{"hypertension", "cad", "ckd"}
	if !slices.Equal(enh.PMHConditions, want) {
		t.Errorf("pmh = %v, want %v", enh.PMHConditions, want)
	}
}

func TestResolveNoMatch(t *testing.T) {
	r := newResolver(t)

	enh := r.Resolve(entities.CaseVariant{DiagnosisName: "Xyzzy syndrome", ChiefComplaint: "itchy elbow"})
	if enh.PMHConditions == nil || len(enh.PMHConditions) != 0 {
		t.Errorf("expected empty pmh, got %v", enh.PMHConditions)
	}
	if enh.FamilyHistoryRelevant == nil || len(enh.FamilyHistoryRelevant) != 0 {
		t.Errorf("expected empty family history, got %v", enh.FamilyHistoryRelevant)
	}
	if enh.SurgicalHistory == nil || len(enh.SurgicalHistory) != 0 {
		t.Errorf("expected empty surgical history, got %v", enh.SurgicalHistory)
	}
}

func TestResolveDefaults(t *testing.T) {
	r := newResolver(t)

	// Defaults are 55 and male: colonoscopy and PSA, never mammogram.
	included := screening.Included(r.Resolve(entities.CaseVariant{}).ScreeningData)
	if !slices.Contains(included, "psa") || !slices.Contains(included, "colonoscopy") {
		t.Errorf("expected defaults to screen a 55 year old male, got %v", included)
	}
	if slices.Contains(included, "mammogram") {
		t.Errorf("default gender should not get a mammogram, got %v", included)
	}
}

func TestResolveWithoutSource(t *testing.T) {
	r := NewResolver(nil, nil)
	enh := r.Resolve(entities.CaseVariant{DiagnosisName: "NSTEMI"})
	if enh.PMHConditions == nil || len(enh.PMHConditions) != 0 {
		t.Errorf("expected empty pmh without tables, got %v", enh.PMHConditions)
	}
}

func TestMergePrecedence(t *testing.T) {
	enh := entities.Enhancement{
		PMHConditions:         []string{"hypertension"},
		FamilyHistoryRelevant: []string{"mi_before_55"},
		SurgicalHistory:       []string{"appendectomy"},
		ScreeningData:         entities.ScreeningFacts{HIV: &entities.ScreeningResult{Result: "negative"}},
		VisitHistory:          entities.NewVisitHistory(),
	}

	variant := entities.CaseVariant{
		PMHConditions:   []string{},
		SurgicalHistory: []string{"cholecystectomy"},
	}

	merged := Merge(variant, enh)

	if merged.PMHConditions == nil || len(merged.PMHConditions) != 0 {
		t.Errorf("authored empty pmh must win, got %v", merged.PMHConditions)
	}
	if !slices.Equal(merged.SurgicalHistory, []string{"cholecystectomy"}) {
		t.Errorf("authored surgical history must win, got %v", merged.SurgicalHistory)
	}
	if !slices.Equal(merged.FamilyHistoryRelevant, []string{"mi_before_55"}) {
		t.Errorf("absent family history must be filled, got %v", merged.FamilyHistoryRelevant)
	}
	if merged.ScreeningData == nil || merged.ScreeningData.HIV == nil {
		t.Error("absent screening data must be filled")
	}
	if merged.VisitHistory == nil {
		t.Error("absent visit history must be filled")
	}

	wantFilled := []string{FieldFamilyHistoryRelevant, FieldScreeningData, FieldVisitHistory}
	if !slices.Equal(merged.FilledFields, wantFilled) {
		t.Errorf("filled = %v, want %v", merged.FilledFields, wantFilled)
	}
}

func TestMergeDoesNotDeepMerge(t *testing.T) {
	authored := &entities.ScreeningFacts{Colonoscopy: &entities.ScreeningResult{Result: "polyps"}}
	enh := entities.Enhancement{
		ScreeningData: entities.ScreeningFacts{HIV: &entities.ScreeningResult{Result: "negative"}},
	}

	merged := Merge(entities.CaseVariant{ScreeningData: authored}, enh)
	if merged.ScreeningData != authored {
		t.Fatal("authored screening data must be kept as-is")
	}
	if merged.ScreeningData.HIV != nil {
		t.Error("merge must not combine screening facts")
	}
}

func TestMergeCopiesEnhancementLists(t *testing.T) {
	enh := entities.Enhancement{PMHConditions: []string{"cad"}}
	merged := Merge(entities.CaseVariant{}, enh)
	merged.PMHConditions[0] = "changed"
	if enh.PMHConditions[0] != "cad" {
		t.Error("merged variant shares its list with the enhancement")
	}
}

func TestEnhance(t *testing.T) {
	r := newResolver(t)
	enh, merged := r.Enhance(entities.CaseVariant{DiagnosisName: "NSTEMI", ChiefComplaint: "chest pain"})

	if !slices.Equal(merged.PMHConditions, enh.PMHConditions) {
		t.Errorf("merged pmh %v differs from enhancement %v", merged.PMHConditions, enh.PMHConditions)
	}
	if len(merged.FilledFields) != 5 {
		t.Errorf("expected every field filled, got %v", merged.FilledFields)
	}
}
