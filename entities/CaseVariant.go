// Package entities holds the records shared by the enhancement, categorization and
// follow-up packages.
package entities

// Gender values recognised by the screening bands. Any other value is treated as unspecified.
const (
	GenderMale        = "male"
	GenderFemale      = "female"
	GenderUnspecified = "unspecified"
)

// CaseVariant is one authored variant of a clinical case.
// A nil slice or pointer means the field was not authored; a non-nil empty slice was
// authored as empty and is kept as-is when merged.
type CaseVariant struct {
	DiagnosisName         string          `json:"diagnosisName"`
	ChiefComplaint        string          `json:"chiefComplaint"`
	Age                   *int            `json:"age,omitempty"`
	Gender                string          `json:"gender"`
	PMHConditions         []string        `json:"pmhConditions"`
	FamilyHistoryRelevant []string        `json:"familyHistoryRelevant"`
	SurgicalHistory       []string        `json:"surgicalHistory"`
	ScreeningData         *ScreeningFacts `json:"screeningData"`
	VisitHistory          *VisitHistory   `json:"visitHistory"`
}

// MergedVariant is a CaseVariant whose absent fields were filled from an Enhancement.
type MergedVariant struct {
	CaseVariant
	FilledFields []string `json:"filledFields"`
}
