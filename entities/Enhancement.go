package entities

// Enhancement is the case data inferred from a variant's diagnosis, complaint, age and gender.
type Enhancement struct {
	PMHConditions         []string       `json:"pmhConditions"`
	FamilyHistoryRelevant []string       `json:"familyHistoryRelevant"`
	SurgicalHistory       []string       `json:"surgicalHistory"`
	ScreeningData         ScreeningFacts `json:"screeningData"`
	VisitHistory          VisitHistory   `json:"visitHistory"`
}

// VisitHistory lists prior encounters. The resolver never infers these.
type VisitHistory struct {
	Specialists      []string `json:"specialists"`
	ERVisits         []string `json:"erVisits"`
	UrgentCare       []string `json:"urgentCare"`
	Hospitalizations []string `json:"hospitalizations"`
}

// NewVisitHistory returns a VisitHistory with four empty, non-nil lists.
func NewVisitHistory() VisitHistory {
	return VisitHistory{
		Specialists:      []string{},
		ERVisits:         []string{},
		UrgentCare:       []string{},
		Hospitalizations: []string{},
	}
}
