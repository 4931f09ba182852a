package entities

// ScreeningFacts holds the preventive-care facts for a patient. A nil entry means the
// patient is outside the band for that fact.
type ScreeningFacts struct {
	Colonoscopy       *ScreeningResult `json:"colonoscopy,omitempty"`
	Mammogram         *ScreeningResult `json:"mammogram,omitempty"`
	PapSmear          *ScreeningResult `json:"papSmear,omitempty"`
	PSA               *ScreeningResult `json:"psa,omitempty"`
	AAA               *ScreeningResult `json:"aaa,omitempty"`
	DEXA              *ScreeningResult `json:"dexa,omitempty"`
	DiabetesScreening *ScreeningResult `json:"diabetesScreening,omitempty"`
	LipidPanel        *ScreeningResult `json:"lipidPanel,omitempty"`
	HepatitisC        *ScreeningResult `json:"hepatitisC,omitempty"`
	HIV               *ScreeningResult `json:"hiv,omitempty"`
	Vaccines          Vaccines         `json:"vaccines"`
}

type ScreeningResult struct {
	LastDone string `json:"lastDone"`
	Result   string `json:"result"`
}

// Vaccines always carries flu, COVID and Tdap; shingles and pneumonia are age gated.
type Vaccines struct {
	Flu       VaccineRecord  `json:"flu"`
	COVID     VaccineRecord  `json:"covid"`
	Tdap      VaccineRecord  `json:"tdap"`
	Shingles  *VaccineRecord `json:"shingles,omitempty"`
	Pneumonia *VaccineRecord `json:"pneumonia,omitempty"`
}

type VaccineRecord struct {
	Status   string `json:"status"`
	LastDose string `json:"lastDose"`
}
