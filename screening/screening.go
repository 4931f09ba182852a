// Package screening generates age and gender banded preventive-care facts for a patient.
package screening

import (
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/giygas/clinical-cases-api/entities"
)

// RandomSource supplies the recency values. *rand.Rand satisfies it.
type RandomSource interface {
	Intn(n int) int
}

// Band is an inclusive age range gated on gender. MaxAge 0 means no upper bound;
// an empty Gender means any gender.
type Band struct {
	MinAge int
	MaxAge int
	Gender string
}

// Contains reports whether the patient falls inside the band.
func (b Band) Contains(age int, gender string) bool {
	if age < b.MinAge {
		return false
	}
	if b.MaxAge > 0 && age > b.MaxAge {
		return false
	}
	return b.Gender == "" || b.Gender == gender
}

// Screening bands, ages inclusive.
var (
	ColonoscopyBand       = Band{MinAge: 45, MaxAge: 75}
	MammogramBand         = Band{MinAge: 40, MaxAge: 74, Gender: entities.GenderFemale}
	PapSmearBand          = Band{MinAge: 21, MaxAge: 65, Gender: entities.GenderFemale}
	PSABand               = Band{MinAge: 55, MaxAge: 69, Gender: entities.GenderMale}
	AAABand               = Band{MinAge: 65, MaxAge: 75, Gender: entities.GenderMale}
	DEXABand              = Band{MinAge: 65, Gender: entities.GenderFemale}
	DiabetesScreeningBand = Band{MinAge: 35, MaxAge: 70}
	LipidPanelBand        = Band{MinAge: 40, MaxAge: 75}
	HepatitisCBand        = Band{MinAge: 18, MaxAge: 79}
	HIVBand               = Band{MinAge: 15, MaxAge: 65}
	ShinglesBand          = Band{MinAge: 50}
	PneumoniaBand         = Band{MinAge: 65}
)

// NormalizeGender maps free-text gender to male, female or unspecified.
func NormalizeGender(gender string) string {
	switch strings.ToLower(strings.TrimSpace(gender)) {
	case entities.GenderMale, "m":
		return entities.GenderMale
	case entities.GenderFemale, "f":
		return entities.GenderFemale
	default:
		return entities.GenderUnspecified
	}
}

// Generate returns the screening facts for age and gender. Band membership depends only
// on age and gender; rng only drives the recency values.
func Generate(age int, gender string, rng RandomSource) entities.ScreeningFacts {
	if rng == nil {
		rng = NewRandomSource(0)
	}
	gender = NormalizeGender(gender)

	facts := entities.ScreeningFacts{
		Vaccines: entities.Vaccines{
			Flu:   entities.VaccineRecord{Status: "up to date", LastDose: monthsAgo(rng, 1, 11)},
			COVID: entities.VaccineRecord{Status: "up to date", LastDose: monthsAgo(rng, 1, 18)},
			Tdap:  entities.VaccineRecord{Status: "up to date", LastDose: yearsAgo(rng, 1, 10)},
		},
	}

	if ColonoscopyBand.Contains(age, gender) {
		facts.Colonoscopy = &entities.ScreeningResult{LastDone: yearsAgo(rng, 1, 9), Result: "normal, no polyps"}
	}
	if MammogramBand.Contains(age, gender) {
		facts.Mammogram = &entities.ScreeningResult{LastDone: yearsAgo(rng, 1, 2), Result: "BI-RADS 1, negative"}
	}
	if PapSmearBand.Contains(age, gender) {
		facts.PapSmear = &entities.ScreeningResult{LastDone: yearsAgo(rng, 1, 3), Result: "normal cytology"}
	}
	if PSABand.Contains(age, gender) {
		facts.PSA = &entities.ScreeningResult{LastDone: yearsAgo(rng, 1, 3), Result: "discussed with primary care, shared decision"}
	}
	if AAABand.Contains(age, gender) {
		facts.AAA = &entities.ScreeningResult{LastDone: yearsAgo(rng, 1, 5), Result: "one-time ultrasound, no aneurysm"}
	}
	if DEXABand.Contains(age, gender) {
		facts.DEXA = &entities.ScreeningResult{LastDone: yearsAgo(rng, 1, 4), Result: "T-score -1.2, osteopenia"}
	}
	if DiabetesScreeningBand.Contains(age, gender) {
		facts.DiabetesScreening = &entities.ScreeningResult{LastDone: monthsAgo(rng, 1, 12), Result: "HbA1c 5.6%"}
	}
	if LipidPanelBand.Contains(age, gender) {
		facts.LipidPanel = &entities.ScreeningResult{LastDone: monthsAgo(rng, 1, 12), Result: "LDL 128 mg/dL"}
	}
	if HepatitisCBand.Contains(age, gender) {
		facts.HepatitisC = &entities.ScreeningResult{LastDone: "one-time screen", Result: "negative"}
	}
	if HIVBand.Contains(age, gender) {
		facts.HIV = &entities.ScreeningResult{LastDone: yearsAgo(rng, 1, 5), Result: "negative"}
	}
	if ShinglesBand.Contains(age, gender) {
		facts.Vaccines.Shingles = &entities.VaccineRecord{Status: "completed 2-dose series", LastDose: yearsAgo(rng, 1, 5)}
	}
	if PneumoniaBand.Contains(age, gender) {
		facts.Vaccines.Pneumonia = &entities.VaccineRecord{Status: "received", LastDose: yearsAgo(rng, 1, 5)}
	}

	return facts
}

// Included lists the names of the facts present in facts, in table order.
func Included(facts entities.ScreeningFacts) []string {
	names := []string{}
	add := func(present bool, name string) {
		if present {
			names = append(names, name)
		}
	}
	add(facts.Colonoscopy != nil, "colonoscopy")
	add(facts.Mammogram != nil, "mammogram")
	add(facts.PapSmear != nil, "papSmear")
	add(facts.PSA != nil, "psa")
	add(facts.AAA != nil, "aaa")
	add(facts.DEXA != nil, "dexa")
	add(facts.DiabetesScreening != nil, "diabetesScreening")
	add(facts.LipidPanel != nil, "lipidPanel")
	add(facts.HepatitisC != nil, "hepatitisC")
	add(facts.HIV != nil, "hiv")
	add(facts.Vaccines.Shingles != nil, "shingles")
	add(facts.Vaccines.Pneumonia != nil, "pneumonia")
	return names
}

func yearsAgo(rng RandomSource, lo, hi int) string {
	n := between(rng, lo, hi)
	if n == 1 {
		return "1 year ago"
	}
	return fmt.Sprintf("%d years ago", n)
}

func monthsAgo(rng RandomSource, lo, hi int) string {
	n := between(rng, lo, hi)
	if n == 1 {
		return "1 month ago"
	}
	return fmt.Sprintf("%d months ago", n)
}

func between(rng RandomSource, lo, hi int) int {
	return lo + rng.Intn(hi-lo+1)
}

// lockedSource guards a *rand.Rand so one source can serve concurrent requests.
type lockedSource struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func (s *lockedSource) Intn(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Intn(n)
}

// NewRandomSource returns a goroutine-safe source seeded with seed, or with the current
// time when seed is 0.
func NewRandomSource(seed int64) RandomSource {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &lockedSource{rng: rand.New(rand.NewSource(seed))}
}
