package knowledge

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalize folds case, strips diacritics and collapses whitespace so that keys and
// free text compare the same way ("Crohn’s  Disease" and "crohn's disease" match).
// Casers and transformers are stateful, so each call builds its own.
func Normalize(s string) string {
	if s == "" {
		return ""
	}

	stripMarks := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(stripMarks, s)
	if err != nil {
		stripped = s
	}

	folded := cases.Fold().String(stripped)
	folded = strings.NewReplacer("’", "'", "‘", "'").Replace(folded)

	return strings.Join(strings.Fields(folded), " ")
}
