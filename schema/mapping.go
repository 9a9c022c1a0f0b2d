package schema

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// ============================================================================
// MAPPING SUGGESTION + VALIDATION
// ============================================================================
// SuggestMapping guesses roles from header substrings. It is opt-in: the
// CLI uses it for `discover` and for `laureates -suggest`; otherwise the
// configured mapping (DefaultLaureateMapping when unset) applies. Headers
// are compared accent-folded and lower-cased, so "Année" matches "annee".
// ============================================================================

// roleCandidates lists, per role, the folded substrings that identify it.
// Roles are resolved in this order and a header serves one role at most.
var roleCandidates = []struct {
	role  string
	terms []string
}{
	{"siret", []string{"siret"}},
	{"siren", []string{"siren"}},
	{"previous_award", []string{"deja laureat", "previous award"}},
	{"grand_prix", []string{"grand-prix", "grand prix"}},
	{"candidature", []string{"type de candidature", "candidature"}},
	{"year", []string{"year", "annee", "date"}},
	{"region", []string{"region", "territoire"}},
	{"gender", []string{"genre", "gender", "sexe"}},
	{"domain", []string{"categorie", "category", "domaine", "domain", "secteur"}},
	{"jury", []string{"jury"}},
	{"project", []string{"projet", "project"}},
}

// SuggestMapping maps each role to the first header containing one of its
// candidate substrings. Unmatched roles stay empty.
func SuggestMapping(headers []string) FieldMapping {
	var m FieldMapping
	used := make(map[int]bool, len(headers))
	folded := make([]string, len(headers))
	for i, h := range headers {
		folded[i] = Fold(h)
	}

	for _, rc := range roleCandidates {
		for i, h := range folded {
			if used[i] || !containsAny(h, rc.terms) {
				continue
			}
			m.Set(rc.role, headers[i])
			used[i] = true
			break
		}
	}
	return m
}

func containsAny(s string, terms []string) bool {
	for _, t := range terms {
		if strings.Contains(s, t) {
			return true
		}
	}
	return false
}

// Fold lower-cases s and strips diacritics: "Déjà Lauréat" → "deja laureat".
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(strings.TrimSpace(out))
}

// ============================================================================
// VALIDATION
// ============================================================================

// MismatchError lists mapped roles whose column is not in the header.
// Callers usually log it and continue: the affected aggregations then
// count every record as unspecified.
type MismatchError struct {
	Path    string
	Missing []Role
}

func (e *MismatchError) Error() string {
	parts := make([]string, len(e.Missing))
	for i, r := range e.Missing {
		parts[i] = fmt.Sprintf("%s (%q)", r.Name, r.Field)
	}
	if e.Path == "" {
		return "fields not in header: " + strings.Join(parts, ", ")
	}
	return fmt.Sprintf("%s: fields not in header: %s", e.Path, strings.Join(parts, ", "))
}

// Validate checks that every mapped role names a header column. Unmapped
// roles are ignored. It returns nil or a *MismatchError.
func Validate(path string, header []string, roles []Role) error {
	present := make(map[string]bool, len(header))
	for _, h := range header {
		present[h] = true
	}
	var missing []Role
	for _, r := range roles {
		if r.Field != "" && !present[r.Field] {
			missing = append(missing, r)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return &MismatchError{Path: path, Missing: missing}
}
