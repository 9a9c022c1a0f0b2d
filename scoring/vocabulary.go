package scoring

import (
	"sort"
	"strings"
)

// ============================================================================
// VOCABULARY — Immutable keyword set used by the scorer
// ============================================================================
// Terms are grouped by theme for readability only. Matching treats the
// vocabulary as one flat set: a term listed under two themes counts once.
// ============================================================================

// Theme is a named group of vocabulary terms.
type Theme struct {
	Name  string
	Terms []string
}

// Vocabulary is a sorted, de-duplicated set of lower-cased terms.
// The zero value is an empty vocabulary.
type Vocabulary struct {
	terms []string
}

// NewVocabulary lower-cases and trims each term, drops empties and duplicates.
func NewVocabulary(terms ...string) Vocabulary {
	seen := make(map[string]bool, len(terms))
	out := make([]string, 0, len(terms))
	for _, t := range terms {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	sort.Strings(out)
	return Vocabulary{terms: out}
}

// FromThemes flattens themed term lists into one vocabulary.
func FromThemes(themes ...Theme) Vocabulary {
	var all []string
	for _, th := range themes {
		all = append(all, th.Terms...)
	}
	return NewVocabulary(all...)
}

// Len returns the number of distinct terms.
func (v Vocabulary) Len() int { return len(v.terms) }

// Terms returns a copy of the terms in ascending order.
func (v Vocabulary) Terms() []string {
	out := make([]string, len(v.terms))
	copy(out, v.terms)
	return out
}

// Contains reports whether term (after normalisation) is in the vocabulary.
func (v Vocabulary) Contains(term string) bool {
	term = strings.ToLower(strings.TrimSpace(term))
	i := sort.SearchStrings(v.terms, term)
	return i < len(v.terms) && v.terms[i] == term
}

// With returns a new vocabulary holding v's terms plus extra.
func (v Vocabulary) With(extra ...string) Vocabulary {
	return NewVocabulary(append(v.Terms(), extra...)...)
}

// DefaultVocabulary returns the French tech and business vocabulary.
// Each call builds a fresh value.
func DefaultVocabulary() Vocabulary {
	return FromThemes(DefaultThemes()...)
}

// DefaultThemes returns the themed term lists behind DefaultVocabulary.
// Accented and unaccented spellings are both listed because published
// catalogs use either.
func DefaultThemes() []Theme {
	return []Theme{
		{Name: "business", Terms: []string{
			"entreprise", "entreprises", "startup", "start-up", "pme", "tpe", "business",
			"entrepreneuriat", "entrepreneur", "commerce", "commercial",
		}},
		{Name: "tech", Terms: []string{
			"innovation", "innovant", "technologie", "tech", "digital", "numerique",
			"numérique", "transformation", "r&d", "recherche", "développement",
			"ia", "intelligence-artificielle", "data", "données", "cybersecurite",
			"cybersécurité", "blockchain", "cloud", "saas",
		}},
		{Name: "finance", Terms: []string{
			"investissement", "financement", "capital", "venture", "levee-de-fonds",
			"levée", "subvention", "aide", "credit", "crédit", "financier",
			"economie", "économie", "economique", "économique", "bourse",
		}},
		{Name: "employment", Terms: []string{
			"emploi", "travail", "salaire", "competence", "compétence", "formation",
			"qualification", "recrutement", "cadre", "cadres", "rh",
		}},
		{Name: "sectors", Terms: []string{
			"industrie", "industriel", "production", "manufacture", "usine",
			"energie", "énergie", "cleantech", "greentech", "biotech", "fintech",
			"healthtech", "edtech", "agritech", "proptech",
		}},
		{Name: "infrastructure", Terms: []string{
			"infrastructure", "reseau", "réseau", "telecommunication",
			"télécommunication", "internet", "broadband", "fibre", "haut-debit",
			"connectivite", "connectivité",
		}},
		{Name: "policy", Terms: []string{
			"reglementation", "réglementation", "politique", "loi", "legislation",
			"législation", "norme", "standard", "directive", "reforme", "réforme",
		}},
		{Name: "markets", Terms: []string{
			"societe", "société", "marche", "marché", "secteur", "activite", "activité",
			"commerce", "export", "import", "international", "competitivite",
			"compétitivité", "productivite", "productivité",
		}},
		{Name: "ip", Terms: []string{
			"brevet", "propriete-intellectuelle", "propriété", "marque", "copyright",
		}},
		{Name: "statistics", Terms: []string{
			"statistique", "indicateur", "performance", "croissance", "chiffre-affaires",
			"ca", "resultat", "résultat", "benefice", "bénéfice",
		}},
		{Name: "registries", Terms: []string{
			"sirene", "siret", "siren", "rcs", "registre", "repertoire", "répertoire",
			"bodacc", "inpi",
		}},
		{Name: "geo-economic", Terms: []string{
			"zone-franche", "zone-economique", "économique", "cluster", "pole", "pôle",
			"technopole", "incubateur", "accelerateur", "accélérateur", "pepiniere",
			"pépinière", "fab-lab", "coworking",
		}},
	}
}
