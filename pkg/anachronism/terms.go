package anachronism

import (
	"regexp"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// MaxTerms caps how many candidate terms are turned into searches.
const MaxTerms = 8

var properNounPattern = regexp.MustCompile(`\b([A-Z][a-z]{3,})\b`)

// TermSet is a deduplicated set of candidate terms.
type TermSet map[string]struct{}

func (s TermSet) add(term string) { s[term] = struct{}{} }

// Contains reports whether term was extracted.
func (s TermSet) Contains(term string) bool {
	_, ok := s[term]
	return ok
}

// Terms returns the set sorted, so callers acting on the first MaxTerms get
// the same ones every time.
func (s TermSet) Terms() []string {
	out := make([]string, 0, len(s))
	for t := range s {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// lower folds text the same way for extraction and the fallback check.
func lower(text string) string {
	return cases.Lower(language.Und).String(text)
}

// ExtractTerms finds the words in a narrative worth fact-checking: lexicon
// keywords, weapon and clothing words, and capitalised words that may be
// place or person names.
func ExtractTerms(text string) TermSet {
	folded := lower(text)
	terms := make(TermSet)

	for _, th := range thresholds {
		if strings.Contains(folded, th.Keyword) {
			terms.add(th.Keyword)
		}
	}
	for _, kw := range extraKeywords {
		if strings.Contains(folded, kw) {
			terms.add(kw)
		}
	}

	for _, m := range properNounPattern.FindAllStringSubmatch(text, -1) {
		word := m[1]
		if _, stop := stopWords[lower(word)]; stop {
			continue
		}
		terms.add(word)
	}
	return terms
}
