package anachronism

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
)

// SnippetsPerQuery is how many results are requested per query; only the
// first one is used as evidence.
const SnippetsPerQuery = 3

// NoResults stands in for the snippet of a query that found nothing.
const NoResults = "(no results)"

// Searcher returns short text snippets for a free-text query.
type Searcher interface {
	Search(ctx context.Context, query string, maxResults int) ([]string, error)
}

// SearchSnippet is one executed query and its top result.
type SearchSnippet struct {
	Query   string `json:"query"`
	Snippet string `json:"snippet"`
}

func (s SearchSnippet) String() string {
	return fmt.Sprintf("Query: %s\nTop snippet: %s", s.Query, s.Snippet)
}

// FormatEvidence renders snippets as blank-line separated blocks.
func FormatEvidence(snippets []SearchSnippet) string {
	blocks := make([]string, len(snippets))
	for i, s := range snippets {
		blocks[i] = s.String()
	}
	return strings.Join(blocks, "\n\n")
}

var plainWordPattern = regexp.MustCompile(`^[A-Z][a-z]+$`)

// BuildQuery turns a term into a search query. Capitalised words are asked
// about as places; everything else as a technology or garment.
func BuildQuery(term string, anchor DateAnchor) string {
	if plainWordPattern.MatchString(term) {
		return strings.TrimSpace(fmt.Sprintf("Was %s a settlement or did it exist in %s", term, anchor))
	}
	return strings.TrimSpace(fmt.Sprintf("%s historical use %s", term, anchor))
}

// ContextQuery is issued when a narrative yields no terms at all.
func ContextQuery(anchor DateAnchor) string {
	return strings.Join(strings.Fields(fmt.Sprintf("Historical context %s clothing armor technology", anchor)), " ")
}

// EvidenceGatherer runs one search per term.
type EvidenceGatherer struct {
	searcher Searcher
	logger   *slog.Logger
}

// NewEvidenceGatherer creates a gatherer. A nil searcher is treated as a
// search service that never finds anything.
func NewEvidenceGatherer(searcher Searcher, logger *slog.Logger) *EvidenceGatherer {
	if logger == nil {
		logger = slog.Default()
	}
	return &EvidenceGatherer{searcher: searcher, logger: logger}
}

// Gather searches for up to MaxTerms terms, in order, and returns one
// snippet per executed query. Every query is reported, including those that
// failed or found nothing.
func (g *EvidenceGatherer) Gather(ctx context.Context, terms []string, anchor DateAnchor) []SearchSnippet {
	if len(terms) > MaxTerms {
		terms = terms[:MaxTerms]
	}

	queries := make([]string, 0, len(terms))
	for _, t := range terms {
		queries = append(queries, BuildQuery(t, anchor))
	}
	if len(queries) == 0 {
		queries = append(queries, ContextQuery(anchor))
	}

	snippets := make([]SearchSnippet, 0, len(queries))
	for _, q := range queries {
		snippets = append(snippets, SearchSnippet{Query: q, Snippet: g.topSnippet(ctx, q)})
	}
	return snippets
}

func (g *EvidenceGatherer) topSnippet(ctx context.Context, query string) string {
	if g.searcher == nil {
		return NoResults
	}
	results, err := g.searcher.Search(ctx, query, SnippetsPerQuery)
	if err != nil {
		g.logger.Warn("Search failed", "query", query, "error", err)
		return NoResults
	}
	for _, r := range results {
		if r != "" {
			return r
		}
	}
	return NoResults
}

// Queries lists the executed queries of a gather in order.
func Queries(snippets []SearchSnippet) []string {
	out := make([]string, len(snippets))
	for i, s := range snippets {
		out[i] = s.Query
	}
	return out
}
