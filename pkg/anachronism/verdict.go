package anachronism

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"
)

// ErrNotObject is returned for a model response that is valid JSON but not an
// object, such as null, an array or a bare scalar.
var ErrNotObject = errors.New("verdict is not a JSON object")

// HeuristicReason is the reason given when the lexicon fallback intervenes.
const HeuristicReason = "Found terms in narrative that are likely anachronistic for the estimated date."

// Verdict is the validator's decision about a narrative. Slices are never nil.
type Verdict struct {
	Intervene   bool     `json:"intervene"`
	Suggestions []string `json:"suggestions"`
	Reason      string   `json:"reason"`
	Queries     []string `json:"queries"`
}

// NoIntervention is the verdict for a narrative that can stay as written.
func NoIntervention(queries []string) Verdict {
	if queries == nil {
		queries = []string{}
	}
	return Verdict{Suggestions: []string{}, Queries: queries}
}

// partialVerdict accepts a model response with any of the keys missing.
type partialVerdict struct {
	Intervene   *bool     `json:"intervene"`
	Suggestions *[]string `json:"suggestions"`
	Reason      *string   `json:"reason"`
	Queries     *[]string `json:"queries"`
}

var (
	openingFence = regexp.MustCompile("^```(?:json)?\\s*")
	closingFence = regexp.MustCompile("\\s*```$")
)

// stripFences removes a Markdown code fence wrapped around a response.
func stripFences(raw string) string {
	cleaned := strings.TrimSpace(raw)
	if strings.HasPrefix(cleaned, "```") {
		cleaned = openingFence.ReplaceAllString(cleaned, "")
		cleaned = closingFence.ReplaceAllString(cleaned, "")
	}
	return cleaned
}

// ParseVerdict decodes a model response, filling any missing key with its
// default. executed stands in for a missing queries list. Anything other than
// a JSON object is rejected.
func ParseVerdict(raw string, executed []string) (Verdict, error) {
	payload := []byte(stripFences(raw))

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(payload, &obj); err != nil {
		return Verdict{}, errors.Join(ErrNotObject, err)
	}
	if obj == nil {
		return Verdict{}, ErrNotObject
	}

	var p partialVerdict
	if err := json.Unmarshal(payload, &p); err != nil {
		return Verdict{}, err
	}

	v := NoIntervention(executed)
	if p.Intervene != nil {
		v.Intervene = *p.Intervene
	}
	if p.Suggestions != nil && *p.Suggestions != nil {
		v.Suggestions = *p.Suggestions
	}
	if p.Reason != nil {
		v.Reason = *p.Reason
	}
	if p.Queries != nil && *p.Queries != nil {
		v.Queries = *p.Queries
	}
	return v, nil
}

// Heuristic checks the narrative against the static lexicon. Without a
// known date anchor nothing can be flagged. queries are reported unchanged.
func Heuristic(narrative string, anchor DateAnchor, queries []string) Verdict {
	if !anchor.Known {
		return NoIntervention(queries)
	}

	folded := lower(narrative)
	var suggestions []string
	for _, th := range thresholds {
		if th.Year <= AlwaysPlausible || !strings.Contains(folded, th.Keyword) {
			continue
		}
		if anchor.Year < th.Year {
			suggestions = append(suggestions, suggestion(th.Keyword))
		}
	}

	if len(suggestions) == 0 {
		return NoIntervention(queries)
	}
	v := NoIntervention(queries)
	v.Intervene = true
	v.Suggestions = suggestions
	v.Reason = HeuristicReason
	return v
}

func suggestion(keyword string) string {
	alt, ok := alternatives[keyword]
	if !ok {
		alt = "Consider avoiding '" + keyword + "' or reword to an earlier-appropriate equivalent."
	}
	return "Replace or reword '" + keyword + "': " + alt
}
