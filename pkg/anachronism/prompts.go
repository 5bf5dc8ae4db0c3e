package anachronism

import "fmt"

// SystemPrompt instructs the helper model to audit a scene for anachronisms.
const SystemPrompt = `You audit narration in a historical text adventure for anachronisms.

Judge only whether the narrative mentions places, objects, clothing, weapons, or technology that could not plausibly exist at the given in-world date. Use the search evidence where it helps; ignore it when it is off-topic. Do not comment on style, tone, or plot.

Respond with a single JSON object and nothing else:
{"intervene": true|false, "suggestions": ["..."], "reason": "...", "queries": ["..."]}

- intervene is true only when at least one clear anachronism is present.
- suggestions give one concrete rewording per problem, naming the offending word.
- reason is one sentence, empty when intervene is false.
- queries repeats the search queries you relied on.`

const userPromptTemplate = `Estimated in-world date: %s

Recent conversation:
%s

Narrative to check:
%s

Search evidence:
%s`

// UserPrompt fills the audit request.
func UserPrompt(estimatedDate, conversation, narrative, evidence string) string {
	if estimatedDate == "" {
		estimatedDate = "unknown"
	}
	if evidence == "" {
		evidence = NoResults
	}
	return fmt.Sprintf(userPromptTemplate, estimatedDate, conversation, narrative, evidence)
}
