package indicator

import (
	"fmt"
	"strings"
)

// Prompt is the system/user pair sent to the classifier for one chunk.
// User holds a single %s verb for the chunk transcript.
type Prompt struct {
	System string
	User   string
}

// SafetySystemPrompt mirrors the threat scale published to the game UI.
const SafetySystemPrompt = `You are a safety assessment agent for a role-playing game. Your task is to analyze the last few turns of a conversation between a player (user) and a game master (assistant) to determine the current threat level.

The threat levels are defined as follows:
- 0 (Peaceful): The situation is calm, safe, and non-threatening.
- 1 (Cautious): There is a hint of uncertainty, mystery, or potential for future trouble. No immediate danger.
- 2 (Wary): The situation is tense. There are signs of possible danger, social conflict, or a direct but non-violent threat.
- 3 (Imminent Danger): A direct threat to the player's safety is present and likely to occur soon.
- 4 (Critical): The player is in immediate, life-threatening danger. An attack is happening or is about to happen.
- 5 (Unknown): The conversation gives no basis for judging the threat level.

Respond with only the integer that best represents the threat level.`

const SafetyUserPrompt = `Based on the most recent messages of the conversation, determine the threat level.

Conversation History:
%s

Respond with a single integer (0-5).`

// categoryPromptTemplate is shared by the category-style signals.
// Verbs: subject, category list, unknown guidance.
const categoryPromptTemplate = `You are a world-state classifier for a role-playing game. You read an excerpt of a conversation between a player (user) and a game master (assistant) and decide the %s the player currently perceives.

Categories:
%s

%s
Respond with only the integer code of the category. Never explain.`

const categoryUserPrompt = `Conversation excerpt:
%s

Respond with a single integer.`

var prompts = map[Signal]Prompt{
	SignalSafety: {
		System: SafetySystemPrompt,
		User:   SafetyUserPrompt,
	},
	SignalTimeOfDay: categoryPrompt(SignalTimeOfDay, "time of day",
		"If the excerpt gives no clue about the time of day, answer 13."),
	SignalWeather: categoryPrompt(SignalWeather, "weather and visibility",
		"If the player is indoors, underground, or in darkness, answer 5."),
	SignalTerrain: categoryPrompt(SignalTerrain, "terrain or location type",
		"If the location cannot be determined or is obscured, answer 19."),
	SignalTemperature: categoryPrompt(SignalTemperature, "ambient temperature",
		"If the excerpt says nothing about heat, cold, or climate, answer 8."),
}

func categoryPrompt(sig Signal, subject, unknownRule string) Prompt {
	var b strings.Builder
	for code, label := range labels[sig] {
		fmt.Fprintf(&b, "- %d: %s\n", code, label)
	}
	return Prompt{
		System: fmt.Sprintf(categoryPromptTemplate, subject, strings.TrimRight(b.String(), "\n"), unknownRule),
		User:   categoryUserPrompt,
	}
}

// PromptFor returns the classifier prompt pair of a signal.
func PromptFor(sig Signal) Prompt {
	return prompts[sig]
}
