package services

import "context"

// HelperCompleter adapts an LLMService to plain prompt-pair completion on
// the helper model at temperature zero.
type HelperCompleter struct {
	llm LLMService
}

func NewHelperCompleter(llm LLMService) *HelperCompleter {
	return &HelperCompleter{llm: llm}
}

func (h *HelperCompleter) Complete(ctx context.Context, systemPrompt, userPrompt string, maxTokens int) (string, error) {
	return h.llm.Complete(ctx, CompletionRequest{
		SystemPrompt: systemPrompt,
		UserPrompt:   userPrompt,
		MaxTokens:    maxTokens,
		Temperature:  0,
		Tier:         ModelHelper,
	})
}
