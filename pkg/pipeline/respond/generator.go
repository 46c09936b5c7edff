// Package respond turns retrieved passages into a grounded answer with
// citations via the generative gateway.
package respond

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"contactiq-be/internal/constant"
	"contactiq-be/internal/pkg/logger"
	"contactiq-be/pkg/llm"
	"contactiq-be/pkg/pipeline"
	"contactiq-be/pkg/resilience"
)

var citationPattern = regexp.MustCompile(`\[(\d+)\]`)

type Generator struct {
	provider llm.LLMProvider
	breaker  *resilience.Breaker
	retry    resilience.RetryConfig
	logger   logger.ILogger
}

func NewGenerator(provider llm.LLMProvider, breaker *resilience.Breaker, retry resilience.RetryConfig, log logger.ILogger) *Generator {
	if log == nil {
		log = logger.NewNoopLogger()
	}
	return &Generator{
		provider: provider,
		breaker:  breaker,
		retry:    retry,
		logger:   log,
	}
}

// Canned returns the fixed response for intents that never touch the
// knowledge base or the generative gateway.
func (g *Generator) Canned(mode pipeline.Mode, intentName string) (*pipeline.Draft, bool) {
	switch intentName {
	case constant.IntentGreeting:
		return &pipeline.Draft{
			Text:   constant.GreetingResponses[string(mode)],
			Canned: true,
		}, true
	case constant.IntentUnknown:
		return &pipeline.Draft{
			Text:   constant.UnknownGuidanceResponses[string(mode)],
			Canned: true,
		}, true
	default:
		return nil, false
	}
}

// Generate produces a grounded draft. Without usable context it declines
// deterministically instead of asking the model not to fabricate.
func (g *Generator) Generate(ctx context.Context, input pipeline.GenerateInput) (*pipeline.Draft, error) {
	if input.NoContext || input.Retrieval == nil || input.Retrieval.NoMatch || len(input.Retrieval.Passages) == 0 {
		return &pipeline.Draft{
			Text:     constant.DeclineMessage,
			Declined: true,
		}, nil
	}

	messages := g.buildMessages(input)

	var result *llm.Result
	err := resilience.CallThrough(ctx, g.breaker, g.retry, func() error {
		var callErr error
		result, callErr = g.provider.Chat(ctx, messages, llm.WithTemperature(0.4))
		return callErr
	})
	if err != nil {
		g.logger.Error("RESPOND", "Generation call failed", map[string]interface{}{
			"error": err.Error(),
			"mode":  string(input.Mode),
		})
		return nil, fmt.Errorf("%w: %v", pipeline.ErrGenerationUnavailable, err)
	}

	text := strings.TrimSpace(result.Content)
	citations := citedPassages(text, input.Retrieval.Passages)

	return &pipeline.Draft{
		Text:      text,
		Citations: citations,
		Tokens:    result.Usage.TotalTokens,
	}, nil
}

func (g *Generator) buildMessages(input pipeline.GenerateInput) []llm.Message {
	system := constant.ResponderSystemPromptCustomer
	if input.Mode == pipeline.ModeBanker {
		system = constant.ResponderSystemPromptBanker
	}

	var context strings.Builder
	context.WriteString("Context:\n")
	for i, passage := range input.Retrieval.Passages {
		fmt.Fprintf(&context, "[%d] (%s) %s\n\n", i+1, passage.Source, passage.Text)
	}

	messages := []llm.Message{{Role: constant.ChatMessageRoleSystem, Content: system}}
	for _, turn := range input.History {
		if turn.Role == constant.ChatMessageRoleUser || turn.Role == constant.ChatMessageRoleAssistant {
			messages = append(messages, llm.Message{Role: turn.Role, Content: turn.Content})
		}
	}

	messages = append(messages, llm.Message{
		Role:    constant.ChatMessageRoleUser,
		Content: fmt.Sprintf("%sQuestion: %s", context.String(), input.Query),
	})
	return messages
}

// citedPassages maps numbered references in the response back onto the
// retrieved passages, preserving retrieval order and dropping duplicates.
func citedPassages(text string, passages []pipeline.Passage) []pipeline.Passage {
	matches := citationPattern.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil
	}

	seen := make(map[int]bool)
	for _, match := range matches {
		n, err := strconv.Atoi(match[1])
		if err != nil || n < 1 || n > len(passages) {
			continue
		}
		seen[n-1] = true
	}

	var cited []pipeline.Passage
	for i, passage := range passages {
		if seen[i] {
			cited = append(cited, passage)
		}
	}
	return cited
}
