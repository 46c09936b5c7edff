// Package intent labels queries with an intent name and handling category
// using the generative gateway.
package intent

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"contactiq-be/internal/constant"
	"contactiq-be/internal/pkg/logger"
	"contactiq-be/pkg/llm"
	"contactiq-be/pkg/pipeline"
	"contactiq-be/pkg/resilience"
)

const historyWindow = 5

type Classifier struct {
	provider llm.LLMProvider
	breaker  *resilience.Breaker
	retry    resilience.RetryConfig
	logger   logger.ILogger
}

func NewClassifier(provider llm.LLMProvider, breaker *resilience.Breaker, retry resilience.RetryConfig, log logger.ILogger) *Classifier {
	if log == nil {
		log = logger.NewNoopLogger()
	}
	return &Classifier{
		provider: provider,
		breaker:  breaker,
		retry:    retry,
		logger:   log,
	}
}

type classifierResponse struct {
	IntentName           string `json:"intent_name"`
	IntentCategory       string `json:"intent_category"`
	ClassificationReason string `json:"classification_reason"`
}

// Classify makes exactly one logical classification call per interaction.
// Any gateway or parse failure is surfaced as ClassificationUnavailable so
// the orchestrator can fall back to the conservative category.
func (c *Classifier) Classify(ctx context.Context, mode pipeline.Mode, query string, history []pipeline.Turn) (*pipeline.Classification, error) {
	messages := c.buildMessages(mode, query, history)

	var result *llm.Result
	err := resilience.CallThrough(ctx, c.breaker, c.retry, func() error {
		var callErr error
		result, callErr = c.provider.Chat(ctx, messages,
			llm.WithTemperature(0.3),
			llm.WithJSONMode(),
		)
		return callErr
	})
	if err != nil {
		c.logger.Error("INTENT", "Classification call failed", map[string]interface{}{
			"error": err.Error(),
			"mode":  string(mode),
		})
		return nil, fmt.Errorf("%w: %v", pipeline.ErrClassificationUnavailable, err)
	}

	parsed, err := parseClassification(result.Content)
	if err != nil {
		c.logger.Error("INTENT", "Unparseable classification label", map[string]interface{}{
			"error": err.Error(),
			"raw":   truncate(result.Content, 200),
		})
		return nil, fmt.Errorf("%w: %v", pipeline.ErrClassificationUnavailable, err)
	}

	// The taxonomy is authoritative for categories. A name outside the
	// taxonomy collapses to "unknown" rather than trusting a hallucinated
	// label.
	intentName := strings.ToLower(strings.TrimSpace(parsed.IntentName))
	category, known := constant.IntentCategory(mode, intentName)
	if !known {
		c.logger.Warn("INTENT", "Model returned intent outside taxonomy", map[string]interface{}{
			"intent_name": intentName,
			"mode":        string(mode),
		})
		intentName = constant.IntentUnknown
	}

	return &pipeline.Classification{
		IntentName: intentName,
		Category:   category,
		Reason:     parsed.ClassificationReason,
	}, nil
}

func (c *Classifier) buildMessages(mode pipeline.Mode, query string, history []pipeline.Turn) []llm.Message {
	taxonomy := constant.IntentTaxonomy(mode)

	names := make([]string, 0, len(taxonomy))
	for name := range taxonomy {
		names = append(names, name)
	}
	sort.Strings(names)

	var intentList strings.Builder
	for _, name := range names {
		info := taxonomy[name]
		fmt.Fprintf(&intentList, "- %s (%s): %s\n", name, info.Category, info.Description)
	}

	system := fmt.Sprintf(constant.ClassifierSystemPromptTemplate, mode, strings.TrimRight(intentList.String(), "\n"))

	messages := []llm.Message{{Role: constant.ChatMessageRoleSystem, Content: system}}

	if len(history) > historyWindow {
		history = history[len(history)-historyWindow:]
	}
	for _, turn := range history {
		if turn.Role == constant.ChatMessageRoleUser || turn.Role == constant.ChatMessageRoleAssistant {
			messages = append(messages, llm.Message{Role: turn.Role, Content: turn.Content})
		}
	}

	messages = append(messages, llm.Message{
		Role:    constant.ChatMessageRoleUser,
		Content: fmt.Sprintf("Classify this query, considering the conversation context above: %s", query),
	})
	return messages
}

func parseClassification(raw string) (*classifierResponse, error) {
	cleaned := stripCodeFences(raw)

	var parsed classifierResponse
	if err := json.Unmarshal([]byte(cleaned), &parsed); err != nil {
		return nil, fmt.Errorf("decode classification: %w", err)
	}
	if parsed.IntentName == "" {
		return nil, fmt.Errorf("classification missing intent_name")
	}
	return &parsed, nil
}

// stripCodeFences removes a markdown code fence wrapper some models emit
// even in JSON mode.
func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	return strings.TrimSpace(s)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
