package intent

import (
	"context"
	"errors"
	"testing"
	"time"

	"contactiq-be/pkg/llm"
	"contactiq-be/pkg/pipeline"
	"contactiq-be/pkg/resilience"

	"github.com/stretchr/testify/assert"
)

type fakeLLM struct {
	content  string
	err      error
	messages []llm.Message
}

func (f *fakeLLM) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (*llm.Result, error) {
	f.messages = history
	if f.err != nil {
		return nil, f.err
	}
	return &llm.Result{Content: f.content}, nil
}

func (f *fakeLLM) Generate(ctx context.Context, prompt string, options ...llm.Option) (*llm.Result, error) {
	return f.Chat(ctx, []llm.Message{{Role: "user", Content: prompt}}, options...)
}

func newTestClassifier(provider *fakeLLM) *Classifier {
	breaker := resilience.NewBreaker("classification", resilience.DefaultBreakerConfig())
	retry := resilience.RetryConfig{MaxAttempts: 1, InitialInterval: time.Millisecond, MaxInterval: time.Millisecond}
	return NewClassifier(provider, breaker, retry, nil)
}

func TestClassifyParsesLabel(t *testing.T) {
	provider := &fakeLLM{
		content: `{"intent_name": "fee_inquiry", "intent_category": "automatable", "classification_reason": "asks about fees"}`,
	}
	classifier := newTestClassifier(provider)

	result, err := classifier.Classify(context.Background(), pipeline.ModeCustomer, "why was I charged $5?", nil)
	assert.NoError(t, err)
	assert.Equal(t, "fee_inquiry", result.IntentName)
	assert.Equal(t, pipeline.CategoryAutomatable, result.Category)
	assert.Equal(t, "asks about fees", result.Reason)
}

func TestClassifyStripsCodeFences(t *testing.T) {
	provider := &fakeLLM{
		content: "```json\n{\"intent_name\": \"account_balance\", \"intent_category\": \"sensitive\", \"classification_reason\": \"balance check\"}\n```",
	}
	classifier := newTestClassifier(provider)

	result, err := classifier.Classify(context.Background(), pipeline.ModeCustomer, "what's my balance?", nil)
	assert.NoError(t, err)
	assert.Equal(t, "account_balance", result.IntentName)
	assert.Equal(t, pipeline.CategorySensitive, result.Category)
}

func TestClassifyTaxonomyIsAuthoritative(t *testing.T) {
	// The model asserts automatable but the taxonomy says human_only.
	provider := &fakeLLM{
		content: `{"intent_name": "fraud_alert", "intent_category": "automatable", "classification_reason": "report"}`,
	}
	classifier := newTestClassifier(provider)

	result, err := classifier.Classify(context.Background(), pipeline.ModeCustomer, "someone stole my card", nil)
	assert.NoError(t, err)
	assert.Equal(t, "fraud_alert", result.IntentName)
	assert.Equal(t, pipeline.CategoryHumanOnly, result.Category)
}

func TestClassifyOutOfTaxonomyCollapsesToUnknown(t *testing.T) {
	provider := &fakeLLM{
		content: `{"intent_name": "weather_forecast", "intent_category": "automatable", "classification_reason": "?"}`,
	}
	classifier := newTestClassifier(provider)

	result, err := classifier.Classify(context.Background(), pipeline.ModeCustomer, "will it rain?", nil)
	assert.NoError(t, err)
	assert.Equal(t, "unknown", result.IntentName)
	assert.Equal(t, pipeline.CategoryAutomatable, result.Category)
}

func TestClassifyBankerTaxonomy(t *testing.T) {
	provider := &fakeLLM{
		content: `{"intent_name": "customer_specific_query", "intent_category": "sensitive", "classification_reason": "names a customer"}`,
	}
	classifier := newTestClassifier(provider)

	result, err := classifier.Classify(context.Background(), pipeline.ModeBanker, "can Mrs Smith get this waived?", nil)
	assert.NoError(t, err)
	assert.Equal(t, "customer_specific_query", result.IntentName)
	assert.Equal(t, pipeline.CategorySensitive, result.Category)
}

func TestClassifyGatewayFailure(t *testing.T) {
	provider := &fakeLLM{err: errors.New("503")}
	classifier := newTestClassifier(provider)

	_, err := classifier.Classify(context.Background(), pipeline.ModeCustomer, "hello", nil)
	assert.ErrorIs(t, err, pipeline.ErrClassificationUnavailable)
}

func TestClassifyUnparseableLabel(t *testing.T) {
	provider := &fakeLLM{content: "I think this is a fee question."}
	classifier := newTestClassifier(provider)

	_, err := classifier.Classify(context.Background(), pipeline.ModeCustomer, "why the fee?", nil)
	assert.ErrorIs(t, err, pipeline.ErrClassificationUnavailable)
}

func TestClassifyHistoryWindow(t *testing.T) {
	provider := &fakeLLM{
		content: `{"intent_name": "fee_inquiry", "intent_category": "automatable", "classification_reason": "follow-up"}`,
	}
	classifier := newTestClassifier(provider)

	history := make([]pipeline.Turn, 0, 14)
	for i := 0; i < 7; i++ {
		history = append(history,
			pipeline.Turn{Role: "user", Content: "q"},
			pipeline.Turn{Role: "assistant", Content: "a"},
		)
	}

	_, err := classifier.Classify(context.Background(), pipeline.ModeCustomer, "and that one?", history)
	assert.NoError(t, err)

	// system + capped history + query
	assert.Len(t, provider.messages, 1+5+1)
	assert.Equal(t, "system", provider.messages[0].Role)
	assert.Contains(t, provider.messages[len(provider.messages)-1].Content, "and that one?")
}
