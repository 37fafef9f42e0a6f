package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOpenAIProvider(t *testing.T) {
	provider := NewOpenAIProvider("test-api-key")
	require.NotNil(t, provider)
	assert.Equal(t, "openai", provider.Name())
	assert.NotNil(t, provider.client)
}

func TestOpenAIProvider_BuildRequestParams(t *testing.T) {
	provider := NewOpenAIProvider("test-key")

	tests := []struct {
		name    string
		request *GenerationRequest
		checks  func(t *testing.T, provider *OpenAIProvider, request *GenerationRequest)
	}{
		{
			name: "basic request with user message",
			request: &GenerationRequest{
				Model:         "gpt-5-mini",
				ReasoningMode: "medium",
				SystemPrompt:  "test system prompt",
				InputArray: []map[string]any{
					{"role": "user", "content": "test content"},
				},
			},
			checks: func(t *testing.T, provider *OpenAIProvider, request *GenerationRequest) {
				t.Helper()
				params := provider.buildRequestParams(request)
				assert.Equal(t, "gpt-5-mini", params.Model)
				assert.Equal(t, "test system prompt", params.Instructions.Value)
			},
		},
		{
			name: "request with developer role",
			request: &GenerationRequest{
				Model:         "gpt-5-mini",
				ReasoningMode: "low",
				SystemPrompt:  "test prompt",
				InputArray: []map[string]any{
					{"role": "developer", "content": "dev message"},
				},
			},
			checks: func(t *testing.T, provider *OpenAIProvider, request *GenerationRequest) {
				t.Helper()
				params := provider.buildRequestParams(request)
				assert.Equal(t, "gpt-5-mini", params.Model)
			},
		},
		{
			name: "request with output schema",
			request: &GenerationRequest{
				Model:        "gpt-4.1-mini",
				SystemPrompt: "test prompt",
				InputArray: []map[string]any{
					{"role": "user", "content": "generate notes"},
				},
				OutputSchema: &OutputSchema{
					Name:   "note_list",
					Schema: map[string]any{"type": "object"},
				},
			},
			checks: func(t *testing.T, provider *OpenAIProvider, request *GenerationRequest) {
				t.Helper()
				params := provider.buildRequestParams(request)
				require.NotNil(t, params.Text.Format.OfJSONSchema)
				assert.Equal(t, "note_list", params.Text.Format.OfJSONSchema.Name)
			},
		},
		{
			name: "invalid input items are skipped",
			request: &GenerationRequest{
				Model:        "gpt-5",
				SystemPrompt: "test",
				InputArray: []map[string]any{
					{"role": "user"},
					{"content": "no role"},
					{"role": "user", "content": "valid"},
				},
			},
			checks: func(t *testing.T, provider *OpenAIProvider, request *GenerationRequest) {
				t.Helper()
				params := provider.buildRequestParams(request)
				assert.Len(t, params.Input.OfInputItemList, 1)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.checks(t, provider, tt.request)
		})
	}
}

func TestSupportsReasoning(t *testing.T) {
	assert.True(t, supportsReasoning("gpt-5"))
	assert.True(t, supportsReasoning("gpt-5-mini"))
	assert.False(t, supportsReasoning("gpt-4.1-mini"))
	assert.False(t, supportsReasoning("gemini-2.5-flash"))
}

func TestReasoningEffort(t *testing.T) {
	assert.Equal(t, "none", string(reasoningEffort("none")))
	assert.Equal(t, "low", string(reasoningEffort("low")))
	assert.Equal(t, "low", string(reasoningEffort("minimal")))
	assert.Equal(t, "medium", string(reasoningEffort("medium")))
	assert.Equal(t, "high", string(reasoningEffort("high")))
	assert.Equal(t, "low", string(reasoningEffort("")))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abc...", truncate("abcdefgh", 3))
}
