package observability

import (
	"github.com/openai/openai-go/responses"
)

// Pricing constants
const (
	tokensPerKilo = 1000.0

	// GPT-5 pricing
	gpt5InputPrice  = 0.00125
	gpt5OutputPrice = 0.01

	// GPT-5-mini pricing
	gpt5MiniInputPrice  = 0.00025
	gpt5MiniOutputPrice = 0.002

	// GPT-5-nano pricing
	gpt5NanoInputPrice  = 0.00005
	gpt5NanoOutputPrice = 0.0004
)

// ModelPricing contains pricing information per 1K tokens
type ModelPricing struct {
	InputPricePer1K  float64 // Price per 1K input tokens in USD
	OutputPricePer1K float64 // Price per 1K output tokens in USD
}

// PricingTable contains pricing for all OpenAI models we route to
var PricingTable = map[string]ModelPricing{
	"gpt-5": {
		InputPricePer1K:  gpt5InputPrice,
		OutputPricePer1K: gpt5OutputPrice,
	},
	"gpt-5-mini": {
		InputPricePer1K:  gpt5MiniInputPrice,
		OutputPricePer1K: gpt5MiniOutputPrice,
	},
	"gpt-5-nano": {
		InputPricePer1K:  gpt5NanoInputPrice,
		OutputPricePer1K: gpt5NanoOutputPrice,
	},
}

// CalculateOpenAICost calculates the cost in USD for an OpenAI API call
func CalculateOpenAICost(model string, usage responses.ResponseUsage) float64 {
	pricing, exists := PricingTable[model]
	if !exists {
		// Default to GPT-5-mini pricing if model not found
		pricing = PricingTable["gpt-5-mini"]
	}

	inputCost := (float64(usage.InputTokens) / tokensPerKilo) * pricing.InputPricePer1K
	outputCost := (float64(usage.OutputTokens) / tokensPerKilo) * pricing.OutputPricePer1K

	// Reasoning tokens are billed as output tokens
	reasoningCost := 0.0
	if usage.OutputTokensDetails.ReasoningTokens > 0 {
		reasoningCost = (float64(usage.OutputTokensDetails.ReasoningTokens) / tokensPerKilo) * pricing.OutputPricePer1K
	}

	return inputCost + outputCost + reasoningCost
}
