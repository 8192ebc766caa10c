package observability

import (
	"strconv"
	"strings"

	"github.com/Conceptual-Machines/lyrics-api/internal/llm"
)

// Pricing constants
const (
	tokensPerKilo       = 1000.0
	costFormatPrecision = 6

	// Groq Llama 3.1 8B Instant pricing
	llama31InstantInputPrice  = 0.00005
	llama31InstantOutputPrice = 0.00008

	// Groq Llama 3.3 70B Versatile pricing
	llama33VersatileInputPrice  = 0.00059
	llama33VersatileOutputPrice = 0.00079

	// GPT-4o pricing
	gpt4oInputPrice  = 0.005
	gpt4oOutputPrice = 0.015

	// GPT-4o-mini pricing
	gpt4oMiniInputPrice  = 0.00015
	gpt4oMiniOutputPrice = 0.0006

	// Gemini 2.5 Flash pricing
	gemini25FlashInputPrice  = 0.0003
	gemini25FlashOutputPrice = 0.0025
)

// ModelPricing contains pricing information per 1K tokens
type ModelPricing struct {
	InputPricePer1K  float64 // Price per 1K input tokens in USD
	OutputPricePer1K float64 // Price per 1K output tokens in USD
}

// PricingTable contains pricing for all models
var PricingTable = map[string]ModelPricing{
	// Groq
	"llama-3.1-8b-instant": {
		InputPricePer1K:  llama31InstantInputPrice,
		OutputPricePer1K: llama31InstantOutputPrice,
	},
	"llama-3.3-70b-versatile": {
		InputPricePer1K:  llama33VersatileInputPrice,
		OutputPricePer1K: llama33VersatileOutputPrice,
	},
	// OpenAI
	"gpt-4o": {
		InputPricePer1K:  gpt4oInputPrice,
		OutputPricePer1K: gpt4oOutputPrice,
	},
	"gpt-4o-mini": {
		InputPricePer1K:  gpt4oMiniInputPrice,
		OutputPricePer1K: gpt4oMiniOutputPrice,
	},
	// Gemini
	"gemini-2.5-flash": {
		InputPricePer1K:  gemini25FlashInputPrice,
		OutputPricePer1K: gemini25FlashOutputPrice,
	},
}

// PricingFor looks up a model, ignoring a "models/" style prefix
func PricingFor(model string) (ModelPricing, bool) {
	if i := strings.LastIndex(model, "/"); i >= 0 {
		model = model[i+1:]
	}
	pricing, ok := PricingTable[model]
	return pricing, ok
}

// CalculateCost returns the cost in USD for one upstream call.
// Unknown models cost 0 rather than a guess.
func CalculateCost(model string, usage llm.Usage) float64 {
	pricing, ok := PricingFor(model)
	if !ok {
		return 0
	}

	inputCost := (float64(usage.InputTokens) / tokensPerKilo) * pricing.InputPricePer1K
	outputCost := (float64(usage.OutputTokens) / tokensPerKilo) * pricing.OutputPricePer1K
	return inputCost + outputCost
}

// FormatCost formats a cost value as a USD string
func FormatCost(cost float64) string {
	return "$" + formatFloat(cost, costFormatPrecision)
}

// formatFloat formats a float with specified precision using strconv
func formatFloat(f float64, precision int) string {
	return strconv.FormatFloat(f, 'f', precision, 64)
}
