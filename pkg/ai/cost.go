package ai

// ModelPrice holds USD cost per million tokens for a model.
type ModelPrice struct {
	Input  float64
	Output float64
}

// defaultPrice is a deliberately conservative fallback for unknown models so
// that unrecognized model ids never report a cost of zero.
var defaultPrice = ModelPrice{Input: 5.00, Output: 15.00}

var modelPrices = map[string]ModelPrice{
	// OpenAI
	"gpt-4o":       {Input: 2.50, Output: 10.00},
	"gpt-4o-mini":  {Input: 0.15, Output: 0.60},
	"gpt-4.1":      {Input: 2.00, Output: 8.00},
	"gpt-4.1-mini": {Input: 0.40, Output: 1.60},
	"o3-mini":      {Input: 1.10, Output: 4.40},

	// Anthropic
	"claude-opus-4-20250514":     {Input: 15.00, Output: 75.00},
	"claude-sonnet-4-20250514":   {Input: 3.00, Output: 15.00},
	"claude-3-5-sonnet-20241022": {Input: 3.00, Output: 15.00},
	"claude-3-5-haiku-20241022":  {Input: 0.80, Output: 4.00},

	// Gemini
	"gemini-2.5-pro":   {Input: 1.25, Output: 10.00},
	"gemini-2.5-flash": {Input: 0.30, Output: 2.50},
	"gemini-2.0-flash": {Input: 0.10, Output: 0.40},
	"gemini-1.5-pro":   {Input: 1.25, Output: 5.00},
}

// Price returns the price pair for a model, falling back to defaultPrice.
func Price(model string) ModelPrice {
	if price, ok := modelPrices[model]; ok {
		return price
	}
	return defaultPrice
}

// EstimateCost converts token usage into an estimated USD cost.
func EstimateCost(usage Usage, model string) float64 {
	price := Price(model)
	return float64(usage.InputTokens)/1e6*price.Input + float64(usage.OutputTokens)/1e6*price.Output
}
