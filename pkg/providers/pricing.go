package providers

import "github.com/zetherion/assistant-core/pkg/config"

// EstimateCost computes a dollar cost from token counts using the model's
// configured pricing, falling back to the provider's default rate
// (cost_estimated=true) if the specific model is not in the pricing table
// (spec.md §4.3 step 4).
func EstimateCost(conn config.ProviderConnConfig, model string, inputTokens, outputTokens int) (costUSD float64, estimated bool) {
	rate, ok := conn.ModelPricing[model]
	if !ok {
		rate = conn.DefaultRate
		estimated = true
	}
	costUSD = float64(inputTokens)/1_000_000*rate.InputPerMillion + float64(outputTokens)/1_000_000*rate.OutputPerMillion
	return costUSD, estimated
}
