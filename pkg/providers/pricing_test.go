package providers

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/zetherion/assistant-core/pkg/config"
)

func TestEstimateCostUsesModelPricingWhenPresent(t *testing.T) {
	conn := config.ProviderConnConfig{
		ModelPricing: map[string]config.CostRate{
			"claude-sonnet-4": {InputPerMillion: 3, OutputPerMillion: 15},
		},
		DefaultRate: config.CostRate{InputPerMillion: 1, OutputPerMillion: 1},
	}

	cost, estimated := EstimateCost(conn, "claude-sonnet-4", 1_000_000, 1_000_000)
	assert.False(t, estimated)
	assert.InDelta(t, 18.0, cost, 0.0001)
}

func TestEstimateCostFallsBackToDefaultRate(t *testing.T) {
	conn := config.ProviderConnConfig{
		DefaultRate: config.CostRate{InputPerMillion: 2, OutputPerMillion: 4},
	}

	cost, estimated := EstimateCost(conn, "unknown-model", 500_000, 500_000)
	assert.True(t, estimated)
	assert.InDelta(t, 3.0, cost, 0.0001)
}
