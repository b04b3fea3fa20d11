package costs

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/metric/noop"

	"github.com/zetherion/assistant-core/pkg/config"
)

func TestWithMeterDoesNotPanicOnRecord(t *testing.T) {
	tr := NewTracker(&fakeStore{}, config.CostsConfig{}, nil, nil).WithMeter(noop.NewMeterProvider().Meter("test"))

	assert.NotPanics(t, func() {
		tr.Record(context.Background(), Record{Provider: config.ProviderClaude, CostUSD: 0.1, LatencyMS: 50})
	})
}

func TestRecordWithoutMeterDoesNotPanic(t *testing.T) {
	tr := NewTracker(&fakeStore{}, config.CostsConfig{}, nil, nil)
	assert.NotPanics(t, func() {
		tr.Record(context.Background(), Record{Provider: config.ProviderClaude, CostUSD: 0.1})
	})
}
