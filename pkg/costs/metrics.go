package costs

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/metric"

	"github.com/zetherion/assistant-core/pkg/config"
)

// instruments holds the OTel metric instruments emitted alongside each
// persisted Record, so cost data is visible to an external metrics
// pipeline without waiting on a Store aggregation query.
type instruments struct {
	costTotal   metric.Float64Counter
	tokensIn    metric.Int64Counter
	tokensOut   metric.Int64Counter
	callLatency metric.Float64Histogram
}

func newInstruments(meter metric.Meter) *instruments {
	if meter == nil {
		return nil
	}
	costTotal, err1 := meter.Float64Counter("assistant_cost_usd_total",
		metric.WithDescription("Cumulative estimated cost of inference calls in USD"))
	tokensIn, err2 := meter.Int64Counter("assistant_tokens_in_total",
		metric.WithDescription("Cumulative input tokens consumed"))
	tokensOut, err3 := meter.Int64Counter("assistant_tokens_out_total",
		metric.WithDescription("Cumulative output tokens produced"))
	callLatency, err4 := meter.Float64Histogram("assistant_inference_latency_ms",
		metric.WithDescription("Inference call latency in milliseconds"))
	if err1 != nil || err2 != nil || err3 != nil || err4 != nil {
		slog.Warn("failed to register one or more cost metric instruments",
			"cost_total_err", err1, "tokens_in_err", err2, "tokens_out_err", err3, "latency_err", err4)
	}
	return &instruments{costTotal: costTotal, tokensIn: tokensIn, tokensOut: tokensOut, callLatency: callLatency}
}

func (i *instruments) record(ctx context.Context, rec Record) {
	if i == nil {
		return
	}
	attrs := metric.WithAttributes(
		attrProvider(rec.Provider), attrTaskType(rec.TaskType), attrSuccess(rec.Success),
	)
	if i.costTotal != nil {
		i.costTotal.Add(ctx, rec.CostUSD, attrs)
	}
	if i.tokensIn != nil {
		i.tokensIn.Add(ctx, int64(rec.TokensIn), attrs)
	}
	if i.tokensOut != nil {
		i.tokensOut.Add(ctx, int64(rec.TokensOut), attrs)
	}
	if i.callLatency != nil && rec.LatencyMS > 0 {
		i.callLatency.Record(ctx, float64(rec.LatencyMS), attrs)
	}
}

// WithMeter attaches an OTel meter to t, enabling metric emission on every
// subsequent Record call.
func (t *Tracker) WithMeter(meter metric.Meter) *Tracker {
	t.instruments = newInstruments(meter)
	return t
}
