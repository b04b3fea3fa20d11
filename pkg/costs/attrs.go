package costs

import (
	"go.opentelemetry.io/otel/attribute"

	"github.com/zetherion/assistant-core/pkg/config"
)

func attrProvider(p config.Provider) attribute.KeyValue {
	return attribute.String("provider", string(p))
}

func attrTaskType(t config.TaskType) attribute.KeyValue {
	return attribute.String("task_type", string(t))
}

func attrSuccess(ok bool) attribute.KeyValue {
	return attribute.Bool("success", ok)
}
