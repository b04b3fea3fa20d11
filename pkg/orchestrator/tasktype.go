package orchestrator

import (
	"strings"

	"github.com/zetherion/assistant-core/pkg/config"
)

// taskTypeKeywords maps a keyword to the TaskType it signals, checked in
// declaration order so the first match wins (spec.md §4.13: "_classify_
// task_type is a keyword-based refinement into the TaskType closed set").
var taskTypeKeywords = []struct {
	keyword string
	task    config.TaskType
}{
	{"debug", config.TaskCodeDebugging},
	{"fix this bug", config.TaskCodeDebugging},
	{"review", config.TaskCodeReview},
	{"code", config.TaskCodeGeneration},
	{"script", config.TaskCodeGeneration},
	{"function", config.TaskCodeGeneration},
	{"calculate", config.TaskMathAnalysis},
	{"math", config.TaskMathAnalysis},
	{"equation", config.TaskMathAnalysis},
	{"summarize", config.TaskSummarization},
	{"summary", config.TaskSummarization},
	{"tldr", config.TaskSummarization},
	{"write a story", config.TaskCreativeWriting},
	{"poem", config.TaskCreativeWriting},
	{"creative", config.TaskCreativeWriting},
	{"extract", config.TaskDataExtraction},
	{"classify", config.TaskClassification},
	{"categorize", config.TaskClassification},
}

// longDocumentThreshold is the character count above which a COMPLEX_TASK
// prompt, absent a more specific keyword match, is classified as a
// long-document task rather than generic complex reasoning.
const longDocumentThreshold = 4000

// classifyTaskType refines a COMPLEX_TASK prompt into the closed TaskType
// set used by the capability matrix (spec.md §4.13 step 2). A prompt that
// matches none of the keywords and isn't long falls back to CONVERSATION
// rather than COMPLEX_REASONING, mirroring _classify_task_type's own
// fallback in original_source/src/zetherion_ai/agent/core.py. The built-in
// capability matrix routes CONVERSATION to CLAUDE primary (OPENAI, GEMINI
// fallbacks), so an unrecognized prompt still goes to a cloud provider.
func classifyTaskType(text string) config.TaskType {
	lower := strings.ToLower(text)
	for _, kw := range taskTypeKeywords {
		if strings.Contains(lower, kw.keyword) {
			return kw.task
		}
	}
	if len(text) > longDocumentThreshold {
		return config.TaskLongDocument
	}
	return config.TaskConversation
}
