package config

// TaskType is the closed set of inference task categories the capability
// matrix and cost tracker key on.
type TaskType string

// TaskType values (spec.md §3).
const (
	TaskCodeGeneration   TaskType = "code-generation"
	TaskCodeReview       TaskType = "code-review"
	TaskCodeDebugging    TaskType = "code-debugging"
	TaskComplexReasoning TaskType = "complex-reasoning"
	TaskMathAnalysis     TaskType = "math-analysis"
	TaskLongDocument     TaskType = "long-document"
	TaskSummarization    TaskType = "summarization"
	TaskCreativeWriting  TaskType = "creative-writing"
	TaskSimpleQA         TaskType = "simple-qa"
	TaskClassification   TaskType = "classification"
	TaskDataExtraction   TaskType = "data-extraction"
	TaskConversation     TaskType = "conversation"
	TaskProfileExtract   TaskType = "profile-extraction"
	TaskParsing          TaskType = "task-parsing"
	TaskHeartbeatDecide  TaskType = "heartbeat-decision"
)

// AllTaskTypes enumerates the closed TaskType set, used to check capability
// matrix completeness (spec.md §8 invariant 1).
var AllTaskTypes = []TaskType{
	TaskCodeGeneration, TaskCodeReview, TaskCodeDebugging, TaskComplexReasoning,
	TaskMathAnalysis, TaskLongDocument, TaskSummarization, TaskCreativeWriting,
	TaskSimpleQA, TaskClassification, TaskDataExtraction, TaskConversation,
	TaskProfileExtract, TaskParsing, TaskHeartbeatDecide,
}

// IsValid reports whether t is a member of the closed TaskType set.
func (t TaskType) IsValid() bool {
	for _, v := range AllTaskTypes {
		if v == t {
			return true
		}
	}
	return false
}

// Provider is the closed set of inference providers.
type Provider string

// Provider values (spec.md §3). PreferenceOrder is the fixed fallback walk
// order used by the broker.
const (
	ProviderClaude Provider = "claude"
	ProviderOpenAI Provider = "openai"
	ProviderGemini Provider = "gemini"
	ProviderOllama Provider = "ollama"
)

// PreferenceOrder is the fixed provider walk order for fallback (spec.md §4.3).
var PreferenceOrder = []Provider{ProviderClaude, ProviderOpenAI, ProviderGemini, ProviderOllama}

// IsValid reports whether p is a member of the closed Provider set.
func (p Provider) IsValid() bool {
	switch p {
	case ProviderClaude, ProviderOpenAI, ProviderGemini, ProviderOllama:
		return true
	}
	return false
}

// LocalTier is the closed set of local-model capability tiers.
// SMALL ⊂ MEDIUM ⊂ LARGE: each wider tier's task set is a superset.
type LocalTier string

// LocalTier values.
const (
	TierSmall  LocalTier = "small"
	TierMedium LocalTier = "medium"
	TierLarge  LocalTier = "large"
)

// MessageIntent is the closed set of top-level message intents the router
// and orchestrator classify inbound messages into.
type MessageIntent string

// MessageIntent values (spec.md §3).
const (
	IntentSimpleQuery          MessageIntent = "SIMPLE_QUERY"
	IntentComplexTask          MessageIntent = "COMPLEX_TASK"
	IntentMemoryStore          MessageIntent = "MEMORY_STORE"
	IntentMemoryRecall         MessageIntent = "MEMORY_RECALL"
	IntentSystemCommand        MessageIntent = "SYSTEM_COMMAND"
	IntentTaskManagement       MessageIntent = "TASK_MANAGEMENT"
	IntentCalendarQuery        MessageIntent = "CALENDAR_QUERY"
	IntentProfileQuery         MessageIntent = "PROFILE_QUERY"
	IntentPersonalModel        MessageIntent = "PERSONAL_MODEL"
	IntentEmailManagement      MessageIntent = "EMAIL_MANAGEMENT"
	IntentDevWatcher           MessageIntent = "DEV_WATCHER"
	IntentMilestoneManagement  MessageIntent = "MILESTONE_MANAGEMENT"
	IntentYouTubeIntelligence  MessageIntent = "YOUTUBE_INTELLIGENCE"
	IntentYouTubeManagement    MessageIntent = "YOUTUBE_MANAGEMENT"
	IntentYouTubeStrategy      MessageIntent = "YOUTUBE_STRATEGY"
)

// IsValid reports whether i is a member of the closed MessageIntent set.
func (i MessageIntent) IsValid() bool {
	switch i {
	case IntentSimpleQuery, IntentComplexTask, IntentMemoryStore, IntentMemoryRecall,
		IntentSystemCommand, IntentTaskManagement, IntentCalendarQuery, IntentProfileQuery,
		IntentPersonalModel, IntentEmailManagement, IntentDevWatcher, IntentMilestoneManagement,
		IntentYouTubeIntelligence, IntentYouTubeManagement, IntentYouTubeStrategy:
		return true
	}
	return false
}

// TrustLevel is the ordered trust-escalation enum (spec.md §3). Int value
// order matches escalation order so comparisons (>=, <) work directly.
type TrustLevel int

// TrustLevel values, ordered NEW < BUILDING < ESTABLISHED < TRUSTED.
const (
	TrustNew TrustLevel = iota
	TrustBuilding
	TrustEstablished
	TrustTrusted
)

// String renders the trust level name.
func (l TrustLevel) String() string {
	switch l {
	case TrustNew:
		return "NEW"
	case TrustBuilding:
		return "BUILDING"
	case TrustEstablished:
		return "ESTABLISHED"
	case TrustTrusted:
		return "TRUSTED"
	default:
		return "UNKNOWN"
	}
}
