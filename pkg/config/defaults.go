package config

import "time"

// GetBuiltinCapabilityMatrix returns the built-in provider capability
// matrix (spec.md §4.1 invariants: every TaskType has >=1 fallback; code
// tasks -> CLAUDE primary; reasoning/math -> OPENAI primary; long-document
// -> GEMINI primary; lightweight -> OLLAMA primary).
func GetBuiltinCapabilityMatrix() *CapabilityMatrix {
	return &CapabilityMatrix{
		Tasks: map[TaskType]ProviderTaskConfig{
			TaskCodeGeneration: {
				Primary: ProviderClaude, Fallbacks: []Provider{ProviderOpenAI, ProviderGemini},
				Rationale: "Claude leads on code generation quality",
			},
			TaskCodeReview: {
				Primary: ProviderClaude, Fallbacks: []Provider{ProviderOpenAI, ProviderGemini},
				Rationale: "Claude leads on code review precision",
			},
			TaskCodeDebugging: {
				Primary: ProviderClaude, Fallbacks: []Provider{ProviderOpenAI, ProviderGemini},
				Rationale: "Claude leads on code debugging reasoning",
			},
			TaskComplexReasoning: {
				Primary: ProviderOpenAI, Fallbacks: []Provider{ProviderClaude, ProviderGemini},
				Rationale: "OpenAI's reasoning models excel at multi-step logic",
			},
			TaskMathAnalysis: {
				Primary: ProviderOpenAI, Fallbacks: []Provider{ProviderClaude, ProviderGemini},
				Rationale: "OpenAI's reasoning models excel at quantitative analysis",
			},
			TaskLongDocument: {
				Primary: ProviderGemini, Fallbacks: []Provider{ProviderClaude, ProviderOpenAI},
				Rationale: "Gemini's long context window fits large documents",
			},
			TaskSummarization: {
				Primary: ProviderGemini, Fallbacks: []Provider{ProviderClaude, ProviderOllama},
				Rationale: "Gemini handles long source text cheaply",
			},
			TaskCreativeWriting: {
				Primary: ProviderClaude, Fallbacks: []Provider{ProviderOpenAI, ProviderGemini},
				Rationale: "Claude favored for creative tone control",
			},
			TaskSimpleQA: {
				Primary: ProviderOllama, Fallbacks: []Provider{ProviderClaude, ProviderOpenAI},
				Rationale: "Lightweight local model handles simple Q&A",
			},
			TaskClassification: {
				Primary: ProviderOllama, Fallbacks: []Provider{ProviderClaude, ProviderOpenAI},
				Rationale: "Lightweight local model handles closed-set classification",
			},
			TaskDataExtraction: {
				Primary: ProviderOllama, Fallbacks: []Provider{ProviderOpenAI, ProviderClaude},
				Rationale: "Lightweight local model handles structured extraction",
			},
			TaskConversation: {
				Primary: ProviderClaude, Fallbacks: []Provider{ProviderOpenAI, ProviderGemini},
				Rationale: "Claude favored for conversational tone",
			},
			TaskProfileExtract: {
				Primary: ProviderOllama, Fallbacks: []Provider{ProviderOpenAI, ProviderClaude},
				Rationale: "Lightweight local model handles background profile extraction",
			},
			TaskParsing: {
				Primary: ProviderOllama, Fallbacks: []Provider{ProviderOpenAI, ProviderClaude},
				Rationale: "Lightweight local model handles intent/sub-intent parsing",
			},
			TaskHeartbeatDecide: {
				Primary: ProviderOllama, Fallbacks: []Provider{ProviderOpenAI, ProviderClaude},
				Rationale: "Lightweight local model handles background heartbeat decisions",
			},
		},
		TierCapabilities: map[LocalTier][]TaskType{
			TierSmall: {
				TaskSimpleQA, TaskClassification, TaskDataExtraction, TaskProfileExtract,
				TaskParsing, TaskHeartbeatDecide,
			},
			TierMedium: {
				TaskSimpleQA, TaskClassification, TaskDataExtraction, TaskProfileExtract,
				TaskParsing, TaskHeartbeatDecide, TaskSummarization, TaskConversation,
			},
			TierLarge: {
				TaskSimpleQA, TaskClassification, TaskDataExtraction, TaskProfileExtract,
				TaskParsing, TaskHeartbeatDecide, TaskSummarization, TaskConversation,
				TaskCodeGeneration, TaskCodeReview, TaskCodeDebugging, TaskCreativeWriting,
			},
		},
		ModelTierPrefixes: map[string]LocalTier{
			"llama3.2:1b": TierSmall,
			"llama3.2:3b": TierSmall,
			"llama3.1:8b": TierMedium,
			"qwen2.5:14b": TierMedium,
			"llama3.1:70b": TierLarge,
			"qwen2.5:32b": TierLarge,
		},
	}
}

// DefaultSchedulerConfig returns the built-in heartbeat scheduler defaults.
func DefaultSchedulerConfig() *SchedulerConfig {
	return &SchedulerConfig{
		BeatInterval:      300 * time.Second,
		MaxActionsPerBeat: 10,
		GlobalQuietHours:  QuietHours{StartHour: 22, EndHour: 7},
		DigestCronSpec:    "0 8 * * *",
	}
}

// DefaultTrustConfig returns built-in trust categories. SPAM never
// auto-approves regardless of level (spec.md §4.6).
func DefaultTrustConfig() *TrustConfig {
	return &TrustConfig{
		Categories: map[string]TrustCategoryConfig{
			"general": {
				MinAutoLevel: TrustEstablished,
				PromotionThreshold: map[string]float64{
					"BUILDING": 0.7, "ESTABLISHED": 0.85, "TRUSTED": 0.95,
				},
				MinTotal: map[string]int{
					"BUILDING": 5, "ESTABLISHED": 20, "TRUSTED": 50,
				},
				DemotionWindow:        10,
				MaxRejectionsInWindow: 3,
			},
			"spam": {
				MinAutoLevel:    TrustTrusted,
				NeverAutoApprove: true,
			},
		},
	}
}

// DefaultRateLimitConfig returns the built-in rate limiter defaults.
func DefaultRateLimitConfig() *RateLimitConfig {
	return &RateLimitConfig{WindowSeconds: 60, MaxEvents: 20}
}

// DefaultCostsConfig returns the built-in cost tracker budget defaults.
func DefaultCostsConfig() *CostsConfig {
	return &CostsConfig{
		MonthlyBudgetUSD:   100.0,
		AlertThresholdsUSD: []float64{25, 50, 75, 100},
	}
}

// DefaultInferenceConfig returns the orchestrator's default COMPLEX_TASK
// dispatch parameters.
func DefaultInferenceConfig() *InferenceConfig {
	return &InferenceConfig{
		DefaultMaxTokens:   2048,
		DefaultTemperature: 0.7,
		HistoryLimit:       10,
		RecallLimit:        5,
	}
}

// DefaultRetentionConfig returns the built-in retention sweep defaults:
// 90 days of cost history, terminal queue tasks purged after 7 days, swept
// hourly.
func DefaultRetentionConfig() *RetentionConfig {
	return &RetentionConfig{
		CostRecordRetentionDays: 90,
		TerminalTaskRetention:   7 * 24 * time.Hour,
		CleanupInterval:         time.Hour,
	}
}
