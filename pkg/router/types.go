// Package router implements the intent classifier (C2): a two-stage
// cascade over the inference broker's provider adapters that maps
// free-text input to one of a closed set of intents.
package router

import "github.com/zetherion/assistant-core/pkg/config"

// RoutingDecision is the router's output for one classify call.
type RoutingDecision struct {
	Intent          config.MessageIntent
	Confidence      float64
	Reasoning       string
	UseComplexModel bool
}

const systemPrompt = `You are an intent classifier for a personal assistant. Given the user's message, respond with strict JSON only:
{"intent": "<one of the allowed intents>", "confidence": <0..1>, "reasoning": "<short reason>"}

Allowed intents: SIMPLE_QUERY, COMPLEX_TASK, MEMORY_STORE, MEMORY_RECALL, SYSTEM_COMMAND, TASK_MANAGEMENT, CALENDAR_QUERY, PROFILE_QUERY, PERSONAL_MODEL, EMAIL_MANAGEMENT, DEV_WATCHER, MILESTONE_MANAGEMENT, YOUTUBE_INTELLIGENCE, YOUTUBE_MANAGEMENT, YOUTUBE_STRATEGY.

Respond with JSON only, no prose, no markdown fences.`

// safeDefault is returned when both the primary and fallback backends fail
// to produce a usable classification.
var safeDefault = RoutingDecision{Intent: config.IntentSimpleQuery, Confidence: 0.5, Reasoning: "fallback"}

// panicDefault is returned on an unexpected (non-transport) failure, biasing
// downstream dispatch toward the strongest model rather than silently
// under-serving the request.
var panicDefault = RoutingDecision{Intent: config.IntentComplexTask, Confidence: 0.5, Reasoning: "router failed", UseComplexModel: true}
