// Package capability implements the provider capability matrix (C1): pure
// data plus two pure functions that decide which provider should handle a
// given inference task, with no I/O of its own.
package capability

import (
	"fmt"

	"github.com/zetherion/assistant-core/pkg/config"
)

// ErrNoProvidersAvailable is returned by ProviderForTask when the available
// set is empty.
type ErrNoProvidersAvailable struct{}

func (ErrNoProvidersAvailable) Error() string { return "no providers available" }

// ProviderForTask selects the provider that should handle task, given the
// currently available providers and the local-model override flags.
//
// Algorithm (spec.md §4.1):
//  1. If task is in forceLocal and OLLAMA is available, return OLLAMA.
//  2. Take (primary, fallbacks) from the matrix. If task is in forceCloud,
//     drop OLLAMA from the candidate list.
//  3. Walk [primary] ++ fallbacks in order. For OLLAMA, additionally
//     require canLocalHandle(task, localModel); for others, require
//     membership in available. Return the first match.
//  4. If none match, return any member of available; if available is
//     empty, return ErrNoProvidersAvailable.
func ProviderForTask(
	matrix *config.CapabilityMatrix,
	task config.TaskType,
	available map[config.Provider]bool,
	localModel string,
	forceLocal map[config.TaskType]bool,
	forceCloud map[config.TaskType]bool,
) (config.Provider, error) {
	if forceLocal[task] && available[config.ProviderOllama] {
		return config.ProviderOllama, nil
	}

	entry, ok := matrix.Tasks[task]
	if !ok {
		return anyAvailable(available)
	}

	candidates := append([]config.Provider{entry.Primary}, entry.Fallbacks...)
	if forceCloud[task] {
		candidates = dropOllama(candidates)
	}

	for _, c := range candidates {
		if c == config.ProviderOllama {
			if available[config.ProviderOllama] && CanLocalHandle(matrix, task, localModel) {
				return c, nil
			}
			continue
		}
		if available[c] {
			return c, nil
		}
	}

	return anyAvailable(available)
}

// CanLocalHandle reports whether the local model (by tier) can serve task.
func CanLocalHandle(matrix *config.CapabilityMatrix, task config.TaskType, modelName string) bool {
	tier := tierOf(matrix, modelName)
	for _, t := range matrix.TierCapabilities[tier] {
		if t == task {
			return true
		}
	}
	return false
}

// tierOf derives a LocalTier from a model name via longest-prefix match
// against the matrix's ModelTierPrefixes table. Unknown models default to
// the conservative TierSmall.
func tierOf(matrix *config.CapabilityMatrix, modelName string) config.LocalTier {
	best := ""
	tier := config.TierSmall
	for prefix, t := range matrix.ModelTierPrefixes {
		if len(prefix) > len(best) && hasPrefix(modelName, prefix) {
			best = prefix
			tier = t
		}
	}
	return tier
}

func hasPrefix(s, prefix string) bool {
	return len(s) >= len(prefix) && s[:len(prefix)] == prefix
}

func dropOllama(providers []config.Provider) []config.Provider {
	out := make([]config.Provider, 0, len(providers))
	for _, p := range providers {
		if p != config.ProviderOllama {
			out = append(out, p)
		}
	}
	return out
}

func anyAvailable(available map[config.Provider]bool) (config.Provider, error) {
	for _, p := range config.PreferenceOrder {
		if available[p] {
			return p, nil
		}
	}
	for p := range available {
		return p, nil
	}
	return "", ErrNoProvidersAvailable{}
}

// String is a debug helper rendering an available-providers set deterministically.
func String(available map[config.Provider]bool) string {
	out := ""
	for _, p := range config.PreferenceOrder {
		if available[p] {
			out += fmt.Sprintf("%s ", p)
		}
	}
	return out
}
