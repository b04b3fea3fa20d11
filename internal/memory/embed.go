package memory

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
)

// hashingEmbedder is a stdlib-only fallback Embedder: it buckets each word
// of the input into one of vectorSize dimensions via FNV-1a and counts
// occurrences, giving a deterministic bag-of-words vector with no external
// model dependency. It is not semantically rich, but it is enough to
// exercise collection writes, scroll, and nearest-neighbor search end to
// end without requiring a live embedding service in tests or local runs.
//
// No library in the pack wires an embedding client for this role (the
// corpus pairs Qdrant with hand-rolled or provider-supplied embeddings,
// never a bundled Go embedding library), so production deployments are
// expected to supply a real Embedder (e.g. backed by one of the already-
// wired provider SDKs) rather than run on this fallback.
type hashingEmbedder struct{}

func (hashingEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	vec := make([]float32, vectorSize)
	for _, word := range strings.Fields(strings.ToLower(text)) {
		h := fnv.New32a()
		_, _ = h.Write([]byte(word))
		vec[h.Sum32()%vectorSize]++
	}
	normalize(vec)
	return vec, nil
}

func normalize(vec []float32) {
	var sumSquares float32
	for _, v := range vec {
		sumSquares += v * v
	}
	if sumSquares == 0 {
		return
	}
	norm := float32(math.Sqrt(float64(sumSquares)))
	for i := range vec {
		vec[i] /= norm
	}
}
