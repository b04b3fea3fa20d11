package broker

import (
	"context"
	"time"

	"github.com/zetherion/assistant-core/pkg/apperr"
	"github.com/zetherion/assistant-core/pkg/config"
	"github.com/zetherion/assistant-core/pkg/providers"
)

// InferStream dispatches a streaming request. On mid-stream failure it
// abandons the stream, invokes the non-streaming fallback, and re-chunks
// the fallback's full result into pseudo-tokens before the done chunk
// (spec.md §4.3 streaming semantics).
func (b *Broker) InferStream(ctx context.Context, req providers.Request) (<-chan providers.StreamChunk, <-chan error) {
	out := make(chan providers.StreamChunk, 32)
	errs := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errs)

		start := time.Now()
		provider, err := b.selectProvider(req.TaskType)
		if err != nil {
			errs <- apperr.Capacity("broker", err)
			return
		}

		adapter, ok := b.adapters[provider]
		if !ok {
			errs <- apperr.Transport("broker", errAllProvidersFailed)
			return
		}

		chunks, streamErrs := adapter.InferStream(ctx, req)
		midStreamFailed := false
	streamLoop:
		for {
			select {
			case c, open := <-chunks:
				if !open {
					chunks = nil
					if streamErrs == nil {
						break streamLoop
					}
					continue
				}
				select {
				case out <- c:
				case <-ctx.Done():
					return
				}
				if c.Done {
					b.recordSuccess(req, provider, providers.Result{Model: c.Model, InputTokens: c.InputTokens, OutputTokens: c.OutputTokens}, time.Since(start).Milliseconds())
				}
			case streamErr, open := <-streamErrs:
				if !open {
					streamErrs = nil
					if chunks == nil {
						break streamLoop
					}
					continue
				}
				if streamErr != nil {
					// Forward chunks the adapter delivered before reporting the
					// error, so partial output is not dropped by select order.
					for chunks != nil {
						select {
						case c, open := <-chunks:
							if !open {
								chunks = nil
								break
							}
							select {
							case out <- c:
							case <-ctx.Done():
								return
							}
						default:
							chunks = nil
						}
					}
					b.handleFailure(req, provider, streamErr, time.Since(start).Milliseconds())
					midStreamFailed = true
					break streamLoop
				}
			case <-ctx.Done():
				return
			}
		}

		if !midStreamFailed {
			return
		}

		b.fallbackAfterStreamFailure(ctx, provider, req, start, out, errs)
	}()

	return out, errs
}

// fallbackAfterStreamFailure invokes the non-streaming fallback walk,
// excluding the provider whose stream just failed, and re-chunks the
// result by word before emitting the done chunk.
func (b *Broker) fallbackAfterStreamFailure(ctx context.Context, failedProvider config.Provider, req providers.Request, start time.Time, out chan<- providers.StreamChunk, errs chan<- error) {
	fallbackSeed := firstOtherProvider(failedProvider)
	result, _, err := b.inferWithFallback(ctx, fallbackSeed, req, start, failedProvider)
	if err != nil {
		errs <- err
		return
	}

	if !emitWords(ctx, out, result.Content) {
		return
	}
	select {
	case out <- providers.StreamChunk{Done: true, Model: result.Model, InputTokens: result.InputTokens, OutputTokens: result.OutputTokens}:
	case <-ctx.Done():
	}
}

// firstOtherProvider picks any provider other than failed to seed the
// fallback candidate walk; inferWithFallback's excluded set does the real
// work of skipping failed.
func firstOtherProvider(failed config.Provider) config.Provider {
	for _, p := range config.PreferenceOrder {
		if p != failed {
			return p
		}
	}
	return failed
}

// emitWords splits s on whitespace and pushes it onto out as content-only
// StreamChunks, mirroring providers' internal chunkWords helper for the
// broker's own fallback re-chunking path.
func emitWords(ctx context.Context, out chan<- providers.StreamChunk, s string) bool {
	start := 0
	inWord := false
	emit := func(word string) bool {
		select {
		case out <- providers.StreamChunk{Content: word}:
			return true
		case <-ctx.Done():
			return false
		}
	}
	for i, r := range s {
		isSpace := r == ' ' || r == '\n' || r == '\t'
		if !isSpace && !inWord {
			start = i
			inWord = true
		}
		if isSpace && inWord {
			if !emit(s[start:i] + " ") {
				return false
			}
			inWord = false
		}
	}
	if inWord {
		if !emit(s[start:]) {
			return false
		}
	}
	return true
}
