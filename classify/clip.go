package classify

import (
	"context"
	"fmt"
)

// ClipScorer produces a single score vector for the whole clip.
type ClipScorer interface {
	Score(ctx context.Context, samples []float64, sampleRate int) ([]float64, error)
}

// ClipBackend wraps a clip-level tagging model; selection is plain argmax
// with the same Unknown guards as the windowed variant.
type ClipBackend struct {
	scorer ClipScorer
	labels []string
}

func NewClipBackend(scorer ClipScorer, labels []string) *ClipBackend {
	return &ClipBackend{scorer: scorer, labels: labels}
}

func (b *ClipBackend) Name() string { return "clip" }

func (b *ClipBackend) Classify(ctx context.Context, samples []float64, sampleRate int) (Result, error) {
	scores, err := b.scorer.Score(ctx, samples, sampleRate)
	if err != nil {
		return Result{}, fmt.Errorf("clip scoring failed: %w", err)
	}
	if len(scores) == 0 {
		return unknownResult(), nil
	}
	return resultFor(scores, b.labels), nil
}
