package classify

import (
	"context"
	"fmt"
)

// WindowScorer produces one score vector per fixed-length analysis window
// across the whole clip.
type WindowScorer interface {
	Scores(ctx context.Context, samples []float64, sampleRate int) ([][]float64, error)
}

// WindowedBackend wraps an event-tagging model that scores fixed-length
// analysis windows. Per-window scores are averaged per class across the clip
// and the class with the maximum mean score wins. Averaging before argmax
// keeps a short dominant event from being drowned out by quiet windows while
// still damping single-window spikes.
type WindowedBackend struct {
	scorer WindowScorer
	labels []string
}

func NewWindowedBackend(scorer WindowScorer, labels []string) *WindowedBackend {
	return &WindowedBackend{scorer: scorer, labels: labels}
}

func (b *WindowedBackend) Name() string { return "windowed" }

func (b *WindowedBackend) Classify(ctx context.Context, samples []float64, sampleRate int) (Result, error) {
	windows, err := b.scorer.Scores(ctx, samples, sampleRate)
	if err != nil {
		return Result{}, fmt.Errorf("window scoring failed: %w", err)
	}

	if len(windows) == 0 {
		return unknownResult(), nil
	}

	classCount := len(windows[0])
	if classCount == 0 {
		return unknownResult(), nil
	}

	mean := make([]float64, classCount)
	for _, window := range windows {
		if len(window) != classCount {
			return Result{}, fmt.Errorf("inconsistent score vector length: got %d, expected %d", len(window), classCount)
		}
		for i, score := range window {
			mean[i] += score
		}
	}
	for i := range mean {
		mean[i] /= float64(len(windows))
	}

	return resultFor(mean, b.labels), nil
}
