package classify

import (
	"context"
	"strings"
)

const (
	// LabelUnknown is returned when the model yields no usable result.
	LabelUnknown = "Unknown"

	// errorLabelPrefix marks a result whose label carries an inference error
	// description instead of a vocabulary label.
	errorLabelPrefix = "Error: "
)

// Result is the clip-level outcome of classification. Confidence is always in
// [0, 1] and is 0.0 whenever the label is Unknown or an error marker, so
// consumers never have to branch on its absence.
type Result struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

// IsError reports whether the result carries an absorbed inference failure.
func (r Result) IsError() bool {
	return strings.HasPrefix(r.Label, errorLabelPrefix)
}

// ErrorResult packages an inference failure as data so the ingest pipeline
// can keep going with a degraded label.
func ErrorResult(err error) Result {
	return Result{Label: errorLabelPrefix + err.Error(), Confidence: 0.0}
}

func unknownResult() Result {
	return Result{Label: LabelUnknown, Confidence: 0.0}
}

// Backend tags a clip of canonical PCM with its dominant acoustic event.
// Implementations must be safe for concurrent use; they are constructed once
// at startup and shared across all requests.
type Backend interface {
	Classify(ctx context.Context, samples []float64, sampleRate int) (Result, error)
	Name() string
}

// argmax returns the index of the largest score, or -1 for an empty slice.
func argmax(scores []float64) int {
	best := -1
	bestScore := 0.0
	for i, score := range scores {
		if best == -1 || score > bestScore {
			best = i
			bestScore = score
		}
	}
	return best
}

// resultFor applies the shared selection guards: out-of-vocabulary indices
// degrade to Unknown and confidence is clamped into [0, 1].
func resultFor(scores []float64, labels []string) Result {
	top := argmax(scores)
	if top < 0 || top >= len(labels) {
		return unknownResult()
	}
	confidence := scores[top]
	if confidence < 0.0 {
		confidence = 0.0
	} else if confidence > 1.0 {
		confidence = 1.0
	}
	return Result{Label: labels[top], Confidence: confidence}
}
