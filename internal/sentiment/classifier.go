// Package sentiment maps free text to a bounded emotional intensity score
// and label. Polarity comes from a pluggable lexical model; the score and
// label mappings are fixed because prompt-tier selection is keyed on them.
package sentiment

import (
	"math"

	"github.com/kittclouds/reflectin/internal/store"
)

// PolarityFunc produces a continuous polarity in [-1, 1] for a text.
type PolarityFunc func(text string) float64

// Classifier turns polarity into the 1-10 score and the three-way label.
type Classifier struct {
	polarity PolarityFunc
}

// NewClassifier creates a classifier. A nil polarity function falls back to
// the bundled lexical analyzer.
func NewClassifier(polarity PolarityFunc) *Classifier {
	if polarity == nil {
		polarity = NewAnalyzer().Polarity
	}
	return &Classifier{polarity: polarity}
}

// Classify scores the text.
//
// score = floor(((polarity + 1) / 2) * 9) + 1, an integer in [1, 10].
// label: score > 6 Positive, score < 4 Negative, else Neutral.
func (c *Classifier) Classify(text string) store.Sentiment {
	polarity := clamp(c.polarity(text), -1, 1)
	score := ScoreFromPolarity(polarity)
	return store.Sentiment{
		Polarity: polarity,
		Score:    score,
		Label:    LabelForScore(score),
	}
}

// ScoreFromPolarity is the exact linear polarity-to-score mapping.
// Downstream tier selection depends on reproducing these integers.
func ScoreFromPolarity(polarity float64) int {
	score := int(math.Floor(((polarity+1)/2)*9)) + 1
	if score < 1 {
		return 1
	}
	if score > 10 {
		return 10
	}
	return score
}

// LabelForScore buckets a 1-10 score into the three labels.
func LabelForScore(score int) string {
	switch {
	case score > 6:
		return store.LabelPositive
	case score < 4:
		return store.LabelNegative
	default:
		return store.LabelNeutral
	}
}
