package sentiment

import (
	"sort"
	"strings"

	ahocorasick "github.com/petar-dambovaliev/aho-corasick"
)

// Analyzer is a lexical polarity model: an Aho-Corasick automaton built
// from the valence lexicon, scanned over the message in one pass.
type Analyzer struct {
	ac       ahocorasick.AhoCorasick
	valences []float64 // indexed by pattern
}

// NewAnalyzer compiles the lexicon into an automaton.
func NewAnalyzer() *Analyzer {
	patterns := make([]string, 0, len(lexicon))
	for word := range lexicon {
		patterns = append(patterns, word)
	}
	// Stable pattern order so valence indexes line up across runs
	sort.Strings(patterns)

	valences := make([]float64, len(patterns))
	for i, p := range patterns {
		valences[i] = lexicon[p]
	}

	builder := ahocorasick.NewAhoCorasickBuilder(ahocorasick.Opts{
		AsciiCaseInsensitive: true,
		MatchOnlyWholeWords:  true,
		MatchKind:            ahocorasick.LeftMostLongestMatch,
	})

	return &Analyzer{
		ac:       builder.Build(patterns),
		valences: valences,
	}
}

// Polarity returns the mean valence of matched lexicon words, in [-1, 1].
// A word preceded by a negator contributes its flipped valence.
// Text with no sentiment-bearing words scores 0.
func (a *Analyzer) Polarity(text string) float64 {
	matches := a.ac.FindAll(text)
	if len(matches) == 0 {
		return 0
	}

	sum := 0.0
	for _, m := range matches {
		v := a.valences[m.Pattern()]
		if negatedAt(text, m.Start()) {
			v = -v
		}
		sum += v
	}

	polarity := sum / float64(len(matches))
	return clamp(polarity, -1, 1)
}

// negatedAt reports whether the word immediately before byte offset start
// is a negator.
func negatedAt(text string, start int) bool {
	prefix := strings.ToLower(strings.TrimRight(text[:start], " \t"))
	fields := strings.Fields(prefix)
	if len(fields) == 0 {
		return false
	}
	prev := strings.Trim(fields[len(fields)-1], ".,!?;:\"'()")
	return negators[prev]
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
