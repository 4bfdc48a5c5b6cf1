// Package transcript implements phonetic correction of recognized utterances
// before intent matching.
//
// Browser speech recognition routinely mangles the product's route names
// ("netro ai" for "netra ai", "voice ya" for "voicea"). The corrector snaps
// near-miss words to the known route vocabulary using Double Metaphone
// phonetic encoding combined with Jaro-Winkler similarity:
//
//  1. Phonetic candidate filtering: a route becomes a candidate when any of
//     its Double Metaphone codes overlaps with a code of the input word.
//  2. Jaro-Winkler ranking: among candidates the highest-scoring route wins,
//     provided its score exceeds the phonetic threshold. When no phonetic
//     candidate exists, a pure Jaro-Winkler pass applies with a stricter
//     fuzzy threshold.
//
// Exact route words and command filler words are never rewritten, so a
// correctly recognized utterance passes through unchanged.
package transcript

import (
	"strings"

	"github.com/antzucaro/matchr"
)

const (
	defaultPhoneticThreshold = 0.70
	defaultFuzzyThreshold    = 0.85
)

// fillerWords are command-grammar words that must never be snapped to a
// route name.
var fillerWords = map[string]struct{}{
	"go": {}, "to": {}, "the": {}, "a": {}, "and": {},
	"back": {}, "sign": {}, "up": {}, "ai": {}, "page": {}, "please": {},
}

// Option is a functional option for configuring a [RouteCorrector].
type Option func(*RouteCorrector)

// WithPhoneticThreshold sets the minimum Jaro-Winkler score required for a
// phonetically-matched route to be accepted. Default: 0.70.
func WithPhoneticThreshold(threshold float64) Option {
	return func(c *RouteCorrector) {
		c.phoneticThreshold = threshold
	}
}

// WithFuzzyThreshold sets the minimum Jaro-Winkler score required when no
// phonetic match is found and the corrector falls back to pure string
// similarity. Default: 0.85.
func WithFuzzyThreshold(threshold float64) Option {
	return func(c *RouteCorrector) {
		c.fuzzyThreshold = threshold
	}
}

// RouteCorrector rewrites near-miss route words in normalized utterances.
// All methods are safe for concurrent use — the corrector is read-only after
// construction.
type RouteCorrector struct {
	vocab             []string
	vocabSet          map[string]struct{}
	phoneticThreshold float64
	fuzzyThreshold    float64
}

// New returns a RouteCorrector over the given route vocabulary. Vocabulary
// entries are expected in normalized (lower-case) form.
func New(vocab []string, opts ...Option) *RouteCorrector {
	set := make(map[string]struct{}, len(vocab))
	for _, v := range vocab {
		set[strings.ToLower(v)] = struct{}{}
	}
	c := &RouteCorrector{
		vocab:             vocab,
		vocabSet:          set,
		phoneticThreshold: defaultPhoneticThreshold,
		fuzzyThreshold:    defaultFuzzyThreshold,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Correct returns utterance with any near-miss route words replaced by their
// vocabulary spelling. When nothing needs rewriting the input is returned
// unchanged (including its original spacing).
func (c *RouteCorrector) Correct(utterance string) string {
	tokens := strings.Fields(utterance)
	if len(tokens) == 0 {
		return utterance
	}

	changed := false
	for i, tok := range tokens {
		if _, filler := fillerWords[tok]; filler {
			continue
		}
		if _, exact := c.vocabSet[tok]; exact {
			continue
		}
		if corrected, ok := c.matchRoute(tok); ok {
			tokens[i] = corrected
			changed = true
		}
	}

	if !changed {
		return utterance
	}
	return strings.Join(tokens, " ")
}

// matchRoute finds the best vocabulary entry for word, following the
// two-stage phonetic-then-fuzzy ranking.
func (c *RouteCorrector) matchRoute(word string) (string, bool) {
	primary, secondary := matchr.DoubleMetaphone(word)

	type candidate struct {
		route    string
		score    float64
		phonetic bool
	}
	var best candidate

	for _, route := range c.vocab {
		rp, rs := matchr.DoubleMetaphone(route)
		phonetic := codesOverlap(primary, secondary, rp, rs)
		score := matchr.JaroWinkler(word, route, false)

		if phonetic {
			if score >= c.phoneticThreshold && (!best.phonetic || score > best.score) {
				best = candidate{route: route, score: score, phonetic: true}
			}
		} else if !best.phonetic {
			if score >= c.fuzzyThreshold && score > best.score {
				best = candidate{route: route, score: score, phonetic: false}
			}
		}
	}

	if best.route == "" {
		return word, false
	}
	return best.route, true
}

// codesOverlap reports whether the two Double Metaphone code pairs share at
// least one non-empty code.
func codesOverlap(a1, a2, b1, b2 string) bool {
	for _, a := range [2]string{a1, a2} {
		if a == "" {
			continue
		}
		if a == b1 || a == b2 {
			return true
		}
	}
	return false
}
