package moderation

import (
	"context"
	"math"
	"strings"
	"unicode"
)

// DefaultLexicon is used when no word list is configured.
var DefaultLexicon = []string{
	"idiot", "stupid", "moron", "dumb", "hate", "kill", "loser", "trash", "scum", "shut up",
}

// hitWeight is the probability mass a single lexicon hit adds.
const hitWeight = 0.6

// LexiconClassifier scores text by counting blocked words and phrases. Each hit
// moves the score towards 1: score = 1 - (1-hitWeight)^hits.
type LexiconClassifier struct {
	words   map[string]struct{}
	phrases [][]string
}

func NewLexiconClassifier(entries []string) *LexiconClassifier {
	if len(entries) == 0 {
		entries = DefaultLexicon
	}
	c := &LexiconClassifier{words: make(map[string]struct{})}
	for _, e := range entries {
		tokens := tokenize(e)
		switch len(tokens) {
		case 0:
		case 1:
			c.words[tokens[0]] = struct{}{}
		default:
			c.phrases = append(c.phrases, tokens)
		}
	}
	return c
}

func (c *LexiconClassifier) Score(_ context.Context, text string) (float64, error) {
	tokens := tokenize(text)
	hits := 0
	for i, tok := range tokens {
		if _, ok := c.words[tok]; ok {
			hits++
		}
		for _, phrase := range c.phrases {
			if hasPrefix(tokens[i:], phrase) {
				hits++
			}
		}
	}
	return 1 - math.Pow(1-hitWeight, float64(hits)), nil
}

func tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}

func hasPrefix(tokens, phrase []string) bool {
	if len(tokens) < len(phrase) {
		return false
	}
	for i := range phrase {
		if tokens[i] != phrase[i] {
			return false
		}
	}
	return true
}
