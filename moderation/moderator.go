// Package moderation masks banned words in message text before persistence.
// Matching runs over a normalized view of the text (lowercased, separators
// stripped) so spaced or punctuated variants are still caught, and the mask
// is applied back onto the original runes.
package moderation

import (
	_ "embed"
	"strings"
	"unicode"

	"pairchat/errors"

	goahocorasick "github.com/anknown/ahocorasick"
)

//go:embed words.txt
var defaultWordsFile string

// DefaultWords returns the embedded banned-word list.
func DefaultWords() []string {
	var words []string
	for _, line := range strings.Split(defaultWordsFile, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		words = append(words, line)
	}
	return words
}

type Moderator struct {
	matcher     *goahocorasick.Machine
	replacement rune
}

// NewModerator builds the Aho-Corasick automaton over the normalized word
// list.
func NewModerator(words []string, replacement rune) (Moderator, error) {
	if len(words) == 0 {
		return Moderator{}, errors.ErrEmptyWords
	}
	patterns := make([][]rune, len(words))
	for i, word := range words {
		normalized, _ := normalize([]rune(word))
		patterns[i] = normalized
	}

	machine := new(goahocorasick.Machine)
	if err := machine.Build(patterns); err != nil {
		return Moderator{}, err
	}
	return Moderator{matcher: machine, replacement: replacement}, nil
}

// Censor replaces every banned span with the replacement rune, preserving
// untouched characters and overall length.
func (m *Moderator) Censor(original string) string {
	origRunes := []rune(original)
	normalized, origIdx := normalize(origRunes)
	if len(normalized) == 0 {
		return original
	}

	spans := m.matcher.MultiPatternSearch(normalized, false)
	if len(spans) == 0 {
		return original
	}

	for _, span := range spans {
		start := span.Pos
		end := start + len(span.Word)
		if start < 0 || end > len(origIdx) {
			continue
		}
		for i := origIdx[start]; i <= origIdx[end-1]; i++ {
			origRunes[i] = m.replacement
		}
	}
	return string(origRunes)
}

// normalize lowercases the input and strips separator runes, keeping a map
// from normalized positions back to original positions.
func normalize(input []rune) ([]rune, []int) {
	normalized := make([]rune, 0, len(input))
	origIdx := make([]int, 0, len(input))
	for i, r := range input {
		if unicode.IsSpace(r) || unicode.IsPunct(r) || unicode.IsSymbol(r) {
			continue
		}
		normalized = append(normalized, unicode.ToLower(r))
		origIdx = append(origIdx, i)
	}
	return normalized, origIdx
}
