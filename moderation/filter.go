// Package moderation masks banned words in chat text.
package moderation

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"unicode"

	goahocorasick "github.com/anknown/ahocorasick"
	"github.com/samber/lo"
)

// ErrNoWords is returned by NewFilter when no usable word is given.
var ErrNoWords = errors.New("moderation: no words to censor")

// leet maps look-alike characters to the letter they stand for.
var leet = map[rune]rune{
	'4': 'a', '@': 'a',
	'3': 'e', '€': 'e',
	'1': 'i', '!': 'i', '|': 'i',
	'0': 'o',
	'5': 's', '$': 's',
}

// Filter finds banned words with an Aho-Corasick automaton and masks them.
// Matching ignores case, punctuation, whitespace and symbols, and undoes
// common leet substitutions, so "B.4.d-g3r" matches "badger". The masked
// text keeps its original length and spacing.
type Filter struct {
	matcher *goahocorasick.Machine
	mask    rune
	log     *slog.Logger
}

// NewFilter builds a Filter for words. Duplicates after folding are merged
// and words that fold to nothing are skipped; if none is left ErrNoWords is
// returned.
func NewFilter(words []string, mask rune, log *slog.Logger) (*Filter, error) {
	if log == nil {
		log = slog.Default()
	}

	patterns := lo.Uniq(lo.FilterMap(words, func(word string, _ int) (string, bool) {
		folded, _ := fold(word)
		return string(folded), len(folded) > 0
	}))
	if len(patterns) == 0 {
		return nil, ErrNoWords
	}
	slices.Sort(patterns)

	m := new(goahocorasick.Machine)
	if err := m.Build(lo.Map(patterns, func(p string, _ int) []rune { return []rune(p) })); err != nil {
		return nil, fmt.Errorf("moderation: build matcher: %w", err)
	}
	log.Debug("moderation filter ready", "words", len(patterns))
	return &Filter{matcher: m, mask: mask, log: log}, nil
}

// Censor returns text with every banned word masked.
func (f *Filter) Censor(text string) string {
	censored, found := f.Scan(text)
	if len(found) > 0 {
		f.log.Debug("message censored", "words", len(found))
	}
	return censored
}

// Scan masks text and also returns the distinct folded words it matched.
func (f *Filter) Scan(text string) (string, []string) {
	folded, at := fold(text)
	if len(folded) == 0 {
		return text, nil
	}

	hits := f.matcher.MultiPatternSearch(folded, false)
	if len(hits) == 0 {
		return text, nil
	}

	runes := []rune(text)
	words := make([]string, 0, len(hits))
	for _, hit := range hits {
		last := hit.Pos + len(hit.Word) - 1
		if hit.Pos < 0 || last >= len(at) {
			continue
		}
		for i := at[hit.Pos]; i <= at[last]; i++ {
			runes[i] = f.mask
		}
		words = append(words, string(hit.Word))
	}
	return string(runes), lo.Uniq(words)
}

// fold lowercases text, undoes leet and drops punctuation, spaces and
// symbols. at[i] is the index in []rune(text) that folded[i] came from.
func fold(text string) (folded []rune, at []int) {
	for i, r := range []rune(text) {
		if letter, ok := leet[r]; ok {
			r = letter
		}
		if unicode.IsPunct(r) || unicode.IsSpace(r) || unicode.IsSymbol(r) {
			continue
		}
		folded = append(folded, unicode.ToLower(r))
		at = append(at, i)
	}
	return folded, at
}
