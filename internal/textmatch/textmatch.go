// Package textmatch implements the lexical normalization and overlap scoring
// used to tie answer text back to document elements.
package textmatch

import "strings"

// MinTokenLen is the exclusive lower bound on kept token length.
const MinTokenLen = 3

// Normalize lower-cases text, replaces everything outside [a-z0-9] and
// whitespace with a space, collapses whitespace runs and trims the ends.
func Normalize(text string) string {
	lower := strings.ToLower(text)
	var sb strings.Builder
	sb.Grow(len(lower))
	space := false
	for _, r := range lower {
		keep := (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
		if !keep {
			space = true
			continue
		}
		if space && sb.Len() > 0 {
			sb.WriteByte(' ')
		}
		space = false
		sb.WriteRune(r)
	}
	return sb.String()
}

// Tokenize normalizes text and returns the tokens longer than MinTokenLen,
// in order of appearance. Duplicates are kept.
func Tokenize(text string) []string {
	norm := Normalize(text)
	if norm == "" {
		return nil
	}
	var tokens []string
	for _, w := range strings.Split(norm, " ") {
		if len(w) > MinTokenLen {
			tokens = append(tokens, w)
		}
	}
	return tokens
}

// OverlapScore counts the distinct tokens present in both a and b.
func OverlapScore(a, b []string) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	inB := make(map[string]struct{}, len(b))
	for _, w := range b {
		inB[w] = struct{}{}
	}
	seen := make(map[string]struct{}, len(a))
	score := 0
	for _, w := range a {
		if _, dup := seen[w]; dup {
			continue
		}
		seen[w] = struct{}{}
		if _, ok := inB[w]; ok {
			score++
		}
	}
	return score
}
