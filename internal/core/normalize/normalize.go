// Package normalize cleans names returned by an autocomplete endpoint and the
// alphabets declared by variant profiles
// Pipeline order for names
// 1 drop invalid UTF-8 bytes and control characters
// 2 Unicode NFC composition
// 3 strip format characters (ZWJ ZWNJ BOM)
// Spaces are kept, a name that is only whitespace becomes empty
package normalize

import (
	"strings"
	"sync"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// pool of fresh transformer chains
var chainPool = sync.Pool{
	New: func() any {
		return transform.Chain(
			norm.NFC,
			runes.Remove(runes.In(unicode.Cf)),
		)
	},
}

// Name returns the canonical form of a returned name, or "" when nothing usable is left
// Case and spacing are preserved since the service distinguishes them
func Name(s string) string {
	if s == "" {
		return ""
	}
	s = Sanitize(s)

	tr := chainPool.Get().(transform.Transformer)
	ns, _, err := transform.String(tr, s)
	tr.Reset()
	chainPool.Put(tr)
	if err != nil {
		ns = s
	}
	// a space is a query character in some variants, so "ab " and "ab" stay distinct
	if strings.TrimSpace(ns) == "" {
		return ""
	}
	return ns
}

// Names normalizes a batch, dropping empties but keeping order and duplicates
func Names(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	out := make([]string, 0, len(in))
	for _, s := range in {
		if n := Name(s); n != "" {
			out = append(out, n)
		}
	}
	return out
}

// Alphabet turns a declared character set into an ordered rune slice
// NFC composed, first occurrence wins, control characters dropped
func Alphabet(s string) []rune {
	s = norm.NFC.String(strings.ToValidUTF8(s, ""))
	seen := make(map[rune]struct{}, len(s))
	out := make([]rune, 0, len(s))
	for _, r := range s {
		if unicode.IsControl(r) {
			continue
		}
		if _, dup := seen[r]; dup {
			continue
		}
		seen[r] = struct{}{}
		out = append(out, r)
	}
	return out
}
