// Package variant describes the per-variant rules of an autocomplete endpoint:
// the characters a query may contain, the truncation threshold and the request rate
package variant

import (
	"slices"

	"lexiscan/internal/core/normalize"
	perr "lexiscan/internal/platform/errors"
	"lexiscan/internal/platform/validate"
)

// Definition is the declarative form of a profile, as written in a profile file
type Definition struct {
	Name       string `json:"name" yaml:"name" validate:"required,max=32,alphanumunicode"`
	Alphabet   string `json:"alphabet" yaml:"alphabet" validate:"required,charset"`
	Threshold  int    `json:"threshold" yaml:"threshold" validate:"min=1"`
	RateLimit  int    `json:"rateLimit" yaml:"rate_limit" validate:"min=1"`
	Separators string `json:"separators,omitempty" yaml:"separators" validate:"omitempty,charset"`
}

// Profile is an immutable, validated variant description
type Profile struct {
	name       string
	alphabet   []rune
	threshold  int
	rateLimit  int
	separators []rune
	members    map[rune]struct{}
	seps       map[rune]struct{}
}

// New validates d and builds a Profile
func New(d Definition) (Profile, error) {
	if err := validate.Struct(d); err != nil {
		return Profile{}, perr.WithOp(err, "variant.New")
	}

	alpha := normalize.Alphabet(d.Alphabet)
	if len(alpha) == 0 {
		return Profile{}, perr.WithField(perr.Newf(perr.ErrorCodeValidation, "variant %s: empty alphabet", d.Name), "alphabet")
	}
	members := make(map[rune]struct{}, len(alpha))
	for _, r := range alpha {
		members[r] = struct{}{}
	}

	seps := normalize.Alphabet(d.Separators)
	sepSet := make(map[rune]struct{}, len(seps))
	for _, r := range seps {
		if _, ok := members[r]; !ok {
			return Profile{}, perr.WithField(
				perr.Newf(perr.ErrorCodeValidation, "variant %s: separator %q is not in the alphabet", d.Name, r),
				"separators",
			)
		}
		sepSet[r] = struct{}{}
	}
	if len(seps) == len(alpha) {
		return Profile{}, perr.WithField(
			perr.Newf(perr.ErrorCodeValidation, "variant %s: alphabet has no non-separator characters", d.Name),
			"separators",
		)
	}

	return Profile{
		name:       d.Name,
		alphabet:   alpha,
		threshold:  d.Threshold,
		rateLimit:  d.RateLimit,
		separators: seps,
		members:    members,
		seps:       sepSet,
	}, nil
}

// MustNew is New that panics, for package-level built-ins
func MustNew(d Definition) Profile {
	p, err := New(d)
	if err != nil {
		panic(err)
	}
	return p
}

// Name is the path segment identifying the variant on the service
func (p Profile) Name() string { return p.name }

// Alphabet returns the ordered character set, a copy
func (p Profile) Alphabet() []rune { return slices.Clone(p.alphabet) }

// Threshold is the result count at or above which a response is presumed truncated
func (p Profile) Threshold() int { return p.threshold }

// RateLimit is the number of requests allowed per rolling minute
func (p Profile) RateLimit() int { return p.rateLimit }

// Separators returns the separator characters, a copy
func (p Profile) Separators() []rune { return slices.Clone(p.separators) }

// IsSeparator reports whether c is one of the profile's separators
func (p Profile) IsSeparator(c rune) bool {
	_, ok := p.seps[c]
	return ok
}

// IsValidExpansion reports whether prefix+c is worth querying
// c must belong to the alphabet, and a separator may neither open a prefix
// nor follow another separator
func (p Profile) IsValidExpansion(prefix string, c rune) bool {
	if _, ok := p.members[c]; !ok {
		return false
	}
	if !p.IsSeparator(c) {
		return true
	}
	if prefix == "" {
		return false
	}
	last := []rune(prefix)
	return !p.IsSeparator(last[len(last)-1])
}

// Accepts reports whether name can be reached from the seeds by valid expansions
func (p Profile) Accepts(name string) bool {
	if name == "" {
		return false
	}
	for i, c := range name {
		if !p.IsValidExpansion(name[:i], c) {
			return false
		}
	}
	return true
}

// Seeds returns the single-character prefixes a search starts from, in alphabet order
func (p Profile) Seeds() []string {
	out := make([]string, 0, len(p.alphabet))
	for _, c := range p.alphabet {
		if p.IsValidExpansion("", c) {
			out = append(out, string(c))
		}
	}
	return out
}

// Expand returns the valid children of prefix, in alphabet order
func (p Profile) Expand(prefix string) []string {
	out := make([]string, 0, len(p.alphabet))
	for _, c := range p.alphabet {
		if p.IsValidExpansion(prefix, c) {
			out = append(out, prefix+string(c))
		}
	}
	return out
}

// Truncated reports whether a response of n results may hide more matches
func (p Profile) Truncated(n int) bool { return n >= p.threshold }

// Definition returns the declarative form of p
func (p Profile) Definition() Definition {
	return Definition{
		Name:       p.name,
		Alphabet:   string(p.alphabet),
		Threshold:  p.threshold,
		RateLimit:  p.rateLimit,
		Separators: string(p.separators),
	}
}
