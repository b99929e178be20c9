package repo

import (
	"bufio"
	"io"
	"math/rand/v2"
	"os"
	"strings"

	"lexiscan/internal/core/normalize"
	"lexiscan/internal/core/variant"
	perr "lexiscan/internal/platform/errors"
)

// ReadWords reads one name per line; blank lines and # comments are skipped
func ReadWords(r io.Reader) ([]string, error) {
	var out []string
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 4096), 1<<20)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if strings.HasPrefix(line, "#") {
			continue
		}
		if n := normalize.Name(line); n != "" {
			out = append(out, n)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeConfig, "read words")
	}
	return out, nil
}

// LoadWords reads a word file from disk
func LoadWords(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeConfig, "open word file %s", path)
	}
	defer func() { _ = f.Close() }()
	return ReadWords(f)
}

// GenOptions controls Generate
type GenOptions struct {
	Count  int
	MinLen int
	MaxLen int
	Seed   uint64
}

// Generate returns up to Count distinct names the profile accepts; equal options give equal output
func Generate(p variant.Profile, o GenOptions) []string {
	if o.MinLen <= 0 {
		o.MinLen = 1
	}
	if o.MaxLen < o.MinLen {
		o.MaxLen = o.MinLen
	}
	alpha := p.Alphabet()
	if o.Count <= 0 || len(alpha) == 0 {
		return nil
	}

	rng := rand.New(rand.NewPCG(o.Seed, uint64(len(alpha))))
	seen := make(map[string]struct{}, o.Count)
	out := make([]string, 0, o.Count)
	// the name space may be smaller than Count, so attempts are bounded
	for tries := 0; len(out) < o.Count && tries < o.Count*20; tries++ {
		n := o.MinLen + rng.IntN(o.MaxLen-o.MinLen+1)
		var b strings.Builder
		for i := 0; i < n; i++ {
			b.WriteRune(alpha[rng.IntN(len(alpha))])
		}
		w := b.String()
		if !p.Accepts(w) || normalize.Name(w) != w {
			continue
		}
		if _, dup := seen[w]; dup {
			continue
		}
		seen[w] = struct{}{}
		out = append(out, w)
	}
	return out
}
