// Package repo holds the persistence sinks and history readers of an extraction run
package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	perr "lexiscan/internal/platform/errors"
	"lexiscan/internal/services/extract/domain"
)

// SummaryFile is the aggregate written next to the per variant files
const SummaryFile = "summary.json"

var (
	_ domain.Sink    = (*FileSink)(nil)
	_ domain.History = (*FileSink)(nil)
	_ domain.Sink    = (*PG)(nil)
	_ domain.History = (*PG)(nil)
	_ domain.Sink    = (*Redis)(nil)
	_ domain.History = (*Redis)(nil)
	_ domain.Sink    = (*ES)(nil)
)

// FileSink writes one JSON document per variant plus an aggregated summary
type FileSink struct {
	dir string
	mu  sync.Mutex
}

type variantDoc struct {
	RunID       string   `json:"runId"`
	Profile     string   `json:"profile"`
	Attempts    int64    `json:"attempts"`
	Successes   int64    `json:"successes"`
	RateLimited int64    `json:"rateLimited"`
	Failures    int64    `json:"failures"`
	Requests    int64    `json:"requests"`
	Count       int      `json:"count"`
	Cancelled   bool     `json:"cancelled"`
	Names       []string `json:"names"`
}

// SummaryEntry is one variant inside summary.json
type SummaryEntry struct {
	Attempts int64 `json:"attempts"`
	Count    int   `json:"count"`
}

// NewFileSink creates dir when missing
func NewFileSink(dir string) (*FileSink, error) {
	if dir == "" {
		return nil, perr.Configf("file sink: output dir is empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeConfig, "file sink: create %s", dir)
	}
	return &FileSink{dir: dir}, nil
}

// Name implements domain.Sink
func (*FileSink) Name() string { return "file" }

// Dir is the output directory
func (f *FileSink) Dir() string { return f.dir }

// Save implements domain.Sink
func (f *FileSink) Save(_ context.Context, s domain.Summary) error {
	names := s.Names
	if names == nil {
		names = []string{}
	}
	doc := variantDoc{
		RunID:       s.RunID,
		Profile:     s.Profile,
		Attempts:    s.Attempts,
		Successes:   s.Successes,
		RateLimited: s.RateLimited,
		Failures:    s.Failures,
		Requests:    s.Requests,
		Count:       len(names),
		Cancelled:   s.Cancelled,
		Names:       names,
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if err := writeJSON(filepath.Join(f.dir, VariantFile(s.Variant)), doc); err != nil {
		return err
	}

	agg, err := f.readSummary()
	if err != nil {
		return err
	}
	agg[s.Variant] = SummaryEntry{Attempts: s.Attempts, Count: len(names)}
	return writeJSON(filepath.Join(f.dir, SummaryFile), agg)
}

// Summary reads the aggregate, empty when nothing was saved yet
func (f *FileSink) Summary() (map[string]SummaryEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.readSummary()
}

// Names implements domain.History from the per variant file of a previous run
func (f *FileSink) Names(_ context.Context, variant string) ([]string, error) {
	b, err := os.ReadFile(filepath.Join(f.dir, VariantFile(variant)))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeStore, "file history: read")
	}
	var doc variantDoc
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeJSON, "file history: decode %s", variant)
	}
	return doc.Names, nil
}

// VariantFile is the file name of a variant inside the output dir
// Bytes outside [A-Za-z0-9-] are written as _XX, so any name maps to one plain
// path segment and two variants never share a file. The summary name is reserved
func VariantFile(variant string) string {
	var b strings.Builder
	for i := 0; i < len(variant); i++ {
		c := variant[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-':
			b.WriteByte(c)
		default:
			fmt.Fprintf(&b, "_%02X", c)
		}
	}
	name := b.String()
	if name == "" || name+".json" == SummaryFile {
		// "_" followed by a non hex byte never comes out of the escaping above
		name = "_" + name
	}
	return name + ".json"
}

func (f *FileSink) readSummary() (map[string]SummaryEntry, error) {
	agg := map[string]SummaryEntry{}
	b, err := os.ReadFile(filepath.Join(f.dir, SummaryFile))
	if errors.Is(err, fs.ErrNotExist) {
		return agg, nil
	}
	if err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeStore, "file sink: read summary")
	}
	if len(b) == 0 {
		return agg, nil
	}
	if err := json.Unmarshal(b, &agg); err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeJSON, "file sink: decode summary")
	}
	return agg, nil
}

// writeJSON replaces path atomically via a temp file in the same dir
func writeJSON(path string, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return perr.Wrap(err, perr.ErrorCodeJSON, "file sink: encode")
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".lexiscan-*")
	if err != nil {
		return perr.Wrap(err, perr.ErrorCodeStore, "file sink: temp file")
	}
	name := tmp.Name()
	if _, err := tmp.Write(append(b, '\n')); err != nil {
		_ = tmp.Close()
		_ = os.Remove(name)
		return perr.Wrap(err, perr.ErrorCodeStore, "file sink: write")
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(name)
		return perr.Wrap(err, perr.ErrorCodeStore, "file sink: close")
	}
	if err := os.Rename(name, path); err != nil {
		_ = os.Remove(name)
		return perr.Wrapf(err, perr.ErrorCodeStore, "file sink: rename %s", filepath.Base(path))
	}
	return nil
}
