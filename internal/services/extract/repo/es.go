package repo

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"

	perr "lexiscan/internal/platform/errors"
	"lexiscan/internal/services/extract/domain"

	"github.com/elastic/go-elasticsearch/v8/esapi"
)

// ESIndex is the default names index
const ESIndex = "lexiscan-names"

// esChunk caps the documents of one bulk request
const esChunk = 1000

const esMapping = `{
  "mappings": {
    "properties": {
      "variant":  {"type": "keyword"},
      "name":     {"type": "keyword"},
      "prefix":   {"type": "keyword"},
      "run_id":   {"type": "keyword"},
      "length":   {"type": "integer"}
    }
  }
}`

// ES bulk indexes names, one document per variant and name
type ES struct {
	es      esapi.Transport
	index   string
	refresh string
}

type esDoc struct {
	Variant string `json:"variant"`
	Name    string `json:"name"`
	Prefix  string `json:"prefix"`
	RunID   string `json:"run_id"`
	Length  int    `json:"length"`
}

type esAction struct {
	Index struct {
		Index string `json:"_index"`
		ID    string `json:"_id"`
	} `json:"index"`
}

type bulkResponse struct {
	Errors bool `json:"errors"`
	Items  []map[string]struct {
		ID     string `json:"_id"`
		Status int    `json:"status"`
		Error  *struct {
			Type   string `json:"type"`
			Reason string `json:"reason"`
		} `json:"error"`
	} `json:"items"`
}

// NewES binds the sink to a transport; index defaults to ESIndex
func NewES(es esapi.Transport, index string) *ES {
	if index == "" {
		index = ESIndex
	}
	return &ES{es: es, index: index, refresh: "false"}
}

// WithRefresh sets the bulk refresh policy (true, false, wait_for)
func (e *ES) WithRefresh(policy string) *ES {
	e.refresh = policy
	return e
}

// Name implements domain.Sink
func (*ES) Name() string { return "elasticsearch" }

// EnsureIndex creates the index with its mapping when missing
func (e *ES) EnsureIndex(ctx context.Context) error {
	res, err := esapi.IndicesExistsRequest{Index: []string{e.index}}.Do(ctx, e.es)
	if err != nil {
		return perr.Wrap(err, perr.ErrorCodeStore, "es sink: index exists")
	}
	_ = res.Body.Close()
	if res.StatusCode == http.StatusOK {
		return nil
	}
	if res.StatusCode != http.StatusNotFound {
		return perr.Storef("es sink: index exists: %s", res.Status())
	}

	res, err = esapi.IndicesCreateRequest{
		Index: e.index,
		Body:  strings.NewReader(esMapping),
	}.Do(ctx, e.es)
	if err != nil {
		return perr.Wrap(err, perr.ErrorCodeStore, "es sink: create index")
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		return perr.Storef("es sink: create index: %s", res.String())
	}
	return nil
}

// Save implements domain.Sink
func (e *ES) Save(ctx context.Context, s domain.Summary) error {
	for i := 0; i < len(s.Names); i += esChunk {
		end := min(i+esChunk, len(s.Names))
		if err := e.bulk(ctx, s, s.Names[i:end]); err != nil {
			return err
		}
	}
	return nil
}

func (e *ES) bulk(ctx context.Context, s domain.Summary, names []string) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, n := range names {
		var a esAction
		a.Index.Index = e.index
		a.Index.ID = DocID(s.Variant, n)
		if err := enc.Encode(a); err != nil {
			return perr.Wrap(err, perr.ErrorCodeJSON, "es sink: encode action")
		}
		doc := esDoc{Variant: s.Variant, Name: n, Prefix: firstRune(n), RunID: s.RunID, Length: len([]rune(n))}
		if err := enc.Encode(doc); err != nil {
			return perr.Wrap(err, perr.ErrorCodeJSON, "es sink: encode doc")
		}
	}

	res, err := esapi.BulkRequest{
		Index:   e.index,
		Body:    &buf,
		Refresh: e.refresh,
	}.Do(ctx, e.es)
	if err != nil {
		return perr.Wrap(err, perr.ErrorCodeStore, "es sink: bulk")
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		return perr.Storef("es sink: bulk: %s", res.String())
	}

	var br bulkResponse
	if err := json.NewDecoder(res.Body).Decode(&br); err != nil {
		return perr.Wrap(err, perr.ErrorCodeMalformed, "es sink: decode bulk response")
	}
	if !br.Errors {
		return nil
	}
	failed := 0
	first := ""
	for _, item := range br.Items {
		for _, r := range item {
			if r.Error == nil {
				continue
			}
			if failed == 0 {
				first = r.ID + ": " + r.Error.Type + " " + r.Error.Reason
			}
			failed++
		}
	}
	return perr.Storef("es sink: %d of %d documents rejected, first %s", failed, len(names), first)
}

// DocID is the document id of a name within a variant
func DocID(variant, name string) string { return variant + ":" + name }

func firstRune(s string) string {
	for _, r := range s {
		return string(r)
	}
	return ""
}
