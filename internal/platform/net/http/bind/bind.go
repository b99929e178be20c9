// Package bind decodes and validates JSON request bodies for handlers
package bind

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"reflect"

	perr "lexiscan/internal/platform/errors"
	"lexiscan/internal/platform/logger"
	"lexiscan/internal/platform/validate"
)

// Options controls parsing behavior
type Options struct {
	MaxBytes        int64 // default 1MB
	DisallowUnknown bool  // default true
	AllowEmptyBody  bool  // default false
}

// DefaultOptions is what ParseJSON uses when none are given
func DefaultOptions() Options {
	return Options{MaxBytes: 1 << 20, DisallowUnknown: true}
}

// jsonMore is a seam so tests can force the trailing data branch
var jsonMore = func(dec *json.Decoder) bool { return dec.More() }

// ParseJSON decodes JSON into T, validates it and maps failures to project errors
func ParseJSON[T any](r *http.Request, opts ...Options) (T, error) {
	var zero T
	o := DefaultOptions()
	if len(opts) > 0 {
		o = opts[0]
	}
	if r.Body == nil {
		if o.AllowEmptyBody {
			return zero, nil
		}
		return zero, perr.JSONErrf("empty body")
	}
	defer func() {
		if err := r.Body.Close(); err != nil {
			logger.Named("bind").Debug().Err(err).Msg("close request body")
		}
	}()

	var body io.Reader = r.Body
	if o.MaxBytes > 0 {
		body = io.LimitReader(r.Body, o.MaxBytes)
	}
	dec := json.NewDecoder(body)
	if o.DisallowUnknown {
		dec.DisallowUnknownFields()
	}

	var dst T
	if err := dec.Decode(&dst); err != nil {
		if errors.Is(err, io.EOF) {
			if o.AllowEmptyBody {
				return dst, nil
			}
			return zero, perr.JSONErrf("empty body")
		}
		return zero, perr.JSONErrf("invalid JSON: %v", err)
	}
	if jsonMore(dec) {
		return zero, perr.JSONErrf("unexpected trailing data")
	}
	if reflect.Indirect(reflect.ValueOf(dst)).Kind() != reflect.Struct {
		return dst, nil
	}
	if err := validate.Struct(dst); err != nil {
		return zero, err
	}
	return dst, nil
}
