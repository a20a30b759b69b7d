/*
Package req binds HTTP request bodies into Go values.
*/
package req

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"videosdk/internal/pkg/errs"
)

// MaxJSONBodySize caps JSON request bodies. Token requests are a few hundred bytes.
const MaxJSONBodySize int64 = 64 << 10

// BindJSON decodes exactly one JSON document from the request body into dst.
// Unknown fields, trailing data and oversize bodies are rejected.
func BindJSON(w http.ResponseWriter, r *http.Request, dst any) *errs.CustomError {
	contentType := r.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "application/json") {
		return errs.NewError(errs.ErrUnsupportedMediaType)
	}

	r.Body = http.MaxBytesReader(w, r.Body, MaxJSONBodySize)

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return errs.NewError(errs.ErrRequestEntityTooLarge)
		}
		return errs.NewError(errs.ErrInvalidJSONFormat)
	}

	if decoder.More() {
		return errs.NewError(errs.ErrExtraContentInBody)
	}

	return nil
}
