package export

import (
	"context"
	"errors"

	errorslib "github.com/goliatone/go-errors"
)

// ErrorKind defines export error kinds.
type ErrorKind string

const (
	KindStoreUnavailable ErrorKind = "store_unavailable"
	KindSchemaMismatch   ErrorKind = "schema_mismatch"
	KindRender           ErrorKind = "render"
	KindOutputWrite      ErrorKind = "output_write"
	KindValidation       ErrorKind = "validation"
	KindNotFound         ErrorKind = "not_found"
	KindTimeout          ErrorKind = "timeout"
	KindCanceled         ErrorKind = "canceled"
	KindInternal         ErrorKind = "internal"
	KindNotImpl          ErrorKind = "not_implemented"
)

// ExportError wraps errors with a kind.
type ExportError struct {
	Kind ErrorKind
	Msg  string
	Err  error
}

func (e *ExportError) Error() string {
	if e.Err == nil {
		return e.Msg
	}
	return e.Msg + ": " + e.Err.Error()
}

func (e *ExportError) Unwrap() error {
	return e.Err
}

// NewError creates a new export error.
func NewError(kind ErrorKind, msg string, err error) *ExportError {
	return &ExportError{Kind: kind, Msg: msg, Err: err}
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind ErrorKind) bool {
	return err != nil && KindFromError(err) == kind
}

// MetaOriginTextCode is the go-errors metadata key written by KeepTextCode.
const MetaOriginTextCode = "origin_text_code"

// KeepTextCode records ge.TextCode in its metadata. errorslib.Wrap clones
// an existing *errorslib.Error and callers then replace TextCode on the
// clone; metadata is copied, so OriginTextCode still finds the code.
func KeepTextCode(ge *errorslib.Error) *errorslib.Error {
	if ge == nil || ge.TextCode == "" {
		return ge
	}
	return ge.WithMetadata(map[string]any{MetaOriginTextCode: ge.TextCode})
}

// OriginTextCode returns the outermost code recorded by KeepTextCode in
// err's chain, or the first go-errors text code when none was recorded.
func OriginTextCode(err error) string {
	var ge *errorslib.Error
	if !errors.As(err, &ge) {
		return ""
	}
	for cur := err; cur != nil; cur = errors.Unwrap(cur) {
		if g, ok := cur.(*errorslib.Error); ok {
			if code, ok := g.Metadata[MetaOriginTextCode].(string); ok && code != "" {
				return code
			}
		}
	}
	return ge.TextCode
}

// AsGoError maps an error into a go-errors error.
func AsGoError(err error) *errorslib.Error {
	if err == nil {
		return nil
	}

	var ge *errorslib.Error
	if errors.As(err, &ge) {
		return ge
	}

	kind := KindFromError(err)
	msg := err.Error()

	switch kind {
	case KindValidation:
		return errorslib.New(msg, errorslib.CategoryValidation).WithTextCode("validation")
	case KindSchemaMismatch:
		return errorslib.New(msg, errorslib.CategoryValidation).WithTextCode("schema_mismatch")
	case KindNotFound:
		return errorslib.New(msg, errorslib.CategoryNotFound).WithTextCode("not_found")
	case KindStoreUnavailable:
		return errorslib.New(msg, errorslib.CategoryOperation).WithTextCode("store_unavailable")
	case KindOutputWrite:
		return errorslib.New(msg, errorslib.CategoryOperation).WithTextCode("output_write")
	case KindTimeout:
		return errorslib.New(msg, errorslib.CategoryOperation).WithTextCode("timeout")
	case KindCanceled:
		return errorslib.New(msg, errorslib.CategoryOperation).WithTextCode("canceled")
	case KindNotImpl:
		return errorslib.New(msg, errorslib.CategoryOperation).WithTextCode("not_implemented")
	case KindRender:
		return errorslib.New(msg, errorslib.CategoryInternal).WithTextCode("render")
	default:
		return errorslib.New(msg, errorslib.CategoryInternal).WithTextCode("internal")
	}
}

// KindFromError maps an error to its export error kind.
func KindFromError(err error) ErrorKind {
	if err == nil {
		return ""
	}

	var exportErr *ExportError
	if errors.As(err, &exportErr) {
		return exportErr.Kind
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	if errors.Is(err, context.Canceled) {
		return KindCanceled
	}

	return KindInternal
}
