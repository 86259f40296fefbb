package entity

import (
	"errors"
	"fmt"
	"strings"
)

// Error kinds. Every failure of an interaction wraps exactly one of them.
var (
	ErrNoImage       = errors.New("no image provided")
	ErrConfiguration = errors.New("missing configuration")
	ErrDecode        = errors.New("image decode failed")
	ErrTransport     = errors.New("transport failure")
	ErrProtocol      = errors.New("unexpected response status")
	ErrParse         = errors.New("malformed analysis response")
)

// AnalysisError carries the failing operation and, for protocol errors, the
// HTTP status. It unwraps to both its kind and its cause.
type AnalysisError struct {
	Kind       error
	Op         string
	StatusCode int
	Err        error
}

// NewAnalysisError wraps err under the given kind.
func NewAnalysisError(kind error, op string, err error) *AnalysisError {
	return &AnalysisError{Kind: kind, Op: op, Err: err}
}

func (e *AnalysisError) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	b.WriteString(e.Kind.Error())
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, " %d", e.StatusCode)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *AnalysisError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// KindOf returns a short machine-readable label for err.
func KindOf(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNoImage):
		return "no_image"
	case errors.Is(err, ErrConfiguration):
		return "configuration"
	case errors.Is(err, ErrDecode):
		return "decode"
	case errors.Is(err, ErrTransport):
		return "transport"
	case errors.Is(err, ErrProtocol):
		return "protocol"
	case errors.Is(err, ErrParse):
		return "parse"
	default:
		return "internal"
	}
}
