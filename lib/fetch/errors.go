package fetch

import "fmt"

type Kind string

const (
	// network error or timeout, no usable response
	KindConnectionFailure Kind = "connection_failure"
	// the origin answered with a non-2xx status or an error payload
	KindUpstreamError Kind = "upstream_error"
	// a selector or decoding mismatch on a single field
	KindParseFailure Kind = "parse_failure"
	// a continuation pointer that never went away
	KindPaginationLoop Kind = "pagination_loop"
)

type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func newError(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}
