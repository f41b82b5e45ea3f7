package gateway

import "fmt"

// Status classifies the outcome of a gateway call.
type Status int

const (
	// StatusOK means the call succeeded and Value is populated.
	StatusOK Status = iota
	// StatusTimeout means the call exceeded its deadline.
	StatusTimeout
	// StatusHTTP means the backend answered with a non-2xx code (see Code).
	StatusHTTP
	// StatusDecode means the response body could not be decoded.
	StatusDecode
	// StatusTransport covers connection-level failures.
	StatusTransport
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusTimeout:
		return "timeout"
	case StatusHTTP:
		return "http"
	case StatusDecode:
		return "decode"
	case StatusTransport:
		return "transport"
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// Result carries either a value or a typed failure reason. Callers that do
// not care about the reason treat any non-ok status uniformly as absence.
type Result[T any] struct {
	Value  T
	Status Status
	// Code is the HTTP status code when Status is StatusHTTP.
	Code int
	Err  error
}

// OK reports whether the call produced a usable value.
func (r Result[T]) OK() bool { return r.Status == StatusOK }

func ok[T any](v T) Result[T] {
	return Result[T]{Value: v, Status: StatusOK}
}

func fail[T any](status Status, code int, err error) Result[T] {
	return Result[T]{Status: status, Code: code, Err: err}
}
