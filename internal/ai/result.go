package ai

import "fmt"

// Status tells a caller why a result is empty.
type Status int

const (
	// StatusOK means the model answered with a usable value.
	StatusOK Status = iota
	// StatusEmpty means the model answered but found nothing.
	StatusEmpty
	// StatusUnavailable means inference is not configured.
	StatusUnavailable
	// StatusFailed means the call or its response parsing failed.
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusEmpty:
		return "empty"
	case StatusUnavailable:
		return "unavailable"
	case StatusFailed:
		return "failed"
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// Result carries a best-effort inference value. Value is always safe to use;
// on anything but StatusOK it is the zero value.
type Result[T any] struct {
	Value  T
	Status Status
	Err    error
}

// Degraded reports whether the value is empty because the service could not
// answer, as opposed to answering with nothing.
func (r Result[T]) Degraded() bool {
	return r.Status == StatusUnavailable || r.Status == StatusFailed
}

func okResult[T any](v T) Result[T] {
	return Result[T]{Value: v, Status: StatusOK}
}

func emptyResult[T any]() Result[T] {
	return Result[T]{Status: StatusEmpty}
}

func unavailable[T any]() Result[T] {
	return Result[T]{Status: StatusUnavailable}
}

func failed[T any](err error) Result[T] {
	return Result[T]{Status: StatusFailed, Err: err}
}
