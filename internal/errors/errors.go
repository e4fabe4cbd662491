package errors

import (
	stderrors "errors"
	"fmt"
	"time"
)

// Kind classifies an error by how the backtest must react to it.
type Kind string

const (
	// KindDataUnavailable covers missing files, empty series and short history. Never fatal.
	KindDataUnavailable Kind = "DATA_UNAVAILABLE"
	// KindComputation covers unexpected failures inside indicator math. The instrument/date is skipped.
	KindComputation Kind = "COMPUTATION"
	// KindConfiguration covers invalid parameters. Aborts the run before the loop starts.
	KindConfiguration Kind = "CONFIG"
)

// Error is a categorized error with the context needed for a diagnostic log line.
type Error struct {
	Kind       Kind
	Component  string
	Operation  string
	Instrument string
	Date       time.Time
	Message    string
	Underlying error
}

// Error implements the error interface
func (e *Error) Error() string {
	msg := fmt.Sprintf("[%s:%s] %s", e.Kind, e.Component, e.Operation)
	if e.Instrument != "" {
		msg += " " + e.Instrument
	}
	if !e.Date.IsZero() {
		msg += " @" + e.Date.Format("2006-01-02")
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Underlying != nil {
		msg += ": " + e.Underlying.Error()
	}
	return msg
}

// Unwrap returns the underlying error for error unwrapping
func (e *Error) Unwrap() error {
	return e.Underlying
}

// Is matches another *Error by kind, so errors.Is(err, &Error{Kind: KindConfiguration}) works.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Component == "" || t.Component == e.Component)
}

// IsFatal reports whether the run must stop.
func (e *Error) IsFatal() bool {
	return e.Kind == KindConfiguration
}

// WithInstrument attaches the instrument the error concerns.
func (e *Error) WithInstrument(id string) *Error {
	e.Instrument = id
	return e
}

// WithDate attaches the evaluation date the error concerns.
func (e *Error) WithDate(day time.Time) *Error {
	e.Date = day
	return e
}

// DataUnavailable builds a KindDataUnavailable error.
func DataUnavailable(component, operation, message string) *Error {
	return &Error{Kind: KindDataUnavailable, Component: component, Operation: operation, Message: message}
}

// Computation wraps err as a KindComputation error.
func Computation(component, operation string, err error) *Error {
	return &Error{Kind: KindComputation, Component: component, Operation: operation, Underlying: err}
}

// Configuration builds a KindConfiguration error.
func Configuration(component, operation, message string) *Error {
	return &Error{Kind: KindConfiguration, Component: component, Operation: operation, Message: message}
}

// Wrap attaches a kind and context to an arbitrary error. A nil err stays nil.
func Wrap(err error, kind Kind, component, operation string) *Error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Component: component, Operation: operation, Underlying: err}
}

// KindOf returns the kind of the first *Error in the chain. Unknown errors are treated as
// computation failures.
func KindOf(err error) Kind {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Kind
	}
	return KindComputation
}

// IsFatal reports whether err should abort the run.
func IsFatal(err error) bool {
	var e *Error
	return stderrors.As(err, &e) && e.IsFatal()
}

// IsDataUnavailable reports whether err means "no data" rather than a failure.
func IsDataUnavailable(err error) bool {
	return err != nil && KindOf(err) == KindDataUnavailable
}

// Is, As and New mirror the standard library so callers need a single import.
func Is(err, target error) bool      { return stderrors.Is(err, target) }
func As(err error, target any) bool { return stderrors.As(err, target) }
func New(text string) error         { return stderrors.New(text) }

// Stats tallies non-fatal anomalies seen during a run.
type Stats struct {
	Total     int
	ByKind    map[Kind]int
	Recent    []*Error
	MaxRecent int
}

// NewStats creates a tally that keeps the last maxRecent errors.
func NewStats(maxRecent int) *Stats {
	return &Stats{
		ByKind:    make(map[Kind]int),
		Recent:    make([]*Error, 0, maxRecent),
		MaxRecent: maxRecent,
	}
}

// Record adds err to the tally. Errors that are not *Error count as computation failures.
func (s *Stats) Record(err error) {
	if err == nil {
		return
	}
	var e *Error
	if !stderrors.As(err, &e) {
		e = Wrap(err, KindComputation, "unknown", "unknown")
	}
	s.Total++
	s.ByKind[e.Kind]++
	if s.MaxRecent <= 0 {
		return
	}
	s.Recent = append(s.Recent, e)
	if len(s.Recent) > s.MaxRecent {
		s.Recent = s.Recent[1:]
	}
}

// Count returns how many errors of the given kind were recorded.
func (s *Stats) Count(kind Kind) int {
	return s.ByKind[kind]
}
