// Package projerr defines the error kinds raised by the projection engine.
//
// Every failure aborts the whole run. Callers only need to know the kind
// (configuration vs. domain) and which quantity, year or parameter was at
// fault; presentation is left to the command layer.
package projerr

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies an engine failure.
type Kind int

const (
	KindUnknown Kind = iota
	// KindConfiguration covers invalid or missing variant selections,
	// scenario-mapping misses and mismatched driver representations.
	KindConfiguration
	// KindDomain covers physically invalid parameters, year-axis mismatches
	// and member-count mismatches between paired driver sources.
	KindDomain
)

func (k Kind) String() string {
	switch k {
	case KindConfiguration:
		return "configuration error"
	case KindDomain:
		return "domain error"
	default:
		return "unknown error"
	}
}

// Sentinels for errors.Is matching on kind alone.
var (
	ErrConfiguration = &Error{Kind: KindConfiguration}
	ErrDomain        = &Error{Kind: KindDomain}
)

// Error is a structured engine failure.
type Error struct {
	Kind     Kind
	Quantity string // offending quantity or driver, if any
	Year     int    // offending year, zero if not year-specific
	Param    string // offending parameter, if any
	Message  string
	Cause    error
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.String())
	var where []string
	if e.Quantity != "" {
		where = append(where, e.Quantity)
	}
	if e.Param != "" {
		where = append(where, "param "+e.Param)
	}
	if e.Year != 0 {
		where = append(where, fmt.Sprintf("year %d", e.Year))
	}
	if len(where) > 0 {
		b.WriteString(" (")
		b.WriteString(strings.Join(where, ", "))
		b.WriteString(")")
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

// Unwrap returns the underlying cause for error chain traversal.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error by kind.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Kind == t.Kind
	}
	return false
}

// Configuration creates a configuration error.
func Configuration(format string, args ...any) *Error {
	return &Error{Kind: KindConfiguration, Message: fmt.Sprintf(format, args...)}
}

// Domain creates a domain error.
func Domain(format string, args ...any) *Error {
	return &Error{Kind: KindDomain, Message: fmt.Sprintf(format, args...)}
}

// ForQuantity returns a copy of e attributed to quantity q.
func (e *Error) ForQuantity(q string) *Error {
	c := *e
	c.Quantity = q
	return &c
}

// AtYear returns a copy of e attributed to year y.
func (e *Error) AtYear(y int) *Error {
	c := *e
	c.Year = y
	return &c
}

// ForParam returns a copy of e attributed to parameter p.
func (e *Error) ForParam(p string) *Error {
	c := *e
	c.Param = p
	return &c
}

// KindOf extracts the kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return KindUnknown
}
