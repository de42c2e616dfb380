// Package scanner abstracts the code-reading hardware. Exactly one
// implementation is selected at startup; the workflow only consumes the
// decoded text and never branches on the host platform.
package scanner

import (
	"context"
	"errors"
)

// ErrTimeout indicates no code was decoded before the scan deadline.
var ErrTimeout = errors.New("scan timed out")

// ErrNoCode indicates the scan completed without detecting a code.
var ErrNoCode = errors.New("no code detected")

// Scanner reads one code and returns its decoded text.
type Scanner interface {
	Scan(ctx context.Context) (string, error)
}

// Func adapts a plain function to the Scanner interface.
type Func func(ctx context.Context) (string, error)

// Scan implements Scanner.
func (f Func) Scan(ctx context.Context) (string, error) { return f(ctx) }
