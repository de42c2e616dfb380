package handlers

import (
	"context"

	"github.com/bkante/entrepot/internal/domain/models"
	"github.com/bkante/entrepot/internal/scanner"
)

type ctxKey int

const (
	ctxKeyScanCode ctxKey = iota
	ctxKeyDecision
)

// withScanCode attaches the code supplied in the request body, so the
// request-backed scanner can hand it to the workflow.
func withScanCode(ctx context.Context, code string) context.Context {
	return context.WithValue(ctx, ctxKeyScanCode, code)
}

// withDecision attaches the operator's confirmation flag from the request.
func withDecision(ctx context.Context, accepted bool) context.Context {
	return context.WithValue(ctx, ctxKeyDecision, accepted)
}

// RequestScanner implements scanner.Scanner by reading the code the HTTP
// client already scanned on its side. A request without a code yields
// ErrNoCode.
type RequestScanner struct{}

// Scan implements scanner.Scanner.
func (RequestScanner) Scan(ctx context.Context) (string, error) {
	code, ok := ctx.Value(ctxKeyScanCode).(string)
	if !ok || code == "" {
		return "", scanner.ErrNoCode
	}
	return code, nil
}

// RequestDecider implements workflow.Decider from the confirmation flag
// carried on the request. A request without the flag counts as a decline,
// so nothing is mutated without an explicit confirmation.
type RequestDecider struct{}

// Decide implements workflow.Decider.
func (RequestDecider) Decide(ctx context.Context, _ models.DecisionRequest) bool {
	accepted, ok := ctx.Value(ctxKeyDecision).(bool)
	return ok && accepted
}
