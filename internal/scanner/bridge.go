package scanner

import (
	"context"
	"time"

	"github.com/bkante/entrepot/pkg/clients/scanbridge"
)

// Bridge drives a networked scan head through its HTTP API and maps the
// device's outcomes onto the scanner sentinel errors.
type Bridge struct {
	client  scanbridge.Client
	timeout time.Duration
}

// NewBridge wraps a scan-head client. A zero timeout falls back to 10s.
func NewBridge(client scanbridge.Client, timeout time.Duration) *Bridge {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Bridge{client: client, timeout: timeout}
}

// Scan triggers one scan on the device.
func (b *Bridge) Scan(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	resp, err := b.client.ReadCode(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return "", ErrTimeout
		}
		return "", err
	}
	if resp.TimedOut {
		return "", ErrTimeout
	}
	if resp.Code == "" {
		return "", ErrNoCode
	}
	return resp.Code, nil
}
