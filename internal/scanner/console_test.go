package scanner

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestConsoleScan(t *testing.T) {
	c := NewConsole(strings.NewReader("PAL-001\n  B-03  \n"))
	ctx := context.Background()

	code, err := c.Scan(ctx)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if code != "PAL-001" {
		t.Errorf("code = %q, want %q", code, "PAL-001")
	}

	code, err = c.Scan(ctx)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if code != "B-03" {
		t.Errorf("code = %q, want trimmed %q", code, "B-03")
	}
}

func TestConsoleScanEmptyLine(t *testing.T) {
	c := NewConsole(strings.NewReader("\n"))
	if _, err := c.Scan(context.Background()); !errors.Is(err, ErrNoCode) {
		t.Fatalf("err = %v, want ErrNoCode", err)
	}
}

func TestConsoleScanEOF(t *testing.T) {
	c := NewConsole(strings.NewReader(""))
	if _, err := c.Scan(context.Background()); !errors.Is(err, ErrNoCode) {
		t.Fatalf("err = %v, want ErrNoCode", err)
	}
}

func TestConsoleScanContextTimeout(t *testing.T) {
	blocked, cancelRead := context.WithCancel(context.Background())
	defer cancelRead()
	c := NewConsole(blockingReader{unblock: blocked.Done()})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if _, err := c.Scan(ctx); !errors.Is(err, ErrTimeout) {
		t.Fatalf("err = %v, want ErrTimeout", err)
	}
}

type blockingReader struct {
	unblock <-chan struct{}
}

func (r blockingReader) Read([]byte) (int, error) {
	<-r.unblock
	return 0, errors.New("reader released")
}
