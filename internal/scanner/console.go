package scanner

import (
	"bufio"
	"context"
	"io"
	"strings"
)

// Console reads codes line by line from a reader, typically stdin. USB
// keyboard-wedge scanners present themselves as keyboards and terminate
// each code with a newline, so this also covers most handheld hardware.
type Console struct {
	reader *bufio.Reader
}

// NewConsole wraps the given input stream.
func NewConsole(r io.Reader) *Console {
	return &Console{reader: bufio.NewReader(r)}
}

// Scan blocks until one line is read or the context ends. An empty line
// yields ErrNoCode.
func (c *Console) Scan(ctx context.Context) (string, error) {
	type result struct {
		line string
		err  error
	}
	ch := make(chan result, 1)

	go func() {
		line, err := c.reader.ReadString('\n')
		ch <- result{line: line, err: err}
	}()

	select {
	case <-ctx.Done():
		return "", ErrTimeout
	case res := <-ch:
		if res.err != nil && res.err != io.EOF {
			return "", res.err
		}
		code := strings.TrimSpace(res.line)
		if code == "" {
			return "", ErrNoCode
		}
		return code, nil
	}
}
