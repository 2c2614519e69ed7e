package adc

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"github.com/itohio/dietemp/pkg/calib"
	"github.com/itohio/dietemp/pkg/wire"
)

var channelSymbols = map[Channel]string{
	Temperature: wire.Temperature,
	Reference:   wire.Reference,
}

var (
	// ErrTimeout is returned when the device does not answer in time.
	ErrTimeout = errors.New("device reply timeout")
	// ErrOverrun is returned when a reply line exceeds the protocol's limit.
	ErrOverrun = errors.New("device reply too long")
)

func readRequest(ch Channel) (string, error) {
	sym, ok := channelSymbols[ch]
	if !ok {
		return "", fmt.Errorf("unknown channel %s", ch)
	}
	return wire.ReadRequest(sym), nil
}

func constantRequest(id calib.ID) string {
	return wire.ConstantRequest(uint8(id))
}

// client runs request/reply exchanges over a byte stream whose reads
// return (0, nil) when nothing arrived within the port's poll timeout.
type client struct {
	rw      io.ReadWriter
	timeout time.Duration
	pending []byte
}

func newClient(rw io.ReadWriter, timeout time.Duration) *client {
	if timeout <= 0 {
		timeout = time.Second
	}
	return &client{rw: rw, timeout: timeout}
}

// transact sends req and returns the value of the reply carrying its tag.
// Replies to earlier requests that arrive late are dropped.
func (c *client) transact(ctx context.Context, req string) (uint16, error) {
	tag, err := wire.Tag(req)
	if err != nil {
		return 0, fmt.Errorf("invalid request %q: %w", req, err)
	}
	if _, err := io.WriteString(c.rw, req+"\n"); err != nil {
		return 0, fmt.Errorf("failed to send %q: %w", req, err)
	}

	deadline := time.Now().Add(c.timeout)
	for {
		line, err := c.readLine(ctx, deadline)
		if err != nil {
			c.pending = c.pending[:0]
			return 0, err
		}
		v, err := wire.ParseReply(tag, line)
		if errors.Is(err, wire.ErrStale) {
			log.Printf("Dropping stale reply %q to %q", line, req)
			continue
		}
		return v, err
	}
}

func (c *client) readLine(ctx context.Context, deadline time.Time) (string, error) {
	var chunk [64]byte
	for {
		if i := bytes.IndexByte(c.pending, '\n'); i >= 0 {
			line := string(c.pending[:i])
			c.pending = c.pending[i+1:]
			if strings.TrimSpace(line) == "" {
				continue
			}
			return line, nil
		}
		if len(c.pending) > wire.MaxLine {
			return "", ErrOverrun
		}
		if err := ctx.Err(); err != nil {
			return "", err
		}
		if time.Now().After(deadline) {
			return "", ErrTimeout
		}
		n, err := c.rw.Read(chunk[:])
		c.pending = append(c.pending, chunk[:n]...)
		if err != nil {
			return "", fmt.Errorf("failed to read reply: %w", err)
		}
	}
}
