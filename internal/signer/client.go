// Package signer submits execution orders to the privileged signer process
// over a unix domain socket. The signer holds the keys, signs and broadcasts
// the transaction; this process only ever sees acceptance or rejection.
package signer

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/fly-arb/fly/internal/domain"
)

// maxFrameSize bounds a response frame. A signer answering with more than
// this is broken or hostile.
const maxFrameSize = 1 << 20

// Config holds the socket connection parameters.
type Config struct {
	SocketPath   string
	DialTimeout  time.Duration
	WriteTimeout time.Duration
}

// Client implements domain.OrderSink over a unix socket. Frames are a 4-byte
// big-endian length followed by a JSON body, in both directions. The
// connection is lazy: dialed on first submit and redialed once per submit
// after an I/O failure.
type Client struct {
	cfg    Config
	logger *slog.Logger

	mu   sync.Mutex
	conn net.Conn
}

// New creates a signer client. No connection is made until the first Submit.
func New(cfg Config, logger *slog.Logger) *Client {
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = 5 * time.Second
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 5 * time.Second
	}
	return &Client{
		cfg:    cfg,
		logger: logger.With(slog.String("component", "signer")),
	}
}

// Submit sends one order and waits for the signer's verdict. A dead
// connection is redialed once; a second failure surfaces to the caller.
func (c *Client) Submit(ctx context.Context, order domain.Order) (domain.OrderResult, error) {
	if len(order.Legs) == 0 || order.AmountIn == nil {
		return domain.OrderResult{}, fmt.Errorf("signer: order %s: %w", order.ID, domain.ErrInvalidOrder)
	}

	payload, err := json.Marshal(order)
	if err != nil {
		return domain.OrderResult{}, fmt.Errorf("signer: marshal order %s: %w", order.ID, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	resp, err := c.roundTrip(ctx, payload)
	if err != nil {
		// The socket may have died since the last submit. Drop it and
		// retry over a fresh connection before giving up.
		c.logger.Warn("signer round trip failed, redialing",
			slog.String("order_id", order.ID),
			slog.String("error", err.Error()))
		c.closeLocked()
		if resp, err = c.roundTrip(ctx, payload); err != nil {
			return domain.OrderResult{}, fmt.Errorf("signer: submit %s: %w", order.ID, err)
		}
	}

	var result domain.OrderResult
	if err := json.Unmarshal(resp, &result); err != nil {
		return domain.OrderResult{}, fmt.Errorf("signer: malformed response for %s: %w", order.ID, err)
	}
	if result.OrderID == "" {
		result.OrderID = order.ID
	}
	if result.Status == domain.OrderStatusRejected {
		return result, fmt.Errorf("signer: order %s: %w: %s", order.ID, domain.ErrSignerRejected, result.Message)
	}
	return result, nil
}

// Close shuts the connection down.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closeLocked()
	return nil
}

func (c *Client) closeLocked() {
	if c.conn != nil {
		_ = c.conn.Close()
		c.conn = nil
	}
}

// roundTrip writes one frame and reads one frame over the cached connection,
// dialing it first if needed. Caller must hold c.mu.
func (c *Client) roundTrip(ctx context.Context, payload []byte) ([]byte, error) {
	if c.conn == nil {
		dialer := net.Dialer{Timeout: c.cfg.DialTimeout}
		conn, err := dialer.DialContext(ctx, "unix", c.cfg.SocketPath)
		if err != nil {
			return nil, fmt.Errorf("dial %s: %w", c.cfg.SocketPath, err)
		}
		c.conn = conn
	}

	deadline := time.Now().Add(c.cfg.WriteTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := c.conn.SetDeadline(deadline); err != nil {
		return nil, err
	}

	if err := writeFrame(c.conn, payload); err != nil {
		return nil, fmt.Errorf("write frame: %w", err)
	}
	resp, err := readFrame(c.conn)
	if err != nil {
		return nil, fmt.Errorf("read frame: %w", err)
	}
	return resp, nil
}

// writeFrame writes a 4-byte big-endian length followed by the body.
func writeFrame(w io.Writer, body []byte) error {
	var header [4]byte
	binary.BigEndian.PutUint32(header[:], uint32(len(body)))
	if _, err := w.Write(header[:]); err != nil {
		return err
	}
	_, err := w.Write(body)
	return err
}

// readFrame reads one length-prefixed frame.
func readFrame(r io.Reader) ([]byte, error) {
	var header [4]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, err
	}
	size := binary.BigEndian.Uint32(header[:])
	if size > maxFrameSize {
		return nil, fmt.Errorf("frame of %d bytes exceeds limit", size)
	}
	body := make([]byte, size)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, err
	}
	return body, nil
}

// Compile-time interface check.
var _ domain.OrderSink = (*Client)(nil)
