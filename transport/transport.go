// Package transport dials a WeeChat relay and reassembles whole
// length-prefixed frames from the underlying byte stream, fixing the
// one-recv-per-frame assumption that the original client made (see
// SPEC_FULL.md's design notes).
package transport

import (
	"bufio"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/weechat-go/relay/message"
	"github.com/weechat-go/relay/metrics"
)

// Config configures a relay connection.
type Config struct {
	// Addr is the "host:port" of the relay.
	Addr string
	// TLSConfig, if non-nil, causes Dial to establish a TLS connection
	// instead of a plain TCP one.
	TLSConfig *tls.Config
	// DialTimeout bounds how long Dial waits to establish the
	// underlying connection. Zero means no timeout.
	DialTimeout time.Duration
}

// Conn is a dialed relay connection that knows how to hand back whole
// frames.
type Conn struct {
	net.Conn
	r        *bufio.Reader
	lastRead time.Time
}

// NewConn wraps an already-established net.Conn (e.g. one obtained from a
// custom dialer, or a net.Pipe() in tests) as a relay Conn.
func NewConn(c net.Conn) *Conn {
	return &Conn{Conn: c, r: bufio.NewReaderSize(c, 64*1024)}
}

// Dial connects to the relay named by cfg.Addr, optionally over TLS.
func Dial(ctx context.Context, cfg Config) (*Conn, error) {
	d := net.Dialer{Timeout: cfg.DialTimeout}
	var c net.Conn
	var err error
	if cfg.TLSConfig != nil {
		c, err = tls.DialWithDialer(&d, "tcp", cfg.Addr, cfg.TLSConfig)
	} else {
		c, err = d.DialContext(ctx, "tcp", cfg.Addr)
	}
	if err != nil {
		return nil, fmt.Errorf("transport: dial %q: %w", cfg.Addr, err)
	}
	return NewConn(c), nil
}

// NetConn unwraps the underlying *net.TCPConn, looking through a *tls.Conn
// if TLS is in use. It returns nil, false if no TCPConn is reachable
// (e.g. a non-TCP net.Conn was supplied to a test).
func (c *Conn) NetConn() (*net.TCPConn, bool) {
	inner := c.Conn
	if tc, ok := inner.(*tls.Conn); ok {
		inner = tc.NetConn()
	}
	tcp, ok := inner.(*net.TCPConn)
	return tcp, ok
}

// Next blocks until one full frame has arrived, reassembling it from the
// stream using the 4-byte big-endian length prefix, and decodes it.
// Next returns io.EOF when the connection is closed cleanly between
// frames.
func (c *Conn) Next(ctx context.Context) (*message.DecodedMessage, error) {
	type result struct {
		frame []byte
		err   error
	}
	done := make(chan result, 1)
	go func() {
		frame, err := c.readFrame()
		done <- result{frame, err}
	}()

	select {
	case <-ctx.Done():
		c.Conn.Close()
		<-done
		return nil, ctx.Err()
	case res := <-done:
		if res.err != nil {
			metrics.ErrorCount.WithLabelValues("transport_read").Inc()
			return nil, res.err
		}
		now := time.Now()
		if !c.lastRead.IsZero() {
			metrics.ReadLatencyHistogram.Observe(now.Sub(c.lastRead).Seconds())
		}
		c.lastRead = now
		return message.Decode(res.frame)
	}
}

// readFrame reads exactly one frame: the 4-byte length, then the
// remaining length-4 bytes, and returns the whole frame (length prefix
// included) ready for message.Decode.
func (c *Conn) readFrame() ([]byte, error) {
	header := make([]byte, 4)
	if _, err := io.ReadFull(c.r, header); err != nil {
		return nil, err
	}
	total := message.FrameLength(header)
	if total < 4 {
		return nil, fmt.Errorf("transport: impossible frame length %d", total)
	}
	frame := make([]byte, total)
	copy(frame, header)
	if _, err := io.ReadFull(c.r, frame[4:]); err != nil {
		return nil, err
	}
	return frame, nil
}

// Send writes a pre-rendered command line (see package command) to the
// relay.
func (c *Conn) Send(line string) error {
	_, err := io.WriteString(c.Conn, line)
	if err != nil {
		metrics.ErrorCount.WithLabelValues("transport_send").Inc()
	}
	return err
}
