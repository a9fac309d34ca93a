package server

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// ErrClosed is returned by Send after Close.
var ErrClosed = errors.New("link: client closed")

// Client is the sender end of the peer link. It dials lazily and redials on
// the next Send after a failure.
type Client struct {
	url          string
	writeTimeout time.Duration
	dialer       *websocket.Dialer
	log          zerolog.Logger

	mu     sync.Mutex
	conn   *websocket.Conn
	closed bool
}

// NewClient creates a Client for the receiver's link URL.
func NewClient(url string, writeTimeout time.Duration, log zerolog.Logger) *Client {
	if writeTimeout <= 0 {
		writeTimeout = writeWait
	}
	return &Client{
		url:          url,
		writeTimeout: writeTimeout,
		dialer:       websocket.DefaultDialer,
		log:          log.With().Str("peer", url).Logger(),
	}
}

// Connect dials the receiver unless already connected.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connectLocked(ctx)
}

func (c *Client) connectLocked(ctx context.Context) error {
	if c.closed {
		return ErrClosed
	}
	if c.conn != nil {
		return nil
	}

	conn, _, err := c.dialer.DialContext(ctx, c.url, nil)
	if err != nil {
		return fmt.Errorf("failed to dial %s: %w", c.url, err)
	}
	c.conn = conn
	c.log.Info().Msg("connected to receiver")

	// The receiver never sends data; reading processes control frames and
	// notices when the receiver goes away.
	go func() {
		for {
			if _, _, err := conn.NextReader(); err != nil {
				c.drop(conn)
				return
			}
		}
	}()
	return nil
}

// Connected reports whether a connection is open.
func (c *Client) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn != nil
}

// Send writes one wire message, dialing first if needed. On failure the
// connection is dropped so the next Send redials.
func (c *Client) Send(ctx context.Context, msg string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.connectLocked(ctx); err != nil {
		return err
	}

	_ = c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	if err := c.conn.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
		_ = c.conn.Close()
		c.conn = nil
		return fmt.Errorf("failed to send frame: %w", err)
	}
	return nil
}

func (c *Client) drop(conn *websocket.Conn) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == conn {
		_ = conn.Close()
		c.conn = nil
		if !c.closed {
			c.log.Warn().Msg("receiver connection lost")
		}
	}
}

// Close sends a close frame and shuts the connection.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	if c.conn == nil {
		return nil
	}
	conn := c.conn
	c.conn = nil
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	return conn.Close()
}
