// Package stream implements the live-update channel of the messaging
// client over a websocket. Server frames are activity hints only: they
// never carry plaintext, the client re-fetches and decrypts locally.
package stream

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dmitrijs2005/chatkeeper/internal/client/models"
	"github.com/dmitrijs2005/chatkeeper/internal/common"
	"github.com/dmitrijs2005/chatkeeper/internal/logging"
	"github.com/gorilla/websocket"
)

// State is the connection lifecycle state.
type State int32

const (
	StateClosed State = iota
	StateConnecting
	StateOpen
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	default:
		return "closed"
	}
}

// ErrNotOpen is returned when a send is attempted while the channel is
// not open. Callers fall back to the request/response path.
var ErrNotOpen = fmt.Errorf("stream channel not open: %w", common.ErrTransport)

// ActivityFunc is invoked for every server activity hint.
type ActivityFunc func(conversationID string)

// Option configures a Channel.
type Option func(*Channel)

// WithLogger sets the channel logger.
func WithLogger(log logging.Logger) Option {
	return func(c *Channel) { c.log = log }
}

// WithReconnect bounds automatic reconnection after an unexpected close:
// at most attempts tries, with exponentially growing delays starting at
// backoff. Zero attempts disables reconnection.
func WithReconnect(attempts int, backoff time.Duration) Option {
	return func(c *Channel) {
		c.reconnectAttempts = attempts
		c.reconnectBackoff = backoff
	}
}

// WithOnActivity registers the activity hint callback.
func WithOnActivity(fn ActivityFunc) Option {
	return func(c *Channel) { c.onActivity = fn }
}

// Channel is a websocket connection with a Connecting/Open/Closed
// lifecycle and a bounded reconnect policy. All exported methods are safe
// for concurrent use.
type Channel struct {
	url        string
	log        logging.Logger
	onActivity ActivityFunc

	reconnectAttempts int
	reconnectBackoff  time.Duration

	state atomic.Int32

	mu         sync.Mutex // guards conn, subscribed, closing
	conn       *websocket.Conn
	subscribed string
	closing    bool
}

// NewChannel constructs a Channel for the given websocket URL. The
// channel starts Closed; call Connect to open it.
func NewChannel(url string, opts ...Option) *Channel {
	c := &Channel{
		url:              url,
		reconnectBackoff: time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.log == nil {
		c.log = noopLogger{}
	}
	return c
}

// State returns the current connection state.
func (c *Channel) State() State {
	return State(c.state.Load())
}

// Connect dials the server and starts the read loop. If a conversation
// was subscribed before a reconnect, the subscription is replayed.
func (c *Channel) Connect(ctx context.Context) error {
	c.state.Store(int32(StateConnecting))

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.url, nil)
	if err != nil {
		c.state.Store(int32(StateClosed))
		return fmt.Errorf("dial %s: %w", c.url, common.ErrTransport)
	}

	c.mu.Lock()
	c.conn = conn
	resubscribe := c.subscribed
	c.mu.Unlock()
	c.state.Store(int32(StateOpen))

	c.log.Info(ctx, "stream channel open")

	if resubscribe != "" {
		if err := c.Subscribe(resubscribe); err != nil {
			c.log.Warn(ctx, "resubscribe failed", "conversation", resubscribe)
		}
	}

	go c.readLoop(conn)
	return nil
}

// Subscribe asks the server for activity hints about one conversation.
// The subscription survives reconnects until replaced or Unsubscribe is
// called. Subscribing while closed only records the conversation.
func (c *Channel) Subscribe(conversationID string) error {
	c.mu.Lock()
	c.subscribed = conversationID
	conn := c.conn
	c.mu.Unlock()

	if c.State() != StateOpen || conn == nil {
		return nil
	}
	return c.writeFrame(models.StreamFrame{
		Type:           models.FrameTypeSubscribe,
		ConversationID: conversationID,
	})
}

// Unsubscribe clears the recorded subscription (conversation switch or
// logout teardown).
func (c *Channel) Unsubscribe() {
	c.mu.Lock()
	c.subscribed = ""
	c.mu.Unlock()
}

// SendMessage transmits an encrypted message frame. Returns ErrNotOpen
// when the channel is not open at send time; the caller then uses the
// request/response fallback.
func (c *Channel) SendMessage(frame models.StreamFrame) error {
	if c.State() != StateOpen {
		return ErrNotOpen
	}
	return c.writeFrame(frame)
}

func (c *Channel) writeFrame(frame models.StreamFrame) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return ErrNotOpen
	}
	if err := c.conn.WriteJSON(frame); err != nil {
		return fmt.Errorf("write frame: %w", common.ErrTransport)
	}
	return nil
}

// Close shuts the channel down and disables reconnection.
func (c *Channel) Close() error {
	c.mu.Lock()
	c.closing = true
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()

	c.state.Store(int32(StateClosed))

	if conn != nil {
		return conn.Close()
	}
	return nil
}

func (c *Channel) readLoop(conn *websocket.Conn) {
	for {
		var frame models.StreamFrame
		if err := conn.ReadJSON(&frame); err != nil {
			c.handleDisconnect(conn)
			return
		}

		if frame.Type == models.FrameTypeActivity && c.onActivity != nil {
			c.onActivity(frame.ConversationID)
		}
	}
}

func (c *Channel) handleDisconnect(conn *websocket.Conn) {
	ctx := context.Background()

	c.mu.Lock()
	closing := c.closing
	if c.conn == conn {
		c.conn = nil
	}
	c.mu.Unlock()

	c.state.Store(int32(StateClosed))
	_ = conn.Close()

	if closing {
		return
	}

	c.log.Warn(ctx, "stream channel closed unexpectedly")

	backoff := c.reconnectBackoff
	for attempt := 1; attempt <= c.reconnectAttempts; attempt++ {
		time.Sleep(backoff)
		backoff *= 2

		c.mu.Lock()
		closing = c.closing
		c.mu.Unlock()
		if closing {
			return
		}

		if err := c.Connect(ctx); err == nil {
			return
		}
		c.log.Warn(ctx, "stream reconnect failed", "attempt", attempt)
	}
}

// noopLogger keeps the channel usable without a configured logger.
type noopLogger struct{}

func (noopLogger) Debug(context.Context, string, ...any) {}
func (noopLogger) Info(context.Context, string, ...any)  {}
func (noopLogger) Warn(context.Context, string, ...any)  {}
func (noopLogger) Error(context.Context, string, ...any) {}
func (n noopLogger) With(...any) logging.Logger          { return n }
