package channel

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirechat-client/internal/core"
	"github.com/vovakirdan/wirechat-client/internal/proto"
)

// ErrNotConnected is returned by Emit while the transport is down. Emitted
// events are not queued; they are lost from the client's perspective.
var ErrNotConnected = errors.New("channel not connected")

// Options configures the websocket channel.
type Options struct {
	URL          string
	Username     string
	Token        string
	DialTimeout  time.Duration
	PingInterval time.Duration
	ReconnectMin time.Duration
	ReconnectMax time.Duration
}

// WS is the websocket implementation of core.Channel. It owns the dial,
// hello handshake, heartbeat and reconnect lifecycle, and surfaces
// connectivity transitions as events so the engine never blocks on the
// transport.
type WS struct {
	opts   Options
	selfID string
	log    *zerolog.Logger

	mu        sync.Mutex
	conn      *websocket.Conn
	connected bool

	events chan core.Event
	cancel context.CancelFunc
	done   chan struct{}
}

// NewWS builds a channel with a fresh session identity.
func NewWS(opts Options, logger *zerolog.Logger) *WS {
	if opts.DialTimeout <= 0 {
		opts.DialTimeout = 10 * time.Second
	}
	if opts.PingInterval <= 0 {
		opts.PingInterval = 30 * time.Second
	}
	if opts.ReconnectMin <= 0 {
		opts.ReconnectMin = 500 * time.Millisecond
	}
	if opts.ReconnectMax <= 0 {
		opts.ReconnectMax = 30 * time.Second
	}
	return &WS{
		opts:   opts,
		selfID: uuid.NewString(),
		log:    logger,
		events: make(chan core.Event, 64),
	}
}

// SelfID returns the stable session identity sent in the hello handshake.
func (c *WS) SelfID() string {
	return c.selfID
}

// Events yields decoded inbound events plus synthesized connectivity
// transitions. The stream closes when the channel shuts down for good.
func (c *WS) Events() <-chan core.Event {
	return c.events
}

// Connect dials the server once and starts the read/reconnect loop. The
// first dial failing is an error; later drops are handled internally.
func (c *WS) Connect(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)

	conn, err := c.dial(runCtx)
	if err != nil {
		cancel()
		return fmt.Errorf("dial %s: %w", c.opts.URL, err)
	}

	c.cancel = cancel
	c.done = make(chan struct{})
	c.setConn(conn)
	c.deliver(runCtx, core.Event{Kind: core.EventConnectivity, Connected: true})

	go c.run(runCtx, conn)
	return nil
}

// Emit marshals payload into the wire envelope and writes it, one way.
func (c *WS) Emit(ctx context.Context, event string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", event, err)
	}

	c.mu.Lock()
	conn, connected := c.conn, c.connected
	c.mu.Unlock()
	if !connected || conn == nil {
		return ErrNotConnected
	}

	return wsjson.Write(ctx, conn, proto.Outbound{Type: event, Data: data})
}

// Close tears the channel down and waits for the loop to exit.
func (c *WS) Close() error {
	if c.cancel != nil {
		c.cancel()
	}

	c.mu.Lock()
	conn := c.conn
	c.conn = nil
	c.connected = false
	c.mu.Unlock()

	if conn != nil {
		_ = conn.Close(websocket.StatusNormalClosure, "bye")
	}
	if c.done != nil {
		<-c.done
	}
	return nil
}

func (c *WS) run(ctx context.Context, conn *websocket.Conn) {
	defer close(c.done)
	defer close(c.events)

	for {
		c.readLoop(ctx, conn)

		c.setDisconnected()
		c.deliver(ctx, core.Event{Kind: core.EventConnectivity, Connected: false})
		if ctx.Err() != nil {
			return
		}

		next, err := c.redial(ctx)
		if err != nil {
			return
		}
		conn = next
		c.setConn(conn)
		c.deliver(ctx, core.Event{Kind: core.EventConnectivity, Connected: true})
	}
}

func (c *WS) readLoop(ctx context.Context, conn *websocket.Conn) {
	pingCtx, stopPing := context.WithCancel(ctx)
	defer stopPing()
	go c.pingLoop(pingCtx, conn)

	for {
		var in proto.Inbound
		if err := wsjson.Read(ctx, conn, &in); err != nil {
			if ctx.Err() == nil {
				c.log.Warn().Err(err).Msg("ws read failed")
			}
			return
		}

		ev, err := EventFromInbound(in)
		if err != nil {
			// Malformed payloads are skipped, never fatal.
			c.log.Warn().Err(err).Str("type", in.Type).Msg("drop inbound")
			continue
		}
		c.deliver(ctx, ev)
	}
}

func (c *WS) pingLoop(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(c.opts.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := conn.Ping(ctx); err != nil {
				_ = conn.Close(websocket.StatusGoingAway, "ping failed")
				return
			}
		}
	}
}

// dial opens one connection and introduces the session with hello.
func (c *WS) dial(ctx context.Context) (*websocket.Conn, error) {
	dialCtx, cancel := context.WithTimeout(ctx, c.opts.DialTimeout)
	defer cancel()

	conn, _, err := websocket.Dial(dialCtx, c.opts.URL, nil)
	if err != nil {
		return nil, err
	}

	hello, err := json.Marshal(proto.HelloData{
		ClientID: c.selfID,
		Username: c.opts.Username,
		Token:    c.opts.Token,
		Protocol: proto.ProtocolVersion,
	})
	if err != nil {
		_ = conn.Close(websocket.StatusInternalError, "hello")
		return nil, fmt.Errorf("marshal hello: %w", err)
	}
	if err := wsjson.Write(dialCtx, conn, proto.Outbound{Type: proto.OutboundTypeHello, Data: hello}); err != nil {
		_ = conn.Close(websocket.StatusInternalError, "hello")
		return nil, fmt.Errorf("send hello: %w", err)
	}
	return conn, nil
}

func (c *WS) redial(ctx context.Context) (*websocket.Conn, error) {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.opts.ReconnectMin
	bo.MaxInterval = c.opts.ReconnectMax
	bo.MaxElapsedTime = 0

	var conn *websocket.Conn
	op := func() error {
		var err error
		conn, err = c.dial(ctx)
		if err != nil {
			c.log.Debug().Err(err).Msg("redial failed")
		}
		return err
	}
	if err := backoff.Retry(op, backoff.WithContext(bo, ctx)); err != nil {
		return nil, err
	}
	return conn, nil
}

func (c *WS) setConn(conn *websocket.Conn) {
	c.mu.Lock()
	c.conn = conn
	c.connected = true
	c.mu.Unlock()
}

func (c *WS) setDisconnected() {
	c.mu.Lock()
	c.conn = nil
	c.connected = false
	c.mu.Unlock()
}

func (c *WS) deliver(ctx context.Context, ev core.Event) {
	select {
	case c.events <- ev:
	case <-ctx.Done():
	}
}
