// Package realtime implements a persistent websocket channel to a server
// pushing transaction, deposit and balance events. The channel reconnects
// with exponential backoff on unexpected closures and keeps the connection
// alive with periodic pings.
package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/paystell/paystell-daemon/pkg/scheduler"
	log "github.com/sirupsen/logrus"
)

const (
	DefaultPingInterval         = 30 * time.Second
	DefaultReconnectBaseDelay   = time.Second
	DefaultMaxReconnectAttempts = 5

	closeTimeout = time.Second
)

var (
	// ErrNotConnected is returned when sending a message while the channel
	// is not connected. The message is dropped.
	ErrNotConnected = errors.New("realtime channel is not connected")
	// ErrMissingURL ...
	ErrMissingURL = errors.New("missing realtime server url")
)

// State of the channel.
type State string

const (
	StateDisconnected State = "disconnected"
	StateConnecting   State = "connecting"
	StateConnected    State = "connected"
	StateReconnecting State = "reconnecting"
	// StateOffline is reached after exhausting the reconnect attempts. The
	// channel stays offline until Connect is called again.
	StateOffline State = "offline"
)

// Status is a snapshot of the channel state.
type Status struct {
	State             State `json:"state"`
	IsConnected       bool  `json:"isConnected"`
	IsConnecting      bool  `json:"isConnecting"`
	ReconnectAttempts int   `json:"reconnectAttempts"`
}

// Conn is the subset of *websocket.Conn used by the channel.
type Conn interface {
	ReadMessage() (int, []byte, error)
	WriteMessage(messageType int, data []byte) error
	WriteControl(messageType int, data []byte, deadline time.Time) error
	Close() error
}

// DialFunc opens a connection to the given url.
type DialFunc func(ctx context.Context, url string) (Conn, error)

// NewDialer returns a DialFunc on top of the given gorilla dialer, or the
// default one if nil.
func NewDialer(dialer *websocket.Dialer) DialFunc {
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}
	return func(ctx context.Context, url string) (Conn, error) {
		conn, _, err := dialer.DialContext(ctx, url, nil)
		if err != nil {
			return nil, err
		}
		return conn, nil
	}
}

// Handler is invoked for every received message of the subscribed type.
type Handler func(msg Message)

type subscription struct {
	id      uint64
	msgType MessageType
	handler Handler
}

// Config ...
type Config struct {
	URL                  string
	PingInterval         time.Duration
	ReconnectBaseDelay   time.Duration
	MaxReconnectAttempts int
	Dial                 DialFunc
	Scheduler            scheduler.Scheduler
}

func (c *Config) validate() error {
	if c.URL == "" {
		return ErrMissingURL
	}
	if c.PingInterval <= 0 {
		c.PingInterval = DefaultPingInterval
	}
	if c.ReconnectBaseDelay <= 0 {
		c.ReconnectBaseDelay = DefaultReconnectBaseDelay
	}
	if c.MaxReconnectAttempts <= 0 {
		c.MaxReconnectAttempts = DefaultMaxReconnectAttempts
	}
	if c.Dial == nil {
		c.Dial = NewDialer(nil)
	}
	if c.Scheduler == nil {
		c.Scheduler = scheduler.New()
	}
	return nil
}

// Channel is a websocket connection that survives server restarts and
// network hiccups. Messages received on a connection are delivered to
// handlers sequentially in arrival order; messages in flight during a
// reconnection may be lost.
type Channel struct {
	cfg Config

	mtx            sync.Mutex
	state          State
	attempts       int
	conn           Conn
	connID         uint64
	pingTimer      scheduler.Timer
	reconnectTimer scheduler.Timer

	writeMtx sync.Mutex

	subsMtx sync.RWMutex
	subs    []subscription
	nextSub uint64
}

// New returns a disconnected Channel.
func New(cfg Config) (*Channel, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &Channel{cfg: cfg, state: StateDisconnected}, nil
}

// Connect opens the connection. It returns immediately if the channel is
// already connected or connecting. If the handshake fails, a reconnection is
// scheduled and the error is returned.
func (c *Channel) Connect(ctx context.Context) error {
	c.mtx.Lock()
	switch c.state {
	case StateConnecting, StateConnected:
		c.mtx.Unlock()
		return nil
	case StateReconnecting:
		stopTimer(&c.reconnectTimer)
	default:
		c.attempts = 0
	}
	c.state = StateConnecting
	c.mtx.Unlock()

	return c.dial(ctx)
}

// Disconnect closes the connection with a normal closure. No reconnection
// follows.
func (c *Channel) Disconnect() {
	c.mtx.Lock()
	stopTimer(&c.reconnectTimer)
	stopTimer(&c.pingTimer)
	conn := c.conn
	c.conn = nil
	c.connID++
	c.state = StateDisconnected
	c.attempts = 0
	c.mtx.Unlock()

	if conn != nil {
		c.closeConn(conn)
	}
}

// Send writes the message to the server. If the channel is not connected the
// message is dropped and ErrNotConnected returned.
func (c *Channel) Send(msg Message) error {
	c.mtx.Lock()
	conn, state := c.conn, c.state
	c.mtx.Unlock()

	if state != StateConnected || conn == nil {
		log.WithField("type", msg.Type).Warn(
			"realtime channel not connected, dropping message",
		)
		return ErrNotConnected
	}

	if msg.Timestamp == 0 {
		msg.Timestamp = c.cfg.Scheduler.Now().UnixMilli()
	}
	buf, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	c.writeMtx.Lock()
	defer c.writeMtx.Unlock()
	return conn.WriteMessage(websocket.TextMessage, buf)
}

// On registers the handler for the given message type, or every type with
// AnyType. The returned id is needed to unregister it.
func (c *Channel) On(msgType MessageType, handler Handler) uint64 {
	c.subsMtx.Lock()
	defer c.subsMtx.Unlock()

	c.nextSub++
	c.subs = append(c.subs, subscription{c.nextSub, msgType, handler})
	return c.nextSub
}

// Off unregisters the handler with the given id from the message type.
func (c *Channel) Off(msgType MessageType, id uint64) bool {
	c.subsMtx.Lock()
	defer c.subsMtx.Unlock()

	for i, sub := range c.subs {
		if sub.id == id && sub.msgType == msgType {
			c.subs = append(c.subs[:i], c.subs[i+1:]...)
			return true
		}
	}
	return false
}

func (c *Channel) Status() Status {
	c.mtx.Lock()
	defer c.mtx.Unlock()

	return Status{
		State:             c.state,
		IsConnected:       c.state == StateConnected,
		IsConnecting:      c.state == StateConnecting || c.state == StateReconnecting,
		ReconnectAttempts: c.attempts,
	}
}

func (c *Channel) dial(ctx context.Context) error {
	conn, err := c.cfg.Dial(ctx, c.cfg.URL)

	c.mtx.Lock()
	// Disconnect was called during the handshake.
	if c.state != StateConnecting {
		c.mtx.Unlock()
		if err == nil {
			c.closeConn(conn)
		}
		return nil
	}

	if err != nil {
		c.scheduleReconnect()
		c.mtx.Unlock()

		log.WithError(err).WithField("url", c.cfg.URL).Warn(
			"realtime connection failed",
		)
		return fmt.Errorf("dialing %s: %w", c.cfg.URL, err)
	}

	c.conn = conn
	c.connID++
	connID := c.connID
	c.state = StateConnected
	c.attempts = 0
	c.pingTimer = scheduler.Every(c.cfg.Scheduler, c.cfg.PingInterval, c.ping)
	c.mtx.Unlock()

	log.WithField("url", c.cfg.URL).Debug("realtime channel connected")

	go c.listen(conn, connID)
	return nil
}

// scheduleReconnect must be called with the lock held.
func (c *Channel) scheduleReconnect() {
	if c.attempts >= c.cfg.MaxReconnectAttempts {
		c.state = StateOffline
		log.Warnf(
			"realtime channel offline after %d reconnect attempts", c.attempts,
		)
		return
	}

	c.attempts++
	delay := c.cfg.ReconnectBaseDelay * time.Duration(1<<uint(c.attempts-1))
	c.state = StateReconnecting
	c.reconnectTimer = c.cfg.Scheduler.AfterFunc(delay, c.reconnect)

	log.Debugf(
		"realtime reconnect attempt %d/%d in %s",
		c.attempts, c.cfg.MaxReconnectAttempts, delay,
	)
}

func (c *Channel) reconnect() {
	c.mtx.Lock()
	if c.state != StateReconnecting {
		c.mtx.Unlock()
		return
	}
	c.reconnectTimer = nil
	c.state = StateConnecting
	c.mtx.Unlock()

	// nolint
	c.dial(context.Background())
}

func (c *Channel) listen(conn Conn, connID uint64) {
	for {
		_, buf, err := conn.ReadMessage()
		if err != nil {
			c.onConnClosed(connID, err)
			return
		}

		var msg Message
		if err := json.Unmarshal(buf, &msg); err != nil {
			log.WithError(err).Warn("realtime: dropping malformed message")
			continue
		}
		if msg.Type == TypePong {
			continue
		}

		c.dispatch(msg)
	}
}

func (c *Channel) onConnClosed(connID uint64, err error) {
	c.mtx.Lock()
	defer c.mtx.Unlock()

	// The connection was replaced or closed by Disconnect.
	if connID != c.connID || c.state != StateConnected {
		return
	}

	stopTimer(&c.pingTimer)
	// nolint
	c.conn.Close()
	c.conn = nil

	if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
		c.state = StateDisconnected
		log.Info("realtime channel closed by server")
		return
	}

	log.WithError(err).Warn(
		"realtime connection dropped unexpectedly, trying to reconnect",
	)
	c.scheduleReconnect()
}

func (c *Channel) ping() {
	msg := Message{
		Type:      TypePing,
		Timestamp: c.cfg.Scheduler.Now().UnixMilli(),
	}
	if err := c.Send(msg); err != nil && err != ErrNotConnected {
		log.WithError(err).Warn("realtime: failed to send ping")
	}
}

func (c *Channel) dispatch(msg Message) {
	c.subsMtx.RLock()
	subs := make([]subscription, 0, len(c.subs))
	for _, sub := range c.subs {
		if sub.msgType == msg.Type || sub.msgType == AnyType {
			subs = append(subs, sub)
		}
	}
	c.subsMtx.RUnlock()

	for _, sub := range subs {
		invoke(sub, msg)
	}
}

func (c *Channel) closeConn(conn Conn) {
	c.writeMtx.Lock()
	defer c.writeMtx.Unlock()

	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	deadline := time.Now().Add(closeTimeout)
	if err := conn.WriteControl(websocket.CloseMessage, msg, deadline); err != nil {
		log.WithError(err).Debug("realtime: failed to send close frame")
	}
	// nolint
	conn.Close()
}

func invoke(sub subscription, msg Message) {
	defer func() {
		if r := recover(); r != nil {
			log.WithFields(log.Fields{
				"type":         msg.Type,
				"subscription": sub.id,
			}).Errorf("realtime handler panicked: %v", r)
		}
	}()

	sub.handler(msg)
}

func stopTimer(t *scheduler.Timer) {
	if *t != nil {
		(*t).Stop()
		*t = nil
	}
}
