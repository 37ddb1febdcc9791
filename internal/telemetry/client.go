package telemetry

import (
	"sync"
	"time"

	"github.com/airmon/air-monitor-service/internal/livebuffer"
	"go.uber.org/zap"
)

// State is the connection state of the telemetry client.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
	StateReconnecting
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateReconnecting:
		return "reconnecting"
	default:
		return "disconnected"
	}
}

// Config holds telemetry client settings.
type Config struct {
	BrokerURL      string
	Topic          string
	ClientIDPrefix string
	// MaxReconnects is the number of transport reconnect attempts tolerated
	// before the client force-closes and stays disconnected.
	MaxReconnects int
}

const (
	defaultMaxReconnects  = 5
	defaultClientIDPrefix = "air-monitor"
	subscribeQoS          = 1 // at-least-once
)

type eventKind int

const (
	evConnected eventKind = iota
	evConnectFailed
	evConnectionLost
	evReconnecting
	evMessage
)

type event struct {
	kind       eventKind
	topic      string
	payload    []byte
	receivedAt time.Time
	err        error
}

// session is one connection attempt's worth of state. A terminal disconnect
// ends the session; a later Connect starts a fresh one.
type session struct {
	conn     Connection
	retries  int
	events   chan event
	done     chan struct{}
	loopDone chan struct{}
	stopOnce sync.Once
}

func (s *session) stop() {
	s.stopOnce.Do(func() { close(s.done) })
}

// post hands an event to the session loop. It drops the event instead of
// blocking once the session is stopped, so late transport callbacks cannot
// hang or write anywhere.
func (s *session) post(ev event) {
	select {
	case s.events <- ev:
	case <-s.done:
	}
}

// Client maintains one MQTT subscription and feeds decoded readings into
// the live buffer. All state transitions happen on a single event loop;
// transport callbacks only post events.
type Client struct {
	cfg    Config
	buffer *livebuffer.Buffer
	logger *zap.Logger
	dial   Connector

	mu      sync.Mutex
	state   State
	session *session
}

// NewClient creates a telemetry client. The connector defaults to the paho
// transport when nil.
func NewClient(cfg Config, buffer *livebuffer.Buffer, logger *zap.Logger, dial Connector) *Client {
	if cfg.MaxReconnects <= 0 {
		cfg.MaxReconnects = defaultMaxReconnects
	}
	if cfg.ClientIDPrefix == "" {
		cfg.ClientIDPrefix = defaultClientIDPrefix
	}
	if dial == nil {
		dial = NewPahoConnector()
	}
	return &Client{
		cfg:    cfg,
		buffer: buffer,
		logger: logger,
		dial:   dial,
	}
}

// State returns the current connection state.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Connect starts a session if none is active. Calling it while connecting
// or connected is a no-op; expected network failures never surface here,
// only through state transitions.
func (c *Client) Connect() {
	c.mu.Lock()
	if c.session != nil {
		c.mu.Unlock()
		return
	}

	s := &session{
		events:   make(chan event, 64),
		done:     make(chan struct{}),
		loopDone: make(chan struct{}),
	}
	s.conn = c.dial(c.cfg, ConnectionEvents{
		OnConnect:        func() { s.post(event{kind: evConnected}) },
		OnConnectionLost: func(err error) { s.post(event{kind: evConnectionLost, err: err}) },
		OnReconnecting:   func() { s.post(event{kind: evReconnecting}) },
	})
	c.session = s
	c.state = StateConnecting
	c.mu.Unlock()

	c.logger.Info("connecting to broker",
		zap.String("broker", c.cfg.BrokerURL),
		zap.String("topic", c.cfg.Topic),
	)

	go c.run(s)
	go func() {
		if err := s.conn.Connect(); err != nil {
			s.post(event{kind: evConnectFailed, err: err})
		}
	}()
}

// Close tears the client down. When it returns the event loop has exited
// and no further live buffer writes can come from this client.
func (c *Client) Close() {
	c.mu.Lock()
	s := c.session
	c.session = nil
	c.state = StateDisconnected
	c.mu.Unlock()

	if s == nil {
		return
	}
	s.stop()
	<-s.loopDone
	s.conn.Disconnect(250)
	c.logger.Info("telemetry client closed")
}

func (c *Client) run(s *session) {
	defer close(s.loopDone)
	for {
		select {
		case <-s.done:
			return
		case ev := <-s.events:
			c.handle(s, ev)
		}
	}
}

// isCurrent reports whether the session still owns the client state. Events
// from an abandoned session are ignored.
func (c *Client) isCurrent(s *session) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session == s
}

func (c *Client) setState(s *session, state State) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session != s {
		return false
	}
	c.state = state
	return true
}

func (c *Client) handle(s *session, ev event) {
	if !c.isCurrent(s) {
		return
	}

	switch ev.kind {
	case evConnected:
		if !c.setState(s, StateConnected) {
			return
		}
		s.retries = 0
		c.logger.Info("broker connection established", zap.String("topic", c.cfg.Topic))
		if err := s.conn.Subscribe(c.cfg.Topic, subscribeQoS, func(topic string, payload []byte) {
			s.post(event{kind: evMessage, topic: topic, payload: payload, receivedAt: time.Now()})
		}); err != nil {
			c.logger.Error("subscribe failed", zap.String("topic", c.cfg.Topic), zap.Error(err))
		}

	case evConnectFailed:
		c.logger.Error("broker connect failed", zap.Error(ev.err))
		c.terminate(s, 0)

	case evConnectionLost:
		c.logger.Warn("broker connection lost", zap.Error(ev.err))
		c.setState(s, StateReconnecting)

	case evReconnecting:
		s.retries++
		if s.retries >= c.cfg.MaxReconnects {
			c.logger.Error("reconnect limit reached, giving up",
				zap.Int("attempts", s.retries),
				zap.Int("max", c.cfg.MaxReconnects),
			)
			c.terminate(s, 0)
			return
		}
		c.setState(s, StateReconnecting)
		c.logger.Warn("reconnecting to broker",
			zap.Int("attempt", s.retries),
			zap.Int("max", c.cfg.MaxReconnects),
		)

	case evMessage:
		c.handleMessage(ev)
	}
}

func (c *Client) handleMessage(ev event) {
	if ev.topic != c.cfg.Topic {
		return
	}

	reading, err := DecodeReading(ev.payload, ev.receivedAt)
	if err != nil {
		// Per-message failure only; the connection is unaffected.
		c.logger.Warn("discarding undecodable message",
			zap.String("topic", ev.topic),
			zap.Error(err),
		)
		return
	}
	c.buffer.Append(reading)
}

// terminate force-closes the session and leaves the client disconnected.
// A later Connect starts over with a fresh session.
func (c *Client) terminate(s *session, quiesceMs uint) {
	c.mu.Lock()
	if c.session == s {
		c.session = nil
		c.state = StateDisconnected
	}
	c.mu.Unlock()

	s.conn.Disconnect(quiesceMs)
	s.stop()
}
