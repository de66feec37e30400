package client

import (
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

// ChangeListener subscribes to a tenant's level-change subject and invokes a
// refresh callback. Events are coalesced per tenant: a burst of changes
// (for example the N inserts of a defaults copy) triggers one refresh after
// the debounce window, not N.
type ChangeListener struct {
	conn     *nats.Conn
	debounce time.Duration
	log      zerolog.Logger
}

// NewChangeListener creates a listener over the given NATS connection.
func NewChangeListener(conn *nats.Conn, debounce time.Duration, log zerolog.Logger) *ChangeListener {
	return &ChangeListener{conn: conn, debounce: debounce, log: log}
}

// Watch subscribes to one tenant's change subject and calls refresh after
// each coalesced burst of events. The returned function cancels the watch.
func (l *ChangeListener) Watch(clientID string, refresh func()) (func(), error) {
	co := newCoalescer(l.debounce, refresh)

	sub, err := l.conn.Subscribe(LevelSubject(clientID), func(msg *nats.Msg) {
		l.log.Debug().
			Str("subject", msg.Subject).
			Str("client_id", clientID).
			Msg("change stream: event received")
		co.Trigger()
	})
	if err != nil {
		return nil, err
	}

	return func() {
		if err := sub.Unsubscribe(); err != nil {
			l.log.Warn().Err(err).Str("client_id", clientID).Msg("change stream: unsubscribe failed")
		}
		co.Stop()
	}, nil
}

// coalescer collapses a burst of triggers into one trailing-edge callback
// per debounce window.
type coalescer struct {
	window time.Duration
	fn     func()

	mu      sync.Mutex
	timer   *time.Timer
	stopped bool
}

func newCoalescer(window time.Duration, fn func()) *coalescer {
	return &coalescer{window: window, fn: fn}
}

// Trigger schedules the callback; repeated triggers within the window reset
// the timer so the callback fires once, after the burst settles.
func (c *coalescer) Trigger() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stopped {
		return
	}
	if c.window <= 0 {
		go c.fn()
		return
	}
	if c.timer != nil {
		c.timer.Stop()
	}
	c.timer = time.AfterFunc(c.window, c.fn)
}

// Stop cancels any pending callback.
func (c *coalescer) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopped = true
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}
