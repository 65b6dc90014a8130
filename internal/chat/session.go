package chat

import (
	"context"
	"sync"

	"github.com/Amanss21229/LearnSansaLearn21nov/internal/logger"
)

const sendBufSize = 256

// Conn abstracts the underlying transport so the gateway and tests are not
// tied to a websocket. See wsconn.go for the production implementation.
type Conn interface {
	// ReadEvent blocks for the next inbound event.
	ReadEvent() (*InboundEvent, error)
	// WriteEvent sends one outbound event.
	WriteEvent(*OutboundEvent) error
	// Ping sends a transport keepalive.
	Ping() error
	Close() error
}

// Session is one live connection's state: unauthenticated until a successful
// auth event, then bound to a user identity and its community room for the
// rest of the connection's lifetime.
//
// Lifecycle: NewSession -> Start(ctx, cancel) -> [readPump, writePump] ->
// Close -> Wait.
type Session struct {
	gw   *Gateway
	conn Conn
	send chan *OutboundEvent

	mu      sync.RWMutex
	userID  string
	stream  string
	isAdmin bool

	// done is the non-blocking guard used by sendToSession.
	done   chan struct{}
	cancel context.CancelFunc
	once   sync.Once
	wg     sync.WaitGroup
}

func NewSession(gw *Gateway, conn Conn) *Session {
	return &Session{
		gw:   gw,
		conn: conn,
		send: make(chan *OutboundEvent, sendBufSize),
		done: make(chan struct{}),
	}
}

// bind records the authenticated identity. A session holds at most one
// identity; a second auth overwrites it (last write wins, callers should not
// rely on it).
func (s *Session) bind(userID, stream string, isAdmin bool) {
	s.mu.Lock()
	s.userID = userID
	s.stream = stream
	s.isAdmin = isAdmin
	s.mu.Unlock()
}

// Identity returns the bound user ID, stream and admin flag; userID is ""
// while unauthenticated.
func (s *Session) Identity() (userID, stream string, isAdmin bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.userID, s.stream, s.isAdmin
}

// Authenticated reports whether an auth event has succeeded on this session.
func (s *Session) Authenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.userID != ""
}

// Start launches the read and write pumps with controlled lifecycle.
func (s *Session) Start(ctx context.Context, cancel context.CancelFunc) {
	s.cancel = cancel
	s.wg.Add(2)
	go s.writePump(ctx)
	go s.readPump(ctx)
}

// Wait blocks until both pumps have exited.
func (s *Session) Wait() {
	s.wg.Wait()
}

// Close signals the session to stop. Safe to call multiple times from any
// goroutine.
func (s *Session) Close() {
	s.once.Do(func() {
		if s.cancel != nil {
			s.cancel()
		}
		close(s.done)
		// Force both pumps to unblock (pending reads/writes will error).
		s.conn.Close()
	})
}

// readPump reads inbound events and dispatches each one to the gateway as an
// independent task, so a slow operation never blocks this connection's reads
// or other sessions.
func (s *Session) readPump(ctx context.Context) {
	defer s.wg.Done()
	defer func() {
		s.gw.Unregister(s)
		s.conn.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		ev, err := s.conn.ReadEvent()
		if err != nil {
			return
		}
		go s.gw.HandleEvent(ctx, s, ev)
	}
}

// writePump drains the send buffer to the connection and keeps the transport
// alive with periodic pings.
func (s *Session) writePump(ctx context.Context) {
	defer s.wg.Done()
	ticker := s.gw.newPingTicker()
	defer func() {
		ticker.Stop()
		s.conn.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-s.send:
			if err := s.conn.WriteEvent(ev); err != nil {
				return
			}
		case <-ticker.C:
			if err := s.conn.Ping(); err != nil {
				return
			}
		}
	}
}

// enqueue hands an event to the write pump without blocking. A full buffer
// means the client cannot keep up; the session is closed rather than stalling
// the broadcast.
func (s *Session) enqueue(ev *OutboundEvent) {
	select {
	case s.send <- ev:
	case <-s.done:
	default:
		userID, _, _ := s.Identity()
		logger.Errorf("chat: send buffer full, closing slow session user=%s", userID)
		s.Close()
	}
}
