package chat

import (
	"bytes"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// WSConnConfig tunes the websocket transport; zero values fall back to
// defaults matching the server config defaults.
type WSConnConfig struct {
	WriteTimeout   time.Duration
	PongTimeout    time.Duration
	MaxMessageSize int64
}

func (c WSConnConfig) withDefaults() WSConnConfig {
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = 10 * time.Second
	}
	if c.PongTimeout <= 0 {
		c.PongTimeout = 60 * time.Second
	}
	if c.MaxMessageSize <= 0 {
		c.MaxMessageSize = 4096
	}
	return c
}

// bufPool pools buffers for JSON encoding on the write hot path.
var bufPool = sync.Pool{
	New: func() any { return new(bytes.Buffer) },
}

// wsConn adapts a gorilla websocket connection to the Conn interface,
// handling deadlines, read limits and pong bookkeeping.
type wsConn struct {
	conn *websocket.Conn
	cfg  WSConnConfig
}

// NewWSConn wraps an upgraded websocket connection.
func NewWSConn(conn *websocket.Conn, cfg WSConnConfig) Conn {
	c := &wsConn{conn: conn, cfg: cfg.withDefaults()}
	conn.SetReadLimit(c.cfg.MaxMessageSize)
	conn.SetReadDeadline(time.Now().Add(c.cfg.PongTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(c.cfg.PongTimeout))
	})
	return c
}

func (c *wsConn) ReadEvent() (*InboundEvent, error) {
	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			return nil, err
		}
		var ev InboundEvent
		if err := json.Unmarshal(raw, &ev); err != nil {
			// Skip unparseable frames; the connection itself is fine.
			continue
		}
		return &ev, nil
	}
}

func (c *wsConn) WriteEvent(ev *OutboundEvent) error {
	if err := c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout)); err != nil {
		return err
	}
	buf := bufPool.Get().(*bytes.Buffer)
	buf.Reset()
	enc := json.NewEncoder(buf)
	if err := enc.Encode(ev); err != nil {
		bufPool.Put(buf)
		return err
	}
	data := buf.Bytes()
	// json.Encoder appends '\n'; trim it for websocket text frames.
	if len(data) > 0 && data[len(data)-1] == '\n' {
		data = data[:len(data)-1]
	}
	err := c.conn.WriteMessage(websocket.TextMessage, data)
	bufPool.Put(buf)
	return err
}

func (c *wsConn) Ping() error {
	if err := c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout)); err != nil {
		return err
	}
	return c.conn.WriteMessage(websocket.PingMessage, nil)
}

func (c *wsConn) Close() error {
	return c.conn.Close()
}
