package streaming

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 32 << 20 // 32 MiB, generous enough for a single video frame
)

// WSSender adapts a gorilla/websocket connection to the Sender interface,
// serializing writes with a mutex since gorilla/websocket connections are
// not safe for concurrent writers.
type WSSender struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

// NewWSSender wraps conn, configuring the read deadline/pong handler
// keepalive pair the donor Hub uses.
func NewWSSender(conn *websocket.Conn) *WSSender {
	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	return &WSSender{conn: conn}
}

// Send writes one text message, bounded by writeWait.
func (s *WSSender) Send(message []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteMessage(websocket.TextMessage, message)
}

// Close closes the underlying connection.
func (s *WSSender) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conn.Close()
}

// KeepAlive sends periodic pings until the connection closes, matching
// the donor writePump's ping ticker.
func (s *WSSender) KeepAlive(stop <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.mu.Lock()
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			err := s.conn.WriteMessage(websocket.PingMessage, nil)
			s.mu.Unlock()
			if err != nil {
				return
			}
		case <-stop:
			return
		}
	}
}

// ReadMessage blocks for the next client-sent message.
func (s *WSSender) ReadMessage() ([]byte, error) {
	_, data, err := s.conn.ReadMessage()
	return data, err
}
