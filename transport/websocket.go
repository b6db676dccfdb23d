package transport

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

var ErrBinaryFrame = errors.New("binary frames are not supported")

// WSConn carries the line protocol over websocket text frames. A frame may
// hold several newline-separated lines; they are returned one at a time.
type WSConn struct {
	conn         *websocket.Conn
	pending      []string // lines left over from the last frame
	writeTimeout time.Duration
	writeMu      sync.Mutex
	closeOnce    sync.Once
	closeErr     error
}

// NewWSConn wraps conn. Non-positive limits select the defaults.
func NewWSConn(conn *websocket.Conn, maxLineBytes int, writeTimeout time.Duration) *WSConn {
	if maxLineBytes <= 0 {
		maxLineBytes = DefaultMaxLineBytes
	}
	if writeTimeout <= 0 {
		writeTimeout = DefaultWriteTimeout
	}
	conn.SetReadLimit(int64(maxLineBytes))
	return &WSConn{conn: conn, writeTimeout: writeTimeout}
}

// ReadLine is not safe for concurrent use.
func (c *WSConn) ReadLine() (string, error) {
	if len(c.pending) == 0 {
		msgType, msg, err := c.conn.ReadMessage()
		if err != nil {
			return "", err
		}
		if msgType != websocket.TextMessage {
			return "", ErrBinaryFrame
		}
		c.pending = strings.Split(strings.TrimRight(string(msg), "\r\n"), "\n")
	}
	line := strings.TrimRight(c.pending[0], "\r")
	c.pending = c.pending[1:]
	return line, nil
}

func (c *WSConn) WriteLine(line string) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout)); err != nil {
		return err
	}
	return c.conn.WriteMessage(websocket.TextMessage, []byte(line))
}

// Close sends a close frame when possible and closes the connection once.
func (c *WSConn) Close() error {
	c.closeOnce.Do(func() {
		c.writeMu.Lock()
		deadline := time.Now().Add(time.Second)
		_ = c.conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
		c.writeMu.Unlock()
		if err := c.conn.Close(); err != nil {
			c.closeErr = fmt.Errorf("close websocket: %w", err)
		}
	})
	return c.closeErr
}

func (c *WSConn) RemoteAddr() string {
	return c.conn.RemoteAddr().String()
}
