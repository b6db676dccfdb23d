package transport

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"sync"
	"time"
)

const (
	DefaultMaxLineBytes = 1024
	DefaultWriteTimeout = 5 * time.Second
)

var ErrLineTooLong = errors.New("line too long")

// TCPConn reads and writes newline-terminated lines over a stream connection.
type TCPConn struct {
	conn         net.Conn
	scanner      *bufio.Scanner
	writeTimeout time.Duration
	writeMu      sync.Mutex
	closeOnce    sync.Once
	closeErr     error
}

// NewTCPConn wraps conn. Non-positive limits select the defaults.
func NewTCPConn(conn net.Conn, maxLineBytes int, writeTimeout time.Duration) *TCPConn {
	if maxLineBytes <= 0 {
		maxLineBytes = DefaultMaxLineBytes
	}
	if writeTimeout <= 0 {
		writeTimeout = DefaultWriteTimeout
	}
	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, 256), maxLineBytes)
	return &TCPConn{
		conn:         conn,
		scanner:      scanner,
		writeTimeout: writeTimeout,
	}
}

// ReadLine blocks for the next line and returns it without its terminator.
func (c *TCPConn) ReadLine() (string, error) {
	if c.scanner.Scan() {
		return strings.TrimRight(c.scanner.Text(), "\r"), nil
	}
	if err := c.scanner.Err(); err != nil {
		if errors.Is(err, bufio.ErrTooLong) {
			return "", fmt.Errorf("%w: %w", ErrLineTooLong, err)
		}
		return "", err
	}
	return "", io.EOF
}

// WriteLine writes line followed by a newline within the write timeout.
func (c *TCPConn) WriteLine(line string) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout)); err != nil {
		return err
	}
	_, err := io.WriteString(c.conn, line+"\n")
	return err
}

// Close closes the underlying connection once; later calls return the first result.
func (c *TCPConn) Close() error {
	c.closeOnce.Do(func() {
		c.closeErr = c.conn.Close()
	})
	return c.closeErr
}

func (c *TCPConn) RemoteAddr() string {
	return c.conn.RemoteAddr().String()
}
