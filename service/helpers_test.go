package service

import (
	"io"
	"net"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	general_i "github.com/beka-birhanu/vinom-common/interfaces/general"
	logger "github.com/beka-birhanu/vinom-common/log"
	"github.com/beka-birhanu/wam-game-server/config"
)

func newTestLogger(t *testing.T) general_i.Logger {
	t.Helper()
	devNull, err := os.OpenFile(os.DevNull, os.O_WRONLY, 0)
	if err != nil {
		t.Fatalf("open %s: %v", os.DevNull, err)
	}
	t.Cleanup(func() { _ = devNull.Close() })

	l, err := logger.New("TEST", config.ColorBlue, devNull)
	if err != nil {
		t.Fatalf("create logger: %v", err)
	}
	return l
}

// fakeConn is an in-memory LineConn. Tests push client lines into in and read
// server lines from out.
type fakeConn struct {
	in     chan string
	out    chan string
	closed chan struct{}
	once   sync.Once
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		in:     make(chan string, 64),
		out:    make(chan string, 1024),
		closed: make(chan struct{}),
	}
}

func (f *fakeConn) ReadLine() (string, error) {
	select {
	case line, ok := <-f.in:
		if !ok {
			return "", io.EOF
		}
		return line, nil
	case <-f.closed:
		return "", net.ErrClosed
	}
}

func (f *fakeConn) WriteLine(line string) error {
	select {
	case <-f.closed:
		return net.ErrClosed
	default:
	}
	f.out <- line
	return nil
}

func (f *fakeConn) Close() error {
	f.once.Do(func() { close(f.closed) })
	return nil
}

func (f *fakeConn) RemoteAddr() string {
	return "fake"
}

func (f *fakeConn) isClosed() bool {
	select {
	case <-f.closed:
		return true
	default:
		return false
	}
}

// next returns the next server line or fails after a second.
func (f *fakeConn) next(t *testing.T) string {
	t.Helper()
	select {
	case line := <-f.out:
		return line
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for a server line")
		return ""
	}
}

// nextWithPrefix skips lines until one starts with prefix.
func (f *fakeConn) nextWithPrefix(t *testing.T, prefix string) string {
	t.Helper()
	timeout := time.After(time.Second)
	for {
		select {
		case line := <-f.out:
			if strings.HasPrefix(line, prefix) {
				return line
			}
		case <-timeout:
			t.Fatalf("timed out waiting for a line starting with %q", prefix)
			return ""
		}
	}
}

// drain returns every line written until the connection is closed.
func (f *fakeConn) drain(t *testing.T) []string {
	t.Helper()
	var lines []string
	timeout := time.After(2 * time.Second)
	for {
		select {
		case line := <-f.out:
			lines = append(lines, line)
		case <-f.closed:
			for {
				select {
				case line := <-f.out:
					lines = append(lines, line)
				default:
					return lines
				}
			}
		case <-timeout:
			t.Fatal("timed out waiting for the connection to close")
			return lines
		}
	}
}

// waitFor polls cond until it holds or a second passes.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(2 * time.Millisecond)
	}
}
