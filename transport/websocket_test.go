package transport

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func TestWSConnRoundTrip(t *testing.T) {
	upgrader := websocket.Upgrader{}
	serverErr := make(chan error, 1)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			serverErr <- err
			return
		}
		c := NewWSConn(ws, 0, time.Second)
		defer c.Close()

		line, err := c.ReadLine()
		if err != nil {
			serverErr <- err
			return
		}
		serverErr <- c.WriteLine("SCORE " + strings.TrimPrefix(line, "WHACK "))
	}))
	defer srv.Close()

	client, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer client.Close()

	if err := client.WriteMessage(websocket.TextMessage, []byte("WHACK 3 1\n")); err != nil {
		t.Fatalf("write: %v", err)
	}
	_, msg, err := client.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(msg) != "SCORE 3 1" {
		t.Fatalf("got %q, want %q", msg, "SCORE 3 1")
	}
	if err := <-serverErr; err != nil {
		t.Fatalf("server: %v", err)
	}
}

func TestWSConnRejectsBinaryFrames(t *testing.T) {
	upgrader := websocket.Upgrader{}
	readErr := make(chan error, 1)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			readErr <- err
			return
		}
		c := NewWSConn(ws, 0, 0)
		defer c.Close()
		_, err = c.ReadLine()
		readErr <- err
	}))
	defer srv.Close()

	client, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer client.Close()

	if err := client.WriteMessage(websocket.BinaryMessage, []byte{1, 2}); err != nil {
		t.Fatalf("write: %v", err)
	}
	select {
	case err := <-readErr:
		if !errors.Is(err, ErrBinaryFrame) {
			t.Fatalf("got %v, want %v", err, ErrBinaryFrame)
		}
	case <-time.After(time.Second):
		t.Fatal("server never read the frame")
	}
}

func TestWSConnSplitsMultiLineFrames(t *testing.T) {
	upgrader := websocket.Upgrader{}
	lines := make(chan string, 4)
	readErr := make(chan error, 1)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			readErr <- err
			return
		}
		c := NewWSConn(ws, 0, 0)
		defer c.Close()
		for range 3 {
			line, err := c.ReadLine()
			if err != nil {
				readErr <- err
				return
			}
			lines <- line
		}
		readErr <- nil
	}))
	defer srv.Close()

	client, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer client.Close()

	if err := client.WriteMessage(websocket.TextMessage, []byte("WHACK 0 1\r\nWHACK 2 1\n")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := client.WriteMessage(websocket.TextMessage, []byte("WHACK 3 1")); err != nil {
		t.Fatalf("write: %v", err)
	}

	select {
	case err := <-readErr:
		if err != nil {
			t.Fatalf("server: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("server never read three lines")
	}
	close(lines)
	var got []string
	for line := range lines {
		got = append(got, line)
	}
	want := []string{"WHACK 0 1", "WHACK 2 1", "WHACK 3 1"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Fatalf("got %q, want %q", got, want)
	}
}
