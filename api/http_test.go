package api

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/beka-birhanu/wam-game-server/service/i"
	"github.com/gorilla/websocket"
)

func newTestHTTPServer(t *testing.T, gsm *fakeManager) (*HTTPServer, *httptest.Server) {
	t.Helper()
	s := NewHTTPServer(HTTPConfig{
		Enroll:       gsm.Enroll,
		Logger:       newTestLogger(t),
		WriteTimeout: time.Second,
	})
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return s, ts
}

func get(t *testing.T, url string) (int, string) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp.StatusCode, string(body)
}

func TestHealthAndReady(t *testing.T) {
	s, ts := newTestHTTPServer(t, &fakeManager{})

	if code, body := get(t, ts.URL+"/health"); code != http.StatusOK || body != "ok" {
		t.Fatalf("/health = %d %q", code, body)
	}
	if code, body := get(t, ts.URL+"/ready"); code != http.StatusServiceUnavailable || body != "not ready" {
		t.Fatalf("/ready before SetReady = %d %q", code, body)
	}

	s.SetReady(true)
	if code, body := get(t, ts.URL+"/ready"); code != http.StatusOK || body != "ready" {
		t.Fatalf("/ready after SetReady = %d %q", code, body)
	}
}

func wsURL(ts *httptest.Server) string {
	return "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
}

func TestWebsocketEnrollsPlayer(t *testing.T) {
	gsm := &fakeManager{}
	s, ts := newTestHTTPServer(t, gsm)
	s.SetReady(true)

	client, _, err := websocket.DefaultDialer.Dial(wsURL(ts), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer client.Close()

	var conns []i.LineConn
	deadline := time.Now().Add(time.Second)
	for len(conns) == 0 && time.Now().Before(deadline) {
		conns = gsm.enrolledConns()
		time.Sleep(5 * time.Millisecond)
	}
	if len(conns) != 1 {
		t.Fatalf("enrolled %d connections, want 1", len(conns))
	}
	if err := conns[0].WriteLine("WELCOME 2 2 2 0"); err != nil {
		t.Fatalf("write: %v", err)
	}
	_, msg, err := client.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(msg) != "WELCOME 2 2 2 0" {
		t.Fatalf("got %q", msg)
	}
}

func TestWebsocketRefusedWhenNotReady(t *testing.T) {
	gsm := &fakeManager{}
	_, ts := newTestHTTPServer(t, gsm)

	_, resp, err := websocket.DefaultDialer.Dial(wsURL(ts), nil)
	if err == nil {
		t.Fatal("expected the handshake to fail")
	}
	if resp == nil || resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("response = %v, want 503", resp)
	}
	if n := len(gsm.enrolledConns()); n != 0 {
		t.Fatalf("enrolled %d connections, want 0", n)
	}
}

func TestWebsocketClosedWhenEnrollFails(t *testing.T) {
	gsm := &fakeManager{refuse: errors.New("lobby closed")}
	s, ts := newTestHTTPServer(t, gsm)
	s.SetReady(true)

	client, _, err := websocket.DefaultDialer.Dial(wsURL(ts), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer client.Close()

	_ = client.SetReadDeadline(time.Now().Add(time.Second))
	if _, _, err := client.ReadMessage(); err == nil {
		t.Fatal("expected the server to close the connection")
	}
}
