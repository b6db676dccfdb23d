package api

import (
	"os"
	"sync"
	"testing"

	general_i "github.com/beka-birhanu/vinom-common/interfaces/general"
	logger "github.com/beka-birhanu/vinom-common/log"
	"github.com/beka-birhanu/wam-game-server/config"
	"github.com/beka-birhanu/wam-game-server/service"
	"github.com/beka-birhanu/wam-game-server/service/i"
	"github.com/google/uuid"
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

type fakeManager struct {
	mu       sync.Mutex
	sessions []i.SessionInfo
	pending  int
	enrolled []i.LineConn
	refuse   error
}

func (f *fakeManager) Enroll(c i.LineConn) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.refuse != nil {
		return f.refuse
	}
	f.enrolled = append(f.enrolled, c)
	return nil
}

func (f *fakeManager) StopAll() {}

func (f *fakeManager) SessionInfo(id uuid.UUID) (i.SessionInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.sessions {
		if s.ID == id {
			return s, nil
		}
	}
	return i.SessionInfo{}, service.ErrNoSession
}

func (f *fakeManager) Sessions() []i.SessionInfo {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]i.SessionInfo(nil), f.sessions...)
}

func (f *fakeManager) Pending() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pending
}

func (f *fakeManager) enrolledConns() []i.LineConn {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]i.LineConn(nil), f.enrolled...)
}
