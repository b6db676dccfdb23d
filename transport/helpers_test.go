package transport

import (
	"os"
	"testing"

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
