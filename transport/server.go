package transport

import (
	"errors"
	"fmt"
	"net"
	"time"

	general_i "github.com/beka-birhanu/vinom-common/interfaces/general"
	"github.com/beka-birhanu/wam-game-server/service/i"
)

// Server accepts stream connections and hands each one to Enroll.
type Server struct {
	Listener     net.Listener
	Enroll       func(i.LineConn) error
	Logger       general_i.Logger
	MaxLineBytes int
	WriteTimeout time.Duration
}

// Serve accepts until the listener is closed. A closed listener returns nil.
func (s *Server) Serve() error {
	for {
		conn, err := s.Listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			return err
		}
		s.handleConnection(conn)
	}
}

func (s *Server) handleConnection(conn net.Conn) {
	lc := NewTCPConn(conn, s.MaxLineBytes, s.WriteTimeout)
	if err := s.Enroll(lc); err != nil {
		s.Logger.Warning(fmt.Sprintf("refused %s: %s", lc.RemoteAddr(), err))
		_ = lc.Close()
		return
	}
	s.Logger.Info(fmt.Sprintf("accepted %s", lc.RemoteAddr()))
}
