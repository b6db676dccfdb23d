package i

import (
	"github.com/google/uuid"
)

// GameSessionManager enrolls connections into lobbies and runs their sessions.
type GameSessionManager interface {
	// Enroll assigns the connection the next player number of the open lobby.
	Enroll(LineConn) error

	StopAll()

	// SessionInfo returns the snapshot of a running session.
	SessionInfo(uuid.UUID) (SessionInfo, error)

	// Sessions lists running sessions.
	Sessions() []SessionInfo

	// Pending returns the number of players waiting in the open lobby.
	Pending() int
}

// SessionInfo describes one running session.
type SessionInfo struct {
	ID   uuid.UUID
	Game GameSnapshot
}
