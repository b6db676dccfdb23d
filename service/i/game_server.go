package i

import (
	"context"
	"time"
)

// GameServer defines the interface for one whack-a-mole session.
type GameServer interface {
	// Run spawns the mole tasks and player read loops, blocks for the game
	// duration, then delivers outcomes and closes every connection.
	Run(ctx context.Context) error

	// Stop ends the game early; players receive an error instead of an outcome.
	Stop()

	// Snapshot returns a copy of the session state.
	Snapshot() GameSnapshot
}

// GameSnapshot is a point-in-time copy of a session.
type GameSnapshot struct {
	Rows      int
	Columns   int
	Scores    []int
	Connected []bool
	MolesUp   []int
	StartedAt time.Time
	Duration  time.Duration
	Over      bool
	Outcomes  []string
}
