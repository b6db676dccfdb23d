package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	general_i "github.com/beka-birhanu/vinom-common/interfaces/general"
	"github.com/beka-birhanu/wam-game-server/protocol"
	"github.com/beka-birhanu/wam-game-server/service/i"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Game-related errors.
var (
	ErrNotEnoughPlayers      = errors.New("not enough players")
	ErrNotBigEnoughDimension = errors.New("dimension is not big enough")
	ErrInvalidDuration       = errors.New("game duration must be positive")
	ErrPlayerOrder           = errors.New("player numbers must run from 0 in order")
	ErrInvalidMole           = errors.New("mole is out of the grid")
	ErrUnknownPlayer         = errors.New("unknown player")
	ErrGameOver              = errors.New("game is over")
	ErrAlreadyStarted        = errors.New("game already started")
	ErrStopped               = errors.New("game stopped by server")
)

const (
	hitReward   = 2 // Points for whacking a mole that is up.
	missPenalty = 1 // Points lost for whacking an empty hole.

	minPlayers   = 1
	minDimension = 1
)

var tracer = otel.Tracer("github.com/beka-birhanu/wam-game-server/service")

// GameConfig holds the fixed parameters of a session.
type GameConfig struct {
	Rows     int
	Columns  int
	Duration time.Duration
	Timing   MoleTiming
	Logger   general_i.Logger
}

// Game is one whack-a-mole session. It owns the score vector and the up/down
// table of every mole; all reads and writes of either happen under mu, which
// is also held while a broadcast is queued so every player sees the same
// order of updates.
type Game struct {
	rows     int              // Grid rows.
	columns  int              // Grid columns.
	duration time.Duration    // Time from Run until the outcome is decided.
	timing   MoleTiming       // Bounds for each mole's random sleeps.
	players  []*Player        // Roster indexed by player number.
	logger   general_i.Logger // Logger for session events.
	stop     chan struct{}    // Closed by Stop to end the session early.
	stopOnce sync.Once        // Guards stop.
	started  atomic.Bool      // Set by the first Run.
	moleWg   sync.WaitGroup   // Running mole tasks.
	readWg   sync.WaitGroup   // Running player read loops.
	mu       sync.Mutex       // Guards everything below.
	scores   []int            // One score per player, may go negative.
	moles    []bool           // Up flag per mole, row-major.
	online   []bool           // Players still receiving broadcasts.
	dropped  []*Player        // Players whose outbox overflowed, closed after unlock.
	over     bool             // Set once the outcome is decided.
	result   *Result          // Final result, set with over.
	start    time.Time        // When Run began.
	span     trace.Span       // Session span, no-op until Run.
}

// NewGame creates a session for players, whose numbers must be 0..n-1 in
// roster order.
func NewGame(c *GameConfig, players []*Player) (*Game, error) {
	if len(players) < minPlayers {
		return nil, ErrNotEnoughPlayers
	}
	if c.Rows < minDimension || c.Columns < minDimension {
		return nil, ErrNotBigEnoughDimension
	}
	if c.Duration <= 0 {
		return nil, ErrInvalidDuration
	}
	if err := c.Timing.validate(); err != nil {
		return nil, err
	}
	for n, p := range players {
		if p == nil || p.Number() != n {
			return nil, ErrPlayerOrder
		}
	}

	online := make([]bool, len(players))
	for n := range online {
		online[n] = true
	}

	return &Game{
		rows:     c.Rows,
		columns:  c.Columns,
		duration: c.Duration,
		timing:   c.Timing,
		players:  players,
		logger:   c.Logger,
		stop:     make(chan struct{}),
		scores:   make([]int, len(players)),
		moles:    make([]bool, c.Rows*c.Columns),
		online:   online,
		span:     trace.SpanFromContext(context.Background()),
	}, nil
}

// Run spawns a task per mole and a read loop per player, waits for the game
// duration, and then ends the session: moles are canceled, each player gets
// its outcome followed by a MOLE_DOWN for every hole, and every connection is
// closed. It returns nil when the session ran to its full duration.
func (g *Game) Run(ctx context.Context) error {
	if !g.started.CompareAndSwap(false, true) {
		return ErrAlreadyStarted
	}

	ctx, span := tracer.Start(ctx, "whackamole.session", trace.WithAttributes(
		attribute.Int("rows", g.rows),
		attribute.Int("columns", g.columns),
		attribute.Int("players", len(g.players)),
	))
	defer span.End()

	moleCtx, cancelMoles := context.WithCancel(ctx)
	defer cancelMoles()

	g.mu.Lock()
	g.span = span
	g.start = time.Now()
	g.mu.Unlock()

	for id := range g.moles {
		task := NewMoleTask(id, g.timing)
		g.moleWg.Add(1)
		go func() {
			defer g.moleWg.Done()
			task.Run(moleCtx, g)
		}()
	}
	for _, p := range g.players {
		g.readWg.Add(1)
		go func() {
			defer g.readWg.Done()
			p.Serve(g)
		}()
	}
	g.logger.Info(fmt.Sprintf("game started: %dx%d grid, %d players, %s", g.rows, g.columns, len(g.players), g.duration))

	timer := time.NewTimer(g.duration)
	defer timer.Stop()

	var reason error
	select {
	case <-timer.C:
	case <-g.stop:
		reason = ErrStopped
	case <-ctx.Done():
		reason = ctx.Err()
	}

	cancelMoles()
	g.moleWg.Wait()

	result := g.finish(reason)
	for _, p := range g.players {
		p.Close()
	}
	g.readWg.Wait()

	span.SetAttributes(attribute.IntSlice("scores", result.Scores))
	if reason != nil {
		span.RecordError(reason)
		g.logger.Error(fmt.Sprintf("game ended early: %s", reason))
	} else {
		g.logger.Info(fmt.Sprintf("game over: scores %v, outcomes %v", result.Scores, result.Outcomes))
	}
	return reason
}

// Stop ends the session before its duration elapses.
func (g *Game) Stop() {
	g.stopOnce.Do(func() {
		close(g.stop)
	})
}

// ApplyWhack resolves a whack on moleID by playerNumber. A hit clears the mole
// and awards hitReward; a miss costs missPenalty. Either way every player
// receives the new score vector, preceded by MOLE_DOWN on a hit.
func (g *Game) ApplyWhack(moleID, playerNumber int) (bool, error) {
	g.mu.Lock()
	if g.over {
		g.mu.Unlock()
		return false, ErrGameOver
	}
	if moleID < 0 || moleID >= len(g.moles) {
		g.mu.Unlock()
		return false, fmt.Errorf("%w: %d", ErrInvalidMole, moleID)
	}
	if playerNumber < 0 || playerNumber >= len(g.scores) {
		g.mu.Unlock()
		return false, fmt.Errorf("%w: %d", ErrUnknownPlayer, playerNumber)
	}

	hit := g.moles[moleID]
	if hit {
		g.moles[moleID] = false
		g.scores[playerNumber] += hitReward
		g.broadcastLocked(protocol.MoleDown(moleID))
	} else {
		g.scores[playerNumber] -= missPenalty
	}
	g.broadcastLocked(protocol.Score(g.scores))
	g.span.AddEvent("whack", trace.WithAttributes(
		attribute.Int("mole", moleID),
		attribute.Int("player", playerNumber),
		attribute.Bool("hit", hit),
	))
	dropped := g.takeDroppedLocked()
	g.mu.Unlock()

	g.closeDropped(dropped)
	return hit, nil
}

// MoleTransition records a mole going up or down and broadcasts it. A natural
// down on a mole already whacked down is silent. It reports false once ctx is
// canceled or the game is over.
func (g *Game) MoleTransition(ctx context.Context, moleID int, up bool) bool {
	g.mu.Lock()
	if ctx.Err() != nil || g.over || moleID < 0 || moleID >= len(g.moles) {
		g.mu.Unlock()
		return false
	}
	if g.moles[moleID] != up {
		g.moles[moleID] = up
		if up {
			g.broadcastLocked(protocol.MoleUp(moleID))
		} else {
			g.broadcastLocked(protocol.MoleDown(moleID))
		}
	}
	dropped := g.takeDroppedLocked()
	g.mu.Unlock()

	g.closeDropped(dropped)
	return true
}

// Disconnected removes a player from broadcasts and closes its connection.
// Its score slot stays so the score vector keeps its length.
func (g *Game) Disconnected(playerNumber int, err error) {
	if playerNumber < 0 || playerNumber >= len(g.players) {
		return
	}

	g.mu.Lock()
	wasOnline := g.online[playerNumber]
	g.online[playerNumber] = false
	over := g.over
	g.mu.Unlock()

	if wasOnline && !over {
		g.logger.Info(fmt.Sprintf("player %d left the game: %s", playerNumber, err))
	}
	g.players[playerNumber].Close()
}

// Scores returns a copy of the score vector.
func (g *Game) Scores() []int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]int(nil), g.scores...)
}

// Result returns the final result, or nil while the game is running.
func (g *Game) Result() *Result {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.result == nil {
		return nil
	}
	return &Result{
		Scores:   append([]int(nil), g.result.Scores...),
		Outcomes: append([]Outcome(nil), g.result.Outcomes...),
		Reason:   g.result.Reason,
	}
}

// Snapshot returns a copy of the session state.
func (g *Game) Snapshot() i.GameSnapshot {
	g.mu.Lock()
	defer g.mu.Unlock()

	s := i.GameSnapshot{
		Rows:      g.rows,
		Columns:   g.columns,
		Scores:    append([]int(nil), g.scores...),
		Connected: append([]bool(nil), g.online...),
		MolesUp:   make([]int, 0),
		StartedAt: g.start,
		Duration:  g.duration,
		Over:      g.over,
	}
	for id, up := range g.moles {
		if up {
			s.MolesUp = append(s.MolesUp, id)
		}
	}
	if g.result != nil {
		for _, o := range g.result.Outcomes {
			s.Outcomes = append(s.Outcomes, o.String())
		}
	}
	return s
}

// finish decides the result and queues the terminal lines. Mole tasks must
// already be stopped.
func (g *Game) finish(reason error) *Result {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.over = true
	result := &Result{
		Scores:   append([]int(nil), g.scores...),
		Outcomes: make([]Outcome, len(g.scores)),
	}

	if reason == nil {
		result.Outcomes = DecideOutcomes(result.Scores)
		for n, p := range g.players {
			if !g.online[n] {
				continue
			}
			msg, _ := result.Outcomes[n].Message()
			g.sendFinal(p, msg)
		}
	} else {
		result.Reason = reason.Error()
		for n, p := range g.players {
			result.Outcomes[n] = Errored
			if g.online[n] {
				g.sendFinal(p, protocol.Error(result.Reason))
			}
		}
	}

	for id := range g.moles {
		g.moles[id] = false
		for n, p := range g.players {
			if g.online[n] {
				g.sendFinal(p, protocol.MoleDown(id))
			}
		}
	}

	g.result = result
	return result
}

func (g *Game) sendFinal(p *Player, msg protocol.Message) {
	if err := p.SendFinal(protocol.MustEncode(msg)); err != nil {
		g.logger.Warning(fmt.Sprintf("dropping %s for player %d: %s", msg.Kind, p.Number(), err))
	}
}

// broadcastLocked queues msg for every online player. Players whose outbox
// overflows go offline and are closed by the caller after unlocking.
func (g *Game) broadcastLocked(msg protocol.Message) {
	line := protocol.MustEncode(msg)
	for n, p := range g.players {
		if !g.online[n] {
			continue
		}
		if err := p.Send(line); err != nil {
			g.online[n] = false
			g.dropped = append(g.dropped, p)
			g.logger.Warning(fmt.Sprintf("dropping player %d: %s", n, err))
		}
	}
}

func (g *Game) takeDroppedLocked() []*Player {
	dropped := g.dropped
	g.dropped = nil
	return dropped
}

func (g *Game) closeDropped(players []*Player) {
	for _, p := range players {
		go p.Close()
	}
}
