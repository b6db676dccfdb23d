package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	general_i "github.com/beka-birhanu/vinom-common/interfaces/general"
	"github.com/beka-birhanu/wam-game-server/protocol"
	"github.com/beka-birhanu/wam-game-server/service/i"
	"github.com/google/uuid"
)

// Session manager errors.
var (
	ErrNotAccepting = errors.New("server is not accepting players")
	ErrNoSession    = errors.New("no session")
)

const shutdownMessage = "server shutting down"

// GameSessionManager fills a lobby with connections and, once the expected
// number of players has joined, runs a Game for them.
type GameSessionManager struct {
	sessions     map[uuid.UUID]i.GameServer
	lobby        []*Player
	rows         int
	columns      int
	players      int
	duration     time.Duration
	timing       MoleTiming
	outboxSize   int
	reserve      int
	repeat       bool
	closed       bool
	gameFactory  func(*GameConfig, []*Player) (i.GameServer, error)
	logger       general_i.Logger
	gameLogger   general_i.Logger
	playerLogger general_i.Logger
	done         chan struct{}
	doneOnce     sync.Once
	wg           sync.WaitGroup
	sync.RWMutex
}

// Config configures a GameSessionManager. GameLogger and PlayerLogger default
// to Logger; GameFactory defaults to NewGame.
type Config struct {
	Rows           int
	Columns        int
	Players        int
	Duration       time.Duration
	Timing         MoleTiming
	OutboxSize     int
	RepeatSessions bool
	GameFactory    func(*GameConfig, []*Player) (i.GameServer, error)
	Logger         general_i.Logger
	GameLogger     general_i.Logger
	PlayerLogger   general_i.Logger
}

func NewGameSessionManager(c *Config) (*GameSessionManager, error) {
	if c.Players < minPlayers {
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

	outbox := c.OutboxSize
	if outbox <= 0 {
		outbox = defaultOutboxSize
	}

	gsm := &GameSessionManager{
		sessions:   make(map[uuid.UUID]i.GameServer),
		rows:       c.Rows,
		columns:    c.Columns,
		players:    c.Players,
		duration:   c.Duration,
		timing:     c.Timing,
		outboxSize: outbox,
		// Room for the outcome and one MOLE_DOWN per hole queued at game end.
		reserve:      c.Rows*c.Columns + 1,
		repeat:       c.RepeatSessions,
		gameFactory:  c.GameFactory,
		logger:       c.Logger,
		gameLogger:   c.GameLogger,
		playerLogger: c.PlayerLogger,
		done:         make(chan struct{}),
	}
	if gsm.gameFactory == nil {
		gsm.gameFactory = func(gc *GameConfig, roster []*Player) (i.GameServer, error) {
			return NewGame(gc, roster)
		}
	}
	if gsm.gameLogger == nil {
		gsm.gameLogger = c.Logger
	}
	if gsm.playerLogger == nil {
		gsm.playerLogger = c.Logger
	}
	return gsm, nil
}

// Enroll welcomes conn as the next player of the open lobby. The connection
// that completes the lobby starts a new session.
func (g *GameSessionManager) Enroll(conn i.LineConn) error {
	g.Lock()
	if g.closed {
		g.Unlock()
		return ErrNotAccepting
	}

	number := len(g.lobby)
	player := NewPlayer(conn, number, WelcomeInfo{Rows: g.rows, Columns: g.columns, PlayerCount: g.players}, PlayerOptions{
		OutboxSize: g.outboxSize,
		Reserve:    g.reserve,
		Logger:     g.playerLogger,
	})
	g.lobby = append(g.lobby, player)
	g.logger.Info(fmt.Sprintf("player %d connected from %s (%d/%d)", number, conn.RemoteAddr(), len(g.lobby), g.players))
	if len(g.lobby) < g.players {
		g.Unlock()
		return nil
	}

	roster := g.lobby
	g.lobby = nil
	if !g.repeat {
		g.closed = true
	}

	game, err := g.gameFactory(&GameConfig{
		Rows:     g.rows,
		Columns:  g.columns,
		Duration: g.duration,
		Timing:   g.timing,
		Logger:   g.gameLogger,
	}, roster)
	if err != nil {
		g.Unlock()
		g.logger.Error(fmt.Sprintf("creating new game: %s", err))
		for _, p := range roster {
			_ = p.SendFinal(protocol.MustEncode(protocol.Error(err.Error())))
			p.Close()
		}
		g.finishOne()
		return err
	}

	sessionID := g.saveSession(game)
	g.wg.Add(1)
	g.Unlock()

	go g.runSession(sessionID, game)
	g.logger.Info(fmt.Sprintf("started session %s for %d players", sessionID, len(roster)))
	return nil
}

// SessionInfo returns the snapshot of a running session.
func (g *GameSessionManager) SessionInfo(id uuid.UUID) (i.SessionInfo, error) {
	g.RLock()
	defer g.RUnlock()
	game, ok := g.sessions[id]
	if !ok {
		return i.SessionInfo{}, ErrNoSession
	}
	return i.SessionInfo{ID: id, Game: game.Snapshot()}, nil
}

// Sessions lists running sessions, oldest first.
func (g *GameSessionManager) Sessions() []i.SessionInfo {
	g.RLock()
	infos := make([]i.SessionInfo, 0, len(g.sessions))
	for id, game := range g.sessions {
		infos = append(infos, i.SessionInfo{ID: id, Game: game.Snapshot()})
	}
	g.RUnlock()

	slices.SortFunc(infos, func(a, b i.SessionInfo) int {
		if c := a.Game.StartedAt.Compare(b.Game.StartedAt); c != 0 {
			return c
		}
		return slices.Compare(a.ID[:], b.ID[:])
	})
	return infos
}

// Pending returns the number of players waiting in the open lobby.
func (g *GameSessionManager) Pending() int {
	g.RLock()
	defer g.RUnlock()
	return len(g.lobby)
}

// Done is closed after the first session ends when sessions do not repeat,
// and after StopAll otherwise.
func (g *GameSessionManager) Done() <-chan struct{} {
	return g.done
}

// StopAll refuses further players, ends every running session, drops the
// open lobby, and waits for the sessions to finish.
func (g *GameSessionManager) StopAll() {
	g.Lock()
	g.closed = true
	for _, game := range g.sessions {
		game.Stop()
	}
	lobby := g.lobby
	g.lobby = nil
	g.Unlock()

	for _, p := range lobby {
		_ = p.SendFinal(protocol.MustEncode(protocol.Error(shutdownMessage)))
		p.Close()
	}
	g.wg.Wait()
	g.doneOnce.Do(func() { close(g.done) })
}

func (g *GameSessionManager) saveSession(game i.GameServer) uuid.UUID {
	sessionID := uuid.New()
	for {
		if _, ok := g.sessions[sessionID]; !ok {
			break
		}
		sessionID = uuid.New()
	}
	g.sessions[sessionID] = game
	return sessionID
}

func (g *GameSessionManager) runSession(id uuid.UUID, game i.GameServer) {
	defer g.wg.Done()
	if err := game.Run(context.Background()); err != nil {
		g.logger.Warning(fmt.Sprintf("session %s ended early: %s", id, err))
	} else {
		g.logger.Info(fmt.Sprintf("session %s finished", id))
	}
	g.clean(id)
	g.finishOne()
}

// finishOne closes Done when the server only ever runs one session.
func (g *GameSessionManager) finishOne() {
	if !g.repeat {
		g.doneOnce.Do(func() { close(g.done) })
	}
}

func (g *GameSessionManager) clean(id uuid.UUID) {
	g.Lock()
	defer g.Unlock()
	delete(g.sessions, id)
}
