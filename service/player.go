package service

import (
	"errors"
	"fmt"
	"sync"

	general_i "github.com/beka-birhanu/vinom-common/interfaces/general"
	"github.com/beka-birhanu/wam-game-server/protocol"
	"github.com/beka-birhanu/wam-game-server/service/i"
)

const defaultOutboxSize = 256

// Player errors.
var (
	ErrOutboxFull    = errors.New("player outbox is full")
	ErrUnexpectedMsg = errors.New("unexpected message")
)

// Whacker is the side of the session a player's read loop reports to.
type Whacker interface {
	ApplyWhack(moleID, playerNumber int) (bool, error)
	Disconnected(playerNumber int, err error)
}

// WelcomeInfo carries the session parameters sent to a new player.
type WelcomeInfo struct {
	Rows        int
	Columns     int
	PlayerCount int
}

// PlayerOptions tunes a Player's outbox. Send may fill OutboxSize slots;
// Reserve more are kept for SendFinal so the terminal lines of a session
// still fit behind a full outbox.
type PlayerOptions struct {
	OutboxSize int // <= 0 selects defaultOutboxSize
	Reserve    int
	Logger     general_i.Logger
}

// Player bridges one connection to the session. Outbound lines are queued and
// written by a dedicated goroutine so broadcasts never block on a slow client.
type Player struct {
	number int
	conn   i.LineConn
	logger general_i.Logger

	outbox  chan string
	softCap int           // lines Send may queue; the rest is reserved
	done    chan struct{} // closed once the writer has flushed and closed conn

	mu        sync.Mutex
	closed    bool
	closeOnce sync.Once
}

// NewPlayer queues the WELCOME line and starts the writer.
func NewPlayer(conn i.LineConn, number int, welcome WelcomeInfo, opts PlayerOptions) *Player {
	size := opts.OutboxSize
	if size <= 0 {
		size = defaultOutboxSize
	}
	p := &Player{
		number:  number,
		conn:    conn,
		logger:  opts.Logger,
		outbox:  make(chan string, size+max(opts.Reserve, 0)),
		softCap: size,
		done:    make(chan struct{}),
	}
	p.outbox <- protocol.MustEncode(protocol.Welcome(welcome.Rows, welcome.Columns, welcome.PlayerCount, number))
	go p.write()
	return p
}

// Number returns the player number assigned at connect time.
func (p *Player) Number() int {
	return p.number
}

// Send queues a line. It never blocks and is a no-op once the player is closed.
// It refuses once OutboxSize lines are waiting.
func (p *Player) Send(line string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	if len(p.outbox) >= p.softCap {
		return ErrOutboxFull
	}
	select {
	case p.outbox <- line:
		return nil
	default:
		return ErrOutboxFull
	}
}

// SendFinal queues a terminal line and may use the reserved slots.
func (p *Player) SendFinal(line string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	select {
	case p.outbox <- line:
		return nil
	default:
		return ErrOutboxFull
	}
}

// Close flushes queued lines and closes the connection exactly once. Every
// caller returns only after the connection is closed.
func (p *Player) Close() {
	p.closeOnce.Do(func() {
		p.mu.Lock()
		p.closed = true
		close(p.outbox)
		p.mu.Unlock()
	})
	<-p.done
}

// Serve reads whack requests until the connection fails or sends something
// other than a WHACK.
func (p *Player) Serve(w Whacker) {
	for {
		line, err := p.conn.ReadLine()
		if err != nil {
			w.Disconnected(p.number, err)
			return
		}

		msg, err := protocol.Decode(line)
		if err != nil {
			p.fail(w, err)
			return
		}
		if msg.Kind != protocol.KindWhack {
			p.fail(w, fmt.Errorf("%w: %s", ErrUnexpectedMsg, msg.Kind))
			return
		}
		if msg.PlayerNumber != p.number {
			p.logger.Warning(fmt.Sprintf("player %d whacked as player %d, ignoring", p.number, msg.PlayerNumber))
			continue
		}

		if _, err := w.ApplyWhack(msg.MoleID, msg.PlayerNumber); err != nil {
			if errors.Is(err, ErrGameOver) {
				return
			}
			p.logger.Warning(fmt.Sprintf("rejected whack from player %d: %s", p.number, err))
		}
	}
}

// fail reports a protocol violation to the client and leaves the session.
func (p *Player) fail(w Whacker, err error) {
	p.logger.Warning(fmt.Sprintf("protocol violation from player %d (%s): %s", p.number, p.conn.RemoteAddr(), err))
	_ = p.SendFinal(protocol.MustEncode(protocol.Error(err.Error())))
	w.Disconnected(p.number, err)
}

func (p *Player) write() {
	defer close(p.done)
	broken := false
	for line := range p.outbox {
		if broken {
			continue
		}
		if err := p.conn.WriteLine(line); err != nil {
			p.logger.Error(fmt.Sprintf("writing to player %d: %s", p.number, err))
			broken = true
			_ = p.conn.Close()
		}
	}
	if !broken {
		_ = p.conn.Close()
	}
}
