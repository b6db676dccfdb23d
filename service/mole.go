package service

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"
)

var ErrInvalidTiming = errors.New("invalid mole timing")

// MoleTiming bounds the random time a mole spends down (idle) and up.
// Each interval is [min, max).
type MoleTiming struct {
	IdleMin time.Duration
	IdleMax time.Duration
	UpMin   time.Duration
	UpMax   time.Duration
}

// DefaultMoleTiming: down for 2-10s, up for 3-5s.
var DefaultMoleTiming = MoleTiming{
	IdleMin: 2 * time.Second,
	IdleMax: 10 * time.Second,
	UpMin:   3 * time.Second,
	UpMax:   5 * time.Second,
}

func (t MoleTiming) validate() error {
	if t.IdleMin <= 0 || t.IdleMax <= t.IdleMin || t.UpMin <= 0 || t.UpMax <= t.UpMin {
		return ErrInvalidTiming
	}
	return nil
}

// MoleSink receives mole transitions. It returns false once the session no
// longer accepts them, which ends the task.
type MoleSink interface {
	MoleTransition(ctx context.Context, moleID int, up bool) bool
}

// MoleTask cycles one hole between down and up until its context is canceled.
type MoleTask struct {
	id     int
	timing MoleTiming
}

func NewMoleTask(id int, timing MoleTiming) *MoleTask {
	return &MoleTask{id: id, timing: timing}
}

// Run blocks until ctx is canceled or the sink refuses a transition.
func (m *MoleTask) Run(ctx context.Context, sink MoleSink) {
	for {
		if !sleep(ctx, between(m.timing.IdleMin, m.timing.IdleMax)) {
			return
		}
		if !sink.MoleTransition(ctx, m.id, true) {
			return
		}
		if !sleep(ctx, between(m.timing.UpMin, m.timing.UpMax)) {
			return
		}
		if !sink.MoleTransition(ctx, m.id, false) {
			return
		}
	}
}

// sleep waits for d and reports whether ctx is still live.
func sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return ctx.Err() == nil
	}
}

func between(lo, hi time.Duration) time.Duration {
	return lo + rand.N(hi-lo)
}
