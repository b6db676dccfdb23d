package service

import "github.com/beka-birhanu/wam-game-server/protocol"

// Outcome is a player's result for a session.
type Outcome int

const (
	NotOver Outcome = iota
	Won
	Lost
	Tied
	Errored
)

func (o Outcome) String() string {
	switch o {
	case NotOver:
		return "NOT_OVER"
	case Won:
		return "WON"
	case Lost:
		return "LOST"
	case Tied:
		return "TIED"
	case Errored:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Message returns the terminal wire message for o. Errored needs a reason
// and NotOver has no message, so both report false.
func (o Outcome) Message() (protocol.Message, bool) {
	switch o {
	case Won:
		return protocol.GameWon(), true
	case Lost:
		return protocol.GameLost(), true
	case Tied:
		return protocol.GameTied(), true
	default:
		return protocol.Message{}, false
	}
}

// Result is the end state of a session. Reason is set only when the session
// ended with an error, in which case every outcome is Errored.
type Result struct {
	Scores   []int
	Outcomes []Outcome
	Reason   string
}

// DecideOutcomes applies the end-of-game rule to the final scores. A sole
// player at the maximum wins; when several share the maximum they tie. Every
// player below the maximum loses.
func DecideOutcomes(scores []int) []Outcome {
	outcomes := make([]Outcome, len(scores))
	if len(scores) == 0 {
		return outcomes
	}

	best := scores[0]
	for _, s := range scores[1:] {
		if s > best {
			best = s
		}
	}

	atMax := 0
	for _, s := range scores {
		if s == best {
			atMax++
		}
	}

	top := Won
	if atMax > 1 {
		top = Tied
	}
	for i, s := range scores {
		if s == best {
			outcomes[i] = top
		} else {
			outcomes[i] = Lost
		}
	}
	return outcomes
}
