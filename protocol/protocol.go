// Package protocol encodes and decodes the line-oriented whack-a-mole wire
// messages. Every message is one line of space-separated ASCII tokens; the
// first token names the message. Mole positions are numbered in row-major
// order starting at zero.
package protocol

// Kind names a wire message.
type Kind string

const (
	KindWelcome  Kind = "WELCOME"   // server: rows columns players playerNumber
	KindMoleUp   Kind = "MOLE_UP"   // server: moleID
	KindMoleDown Kind = "MOLE_DOWN" // server: moleID
	KindWhack    Kind = "WHACK"     // client: moleID playerNumber
	KindScore    Kind = "SCORE"     // server: one score per player
	KindGameWon  Kind = "GAME_WON"
	KindGameLost Kind = "GAME_LOST"
	KindGameTied Kind = "GAME_TIED"
	KindError    Kind = "ERROR" // server: free text, connection closes afterwards
)

// Message is a decoded wire message. Only the fields relevant to Kind are set.
type Message struct {
	Kind Kind

	Rows         int
	Columns      int
	PlayerCount  int
	PlayerNumber int
	MoleID       int
	Scores       []int
	Text         string
}

func Welcome(rows, columns, players, playerNumber int) Message {
	return Message{Kind: KindWelcome, Rows: rows, Columns: columns, PlayerCount: players, PlayerNumber: playerNumber}
}

func MoleUp(moleID int) Message {
	return Message{Kind: KindMoleUp, MoleID: moleID}
}

func MoleDown(moleID int) Message {
	return Message{Kind: KindMoleDown, MoleID: moleID}
}

func Whack(moleID, playerNumber int) Message {
	return Message{Kind: KindWhack, MoleID: moleID, PlayerNumber: playerNumber}
}

// Score copies scores so the message stays a snapshot.
func Score(scores []int) Message {
	return Message{Kind: KindScore, Scores: append([]int(nil), scores...)}
}

func GameWon() Message  { return Message{Kind: KindGameWon} }
func GameLost() Message { return Message{Kind: KindGameLost} }
func GameTied() Message { return Message{Kind: KindGameTied} }

func Error(text string) Message {
	return Message{Kind: KindError, Text: text}
}
