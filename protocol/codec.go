package protocol

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Codec errors, wrapped by DecodeError.
var (
	ErrEmptyLine   = errors.New("empty line")
	ErrUnknownKind = errors.New("unknown message")
	ErrArgCount    = errors.New("wrong number of arguments")
	ErrBadInteger  = errors.New("argument is not an integer")
)

// DecodeError reports a line that is not a valid message.
type DecodeError struct {
	Line   string
	Reason string
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %q: %s", e.Line, e.Reason)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// argCount is the exact number of arguments per kind. SCORE and ERROR are variadic.
var argCount = map[Kind]int{
	KindWelcome:  4,
	KindMoleUp:   1,
	KindMoleDown: 1,
	KindWhack:    2,
	KindGameWon:  0,
	KindGameLost: 0,
	KindGameTied: 0,
}

// Encode renders m as a single line without the trailing newline.
func Encode(m Message) (string, error) {
	switch m.Kind {
	case KindWelcome:
		return join(m.Kind, m.Rows, m.Columns, m.PlayerCount, m.PlayerNumber), nil
	case KindMoleUp, KindMoleDown:
		return join(m.Kind, m.MoleID), nil
	case KindWhack:
		return join(m.Kind, m.MoleID, m.PlayerNumber), nil
	case KindScore:
		if len(m.Scores) == 0 {
			return "", fmt.Errorf("encode %s: %w", m.Kind, ErrArgCount)
		}
		return join(m.Kind, m.Scores...), nil
	case KindGameWon, KindGameLost, KindGameTied:
		return string(m.Kind), nil
	case KindError:
		text := strings.Join(strings.Fields(m.Text), " ")
		if text == "" {
			return string(m.Kind), nil
		}
		return string(m.Kind) + " " + text, nil
	default:
		return "", fmt.Errorf("encode %q: %w", m.Kind, ErrUnknownKind)
	}
}

// MustEncode is Encode for messages built by the constructors, which always encode.
func MustEncode(m Message) string {
	line, err := Encode(m)
	if err != nil {
		panic(err)
	}
	return line
}

// Decode parses one line. Surrounding white space, including the line
// terminator, is ignored. Failures are returned as *DecodeError.
func Decode(line string) (Message, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Message{}, decodeErr(line, "empty line", ErrEmptyLine)
	}

	kind := Kind(fields[0])
	args := fields[1:]

	switch kind {
	case KindError:
		return Error(strings.Join(args, " ")), nil
	case KindScore:
		if len(args) == 0 {
			return Message{}, decodeErr(line, "SCORE needs at least one score", ErrArgCount)
		}
		scores, err := atoiAll(line, args)
		if err != nil {
			return Message{}, err
		}
		return Message{Kind: KindScore, Scores: scores}, nil
	}

	want, ok := argCount[kind]
	if !ok {
		return Message{}, decodeErr(line, fmt.Sprintf("unknown message %q", fields[0]), ErrUnknownKind)
	}
	if len(args) != want {
		return Message{}, decodeErr(line, fmt.Sprintf("%s takes %d arguments, got %d", kind, want, len(args)), ErrArgCount)
	}
	n, err := atoiAll(line, args)
	if err != nil {
		return Message{}, err
	}

	switch kind {
	case KindWelcome:
		return Welcome(n[0], n[1], n[2], n[3]), nil
	case KindMoleUp:
		return MoleUp(n[0]), nil
	case KindMoleDown:
		return MoleDown(n[0]), nil
	case KindWhack:
		return Whack(n[0], n[1]), nil
	default:
		return Message{Kind: kind}, nil
	}
}

func atoiAll(line string, args []string) ([]int, error) {
	out := make([]int, len(args))
	for i, a := range args {
		v, err := strconv.Atoi(a)
		if err != nil {
			return nil, &DecodeError{Line: line, Reason: fmt.Sprintf("%q is not an integer", a), Err: fmt.Errorf("%w: %w", ErrBadInteger, err)}
		}
		out[i] = v
	}
	return out, nil
}

func join(kind Kind, args ...int) string {
	var b strings.Builder
	b.WriteString(string(kind))
	for _, a := range args {
		b.WriteByte(' ')
		b.WriteString(strconv.Itoa(a))
	}
	return b.String()
}

func decodeErr(line, reason string, err error) *DecodeError {
	return &DecodeError{Line: line, Reason: reason, Err: err}
}
