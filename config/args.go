package config

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"
)

// Usage is printed when the process arguments cannot be parsed.
const Usage = "usage: wam-server <port> <rows> <columns> <players> <duration-seconds>"

var ErrUsage = errors.New(Usage)

// maxDurationSeconds is the most whole seconds a time.Duration can hold.
const maxDurationSeconds = math.MaxInt64 / int64(time.Second)

// Args are the game parameters given on the command line.
type Args struct {
	Port     int
	Rows     int
	Columns  int
	Players  int
	Duration time.Duration
}

// ParseArgs parses the five positional arguments, excluding the program name.
func ParseArgs(args []string) (Args, error) {
	if len(args) != 5 {
		return Args{}, ErrUsage
	}

	names := []string{"port", "rows", "columns", "players", "duration"}
	values := make([]int, len(args))
	for i, a := range args {
		v, err := strconv.Atoi(a)
		if err != nil {
			return Args{}, fmt.Errorf("%s must be an integer: %w", names[i], err)
		}
		if v < 1 {
			return Args{}, fmt.Errorf("%s must be positive, got %d", names[i], v)
		}
		values[i] = v
	}

	if values[0] > 65535 {
		return Args{}, fmt.Errorf("port out of range: %d", values[0])
	}
	if int64(values[4]) > maxDurationSeconds {
		return Args{}, fmt.Errorf("duration out of range: %d", values[4])
	}

	return Args{
		Port:     values[0],
		Rows:     values[1],
		Columns:  values[2],
		Players:  values[3],
		Duration: time.Duration(values[4]) * time.Second,
	}, nil
}
