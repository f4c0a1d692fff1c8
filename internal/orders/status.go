package orders

import "strings"

type Status string

const (
	StatusNew        Status = "NEW"
	StatusConfirmed  Status = "CONFIRMED"
	StatusDispatched Status = "DISPATCHED"
	StatusCompleted  Status = "COMPLETED"
	StatusCanceled   Status = "CANCELED"
)

const (
	// RankUnknown marks a status outside the lifecycle.
	RankUnknown = -1
	// RankCanceled sits outside the sequential ladder; cancellation is
	// reachable from any non-terminal status.
	RankCanceled = 99
)

var ranks = map[Status]int{
	StatusNew:        0,
	StatusConfirmed:  1,
	StatusDispatched: 2,
	StatusCompleted:  3,
	StatusCanceled:   RankCanceled,
}

// Rank returns the position of a status in the order lifecycle.
func Rank(s Status) int {
	if r, ok := ranks[s]; ok {
		return r
	}
	return RankUnknown
}

func (s Status) Known() bool {
	_, ok := ranks[s]
	return ok
}

func IsTerminal(s Status) bool {
	return s == StatusCompleted || s == StatusCanceled
}

// ParseStatus normalizes raw input into a Status. ok is false for anything
// outside the lifecycle.
func ParseStatus(raw string) (Status, bool) {
	s := Status(strings.ToUpper(strings.TrimSpace(raw)))
	return s, s.Known()
}

// IsValidTransition reports whether an order may move from current to next.
// An empty current means no record exists yet; any recognized status may
// bootstrap a new order. Same-status calls are the caller's problem: detect
// duplicates before asking the state machine.
func IsValidTransition(current, next Status) bool {
	if !next.Known() {
		return false
	}
	if current == "" {
		return true
	}
	if IsTerminal(current) {
		return false
	}
	if next == StatusCanceled {
		return true
	}
	return Rank(next) == Rank(current)+1
}

// AllowedNext lists the statuses reachable from current, for error messages.
func AllowedNext(current Status) []Status {
	all := []Status{StatusNew, StatusConfirmed, StatusDispatched, StatusCompleted, StatusCanceled}
	var out []Status
	for _, s := range all {
		if s != current && IsValidTransition(current, s) {
			out = append(out, s)
		}
	}
	return out
}
