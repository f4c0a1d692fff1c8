package orders

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRank(t *testing.T) {
	assert.Equal(t, 0, Rank(StatusNew))
	assert.Equal(t, 1, Rank(StatusConfirmed))
	assert.Equal(t, 2, Rank(StatusDispatched))
	assert.Equal(t, 3, Rank(StatusCompleted))
	assert.Equal(t, RankCanceled, Rank(StatusCanceled))
	assert.Equal(t, RankUnknown, Rank(Status("SHIPPED")))
}

func TestIsValidTransition(t *testing.T) {
	tests := []struct {
		name    string
		current Status
		next    Status
		want    bool
	}{
		{"sequential step", StatusNew, StatusConfirmed, true},
		{"skip one step", StatusNew, StatusDispatched, false},
		{"skip to completed", StatusNew, StatusCompleted, false},
		{"regression", StatusDispatched, StatusConfirmed, false},
		{"cancel from new", StatusNew, StatusCanceled, true},
		{"cancel from dispatched", StatusDispatched, StatusCanceled, true},
		{"cancel from completed", StatusCompleted, StatusCanceled, false},
		{"out of canceled", StatusCanceled, StatusNew, false},
		{"out of completed", StatusCompleted, StatusNew, false},
		{"bootstrap new", "", StatusNew, true},
		{"bootstrap mid-stream", "", StatusDispatched, true},
		{"bootstrap unknown", "", Status("SHIPPED"), false},
		{"unknown next", StatusNew, Status("SHIPPED"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsValidTransition(tt.current, tt.next))
		})
	}
}

// Every valid non-cancel transition from a known status advances the rank
// by exactly one.
func TestTransitionsAreStrictlySequential(t *testing.T) {
	all := []Status{StatusNew, StatusConfirmed, StatusDispatched, StatusCompleted, StatusCanceled}
	for _, from := range all {
		for _, to := range all {
			if to == StatusCanceled || from == to {
				continue
			}
			if IsValidTransition(from, to) {
				assert.Equal(t, Rank(from)+1, Rank(to), "%s -> %s", from, to)
			}
		}
	}
}

func TestParseStatus(t *testing.T) {
	s, ok := ParseStatus("  confirmed ")
	assert.True(t, ok)
	assert.Equal(t, StatusConfirmed, s)

	_, ok = ParseStatus("SHIPPED")
	assert.False(t, ok)
}

func TestAllowedNext(t *testing.T) {
	assert.Equal(t, []Status{StatusConfirmed, StatusCanceled}, AllowedNext(StatusNew))
	assert.Equal(t, []Status{StatusCompleted, StatusCanceled}, AllowedNext(StatusDispatched))
	assert.Empty(t, AllowedNext(StatusCompleted))
	assert.Empty(t, AllowedNext(StatusCanceled))
}
