package orders

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonicalID(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"1a3", "ORD-000001A3"},
		{"ord-1a3", "ORD-000001A3"},
		{"  ORD-1A3  ", "ORD-000001A3"},
		{"DEADBEEF", "ORD-DEADBEEF"},
		{"DEADBEEF42", "ORD-DEADBEEF42"},
		{"0", "ORD-00000000"},
	}
	for _, tt := range tests {
		got, err := CanonicalID(tt.raw)
		require.NoError(t, err, tt.raw)
		assert.Equal(t, tt.want, got)
	}
}

func TestCanonicalIDIsIdempotent(t *testing.T) {
	for _, raw := range []string{"1", "ff", "ORD-1A3", "deadbeef42", "  0042  "} {
		once, err := CanonicalID(raw)
		require.NoError(t, err)
		twice, err := CanonicalID(once)
		require.NoError(t, err)
		assert.Equal(t, once, twice)
	}
}

func TestCanonicalIDRejectsNonHex(t *testing.T) {
	for _, raw := range []string{"", "   ", "ORD-", "xyz", "12G4", "12-34", "ORD-ORD-12"} {
		_, err := CanonicalID(raw)
		assert.ErrorIs(t, err, ErrInvalidID, "raw=%q", raw)
	}
}
