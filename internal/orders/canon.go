package orders

import (
	"errors"
	"strings"
)

const (
	// IDPrefix is attached to every canonical order id.
	IDPrefix = "ORD-"
	// idMinWidth is the minimum number of hex digits after the prefix;
	// shorter ids are left-padded with zeros.
	idMinWidth = 8
)

var ErrInvalidID = errors.New("invalid order id")

// CanonicalID normalizes a raw order id into its canonical form: trimmed,
// uppercased, prefix stripped if present, the remainder required to be hex,
// zero-padded to the minimum width, prefix re-attached. Canonicalization is
// idempotent.
func CanonicalID(raw string) (string, error) {
	s := strings.ToUpper(strings.TrimSpace(raw))
	s = strings.TrimPrefix(s, IDPrefix)
	if s == "" {
		return "", ErrInvalidID
	}
	for _, r := range s {
		if !isHexDigit(r) {
			return "", ErrInvalidID
		}
	}
	if pad := idMinWidth - len(s); pad > 0 {
		s = strings.Repeat("0", pad) + s
	}
	return IDPrefix + s, nil
}

func isHexDigit(r rune) bool {
	return (r >= '0' && r <= '9') || (r >= 'A' && r <= 'F')
}

// Partition key = order id, so every event for one order lands in one
// ordered sub-stream.
func PartitionKey(orderID string) []byte { return []byte(orderID) }
