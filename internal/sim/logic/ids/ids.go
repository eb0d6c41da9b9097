// Package ids parses the counter-based ids handed out by the game state.
package ids

import (
	"strconv"
	"strings"
)

func MaxU64(a, b uint64) uint64 {
	if a >= b {
		return a
	}
	return b
}

// ParseUintAfterPrefix returns N for ids of the form <prefix><N>.
func ParseUintAfterPrefix(prefix, id string) (uint64, bool) {
	if !strings.HasPrefix(id, prefix) {
		return 0, false
	}
	n, err := strconv.ParseUint(id[len(prefix):], 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// MaxCounter returns the largest N across ids shaped <prefix><N>, ignoring
// ids with other shapes.
func MaxCounter(prefix string, idList []string) uint64 {
	var m uint64
	for _, id := range idList {
		if n, ok := ParseUintAfterPrefix(prefix, id); ok {
			m = MaxU64(m, n)
		}
	}
	return m
}
