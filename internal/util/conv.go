package util

import (
	"strconv"
	"strings"
)

// ParseCount parses a non-negative count path parameter.
func ParseCount(s string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// UserOrAnonymous returns the trimmed user id, or AnonymousUser when empty.
func UserOrAnonymous(userID string) string {
	if id := strings.TrimSpace(userID); id != "" {
		return id
	}
	return AnonymousUser
}
