package repository

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"practice_exam_backend/internal/util"
)

// Stored columns are loosely typed: numbers come back as json.Number, older
// rows hold numbers as strings. These helpers read them tolerantly.

func propString(props map[string]any, key string) string {
	switch v := props[key].(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	default:
		return ""
	}
}

func propInt(props map[string]any, key string) (int, bool) {
	return toInt(props[key])
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case float64:
		if n == math.Trunc(n) && !math.IsInf(n, 0) {
			return int(n), true
		}
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return int(i), true
		}
		if f, err := n.Float64(); err == nil && f == math.Trunc(f) {
			return int(f), true
		}
	case string:
		if i, err := strconv.Atoi(strings.TrimSpace(n)); err == nil {
			return i, true
		}
	}
	return 0, false
}

func propBool(props map[string]any, key string) bool {
	switch v := props[key].(type) {
	case bool:
		return v
	case string:
		b, _ := strconv.ParseBool(strings.TrimSpace(v))
		return b
	default:
		n, ok := toInt(v)
		return ok && n != 0
	}
}

func propTime(props map[string]any, key string) (time.Time, bool) {
	s := propString(props, key)
	if s == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// storageError wraps unexpected store failures so callers can tell them apart
// from domain outcomes.
func storageError(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, util.ErrStorageUnavailable, err)
}
