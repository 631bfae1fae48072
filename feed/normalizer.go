package feed

import (
	"time"

	"github.com/araddon/dateparse"
)

// NormalizeTimestamp maps the timestamp representations found in stored
// entries (native time, ISO-ish strings, numeric epochs in seconds or
// milliseconds) to an RFC 3339 UTC string. The second return value is
// false when the value cannot be interpreted; callers must then omit the
// field, never emit a best-effort string.
func NormalizeTimestamp(value interface{}) (string, bool) {
	switch v := value.(type) {
	case time.Time:
		if v.IsZero() {
			return "", false
		}
		return v.UTC().Format(time.RFC3339), true
	case *time.Time:
		if v == nil || v.IsZero() {
			return "", false
		}
		return v.UTC().Format(time.RFC3339), true
	case string:
		if v == "" {
			return "", false
		}
		t, err := dateparse.ParseIn(v, time.UTC)
		if err != nil {
			return "", false
		}
		return t.UTC().Format(time.RFC3339), true
	case int:
		return normalizeEpoch(int64(v))
	case int64:
		return normalizeEpoch(v)
	case float64:
		return normalizeEpoch(int64(v))
	default:
		return "", false
	}
}

// normalizeEpoch treats values above 1e12 as milliseconds, everything
// else as seconds.
func normalizeEpoch(epoch int64) (string, bool) {
	if epoch <= 0 {
		return "", false
	}
	var t time.Time
	if epoch > 1e12 {
		t = time.Unix(epoch/1000, (epoch%1000)*int64(time.Millisecond))
	} else {
		t = time.Unix(epoch, 0)
	}
	return t.UTC().Format(time.RFC3339), true
}
