package timewindow

import (
	"fmt"
	"strings"
	"time"
)

// MalformedTimestampError reports a timestamp that is not in the ISO-8601 UTC
// form the GitHub API emits. Misreading a timestamp would silently misclassify
// activity as recent or stale, so callers treat this as fatal.
type MalformedTimestampError struct {
	Value string
}

func (e *MalformedTimestampError) Error() string {
	return fmt.Sprintf("malformed timestamp %q: expected ISO-8601 with Z or +00:00 suffix", e.Value)
}

// Parse accepts the exact timestamp encoding the platform uses: RFC 3339 with a
// literal Z designator, or its +00:00 equivalent. Anything else fails.
func Parse(s string) (time.Time, error) {
	if !strings.HasSuffix(s, "Z") && !strings.HasSuffix(s, "+00:00") {
		return time.Time{}, &MalformedTimestampError{Value: s}
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, &MalformedTimestampError{Value: s}
	}
	return t.UTC(), nil
}

// Window classifies timestamps as in or out of scope for a run. Exactly one of
// the two modes is active:
//
//   - rolling: membership is strictly after cutoff (now − N days)
//   - exact:   membership is start <= t <= end, inclusive at both ends
//
// The strict/inclusive asymmetry mirrors the report's historical behavior and
// is covered by tests; do not unify the comparisons.
type Window struct {
	exact  bool
	cutoff time.Time
	start  time.Time
	end    time.Time
}

// Rolling builds a window whose cutoff is days*24h before now.
func Rolling(now time.Time, days int) Window {
	if days < 1 {
		days = 1
	}
	return Window{cutoff: now.UTC().Add(-time.Duration(days) * 24 * time.Hour)}
}

// Exact builds an inclusive [start, end] window. Inputs may carry any timezone;
// comparisons happen in UTC.
func Exact(start, end time.Time) Window {
	return Window{exact: true, start: start.UTC(), end: end.UTC()}
}

// Contains reports whether t is inside the window.
func (w Window) Contains(t time.Time) bool {
	t = t.UTC()
	if w.exact {
		return !t.Before(w.start) && !t.After(w.end)
	}
	return t.After(w.cutoff)
}

// Start returns the lower bound of the window, used as the `since` parameter on
// REST listing calls.
func (w Window) Start() time.Time {
	if w.exact {
		return w.start
	}
	return w.cutoff
}

// Exact reports whether the window is in exact-range mode.
func (w Window) Exact() bool { return w.exact }
