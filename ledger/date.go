/*
date.go - Installment date parsing and window membership

PURPOSE:
  Installment dates arrive in two textual conventions: the admin UI's
  date picker writes YYYY-MM-DD, while spreadsheet bulk uploads carry
  whatever the operator typed, conventionally DD/MM/YYYY. Callers must
  not need to know which path a record came through, so parsing accepts
  both and comparison always happens at day granularity.

FAIL-CLOSED CONTRACT:
  A date that cannot be parsed is never inside a window. A date-filtered
  view therefore excludes records with malformed dates rather than
  guessing, and no error is raised anywhere on this path.

SEE ALSO:
  - reconcile.go: Applies DateWindow to installment lists
*/
package ledger

import (
	"strconv"
	"strings"
	"time"
)

// =============================================================================
// PARSING - Two textual conventions, day granularity
// =============================================================================

// ParseDate parses an installment date string.
//
// Slash-separated input must decompose into exactly three DD/MM/YYYY parts.
// Dash-separated input is tried as YYYY-MM-DD first, then DD-MM-YYYY (seen in
// spreadsheet uploads). Anything else fails. The returned time is truncated
// to midnight UTC so comparisons ignore time-of-day.
func ParseDate(text string) (time.Time, bool) {
	s := strings.TrimSpace(text)
	if s == "" {
		return time.Time{}, false
	}

	if strings.Contains(s, "/") {
		parts := strings.Split(s, "/")
		if len(parts) != 3 {
			return time.Time{}, false
		}
		day, err1 := strconv.Atoi(parts[0])
		month, err2 := strconv.Atoi(parts[1])
		year, err3 := strconv.Atoi(parts[2])
		if err1 != nil || err2 != nil || err3 != nil {
			return time.Time{}, false
		}
		return calendarDay(year, month, day)
	}

	if strings.Contains(s, "-") {
		for _, layout := range []string{"2006-01-02", "02-01-2006"} {
			if t, err := time.Parse(layout, s); err == nil {
				return dayOf(t), true
			}
		}
	}

	return time.Time{}, false
}

// calendarDay builds a day-granularity time and rejects out-of-range
// components (time.Date would silently normalize 32/13/2025).
func calendarDay(year, month, day int) (time.Time, bool) {
	if year < 1 || month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, false
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Year() != year || int(t.Month()) != month || t.Day() != day {
		return time.Time{}, false
	}
	return t, true
}

func dayOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// =============================================================================
// DATE WINDOW - Optional closed interval at day granularity
// =============================================================================

// DateWindow is an optional date interval. Either bound may be nil for an
// open end; a window with neither bound matches everything.
type DateWindow struct {
	From *time.Time
	To   *time.Time
}

// NewDateWindow builds a window from two optional date strings. An
// unparseable bound is treated as absent, matching how the screens ignore a
// half-typed filter field.
func NewDateWindow(from, to string) DateWindow {
	var w DateWindow
	if t, ok := ParseDate(from); ok {
		w.From = &t
	}
	if t, ok := ParseDate(to); ok {
		w.To = &t
	}
	return w
}

// Active reports whether any bound is set. An active window is a
// row-existence filter: pairs with no installment inside it drop out of the
// ledger entirely (see BuildRows).
func (w DateWindow) Active() bool { return w.From != nil || w.To != nil }

// Contains tests window membership of a date string at day granularity.
// Unparseable dates fail closed.
func (w DateWindow) Contains(text string) bool {
	if !w.Active() {
		return true
	}
	t, ok := ParseDate(text)
	if !ok {
		return false
	}
	if w.From != nil && t.Before(dayOf(*w.From)) {
		return false
	}
	if w.To != nil && t.After(dayOf(*w.To)) {
		return false
	}
	return true
}
