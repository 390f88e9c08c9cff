package attendance

import (
	"math"
	"strings"
	"time"
)

const (
	// SessionCeiling is the longest a session may stay open before it is
	// force-closed.
	SessionCeiling = 12 * time.Hour

	FullDayHours = 8.0
	HalfDayHours = 4.5

	// MaxClockSkew bounds how far in the future a stored check-in may sit
	// before it is treated as corrupt.
	MaxClockSkew = 5 * time.Minute
)

const (
	NoteCheckInAutoClose = "Auto-checked out (12h rule)"
	NoteSweeperAutoClose = "System Auto-Close (Absent: >12h limit)"
)

// Classify maps worked hours to a day status.
func Classify(hours float64) Status {
	switch {
	case hours >= FullDayHours:
		return StatusPresent
	case hours >= HalfDayHours:
		return StatusHalfDay
	default:
		return StatusAbsent
	}
}

// HoursBetween returns the hours from in to out rounded to two decimals,
// never negative.
func HoursBetween(in, out time.Time) float64 {
	h := out.Sub(in).Hours()
	if math.IsNaN(h) || h <= 0 {
		return 0
	}
	return math.Round(h*100) / 100
}

type Trigger int

const (
	TriggerCheckIn Trigger = iota
	TriggerSweeper
)

func (t Trigger) String() string {
	if t == TriggerSweeper {
		return "sweeper"
	}
	return "check_in"
}

// ClosePolicy decides how an abandoned session is closed.
type ClosePolicy struct {
	// CheckInPenalty is the status given to a session closed because its
	// owner checked in again.
	CheckInPenalty Status
}

func DefaultClosePolicy() ClosePolicy {
	return ClosePolicy{CheckInPenalty: StatusPresent}
}

// ForceClose caps rec at SessionCeiling. The sweeper always records Absent.
func (p ClosePolicy) ForceClose(rec Record, trigger Trigger, at time.Time) Record {
	if rec.CheckIn == nil {
		return rec
	}
	out := rec.CheckIn.Add(SessionCeiling)
	rec.CheckOut = &out
	rec.TotalHours = SessionCeiling.Hours()
	rec.AutoCheckedOut = true
	rec.UpdatedAt = at

	switch trigger {
	case TriggerSweeper:
		rec.Status = StatusAbsent
		rec.Notes = appendNote(rec.Notes, NoteSweeperAutoClose)
	default:
		rec.Status = p.CheckInPenalty
		if rec.Status == "" {
			rec.Status = StatusPresent
		}
		rec.Notes = appendNote(rec.Notes, NoteCheckInAutoClose)
	}
	return rec
}

// IsAbandoned reports whether rec has been open for at least SessionCeiling.
func IsAbandoned(rec Record, now time.Time) bool {
	return rec.IsOpen() && now.Sub(*rec.CheckIn) >= SessionCeiling
}

// ValidCheckIn rejects a missing, zero or future check-in.
func ValidCheckIn(rec Record, now time.Time) bool {
	if rec.CheckIn == nil || rec.CheckIn.IsZero() {
		return false
	}
	return !rec.CheckIn.After(now.Add(MaxClockSkew))
}

func appendNote(existing, note string) string {
	existing = strings.TrimSpace(existing)
	if existing == "" {
		return note
	}
	return existing + "; " + note
}
