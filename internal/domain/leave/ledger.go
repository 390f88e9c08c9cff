package leave

import (
	"fmt"
)

// Balance is a user's leave position. Allocated is what was granted per type;
// Remaining is the per-type pool that bookings draw from.
//
//	AvailableLeaves == sum(Allocated) - BookedLeaves
//	Remaining[t]    == Allocated[t] - booked[t]
type Balance struct {
	UserID          string
	Allocated       map[Type]int
	Remaining       map[Type]int
	BookedLeaves    int
	AvailableLeaves int
}

func NewBalance(userID string, pto, sick int) Balance {
	return Balance{
		UserID:          userID,
		Allocated:       map[Type]int{TypePTO: pto, TypeSick: sick},
		Remaining:       map[Type]int{TypePTO: pto, TypeSick: sick},
		AvailableLeaves: pto + sick,
	}
}

func (b Balance) clone() Balance {
	out := b
	out.Allocated = make(map[Type]int, len(Types))
	out.Remaining = make(map[Type]int, len(Types))
	for _, t := range Types {
		out.Allocated[t] = b.Allocated[t]
		out.Remaining[t] = b.Remaining[t]
	}
	return out
}

func (b Balance) TotalAllocated() int {
	total := 0
	for _, t := range Types {
		total += b.Allocated[t]
	}
	return total
}

// Consistent checks the aggregate invariant.
func (b Balance) Consistent() bool {
	return b.AvailableLeaves == b.TotalAllocated()-b.BookedLeaves
}

// Apply books days against the pool for t.
func Apply(b Balance, t Type, days int) (Balance, error) {
	if days <= 0 {
		return b, ErrInvalidDateRange
	}
	if b.Remaining[t] < days {
		return b, fmt.Errorf("%w: %d %s day(s) requested, %d remaining", ErrInsufficientBalance, days, t, b.Remaining[t])
	}
	out := b.clone()
	out.Remaining[t] -= days
	out.BookedLeaves += days
	out.AvailableLeaves -= days
	return out, nil
}

// Reverse is the exact inverse of Apply.
func Reverse(b Balance, t Type, days int) Balance {
	out := b.clone()
	out.Remaining[t] += days
	out.BookedLeaves -= days
	out.AvailableLeaves += days
	return out
}

// Reconcile adjusts b for a status change. A request that stops holding days
// is refunded and one that starts holding them again is booked again; moves
// between two holding statuses leave b untouched.
func Reconcile(b Balance, t Type, days int, from, to Status) (Balance, error) {
	switch {
	case from.Holds() && !to.Holds():
		return Reverse(b, t, days), nil
	case !from.Holds() && to.Holds():
		return Apply(b, t, days)
	}
	return b, nil
}

// Rebook moves a held request from (fromType, fromDays) to (toType, toDays).
func Rebook(b Balance, fromType Type, fromDays int, toType Type, toDays int) (Balance, error) {
	return Apply(Reverse(b, fromType, fromDays), toType, toDays)
}

// Drift describes how far a stored balance was from its ledger.
type Drift struct {
	UserID          string       `json:"user_id"`
	BookedBefore    int          `json:"booked_before"`
	BookedAfter     int          `json:"booked_after"`
	AvailableBefore int          `json:"available_before"`
	AvailableAfter  int          `json:"available_after"`
	RemainingBefore map[Type]int `json:"remaining_before"`
	RemainingAfter  map[Type]int `json:"remaining_after"`
	Changed         bool         `json:"changed"`
}

// Rebuild derives booked, remaining and available from the history rows and
// the stored allocation.
func Rebuild(b Balance, history []HistoryEntry) (Balance, Drift) {
	booked := make(map[Type]int, len(Types))
	total := 0
	for _, h := range history {
		if !h.Status.Holds() {
			continue
		}
		booked[h.LeaveType] += h.DaysTaken
		total += h.DaysTaken
	}

	out := b.clone()
	for _, t := range Types {
		out.Remaining[t] = out.Allocated[t] - booked[t]
	}
	out.BookedLeaves = total
	out.AvailableLeaves = out.TotalAllocated() - total

	drift := Drift{
		UserID:          b.UserID,
		BookedBefore:    b.BookedLeaves,
		BookedAfter:     out.BookedLeaves,
		AvailableBefore: b.AvailableLeaves,
		AvailableAfter:  out.AvailableLeaves,
		RemainingBefore: b.clone().Remaining,
		RemainingAfter:  out.clone().Remaining,
	}
	drift.Changed = drift.BookedBefore != drift.BookedAfter || drift.AvailableBefore != drift.AvailableAfter
	for _, t := range Types {
		if b.Remaining[t] != out.Remaining[t] {
			drift.Changed = true
		}
	}
	return out, drift
}
