// Package booking holds the pure interval rules of the booking ledger.
package booking

import "time"

// Interval is a half-open time range [Start, End).
type Interval struct {
	Start time.Time
	End   time.Time
}

// Valid reports whether both bounds are set and Start is strictly before End.
func (i Interval) Valid() bool {
	return !i.Start.IsZero() && !i.End.IsZero() && i.Start.Before(i.End)
}

// Overlaps reports whether two half-open intervals intersect. Intervals that
// only touch at an endpoint do not overlap.
func (i Interval) Overlaps(other Interval) bool {
	return i.Start.Before(other.End) && other.Start.Before(i.End)
}

// Reservation is an active claim on a room.
type Reservation struct {
	ID     int64
	RoomID int64
	Interval
}

// Conflict identifies an existing reservation that overlaps a candidate.
type Conflict struct {
	WithBookingID int64
	RoomID        int64
	Interval      Interval
}

// DetectConflicts returns the reservations in existing that are in the same
// room as candidate and overlap it. A reservation with the candidate's own id
// is skipped so an edit never conflicts with itself. Pass a candidate ID of 0
// for new bookings.
func DetectConflicts(existing []Reservation, candidate Reservation) []Conflict {
	var conflicts []Conflict
	for _, r := range existing {
		if candidate.ID != 0 && r.ID == candidate.ID {
			continue
		}
		if r.RoomID != candidate.RoomID {
			continue
		}
		if !r.Overlaps(candidate.Interval) {
			continue
		}
		conflicts = append(conflicts, Conflict{
			WithBookingID: r.ID,
			RoomID:        r.RoomID,
			Interval:      r.Interval,
		})
	}
	return conflicts
}
