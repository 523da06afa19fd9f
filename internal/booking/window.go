package booking

import (
    "time"

    "github.com/iliyamo/bus-trip-reservation/internal/model"
)

// Timing rules of the reservation lifecycle.  All comparisons use UTC.
const (
    // bookingLead is the minimum time before departure at which a seat may
    // still be claimed.
    bookingLead = 2 * time.Hour

    // cancelLead is the minimum time before departure at which a
    // reservation may still be cancelled.
    cancelLead = 2 * time.Hour

    // pendingTTL is how long a PENDING reservation may wait for payment
    // before it expires.
    pendingTTL = 24 * time.Hour

    // departureCutoff expires any still-PENDING reservation this close to
    // departure regardless of age.
    departureCutoff = 30 * time.Minute
)

// checkBookable verifies that new reservations may be created on the trip
// at the given instant: the trip must be SCHEDULED and must depart at least
// bookingLead from now.
func checkBookable(trip *model.Trip, now time.Time) error {
    if trip.Status != model.TripScheduled {
        return ErrTripNotBookable
    }
    if now.Add(bookingLead).After(trip.DepartsAt) {
        return ErrBookingWindowClosed
    }
    return nil
}

// checkCancellable verifies that a reservation on a trip departing at
// departsAt may still be cancelled at the given instant.
func checkCancellable(departsAt, now time.Time) error {
    if now.Add(cancelLead).After(departsAt) {
        return ErrCancelWindowClosed
    }
    return nil
}

// isExpired reports whether a PENDING reservation created at createdAt for
// a trip departing at departsAt has crossed either expiry deadline.
func isExpired(createdAt, departsAt, now time.Time) bool {
    if createdAt.Add(pendingTTL).Before(now) {
        return true
    }
    return departsAt.Add(-departureCutoff).Before(now)
}
