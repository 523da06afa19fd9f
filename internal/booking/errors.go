package booking

import "errors"

// Sentinel errors returned by the reservation engine.  Handlers map these
// onto HTTP statuses; everything else bubbles up as an internal error.
var (
    // ErrTripNotFound means the requested trip does not exist.
    ErrTripNotFound = errors.New("trip not found")

    // ErrTripNotBookable means the trip exists but is not in SCHEDULED
    // state, so no seats on it can be claimed.
    ErrTripNotBookable = errors.New("trip is not open for booking")

    // ErrBookingWindowClosed means the trip departs too soon to accept new
    // reservations.
    ErrBookingWindowClosed = errors.New("booking window has closed for this trip")

    // ErrCancelWindowClosed means the trip departs too soon for the
    // reservation to be cancelled.
    ErrCancelWindowClosed = errors.New("cancellation window has closed for this trip")

    // ErrSeatNotFound means the seat does not exist or does not belong to
    // the trip's vehicle.
    ErrSeatNotFound = errors.New("seat not found on this trip")

    // ErrSeatUnavailable means the seat is inactive or already claimed by a
    // live reservation, including the case where a concurrent claim won.
    ErrSeatUnavailable = errors.New("seat is not available")

    // ErrInvalidSeatClass means a fare was requested for a seat class the
    // calculator does not know.
    ErrInvalidSeatClass = errors.New("unknown seat class")

    // ErrReservationNotFound means no reservation matches, or it belongs to
    // a different user.  The two cases are deliberately indistinguishable.
    ErrReservationNotFound = errors.New("reservation not found")

    // ErrAlreadyCancelled means the reservation was cancelled earlier and
    // cannot change state again.
    ErrAlreadyCancelled = errors.New("reservation is already cancelled")

    // ErrAlreadyCompleted means the trip was taken; a completed reservation
    // cannot change state.
    ErrAlreadyCompleted = errors.New("reservation is already completed")

    // ErrNotPending means an operation that requires a PENDING reservation
    // found it in another state.
    ErrNotPending = errors.New("reservation is not pending")

    // ErrReservationExpired means the reservation's payment deadline has
    // passed; the sweep will release the seat shortly if it has not yet.
    ErrReservationExpired = errors.New("reservation has expired")
)
