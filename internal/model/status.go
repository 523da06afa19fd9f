package model

// This file defines the closed status enumerations used across the booking
// core.  Every state that can be persisted has a typed constant here; raw
// strings never cross package boundaries so a typo cannot create an
// unreachable state.

// TripStatus is the lifecycle state of a scheduled trip.
type TripStatus string

const (
    TripScheduled  TripStatus = "SCHEDULED"
    TripInProgress TripStatus = "IN_PROGRESS"
    TripCompleted  TripStatus = "COMPLETED"
    TripCancelled  TripStatus = "CANCELLED"
)

// Valid reports whether s is one of the known trip states.
func (s TripStatus) Valid() bool {
    switch s {
    case TripScheduled, TripInProgress, TripCompleted, TripCancelled:
        return true
    }
    return false
}

// ReservationStatus is the lifecycle state of a reservation.  Allowed
// transitions: PENDING→CONFIRMED, PENDING→CANCELLED, CONFIRMED→CANCELLED
// (refund path) and CONFIRMED→COMPLETED.  CANCELLED and COMPLETED are
// terminal.
type ReservationStatus string

const (
    ReservationPending   ReservationStatus = "PENDING"
    ReservationConfirmed ReservationStatus = "CONFIRMED"
    ReservationCancelled ReservationStatus = "CANCELLED"
    ReservationCompleted ReservationStatus = "COMPLETED"
)

// Valid reports whether s is one of the known reservation states.
func (s ReservationStatus) Valid() bool {
    switch s {
    case ReservationPending, ReservationConfirmed, ReservationCancelled, ReservationCompleted:
        return true
    }
    return false
}

// Terminal reports whether no further transition is allowed from s.
func (s ReservationStatus) Terminal() bool {
    return s == ReservationCancelled || s == ReservationCompleted
}

// Live reports whether the reservation still claims its seat.  Everything
// except CANCELLED counts against trip capacity.
func (s ReservationStatus) Live() bool {
    return s != ReservationCancelled
}

// CanTransition reports whether from→to is an allowed reservation state
// change.
func (s ReservationStatus) CanTransition(to ReservationStatus) bool {
    switch s {
    case ReservationPending:
        return to == ReservationConfirmed || to == ReservationCancelled
    case ReservationConfirmed:
        return to == ReservationCancelled || to == ReservationCompleted
    }
    return false
}

// SeatClass is the comfort class of a seat.  The class determines the fare
// surcharge applied on top of the trip's base fare.
type SeatClass string

const (
    SeatStandard SeatClass = "STANDARD"
    SeatVIP      SeatClass = "VIP"
    SeatSleeper  SeatClass = "SLEEPER"
)

// Valid reports whether c is one of the known seat classes.
func (c SeatClass) Valid() bool {
    switch c {
    case SeatStandard, SeatVIP, SeatSleeper:
        return true
    }
    return false
}

// TransactionKind distinguishes ledger entries.  Refund rows carry a
// negative amount.
type TransactionKind string

const (
    TransactionPayment TransactionKind = "PAYMENT"
    TransactionRefund  TransactionKind = "REFUND"
)

// TransactionStatus is the settlement state of a ledger entry.  Settlement
// is synchronous, so every persisted row is already COMPLETED or FAILED.
type TransactionStatus string

const (
    TransactionCompleted TransactionStatus = "COMPLETED"
    TransactionFailed    TransactionStatus = "FAILED"
)
