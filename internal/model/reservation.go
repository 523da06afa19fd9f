package model

import "time"

// Reservation is a user's claim on exactly one seat for one trip.  At most
// one non-cancelled reservation may exist per (trip, seat) pair at any time;
// the engine and a database unique key both enforce that.  Rows are never
// deleted so the table doubles as an audit trail.
//
// Fields:
//  ID          – primary key identifier.
//  UserID      – owner of the reservation.
//  TripID      – trip being booked.
//  SeatID      – seat being claimed.
//  Code        – unique human-readable reservation code (e.g. RES20260901a1b2c3d4).
//  Status      – lifecycle state (PENDING, CONFIRMED, CANCELLED, COMPLETED).
//  AmountCents – total fare in cents including the seat-class surcharge.
//  CreatedAt   – when the claim was made; the 24h expiry clock starts here.
//  UpdatedAt   – last state change.
type Reservation struct {
    ID          uint64            // reservations.id
    UserID      uint64            // reservations.user_id
    TripID      uint64            // reservations.trip_id
    SeatID      uint64            // reservations.seat_id
    Code        string            // reservations.code
    Status      ReservationStatus // reservations.status
    AmountCents int64             // reservations.amount_cents
    CreatedAt   time.Time         // reservations.created_at
    UpdatedAt   time.Time         // reservations.updated_at
}
