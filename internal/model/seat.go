package model

import "time"

// Seat describes a physical seat on a vehicle.  Seats are uniquely
// identified by their vehicle and seat number.  A seat is never deleted;
// when it is taken out of service the is_active flag is cleared and the
// availability index stops offering it.
//
// Fields:
//  ID         – primary key identifier.
//  VehicleID  – vehicle to which this seat belongs.
//  SeatNumber – number of the seat within the vehicle (unique per vehicle).
//  Class      – comfort class (STANDARD, VIP, SLEEPER).
//  IsActive   – whether the seat can be booked.
//  CreatedAt  – creation timestamp.
type Seat struct {
    ID         uint64    // seats.id
    VehicleID  uint64    // seats.vehicle_id
    SeatNumber uint32    // seats.seat_number
    Class      SeatClass // seats.class
    IsActive   bool      // seats.is_active
    CreatedAt  time.Time // seats.created_at
}
