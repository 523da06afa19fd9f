package model

import "time"

// Trip represents a single scheduled departure of a vehicle on a route.
// SeatsRemaining is a derived counter maintained by the reservation engine:
// it must always equal the vehicle capacity minus the number of live
// (non-cancelled) reservations for the trip, and is only ever updated inside
// the same transaction as the reservation write it reflects.
//
// Fields:
//  ID             – primary key identifier.
//  RouteID        – route being served.
//  VehicleID      – vehicle operating the trip.
//  DepartsAt      – scheduled departure time (UTC).
//  ArrivesAt      – scheduled arrival time (UTC).
//  FareCents      – base fare in cents before seat-class surcharge.
//  Status         – lifecycle state (SCHEDULED, IN_PROGRESS, COMPLETED, CANCELLED).
//  SeatsRemaining – seats not held by a live reservation.
//  CreatedAt      – creation timestamp.
type Trip struct {
    ID             uint64     // trips.id
    RouteID        uint64     // trips.route_id
    VehicleID      uint64     // trips.vehicle_id
    DepartsAt      time.Time  // trips.departs_at
    ArrivesAt      time.Time  // trips.arrives_at
    FareCents      int64      // trips.fare_cents
    Status         TripStatus // trips.status
    SeatsRemaining uint32     // trips.seats_remaining
    CreatedAt      time.Time  // trips.created_at
}
