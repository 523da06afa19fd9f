package model

import "time"

// Route describes a served connection between two cities.  Trips are
// scheduled on a route and inherit its base fare unless overridden.
// This struct corresponds to a row in the `routes` table.
//
// Fields:
//  ID            – primary key identifier.
//  Origin        – departure city.
//  Destination   – arrival city.
//  BaseFareCents – default fare in cents for trips on this route.
//  DurationMin   – scheduled travel time in minutes.
//  DistanceKm    – route length in kilometres.
//  IsActive      – whether the route is currently served.
//  CreatedAt     – timestamp when the route was created.
type Route struct {
    ID            uint64    // routes.id
    Origin        string    // routes.origin
    Destination   string    // routes.destination
    BaseFareCents int64     // routes.base_fare_cents
    DurationMin   uint32    // routes.duration_min
    DistanceKm    uint32    // routes.distance_km
    IsActive      bool      // routes.is_active
    CreatedAt     time.Time // routes.created_at
}
