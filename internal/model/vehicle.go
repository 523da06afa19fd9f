package model

import "time"

// Vehicle represents a bus in the fleet.  Each vehicle owns a fixed set of
// seats that is seeded once when the vehicle is registered and never changes
// afterwards.  This struct corresponds to a row in the `vehicles` table.
//
// Fields:
//  ID           – primary key identifier.
//  Plate        – unique licence plate.
//  Brand        – manufacturer name.
//  Model        – model name.
//  SeatCapacity – total number of seats.
//  IsActive     – whether the vehicle is in service.
//  CreatedAt    – timestamp when the vehicle was registered.
type Vehicle struct {
    ID           uint64    // vehicles.id
    Plate        string    // vehicles.plate
    Brand        string    // vehicles.brand
    Model        string    // vehicles.model
    SeatCapacity uint32    // vehicles.seat_capacity
    IsActive     bool      // vehicles.is_active
    CreatedAt    time.Time // vehicles.created_at
}
