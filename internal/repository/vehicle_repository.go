package repository

import (
    "context"
    "database/sql"
    "errors"

    "github.com/iliyamo/bus-trip-reservation/internal/model"
)

// VehicleRepo manages persistence for vehicles and their seat maps.
// Registering a vehicle also seeds its seats, so the two writes happen in
// one transaction.
type VehicleRepo struct {
    db *sql.DB
}

// NewVehicleRepo constructs a VehicleRepo with the given DB handle.
func NewVehicleRepo(db *sql.DB) *VehicleRepo { return &VehicleRepo{db: db} }

// Seat class layout used when a vehicle's seat map is seeded: the first
// vipSeats positions are VIP, the last sleeperSeats positions are SLEEPER,
// everything in between is STANDARD.
const (
    vipSeats     = 8
    sleeperSeats = 8
)

// classForSeat returns the class a freshly seeded seat gets based on its
// position in the vehicle.
func classForSeat(number, capacity uint32) model.SeatClass {
    switch {
    case number <= vipSeats:
        return model.SeatVIP
    case number > capacity-sleeperSeats:
        return model.SeatSleeper
    default:
        return model.SeatStandard
    }
}

// CreateWithSeats inserts a vehicle and seeds one seat row per position in
// a single transaction.  The generated vehicle ID is assigned back to the
// struct.  It returns ErrDuplicate when the plate already exists.
func (r *VehicleRepo) CreateWithSeats(ctx context.Context, v *model.Vehicle) error {
    tx, err := r.db.BeginTx(ctx, nil)
    if err != nil {
        return err
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()

    const q = `INSERT INTO vehicles (plate, brand, model, seat_capacity, is_active) VALUES (?, ?, ?, ?, ?)`
    res, err := tx.ExecContext(ctx, q, v.Plate, v.Brand, v.Model, v.SeatCapacity, v.IsActive)
    if err != nil {
        if isDuplicateKey(err) {
            return ErrDuplicate
        }
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    v.ID = uint64(id)

    // Bulk insert the seat map.  Each row needs four values.
    query := `INSERT INTO seats (vehicle_id, seat_number, class, is_active) VALUES `
    args := make([]interface{}, 0, int(v.SeatCapacity)*4)
    for n := uint32(1); n <= v.SeatCapacity; n++ {
        if n > 1 {
            query += ","
        }
        query += "(?, ?, ?, ?)"
        args = append(args, v.ID, n, string(classForSeat(n, v.SeatCapacity)), true)
    }
    if _, err := tx.ExecContext(ctx, query, args...); err != nil {
        return err
    }

    if err := tx.Commit(); err != nil {
        return err
    }
    committed = true
    return nil
}

// GetByID retrieves a vehicle by its ID.  It returns ErrNotFound when no
// matching row exists.
func (r *VehicleRepo) GetByID(ctx context.Context, id uint64) (*model.Vehicle, error) {
    const q = `SELECT id, plate, brand, model, seat_capacity, is_active, created_at FROM vehicles WHERE id = ?`
    var v model.Vehicle
    err := r.db.QueryRowContext(ctx, q, id).Scan(
        &v.ID, &v.Plate, &v.Brand, &v.Model, &v.SeatCapacity, &v.IsActive, &v.CreatedAt,
    )
    if err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return nil, ErrNotFound
        }
        return nil, err
    }
    return &v, nil
}
