package repository

import (
    "context"
    "database/sql"
    "errors"

    "github.com/iliyamo/bus-trip-reservation/internal/model"
)

// SeatRepo provides read access to seat maps.  Seats are seeded together
// with their vehicle and are immutable afterwards, so this repository only
// queries.
type SeatRepo struct {
    db *sql.DB
}

// NewSeatRepo constructs a SeatRepo with the given DB handle.
func NewSeatRepo(db *sql.DB) *SeatRepo { return &SeatRepo{db: db} }

// GetTx retrieves a single seat within the caller's transaction.  It
// returns ErrNotFound when the seat does not exist.  The engine uses this
// during a claim so the seat it validates is read under the same isolation
// as the insert that follows.
func (r *SeatRepo) GetTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Seat, error) {
    const q = `SELECT id, vehicle_id, seat_number, class, is_active, created_at FROM seats WHERE id = ?`
    var s model.Seat
    err := tx.QueryRowContext(ctx, q, id).Scan(
        &s.ID, &s.VehicleID, &s.SeatNumber, &s.Class, &s.IsActive, &s.CreatedAt,
    )
    if err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return nil, ErrNotFound
        }
        return nil, err
    }
    return &s, nil
}

// AvailableForTrip returns the active seats of the trip's vehicle that are
// not referenced by any live (non-cancelled) reservation for that trip,
// ordered by seat number.  When the trip does not exist the result is
// simply empty.  The listing is advisory: a claim revalidates the specific
// seat under the trip row lock, so a stale list only costs the client a
// retry.
func (r *SeatRepo) AvailableForTrip(ctx context.Context, tripID uint64) ([]model.Seat, error) {
    rows, err := r.db.QueryContext(ctx, availableSeatsQuery, tripID, tripID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    return scanSeats(rows)
}

const availableSeatsQuery = `SELECT s.id, s.vehicle_id, s.seat_number, s.class, s.is_active, s.created_at
    FROM seats s
    JOIN trips t ON t.vehicle_id = s.vehicle_id
    WHERE t.id = ? AND s.is_active = 1
      AND s.id NOT IN (
        SELECT seat_id FROM reservations WHERE trip_id = ? AND status <> 'CANCELLED'
      )
    ORDER BY s.seat_number`

func scanSeats(rows *sql.Rows) ([]model.Seat, error) {
    seats := make([]model.Seat, 0)
    for rows.Next() {
        var s model.Seat
        if err := rows.Scan(&s.ID, &s.VehicleID, &s.SeatNumber, &s.Class, &s.IsActive, &s.CreatedAt); err != nil {
            return nil, err
        }
        seats = append(seats, s)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return seats, nil
}
