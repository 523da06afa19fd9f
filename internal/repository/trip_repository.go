package repository

import (
    "context"
    "database/sql"
    "errors"
    "fmt"

    "github.com/iliyamo/bus-trip-reservation/internal/model"
)

// TripRepo manages persistence for trips.  The seats_remaining counter on a
// trip row is derived state owned by the booking engine: it is only ever
// adjusted through AdjustSeatsRemainingTx inside the same transaction as the
// reservation write it mirrors.
type TripRepo struct {
    db *sql.DB
}

// NewTripRepo constructs a TripRepo with the given DB handle.
func NewTripRepo(db *sql.DB) *TripRepo { return &TripRepo{db: db} }

// DB exposes the underlying sql.DB.  It allows the engines to begin
// transactions spanning multiple repositories.
func (r *TripRepo) DB() *sql.DB { return r.db }

const tripColumns = `id, route_id, vehicle_id, departs_at, arrives_at, fare_cents, status, seats_remaining, created_at`

func scanTrip(row *sql.Row) (*model.Trip, error) {
    var t model.Trip
    err := row.Scan(
        &t.ID, &t.RouteID, &t.VehicleID, &t.DepartsAt, &t.ArrivesAt,
        &t.FareCents, &t.Status, &t.SeatsRemaining, &t.CreatedAt,
    )
    if err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return nil, ErrNotFound
        }
        return nil, err
    }
    return &t, nil
}

// Create inserts a new trip.  seats_remaining starts at the vehicle's seat
// capacity, which the caller supplies after loading the vehicle.
func (r *TripRepo) Create(ctx context.Context, t *model.Trip) error {
    const q = `INSERT INTO trips (route_id, vehicle_id, departs_at, arrives_at, fare_cents, status, seats_remaining)
               VALUES (?, ?, ?, ?, ?, ?, ?)`
    res, err := r.db.ExecContext(ctx, q,
        t.RouteID, t.VehicleID, t.DepartsAt.UTC(), t.ArrivesAt.UTC(),
        t.FareCents, string(t.Status), t.SeatsRemaining,
    )
    if err != nil {
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    t.ID = uint64(id)
    return nil
}

// GetByID retrieves a trip by its ID.  It returns ErrNotFound when no
// matching row exists.
func (r *TripRepo) GetByID(ctx context.Context, id uint64) (*model.Trip, error) {
    q := `SELECT ` + tripColumns + ` FROM trips WHERE id = ?`
    return scanTrip(r.db.QueryRowContext(ctx, q, id))
}

// GetForUpdateTx loads a trip row with SELECT ... FOR UPDATE inside the
// caller's transaction.  Holding the row lock serializes concurrent seat
// claims for the same trip, which is what makes the availability check and
// the subsequent insert one atomic unit.
func (r *TripRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Trip, error) {
    q := `SELECT ` + tripColumns + ` FROM trips WHERE id = ? FOR UPDATE`
    return scanTrip(tx.QueryRowContext(ctx, q, id))
}

// GetTx retrieves a trip within the caller's transaction without locking
// it.  The cancel and settlement paths use it to read departure times under
// the same isolation as the state change they guard.
func (r *TripRepo) GetTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Trip, error) {
    q := `SELECT ` + tripColumns + ` FROM trips WHERE id = ?`
    return scanTrip(tx.QueryRowContext(ctx, q, id))
}

// AdjustSeatsRemainingTx shifts the seats_remaining counter by delta (+1 on
// release, -1 on claim) within the caller's transaction.  A claim that
// would drive the counter negative affects zero rows and is reported as an
// error, since it means the counter and the reservation set have diverged.
func (r *TripRepo) AdjustSeatsRemainingTx(ctx context.Context, tx *sql.Tx, id uint64, delta int) error {
    const q = `UPDATE trips SET seats_remaining = seats_remaining + ? WHERE id = ? AND seats_remaining + ? >= 0`
    res, err := tx.ExecContext(ctx, q, delta, id, delta)
    if err != nil {
        return err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return err
    }
    if n == 0 {
        return fmt.Errorf("trip %d: seats_remaining adjustment by %d rejected", id, delta)
    }
    return nil
}

// ListUpcoming returns trips departing after now in any state, ordered by
// departure time.  The admin listing uses it to see cancelled and
// in-progress departures alongside scheduled ones.
func (r *TripRepo) ListUpcoming(ctx context.Context) ([]model.Trip, error) {
    q := `SELECT ` + tripColumns + ` FROM trips
          WHERE departs_at > UTC_TIMESTAMP()
          ORDER BY departs_at ASC`
    rows, err := r.db.QueryContext(ctx, q)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    trips := make([]model.Trip, 0)
    for rows.Next() {
        var t model.Trip
        if err := rows.Scan(
            &t.ID, &t.RouteID, &t.VehicleID, &t.DepartsAt, &t.ArrivesAt,
            &t.FareCents, &t.Status, &t.SeatsRemaining, &t.CreatedAt,
        ); err != nil {
            return nil, err
        }
        trips = append(trips, t)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return trips, nil
}

// ListByRoute returns upcoming trips for a route ordered by departure time.
// Only trips in SCHEDULED state are listed; past and cancelled departures
// are of no interest to the browse endpoints.
func (r *TripRepo) ListByRoute(ctx context.Context, routeID uint64) ([]model.Trip, error) {
    q := `SELECT ` + tripColumns + ` FROM trips
          WHERE route_id = ? AND status = 'SCHEDULED' AND departs_at > UTC_TIMESTAMP()
          ORDER BY departs_at ASC`
    rows, err := r.db.QueryContext(ctx, q, routeID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    trips := make([]model.Trip, 0)
    for rows.Next() {
        var t model.Trip
        if err := rows.Scan(
            &t.ID, &t.RouteID, &t.VehicleID, &t.DepartsAt, &t.ArrivesAt,
            &t.FareCents, &t.Status, &t.SeatsRemaining, &t.CreatedAt,
        ); err != nil {
            return nil, err
        }
        trips = append(trips, t)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return trips, nil
}
