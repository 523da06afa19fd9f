package repository

import (
    "context"
    "database/sql"
    "errors"

    "github.com/iliyamo/bus-trip-reservation/internal/model"
)

// RouteRepo manages persistence for routes.  Routes are the static catalog
// of served connections; they are created by administrators and read by the
// public browse endpoints.
type RouteRepo struct {
    db *sql.DB
}

// NewRouteRepo constructs a RouteRepo with the given DB handle.
func NewRouteRepo(db *sql.DB) *RouteRepo { return &RouteRepo{db: db} }

// Create inserts a new route and assigns the generated ID back to the
// struct.
func (r *RouteRepo) Create(ctx context.Context, rt *model.Route) error {
    const q = `INSERT INTO routes (origin, destination, base_fare_cents, duration_min, distance_km, is_active)
               VALUES (?, ?, ?, ?, ?, ?)`
    res, err := r.db.ExecContext(ctx, q, rt.Origin, rt.Destination, rt.BaseFareCents, rt.DurationMin, rt.DistanceKm, rt.IsActive)
    if err != nil {
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    rt.ID = uint64(id)
    return nil
}

// GetByID retrieves a route by its ID.  It returns ErrNotFound when no
// matching row exists.
func (r *RouteRepo) GetByID(ctx context.Context, id uint64) (*model.Route, error) {
    const q = `SELECT id, origin, destination, base_fare_cents, duration_min, distance_km, is_active, created_at
               FROM routes WHERE id = ?`
    var rt model.Route
    err := r.db.QueryRowContext(ctx, q, id).Scan(
        &rt.ID, &rt.Origin, &rt.Destination, &rt.BaseFareCents,
        &rt.DurationMin, &rt.DistanceKm, &rt.IsActive, &rt.CreatedAt,
    )
    if err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return nil, ErrNotFound
        }
        return nil, err
    }
    return &rt, nil
}

// ListActive returns all active routes ordered by origin and destination.
// When none exist it returns an empty slice and nil error.
func (r *RouteRepo) ListActive(ctx context.Context) ([]model.Route, error) {
    const q = `SELECT id, origin, destination, base_fare_cents, duration_min, distance_km, is_active, created_at
               FROM routes WHERE is_active = 1 ORDER BY origin, destination`
    rows, err := r.db.QueryContext(ctx, q)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    result := make([]model.Route, 0)
    for rows.Next() {
        var rt model.Route
        if err := rows.Scan(
            &rt.ID, &rt.Origin, &rt.Destination, &rt.BaseFareCents,
            &rt.DurationMin, &rt.DistanceKm, &rt.IsActive, &rt.CreatedAt,
        ); err != nil {
            return nil, err
        }
        result = append(result, rt)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return result, nil
}
