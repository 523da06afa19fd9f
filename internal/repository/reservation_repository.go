package repository

import (
    "context"
    "database/sql"
    "errors"
    "time"

    "github.com/iliyamo/bus-trip-reservation/internal/model"
)

// ReservationRepo provides CRUD operations for reservations.  A reservation
// claims exactly one seat on one trip.  Rows are never deleted; cancelling
// only flips the status so the table keeps a full audit trail.  All
// timestamp fields are stored in UTC.
type ReservationRepo struct {
    db *sql.DB
}

// NewReservationRepo returns a new ReservationRepo bound to the given database.
func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

const reservationColumns = `id, user_id, trip_id, seat_id, code, status, amount_cents, created_at, updated_at`

func scanReservation(row *sql.Row) (*model.Reservation, error) {
    var res model.Reservation
    err := row.Scan(
        &res.ID, &res.UserID, &res.TripID, &res.SeatID, &res.Code,
        &res.Status, &res.AmountCents, &res.CreatedAt, &res.UpdatedAt,
    )
    if err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return nil, ErrNotFound
        }
        return nil, err
    }
    return &res, nil
}

// CreateTx inserts a new reservation within the scope of an existing
// transaction and populates the generated ID and timestamps on the provided
// record.  The caller must commit or roll back the transaction.  A
// duplicate-key error is returned as ErrDuplicate: with the code
// pre-checked inside the same transaction, a 1062 here means the
// (trip, seat) unique key fired, i.e. a concurrent claim won the race.
func (r *ReservationRepo) CreateTx(ctx context.Context, tx *sql.Tx, res *model.Reservation) error {
    const q = `INSERT INTO reservations (user_id, trip_id, seat_id, code, status, amount_cents)
               VALUES (?, ?, ?, ?, ?, ?)`
    result, err := tx.ExecContext(ctx, q,
        res.UserID, res.TripID, res.SeatID, res.Code, string(res.Status), res.AmountCents,
    )
    if err != nil {
        if isDuplicateKey(err) {
            return ErrDuplicate
        }
        return err
    }
    id, err := result.LastInsertId()
    if err != nil {
        return err
    }
    res.ID = uint64(id)
    // Query back the row to populate the DB-assigned timestamps.
    sel := `SELECT ` + reservationColumns + ` FROM reservations WHERE id = ?`
    created, err := scanReservation(tx.QueryRowContext(ctx, sel, res.ID))
    if err != nil {
        return err
    }
    *res = *created
    return nil
}

// GetByID retrieves a reservation by its ID.  It returns ErrNotFound when
// no matching row exists.
func (r *ReservationRepo) GetByID(ctx context.Context, id uint64) (*model.Reservation, error) {
    q := `SELECT ` + reservationColumns + ` FROM reservations WHERE id = ?`
    return scanReservation(r.db.QueryRowContext(ctx, q, id))
}

// GetForUpdateTx loads a reservation row with SELECT ... FOR UPDATE inside
// the caller's transaction.  Every state transition (confirm, cancel,
// sweep) locks the row first so concurrent transitions serialize.
func (r *ReservationRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Reservation, error) {
    q := `SELECT ` + reservationColumns + ` FROM reservations WHERE id = ? FOR UPDATE`
    return scanReservation(tx.QueryRowContext(ctx, q, id))
}

// UpdateStatusTx sets the reservation's status within the caller's
// transaction.  Callers are expected to have validated the transition
// against the state machine before calling.
func (r *ReservationRepo) UpdateStatusTx(ctx context.Context, tx *sql.Tx, id uint64, status model.ReservationStatus) error {
    const q = `UPDATE reservations SET status = ?, updated_at = UTC_TIMESTAMP() WHERE id = ?`
    _, err := tx.ExecContext(ctx, q, string(status), id)
    return err
}

// SeatClaimedTx reports whether a live (non-cancelled) reservation already
// holds the given (trip, seat) pair.  It runs inside the claim transaction,
// after the trip row lock has been taken, so the answer cannot go stale
// before the insert.
func (r *ReservationRepo) SeatClaimedTx(ctx context.Context, tx *sql.Tx, tripID, seatID uint64) (bool, error) {
    const q = `SELECT EXISTS(
        SELECT 1 FROM reservations WHERE trip_id = ? AND seat_id = ? AND status <> 'CANCELLED'
    )`
    var claimed bool
    if err := tx.QueryRowContext(ctx, q, tripID, seatID).Scan(&claimed); err != nil {
        return false, err
    }
    return claimed, nil
}

// CodeExistsTx reports whether a reservation code is already persisted.
// The code generator calls this in its retry loop before accepting a
// candidate.
func (r *ReservationRepo) CodeExistsTx(ctx context.Context, tx *sql.Tx, code string) (bool, error) {
    const q = `SELECT EXISTS(SELECT 1 FROM reservations WHERE code = ?)`
    var exists bool
    if err := tx.QueryRowContext(ctx, q, code).Scan(&exists); err != nil {
        return false, err
    }
    return exists, nil
}

// ListExpiredPendingIDs returns the IDs of reservations that are still
// PENDING but have crossed either expiry deadline: 24 hours since creation
// or 30 minutes before the trip's departure.  The sweep processes each ID
// in its own transaction afterwards, so this listing is just a candidate
// scan and may safely go a little stale.
func (r *ReservationRepo) ListExpiredPendingIDs(ctx context.Context, now time.Time) ([]uint64, error) {
    const q = `SELECT r.id
               FROM reservations r
               JOIN trips t ON t.id = r.trip_id
               WHERE r.status = 'PENDING'
                 AND (r.created_at < ? OR t.departs_at < ?)`
    rows, err := r.db.QueryContext(ctx, q, now.UTC().Add(-24*time.Hour), now.UTC().Add(30*time.Minute))
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    var ids []uint64
    for rows.Next() {
        var id uint64
        if err := rows.Scan(&id); err != nil {
            return nil, err
        }
        ids = append(ids, id)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return ids, nil
}

// ReservationDetail joins a reservation with its trip, route and seat so
// callers can render a booking without issuing follow-up queries.
type ReservationDetail struct {
    ID          uint64                  `json:"id"`
    Code        string                  `json:"code"`
    Status      model.ReservationStatus `json:"status"`
    AmountCents int64                   `json:"amount_cents"`
    TripID      uint64                  `json:"trip_id"`
    Origin      string                  `json:"origin"`
    Destination string                  `json:"destination"`
    DepartsAt   time.Time               `json:"departs_at"`
    ArrivesAt   time.Time               `json:"arrives_at"`
    SeatNumber  uint32                  `json:"seat_number"`
    SeatClass   model.SeatClass         `json:"seat_class"`
    CreatedAt   time.Time               `json:"created_at"`
}

const detailQuery = `SELECT r.id, r.code, r.status, r.amount_cents,
           t.id, rt.origin, rt.destination, t.departs_at, t.arrives_at,
           s.seat_number, s.class, r.created_at
    FROM reservations r
    JOIN trips t ON t.id = r.trip_id
    JOIN routes rt ON rt.id = t.route_id
    JOIN seats s ON s.id = r.seat_id`

func scanDetail(rows *sql.Rows, d *ReservationDetail) error {
    return rows.Scan(
        &d.ID, &d.Code, &d.Status, &d.AmountCents,
        &d.TripID, &d.Origin, &d.Destination, &d.DepartsAt, &d.ArrivesAt,
        &d.SeatNumber, &d.SeatClass, &d.CreatedAt,
    )
}

// ListByUser returns all reservations for the given user along with trip,
// route and seat details, newest first.  When no reservations exist, an
// empty slice is returned.
func (r *ReservationRepo) ListByUser(ctx context.Context, userID uint64) ([]ReservationDetail, error) {
    q := detailQuery + ` WHERE r.user_id = ? ORDER BY r.created_at DESC`
    rows, err := r.db.QueryContext(ctx, q, userID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    details := make([]ReservationDetail, 0)
    for rows.Next() {
        var d ReservationDetail
        if err := scanDetail(rows, &d); err != nil {
            return nil, err
        }
        details = append(details, d)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return details, nil
}

// GetDetailForUser returns a single reservation with its trip, route and
// seat details.  Ownership is enforced in the query: a reservation that
// exists but belongs to a different user yields ErrNotFound, deliberately
// indistinguishable from a missing one.
func (r *ReservationRepo) GetDetailForUser(ctx context.Context, reservationID, userID uint64) (*ReservationDetail, error) {
    q := detailQuery + ` WHERE r.id = ? AND r.user_id = ?`
    rows, err := r.db.QueryContext(ctx, q, reservationID, userID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    if !rows.Next() {
        if err := rows.Err(); err != nil {
            return nil, err
        }
        return nil, ErrNotFound
    }
    var d ReservationDetail
    if err := scanDetail(rows, &d); err != nil {
        return nil, err
    }
    return &d, nil
}

// GetDetailByCodeForUser is the support-lookup variant of GetDetailForUser:
// it resolves a reservation by its human-readable code instead of the
// numeric ID, with the same ownership collapse into ErrNotFound.
func (r *ReservationRepo) GetDetailByCodeForUser(ctx context.Context, code string, userID uint64) (*ReservationDetail, error) {
    q := detailQuery + ` WHERE r.code = ? AND r.user_id = ?`
    rows, err := r.db.QueryContext(ctx, q, code, userID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    if !rows.Next() {
        if err := rows.Err(); err != nil {
            return nil, err
        }
        return nil, ErrNotFound
    }
    var d ReservationDetail
    if err := scanDetail(rows, &d); err != nil {
        return nil, err
    }
    return &d, nil
}
