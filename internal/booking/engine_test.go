package booking

import (
    "context"
    "database/sql"
    "errors"
    "testing"
    "time"

    sqlmock "github.com/DATA-DOG/go-sqlmock"

    "github.com/iliyamo/bus-trip-reservation/internal/model"
    "github.com/iliyamo/bus-trip-reservation/internal/repository"
)

func newMockEngine(t *testing.T) (*Engine, sqlmock.Sqlmock, *sql.DB) {
    t.Helper()
    db, mock, err := sqlmock.New()
    if err != nil {
        t.Fatalf("sqlmock: %v", err)
    }
    e := NewEngine(db, repository.NewTripRepo(db), repository.NewSeatRepo(db), repository.NewReservationRepo(db))
    e.now = func() time.Time { return testNow }
    return e, mock, db
}

func tripRow(departsAt time.Time) *sqlmock.Rows {
    return sqlmock.NewRows([]string{
        "id", "route_id", "vehicle_id", "departs_at", "arrives_at",
        "fare_cents", "status", "seats_remaining", "created_at",
    }).AddRow(5, 1, 2, departsAt, departsAt.Add(3*time.Hour), 10000, "SCHEDULED", 40, testNow.Add(-24*time.Hour))
}

func reservationRow(status model.ReservationStatus, createdAt time.Time) *sqlmock.Rows {
    return sqlmock.NewRows([]string{
        "id", "user_id", "trip_id", "seat_id", "code", "status",
        "amount_cents", "created_at", "updated_at",
    }).AddRow(7, 3, 5, 9, "RES20260901ab12cd34", string(status), 12500, createdAt, createdAt)
}

func existsRow(v bool) *sqlmock.Rows {
    return sqlmock.NewRows([]string{"e"}).AddRow(v)
}

func finish(t *testing.T, mock sqlmock.Sqlmock, db *sql.DB) {
    t.Helper()
    if err := mock.ExpectationsWereMet(); err != nil {
        t.Errorf("unmet expectations: %v", err)
    }
    db.Close()
}

// A successful claim prices the seat, inserts the PENDING row and
// decrements the trip counter, all before the commit.
func TestCreateReservationClaimsSeatAndDecrementsCounter(t *testing.T) {
    e, mock, db := newMockEngine(t)
    defer finish(t, mock, db)

    mock.ExpectBegin()
    mock.ExpectQuery(`FROM trips WHERE id = \? FOR UPDATE`).
        WillReturnRows(tripRow(testNow.Add(72 * time.Hour)))
    mock.ExpectQuery(`FROM seats WHERE id = \?`).
        WillReturnRows(sqlmock.NewRows([]string{"id", "vehicle_id", "seat_number", "class", "is_active", "created_at"}).
            AddRow(9, 2, 14, "VIP", true, testNow.Add(-48*time.Hour)))
    mock.ExpectQuery(`SELECT 1 FROM reservations WHERE trip_id`).WillReturnRows(existsRow(false))
    mock.ExpectQuery(`SELECT 1 FROM reservations WHERE code`).WillReturnRows(existsRow(false))
    // 10000 base + 25 % VIP surcharge.
    mock.ExpectExec(`INSERT INTO reservations`).
        WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), "PENDING", int64(12500)).
        WillReturnResult(sqlmock.NewResult(7, 1))
    mock.ExpectQuery(`FROM reservations WHERE id = \?`).
        WillReturnRows(reservationRow(model.ReservationPending, testNow))
    mock.ExpectExec(`UPDATE trips SET seats_remaining`).WillReturnResult(sqlmock.NewResult(0, 1))
    mock.ExpectCommit()

    res, err := e.CreateReservation(context.Background(), 3, 5, 9)
    if err != nil {
        t.Fatalf("CreateReservation: %v", err)
    }
    if res.ID != 7 || res.Status != model.ReservationPending || res.AmountCents != 12500 {
        t.Fatalf("unexpected reservation: %+v", res)
    }
}

func TestCreateReservationSeatAlreadyClaimed(t *testing.T) {
    e, mock, db := newMockEngine(t)
    defer finish(t, mock, db)

    mock.ExpectBegin()
    mock.ExpectQuery(`FROM trips WHERE id = \? FOR UPDATE`).
        WillReturnRows(tripRow(testNow.Add(72 * time.Hour)))
    mock.ExpectQuery(`FROM seats WHERE id = \?`).
        WillReturnRows(sqlmock.NewRows([]string{"id", "vehicle_id", "seat_number", "class", "is_active", "created_at"}).
            AddRow(9, 2, 14, "STANDARD", true, testNow.Add(-48*time.Hour)))
    mock.ExpectQuery(`SELECT 1 FROM reservations WHERE trip_id`).WillReturnRows(existsRow(true))
    mock.ExpectRollback()

    if _, err := e.CreateReservation(context.Background(), 3, 5, 9); !errors.Is(err, ErrSeatUnavailable) {
        t.Fatalf("expected ErrSeatUnavailable, got %v", err)
    }
}

// Confirming twice must fail the second time: the state re-check under the
// row lock is what makes a double settlement impossible.
func TestConfirmTxIdempotent(t *testing.T) {
    e, mock, db := newMockEngine(t)
    defer finish(t, mock, db)

    mock.ExpectBegin()
    mock.ExpectQuery(`FROM reservations WHERE id = \? FOR UPDATE`).
        WillReturnRows(reservationRow(model.ReservationPending, testNow.Add(-time.Hour)))
    mock.ExpectQuery(`FROM trips WHERE id = \?`).
        WillReturnRows(tripRow(testNow.Add(72 * time.Hour)))
    mock.ExpectExec(`UPDATE reservations SET status`).WillReturnResult(sqlmock.NewResult(0, 1))
    mock.ExpectQuery(`FROM reservations WHERE id = \? FOR UPDATE`).
        WillReturnRows(reservationRow(model.ReservationConfirmed, testNow.Add(-time.Hour)))
    mock.ExpectRollback()

    tx, err := db.Begin()
    if err != nil {
        t.Fatalf("begin: %v", err)
    }
    res, err := e.ConfirmTx(context.Background(), tx, 7)
    if err != nil {
        t.Fatalf("first confirm: %v", err)
    }
    if res.Status != model.ReservationConfirmed {
        t.Fatalf("status = %s, want CONFIRMED", res.Status)
    }
    if _, err := e.ConfirmTx(context.Background(), tx, 7); !errors.Is(err, ErrNotPending) {
        t.Fatalf("second confirm: expected ErrNotPending, got %v", err)
    }
    _ = tx.Rollback()
}

// A reservation past its 24h deadline is refused confirmation even though
// the sweep has not released it yet.
func TestConfirmTxRejectsExpired(t *testing.T) {
    e, mock, db := newMockEngine(t)
    defer finish(t, mock, db)

    mock.ExpectBegin()
    mock.ExpectQuery(`FROM reservations WHERE id = \? FOR UPDATE`).
        WillReturnRows(reservationRow(model.ReservationPending, testNow.Add(-25*time.Hour)))
    mock.ExpectQuery(`FROM trips WHERE id = \?`).
        WillReturnRows(tripRow(testNow.Add(72 * time.Hour)))
    mock.ExpectRollback()

    tx, err := db.Begin()
    if err != nil {
        t.Fatalf("begin: %v", err)
    }
    if _, err := e.ConfirmTx(context.Background(), tx, 7); !errors.Is(err, ErrReservationExpired) {
        t.Fatalf("expected ErrReservationExpired, got %v", err)
    }
    _ = tx.Rollback()
}

// Releasing a reservation the user already cancelled is a no-op: the seat
// went back on sale at cancellation time and the counter must not move
// again.
func TestReleaseTxSkipsCancelledReservation(t *testing.T) {
    e, mock, db := newMockEngine(t)
    defer finish(t, mock, db)

    mock.ExpectBegin()
    mock.ExpectQuery(`FROM reservations WHERE id = \? FOR UPDATE`).
        WillReturnRows(reservationRow(model.ReservationCancelled, testNow.Add(-time.Hour)))
    mock.ExpectRollback()

    tx, err := db.Begin()
    if err != nil {
        t.Fatalf("begin: %v", err)
    }
    if err := e.ReleaseTx(context.Background(), tx, 7); err != nil {
        t.Fatalf("ReleaseTx on cancelled reservation: %v", err)
    }
    _ = tx.Rollback()
}

func TestReleaseTxCancelsLiveReservation(t *testing.T) {
    e, mock, db := newMockEngine(t)
    defer finish(t, mock, db)

    mock.ExpectBegin()
    mock.ExpectQuery(`FROM reservations WHERE id = \? FOR UPDATE`).
        WillReturnRows(reservationRow(model.ReservationConfirmed, testNow.Add(-time.Hour)))
    mock.ExpectExec(`UPDATE reservations SET status`).WillReturnResult(sqlmock.NewResult(0, 1))
    mock.ExpectExec(`UPDATE trips SET seats_remaining`).WillReturnResult(sqlmock.NewResult(0, 1))
    mock.ExpectRollback()

    tx, err := db.Begin()
    if err != nil {
        t.Fatalf("begin: %v", err)
    }
    if err := e.ReleaseTx(context.Background(), tx, 7); err != nil {
        t.Fatalf("ReleaseTx: %v", err)
    }
    _ = tx.Rollback()
}
