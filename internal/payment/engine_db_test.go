package payment

import (
    "context"
    "database/sql"
    "errors"
    "strings"
    "testing"
    "time"

    sqlmock "github.com/DATA-DOG/go-sqlmock"

    "github.com/iliyamo/bus-trip-reservation/internal/booking"
    "github.com/iliyamo/bus-trip-reservation/internal/model"
    "github.com/iliyamo/bus-trip-reservation/internal/repository"
)

func newMockEngine(t *testing.T) (*Engine, sqlmock.Sqlmock, *sql.DB) {
    t.Helper()
    db, mock, err := sqlmock.New()
    if err != nil {
        t.Fatalf("sqlmock: %v", err)
    }
    trips := repository.NewTripRepo(db)
    seats := repository.NewSeatRepo(db)
    reservations := repository.NewReservationRepo(db)
    transactions := repository.NewTransactionRepo(db)
    bk := booking.NewEngine(db, trips, seats, reservations)
    return NewEngine(db, bk, reservations, transactions, testCeiling), mock, db
}

func resRow(status model.ReservationStatus, createdAt time.Time) *sqlmock.Rows {
    return sqlmock.NewRows([]string{
        "id", "user_id", "trip_id", "seat_id", "code", "status",
        "amount_cents", "created_at", "updated_at",
    }).AddRow(7, 3, 5, 9, "RES20260901ab12cd34", string(status), 12500, createdAt, createdAt)
}

func tripRowAt(departsAt time.Time) *sqlmock.Rows {
    return sqlmock.NewRows([]string{
        "id", "route_id", "vehicle_id", "departs_at", "arrives_at",
        "fare_cents", "status", "seats_remaining", "created_at",
    }).AddRow(5, 1, 2, departsAt, departsAt.Add(3*time.Hour), 10000, "SCHEDULED", 40, departsAt.Add(-96*time.Hour))
}

func paymentRow(amountCents int64, createdAt time.Time) *sqlmock.Rows {
    return sqlmock.NewRows([]string{
        "id", "reservation_id", "kind", "status", "amount_cents",
        "payment_ref", "method", "failure_reason", "refund_of", "created_at", "updated_at",
    }).AddRow(11, 7, "PAYMENT", "COMPLETED", amountCents, "PAY1756700000aabbccdd", "card", nil, nil, createdAt, createdAt)
}

func refundedRow(totalCents int64) *sqlmock.Rows {
    return sqlmock.NewRows([]string{"total"}).AddRow(totalCents)
}

func boolRow(v bool) *sqlmock.Rows {
    return sqlmock.NewRows([]string{"e"}).AddRow(v)
}

func expectMet(t *testing.T, mock sqlmock.Sqlmock, db *sql.DB) {
    t.Helper()
    if err := mock.ExpectationsWereMet(); err != nil {
        t.Errorf("unmet expectations: %v", err)
    }
    db.Close()
}

// The precondition ladder runs before instrument validation: a bad card
// against a missing, already-confirmed or mispriced reservation must
// surface the reservation's problem, not the card's.
func TestProcessPaymentPreconditionOrder(t *testing.T) {
    now := time.Now().UTC()
    badCard := validCard()
    badCard.Number = "4539148803436468"

    t.Run("missing reservation outranks bad card", func(t *testing.T) {
        e, mock, db := newMockEngine(t)
        defer expectMet(t, mock, db)
        mock.ExpectQuery(`FROM reservations WHERE id = \?`).WillReturnError(sql.ErrNoRows)

        _, err := e.ProcessPayment(context.Background(), 3, 7, Request{Method: MethodCard, AmountCents: 12500, Card: &badCard})
        if !errors.Is(err, booking.ErrReservationNotFound) {
            t.Fatalf("expected ErrReservationNotFound, got %v", err)
        }
    })

    t.Run("not pending outranks bad card", func(t *testing.T) {
        e, mock, db := newMockEngine(t)
        defer expectMet(t, mock, db)
        mock.ExpectQuery(`FROM reservations WHERE id = \?`).
            WillReturnRows(resRow(model.ReservationConfirmed, now))

        _, err := e.ProcessPayment(context.Background(), 3, 7, Request{Method: MethodCard, AmountCents: 12500, Card: &badCard})
        if !errors.Is(err, booking.ErrNotPending) {
            t.Fatalf("expected ErrNotPending, got %v", err)
        }
    })

    t.Run("amount mismatch outranks bad card", func(t *testing.T) {
        e, mock, db := newMockEngine(t)
        defer expectMet(t, mock, db)
        mock.ExpectQuery(`FROM reservations WHERE id = \?`).
            WillReturnRows(resRow(model.ReservationPending, now))

        _, err := e.ProcessPayment(context.Background(), 3, 7, Request{Method: MethodCard, AmountCents: 12400, Card: &badCard})
        if !errors.Is(err, ErrAmountMismatch) {
            t.Fatalf("expected ErrAmountMismatch, got %v", err)
        }
    })

    t.Run("bad card surfaces once preconditions pass", func(t *testing.T) {
        e, mock, db := newMockEngine(t)
        defer expectMet(t, mock, db)
        mock.ExpectQuery(`FROM reservations WHERE id = \?`).
            WillReturnRows(resRow(model.ReservationPending, now))

        _, err := e.ProcessPayment(context.Background(), 3, 7, Request{Method: MethodCard, AmountCents: 12500, Card: &badCard})
        if !errors.Is(err, ErrCardChecksum) {
            t.Fatalf("expected ErrCardChecksum, got %v", err)
        }
    })
}

func TestProcessPaymentCashConfirmsAndRecords(t *testing.T) {
    now := time.Now().UTC()
    e, mock, db := newMockEngine(t)
    defer expectMet(t, mock, db)

    mock.ExpectQuery(`FROM reservations WHERE id = \?`).
        WillReturnRows(resRow(model.ReservationPending, now))
    mock.ExpectBegin()
    mock.ExpectQuery(`SELECT 1 FROM transactions WHERE payment_ref`).WillReturnRows(boolRow(false))
    mock.ExpectQuery(`FROM reservations WHERE id = \? FOR UPDATE`).
        WillReturnRows(resRow(model.ReservationPending, now))
    mock.ExpectQuery(`FROM trips WHERE id = \?`).
        WillReturnRows(tripRowAt(now.Add(72 * time.Hour)))
    mock.ExpectExec(`UPDATE reservations SET status`).WillReturnResult(sqlmock.NewResult(0, 1))
    mock.ExpectExec(`INSERT INTO transactions`).
        WithArgs(sqlmock.AnyArg(), "PAYMENT", "COMPLETED", int64(12500), sqlmock.AnyArg(), MethodCash, sqlmock.AnyArg(), sqlmock.AnyArg()).
        WillReturnResult(sqlmock.NewResult(11, 1))
    mock.ExpectCommit()

    entry, err := e.ProcessPayment(context.Background(), 3, 7, Request{Method: MethodCash, AmountCents: 12500})
    if err != nil {
        t.Fatalf("ProcessPayment: %v", err)
    }
    if entry.ID != 11 || entry.Kind != model.TransactionPayment || entry.Status != model.TransactionCompleted {
        t.Fatalf("unexpected ledger entry: %+v", entry)
    }
    if !strings.HasPrefix(entry.PaymentRef, "PAY") {
        t.Fatalf("payment ref %q missing prefix", entry.PaymentRef)
    }
}

// A partial refund moves money but must leave the reservation and its seat
// untouched.  The ordered expectations double as the assertion: any query
// against the reservations or trips tables would fail the test.
func TestProcessRefundPartialLeavesReservationAlone(t *testing.T) {
    now := time.Now().UTC()
    e, mock, db := newMockEngine(t)
    defer expectMet(t, mock, db)

    mock.ExpectBegin()
    mock.ExpectQuery(`FROM transactions WHERE id = \? FOR UPDATE`).
        WillReturnRows(paymentRow(12500, now))
    mock.ExpectQuery(`COALESCE`).WillReturnRows(refundedRow(0))
    mock.ExpectQuery(`SELECT 1 FROM transactions WHERE payment_ref`).WillReturnRows(boolRow(false))
    mock.ExpectExec(`INSERT INTO transactions`).
        WithArgs(sqlmock.AnyArg(), "REFUND", "COMPLETED", int64(-2500), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
        WillReturnResult(sqlmock.NewResult(12, 1))
    mock.ExpectCommit()

    refund, err := e.ProcessRefund(context.Background(), 11, 2500)
    if err != nil {
        t.Fatalf("ProcessRefund: %v", err)
    }
    if refund.AmountCents != -2500 || refund.Kind != model.TransactionRefund {
        t.Fatalf("unexpected refund: %+v", refund)
    }
    if refund.RefundOf == nil || *refund.RefundOf != 11 {
        t.Fatalf("refund does not reference the payment: %+v", refund)
    }
}

func TestProcessRefundRejectsBeyondRemaining(t *testing.T) {
    now := time.Now().UTC()
    e, mock, db := newMockEngine(t)
    defer expectMet(t, mock, db)

    mock.ExpectBegin()
    mock.ExpectQuery(`FROM transactions WHERE id = \? FOR UPDATE`).
        WillReturnRows(paymentRow(12500, now))
    mock.ExpectQuery(`COALESCE`).WillReturnRows(refundedRow(10000))
    mock.ExpectRollback()

    if _, err := e.ProcessRefund(context.Background(), 11, 5000); !errors.Is(err, ErrRefundExceedsOriginal) {
        t.Fatalf("expected ErrRefundExceedsOriginal, got %v", err)
    }
}

func TestProcessRefundAlreadyFullyRefunded(t *testing.T) {
    now := time.Now().UTC()
    e, mock, db := newMockEngine(t)
    defer expectMet(t, mock, db)

    mock.ExpectBegin()
    mock.ExpectQuery(`FROM transactions WHERE id = \? FOR UPDATE`).
        WillReturnRows(paymentRow(12500, now))
    mock.ExpectQuery(`COALESCE`).WillReturnRows(refundedRow(12500))
    mock.ExpectRollback()

    if _, err := e.ProcessRefund(context.Background(), 11, 0); !errors.Is(err, ErrAlreadyRefunded) {
        t.Fatalf("expected ErrAlreadyRefunded, got %v", err)
    }
}

// The refund that exhausts the payment cancels the reservation and puts
// the seat back on sale in the same commit.
func TestFullRefundCancelsReservationAndRestoresSeat(t *testing.T) {
    now := time.Now().UTC()
    e, mock, db := newMockEngine(t)
    defer expectMet(t, mock, db)

    mock.ExpectBegin()
    mock.ExpectQuery(`FROM transactions WHERE id = \? FOR UPDATE`).
        WillReturnRows(paymentRow(12500, now))
    mock.ExpectQuery(`COALESCE`).WillReturnRows(refundedRow(0))
    mock.ExpectQuery(`FROM reservations WHERE id = \? FOR UPDATE`).
        WillReturnRows(resRow(model.ReservationConfirmed, now))
    mock.ExpectExec(`UPDATE reservations SET status`).WillReturnResult(sqlmock.NewResult(0, 1))
    mock.ExpectExec(`UPDATE trips SET seats_remaining`).WillReturnResult(sqlmock.NewResult(0, 1))
    mock.ExpectQuery(`SELECT 1 FROM transactions WHERE payment_ref`).WillReturnRows(boolRow(false))
    mock.ExpectExec(`INSERT INTO transactions`).
        WithArgs(sqlmock.AnyArg(), "REFUND", "COMPLETED", int64(-12500), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
        WillReturnResult(sqlmock.NewResult(12, 1))
    mock.ExpectCommit()

    refund, err := e.ProcessRefund(context.Background(), 11, 0)
    if err != nil {
        t.Fatalf("ProcessRefund: %v", err)
    }
    if refund.AmountCents != -12500 {
        t.Fatalf("refund amount = %d, want -12500", refund.AmountCents)
    }
}

// A payment whose reservation the user already cancelled must still be
// refundable: the money moves, the reservation and counter stay as the
// cancellation left them.
func TestFullRefundAfterUserCancellation(t *testing.T) {
    now := time.Now().UTC()
    e, mock, db := newMockEngine(t)
    defer expectMet(t, mock, db)

    mock.ExpectBegin()
    mock.ExpectQuery(`FROM transactions WHERE id = \? FOR UPDATE`).
        WillReturnRows(paymentRow(12500, now))
    mock.ExpectQuery(`COALESCE`).WillReturnRows(refundedRow(0))
    mock.ExpectQuery(`FROM reservations WHERE id = \? FOR UPDATE`).
        WillReturnRows(resRow(model.ReservationCancelled, now))
    mock.ExpectQuery(`SELECT 1 FROM transactions WHERE payment_ref`).WillReturnRows(boolRow(false))
    mock.ExpectExec(`INSERT INTO transactions`).
        WithArgs(sqlmock.AnyArg(), "REFUND", "COMPLETED", int64(-12500), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
        WillReturnResult(sqlmock.NewResult(12, 1))
    mock.ExpectCommit()

    refund, err := e.ProcessRefund(context.Background(), 11, 0)
    if err != nil {
        t.Fatalf("refund after cancellation: %v", err)
    }
    if refund.AmountCents != -12500 || refund.RefundOf == nil || *refund.RefundOf != 11 {
        t.Fatalf("unexpected refund: %+v", refund)
    }
}
