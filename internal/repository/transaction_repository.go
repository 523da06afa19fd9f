package repository

import (
    "context"
    "database/sql"
    "errors"

    "github.com/iliyamo/bus-trip-reservation/internal/model"
)

// TransactionRepo persists the money movement ledger.  Every settlement
// attempt leaves a row, successful or not, and refund rows reference the
// payment they reverse.  Rows are append-plus-status-flip only.
type TransactionRepo struct {
    db *sql.DB
}

// NewTransactionRepo constructs a TransactionRepo with the given DB handle.
func NewTransactionRepo(db *sql.DB) *TransactionRepo { return &TransactionRepo{db: db} }

const transactionColumns = `id, reservation_id, kind, status, amount_cents, payment_ref, method, failure_reason, refund_of, created_at, updated_at`

func scanTransaction(row *sql.Row) (*model.Transaction, error) {
    var t model.Transaction
    err := row.Scan(
        &t.ID, &t.ReservationID, &t.Kind, &t.Status, &t.AmountCents,
        &t.PaymentRef, &t.Method, &t.FailureReason, &t.RefundOf,
        &t.CreatedAt, &t.UpdatedAt,
    )
    if err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return nil, ErrNotFound
        }
        return nil, err
    }
    return &t, nil
}

// CreateTx inserts a transaction row within the caller's transaction and
// assigns the generated ID back to the struct.
func (r *TransactionRepo) CreateTx(ctx context.Context, tx *sql.Tx, t *model.Transaction) error {
    const q = `INSERT INTO transactions (reservation_id, kind, status, amount_cents, payment_ref, method, failure_reason, refund_of)
               VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
    res, err := tx.ExecContext(ctx, q,
        t.ReservationID, string(t.Kind), string(t.Status), t.AmountCents,
        t.PaymentRef, t.Method, t.FailureReason, t.RefundOf,
    )
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
    t.ID = uint64(id)
    return nil
}

// GetForUpdateTx loads a transaction row with SELECT ... FOR UPDATE inside
// the caller's transaction.  The refund path locks the payment row it
// reverses so two concurrent refunds of the same payment serialize.
func (r *TransactionRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Transaction, error) {
    q := `SELECT ` + transactionColumns + ` FROM transactions WHERE id = ? FOR UPDATE`
    return scanTransaction(tx.QueryRowContext(ctx, q, id))
}

// GetByReference resolves a transaction by its payment reference.  It
// returns ErrNotFound when no row carries the reference.
func (r *TransactionRepo) GetByReference(ctx context.Context, ref string) (*model.Transaction, error) {
    q := `SELECT ` + transactionColumns + ` FROM transactions WHERE payment_ref = ?`
    return scanTransaction(r.db.QueryRowContext(ctx, q, ref))
}

// RefExistsTx reports whether a payment reference is already persisted.
// The code generator calls this in its retry loop before accepting a
// candidate.
func (r *TransactionRepo) RefExistsTx(ctx context.Context, tx *sql.Tx, ref string) (bool, error) {
    const q = `SELECT EXISTS(SELECT 1 FROM transactions WHERE payment_ref = ?)`
    var exists bool
    if err := tx.QueryRowContext(ctx, q, ref).Scan(&exists); err != nil {
        return false, err
    }
    return exists, nil
}

// RefundedTotalTx returns how much of the given payment has already been
// refunded, as a positive amount in cents.  Refund rows store negated
// amounts, so the sum is flipped back.  Read under the payment's row lock
// so concurrent refunds cannot both see the same remaining balance.
func (r *TransactionRepo) RefundedTotalTx(ctx context.Context, tx *sql.Tx, paymentID uint64) (int64, error) {
    const q = `SELECT COALESCE(-SUM(amount_cents), 0) FROM transactions
               WHERE refund_of = ? AND status = 'COMPLETED'`
    var total int64
    if err := tx.QueryRowContext(ctx, q, paymentID).Scan(&total); err != nil {
        return 0, err
    }
    return total, nil
}

// ListByReservation returns every transaction recorded against a
// reservation, oldest first, so the audit trail reads in the order it
// happened.
func (r *TransactionRepo) ListByReservation(ctx context.Context, reservationID uint64) ([]model.Transaction, error) {
    q := `SELECT ` + transactionColumns + ` FROM transactions WHERE reservation_id = ? ORDER BY created_at ASC, id ASC`
    rows, err := r.db.QueryContext(ctx, q, reservationID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    result := make([]model.Transaction, 0)
    for rows.Next() {
        var t model.Transaction
        if err := rows.Scan(
            &t.ID, &t.ReservationID, &t.Kind, &t.Status, &t.AmountCents,
            &t.PaymentRef, &t.Method, &t.FailureReason, &t.RefundOf,
            &t.CreatedAt, &t.UpdatedAt,
        ); err != nil {
            return nil, err
        }
        result = append(result, t)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return result, nil
}
