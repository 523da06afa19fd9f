package payment

import (
    "context"
    "database/sql"
    "errors"
    "time"

    "github.com/iliyamo/bus-trip-reservation/internal/booking"
    "github.com/iliyamo/bus-trip-reservation/internal/model"
    "github.com/iliyamo/bus-trip-reservation/internal/refcode"
    "github.com/iliyamo/bus-trip-reservation/internal/repository"
)

// Errors returned by the payment engine in addition to instrument
// validation errors and DeclineError.
var (
    // ErrUnsupportedMethod means the request named a payment method the
    // engine does not know.  Supported: card, cash, transfer.
    ErrUnsupportedMethod = errors.New("unsupported payment method")

    // ErrMissingInstrument means the chosen method requires details the
    // request did not carry.
    ErrMissingInstrument = errors.New("payment method requires instrument details")

    // ErrAmountMismatch means the request's amount differs from the
    // reservation's total.  Partial payments are not supported.
    ErrAmountMismatch = errors.New("amount does not match reservation total")

    // ErrTransactionNotFound means no ledger entry matches, or it belongs
    // to another user's reservation.
    ErrTransactionNotFound = errors.New("transaction not found")

    // ErrNotRefundable means the targeted ledger entry is not a COMPLETED
    // payment and therefore cannot be refunded.
    ErrNotRefundable = errors.New("transaction is not refundable")

    // ErrAlreadyRefunded means the payment has already been refunded in
    // full.
    ErrAlreadyRefunded = errors.New("payment has already been refunded")

    // ErrRefundExceedsOriginal means the requested refund amount is larger
    // than what remains refundable on the payment.
    ErrRefundExceedsOriginal = errors.New("refund exceeds the refundable amount")
)

// Supported payment methods.
const (
    MethodCard     = "card"
    MethodCash     = "cash"
    MethodTransfer = "transfer"
)

// Request describes one settlement attempt against a reservation.
// AmountCents must equal the reservation's total exactly; card and
// OriginAccount are only read for the matching method.
type Request struct {
    Method        string          `json:"method"`
    AmountCents   int64           `json:"amount_cents"`
    Card          *CardInstrument `json:"card,omitempty"`
    OriginAccount string          `json:"origin_account,omitempty"`
}

// Engine runs settlements and refunds.  It owns the transactions ledger
// and delegates reservation state changes to the booking engine so both
// always happen inside the same database transaction.
type Engine struct {
    db           *sql.DB
    booking      *booking.Engine
    reservations *repository.ReservationRepo
    transactions *repository.TransactionRepo
    ceilingCents int64
    now          func() time.Time
}

// NewEngine constructs the payment engine.  ceilingCents is the simulated
// provider's maximum authorizable charge.
func NewEngine(db *sql.DB, bk *booking.Engine, reservations *repository.ReservationRepo, transactions *repository.TransactionRepo, ceilingCents int64) *Engine {
    return &Engine{
        db:           db,
        booking:      bk,
        reservations: reservations,
        transactions: transactions,
        ceilingCents: ceilingCents,
        now:          time.Now,
    }
}

// validate checks the request shape before any settlement is attempted.
// Validation failures are request errors and leave no ledger trace.
func (e *Engine) validate(req Request, now time.Time) error {
    switch req.Method {
    case MethodCard:
        if req.Card == nil {
            return ErrMissingInstrument
        }
        return req.Card.Validate(now)
    case MethodCash:
        return nil
    case MethodTransfer:
        if req.OriginAccount == "" {
            return ErrMissingInstrument
        }
        return nil
    default:
        return ErrUnsupportedMethod
    }
}

// settle runs the simulated provider for the request and returns a decline
// or nil on success.
func (e *Engine) settle(req Request, amountCents int64) *DeclineError {
    switch req.Method {
    case MethodCard:
        return settleCard(req.Card.Number, amountCents, e.ceilingCents)
    case MethodTransfer:
        return settleTransfer(req.OriginAccount)
    default:
        // Cash always settles at the counter.
        return nil
    }
}

// ProcessPayment settles a reservation's fare and, on success, confirms the
// reservation.  Every structurally valid attempt leaves a ledger row:
// COMPLETED on success, FAILED with the reason on decline.  The settlement
// itself runs outside the database transaction; the reservation's PENDING
// state is then re-checked under its row lock, which resolves the race
// against the expiry sweep in favor of whoever locks first.
func (e *Engine) ProcessPayment(ctx context.Context, userID, reservationID uint64, req Request) (*model.Transaction, error) {
    now := e.now().UTC()

    // Preconditions first, in order: the reservation must exist and be
    // payable before the request shape is even looked at, so a bad card
    // against a missing reservation still reads as not found.
    res, err := e.booking.GetOwned(ctx, userID, reservationID)
    if err != nil {
        return nil, err
    }
    if res.Status != model.ReservationPending {
        return nil, booking.ErrNotPending
    }
    // Partial payments are not a thing: the charge must cover the fare
    // exactly.  A mismatch leaves no ledger trace.
    if req.AmountCents != res.AmountCents {
        return nil, ErrAmountMismatch
    }

    if err := e.validate(req, now); err != nil {
        return nil, err
    }

    decline := e.settle(req, res.AmountCents)

    tx, err := e.db.BeginTx(ctx, nil)
    if err != nil {
        return nil, err
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()

    ref, err := refcode.NewPaymentRef(ctx, now, func(ctx context.Context, r string) (bool, error) {
        return e.transactions.RefExistsTx(ctx, tx, r)
    })
    if err != nil {
        return nil, err
    }

    entry := &model.Transaction{
        ReservationID: res.ID,
        Kind:          model.TransactionPayment,
        AmountCents:   res.AmountCents,
        PaymentRef:    ref,
        Method:        req.Method,
    }

    if decline != nil {
        entry.Status = model.TransactionFailed
        reason := decline.Reason
        entry.FailureReason = &reason
        if err := e.transactions.CreateTx(ctx, tx, entry); err != nil {
            return nil, err
        }
        if err := tx.Commit(); err != nil {
            return nil, err
        }
        committed = true
        return entry, decline
    }

    if _, err := e.booking.ConfirmTx(ctx, tx, res.ID); err != nil {
        // The money "moved" but the reservation can no longer be
        // confirmed (expired or swept).  Record the attempt as failed so
        // the ledger explains what happened.
        entry.Status = model.TransactionFailed
        reason := err.Error()
        entry.FailureReason = &reason
        if createErr := e.transactions.CreateTx(ctx, tx, entry); createErr != nil {
            return nil, createErr
        }
        if commitErr := tx.Commit(); commitErr != nil {
            return nil, commitErr
        }
        committed = true
        return entry, err
    }

    entry.Status = model.TransactionCompleted
    if err := e.transactions.CreateTx(ctx, tx, entry); err != nil {
        return nil, err
    }

    if err := tx.Commit(); err != nil {
        return nil, err
    }
    committed = true
    return entry, nil
}

// ProcessRefund reverses a completed payment, in full or in part, by
// writing a COMPLETED refund row with the negated amount.  amountCents of
// zero means "whatever is still refundable".  When the cumulative refunds
// reach the payment's amount the reservation is cancelled and its seat
// goes back on sale.  The payment row is locked first so concurrent
// refunds of the same payment serialize and can never over-refund.
func (e *Engine) ProcessRefund(ctx context.Context, transactionID uint64, amountCents int64) (*model.Transaction, error) {
    now := e.now().UTC()

    tx, err := e.db.BeginTx(ctx, nil)
    if err != nil {
        return nil, err
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()

    pay, err := e.transactions.GetForUpdateTx(ctx, tx, transactionID)
    if err != nil {
        if errors.Is(err, repository.ErrNotFound) {
            return nil, ErrTransactionNotFound
        }
        return nil, err
    }
    if pay.Kind != model.TransactionPayment || pay.Status != model.TransactionCompleted {
        return nil, ErrNotRefundable
    }

    refunded, err := e.transactions.RefundedTotalTx(ctx, tx, pay.ID)
    if err != nil {
        return nil, err
    }
    remaining := pay.AmountCents - refunded
    if remaining <= 0 {
        return nil, ErrAlreadyRefunded
    }
    if amountCents == 0 {
        amountCents = remaining
    }
    if amountCents < 0 || amountCents > remaining {
        return nil, ErrRefundExceedsOriginal
    }

    if amountCents == remaining {
        if err := e.booking.ReleaseTx(ctx, tx, pay.ReservationID); err != nil {
            return nil, err
        }
    }

    ref, err := refcode.NewPaymentRef(ctx, now, func(ctx context.Context, r string) (bool, error) {
        return e.transactions.RefExistsTx(ctx, tx, r)
    })
    if err != nil {
        return nil, err
    }

    refundOf := pay.ID
    refund := &model.Transaction{
        ReservationID: pay.ReservationID,
        Kind:          model.TransactionRefund,
        Status:        model.TransactionCompleted,
        AmountCents:   -amountCents,
        PaymentRef:    ref,
        Method:        pay.Method,
        RefundOf:      &refundOf,
    }
    if err := e.transactions.CreateTx(ctx, tx, refund); err != nil {
        return nil, err
    }

    if err := tx.Commit(); err != nil {
        return nil, err
    }
    committed = true
    return refund, nil
}

// ConfirmSettlement reports whether the transaction carrying the given
// payment reference reached COMPLETED.  It is an idempotent lookup for
// reconciliation; an unknown reference is simply "not settled".
func (e *Engine) ConfirmSettlement(ctx context.Context, ref string) (bool, error) {
    entry, err := e.transactions.GetByReference(ctx, ref)
    if err != nil {
        if errors.Is(err, repository.ErrNotFound) {
            return false, nil
        }
        return false, err
    }
    return entry.Status == model.TransactionCompleted, nil
}

// ListForReservation returns the full ledger of one of the user's
// reservations, oldest entry first.  A reservation that is missing or
// belongs to someone else reads as ErrReservationNotFound.
func (e *Engine) ListForReservation(ctx context.Context, userID, reservationID uint64) ([]model.Transaction, error) {
    if _, err := e.booking.GetOwned(ctx, userID, reservationID); err != nil {
        return nil, err
    }
    return e.transactions.ListByReservation(ctx, reservationID)
}

// GetForUser resolves a ledger entry by its payment reference, restricted
// to entries against the user's own reservations.  Foreign entries come
// back as ErrTransactionNotFound.
func (e *Engine) GetForUser(ctx context.Context, userID uint64, ref string) (*model.Transaction, error) {
    entry, err := e.transactions.GetByReference(ctx, ref)
    if err != nil {
        if errors.Is(err, repository.ErrNotFound) {
            return nil, ErrTransactionNotFound
        }
        return nil, err
    }
    res, err := e.reservations.GetByID(ctx, entry.ReservationID)
    if err != nil {
        return nil, err
    }
    if res.UserID != userID {
        return nil, ErrTransactionNotFound
    }
    return entry, nil
}
