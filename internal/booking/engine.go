// Package booking implements the reservation core: claiming seats,
// cancelling them, expiring stale claims and pricing seats by class.  All
// multi-row writes run inside a single database transaction with the trip
// or reservation row locked first, so concurrent requests serialize at the
// store instead of racing in application code.
package booking

import (
    "context"
    "database/sql"
    "errors"
    "log"
    "time"

    "github.com/iliyamo/bus-trip-reservation/internal/model"
    "github.com/iliyamo/bus-trip-reservation/internal/refcode"
    "github.com/iliyamo/bus-trip-reservation/internal/repository"
)

// Engine coordinates the reservation lifecycle across the trip, seat and
// reservation repositories.  It owns transaction boundaries; the
// repositories only ever see a tx handed to them.
type Engine struct {
    db           *sql.DB
    trips        *repository.TripRepo
    seats        *repository.SeatRepo
    reservations *repository.ReservationRepo
    now          func() time.Time
}

// NewEngine constructs the reservation engine.
func NewEngine(db *sql.DB, trips *repository.TripRepo, seats *repository.SeatRepo, reservations *repository.ReservationRepo) *Engine {
    return &Engine{
        db:           db,
        trips:        trips,
        seats:        seats,
        reservations: reservations,
        now:          time.Now,
    }
}

// CreateReservation claims a seat on a trip for the user and returns the
// new PENDING reservation.  The whole claim is one transaction: the trip
// row is locked, the seat validated and priced, availability checked, the
// reservation inserted and the seats_remaining counter decremented.  A
// concurrent claim for the same seat either waits on the trip lock or trips
// the (trip, seat) unique key, and in both cases loses cleanly with
// ErrSeatUnavailable.
func (e *Engine) CreateReservation(ctx context.Context, userID, tripID, seatID uint64) (*model.Reservation, error) {
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

    trip, err := e.trips.GetForUpdateTx(ctx, tx, tripID)
    if err != nil {
        if errors.Is(err, repository.ErrNotFound) {
            return nil, ErrTripNotFound
        }
        return nil, err
    }
    if err := checkBookable(trip, now); err != nil {
        return nil, err
    }

    seat, err := e.seats.GetTx(ctx, tx, seatID)
    if err != nil {
        if errors.Is(err, repository.ErrNotFound) {
            return nil, ErrSeatNotFound
        }
        return nil, err
    }
    if seat.VehicleID != trip.VehicleID {
        return nil, ErrSeatNotFound
    }
    if !seat.IsActive {
        return nil, ErrSeatUnavailable
    }

    claimed, err := e.reservations.SeatClaimedTx(ctx, tx, tripID, seatID)
    if err != nil {
        return nil, err
    }
    if claimed {
        return nil, ErrSeatUnavailable
    }

    amount, err := TotalFareCents(trip.FareCents, seat.Class)
    if err != nil {
        return nil, err
    }

    code, err := refcode.NewReservationCode(ctx, now, func(ctx context.Context, c string) (bool, error) {
        return e.reservations.CodeExistsTx(ctx, tx, c)
    })
    if err != nil {
        return nil, err
    }

    res := &model.Reservation{
        UserID:      userID,
        TripID:      tripID,
        SeatID:      seatID,
        Code:        code,
        Status:      model.ReservationPending,
        AmountCents: amount,
    }
    if err := e.reservations.CreateTx(ctx, tx, res); err != nil {
        if errors.Is(err, repository.ErrDuplicate) {
            return nil, ErrSeatUnavailable
        }
        return nil, err
    }

    if err := e.trips.AdjustSeatsRemainingTx(ctx, tx, tripID, -1); err != nil {
        return nil, err
    }

    if err := tx.Commit(); err != nil {
        return nil, err
    }
    committed = true
    return res, nil
}

// CancelReservation cancels a reservation owned by the user and releases
// its seat.  Both PENDING and CONFIRMED reservations may be cancelled up to
// two hours before departure; money movement for a paid reservation is
// handled separately by the refund flow.
func (e *Engine) CancelReservation(ctx context.Context, userID, reservationID uint64) (*model.Reservation, error) {
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

    res, err := e.reservations.GetForUpdateTx(ctx, tx, reservationID)
    if err != nil {
        if errors.Is(err, repository.ErrNotFound) {
            return nil, ErrReservationNotFound
        }
        return nil, err
    }
    if res.UserID != userID {
        return nil, ErrReservationNotFound
    }
    if err := checkCancelAllowed(res.Status); err != nil {
        return nil, err
    }

    trip, err := e.trips.GetTx(ctx, tx, res.TripID)
    if err != nil {
        return nil, err
    }
    if err := checkCancellable(trip.DepartsAt, now); err != nil {
        return nil, err
    }

    if err := e.reservations.UpdateStatusTx(ctx, tx, res.ID, model.ReservationCancelled); err != nil {
        return nil, err
    }
    if err := e.trips.AdjustSeatsRemainingTx(ctx, tx, res.TripID, +1); err != nil {
        return nil, err
    }

    if err := tx.Commit(); err != nil {
        return nil, err
    }
    committed = true
    res.Status = model.ReservationCancelled
    return res, nil
}

// ConfirmTx promotes a PENDING reservation to CONFIRMED inside the caller's
// transaction.  The payment engine calls this after a settlement succeeds:
// the row lock plus the state re-check here is what resolves the race
// against a concurrent expiry sweep.  An expired-but-unswept reservation is
// refused the same way a swept one would be.
func (e *Engine) ConfirmTx(ctx context.Context, tx *sql.Tx, reservationID uint64) (*model.Reservation, error) {
    now := e.now().UTC()

    res, err := e.reservations.GetForUpdateTx(ctx, tx, reservationID)
    if err != nil {
        if errors.Is(err, repository.ErrNotFound) {
            return nil, ErrReservationNotFound
        }
        return nil, err
    }
    if res.Status != model.ReservationPending {
        return nil, ErrNotPending
    }

    trip, err := e.trips.GetTx(ctx, tx, res.TripID)
    if err != nil {
        return nil, err
    }
    if isExpired(res.CreatedAt, trip.DepartsAt, now) {
        return nil, ErrReservationExpired
    }

    if err := e.reservations.UpdateStatusTx(ctx, tx, res.ID, model.ReservationConfirmed); err != nil {
        return nil, err
    }
    res.Status = model.ReservationConfirmed
    return res, nil
}

// ReleaseTx cancels a reservation inside the caller's transaction and
// restores the trip's seat counter.  The refund flow calls it after
// reversing the payment so the seat goes back on sale in the same commit
// that moves the money.  A reservation the user already cancelled was
// released back then, and a completed one has no seat left to release;
// in both cases the refund is purely a money movement and ReleaseTx is a
// no-op rather than an error.
func (e *Engine) ReleaseTx(ctx context.Context, tx *sql.Tx, reservationID uint64) error {
    res, err := e.reservations.GetForUpdateTx(ctx, tx, reservationID)
    if err != nil {
        if errors.Is(err, repository.ErrNotFound) {
            return ErrReservationNotFound
        }
        return err
    }
    if !res.Status.Live() {
        return nil
    }
    if !res.Status.CanTransition(model.ReservationCancelled) {
        return nil
    }
    if err := e.reservations.UpdateStatusTx(ctx, tx, res.ID, model.ReservationCancelled); err != nil {
        return err
    }
    return e.trips.AdjustSeatsRemainingTx(ctx, tx, res.TripID, +1)
}

// checkCancelAllowed rejects cancellation of terminal reservations with an
// error naming the state they are stuck in.
func checkCancelAllowed(status model.ReservationStatus) error {
    switch status {
    case model.ReservationCancelled:
        return ErrAlreadyCancelled
    case model.ReservationCompleted:
        return ErrAlreadyCompleted
    default:
        return nil
    }
}

// GetOwned loads a reservation and verifies ownership, collapsing
// "not yours" into ErrReservationNotFound.
func (e *Engine) GetOwned(ctx context.Context, userID, reservationID uint64) (*model.Reservation, error) {
    res, err := e.reservations.GetByID(ctx, reservationID)
    if err != nil {
        if errors.Is(err, repository.ErrNotFound) {
            return nil, ErrReservationNotFound
        }
        return nil, err
    }
    if res.UserID != userID {
        return nil, ErrReservationNotFound
    }
    return res, nil
}

// AvailableSeats returns the seats of the trip's vehicle not held by a live
// reservation, ordered by seat number.
func (e *Engine) AvailableSeats(ctx context.Context, tripID uint64) ([]model.Seat, error) {
    if _, err := e.trips.GetByID(ctx, tripID); err != nil {
        if errors.Is(err, repository.ErrNotFound) {
            return nil, ErrTripNotFound
        }
        return nil, err
    }
    return e.seats.AvailableForTrip(ctx, tripID)
}

// SweepExpired cancels every PENDING reservation that has crossed an expiry
// deadline and releases its seat.  Each reservation is processed in its own
// transaction with the row locked and the expiry re-checked, so a payment
// that confirms between the candidate scan and the sweep wins and the
// reservation is skipped.  Failures on one reservation are logged and do
// not stop the rest of the sweep.
func (e *Engine) SweepExpired(ctx context.Context) (int, error) {
    now := e.now().UTC()
    ids, err := e.reservations.ListExpiredPendingIDs(ctx, now)
    if err != nil {
        return 0, err
    }

    swept := 0
    for _, id := range ids {
        err := e.sweepOne(ctx, id, now)
        switch {
        case err == nil:
            swept++
        case errors.Is(err, errSweepSkip):
            // A payment confirmed it between the scan and the lock.
        default:
            log.Printf("sweep: reservation %d: %v", id, err)
        }
    }
    return swept, nil
}

// errSweepSkip marks a candidate that no longer needs sweeping.
var errSweepSkip = errors.New("no longer expired")

func (e *Engine) sweepOne(ctx context.Context, id uint64, now time.Time) error {
    tx, err := e.db.BeginTx(ctx, nil)
    if err != nil {
        return err
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()

    res, err := e.reservations.GetForUpdateTx(ctx, tx, id)
    if err != nil {
        return err
    }
    if res.Status != model.ReservationPending {
        return errSweepSkip
    }
    trip, err := e.trips.GetTx(ctx, tx, res.TripID)
    if err != nil {
        return err
    }
    if !isExpired(res.CreatedAt, trip.DepartsAt, now) {
        return errSweepSkip
    }

    if err := e.reservations.UpdateStatusTx(ctx, tx, res.ID, model.ReservationCancelled); err != nil {
        return err
    }
    if err := e.trips.AdjustSeatsRemainingTx(ctx, tx, res.TripID, +1); err != nil {
        return err
    }

    if err := tx.Commit(); err != nil {
        return err
    }
    committed = true
    return nil
}
