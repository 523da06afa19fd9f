package handler

import (
    "context"
    "errors"
    "log"
    "net/http"
    "time"

    "github.com/google/uuid"
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/bus-trip-reservation/internal/middleware"
    "github.com/iliyamo/bus-trip-reservation/internal/model"
    "github.com/iliyamo/bus-trip-reservation/internal/payment"
    "github.com/iliyamo/bus-trip-reservation/internal/queue"
    "github.com/iliyamo/bus-trip-reservation/internal/repository"
    queue_publisher "github.com/iliyamo/bus-trip-reservation/internal/service"
)

// PaymentHandler serves the customer payment endpoints.  After a
// successful settlement it publishes a confirmation event; publish
// failures are logged and swallowed since the booking is already
// committed.
type PaymentHandler struct {
    Engine       *payment.Engine
    Reservations *repository.ReservationRepo
}

func NewPaymentHandler(engine *payment.Engine, reservations *repository.ReservationRepo) *PaymentHandler {
    return &PaymentHandler{Engine: engine, Reservations: reservations}
}

type transactionResp struct {
    ID            uint64    `json:"id"`
    ReservationID uint64    `json:"reservation_id"`
    Kind          string    `json:"kind"`
    Status        string    `json:"status"`
    AmountCents   int64     `json:"amount_cents"`
    PaymentRef    string    `json:"payment_ref"`
    Method        string    `json:"method"`
    FailureReason *string   `json:"failure_reason,omitempty"`
    CreatedAt     time.Time `json:"created_at"`
}

func toTransactionResp(t *model.Transaction) transactionResp {
    return transactionResp{
        ID:            t.ID,
        ReservationID: t.ReservationID,
        Kind:          string(t.Kind),
        Status:        string(t.Status),
        AmountCents:   t.AmountCents,
        PaymentRef:    t.PaymentRef,
        Method:        t.Method,
        FailureReason: t.FailureReason,
        CreatedAt:     t.CreatedAt,
    }
}

// instrumentStatus maps instrument validation errors to 400.
func instrumentStatus(err error) bool {
    return errors.Is(err, payment.ErrCardNumberLength) ||
        errors.Is(err, payment.ErrCardNumberDigits) ||
        errors.Is(err, payment.ErrCardChecksum) ||
        errors.Is(err, payment.ErrCVVInvalid) ||
        errors.Is(err, payment.ErrExpiryInvalid) ||
        errors.Is(err, payment.ErrCardExpired) ||
        errors.Is(err, payment.ErrUnsupportedMethod) ||
        errors.Is(err, payment.ErrMissingInstrument)
}

// Pay settles a PENDING reservation.  On success the reservation flips to
// CONFIRMED in the same commit that records the ledger entry.
func (h *PaymentHandler) Pay(c echo.Context) error {
    reservationID, ok := parseID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
    }
    var req payment.Request
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
    defer cancel()

    userID := middleware.UserID(c)
    entry, err := h.Engine.ProcessPayment(ctx, userID, reservationID, req)
    if err != nil {
        var decline *payment.DeclineError
        switch {
        case errors.As(err, &decline):
            // The decline is recorded in the ledger; return it with the
            // failed transaction so the client can show the reason.
            return c.JSON(http.StatusPaymentRequired, echo.Map{
                "error":       decline.Reason,
                "transaction": toTransactionResp(entry),
            })
        case instrumentStatus(err):
            return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
        case errors.Is(err, payment.ErrAmountMismatch):
            return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "amount does not match reservation total"})
        default:
            if code, ok := bookingStatus(err); ok {
                resp := echo.Map{"error": err.Error()}
                if entry != nil {
                    resp["transaction"] = toTransactionResp(entry)
                }
                return c.JSON(code, resp)
            }
            return c.JSON(http.StatusInternalServerError, echo.Map{"error": "payment failed"})
        }
    }

    h.publishConfirmed(ctx, userID, entry)
    return c.JSON(http.StatusOK, toTransactionResp(entry))
}

// GetByRef returns one of the user's ledger entries by payment reference.
func (h *PaymentHandler) GetByRef(c echo.Context) error {
    ref := c.Param("ref")
    if ref == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid payment reference"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
    defer cancel()

    entry, err := h.Engine.GetForUser(ctx, middleware.UserID(c), ref)
    if err != nil {
        if errors.Is(err, payment.ErrTransactionNotFound) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "transaction not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
    }
    return c.JSON(http.StatusOK, toTransactionResp(entry))
}

// ListForReservation returns every ledger entry recorded against one of
// the user's reservations, payments and refunds alike.
func (h *PaymentHandler) ListForReservation(c echo.Context) error {
    reservationID, ok := parseID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
    defer cancel()

    entries, err := h.Engine.ListForReservation(ctx, middleware.UserID(c), reservationID)
    if err != nil {
        if code, ok := bookingStatus(err); ok {
            return c.JSON(code, echo.Map{"error": err.Error()})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
    }
    out := make([]transactionResp, 0, len(entries))
    for i := range entries {
        out = append(out, toTransactionResp(&entries[i]))
    }
    return c.JSON(http.StatusOK, echo.Map{"transactions": out})
}

// publishConfirmed builds and publishes the confirmation event.  Best
// effort only; the payment has already committed.
func (h *PaymentHandler) publishConfirmed(ctx context.Context, userID uint64, entry *model.Transaction) {
    detail, err := h.Reservations.GetDetailForUser(ctx, entry.ReservationID, userID)
    if err != nil {
        log.Printf("publish confirmed: load reservation %d: %v", entry.ReservationID, err)
        return
    }
    ev := queue.ReservationConfirmedEvent{
        EventID:       uuid.NewString(),
        ReservationID: detail.ID,
        Code:          detail.Code,
        UserID:        userID,
        TripID:        detail.TripID,
        Origin:        detail.Origin,
        Destination:   detail.Destination,
        DepartsAt:     detail.DepartsAt.UTC().Format(time.RFC3339),
        SeatNumber:    detail.SeatNumber,
        SeatClass:     string(detail.SeatClass),
        AmountCents:   entry.AmountCents,
        PaymentRef:    entry.PaymentRef,
        ConfirmedAt:   time.Now().UTC().Format(time.RFC3339),
    }
    if err := queue_publisher.PublishReservationConfirmed(ctx, ev); err != nil {
        log.Printf("publish confirmed: reservation %d: %v", detail.ID, err)
    }
}
