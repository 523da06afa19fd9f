package handler

import (
    "context"
    "errors"
    "net/http"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/bus-trip-reservation/internal/booking"
    "github.com/iliyamo/bus-trip-reservation/internal/middleware"
    "github.com/iliyamo/bus-trip-reservation/internal/model"
    "github.com/iliyamo/bus-trip-reservation/internal/repository"
)

// ReservationHandler serves the customer-facing reservation endpoints.
// All business rules live in the booking engine; this layer only binds
// requests, maps errors to statuses and shapes responses.
type ReservationHandler struct {
    Engine       *booking.Engine
    Reservations *repository.ReservationRepo
}

func NewReservationHandler(engine *booking.Engine, reservations *repository.ReservationRepo) *ReservationHandler {
    return &ReservationHandler{Engine: engine, Reservations: reservations}
}

type createReservationReq struct {
    SeatID uint64 `json:"seat_id"`
}

type reservationResp struct {
    ID          uint64    `json:"id"`
    Code        string    `json:"code"`
    TripID      uint64    `json:"trip_id"`
    SeatID      uint64    `json:"seat_id"`
    Status      string    `json:"status"`
    AmountCents int64     `json:"amount_cents"`
    CreatedAt   time.Time `json:"created_at"`
}

func toReservationResp(r *model.Reservation) reservationResp {
    return reservationResp{
        ID:          r.ID,
        Code:        r.Code,
        TripID:      r.TripID,
        SeatID:      r.SeatID,
        Status:      string(r.Status),
        AmountCents: r.AmountCents,
        CreatedAt:   r.CreatedAt,
    }
}

// bookingStatus maps booking engine errors onto HTTP statuses.
func bookingStatus(err error) (int, bool) {
    switch {
    case errors.Is(err, booking.ErrTripNotFound),
        errors.Is(err, booking.ErrSeatNotFound),
        errors.Is(err, booking.ErrReservationNotFound):
        return http.StatusNotFound, true
    case errors.Is(err, booking.ErrSeatUnavailable),
        errors.Is(err, booking.ErrAlreadyCancelled),
        errors.Is(err, booking.ErrAlreadyCompleted),
        errors.Is(err, booking.ErrNotPending):
        return http.StatusConflict, true
    case errors.Is(err, booking.ErrTripNotBookable),
        errors.Is(err, booking.ErrBookingWindowClosed),
        errors.Is(err, booking.ErrCancelWindowClosed),
        errors.Is(err, booking.ErrReservationExpired):
        return http.StatusUnprocessableEntity, true
    case errors.Is(err, booking.ErrInvalidSeatClass):
        return http.StatusBadRequest, true
    }
    return 0, false
}

// Create claims a seat on a trip for the authenticated user.
func (h *ReservationHandler) Create(c echo.Context) error {
    tripID, ok := parseID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid trip id"})
    }
    var req createReservationReq
    if err := c.Bind(&req); err != nil || req.SeatID == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "seat_id required"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
    defer cancel()

    res, err := h.Engine.CreateReservation(ctx, middleware.UserID(c), tripID, req.SeatID)
    if err != nil {
        if code, ok := bookingStatus(err); ok {
            return c.JSON(code, echo.Map{"error": err.Error()})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create reservation failed"})
    }
    return c.JSON(http.StatusCreated, toReservationResp(res))
}

// Cancel cancels one of the user's own reservations and releases the seat.
func (h *ReservationHandler) Cancel(c echo.Context) error {
    reservationID, ok := parseID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
    defer cancel()

    res, err := h.Engine.CancelReservation(ctx, middleware.UserID(c), reservationID)
    if err != nil {
        if code, ok := bookingStatus(err); ok {
            return c.JSON(code, echo.Map{"error": err.Error()})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "cancel reservation failed"})
    }
    return c.JSON(http.StatusOK, toReservationResp(res))
}

// ListMine returns the user's reservations with trip and seat detail.
func (h *ReservationHandler) ListMine(c echo.Context) error {
    ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
    defer cancel()

    details, err := h.Reservations.ListByUser(ctx, middleware.UserID(c))
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
    }
    return c.JSON(http.StatusOK, echo.Map{"reservations": details})
}

// Get returns one of the user's reservations by ID.
func (h *ReservationHandler) Get(c echo.Context) error {
    reservationID, ok := parseID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
    defer cancel()

    detail, err := h.Reservations.GetDetailForUser(ctx, reservationID, middleware.UserID(c))
    if err != nil {
        if errors.Is(err, repository.ErrNotFound) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
    }
    return c.JSON(http.StatusOK, detail)
}

// GetByCode resolves one of the user's reservations by its code, the
// support-desk lookup path.
func (h *ReservationHandler) GetByCode(c echo.Context) error {
    code := c.Param("code")
    if code == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation code"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
    defer cancel()

    detail, err := h.Reservations.GetDetailByCodeForUser(ctx, code, middleware.UserID(c))
    if err != nil {
        if errors.Is(err, repository.ErrNotFound) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
    }
    return c.JSON(http.StatusOK, detail)
}
