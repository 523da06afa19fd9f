package handler

import (
    "context"
    "errors"
    "net/http"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/bus-trip-reservation/internal/model"
    "github.com/iliyamo/bus-trip-reservation/internal/payment"
    "github.com/iliyamo/bus-trip-reservation/internal/repository"
)

// AdminHandler serves the fleet and schedule management endpoints plus the
// refund operation.  All routes in this group require the ADMIN role.
type AdminHandler struct {
    Routes   *repository.RouteRepo
    Vehicles *repository.VehicleRepo
    Trips    *repository.TripRepo
    Payments *payment.Engine
}

func NewAdminHandler(routes *repository.RouteRepo, vehicles *repository.VehicleRepo, trips *repository.TripRepo, payments *payment.Engine) *AdminHandler {
    return &AdminHandler{Routes: routes, Vehicles: vehicles, Trips: trips, Payments: payments}
}

type createRouteReq struct {
    Origin        string `json:"origin"`
    Destination   string `json:"destination"`
    BaseFareCents int64  `json:"base_fare_cents"`
    DurationMin   uint32 `json:"duration_min"`
    DistanceKm    uint32 `json:"distance_km"`
}

// CreateRoute registers a new route in the catalog.
func (h *AdminHandler) CreateRoute(c echo.Context) error {
    var req createRouteReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    if req.Origin == "" || req.Destination == "" || req.BaseFareCents <= 0 || req.DurationMin == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "origin, destination, base_fare_cents and duration_min required"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
    defer cancel()

    rt := &model.Route{
        Origin:        req.Origin,
        Destination:   req.Destination,
        BaseFareCents: req.BaseFareCents,
        DurationMin:   req.DurationMin,
        DistanceKm:    req.DistanceKm,
        IsActive:      true,
    }
    if err := h.Routes.Create(ctx, rt); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create route failed"})
    }
    return c.JSON(http.StatusCreated, toRouteResp(rt))
}

// ListRoutes returns all active routes for the admin console.
func (h *AdminHandler) ListRoutes(c echo.Context) error {
    ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
    defer cancel()

    routes, err := h.Routes.ListActive(ctx)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
    }
    out := make([]routeResp, 0, len(routes))
    for i := range routes {
        out = append(out, toRouteResp(&routes[i]))
    }
    return c.JSON(http.StatusOK, echo.Map{"routes": out})
}

type createVehicleReq struct {
    Plate        string `json:"plate"`
    Brand        string `json:"brand"`
    Model        string `json:"model"`
    SeatCapacity uint32 `json:"seat_capacity"`
}

// CreateVehicle registers a vehicle and seeds its seat map in one
// transaction.
func (h *AdminHandler) CreateVehicle(c echo.Context) error {
    var req createVehicleReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    if req.Plate == "" || req.SeatCapacity == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "plate and seat_capacity required"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
    defer cancel()

    v := &model.Vehicle{
        Plate:        req.Plate,
        Brand:        req.Brand,
        Model:        req.Model,
        SeatCapacity: req.SeatCapacity,
        IsActive:     true,
    }
    if err := h.Vehicles.CreateWithSeats(ctx, v); err != nil {
        if errors.Is(err, repository.ErrDuplicate) {
            return c.JSON(http.StatusConflict, echo.Map{"error": "plate already registered"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create vehicle failed"})
    }
    return c.JSON(http.StatusCreated, vehicleResp{
        ID:           v.ID,
        Plate:        v.Plate,
        Brand:        v.Brand,
        Model:        v.Model,
        SeatCapacity: v.SeatCapacity,
    })
}

type vehicleResp struct {
    ID           uint64 `json:"id"`
    Plate        string `json:"plate"`
    Brand        string `json:"brand"`
    Model        string `json:"model"`
    SeatCapacity uint32 `json:"seat_capacity"`
}

type createTripReq struct {
    RouteID   uint64    `json:"route_id"`
    VehicleID uint64    `json:"vehicle_id"`
    DepartsAt time.Time `json:"departs_at"`
    ArrivesAt time.Time `json:"arrives_at"`
    FareCents int64     `json:"fare_cents"` // optional; defaults to the route's base fare
}

// CreateTrip schedules a departure.  The seat counter starts at the
// vehicle's capacity.
func (h *AdminHandler) CreateTrip(c echo.Context) error {
    var req createTripReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    if req.RouteID == 0 || req.VehicleID == 0 || req.DepartsAt.IsZero() || req.ArrivesAt.IsZero() {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "route_id, vehicle_id, departs_at and arrives_at required"})
    }
    if !req.ArrivesAt.After(req.DepartsAt) {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "arrives_at must be after departs_at"})
    }
    if !req.DepartsAt.After(time.Now().UTC()) {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "departs_at must be in the future"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
    defer cancel()

    rt, err := h.Routes.GetByID(ctx, req.RouteID)
    if err != nil {
        if errors.Is(err, repository.ErrNotFound) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "route not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
    }
    v, err := h.Vehicles.GetByID(ctx, req.VehicleID)
    if err != nil {
        if errors.Is(err, repository.ErrNotFound) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "vehicle not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
    }
    if !v.IsActive {
        return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "vehicle is not in service"})
    }

    fare := req.FareCents
    if fare <= 0 {
        fare = rt.BaseFareCents
    }

    trip := &model.Trip{
        RouteID:        rt.ID,
        VehicleID:      v.ID,
        DepartsAt:      req.DepartsAt.UTC(),
        ArrivesAt:      req.ArrivesAt.UTC(),
        FareCents:      fare,
        Status:         model.TripScheduled,
        SeatsRemaining: v.SeatCapacity,
    }
    if err := h.Trips.Create(ctx, trip); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create trip failed"})
    }
    return c.JSON(http.StatusCreated, toTripResp(trip))
}

// ListTrips returns upcoming departures in every state.
func (h *AdminHandler) ListTrips(c echo.Context) error {
    ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
    defer cancel()

    trips, err := h.Trips.ListUpcoming(ctx)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
    }
    out := make([]tripResp, 0, len(trips))
    for i := range trips {
        out = append(out, toTripResp(&trips[i]))
    }
    return c.JSON(http.StatusOK, echo.Map{"trips": out})
}

type refundReq struct {
    AmountCents int64 `json:"amount_cents"` // optional; zero refunds whatever remains
}

// Refund reverses a completed payment, fully or partially.  A full refund
// also cancels the reservation and puts the seat back on sale.
func (h *AdminHandler) Refund(c echo.Context) error {
    transactionID, ok := parseID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid transaction id"})
    }
    var req refundReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
    defer cancel()

    refund, err := h.Payments.ProcessRefund(ctx, transactionID, req.AmountCents)
    if err != nil {
        switch {
        case errors.Is(err, payment.ErrTransactionNotFound):
            return c.JSON(http.StatusNotFound, echo.Map{"error": "transaction not found"})
        case errors.Is(err, payment.ErrNotRefundable):
            return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "transaction is not refundable"})
        case errors.Is(err, payment.ErrAlreadyRefunded):
            return c.JSON(http.StatusConflict, echo.Map{"error": "payment already refunded"})
        case errors.Is(err, payment.ErrRefundExceedsOriginal):
            return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "refund exceeds the refundable amount"})
        default:
            if code, ok := bookingStatus(err); ok {
                return c.JSON(code, echo.Map{"error": err.Error()})
            }
            return c.JSON(http.StatusInternalServerError, echo.Map{"error": "refund failed"})
        }
    }
    return c.JSON(http.StatusOK, toTransactionResp(refund))
}

// CheckSettlement answers whether the transaction behind a payment
// reference settled.  Reconciliation jobs poll this; unknown references
// read as not settled rather than erroring.
func (h *AdminHandler) CheckSettlement(c echo.Context) error {
    ref := c.Param("ref")
    if ref == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "payment reference required"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
    defer cancel()

    settled, err := h.Payments.ConfirmSettlement(ctx, ref)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
    }
    return c.JSON(http.StatusOK, echo.Map{"payment_ref": ref, "settled": settled})
}
