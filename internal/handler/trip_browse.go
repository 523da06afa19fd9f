package handler

import (
    "context"
    "errors"
    "net/http"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/bus-trip-reservation/internal/booking"
    "github.com/iliyamo/bus-trip-reservation/internal/model"
    "github.com/iliyamo/bus-trip-reservation/internal/repository"
)

// BrowseHandler serves the public, unauthenticated catalog: routes, their
// upcoming trips and per-trip seat availability.  These endpoints sit
// behind the Redis response cache.
type BrowseHandler struct {
    Routes *repository.RouteRepo
    Trips  *repository.TripRepo
    Engine *booking.Engine
}

func NewBrowseHandler(routes *repository.RouteRepo, trips *repository.TripRepo, engine *booking.Engine) *BrowseHandler {
    return &BrowseHandler{Routes: routes, Trips: trips, Engine: engine}
}

type routeResp struct {
    ID            uint64 `json:"id"`
    Origin        string `json:"origin"`
    Destination   string `json:"destination"`
    BaseFareCents int64  `json:"base_fare_cents"`
    DurationMin   uint32 `json:"duration_min"`
    DistanceKm    uint32 `json:"distance_km"`
}

type tripResp struct {
    ID             uint64    `json:"id"`
    RouteID        uint64    `json:"route_id"`
    DepartsAt      time.Time `json:"departs_at"`
    ArrivesAt      time.Time `json:"arrives_at"`
    FareCents      int64     `json:"fare_cents"`
    Status         string    `json:"status"`
    SeatsRemaining uint32    `json:"seats_remaining"`
}

type seatResp struct {
    ID         uint64 `json:"id"`
    SeatNumber uint32 `json:"seat_number"`
    Class      string `json:"class"`
}

func toRouteResp(r *model.Route) routeResp {
    return routeResp{
        ID:            r.ID,
        Origin:        r.Origin,
        Destination:   r.Destination,
        BaseFareCents: r.BaseFareCents,
        DurationMin:   r.DurationMin,
        DistanceKm:    r.DistanceKm,
    }
}

func toTripResp(t *model.Trip) tripResp {
    return tripResp{
        ID:             t.ID,
        RouteID:        t.RouteID,
        DepartsAt:      t.DepartsAt,
        ArrivesAt:      t.ArrivesAt,
        FareCents:      t.FareCents,
        Status:         string(t.Status),
        SeatsRemaining: t.SeatsRemaining,
    }
}

// ListRoutes returns all active routes.
func (h *BrowseHandler) ListRoutes(c echo.Context) error {
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

// ListTripsByRoute returns the route's upcoming SCHEDULED trips.
func (h *BrowseHandler) ListTripsByRoute(c echo.Context) error {
    routeID, ok := parseID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid route id"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
    defer cancel()

    if _, err := h.Routes.GetByID(ctx, routeID); err != nil {
        if errors.Is(err, repository.ErrNotFound) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "route not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
    }

    trips, err := h.Trips.ListByRoute(ctx, routeID)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
    }
    out := make([]tripResp, 0, len(trips))
    for i := range trips {
        out = append(out, toTripResp(&trips[i]))
    }
    return c.JSON(http.StatusOK, echo.Map{"trips": out})
}

// GetTrip returns one trip with its live seat counter.
func (h *BrowseHandler) GetTrip(c echo.Context) error {
    tripID, ok := parseID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid trip id"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
    defer cancel()

    trip, err := h.Trips.GetByID(ctx, tripID)
    if err != nil {
        if errors.Is(err, repository.ErrNotFound) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "trip not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
    }
    return c.JSON(http.StatusOK, toTripResp(trip))
}

// ListAvailableSeats returns the trip's unclaimed seats ordered by number.
func (h *BrowseHandler) ListAvailableSeats(c echo.Context) error {
    tripID, ok := parseID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid trip id"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
    defer cancel()

    seats, err := h.Engine.AvailableSeats(ctx, tripID)
    if err != nil {
        if errors.Is(err, booking.ErrTripNotFound) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "trip not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
    }
    out := make([]seatResp, 0, len(seats))
    for _, s := range seats {
        out = append(out, seatResp{ID: s.ID, SeatNumber: s.SeatNumber, Class: string(s.Class)})
    }
    return c.JSON(http.StatusOK, echo.Map{"trip_id": tripID, "seats": out})
}
