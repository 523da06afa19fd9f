// Package router wires handlers, middleware and route groups onto the Echo
// instance.  Public browse routes carry the Redis cache; everything under
// /v1 carries the rate limiter from main.
package router

import (
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/bus-trip-reservation/internal/handler"
    "github.com/iliyamo/bus-trip-reservation/internal/middleware"
)

// RegisterHealth registers the unauthenticated liveness endpoint.
func RegisterHealth(e *echo.Echo) {
    e.GET("/healthz", handler.Health)
}

// RegisterAuth registers the session endpoints.  Register, login, refresh
// and logout need no prior session; /v1/me requires a valid token.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
    g := e.Group("/v1/auth")
    g.POST("/register", a.Register)
    g.POST("/login", a.Login)
    g.POST("/refresh", a.Refresh)
    // Logout is also usable with just a refresh token in the body, so the
    // JWT middleware is applied inside the handler group below instead.
    g.POST("/logout", a.Logout)

    auth := e.Group("/v1", middleware.JWTAuth(jwtSecret))
    auth.GET("/me", a.Me)
}

// RegisterPublic registers the unauthenticated catalog: routes, trips and
// seat availability.  The cache middleware, when enabled, wraps exactly
// this group.
func RegisterPublic(e *echo.Echo, b *handler.BrowseHandler, cache echo.MiddlewareFunc) {
    g := e.Group("/v1", cache)
    g.GET("/routes", b.ListRoutes)
    g.GET("/routes/:id/trips", b.ListTripsByRoute)
    g.GET("/trips/:id", b.GetTrip)
    g.GET("/trips/:id/seats", b.ListAvailableSeats)
}

// RegisterCustomer registers the booking and payment endpoints.  All of
// them require a valid JWT with the CUSTOMER role.
func RegisterCustomer(e *echo.Echo, r *handler.ReservationHandler, p *handler.PaymentHandler, jwtSecret string) {
    g := e.Group(
        "/v1",
        middleware.JWTAuth(jwtSecret),
        middleware.RequireRole(handler.RoleCustomer),
    )
    g.POST("/trips/:id/reservations", r.Create)
    g.GET("/my-reservations", r.ListMine)
    g.GET("/reservations/:id", r.Get)
    g.GET("/reservations/code/:code", r.GetByCode)
    g.DELETE("/reservations/:id", r.Cancel)
    g.POST("/reservations/:id/payment", p.Pay)
    g.GET("/reservations/:id/transactions", p.ListForReservation)
    g.GET("/payments/:ref", p.GetByRef)
}

// RegisterAdmin registers fleet and schedule management plus refunds,
// restricted to the ADMIN role.
func RegisterAdmin(e *echo.Echo, a *handler.AdminHandler, jwtSecret string) {
    g := e.Group(
        "/v1/admin",
        middleware.JWTAuth(jwtSecret),
        middleware.RequireRole(handler.RoleAdmin),
    )
    g.POST("/routes", a.CreateRoute)
    g.GET("/routes", a.ListRoutes)
    g.POST("/vehicles", a.CreateVehicle)
    g.POST("/trips", a.CreateTrip)
    g.GET("/trips", a.ListTrips)
    g.POST("/transactions/:id/refund", a.Refund)
    g.GET("/settlements/:ref", a.CheckSettlement)
}
