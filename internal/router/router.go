package router // package router registers the HTTP routes of the command surface

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/zone-queue/internal/handler"
	"github.com/iliyamo/zone-queue/internal/middleware"
	"github.com/iliyamo/zone-queue/internal/utils"
)

// Options carries the middleware shared by route groups.  Nil
// middlewares are skipped.
type Options struct {
	JWTSecret string
	RateLimit echo.MiddlewareFunc
	Cache     echo.MiddlewareFunc
}

// RegisterRoutes registers routes that do not require authentication.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterReservations registers the member and lead endpoints.  Every
// route requires a gateway token; catalog reads are cached and writes
// are rate limited per member.
func RegisterReservations(e *echo.Echo, h *handler.ReservationHandler, opts Options) {
	v1 := e.Group("/v1")
	v1.Use(middleware.JWTAuth(opts.JWTSecret))
	v1.Use(middleware.RequireRole(utils.RoleMember, utils.RoleLead))

	cached := optional(opts.Cache)
	limited := optional(opts.RateLimit)

	v1.GET("/zones", h.ListZones, cached...)
	v1.GET("/zones/resolve", h.ResolveZone, cached...)

	v1.POST("/reservations", h.RequestReservation, limited...)
	v1.DELETE("/reservations", h.RequestCancellation, limited...)
	v1.POST("/confirmations/:token", h.Confirm, limited...)

	v1.GET("/me/reservations", h.MyReservations)
	v1.GET("/table", h.Table)
	v1.GET("/board", h.Board)

	lead := middleware.RequireRole(utils.RoleLead)
	v1.DELETE("/zones/:zone/reservations/:user_id", h.OperatorCancel, lead)
	v1.POST("/purge", h.Purge, lead)
}

func optional(mw echo.MiddlewareFunc) []echo.MiddlewareFunc {
	if mw == nil {
		return nil
	}
	return []echo.MiddlewareFunc{mw}
}
