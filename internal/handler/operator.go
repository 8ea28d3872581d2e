package handler

import (
    "net/http"

    "github.com/labstack/echo/v4"
    "go.uber.org/zap"

    "github.com/iliyamo/zone-queue/internal/middleware"
)

// OperatorCancel lets a lead remove a member's reservation without a
// confirmation step.  The zone path segment is resolved like a member
// query.
func (h *ReservationHandler) OperatorCancel(c echo.Context) error {
    q := c.Param("zone")
    zone, ok := h.Catalog.Resolve(q)
    if !ok {
        return fail(c, http.StatusNotFound, "no_such_zone", msgUnknownZone(q))
    }
    target := c.Param("user_id")
    h.Log.Info("operator cancel",
        zap.String("lead", middleware.UserID(c)), zap.String("user_id", target), zap.String("zone", zone))
    return h.cancel(c, target, zone)
}

// Purge runs an expiry purge on demand and refreshes the summary view.
func (h *ReservationHandler) Purge(c echo.Context) error {
    ctx := c.Request().Context()
    res, err := h.Engine.PurgeExpired(ctx, nil)
    if err != nil {
        return h.engineFailure(c, "purge", err)
    }
    h.refreshBoard(ctx)
    return c.JSON(http.StatusOK, echo.Map{
        "expired":  len(res.ToNotify),
        "promoted": len(res.Promotions()),
        "board":    h.Summary.Current(),
    })
}
