package handler

import (
    "net/http"
    "strings"

    "github.com/labstack/echo/v4"
)

// ListZones returns the catalog in its configured order.
func (h *ReservationHandler) ListZones(c echo.Context) error {
    return c.JSON(http.StatusOK, echo.Map{"zones": h.Catalog.Zones()})
}

// ResolveZone fuzzy-matches ?q= against the catalog.
func (h *ReservationHandler) ResolveZone(c echo.Context) error {
    q := strings.TrimSpace(c.QueryParam("q"))
    zone, ok := h.Catalog.Resolve(q)
    if !ok {
        return fail(c, http.StatusNotFound, "no_such_zone", msgUnknownZone(q))
    }
    return c.JSON(http.StatusOK, echo.Map{"query": q, "zone": zone})
}
