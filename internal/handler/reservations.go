package handler

import (
    "context"
    "errors"
    "net/http"
    "strings"

    "github.com/labstack/echo/v4"
    "go.uber.org/zap"

    "github.com/iliyamo/zone-queue/internal/confirm"
    "github.com/iliyamo/zone-queue/internal/middleware"
    "github.com/iliyamo/zone-queue/internal/model"
)

type reserveRequest struct {
    Zone string `json:"zone"`
}

type confirmRequest struct {
    Accept bool `json:"accept"`
}

// RequestReservation resolves the zone and opens a pending reservation
// the member must confirm within ConfirmTimeout.
func (h *ReservationHandler) RequestReservation(c echo.Context) error {
    var req reserveRequest
    if err := c.Bind(&req); err != nil {
        return fail(c, http.StatusBadRequest, "bad_request", "invalid body")
    }
    return h.openPending(c, confirm.ActionReserve, req.Zone)
}

// RequestCancellation resolves ?zone= and opens a pending cancellation.
func (h *ReservationHandler) RequestCancellation(c echo.Context) error {
    return h.openPending(c, confirm.ActionCancel, c.QueryParam("zone"))
}

func (h *ReservationHandler) openPending(c echo.Context, action confirm.Action, query string) error {
    query = strings.TrimSpace(query)
    zone, ok := h.Catalog.Resolve(query)
    if !ok {
        return fail(c, http.StatusNotFound, "no_such_zone", msgUnknownZone(query))
    }
    p := confirm.NewPending(action, middleware.UserID(c), middleware.UserName(c), zone, h.Now(), h.ConfirmTimeout)
    if err := h.Confirms.Put(c.Request().Context(), p, h.ConfirmTimeout); err != nil {
        h.Log.Error("pending confirmation not stored", zap.Error(err))
        return fail(c, http.StatusServiceUnavailable, "unavailable", msgUnavailable)
    }
    msg := msgConfirmReserve(zone)
    if action == confirm.ActionCancel {
        msg = msgConfirmCancel(zone)
    }
    return c.JSON(http.StatusAccepted, echo.Map{
        "token":      p.Token,
        "action":     p.Action,
        "zone":       zone,
        "expires_at": p.ExpiresAt,
        "message":    msg,
    })
}

// Confirm answers a pending request.  Declined, expired and unknown
// tokens leave the reservations untouched.
func (h *ReservationHandler) Confirm(c echo.Context) error {
    var req confirmRequest
    if err := c.Bind(&req); err != nil {
        return fail(c, http.StatusBadRequest, "bad_request", "invalid body")
    }
    ctx := c.Request().Context()
    p, err := h.Confirms.Take(ctx, c.Param("token"))
    if errors.Is(err, confirm.ErrNotFound) {
        return fail(c, http.StatusGone, "expired", msgExpired)
    }
    if err != nil {
        h.Log.Error("pending confirmation not read", zap.Error(err))
        return fail(c, http.StatusServiceUnavailable, "unavailable", msgUnavailable)
    }
    if p.UserID != middleware.UserID(c) {
        if left := p.ExpiresAt.Sub(h.Now()); left > 0 {
            _ = h.Confirms.Put(ctx, p, left)
        }
        return fail(c, http.StatusForbidden, "forbidden", msgNotYours)
    }
    if !req.Accept {
        return c.JSON(http.StatusOK, echo.Map{"status": "declined", "message": msgDeclined})
    }

    switch p.Action {
    case confirm.ActionReserve:
        return h.reserve(c, p)
    case confirm.ActionCancel:
        return h.cancel(c, p.UserID, p.Zone)
    }
    return fail(c, http.StatusBadRequest, "bad_request", "unknown action")
}

func (h *ReservationHandler) reserve(c echo.Context, p confirm.Pending) error {
    ctx := c.Request().Context()
    cand := h.Engine.BuildCandidate(p.UserName, p.UserID, p.Zone)
    adm, err := h.Engine.AdmitDetailed(ctx, cand)
    if err != nil {
        return h.engineFailure(c, "admit", err)
    }
    if !adm.Accepted {
        return c.JSON(http.StatusConflict, echo.Map{
            "error":   "limits_reached",
            "reason":  adm.Reason,
            "message": msgLimits(p.Zone),
        })
    }
    h.refreshBoard(ctx)
    return c.JSON(http.StatusCreated, echo.Map{
        "reservation": cand,
        "message":     msgReserved(p.Zone, h.formatDate(adm.ExpiresAt)),
    })
}

// cancel removes the member's reservation and promotes the next member
// of the zone when it was the active one.
func (h *ReservationHandler) cancel(c echo.Context, userID, zone string) error {
    ctx := c.Request().Context()
    removed, err := h.removeAndPromote(ctx, userID, zone)
    if err != nil {
        return h.engineFailure(c, "cancel", err)
    }
    if removed == nil {
        return fail(c, http.StatusNotFound, "no_reservation", msgNothingToCancel(zone))
    }
    h.refreshBoard(ctx)
    return c.JSON(http.StatusOK, echo.Map{"removed": removed, "message": msgCancelled(zone)})
}

func (h *ReservationHandler) removeAndPromote(ctx context.Context, userID, zone string) (*model.Reservation, error) {
    ok, removed, err := h.Engine.Cancel(ctx, userID, zone)
    if err != nil || !ok {
        return nil, err
    }
    // The row is gone; a failed promotion purge is retried by the next
    // purge and must not turn the cancellation into an error.
    if _, err := h.Engine.PurgeExpired(ctx, removed); err != nil {
        h.Log.Warn("purge after cancel failed", zap.String("zone", zone), zap.Error(err))
    }
    return removed, nil
}

// MyReservations lists the caller's reservations, oldest first.
func (h *ReservationHandler) MyReservations(c echo.Context) error {
    rows, err := h.Engine.ListByUser(c.Request().Context(), middleware.UserID(c))
    if err != nil {
        return h.engineFailure(c, "list by user", err)
    }
    if rows == nil {
        rows = []model.Reservation{}
    }
    return c.JSON(http.StatusOK, echo.Map{"reservations": rows})
}

// Table returns the plain-text queue table.
func (h *ReservationHandler) Table(c echo.Context) error {
    tbl, err := h.Engine.Table(c.Request().Context())
    if err != nil {
        return h.engineFailure(c, "table", err)
    }
    return c.String(http.StatusOK, tbl)
}

// Board returns the summary view, rendering it first if it never was.
func (h *ReservationHandler) Board(c echo.Context) error {
    snap := h.Summary.Current()
    if snap.Text == "" {
        var err error
        if snap, err = h.Summary.Refresh(c.Request().Context()); err != nil {
            return h.engineFailure(c, "board", err)
        }
    }
    return c.JSON(http.StatusOK, snap)
}
