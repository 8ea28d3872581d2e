// Package handler implements the command-facing HTTP surface: members
// resolve zones, request and confirm reservations and cancellations, and
// read the queue table; leads cancel on behalf of others and trigger
// purges.
package handler

import (
    "context"
    "errors"
    "net/http"
    "time"

    "github.com/labstack/echo/v4"
    "go.uber.org/zap"

    "github.com/iliyamo/zone-queue/internal/catalog"
    "github.com/iliyamo/zone-queue/internal/confirm"
    "github.com/iliyamo/zone-queue/internal/render"
    "github.com/iliyamo/zone-queue/internal/service"
)

// ReservationHandler bundles the collaborators of the reservation
// endpoints.
type ReservationHandler struct {
    Engine   *service.ReservationEngine
    Catalog  *catalog.Catalog
    Confirms confirm.Store
    Summary  *render.Board
    Log      *zap.Logger

    // ConfirmTimeout bounds how long a member has to accept a request.
    ConfirmTimeout time.Duration
    // Location renders dates in member messages.
    Location *time.Location
    Now      func() time.Time
}

// NewReservationHandler constructs a handler and panics if a required
// dependency is nil.
func NewReservationHandler(engine *service.ReservationEngine, cat *catalog.Catalog, confirms confirm.Store, board *render.Board, log *zap.Logger) *ReservationHandler {
    if engine == nil || cat == nil || confirms == nil || board == nil {
        panic("nil dependency passed to NewReservationHandler")
    }
    if log == nil {
        log = zap.NewNop()
    }
    return &ReservationHandler{
        Engine:         engine,
        Catalog:        cat,
        Confirms:       confirms,
        Summary:        board,
        Log:            log,
        ConfirmTimeout: 10 * time.Second,
        Location:       time.UTC,
        Now:            time.Now,
    }
}

// fail writes an error body with a stable code and a member message.
func fail(c echo.Context, status int, code, message string) error {
    return c.JSON(status, echo.Map{"error": code, "message": message})
}

// engineFailure maps engine errors to responses.  Everything the engine
// returns wraps one of its sentinels.
func (h *ReservationHandler) engineFailure(c echo.Context, op string, err error) error {
    switch {
    case errors.Is(err, service.ErrInvalidCandidate):
        return fail(c, http.StatusBadRequest, "not_reservable", msgNotReservable)
    case errors.Is(err, service.ErrStoreUnavailable):
        h.Log.Error("reservation store unavailable", zap.String("op", op), zap.Error(err))
        return fail(c, http.StatusServiceUnavailable, "unavailable", msgUnavailable)
    default:
        h.Log.Error("unexpected engine error", zap.String("op", op), zap.Error(err))
        return fail(c, http.StatusInternalServerError, "internal", msgUnavailable)
    }
}

// refreshBoard re-renders the summary view after a change.  A failure
// keeps the previous rendering and is only logged.
func (h *ReservationHandler) refreshBoard(ctx context.Context) {
    if _, err := h.Summary.Refresh(context.WithoutCancel(ctx)); err != nil {
        h.Log.Warn("board refresh failed", zap.Error(err))
    }
}

func (h *ReservationHandler) formatDate(t time.Time) string {
    return render.FormatDate(t, h.Location)
}
