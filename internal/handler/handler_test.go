package handler_test

import (
    "context"
    "encoding/json"
    "errors"
    "net/http"
    "net/http/httptest"
    "strings"
    "testing"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/iliyamo/zone-queue/internal/catalog"
    "github.com/iliyamo/zone-queue/internal/confirm"
    "github.com/iliyamo/zone-queue/internal/handler"
    "github.com/iliyamo/zone-queue/internal/lock"
    "github.com/iliyamo/zone-queue/internal/model"
    "github.com/iliyamo/zone-queue/internal/render"
    "github.com/iliyamo/zone-queue/internal/repository"
    "github.com/iliyamo/zone-queue/internal/router"
    "github.com/iliyamo/zone-queue/internal/service"
    "github.com/iliyamo/zone-queue/internal/utils"
)

const secret = "handler-test-secret"

var zones = []string{"Zone A", "Zone B", "Parking Nord"}

type app struct {
    e        *echo.Echo
    store    *repository.MemoryReservationRepo
    confirms *confirm.MemoryStore
}

type brokenStore struct {
    *repository.MemoryReservationRepo
}

func (brokenStore) ListExpired(context.Context, time.Time) ([]model.Reservation, error) {
    return nil, errors.New("connection refused")
}

func newApp(t *testing.T, store repository.ReservationStore) *app {
    t.Helper()
    mem := repository.NewMemoryReservationRepo()
    if store == nil {
        store = mem
    }
    engine := service.NewReservationEngine(store, lock.NewLocal(), service.Options{})
    confirms := confirm.NewMemoryStore(nil)
    h := handler.NewReservationHandler(engine, catalog.New(zones), confirms, render.NewBoard(engine, time.UTC), nil)

    e := echo.New()
    router.RegisterRoutes(e)
    router.RegisterReservations(e, h, router.Options{JWTSecret: secret})
    return &app{e: e, store: mem, confirms: confirms}
}

func token(t *testing.T, id, name, role string) string {
    t.Helper()
    tok, err := utils.NewAccessToken(secret, id, name, role, time.Hour)
    require.NoError(t, err)
    return tok.Token
}

func (a *app) do(t *testing.T, method, path, body, tok string) (*httptest.ResponseRecorder, map[string]any) {
    t.Helper()
    req := httptest.NewRequest(method, path, strings.NewReader(body))
    if body != "" {
        req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
    }
    if tok != "" {
        req.Header.Set(echo.HeaderAuthorization, "Bearer "+tok)
    }
    rec := httptest.NewRecorder()
    a.e.ServeHTTP(rec, req)
    var out map[string]any
    _ = json.Unmarshal(rec.Body.Bytes(), &out)
    return rec, out
}

// reserve runs the two-step reservation and returns the confirmation
// response.
func (a *app) reserve(t *testing.T, tok, zone string) (*httptest.ResponseRecorder, map[string]any) {
    t.Helper()
    rec, out := a.do(t, http.MethodPost, "/v1/reservations", `{"zone":"`+zone+`"}`, tok)
    require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
    return a.do(t, http.MethodPost, "/v1/confirmations/"+out["token"].(string), `{"accept":true}`, tok)
}

func TestHealth(t *testing.T) {
    rec, _ := newApp(t, nil).do(t, http.MethodGet, "/healthz", "", "")
    assert.Equal(t, http.StatusOK, rec.Code)
    assert.Equal(t, "ok", rec.Body.String())
}

func TestZones(t *testing.T) {
    a := newApp(t, nil)
    alice := token(t, "1", "alice", utils.RoleMember)

    rec, out := a.do(t, http.MethodGet, "/v1/zones", "", alice)
    require.Equal(t, http.StatusOK, rec.Code)
    assert.Len(t, out["zones"], 3)

    rec, out = a.do(t, http.MethodGet, "/v1/zones/resolve?q=zone%20a", "", alice)
    require.Equal(t, http.StatusOK, rec.Code)
    assert.Equal(t, "Zone A", out["zone"])

    rec, out = a.do(t, http.MethodGet, "/v1/zones/resolve?q=xyz", "", alice)
    assert.Equal(t, http.StatusNotFound, rec.Code)
    assert.Equal(t, "no_such_zone", out["error"])

    rec, _ = a.do(t, http.MethodGet, "/v1/zones", "", "")
    assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestReserveFlow(t *testing.T) {
    a := newApp(t, nil)
    alice := token(t, "1", "alice", utils.RoleMember)

    rec, out := a.do(t, http.MethodPost, "/v1/reservations", `{"zone":"Zone A"}`, alice)
    require.Equal(t, http.StatusAccepted, rec.Code)
    assert.Equal(t, "Zone A", out["zone"])
    assert.Equal(t, "Réserver pour 'Zone A' ?", out["message"])
    assert.Equal(t, 0, a.store.Count(), "nothing is stored before confirmation")

    rec, out = a.do(t, http.MethodPost, "/v1/confirmations/"+out["token"].(string), `{"accept":true}`, alice)
    require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
    assert.Contains(t, out["message"], "Réservation confirmée pour la zone 'Zone A'")
    assert.Equal(t, 1, a.store.Count())

    rec, out = a.do(t, http.MethodGet, "/v1/me/reservations", "", alice)
    require.Equal(t, http.StatusOK, rec.Code)
    assert.Len(t, out["reservations"], 1)

    rec, _ = a.do(t, http.MethodGet, "/v1/table", "", alice)
    require.Equal(t, http.StatusOK, rec.Code)
    assert.Contains(t, rec.Body.String(), "Zone A")
    assert.Contains(t, rec.Body.String(), "alice")

    rec, out = a.do(t, http.MethodGet, "/v1/board", "", alice)
    require.Equal(t, http.StatusOK, rec.Code)
    assert.Contains(t, out["text"], "Voici la liste des réservations au")
}

func TestReserve_UnknownZone(t *testing.T) {
    a := newApp(t, nil)
    rec, out := a.do(t, http.MethodPost, "/v1/reservations", `{"zone":"Zzzz qqq"}`, token(t, "1", "alice", utils.RoleMember))
    assert.Equal(t, http.StatusNotFound, rec.Code)
    assert.Contains(t, out["message"], "je ne reconnais pas 'Zzzz qqq'")
}

func TestReserve_LimitsReached(t *testing.T) {
    a := newApp(t, nil)
    alice := token(t, "1", "alice", utils.RoleMember)
    for _, z := range zones {
        rec, _ := a.reserve(t, alice, z)
        require.Equal(t, http.StatusCreated, rec.Code)
    }
    rec, out := a.reserve(t, alice, "Zone A")
    assert.Equal(t, http.StatusConflict, rec.Code)
    assert.Equal(t, string(service.ReasonUserLimit), out["reason"])

    for i := 2; i <= 5; i++ {
        member := token(t, string(rune('0'+i)), "m"+string(rune('0'+i)), utils.RoleMember)
        rec, _ := a.reserve(t, member, "Zone B")
        require.Equal(t, http.StatusCreated, rec.Code)
    }
    rec, out = a.reserve(t, token(t, "9", "late", utils.RoleMember), "Zone B")
    assert.Equal(t, http.StatusConflict, rec.Code)
    assert.Equal(t, string(service.ReasonZoneFull), out["reason"])
}

func TestConfirm_DeclineExpiredAndForeign(t *testing.T) {
    a := newApp(t, nil)
    alice := token(t, "1", "alice", utils.RoleMember)
    bob := token(t, "2", "bob", utils.RoleMember)

    _, out := a.do(t, http.MethodPost, "/v1/reservations", `{"zone":"Zone A"}`, alice)
    tok := out["token"].(string)

    rec, _ := a.do(t, http.MethodPost, "/v1/confirmations/"+tok, `{"accept":true}`, bob)
    assert.Equal(t, http.StatusForbidden, rec.Code)

    rec, out = a.do(t, http.MethodPost, "/v1/confirmations/"+tok, `{"accept":false}`, alice)
    require.Equal(t, http.StatusOK, rec.Code, "a foreign attempt must not consume the request")
    assert.Equal(t, "declined", out["status"])
    assert.Equal(t, 0, a.store.Count())

    rec, _ = a.do(t, http.MethodPost, "/v1/confirmations/"+tok, `{"accept":true}`, alice)
    assert.Equal(t, http.StatusGone, rec.Code)
    assert.Equal(t, 0, a.store.Count())
}

func TestCancelFlow(t *testing.T) {
    a := newApp(t, nil)
    alice := token(t, "1", "alice", utils.RoleMember)
    rec, _ := a.reserve(t, alice, "Zone A")
    require.Equal(t, http.StatusCreated, rec.Code)

    rec, out := a.do(t, http.MethodDelete, "/v1/reservations?zone=zone%20a", "", alice)
    require.Equal(t, http.StatusAccepted, rec.Code)
    assert.Equal(t, "Supprimer la réservation de 'Zone A' ?", out["message"])

    rec, out = a.do(t, http.MethodPost, "/v1/confirmations/"+out["token"].(string), `{"accept":true}`, alice)
    require.Equal(t, http.StatusOK, rec.Code)
    assert.Equal(t, "Réservation terminée pour la zone 'Zone A' ! La place est libérée.", out["message"])
    assert.Equal(t, 0, a.store.Count())

    _, out = a.do(t, http.MethodDelete, "/v1/reservations?zone=Zone%20A", "", alice)
    rec, out = a.do(t, http.MethodPost, "/v1/confirmations/"+out["token"].(string), `{"accept":true}`, alice)
    assert.Equal(t, http.StatusNotFound, rec.Code)
    assert.Equal(t, "no_reservation", out["error"])
}

func TestOperatorEndpoints(t *testing.T) {
    a := newApp(t, nil)
    alice := token(t, "1", "alice", utils.RoleMember)
    lead := token(t, "99", "lead", utils.RoleLead)
    rec, _ := a.reserve(t, alice, "Zone B")
    require.Equal(t, http.StatusCreated, rec.Code)

    rec, _ = a.do(t, http.MethodDelete, "/v1/zones/Zone%20B/reservations/1", "", alice)
    assert.Equal(t, http.StatusForbidden, rec.Code)
    rec, _ = a.do(t, http.MethodPost, "/v1/purge", "", alice)
    assert.Equal(t, http.StatusForbidden, rec.Code)

    rec, _ = a.do(t, http.MethodDelete, "/v1/zones/Zone%20B/reservations/1", "", lead)
    require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
    assert.Equal(t, 0, a.store.Count())

    rec, out := a.do(t, http.MethodPost, "/v1/purge", "", lead)
    require.Equal(t, http.StatusOK, rec.Code)
    assert.EqualValues(t, 0, out["expired"])
}

func TestStoreUnavailable(t *testing.T) {
    a := newApp(t, brokenStore{repository.NewMemoryReservationRepo()})
    alice := token(t, "1", "alice", utils.RoleMember)

    rec, out := a.reserve(t, alice, "Zone A")
    assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
    assert.Equal(t, "unavailable", out["error"])

    rec, _ = a.do(t, http.MethodGet, "/v1/table", "", alice)
    assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
