package render

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/zone-queue/internal/model"
)

func reservation(zone, name string, minute int) model.Reservation {
	created := time.Date(2026, 3, 1, 12, minute, 0, 0, time.UTC)
	return model.Reservation{Zone: zone, UserName: name, UserID: name, CreatedAt: created, ExpiresAt: created.Add(24 * time.Hour)}
}

func TestRows_GroupsAndPads(t *testing.T) {
	rows := Rows([]model.Reservation{
		reservation("Zone B", "alice", 0),
		reservation("Zone A", "bob", 1),
		reservation("Zone B", "carol", 2),
	})
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"Zone B", "alice", "carol", EmptySlot, EmptySlot, EmptySlot}, rows[0])
	assert.Equal(t, []string{"Zone A", "bob", EmptySlot, EmptySlot, EmptySlot, EmptySlot}, rows[1])
}

func TestRows_FullQueue(t *testing.T) {
	var in []model.Reservation
	for i, n := range []string{"a", "b", "c", "d", "e"} {
		in = append(in, reservation("Zone A", n, i))
	}
	rows := Rows(in)
	require.Len(t, rows, 1)
	assert.Equal(t, []string{"Zone A", "a", "b", "c", "d", "e"}, rows[0])
}

func TestRows_Empty(t *testing.T) {
	assert.Empty(t, Rows(nil))
}

func TestTable_ContainsHeadersAndMembers(t *testing.T) {
	out := Table([]model.Reservation{
		reservation("Zone A", "alice", 0),
		reservation("Zone A", "bob", 1),
	})
	for _, h := range Headers {
		assert.Contains(t, out, h)
	}
	assert.Contains(t, out, "alice")
	assert.Contains(t, out, "bob")
	assert.Contains(t, out, EmptySlot)
	assert.Less(t, strings.Index(out, "alice"), strings.Index(out, "bob"))
}

func TestTable_OmitsEmptyZones(t *testing.T) {
	out := Table([]model.Reservation{reservation("Zone A", "alice", 0)})
	assert.NotContains(t, out, "Zone B")
}

func TestFormatDate(t *testing.T) {
	ts := time.Date(2026, 8, 5, 9, 7, 0, 0, time.UTC)
	assert.Equal(t, "05 août - 09:07", FormatDate(ts, nil))

	paris, err := time.LoadLocation("Europe/Paris")
	if err == nil {
		assert.Equal(t, "05 août - 11:07", FormatDate(ts, paris))
	}
}

func TestSummary(t *testing.T) {
	ts := time.Date(2026, 1, 15, 20, 30, 0, 0, time.UTC)
	got := Summary(ts, nil, "TABLE")
	assert.Equal(t, "Voici la liste des réservations au 15 janv. - 20:30:\n```\nTABLE\n```", got)
}

type stubSource struct {
	table string
	err   error
}

func (s *stubSource) Table(context.Context) (string, error) { return s.table, s.err }

func TestBoard_RefreshKeepsLastGoodSnapshot(t *testing.T) {
	src := &stubSource{table: "first"}
	b := NewBoard(src, nil)
	b.now = func() time.Time { return time.Date(2026, 1, 15, 20, 30, 0, 0, time.UTC) }

	assert.Empty(t, b.Current().Text)

	snap, err := b.Refresh(context.Background())
	require.NoError(t, err)
	assert.Contains(t, snap.Text, "first")
	assert.Equal(t, snap, b.Current())

	src.table, src.err = "second", errors.New("store down")
	_, err = b.Refresh(context.Background())
	require.Error(t, err)
	assert.Contains(t, b.Current().Text, "first")
}
