// Package render turns reservation queues into the text shown to
// members: the per-zone table and the dated summary message that sits on
// top of the reservation channel.
package render

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/iliyamo/zone-queue/internal/model"
)

// EmptySlot pads waiting positions nobody holds.
const EmptySlot = "---"

// Headers are the column titles of the queue table.
var Headers = []string{"Zone", "Droit de pose", "En attente n°1", "En attente n°2", "En attente n°3", "En attente n°4"}

// Rows groups reservations by zone.  The input must be ordered by
// created_at ascending; zones appear in the order of their first
// reservation and zones without reservations are not listed.  Each row
// is the zone name, the active holder, then the waiting members padded
// with EmptySlot.
func Rows(reservations []model.Reservation) [][]string {
	index := make(map[string]int)
	var rows [][]string
	for _, r := range reservations {
		i, ok := index[r.Zone]
		if !ok {
			i = len(rows)
			index[r.Zone] = i
			rows = append(rows, []string{r.Zone})
		}
		// a queue never exceeds its capacity; ignore anything beyond it
		if len(rows[i]) < 1+model.MaxPerZone {
			rows[i] = append(rows[i], r.UserName)
		}
	}
	for i := range rows {
		for len(rows[i]) < len(Headers) {
			rows[i] = append(rows[i], EmptySlot)
		}
	}
	return rows
}

// Table renders the queues as a bordered text table.
func Table(reservations []model.Reservation) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(Headers...).
		Rows(Rows(reservations)...)
	return t.String()
}
