package notify

import (
	"fmt"
	"time"

	"github.com/iliyamo/zone-queue/internal/model"
	"github.com/iliyamo/zone-queue/internal/render"
)

// ExpiredMessage tells a member their reservation lapsed.
func ExpiredMessage(r model.Reservation) string {
	return fmt.Sprintf("Ta réservation pour la zone '%s' a expiré. La place est libérée.", r.Zone)
}

// NextTurnMessage tells a member they now hold the zone.
func NextTurnMessage(r model.Reservation, loc *time.Location) string {
	return fmt.Sprintf("C'est ton tour ! Tu as le droit de pose sur la zone '%s' jusqu'au %s.",
		r.Zone, render.FormatDate(r.ExpiresAt, loc))
}
