// Package catalog holds the static list of reservable zones and maps
// free-text queries typed by members onto canonical zone names.
package catalog

import (
	"errors"
	"strings"
)

// MinScore is the lowest similarity ratio accepted as a match.
const MinScore = 65

// ErrZoneNotFound is returned by Lookup when no zone is similar enough
// to the query.  Handlers should echo the unresolved name back to the
// member.
var ErrZoneNotFound = errors.New("zone not found")

// Catalog is an ordered, immutable list of canonical zone names.  It is
// loaded once at startup and is safe for concurrent use.
type Catalog struct {
	zones []string
}

// New builds a Catalog from zone names, preserving their order.  Blank
// entries are skipped.
func New(zones []string) *Catalog {
	c := &Catalog{zones: make([]string, 0, len(zones))}
	for _, z := range zones {
		if strings.TrimSpace(z) == "" {
			continue
		}
		c.zones = append(c.zones, z)
	}
	return c
}

// Zones returns a copy of the canonical zone names in catalog order.
func (c *Catalog) Zones() []string {
	out := make([]string, len(c.zones))
	copy(out, c.zones)
	return out
}

// Len returns the number of zones in the catalog.
func (c *Catalog) Len() int { return len(c.zones) }

// Resolve returns the zone whose name scores highest against query, or
// false when the best score is below MinScore.  On ties the zone that
// appears first in the catalog wins.
func (c *Catalog) Resolve(query string) (string, bool) {
	best, score := c.bestMatch(query)
	if best == "" || score < MinScore {
		return "", false
	}
	return best, true
}

// Lookup is Resolve with an error instead of a boolean.
func (c *Catalog) Lookup(query string) (string, error) {
	zone, ok := c.Resolve(query)
	if !ok {
		return "", ErrZoneNotFound
	}
	return zone, nil
}

func (c *Catalog) bestMatch(query string) (string, float64) {
	var (
		best  string
		score float64
	)
	for _, z := range c.zones {
		// strictly greater keeps the first zone on ties
		if s := Ratio(query, z); s > score {
			best, score = z, s
		}
	}
	return best, score
}
