package render

import (
	"context"
	"fmt"
	"sync"
	"time"
)

var frenchMonths = [...]string{
	"janv.", "févr.", "mars", "avr.", "mai", "juin",
	"juil.", "août", "sept.", "oct.", "nov.", "déc.",
}

// FormatDate formats t as "02 janv. - 15:04" in loc.  A nil loc keeps
// t's own location.
func FormatDate(t time.Time, loc *time.Location) string {
	if loc != nil {
		t = t.In(loc)
	}
	return fmt.Sprintf("%02d %s - %02d:%02d", t.Day(), frenchMonths[t.Month()-1], t.Hour(), t.Minute())
}

// Summary is the body of the channel's summary message: a dated header
// followed by the queue table in a code block.
func Summary(now time.Time, loc *time.Location, table string) string {
	return fmt.Sprintf("Voici la liste des réservations au %s:\n```\n%s\n```", FormatDate(now, loc), table)
}

// TableSource produces the current queue table.
type TableSource interface {
	Table(ctx context.Context) (string, error)
}

// Snapshot is one rendering of the summary view.
type Snapshot struct {
	Text      string    `json:"text"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Board is the handle on the current summary view.  The command layer
// owns one Board and refreshes it after each change; readers get the
// last successful rendering.  It is safe for concurrent use.
type Board struct {
	src TableSource
	loc *time.Location
	now func() time.Time

	mu   sync.RWMutex
	snap Snapshot
}

// NewBoard returns a Board rendering tables from src with dates in loc.
func NewBoard(src TableSource, loc *time.Location) *Board {
	return &Board{src: src, loc: loc, now: time.Now}
}

// Refresh re-renders the summary.  On error the previous snapshot is
// kept and the error returned.
func (b *Board) Refresh(ctx context.Context) (Snapshot, error) {
	tbl, err := b.src.Table(ctx)
	if err != nil {
		return b.Current(), err
	}
	now := b.now()
	snap := Snapshot{Text: Summary(now, b.loc, tbl), UpdatedAt: now.UTC()}
	b.mu.Lock()
	b.snap = snap
	b.mu.Unlock()
	return snap, nil
}

// Current returns the last rendered snapshot.  Its Text is empty until
// the first successful Refresh.
func (b *Board) Current() Snapshot {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.snap
}
