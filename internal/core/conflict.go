package core

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/JonMunkholm/trainfuel/internal/logging"
)

// Resolver defaults.
const (
	DefaultWindowMinutes = 120
	DefaultBufferMinutes = 30
	DefaultDayStart      = Clock(5 * 60)
	DefaultDayEnd        = MinutesPerDay
)

// ResolverOptions bounds the conflict search and relocation.
type ResolverOptions struct {
	// WindowMinutes widens the moved item on both sides when selecting
	// candidates.
	WindowMinutes int
	// BufferMinutes is the gap kept between the moved item and a relocated one.
	BufferMinutes int
	// DayStart and DayEnd bound every relocated item.
	DayStart Clock
	DayEnd   Clock
}

// DefaultResolverOptions returns the standard look-around window, buffer and
// 05:00-24:00 day.
func DefaultResolverOptions() ResolverOptions {
	return ResolverOptions{
		WindowMinutes: DefaultWindowMinutes,
		BufferMinutes: DefaultBufferMinutes,
		DayStart:      DefaultDayStart,
		DayEnd:        DefaultDayEnd,
	}
}

func (o ResolverOptions) withDefaults() ResolverOptions {
	d := DefaultResolverOptions()
	if o.WindowMinutes <= 0 {
		o.WindowMinutes = d.WindowMinutes
	}
	if o.BufferMinutes <= 0 {
		o.BufferMinutes = d.BufferMinutes
	}
	if o.DayEnd <= o.DayStart || !o.DayStart.Valid() || !o.DayEnd.Valid() {
		o.DayStart, o.DayEnd = d.DayStart, d.DayEnd
	}
	return o
}

// placement is the moved item's resolved interval.
type placement struct {
	start, end Clock
}

// relocation proposes a new start for item given the moved placement, or
// reports that it does not fit.
type relocation func(item CalendarItem, moved placement, opts ResolverOptions) (Clock, bool)

// relocations are tried in order; the first that fits wins.
var relocations = []relocation{
	afterMoved,
	beforeMoved,
}

// afterMoved starts the item one buffer after the moved item ends.
func afterMoved(item CalendarItem, moved placement, opts ResolverOptions) (Clock, bool) {
	start := moved.end.Add(opts.BufferMinutes)
	return start, fitsDay(start, item.Duration(), opts)
}

// beforeMoved ends the item one buffer before the moved item starts.
func beforeMoved(item CalendarItem, moved placement, opts ResolverOptions) (Clock, bool) {
	start := moved.start.Add(-opts.BufferMinutes - item.Duration())
	return start, fitsDay(start, item.Duration(), opts)
}

func fitsDay(start Clock, duration int, opts ResolverOptions) bool {
	return start >= opts.DayStart && start.Add(duration) <= opts.DayEnd
}

// ResolveResult reports what a resolution pass did. Candidates minus
// len(Adjustments) is the number of items left in place.
type ResolveResult struct {
	Adjustments []ScheduleAdjustment `json:"adjustments"`
	Candidates  int                  `json:"candidates"`
	NoFit       int                  `json:"no_fit"`
	Refused     int                  `json:"refused"`
	Failed      int                  `json:"failed"`
}

// Resolver relocates unlocked calendar items that collide with a newly
// placed item.
type Resolver struct {
	store CalendarStore
	opts  ResolverOptions
}

// NewResolver creates a Resolver. Zero option fields take defaults.
func NewResolver(store CalendarStore, opts ResolverOptions) *Resolver {
	return &Resolver{store: store, opts: opts.withDefaults()}
}

// Resolve relocates the user's unlocked items near the moved item.
//
// Every unlocked item on the moved item's date that intersects the moved
// interval widened by the window is a candidate. Each candidate is
// placed after the moved item if that fits the day, otherwise before it,
// otherwise left alone. Writes are conditional on the item still being
// unlocked; a refused or failed write is logged and skipped, and the
// remaining candidates are still processed.
//
// An error is returned only when candidates cannot be loaded.
func (r *Resolver) Resolve(ctx context.Context, userID string, moved MovedItem) (*ResolveResult, error) {
	log := logging.WithFields(ctx, "user_id", userID, "date", moved.Date.String())

	durMin := int(math.Round(moved.DurationHours * 60))
	if durMin < 0 {
		durMin = 0
	}
	p := placement{start: moved.Start, end: moved.Start.Add(durMin)}

	from := p.start.Add(-r.opts.WindowMinutes)
	to := p.end.Add(r.opts.WindowMinutes)

	items, err := r.store.ListUnlockedItems(ctx, userID, moved.Date, from, to)
	if err != nil {
		return nil, fmt.Errorf("list calendar items: %w", err)
	}

	candidates := selectCandidates(items, moved, from, to)
	result := &ResolveResult{
		Adjustments: []ScheduleAdjustment{},
		Candidates:  len(candidates),
	}

	for _, item := range candidates {
		start, ok := r.propose(item, p)
		if !ok {
			result.NoFit++
			continue
		}
		if start == item.Start {
			continue
		}
		end := start.Add(item.Duration())

		applied, err := r.store.MoveItemIfUnlocked(ctx, userID, item.ID, start, end)
		if err != nil {
			result.Failed++
			log.Warn("calendar item relocation failed", "item_id", item.ID, "error", err)
			continue
		}
		if !applied {
			result.Refused++
			log.Info("calendar item locked before relocation", "item_id", item.ID)
			continue
		}

		result.Adjustments = append(result.Adjustments, ScheduleAdjustment{
			ItemID:   item.ID,
			OldStart: item.Start,
			OldEnd:   item.End,
			NewStart: start,
			NewEnd:   end,
		})
	}

	log.Debug("schedule resolved",
		"candidates", result.Candidates,
		"applied", len(result.Adjustments),
		"refused", result.Refused,
		"failed", result.Failed,
	)
	return result, nil
}

func (r *Resolver) propose(item CalendarItem, moved placement) (Clock, bool) {
	for _, reloc := range relocations {
		if start, ok := reloc(item, moved, r.opts); ok {
			return start, true
		}
	}
	return 0, false
}

// selectCandidates re-applies the candidate predicate in memory and orders
// the result by start time.
func selectCandidates(items []CalendarItem, moved MovedItem, from, to Clock) []CalendarItem {
	out := make([]CalendarItem, 0, len(items))
	for _, it := range items {
		if it.Locked || it.Date != moved.Date {
			continue
		}
		if moved.ExcludeID != "" && it.ID == moved.ExcludeID {
			continue
		}
		if it.End <= it.Start || !overlaps(it.Start, it.End, from, to) {
			continue
		}
		out = append(out, it)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Start != out[j].Start {
			return out[i].Start < out[j].Start
		}
		return out[i].ID < out[j].ID
	})
	return out
}
