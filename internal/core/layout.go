package core

import "sort"

// Layout defaults.
const (
	DefaultVisibleStartHour = 5
	DefaultVisibleEndHour   = 24
	DefaultPixelsPerHour    = 60.0
	DefaultMinHeightPx      = 15.0
)

// LayoutOptions describes the visible day grid.
type LayoutOptions struct {
	VisibleStartHour int     `json:"start_hour"`
	VisibleEndHour   int     `json:"end_hour"`
	PixelsPerHour    float64 `json:"px_per_hour"`
	MinHeightPx      float64 `json:"min_height_px"`
}

// DefaultLayoutOptions returns a 05:00-24:00 grid at 60px per hour.
func DefaultLayoutOptions() LayoutOptions {
	return LayoutOptions{
		VisibleStartHour: DefaultVisibleStartHour,
		VisibleEndHour:   DefaultVisibleEndHour,
		PixelsPerHour:    DefaultPixelsPerHour,
		MinHeightPx:      DefaultMinHeightPx,
	}
}

func (o LayoutOptions) withDefaults() LayoutOptions {
	d := DefaultLayoutOptions()
	if o.VisibleStartHour < 0 || o.VisibleEndHour > 24 || o.VisibleEndHour <= o.VisibleStartHour {
		o.VisibleStartHour, o.VisibleEndHour = d.VisibleStartHour, d.VisibleEndHour
	}
	if o.PixelsPerHour <= 0 {
		o.PixelsPerHour = d.PixelsPerHour
	}
	if o.MinHeightPx <= 0 {
		o.MinHeightPx = d.MinHeightPx
	}
	return o
}

// Layout assigns side-by-side columns and vertical geometry to one day's
// items.
//
// Items are visited in start order and each joins the first group that
// holds any item it overlaps, or starts a new group. Members of a group get
// columns 0..k-1 in start order and all report k columns. This is a greedy
// approximation: a chain where A overlaps B and B overlaps C uses three
// columns even though A and C could share one.
//
// Vertical position is the item's time range clamped to the visible window.
// Items outside the window are kept, pinned to its nearest edge at the
// minimum height.
func Layout(items []CalendarItem, opts LayoutOptions) []PositionedItem {
	opts = opts.withDefaults()

	sorted := make([]CalendarItem, len(items))
	copy(sorted, items)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.Start != b.Start {
			return a.Start < b.Start
		}
		if a.End != b.End {
			return a.End < b.End
		}
		return a.ID < b.ID
	})

	var groups [][]CalendarItem
	for _, it := range sorted {
		placed := false
		for g := range groups {
			if overlapsAny(it, groups[g]) {
				groups[g] = append(groups[g], it)
				placed = true
				break
			}
		}
		if !placed {
			groups = append(groups, []CalendarItem{it})
		}
	}

	out := make([]PositionedItem, 0, len(items))
	for _, group := range groups {
		for col, it := range group {
			top, height := verticalGeometry(it, opts)
			out = append(out, PositionedItem{
				Item:     it,
				Column:   col,
				Columns:  len(group),
				TopPx:    top,
				HeightPx: height,
			})
		}
	}
	return out
}

func overlapsAny(it CalendarItem, group []CalendarItem) bool {
	for _, other := range group {
		if overlaps(it.Start, it.End, other.Start, other.End) {
			return true
		}
	}
	return false
}

// verticalGeometry maps an item's clamped time range to pixels.
func verticalGeometry(it CalendarItem, opts LayoutOptions) (top, height float64) {
	winStart := ClockOf(opts.VisibleStartHour, 0)
	winEnd := ClockOf(opts.VisibleEndHour, 0)

	start := min(max(it.Start, winStart), winEnd)
	end := min(max(it.End, winStart), winEnd)

	pxPerMin := opts.PixelsPerHour / 60
	top = float64(start-winStart) * pxPerMin
	height = max(float64(end-start)*pxPerMin, opts.MinHeightPx)

	// Keep a floored item pinned at the bottom edge inside the grid.
	if gridHeight := float64(winEnd-winStart) * pxPerMin; top+height > gridHeight {
		top = max(gridHeight-height, 0)
	}
	return top, height
}
