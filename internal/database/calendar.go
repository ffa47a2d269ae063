package database

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/JonMunkholm/trainfuel/internal/core"
)

const itemColumns = `id, user_id, item_type, item_date, start_time, end_time, locked, source_id`

// Intersection with [from, to) uses the same half-open rule as the resolver.
const listUnlockedItems = `
SELECT ` + itemColumns + `
FROM calendar_items
WHERE user_id = $1 AND item_date = $2 AND locked = false
  AND start_time < $4 AND end_time > $3
ORDER BY start_time, id`

const listDayItems = `
SELECT ` + itemColumns + `
FROM calendar_items
WHERE user_id = $1 AND item_date = $2
ORDER BY start_time, end_time, id`

// The locked predicate makes the write lose to any concurrent lock.
const moveItemIfUnlocked = `
UPDATE calendar_items
SET start_time = $3, end_time = $4, updated_at = now()
WHERE user_id = $1 AND id = $2 AND locked = false`

const insertItem = `
INSERT INTO calendar_items (user_id, item_type, item_date, start_time, end_time, locked, source_id)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id`

// ListUnlockedItems returns unlocked items on date intersecting [from, to).
// Bounds outside the day are clamped so the comparison stays within TIME.
func (s *Store) ListUnlockedItems(ctx context.Context, userID string, date core.Date, from, to core.Clock) ([]core.CalendarItem, error) {
	from = max(from, core.Midnight)
	to = min(to, core.MinutesPerDay)
	return s.queryItems(ctx, listUnlockedItems, userID, toPgDate(date), toPgTime(from), toPgTime(to))
}

// ListDayItems returns every item on date.
func (s *Store) ListDayItems(ctx context.Context, userID string, date core.Date) ([]core.CalendarItem, error) {
	return s.queryItems(ctx, listDayItems, userID, toPgDate(date))
}

// MoveItemIfUnlocked reports whether the item was still unlocked and moved.
func (s *Store) MoveItemIfUnlocked(ctx context.Context, userID, itemID string, start, end core.Clock) (bool, error) {
	tag, err := s.db.Exec(ctx, moveItemIfUnlocked, userID, itemID, toPgTime(start), toPgTime(end))
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// InsertItem stores a calendar item and returns its generated id.
func (s *Store) InsertItem(ctx context.Context, item core.CalendarItem) (string, error) {
	var id string
	err := s.db.QueryRow(ctx, insertItem,
		item.UserID, string(item.Type), toPgDate(item.Date),
		toPgTime(item.Start), toPgTime(item.End), item.Locked, toPgText(item.SourceID),
	).Scan(&id)
	return id, err
}

func (s *Store) queryItems(ctx context.Context, query string, args ...any) ([]core.CalendarItem, error) {
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, scanItem)
}

func scanItem(row pgx.CollectableRow) (core.CalendarItem, error) {
	var (
		it         core.CalendarItem
		itemType   string
		day        pgtype.Date
		start, end pgtype.Time
		sourceID   pgtype.Text
	)
	if err := row.Scan(&it.ID, &it.UserID, &itemType, &day, &start, &end, &it.Locked, &sourceID); err != nil {
		return it, err
	}
	it.Type = core.ItemType(itemType)
	it.Date = fromPgDate(day)
	it.Start, it.End = fromPgTime(start), fromPgTime(end)
	it.SourceID = fromPgText(sourceID)
	return it, nil
}
