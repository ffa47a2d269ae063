package database

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/JonMunkholm/trainfuel/internal/core"
)

// Re-importing an export updates matching workouts in place.
const upsertWorkout = `
INSERT INTO workouts (
    user_id, import_id, workout_day, start_time, workout_type, title,
    description, coach_comments, athlete_comments,
    planned_hours, actual_hours, planned_km, actual_km,
    if_score, tss, power_avg, hr_avg, rpe, feeling,
    has_actual, source
) VALUES (
    $1, $2, $3, $4, $5, $6,
    $7, $8, $9,
    $10, $11, $12, $13,
    $14, $15, $16, $17, $18, $19,
    $20, $21
)
ON CONFLICT (user_id, workout_day, title, workout_type) DO UPDATE SET
    import_id        = EXCLUDED.import_id,
    start_time       = EXCLUDED.start_time,
    description      = EXCLUDED.description,
    coach_comments   = EXCLUDED.coach_comments,
    athlete_comments = EXCLUDED.athlete_comments,
    planned_hours    = EXCLUDED.planned_hours,
    actual_hours     = EXCLUDED.actual_hours,
    planned_km       = EXCLUDED.planned_km,
    actual_km        = EXCLUDED.actual_km,
    if_score         = EXCLUDED.if_score,
    tss              = EXCLUDED.tss,
    power_avg        = EXCLUDED.power_avg,
    hr_avg           = EXCLUDED.hr_avg,
    rpe              = EXCLUDED.rpe,
    feeling          = EXCLUDED.feeling,
    has_actual       = EXCLUDED.has_actual,
    source           = EXCLUDED.source,
    updated_at       = now()`

const listWorkouts = `
SELECT workout_day, start_time, workout_type, title,
       description, coach_comments, athlete_comments,
       planned_hours, actual_hours, planned_km, actual_km,
       if_score, tss, power_avg, hr_avg, rpe, feeling,
       has_actual, source
FROM workouts
WHERE user_id = $1 AND workout_day BETWEEN $2 AND $3
ORDER BY workout_day, start_time NULLS LAST, id`

// InsertWorkouts upserts records in batches inside one transaction and
// returns the number of rows written.
func (s *Store) InsertWorkouts(ctx context.Context, userID string, importID uuid.UUID, records []core.WorkoutRecord) (int64, error) {
	var written int64

	err := pgx.BeginFunc(ctx, s.db, func(tx pgx.Tx) error {
		for lo := 0; lo < len(records); lo += s.batchSize {
			hi := min(lo+s.batchSize, len(records))
			n, err := upsertChunk(ctx, tx, userID, importID, records[lo:hi])
			if err != nil {
				return fmt.Errorf("rows %d-%d: %w", lo, hi-1, err)
			}
			written += n
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return written, nil
}

func upsertChunk(ctx context.Context, tx pgx.Tx, userID string, importID uuid.UUID, chunk []core.WorkoutRecord) (int64, error) {
	batch := &pgx.Batch{}
	for _, r := range chunk {
		batch.Queue(upsertWorkout,
			userID, importID, toPgDate(r.WorkoutDay), toPgTimePtr(r.StartTime), r.WorkoutType, r.Title,
			r.Description, r.CoachComments, r.AthleteComments,
			toPgFloat8(r.PlannedHours), toPgFloat8(r.ActualHours), toPgFloat8(r.PlannedKm), toPgFloat8(r.ActualKm),
			toPgFloat8(r.IF), toPgFloat8(r.TSS), toPgFloat8(r.PowerAvg), toPgFloat8(r.HRAvg), toPgFloat8(r.RPE), toPgFloat8(r.Feeling),
			r.HasActual, r.Source,
		)
	}

	br := tx.SendBatch(ctx, batch)
	var n int64
	for range chunk {
		tag, err := br.Exec()
		if err != nil {
			br.Close()
			return 0, err
		}
		n += tag.RowsAffected()
	}
	return n, br.Close()
}

// ListWorkouts returns the user's workouts with start <= day <= end.
func (s *Store) ListWorkouts(ctx context.Context, userID string, start, end core.Date) ([]core.WorkoutRecord, error) {
	rows, err := s.db.Query(ctx, listWorkouts, userID, toPgDate(start), toPgDate(end))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []core.WorkoutRecord
	for rows.Next() {
		var (
			r         core.WorkoutRecord
			day       pgtype.Date
			startTime pgtype.Time
			planH     pgtype.Float8
			actH      pgtype.Float8
			planKm    pgtype.Float8
			actKm     pgtype.Float8
			ifScore   pgtype.Float8
			tss       pgtype.Float8
			power     pgtype.Float8
			hr        pgtype.Float8
			rpe       pgtype.Float8
			feeling   pgtype.Float8
		)
		if err := rows.Scan(
			&day, &startTime, &r.WorkoutType, &r.Title,
			&r.Description, &r.CoachComments, &r.AthleteComments,
			&planH, &actH, &planKm, &actKm,
			&ifScore, &tss, &power, &hr, &rpe, &feeling,
			&r.HasActual, &r.Source,
		); err != nil {
			return nil, err
		}
		r.WorkoutDay = fromPgDate(day)
		r.StartTime = fromPgTimePtr(startTime)
		r.PlannedHours, r.ActualHours = fromPgFloat8(planH), fromPgFloat8(actH)
		r.PlannedKm, r.ActualKm = fromPgFloat8(planKm), fromPgFloat8(actKm)
		r.IF, r.TSS = fromPgFloat8(ifScore), fromPgFloat8(tss)
		r.PowerAvg, r.HRAvg = fromPgFloat8(power), fromPgFloat8(hr)
		r.RPE, r.Feeling = fromPgFloat8(rpe), fromPgFloat8(feeling)
		out = append(out, r)
	}
	return out, rows.Err()
}
