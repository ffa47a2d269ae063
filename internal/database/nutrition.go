package database

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/JonMunkholm/trainfuel/internal/core"
)

const insertPlan = `
INSERT INTO nutrition_plans (id, user_id, weight_kg, start_date, end_date, source_filename, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`

const listPlans = `
SELECT p.id, p.user_id, p.weight_kg, p.start_date, p.end_date, p.source_filename, p.created_at,
       (SELECT count(*) FROM nutrition_plan_rows r WHERE r.plan_id = p.id) AS row_count
FROM nutrition_plans p
WHERE p.user_id = $1
ORDER BY p.created_at DESC, p.id
LIMIT $2 OFFSET $3`

const getPlan = `
SELECT id, user_id, weight_kg, start_date, end_date, source_filename, created_at
FROM nutrition_plans
WHERE id = $1 AND user_id = $2`

const listPlanRows = `
SELECT date, day_type, kcal, protein_g, carbs_g, fat_g, intra_cho_g_per_h
FROM nutrition_plan_rows
WHERE plan_id = $1
ORDER BY date`

var planRowColumns = []string{
	"plan_id", "date", "day_type", "kcal", "protein_g", "carbs_g", "fat_g", "intra_cho_g_per_h",
}

// CreatePlan stores a plan header and its rows atomically.
func (s *Store) CreatePlan(ctx context.Context, plan core.NutritionPlan) error {
	return pgx.BeginFunc(ctx, s.db, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, insertPlan,
			plan.ID, plan.UserID, plan.WeightKg,
			toPgDate(plan.StartDate), toPgDate(plan.EndDate),
			toPgText(plan.SourceFileName), plan.CreatedAt,
		); err != nil {
			return err
		}

		rows := make([][]any, len(plan.Rows))
		for i, r := range plan.Rows {
			rows[i] = []any{
				plan.ID, toPgDate(r.Date), string(r.DayType),
				r.Kcal, r.ProteinG, r.CarbsG, r.FatG, r.IntraCHOGPerH,
			}
		}
		_, err := tx.CopyFrom(ctx, pgx.Identifier{"nutrition_plan_rows"}, planRowColumns, pgx.CopyFromRows(rows))
		return err
	})
}

// ListPlans returns plan headers, newest first, with row counts.
func (s *Store) ListPlans(ctx context.Context, userID string, limit, offset int) ([]core.NutritionPlan, error) {
	rows, err := s.db.Query(ctx, listPlans, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []core.NutritionPlan{}
	for rows.Next() {
		var (
			p        core.NutritionPlan
			rowCount int64
		)
		if err := scanPlan(rows, &p, &rowCount); err != nil {
			return nil, err
		}
		p.RowCount = int(rowCount)
		out = append(out, p)
	}
	return out, rows.Err()
}

// GetPlan returns a plan with its rows, or core.ErrPlanNotFound.
func (s *Store) GetPlan(ctx context.Context, userID string, planID uuid.UUID) (*core.NutritionPlan, error) {
	var p core.NutritionPlan
	if err := scanPlan(s.db.QueryRow(ctx, getPlan, planID, userID), &p); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, core.ErrPlanNotFound
		}
		return nil, err
	}

	rows, err := s.db.Query(ctx, listPlanRows, planID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	p.Rows = []core.NutritionTarget{}
	for rows.Next() {
		var (
			t       core.NutritionTarget
			day     pgtype.Date
			dayType string
		)
		if err := rows.Scan(&day, &dayType, &t.Kcal, &t.ProteinG, &t.CarbsG, &t.FatG, &t.IntraCHOGPerH); err != nil {
			return nil, err
		}
		t.Date = fromPgDate(day)
		t.DayType = core.DayType(dayType)
		p.Rows = append(p.Rows, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	p.RowCount = len(p.Rows)
	return &p, nil
}

// scanPlan reads the common plan header columns followed by extra.
func scanPlan(row pgx.Row, p *core.NutritionPlan, extra ...any) error {
	var (
		start, end pgtype.Date
		source     pgtype.Text
		createdAt  time.Time
	)
	dest := append([]any{&p.ID, &p.UserID, &p.WeightKg, &start, &end, &source, &createdAt}, extra...)
	if err := row.Scan(dest...); err != nil {
		return err
	}
	p.StartDate, p.EndDate = fromPgDate(start), fromPgDate(end)
	p.SourceFileName = fromPgText(source)
	p.CreatedAt = createdAt.UTC()
	return nil
}
