// Package core provides the business logic for training import, nutrition
// targets and calendar reconciliation. This package has no transport
// dependencies and can be used by any frontend.
package core

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// DefaultSource tags records whose file carries no source column.
const DefaultSource = "trainingpeaks_export"

// DefaultWorkoutType is used when a row has no workout type.
const DefaultWorkoutType = "Training"

// WorkoutRecord is the canonical form of one exported workout row.
// Nil pointers mean the value was absent or unparseable.
type WorkoutRecord struct {
	WorkoutDay      Date     `json:"workout_day"`
	StartTime       *Clock   `json:"start_time,omitempty"`
	WorkoutType     string   `json:"workout_type"`
	Title           string   `json:"title"`
	Description     string   `json:"description,omitempty"`
	CoachComments   string   `json:"coach_comments,omitempty"`
	AthleteComments string   `json:"athlete_comments,omitempty"`
	PlannedHours    *float64 `json:"planned_hours"`
	ActualHours     *float64 `json:"actual_hours"`
	PlannedKm       *float64 `json:"planned_km"`
	ActualKm        *float64 `json:"actual_km"`
	IF              *float64 `json:"if"`
	TSS             *float64 `json:"tss"`
	PowerAvg        *float64 `json:"power_avg"`
	HRAvg           *float64 `json:"hr_avg"`
	RPE             *float64 `json:"rpe"`
	Feeling         *float64 `json:"feeling"`
	HasActual       bool     `json:"has_actual"`
	Source          string   `json:"source"`
}

// LoadHours returns planned hours, falling back to actual hours.
func (r WorkoutRecord) LoadHours() float64 {
	if r.PlannedHours != nil {
		return *r.PlannedHours
	}
	if r.ActualHours != nil {
		return *r.ActualHours
	}
	return 0
}

// ParseError describes a rejected data row. Row is 1-based and counts the
// header row, so the first data row is row 2.
type ParseError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

// ImportStats summarizes a parsed file.
type ImportStats struct {
	TotalRows   int `json:"totalRows"`
	ValidRows   int `json:"validRows"`
	InvalidRows int `json:"invalidRows"`
}

// ImportResult is the output of the record builder. The service fills the
// persistence fields when the rows are stored.
type ImportResult struct {
	ImportID string          `json:"import_id,omitempty"`
	FileName string          `json:"file_name,omitempty"`
	Inserted int64           `json:"inserted,omitempty"`
	Rows     []WorkoutRecord `json:"rows"`
	Preview  []WorkoutRecord `json:"preview"`
	Errors   []ParseError    `json:"errors"`
	Stats    ImportStats     `json:"stats"`
}

// DayType classifies a day's aggregated training load.
type DayType string

const (
	DayRest     DayType = "rest"
	DayEasy     DayType = "easy"
	DayTraining DayType = "training"
)

// NutritionTarget holds the macro targets for a single day.
type NutritionTarget struct {
	Date          Date    `json:"date"`
	DayType       DayType `json:"day_type"`
	Kcal          int     `json:"kcal"`
	ProteinG      int     `json:"protein_g"`
	CarbsG        int     `json:"carbs_g"`
	FatG          int     `json:"fat_g"`
	IntraCHOGPerH int     `json:"intra_cho_g_per_h"`
}

// NutritionPlan is a stored run of the deriver over a date range.
type NutritionPlan struct {
	ID             uuid.UUID         `json:"id"`
	UserID         string            `json:"user_id"`
	WeightKg       float64           `json:"weight_kg"`
	StartDate      Date              `json:"start_date"`
	EndDate        Date              `json:"end_date"`
	SourceFileName string            `json:"source_filename,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
	RowCount       int               `json:"row_count"`
	Rows           []NutritionTarget `json:"rows,omitempty"`
}

// ItemType distinguishes calendar entries.
type ItemType string

const (
	ItemMeal    ItemType = "meal"
	ItemWorkout ItemType = "workout"
)

// CalendarItem is a meal or workout placed on a user's calendar.
// End is always after Start.
type CalendarItem struct {
	ID       string   `json:"id"`
	UserID   string   `json:"user_id,omitempty"`
	Type     ItemType `json:"type"`
	Date     Date     `json:"date"`
	Start    Clock    `json:"start"`
	End      Clock    `json:"end"`
	Locked   bool     `json:"locked"`
	SourceID string   `json:"source_id,omitempty"`
}

// Duration returns the item length in minutes.
func (c CalendarItem) Duration() int {
	return int(c.End - c.Start)
}

// ScheduleAdjustment records one applied relocation.
type ScheduleAdjustment struct {
	ItemID   string `json:"item_id"`
	OldStart Clock  `json:"old_start"`
	OldEnd   Clock  `json:"old_end"`
	NewStart Clock  `json:"new_start"`
	NewEnd   Clock  `json:"new_end"`
}

// MovedItem describes the item whose placement triggers conflict resolution.
type MovedItem struct {
	Date          Date    `json:"date"`
	Start         Clock   `json:"start"`
	DurationHours float64 `json:"duration_hours"`
	ExcludeID     string  `json:"exclude_id,omitempty"`
}

// PositionedItem is a calendar item with its rendering geometry.
type PositionedItem struct {
	Item     CalendarItem `json:"item"`
	Column   int          `json:"column"`
	Columns  int          `json:"columns"`
	TopPx    float64      `json:"top_px"`
	HeightPx float64      `json:"height_px"`
}

// WorkoutStore persists and reads imported workouts.
type WorkoutStore interface {
	InsertWorkouts(ctx context.Context, userID string, importID uuid.UUID, records []WorkoutRecord) (int64, error)
	ListWorkouts(ctx context.Context, userID string, start, end Date) ([]WorkoutRecord, error)
}

// ProfileStore reads profile data needed by the deriver.
type ProfileStore interface {
	GetWeightKg(ctx context.Context, userID string) (float64, error)
}

// NutritionStore persists derived plans.
type NutritionStore interface {
	CreatePlan(ctx context.Context, plan NutritionPlan) error
	ListPlans(ctx context.Context, userID string, limit, offset int) ([]NutritionPlan, error)
	GetPlan(ctx context.Context, userID string, planID uuid.UUID) (*NutritionPlan, error)
}

// CalendarStore reads and conditionally updates calendar items.
type CalendarStore interface {
	// ListUnlockedItems returns the user's unlocked items on date that
	// intersect [from, to).
	ListUnlockedItems(ctx context.Context, userID string, date Date, from, to Clock) ([]CalendarItem, error)
	// ListDayItems returns every item on date, locked or not.
	ListDayItems(ctx context.Context, userID string, date Date) ([]CalendarItem, error)
	// MoveItemIfUnlocked updates the item's times only while it is still
	// unlocked. It reports whether a row was changed.
	MoveItemIfUnlocked(ctx context.Context, userID, itemID string, start, end Clock) (bool, error)
}

// Store is the full persistence collaborator used by Service.
type Store interface {
	WorkoutStore
	ProfileStore
	NutritionStore
	CalendarStore
}

// EventPublisher emits domain events to downstream consumers.
type EventPublisher interface {
	Publish(ctx context.Context, eventType, key string, payload any) error
}
