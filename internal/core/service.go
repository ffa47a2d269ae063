package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/trainfuel/internal/events"
	"github.com/JonMunkholm/trainfuel/internal/logging"
	"github.com/JonMunkholm/trainfuel/internal/observability"
)

var (
	// ErrPlanNotFound is returned by stores when a plan does not exist for
	// the user.
	ErrPlanNotFound = errors.New("nutrition plan not found")
	// ErrWeightUnknown is returned when no weight was supplied and the
	// profile has none.
	ErrWeightUnknown = errors.New("no weight on file")
	// ErrInvalidRange is returned for an empty or oversized date range.
	ErrInvalidRange = errors.New("invalid date range")
	// ErrInvalidPlacement is returned when a moved item has an unusable time.
	ErrInvalidPlacement = errors.New("invalid moved item placement")
)

// Plan listing bounds.
const (
	DefaultPlanListLimit = 20
	MaxPlanListLimit     = 100
)

// DefaultMaxPlanDays caps the length of a derived plan.
const DefaultMaxPlanDays = 366

// DefaultMaxFileSize is the import size limit when none is configured.
const DefaultMaxFileSize = 20 << 20

// Options configures a Service. Zero fields take defaults.
type Options struct {
	MaxFileSize          int64
	MaxConcurrentImports int
	ImportWait           time.Duration
	Build                BuildOptions
	Resolver             ResolverOptions
	Layout               LayoutOptions
	MaxWeightKg          float64
	MaxPlanDays          int
}

// Service provides the business logic behind the HTTP API.
type Service struct {
	store    Store
	events   EventPublisher
	limiter  *ImportLimiter
	resolver *Resolver
	opts     Options
	now      func() time.Time
}

// NewService creates a Service. A nil publisher disables events.
func NewService(store Store, publisher EventPublisher, opts Options) *Service {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	if opts.MaxFileSize <= 0 {
		opts.MaxFileSize = DefaultMaxFileSize
	}
	if opts.MaxPlanDays <= 0 {
		opts.MaxPlanDays = DefaultMaxPlanDays
	}
	if opts.MaxWeightKg <= 0 {
		opts.MaxWeightKg = MaxWeightKg
	}
	opts.Layout = opts.Layout.withDefaults()

	return &Service{
		store:    store,
		events:   publisher,
		limiter:  NewImportLimiter(opts.MaxConcurrentImports, opts.ImportWait),
		resolver: NewResolver(store, opts.Resolver),
		opts:     opts,
		now:      time.Now,
	}
}

// ----------------------------------------------------------------------------
// Imports
// ----------------------------------------------------------------------------

// parseImport holds a limiter slot while reading and parsing r.
func (s *Service) parseImport(ctx context.Context, r io.Reader) (*ImportResult, int64, error) {
	if err := s.limiter.Acquire(ctx); err != nil {
		return nil, 0, err
	}
	observability.SetActiveImports(s.limiter.ActiveCount())
	defer func() {
		s.limiter.Release()
		observability.SetActiveImports(s.limiter.ActiveCount())
	}()

	text, n, err := ReadImport(r, s.opts.MaxFileSize)
	if err != nil {
		return nil, n, err
	}

	result, err := BuildWorkouts(text, s.opts.Build)
	if err != nil {
		return nil, n, err
	}
	return result, n, nil
}

// PreviewImport parses a file without storing anything.
func (s *Service) PreviewImport(ctx context.Context, fileName string, r io.Reader) (*ImportResult, error) {
	result, _, err := s.parseImport(ctx, r)
	if err != nil {
		return nil, err
	}
	result.FileName = fileName
	return result, nil
}

// ImportWorkouts parses a file and stores its valid rows for userID.
// Rejected rows are reported in the result and do not fail the import.
func (s *Service) ImportWorkouts(ctx context.Context, userID, fileName string, r io.Reader) (*ImportResult, error) {
	start := s.now()
	importID := uuid.New()
	log := logging.WithFields(ctx, "import_id", importID.String(), "user_id", userID, "file", fileName)

	result, n, err := s.parseImport(ctx, r)
	if err != nil {
		outcome := "rejected"
		if errors.Is(err, ErrTooManyImports) {
			outcome = "busy"
		}
		observability.RecordImport(outcome, 0, 0, n, time.Since(start))
		log.Info("import rejected", "error", err)
		return nil, err
	}

	result.ImportID = importID.String()
	result.FileName = fileName

	if len(result.Rows) > 0 {
		inserted, err := s.store.InsertWorkouts(ctx, userID, importID, result.Rows)
		if err != nil {
			observability.RecordImport("error", 0, result.Stats.InvalidRows, n, time.Since(start))
			log.Error("import insert failed", "error", err)
			return nil, fmt.Errorf("store workouts: %w", err)
		}
		result.Inserted = inserted
	}

	observability.RecordImport("ok", result.Stats.ValidRows, result.Stats.InvalidRows, n, time.Since(start))
	log.Info("import completed",
		"total_rows", result.Stats.TotalRows,
		"valid_rows", result.Stats.ValidRows,
		"invalid_rows", result.Stats.InvalidRows,
		"inserted", result.Inserted,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	s.publish(ctx, events.WorkoutsImported, userID, map[string]any{
		"import_id": result.ImportID,
		"user_id":   userID,
		"file_name": fileName,
		"inserted":  result.Inserted,
		"stats":     result.Stats,
	})
	return result, nil
}

// ImportStatus reports limiter occupancy.
func (s *Service) ImportStatus() ImportLimiterStatus {
	return s.limiter.Status()
}

// Drain waits for running imports to finish.
func (s *Service) Drain(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}

// ----------------------------------------------------------------------------
// Workout summaries
// ----------------------------------------------------------------------------

func (s *Service) checkRange(start, end Date) error {
	if start.IsZero() || end.IsZero() || end.Before(start) {
		return fmt.Errorf("%w: end %s before start %s", ErrInvalidRange, end, start)
	}
	if days := int(end.Time().Sub(start.Time()).Hours()/24) + 1; days > s.opts.MaxPlanDays {
		return fmt.Errorf("%w: %d days exceeds %d", ErrInvalidRange, days, s.opts.MaxPlanDays)
	}
	return nil
}

// DailySummary aggregates the user's stored workouts per day.
func (s *Service) DailySummary(ctx context.Context, userID string, start, end Date) ([]DailyLoad, error) {
	if err := s.checkRange(start, end); err != nil {
		return nil, err
	}
	records, err := s.store.ListWorkouts(ctx, userID, start, end)
	if err != nil {
		return nil, fmt.Errorf("list workouts: %w", err)
	}
	return AggregateDaily(records), nil
}

// WeeklySummary aggregates the user's stored workouts per ISO week.
func (s *Service) WeeklySummary(ctx context.Context, userID string, start, end Date) ([]WeeklyLoad, error) {
	if err := s.checkRange(start, end); err != nil {
		return nil, err
	}
	records, err := s.store.ListWorkouts(ctx, userID, start, end)
	if err != nil {
		return nil, fmt.Errorf("list workouts: %w", err)
	}
	return AggregateWeekly(records), nil
}

// ----------------------------------------------------------------------------
// Nutrition plans
// ----------------------------------------------------------------------------

// PlanRequest asks for a plan over stored workouts. A nil WeightKg uses the
// profile weight.
type PlanRequest struct {
	Start    Date     `json:"start"`
	End      Date     `json:"end"`
	WeightKg *float64 `json:"weight_kg,omitempty"`
}

func (s *Service) resolveWeight(ctx context.Context, userID string, weight *float64) (float64, error) {
	if weight != nil {
		return *weight, ValidateWeight(*weight, s.opts.MaxWeightKg)
	}
	w, err := s.store.GetWeightKg(ctx, userID)
	if err != nil {
		return 0, err
	}
	return w, ValidateWeight(w, s.opts.MaxWeightKg)
}

// CreateNutritionPlan derives targets from the user's stored workouts and
// stores them as a plan.
func (s *Service) CreateNutritionPlan(ctx context.Context, userID string, req PlanRequest) (*NutritionPlan, error) {
	if err := s.checkRange(req.Start, req.End); err != nil {
		return nil, err
	}
	weight, err := s.resolveWeight(ctx, userID, req.WeightKg)
	if err != nil {
		return nil, err
	}

	records, err := s.store.ListWorkouts(ctx, userID, req.Start, req.End)
	if err != nil {
		return nil, fmt.Errorf("list workouts: %w", err)
	}

	return s.savePlan(ctx, userID, weight, req.Start, req.End, "", records)
}

// CreatePlanFromFile derives a plan directly from an uploaded export, over
// the date span of its valid rows. The workouts themselves are not stored.
func (s *Service) CreatePlanFromFile(ctx context.Context, userID, fileName string, r io.Reader, weightKg float64) (*NutritionPlan, error) {
	if err := ValidateWeight(weightKg, s.opts.MaxWeightKg); err != nil {
		return nil, err
	}

	result, _, err := s.parseImport(ctx, r)
	if err != nil {
		return nil, err
	}
	if len(result.Rows) == 0 {
		return nil, fmt.Errorf("%w: file has no valid rows", ErrInvalidRange)
	}

	start, end := result.Rows[0].WorkoutDay, result.Rows[0].WorkoutDay
	for _, rec := range result.Rows[1:] {
		if rec.WorkoutDay.Before(start) {
			start = rec.WorkoutDay
		}
		if rec.WorkoutDay.After(end) {
			end = rec.WorkoutDay
		}
	}
	if err := s.checkRange(start, end); err != nil {
		return nil, err
	}

	return s.savePlan(ctx, userID, weightKg, start, end, fileName, result.Rows)
}

func (s *Service) savePlan(ctx context.Context, userID string, weight float64, start, end Date, fileName string, records []WorkoutRecord) (*NutritionPlan, error) {
	targets := DeriveTargets(weight, records, start, end)

	plan := NutritionPlan{
		ID:             uuid.New(),
		UserID:         userID,
		WeightKg:       weight,
		StartDate:      start,
		EndDate:        end,
		SourceFileName: fileName,
		CreatedAt:      s.now().UTC(),
		RowCount:       len(targets),
		Rows:           targets,
	}
	if err := s.store.CreatePlan(ctx, plan); err != nil {
		return nil, fmt.Errorf("store plan: %w", err)
	}

	dayTypes := make(map[string]int)
	for _, t := range targets {
		dayTypes[string(t.DayType)]++
	}
	observability.RecordPlanCreated(dayTypes)
	logging.WithFields(ctx, "user_id", userID, "plan_id", plan.ID.String()).
		Info("nutrition plan created", "days", len(targets), "weight_kg", weight)

	s.publish(ctx, events.NutritionPlanCreated, userID, map[string]any{
		"plan_id":    plan.ID,
		"user_id":    userID,
		"start_date": start,
		"end_date":   end,
		"days":       len(targets),
	})
	return &plan, nil
}

// ListPlans returns the user's plans, newest first, without rows. limit is
// clamped to [1, MaxPlanListLimit] and defaults to DefaultPlanListLimit.
func (s *Service) ListPlans(ctx context.Context, userID string, limit, offset int) ([]NutritionPlan, error) {
	if limit <= 0 {
		limit = DefaultPlanListLimit
	}
	limit = min(limit, MaxPlanListLimit)
	offset = max(offset, 0)

	plans, err := s.store.ListPlans(ctx, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list plans: %w", err)
	}
	return plans, nil
}

// GetPlan returns one plan with its rows.
func (s *Service) GetPlan(ctx context.Context, userID string, planID uuid.UUID) (*NutritionPlan, error) {
	plan, err := s.store.GetPlan(ctx, userID, planID)
	if err != nil {
		if errors.Is(err, ErrPlanNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("get plan: %w", err)
	}
	return plan, nil
}

// ----------------------------------------------------------------------------
// Calendar
// ----------------------------------------------------------------------------

// ResolveSchedule relocates unlocked items around a moved item and
// publishes the applied adjustments.
func (s *Service) ResolveSchedule(ctx context.Context, userID string, moved MovedItem) (*ResolveResult, error) {
	if moved.Date.IsZero() || !moved.Start.Valid() ||
		math.IsNaN(moved.DurationHours) || moved.DurationHours <= 0 || moved.DurationHours > 24 {
		return nil, ErrInvalidPlacement
	}

	result, err := s.resolver.Resolve(ctx, userID, moved)
	if err != nil {
		return nil, err
	}

	observability.RecordScheduleResolution(len(result.Adjustments), result.NoFit, result.Refused, result.Failed)
	if len(result.Adjustments) > 0 {
		s.publish(ctx, events.ScheduleAdjusted, userID, map[string]any{
			"user_id":     userID,
			"date":        moved.Date,
			"adjustments": result.Adjustments,
		})
	}
	return result, nil
}

// DayLayout positions every item on the user's calendar for date.
func (s *Service) DayLayout(ctx context.Context, userID string, date Date, opts LayoutOptions) ([]PositionedItem, error) {
	items, err := s.store.ListDayItems(ctx, userID, date)
	if err != nil {
		return nil, fmt.Errorf("list day items: %w", err)
	}
	return Layout(items, s.LayoutOptions(opts)), nil
}

// LayoutOptions fills unset fields of opts from the service configuration.
func (s *Service) LayoutOptions(opts LayoutOptions) LayoutOptions {
	d := s.opts.Layout
	// Hour 0 is a valid start, so only a missing end marks an unset grid.
	if opts.VisibleEndHour == 0 {
		if opts.VisibleStartHour == 0 {
			opts.VisibleStartHour = d.VisibleStartHour
		}
		opts.VisibleEndHour = d.VisibleEndHour
	}
	if opts.PixelsPerHour <= 0 {
		opts.PixelsPerHour = d.PixelsPerHour
	}
	if opts.MinHeightPx <= 0 {
		opts.MinHeightPx = d.MinHeightPx
	}
	return opts
}

// publish sends an event; failures are logged and never fail the caller.
func (s *Service) publish(ctx context.Context, eventType, userID string, payload any) {
	if err := s.events.Publish(ctx, eventType, userID, payload); err != nil {
		logging.FromContext(ctx).Warn("event publish failed", "type", eventType, "user_id", userID, "error", err)
	}
}
