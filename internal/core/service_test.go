package core

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/trainfuel/internal/events"
)

const serviceExport = "WorkoutDay,WorkoutType,Title,PlannedDuration,TSS\n" +
	"2024-05-01,bike,Endurance,2,100\n" +
	"2024-05-03,run,Easy,0.5,\n" +
	"oops,run,Broken,1,\n"

func newTestService(t *testing.T) (*Service, *memStore, *recordingPublisher) {
	t.Helper()
	store := newMemStore()
	pub := &recordingPublisher{}
	svc := NewService(store, pub, Options{})
	svc.now = func() time.Time { return time.Date(2024, 5, 10, 8, 0, 0, 0, time.UTC) }
	return svc, store, pub
}

// ----------------------------------------------------------------------------
// Imports
// ----------------------------------------------------------------------------

func TestService_ImportWorkouts(t *testing.T) {
	svc, store, pub := newTestService(t)

	result, err := svc.ImportWorkouts(context.Background(), testUser, "export.csv", strings.NewReader(serviceExport))
	require.NoError(t, err)

	assert.Equal(t, ImportStats{TotalRows: 3, ValidRows: 2, InvalidRows: 1}, result.Stats)
	assert.Equal(t, int64(2), result.Inserted)
	assert.Equal(t, "export.csv", result.FileName)
	_, err = uuid.Parse(result.ImportID)
	assert.NoError(t, err, "import id should be a uuid")

	assert.Len(t, store.workouts[testUser], 2)
	assert.Equal(t, []string{events.WorkoutsImported}, pub.types)
}

func TestService_PreviewImportStoresNothing(t *testing.T) {
	svc, store, pub := newTestService(t)

	result, err := svc.PreviewImport(context.Background(), "export.csv", strings.NewReader(serviceExport))
	require.NoError(t, err)

	assert.Len(t, result.Preview, 2)
	assert.Empty(t, result.ImportID)
	assert.Empty(t, store.workouts)
	assert.Empty(t, pub.types)
}

func TestService_ImportWorkoutsErrors(t *testing.T) {
	t.Run("missing date column rejects rows", func(t *testing.T) {
		svc, store, _ := newTestService(t)
		result, err := svc.ImportWorkouts(context.Background(), testUser, "x.csv", strings.NewReader("title\nRun\n"))
		require.NoError(t, err)
		assert.Equal(t, ImportStats{TotalRows: 1, ValidRows: 0, InvalidRows: 1}, result.Stats)
		require.Len(t, result.Errors, 1)
		assert.Equal(t, 2, result.Errors[0].Row)
		assert.Empty(t, store.workouts)
	})

	t.Run("file too large", func(t *testing.T) {
		store := newMemStore()
		svc := NewService(store, nil, Options{MaxFileSize: 16})
		_, err := svc.ImportWorkouts(context.Background(), testUser, "x.csv", strings.NewReader(serviceExport))
		assert.ErrorIs(t, err, ErrFileTooLarge)
	})

	t.Run("store failure", func(t *testing.T) {
		svc, store, pub := newTestService(t)
		store.insertErr = errors.New("db down")
		_, err := svc.ImportWorkouts(context.Background(), testUser, "x.csv", strings.NewReader(serviceExport))
		require.Error(t, err)
		assert.Empty(t, pub.types, "no event for a failed import")
	})

	t.Run("publish failure does not fail import", func(t *testing.T) {
		svc, _, pub := newTestService(t)
		pub.err = errors.New("broker unavailable")
		_, err := svc.ImportWorkouts(context.Background(), testUser, "x.csv", strings.NewReader(serviceExport))
		assert.NoError(t, err)
	})
}

func TestService_ImportBusy(t *testing.T) {
	store := newMemStore()
	svc := NewService(store, nil, Options{MaxConcurrentImports: 1, ImportWait: 10 * time.Millisecond})

	require.True(t, svc.limiter.TryAcquire())
	defer svc.limiter.Release()

	_, err := svc.ImportWorkouts(context.Background(), testUser, "x.csv", strings.NewReader(serviceExport))
	assert.ErrorIs(t, err, ErrTooManyImports)
	assert.Equal(t, 1, svc.ImportStatus().Active)
}

// ----------------------------------------------------------------------------
// Summaries
// ----------------------------------------------------------------------------

func TestService_Summaries(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	_, err := svc.ImportWorkouts(ctx, testUser, "x.csv", strings.NewReader(serviceExport))
	require.NoError(t, err)

	daily, err := svc.DailySummary(ctx, testUser, Date{2024, 5, 1}, Date{2024, 5, 31})
	require.NoError(t, err)
	require.Len(t, daily, 2)
	assert.Equal(t, 100.0, daily[0].TSS)

	weekly, err := svc.WeeklySummary(ctx, testUser, Date{2024, 5, 1}, Date{2024, 5, 31})
	require.NoError(t, err)
	require.Len(t, weekly, 1)
	assert.Equal(t, "2024-W18", weekly[0].Week)
	assert.Equal(t, 2, weekly[0].WorkoutsCount)

	_, err = svc.DailySummary(ctx, testUser, Date{2024, 5, 2}, Date{2024, 5, 1})
	assert.ErrorIs(t, err, ErrInvalidRange)
	_, err = svc.DailySummary(ctx, testUser, Date{2020, 1, 1}, Date{2024, 1, 1})
	assert.ErrorIs(t, err, ErrInvalidRange)
}

// ----------------------------------------------------------------------------
// Nutrition plans
// ----------------------------------------------------------------------------

func TestService_CreateNutritionPlan(t *testing.T) {
	svc, store, pub := newTestService(t)
	ctx := context.Background()
	_, err := svc.ImportWorkouts(ctx, testUser, "x.csv", strings.NewReader(serviceExport))
	require.NoError(t, err)

	t.Run("profile weight", func(t *testing.T) {
		store.weights[testUser] = 70
		plan, err := svc.CreateNutritionPlan(ctx, testUser, PlanRequest{Start: Date{2024, 5, 1}, End: Date{2024, 5, 3}})
		require.NoError(t, err)

		assert.Equal(t, 70.0, plan.WeightKg)
		assert.Equal(t, 3, plan.RowCount)
		require.Len(t, plan.Rows, 3)
		assert.Equal(t, DayTraining, plan.Rows[0].DayType)
		assert.Equal(t, DayRest, plan.Rows[1].DayType)
		assert.Equal(t, DayEasy, plan.Rows[2].DayType)
		assert.Equal(t, time.Date(2024, 5, 10, 8, 0, 0, 0, time.UTC), plan.CreatedAt)
		assert.Contains(t, pub.types, events.NutritionPlanCreated)
	})

	t.Run("explicit weight overrides profile", func(t *testing.T) {
		plan, err := svc.CreateNutritionPlan(ctx, testUser, PlanRequest{Start: Date{2024, 5, 1}, End: Date{2024, 5, 1}, WeightKg: f64(60)})
		require.NoError(t, err)
		assert.Equal(t, 60.0, plan.WeightKg)
	})

	t.Run("invalid weight", func(t *testing.T) {
		_, err := svc.CreateNutritionPlan(ctx, testUser, PlanRequest{Start: Date{2024, 5, 1}, End: Date{2024, 5, 1}, WeightKg: f64(400)})
		assert.ErrorIs(t, err, ErrInvalidWeight)
	})

	t.Run("no weight on file", func(t *testing.T) {
		_, err := svc.CreateNutritionPlan(ctx, "someone-else", PlanRequest{Start: Date{2024, 5, 1}, End: Date{2024, 5, 1}})
		assert.ErrorIs(t, err, ErrWeightUnknown)
	})
}

func TestService_CreatePlanFromFile(t *testing.T) {
	svc, store, _ := newTestService(t)

	plan, err := svc.CreatePlanFromFile(context.Background(), testUser, "export.csv", strings.NewReader(serviceExport), 70)
	require.NoError(t, err)

	assert.Equal(t, "export.csv", plan.SourceFileName)
	assert.Equal(t, Date{2024, 5, 1}, plan.StartDate)
	assert.Equal(t, Date{2024, 5, 3}, plan.EndDate)
	assert.Len(t, plan.Rows, 3)
	assert.Empty(t, store.workouts, "file plans do not store workouts")

	_, err = svc.CreatePlanFromFile(context.Background(), testUser, "x.csv", strings.NewReader(serviceExport), 0)
	assert.ErrorIs(t, err, ErrInvalidWeight)
}

func TestService_ListAndGetPlans(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()
	store.weights[testUser] = 70

	var ids []uuid.UUID
	for i := 0; i < 3; i++ {
		plan, err := svc.CreateNutritionPlan(ctx, testUser, PlanRequest{Start: Date{2024, 5, 1}, End: Date{2024, 5, 2}})
		require.NoError(t, err)
		ids = append(ids, plan.ID)
	}

	plans, err := svc.ListPlans(ctx, testUser, 0, 0)
	require.NoError(t, err)
	require.Len(t, plans, 3)
	assert.Equal(t, ids[2], plans[0].ID, "newest first")
	assert.Nil(t, plans[0].Rows)

	plans, err = svc.ListPlans(ctx, testUser, 1, -5)
	require.NoError(t, err)
	assert.Len(t, plans, 1)

	plan, err := svc.GetPlan(ctx, testUser, ids[0])
	require.NoError(t, err)
	assert.Len(t, plan.Rows, 2)

	_, err = svc.GetPlan(ctx, testUser, uuid.New())
	assert.ErrorIs(t, err, ErrPlanNotFound)
	_, err = svc.GetPlan(ctx, "someone-else", ids[0])
	assert.ErrorIs(t, err, ErrPlanNotFound)
}

// ----------------------------------------------------------------------------
// Calendar
// ----------------------------------------------------------------------------

func TestService_ResolveSchedule(t *testing.T) {
	svc, store, pub := newTestService(t)
	store.addItems(meal("lunch", ClockOf(12, 0), ClockOf(13, 0)))

	result, err := svc.ResolveSchedule(context.Background(), testUser, MovedItem{
		Date: testDay, Start: ClockOf(12, 30), DurationHours: 1,
	})
	require.NoError(t, err)
	require.Len(t, result.Adjustments, 1)
	assert.Equal(t, ClockOf(14, 0), result.Adjustments[0].NewStart)
	assert.Equal(t, []string{events.ScheduleAdjusted}, pub.types)
}

func TestService_ResolveScheduleInvalid(t *testing.T) {
	svc, _, _ := newTestService(t)

	tests := []struct {
		name  string
		moved MovedItem
	}{
		{"zero date", MovedItem{Start: ClockOf(9, 0), DurationHours: 1}},
		{"zero duration", MovedItem{Date: testDay, Start: ClockOf(9, 0)}},
		{"negative duration", MovedItem{Date: testDay, Start: ClockOf(9, 0), DurationHours: -1}},
		{"start past midnight", MovedItem{Date: testDay, Start: Clock(1500), DurationHours: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.ResolveSchedule(context.Background(), testUser, tt.moved)
			assert.ErrorIs(t, err, ErrInvalidPlacement)
		})
	}
}

func TestService_DayLayout(t *testing.T) {
	svc, store, _ := newTestService(t)
	store.addItems(
		meal("a", ClockOf(8, 0), ClockOf(9, 0)),
		meal("b", ClockOf(8, 30), ClockOf(9, 30)),
	)

	items, err := svc.DayLayout(context.Background(), testUser, testDay, LayoutOptions{PixelsPerHour: 30})
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, 2, items[0].Columns)
	assert.Equal(t, 90.0, items[0].TopPx)
}

func TestService_LayoutOptions(t *testing.T) {
	svc := NewService(newMemStore(), nil, Options{
		Layout: LayoutOptions{VisibleStartHour: 4, VisibleEndHour: 22, PixelsPerHour: 50, MinHeightPx: 10},
	})

	tests := []struct {
		name      string
		in        LayoutOptions
		wantStart int
		wantEnd   int
	}{
		{name: "unset uses configured grid", in: LayoutOptions{}, wantStart: 4, wantEnd: 22},
		{name: "start only keeps start", in: LayoutOptions{VisibleStartHour: 6}, wantStart: 6, wantEnd: 22},
		{name: "explicit midnight start", in: LayoutOptions{VisibleStartHour: 0, VisibleEndHour: 12}, wantStart: 0, wantEnd: 12},
		{name: "both set", in: LayoutOptions{VisibleStartHour: 7, VisibleEndHour: 20}, wantStart: 7, wantEnd: 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := svc.LayoutOptions(tt.in)
			assert.Equal(t, tt.wantStart, got.VisibleStartHour)
			assert.Equal(t, tt.wantEnd, got.VisibleEndHour)
			assert.Equal(t, 50.0, got.PixelsPerHour)
			assert.Equal(t, 10.0, got.MinHeightPx)
		})
	}
}

func TestService_DayLayoutStartOnly(t *testing.T) {
	svc, store, _ := newTestService(t)
	store.addItems(meal("a", ClockOf(8, 0), ClockOf(9, 0)))

	items, err := svc.DayLayout(context.Background(), testUser, testDay, LayoutOptions{VisibleStartHour: 6})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 120.0, items[0].TopPx, "08:00 is two hours below a 06:00 grid start")
}
