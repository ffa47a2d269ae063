package core

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// memStore is an in-memory Store for service and resolver tests.
type memStore struct {
	mu sync.Mutex

	workouts map[string][]WorkoutRecord
	weights  map[string]float64
	plans    []NutritionPlan
	items    map[string]*CalendarItem

	// lockOnWrite simulates another writer locking an item between read
	// and conditional update.
	lockOnWrite map[string]bool
	failWrite   map[string]error

	insertErr error
	listErr   error
	moves     []string
}

func newMemStore() *memStore {
	return &memStore{
		workouts:    make(map[string][]WorkoutRecord),
		weights:     make(map[string]float64),
		items:       make(map[string]*CalendarItem),
		lockOnWrite: make(map[string]bool),
		failWrite:   make(map[string]error),
	}
}

func (m *memStore) addItems(items ...CalendarItem) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range items {
		it := items[i]
		m.items[it.ID] = &it
	}
}

func (m *memStore) item(id string) CalendarItem {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.items[id]
}

func (m *memStore) InsertWorkouts(_ context.Context, userID string, _ uuid.UUID, records []WorkoutRecord) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.insertErr != nil {
		return 0, m.insertErr
	}
	m.workouts[userID] = append(m.workouts[userID], records...)
	return int64(len(records)), nil
}

func (m *memStore) ListWorkouts(_ context.Context, userID string, start, end Date) ([]WorkoutRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []WorkoutRecord
	for _, r := range m.workouts[userID] {
		if !r.WorkoutDay.Before(start) && !r.WorkoutDay.After(end) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memStore) GetWeightKg(_ context.Context, userID string) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.weights[userID]
	if !ok {
		return 0, ErrWeightUnknown
	}
	return w, nil
}

func (m *memStore) CreatePlan(_ context.Context, plan NutritionPlan) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.plans = append(m.plans, plan)
	return nil
}

func (m *memStore) ListPlans(_ context.Context, userID string, limit, offset int) ([]NutritionPlan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []NutritionPlan
	for i := len(m.plans) - 1; i >= 0; i-- {
		if p := m.plans[i]; p.UserID == userID {
			p.Rows = nil
			out = append(out, p)
		}
	}
	if offset >= len(out) {
		return []NutritionPlan{}, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memStore) GetPlan(_ context.Context, userID string, planID uuid.UUID) (*NutritionPlan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.plans {
		if p.ID == planID && p.UserID == userID {
			return &p, nil
		}
	}
	return nil, ErrPlanNotFound
}

func (m *memStore) ListUnlockedItems(_ context.Context, userID string, date Date, from, to Clock) ([]CalendarItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []CalendarItem
	for _, it := range m.items {
		if it.UserID == userID && it.Date == date && !it.Locked && overlaps(it.Start, it.End, from, to) {
			out = append(out, *it)
		}
	}
	// Map order is random; callers must not depend on store order.
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (m *memStore) ListDayItems(_ context.Context, userID string, date Date) ([]CalendarItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []CalendarItem
	for _, it := range m.items {
		if it.UserID == userID && it.Date == date {
			out = append(out, *it)
		}
	}
	return out, nil
}

func (m *memStore) MoveItemIfUnlocked(_ context.Context, userID, itemID string, start, end Clock) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failWrite[itemID]; err != nil {
		return false, err
	}
	it, ok := m.items[itemID]
	if !ok || it.UserID != userID {
		return false, nil
	}
	if m.lockOnWrite[itemID] {
		it.Locked = true
	}
	if it.Locked {
		return false, nil
	}
	it.Start, it.End = start, end
	m.moves = append(m.moves, itemID)
	return true, nil
}

// recordingPublisher captures published events.
type recordingPublisher struct {
	mu     sync.Mutex
	types  []string
	err    error
	events []any
}

func (p *recordingPublisher) Publish(_ context.Context, eventType, _ string, payload any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.types = append(p.types, eventType)
	p.events = append(p.events, payload)
	return p.err
}
