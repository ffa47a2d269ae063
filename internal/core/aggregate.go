package core

import "sort"

// LoadSummary aggregates a group of workouts. Hours, distances and TSS are
// summed; intensity and subjective scores are averaged over the records
// that carry them and are nil when none do.
type LoadSummary struct {
	PlannedHours  float64  `json:"planned_hours"`
	ActualHours   float64  `json:"actual_hours"`
	PlannedKm     float64  `json:"planned_km"`
	ActualKm      float64  `json:"actual_km"`
	TSS           float64  `json:"tss"`
	IF            *float64 `json:"if"`
	PowerAvg      *float64 `json:"power_avg"`
	HRAvg         *float64 `json:"hr_avg"`
	RPE           *float64 `json:"rpe"`
	Feeling       *float64 `json:"feeling"`
	WorkoutsCount int      `json:"workouts_count"`
}

// DailyLoad is the load summary for one calendar day.
type DailyLoad struct {
	Date Date `json:"date"`
	LoadSummary
}

// WeeklyLoad is the load summary for one ISO week ("2024-W18").
type WeeklyLoad struct {
	Week string `json:"week"`
	LoadSummary
}

// mean accumulates an average over present values.
type mean struct {
	sum float64
	n   int
}

func (m *mean) add(v *float64) {
	if v != nil {
		m.sum += *v
		m.n++
	}
}

func (m mean) value() *float64 {
	if m.n == 0 {
		return nil
	}
	v := m.sum / float64(m.n)
	return &v
}

// loadAccumulator builds a LoadSummary one record at a time.
type loadAccumulator struct {
	summary                         LoadSummary
	ifs, power, hr, rpe, feelingAvg mean
}

func (a *loadAccumulator) add(r WorkoutRecord) {
	s := &a.summary
	s.PlannedHours += deref(r.PlannedHours)
	s.ActualHours += deref(r.ActualHours)
	s.PlannedKm += deref(r.PlannedKm)
	s.ActualKm += deref(r.ActualKm)
	s.TSS += deref(r.TSS)
	s.WorkoutsCount++

	a.ifs.add(r.IF)
	a.power.add(r.PowerAvg)
	a.hr.add(r.HRAvg)
	a.rpe.add(r.RPE)
	a.feelingAvg.add(r.Feeling)
}

func (a *loadAccumulator) result() LoadSummary {
	s := a.summary
	s.IF = a.ifs.value()
	s.PowerAvg = a.power.value()
	s.HRAvg = a.hr.value()
	s.RPE = a.rpe.value()
	s.Feeling = a.feelingAvg.value()
	return s
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

// AggregateDaily groups records by workout day, sorted by date.
func AggregateDaily(records []WorkoutRecord) []DailyLoad {
	groups := make(map[Date]*loadAccumulator)
	for _, r := range records {
		acc, ok := groups[r.WorkoutDay]
		if !ok {
			acc = &loadAccumulator{}
			groups[r.WorkoutDay] = acc
		}
		acc.add(r)
	}

	out := make([]DailyLoad, 0, len(groups))
	for d, acc := range groups {
		out = append(out, DailyLoad{Date: d, LoadSummary: acc.result()})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Date.Before(out[j].Date)
	})
	return out
}

// AggregateWeekly groups records by ISO week, sorted by week label.
func AggregateWeekly(records []WorkoutRecord) []WeeklyLoad {
	groups := make(map[string]*loadAccumulator)
	for _, r := range records {
		week := r.WorkoutDay.ISOWeek()
		acc, ok := groups[week]
		if !ok {
			acc = &loadAccumulator{}
			groups[week] = acc
		}
		acc.add(r)
	}

	out := make([]WeeklyLoad, 0, len(groups))
	for w, acc := range groups {
		out = append(out, WeeklyLoad{Week: w, LoadSummary: acc.result()})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Week < out[j].Week
	})
	return out
}
