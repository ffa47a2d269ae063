package core

import (
	"errors"
	"math"
)

// ErrInvalidWeight is returned when a body weight is outside (0, 250] kg.
var ErrInvalidWeight = errors.New("weight_kg must be a realistic positive number")

// MaxWeightKg is the upper bound accepted by ValidateWeight by default.
const MaxWeightKg = 250.0

// Day classification thresholds.
const (
	trainingHoursThreshold = 1.5
	trainingTSSThreshold   = 80.0
)

// Per-kilogram energy and macro factors.
var kcalPerKg = map[DayType]float64{
	DayTraining: 32,
	DayEasy:     28,
	DayRest:     25,
}

const (
	proteinPerKg = 1.8
	fatPerKg     = 0.9

	kcalPerGramProtein = 4
	kcalPerGramFat     = 9
	kcalPerGramCarb    = 4
)

// Intra-workout carbohydrate bounds in grams per hour.
const (
	minIntraCHO = 30
	maxIntraCHO = 90
)

// ValidateWeight checks a body weight against (0, maxKg]. A maxKg of zero
// uses MaxWeightKg.
func ValidateWeight(weightKg, maxKg float64) error {
	if maxKg <= 0 {
		maxKg = MaxWeightKg
	}
	if math.IsNaN(weightKg) || weightKg <= 0 || weightKg > maxKg {
		return ErrInvalidWeight
	}
	return nil
}

// dayLoad is the deriver's per-day input.
type dayLoad struct {
	hours float64
	tss   float64
}

// ClassifyDay returns the day type for aggregated hours and TSS.
func ClassifyDay(hours, tss float64) DayType {
	switch {
	case hours >= trainingHoursThreshold || tss >= trainingTSSThreshold:
		return DayTraining
	case hours > 0 || tss > 0:
		return DayEasy
	default:
		return DayRest
	}
}

// TargetsForDay computes the macro targets for one day's load.
func TargetsForDay(date Date, weightKg, hours, tss float64) NutritionTarget {
	dayType := ClassifyDay(hours, tss)

	kcal := int(math.Round(weightKg * kcalPerKg[dayType]))
	protein := int(math.Round(weightKg * proteinPerKg))
	fat := int(math.Round(weightKg * fatPerKg))

	remaining := float64(kcal - protein*kcalPerGramProtein - fat*kcalPerGramFat)
	carbs := max(0, int(math.Round(remaining/kcalPerGramCarb)))

	intra := 0
	if dayType != DayRest {
		intra = 30 + int(math.Round(tss/120*60))
		intra = min(max(intra, minIntraCHO), maxIntraCHO)
	}

	return NutritionTarget{
		Date:          date,
		DayType:       dayType,
		Kcal:          kcal,
		ProteinG:      protein,
		CarbsG:        carbs,
		FatG:          fat,
		IntraCHOGPerH: intra,
	}
}

// DeriveTargets returns one NutritionTarget per day in [start, end].
//
// A record contributes its planned hours, or its actual hours when no plan
// exists, plus its TSS to its workout day. Days without records are rest
// days. The result depends only on the arguments, and an end before start
// yields an empty slice.
func DeriveTargets(weightKg float64, records []WorkoutRecord, start, end Date) []NutritionTarget {
	if end.Before(start) {
		return []NutritionTarget{}
	}

	loads := make(map[Date]dayLoad)
	for _, r := range records {
		l := loads[r.WorkoutDay]
		l.hours += r.LoadHours()
		l.tss += deref(r.TSS)
		loads[r.WorkoutDay] = l
	}

	var targets []NutritionTarget
	for d := start; !d.After(end); d = d.AddDays(1) {
		l := loads[d]
		targets = append(targets, TargetsForDay(d, weightKg, l.hours, l.tss))
	}
	return targets
}
