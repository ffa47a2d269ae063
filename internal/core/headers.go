package core

import "strings"

// Canonical field names that a source column can resolve to.
const (
	FieldWorkoutDay      = "workout_day"
	FieldStartTime       = "start_time"
	FieldWorkoutType     = "workout_type"
	FieldTitle           = "title"
	FieldDescription     = "description"
	FieldCoachComments   = "coach_comments"
	FieldAthleteComments = "athlete_comments"
	FieldPlannedHours    = "planned_hours"
	FieldActualHours     = "actual_hours"
	FieldPlannedKm       = "planned_km"
	FieldActualKm        = "actual_km"
	FieldPlannedMeters   = "planned_meters"
	FieldActualMeters    = "actual_meters"
	FieldIF              = "if"
	FieldTSS             = "tss"
	FieldPowerAvg        = "power_avg"
	FieldHRAvg           = "hr_avg"
	FieldRPE             = "rpe"
	FieldFeeling         = "feeling"
	FieldHasActual       = "has_actual"
	FieldSource          = "source"
)

// fieldAliases lists the literal headers known for each canonical field,
// covering the snake_case workout export and raw TrainingPeaks exports.
// Aliases are normalized when the lookup table is built.
var fieldAliases = map[string][]string{
	FieldWorkoutDay:      {"workout_day", "WorkoutDay", "date", "day", "workout_date"},
	FieldStartTime:       {"start_time", "StartTime", "time", "start"},
	FieldWorkoutType:     {"workout_type", "WorkoutType", "type", "sport"},
	FieldTitle:           {"title", "Title", "name", "workout_name"},
	FieldDescription:     {"description", "WorkoutDescription", "workout_description"},
	FieldCoachComments:   {"coach_comments", "CoachComments"},
	FieldAthleteComments: {"athlete_comments", "AthleteComments"},
	FieldPlannedHours:    {"planned_hours", "PlannedDuration", "PlannedDuration (hours)", "PlannedDurationHours", "planned_time"},
	FieldActualHours:     {"actual_hours", "TimeTotalInHours", "actual_time", "duration"},
	FieldPlannedKm:       {"planned_km", "planned_distance_km"},
	FieldActualKm:        {"actual_km", "distance_km"},
	FieldPlannedMeters:   {"PlannedDistanceInMeters", "planned_meters"},
	FieldActualMeters:    {"DistanceInMeters", "actual_meters"},
	FieldIF:              {"if", "IF", "intensity_factor"},
	FieldTSS:             {"tss", "TSS", "training_stress_score"},
	FieldPowerAvg:        {"power_avg", "PowerAverage", "avg_power"},
	FieldHRAvg:           {"hr_avg", "HeartRateAverage", "avg_hr"},
	FieldRPE:             {"rpe", "Rpe"},
	FieldFeeling:         {"feeling", "Feeling"},
	FieldHasActual:       {"has_actual", "completed"},
	FieldSource:          {"source"},
}

// prefixRule maps any normalized header starting with prefix to field.
type prefixRule struct {
	prefix string
	field  string
}

// prefixRules tolerate header drift across exporter versions. Order
// matters: the first matching rule wins.
var prefixRules = []prefixRule{
	{"plannedtime", FieldPlannedHours},
	{"plannedduration", FieldPlannedHours},
	{"timetotal", FieldActualHours},
	{"actualtime", FieldActualHours},
	{"actualduration", FieldActualHours},
	{"planneddistanceinmeters", FieldPlannedMeters},
	{"planneddistance", FieldPlannedKm},
	{"distanceinmeters", FieldActualMeters},
	{"actualdistance", FieldActualKm},
	{"heartrateav", FieldHRAvg},
	{"poweravg", FieldPowerAvg},
	{"poweraverage", FieldPowerAvg},
	{"workoutday", FieldWorkoutDay},
	{"workoutdate", FieldWorkoutDay},
}

// aliasIndex is the normalized alias -> canonical field lookup.
var aliasIndex = buildAliasIndex(fieldAliases)

func buildAliasIndex(aliases map[string][]string) map[string]string {
	idx := make(map[string]string)
	for field, names := range aliases {
		idx[NormalizeHeader(field)] = field
		for _, name := range names {
			idx[NormalizeHeader(name)] = field
		}
	}
	return idx
}

// NormalizeHeader strips a BOM, lowercases, and drops every rune outside
// [a-z0-9]. "Planned Time", "planned_time" and "PLANNED-TIME" all become
// "plannedtime".
func NormalizeHeader(h string) string {
	h = strings.TrimPrefix(strings.TrimSpace(h), "\uFEFF")
	h = strings.ToLower(strings.TrimSpace(h))

	var b strings.Builder
	b.Grow(len(h))
	for _, r := range h {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ResolveHeader returns the canonical field for a raw header, or "" when the
// header is unknown.
func ResolveHeader(h string) string {
	key := NormalizeHeader(h)
	if key == "" {
		return ""
	}
	if field, ok := aliasIndex[key]; ok {
		return field
	}
	for _, rule := range prefixRules {
		if strings.HasPrefix(key, rule.prefix) {
			return rule.field
		}
	}
	return ""
}

// HeaderIndex maps canonical field names to column positions.
type HeaderIndex map[string]int

// MakeHeaderIndex resolves a header row. Unknown columns are ignored, and
// when two columns resolve to the same field the leftmost one wins.
func MakeHeaderIndex(header []string) HeaderIndex {
	idx := make(HeaderIndex, len(header))
	for i, h := range header {
		field := ResolveHeader(h)
		if field == "" {
			continue
		}
		if _, taken := idx[field]; taken {
			continue
		}
		idx[field] = i
	}
	return idx
}

// Has reports whether field was resolved.
func (h HeaderIndex) Has(field string) bool {
	_, ok := h[field]
	return ok
}

// Cell returns the trimmed cell for field, or "" when the column is
// missing or the row is short.
func (h HeaderIndex) Cell(row []string, field string) string {
	i, ok := h[field]
	if !ok || i >= len(row) {
		return ""
	}
	return CleanCell(row[i])
}
