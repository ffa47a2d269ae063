package core

import (
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	// ErrEmptyInput is returned when the file contains no rows at all.
	ErrEmptyInput = errors.New("import file is empty")
)

// DefaultPreviewRows is the number of records returned in ImportResult.Preview.
const DefaultPreviewRows = 10

// minRowsPerWorker keeps small files on the sequential path.
const minRowsPerWorker = 256

// BuildOptions tunes BuildWorkouts. The zero value is valid.
type BuildOptions struct {
	// Workers normalizes rows on this many goroutines. Output order is
	// always source order. Values below 2 run sequentially.
	Workers int
	// PreviewRows overrides DefaultPreviewRows when positive.
	PreviewRows int
	// DefaultSource overrides DefaultSource when non-empty.
	DefaultSource string
}

// rowOutcome is the result of normalizing one data row.
type rowOutcome struct {
	record WorkoutRecord
	err    *ParseError
}

// BuildWorkouts parses exported text into canonical workout records.
//
// The first non-blank row is the header. A data row is rejected only when
// its workout day cannot be parsed; every other field degrades to nil or a
// default. A header without a date column rejects every data row. An error
// is returned only for input with no rows at all.
func BuildWorkouts(text string, opts BuildOptions) (*ImportResult, error) {
	rows := Tokenize(text)
	if len(rows) == 0 {
		return nil, ErrEmptyInput
	}

	idx := MakeHeaderIndex(rows[0])

	source := opts.DefaultSource
	if source == "" {
		source = DefaultSource
	}

	data := rows[1:]
	outcomes := make([]rowOutcome, len(data))

	workers := opts.Workers
	if limit := len(data) / minRowsPerWorker; workers > limit {
		workers = limit
	}

	if workers < 2 {
		normalizeRange(idx, data, outcomes, 0, len(data), source)
	} else {
		var g errgroup.Group
		chunk := (len(data) + workers - 1) / workers
		for start := 0; start < len(data); start += chunk {
			end := min(start+chunk, len(data))
			g.Go(func() error {
				normalizeRange(idx, data, outcomes, start, end, source)
				return nil
			})
		}
		_ = g.Wait()
	}

	return collectOutcomes(outcomes, opts.PreviewRows), nil
}

// normalizeRange fills outcomes[start:end]. Each call owns its caser since
// cases.Caser keeps internal state.
func normalizeRange(idx HeaderIndex, data [][]string, outcomes []rowOutcome, start, end int, source string) {
	title := cases.Title(language.Und)
	for i := start; i < end; i++ {
		// Row 1 is the header, so data row i is source row i+2.
		outcomes[i] = normalizeRow(idx, data[i], i+2, source, title)
	}
}

func collectOutcomes(outcomes []rowOutcome, previewRows int) *ImportResult {
	if previewRows <= 0 {
		previewRows = DefaultPreviewRows
	}

	result := &ImportResult{
		Rows:   make([]WorkoutRecord, 0, len(outcomes)),
		Errors: []ParseError{},
	}
	for _, o := range outcomes {
		if o.err != nil {
			result.Errors = append(result.Errors, *o.err)
			continue
		}
		result.Rows = append(result.Rows, o.record)
	}

	result.Preview = result.Rows[:min(previewRows, len(result.Rows))]
	result.Stats = ImportStats{
		TotalRows:   len(outcomes),
		ValidRows:   len(result.Rows),
		InvalidRows: len(result.Errors),
	}
	return result
}

func normalizeRow(idx HeaderIndex, row []string, rowNum int, source string, title cases.Caser) rowOutcome {
	rawDay := idx.Cell(row, FieldWorkoutDay)
	day, dayClock, ok := ParseDateTime(rawDay)
	if !ok {
		msg := "missing workout_day"
		if rawDay != "" {
			msg = fmt.Sprintf("invalid workout_day %q", rawDay)
		}
		return rowOutcome{err: &ParseError{Row: rowNum, Message: msg}}
	}

	rec := WorkoutRecord{
		WorkoutDay:      day,
		StartTime:       dayClock,
		Description:     idx.Cell(row, FieldDescription),
		CoachComments:   idx.Cell(row, FieldCoachComments),
		AthleteComments: idx.Cell(row, FieldAthleteComments),
		PlannedHours:    nonNegative(ParseDurationHours(idx.Cell(row, FieldPlannedHours))),
		ActualHours:     nonNegative(ParseDurationHours(idx.Cell(row, FieldActualHours))),
		PlannedKm:       distanceKm(idx, row, FieldPlannedKm, FieldPlannedMeters),
		ActualKm:        distanceKm(idx, row, FieldActualKm, FieldActualMeters),
		IF:              optional(ParseNumber(idx.Cell(row, FieldIF))),
		TSS:             optional(ParseNumber(idx.Cell(row, FieldTSS))),
		PowerAvg:        optional(ParseNumber(idx.Cell(row, FieldPowerAvg))),
		HRAvg:           optional(ParseNumber(idx.Cell(row, FieldHRAvg))),
		RPE:             optional(ParseNumber(idx.Cell(row, FieldRPE))),
		Feeling:         optional(ParseNumber(idx.Cell(row, FieldFeeling))),
		Source:          source,
	}

	if c, ok := ParseTime(idx.Cell(row, FieldStartTime)); ok {
		rec.StartTime = &c
	}

	rec.WorkoutType = DefaultWorkoutType
	if wt := idx.Cell(row, FieldWorkoutType); wt != "" {
		rec.WorkoutType = title.String(wt)
	}

	rec.Title = idx.Cell(row, FieldTitle)
	if rec.Title == "" {
		rec.Title = rec.WorkoutType
	}

	if src := idx.Cell(row, FieldSource); src != "" {
		rec.Source = src
	}

	flag, _ := ParseBool(idx.Cell(row, FieldHasActual))
	rec.HasActual = flag || rec.ActualHours != nil || rec.ActualKm != nil

	return rowOutcome{record: rec}
}

// distanceKm prefers the kilometre column and falls back to meters.
func distanceKm(idx HeaderIndex, row []string, kmField, metersField string) *float64 {
	if km := nonNegative(ParseNumber(idx.Cell(row, kmField))); km != nil {
		return km
	}
	meters, ok := ParseNumber(idx.Cell(row, metersField))
	if !ok || meters < 0 {
		return nil
	}
	km := meters / 1000
	return &km
}
