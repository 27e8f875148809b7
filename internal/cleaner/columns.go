package cleaner

import (
	"math"
	"strings"
	"time"

	"github.com/araddon/dateparse"

	"shenanigigs/datajobs/internal/literal"
	"shenanigigs/datajobs/internal/table"
)

// Parsed dates must fit in nanoseconds since the Unix epoch. Text like "1.5"
// that dateparse reads as a day in year 0 falls outside and is unparsed.
var (
	minDate = time.Unix(0, math.MinInt64).UTC()
	maxDate = time.Unix(0, math.MaxInt64).UTC()
)

type dateOutcome int

const (
	dateParsed dateOutcome = iota
	dateMissing
	dateUnparsed
)

// normalizeDate parses text into a timestamp. Timestamps pass through, and
// anything that is not parseable text becomes missing.
func normalizeDate(v table.Value, loc *time.Location) (table.Value, dateOutcome) {
	switch v.Kind {
	case table.Time:
		return v, dateParsed
	case table.Missing:
		return v, dateMissing
	case table.Text:
		s := strings.TrimSpace(v.Str)
		if s == "" {
			return table.Null(), dateMissing
		}
		// every accepted layout has digits; this keeps words like "today" out
		if !strings.ContainsAny(s, "0123456789") {
			return table.Null(), dateUnparsed
		}
		ts, err := dateparse.ParseIn(s, loc)
		if err != nil || ts.Before(minDate) || ts.After(maxDate) {
			return table.Null(), dateUnparsed
		}
		return table.TimeOf(ts), dateParsed
	default:
		return table.Null(), dateUnparsed
	}
}

type skillsOutcome int

const (
	skillsParsed skillsOutcome = iota
	skillsMissing
	skillsFailed
)

// parseSkills turns list-literal text into a string list. Lists pass
// through; values that are not text become missing without a parse attempt.
func parseSkills(v table.Value) (table.Value, skillsOutcome, error) {
	switch v.Kind {
	case table.List:
		return v, skillsParsed, nil
	case table.Text:
		items, ok, err := literal.StringList(v.Str)
		if err != nil {
			return v, skillsFailed, err
		}
		if !ok {
			return table.Null(), skillsMissing, nil
		}
		return table.ListOf(items), skillsParsed, nil
	default:
		return table.Null(), skillsMissing, nil
	}
}

// SalarySource says which input a derived yearly salary came from.
type SalarySource int

const (
	SalaryMissing SalarySource = iota
	SalaryFromYear
	SalaryFromHour
)

// YearlySalary returns year when it is a finite number, otherwise hour
// annualized when that stays finite, otherwise missing. The two inputs are never blended.
func YearlySalary(year, hour table.Value) (table.Value, SalarySource) {
	if y, ok := number(year); ok {
		return table.NumberOf(y), SalaryFromYear
	}
	if h, ok := number(hour); ok {
		if y := h * HoursPerWeek * WeeksPerYear; !math.IsInf(y, 0) {
			return table.NumberOf(y), SalaryFromHour
		}
	}
	return table.Null(), SalaryMissing
}

func number(v table.Value) (float64, bool) {
	n, ok := v.Number()
	if !ok || math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, false
	}
	return n, true
}
