package loop

import (
	"fmt"
	"strings"

	"github.com/chaunceygardiner/weewx-loopdata/internal/units"
)

// Periods a field specifier may name. current and trend read packets
// directly; 2m/10m/24h are trailing windows; the rest are calendar spans.
const (
	PeriodCurrent  = "current"
	PeriodTrend    = "trend"
	Period2m       = "2m"
	Period10m      = "10m"
	Period24h      = "24h"
	PeriodHour     = "hour"
	PeriodDay      = "day"
	PeriodWeek     = "week"
	PeriodMonth    = "month"
	PeriodYear     = "year"
	PeriodRainYear = "rainyear"
	PeriodAllTime  = "alltime"
)

// AggPeriods lists every period that requires an aggregate type.
var AggPeriods = []string{
	Period2m, Period10m, Period24h, PeriodHour, PeriodDay,
	PeriodWeek, PeriodMonth, PeriodYear, PeriodRainYear, PeriodAllTime,
}

// WindowPeriods lists the trailing-window periods, mapped to their length
// in seconds.
var WindowPeriods = map[string]int64{
	Period2m:  120,
	Period10m: 600,
	Period24h: 86400,
}

var aggTypes = map[string]bool{
	"min":     true,
	"max":     true,
	"avg":     true,
	"sum":     true,
	"mintime": true,
	"maxtime": true,
	"gustdir": true,
	"vecavg":  true,
	"vecdir":  true,
	"rms":     true,
}

var formatSpecs = map[string]bool{
	"formatted":       true,
	"raw":             true,
	"ordinal_compass": true,
}

// windrunPeriods are the only periods the windrun_<ordinal> family is
// meaningful for; the longer spans roll the rose up to total windrun only.
var windrunPeriods = map[string]bool{
	Period2m:   true,
	Period10m:  true,
	Period24h:  true,
	PeriodHour: true,
	PeriodDay:  true,
}

// FieldSpec is one parsed dotted field specifier. Key is the original
// dotted string and is the snapshot key for the rendered value.
type FieldSpec struct {
	Key     string
	Prefix  string // "unit" for unit.label fields, otherwise empty
	Prefix2 string // "label" for unit.label fields, otherwise empty
	Period  string
	ObsType string
	AggType string
	Format  string // "", "formatted", "raw", "ordinal_compass", "code", "desc"
}

// IsUnitLabel reports whether the spec asks for a unit label.
func (f FieldSpec) IsUnitLabel() bool {
	return f.Prefix == "unit" && f.Prefix2 == "label"
}

// ParseField parses one dotted field specifier.
func ParseField(spec string) (FieldSpec, error) {
	segments := strings.Split(spec, ".")
	if len(segments) > 4 {
		return FieldSpec{}, fmt.Errorf("field %q: too many segments", spec)
	}
	for _, seg := range segments {
		if seg == "" {
			return FieldSpec{}, fmt.Errorf("field %q: empty segment", spec)
		}
	}

	if segments[0] == "unit" {
		if len(segments) != 3 || segments[1] != "label" {
			return FieldSpec{}, fmt.Errorf("field %q: unit fields take the form unit.label.<obstype>", spec)
		}
		return FieldSpec{Key: spec, Prefix: "unit", Prefix2: "label", ObsType: segments[2]}, nil
	}

	period := segments[0]
	switch period {
	case PeriodCurrent, PeriodTrend:
		return parseCurrentOrTrend(spec, period, segments)
	case Period2m, Period10m, Period24h, PeriodHour, PeriodDay,
		PeriodWeek, PeriodMonth, PeriodYear, PeriodRainYear, PeriodAllTime:
		return parseAggregate(spec, period, segments)
	}
	return FieldSpec{}, fmt.Errorf("field %q: unknown period %q", spec, period)
}

func parseCurrentOrTrend(spec, period string, segments []string) (FieldSpec, error) {
	if len(segments) < 2 {
		return FieldSpec{}, fmt.Errorf("field %q: missing observation type", spec)
	}
	f := FieldSpec{Key: spec, Period: period, ObsType: segments[1]}
	if units.IsWindrun(f.ObsType) && f.ObsType != "windrun" {
		return FieldSpec{}, fmt.Errorf("field %q: %s is only tracked over aggregate periods", spec, f.ObsType)
	}
	if len(segments) == 3 {
		format := segments[2]
		if period == PeriodTrend && (format == "code" || format == "desc") {
			if f.ObsType != "barometer" {
				return FieldSpec{}, fmt.Errorf("field %q: %s applies to trend.barometer only", spec, format)
			}
			f.Format = format
			return f, nil
		}
		if !formatSpecs[format] {
			return FieldSpec{}, fmt.Errorf("field %q: unknown format %q", spec, format)
		}
		f.Format = format
	}
	return f, nil
}

func parseAggregate(spec, period string, segments []string) (FieldSpec, error) {
	if len(segments) < 3 {
		return FieldSpec{}, fmt.Errorf("field %q: %s fields require an aggregate type", spec, period)
	}
	f := FieldSpec{Key: spec, Period: period, ObsType: segments[1], AggType: segments[2]}
	if !aggTypes[f.AggType] {
		return FieldSpec{}, fmt.Errorf("field %q: unknown aggregate %q", spec, f.AggType)
	}
	if units.IsWindrun(f.ObsType) && f.ObsType != "windrun" && !windrunPeriods[period] {
		return FieldSpec{}, fmt.Errorf("field %q: %s is not tracked for period %s", spec, f.ObsType, period)
	}
	if len(segments) == 4 {
		format := segments[3]
		if !formatSpecs[format] {
			return FieldSpec{}, fmt.Errorf("field %q: unknown format %q", spec, format)
		}
		f.Format = format
	}
	return f, nil
}

// ParseFields parses a list of specifiers, returning the valid specs and
// the invalid inputs with their reasons.
func ParseFields(specs []string) ([]FieldSpec, map[string]error) {
	fields := make([]FieldSpec, 0, len(specs))
	bad := make(map[string]error)
	for _, s := range specs {
		f, err := ParseField(s)
		if err != nil {
			bad[s] = err
			continue
		}
		fields = append(fields, f)
	}
	return fields, bad
}

// ObsInUse returns, per period, the observation types that must survive
// packet pruning for the configured fields to be answerable. Wind fields
// pull in the four underlying wind observations; windrun fields pull in
// wind speed and direction.
func ObsInUse(fields []FieldSpec) map[string]map[string]bool {
	inUse := make(map[string]map[string]bool)
	add := func(period, obs string) {
		m, ok := inUse[period]
		if !ok {
			m = make(map[string]bool)
			inUse[period] = m
		}
		m[obs] = true
	}
	for _, f := range fields {
		if f.IsUnitLabel() {
			continue
		}
		switch {
		case f.ObsType == "wind":
			add(f.Period, "wind")
			add(f.Period, "windSpeed")
			add(f.Period, "windDir")
			add(f.Period, "windGust")
			add(f.Period, "windGustDir")
		case units.IsWindrun(f.ObsType):
			add(f.Period, f.ObsType)
			add(f.Period, "windSpeed")
			add(f.Period, "windDir")
		default:
			add(f.Period, f.ObsType)
		}
	}
	return inUse
}
