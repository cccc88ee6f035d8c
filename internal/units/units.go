// Package units implements the unit systems used by loop packets and the
// conversion/formatting rules applied before values reach the snapshot.
package units

import (
	"fmt"
	"math"
)

// System identifies the unit system a packet's values are expressed in.
type System int

const (
	US       System = 0x01
	Metric   System = 0x10
	MetricWX System = 0x11
)

// ParseSystem maps a configuration string to a System.
func ParseSystem(s string) (System, error) {
	switch s {
	case "US", "us":
		return US, nil
	case "METRIC", "metric":
		return Metric, nil
	case "METRICWX", "metricwx":
		return MetricWX, nil
	}
	return 0, fmt.Errorf("unknown unit system %q", s)
}

func (s System) String() string {
	switch s {
	case US:
		return "US"
	case Metric:
		return "METRIC"
	case MetricWX:
		return "METRICWX"
	}
	return fmt.Sprintf("unit system %d", int(s))
}

// Valid reports whether s is one of the three known systems.
func (s System) Valid() bool {
	return s == US || s == Metric || s == MetricWX
}

// Group names a measurement class. Every observation type belongs to one
// group, and every group resolves to a concrete unit per system.
type Group string

const (
	GroupTemperature Group = "group_temperature"
	GroupPressure    Group = "group_pressure"
	GroupSpeed       Group = "group_speed"
	GroupRain        Group = "group_rain"
	GroupRainRate    Group = "group_rainrate"
	GroupDirection   Group = "group_direction"
	GroupPercent     Group = "group_percent"
	GroupDistance    Group = "group_distance"
	GroupTime        Group = "group_time"
	GroupCount       Group = "group_count"
	GroupRadiation   Group = "group_radiation"
	GroupUV          Group = "group_uv"
)

// Unit names a concrete unit such as degree_F or km_per_hour.
type Unit string

const (
	DegreeF       Unit = "degree_F"
	DegreeC       Unit = "degree_C"
	InHg          Unit = "inHg"
	Mbar          Unit = "mbar"
	HPa           Unit = "hPa"
	MilePerHour   Unit = "mile_per_hour"
	KmPerHour     Unit = "km_per_hour"
	MeterPerSecnd Unit = "meter_per_second"
	Knot          Unit = "knot"
	Inch          Unit = "inch"
	Millimeter    Unit = "mm"
	Centimeter    Unit = "cm"
	InchPerHour   Unit = "inch_per_hour"
	MmPerHour     Unit = "mm_per_hour"
	CmPerHour     Unit = "cm_per_hour"
	DegreeCompass Unit = "degree_compass"
	Percent       Unit = "percent"
	Mile          Unit = "mile"
	Km            Unit = "km"
	UnixEpoch     Unit = "unix_epoch"
	CountUnit     Unit = "count"
	WattPerM2     Unit = "watt_per_meter_squared"
	UVIndex       Unit = "uv_index"
)

// obsGroups maps observation types to their measurement group. Observation
// types not listed here pass through unconverted and unformatted beyond the
// default float rendering.
var obsGroups = map[string]Group{
	"outTemp":        GroupTemperature,
	"inTemp":         GroupTemperature,
	"extraTemp1":     GroupTemperature,
	"extraTemp2":     GroupTemperature,
	"extraTemp3":     GroupTemperature,
	"dewpoint":       GroupTemperature,
	"windchill":      GroupTemperature,
	"heatindex":      GroupTemperature,
	"appTemp":        GroupTemperature,
	"wetBulb":        GroupTemperature,
	"barometer":      GroupPressure,
	"pressure":       GroupPressure,
	"altimeter":      GroupPressure,
	"windSpeed":      GroupSpeed,
	"windGust":       GroupSpeed,
	"wind":           GroupSpeed,
	"rain":           GroupRain,
	"rainRate":       GroupRainRate,
	"windDir":        GroupDirection,
	"windGustDir":    GroupDirection,
	"outHumidity":    GroupPercent,
	"inHumidity":     GroupPercent,
	"rxCheckPercent": GroupPercent,
	"windrun":        GroupDistance,
	"dateTime":       GroupTime,
	"usUnits":        GroupCount,
	"radiation":      GroupRadiation,
	"UV":             GroupUV,
	"ET":             GroupRain,
}

// ObsGroup resolves the measurement group for an observation type. The
// windrun_<ordinal> family shares the windrun distance group, and the
// per-aggregate time fields are timestamps.
func ObsGroup(obsType string, aggType string) (Group, bool) {
	switch aggType {
	case "mintime", "maxtime", "lasttime":
		return GroupTime, true
	case "count":
		return GroupCount, true
	case "gustdir", "vecdir":
		return GroupDirection, true
	}
	if IsWindrun(obsType) {
		return GroupDistance, true
	}
	g, ok := obsGroups[obsType]
	return g, ok
}

// IsWindrun reports whether obsType is windrun or one of its compass-sector
// variants (windrun_N .. windrun_NNW).
func IsWindrun(obsType string) bool {
	if obsType == "windrun" {
		return true
	}
	const prefix = "windrun_"
	if len(obsType) <= len(prefix) || obsType[:len(prefix)] != prefix {
		return false
	}
	for _, ord := range CompassOrdinals {
		if obsType[len(prefix):] == ord {
			return true
		}
	}
	return false
}

// groupUnits gives the standard unit for each group under each system.
var groupUnits = map[System]map[Group]Unit{
	US: {
		GroupTemperature: DegreeF,
		GroupPressure:    InHg,
		GroupSpeed:       MilePerHour,
		GroupRain:        Inch,
		GroupRainRate:    InchPerHour,
		GroupDirection:   DegreeCompass,
		GroupPercent:     Percent,
		GroupDistance:    Mile,
		GroupTime:        UnixEpoch,
		GroupCount:       CountUnit,
		GroupRadiation:   WattPerM2,
		GroupUV:          UVIndex,
	},
	Metric: {
		GroupTemperature: DegreeC,
		GroupPressure:    Mbar,
		GroupSpeed:       KmPerHour,
		GroupRain:        Centimeter,
		GroupRainRate:    CmPerHour,
		GroupDirection:   DegreeCompass,
		GroupPercent:     Percent,
		GroupDistance:    Km,
		GroupTime:        UnixEpoch,
		GroupCount:       CountUnit,
		GroupRadiation:   WattPerM2,
		GroupUV:          UVIndex,
	},
	MetricWX: {
		GroupTemperature: DegreeC,
		GroupPressure:    Mbar,
		GroupSpeed:       MeterPerSecnd,
		GroupRain:        Millimeter,
		GroupRainRate:    MmPerHour,
		GroupDirection:   DegreeCompass,
		GroupPercent:     Percent,
		GroupDistance:    Km,
		GroupTime:        UnixEpoch,
		GroupCount:       CountUnit,
		GroupRadiation:   WattPerM2,
		GroupUV:          UVIndex,
	},
}

// StandardUnit returns the unit a group is carried in under the given system.
func StandardUnit(sys System, group Group) (Unit, bool) {
	m, ok := groupUnits[sys]
	if !ok {
		return "", false
	}
	u, ok := m[group]
	return u, ok
}

// reportUnits gives the unit a group renders in on a report targeting each
// system. Mostly the carrier units, except rain: metric packets carry rain
// in cm but metric reports display mm.
var reportUnits = map[System]map[Group]Unit{
	Metric: {
		GroupRain:     Millimeter,
		GroupRainRate: MmPerHour,
	},
}

// ReportUnit returns the display unit for a group on a report targeting the
// given system.
func ReportUnit(sys System, group Group) (Unit, bool) {
	if m, ok := reportUnits[sys]; ok {
		if u, ok := m[group]; ok {
			return u, true
		}
	}
	return StandardUnit(sys, group)
}

// conversions holds direct unit-to-unit conversions as functions so the
// non-linear pairs (temperature) fit the same table.
var conversions = map[Unit]map[Unit]func(float64) float64{
	DegreeF: {
		DegreeC: func(v float64) float64 { return (v - 32) * 5 / 9 },
	},
	DegreeC: {
		DegreeF: func(v float64) float64 { return v*9/5 + 32 },
	},
	InHg: {
		Mbar: func(v float64) float64 { return v * 33.86 },
		HPa:  func(v float64) float64 { return v * 33.86 },
	},
	Mbar: {
		InHg: func(v float64) float64 { return v / 33.86 },
		HPa:  func(v float64) float64 { return v },
	},
	HPa: {
		InHg: func(v float64) float64 { return v / 33.86 },
		Mbar: func(v float64) float64 { return v },
	},
	MilePerHour: {
		KmPerHour:     func(v float64) float64 { return v * 1.609344 },
		MeterPerSecnd: func(v float64) float64 { return v * 0.44704 },
		Knot:          func(v float64) float64 { return v * 0.868976242 },
	},
	KmPerHour: {
		MilePerHour:   func(v float64) float64 { return v * 0.621371192 },
		MeterPerSecnd: func(v float64) float64 { return v * 0.277777778 },
		Knot:          func(v float64) float64 { return v * 0.539956803 },
	},
	MeterPerSecnd: {
		MilePerHour: func(v float64) float64 { return v * 2.23693629 },
		KmPerHour:   func(v float64) float64 { return v * 3.6 },
		Knot:        func(v float64) float64 { return v * 1.94384449 },
	},
	Knot: {
		MilePerHour:   func(v float64) float64 { return v * 1.15077945 },
		KmPerHour:     func(v float64) float64 { return v * 1.85200 },
		MeterPerSecnd: func(v float64) float64 { return v * 0.514444444 },
	},
	Inch: {
		Millimeter: func(v float64) float64 { return v * 25.4 },
		Centimeter: func(v float64) float64 { return v * 2.54 },
	},
	Millimeter: {
		Inch:       func(v float64) float64 { return v / 25.4 },
		Centimeter: func(v float64) float64 { return v / 10 },
	},
	Centimeter: {
		Inch:       func(v float64) float64 { return v / 2.54 },
		Millimeter: func(v float64) float64 { return v * 10 },
	},
	InchPerHour: {
		MmPerHour: func(v float64) float64 { return v * 25.4 },
		CmPerHour: func(v float64) float64 { return v * 2.54 },
	},
	MmPerHour: {
		InchPerHour: func(v float64) float64 { return v / 25.4 },
		CmPerHour:   func(v float64) float64 { return v / 10 },
	},
	CmPerHour: {
		InchPerHour: func(v float64) float64 { return v / 2.54 },
		MmPerHour:   func(v float64) float64 { return v * 10 },
	},
	Mile: {
		Km: func(v float64) float64 { return v * 1.609344 },
	},
	Km: {
		Mile: func(v float64) float64 { return v * 0.621371192 },
	},
}

// Convert converts value from one unit to another. Converting a unit to
// itself is the identity; an unknown pair is an error.
func Convert(value float64, from, to Unit) (float64, error) {
	if from == to {
		return value, nil
	}
	if m, ok := conversions[from]; ok {
		if fn, ok := m[to]; ok {
			return fn(value), nil
		}
	}
	return 0, fmt.Errorf("no conversion from %s to %s", from, to)
}

// CompassOrdinals is the 16-point compass rose, index 0 = N, clockwise.
var CompassOrdinals = []string{
	"N", "NNE", "NE", "ENE",
	"E", "ESE", "SE", "SSE",
	"S", "SSW", "SW", "WSW",
	"W", "WNW", "NW", "NNW",
}

// Ordinal maps a direction in degrees onto the 16-point rose.
func Ordinal(degrees float64) string {
	sector := 360.0 / float64(len(CompassOrdinals))
	idx := int(math.Floor(degrees/sector+0.5)) % len(CompassOrdinals)
	if idx < 0 {
		idx += len(CompassOrdinals)
	}
	return CompassOrdinals[idx]
}

// OrdinalIndex returns the rose bucket for a direction in degrees.
func OrdinalIndex(degrees float64) int {
	sector := 360.0 / float64(len(CompassOrdinals))
	idx := int(math.Floor(degrees/sector+0.5)) % len(CompassOrdinals)
	if idx < 0 {
		idx += len(CompassOrdinals)
	}
	return idx
}
