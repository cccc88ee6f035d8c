package units

import (
	"fmt"
	"time"
)

// TimestampFormat is the render layout for mintime/maxtime style fields.
const TimestampFormat = "01/02/06 15:04:05"

// defaultFormats holds the per-unit printf format applied when the
// configuration does not override it.
var defaultFormats = map[Unit]string{
	DegreeF:       "%.1f",
	DegreeC:       "%.1f",
	InHg:          "%.3f",
	Mbar:          "%.1f",
	HPa:           "%.1f",
	MilePerHour:   "%.0f",
	KmPerHour:     "%.0f",
	MeterPerSecnd: "%.0f",
	Knot:          "%.0f",
	Inch:          "%.2f",
	Millimeter:    "%.1f",
	Centimeter:    "%.2f",
	InchPerHour:   "%.2f",
	MmPerHour:     "%.1f",
	CmPerHour:     "%.2f",
	DegreeCompass: "%.0f",
	Percent:       "%.0f",
	Mile:          "%.1f",
	Km:            "%.1f",
	CountUnit:     "%.0f",
	WattPerM2:     "%.0f",
	UVIndex:       "%.1f",
}

// defaultLabels holds the display label appended to formatted values. Labels
// carry their leading space except the degree-sign family.
var defaultLabels = map[Unit]string{
	DegreeF:       "°F",
	DegreeC:       "°C",
	InHg:          " inHg",
	Mbar:          " mbar",
	HPa:           " hPa",
	MilePerHour:   " mph",
	KmPerHour:     " km/h",
	MeterPerSecnd: " m/s",
	Knot:          " knots",
	Inch:          " in",
	Millimeter:    " mm",
	Centimeter:    " cm",
	InchPerHour:   " in/h",
	MmPerHour:     " mm/h",
	CmPerHour:     " cm/h",
	DegreeCompass: "°",
	Percent:       "%",
	Mile:          " mile",
	Km:            " km",
	CountUnit:     "",
	WattPerM2:     " W/m²",
	UVIndex:       "",
}

// Formatter renders converted values as display strings. Overrides replace
// the default format or label for individual units.
type Formatter struct {
	formats map[Unit]string
	labels  map[Unit]string
}

// NewFormatter builds a Formatter with optional per-unit overrides. Either
// map may be nil.
func NewFormatter(formatOverrides, labelOverrides map[string]string) *Formatter {
	f := &Formatter{
		formats: make(map[Unit]string, len(defaultFormats)),
		labels:  make(map[Unit]string, len(defaultLabels)),
	}
	for u, s := range defaultFormats {
		f.formats[u] = s
	}
	for u, s := range defaultLabels {
		f.labels[u] = s
	}
	for u, s := range formatOverrides {
		f.formats[Unit(u)] = s
	}
	for u, s := range labelOverrides {
		f.labels[Unit(u)] = s
	}
	return f
}

// Format renders value in the given unit without a label.
func (f *Formatter) Format(value float64, unit Unit) string {
	if unit == UnixEpoch {
		return time.Unix(int64(value), 0).Format(TimestampFormat)
	}
	spec, ok := f.formats[unit]
	if !ok {
		spec = "%.1f"
	}
	return fmt.Sprintf(spec, value)
}

// FormatWithLabel renders value in the given unit with its label appended.
func (f *Formatter) FormatWithLabel(value float64, unit Unit) string {
	if unit == UnixEpoch {
		return f.Format(value, unit)
	}
	return f.Format(value, unit) + f.Label(unit)
}

// Label returns the display label for a unit.
func (f *Formatter) Label(unit Unit) string {
	return f.labels[unit]
}

// FormatTimestamp renders a unix timestamp in local time.
func (f *Formatter) FormatTimestamp(ts int64) string {
	return time.Unix(ts, 0).Format(TimestampFormat)
}
