package units

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatDefaults(t *testing.T) {
	f := NewFormatter(nil, nil)

	tests := []struct {
		name  string
		value float64
		unit  Unit
		want  string
	}{
		{"temperature F", 72.04, DegreeF, "72.0"},
		{"temperature C", 22.22, DegreeC, "22.2"},
		{"pressure inHg", 30.0553, InHg, "30.055"},
		{"pressure mbar", 1017.66, Mbar, "1017.7"},
		{"speed mph", 6.4, MilePerHour, "6"},
		{"rain inch", 0.012, Inch, "0.01"},
		{"rain mm", 1.016, Millimeter, "1.0"},
		{"direction", 45.4, DegreeCompass, "45"},
		{"percent", 83.6, Percent, "84"},
		{"distance mile", 0.05, Mile, "0.1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, f.Format(tt.value, tt.unit))
		})
	}

	// Unknown units fall back to one decimal place.
	assert.Equal(t, "3.1", f.Format(3.14159, Unit("furlong")))
}

func TestFormatWithLabel(t *testing.T) {
	f := NewFormatter(nil, nil)

	assert.Equal(t, "72.0°F", f.FormatWithLabel(72.0, DegreeF))
	assert.Equal(t, "22.2°C", f.FormatWithLabel(22.22, DegreeC))
	assert.Equal(t, "30.055 inHg", f.FormatWithLabel(30.0553, InHg))
	assert.Equal(t, "6 mph", f.FormatWithLabel(6.4, MilePerHour))
	assert.Equal(t, "12 km/h", f.FormatWithLabel(12.3, KmPerHour))
	assert.Equal(t, "1.0 mm", f.FormatWithLabel(1.016, Millimeter))
	assert.Equal(t, "45°", f.FormatWithLabel(45.0, DegreeCompass))
	assert.Equal(t, "84%", f.FormatWithLabel(83.6, Percent))
}

func TestFormatTimestamp(t *testing.T) {
	f := NewFormatter(nil, nil)
	ts := time.Date(2020, time.July, 4, 14, 22, 2, 0, time.Local).Unix()

	want := time.Unix(ts, 0).Format(TimestampFormat)
	assert.Equal(t, want, f.FormatTimestamp(ts))
	assert.Equal(t, want, f.Format(float64(ts), UnixEpoch))
	// The label-bearing form adds nothing for timestamps.
	assert.Equal(t, want, f.FormatWithLabel(float64(ts), UnixEpoch))
}

func TestFormatterOverrides(t *testing.T) {
	f := NewFormatter(
		map[string]string{"mbar": "%.3f"},
		map[string]string{"degree_F": " F", "mile_per_hour": " miles/hour"},
	)

	assert.Equal(t, "1016.123 mbar", f.FormatWithLabel(1016.1234, Mbar))
	assert.Equal(t, "72.0 F", f.FormatWithLabel(72.0, DegreeF))
	assert.Equal(t, "6 miles/hour", f.FormatWithLabel(6.0, MilePerHour))
	// Units not named in the overrides keep their defaults.
	assert.Equal(t, "22.2°C", f.FormatWithLabel(22.2, DegreeC))
}

func TestConverterTargetUnit(t *testing.T) {
	c := NewConverter(Metric, nil)
	u, ok := c.TargetUnit(GroupTemperature)
	require.True(t, ok)
	assert.Equal(t, DegreeC, u)

	// Metric reports display rain in mm despite the cm carrier unit.
	u, ok = c.TargetUnit(GroupRain)
	require.True(t, ok)
	assert.Equal(t, Millimeter, u)

	// A per-group override beats both.
	c = NewConverter(US, map[string]string{"group_pressure": "mbar"})
	u, ok = c.TargetUnit(GroupPressure)
	require.True(t, ok)
	assert.Equal(t, Mbar, u)
	assert.Equal(t, US, c.Target())
}

func TestConverterTargetUnitFor(t *testing.T) {
	c := NewConverter(US, nil)

	u, ok := c.TargetUnitFor("outTemp", "")
	require.True(t, ok)
	assert.Equal(t, DegreeF, u)

	u, ok = c.TargetUnitFor("outTemp", "maxtime")
	require.True(t, ok)
	assert.Equal(t, UnixEpoch, u)

	u, ok = c.TargetUnitFor("wind", "gustdir")
	require.True(t, ok)
	assert.Equal(t, DegreeCompass, u)

	_, ok = c.TargetUnitFor("notAnObservation", "")
	assert.False(t, ok)
}

func TestConverterConvertObs(t *testing.T) {
	c := NewConverter(Metric, nil)

	got, unit, ok := c.ConvertObs(72.0, US, "outTemp", "")
	require.True(t, ok)
	assert.Equal(t, DegreeC, unit)
	assert.InDelta(t, 22.2222, got, 0.0001)

	// cm carrier to mm display on a metric report.
	got, unit, ok = c.ConvertObs(0.10, Metric, "rain", "sum")
	require.True(t, ok)
	assert.Equal(t, Millimeter, unit)
	assert.InDelta(t, 1.0, got, 0.0001)

	_, _, ok = c.ConvertObs(1.0, US, "notAnObservation", "")
	assert.False(t, ok)
}
