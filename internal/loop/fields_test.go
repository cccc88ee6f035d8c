package loop

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFieldValid(t *testing.T) {
	tests := []struct {
		spec string
		want FieldSpec
	}{
		{"current.outTemp", FieldSpec{Key: "current.outTemp", Period: "current", ObsType: "outTemp"}},
		{"current.outTemp.raw", FieldSpec{Key: "current.outTemp.raw", Period: "current", ObsType: "outTemp", Format: "raw"}},
		{"current.outTemp.formatted", FieldSpec{Key: "current.outTemp.formatted", Period: "current", ObsType: "outTemp", Format: "formatted"}},
		{"current.windDir.ordinal_compass", FieldSpec{Key: "current.windDir.ordinal_compass", Period: "current", ObsType: "windDir", Format: "ordinal_compass"}},
		{"current.dateTime.raw", FieldSpec{Key: "current.dateTime.raw", Period: "current", ObsType: "dateTime", Format: "raw"}},
		{"trend.barometer", FieldSpec{Key: "trend.barometer", Period: "trend", ObsType: "barometer"}},
		{"trend.barometer.code", FieldSpec{Key: "trend.barometer.code", Period: "trend", ObsType: "barometer", Format: "code"}},
		{"trend.barometer.desc", FieldSpec{Key: "trend.barometer.desc", Period: "trend", ObsType: "barometer", Format: "desc"}},
		{"trend.outTemp.formatted", FieldSpec{Key: "trend.outTemp.formatted", Period: "trend", ObsType: "outTemp", Format: "formatted"}},
		{"day.rain.sum", FieldSpec{Key: "day.rain.sum", Period: "day", ObsType: "rain", AggType: "sum"}},
		{"day.rain.sum.raw", FieldSpec{Key: "day.rain.sum.raw", Period: "day", ObsType: "rain", AggType: "sum", Format: "raw"}},
		{"10m.windGust.max", FieldSpec{Key: "10m.windGust.max", Period: "10m", ObsType: "windGust", AggType: "max"}},
		{"10m.outTemp.mintime", FieldSpec{Key: "10m.outTemp.mintime", Period: "10m", ObsType: "outTemp", AggType: "mintime"}},
		{"2m.wind.maxtime", FieldSpec{Key: "2m.wind.maxtime", Period: "2m", ObsType: "wind", AggType: "maxtime"}},
		{"24h.wind.vecdir", FieldSpec{Key: "24h.wind.vecdir", Period: "24h", ObsType: "wind", AggType: "vecdir"}},
		{"hour.wind.rms", FieldSpec{Key: "hour.wind.rms", Period: "hour", ObsType: "wind", AggType: "rms"}},
		{"week.outTemp.avg", FieldSpec{Key: "week.outTemp.avg", Period: "week", ObsType: "outTemp", AggType: "avg"}},
		{"month.rain.sum", FieldSpec{Key: "month.rain.sum", Period: "month", ObsType: "rain", AggType: "sum"}},
		{"year.outTemp.min", FieldSpec{Key: "year.outTemp.min", Period: "year", ObsType: "outTemp", AggType: "min"}},
		{"rainyear.rain.sum", FieldSpec{Key: "rainyear.rain.sum", Period: "rainyear", ObsType: "rain", AggType: "sum"}},
		{"alltime.outTemp.max", FieldSpec{Key: "alltime.outTemp.max", Period: "alltime", ObsType: "outTemp", AggType: "max"}},
		{"day.windrun.sum", FieldSpec{Key: "day.windrun.sum", Period: "day", ObsType: "windrun", AggType: "sum"}},
		{"week.windrun.sum", FieldSpec{Key: "week.windrun.sum", Period: "week", ObsType: "windrun", AggType: "sum"}},
		{"hour.windrun_NE.sum", FieldSpec{Key: "hour.windrun_NE.sum", Period: "hour", ObsType: "windrun_NE", AggType: "sum"}},
		{"24h.windrun_SSW.sum", FieldSpec{Key: "24h.windrun_SSW.sum", Period: "24h", ObsType: "windrun_SSW", AggType: "sum"}},
		{"unit.label.outTemp", FieldSpec{Key: "unit.label.outTemp", Prefix: "unit", Prefix2: "label", ObsType: "outTemp"}},
	}
	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			got, err := ParseField(tt.spec)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseFieldInvalid(t *testing.T) {
	specs := []string{
		"",
		"current",
		"bogus.outTemp",
		"day.outTemp",
		"day.outTemp.bogus",
		"day.outTemp.sum.bogus",
		"current.outTemp.bogus",
		"current.outTemp.code",
		"trend.outTemp.code",
		"trend.outTemp.desc",
		"day.barometer.code",
		"week.windrun_N.sum",
		"month.windrun_SW.sum",
		"current.windrun_N",
		"trend.windrun_N",
		"a.b.c.d.e",
		"unit.outTemp",
		"unit.label",
		"unit.label.outTemp.formatted",
		"day..sum",
		".outTemp",
	}
	for _, spec := range specs {
		t.Run(spec, func(t *testing.T) {
			_, err := ParseField(spec)
			assert.Error(t, err, "spec %q", spec)
		})
	}
}

func TestParseFields(t *testing.T) {
	specs, bad := ParseFields([]string{
		"current.outTemp",
		"day.outTemp.max",
		"bogus.outTemp",
		"day.outTemp",
	})

	require.Len(t, specs, 2)
	assert.Equal(t, "current.outTemp", specs[0].Key)
	assert.Equal(t, "day.outTemp.max", specs[1].Key)

	require.Len(t, bad, 2)
	assert.Contains(t, bad, "bogus.outTemp")
	assert.Contains(t, bad, "day.outTemp")
}

func TestIsUnitLabel(t *testing.T) {
	f, err := ParseField("unit.label.rain")
	require.NoError(t, err)
	assert.True(t, f.IsUnitLabel())

	f, err = ParseField("day.rain.sum")
	require.NoError(t, err)
	assert.False(t, f.IsUnitLabel())
}

func TestObsInUse(t *testing.T) {
	specs, bad := ParseFields([]string{
		"current.outTemp",
		"current.barometer",
		"day.wind.avg",
		"10m.windrun_N.sum",
		"week.rain.sum",
		"unit.label.outTemp",
	})
	require.Empty(t, bad)

	inUse := ObsInUse(specs)

	assert.Equal(t, map[string]bool{"outTemp": true, "barometer": true}, inUse["current"])
	// Wind fields pull in the four underlying observations.
	assert.Equal(t, map[string]bool{
		"wind": true, "windSpeed": true, "windDir": true,
		"windGust": true, "windGustDir": true,
	}, inUse["day"])
	// Windrun fields pull in speed and direction.
	assert.Equal(t, map[string]bool{
		"windrun_N": true, "windSpeed": true, "windDir": true,
	}, inUse["10m"])
	assert.Equal(t, map[string]bool{"rain": true}, inUse["week"])
	// unit.label fields need no packet data.
	assert.NotContains(t, inUse, "unit")
	assert.NotContains(t, inUse, "")
}
