package loop

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chaunceygardiner/weewx-loopdata/internal/units"
)

func TestPacketUnmarshal(t *testing.T) {
	var p Packet
	err := json.Unmarshal([]byte(
		`{"dateTime": 1593883322, "usUnits": 1, "outTemp": 72.0, "windDir": 45, "soilMoist1": null}`,
	), &p)
	require.NoError(t, err)

	assert.Equal(t, int64(1593883322), p.DateTime)
	assert.Equal(t, units.US, p.UnitSystem)
	assert.Equal(t, map[string]float64{"outTemp": 72.0, "windDir": 45}, p.Obs)

	v, ok := p.Get("outTemp")
	require.True(t, ok)
	assert.Equal(t, 72.0, v)
	_, ok = p.Get("soilMoist1")
	assert.False(t, ok, "null readings are dropped")
}

func TestPacketUnmarshalErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		want error
	}{
		{"missing dateTime", `{"usUnits": 1, "outTemp": 72.0}`, ErrNoDateTime},
		{"missing usUnits", `{"dateTime": 1593883322, "outTemp": 72.0}`, ErrNoUnitSystem},
		{"unknown usUnits", `{"dateTime": 1593883322, "usUnits": 5}`, ErrNoUnitSystem},
		{"string usUnits", `{"dateTime": 1593883322, "usUnits": "metric"}`, ErrNoUnitSystem},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var p Packet
			err := json.Unmarshal([]byte(tt.body), &p)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	var p Packet
	assert.Error(t, json.Unmarshal([]byte(`so not json`), &p))
}

func TestPacketMarshalFlatWireForm(t *testing.T) {
	p := &Packet{
		DateTime:   1593883322,
		UnitSystem: units.Metric,
		Obs:        map[string]float64{"outTemp": 22.2},
		TraceID:    "should-not-appear",
	}

	data, err := json.Marshal(p)
	require.NoError(t, err)

	var flat map[string]any
	require.NoError(t, json.Unmarshal(data, &flat))
	assert.Equal(t, float64(1593883322), flat["dateTime"])
	assert.Equal(t, float64(0x10), flat["usUnits"])
	assert.Equal(t, 22.2, flat["outTemp"])
	assert.NotContains(t, string(data), "should-not-appear")
	assert.Len(t, flat, 3)
}

func TestPacketClone(t *testing.T) {
	p := &Packet{DateTime: 1000, UnitSystem: units.US, Obs: map[string]float64{"outTemp": 72}}
	c := p.Clone()

	c.Obs["outTemp"] = 50
	assert.Equal(t, 72.0, p.Obs["outTemp"])
	assert.Equal(t, p.DateTime, c.DateTime)
	assert.Equal(t, p.UnitSystem, c.UnitSystem)
}

func TestPacketPrune(t *testing.T) {
	p := &Packet{
		DateTime:   1000,
		UnitSystem: units.US,
		Obs: map[string]float64{
			"outTemp":   72,
			"barometer": 30.0,
			"windSpeed": 6,
		},
	}

	pruned := p.Prune(map[string]bool{"outTemp": true, "rain": true})

	assert.Equal(t, int64(1000), pruned.DateTime)
	assert.Equal(t, units.US, pruned.UnitSystem)
	assert.Equal(t, map[string]float64{"outTemp": 72}, pruned.Obs)
	// The original is untouched.
	assert.Len(t, p.Obs, 3)
}

func TestPacketConvertTo(t *testing.T) {
	p := &Packet{
		DateTime:   1000,
		UnitSystem: units.US,
		Obs: map[string]float64{
			"outTemp":   72.0,
			"barometer": 30.055,
			"windSpeed": 10.0,
			"rain":      0.1,
			"windDir":   45.0,
			"madeUpObs": 3.0,
		},
	}

	m := p.ConvertTo(units.Metric)

	assert.Equal(t, units.Metric, m.UnitSystem)
	assert.InDelta(t, 22.2222, m.Obs["outTemp"], 0.0001)
	assert.InDelta(t, 1017.6623, m.Obs["barometer"], 0.0001)
	assert.InDelta(t, 16.09344, m.Obs["windSpeed"], 0.0001)
	// Metric packets carry rain in cm.
	assert.InDelta(t, 0.254, m.Obs["rain"], 0.0001)
	assert.Equal(t, 45.0, m.Obs["windDir"])
	// Observations without a known group pass through.
	assert.Equal(t, 3.0, m.Obs["madeUpObs"])
	// The source packet is untouched.
	assert.Equal(t, 72.0, p.Obs["outTemp"])
}

func TestPacketConvertToSameSystem(t *testing.T) {
	p := &Packet{DateTime: 1000, UnitSystem: units.US, Obs: map[string]float64{"outTemp": 72}}
	assert.Same(t, p, p.ConvertTo(units.US))
}

func TestPacketGetPtr(t *testing.T) {
	p := &Packet{Obs: map[string]float64{"windSpeed": 6}}

	v := p.GetPtr("windSpeed")
	require.NotNil(t, v)
	assert.Equal(t, 6.0, *v)
	assert.Nil(t, p.GetPtr("windGust"))
}
