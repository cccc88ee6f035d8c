// Package loop defines loop packets and the dotted field-specifier
// language used to select what the snapshot reports.
package loop

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/chaunceygardiner/weewx-loopdata/internal/units"
)

var (
	// ErrNoDateTime is returned for packets missing their timestamp.
	ErrNoDateTime = errors.New("packet has no dateTime")
	// ErrNoUnitSystem is returned for packets missing or carrying an
	// unknown usUnits code.
	ErrNoUnitSystem = errors.New("packet has no valid usUnits")
)

// Packet is one loop packet: a timestamp, the unit system its values are
// expressed in, and the observation readings themselves.
type Packet struct {
	DateTime   int64
	UnitSystem units.System
	Obs        map[string]float64

	// TraceID is assigned at the source boundary for log correlation.
	// It never appears on the wire.
	TraceID string
}

// Get returns the named observation.
func (p *Packet) Get(obsType string) (float64, bool) {
	v, ok := p.Obs[obsType]
	return v, ok
}

// GetPtr returns the named observation as a pointer, nil when absent.
func (p *Packet) GetPtr(obsType string) *float64 {
	if v, ok := p.Obs[obsType]; ok {
		return &v
	}
	return nil
}

// Clone returns a deep copy of the packet.
func (p *Packet) Clone() *Packet {
	obs := make(map[string]float64, len(p.Obs))
	for k, v := range p.Obs {
		obs[k] = v
	}
	return &Packet{DateTime: p.DateTime, UnitSystem: p.UnitSystem, Obs: obs, TraceID: p.TraceID}
}

// Prune returns a copy of the packet restricted to the observation types
// in keep. The timestamp and unit system always survive.
func (p *Packet) Prune(keep map[string]bool) *Packet {
	obs := make(map[string]float64, len(keep))
	for k := range keep {
		if v, ok := p.Obs[k]; ok {
			obs[k] = v
		}
	}
	return &Packet{DateTime: p.DateTime, UnitSystem: p.UnitSystem, Obs: obs, TraceID: p.TraceID}
}

// ConvertTo returns a copy of the packet with every known observation
// converted into the target unit system. Observation types without a known
// measurement group pass through unchanged.
func (p *Packet) ConvertTo(target units.System) *Packet {
	if p.UnitSystem == target {
		return p
	}
	obs := make(map[string]float64, len(p.Obs))
	for k, v := range p.Obs {
		group, ok := units.ObsGroup(k, "")
		if !ok {
			obs[k] = v
			continue
		}
		from, okFrom := units.StandardUnit(p.UnitSystem, group)
		to, okTo := units.StandardUnit(target, group)
		if !okFrom || !okTo {
			obs[k] = v
			continue
		}
		converted, err := units.Convert(v, from, to)
		if err != nil {
			obs[k] = v
			continue
		}
		obs[k] = converted
	}
	return &Packet{DateTime: p.DateTime, UnitSystem: target, Obs: obs, TraceID: p.TraceID}
}

// MarshalJSON renders the packet in its flat wire form:
// {"dateTime":1593883322,"usUnits":1,"outTemp":72.1,...}.
func (p *Packet) MarshalJSON() ([]byte, error) {
	flat := make(map[string]any, len(p.Obs)+2)
	for k, v := range p.Obs {
		flat[k] = v
	}
	flat["dateTime"] = p.DateTime
	flat["usUnits"] = int(p.UnitSystem)
	return json.Marshal(flat)
}

// UnmarshalJSON parses the flat wire form. dateTime and a valid usUnits
// are required; null or non-numeric readings are dropped.
func (p *Packet) UnmarshalJSON(data []byte) error {
	var flat map[string]any
	if err := json.Unmarshal(data, &flat); err != nil {
		return fmt.Errorf("decode loop packet: %w", err)
	}

	dt, ok := flat["dateTime"].(float64)
	if !ok {
		return ErrNoDateTime
	}
	us, ok := flat["usUnits"].(float64)
	if !ok {
		return ErrNoUnitSystem
	}
	sys := units.System(int(us))
	if !sys.Valid() {
		return ErrNoUnitSystem
	}

	obs := make(map[string]float64, len(flat))
	for k, v := range flat {
		if k == "dateTime" || k == "usUnits" {
			continue
		}
		if f, ok := v.(float64); ok {
			obs[k] = f
		}
	}

	p.DateTime = int64(dt)
	p.UnitSystem = sys
	p.Obs = obs
	return nil
}
