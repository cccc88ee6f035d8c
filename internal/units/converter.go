package units

// Converter translates values from a packet's unit system into the report's
// target units. Per-group overrides let a report pin a group to a unit that
// is not the target system's standard one (pressure in mbar on a US report,
// for example).
type Converter struct {
	target    System
	overrides map[Group]Unit
}

// NewConverter builds a Converter for the target system. groupOverrides may
// be nil; keys are group names, values unit names.
func NewConverter(target System, groupOverrides map[string]string) *Converter {
	c := &Converter{
		target:    target,
		overrides: make(map[Group]Unit, len(groupOverrides)),
	}
	for g, u := range groupOverrides {
		c.overrides[Group(g)] = Unit(u)
	}
	return c
}

// Target reports the converter's target unit system.
func (c *Converter) Target() System {
	return c.target
}

// TargetUnit resolves the unit a group renders in under this converter.
func (c *Converter) TargetUnit(group Group) (Unit, bool) {
	if u, ok := c.overrides[group]; ok {
		return u, true
	}
	return ReportUnit(c.target, group)
}

// TargetUnitFor resolves the render unit for an observation/aggregate pair.
func (c *Converter) TargetUnitFor(obsType, aggType string) (Unit, bool) {
	group, ok := ObsGroup(obsType, aggType)
	if !ok {
		return "", false
	}
	return c.TargetUnit(group)
}

// ConvertObs converts an observation value from its source system to the
// report unit, returning the converted value and the unit it is now in.
func (c *Converter) ConvertObs(value float64, source System, obsType, aggType string) (float64, Unit, bool) {
	group, ok := ObsGroup(obsType, aggType)
	if !ok {
		return 0, "", false
	}
	from, ok := StandardUnit(source, group)
	if !ok {
		return 0, "", false
	}
	to, ok := c.TargetUnit(group)
	if !ok {
		return 0, "", false
	}
	converted, err := Convert(value, from, to)
	if err != nil {
		return 0, "", false
	}
	return converted, to, true
}
