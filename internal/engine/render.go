package engine

import (
	"github.com/chaunceygardiner/weewx-loopdata/internal/accum"
	"github.com/chaunceygardiner/weewx-loopdata/internal/loop"
	"github.com/chaunceygardiner/weewx-loopdata/internal/store"
	"github.com/chaunceygardiner/weewx-loopdata/internal/timespan"
	"github.com/chaunceygardiner/weewx-loopdata/internal/units"
)

// render builds the snapshot for the packet just processed. pkt is the
// normalized packet; every stored value is already in the accumulation
// unit system.
func (e *Engine) render(pkt *loop.Packet) map[string]any {
	folded := make(map[string]*accum.Accum)
	for period := range loop.WindowPeriods {
		if _, ok := e.inUse[period]; !ok {
			continue
		}
		if w, ok := e.windows.Get(period); ok {
			folded[period] = e.foldWindow(period, w)
		}
	}

	snap := make(map[string]any, len(e.specs))
	for _, f := range e.specs {
		key := f.Key
		if renamed, ok := e.renames[f.Key]; ok {
			key = renamed
		}
		switch {
		case f.IsUnitLabel():
			if u, ok := e.conv.TargetUnitFor(f.ObsType, ""); ok {
				snap[key] = e.fmtr.Label(u)
			}
		case f.Period == loop.PeriodCurrent:
			e.renderCurrent(snap, key, f, pkt)
		case f.Period == loop.PeriodTrend:
			e.renderTrend(snap, key, f)
		default:
			e.renderAggregate(snap, key, f, folded)
		}
	}
	return snap
}

// foldWindow replays a window's packets into a fresh accumulator. Windows
// hold pruned packets, so this touches only the observations in use.
func (e *Engine) foldWindow(period string, w *store.PacketWindow) *accum.Accum {
	packets := w.Packets()
	span := timespan.Span{}
	if newest, ok := w.Newest(); ok {
		span = timespan.Trailing(newest.DateTime, loop.WindowPeriods[period])
	}
	a := accum.New(span, e.accumSys)
	inUse := e.inUse[period]
	for _, p := range packets {
		addPacket(a, p, inUse)
	}
	return a
}

// addPacket folds one packet into an accumulator, restricted to the
// observation types in use for the accumulator's period.
func addPacket(a *accum.Accum, pkt *loop.Packet, inUse map[string]bool) {
	for obsType := range inUse {
		if obsType == "wind" {
			continue
		}
		if v, ok := pkt.Get(obsType); ok {
			a.AddScalar(obsType, v, pkt.DateTime, 1)
		}
	}
	if inUse["wind"] {
		a.AddWind(
			pkt.GetPtr("windSpeed"), pkt.GetPtr("windDir"),
			pkt.GetPtr("windGust"), pkt.GetPtr("windGustDir"),
			pkt.DateTime, 1,
		)
	}
}

func (e *Engine) renderCurrent(snap map[string]any, key string, f loop.FieldSpec, pkt *loop.Packet) {
	var value float64
	switch f.ObsType {
	case "dateTime":
		value = float64(pkt.DateTime)
	case "usUnits":
		value = float64(int(pkt.UnitSystem))
	default:
		v, ok := pkt.Get(f.ObsType)
		if !ok {
			return
		}
		value = v
	}
	e.emit(snap, key, f, value)
}

func (e *Engine) renderTrend(snap map[string]any, key string, f loop.FieldSpec) {
	w, ok := e.windows.Get(loop.PeriodTrend)
	if !ok || w.Len() < 2 {
		return
	}
	oldest, _ := w.Oldest()
	newest, _ := w.Newest()
	oldVal, okOld := oldest.Get(f.ObsType)
	newVal, okNew := newest.Get(f.ObsType)
	if !okOld || !okNew {
		return
	}

	if f.Format == "code" || f.Format == "desc" {
		from, ok := units.StandardUnit(e.accumSys, units.GroupPressure)
		if !ok {
			return
		}
		oldMbar, errOld := units.Convert(oldVal, from, units.Mbar)
		newMbar, errNew := units.Convert(newVal, from, units.Mbar)
		if errOld != nil || errNew != nil {
			return
		}
		code := barometerTrendCode(newMbar-oldMbar, e.trendSecs)
		if f.Format == "code" {
			snap[key] = code
		} else {
			snap[key] = e.baroDescs.Desc(code)
		}
		return
	}

	// Convert the endpoints first so offset-bearing conversions
	// (temperature) difference out correctly.
	group, grouped := units.ObsGroup(f.ObsType, "")
	if !grouped {
		e.emitConverted(snap, key, f, newVal-oldVal, "", false)
		return
	}
	from, okFrom := units.StandardUnit(e.accumSys, group)
	to, okTo := e.conv.TargetUnit(group)
	if !okFrom || !okTo {
		return
	}
	oldConv, errOld := units.Convert(oldVal, from, to)
	newConv, errNew := units.Convert(newVal, from, to)
	if errOld != nil || errNew != nil {
		return
	}
	e.emitConverted(snap, key, f, newConv-oldConv, to, true)
}

func (e *Engine) renderAggregate(snap map[string]any, key string, f loop.FieldSpec, folded map[string]*accum.Accum) {
	var a *accum.Accum
	if _, isWindow := loop.WindowPeriods[f.Period]; isWindow {
		a = folded[f.Period]
	} else {
		a = e.accums[f.Period]
	}
	if a == nil {
		return
	}
	value, ok := aggValue(a, f.ObsType, f.AggType)
	if !ok {
		return
	}
	e.emit(snap, key, f, value)
}

// aggValue extracts one aggregate from an accumulator. Aggregates the
// accumulator cannot answer (vector statistics on a scalar, anything on an
// empty bucket) report !ok and the field is silently omitted.
func aggValue(a *accum.Accum, obsType, aggType string) (float64, bool) {
	if obsType == "wind" {
		v := a.Wind
		if v == nil || !v.HasData {
			return 0, false
		}
		switch aggType {
		case "min":
			return v.Min, true
		case "mintime":
			return float64(v.MinTime), true
		case "max":
			return v.Max, true
		case "maxtime":
			return float64(v.MaxTime), true
		case "avg":
			if avg, ok := v.Avg(); ok {
				return avg, true
			}
		case "sum":
			return v.Sum, true
		case "rms":
			if rms, ok := v.RMS(); ok {
				return rms, true
			}
		case "vecavg":
			if va, ok := v.VecAvg(); ok {
				return va, true
			}
		case "vecdir":
			if vd, ok := v.VecDir(); ok {
				return vd, true
			}
		case "gustdir":
			if gd, ok := v.GustDir(); ok {
				return gd, true
			}
		}
		return 0, false
	}

	s := a.Scalars[obsType]
	if s == nil || !s.HasData {
		return 0, false
	}
	switch aggType {
	case "min":
		return s.Min, true
	case "mintime":
		return float64(s.MinTime), true
	case "max":
		return s.Max, true
	case "maxtime":
		return float64(s.MaxTime), true
	case "avg":
		if avg, ok := s.Avg(); ok {
			return avg, true
		}
	case "sum":
		return s.Sum, true
	}
	return 0, false
}

// emit converts a value from the accumulation system to the report unit
// and writes the rendition the field's format asks for.
func (e *Engine) emit(snap map[string]any, key string, f loop.FieldSpec, value float64) {
	group, grouped := units.ObsGroup(f.ObsType, f.AggType)
	if !grouped {
		e.emitConverted(snap, key, f, value, "", false)
		return
	}
	from, okFrom := units.StandardUnit(e.accumSys, group)
	to, okTo := e.conv.TargetUnit(group)
	if !okFrom || !okTo {
		return
	}
	converted, err := units.Convert(value, from, to)
	if err != nil {
		return
	}
	e.emitConverted(snap, key, f, converted, to, true)
}

// emitConverted writes a converted value under the field's format rules.
// Ungrouped observations render with the default float format and no label.
func (e *Engine) emitConverted(snap map[string]any, key string, f loop.FieldSpec, value float64, unit units.Unit, grouped bool) {
	if !grouped {
		switch f.Format {
		case "raw":
			snap[key] = value
		case "ordinal_compass":
			// Not a direction; nothing sensible to render.
		default:
			snap[key] = e.fmtr.Format(value, "")
		}
		return
	}

	if unit == units.UnixEpoch {
		if f.Format == "raw" {
			snap[key] = int64(value)
		} else {
			snap[key] = e.fmtr.FormatTimestamp(int64(value))
		}
		return
	}

	switch f.Format {
	case "raw":
		if unit == units.CountUnit {
			snap[key] = int64(value)
		} else {
			snap[key] = value
		}
	case "formatted":
		snap[key] = e.fmtr.Format(value, unit)
	case "ordinal_compass":
		if unit == units.DegreeCompass {
			snap[key] = units.Ordinal(value)
		}
	default:
		snap[key] = e.fmtr.FormatWithLabel(value, unit)
	}
}
