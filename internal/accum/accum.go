// Package accum maintains running statistics over a time span: per-type
// scalar stats plus a vector accumulator for wind.
package accum

import (
	"math"

	"github.com/chaunceygardiner/weewx-loopdata/internal/timespan"
	"github.com/chaunceygardiner/weewx-loopdata/internal/units"
)

// ScalarStats holds running statistics for a single observation type.
// Min/Max/Last are meaningful only when HasData is true; Avg only when
// SumTime is non-zero. Fields are exported for checkpointing.
type ScalarStats struct {
	Min      float64 `json:"min"`
	MinTime  int64   `json:"mintime"`
	Max      float64 `json:"max"`
	MaxTime  int64   `json:"maxtime"`
	Last     float64 `json:"last"`
	LastTime int64   `json:"lasttime"`
	Sum      float64 `json:"sum"`
	Count    int64   `json:"count"`
	WSum     float64 `json:"wsum"`
	SumTime  float64 `json:"sumtime"`
	HasData  bool    `json:"has_data"`
}

// AddHiLo folds a timestamped value into the min/max/last statistics.
func (s *ScalarStats) AddHiLo(val float64, ts int64) {
	if !s.HasData || val < s.Min {
		s.Min = val
		s.MinTime = ts
	}
	if !s.HasData || val > s.Max {
		s.Max = val
		s.MaxTime = ts
	}
	if !s.HasData || ts >= s.LastTime {
		s.Last = val
		s.LastTime = ts
	}
	s.HasData = true
}

// AddSum folds a value into the sum statistics with the given weight.
func (s *ScalarStats) AddSum(val, weight float64) {
	s.Sum += val
	s.Count++
	s.WSum += weight * val
	s.SumTime += weight
}

// Avg returns the weighted average.
func (s *ScalarStats) Avg() (float64, bool) {
	if s.SumTime == 0 {
		return 0, false
	}
	return s.WSum / s.SumTime, true
}

// VecStats holds running statistics for the wind vector. Max tracks the
// gust high with its direction; the x/y sums carry the vector average.
type VecStats struct {
	Min        float64 `json:"min"`
	MinTime    int64   `json:"mintime"`
	Max        float64 `json:"max"`
	MaxTime    int64   `json:"maxtime"`
	MaxDir     float64 `json:"max_dir"`
	MaxDirSet  bool    `json:"max_dir_set"`
	Last       float64 `json:"last"`
	LastTime   int64   `json:"lasttime"`
	LastDir    float64 `json:"last_dir"`
	LastDirSet bool    `json:"last_dir_set"`
	Sum        float64 `json:"sum"`
	Count      int64   `json:"count"`
	WSum       float64 `json:"wsum"`
	SumTime    float64 `json:"sumtime"`
	SquareSum  float64 `json:"squaresum"`
	WSquareSum float64 `json:"wsquaresum"`
	XSum       float64 `json:"xsum"`
	YSum       float64 `json:"ysum"`
	DirSumTime float64 `json:"dirsumtime"`
	HasData    bool    `json:"has_data"`
}

// AddHiLo folds a timestamped speed/direction pair into the extremes.
// dir may be nil when the station reports no direction.
func (v *VecStats) AddHiLo(speed float64, dir *float64, ts int64) {
	if !v.HasData || speed < v.Min {
		v.Min = speed
		v.MinTime = ts
	}
	if !v.HasData || speed > v.Max {
		v.Max = speed
		v.MaxTime = ts
		if dir != nil {
			v.MaxDir = *dir
			v.MaxDirSet = true
		} else {
			v.MaxDirSet = false
		}
	}
	if !v.HasData || ts >= v.LastTime {
		v.Last = speed
		v.LastTime = ts
		if dir != nil {
			v.LastDir = *dir
			v.LastDirSet = true
		}
	}
	v.HasData = true
}

// AddSum folds a speed/direction pair into the sums. Direction-less
// readings still count toward the direction time when the air is calm.
func (v *VecStats) AddSum(speed float64, dir *float64, weight float64) {
	v.Sum += speed
	v.Count++
	v.WSum += weight * speed
	v.SumTime += weight
	v.SquareSum += speed * speed
	v.WSquareSum += weight * speed * speed
	if dir != nil {
		rad := (90.0 - *dir) * math.Pi / 180.0
		v.XSum += weight * speed * math.Cos(rad)
		v.YSum += weight * speed * math.Sin(rad)
	}
	if dir != nil || speed == 0 {
		v.DirSumTime += weight
	}
}

// Avg returns the weighted average speed.
func (v *VecStats) Avg() (float64, bool) {
	if v.SumTime == 0 {
		return 0, false
	}
	return v.WSum / v.SumTime, true
}

// RMS returns the root-mean-square speed.
func (v *VecStats) RMS() (float64, bool) {
	if v.SumTime == 0 {
		return 0, false
	}
	return math.Sqrt(v.WSquareSum / v.SumTime), true
}

// VecAvg returns the magnitude of the vector-averaged wind.
func (v *VecStats) VecAvg() (float64, bool) {
	if v.DirSumTime == 0 {
		return 0, false
	}
	return math.Sqrt(v.XSum*v.XSum+v.YSum*v.YSum) / v.DirSumTime, true
}

// VecDir returns the compass bearing of the vector-averaged wind, falling
// back to the last seen direction when the vector sum is degenerate.
func (v *VecStats) VecDir() (float64, bool) {
	if v.DirSumTime != 0 && (v.XSum != 0 || v.YSum != 0) {
		deg := 90.0 - math.Atan2(v.YSum, v.XSum)*180.0/math.Pi
		if deg < 0 {
			deg += 360.0
		}
		return deg, true
	}
	if v.LastDirSet {
		return v.LastDir, true
	}
	return 0, false
}

// GustDir returns the direction recorded at the gust maximum.
func (v *VecStats) GustDir() (float64, bool) {
	if !v.MaxDirSet {
		return 0, false
	}
	return v.MaxDir, true
}

// Accum aggregates packets over one span. All values inside an Accum are
// expressed in one unit system; the caller converts packets beforehand.
type Accum struct {
	Span       timespan.Span           `json:"span"`
	UnitSystem units.System            `json:"unit_system"`
	Scalars    map[string]*ScalarStats `json:"scalars"`
	Wind       *VecStats               `json:"wind,omitempty"`
}

// New creates an empty accumulator for the span.
func New(span timespan.Span, sys units.System) *Accum {
	return &Accum{
		Span:       span,
		UnitSystem: sys,
		Scalars:    make(map[string]*ScalarStats),
	}
}

// Scalar returns the stats bucket for an observation type, creating it on
// first use.
func (a *Accum) Scalar(obsType string) *ScalarStats {
	s, ok := a.Scalars[obsType]
	if !ok {
		s = &ScalarStats{}
		a.Scalars[obsType] = s
	}
	return s
}

// AddScalar folds one observation value into the accumulator.
func (a *Accum) AddScalar(obsType string, val float64, ts int64, weight float64) {
	s := a.Scalar(obsType)
	s.AddHiLo(val, ts)
	s.AddSum(val, weight)
}

// AddWind folds the wind observations of one packet into the vector
// accumulator. The gust pair feeds the extremes; the sustained pair feeds
// both extremes and sums.
func (a *Accum) AddWind(speed, dir, gust, gustDir *float64, ts int64, weight float64) {
	if speed == nil {
		return
	}
	if a.Wind == nil {
		a.Wind = &VecStats{}
	}
	hiSpeed := *speed
	hiDir := dir
	if gust != nil {
		hiSpeed = *gust
		if gustDir != nil {
			hiDir = gustDir
		}
	}
	a.Wind.AddHiLo(hiSpeed, hiDir, ts)
	a.Wind.AddHiLo(*speed, dir, ts)
	a.Wind.AddSum(*speed, dir, weight)
}
