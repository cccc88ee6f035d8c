package engine

// Barometer trend classification. Deltas are normalized to millibars over
// three hours before being matched against the shipping-forecast bands.

// barometerTrendSecs is the reference window the thresholds are defined
// over; shorter or longer observed windows are scaled to it.
const barometerTrendSecs = 10800.0

// BaroTrendDescs holds the display strings for the nine trend codes,
// indexed code+4 (-4 = Falling Very Rapidly up to +4 = Rising Very Rapidly).
type BaroTrendDescs [9]string

// DefaultBaroTrendDescs returns the stock descriptions.
func DefaultBaroTrendDescs() BaroTrendDescs {
	return BaroTrendDescs{
		"Falling Very Rapidly",
		"Falling Quickly",
		"Falling",
		"Falling Slowly",
		"Steady",
		"Rising Slowly",
		"Rising",
		"Rising Quickly",
		"Rising Very Rapidly",
	}
}

// baroDescOverrideKeys maps configuration keys to trend codes.
var baroDescOverrideKeys = map[string]int{
	"FallingVeryRapidly": -4,
	"FallingQuickly":     -3,
	"Falling":            -2,
	"FallingSlowly":      -1,
	"Steady":             0,
	"RisingSlowly":       1,
	"Rising":             2,
	"RisingQuickly":      3,
	"RisingVeryRapidly":  4,
}

// ConstructBaroTrendDescs merges configured overrides into the defaults.
// Unknown keys are ignored.
func ConstructBaroTrendDescs(overrides map[string]string) BaroTrendDescs {
	descs := DefaultBaroTrendDescs()
	for key, text := range overrides {
		if code, ok := baroDescOverrideKeys[key]; ok {
			descs[code+4] = text
		}
	}
	return descs
}

// Desc returns the description for a trend code.
func (d BaroTrendDescs) Desc(code int) string {
	if code < -4 || code > 4 {
		return ""
	}
	return d[code+4]
}

// barometerTrendCode classifies a pressure delta of deltaMbar millibars.
// trendSecs is the configured trend window; deltas over longer or shorter
// windows are normalized to the three-hour reference the bands are
// defined over.
func barometerTrendCode(deltaMbar float64, trendSecs int64) int {
	if trendSecs <= 0 {
		return 0
	}
	scaled := deltaMbar * barometerTrendSecs / float64(trendSecs)
	switch {
	case scaled > 6.0:
		return 4
	case scaled > 3.5:
		return 3
	case scaled > 1.5:
		return 2
	case scaled >= 0.1:
		return 1
	case scaled > -0.1:
		return 0
	case scaled >= -1.5:
		return -1
	case scaled >= -3.5:
		return -2
	case scaled >= -6.0:
		return -3
	default:
		return -4
	}
}
