package source

import (
	"math"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/chaunceygardiner/weewx-loopdata/internal/common"
	"github.com/chaunceygardiner/weewx-loopdata/internal/loop"
	"github.com/chaunceygardiner/weewx-loopdata/internal/scheduler"
	"github.com/chaunceygardiner/weewx-loopdata/internal/units"
)

// oscillator produces a sinusoid around an average, the shape most
// weather observations follow over a day.
type oscillator struct {
	average   float64
	amplitude float64
	period    float64 // seconds
	phaseLag  float64 // seconds
}

func (o oscillator) value(t int64) float64 {
	return o.average + o.amplitude*math.Sin(2*math.Pi*(float64(t)-o.phaseLag)/o.period)
}

const secondsPerDay = 86400

// SimulatorConfig controls the synthetic station.
type SimulatorConfig struct {
	Interval time.Duration
	Seed     int64
}

// Simulator emits a plausible diurnal weather cycle in US units: coldest
// before dawn, peak sun at noon, wind that wanders, the occasional rain
// shower.
type Simulator struct {
	cfg   SimulatorConfig
	sink  Sink
	sched *scheduler.Scheduler
	rng   *rand.Rand
	now   func() time.Time

	outTemp     oscillator
	inTemp      oscillator
	barometer   oscillator
	outHumidity oscillator
	windSpeed   oscillator

	windDir     float64
	showerTicks int
	showerRate  float64 // inches per tick
}

// NewSimulator creates a simulator emitting one packet per interval.
func NewSimulator(cfg SimulatorConfig, sink Sink) *Simulator {
	if cfg.Interval <= 0 {
		cfg.Interval = 2 * time.Second
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	return &Simulator{
		cfg:  cfg,
		sink: sink,
		rng:  rand.New(rand.NewSource(seed)),
		now:  time.Now,

		outTemp:     oscillator{average: 61, amplitude: 12, period: secondsPerDay, phaseLag: 16 * 3600},
		inTemp:      oscillator{average: 68, amplitude: 1.5, period: secondsPerDay, phaseLag: 16 * 3600},
		barometer:   oscillator{average: 30.1, amplitude: 0.25, period: 4 * secondsPerDay, phaseLag: 0},
		outHumidity: oscillator{average: 65, amplitude: 20, period: secondsPerDay, phaseLag: 4 * 3600},
		windSpeed:   oscillator{average: 7, amplitude: 4, period: 6 * 3600, phaseLag: 0},

		windDir: 270,
	}
}

// Start schedules packet emission at the configured interval.
func (s *Simulator) Start() error {
	s.sched = scheduler.New("simulator", s.cfg.Interval, func() {
		s.sink(s.tick(s.now().Unix()))
	})
	return s.sched.Start()
}

// Stop cancels any future emissions.
func (s *Simulator) Stop() {
	if s.sched != nil {
		s.sched.Stop()
	}
}

// tick builds the packet for one instant.
func (s *Simulator) tick(now int64) *loop.Packet {
	temp := s.outTemp.value(now) + s.noise(0.5)
	humidity := common.Clamp(s.outHumidity.value(now)+s.noise(2), 0, 100)
	speed := math.Max(0, s.windSpeed.value(now)+s.noise(1.5))
	gust := speed * (1.1 + 0.3*s.rng.Float64())

	s.windDir = math.Mod(s.windDir+s.noise(8)+360, 360)
	gustDir := math.Mod(s.windDir+s.noise(5)+360, 360)

	rain, rainRate := s.shower()

	obs := map[string]float64{
		"outTemp":     common.RoundTo(temp, 1),
		"inTemp":      common.RoundTo(s.inTemp.value(now)+s.noise(0.2), 1),
		"barometer":   s.barometer.value(now) + s.noise(0.005),
		"outHumidity": common.RoundTo(humidity, 1),
		"windSpeed":   common.RoundTo(speed, 1),
		"windDir":     common.RoundTo(s.windDir, 1),
		"windGust":    common.RoundTo(gust, 1),
		"windGustDir": common.RoundTo(gustDir, 1),
		"rain":        rain,
		"rainRate":    rainRate,
		"dewpoint":    common.RoundTo(dewpointF(temp, humidity), 1),
		"windchill":   common.RoundTo(windchillF(temp, speed), 1),
		"heatindex":   common.RoundTo(heatindexF(temp, humidity), 1),
		"radiation":   solarRadiation(now),
		"UV":          common.RoundTo(solarRadiation(now)/100, 1),
	}

	return &loop.Packet{
		DateTime:   now,
		UnitSystem: units.US,
		TraceID:    uuid.NewString(),
		Obs:        obs,
	}
}

// shower advances the rain state machine. Showers start rarely, last a
// few minutes, and rain at a steady per-tick rate.
func (s *Simulator) shower() (rain, rate float64) {
	if s.showerTicks == 0 {
		if s.rng.Float64() < 0.005 {
			s.showerTicks = 60 + s.rng.Intn(240)
			s.showerRate = 0.001 + 0.004*s.rng.Float64()
		}
		return 0, 0
	}
	s.showerTicks--
	rain = s.showerRate
	rate = rain * (3600 / s.cfg.Interval.Seconds())
	return rain, rate
}

func (s *Simulator) noise(scale float64) float64 {
	return (s.rng.Float64() - 0.5) * 2 * scale
}

// solarRadiation approximates insolation: zero before 06:00 and after
// 18:00 local, peaking near 950 W/m2 at noon.
func solarRadiation(now int64) float64 {
	t := time.Unix(now, 0)
	secsIntoDay := float64(t.Hour()*3600 + t.Minute()*60 + t.Second())
	v := 950 * math.Sin(2*math.Pi*(secsIntoDay-21600)/secondsPerDay)
	if v < 0 {
		return 0
	}
	return math.Round(v)
}

// dewpointF applies the Magnus approximation.
func dewpointF(tempF, humidity float64) float64 {
	if humidity <= 0 {
		humidity = 0.001
	}
	tc := (tempF - 32) / 1.8
	gamma := math.Log(humidity/100) + 17.625*tc/(243.04+tc)
	td := 243.04 * gamma / (17.625 - gamma)
	return td*1.8 + 32
}

// windchillF applies the NWS wind chill formula, defined for cold,
// windy conditions only.
func windchillF(tempF, windMph float64) float64 {
	if tempF > 50 || windMph <= 3 {
		return tempF
	}
	v := math.Pow(windMph, 0.16)
	return 35.74 + 0.6215*tempF - 35.75*v + 0.4275*tempF*v
}

// heatindexF applies the Steadman approximation used below the Rothfusz
// regression's range.
func heatindexF(tempF, humidity float64) float64 {
	hi := 0.5 * (tempF + 61 + (tempF-68)*1.2 + humidity*0.094)
	if hi < tempF {
		return tempF
	}
	return hi
}
