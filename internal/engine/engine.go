// Package engine routes loop packets into the period accumulators and
// packet windows, and renders the formatted snapshot after every packet.
package engine

import (
	"context"
	"errors"
	"log"
	"math"
	"sync"
	"sync/atomic"

	"github.com/chaunceygardiner/weewx-loopdata/internal/accum"
	"github.com/chaunceygardiner/weewx-loopdata/internal/loop"
	"github.com/chaunceygardiner/weewx-loopdata/internal/store"
	"github.com/chaunceygardiner/weewx-loopdata/internal/timespan"
	"github.com/chaunceygardiner/weewx-loopdata/internal/units"
)

const (
	defaultQueueSize = 128
	defaultTrendSecs = 10800

	// maxWindrunGapSecs caps the packet gap credited as wind travel time,
	// so a source outage does not book hours of phantom wind run.
	maxWindrunGapSecs = 300
)

// Config carries everything the engine needs from the configuration.
type Config struct {
	// Fields are the dotted field specifiers to report.
	Fields []string
	// Renames maps field keys to replacement snapshot keys.
	Renames map[string]string

	// ReportSystem is the unit system values are rendered in; AccumSystem
	// is the system packets are normalized to before accumulation.
	ReportSystem units.System
	AccumSystem  units.System

	// Per-group and per-unit formatting overrides.
	UnitGroups    map[string]string
	StringFormats map[string]string
	Labels        map[string]string

	WeekStart     int // 0=Monday .. 6=Sunday
	RainYearStart int // month 1-12
	TrendSecs     int64

	BaroTrendDescs map[string]string

	QueueSize int

	// OnSnapshot runs on the worker goroutine after each snapshot is
	// published; the report writer hangs off it.
	OnSnapshot func(snapshot map[string]any, pkt *loop.Packet)
}

// Engine owns all aggregation state. A single worker goroutine consumes
// the bounded queue; all accumulator access happens on that goroutine.
type Engine struct {
	specs     []loop.FieldSpec
	inUse     map[string]map[string]bool
	renames   map[string]string
	conv      *units.Converter
	fmtr      *units.Formatter
	accumSys  units.System
	weekStart int
	rainStart int
	trendSecs int64
	baroDescs BaroTrendDescs

	windows *store.WindowStore
	accums  map[string]*accum.Accum

	lastPacketTime int64

	queue   chan *loop.Packet
	dropped atomic.Int64

	onSnapshot func(map[string]any, *loop.Packet)

	mu       sync.RWMutex
	snapshot map[string]any
}

// New builds an engine from the configuration. Invalid field specifiers
// are logged and dropped; an empty field list is an error.
func New(cfg Config) (*Engine, error) {
	specs, bad := loop.ParseFields(cfg.Fields)
	for spec, err := range bad {
		log.Printf("engine: dropping field %q: %v", spec, err)
	}
	if len(specs) == 0 {
		return nil, errors.New("no valid fields configured")
	}

	queueSize := cfg.QueueSize
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}
	trendSecs := cfg.TrendSecs
	if trendSecs <= 0 {
		trendSecs = defaultTrendSecs
	}
	rainStart := cfg.RainYearStart
	if rainStart < 1 || rainStart > 12 {
		rainStart = 1
	}
	weekStart := cfg.WeekStart
	if weekStart < 0 || weekStart > 6 {
		weekStart = 6
	}

	e := &Engine{
		specs:      specs,
		inUse:      loop.ObsInUse(specs),
		renames:    cfg.Renames,
		conv:       units.NewConverter(cfg.ReportSystem, cfg.UnitGroups),
		fmtr:       units.NewFormatter(cfg.StringFormats, cfg.Labels),
		accumSys:   cfg.AccumSystem,
		weekStart:  weekStart,
		rainStart:  rainStart,
		trendSecs:  trendSecs,
		baroDescs:  ConstructBaroTrendDescs(cfg.BaroTrendDescs),
		windows:    store.NewWindowStore(),
		accums:     make(map[string]*accum.Accum),
		queue:      make(chan *loop.Packet, queueSize),
		onSnapshot: cfg.OnSnapshot,
	}

	if _, ok := e.inUse[loop.PeriodTrend]; ok {
		e.windows.Ensure(loop.PeriodTrend, e.trendSecs)
	}
	for period, secs := range loop.WindowPeriods {
		if _, ok := e.inUse[period]; ok {
			e.windows.Ensure(period, secs)
		}
	}

	return e, nil
}

// Enqueue hands a packet to the worker. When the queue is full the oldest
// queued packet is evicted: loop data is superseded by newer data.
func (e *Engine) Enqueue(pkt *loop.Packet) {
	for {
		select {
		case e.queue <- pkt:
			return
		default:
		}
		select {
		case stale := <-e.queue:
			n := e.dropped.Add(1)
			log.Printf("engine: queue full, dropped packet dateTime=%d (total dropped %d)", stale.DateTime, n)
		default:
		}
	}
}

// Dropped reports how many packets have been evicted from the queue.
func (e *Engine) Dropped() int64 {
	return e.dropped.Load()
}

// Run consumes the queue until the context is canceled. Packets are
// processed by this one goroutine; readers see state through e.mu.
func (e *Engine) Run(ctx context.Context) error {
	log.Printf("engine: processing loop packets")
	for {
		select {
		case <-ctx.Done():
			log.Printf("engine: stopping")
			return ctx.Err()
		case pkt := <-e.queue:
			e.process(pkt)
		}
	}
}

// Snapshot returns a copy of the most recently published snapshot.
func (e *Engine) Snapshot() map[string]any {
	e.mu.RLock()
	defer e.mu.RUnlock()

	snap := make(map[string]any, len(e.snapshot))
	for k, v := range e.snapshot {
		snap[k] = v
	}
	return snap
}

// process folds one packet into all aggregation state and publishes the
// resulting snapshot.
func (e *Engine) process(pkt *loop.Packet) {
	normalized := pkt.ConvertTo(e.accumSys)
	if normalized == pkt {
		normalized = pkt.Clone()
	}

	e.mu.Lock()
	e.addWindrun(normalized)

	for period := range e.inUse {
		switch period {
		case loop.PeriodCurrent:
			// Read straight off the packet at render time.
		case loop.PeriodTrend:
			if w, ok := e.windows.Get(loop.PeriodTrend); ok {
				w.Add(normalized.Prune(e.inUse[loop.PeriodTrend]))
			}
		case loop.Period2m, loop.Period10m, loop.Period24h:
			if w, ok := e.windows.Get(period); ok {
				w.Add(normalized.Prune(e.inUse[period]))
			}
		default:
			e.accumulate(period, normalized)
		}
	}

	snapshot := e.render(normalized)
	e.snapshot = snapshot
	e.mu.Unlock()

	if e.onSnapshot != nil {
		e.onSnapshot(snapshot, pkt)
	}
}

// addWindrun derives the wind-run distance observations for the interval
// since the previous packet and folds them into the packet.
func (e *Engine) addWindrun(pkt *loop.Packet) {
	prev := e.lastPacketTime
	e.lastPacketTime = pkt.DateTime

	speed, ok := pkt.Get("windSpeed")
	if !ok || speed <= 0 || prev == 0 {
		return
	}
	dt := pkt.DateTime - prev
	if dt <= 0 || dt > maxWindrunGapSecs {
		return
	}
	dist := windrunIncrement(e.accumSys, speed, dt)
	pkt.Obs["windrun"] = dist
	if dir, ok := pkt.Get("windDir"); ok {
		pkt.Obs["windrun_"+units.Ordinal(dir)] = dist
	}
}

// windrunIncrement converts a sustained speed held for dt seconds into
// distance in the system's distance unit.
func windrunIncrement(sys units.System, speed float64, dt int64) float64 {
	if sys == units.MetricWX {
		// m/s over dt seconds, reported in km.
		return speed * float64(dt) / 1000.0
	}
	// mph or km/h over dt seconds, reported in miles or km.
	return speed * float64(dt) / 3600.0
}

// accumulate routes a packet into the live accumulator for a span period,
// rolling the accumulator over when the packet falls outside its span.
func (e *Engine) accumulate(period string, pkt *loop.Packet) {
	a := e.accums[period]
	if a == nil || !a.Span.Contains(pkt.DateTime) {
		if a != nil {
			log.Printf("engine: %s span ended, starting fresh accumulator at %d", period, pkt.DateTime)
		}
		a = accum.New(e.spanFor(period, pkt.DateTime), e.accumSys)
		e.accums[period] = a
	}
	addPacket(a, pkt, e.inUse[period])
}

// spanFor computes the span a period assigns to a packet time.
func (e *Engine) spanFor(period string, ts int64) timespan.Span {
	switch period {
	case loop.PeriodHour:
		return timespan.Hour(ts)
	case loop.PeriodDay:
		return timespan.Day(ts)
	case loop.PeriodWeek:
		return timespan.Week(ts, e.weekStart)
	case loop.PeriodMonth:
		return timespan.Month(ts)
	case loop.PeriodYear:
		return timespan.Year(ts)
	case loop.PeriodRainYear:
		return timespan.RainYear(ts, e.rainStart)
	case loop.PeriodAllTime:
		return timespan.Span{Start: 0, Stop: math.MaxInt64}
	}
	return timespan.Span{}
}
