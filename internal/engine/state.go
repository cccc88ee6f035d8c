package engine

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/chaunceygardiner/weewx-loopdata/internal/accum"
	"github.com/chaunceygardiner/weewx-loopdata/internal/units"
)

// checkpointState is the on-disk form of the engine's span accumulators.
// Window periods rebuild from live packets within minutes and are not
// persisted.
type checkpointState struct {
	SavedAt        int64                   `json:"saved_at"`
	UnitSystem     units.System            `json:"unit_system"`
	LastPacketTime int64                   `json:"last_packet_time"`
	Accums         map[string]*accum.Accum `json:"accums"`
}

// MarshalState serializes the span accumulators so a restart can resume
// day/week/month/year/rainyear/alltime aggregates without replaying
// history.
func (e *Engine) MarshalState() ([]byte, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	st := checkpointState{
		SavedAt:        time.Now().Unix(),
		UnitSystem:     e.accumSys,
		LastPacketTime: e.lastPacketTime,
		Accums:         e.accums,
	}
	data, err := json.Marshal(st)
	if err != nil {
		return nil, fmt.Errorf("marshal checkpoint: %w", err)
	}
	return data, nil
}

// RestoreState loads accumulators saved by MarshalState. Accumulators
// whose span does not contain now have rolled over while the process was
// down and are discarded; periods no longer in use are ignored. Call
// before Run starts feeding packets.
func (e *Engine) RestoreState(data []byte, now int64) error {
	var st checkpointState
	if err := json.Unmarshal(data, &st); err != nil {
		return fmt.Errorf("decode checkpoint: %w", err)
	}
	if st.UnitSystem != e.accumSys {
		return fmt.Errorf("checkpoint unit system %s does not match %s", st.UnitSystem, e.accumSys)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	restored := 0
	for period, a := range st.Accums {
		if _, ok := e.inUse[period]; !ok {
			continue
		}
		if a == nil || !a.Span.Contains(now) {
			continue
		}
		if a.Scalars == nil {
			a.Scalars = make(map[string]*accum.ScalarStats)
		}
		e.accums[period] = a
		restored++
	}
	if st.LastPacketTime > e.lastPacketTime {
		e.lastPacketTime = st.LastPacketTime
	}
	log.Printf("engine: restored %d accumulator(s) from checkpoint saved %s",
		restored, time.Unix(st.SavedAt, 0).Format(time.RFC3339))
	return nil
}
