// Package store keeps the trailing packet windows the continuous periods
// (trend, 2m, 10m, 24h) are computed from.
package store

import (
	"sync"

	"github.com/chaunceygardiner/weewx-loopdata/internal/loop"
)

// PacketWindow holds a time-ordered run of pruned loop packets, trimmed to
// a maximum age on every insert.
type PacketWindow struct {
	packets []*loop.Packet

	// maxAge is the window length in seconds.
	maxAge int64
}

// NewPacketWindow creates a window of the given length in seconds.
func NewPacketWindow(maxAge int64) *PacketWindow {
	return &PacketWindow{maxAge: maxAge}
}

// Add appends a packet and drops packets that have aged out relative to
// the new packet's time. A packet exactly maxAge old is dropped: the
// window keeps dateTime strictly greater than now-maxAge.
func (w *PacketWindow) Add(pkt *loop.Packet) {
	w.packets = append(w.packets, pkt)
	cutoff := pkt.DateTime - w.maxAge
	i := 0
	for ; i < len(w.packets); i++ {
		if w.packets[i].DateTime > cutoff {
			break
		}
	}
	if i > 0 {
		w.packets = w.packets[i:]
	}
}

// Len returns the number of packets currently in the window.
func (w *PacketWindow) Len() int {
	return len(w.packets)
}

// Oldest returns the oldest packet in the window.
func (w *PacketWindow) Oldest() (*loop.Packet, bool) {
	if len(w.packets) == 0 {
		return nil, false
	}
	return w.packets[0], true
}

// Newest returns the most recent packet in the window.
func (w *PacketWindow) Newest() (*loop.Packet, bool) {
	if len(w.packets) == 0 {
		return nil, false
	}
	return w.packets[len(w.packets)-1], true
}

// Packets returns the window's packets oldest-first. The slice is shared;
// callers must not mutate it.
func (w *PacketWindow) Packets() []*loop.Packet {
	return w.packets
}

// WindowStore is a concurrency-safe registry of packet windows keyed by
// period name.
type WindowStore struct {
	mu      sync.RWMutex
	windows map[string]*PacketWindow
}

// NewWindowStore creates an empty registry.
func NewWindowStore() *WindowStore {
	return &WindowStore{windows: make(map[string]*PacketWindow)}
}

// Ensure returns the window for a period, creating it with the given
// length on first use.
func (s *WindowStore) Ensure(period string, maxAge int64) *PacketWindow {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.windows[period]
	if !ok {
		w = NewPacketWindow(maxAge)
		s.windows[period] = w
	}
	return w
}

// Get returns the window for a period if one exists.
func (s *WindowStore) Get(period string) (*PacketWindow, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	w, ok := s.windows[period]
	return w, ok
}

// Periods returns the period names with live windows.
func (s *WindowStore) Periods() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.windows))
	for name := range s.windows {
		names = append(names, name)
	}
	return names
}
