// Package source produces loop packets. The simulator generates a
// synthetic station for development and testing; live stations post
// packets through the HTTP API instead.
package source

import "github.com/chaunceygardiner/weewx-loopdata/internal/loop"

// Sink receives each packet a source emits.
type Sink func(*loop.Packet)

// Source emits loop packets until stopped.
type Source interface {
	Start() error
	Stop()
}
