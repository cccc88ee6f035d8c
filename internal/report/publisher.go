package report

import (
	"context"
	"log"
)

// Publisher fans a rendered snapshot out to the loop-data file and the
// optional rsync mirror.
type Publisher struct {
	writer  *Writer
	rsyncer *Rsyncer
}

// NewPublisher bundles a writer with an optional rsyncer. rsyncer may be
// nil when no remote mirror is configured.
func NewPublisher(w *Writer, r *Rsyncer) *Publisher {
	return &Publisher{writer: w, rsyncer: r}
}

// Publish writes the snapshot and mirrors it. Failures are logged rather
// than returned; one bad write must not stall the packet loop.
func (p *Publisher) Publish(ctx context.Context, snap map[string]any, pktTime int64) {
	if err := p.writer.Write(snap); err != nil {
		log.Printf("report: write loop data: %v", err)
		return
	}
	if p.rsyncer != nil {
		if err := p.rsyncer.Upload(ctx, pktTime); err != nil {
			log.Printf("report: %v", err)
		}
	}
}
