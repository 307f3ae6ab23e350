package pipeline

import (
	"context"
	"errors"
	"sync"

	"github.com/ha1tch/designdoc/pkg/design"
)

// ErrSuperseded is returned for a run that finished after a newer run had
// already published. Its result is not shown.
var ErrSuperseded = errors.New("superseded by a newer run")

// Workspace is the display target shared by runs: the canonical text and
// the last export. Every run takes a ticket when it starts and publishes
// only if no later ticket has published first, so a display never mixes
// two runs. The HTTP server keeps one behind its /api/last routes.
type Workspace struct {
	mu        sync.Mutex
	issued    uint64
	published uint64
	canonical string
	last      *Result
}

// Snapshot is the published state of a workspace.
type Snapshot struct {
	Ticket    uint64
	Canonical string
	Last      *Result
}

func (w *Workspace) begin() uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.issued++
	return w.issued
}

// publish applies fn under the lock if ticket is not older than the last
// published run.
func (w *Workspace) publish(ticket uint64, fn func()) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if ticket < w.published {
		return false
	}
	w.published = ticket
	fn()
	return true
}

// Snapshot returns the current display.
func (w *Workspace) Snapshot() Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()
	return Snapshot{Ticket: w.published, Canonical: w.canonical, Last: w.last}
}

// Generate serializes doc and displays the text.
func (w *Workspace) Generate(p *Pipeline, doc design.Document) (string, error) {
	ticket := w.begin()
	text, err := p.Generate(doc)
	if err != nil {
		return "", err
	}
	if !w.publish(ticket, func() { w.canonical = text }) {
		return text, ErrSuperseded
	}
	return text, nil
}

// Export runs the pipeline on text. On success the normalized text and
// the result are displayed together. On failure the display is left as
// it was.
func (w *Workspace) Export(ctx context.Context, p *Pipeline, text string) (*Result, error) {
	ticket := w.begin()
	res, err := p.Export(ctx, text)
	if err != nil {
		return nil, err
	}
	if !w.publish(ticket, func() {
		w.canonical = res.Canonical
		w.last = res
	}) {
		p.log().Debug("discarding superseded export", "ticket", ticket)
		return res, ErrSuperseded
	}
	return res, nil
}
