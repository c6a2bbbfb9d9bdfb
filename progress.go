package tilescene

import (
	"math"
)

// ProgressEvent is emitted on every change of the request counters.
type ProgressEvent struct {
	Active    int
	Queued    int
	Completed int
	Percent   int
}

// Progress aggregates request accounting across all tiles of a layer.
type Progress struct {
	active    int
	queued    int
	completed int

	metrics    *Metrics
	onProgress []func(ProgressEvent)
	onComplete []func()
}

func newProgress(m *Metrics) *Progress {
	return &Progress{metrics: m}
}

func (p *Progress) OnProgress(fn func(ProgressEvent)) { p.onProgress = append(p.onProgress, fn) }
func (p *Progress) OnComplete(fn func())              { p.onComplete = append(p.onComplete, fn) }

func (p *Progress) Snapshot() ProgressEvent {
	return ProgressEvent{
		Active:    p.active,
		Queued:    p.queued,
		Completed: p.completed,
		Percent:   percent(p.active, p.queued, p.completed),
	}
}

func percent(active, queued, completed int) int {
	total := active + queued + completed
	if total == 0 {
		return 100
	}
	return int(math.Round(float64(completed) / float64(total) * 100))
}

// set records new counters, emits a progress event and, when the last
// outstanding request has settled, a completion event. It reports whether
// completion fired.
func (p *Progress) set(active, queued int, finished bool) bool {
	p.active, p.queued = active, queued
	if finished {
		p.completed++
		p.metrics.RequestsDone.Inc()
	}
	p.metrics.RequestsActive.Set(float64(active))
	p.metrics.RequestsQueued.Set(float64(queued))

	ev := p.Snapshot()
	for _, fn := range p.onProgress {
		fn(ev)
	}

	if active+queued > 0 {
		return false
	}
	p.completed = 0
	for _, fn := range p.onComplete {
		fn()
	}
	return true
}
