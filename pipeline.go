package tilescene

import (
	"context"
	"slices"

	"github.com/google/uuid"
)

type PipelineOptions struct {
	// MaxActive bounds concurrent tile fetches; 0 means 6.
	MaxActive int
	// Spawner runs fetches; nil means GoSpawner.
	Spawner Spawner
}

type pendingRequest struct {
	id        uuid.UUID
	tile      *Tile
	url       string
	ctx       context.Context
	cancel    context.CancelFunc
	started   bool
	cancelled bool
}

// Pipeline turns tile enter and exit signals into fetches, builds and
// scene updates. Fetches run through the spawner; everything else runs on
// the layer's loop.
type Pipeline struct {
	c         *Context
	content   Content
	spawn     Spawner
	maxActive int
	progress  *Progress

	base  context.Context
	stop  context.CancelFunc
	live  map[uuid.UUID]*pendingRequest
	queue []*pendingRequest
}

func NewPipeline(c *Context, content Content, opts PipelineOptions) *Pipeline {
	if opts.MaxActive <= 0 {
		opts.MaxActive = 6
	}
	if opts.Spawner == nil {
		opts.Spawner = GoSpawner
	}
	base, stop := context.WithCancel(context.Background())
	return &Pipeline{
		c:         c,
		content:   content,
		spawn:     opts.Spawner,
		maxActive: opts.MaxActive,
		progress:  newProgress(c.Metrics),
		base:      base,
		stop:      stop,
		live:      make(map[uuid.UUID]*pendingRequest),
	}
}

func (p *Pipeline) Progress() *Progress { return p.progress }
func (p *Pipeline) Active() int         { return len(p.live) }
func (p *Pipeline) Queued() int         { return len(p.queue) }

// Load issues the tile's metadata request. Tiles that already have a
// request, or have left the idle state, are ignored. A tile whose key
// produces no URL stays idle.
func (p *Pipeline) Load(t *Tile) error {
	if t.request != nil || t.State != TileIdle {
		return nil
	}
	url, ok := p.content.MetaURL(t.Key)
	if !ok {
		p.c.Logger.Debugf("tile %s: no %s url", t.Key, p.content.Kind())
		return nil
	}
	if err := t.fire(EventLoad); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(p.base)
	req := &pendingRequest{id: uuid.New(), tile: t, url: url, ctx: ctx, cancel: cancel}
	t.request = req
	p.queue = append(p.queue, req)
	p.pump()
	p.progress.set(len(p.live), len(p.queue), false)
	return nil
}

func (p *Pipeline) pump() {
	for len(p.live) < p.maxActive && len(p.queue) > 0 {
		req := p.queue[0]
		p.queue[0] = nil
		p.queue = p.queue[1:]
		p.start(req)
	}
}

func (p *Pipeline) start(req *pendingRequest) {
	req.started = true
	p.live[req.id] = req
	key, url := req.tile.Key, req.url
	p.c.Logger.Debugf("tile %s: fetch %s", key, url)
	p.spawn(func() {
		payload, err := p.content.Fetch(req.ctx, key, url)
		p.c.Loop.Post(func() { p.finish(req, payload, err) })
	})
}

// finish runs on the loop when a fetch resolves. Responses for requests
// that were cancelled, or superseded, are dropped without touching the
// scene.
func (p *Pipeline) finish(req *pendingRequest, payload any, err error) {
	t := req.tile
	if req.cancelled || t.request != req {
		p.c.Metrics.StaleResponses.Inc()
		p.c.Logger.Debugf("tile %s: discard stale response", t.Key)
		return
	}
	delete(p.live, req.id)
	t.request = nil
	req.cancel()

	if err != nil {
		p.c.Metrics.FetchFailures.Inc()
		p.c.Logger.Warnf("tile %s: fetch %s: %v", t.Key, req.url, err)
		p.fail(t)
	} else {
		p.build(t, payload)
	}

	p.pump()
	p.progress.set(len(p.live), len(p.queue), true)
}

func (p *Pipeline) fail(t *Tile) {
	if err := t.fire(EventFailed); err != nil {
		p.c.Logger.Errorf("%v", err)
	}
}

func (p *Pipeline) build(t *Tile, payload any) {
	obj, stats := p.content.Build(p.c, t, payload)
	t.Stats.add(stats)
	p.record(stats)

	if err := p.c.Sync.Attach(t, obj, p.c.View); err != nil {
		obj.Dispose()
		p.c.Logger.Errorf("tile %s: attach: %v", t.Key, err)
		p.fail(t)
		return
	}
	if err := t.fire(EventLoaded); err != nil {
		p.c.Logger.Errorf("%v", err)
	}
	p.c.Logger.Debugf("tile %s: built %d, deduped %d, failed %d",
		t.Key, stats.Built, stats.Deduped, stats.Failed)
}

func (p *Pipeline) record(stats BuildStats) {
	m := p.c.Metrics
	m.BuildingsBuilt.Add(float64(stats.Built))
	m.BuildingsDeduped.Add(float64(stats.Deduped))
	m.FeatureErrors.Add(float64(stats.Failed))
	m.DedupEntries.Set(float64(p.c.Dedup.Len()))
}

// Unload cancels the tile's request, releases its object and passes the
// buildings it owned to tiles that still list them.
func (p *Pipeline) Unload(t *Tile) {
	if req := t.request; req != nil {
		req.cancelled = true
		req.cancel()
		t.request = nil
		if req.started {
			delete(p.live, req.id)
		} else {
			p.queue = slices.DeleteFunc(p.queue, func(q *pendingRequest) bool { return q == req })
		}
		p.pump()
		p.progress.set(len(p.live), len(p.queue), false)
	}
	if t.State != TileCancelled {
		if err := t.fire(EventCancel); err != nil {
			p.c.Logger.Errorf("%v", err)
		}
	}

	p.c.Sync.Release(t.Key)
	p.handoff(p.c.Dedup.ReleaseTile(t.Key))
	t.retained = nil
	p.c.Metrics.DedupEntries.Set(float64(p.c.Dedup.Len()))
}

func (p *Pipeline) handoff(handoffs []Handoff) {
	hb, ok := p.content.(handoffBuilder)
	for _, h := range handoffs {
		if !ok || !p.rebuild(hb, h) {
			p.c.Dedup.Forget(h.ID)
		}
	}
}

func (p *Pipeline) rebuild(hb handoffBuilder, h Handoff) bool {
	t, ok := p.c.Tiles.Get(h.To)
	if !ok {
		return false
	}
	fp, ok := t.takeRetained(h.ID)
	if !ok {
		return false
	}
	obj, ok := p.c.Sync.Object(h.To)
	if !ok {
		return false
	}
	mesh, err := hb.BuildFootprint(p.c, t, fp)
	if err != nil {
		p.c.Logger.Debugf("tile %s: rebuild %s: %v", h.To, h.ID, err)
		return false
	}
	if err := addMesh(obj, mesh); err != nil {
		p.c.Logger.Debugf("tile %s: rebuild %s: %v", h.To, h.ID, err)
		return false
	}
	t.Stats.Built++
	t.Stats.Deduped--
	p.c.Metrics.BuildingsBuilt.Inc()
	p.c.Logger.Debugf("tile %s: took over building %s", h.To, h.ID)
	return true
}

// Close cancels every outstanding fetch.
func (p *Pipeline) Close() {
	p.stop()
}
