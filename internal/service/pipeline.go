package service

import (
	"context"
	"time"

	"heatpump_monitor/internal/buffer"
	"heatpump_monitor/internal/logger"
	"heatpump_monitor/internal/metrics"
	"heatpump_monitor/internal/models"
	"heatpump_monitor/internal/repository"
)

// Publisher hands a snapshot to the upstream transport. nil means accepted.
type Publisher interface {
	Publish(ctx context.Context, s models.Snapshot) error
}

// PipelineDeps are the collaborators of a Pipeline. BufferRepo and Metrics may be nil.
type PipelineDeps struct {
	DeviceID   string
	DrainLimit int
	QueueSize  int

	Acquirer   Acquirer
	Alerts     *AlertEngine
	Ring       *buffer.Ring
	Publisher  Publisher
	StatusRepo repository.StatusRepo
	EventRepo  repository.EventRepo
	BufferRepo repository.BufferRepo
	Metrics    *metrics.Pipeline
	Log        *logger.Logger
}

// Pipeline is the control loop. It owns the ring and the alert engine; other
// goroutines reach it only through the command queue and the status repo.
type Pipeline struct {
	deviceID   string
	drainLimit int

	acq        Acquirer
	alerts     *AlertEngine
	ring       *buffer.Ring
	pub        Publisher
	statusRepo repository.StatusRepo
	eventRepo  repository.EventRepo
	bufferRepo repository.BufferRepo
	metrics    *metrics.Pipeline
	log        *logger.Logger

	commands chan command
	stopped  chan struct{}

	latest        *models.Snapshot
	lastPublishOK bool
}

// StepResult summarises one pass of the loop.
type StepResult struct {
	Snapshot   models.Snapshot
	Alerts     []AlertOutcome
	Drained    int
	Published  bool
	Buffered   bool
	Evicted    bool
	PublishErr error
}

func NewPipeline(d PipelineDeps) *Pipeline {
	queue := d.QueueSize
	if queue <= 0 {
		queue = 1
	}
	return &Pipeline{
		deviceID:      d.DeviceID,
		drainLimit:    d.DrainLimit,
		acq:           d.Acquirer,
		alerts:        d.Alerts,
		ring:          d.Ring,
		pub:           d.Publisher,
		statusRepo:    d.StatusRepo,
		eventRepo:     d.EventRepo,
		bufferRepo:    d.BufferRepo,
		metrics:       d.Metrics,
		log:           d.Log,
		commands:      make(chan command, queue),
		stopped:       make(chan struct{}),
		lastPublishOK: true,
	}
}

// Run restores the persisted buffer, steps once immediately and then on
// every tick until ctx is cancelled. Commands are applied between steps.
func (p *Pipeline) Run(ctx context.Context, interval time.Duration) {
	defer close(p.stopped)

	p.restore(ctx)
	p.Step(ctx)

	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			p.log.Infow("pipeline_stopped", "buffered", p.ring.Len())
			return
		case cmd := <-p.commands:
			cmd.done <- p.apply(ctx, cmd.kind)
		case <-t.C:
			p.Step(ctx)
		}
	}
}

// Step acquires and grades one snapshot, drains the buffer oldest first and
// then publishes the fresh snapshot. The fresh snapshot is buffered instead
// when publishing fails or older data is still waiting, so delivery stays FIFO.
func (p *Pipeline) Step(ctx context.Context) StepResult {
	snap := p.acq.Acquire()
	p.metrics.ObserveSnapshot(&snap)

	res := StepResult{}
	res.Alerts = p.alerts.Evaluate(ctx, &snap)
	p.recordAlerts(ctx, res.Alerts)

	drained, drainErr := p.drain(ctx)
	res.Drained = drained
	dirty := drained > 0

	switch {
	case drainErr != nil:
		res.PublishErr = drainErr
	case !p.ring.IsEmpty():
		// drain limit reached; keep order
	default:
		err := p.pub.Publish(ctx, snap)
		p.metrics.RecordPublish(metrics.SourceFresh, err)
		if err != nil {
			res.PublishErr = err
		} else {
			res.Published = true
		}
	}

	if !res.Published {
		res.Evicted = p.enqueue(ctx, snap)
		res.Buffered = true
		dirty = true
	}
	p.notePublishState(ctx, res.PublishErr)

	if dirty {
		p.persist(ctx)
	}
	p.metrics.SetBufferDepth(p.ring.Len())

	res.Snapshot = snap
	p.latest = &res.Snapshot
	p.saveStatus(ctx)
	return res
}

// drain publishes buffered snapshots oldest first and stops at the first failure.
func (p *Pipeline) drain(ctx context.Context) (int, error) {
	published := 0
	var err error
	for !p.ring.IsEmpty() {
		if p.drainLimit > 0 && published >= p.drainLimit {
			break
		}
		snap, _ := p.ring.PeekOldest()
		err = p.pub.Publish(ctx, snap)
		p.metrics.RecordPublish(metrics.SourceBuffered, err)
		if err != nil {
			break
		}
		p.ring.PopOldest()
		published++
	}

	if published > 0 || err != nil {
		p.log.Infow("buffer_drain", "published", published, "remaining", p.ring.Len(), "error", err)
	}
	if published > 0 {
		failed := 0
		if err != nil {
			failed = 1
		}
		p.appendEvent(ctx, eventBufferDrained(published, failed))
	}
	return published, err
}

// enqueue buffers snap and reports whether the oldest entry was overwritten.
func (p *Pipeline) enqueue(ctx context.Context, snap models.Snapshot) bool {
	wasOverflowed := p.ring.Overflowed()
	evicted := p.ring.Push(snap)
	if !evicted {
		return false
	}
	p.metrics.RecordEviction()
	if !wasOverflowed {
		p.log.Warnw("buffer_overflow", "capacity", p.ring.Cap())
		p.appendEvent(ctx, eventBufferOverflow(p.ring.Cap()))
	}
	return true
}

func (p *Pipeline) notePublishState(ctx context.Context, err error) {
	ok := err == nil
	if !ok && p.lastPublishOK {
		p.log.Warnw("pipeline_publish_failed", "error", err, "buffered", p.ring.Len())
		p.appendEvent(ctx, eventPublishFailed(err))
	}
	if ok && !p.lastPublishOK {
		p.log.Infow("pipeline_publish_recovered")
	}
	p.lastPublishOK = ok
}

func (p *Pipeline) recordAlerts(ctx context.Context, outcomes []AlertOutcome) {
	for _, o := range outcomes {
		if !o.Cleared {
			p.metrics.RecordAlert(o.Type, o.Err)
		}
		p.appendEvent(ctx, eventForAlert(o))
	}
}

func (p *Pipeline) appendEvent(ctx context.Context, e models.DeviceEvent) {
	if p.eventRepo == nil {
		return
	}
	if err := p.eventRepo.Append(ctx, e); err != nil {
		p.log.Errorw("event_append_failed", "type", e.Type, "error", err)
	}
}

func (p *Pipeline) restore(ctx context.Context) {
	if p.bufferRepo == nil {
		return
	}
	entries, overflow, err := p.bufferRepo.LoadAll(ctx)
	if err != nil {
		p.log.Errorw("buffer_restore_failed", "error", err)
		return
	}
	p.ring.Restore(entries, overflow)
	p.metrics.SetBufferDepth(p.ring.Len())
	if len(entries) > 0 {
		p.log.Infow("buffer_restored", "count", p.ring.Len(), "overflow", p.ring.Overflowed())
	}
}

func (p *Pipeline) persist(ctx context.Context) {
	if p.bufferRepo == nil {
		return
	}
	if err := p.bufferRepo.SaveAll(ctx, p.ring.Entries(), p.ring.Overflowed()); err != nil {
		p.log.Errorw("buffer_persist_failed", "error", err)
	}
}

// Status describes the loop's current state. Call it only from the loop goroutine.
func (p *Pipeline) Status() models.DeviceStatus {
	return models.DeviceStatus{
		ID:             1,
		DeviceID:       p.deviceID,
		Latest:         p.latest,
		BufferCount:    p.ring.Len(),
		BufferCapacity: p.ring.Cap(),
		BufferOverflow: p.ring.Overflowed(),
		ActiveAlerts:   p.alerts.ActiveAlerts(),
		AlertSummary:   p.alerts.Summary(),
		BufferSummary:  p.ring.Status(),
		LastPublishOK:  p.lastPublishOK,
		UpdatedAt:      time.Now().UTC(),
	}
}

func (p *Pipeline) saveStatus(ctx context.Context) {
	if p.statusRepo == nil {
		return
	}
	if err := p.statusRepo.Save(ctx, p.Status()); err != nil {
		p.log.Errorw("status_save_failed", "error", err)
	}
}
