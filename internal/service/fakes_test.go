package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"heatpump_monitor/internal/models"
)

type fakeClock struct{ ms uint64 }

func (c *fakeClock) Millis() uint64 { return c.ms }

type sentNote struct {
	destination string
	text        string
}

// stubNotifier records notifications; failNext makes the next n calls fail.
type stubNotifier struct {
	sent     []sentNote
	failNext int
}

func (n *stubNotifier) Notify(_ context.Context, destination, text string) error {
	if n.failNext > 0 {
		n.failNext--
		return errors.New("modem offline")
	}
	n.sent = append(n.sent, sentNote{destination: destination, text: text})
	return nil
}

// stubPublisher accepts snapshots while online.
type stubPublisher struct {
	online    bool
	failAfter int // when > 0, fail once this many publishes succeeded
	published []models.Snapshot
	attempts  int
}

func (p *stubPublisher) Publish(_ context.Context, s models.Snapshot) error {
	p.attempts++
	if !p.online || (p.failAfter > 0 && len(p.published) >= p.failAfter) {
		return errors.New("broker unreachable")
	}
	p.published = append(p.published, s)
	return nil
}

// seqAcquirer returns snapshots whose ReadingTime counts up from 1.
type seqAcquirer struct {
	n      uint64
	mutate func(*models.Snapshot)
}

func (a *seqAcquirer) Acquire() models.Snapshot {
	a.n++
	s := models.Snapshot{
		Voltage:        models.Reading{Value: 230, Valid: true, Timestamp: a.n},
		Current:        models.Reading{Value: 8, Valid: true, Timestamp: a.n},
		TempCompressor: models.Reading{Value: 70, Valid: true, Timestamp: a.n},
		PressureHigh:   models.Reading{Value: 280, Valid: true, Timestamp: a.n},
		PressureLow:    models.Reading{Value: 70, Valid: true, Timestamp: a.n},
		ReadingTime:    a.n,
	}
	if a.mutate != nil {
		a.mutate(&s)
	}
	return s
}

type memStatusRepo struct {
	mu    sync.Mutex
	saved []models.DeviceStatus
	err   error
}

func (r *memStatusRepo) Save(_ context.Context, s models.DeviceStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saved = append(r.saved, s)
	return r.err
}

func (r *memStatusRepo) Load(context.Context) (models.DeviceStatus, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.saved) == 0 {
		return models.DeviceStatus{}, r.err
	}
	return r.saved[len(r.saved)-1], r.err
}

func (r *memStatusRepo) last() models.DeviceStatus {
	s, _ := r.Load(context.Background())
	return s
}

type memEventRepo struct {
	mu     sync.Mutex
	events []models.DeviceEvent
}

func (r *memEventRepo) Append(_ context.Context, e models.DeviceEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *memEventRepo) List(context.Context, time.Time, time.Time, string) ([]models.DeviceEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.DeviceEvent(nil), r.events...), nil
}

func (r *memEventRepo) count(typ string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e.Type == typ {
			n++
		}
	}
	return n
}

type memBufferRepo struct {
	entries  []models.Snapshot
	overflow bool
	saves    int
	loadErr  error
}

func (r *memBufferRepo) SaveAll(_ context.Context, entries []models.Snapshot, overflow bool) error {
	r.saves++
	r.entries = append([]models.Snapshot(nil), entries...)
	r.overflow = overflow
	return nil
}

func (r *memBufferRepo) LoadAll(context.Context) ([]models.Snapshot, bool, error) {
	return r.entries, r.overflow, r.loadErr
}
