package mocks

import (
	"sync"

	"github.com/user/slicerec/pkg/pipeline"
	"github.com/user/slicerec/pkg/ports"
)

// SliceListener records every event it receives.
type SliceListener struct {
	mu     sync.Mutex
	events []pipeline.SliceReadyEvent
}

// NewSliceListener creates a new mock SliceListener.
func NewSliceListener() *SliceListener {
	return &SliceListener{}
}

func (m *SliceListener) SliceReady(event pipeline.SliceReadyEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
}

// Events returns the received events in delivery order.
func (m *SliceListener) Events() []pipeline.SliceReadyEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]pipeline.SliceReadyEvent(nil), m.events...)
}

// Slices returns the slice ids of the received events in delivery order.
func (m *SliceListener) Slices() []uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]uint64, len(m.events))
	for i, e := range m.events {
		ids[i] = e.Slice
	}
	return ids
}

// Clock is a manually advanced ports.Clock.
type Clock struct {
	mu  sync.Mutex
	now int64
}

// NewClock creates a clock starting at the given millisecond.
func NewClock(start int64) *Clock {
	return &Clock{now: start}
}

func (c *Clock) NowMs() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward.
func (c *Clock) Advance(ms int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now += ms
}

var (
	_ ports.SliceListener = (*SliceListener)(nil)
	_ ports.Clock         = (*Clock)(nil)
)
