// Package notify releases slice completion events to listeners in slice id order.
package notify

import (
	"sync"

	"github.com/user/slicerec/pkg/metrics"
	"github.com/user/slicerec/pkg/pipeline"
	"github.com/user/slicerec/pkg/ports"
)

// Dispatcher reorders out-of-order slice completions.
//
// Every slice id must be resolved exactly once, with an event on success or
// nil on failure. An event is delivered only after every lower id has been
// resolved, so listeners observe strictly increasing ids.
type Dispatcher struct {
	deliverMu sync.Mutex // serializes deliveries; taken before mu

	mu        sync.Mutex
	next      uint64
	pending   map[uint64]*pipeline.SliceReadyEvent
	listeners []ports.SliceListener
}

// New creates a dispatcher whose first expected slice id is first.
func New(first uint64) *Dispatcher {
	return &Dispatcher{
		next:    first,
		pending: make(map[uint64]*pipeline.SliceReadyEvent),
	}
}

// Subscribe registers a listener for subsequent deliveries.
func (d *Dispatcher) Subscribe(l ports.SliceListener) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.listeners = append(d.listeners, l)
}

// Resolve records the outcome of slice id and delivers every event that is
// now in order. Listeners are called synchronously and must not call Resolve.
func (d *Dispatcher) Resolve(id uint64, event *pipeline.SliceReadyEvent) {
	d.deliverMu.Lock()
	defer d.deliverMu.Unlock()

	d.mu.Lock()
	if id < d.next {
		d.mu.Unlock()
		return
	}
	d.pending[id] = event

	var ready []pipeline.SliceReadyEvent
	for {
		evt, ok := d.pending[d.next]
		if !ok {
			break
		}
		delete(d.pending, d.next)
		d.next++
		if evt != nil {
			ready = append(ready, *evt)
		}
	}
	listeners := append([]ports.SliceListener(nil), d.listeners...)
	d.mu.Unlock()

	for _, evt := range ready {
		for _, l := range listeners {
			l.SliceReady(evt)
		}
		metrics.SlicesPublishedTotal.Inc()
	}
}

// Next returns the lowest slice id not yet resolved.
func (d *Dispatcher) Next() uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.next
}

// Pending returns the number of resolved slices waiting on a lower id.
func (d *Dispatcher) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending)
}
