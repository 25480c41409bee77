package ports

import "github.com/user/slicerec/pkg/pipeline"

// SliceListener receives a notification for every slice that was encoded.
// Events are delivered in slice id order.
type SliceListener interface {
	SliceReady(event pipeline.SliceReadyEvent)
}

// SliceListenerFunc is a function adapter for SliceListener.
type SliceListenerFunc func(event pipeline.SliceReadyEvent)

// SliceReady implements SliceListener.
func (f SliceListenerFunc) SliceReady(event pipeline.SliceReadyEvent) {
	f(event)
}
