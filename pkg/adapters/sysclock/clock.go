// Package sysclock provides the process monotonic clock.
package sysclock

import (
	"time"

	"github.com/user/slicerec/pkg/ports"
)

// Clock reports milliseconds elapsed since an epoch taken at construction.
// Readings are monotonic and never zero.
type Clock struct {
	epoch time.Time
}

// New creates a clock whose first reading is 1.
func New() *Clock {
	return &Clock{epoch: time.Now()}
}

// NowMs implements ports.Clock.
func (c *Clock) NowMs() int64 {
	return time.Since(c.epoch).Milliseconds() + 1
}

// Ensure Clock implements ports.Clock
var _ ports.Clock = (*Clock)(nil)
