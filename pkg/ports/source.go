package ports

import (
	"context"

	"github.com/user/slicerec/pkg/pipeline"
)

// FrameSource is a push-style producer of raw frames.
// Run calls push for every frame in arrival order until the source is
// exhausted or ctx is cancelled. There is no backpressure: push must accept
// frames as fast as they arrive.
type FrameSource interface {
	Run(ctx context.Context, push func(pipeline.Frame)) error
}

// Clock provides arrival timestamps in monotonic milliseconds.
type Clock interface {
	NowMs() int64
}
