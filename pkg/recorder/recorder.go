// Package recorder coordinates frame buffers into an ordered slice pipeline.
//
// Frames are pushed per source into a framebuffer.Buffer. Every sealed slice
// raises a boundary request that is handled by a single coordinator
// goroutine, which assigns the next slice id, creates the slice directory
// and drains all buffers. Each finalized slice is then written, encoded and
// cleaned up on its own goroutine; completions are released to listeners in
// slice id order.
package recorder

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/user/slicerec/pkg/framebuffer"
	"github.com/user/slicerec/pkg/metrics"
	"github.com/user/slicerec/pkg/notify"
	"github.com/user/slicerec/pkg/pipeline"
	"github.com/user/slicerec/pkg/ports"
)

// requestQueueSize bounds boundary requests waiting for the coordinator.
const requestQueueSize = 64

// Config contains recorder configuration.
type Config struct {
	Sources       int           // Number of frame sources
	RootDir       string        // Directory receiving slice_<id> directories
	OutputDir     string        // Directory receiving slice_<id>.mp4 files
	MaxSliceBytes int           // Per-source byte ceiling; 0 selects framebuffer.DefaultMaxBytes
	EncodeTimeout time.Duration // 0 means no timeout
}

// SliceDirName returns the directory name of a slice.
func SliceDirName(id uint64) string {
	return "slice_" + strconv.FormatUint(id, 10)
}

// OutputName returns the encoded file name of a slice.
func OutputName(id uint64) string {
	return SliceDirName(id) + ".mp4"
}

type request struct {
	source int
	reason framebuffer.BoundaryReason
	flush  bool
}

// Recorder owns the recording lifecycle and the slice id sequence.
type Recorder struct {
	cfg        Config
	fs         ports.FileSystem
	writer     pipeline.Stage[pipeline.WriteInput, pipeline.WriteResult]
	encoder    pipeline.Stage[pipeline.EncodeInput, pipeline.EncodeResult]
	clock      ports.Clock
	dispatcher *notify.Dispatcher
	logger     ports.Logger

	// mu guards state and requests. Push holds it shared while appending so
	// that Stop never closes the queue under an in-progress append.
	mu       sync.RWMutex
	state    pipeline.RecorderState
	buffers  []*framebuffer.Buffer
	requests chan request
	coordEnd chan struct{}

	session  *session

	nextID    atomic.Uint64 // written only by the coordinator goroutine
	coalesced atomic.Int64
}

// session holds what belongs to one Start/Stop cycle. Slices that outlive
// an expired Stop keep reporting into their own session, never the next one.
type session struct {
	inflight sync.WaitGroup

	errMu sync.Mutex
	errs  *multierror.Error
}

func (s *session) record(err error) {
	s.errMu.Lock()
	defer s.errMu.Unlock()
	s.errs = multierror.Append(s.errs, err)
}

func (s *session) err() error {
	s.errMu.Lock()
	defer s.errMu.Unlock()
	return s.errs.ErrorOrNil()
}

// New creates an inactive recorder.
func New(
	cfg Config,
	fs ports.FileSystem,
	writer pipeline.Stage[pipeline.WriteInput, pipeline.WriteResult],
	encoder pipeline.Stage[pipeline.EncodeInput, pipeline.EncodeResult],
	clock ports.Clock,
	logger ports.Logger,
) *Recorder {
	if cfg.Sources <= 0 {
		cfg.Sources = 1
	}
	return &Recorder{
		cfg:        cfg,
		fs:         fs,
		writer:     writer,
		encoder:    pipeline.WithTimeout(encoder, cfg.EncodeTimeout),
		clock:      clock,
		dispatcher: notify.New(0),
		logger:     logger.WithComponent("recorder"),
	}
}

// Subscribe registers a listener for slice ready events.
func (r *Recorder) Subscribe(l ports.SliceListener) {
	r.dispatcher.Subscribe(l)
}

// State returns the current lifecycle state.
func (r *Recorder) State() pipeline.RecorderState {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state
}

// SliceID returns the id the next finalized slice will receive.
func (r *Recorder) SliceID() uint64 {
	return r.nextID.Load()
}

// Coalesced returns how many boundary requests were absorbed by an earlier finalize.
func (r *Recorder) Coalesced() int64 {
	return r.coalesced.Load()
}

// Start begins a recording session. It is only valid while inactive.
func (r *Recorder) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != pipeline.StateInactive {
		return &pipeline.LifecycleError{Op: "start", State: r.state}
	}

	if err := r.fs.MkdirAll(r.cfg.RootDir); err != nil {
		return fmt.Errorf("create slice root %s: %w", r.cfg.RootDir, err)
	}
	if r.cfg.OutputDir != "" {
		if err := r.fs.MkdirAll(r.cfg.OutputDir); err != nil {
			return fmt.Errorf("create output dir %s: %w", r.cfg.OutputDir, err)
		}
	}

	if r.buffers == nil {
		r.buffers = make([]*framebuffer.Buffer, r.cfg.Sources)
		for i := range r.buffers {
			r.buffers[i] = framebuffer.New(i, r.cfg.MaxSliceBytes, r.onBoundary, r.logger)
		}
	} else {
		for _, b := range r.buffers {
			b.Reset()
		}
	}

	r.session = &session{}
	r.requests = make(chan request, requestQueueSize)
	r.coordEnd = make(chan struct{})
	go r.coordinate(r.session, r.requests, r.coordEnd)

	r.state = pipeline.StateRecording
	r.logger.Info("Recording started with %d sources into %s", r.cfg.Sources, r.cfg.RootDir)
	return nil
}

// Push hands a frame of the given source to its buffer.
// Frames are dropped while the recorder is not recording, when the source
// is unknown, or when the frame fails Validate. A frame whose TimestampMs is
// pipeline.Unstamped is stamped with the recorder clock.
func (r *Recorder) Push(source int, frame pipeline.Frame) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.state != pipeline.StateRecording {
		metrics.FramesDroppedTotal.Inc()
		return
	}
	if source < 0 || source >= len(r.buffers) {
		r.logger.Warn("Dropping frame from unknown source %d", source)
		metrics.FramesDroppedTotal.Inc()
		return
	}

	if err := frame.Validate(); err != nil {
		r.logger.Warn("Dropping frame from source %d: %s", source, err)
		metrics.FramesDroppedTotal.Inc()
		return
	}

	if !frame.Stamped() {
		frame.TimestampMs = r.clock.NowMs()
	}
	metrics.FramesIngestedTotal.WithLabelValues(strconv.Itoa(source)).Inc()
	r.buffers[source].Append(frame)
}

// onBoundary runs inside Push while mu is held shared.
func (r *Recorder) onBoundary(source int, reason framebuffer.BoundaryReason) {
	metrics.BoundariesTotal.WithLabelValues(reason.String()).Inc()
	r.requests <- request{source: source, reason: reason}
}

// Stop ends the session. Buffered frames are flushed as a final slice and
// every in-flight slice is awaited. ctx bounds only the wait. The returned
// error aggregates every per-slice failure of the session.
func (r *Recorder) Stop(ctx context.Context) error {
	r.mu.Lock()
	if r.state != pipeline.StateRecording {
		state := r.state
		r.mu.Unlock()
		return &pipeline.LifecycleError{Op: "stop", State: state}
	}
	r.state = pipeline.StateInactive
	requests, coordEnd, sess := r.requests, r.coordEnd, r.session
	r.requests = nil
	r.mu.Unlock()

	requests <- request{flush: true}
	close(requests)
	<-coordEnd

	done := make(chan struct{})
	go func() {
		sess.inflight.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		sess.record(fmt.Errorf("waiting for in-flight slices: %w", ctx.Err()))
	}

	r.logger.Info("Recording stopped, next slice id %d", r.SliceID())
	return sess.err()
}

// coordinate is the single consumer of boundary requests.
func (r *Recorder) coordinate(sess *session, requests <-chan request, end chan<- struct{}) {
	defer close(end)
	for req := range requests {
		if req.flush {
			for r.hasFrames() {
				r.finalize(sess)
			}
			continue
		}
		if !r.hasPending() {
			r.coalesced.Add(1)
			metrics.BoundaryRequestsCoalescedTotal.Inc()
			r.logger.Debug("Boundary from source %d (%s) already finalized", req.source, req.reason)
			continue
		}
		r.finalize(sess)
	}
}

func (r *Recorder) hasPending() bool {
	for _, b := range r.buffers {
		if b.Pending() > 0 {
			return true
		}
	}
	return false
}

func (r *Recorder) hasFrames() bool {
	for _, b := range r.buffers {
		if !b.Empty() {
			return true
		}
	}
	return false
}

// finalize assigns the next id, creates its directory and drains every buffer.
func (r *Recorder) finalize(sess *session) {
	id := r.nextID.Load()
	dir := filepath.Join(r.cfg.RootDir, SliceDirName(id))
	mkdirErr := r.fs.MkdirAll(dir)

	drained := make([]pipeline.Drained, len(r.buffers))
	for i, b := range r.buffers {
		drained[i] = b.Drain()
	}
	r.nextID.Store(id + 1)
	metrics.SlicesFinalizedTotal.Inc()

	if mkdirErr != nil {
		err := &pipeline.WriteError{Slice: id, Source: -1, Path: dir, Err: mkdirErr}
		r.logger.Error("Slice %d abandoned: %s", id, err)
		metrics.WriteFailuresTotal.Inc()
		sess.record(err)
		r.dispatcher.Resolve(id, nil)
		return
	}

	r.logger.Debug("Finalized slice %d into %s", id, dir)
	sess.inflight.Add(1)
	metrics.SlicesInFlight.Inc()
	go func() {
		defer sess.inflight.Done()
		defer metrics.SlicesInFlight.Dec()
		r.dispatcher.Resolve(id, r.process(sess, id, dir, drained))
	}()
}

// process runs write, encode and cleanup for one slice.
// It returns the event to publish, or nil when the slice failed.
func (r *Recorder) process(sess *session, id uint64, dir string, drained []pipeline.Drained) *pipeline.SliceReadyEvent {
	ctx := context.Background()

	written, err := r.writer.Execute(ctx, pipeline.WriteInput{Slice: id, Dir: dir, Drained: drained})
	if err != nil {
		r.logger.Error("Slice %d abandoned: %s", id, err)
		metrics.WriteFailuresTotal.Inc()
		sess.record(err)
		return nil
	}
	metrics.SliceBytesWritten.Add(float64(written.BytesWritten))

	result, err := r.encoder.Execute(ctx, pipeline.EncodeInput{
		Slice:        id,
		MetadataPath: written.MetadataPath,
		OutputPath:   filepath.Join(r.cfg.OutputDir, OutputName(id)),
	})
	if err != nil {
		sess.record(err)
		var cleanupErr *pipeline.CleanupError
		if !errors.As(err, &cleanupErr) {
			r.logger.Error("Slice %d failed to encode: %s", id, err)
			return nil
		}
		r.logger.Warn("Slice %d encoded but raw data was kept: %s", id, err)
	}

	r.logger.Info("Slice %d ready: %s", id, result.OutputPath)
	return &pipeline.SliceReadyEvent{Slice: id, FilePath: result.OutputPath, Result: result}
}
