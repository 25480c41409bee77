package recorder

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/user/slicerec/pkg/adapters/logger"
	"github.com/user/slicerec/pkg/adapters/nullsink"
	"github.com/user/slicerec/pkg/mocks"
	"github.com/user/slicerec/pkg/pipeline"
	"github.com/user/slicerec/pkg/ports"
	"github.com/user/slicerec/pkg/stages/encode"
	"github.com/user/slicerec/pkg/stages/write"
)

const (
	rootDir   = "/rec"
	outputDir = "/out"
)

type fixture struct {
	rec      *Recorder
	fs       *mocks.FileSystem
	enc      *mocks.EncoderProcess
	clock    *mocks.Clock
	listener *mocks.SliceListener
}

func newFixture(t *testing.T, sources, maxBytes int) *fixture {
	t.Helper()
	f := &fixture{
		fs:       mocks.NewFileSystem(),
		enc:      &mocks.EncoderProcess{},
		clock:    mocks.NewClock(10_000),
		listener: mocks.NewSliceListener(),
	}
	log := logger.NewNoop()
	f.rec = New(
		Config{Sources: sources, RootDir: rootDir, OutputDir: outputDir, MaxSliceBytes: maxBytes},
		f.fs,
		write.NewStage(f.fs, nullsink.New(), log),
		encode.NewStage(f.fs, f.enc, nil, log),
		f.clock,
		log,
	)
	f.rec.Subscribe(f.listener)
	return f
}

func frame(w, h int, ts int64) pipeline.Frame {
	return pipeline.Frame{Width: w, Height: h, Data: make([]byte, pipeline.I420Size(w, h)), TimestampMs: ts}
}

func stop(t *testing.T, r *Recorder) error {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return r.Stop(ctx)
}

// outputOf returns the output path of an encoder argument list.
func outputOf(args []string) string {
	return args[len(args)-1]
}

func TestRecorder_Lifecycle(t *testing.T) {
	f := newFixture(t, 1, 0)

	if f.rec.State() != pipeline.StateInactive {
		t.Errorf("expected inactive, got %s", f.rec.State())
	}

	err := f.rec.Stop(context.Background())
	var lifecycle *pipeline.LifecycleError
	if !errors.As(err, &lifecycle) || lifecycle.Op != "stop" {
		t.Errorf("expected stop LifecycleError, got %v", err)
	}

	if err := f.rec.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if f.rec.State() != pipeline.StateRecording {
		t.Errorf("expected recording, got %s", f.rec.State())
	}
	if !f.fs.HasDir(rootDir) || !f.fs.HasDir(outputDir) {
		t.Error("Start should create the slice root and output directories")
	}

	err = f.rec.Start()
	if !errors.Is(err, pipeline.ErrInvalidState) {
		t.Errorf("expected ErrInvalidState on second Start, got %v", err)
	}
	if f.rec.State() != pipeline.StateRecording {
		t.Error("a rejected Start must not change state")
	}

	if err := stop(t, f.rec); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	if f.rec.State() != pipeline.StateInactive {
		t.Errorf("expected inactive after Stop, got %s", f.rec.State())
	}
}

func TestRecorder_StartFailsWhenRootCannotBeCreated(t *testing.T) {
	f := newFixture(t, 1, 0)
	f.fs.MkdirAllFunc = func(path string) error {
		return errors.New("read-only file system")
	}

	if err := f.rec.Start(); err == nil {
		t.Fatal("expected Start to fail")
	}
	if f.rec.State() != pipeline.StateInactive {
		t.Errorf("expected inactive, got %s", f.rec.State())
	}
}

func TestRecorder_DropsFramesWhenNotRecording(t *testing.T) {
	f := newFixture(t, 1, 0)

	f.rec.Push(0, frame(4, 4, 1000))

	f.rec.Start()
	f.rec.Push(5, frame(4, 4, 1000)) // unknown source
	if err := stop(t, f.rec); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}

	if f.rec.SliceID() != 0 {
		t.Errorf("no slice should be finalized, next id is %d", f.rec.SliceID())
	}
	if len(f.enc.Calls()) != 0 {
		t.Errorf("expected no encoder calls, got %d", len(f.enc.Calls()))
	}
}

func TestRecorder_ResolutionChange(t *testing.T) {
	f := newFixture(t, 1, 0)
	f.rec.Start()

	f.rec.Push(0, frame(4, 4, 1000))
	f.rec.Push(0, frame(4, 4, 1100))
	f.rec.Push(0, frame(4, 4, 1200))
	f.rec.Push(0, frame(8, 8, 1300))

	if err := stop(t, f.rec); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}

	events := f.listener.Events()
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}

	first := events[0].Result.Source
	if first.Width != 4 || first.FrameCount != 3 {
		t.Errorf("slice 0: expected 3 frames at 4x4, got %d at %dx%d", first.FrameCount, first.Width, first.Height)
	}
	if first.FrameRate == nil || *first.FrameRate != 10 {
		t.Errorf("slice 0: expected frame rate 10, got %v", first.FrameRate)
	}
	if first.Duration != 200 {
		t.Errorf("slice 0: expected duration 200, got %d", first.Duration)
	}

	second := events[1].Result.Source
	if second.Width != 8 || second.FrameCount != 1 {
		t.Errorf("slice 1: expected 1 frame at 8x8, got %d at %dx%d", second.FrameCount, second.Width, second.Height)
	}
	if second.FrameRate != nil {
		t.Errorf("slice 1: expected nil frame rate, got %d", *second.FrameRate)
	}

	calls := f.enc.Calls()
	if len(calls) != 2 {
		t.Fatalf("expected 2 encoder calls, got %d", len(calls))
	}
	for _, args := range calls {
		if strings.HasSuffix(outputOf(args), "slice_0.mp4") && !strings.Contains(strings.Join(args, " "), "-s 4x4 -r 10") {
			t.Errorf("unexpected args for slice 0: %v", args)
		}
		if strings.HasSuffix(outputOf(args), "slice_1.mp4") && strings.Contains(strings.Join(args, " "), "-r") {
			t.Errorf("slice 1 has no frame rate, got args %v", args)
		}
	}
}

func TestRecorder_SizeCeiling(t *testing.T) {
	f := newFixture(t, 1, 48) // two 4x4 frames per slice
	f.rec.Start()

	for i := 0; i < 5; i++ {
		f.rec.Push(0, frame(4, 4, int64(1000+i*100)))
	}
	if err := stop(t, f.rec); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}

	events := f.listener.Events()
	var counts []int
	for _, e := range events {
		counts = append(counts, e.Result.Source.FrameCount)
	}
	if !reflect.DeepEqual(counts, []int{2, 2, 1}) {
		t.Errorf("expected frame counts [2 2 1], got %v", counts)
	}
	if f.rec.SliceID() != 3 {
		t.Errorf("expected next slice id 3, got %d", f.rec.SliceID())
	}
}

func TestRecorder_ConcurrentBoundariesShareOneSlice(t *testing.T) {
	f := newFixture(t, 2, 48)

	gate := make(chan struct{})
	f.fs.MkdirAllFunc = func(path string) error {
		if strings.Contains(path, "slice_") {
			<-gate
		}
		return nil
	}

	f.rec.Start()
	f.rec.Push(0, frame(4, 4, 1000))
	f.rec.Push(1, frame(4, 4, 1000))
	f.rec.Push(0, frame(4, 4, 1100)) // source 0 seals
	f.rec.Push(1, frame(4, 4, 1100)) // source 1 seals
	close(gate)

	if err := stop(t, f.rec); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}

	if f.rec.SliceID() != 1 {
		t.Errorf("expected exactly one id increment, next id is %d", f.rec.SliceID())
	}
	if f.rec.Coalesced() != 1 {
		t.Errorf("expected one coalesced request, got %d", f.rec.Coalesced())
	}

	var sliceDirs []string
	for _, p := range f.fs.MkdirAllCalls {
		if strings.Contains(p, "slice_") {
			sliceDirs = append(sliceDirs, p)
		}
	}
	if !reflect.DeepEqual(sliceDirs, []string{"/rec/slice_0"}) {
		t.Errorf("expected one slice directory, got %v", sliceDirs)
	}

	events := f.listener.Events()
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].FilePath != "/out/slice_0.mp4" {
		t.Errorf("expected /out/slice_0.mp4, got %s", events[0].FilePath)
	}
}

func TestRecorder_SynchronizedDrainIncludesBothSources(t *testing.T) {
	f := newFixture(t, 2, 0)

	var descriptor pipeline.SliceMetadata
	f.fs.RemoveAllFunc = func(path string) error {
		if path != "/rec/slice_0" {
			return nil
		}
		data, ok := f.fs.File(path + "/config.json")
		if !ok {
			t.Errorf("descriptor missing in %s", path)
			return nil
		}
		return json.Unmarshal(data, &descriptor)
	}

	f.rec.Start()
	f.rec.Push(1, frame(4, 4, 1000))
	f.rec.Push(0, frame(4, 4, 1000))
	f.rec.Push(0, frame(8, 8, 1100)) // source 0 changes resolution
	if err := stop(t, f.rec); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}

	if len(descriptor.Video) != 2 {
		t.Fatalf("expected 2 video entries, got %d", len(descriptor.Video))
	}
	if descriptor.Video[0] == nil || descriptor.Video[1] == nil {
		t.Errorf("slice 0 should hold frames of both sources: %+v", descriptor.Video)
	}
}

func TestRecorder_EncodeFailureKeepsDirectory(t *testing.T) {
	f := newFixture(t, 1, 0)
	f.enc.RunFunc = func(ctx context.Context, args []string) error {
		if strings.HasSuffix(outputOf(args), "slice_0.mp4") {
			return &ports.ExitError{Code: 1, Stderr: "conversion failed"}
		}
		return nil
	}

	f.rec.Start()
	f.rec.Push(0, frame(4, 4, 1000))
	f.rec.Push(0, frame(8, 8, 1100))
	err := stop(t, f.rec)

	var encErr *pipeline.EncodeError
	if !errors.As(err, &encErr) {
		t.Fatalf("expected EncodeError from Stop, got %v", err)
	}
	if encErr.Slice != 0 || encErr.ExitCode != 1 {
		t.Errorf("unexpected encode error: %+v", encErr)
	}

	if !f.fs.HasDir("/rec/slice_0") {
		t.Error("failed slice directory must be kept")
	}
	if _, ok := f.fs.File("/rec/slice_0/config.json"); !ok {
		t.Error("failed slice descriptor must be kept")
	}
	if f.fs.HasDir("/rec/slice_1") {
		t.Error("successful slice directory should be removed")
	}

	if got := f.listener.Slices(); !reflect.DeepEqual(got, []uint64{1}) {
		t.Errorf("expected only slice 1 to be published, got %v", got)
	}
}

func TestRecorder_SuccessRemovesDirectoryAndNotifiesOnce(t *testing.T) {
	f := newFixture(t, 1, 0)
	f.rec.Start()
	f.rec.Push(0, frame(4, 4, 1000))
	f.rec.Push(0, frame(4, 4, 1100))
	if err := stop(t, f.rec); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}

	if f.fs.HasDir("/rec/slice_0") {
		t.Error("slice directory should be removed after encode")
	}
	for path := range f.fs.Files() {
		if strings.HasPrefix(path, "/rec/slice_0/") {
			t.Errorf("raw file left behind: %s", path)
		}
	}

	events := f.listener.Events()
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].Slice != 0 || events[0].FilePath != "/out/slice_0.mp4" {
		t.Errorf("unexpected event: %+v", events[0])
	}
}

func TestRecorder_NotificationsInIDOrder(t *testing.T) {
	f := newFixture(t, 1, 0)

	laterDone := make(chan struct{})
	f.enc.RunFunc = func(ctx context.Context, args []string) error {
		switch {
		case strings.HasSuffix(outputOf(args), "slice_0.mp4"):
			<-laterDone
		case strings.HasSuffix(outputOf(args), "slice_1.mp4"):
			close(laterDone)
		}
		return nil
	}

	f.rec.Start()
	f.rec.Push(0, frame(4, 4, 1000))
	f.rec.Push(0, frame(8, 8, 1100))
	if err := stop(t, f.rec); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}

	if got := f.listener.Slices(); !reflect.DeepEqual(got, []uint64{0, 1}) {
		t.Errorf("expected [0 1], got %v", got)
	}
}

func TestRecorder_IDsContinueAcrossSessions(t *testing.T) {
	f := newFixture(t, 1, 0)

	for session := 0; session < 2; session++ {
		if err := f.rec.Start(); err != nil {
			t.Fatalf("Start %d failed: %v", session, err)
		}
		f.rec.Push(0, frame(4, 4, 1000))
		if err := stop(t, f.rec); err != nil {
			t.Fatalf("Stop %d failed: %v", session, err)
		}
	}

	if got := f.listener.Slices(); !reflect.DeepEqual(got, []uint64{0, 1}) {
		t.Errorf("expected [0 1], got %v", got)
	}
}

func TestRecorder_StampsMissingTimestamps(t *testing.T) {
	f := newFixture(t, 1, 0)
	f.rec.Start()

	f.rec.Push(0, frame(4, 4, pipeline.Unstamped))
	f.clock.Advance(100)
	f.rec.Push(0, frame(4, 4, pipeline.Unstamped))
	if err := stop(t, f.rec); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}

	events := f.listener.Events()
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	src := events[0].Result.Source
	if src.Duration != 100 {
		t.Errorf("expected duration 100, got %d", src.Duration)
	}
	if src.FrameRate == nil || *src.FrameRate != 10 {
		t.Errorf("expected frame rate 10, got %v", src.FrameRate)
	}
}

func TestRecorder_KeepsZeroTimestamp(t *testing.T) {
	f := newFixture(t, 1, 0)
	f.rec.Start()

	for _, ts := range []int64{0, 100, 200} {
		f.rec.Push(0, frame(4, 4, ts))
	}
	if err := stop(t, f.rec); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}

	events := f.listener.Events()
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	src := events[0].Result.Source
	if src.Duration != 200 {
		t.Errorf("expected duration 200, got %d", src.Duration)
	}
	if src.FrameRate == nil || *src.FrameRate != 10 {
		t.Errorf("expected frame rate 10, got %v", src.FrameRate)
	}
	if want := "/rec/slice_0/video_4x4x10_200_24.yuv"; src.DumpPath != want {
		t.Errorf("expected dump %s, got %s", want, src.DumpPath)
	}
}

func TestRecorder_DropsInvalidFrames(t *testing.T) {
	f := newFixture(t, 1, 0)
	f.rec.Start()

	f.rec.Push(0, frame(4, 4, 1000))
	f.rec.Push(0, pipeline.Frame{Width: 4, Height: 4, Data: make([]byte, 10), TimestampMs: 1050})
	f.rec.Push(0, pipeline.Frame{Width: 0, Height: 4, TimestampMs: 1060})
	f.rec.Push(0, frame(4, 4, 1100))
	if err := stop(t, f.rec); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}

	events := f.listener.Events()
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if got := events[0].Result.Source.FrameCount; got != 2 {
		t.Errorf("expected only the 2 valid frames to be recorded, got %d", got)
	}
}

func TestRecorder_WriteFailureAbandonsSlice(t *testing.T) {
	f := newFixture(t, 1, 0)
	f.fs.AppendFunc = func(path string) (io.WriteCloser, error) {
		return nil, errors.New("disk full")
	}

	f.rec.Start()
	f.rec.Push(0, frame(4, 4, 1000))
	err := stop(t, f.rec)

	var writeErr *pipeline.WriteError
	if !errors.As(err, &writeErr) {
		t.Fatalf("expected WriteError, got %v", err)
	}
	if len(f.enc.Calls()) != 0 {
		t.Error("an abandoned slice must not be encoded")
	}
	if _, ok := f.fs.File("/rec/slice_0/config.json"); ok {
		t.Error("an abandoned slice must not have a descriptor")
	}
	if len(f.listener.Events()) != 0 {
		t.Error("an abandoned slice must not be published")
	}
}

func TestRecorder_CleanupFailureStillNotifies(t *testing.T) {
	f := newFixture(t, 1, 0)
	f.fs.RemoveAllFunc = func(path string) error {
		return errors.New("permission denied")
	}

	f.rec.Start()
	f.rec.Push(0, frame(4, 4, 1000))
	err := stop(t, f.rec)

	var cleanupErr *pipeline.CleanupError
	if !errors.As(err, &cleanupErr) {
		t.Fatalf("expected CleanupError, got %v", err)
	}
	if got := f.listener.Slices(); !reflect.DeepEqual(got, []uint64{0}) {
		t.Errorf("expected slice 0 to be published, got %v", got)
	}
}

func TestRecorder_EncodeTimeout(t *testing.T) {
	fs := mocks.NewFileSystem()
	enc := &mocks.EncoderProcess{
		RunFunc: func(ctx context.Context, args []string) error {
			<-ctx.Done()
			return ctx.Err()
		},
	}
	log := logger.NewNoop()
	rec := New(
		Config{Sources: 1, RootDir: rootDir, OutputDir: outputDir, EncodeTimeout: 10 * time.Millisecond},
		fs,
		write.NewStage(fs, nullsink.New(), log),
		encode.NewStage(fs, enc, nil, log),
		mocks.NewClock(1),
		log,
	)

	rec.Start()
	rec.Push(0, frame(4, 4, 1000))
	err := stop(t, rec)

	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}
	if !fs.HasDir("/rec/slice_0") {
		t.Error("timed out slice directory must be kept")
	}
}

func TestRecorder_ErrorsResetPerSession(t *testing.T) {
	f := newFixture(t, 1, 0)
	fail := true
	f.enc.RunFunc = func(ctx context.Context, args []string) error {
		if fail {
			return &ports.ExitError{Code: 2}
		}
		return nil
	}

	f.rec.Start()
	f.rec.Push(0, frame(4, 4, 1000))
	if err := stop(t, f.rec); err == nil {
		t.Fatal("expected error from first session")
	}

	fail = false
	f.rec.Start()
	f.rec.Push(0, frame(4, 4, 1000))
	if err := stop(t, f.rec); err != nil {
		t.Errorf("second session should report no errors, got %v", err)
	}
}

func TestRecorder_LateSliceReportsIntoItsOwnSession(t *testing.T) {
	f := newFixture(t, 1, 0)
	release := make(chan struct{})
	f.enc.RunFunc = func(ctx context.Context, args []string) error {
		if strings.Contains(outputOf(args), "slice_0.mp4") {
			<-release
			return &ports.ExitError{Code: 1}
		}
		return nil
	}

	f.rec.Start()
	f.rec.Push(0, frame(4, 4, 1000))
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	err := f.rec.Stop(ctx)
	cancel()
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected the first Stop to give up waiting, got %v", err)
	}

	f.rec.Start()
	close(release)
	f.rec.Push(0, frame(4, 4, 2000))
	f.rec.Push(0, frame(8, 8, 2100)) // seals slice 1

	// Slice 1 is only delivered after slice 0 has been resolved,
	// so slice 0 has reported its failure by then.
	deadline := time.Now().Add(5 * time.Second)
	for len(f.listener.Slices()) == 0 {
		if time.Now().After(deadline) {
			t.Fatal("slice 1 was never delivered")
		}
		time.Sleep(time.Millisecond)
	}

	if err := stop(t, f.rec); err != nil {
		t.Errorf("second session should not report the first session's failure, got %v", err)
	}
	if got := f.listener.Slices(); !reflect.DeepEqual(got, []uint64{1, 2}) {
		t.Errorf("expected slices [1 2], got %v", got)
	}
}

func TestSliceNames(t *testing.T) {
	if got := SliceDirName(12); got != "slice_12" {
		t.Errorf("SliceDirName(12) = %s", got)
	}
	if got := OutputName(12); got != "slice_12.mp4" {
		t.Errorf("OutputName(12) = %s", got)
	}
}
