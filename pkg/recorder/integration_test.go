package recorder

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/user/slicerec/pkg/adapters/ffmpeg"
	"github.com/user/slicerec/pkg/adapters/logger"
	"github.com/user/slicerec/pkg/adapters/nullsink"
	"github.com/user/slicerec/pkg/adapters/osfilesystem"
	"github.com/user/slicerec/pkg/adapters/sysclock"
	"github.com/user/slicerec/pkg/mocks"
	"github.com/user/slicerec/pkg/pipeline"
	"github.com/user/slicerec/pkg/stages/encode"
	"github.com/user/slicerec/pkg/stages/write"
)

// fakeFFmpeg copies the -i input to the output path.
const fakeFFmpeg = `#!/bin/sh
prev=""
for a; do
  if [ "$prev" = "-i" ]; then in="$a"; fi
  prev="$a"
  out="$a"
done
cat "$in" > "$out"
`

// TestRecorder_OSFileSystem runs a session against the real filesystem
// with a shell script standing in for ffmpeg.
func TestRecorder_OSFileSystem(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires /bin/sh")
	}

	tmp := t.TempDir()
	script := filepath.Join(tmp, "ffmpeg")
	if err := os.WriteFile(script, []byte(fakeFFmpeg), 0755); err != nil {
		t.Fatalf("write fake ffmpeg: %v", err)
	}

	root := filepath.Join(tmp, "raw")
	out := filepath.Join(tmp, "out")
	fs := osfilesystem.New()
	log := logger.NewNoop()
	listener := mocks.NewSliceListener()

	rec := New(
		Config{Sources: 1, RootDir: root, OutputDir: out},
		fs,
		write.NewStage(fs, nullsink.New(), log),
		encode.NewStage(fs, ffmpeg.NewWithPath(script, log), nil, log),
		sysclock.New(),
		log,
	)
	rec.Subscribe(listener)

	if err := rec.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	for i := 0; i < 3; i++ {
		rec.Push(0, frame(16, 16, int64(100+i*40)))
	}
	// A new geometry closes slice 0; Stop flushes slice 1.
	rec.Push(0, frame(32, 32, 220))
	if err := stop(t, rec); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}

	events := listener.Events()
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}

	wantSizes := []int64{
		int64(3 * pipeline.I420Size(16, 16)),
		int64(pipeline.I420Size(32, 32)),
	}
	for i, e := range events {
		if e.Slice != uint64(i) {
			t.Errorf("event %d: expected slice %d, got %d", i, i, e.Slice)
		}
		if e.FilePath != filepath.Join(out, OutputName(uint64(i))) {
			t.Errorf("event %d: unexpected path %s", i, e.FilePath)
		}
		info, err := os.Stat(e.FilePath)
		if err != nil {
			t.Fatalf("event %d: output missing: %v", i, err)
		}
		if info.Size() != wantSizes[i] {
			t.Errorf("event %d: expected %d bytes, got %d", i, wantSizes[i], info.Size())
		}
		if e.Result.FileSize != wantSizes[i] {
			t.Errorf("event %d: expected FileSize %d, got %d", i, wantSizes[i], e.Result.FileSize)
		}
		if _, err := os.Stat(filepath.Join(root, SliceDirName(uint64(i)))); !os.IsNotExist(err) {
			t.Errorf("event %d: raw slice directory should be removed", i)
		}
	}

	if events[1].Result.Source.FrameRate != nil {
		t.Error("single-frame slice should have no frame rate")
	}
	if rate := events[0].Result.Source.FrameRate; rate == nil || *rate != 25 {
		t.Errorf("expected frame rate 25 for slice 0, got %v", rate)
	}
}
