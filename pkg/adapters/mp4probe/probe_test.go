package mp4probe

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/Eyevinn/mp4ff/mp4"
)

func videoInit(t *testing.T, sampleEntry string) *mp4.InitSegment {
	t.Helper()
	init := mp4.CreateEmptyInit()
	init.AddEmptyTrack(90000, "video", "und")

	trak := init.Moov.Trak
	trak.Tkhd.Width = mp4.Fixed32(640 << 16)
	trak.Tkhd.Height = mp4.Fixed32(480 << 16)
	trak.Mdia.Minf.Stbl.Stsd.AddChild(mp4.CreateVisualSampleEntryBox(sampleEntry, 640, 480, nil))

	init.Moov.Mvhd.Timescale = 1000
	init.Moov.Mvhd.Duration = 2500
	return init
}

func TestInfoFromMoov(t *testing.T) {
	tests := []struct {
		entry string
		codec string
	}{
		{"avc1", CodecH264},
		{"av01", CodecAV1},
		{"hvc1", CodecH265},
		{"mp4v", CodecUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.entry, func(t *testing.T) {
			init := videoInit(t, tt.entry)

			info, err := InfoFromMoov(init.Moov)
			if err != nil {
				t.Fatalf("InfoFromMoov failed: %v", err)
			}
			if info.Codec != tt.codec {
				t.Errorf("expected codec %s, got %s", tt.codec, info.Codec)
			}
			if info.Width != 640 || info.Height != 480 {
				t.Errorf("expected 640x480, got %dx%d", info.Width, info.Height)
			}
			if info.DurationMs != 2500 {
				t.Errorf("expected duration 2500, got %d", info.DurationMs)
			}
		})
	}
}

func TestInfoFromMoov_NoVideoTrack(t *testing.T) {
	init := mp4.CreateEmptyInit()
	init.AddEmptyTrack(48000, "audio", "und")

	_, err := InfoFromMoov(init.Moov)
	if !errors.Is(err, ErrNoVideoTrack) {
		t.Errorf("expected ErrNoVideoTrack, got %v", err)
	}
}

func TestProber_Probe(t *testing.T) {
	init := videoInit(t, "avc1")
	var buf bytes.Buffer
	if err := init.Encode(&buf); err != nil {
		t.Fatalf("encode init: %v", err)
	}

	path := filepath.Join(t.TempDir(), "slice_0.mp4")
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	info, err := New().Probe(path)
	if err != nil {
		t.Fatalf("Probe failed: %v", err)
	}
	if info.Codec != CodecH264 {
		t.Errorf("expected codec h264, got %s", info.Codec)
	}
	if info.Width != 640 {
		t.Errorf("expected width 640, got %d", info.Width)
	}
}

func TestProber_ProbeInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.mp4")
	if err := os.WriteFile(path, []byte("not an mp4"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	if _, err := New().Probe(path); err == nil {
		t.Error("expected error for invalid file")
	}
}

func TestProber_ProbeMissingFile(t *testing.T) {
	if _, err := New().Probe(filepath.Join(t.TempDir(), "missing.mp4")); err == nil {
		t.Error("expected error for missing file")
	}
}
