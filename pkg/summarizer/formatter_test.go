package summarizer

import (
	"encoding/json"
	"testing"
	"time"
)

func TestForPath(t *testing.T) {
	md := NewMarkdownFormatter()

	if _, ok := ForPath("out/summary.JSON", md).(JSONFormatter); !ok {
		t.Error("expected JSON formatter for .JSON path")
	}
	if ForPath("out/summary.md", md) != Formatter(md) {
		t.Error("expected fallback formatter for .md path")
	}
}

func TestJSONFormatter(t *testing.T) {
	rate := 30
	s := NewBuilder().
		WithSession(SessionInfo{
			RootDir:   "/tmp/rec",
			Sources:   2,
			Duration:  1500 * time.Millisecond,
			Finalized: 3,
		}).
		WithSettings(Settings{MaxSliceBytes: 1024, EncodeTimeout: time.Minute}).
		Build()
	s.Slices = []SliceInfo{
		{ID: 0, Path: "/out/slice_0.mp4", Width: 640, Height: 480, FrameRate: &rate, FrameCount: 31, FileSize: 100},
		{ID: 2, Path: "/out/slice_2.mp4", Width: 320, Height: 240, FrameCount: 1, FileSize: 50},
	}

	var got map[string]interface{}
	if err := json.Unmarshal([]byte(JSONFormatter{}.Format(s)), &got); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}

	session := got["session"].(map[string]interface{})
	if session["durationMs"].(float64) != 1500 {
		t.Errorf("expected durationMs 1500, got %v", session["durationMs"])
	}
	if session["failed"].(float64) != 1 {
		t.Errorf("expected 1 failed slice, got %v", session["failed"])
	}
	if got["totalFileSize"].(float64) != 150 {
		t.Errorf("expected totalFileSize 150, got %v", got["totalFileSize"])
	}
	settings := got["settings"].(map[string]interface{})
	if settings["encodeTimeoutMs"].(float64) != 60000 {
		t.Errorf("expected encodeTimeoutMs 60000, got %v", settings["encodeTimeoutMs"])
	}

	slices := got["slices"].([]interface{})
	if len(slices) != 2 {
		t.Fatalf("expected 2 slices, got %d", len(slices))
	}
	if slices[1].(map[string]interface{})["frameRate"] != nil {
		t.Error("single-frame slice should have a null frameRate")
	}
}
