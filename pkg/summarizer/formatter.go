package summarizer

import (
	"encoding/json"
	"path/filepath"
	"strings"
)

// Formatter renders a Summary as text.
type Formatter interface {
	Format(summary *Summary) string
}

// FormatFunc is a function adapter for the Formatter interface.
type FormatFunc func(summary *Summary) string

// Format implements the Formatter interface.
func (f FormatFunc) Format(summary *Summary) string {
	return f(summary)
}

// ForPath returns a JSON formatter for paths ending in .json and
// fallback for everything else.
func ForPath(path string, fallback Formatter) Formatter {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return JSONFormatter{}
	}
	return fallback
}

// JSONFormatter renders a Summary for machine consumption.
// Durations are written in milliseconds.
type JSONFormatter struct{}

type jsonSlice struct {
	ID         uint64 `json:"id"`
	Path       string `json:"path"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	FrameRate  *int   `json:"frameRate"`
	FrameCount int    `json:"frameCount"`
	DurationMs int64  `json:"durationMs"`
	FileSize   int64  `json:"fileSize"`
	Codec      string `json:"codec,omitempty"`
}

type jsonSummary struct {
	GeneratedAt string `json:"generatedAt"`
	Session     struct {
		RootDir     string `json:"rootDir"`
		OutputDir   string `json:"outputDir"`
		Sources     int    `json:"sources"`
		TotalFrames int64  `json:"totalFrames"`
		DurationMs  int64  `json:"durationMs"`
		Finalized   int    `json:"finalized"`
		Failed      int    `json:"failed"`
		Interrupted bool   `json:"interrupted"`
	} `json:"session"`
	Settings struct {
		MaxSliceBytes   int    `json:"maxSliceBytes"`
		EncodeTimeoutMs int64  `json:"encodeTimeoutMs"`
		FFmpegPath      string `json:"ffmpegPath,omitempty"`
	} `json:"settings"`
	TotalFileSize int64       `json:"totalFileSize"`
	Slices        []jsonSlice `json:"slices"`
}

// Format implements the Formatter interface.
func (JSONFormatter) Format(s *Summary) string {
	var out jsonSummary
	out.GeneratedAt = s.GeneratedAt.UTC().Format("2006-01-02T15:04:05Z07:00")

	out.Session.RootDir = s.Session.RootDir
	out.Session.OutputDir = s.Session.OutputDir
	out.Session.Sources = s.Session.Sources
	out.Session.TotalFrames = s.Session.TotalFrames
	out.Session.DurationMs = s.Session.Duration.Milliseconds()
	out.Session.Finalized = s.Session.Finalized
	out.Session.Failed = s.Session.Failed(len(s.Slices))
	out.Session.Interrupted = s.Session.Interrupted

	out.Settings.MaxSliceBytes = s.Settings.MaxSliceBytes
	out.Settings.EncodeTimeoutMs = s.Settings.EncodeTimeout.Milliseconds()
	out.Settings.FFmpegPath = s.Settings.FFmpegPath

	out.TotalFileSize = s.TotalFileSize()
	out.Slices = make([]jsonSlice, len(s.Slices))
	for i, sl := range s.Slices {
		out.Slices[i] = jsonSlice(sl)
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		// Every field is a plain value; marshaling cannot fail.
		panic(err)
	}
	return string(data) + "\n"
}
