package ports

// VideoProber inspects an encoded artifact.
type VideoProber interface {
	Probe(path string) (VideoInfo, error)
}

// VideoInfo contains information read back from an encoded file.
type VideoInfo struct {
	Codec      string
	Width      int
	Height     int
	DurationMs int64
}
