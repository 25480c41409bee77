// Package mp4probe reads codec, geometry and duration back from encoded MP4 slices.
package mp4probe

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/Eyevinn/mp4ff/mp4"
	"github.com/user/slicerec/pkg/ports"
)

// ErrNoVideoTrack is returned when the file has no video track.
var ErrNoVideoTrack = errors.New("no video track found")

// Codec names reported by the prober.
const (
	CodecH264    = "h264"
	CodecH265    = "h265"
	CodecAV1     = "av1"
	CodecVP9     = "vp9"
	CodecUnknown = "unknown"
)

// Prober implements ports.VideoProber using mp4ff.
type Prober struct{}

// New creates a new Prober.
func New() *Prober {
	return &Prober{}
}

// Probe opens path and inspects its first video track.
func (p *Prober) Probe(path string) (ports.VideoInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return ports.VideoInfo{}, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	return ProbeReader(f)
}

// ProbeReader inspects an MP4 stream.
func ProbeReader(r io.Reader) (ports.VideoInfo, error) {
	file, err := mp4.DecodeFile(r)
	if err != nil {
		return ports.VideoInfo{}, fmt.Errorf("decode mp4: %w", err)
	}

	// Progressive files carry the moov at top level, fragmented ones in the init segment.
	moov := file.Moov
	if moov == nil && file.Init != nil {
		moov = file.Init.Moov
	}
	if moov == nil {
		return ports.VideoInfo{}, fmt.Errorf("no moov box")
	}
	return InfoFromMoov(moov)
}

// InfoFromMoov extracts video information from a decoded moov box.
func InfoFromMoov(moov *mp4.MoovBox) (ports.VideoInfo, error) {
	for _, trak := range moov.Traks {
		if trak.Mdia == nil || trak.Mdia.Hdlr == nil || trak.Mdia.Hdlr.HandlerType != "vide" {
			continue
		}

		info := ports.VideoInfo{Codec: codecFromTrack(trak)}
		if trak.Tkhd != nil {
			info.Width = int(uint32(trak.Tkhd.Width) >> 16)
			info.Height = int(uint32(trak.Tkhd.Height) >> 16)
		}
		info.DurationMs = durationMs(moov, trak)
		return info, nil
	}
	return ports.VideoInfo{}, ErrNoVideoTrack
}

func durationMs(moov *mp4.MoovBox, trak *mp4.TrakBox) int64 {
	if moov.Mvhd != nil && moov.Mvhd.Timescale > 0 && moov.Mvhd.Duration > 0 {
		return int64(moov.Mvhd.Duration * 1000 / uint64(moov.Mvhd.Timescale))
	}
	if trak.Mdia.Mdhd != nil && trak.Mdia.Mdhd.Timescale > 0 {
		return int64(trak.Mdia.Mdhd.Duration * 1000 / uint64(trak.Mdia.Mdhd.Timescale))
	}
	return 0
}

func codecFromTrack(trak *mp4.TrakBox) string {
	if trak.Mdia.Minf == nil || trak.Mdia.Minf.Stbl == nil || trak.Mdia.Minf.Stbl.Stsd == nil {
		return CodecUnknown
	}

	for _, child := range trak.Mdia.Minf.Stbl.Stsd.Children {
		switch child.Type() {
		case "avc1", "avc3":
			return CodecH264
		case "hvc1", "hev1":
			return CodecH265
		case "av01":
			return CodecAV1
		case "vp09":
			return CodecVP9
		}
	}
	return CodecUnknown
}

// Ensure Prober implements ports.VideoProber
var _ ports.VideoProber = (*Prober)(nil)
