// Package filesink provides a file-based debug sink implementation.
package filesink

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"path/filepath"

	"github.com/fogleman/gg"
	"golang.org/x/image/draw"

	"github.com/user/slicerec/pkg/pipeline"
	"github.com/user/slicerec/pkg/ports"
)

// DefaultPreviewWidth is the width of preview thumbnails.
const DefaultPreviewWidth = 160

// captionHeight is the height of the label strip drawn at the bottom of a
// preview. Previews shorter than twice this are left unlabeled.
const captionHeight = 16

// Sink saves slice descriptors and preview thumbnails to files.
type Sink struct {
	baseDir      string
	fs           ports.FileSystem
	previewWidth int
}

// New creates a new FileSink.
func New(baseDir string, fs ports.FileSystem) *Sink {
	return &Sink{
		baseDir:      baseDir,
		fs:           fs,
		previewWidth: DefaultPreviewWidth,
	}
}

// Enabled returns true as this sink saves output.
func (s *Sink) Enabled() bool {
	return true
}

// SaveDescriptor saves a copy of a slice descriptor.
func (s *Sink) SaveDescriptor(slice uint64, data []byte) error {
	path := filepath.Join(s.baseDir, fmt.Sprintf("slice_%d.json", slice))
	return s.fs.WriteFile(path, data)
}

// SavePreview saves a PNG thumbnail of a frame.
func (s *Sink) SavePreview(slice uint64, source int, frame pipeline.Frame) error {
	img, err := I420ToImage(frame)
	if err != nil {
		return err
	}

	thumb := image.Image(img)
	if frame.Width > s.previewWidth {
		height := frame.Height * s.previewWidth / frame.Width
		if height < 1 {
			height = 1
		}
		dst := image.NewRGBA(image.Rect(0, 0, s.previewWidth, height))
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)
		thumb = dst
	}
	thumb = caption(thumb, fmt.Sprintf("#%d src%d %s", slice, source, frame.Size()))

	var buf bytes.Buffer
	if err := png.Encode(&buf, thumb); err != nil {
		return fmt.Errorf("encode preview: %w", err)
	}
	path := filepath.Join(s.baseDir, fmt.Sprintf("slice_%d_source_%d.png", slice, source))
	return s.fs.WriteFile(path, buf.Bytes())
}

// caption draws a translucent strip with a label along the bottom edge.
func caption(img image.Image, label string) image.Image {
	b := img.Bounds()
	if b.Dy() < 2*captionHeight {
		return img
	}
	w, h := float64(b.Dx()), float64(b.Dy())

	dc := gg.NewContextForImage(img)
	dc.SetRGBA(0, 0, 0, 0.6)
	dc.DrawRectangle(0, h-captionHeight, w, captionHeight)
	dc.Fill()
	dc.SetRGB(1, 1, 1)
	dc.DrawStringAnchored(label, 4, h-captionHeight/2, 0, 0.5)
	return dc.Image()
}

// I420ToImage wraps a planar YUV 4:2:0 frame as an image.
func I420ToImage(frame pipeline.Frame) (*image.YCbCr, error) {
	w, h := frame.Width, frame.Height
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("invalid frame size %dx%d", w, h)
	}
	cw, ch := (w+1)/2, (h+1)/2
	ySize, cSize := w*h, cw*ch
	if len(frame.Data) < ySize+2*cSize {
		return nil, fmt.Errorf("short I420 payload: %d bytes for %dx%d", len(frame.Data), w, h)
	}

	img := image.NewYCbCr(image.Rect(0, 0, w, h), image.YCbCrSubsampleRatio420)
	copy(img.Y, frame.Data[:ySize])
	copy(img.Cb, frame.Data[ySize:ySize+cSize])
	copy(img.Cr, frame.Data[ySize+cSize:ySize+2*cSize])
	return img, nil
}

// Ensure Sink implements ports.DebugSink
var _ ports.DebugSink = (*Sink)(nil)
