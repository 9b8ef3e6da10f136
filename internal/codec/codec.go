package codec

import (
	"errors"
	"image"

	"webpify/pkg/imgutil"
)

// ErrUnreadable marks input the codec cannot identify or decode at all.
// Callers distinguish it with errors.Is.
var ErrUnreadable = errors.New("not an image or corrupted")

// Props describes an image's intrinsic properties as reported by Probe.
type Props struct {
	Format     imgutil.Kind
	Width      int
	Height     int
	HasAlpha   bool
	Animated   bool
	FrameCount int
}

// Policy describes one encode call. Built fresh per file, never shared.
type Policy struct {
	Lossless      bool
	Quality       int
	Effort        int
	PreserveAlpha bool
	Exif          []byte
	ICC           []byte
}

// Metadata holds the raw metadata blocks extracted from a source image.
// Exif starts at the TIFF header; ICC is the assembled profile.
type Metadata struct {
	Exif []byte
	ICC  []byte
}

// Animation is a decoded animated image: frames in presentation order,
// per-frame delays in milliseconds, and the loop count (0 = forever).
type Animation struct {
	Frames   []image.Image
	DelaysMS []int
	Loop     int
}

// Codec is the image capability surface the conversion core consumes.
// Implementations are pure functions of their inputs.
type Codec interface {
	// Probe identifies the input and reports format, geometry, alpha
	// presence, and animation state without writing anything.
	Probe(data []byte) (Props, error)
	// Decode returns the first (or only) frame.
	Decode(data []byte) (image.Image, error)
	// DecodeAnimation returns all frames with their delays and loop count.
	DecodeAnimation(data []byte) (*Animation, error)
	// CorrectOrientation applies the source's stored EXIF orientation so
	// downstream geometry and alpha tests observe the upright image.
	CorrectOrientation(data []byte, img image.Image) image.Image
	// Resize fits img within maxW x maxH preserving aspect ratio. It
	// never enlarges.
	Resize(img image.Image, maxW, maxH int) image.Image
	// EncodeStatic encodes one frame to WebP under the given policy.
	EncodeStatic(img image.Image, pol Policy) ([]byte, error)
	// EncodeAnimated encodes all frames into a single animated WebP,
	// preserving per-frame delay and loop count.
	EncodeAnimated(anim *Animation, pol Policy) ([]byte, error)
	// ExtractMetadata pulls the raw EXIF block and ICC profile from the
	// source container, when present.
	ExtractMetadata(data []byte) Metadata
}

// HasAlpha reports whether any pixel of img is not fully opaque. Palette
// images with a transparency index are caught by the same test.
func HasAlpha(img image.Image) bool {
	if img == nil {
		return false
	}
	if o, ok := img.(interface{ Opaque() bool }); ok {
		return !o.Opaque()
	}

	bounds := img.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			if _, _, _, a := img.At(x, y).RGBA(); a != 0xffff {
				return true
			}
		}
	}
	return false
}
