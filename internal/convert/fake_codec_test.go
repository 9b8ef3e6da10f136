package convert

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"sync"

	"webpify/internal/codec"
	"webpify/pkg/imgutil"
)

// fakeCodec scripts codec behavior off the source content so tests can
// drive every branch of the pipeline without a real encoder. Counters
// and recorded policies are safe for concurrent tasks.
type fakeCodec struct {
	mu sync.Mutex

	probeCalls    int
	decodeCalls   int
	animCalls     int
	staticCalls   int
	animatedCalls int

	staticPolicies   []codec.Policy
	animatedPolicies []codec.Policy
	lastAnimation    *codec.Animation
}

const (
	markerCorrupt  = "corrupt"
	markerAlpha    = "alpha"
	markerAnimated = "animated"
	markerPanic    = "panic"
)

func marked(data []byte, marker string) bool {
	return bytes.HasPrefix(data, []byte(marker))
}

func opaqueImage(w, h int) image.Image {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := 3; i < len(img.Pix); i += 4 {
		img.Pix[i] = 0xff
	}
	return img
}

func alphaImage(w, h int) image.Image {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	img.SetNRGBA(0, 0, color.NRGBA{R: 0xff, A: 0x80})
	return img
}

func (f *fakeCodec) Probe(data []byte) (codec.Props, error) {
	f.mu.Lock()
	f.probeCalls++
	f.mu.Unlock()

	if marked(data, markerPanic) {
		panic("scripted crash")
	}
	if marked(data, markerCorrupt) {
		return codec.Props{}, fmt.Errorf("%w: scripted", codec.ErrUnreadable)
	}
	if marked(data, markerAnimated) {
		return codec.Props{Format: imgutil.KindGIF, Width: 8, Height: 8, Animated: true, FrameCount: 3}, nil
	}
	if marked(data, markerAlpha) {
		return codec.Props{Format: imgutil.KindPNG, Width: 8, Height: 8, HasAlpha: true}, nil
	}
	return codec.Props{Format: imgutil.KindJPEG, Width: 8, Height: 8}, nil
}

func (f *fakeCodec) Decode(data []byte) (image.Image, error) {
	f.mu.Lock()
	f.decodeCalls++
	f.mu.Unlock()

	if marked(data, markerCorrupt) {
		return nil, fmt.Errorf("%w: scripted", codec.ErrUnreadable)
	}
	if marked(data, markerAlpha) {
		return alphaImage(8, 8), nil
	}
	return opaqueImage(8, 8), nil
}

func (f *fakeCodec) DecodeAnimation(data []byte) (*codec.Animation, error) {
	f.mu.Lock()
	f.animCalls++
	f.mu.Unlock()

	if !marked(data, markerAnimated) {
		return nil, fmt.Errorf("%w: not animated", codec.ErrUnreadable)
	}
	anim := &codec.Animation{
		Frames:   []image.Image{opaqueImage(8, 8), opaqueImage(8, 8), opaqueImage(8, 8)},
		DelaysMS: []int{40, 50, 60},
		Loop:     2,
	}
	f.mu.Lock()
	f.lastAnimation = anim
	f.mu.Unlock()
	return anim, nil
}

func (f *fakeCodec) CorrectOrientation(data []byte, img image.Image) image.Image {
	return img
}

func (f *fakeCodec) Resize(img image.Image, maxW, maxH int) image.Image {
	// Thumbnails shrink to a marker size so encode output lengths can
	// distinguish main from thumb.
	if codec.HasAlpha(img) {
		return alphaImage(1, 1)
	}
	return opaqueImage(1, 1)
}

func (f *fakeCodec) EncodeStatic(img image.Image, pol codec.Policy) ([]byte, error) {
	f.mu.Lock()
	f.staticCalls++
	f.staticPolicies = append(f.staticPolicies, pol)
	f.mu.Unlock()

	if img.Bounds().Dx() == 1 {
		return make([]byte, 50), nil // thumbnail
	}
	return make([]byte, 300), nil
}

func (f *fakeCodec) EncodeAnimated(anim *codec.Animation, pol codec.Policy) ([]byte, error) {
	f.mu.Lock()
	f.animatedCalls++
	f.animatedPolicies = append(f.animatedPolicies, pol)
	f.mu.Unlock()
	return make([]byte, 300), nil
}

func (f *fakeCodec) ExtractMetadata(data []byte) codec.Metadata {
	var meta codec.Metadata
	if bytes.Contains(data, []byte("with-exif")) {
		meta.Exif = []byte{0x49, 0x49, 0x2a, 0x00}
	}
	if bytes.Contains(data, []byte("with-icc")) {
		meta.ICC = []byte("profile")
	}
	return meta
}

func (f *fakeCodec) calls() (probe, decode, anim, static, animated int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.probeCalls, f.decodeCalls, f.animCalls, f.staticCalls, f.animatedCalls
}

// failingThumbCodec succeeds on the main encode and fails every
// thumbnail (1x1) encode.
type failingThumbCodec struct {
	fakeCodec
}

func (f *failingThumbCodec) EncodeStatic(img image.Image, pol codec.Policy) ([]byte, error) {
	if img.Bounds().Dx() == 1 {
		return nil, fmt.Errorf("scripted thumbnail encode error")
	}
	return f.fakeCodec.EncodeStatic(img, pol)
}
