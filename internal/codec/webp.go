package codec

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"image/gif"
	"image/jpeg"
	"image/png"

	"github.com/chai2010/webp"
	"github.com/sizeofint/webpanimation"
	"golang.org/x/image/bmp"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/tiff"
	xwebp "golang.org/x/image/webp"

	"webpify/pkg/imgutil"
)

// webpCodec is the production Codec: stdlib and x/image decoders in,
// libwebp encoders out.
type webpCodec struct{}

// New returns the WebP codec.
func New() Codec {
	return &webpCodec{}
}

func (c *webpCodec) Probe(data []byte) (Props, error) {
	kind, err := imgutil.SniffBytes(data)
	if err != nil || kind == imgutil.KindUnknown {
		return Props{}, fmt.Errorf("%w: unrecognized signature", ErrUnreadable)
	}

	props := Props{Format: kind, FrameCount: 1}

	switch kind {
	case imgutil.KindGIF:
		g, err := gif.DecodeAll(bytes.NewReader(data))
		if err != nil {
			return Props{}, fmt.Errorf("%w: %v", ErrUnreadable, err)
		}
		props.Width = g.Config.Width
		props.Height = g.Config.Height
		props.FrameCount = len(g.Image)
		props.Animated = len(g.Image) > 1
		if len(g.Image) > 0 {
			props.HasAlpha = HasAlpha(g.Image[0])
		}
		return props, nil

	case imgutil.KindWEBP:
		feat := webpContainerFeatures(data)
		if feat.animated {
			props.Animated = true
			props.FrameCount = feat.frameCount
			props.HasAlpha = feat.alpha
			props.Width = feat.width
			props.Height = feat.height
			return props, nil
		}
	}

	img, err := c.Decode(data)
	if err != nil {
		return Props{}, err
	}
	bounds := img.Bounds()
	props.Width = bounds.Dx()
	props.Height = bounds.Dy()
	props.HasAlpha = HasAlpha(img)
	return props, nil
}

func (c *webpCodec) Decode(data []byte) (image.Image, error) {
	kind, err := imgutil.SniffBytes(data)
	if err != nil {
		return nil, fmt.Errorf("%w: unrecognized signature", ErrUnreadable)
	}

	r := bytes.NewReader(data)
	var img image.Image
	switch kind {
	case imgutil.KindJPEG:
		img, err = jpeg.Decode(r)
	case imgutil.KindPNG:
		img, err = png.Decode(r)
	case imgutil.KindGIF:
		img, err = c.decodeGIFFirstFrame(data)
	case imgutil.KindWEBP:
		img, err = xwebp.Decode(r)
	case imgutil.KindBMP:
		img, err = bmp.Decode(r)
	case imgutil.KindTIFF:
		img, err = tiff.Decode(r)
	default:
		return nil, fmt.Errorf("%w: unrecognized signature", ErrUnreadable)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}
	return img, nil
}

// decodeGIFFirstFrame coalesces only as far as the first frame so partial
// first frames still land on the full canvas.
func (c *webpCodec) decodeGIFFirstFrame(data []byte) (image.Image, error) {
	g, err := gif.DecodeAll(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	if len(g.Image) == 0 {
		return nil, fmt.Errorf("gif has no frames")
	}
	canvas := image.NewNRGBA(image.Rect(0, 0, g.Config.Width, g.Config.Height))
	draw.Draw(canvas, g.Image[0].Bounds(), g.Image[0], g.Image[0].Bounds().Min, draw.Over)
	return canvas, nil
}

func (c *webpCodec) DecodeAnimation(data []byte) (*Animation, error) {
	kind, err := imgutil.SniffBytes(data)
	if err != nil || kind != imgutil.KindGIF {
		return nil, fmt.Errorf("%w: no animation decoder for this format", ErrUnreadable)
	}

	g, err := gif.DecodeAll(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}
	if len(g.Image) == 0 {
		return nil, fmt.Errorf("%w: gif has no frames", ErrUnreadable)
	}

	anim := &Animation{
		Frames:   make([]image.Image, 0, len(g.Image)),
		DelaysMS: make([]int, 0, len(g.Image)),
		Loop:     gifLoopToWebP(g.LoopCount),
	}

	// Frames carry only their changed region; compose them onto a shared
	// canvas honoring disposal.
	canvas := image.NewNRGBA(image.Rect(0, 0, g.Config.Width, g.Config.Height))
	for i, frame := range g.Image {
		draw.Draw(canvas, frame.Bounds(), frame, frame.Bounds().Min, draw.Over)

		snapshot := image.NewNRGBA(canvas.Bounds())
		copy(snapshot.Pix, canvas.Pix)
		anim.Frames = append(anim.Frames, snapshot)

		delay := 100 // GIF default when unset, in ms
		if i < len(g.Delay) && g.Delay[i] > 0 {
			delay = g.Delay[i] * 10
		}
		anim.DelaysMS = append(anim.DelaysMS, delay)

		if i < len(g.Disposal) && g.Disposal[i] == gif.DisposalBackground {
			clearRect(canvas, frame.Bounds())
		}
	}
	return anim, nil
}

// gifLoopToWebP maps image/gif loop semantics (0 = forever, -1 = once)
// onto the WebP ANIM chunk's (0 = forever, n = n times).
func gifLoopToWebP(loop int) int {
	switch {
	case loop == 0:
		return 0
	case loop < 0:
		return 1
	default:
		return loop
	}
}

func clearRect(canvas *image.NRGBA, r image.Rectangle) {
	r = r.Intersect(canvas.Bounds())
	for y := r.Min.Y; y < r.Max.Y; y++ {
		row := canvas.Pix[canvas.PixOffset(r.Min.X, y):canvas.PixOffset(r.Max.X, y)]
		for i := range row {
			row[i] = 0
		}
	}
}

func (c *webpCodec) CorrectOrientation(data []byte, img image.Image) image.Image {
	return applyOrientation(img, orientationOf(data))
}

func (c *webpCodec) Resize(img image.Image, maxW, maxH int) image.Image {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= maxW && h <= maxH {
		return img
	}

	scale := float64(maxW) / float64(w)
	if s := float64(maxH) / float64(h); s < scale {
		scale = s
	}
	nw := int(float64(w) * scale)
	nh := int(float64(h) * scale)
	if nw < 1 {
		nw = 1
	}
	if nh < 1 {
		nh = 1
	}

	dst := image.NewNRGBA(image.Rect(0, 0, nw, nh))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, xdraw.Src, nil)
	return dst
}

func (c *webpCodec) EncodeStatic(img image.Image, pol Policy) ([]byte, error) {
	frame := img
	if !pol.PreserveAlpha {
		frame = flatten(img)
	}

	var buf bytes.Buffer
	opts := &webp.Options{
		Lossless: pol.Lossless,
		Quality:  float32(pol.Quality),
		Exact:    pol.Lossless,
	}
	if err := webp.Encode(&buf, frame, opts); err != nil {
		return nil, fmt.Errorf("webp encode: %w", err)
	}

	return attachMetadata(buf.Bytes(), pol.Exif, pol.ICC), nil
}

func (c *webpCodec) EncodeAnimated(anim *Animation, pol Policy) ([]byte, error) {
	if anim == nil || len(anim.Frames) == 0 {
		return nil, fmt.Errorf("animated encode: no frames")
	}

	bounds := anim.Frames[0].Bounds()
	enc := webpanimation.NewWebpAnimation(bounds.Dx(), bounds.Dy(), anim.Loop)
	defer enc.ReleaseMemory()

	conf := webpanimation.NewWebpConfig()
	if pol.Lossless {
		conf.SetLossless(1)
	}
	conf.SetQuality(float32(pol.Quality))

	timeline := 0
	for i, frame := range anim.Frames {
		if err := enc.AddFrame(frame, timeline, conf); err != nil {
			return nil, fmt.Errorf("animated encode frame %d: %w", i, err)
		}
		delay := 100
		if i < len(anim.DelaysMS) && anim.DelaysMS[i] > 0 {
			delay = anim.DelaysMS[i]
		}
		timeline += delay
	}
	// Closing nil frame fixes the last frame's duration.
	if err := enc.AddFrame(nil, timeline, conf); err != nil {
		return nil, fmt.Errorf("animated encode: %w", err)
	}

	var buf bytes.Buffer
	if err := enc.Encode(&buf); err != nil {
		return nil, fmt.Errorf("animated encode: %w", err)
	}

	return attachMetadata(buf.Bytes(), pol.Exif, pol.ICC), nil
}

// flatten drops the alpha channel, keeping the raw color values.
func flatten(img image.Image) image.Image {
	bounds := img.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			c := dst.NRGBAAt(x-bounds.Min.X, y-bounds.Min.Y)
			r, g, b, _ := img.At(x, y).RGBA()
			c.R = uint8(r >> 8)
			c.G = uint8(g >> 8)
			c.B = uint8(b >> 8)
			c.A = 0xff
			dst.SetNRGBA(x-bounds.Min.X, y-bounds.Min.Y, c)
		}
	}
	return dst
}
