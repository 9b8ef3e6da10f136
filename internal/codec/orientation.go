package codec

import (
	"bytes"
	"image"

	exif "github.com/dsoprea/go-exif/v3"
)

// orientationOf returns the EXIF orientation (1-8) stored in the source
// bytes, or 1 when none is present.
func orientationOf(data []byte) int {
	tags, _, err := exif.GetFlatExifDataUniversalSearchWithReadSeeker(bytes.NewReader(data), nil, true)
	if err != nil {
		return 1
	}
	for _, tag := range tags {
		if tag.TagName != "Orientation" {
			continue
		}
		if values, ok := tag.Value.([]uint16); ok && len(values) > 0 {
			o := int(values[0])
			if o >= 1 && o <= 8 {
				return o
			}
		}
	}
	return 1
}

// applyOrientation maps img to the upright image for the given EXIF
// orientation value.
func applyOrientation(img image.Image, orientation int) image.Image {
	if orientation <= 1 || orientation > 8 {
		return img
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	swapped := orientation >= 5 // 5-8 exchange the axes
	dw, dh := w, h
	if swapped {
		dw, dh = h, w
	}

	dst := image.NewNRGBA(image.Rect(0, 0, dw, dh))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var dx, dy int
			switch orientation {
			case 2: // mirror horizontal
				dx, dy = w-1-x, y
			case 3: // rotate 180
				dx, dy = w-1-x, h-1-y
			case 4: // mirror vertical
				dx, dy = x, h-1-y
			case 5: // mirror horizontal + rotate 270 CW
				dx, dy = y, x
			case 6: // rotate 90 CW
				dx, dy = h-1-y, x
			case 7: // mirror horizontal + rotate 90 CW
				dx, dy = h-1-y, w-1-x
			case 8: // rotate 270 CW
				dx, dy = y, w-1-x
			}
			dst.Set(dx, dy, img.At(bounds.Min.X+x, bounds.Min.Y+y))
		}
	}
	return dst
}
