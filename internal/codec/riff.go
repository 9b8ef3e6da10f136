package codec

import (
	"bytes"
	"encoding/binary"
)

// VP8X feature flags.
const (
	vp8xICC       = 0x20
	vp8xAlpha     = 0x10
	vp8xEXIF      = 0x08
	vp8xXMP       = 0x04
	vp8xAnimation = 0x02
)

type riffChunk struct {
	fourCC string
	data   []byte
}

// riffChunks walks a WebP RIFF container. A malformed container yields
// whatever chunks parsed cleanly before the damage.
func riffChunks(data []byte) []riffChunk {
	if len(data) < 12 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WEBP" {
		return nil
	}

	var chunks []riffChunk
	pos := 12
	for pos+8 <= len(data) {
		fourCC := string(data[pos : pos+4])
		size := int(binary.LittleEndian.Uint32(data[pos+4 : pos+8]))
		start := pos + 8
		end := start + size
		if end > len(data) {
			break
		}
		chunks = append(chunks, riffChunk{fourCC: fourCC, data: data[start:end]})
		pos = end + (size & 1) // chunks are padded to even sizes
	}
	return chunks
}

type containerFeatures struct {
	animated   bool
	alpha      bool
	width      int
	height     int
	frameCount int
}

// webpContainerFeatures reads animation and alpha state off the VP8X
// header without decoding any pixels.
func webpContainerFeatures(data []byte) containerFeatures {
	var feat containerFeatures
	for _, chunk := range riffChunks(data) {
		switch chunk.fourCC {
		case "VP8X":
			if len(chunk.data) >= 10 {
				flags := chunk.data[0]
				feat.animated = flags&vp8xAnimation != 0
				feat.alpha = flags&vp8xAlpha != 0
				feat.width = 1 + int(uint32(chunk.data[4])|uint32(chunk.data[5])<<8|uint32(chunk.data[6])<<16)
				feat.height = 1 + int(uint32(chunk.data[7])|uint32(chunk.data[8])<<8|uint32(chunk.data[9])<<16)
			}
		case "ANMF":
			feat.frameCount++
		case "ALPH":
			feat.alpha = true
		}
	}
	if feat.frameCount == 0 {
		feat.frameCount = 1
	}
	return feat
}

// attachMetadata remuxes an encoded WebP into a VP8X container carrying
// EXIF and/or ICCP chunks. Embedding is best-effort: if the container
// cannot be parsed the encoding is returned unmodified.
func attachMetadata(encoded, exif, icc []byte) []byte {
	if len(exif) == 0 && len(icc) == 0 {
		return encoded
	}

	chunks := riffChunks(encoded)
	if len(chunks) == 0 {
		return encoded
	}

	var flags byte
	var width, height int
	var body []riffChunk

	for _, chunk := range chunks {
		switch chunk.fourCC {
		case "VP8X":
			if len(chunk.data) >= 10 {
				flags = chunk.data[0]
				width = 1 + int(uint32(chunk.data[4])|uint32(chunk.data[5])<<8|uint32(chunk.data[6])<<16)
				height = 1 + int(uint32(chunk.data[7])|uint32(chunk.data[8])<<8|uint32(chunk.data[9])<<16)
			}
		case "EXIF", "ICCP", "XMP ":
			// replaced below
		default:
			body = append(body, chunk)
		}
	}

	if width == 0 || height == 0 {
		w, h, alpha, ok := bitstreamDimensions(chunks)
		if !ok {
			return encoded
		}
		width, height = w, h
		if alpha {
			flags |= vp8xAlpha
		}
	}

	flags &^= vp8xEXIF | vp8xICC | vp8xXMP
	if len(exif) > 0 {
		flags |= vp8xEXIF
	}
	if len(icc) > 0 {
		flags |= vp8xICC
	}

	vp8x := make([]byte, 10)
	vp8x[0] = flags
	putUint24(vp8x[4:7], uint32(width-1))
	putUint24(vp8x[7:10], uint32(height-1))

	out := []riffChunk{{fourCC: "VP8X", data: vp8x}}
	if len(icc) > 0 {
		out = append(out, riffChunk{fourCC: "ICCP", data: icc})
	}
	out = append(out, body...)
	if len(exif) > 0 {
		out = append(out, riffChunk{fourCC: "EXIF", data: exif})
	}

	return serializeRIFF(out)
}

// bitstreamDimensions reads the canvas size straight from a simple VP8 or
// VP8L bitstream chunk.
func bitstreamDimensions(chunks []riffChunk) (int, int, bool, bool) {
	for _, chunk := range chunks {
		switch chunk.fourCC {
		case "VP8L":
			p := chunk.data
			if len(p) < 5 || p[0] != 0x2f {
				return 0, 0, false, false
			}
			w := 1 + (int(p[1]) | int(p[2]&0x3f)<<8)
			h := 1 + (int(p[2]>>6) | int(p[3])<<2 | int(p[4]&0x0f)<<10)
			alpha := p[4]>>4&1 == 1
			return w, h, alpha, true
		case "VP8 ":
			p := chunk.data
			if len(p) < 10 || p[3] != 0x9d || p[4] != 0x01 || p[5] != 0x2a {
				return 0, 0, false, false
			}
			w := int(binary.LittleEndian.Uint16(p[6:8])) & 0x3fff
			h := int(binary.LittleEndian.Uint16(p[8:10])) & 0x3fff
			return w, h, false, true
		}
	}
	return 0, 0, false, false
}

func serializeRIFF(chunks []riffChunk) []byte {
	var payload bytes.Buffer
	payload.WriteString("WEBP")
	for _, chunk := range chunks {
		payload.WriteString(chunk.fourCC)
		var size [4]byte
		binary.LittleEndian.PutUint32(size[:], uint32(len(chunk.data)))
		payload.Write(size[:])
		payload.Write(chunk.data)
		if len(chunk.data)%2 == 1 {
			payload.WriteByte(0)
		}
	}

	var out bytes.Buffer
	out.WriteString("RIFF")
	var size [4]byte
	binary.LittleEndian.PutUint32(size[:], uint32(payload.Len()))
	out.Write(size[:])
	out.Write(payload.Bytes())
	return out.Bytes()
}

func putUint24(dst []byte, v uint32) {
	dst[0] = byte(v)
	dst[1] = byte(v >> 8)
	dst[2] = byte(v >> 16)
}
