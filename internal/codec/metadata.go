package codec

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"io"

	"webpify/pkg/imgutil"
)

var (
	jpegExifHeader = []byte("Exif\x00\x00")
	jpegICCHeader  = []byte("ICC_PROFILE\x00")
	pngSigLen      = 8
)

// ExtractMetadata pulls the raw EXIF block (TIFF header onward) and the
// assembled ICC profile out of the source container. Absent or malformed
// metadata yields empty slices, never an error: metadata is best-effort
// throughout the pipeline.
func (c *webpCodec) ExtractMetadata(data []byte) Metadata {
	kind, err := imgutil.SniffBytes(data)
	if err != nil {
		return Metadata{}
	}
	switch kind {
	case imgutil.KindJPEG:
		return extractJPEGMetadata(data)
	case imgutil.KindPNG:
		return extractPNGMetadata(data)
	case imgutil.KindWEBP:
		return extractWebPMetadata(data)
	default:
		return Metadata{}
	}
}

func extractJPEGMetadata(data []byte) Metadata {
	var meta Metadata
	var iccParts [][]byte

	br := bytes.NewReader(data)
	soi := make([]byte, 2)
	if _, err := io.ReadFull(br, soi); err != nil || soi[0] != 0xff || soi[1] != 0xd8 {
		return meta
	}

	for {
		marker, err := nextJPEGMarker(br)
		if err != nil || marker == 0xd9 || marker == 0xda { // EOI / SOS
			break
		}
		if marker == 0x01 || (marker >= 0xd0 && marker <= 0xd7) {
			continue // standalone markers carry no payload
		}

		lenBuf := make([]byte, 2)
		if _, err := io.ReadFull(br, lenBuf); err != nil {
			break
		}
		segLen := int(binary.BigEndian.Uint16(lenBuf))
		if segLen < 2 {
			break
		}
		payload := make([]byte, segLen-2)
		if _, err := io.ReadFull(br, payload); err != nil {
			break
		}

		switch marker {
		case 0xe1: // APP1
			if len(meta.Exif) == 0 && prefixed(payload, jpegExifHeader) {
				meta.Exif = payload[len(jpegExifHeader):]
			}
		case 0xe2: // APP2
			if prefixed(payload, jpegICCHeader) && len(payload) > len(jpegICCHeader)+2 {
				// Two sequence bytes follow the header; profiles may span
				// several APP2 segments in order.
				iccParts = append(iccParts, payload[len(jpegICCHeader)+2:])
			}
		}
	}

	if len(iccParts) > 0 {
		meta.ICC = bytes.Join(iccParts, nil)
	}
	return meta
}

func nextJPEGMarker(br *bytes.Reader) (byte, error) {
	b, err := br.ReadByte()
	if err != nil {
		return 0, err
	}
	for b != 0xff {
		b, err = br.ReadByte()
		if err != nil {
			return 0, err
		}
	}
	marker, err := br.ReadByte()
	if err != nil {
		return 0, err
	}
	for marker == 0xff {
		marker, err = br.ReadByte()
		if err != nil {
			return 0, err
		}
	}
	return marker, nil
}

func extractPNGMetadata(data []byte) Metadata {
	var meta Metadata

	pos := pngSigLen
	for pos+8 <= len(data) {
		length := int(binary.BigEndian.Uint32(data[pos : pos+4]))
		chunkType := string(data[pos+4 : pos+8])
		dataStart := pos + 8
		dataEnd := dataStart + length
		if dataEnd+4 > len(data) {
			break
		}
		chunk := data[dataStart:dataEnd]

		switch chunkType {
		case "eXIf":
			if len(meta.Exif) == 0 {
				meta.Exif = chunk
			}
		case "iCCP":
			if len(meta.ICC) == 0 {
				meta.ICC = decodeICCPChunk(chunk)
			}
		case "IEND":
			return meta
		}

		pos = dataEnd + 4 // skip CRC
	}
	return meta
}

// decodeICCPChunk unpacks a PNG iCCP chunk: profile name, NUL,
// compression method byte, then a zlib stream.
func decodeICCPChunk(chunk []byte) []byte {
	nul := bytes.IndexByte(chunk, 0)
	if nul < 0 || nul+2 > len(chunk) {
		return nil
	}
	if chunk[nul+1] != 0 { // only method 0 (zlib) is defined
		return nil
	}
	zr, err := zlib.NewReader(bytes.NewReader(chunk[nul+2:]))
	if err != nil {
		return nil
	}
	defer zr.Close()
	profile, err := io.ReadAll(zr)
	if err != nil {
		return nil
	}
	return profile
}

func extractWebPMetadata(data []byte) Metadata {
	var meta Metadata
	for _, chunk := range riffChunks(data) {
		switch chunk.fourCC {
		case "EXIF":
			if len(meta.Exif) == 0 {
				meta.Exif = chunk.data
			}
		case "ICCP":
			if len(meta.ICC) == 0 {
				meta.ICC = chunk.data
			}
		}
	}
	return meta
}

func prefixed(buf, prefix []byte) bool {
	return len(buf) >= len(prefix) && bytes.Equal(buf[:len(prefix)], prefix)
}
