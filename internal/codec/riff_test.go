package codec

import (
	"bytes"
	"encoding/binary"
	"testing"
)

func buildWebP(chunks ...riffChunk) []byte {
	return serializeRIFF(chunks)
}

// vp8lChunk builds a minimal lossless bitstream header carrying only the
// signature, the 14-bit dimensions, and the alpha hint.
func vp8lChunk(w, h int, alpha bool) riffChunk {
	p := make([]byte, 6)
	p[0] = 0x2f
	wv := uint32(w - 1)
	hv := uint32(h - 1)
	p[1] = byte(wv)
	p[2] = byte(wv>>8) | byte(hv&0x3)<<6
	p[3] = byte(hv >> 2)
	p[4] = byte(hv >> 10)
	if alpha {
		p[4] |= 1 << 4
	}
	return riffChunk{fourCC: "VP8L", data: p}
}

func vp8Chunk(w, h int) riffChunk {
	p := make([]byte, 10)
	p[3] = 0x9d
	p[4] = 0x01
	p[5] = 0x2a
	binary.LittleEndian.PutUint16(p[6:8], uint16(w))
	binary.LittleEndian.PutUint16(p[8:10], uint16(h))
	return riffChunk{fourCC: "VP8 ", data: p}
}

func vp8xChunk(flags byte, w, h int) riffChunk {
	p := make([]byte, 10)
	p[0] = flags
	putUint24(p[4:7], uint32(w-1))
	putUint24(p[7:10], uint32(h-1))
	return riffChunk{fourCC: "VP8X", data: p}
}

func TestRIFFChunksRoundTrip(t *testing.T) {
	in := []riffChunk{
		{fourCC: "AAAA", data: []byte{1, 2, 3}}, // odd size forces a pad byte
		{fourCC: "BBBB", data: []byte{4, 5, 6, 7}},
	}
	got := riffChunks(buildWebP(in...))

	if len(got) != 2 {
		t.Fatalf("got %d chunks, want 2", len(got))
	}
	for i := range in {
		if got[i].fourCC != in[i].fourCC {
			t.Errorf("chunk %d fourCC = %q, want %q", i, got[i].fourCC, in[i].fourCC)
		}
		if !bytes.Equal(got[i].data, in[i].data) {
			t.Errorf("chunk %d data = %v, want %v", i, got[i].data, in[i].data)
		}
	}
}

func TestRIFFChunksRejectsNonWebP(t *testing.T) {
	if got := riffChunks([]byte("RIFF\x04\x00\x00\x00WAVEdata")); got != nil {
		t.Errorf("expected nil for non-WebP RIFF, got %v", got)
	}
	if got := riffChunks([]byte("short")); got != nil {
		t.Errorf("expected nil for short input, got %v", got)
	}
}

func TestRIFFChunksTruncatedChunkStopsCleanly(t *testing.T) {
	data := buildWebP(riffChunk{fourCC: "GOOD", data: []byte{1, 2}})
	// Append a chunk header whose declared size runs past the buffer.
	data = append(data, 'B', 'A', 'D', '!', 0xff, 0, 0, 0)

	got := riffChunks(data)
	if len(got) != 1 || got[0].fourCC != "GOOD" {
		t.Fatalf("expected only the intact chunk, got %v", got)
	}
}

func TestWebPContainerFeatures(t *testing.T) {
	data := buildWebP(
		vp8xChunk(vp8xAnimation|vp8xAlpha, 320, 240),
		riffChunk{fourCC: "ANIM", data: make([]byte, 6)},
		riffChunk{fourCC: "ANMF", data: make([]byte, 16)},
		riffChunk{fourCC: "ANMF", data: make([]byte, 16)},
		riffChunk{fourCC: "ANMF", data: make([]byte, 16)},
	)

	feat := webpContainerFeatures(data)
	if !feat.animated {
		t.Error("expected animated")
	}
	if !feat.alpha {
		t.Error("expected alpha")
	}
	if feat.width != 320 || feat.height != 240 {
		t.Errorf("dimensions = %dx%d, want 320x240", feat.width, feat.height)
	}
	if feat.frameCount != 3 {
		t.Errorf("frameCount = %d, want 3", feat.frameCount)
	}
}

func TestWebPContainerFeaturesStill(t *testing.T) {
	feat := webpContainerFeatures(buildWebP(vp8lChunk(100, 50, false)))
	if feat.animated {
		t.Error("unexpected animated flag")
	}
	if feat.frameCount != 1 {
		t.Errorf("frameCount = %d, want 1", feat.frameCount)
	}
}

func TestAttachMetadataBuildsVP8X(t *testing.T) {
	encoded := buildWebP(vp8lChunk(100, 50, true))
	exif := []byte{0x49, 0x49, 0x2a, 0x00, 1, 2, 3}
	icc := []byte("fake-profile")

	out := attachMetadata(encoded, exif, icc)
	chunks := riffChunks(out)
	if len(chunks) != 4 {
		t.Fatalf("got %d chunks, want 4 (VP8X, ICCP, VP8L, EXIF)", len(chunks))
	}

	order := []string{"VP8X", "ICCP", "VP8L", "EXIF"}
	for i, want := range order {
		if chunks[i].fourCC != want {
			t.Errorf("chunk %d = %q, want %q", i, chunks[i].fourCC, want)
		}
	}

	vp8x := chunks[0].data
	if len(vp8x) != 10 {
		t.Fatalf("VP8X payload length = %d, want 10", len(vp8x))
	}
	wantFlags := byte(vp8xAlpha | vp8xEXIF | vp8xICC)
	if vp8x[0] != wantFlags {
		t.Errorf("VP8X flags = %#02x, want %#02x", vp8x[0], wantFlags)
	}

	feat := webpContainerFeatures(out)
	if feat.width != 100 || feat.height != 50 {
		t.Errorf("canvas = %dx%d, want 100x50", feat.width, feat.height)
	}

	if !bytes.Equal(chunks[1].data, icc) {
		t.Error("ICCP payload mismatch")
	}
	if !bytes.Equal(chunks[3].data, exif) {
		t.Error("EXIF payload mismatch")
	}
}

func TestAttachMetadataDerivesVP8Dimensions(t *testing.T) {
	out := attachMetadata(buildWebP(vp8Chunk(64, 48)), []byte{1}, nil)

	feat := webpContainerFeatures(out)
	if feat.width != 64 || feat.height != 48 {
		t.Errorf("canvas = %dx%d, want 64x48", feat.width, feat.height)
	}

	chunks := riffChunks(out)
	if len(chunks) != 3 || chunks[0].fourCC != "VP8X" || chunks[2].fourCC != "EXIF" {
		t.Fatalf("unexpected chunk layout: %v", chunkNames(chunks))
	}
	if chunks[0].data[0]&vp8xAlpha != 0 {
		t.Error("lossy bitstream must not set the alpha flag")
	}
}

func TestAttachMetadataReplacesExistingChunks(t *testing.T) {
	original := buildWebP(
		vp8xChunk(vp8xEXIF|vp8xICC, 100, 50),
		riffChunk{fourCC: "ICCP", data: []byte("old")},
		vp8lChunk(100, 50, false),
		riffChunk{fourCC: "EXIF", data: []byte("old")},
	)

	out := attachMetadata(original, []byte("new-exif"), nil)
	chunks := riffChunks(out)

	var exifCount, iccCount int
	for _, c := range chunks {
		switch c.fourCC {
		case "EXIF":
			exifCount++
			if string(c.data) != "new-exif" {
				t.Errorf("EXIF payload = %q, want %q", c.data, "new-exif")
			}
		case "ICCP":
			iccCount++
		}
	}
	if exifCount != 1 {
		t.Errorf("EXIF chunk count = %d, want 1", exifCount)
	}
	if iccCount != 0 {
		t.Errorf("ICCP chunk count = %d, want 0 after dropping stale profile", iccCount)
	}
	if chunks[0].data[0]&vp8xICC != 0 {
		t.Error("ICC flag must be cleared when no profile is attached")
	}
}

func TestAttachMetadataNoMetadataIsIdentity(t *testing.T) {
	encoded := buildWebP(vp8lChunk(10, 10, false))
	out := attachMetadata(encoded, nil, nil)
	if !bytes.Equal(out, encoded) {
		t.Error("expected unmodified encoding when there is nothing to attach")
	}
}

func TestAttachMetadataUnparseableIsIdentity(t *testing.T) {
	garbage := []byte("definitely not a webp container")
	out := attachMetadata(garbage, []byte{1}, nil)
	if !bytes.Equal(out, garbage) {
		t.Error("expected unmodified bytes when the container cannot be parsed")
	}
}

func chunkNames(chunks []riffChunk) []string {
	names := make([]string, 0, len(chunks))
	for _, c := range chunks {
		names = append(names, c.fourCC)
	}
	return names
}
