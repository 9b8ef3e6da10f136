package convert

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"webpify/internal/codec"
	"webpify/internal/config"
	"webpify/pkg/imgutil"
)

func policyConfig() config.Config {
	return config.Config{
		Quality:               85,
		Effort:                4,
		PreserveExif:          true,
		PreserveICC:           true,
		PreserveAlpha:         true,
		ForceLosslessForAlpha: true,
	}
}

func TestAnimationCapable(t *testing.T) {
	assert.True(t, animationCapable(imgutil.KindGIF))
	assert.False(t, animationCapable(imgutil.KindWEBP), "animated webp input converts from its first frame")
	assert.False(t, animationCapable(imgutil.KindPNG))
	assert.False(t, animationCapable(imgutil.KindJPEG))
}

func TestStaticPolicyAlphaRules(t *testing.T) {
	cfg := policyConfig()

	pol := staticPolicy(cfg, true, codec.Metadata{})
	assert.True(t, pol.PreserveAlpha)
	assert.True(t, pol.Lossless)
	assert.Equal(t, 85, pol.Quality)
	assert.Equal(t, 4, pol.Effort)

	cfg.ForceLosslessForAlpha = false
	pol = staticPolicy(cfg, true, codec.Metadata{})
	assert.True(t, pol.PreserveAlpha)
	assert.False(t, pol.Lossless)

	cfg.PreserveAlpha = false
	pol = staticPolicy(cfg, true, codec.Metadata{})
	assert.False(t, pol.PreserveAlpha)
	assert.False(t, pol.Lossless)

	pol = staticPolicy(policyConfig(), false, codec.Metadata{})
	assert.False(t, pol.PreserveAlpha, "opaque sources never keep an alpha channel")
	assert.False(t, pol.Lossless)
}

func TestStaticPolicyMetadataGating(t *testing.T) {
	cfg := policyConfig()
	meta := codec.Metadata{Exif: []byte{1, 2}, ICC: []byte{3, 4}}

	pol := staticPolicy(cfg, false, meta)
	assert.Equal(t, meta.Exif, pol.Exif)
	assert.Equal(t, meta.ICC, pol.ICC)

	cfg.PreserveExif = false
	cfg.PreserveICC = false
	pol = staticPolicy(cfg, false, meta)
	assert.Nil(t, pol.Exif)
	assert.Nil(t, pol.ICC)

	pol = staticPolicy(policyConfig(), false, codec.Metadata{})
	assert.Nil(t, pol.Exif, "nothing to attach when the source carries none")
	assert.Nil(t, pol.ICC)
}

func TestAnimatedPolicy(t *testing.T) {
	cfg := policyConfig()
	meta := codec.Metadata{ICC: []byte{9}}

	pol := animatedPolicy(cfg, meta)
	assert.True(t, pol.PreserveAlpha, "animation frames keep their alpha unconditionally")
	assert.False(t, pol.Lossless, "the lossless-for-alpha rule is a still-image rule")
	assert.Equal(t, meta.ICC, pol.ICC)
}

func TestThumbPolicyCarriesNoMetadata(t *testing.T) {
	cfg := policyConfig()

	pol := thumbPolicy(cfg, true)
	assert.True(t, pol.PreserveAlpha)
	assert.True(t, pol.Lossless)
	assert.Nil(t, pol.Exif)
	assert.Nil(t, pol.ICC)
}
