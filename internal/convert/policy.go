package convert

import (
	"webpify/internal/codec"
	"webpify/internal/config"
	"webpify/pkg/imgutil"
)

// The decision engine: given the probed properties of a source and the
// run configuration, build the encode policy for one codec call.

// animationCapable lists the input formats whose animations the codec can
// re-encode frame for frame. Animated WebP input is flagged by Probe but
// no decoder yields its frames, so it converts from its first frame.
func animationCapable(kind imgutil.Kind) bool {
	return kind == imgutil.KindGIF
}

// staticPolicy decides the still-image encode. Alpha survives only when
// preservation is enabled; the encode is lossless when the force flag
// additionally demands it. Metadata is attached only if present on the
// source and its preservation flag is set.
func staticPolicy(cfg config.Config, hasAlpha bool, meta codec.Metadata) codec.Policy {
	pol := codec.Policy{
		Quality: cfg.Quality,
		Effort:  cfg.Effort,
	}
	if hasAlpha && cfg.PreserveAlpha {
		pol.PreserveAlpha = true
		pol.Lossless = cfg.ForceLosslessForAlpha
	}
	attachMetadataPolicy(&pol, cfg, meta)
	return pol
}

// animatedPolicy decides the animated encode. Still-image alpha and
// lossless rules do not apply; frames keep their alpha as encoded.
func animatedPolicy(cfg config.Config, meta codec.Metadata) codec.Policy {
	pol := codec.Policy{
		Quality:       cfg.Quality,
		Effort:        cfg.Effort,
		PreserveAlpha: true,
	}
	attachMetadataPolicy(&pol, cfg, meta)
	return pol
}

// thumbPolicy mirrors the static rules using the thumbnail's resampled
// pixels; thumbnails carry no metadata.
func thumbPolicy(cfg config.Config, hasAlpha bool) codec.Policy {
	pol := codec.Policy{
		Quality: cfg.Quality,
		Effort:  cfg.Effort,
	}
	if hasAlpha && cfg.PreserveAlpha {
		pol.PreserveAlpha = true
		pol.Lossless = cfg.ForceLosslessForAlpha
	}
	return pol
}

func attachMetadataPolicy(pol *codec.Policy, cfg config.Config, meta codec.Metadata) {
	if cfg.PreserveExif && len(meta.Exif) > 0 {
		pol.Exif = meta.Exif
	}
	if cfg.PreserveICC && len(meta.ICC) > 0 {
		pol.ICC = meta.ICC
	}
}
