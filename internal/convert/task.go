package convert

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"webpify/internal/codec"
	"webpify/internal/config"
)

// task runs the per-file pipeline: skip check → decision → codec calls →
// output bookkeeping. It executes exactly once, synchronously, and shares
// no mutable state with any other task.
type task struct {
	cfg   config.Config
	codec codec.Codec
	src   SourceFile

	mainPath  string
	thumbPath string
}

func newTask(cfg config.Config, cd codec.Codec, src SourceFile) *task {
	stem := strings.TrimSuffix(src.Name, filepath.Ext(src.Name))
	return &task{
		cfg:       cfg,
		codec:     cd,
		src:       src,
		mainPath:  filepath.Join(cfg.OutputMainFolder, stem+".webp"),
		thumbPath: filepath.Join(cfg.OutputThumbFolder, stem+"_thumb.webp"),
	}
}

func (t *task) run() Outcome {
	out := Outcome{
		FileName: t.src.Name,
		Sizes:    Sizes{Original: t.src.Size},
	}

	mainSkipped := false
	if size, current := t.upToDate(t.mainPath); current {
		mainSkipped = true
		out.Sizes.Main = size
	} else {
		if err := t.convertMain(); err != nil {
			out.Status = StatusFailure
			out.Message = err.Error()
			return out
		}
		out.Sizes.Main = fileSize(t.mainPath)
	}

	// The thumbnail is checked independently: a current main output with
	// a stale or missing thumbnail regenerates only the thumbnail.
	if size, current := t.upToDate(t.thumbPath); current {
		out.Sizes.Thumb = size
		out.Status = StatusSuccess
		if mainSkipped {
			out.Message = fmt.Sprintf("Skip (webp exists and up-to-date): %s", t.src.Name)
		} else {
			out.Message = fmt.Sprintf("Converted (webp ready). Thumbnail skipped (up-to-date): %s", t.src.Name)
		}
		return out
	}

	if err := t.makeThumbnail(); err != nil {
		out.Status = StatusPartial
		if mainSkipped {
			out.Message = fmt.Sprintf("Webp up-to-date: %s (thumbnail failed: %v)", t.src.Name, err)
		} else {
			out.Message = fmt.Sprintf("Converted: %s -> %s (thumbnail failed: %v)",
				t.src.Name, filepath.Base(t.mainPath), err)
		}
		return out
	}
	out.Sizes.Thumb = fileSize(t.thumbPath)

	out.Status = StatusSuccess
	if mainSkipped {
		out.Message = fmt.Sprintf("Thumbnail regenerated (webp up-to-date): %s", t.src.Name)
	} else {
		out.Message = fmt.Sprintf("Converted: %s -> %s | Thumb: %s",
			t.src.Name, filepath.Base(t.mainPath), filepath.Base(t.thumbPath))
	}
	return out
}

// convertMain decodes the source, builds the encode policy, and writes
// the main output. Any error here is terminal for the whole file.
func (t *task) convertMain() error {
	data, err := os.ReadFile(t.src.Path)
	if err != nil {
		return fmt.Errorf("read source: %w", err)
	}

	props, err := t.codec.Probe(data)
	if err != nil {
		return err
	}
	meta := t.codec.ExtractMetadata(data)

	var encoded []byte
	if props.Animated && animationCapable(props.Format) {
		anim, err := t.codec.DecodeAnimation(data)
		if err != nil {
			return err
		}
		encoded, err = t.codec.EncodeAnimated(anim, animatedPolicy(t.cfg, meta))
		if err != nil {
			return fmt.Errorf("encode failed: %w", err)
		}
	} else {
		img, err := t.codec.Decode(data)
		if err != nil {
			return err
		}
		// Upright the image before any alpha decision so geometry and
		// transparency are observed post-rotation.
		img = t.codec.CorrectOrientation(data, img)
		pol := staticPolicy(t.cfg, codec.HasAlpha(img), meta)
		encoded, err = t.codec.EncodeStatic(img, pol)
		if err != nil {
			return fmt.Errorf("encode failed: %w", err)
		}
	}

	if err := os.WriteFile(t.mainPath, encoded, 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}

// makeThumbnail decodes the first frame only (animated sources thumbnail
// as stills), resizes, and encodes with alpha detected on the resampled
// pixels. Errors here degrade the outcome to a partial failure.
func (t *task) makeThumbnail() error {
	data, err := os.ReadFile(t.src.Path)
	if err != nil {
		return fmt.Errorf("read source: %w", err)
	}

	img, err := t.codec.Decode(data)
	if err != nil {
		return err
	}
	img = t.codec.CorrectOrientation(data, img)

	thumb := t.codec.Resize(img, t.cfg.ThumbWidth, t.cfg.ThumbHeight)
	pol := thumbPolicy(t.cfg, codec.HasAlpha(thumb))
	encoded, err := t.codec.EncodeStatic(thumb, pol)
	if err != nil {
		return fmt.Errorf("encode failed: %w", err)
	}

	if err := os.WriteFile(t.thumbPath, encoded, 0o644); err != nil {
		return fmt.Errorf("write thumbnail: %w", err)
	}
	return nil
}

// upToDate reports whether path exists and is at least as new as the
// source, returning its size when it is.
func (t *task) upToDate(path string) (int64, bool) {
	if !t.cfg.SkipExisting {
		return 0, false
	}
	info, err := os.Stat(path)
	if err != nil {
		return 0, false
	}
	if info.ModTime().Before(t.src.ModTime) {
		return 0, false
	}
	return info.Size(), true
}

func fileSize(path string) int64 {
	info, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return info.Size()
}
