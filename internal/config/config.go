package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

const envPrefix = "CONVERT"

// Config is the validated, immutable run configuration. It is shared
// read-only across all conversion tasks.
type Config struct {
	InputFolder       string
	OutputMainFolder  string
	OutputThumbFolder string

	Quality int
	Effort  int

	ThumbWidth  int
	ThumbHeight int

	MaxWorkers int

	PreserveExif          bool
	PreserveICC           bool
	PreserveAlpha         bool
	ForceLosslessForAlpha bool
	SkipExisting          bool

	LogFile        string
	FailedListFile string
}

var configKeys = []string{
	"input_folder",
	"output_webp_folder",
	"output_thumb_folder",
	"quality",
	"method",
	"thumb_size",
	"max_workers",
	"preserve_exif",
	"preserve_icc",
	"preserve_alpha",
	"force_lossless_for_alpha",
	"skip_existing",
	"log_file",
	"failed_list_file",
}

// Load reads the settings file (settings.json by default), applies
// environment overrides (CONVERT_<KEY> or bare <KEY>), fills defaults,
// and validates the result. A missing settings file is acceptable as
// long as the required folders come from the environment.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	for _, key := range configKeys {
		upper := strings.ToUpper(key)
		if err := v.BindEnv(key, envPrefix+"_"+upper, upper); err != nil {
			return Config{}, err
		}
	}

	explicit := path != ""
	if !explicit {
		path = "settings.json"
	}
	v.SetConfigFile(path)
	v.SetConfigType("json")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		missing := errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist)
		if explicit || !missing {
			return Config{}, fmt.Errorf("reading config file %s: %w", path, err)
		}
	}

	thumbW, thumbH, err := parseThumbSize(v.Get("thumb_size"))
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		InputFolder:           v.GetString("input_folder"),
		OutputMainFolder:      v.GetString("output_webp_folder"),
		OutputThumbFolder:     v.GetString("output_thumb_folder"),
		Quality:               v.GetInt("quality"),
		Effort:                v.GetInt("method"),
		ThumbWidth:            thumbW,
		ThumbHeight:           thumbH,
		MaxWorkers:            v.GetInt("max_workers"),
		PreserveExif:          v.GetBool("preserve_exif"),
		PreserveICC:           v.GetBool("preserve_icc"),
		PreserveAlpha:         v.GetBool("preserve_alpha"),
		ForceLosslessForAlpha: v.GetBool("force_lossless_for_alpha"),
		SkipExisting:          v.GetBool("skip_existing"),
		LogFile:               v.GetString("log_file"),
		FailedListFile:        v.GetString("failed_list_file"),
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("quality", 100)
	v.SetDefault("method", 6)
	v.SetDefault("thumb_size", []int{400, 400})
	v.SetDefault("max_workers", 4)
	v.SetDefault("preserve_exif", true)
	v.SetDefault("preserve_icc", true)
	v.SetDefault("preserve_alpha", true)
	v.SetDefault("force_lossless_for_alpha", true)
	v.SetDefault("skip_existing", true)
	v.SetDefault("log_file", "convert_images.log")
	v.SetDefault("failed_list_file", "failed_files.txt")
}

func (c Config) validate() error {
	missing := []string{}
	if c.InputFolder == "" {
		missing = append(missing, "input_folder")
	}
	if c.OutputMainFolder == "" {
		missing = append(missing, "output_webp_folder")
	}
	if c.OutputThumbFolder == "" {
		missing = append(missing, "output_thumb_folder")
	}
	if len(missing) > 0 {
		return fmt.Errorf("configuration incomplete, missing keys: %s (set them in settings.json or via environment variables)",
			strings.Join(missing, ", "))
	}

	if c.Quality < 1 || c.Quality > 100 {
		return fmt.Errorf("quality must be between 1 and 100, got %d", c.Quality)
	}
	if c.Effort < 0 || c.Effort > 6 {
		return fmt.Errorf("method must be between 0 and 6, got %d", c.Effort)
	}
	if c.ThumbWidth < 1 || c.ThumbHeight < 1 {
		return fmt.Errorf("thumb_size must be two positive integers, got [%d, %d]", c.ThumbWidth, c.ThumbHeight)
	}
	if c.MaxWorkers < 1 {
		return fmt.Errorf("max_workers must be at least 1, got %d", c.MaxWorkers)
	}
	return nil
}

// parseThumbSize accepts the JSON list form ([400, 400]), a string form
// from the environment ("400,400" or "[400, 400]"), or a []int default.
func parseThumbSize(raw any) (int, int, error) {
	switch value := raw.(type) {
	case nil:
		return 400, 400, nil
	case []int:
		if len(value) == 2 {
			return value[0], value[1], nil
		}
	case []any:
		if len(value) == 2 {
			w, wErr := toInt(value[0])
			h, hErr := toInt(value[1])
			if wErr == nil && hErr == nil {
				return w, h, nil
			}
		}
	case string:
		trimmed := strings.Trim(strings.TrimSpace(value), "[]")
		parts := strings.Split(trimmed, ",")
		if len(parts) == 2 {
			w, wErr := strconv.Atoi(strings.TrimSpace(parts[0]))
			h, hErr := strconv.Atoi(strings.TrimSpace(parts[1]))
			if wErr == nil && hErr == nil {
				return w, h, nil
			}
		}
	}
	return 0, 0, fmt.Errorf("thumb_size must be a [width, height] pair, got %v", raw)
}

func toInt(v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		return int(n), nil
	case string:
		return strconv.Atoi(strings.TrimSpace(n))
	default:
		return 0, fmt.Errorf("not an integer: %v", v)
	}
}
