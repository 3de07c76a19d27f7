// Package config defines the service configuration and the task definition
// file format.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config represents the top-level service configuration. Values come from
// an optional YAML file overridden by VIDMARK_* environment variables.
type Config struct {
	Web       WebConfig       `mapstructure:"web"`
	Probe     ProbeConfig     `mapstructure:"probe"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Renderer  RendererConfig  `mapstructure:"renderer"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`

	// TasksFile is the path to the YAML task definition file.
	TasksFile string `mapstructure:"tasks_file" validate:"required"`
}

// WebConfig holds the HTTP server settings.
type WebConfig struct {
	Host            string        `mapstructure:"host"`
	Port            string        `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// ProbeConfig controls the startup render probe.
type ProbeConfig struct {
	Workers        int           `mapstructure:"workers" validate:"min=1"`
	PerItemTimeout time.Duration `mapstructure:"per_item_timeout" validate:"gt=0"`
	OverallTimeout time.Duration `mapstructure:"overall_timeout" validate:"gt=0"`
	RatePerSec     float64       `mapstructure:"rate_per_sec"`
	Burst          int           `mapstructure:"burst"`
}

// StorageConfig locates the on-disk state. Exclusions persist as one file
// per task under ExclusionsDir.
type StorageConfig struct {
	ResultsRoot   string `mapstructure:"results_root" validate:"required"`
	ExclusionsDir string `mapstructure:"exclusions_dir" validate:"required"`
}

// RendererConfig configures the ffmpeg frame extractor.
type RendererConfig struct {
	FFmpegPath  string `mapstructure:"ffmpeg_path"`
	FFprobePath string `mapstructure:"ffprobe_path"`
	FrameCount  int    `mapstructure:"frame_count" validate:"min=1"`
	FrameWidth  int    `mapstructure:"frame_width"`
}

// TelemetryConfig configures tracing export. An empty endpoint disables
// export.
type TelemetryConfig struct {
	ServiceName      string  `mapstructure:"service_name"`
	ExporterEndpoint string  `mapstructure:"exporter_endpoint"`
	Probability      float64 `mapstructure:"probability"`
}

// Load reads the service configuration. The optional path names a YAML
// file; environment variables prefixed with VIDMARK_ override file values
// (VIDMARK_WEB_PORT, VIDMARK_STORAGE_RESULTS_ROOT, ...).
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("web.host", "0.0.0.0")
	v.SetDefault("web.port", "5000")
	v.SetDefault("web.read_timeout", 5*time.Second)
	v.SetDefault("web.write_timeout", 30*time.Second)
	v.SetDefault("web.idle_timeout", 120*time.Second)
	v.SetDefault("web.shutdown_timeout", 20*time.Second)

	v.SetDefault("probe.workers", 4)
	v.SetDefault("probe.per_item_timeout", 30*time.Second)
	v.SetDefault("probe.overall_timeout", 30*time.Minute)
	v.SetDefault("probe.rate_per_sec", 0.0)
	v.SetDefault("probe.burst", 1)

	v.SetDefault("storage.results_root", "results")
	v.SetDefault("storage.exclusions_dir", "exclusions")

	v.SetDefault("renderer.ffmpeg_path", "ffmpeg")
	v.SetDefault("renderer.ffprobe_path", "ffprobe")
	v.SetDefault("renderer.frame_count", 10)
	v.SetDefault("renderer.frame_width", 640)

	v.SetDefault("telemetry.service_name", "vidmark")
	v.SetDefault("telemetry.probability", 0.05)

	v.SetDefault("tasks_file", "tasks.yaml")

	v.SetEnvPrefix("VIDMARK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := validator.New(validator.WithRequiredStructEnabled()).Struct(cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}
