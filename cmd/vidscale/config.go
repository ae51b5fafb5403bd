package main

import (
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/pflag"
)

// fileConfig mirrors the flag set in TOML form. Every key is optional;
// values only fill in flags the command line left untouched.
type fileConfig struct {
	LogLevel string `toml:"log_level"`

	Filter string  `toml:"filter"`
	Width  int     `toml:"width"`
	Height int     `toml:"height"`
	Scale  float64 `toml:"scale"`
	Kernel string  `toml:"kernel"`

	Model       string `toml:"model"`
	Device      int    `toml:"device"`
	TTA         bool   `toml:"tta"`
	ONNXLibrary string `toml:"onnx_library"`

	Codec         string `toml:"codec"`
	PixFmt        string `toml:"pix_fmt"`
	BitRate       int64  `toml:"bit_rate"`
	CRF           int    `toml:"crf"`
	Preset        string `toml:"preset"`
	NoCopyStreams bool   `toml:"no_copy_streams"`

	MetricsAddr      string `toml:"metrics_addr"`
	ProgressInterval string `toml:"progress_interval"`
}

// applyConfig loads the TOML file named by --config and copies its
// values onto opts wherever the command line did not set the matching
// flag. Explicit flags always win over the file.
func applyConfig(flags *pflag.FlagSet, opts *runOptions) error {
	if opts.configPath == "" {
		return nil
	}

	data, err := os.ReadFile(opts.configPath)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}
	var cfg fileConfig
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return fmt.Errorf("parsing %s: %w", opts.configPath, err)
	}

	var interval time.Duration
	if cfg.ProgressInterval != "" {
		interval, err = time.ParseDuration(cfg.ProgressInterval)
		if err != nil {
			return fmt.Errorf("config progress_interval: %w", err)
		}
	}

	set := func(flag string, apply func()) {
		if !flags.Changed(flag) {
			apply()
		}
	}

	if cfg.LogLevel != "" {
		set("log-level", func() { opts.logLevel = cfg.LogLevel })
	}
	if cfg.Filter != "" {
		set("filter", func() { opts.filterKind = cfg.Filter })
	}
	if cfg.Width != 0 {
		set("width", func() { opts.width = cfg.Width })
	}
	if cfg.Height != 0 {
		set("height", func() { opts.height = cfg.Height })
	}
	if cfg.Scale != 0 {
		set("scale", func() { opts.scale = cfg.Scale })
	}
	if cfg.Kernel != "" {
		set("kernel", func() { opts.kernel = cfg.Kernel })
	}
	if cfg.Model != "" {
		set("model", func() { opts.model = cfg.Model })
	}
	if cfg.Device != 0 {
		set("device", func() { opts.device = cfg.Device })
	}
	if cfg.TTA {
		set("tta", func() { opts.tta = true })
	}
	if cfg.ONNXLibrary != "" {
		set("onnx-library", func() { opts.onnxLibrary = cfg.ONNXLibrary })
	}
	if cfg.Codec != "" {
		set("codec", func() { opts.codec = cfg.Codec })
	}
	if cfg.PixFmt != "" {
		set("pix-fmt", func() { opts.pixFmt = cfg.PixFmt })
	}
	if cfg.BitRate != 0 {
		set("bit-rate", func() { opts.bitRate = cfg.BitRate })
	}
	if cfg.CRF != 0 {
		set("crf", func() { opts.crf = cfg.CRF })
	}
	if cfg.Preset != "" {
		set("preset", func() { opts.preset = cfg.Preset })
	}
	if cfg.NoCopyStreams {
		set("no-copy-streams", func() { opts.noCopy = true })
	}
	if cfg.MetricsAddr != "" {
		set("metrics-addr", func() { opts.metricsAddr = cfg.MetricsAddr })
	}
	if cfg.ProgressInterval != "" {
		set("progress-interval", func() { opts.progressInterval = interval })
	}
	return nil
}
