package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	capture "github.com/kylerobots/ground-texture-sim"
)

// options collects everything the command needs to run. Defaults come from
// capture.DefaultParams, a TOML file may override them, and flags override
// both.
type options struct {
	params    capture.Params
	bridgeURL string
	outputDir string
	logLevel  string
}

func defaultOptions() options {
	return options{
		params:    capture.DefaultParams(),
		bridgeURL: "ws://localhost:9870",
		outputDir: "output",
		logLevel:  "info",
	}
}

type fileConfig struct {
	Height          *float64 `toml:"height"`
	ImageTopic      string   `toml:"image_topic"`
	CameraInfoTopic string   `toml:"camera_info_topic"`
	PoseTopic       string   `toml:"pose_topic"`
	MoveService     string   `toml:"move_service"`
	Model           string   `toml:"model"`
	Output          string   `toml:"output"`
	BridgeURL       string   `toml:"bridge_url"`
	MoveTimeout     string   `toml:"move_timeout"`
	CollectTimeout  string   `toml:"collect_timeout"`
	MaxPollAttempts int      `toml:"max_poll_attempts"`
	LogLevel        string   `toml:"log_level"`
}

// applyConfigFile overlays values from a TOML file onto opts. Only keys
// present in the file are applied.
func applyConfigFile(path string, opts *options) error {
	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return fmt.Errorf("load config %s: %w", path, err)
	}

	if raw.Height != nil {
		opts.params.CameraHeight = *raw.Height
	}
	if meta.IsDefined("image_topic") {
		opts.params.ImageStream = strings.TrimSpace(raw.ImageTopic)
	}
	if meta.IsDefined("camera_info_topic") {
		opts.params.CameraInfoStream = strings.TrimSpace(raw.CameraInfoTopic)
	}
	if meta.IsDefined("pose_topic") {
		opts.params.PoseStream = strings.TrimSpace(raw.PoseTopic)
	}
	if meta.IsDefined("move_service") {
		opts.params.MoveService = strings.TrimSpace(raw.MoveService)
	}
	if meta.IsDefined("model") {
		opts.params.ModelName = strings.TrimSpace(raw.Model)
	}
	if meta.IsDefined("output") {
		opts.outputDir = strings.TrimSpace(raw.Output)
	}
	if meta.IsDefined("bridge_url") {
		opts.bridgeURL = strings.TrimSpace(raw.BridgeURL)
	}
	if meta.IsDefined("move_timeout") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.MoveTimeout))
		if err != nil {
			return fmt.Errorf("parse move_timeout: %w", err)
		}
		opts.params.MoveTimeout = d
	}
	if meta.IsDefined("collect_timeout") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.CollectTimeout))
		if err != nil {
			return fmt.Errorf("parse collect_timeout: %w", err)
		}
		opts.params.CollectTimeout = d
	}
	if meta.IsDefined("max_poll_attempts") {
		opts.params.MaxPollAttempts = raw.MaxPollAttempts
	}
	if meta.IsDefined("log_level") {
		opts.logLevel = strings.TrimSpace(raw.LogLevel)
	}
	return nil
}
