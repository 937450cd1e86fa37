package gesture

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ayusman/signcoach/internal/landmark"
)

// ErrInvalidConfig is returned when a Config fails validation.
var ErrInvalidConfig = errors.New("invalid matching config")

// Config holds every tunable of the matching engine. A Config is treated as
// immutable once handed to a Matcher.
type Config struct {
	// Preprocessing
	ScaleMode       landmark.ScaleMode `json:"scale_mode"`
	EnableRotation  bool               `json:"enable_rotation"`
	SmoothingWindow int                `json:"smoothing_window"`

	// Static signs
	StaticWindowSize      int     `json:"static_window_size"`
	StaticAcceptThreshold float64 `json:"static_accept_threshold"`
	StaticRejectThreshold float64 `json:"static_reject_threshold"`

	// Dynamic signs
	DynamicResampleLength  int     `json:"dynamic_resample_length"`
	DynamicAcceptThreshold float64 `json:"dynamic_accept_threshold"`
	DynamicRejectThreshold float64 `json:"dynamic_reject_threshold"`
	DTWBand                int     `json:"dtw_band"` // 0 disables the Sakoe-Chiba band

	// False-positive control
	Top2MarginThreshold        float64 `json:"top2_margin_threshold"`
	EnableImpostorCheck        bool    `json:"enable_impostor_check"`
	ImpostorMargin             float64 `json:"impostor_margin"`
	ImpostorCount              int     `json:"impostor_count"`
	EnableDistinctivenessCheck bool    `json:"enable_distinctiveness_check"`
	DistinctivenessMargin      float64 `json:"distinctiveness_margin"`
	StrictnessFactor           float64 `json:"strictness_factor"`

	// Capture
	MinFramesRequired int `json:"min_frames_required"`
}

// DefaultConfig returns the canonical matching constants.
func DefaultConfig() Config {
	return Config{
		ScaleMode:       landmark.ScaleBBox,
		EnableRotation:  false,
		SmoothingWindow: 3,

		StaticWindowSize:      8,
		StaticAcceptThreshold: 7.0,
		StaticRejectThreshold: 22.0,

		DynamicResampleLength:  40,
		DynamicAcceptThreshold: 0.3,
		DynamicRejectThreshold: 1.0,

		Top2MarginThreshold:        0.005,
		EnableImpostorCheck:        true,
		ImpostorMargin:             0.3,
		ImpostorCount:              5,
		EnableDistinctivenessCheck: true,
		DistinctivenessMargin:      0.10,
		StrictnessFactor:           1.0,

		MinFramesRequired: 20,
	}
}

// Thresholds returns the accept and reject thresholds for a sign type.
func (c Config) Thresholds(t SignType) (accept, reject float64) {
	if t == TypeDynamic {
		return c.DynamicAcceptThreshold, c.DynamicRejectThreshold
	}
	return c.StaticAcceptThreshold, c.StaticRejectThreshold
}

func (c Config) normalizeOptions() landmark.NormalizeOptions {
	return landmark.NormalizeOptions{ScaleMode: c.ScaleMode, EnableRotation: c.EnableRotation}
}

// Validate reports the first inconsistency in c.
func (c Config) Validate() error {
	switch {
	case c.ScaleMode != "" && c.ScaleMode != landmark.ScaleBBox && c.ScaleMode != landmark.ScaleTips:
		return fmt.Errorf("%w: unknown scale mode %q", ErrInvalidConfig, c.ScaleMode)
	case c.StaticAcceptThreshold <= 0 || c.StaticAcceptThreshold >= c.StaticRejectThreshold:
		return fmt.Errorf("%w: static thresholds must satisfy 0 < accept < reject (got %v, %v)",
			ErrInvalidConfig, c.StaticAcceptThreshold, c.StaticRejectThreshold)
	case c.DynamicAcceptThreshold <= 0 || c.DynamicAcceptThreshold >= c.DynamicRejectThreshold:
		return fmt.Errorf("%w: dynamic thresholds must satisfy 0 < accept < reject (got %v, %v)",
			ErrInvalidConfig, c.DynamicAcceptThreshold, c.DynamicRejectThreshold)
	case c.SmoothingWindow < 0:
		return fmt.Errorf("%w: smoothing window must not be negative", ErrInvalidConfig)
	case c.StaticWindowSize < 1:
		return fmt.Errorf("%w: static window size must be at least 1", ErrInvalidConfig)
	case c.DynamicResampleLength < 2:
		return fmt.Errorf("%w: dynamic resample length must be at least 2", ErrInvalidConfig)
	case c.DTWBand < 0:
		return fmt.Errorf("%w: dtw band must not be negative", ErrInvalidConfig)
	case c.Top2MarginThreshold < 0 || c.ImpostorMargin < 0 || c.DistinctivenessMargin < 0:
		return fmt.Errorf("%w: margins must not be negative", ErrInvalidConfig)
	case c.ImpostorCount < 0:
		return fmt.Errorf("%w: impostor count must not be negative", ErrInvalidConfig)
	case c.StrictnessFactor <= 0:
		return fmt.Errorf("%w: strictness factor must be positive", ErrInvalidConfig)
	case c.MinFramesRequired < 0:
		return fmt.Errorf("%w: min frames must not be negative", ErrInvalidConfig)
	}
	return nil
}

// configFile mirrors Config with optional fields so partial files keep defaults.
type configFile struct {
	ScaleMode       *landmark.ScaleMode `json:"scale_mode,omitempty"`
	EnableRotation  *bool               `json:"enable_rotation,omitempty"`
	SmoothingWindow *int                `json:"smoothing_window,omitempty"`

	StaticWindowSize      *int     `json:"static_window_size,omitempty"`
	StaticAcceptThreshold *float64 `json:"static_accept_threshold,omitempty"`
	StaticRejectThreshold *float64 `json:"static_reject_threshold,omitempty"`

	DynamicResampleLength  *int     `json:"dynamic_resample_length,omitempty"`
	DynamicAcceptThreshold *float64 `json:"dynamic_accept_threshold,omitempty"`
	DynamicRejectThreshold *float64 `json:"dynamic_reject_threshold,omitempty"`
	DTWBand                *int     `json:"dtw_band,omitempty"`

	Top2MarginThreshold        *float64 `json:"top2_margin_threshold,omitempty"`
	EnableImpostorCheck        *bool    `json:"enable_impostor_check,omitempty"`
	ImpostorMargin             *float64 `json:"impostor_margin,omitempty"`
	ImpostorCount              *int     `json:"impostor_count,omitempty"`
	EnableDistinctivenessCheck *bool    `json:"enable_distinctiveness_check,omitempty"`
	DistinctivenessMargin      *float64 `json:"distinctiveness_margin,omitempty"`
	StrictnessFactor           *float64 `json:"strictness_factor,omitempty"`

	MinFramesRequired *int `json:"min_frames_required,omitempty"`
}

func set[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

func (f *configFile) apply(c *Config) {
	set(&c.ScaleMode, f.ScaleMode)
	set(&c.EnableRotation, f.EnableRotation)
	set(&c.SmoothingWindow, f.SmoothingWindow)
	set(&c.StaticWindowSize, f.StaticWindowSize)
	set(&c.StaticAcceptThreshold, f.StaticAcceptThreshold)
	set(&c.StaticRejectThreshold, f.StaticRejectThreshold)
	set(&c.DynamicResampleLength, f.DynamicResampleLength)
	set(&c.DynamicAcceptThreshold, f.DynamicAcceptThreshold)
	set(&c.DynamicRejectThreshold, f.DynamicRejectThreshold)
	set(&c.DTWBand, f.DTWBand)
	set(&c.Top2MarginThreshold, f.Top2MarginThreshold)
	set(&c.EnableImpostorCheck, f.EnableImpostorCheck)
	set(&c.ImpostorMargin, f.ImpostorMargin)
	set(&c.ImpostorCount, f.ImpostorCount)
	set(&c.EnableDistinctivenessCheck, f.EnableDistinctivenessCheck)
	set(&c.DistinctivenessMargin, f.DistinctivenessMargin)
	set(&c.StrictnessFactor, f.StrictnessFactor)
	set(&c.MinFramesRequired, f.MinFramesRequired)
}

// maxConfigSize bounds config files read by LoadConfig.
const maxConfigSize = 1 << 20

// LoadConfig reads a JSON config file. Fields omitted from the file keep their
// DefaultConfig values. The result is validated.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return cfg, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	info, err := os.Stat(cleanPath)
	if err != nil {
		return cfg, fmt.Errorf("failed to stat config file: %w", err)
	}
	if info.Size() > maxConfigSize {
		return cfg, fmt.Errorf("config file too large: %d bytes (max %d)", info.Size(), maxConfigSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}

	var file configFile
	if err := json.Unmarshal(data, &file); err != nil {
		return cfg, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	file.apply(&cfg)

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}
