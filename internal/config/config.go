// Package config loads engine tuning parameters from JSON. Fields are
// pointer-typed so a partial file only overrides what it names; omitted
// fields keep their defaults.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Tuning is the root configuration for an exposure run. The same schema is
// accepted on the command line via -config.
type Tuning struct {
	// Engine params
	Workers       *int  `json:"workers,omitempty"`
	SpatialIndex  *bool `json:"spatial_index,omitempty"`
	KeepDistances *bool `json:"keep_distances,omitempty"`

	// Aggregation params
	MaxEventGap *string `json:"max_event_gap,omitempty"` // duration string like "30s"

	// Refinement params
	ResolutionM  *float64 `json:"resolution_m,omitempty"`
	AcceptRangeM *float64 `json:"accept_range_m,omitempty"`

	// Camera load params
	DefaultRadiusM *float64 `json:"default_radius_m,omitempty"`
	RadiusM        *float64 `json:"radius_m,omitempty"` // global override
}

// Defaults returns the canonical tuning values.
func Defaults() *Tuning {
	workers := 1
	spatialIndex := true
	keepDistances := true
	maxGap := "0s"
	resolution := 0.5
	acceptRange := 1.0
	defaultRadius := 10.0
	return &Tuning{
		Workers:        &workers,
		SpatialIndex:   &spatialIndex,
		KeepDistances:  &keepDistances,
		MaxEventGap:    &maxGap,
		ResolutionM:    &resolution,
		AcceptRangeM:   &acceptRange,
		DefaultRadiusM: &defaultRadius,
	}
}

// Load reads a tuning file and overlays it on the defaults. The file must
// have a .json extension and stay under the size cap; partial configs are
// safe.
func Load(path string) (*Tuning, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var loaded Tuning
	if err := json.Unmarshal(data, &loaded); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg := Defaults()
	cfg.Merge(&loaded)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Merge overlays every non-nil field of other onto t.
func (t *Tuning) Merge(other *Tuning) {
	if other == nil {
		return
	}
	if other.Workers != nil {
		t.Workers = other.Workers
	}
	if other.SpatialIndex != nil {
		t.SpatialIndex = other.SpatialIndex
	}
	if other.KeepDistances != nil {
		t.KeepDistances = other.KeepDistances
	}
	if other.MaxEventGap != nil {
		t.MaxEventGap = other.MaxEventGap
	}
	if other.ResolutionM != nil {
		t.ResolutionM = other.ResolutionM
	}
	if other.AcceptRangeM != nil {
		t.AcceptRangeM = other.AcceptRangeM
	}
	if other.DefaultRadiusM != nil {
		t.DefaultRadiusM = other.DefaultRadiusM
	}
	if other.RadiusM != nil {
		t.RadiusM = other.RadiusM
	}
}

// Validate checks value ranges on the populated fields.
func (t *Tuning) Validate() error {
	if t.ResolutionM != nil && *t.ResolutionM <= 0 {
		return fmt.Errorf("resolution_m must be positive, got %v", *t.ResolutionM)
	}
	if t.AcceptRangeM != nil && *t.AcceptRangeM < 0 {
		return fmt.Errorf("accept_range_m must be non-negative, got %v", *t.AcceptRangeM)
	}
	if t.DefaultRadiusM != nil && *t.DefaultRadiusM <= 0 {
		return fmt.Errorf("default_radius_m must be positive, got %v", *t.DefaultRadiusM)
	}
	if t.RadiusM != nil && *t.RadiusM <= 0 {
		return fmt.Errorf("radius_m must be positive, got %v", *t.RadiusM)
	}
	if _, err := t.EventGap(); err != nil {
		return err
	}
	return nil
}

// EventGap parses the configured idle threshold. Zero means no threshold.
func (t *Tuning) EventGap() (time.Duration, error) {
	if t.MaxEventGap == nil || *t.MaxEventGap == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(*t.MaxEventGap)
	if err != nil {
		return 0, fmt.Errorf("bad max_event_gap %q: %w", *t.MaxEventGap, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("max_event_gap must be non-negative, got %v", d)
	}
	return d, nil
}
