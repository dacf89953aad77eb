package main

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/cctv-aware/exposure/internal/config"
	"github.com/cctv-aware/exposure/internal/track"
)

// TestFlagDefaults verifies the flag set exists with the expected defaults.
func TestFlagDefaults(t *testing.T) {
	if gpxFile == nil || *gpxFile != "" {
		t.Errorf("expected -gpx default to be empty, got %v", gpxFile)
	}
	if camsFile == nil || *camsFile != "" {
		t.Errorf("expected -cams default to be empty, got %v", camsFile)
	}
	if workers == nil || *workers != 0 {
		t.Errorf("expected -workers default to be 0, got %v", workers)
	}
	if maxGap == nil || *maxGap != -1 {
		t.Errorf("expected -max-gap default to be -1, got %v", maxGap)
	}
	if noIndex == nil || *noIndex != false {
		t.Errorf("expected -no-index default to be false, got %v", noIndex)
	}
}

// TestApplyFlagsUnvisited verifies that flag defaults never clobber config
// values: applyFlags only overlays flags the caller actually passed, and no
// flags are visited in a test binary.
func TestApplyFlagsUnvisited(t *testing.T) {
	w := 7
	gap := "45s"
	cfg := config.Defaults()
	cfg.Workers = &w
	cfg.MaxEventGap = &gap

	applyFlags(cfg)

	if *cfg.Workers != 7 {
		t.Errorf("expected workers to stay 7, got %d", *cfg.Workers)
	}
	if *cfg.MaxEventGap != "45s" {
		t.Errorf("expected max_event_gap to stay 45s, got %s", *cfg.MaxEventGap)
	}
	if d, err := cfg.EventGap(); err != nil || d != 45*time.Second {
		t.Errorf("expected event gap 45s, got %v (%v)", d, err)
	}
}

func TestSegPath(t *testing.T) {
	seg := track.Segment{Track: 2, Segment: 1}

	tests := []struct {
		name  string
		path  string
		total int
		want  string
	}{
		{"single segment unchanged", "out/report.html", 1, "out/report.html"},
		{"multi segment suffixed", "out/report.html", 3, "out/report_t2_s1.html"},
		{"no extension", "plot", 2, "plot_t2_s1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := segPath(filepath.FromSlash(tt.path), seg, tt.total)
			if got != filepath.FromSlash(tt.want) {
				t.Errorf("segPath(%q, %d) = %q, want %q", tt.path, tt.total, got, tt.want)
			}
		})
	}
}
