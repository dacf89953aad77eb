// Package camera models fixed surveillance cameras as 2D field-of-view
// sectors: a position, a facing bearing, a full aperture angle and a maximum
// range. The single question a Camera answers is whether a point could be
// observed by it.
package camera

import (
	"errors"
	"fmt"
	"math"

	"github.com/cctv-aware/exposure/internal/geo"
)

// ErrInvalidGeometry indicates a camera record whose bearing, aperture or
// range is outside the modelled domain. Raised at load time, before any
// exposure computation starts.
var ErrInvalidGeometry = errors.New("invalid camera geometry")

// UnlimitedRange is the sentinel for a camera with no modelled range limit.
func UnlimitedRange() float64 { return math.Inf(1) }

// Camera is one fixed camera's geometry. Immutable after load.
type Camera struct {
	ID          string            `json:"id"`
	Pos         geo.Point         `json:"position"`
	BearingDeg  float64           `json:"bearing_deg"`  // facing direction, clockwise from true north, [0,360)
	ApertureDeg float64           `json:"aperture_deg"` // full field-of-view angle, (0,360]
	RangeM      float64           `json:"range_m"`      // maximum range in meters; +Inf means unlimited
	Meta        map[string]string `json:"meta,omitempty"`
}

// Validate checks the geometry invariants. The engine validates every camera
// once when the set is loaded and never again on the hot path.
func (c Camera) Validate() error {
	if err := c.Pos.Validate(); err != nil {
		return fmt.Errorf("camera %q: %w", c.ID, err)
	}
	if math.IsNaN(c.BearingDeg) || c.BearingDeg < 0 || c.BearingDeg >= 360 {
		return fmt.Errorf("%w: camera %q bearing %v not in [0,360)", ErrInvalidGeometry, c.ID, c.BearingDeg)
	}
	if math.IsNaN(c.ApertureDeg) || c.ApertureDeg <= 0 || c.ApertureDeg > 360 {
		return fmt.Errorf("%w: camera %q aperture %v not in (0,360]", ErrInvalidGeometry, c.ID, c.ApertureDeg)
	}
	if math.IsNaN(c.RangeM) || c.RangeM <= 0 {
		return fmt.Errorf("%w: camera %q range %v must be positive or unlimited", ErrInvalidGeometry, c.ID, c.RangeM)
	}
	return nil
}

// IsVisible reports whether p lies inside the camera's field of view, and the
// distance from the camera to p in meters. Both boundaries are inclusive: a
// point exactly at maximum range or exactly at half the aperture angle is
// visible. A camera with aperture >= 360 degenerates to a pure range check.
// A zero range or zero aperture never reports visibility; such cameras are
// rejected by Validate on the load path, but the predicate stays total for
// directly constructed values.
func (c Camera) IsVisible(p geo.Point) (bool, float64) {
	d := geo.Distance(c.Pos, p)
	if c.RangeM <= 0 || c.ApertureDeg <= 0 {
		return false, d
	}
	if !math.IsInf(c.RangeM, 1) && d > c.RangeM {
		return false, d
	}
	if c.ApertureDeg >= 360 {
		return true, d
	}
	if d == 0 {
		// The point coincides with the camera; no bearing exists, and a
		// sector always contains its apex.
		return true, d
	}
	diff := geo.AngularDiff(geo.Bearing(c.Pos, p), c.BearingDeg)
	return diff <= c.ApertureDeg/2, d
}

// Set is an immutable, validated camera collection. Load it once and share it
// read-only across evaluations.
type Set struct {
	cams []Camera
}

// NewSet validates every camera and returns the loaded set. The first invalid
// record aborts the load with an error naming the camera, so garbage input
// cannot silently produce plausible-looking exposure numbers.
func NewSet(cams []Camera) (*Set, error) {
	for i, c := range cams {
		if err := c.Validate(); err != nil {
			return nil, fmt.Errorf("camera record %d: %w", i, err)
		}
	}
	out := make([]Camera, len(cams))
	copy(out, cams)
	return &Set{cams: out}, nil
}

// Cameras returns the cameras in load order. Callers must treat the slice as
// read-only.
func (s *Set) Cameras() []Camera {
	if s == nil {
		return nil
	}
	return s.cams
}

// Len returns the number of cameras in the set.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.cams)
}

// MaxRangeM returns the largest finite range in the set and whether any
// camera has unlimited range. The spatial index uses this to size its search
// neighbourhood.
func (s *Set) MaxRangeM() (maxFinite float64, anyUnlimited bool) {
	for _, c := range s.cams {
		if math.IsInf(c.RangeM, 1) {
			anyUnlimited = true
			continue
		}
		if c.RangeM > maxFinite {
			maxFinite = c.RangeM
		}
	}
	return maxFinite, anyUnlimited
}
