// Package geo provides spherical geometry helpers for WGS84 coordinates:
// great-circle distance, bearings, bearing differences and forward point
// projection. All distances are in meters and all angles in degrees unless
// noted otherwise.
package geo

import (
	"errors"
	"fmt"
	"math"
)

// EarthRadiusM is the mean Earth radius used by all spherical formulas.
const EarthRadiusM = 6371000.0

// ErrInvalidCoordinate indicates a latitude or longitude outside the valid
// WGS84 range. Coordinates are validated once at load time; the math
// functions below assume valid inputs.
var ErrInvalidCoordinate = errors.New("coordinate out of range")

// Point is an immutable geographic position in decimal degrees.
type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Validate checks the coordinate range invariant: latitude in [-90, 90],
// longitude in [-180, 180], both finite.
func (p Point) Validate() error {
	if math.IsNaN(p.Lat) || p.Lat < -90 || p.Lat > 90 {
		return fmt.Errorf("%w: latitude %v", ErrInvalidCoordinate, p.Lat)
	}
	if math.IsNaN(p.Lon) || p.Lon < -180 || p.Lon > 180 {
		return fmt.Errorf("%w: longitude %v", ErrInvalidCoordinate, p.Lon)
	}
	return nil
}

// clamp1 limits v to [-1, 1] so that floating point error on near-identical
// or near-antipodal points cannot push an inverse trig argument out of domain.
func clamp1(v float64) float64 {
	if v > 1 {
		return 1
	}
	if v < -1 {
		return -1
	}
	return v
}

// Distance returns the haversine great-circle distance between a and b in
// meters. Accurate to well under a decimeter at city scale.
func Distance(a, b Point) float64 {
	lat0 := a.Lat * math.Pi / 180
	lat1 := b.Lat * math.Pi / 180
	dLat := lat1 - lat0
	dLon := (b.Lon - a.Lon) * math.Pi / 180

	sinLat := math.Sin(dLat / 2)
	sinLon := math.Sin(dLon / 2)
	h := sinLat*sinLat + math.Cos(lat0)*math.Cos(lat1)*sinLon*sinLon
	return 2 * EarthRadiusM * math.Asin(clamp1(math.Sqrt(h)))
}

// PlanarDistance returns an equirectangular approximation of the distance
// between a and b in meters. For the sub-kilometer spans between adjacent
// trajectory samples it agrees with Distance to millimetres and is much
// cheaper, so path-length accumulation uses it.
func PlanarDistance(a, b Point) float64 {
	x := b.Lat - a.Lat
	y := (b.Lon - a.Lon) * math.Cos((b.Lat+a.Lat)*0.5*math.Pi/180)
	// 111319 m per degree of latitude on the sphere used above.
	return 111319 * math.Sqrt(x*x+y*y)
}

// Bearing returns the initial great-circle bearing from one point toward
// another, in degrees clockwise from true north, normalised to [0, 360).
// The bearing from a point to itself is 0.
func Bearing(from, to Point) float64 {
	lat0 := from.Lat * math.Pi / 180
	lat1 := to.Lat * math.Pi / 180
	dLon := (to.Lon - from.Lon) * math.Pi / 180

	y := math.Sin(dLon) * math.Cos(lat1)
	x := math.Cos(lat0)*math.Sin(lat1) - math.Sin(lat0)*math.Cos(lat1)*math.Cos(dLon)
	deg := math.Atan2(y, x) * 180 / math.Pi
	return math.Mod(deg+360, 360)
}

// AngularDiff returns the smallest absolute difference between two bearings
// in degrees, in [0, 180]. Wraparound at 0/360 is handled, so the difference
// between 350 and 10 is 20, not 340.
func AngularDiff(a, b float64) float64 {
	d := math.Mod(math.Abs(a-b), 360)
	if d > 180 {
		d = 360 - d
	}
	return d
}

// Destination returns the point reached by travelling distM meters from p
// along the given initial bearing. Used to densify path segments when
// measuring how far into a field of view a segment reaches.
func Destination(p Point, bearingDeg, distM float64) Point {
	brng := bearingDeg * math.Pi / 180
	d := distM / EarthRadiusM
	lat0 := p.Lat * math.Pi / 180
	lon0 := p.Lon * math.Pi / 180

	lat1 := math.Asin(clamp1(math.Sin(lat0)*math.Cos(d) + math.Cos(lat0)*math.Sin(d)*math.Cos(brng)))
	lon1 := lon0 + math.Atan2(math.Sin(brng)*math.Sin(d)*math.Cos(lat0), math.Cos(d)-math.Sin(lat0)*math.Sin(lat1))
	// Crossing the antimeridian pushes the raw longitude out of range;
	// normalise so the result always satisfies Validate.
	return Point{Lat: lat1 * 180 / math.Pi, Lon: normalizeLon(lon1 * 180 / math.Pi)}
}

// normalizeLon wraps a longitude in degrees into [-180, 180].
func normalizeLon(lon float64) float64 {
	lon = math.Mod(lon, 360)
	if lon > 180 {
		lon -= 360
	} else if lon < -180 {
		lon += 360
	}
	return lon
}
