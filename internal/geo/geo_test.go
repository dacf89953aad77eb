package geo

import (
	"math"
	"testing"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		point   Point
		wantErr bool
	}{
		{"origin", Point{0, 0}, false},
		{"jyvaskyla", Point{62.2426, 25.7473}, false},
		{"north pole", Point{90, 0}, false},
		{"date line", Point{0, -180}, false},
		{"lat too high", Point{90.0001, 0}, true},
		{"lat too low", Point{-91, 0}, true},
		{"lon too high", Point{0, 180.5}, true},
		{"lat NaN", Point{math.NaN(), 0}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.point.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate(%v) error = %v, wantErr %v", tt.point, err, tt.wantErr)
			}
		})
	}
}

func TestDistance(t *testing.T) {
	// One degree of latitude on the reference sphere is ~111.2 km.
	a := Point{62.0, 25.0}
	b := Point{63.0, 25.0}
	d := Distance(a, b)
	if math.Abs(d-111194) > 100 {
		t.Errorf("Distance over 1 deg latitude = %.1f m, want ~111194 m", d)
	}

	if got := Distance(a, a); got != 0 {
		t.Errorf("Distance(p, p) = %v, want 0", got)
	}

	// Symmetry
	if da, db := Distance(a, b), Distance(b, a); math.Abs(da-db) > 1e-9 {
		t.Errorf("Distance not symmetric: %v vs %v", da, db)
	}
}

func TestDistanceNumericalStability(t *testing.T) {
	// Nearly identical points must not produce NaN from inverse trig
	// arguments drifting out of [-1, 1].
	a := Point{62.2426, 25.7473}
	b := Point{62.2426 + 1e-13, 25.7473 - 1e-13}
	if d := Distance(a, b); math.IsNaN(d) || d < 0 {
		t.Errorf("Distance on near-identical points = %v", d)
	}

	// Antipodal points are the other domain edge.
	if d := Distance(Point{0, 0}, Point{0, 180}); math.IsNaN(d) {
		t.Errorf("Distance on antipodal points = NaN")
	}
}

func TestPlanarDistanceAgreesAtShortRange(t *testing.T) {
	a := Point{62.2426, 25.7473}
	b := Destination(a, 73, 40) // 40 m away
	quick := PlanarDistance(a, b)
	exact := Distance(a, b)
	if math.Abs(quick-exact) > 0.2 {
		t.Errorf("PlanarDistance = %.3f, haversine = %.3f; want agreement within 0.2 m", quick, exact)
	}
}

func TestBearing(t *testing.T) {
	origin := Point{60.0, 25.0}
	tests := []struct {
		name string
		to   Point
		want float64
	}{
		{"due north", Point{61.0, 25.0}, 0},
		{"due south", Point{59.0, 25.0}, 180},
		{"due east", Destination(origin, 90, 100), 90},
		{"due west", Destination(origin, 270, 100), 270},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Bearing(origin, tt.to)
			if AngularDiff(got, tt.want) > 0.01 {
				t.Errorf("Bearing = %.4f, want %.4f", got, tt.want)
			}
		})
	}

	if got := Bearing(origin, origin); got != 0 {
		t.Errorf("Bearing(p, p) = %v, want 0", got)
	}
}

func TestAngularDiff(t *testing.T) {
	tests := []struct {
		a, b, want float64
	}{
		{0, 0, 0},
		{0, 180, 180},
		{350, 10, 20},
		{10, 350, 20},
		{90, 270, 180},
		{359.5, 0.5, 1},
		{720, 0, 0},
		{-10, 10, 20},
	}

	for _, tt := range tests {
		if got := AngularDiff(tt.a, tt.b); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("AngularDiff(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
		// Symmetry holds for every pair.
		if ab, ba := AngularDiff(tt.a, tt.b), AngularDiff(tt.b, tt.a); ab != ba {
			t.Errorf("AngularDiff(%v, %v) = %v but reversed = %v", tt.a, tt.b, ab, ba)
		}
	}
}

func TestDestinationRoundTrip(t *testing.T) {
	// Starts near the antimeridian exercise the longitude wraparound.
	starts := []Point{
		{62.2426, 25.7473},
		{0, 179.9999},
		{0, -179.9999},
	}
	for _, start := range starts {
		for _, bearing := range []float64{0, 45, 90, 133.7, 270, 359} {
			for _, dist := range []float64{0.5, 10, 250, 5000} {
				p := Destination(start, bearing, dist)
				if err := p.Validate(); err != nil {
					t.Fatalf("Destination(%v, %v, %v) produced invalid point: %v", start, bearing, dist, err)
				}
				if got := Distance(start, p); math.Abs(got-dist) > dist*1e-6+1e-6 {
					t.Errorf("Distance back to Destination(%v, %v, %v) = %v", start, bearing, dist, got)
				}
				if got := Bearing(start, p); AngularDiff(got, bearing) > 0.01 {
					t.Errorf("Bearing to Destination(%v, %v, %v) = %v", start, bearing, dist, got)
				}
			}
		}
	}
}
