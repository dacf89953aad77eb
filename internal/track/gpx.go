package track

import (
	"fmt"
	"path/filepath"

	"github.com/tkrajina/gpxgo/gpx"

	"github.com/cctv-aware/exposure/internal/geo"
)

// Segment is one GPX track segment loaded as a trajectory, tagged with its
// origin so multi-segment files keep their per-segment results apart.
type Segment struct {
	File    string
	Track   int
	Segment int
	Traj    *Trajectory
}

// LoadGPX parses a GPX file and returns one trajectory per track segment, in
// file order. Point times are taken as recorded; segments without timestamps
// load fine but yield zero-duration statistics.
func LoadGPX(path string, opts Options) ([]Segment, error) {
	doc, err := gpx.ParseFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to parse gpx file %s: %w", path, err)
	}
	return segmentsFromGPX(filepath.Base(path), doc, opts)
}

// LoadGPXBytes parses GPX content already in memory.
func LoadGPXBytes(name string, data []byte, opts Options) ([]Segment, error) {
	doc, err := gpx.ParseBytes(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse gpx data %s: %w", name, err)
	}
	return segmentsFromGPX(name, doc, opts)
}

func segmentsFromGPX(name string, doc *gpx.GPX, opts Options) ([]Segment, error) {
	var out []Segment
	for ti, trk := range doc.Tracks {
		for si, seg := range trk.Segments {
			samples := make([]Sample, 0, len(seg.Points))
			for _, p := range seg.Points {
				samples = append(samples, Sample{
					Point: geo.Point{Lat: p.Latitude, Lon: p.Longitude},
					Time:  p.Timestamp,
				})
			}
			traj, err := New(samples, opts)
			if err != nil {
				return nil, fmt.Errorf("%s track %d segment %d: %w", name, ti, si, err)
			}
			out = append(out, Segment{File: name, Track: ti, Segment: si, Traj: traj})
		}
	}
	return out, nil
}
