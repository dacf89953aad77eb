package exposure

import (
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/cctv-aware/exposure/internal/camera"
	"github.com/cctv-aware/exposure/internal/geo"
	"github.com/cctv-aware/exposure/internal/track"
)

// RefineConfig controls the densified boundary refinement used when
// measuring exposure distance. A run of visible samples usually enters a
// field of view somewhere between two samples; probing pseudo-points along
// the segment recovers that partial coverage.
type RefineConfig struct {
	// ResolutionM is the pseudo-point step along a segment, meters.
	ResolutionM float64
	// AcceptRangeM widens the camera range during probing, absorbing the
	// quantisation error of the step.
	AcceptRangeM float64
}

// DefaultRefineConfig matches the resolution the tool has always measured
// with: half-meter steps and a one meter range allowance.
func DefaultRefineConfig() RefineConfig {
	return RefineConfig{ResolutionM: 0.5, AcceptRangeM: 1.0}
}

// CameraExposure is the per-camera breakdown of a summary.
type CameraExposure struct {
	CameraID string        `json:"camera_id"`
	Events   int           `json:"events"`
	Samples  int           `json:"samples"`
	Duration time.Duration `json:"duration"`
	PathM    float64       `json:"path_m"`
}

// Summary is the terminal artifact of a run: total and per-camera exposure,
// normalised against the full trajectory. Deterministic given the same
// event list.
type Summary struct {
	TrajectoryDuration time.Duration `json:"trajectory_duration"`
	// ExposedDuration is the union of event intervals across all cameras:
	// simultaneous exposure to two cameras counts once here but stays
	// itemised per camera below.
	ExposedDuration time.Duration `json:"exposed_duration"`
	ExposureRatio   float64       `json:"exposure_ratio"`
	UniqueCameras   int           `json:"unique_cameras"`

	TrajectoryPathM float64 `json:"trajectory_path_m"`
	ExposedPathM    float64 `json:"exposed_path_m"`
	PathRatio       float64 `json:"path_ratio"`
	AverageSpeedMps float64 `json:"average_speed_mps"`

	// Distance-to-camera statistics over every evaluated pair; zero when
	// the engine did not keep distances.
	CameraDistanceMeanM   float64 `json:"camera_distance_mean_m"`
	CameraDistanceMedianM float64 `json:"camera_distance_median_m"`

	PerCamera []CameraExposure `json:"per_camera"`
}

// Summarize reduces a finalized event list to summary statistics. It never
// mutates its inputs; an empty event list yields a zero-valued summary with
// only the trajectory totals filled in.
func Summarize(traj *track.Trajectory, cams *camera.Set, events []Event, eval *Evaluation, cfg RefineConfig) Summary {
	s := Summary{}
	if traj != nil {
		s.TrajectoryDuration = traj.Duration()
		s.TrajectoryPathM = traj.PathLength()
		s.AverageSpeedMps = traj.AverageSpeed()
	}
	if cfg.ResolutionM <= 0 {
		cfg = DefaultRefineConfig()
	}

	if eval != nil && len(eval.Distances) > 0 {
		s.CameraDistanceMeanM = stat.Mean(eval.Distances, nil)
		sorted := append([]float64(nil), eval.Distances...)
		sort.Float64s(sorted)
		s.CameraDistanceMedianM = stat.Quantile(0.5, stat.Empirical, sorted, nil)
	}

	if len(events) == 0 {
		return s
	}

	byCamera := camerasByID(cams)
	perCamera := make(map[string]*CameraExposure)
	var ids []string
	for _, ev := range events {
		ce := perCamera[ev.CameraID]
		if ce == nil {
			ce = &CameraExposure{CameraID: ev.CameraID}
			perCamera[ev.CameraID] = ce
			ids = append(ids, ev.CameraID)
		}
		ce.Events++
		ce.Samples += len(ev.SampleIndices)
		ce.Duration += ev.Duration()
		ce.PathM += eventPath(traj, byCamera[ev.CameraID], ev, cfg)
	}

	sort.Strings(ids)
	for _, id := range ids {
		s.PerCamera = append(s.PerCamera, *perCamera[id])
	}
	s.UniqueCameras = len(ids)

	s.ExposedDuration = unionDuration(events)
	if s.TrajectoryDuration > 0 {
		s.ExposureRatio = s.ExposedDuration.Seconds() / s.TrajectoryDuration.Seconds()
	}

	s.ExposedPathM = unionPath(traj, cams, events, cfg)
	if s.TrajectoryPathM > 0 {
		s.PathRatio = s.ExposedPathM / s.TrajectoryPathM
	}

	return s
}

func camerasByID(cams *camera.Set) map[string]camera.Camera {
	out := make(map[string]camera.Camera, cams.Len())
	for _, c := range cams.Cameras() {
		out[c.ID] = c
	}
	return out
}

// unionDuration merges the event time intervals across all cameras and sums
// the merged spans, so overlapping exposure counts once.
func unionDuration(events []Event) time.Duration {
	type span struct{ start, end time.Time }
	var spans []span
	for _, ev := range events {
		if ev.Start.IsZero() || ev.End.IsZero() || !ev.End.After(ev.Start) {
			continue
		}
		spans = append(spans, span{ev.Start, ev.End})
	}
	if len(spans) == 0 {
		return 0
	}
	sort.Slice(spans, func(i, j int) bool { return spans[i].start.Before(spans[j].start) })

	var total time.Duration
	cur := spans[0]
	for _, sp := range spans[1:] {
		if !sp.start.After(cur.end) {
			if sp.end.After(cur.end) {
				cur.end = sp.end
			}
			continue
		}
		total += cur.end.Sub(cur.start)
		cur = sp
	}
	total += cur.end.Sub(cur.start)
	return total
}

// eventPath measures the path distance covered by one event: the segment
// lengths between its consecutive samples plus densified probes past both
// boundary samples toward their non-visible neighbours.
func eventPath(traj *track.Trajectory, cam camera.Camera, ev Event, cfg RefineConfig) float64 {
	var dist float64
	for i := 1; i < len(ev.SampleIndices); i++ {
		a := traj.At(ev.SampleIndices[i-1]).Point
		b := traj.At(ev.SampleIndices[i]).Point
		dist += geo.PlanarDistance(a, b)
	}
	dist += probeBeyond(traj, cam, ev.StartIndex, ev.StartIndex-1, cfg)
	dist += probeBeyond(traj, cam, ev.EndIndex, ev.EndIndex+1, cfg)
	return dist
}

// probeBeyond walks pseudo-points from the sample at from toward the
// neighbour sample at to, at the configured resolution, and returns how far
// the camera keeps the walker in view. Zero when to is out of trajectory
// bounds.
func probeBeyond(traj *track.Trajectory, cam camera.Camera, from, to int, cfg RefineConfig) float64 {
	if to < 0 || to >= traj.Len() || from == to {
		return 0
	}
	a := traj.At(from).Point
	b := traj.At(to).Point
	segment := geo.PlanarDistance(a, b)
	if segment == 0 {
		return 0
	}
	course := geo.Bearing(a, b)

	steps := 1
	if segment > cfg.ResolutionM {
		steps = int(math.Round(segment / cfg.ResolutionM))
	}

	// Widen the range acceptance for probing only.
	probe := cam
	if !math.IsInf(probe.RangeM, 1) {
		probe.RangeM += cfg.AcceptRangeM
	}

	var covered float64
	p := a
	for i := 0; i < steps; i++ {
		p = geo.Destination(p, course, cfg.ResolutionM)
		visible, _ := probe.IsVisible(p)
		if !visible {
			break
		}
		covered += cfg.ResolutionM
	}
	return covered
}

// unionPath measures the path distance exposed to at least one camera:
// maximal runs of any-camera-visible samples, with boundary probes taking
// the best camera at each run edge.
func unionPath(traj *track.Trajectory, cams *camera.Set, events []Event, cfg RefineConfig) float64 {
	visibleBy := make(map[int][]string)
	for _, ev := range events {
		for _, idx := range ev.SampleIndices {
			visibleBy[idx] = append(visibleBy[idx], ev.CameraID)
		}
	}
	if len(visibleBy) == 0 {
		return 0
	}
	indices := make([]int, 0, len(visibleBy))
	for idx := range visibleBy {
		indices = append(indices, idx)
	}
	sort.Ints(indices)

	byCamera := camerasByID(cams)
	var total float64
	runStart := indices[0]
	prev := indices[0]
	flush := func(start, end int) {
		for i := start; i < end; i++ {
			total += geo.PlanarDistance(traj.At(i).Point, traj.At(i+1).Point)
		}
		total += bestProbe(traj, byCamera, visibleBy[start], start, start-1, cfg)
		total += bestProbe(traj, byCamera, visibleBy[end], end, end+1, cfg)
	}
	for _, idx := range indices[1:] {
		if idx == prev+1 {
			prev = idx
			continue
		}
		flush(runStart, prev)
		runStart = idx
		prev = idx
	}
	flush(runStart, prev)
	return total
}

func bestProbe(traj *track.Trajectory, byCamera map[string]camera.Camera, camIDs []string, from, to int, cfg RefineConfig) float64 {
	var best float64
	for _, id := range camIDs {
		if d := probeBeyond(traj, byCamera[id], from, to, cfg); d > best {
			best = d
		}
	}
	return best
}
