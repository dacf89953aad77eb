// Package exposure is the detection core: it intersects a recorded trajectory
// with a set of camera fields of view, aggregates per-sample visibility into
// contiguous exposure events and reduces the events to summary statistics.
package exposure

import (
	"context"
	"fmt"
	"math"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/cctv-aware/exposure/internal/camera"
	"github.com/cctv-aware/exposure/internal/track"
)

// VisibilityResult records one (sample, camera) pair the engine found
// visible. DistanceM is the camera-to-sample distance at that moment.
type VisibilityResult struct {
	SampleIndex int     `json:"sample_index"`
	CameraID    string  `json:"camera_id"`
	DistanceM   float64 `json:"distance_m"`
}

// Options tunes the engine. The zero value is a valid sequential, indexed
// configuration.
type Options struct {
	// Workers is the number of parallel evaluation workers. Values below 2
	// select the sequential path; the parallel path produces identical
	// results in identical order. NumCPU pins the worker count to the
	// machine when Workers is negative.
	Workers int
	// DisableIndex forces the naive sample-times-camera scan instead of
	// the spatial grid pre-filter. The two paths are behaviorally
	// identical; the flag exists for verification and for measurement.
	DisableIndex bool
	// KeepDistances retains the distance of every evaluated pair plus the
	// per-sample nearest-camera distance, for distance statistics and
	// charts. It implies the naive path, since the pre-filter exists
	// precisely to avoid evaluating distant pairs.
	KeepDistances bool
}

// Evaluation is the engine output for one trajectory against one camera set.
type Evaluation struct {
	// Visible holds every visible (sample, camera) pair, ordered by sample
	// index and, within a sample, by camera load order.
	Visible []VisibilityResult
	// Distances holds the camera distance of every evaluated pair, in
	// evaluation order. Only populated with KeepDistances.
	Distances []float64
	// NearestM holds, per sample, the distance to the nearest camera.
	// Only populated with KeepDistances; NaN where no cameras exist.
	NearestM []float64
}

// Engine evaluates trajectories against camera sets. Stateless apart from
// its options; safe for concurrent use.
type Engine struct {
	opts Options
}

// NewEngine returns an engine with the given options.
func NewEngine(opts Options) *Engine {
	if opts.Workers < 0 {
		opts.Workers = runtime.NumCPU()
	}
	return &Engine{opts: opts}
}

// Evaluate computes the visibility of every trajectory sample against every
// camera in the set. An empty trajectory or camera set yields an empty
// evaluation, not an error. Sample order is deterministic regardless of the
// worker count.
func (e *Engine) Evaluate(ctx context.Context, traj *track.Trajectory, cams *camera.Set) (*Evaluation, error) {
	eval := &Evaluation{}
	if traj == nil || traj.Len() == 0 || cams == nil || cams.Len() == 0 {
		return eval, nil
	}

	var idx *gridIndex
	if !e.opts.DisableIndex && !e.opts.KeepDistances {
		idx = newGridIndex(cams)
	}

	if e.opts.Workers > 1 {
		return e.evaluateParallel(ctx, traj, cams, idx)
	}

	if e.opts.KeepDistances {
		eval.Distances = make([]float64, 0, traj.Len()*cams.Len())
		eval.NearestM = make([]float64, 0, traj.Len())
	}

	for _, s := range traj.Samples() {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("evaluation cancelled at sample %d: %w", s.Index, err)
		}
		e.evaluateSample(s, cams, idx, eval)
	}
	return eval, nil
}

// evaluateParallel shards samples into contiguous chunks, evaluates the
// chunks concurrently and concatenates the per-chunk output in chunk order,
// so the merged result is identical to the sequential path.
func (e *Engine) evaluateParallel(ctx context.Context, traj *track.Trajectory, cams *camera.Set, idx *gridIndex) (*Evaluation, error) {
	samples := traj.Samples()
	workers := e.opts.Workers
	if workers > len(samples) {
		workers = len(samples)
	}

	chunkSize := (len(samples) + workers - 1) / workers
	nChunks := (len(samples) + chunkSize - 1) / chunkSize
	parts := make([]*Evaluation, nChunks)

	g, ctx := errgroup.WithContext(ctx)
	for c := 0; c < nChunks; c++ {
		lo := c * chunkSize
		hi := lo + chunkSize
		if hi > len(samples) {
			hi = len(samples)
		}
		part := &Evaluation{}
		if e.opts.KeepDistances {
			part.NearestM = make([]float64, 0, hi-lo)
		}
		parts[c] = part
		chunk := samples[lo:hi]

		g.Go(func() error {
			for _, s := range chunk {
				if err := ctx.Err(); err != nil {
					return fmt.Errorf("evaluation cancelled at sample %d: %w", s.Index, err)
				}
				e.evaluateSample(s, cams, idx, part)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	merged := &Evaluation{}
	if e.opts.KeepDistances {
		merged.NearestM = make([]float64, 0, len(samples))
	}
	for _, part := range parts {
		merged.Visible = append(merged.Visible, part.Visible...)
		merged.Distances = append(merged.Distances, part.Distances...)
		merged.NearestM = append(merged.NearestM, part.NearestM...)
	}
	if !e.opts.KeepDistances {
		merged.NearestM = nil
	}
	return merged, nil
}

// evaluateSample tests one sample against the candidate cameras and appends
// the outcome to part. Both the sequential path and the worker chunks call
// it against an output they own exclusively; samples arrive in ascending
// index order within each call sequence, so appended NearestM values stay
// positional.
func (e *Engine) evaluateSample(s track.Sample, cams *camera.Set, idx *gridIndex, part *Evaluation) {
	all := cams.Cameras()
	nearest := math.NaN()

	visit := func(camIdx int) {
		cam := all[camIdx]
		visible, d := cam.IsVisible(s.Point)
		if e.opts.KeepDistances {
			part.Distances = append(part.Distances, d)
			if math.IsNaN(nearest) || d < nearest {
				nearest = d
			}
		}
		if visible {
			part.Visible = append(part.Visible, VisibilityResult{
				SampleIndex: s.Index,
				CameraID:    cam.ID,
				DistanceM:   d,
			})
		}
	}

	if idx != nil {
		idx.visitCandidates(s.Point, visit)
	} else {
		for i := range all {
			visit(i)
		}
	}

	if e.opts.KeepDistances {
		part.NearestM = append(part.NearestM, nearest)
	}
}
