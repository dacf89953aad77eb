// Package track holds recorded GPS trajectories: ordered, timestamped
// position samples plus the bookkeeping the exposure engine needs (timestamp
// monotonicity, path length, duration).
package track

import (
	"fmt"
	"sort"
	"time"

	"github.com/cctv-aware/exposure/internal/geo"
)

// Sample is one trajectory point. Index is the sample's position within its
// trajectory and is assigned by New; timestamps may be zero for trackers that
// do not record time.
type Sample struct {
	Index int
	Point geo.Point
	Time  time.Time
}

// AnomalyReason classifies a per-sample timestamp anomaly recorded during
// load. Anomalous samples still take part in visibility evaluation; only
// their duration contribution is treated as zero.
type AnomalyReason string

const (
	AnomalyMissingTime AnomalyReason = "missing_timestamp"
	AnomalyOutOfOrder  AnomalyReason = "out_of_order_timestamp"
)

// Anomaly records one sample that violated the timestamp contract and why.
type Anomaly struct {
	Index  int
	Reason AnomalyReason
}

// Options controls trajectory construction.
type Options struct {
	// Sort reorders samples by timestamp before indexing. Use it for
	// sources that are explicitly flagged as unordered. Without it,
	// out-of-order samples are kept in place and recorded as anomalies.
	Sort bool
}

// Trajectory is an immutable ordered sequence of samples. Construct with New;
// the engine only borrows it read-only.
type Trajectory struct {
	samples   []Sample
	anomalies []Anomaly
	reordered bool
	timed     bool
}

// New validates coordinates, applies the timestamp policy and assigns sample
// indices. An invalid coordinate aborts the load with an error naming the
// sample; timestamp problems never abort, they are recorded as anomalies so
// one bad sample cannot invalidate a multi-hour trajectory.
func New(samples []Sample, opts Options) (*Trajectory, error) {
	out := make([]Sample, len(samples))
	copy(out, samples)

	for i, s := range out {
		if err := s.Point.Validate(); err != nil {
			return nil, fmt.Errorf("trajectory sample %d: %w", i, err)
		}
	}

	t := &Trajectory{}

	if opts.Sort {
		sorted := sort.SliceIsSorted(out, func(i, j int) bool { return out[i].Time.Before(out[j].Time) })
		if !sorted {
			sort.SliceStable(out, func(i, j int) bool { return out[i].Time.Before(out[j].Time) })
			t.reordered = true
		}
	}

	t.timed = len(out) > 0
	var prev time.Time
	for i := range out {
		out[i].Index = i
		ts := out[i].Time
		if ts.IsZero() {
			t.timed = false
			t.anomalies = append(t.anomalies, Anomaly{Index: i, Reason: AnomalyMissingTime})
			continue
		}
		if ts.Before(prev) {
			t.anomalies = append(t.anomalies, Anomaly{Index: i, Reason: AnomalyOutOfOrder})
		} else {
			prev = ts
		}
	}

	t.samples = out
	return t, nil
}

// Len returns the number of samples.
func (t *Trajectory) Len() int { return len(t.samples) }

// Samples returns the ordered samples. Callers must treat the slice as
// read-only.
func (t *Trajectory) Samples() []Sample { return t.samples }

// At returns the sample at index i.
func (t *Trajectory) At(i int) Sample { return t.samples[i] }

// Timed reports whether every sample carries a timestamp. Duration-derived
// statistics are zero for untimed trajectories.
func (t *Trajectory) Timed() bool { return t.timed }

// Reordered reports whether construction had to sort samples by timestamp.
// Reordering is never silent; callers surface this alongside results.
func (t *Trajectory) Reordered() bool { return t.reordered }

// Anomalies returns the recorded per-sample timestamp anomalies in index
// order.
func (t *Trajectory) Anomalies() []Anomaly { return t.anomalies }

// Duration returns the time span from first to last sample, or zero for
// untimed or empty trajectories.
func (t *Trajectory) Duration() time.Duration {
	if !t.timed || len(t.samples) < 2 {
		return 0
	}
	d := t.samples[len(t.samples)-1].Time.Sub(t.samples[0].Time)
	if d < 0 {
		// Unsorted input can end before it starts; anomalous ordering
		// contributes zero duration rather than a negative one.
		return 0
	}
	return d
}

// PathLength returns the travelled distance in meters, accumulated with the
// planar approximation over adjacent samples.
func (t *Trajectory) PathLength() float64 {
	var total float64
	for i := 1; i < len(t.samples); i++ {
		total += geo.PlanarDistance(t.samples[i-1].Point, t.samples[i].Point)
	}
	return total
}

// AverageSpeed returns the mean speed in m/s over the whole trajectory, or
// zero when no duration is known.
func (t *Trajectory) AverageSpeed() float64 {
	d := t.Duration()
	if d <= 0 {
		return 0
	}
	return t.PathLength() / d.Seconds()
}
