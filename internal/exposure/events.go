package exposure

import (
	"sort"
	"time"

	"github.com/cctv-aware/exposure/internal/track"
)

// Event is one maximal contiguous run of trajectory samples visible to a
// single camera. Events for different cameras may overlap in time; a sample
// belongs to at most one event per camera.
type Event struct {
	CameraID   string    `json:"camera_id"`
	StartIndex int       `json:"start_index"`
	EndIndex   int       `json:"end_index"`
	Start      time.Time `json:"start"`
	End        time.Time `json:"end"`
	// SampleIndices are the visible samples of the run, ascending.
	SampleIndices []int `json:"sample_indices"`
}

// Duration is the event's time span: last visible sample minus first visible
// sample. Exposure is never assumed to extend into the gap before or after
// the run.
func (ev Event) Duration() time.Duration {
	if ev.Start.IsZero() || ev.End.IsZero() {
		return 0
	}
	d := ev.End.Sub(ev.Start)
	if d < 0 {
		// Out-of-order timestamps inside a run contribute zero duration.
		return 0
	}
	return d
}

// Aggregate merges the visibility stream into per-camera exposure events.
// Two samples belong to the same run when their indices are adjacent and,
// with a positive maxGap, the gap between their timestamps does not exceed
// it. Event boundaries carry the timestamps of the first and last visible
// sample, never interpolated positions. Output is ordered by start index,
// then camera id.
func Aggregate(traj *track.Trajectory, results []VisibilityResult, maxGap time.Duration) []Event {
	if len(results) == 0 {
		return nil
	}

	perCamera := make(map[string][]VisibilityResult)
	var order []string
	for _, r := range results {
		if _, seen := perCamera[r.CameraID]; !seen {
			order = append(order, r.CameraID)
		}
		perCamera[r.CameraID] = append(perCamera[r.CameraID], r)
	}

	var events []Event
	for _, camID := range order {
		runs := perCamera[camID]
		// Engine output is ordered by sample index, but aggregation does
		// not depend on evaluation order, so restore the invariant here.
		sort.Slice(runs, func(i, j int) bool { return runs[i].SampleIndex < runs[j].SampleIndex })

		current := newEvent(traj, runs[0])
		for _, r := range runs[1:] {
			if sameRun(traj, current, r, maxGap) {
				current = extendEvent(traj, current, r)
				continue
			}
			events = append(events, current)
			current = newEvent(traj, r)
		}
		events = append(events, current)
	}

	sort.Slice(events, func(i, j int) bool {
		if events[i].StartIndex != events[j].StartIndex {
			return events[i].StartIndex < events[j].StartIndex
		}
		return events[i].CameraID < events[j].CameraID
	})
	return events
}

func newEvent(traj *track.Trajectory, r VisibilityResult) Event {
	ts := traj.At(r.SampleIndex).Time
	return Event{
		CameraID:      r.CameraID,
		StartIndex:    r.SampleIndex,
		EndIndex:      r.SampleIndex,
		Start:         ts,
		End:           ts,
		SampleIndices: []int{r.SampleIndex},
	}
}

func sameRun(traj *track.Trajectory, ev Event, r VisibilityResult, maxGap time.Duration) bool {
	if r.SampleIndex != ev.EndIndex+1 {
		return false
	}
	if maxGap <= 0 {
		return true
	}
	prev := traj.At(ev.EndIndex).Time
	next := traj.At(r.SampleIndex).Time
	if prev.IsZero() || next.IsZero() {
		// Untimed samples cannot violate a time-based threshold.
		return true
	}
	return next.Sub(prev) <= maxGap
}

func extendEvent(traj *track.Trajectory, ev Event, r VisibilityResult) Event {
	ev.EndIndex = r.SampleIndex
	ev.End = traj.At(r.SampleIndex).Time
	ev.SampleIndices = append(ev.SampleIndices, r.SampleIndex)
	return ev
}
