// Package report renders finished exposure runs: a JSON summary object, an
// HTML chart page and a PNG timeline plot. It only consumes finalized
// pipeline output and never reaches back into the engine.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"math"

	"github.com/cctv-aware/exposure/internal/exposure"
	"github.com/cctv-aware/exposure/internal/track"
	"github.com/cctv-aware/exposure/internal/units"
)

// CameraResult is the per-camera section of a JSON result.
type CameraResult struct {
	Events        int     `json:"events"`
	Samples       int     `json:"samples"`
	TimeInFovS    float64 `json:"time_in_camera_fov"`
	DistanceInFov float64 `json:"distance_in_camera_fov"`
}

// Result is the JSON summary written for one track segment.
type Result struct {
	File    string `json:"file"`
	Track   int    `json:"track"`
	Segment int    `json:"segment"`

	TotalDistanceM     float64 `json:"total_distance"`
	TotalTime          string  `json:"total_time,omitempty"`
	AvgSpeedKmh        float64 `json:"avg_speed,omitempty"`
	NumberOfUniqueCams int     `json:"number_of_unique_cams"`

	ExposureDistanceM float64 `json:"exposure_distance"`
	DistPercentage    float64 `json:"dist_percentage"`
	ExposureTimeS     float64 `json:"exposure_time,omitempty"`
	TimePercentage    float64 `json:"time_percentage,omitempty"`

	CameraDistanceAvgM    float64 `json:"camera_distance_avg,omitempty"`
	CameraDistanceMedianM float64 `json:"camera_distance_median,omitempty"`

	Reordered  bool `json:"timestamps_reordered,omitempty"`
	Anomalies  int  `json:"timestamp_anomalies,omitempty"`
	EventCount int  `json:"event_count"`

	Cameras map[string]CameraResult `json:"cameras"`
}

// Build assembles the JSON result for one segment from the pipeline output.
func Build(seg track.Segment, events []exposure.Event, summary exposure.Summary) Result {
	r := Result{
		File:               seg.File,
		Track:              seg.Track,
		Segment:            seg.Segment,
		TotalDistanceM:     round2(summary.TrajectoryPathM),
		NumberOfUniqueCams: summary.UniqueCameras,
		ExposureDistanceM:  round2(summary.ExposedPathM),
		DistPercentage:     round2(summary.PathRatio * 100),
		EventCount:         len(events),
		Cameras:            make(map[string]CameraResult, len(summary.PerCamera)),
	}
	if seg.Traj != nil {
		r.Reordered = seg.Traj.Reordered()
		r.Anomalies = len(seg.Traj.Anomalies())
	}

	if summary.TrajectoryDuration > 0 {
		r.TotalTime = units.FormatDuration(summary.TrajectoryDuration)
		r.AvgSpeedKmh = round2(units.ConvertSpeed(summary.AverageSpeedMps, units.KMPH))
		r.ExposureTimeS = round2(summary.ExposedDuration.Seconds())
		r.TimePercentage = round2(summary.ExposureRatio * 100)
	}
	if summary.CameraDistanceMeanM > 0 {
		r.CameraDistanceAvgM = round2(summary.CameraDistanceMeanM)
		r.CameraDistanceMedianM = round2(summary.CameraDistanceMedianM)
	}

	for _, ce := range summary.PerCamera {
		r.Cameras[ce.CameraID] = CameraResult{
			Events:        ce.Events,
			Samples:       ce.Samples,
			TimeInFovS:    round2(ce.Duration.Seconds()),
			DistanceInFov: round2(ce.PathM),
		}
	}
	return r
}

// WriteJSON writes the result as indented JSON.
func WriteJSON(w io.Writer, r Result) error {
	data, err := json.MarshalIndent(r, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}
	if _, err := w.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write result: %w", err)
	}
	return nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
