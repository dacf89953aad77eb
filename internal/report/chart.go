package report

import (
	"fmt"
	"io"
	"sort"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/cctv-aware/exposure/internal/exposure"
	"github.com/cctv-aware/exposure/internal/track"
)

// RenderHTML writes an HTML page with two charts for one segment: the
// nearest-camera distance along the walk, and a per-camera exposure bar
// chart. The evaluation must carry distances (NearestM) for the line chart
// to have data; without them only the bar chart is emitted.
func RenderHTML(w io.Writer, seg track.Segment, eval *exposure.Evaluation, summary exposure.Summary) error {
	page := components.NewPage()
	page.PageTitle = fmt.Sprintf("Exposure report: %s track %d segment %d", seg.File, seg.Track, seg.Segment)

	if eval != nil && len(eval.NearestM) > 0 {
		page.AddCharts(distanceLine(seg, eval))
	}
	if len(summary.PerCamera) > 0 {
		page.AddCharts(cameraBar(summary))
	}

	if err := page.Render(w); err != nil {
		return fmt.Errorf("failed to render report page: %w", err)
	}
	return nil
}

func distanceLine(seg track.Segment, eval *exposure.Evaluation) *charts.Line {
	exposed := make(map[int]bool, len(eval.Visible))
	for _, v := range eval.Visible {
		exposed[v.SampleIndex] = true
	}

	xAxis := make([]string, 0, len(eval.NearestM))
	nearest := make([]opts.LineData, 0, len(eval.NearestM))
	inFov := make([]opts.LineData, 0, len(eval.NearestM))
	for i, d := range eval.NearestM {
		label := fmt.Sprintf("%d", i)
		if i < seg.Traj.Len() {
			if s := seg.Traj.At(i); !s.Time.IsZero() {
				label = s.Time.Format("15:04:05")
			}
		}
		xAxis = append(xAxis, label)
		nearest = append(nearest, opts.LineData{Value: round2(d)})
		if exposed[i] {
			inFov = append(inFov, opts.LineData{Value: round2(d)})
		} else {
			inFov = append(inFov, opts.LineData{Value: nil})
		}
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    "Nearest camera distance",
			Subtitle: fmt.Sprintf("%s track=%d segment=%d samples=%d", seg.File, seg.Track, seg.Segment, len(eval.NearestM)),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "sample"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "distance (m)"}),
	)
	line.SetXAxis(xAxis)
	line.AddSeries("nearest camera", nearest)
	line.AddSeries("in camera view", inFov,
		charts.WithLineChartOpts(opts.LineChart{ConnectNulls: opts.Bool(false)}),
		charts.WithLineStyleOpts(opts.LineStyle{Width: 3}),
	)
	return line
}

func cameraBar(summary exposure.Summary) *charts.Bar {
	per := make([]exposure.CameraExposure, len(summary.PerCamera))
	copy(per, summary.PerCamera)
	sort.Slice(per, func(i, j int) bool { return per[i].Duration > per[j].Duration })

	ids := make([]string, 0, len(per))
	durations := make([]opts.BarData, 0, len(per))
	distances := make([]opts.BarData, 0, len(per))
	for _, ce := range per {
		ids = append(ids, ce.CameraID)
		durations = append(durations, opts.BarData{Value: round2(ce.Duration.Seconds())})
		distances = append(distances, opts.BarData{Value: round2(ce.PathM)})
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    "Exposure per camera",
			Subtitle: fmt.Sprintf("cameras=%d exposed=%s", summary.UniqueCameras, summary.ExposedDuration),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "camera"}),
	)
	bar.SetXAxis(ids)
	bar.AddSeries("time in view (s)", durations)
	bar.AddSeries("distance in view (m)", distances)
	return bar
}
