package report

import (
	"fmt"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/cctv-aware/exposure/internal/exposure"
	"github.com/cctv-aware/exposure/internal/track"
)

// SavePlot writes a PNG line plot of nearest-camera distance per sample,
// with the exposed samples drawn as a second, thicker series. Requires an
// evaluation run with distances kept.
func SavePlot(path string, seg track.Segment, eval *exposure.Evaluation) error {
	if eval == nil || len(eval.NearestM) == 0 {
		return fmt.Errorf("no distances recorded for %s track %d segment %d", seg.File, seg.Track, seg.Segment)
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s - track %d segment %d", seg.File, seg.Track, seg.Segment)
	p.X.Label.Text = "Sample"
	p.Y.Label.Text = "Nearest camera (m)"

	exposed := make(map[int]bool, len(eval.Visible))
	for _, v := range eval.Visible {
		exposed[v.SampleIndex] = true
	}

	all := make(plotter.XYs, 0, len(eval.NearestM))
	for i, d := range eval.NearestM {
		all = append(all, plotter.XY{X: float64(i), Y: d})
	}
	allLine, err := plotter.NewLine(all)
	if err != nil {
		return fmt.Errorf("failed to build distance line: %w", err)
	}
	allLine.Width = vg.Points(1)
	allLine.Color = color.RGBA{R: 100, G: 100, B: 100, A: 255}
	p.Add(allLine)
	p.Legend.Add("nearest camera", allLine)

	// Exposed runs drawn as separate segments so gaps stay visible.
	var run plotter.XYs
	flush := func() error {
		if len(run) == 0 {
			return nil
		}
		line, err := plotter.NewLine(run)
		if err != nil {
			return fmt.Errorf("failed to build exposure line: %w", err)
		}
		line.Width = vg.Points(3)
		line.Color = color.RGBA{R: 200, G: 40, B: 40, A: 255}
		p.Add(line)
		run = nil
		return nil
	}
	for i, d := range eval.NearestM {
		if exposed[i] {
			run = append(run, plotter.XY{X: float64(i), Y: d})
			continue
		}
		if err := flush(); err != nil {
			return err
		}
	}
	if err := flush(); err != nil {
		return err
	}

	if err := p.Save(14*vg.Inch, 6*vg.Inch, path); err != nil {
		return fmt.Errorf("failed to save plot: %w", err)
	}
	return nil
}
