package stats

import (
	"errors"
	"image/color"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"emergents/internal/model"
)

const (
	LengthPlotFile    = "genome_length.png"
	HistogramPlotFile = "length_histogram.png"
)

var (
	meanColor  = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	boundColor = color.RGBA{R: 127, G: 127, B: 127, A: 255}
)

// PlotLengthHistory draws the mean genome length per generation with the
// min and max lengths as dashed bounds.
func PlotLengthHistory(history []model.GenerationStats, path string) error {
	if len(history) == 0 {
		return errors.New("history is empty")
	}

	p := plot.New()
	p.Title.Text = "Genome length"
	p.X.Label.Text = "Generation"
	p.Y.Label.Text = "Length (bases)"

	mean := make(plotter.XYs, len(history))
	lower := make(plotter.XYs, len(history))
	upper := make(plotter.XYs, len(history))
	for i, s := range history {
		x := float64(s.Generation)
		mean[i] = plotter.XY{X: x, Y: s.MeanLength}
		lower[i] = plotter.XY{X: x, Y: float64(s.MinLength)}
		upper[i] = plotter.XY{X: x, Y: float64(s.MaxLength)}
	}

	meanLine, err := plotter.NewLine(mean)
	if err != nil {
		return err
	}
	meanLine.LineStyle.Color = meanColor
	meanLine.LineStyle.Width = vg.Points(1.5)

	minLine, err := plotter.NewLine(lower)
	if err != nil {
		return err
	}
	maxLine, err := plotter.NewLine(upper)
	if err != nil {
		return err
	}
	for _, line := range []*plotter.Line{minLine, maxLine} {
		line.LineStyle.Color = boundColor
		line.LineStyle.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}
	}

	p.Add(plotter.NewGrid(), minLine, maxLine, meanLine)
	p.Legend.Add("mean", meanLine)
	p.Legend.Add("min / max", minLine)
	p.Legend.Top = true
	p.Legend.Left = true

	return p.Save(6*vg.Inch, 4*vg.Inch, path)
}

// PlotLengthHistogram draws the distribution of genome lengths.
func PlotLengthHistogram(lengths []int, path string) error {
	if len(lengths) == 0 {
		return errors.New("no lengths to plot")
	}

	values := make(plotter.Values, len(lengths))
	for i, length := range lengths {
		values[i] = float64(length)
	}

	p := plot.New()
	p.Title.Text = "Final genome lengths"
	p.X.Label.Text = "Length (bases)"
	p.Y.Label.Text = "Genomes"

	hist, err := plotter.NewHist(values, 20)
	if err != nil {
		return err
	}
	hist.FillColor = meanColor
	p.Add(hist)

	return p.Save(6*vg.Inch, 4*vg.Inch, path)
}

// WritePlots renders both plots into runDir. The histogram is skipped when
// no final lengths are known.
func WritePlots(runDir string, history []model.GenerationStats, finalLengths []int) error {
	if err := PlotLengthHistory(history, filepath.Join(runDir, LengthPlotFile)); err != nil {
		return err
	}
	if len(finalLengths) == 0 {
		return nil
	}
	return PlotLengthHistogram(finalLengths, filepath.Join(runDir, HistogramPlotFile))
}

// SnapshotLengths returns the genome lengths recorded in a population
// snapshot.
func SnapshotLengths(snapshot model.PopulationSnapshot) []int {
	out := make([]int, 0, len(snapshot.Genomes))
	for _, g := range snapshot.Genomes {
		total := 0
		for _, seg := range g.Segments {
			total += seg.Length
		}
		out = append(out, total)
	}
	return out
}

// PlotAggregate draws a replicate series: the mean across runs with one
// standard deviation above and below.
func PlotAggregate(points []SeriesPoint, path string) error {
	if len(points) == 0 {
		return errors.New("series is empty")
	}

	p := plot.New()
	p.Title.Text = "Mean genome length across replicates"
	p.X.Label.Text = "Generation"
	p.Y.Label.Text = "Length (bases)"

	mean := make(plotter.XYs, len(points))
	lower := make(plotter.XYs, len(points))
	upper := make(plotter.XYs, len(points))
	for i, pt := range points {
		x := float64(pt.Generation)
		mean[i] = plotter.XY{X: x, Y: pt.Mean}
		lower[i] = plotter.XY{X: x, Y: pt.Mean - pt.Std}
		upper[i] = plotter.XY{X: x, Y: pt.Mean + pt.Std}
	}

	meanLine, err := plotter.NewLine(mean)
	if err != nil {
		return err
	}
	meanLine.LineStyle.Color = meanColor
	meanLine.LineStyle.Width = vg.Points(1.5)

	lowLine, err := plotter.NewLine(lower)
	if err != nil {
		return err
	}
	highLine, err := plotter.NewLine(upper)
	if err != nil {
		return err
	}
	for _, line := range []*plotter.Line{lowLine, highLine} {
		line.LineStyle.Color = boundColor
		line.LineStyle.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}
	}

	p.Add(plotter.NewGrid(), lowLine, highLine, meanLine)
	p.Legend.Add("mean", meanLine)
	p.Legend.Add("±1 std", lowLine)
	p.Legend.Top = true
	p.Legend.Left = true

	return p.Save(6*vg.Inch, 4*vg.Inch, path)
}
