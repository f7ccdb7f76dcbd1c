package charts

import (
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/wcharczuk/go-chart/v2"

	"tailortalk/internal/analytics"
)

const (
	chartWidth  = 900
	chartHeight = 512
	histogramBins = 10
)

// Renderer writes analysis charts as PNG files into a directory.
type Renderer struct {
	dir string
}

// NewRenderer ensures dir exists and returns a renderer targeting it.
func NewRenderer(dir string) (*Renderer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create visualizations dir: %w", err)
	}
	return &Renderer{dir: dir}, nil
}

// Dir returns the directory charts are written to.
func (r *Renderer) Dir() string { return r.dir }

// Render draws the chart for res into a uniquely named PNG and returns the
// filename. Results without a chart return "".
func (r *Renderer) Render(res analytics.Result) (string, error) {
	if res.Chart == "" {
		return "", nil
	}

	filename := uuid.New().String() + ".png"
	f, err := os.Create(filepath.Join(r.dir, filename))
	if err != nil {
		return "", fmt.Errorf("create chart file: %w", err)
	}
	defer f.Close()

	if err := Draw(res, f); err != nil {
		os.Remove(filepath.Join(r.dir, filename))
		return "", err
	}
	return filename, nil
}

// Draw renders the chart for res to w. Chart types without a native
// renderer degrade: heatmap-like results arrive pre-flattened as bars, and
// anything else with samples becomes a histogram.
func Draw(res analytics.Result, w io.Writer) error {
	switch res.Chart {
	case analytics.ChartPie:
		return drawPie(res, w)
	case analytics.ChartHistogram:
		return drawHistogram(res, w)
	case analytics.ChartLine:
		return drawLine(res, w)
	case analytics.ChartBar:
		return drawBar(res, w)
	default:
		if len(res.Samples) > 0 {
			return drawHistogram(res, w)
		}
		return drawBar(res, w)
	}
}

func drawBar(res analytics.Result, w io.Writer) error {
	if len(res.Labels) == 0 || len(res.Labels) != len(res.Values) {
		return fmt.Errorf("bar chart needs matching labels and values")
	}
	bars := make([]chart.Value, len(res.Labels))
	for i := range res.Labels {
		bars[i] = chart.Value{Label: res.Labels[i], Value: res.Values[i]}
	}
	graph := chart.BarChart{
		Title:      res.Title,
		Width:      chartWidth,
		Height:     chartHeight,
		BarWidth:   60,
		Background: chart.Style{Padding: chart.Box{Top: 40}},
		Bars:       bars,
	}
	return graph.Render(chart.PNG, w)
}

func drawPie(res analytics.Result, w io.Writer) error {
	if len(res.Labels) == 0 || len(res.Labels) != len(res.Values) {
		return fmt.Errorf("pie chart needs matching labels and values")
	}
	var values []chart.Value
	for i := range res.Labels {
		if res.Values[i] <= 0 {
			continue // zero slices break the layout
		}
		values = append(values, chart.Value{
			Label: fmt.Sprintf("%s (%.1f)", res.Labels[i], res.Values[i]),
			Value: res.Values[i],
		})
	}
	if len(values) == 0 {
		return fmt.Errorf("pie chart needs at least one positive value")
	}
	graph := chart.PieChart{
		Title:  res.Title,
		Width:  chartHeight,
		Height: chartHeight,
		Values: values,
	}
	return graph.Render(chart.PNG, w)
}

func drawHistogram(res analytics.Result, w io.Writer) error {
	if len(res.Samples) == 0 {
		return fmt.Errorf("histogram needs samples")
	}
	min, max := res.Samples[0], res.Samples[0]
	for _, v := range res.Samples {
		min = math.Min(min, v)
		max = math.Max(max, v)
	}
	if max == min {
		max = min + 1
	}
	width := (max - min) / histogramBins
	counts := make([]int, histogramBins)
	for _, v := range res.Samples {
		bin := int((v - min) / width)
		if bin >= histogramBins {
			bin = histogramBins - 1
		}
		counts[bin]++
	}

	bars := make([]chart.Value, histogramBins)
	for i, c := range counts {
		lo := min + float64(i)*width
		bars[i] = chart.Value{
			Label: fmt.Sprintf("%.0f–%.0f", lo, lo+width),
			Value: float64(c),
		}
	}
	graph := chart.BarChart{
		Title:      res.Title,
		Width:      chartWidth,
		Height:     chartHeight,
		BarWidth:   50,
		Background: chart.Style{Padding: chart.Box{Top: 40}},
		Bars:       bars,
	}
	return graph.Render(chart.PNG, w)
}

func drawLine(res analytics.Result, w io.Writer) error {
	ys := res.Values
	if len(ys) == 0 {
		ys = res.Samples
	}
	if len(ys) < 2 {
		return fmt.Errorf("line chart needs at least two values")
	}
	xs := make([]float64, len(ys))
	for i := range xs {
		xs[i] = float64(i + 1)
	}
	graph := chart.Chart{
		Title:  res.Title,
		Width:  chartWidth,
		Height: chartHeight,
		Series: []chart.Series{
			chart.ContinuousSeries{XValues: xs, YValues: ys},
		},
	}
	return graph.Render(chart.PNG, w)
}

// Normalize maps chart hints from the model onto the types the renderer
// supports; unknown hints come back empty.
func Normalize(hint string) string {
	switch hint {
	case analytics.ChartBar, analytics.ChartPie, analytics.ChartHistogram, analytics.ChartLine:
		return hint
	case "heatmap", "grouped_bar", "box_plot":
		return analytics.ChartBar
	case "violin", "kde":
		return analytics.ChartHistogram
	case "scatter":
		return analytics.ChartLine
	default:
		return ""
	}
}
