package results

import (
	"fmt"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/pdcrl/sweepbench/internal/fsutil"
	"github.com/pdcrl/sweepbench/internal/sweep"
)

// WriteTuningHeatmap renders the alpha x beta mean-time grid as a
// standalone HTML page. Pruned or dropped cells are simply absent.
func WriteTuningHeatmap(fsys fsutil.FileSystem, path, title string, samples []sweep.Sample) error {
	alphas, betas := tuningAxes(samples)
	if len(alphas) == 0 {
		return fmt.Errorf("heatmap %s: no samples", path)
	}

	alphaIdx := make(map[int]int, len(alphas))
	for i, a := range alphas {
		alphaIdx[a] = i
	}
	betaIdx := make(map[int]int, len(betas))
	for i, b := range betas {
		betaIdx[b] = i
	}

	var data []opts.HeatMapData
	minMs, maxMs := samples[0].MeanMs, samples[0].MeanMs
	for _, s := range samples {
		x := alphaIdx[s.Config.Binding.Int("ALPHA")]
		y := betaIdx[s.Config.Binding.Int("BETA")]
		data = append(data, opts.HeatMapData{Value: [3]interface{}{x, y, s.MeanMs}})
		if s.MeanMs < minMs {
			minMs = s.MeanMs
		}
		if s.MeanMs > maxMs {
			maxMs = s.MeanMs
		}
	}

	hm := charts.NewHeatMap()
	hm.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Type: "category", Name: "ALPHA", SplitArea: &opts.SplitArea{Show: opts.Bool(true)}}),
		charts.WithYAxisOpts(opts.YAxis{Type: "category", Name: "BETA", Data: intLabels(betas), SplitArea: &opts.SplitArea{Show: opts.Bool(true)}}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Show:       opts.Bool(true),
			Calculable: opts.Bool(true),
			Min:        float32(minMs),
			Max:        float32(maxMs),
			InRange:    &opts.VisualMapInRange{Color: []string{"#440154", "#482777", "#3e4989", "#31688e", "#26828e", "#1f9e89", "#35b779", "#6ece58", "#b5de2b", "#fde725"}},
		}),
	)

	hm.SetXAxis(intLabels(alphas)).AddSeries("mean ms", data)

	if err := fsys.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create heatmap dir: %w", err)
	}
	f, err := fsys.Create(path)
	if err != nil {
		return fmt.Errorf("create heatmap %s: %w", path, err)
	}
	if err := hm.Render(f); err != nil {
		f.Close()
		return fmt.Errorf("render heatmap %s: %w", path, err)
	}
	return f.Close()
}

// tuningAxes returns the sorted distinct alpha and beta values present in
// the samples.
func tuningAxes(samples []sweep.Sample) (alphas, betas []int) {
	seenA := make(map[int]bool)
	seenB := make(map[int]bool)
	for _, s := range samples {
		seenA[s.Config.Binding.Int("ALPHA")] = true
		seenB[s.Config.Binding.Int("BETA")] = true
	}
	for a := range seenA {
		alphas = append(alphas, a)
	}
	for b := range seenB {
		betas = append(betas, b)
	}
	sort.Ints(alphas)
	sort.Ints(betas)
	return alphas, betas
}

func intLabels(vals []int) []string {
	out := make([]string, len(vals))
	for i, v := range vals {
		out[i] = strconv.Itoa(v)
	}
	return out
}
