// Package report renders training runs as standalone HTML charts.
package report

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/mitchelldurbincs/qdungeon/internal/qlearning"
)

const (
	TDErrorSeries = "TD error"
	RewardSeries  = "Reward (moving average)"
)

// WriteTrainingChart renders the per-episode TD error and the moving average
// of the reward over window episodes as an HTML page.
func WriteTrainingChart(w io.Writer, stats *qlearning.TrainingStats, window int) error {
	if stats == nil || len(stats.Rewards) == 0 {
		return errors.New("no training episodes to chart")
	}

	episodes := make([]string, len(stats.Rewards))
	for i := range episodes {
		episodes[i] = strconv.Itoa(i + 1)
	}

	td := newLine("Temporal-difference error", subtitle(stats), "TD error")
	td.SetXAxis(episodes).AddSeries(TDErrorSeries, lineData(stats.TDErrors))

	reward := newLine("Reward", fmt.Sprintf("moving average over %d episodes", max(window, 1)), "reward")
	reward.SetXAxis(episodes).AddSeries(RewardSeries, lineData(stats.MovingAverageReward(window)))

	page := components.NewPage()
	page.PageTitle = "Training run " + stats.RunID
	page.AddCharts(td, reward)
	return page.Render(w)
}

// SaveTrainingChart writes the chart to path, creating parent directories.
func SaveTrainingChart(path string, stats *qlearning.TrainingStats, window int) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create chart directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create chart file: %w", err)
	}
	if err := WriteTrainingChart(f, stats, window); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func newLine(title, sub, yName string) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: sub}),
		charts.WithInitializationOpts(opts.Initialization{Theme: "shine"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "episode"}),
		charts.WithYAxisOpts(opts.YAxis{Name: yName}),
	)
	return line
}

func lineData(values []float64) []opts.LineData {
	items := make([]opts.LineData, 0, len(values))
	for _, v := range values {
		items = append(items, opts.LineData{Value: v})
	}
	return items
}

func subtitle(stats *qlearning.TrainingStats) string {
	return fmt.Sprintf("%d episodes, %d exploits, %s", stats.Episodes, stats.Exploits, stats.Duration)
}
