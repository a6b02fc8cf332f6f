// density-report renders an HTML report from a frame stats log
// (the JSONL written by the replay CLI): people count, group count,
// and density score over time as interactive line charts.
//
// Usage:
//
//	density-report -stats frame_stats.jsonl -out report.html
package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
)

var (
	statsPath = flag.String("stats", "", "Frame stats log (JSONL)")
	outPath   = flag.String("out", "density_report.html", "Output HTML file")
	title     = flag.String("title", "Crowd Density Report", "Report title")
)

type frameStat struct {
	FrameIndex       int     `json:"frame_index"`
	TotalPeople      int     `json:"total_people"`
	GroupCount       int     `json:"group_count"`
	LargestGroupSize int     `json:"largest_group_size"`
	DensityLevel     string  `json:"density_level"`
	DensityScore     float64 `json:"density_score"`
	Degraded         bool    `json:"degraded"`
}

func loadStats(path string) ([]frameStat, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var stats []frameStat
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	line := 0
	for sc.Scan() {
		line++
		if len(sc.Bytes()) == 0 {
			continue
		}
		var s frameStat
		if err := json.Unmarshal(sc.Bytes(), &s); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		stats = append(stats, s)
	}
	return stats, sc.Err()
}

func peopleChart(stats []frameStat) *charts.Line {
	frames := make([]int, len(stats))
	people := make([]opts.LineData, len(stats))
	groupCounts := make([]opts.LineData, len(stats))
	largest := make([]opts.LineData, len(stats))
	for i, s := range stats {
		frames[i] = s.FrameIndex
		people[i] = opts.LineData{Value: s.TotalPeople}
		groupCounts[i] = opts.LineData{Value: s.GroupCount}
		largest[i] = opts.LineData{Value: s.LargestGroupSize}
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "400px"}),
		charts.WithTitleOpts(opts.Title{Title: "People and Groups", Subtitle: fmt.Sprintf("frames=%d", len(stats))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "frame"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "count"}),
	)
	line.SetXAxis(frames).
		AddSeries("total people", people).
		AddSeries("groups", groupCounts).
		AddSeries("largest group", largest)
	return line
}

func scoreChart(stats []frameStat) *charts.Line {
	frames := make([]int, len(stats))
	scores := make([]opts.LineData, len(stats))
	for i, s := range stats {
		frames[i] = s.FrameIndex
		scores[i] = opts.LineData{Value: s.DensityScore}
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "400px"}),
		charts.WithTitleOpts(opts.Title{Title: "Density Score", Subtitle: "people per 10,000 px²"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "frame"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "score"}),
	)
	line.SetXAxis(frames).AddSeries("density score", scores)
	return line
}

func levelChart(stats []frameStat) *charts.Bar {
	counts := map[string]int{}
	order := []string{"empty", "very_low", "low", "medium", "high", "very_high"}
	for _, s := range stats {
		counts[s.DensityLevel]++
	}
	bars := make([]opts.BarData, len(order))
	for i, lvl := range order {
		bars[i] = opts.BarData{Value: counts[lvl]}
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "400px"}),
		charts.WithTitleOpts(opts.Title{Title: "Frames per Density Level"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	bar.SetXAxis(order).AddSeries("frames", bars,
		charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"}))
	return bar
}

func main() {
	flag.Parse()
	if *statsPath == "" {
		log.Fatal("-stats is required")
	}

	stats, err := loadStats(*statsPath)
	if err != nil {
		log.Fatalf("load stats: %v", err)
	}
	if len(stats) == 0 {
		log.Fatalf("no frames in %s", *statsPath)
	}

	page := components.NewPage()
	page.PageTitle = *title
	page.AddCharts(peopleChart(stats), scoreChart(stats), levelChart(stats))

	f, err := os.Create(*outPath)
	if err != nil {
		log.Fatalf("create output: %v", err)
	}
	defer f.Close()
	if err := page.Render(f); err != nil {
		log.Fatalf("render report: %v", err)
	}
	log.Printf("wrote %s (%d frames)", *outPath, len(stats))
}
