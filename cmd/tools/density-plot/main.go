// density-plot renders a static PNG of crowd metrics over time from a
// frame stats log (the JSONL written by the replay CLI). Useful for
// embedding in writeups where an interactive report is overkill.
//
// Usage:
//
//	density-plot -stats frame_stats.jsonl -out density.png
package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

var (
	statsPath = flag.String("stats", "", "Frame stats log (JSONL)")
	outPath   = flag.String("out", "density.png", "Output image (.png, .svg, .pdf)")
	metric    = flag.String("metric", "people", "Metric to plot: people, groups, or score")
)

type frameStat struct {
	FrameIndex   int     `json:"frame_index"`
	TotalPeople  int     `json:"total_people"`
	GroupCount   int     `json:"group_count"`
	DensityScore float64 `json:"density_score"`
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

func series(stats []frameStat, metric string) (plotter.XYs, string, error) {
	xys := make(plotter.XYs, len(stats))
	var label string
	for i, s := range stats {
		xys[i].X = float64(s.FrameIndex)
		switch metric {
		case "people":
			xys[i].Y = float64(s.TotalPeople)
			label = "total people"
		case "groups":
			xys[i].Y = float64(s.GroupCount)
			label = "group count"
		case "score":
			xys[i].Y = s.DensityScore
			label = "density score (people per 10,000 px²)"
		default:
			return nil, "", fmt.Errorf("unknown metric %q", metric)
		}
	}
	return xys, label, nil
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

	xys, label, err := series(stats, *metric)
	if err != nil {
		log.Fatal(err)
	}

	p := plot.New()
	p.Title.Text = "Crowd Density Over Time"
	p.X.Label.Text = "frame"
	p.Y.Label.Text = label

	line, err := plotter.NewLine(xys)
	if err != nil {
		log.Fatalf("build line: %v", err)
	}
	p.Add(plotter.NewGrid(), line)

	if err := p.Save(10*vg.Inch, 4*vg.Inch, *outPath); err != nil {
		log.Fatalf("save plot: %v", err)
	}
	log.Printf("wrote %s (%d frames, metric=%s)", *outPath, len(stats), *metric)
}
