package plot

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"text/template"
	"time"

	"contention-bench/internal/experiment"
	"contention-bench/internal/logging"
)

var csvNamePattern = regexp.MustCompile(`^sched_t_(\d+)_i_(\d+)\.csv$`)

// Generator renders schedulability curves as TikZ/pgfplots figures: one
// figure per task count with one curve per interconnect count.
type Generator struct {
	experimentName string
	trials         int
	policy         string
}

func NewGenerator(experimentName string, trials int, policy string) *Generator {
	return &Generator{
		experimentName: experimentName,
		trials:         trials,
		policy:         policy,
	}
}

// ReadCurves loads every curve CSV found in dir.
func ReadCurves(dir string) ([]experiment.Curve, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read data directory: %w", err)
	}

	var curves []experiment.Curve
	for _, entry := range entries {
		m := csvNamePattern.FindStringSubmatch(entry.Name())
		if m == nil {
			continue
		}
		tasks, _ := strconv.Atoi(m[1])
		inters, _ := strconv.Atoi(m[2])

		points, err := readCurveFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		curves = append(curves, experiment.Curve{
			Tasks:         tasks,
			Interconnects: inters,
			Points:        points,
		})
	}

	if len(curves) == 0 {
		return nil, fmt.Errorf("no curve files found in %s", dir)
	}

	sort.Slice(curves, func(a, b int) bool {
		if curves[a].Tasks != curves[b].Tasks {
			return curves[a].Tasks < curves[b].Tasks
		}
		return curves[a].Interconnects < curves[b].Interconnects
	})

	return curves, nil
}

func readCurveFile(path string) ([]experiment.RatioPoint, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	var points []experiment.RatioPoint
	scanner := bufio.NewScanner(f)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		parts := strings.Split(text, ",")
		if len(parts) != 2 {
			return nil, fmt.Errorf("%s:%d: expected load,ratio", path, line)
		}
		load, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
		if err != nil {
			return nil, fmt.Errorf("%s:%d: bad load value: %w", path, line, err)
		}
		ratio, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
		if err != nil {
			return nil, fmt.Errorf("%s:%d: bad ratio value: %w", path, line, err)
		}
		points = append(points, experiment.RatioPoint{Load: load, Ratio: ratio})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	return points, nil
}

// Generate renders the figure for one task count from the given curves and
// returns the TikZ plot and the LaTeX wrapper.
func (g *Generator) Generate(tasks int, curves []experiment.Curve) (plotTikz, wrapperTex string, err error) {
	var series []plotSeries
	for _, curve := range curves {
		if curve.Tasks != tasks {
			continue
		}
		coords := make([]string, len(curve.Points))
		for i, p := range curve.Points {
			coords[i] = fmt.Sprintf("(%.5f, %.5f)", p.Load, p.Ratio)
		}
		series = append(series, plotSeries{
			Interconnects: curve.Interconnects,
			Style:         seriesStyles[len(series)%len(seriesStyles)],
			Source:        experiment.CSVFileName(curve.Tasks, curve.Interconnects),
			Coordinates:   coords,
		})
	}

	if len(series) == 0 {
		return "", "", fmt.Errorf("no curves for task count %d", tasks)
	}

	now := time.Now().Format(time.RFC3339)

	data := plotData{
		GeneratedDate:  now,
		ExperimentName: g.experimentName,
		Tasks:          tasks,
		Trials:         g.trials,
		Policy:         g.policy,
		Series:         series,
	}

	plotTikz, err = render("plot", plotTemplate, data)
	if err != nil {
		return "", "", err
	}

	wrapper := wrapperData{
		GeneratedDate:  now,
		ExperimentName: g.experimentName,
		Tasks:          tasks,
		PlotFileName:   fmt.Sprintf("sched-ratio-t%d.tikz", tasks),
		ShortCaption:   fmt.Sprintf("Schedulability ratio, %d tasks", tasks),
		Caption: fmt.Sprintf(
			"Schedulability ratio of %d-task workloads under increasing bus load, one curve per interconnect count.",
			tasks),
	}

	wrapperTex, err = render("wrapper", wrapperTemplate, wrapper)
	if err != nil {
		return "", "", err
	}

	logging.GetLogger().WithField("tasks", tasks).Debug("Plot generated")
	return plotTikz, wrapperTex, nil
}

// TaskCounts lists the distinct task counts present in the curves, sorted.
func TaskCounts(curves []experiment.Curve) []int {
	seen := make(map[int]bool)
	var counts []int
	for _, c := range curves {
		if !seen[c.Tasks] {
			seen[c.Tasks] = true
			counts = append(counts, c.Tasks)
		}
	}
	sort.Ints(counts)
	return counts
}

func render(name, tmpl string, data any) (string, error) {
	t, err := template.New(name).Parse(tmpl)
	if err != nil {
		return "", fmt.Errorf("failed to parse %s template: %w", name, err)
	}
	var sb strings.Builder
	if err := t.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("failed to render %s template: %w", name, err)
	}
	return sb.String(), nil
}
