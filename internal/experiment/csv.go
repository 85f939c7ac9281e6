package experiment

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"

	"contention-bench/internal/logging"
)

// CSVFileName follows the artifact naming scheme: one file per
// (task count, interconnect count) configuration.
func CSVFileName(tasks, interconnects int) string {
	return fmt.Sprintf("sched_t_%d_i_%d.csv", tasks, interconnects)
}

// WriteCurveCSV writes one curve as load,ratio rows and returns the path.
func WriteCurveCSV(dir string, curve Curve) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	path := filepath.Join(dir, CSVFileName(curve.Tasks, curve.Interconnects))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for _, p := range curve.Points {
		fmt.Fprintf(w, "%.5f,%.5f\n", p.Load, p.Ratio)
	}
	if err := w.Flush(); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}

	logging.GetLogger().WithField("path", path).Debug("Curve written")
	return path, nil
}

// WriteCurves persists every curve into dir.
func WriteCurves(dir string, curves []Curve) error {
	for _, curve := range curves {
		if _, err := WriteCurveCSV(dir, curve); err != nil {
			return err
		}
	}
	return nil
}
