package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"collar-backtester/internal/models"
)

// Artifacts holds the paths of the files written for one run.
type Artifacts struct {
	Curve   string
	Metrics string
}

// WriteArtifacts writes the equity curve and the metrics document to dir.
// Both files are staged first and renamed into place only once both writes
// succeed, so a failed write leaves neither behind.
func WriteArtifacts(dir string, curve models.EquityCurve, doc *Document) (Artifacts, error) {
	curveTmp, err := stageFile(dir, CurveFile, func(w io.Writer) error {
		return WriteCurve(w, curve)
	})
	if err != nil {
		return Artifacts{}, err
	}
	metricsTmp, err := stageFile(dir, MetricsFile, func(w io.Writer) error {
		return WriteJSON(w, doc)
	})
	if err != nil {
		os.Remove(curveTmp)
		return Artifacts{}, err
	}

	out := Artifacts{
		Curve:   filepath.Join(dir, CurveFile),
		Metrics: filepath.Join(dir, MetricsFile),
	}
	if err := os.Rename(curveTmp, out.Curve); err != nil {
		os.Remove(curveTmp)
		os.Remove(metricsTmp)
		return Artifacts{}, fmt.Errorf("saving %s: %w", out.Curve, err)
	}
	if err := os.Rename(metricsTmp, out.Metrics); err != nil {
		os.Remove(metricsTmp)
		os.Remove(out.Curve)
		return Artifacts{}, fmt.Errorf("saving %s: %w", out.Metrics, err)
	}
	return out, nil
}

// writeFile writes dir/name through a staged file and returns the final path.
func writeFile(dir, name string, write func(io.Writer) error) (string, error) {
	tmp, err := stageFile(dir, name, write)
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, name)
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("saving %s: %w", path, err)
	}
	return path, nil
}

// stageFile writes to a hidden temporary file in dir and returns its path.
func stageFile(dir, name string, write func(io.Writer) error) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("creating output dir: %w", err)
	}
	f, err := os.CreateTemp(dir, "."+name+".*")
	if err != nil {
		return "", fmt.Errorf("creating %s: %w", name, err)
	}
	tmp := f.Name()
	if err := write(f); err != nil {
		f.Close()
		os.Remove(tmp)
		return "", fmt.Errorf("writing %s: %w", name, err)
	}
	if err := f.Chmod(0644); err != nil {
		f.Close()
		os.Remove(tmp)
		return "", err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return "", err
	}
	return tmp, nil
}
