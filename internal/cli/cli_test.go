package cli

import (
	"bytes"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"collar-backtester/internal/config"
	"collar-backtester/internal/marketdata"
	"collar-backtester/internal/models"
	"collar-backtester/internal/portfolio"
	"collar-backtester/internal/report"
	"collar-backtester/internal/store"
)

const collarJSON = `{
  "ticker": "TEST",
  "share_qty": 100,
  "legs": [
    {"side": "short", "type": "call", "strike": 160, "premium": -3.10, "qty": 1,
     "trade_date": "2024-01-02", "expiry": "2024-03-15"},
    {"side": "long", "type": "put", "strike": 140, "premium": 2.40, "qty": 1,
     "trade_date": "2024-01-02", "expiry": "2024-03-15"}
  ]
}`

// testEnv writes synthetic TEST prices and DGS3MO rates and returns settings
// pointing at them.
func testEnv(t *testing.T) (*config.Config, string) {
	t.Helper()
	root := t.TempDir()
	dataDir := filepath.Join(root, "data")

	var prices, rates []models.Observation
	i := 0
	for d := models.Date(2023, 1, 2); !d.After(models.Date(2024, 6, 28)); d = d.AddDate(0, 0, 1) {
		if d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
			continue
		}
		prices = append(prices, models.Observation{Date: d, Value: 150 + 8*math.Sin(float64(i)/9)})
		rates = append(rates, models.Observation{Date: d, Value: 0.0525})
		i++
	}
	src := marketdata.NewCSVSource(dataDir)
	if _, err := src.Save(store.KindPrice, "TEST", prices); err != nil {
		t.Fatal(err)
	}
	if _, err := src.Save(store.KindRate, "DGS3MO", rates); err != nil {
		t.Fatal(err)
	}

	cfg := config.Default()
	cfg.Data.Source = "csv"
	cfg.Data.Dir = dataDir
	cfg.Data.RateSeries = "DGS3MO"
	cfg.Output.Dir = filepath.Join(root, "results")
	cfg.Engine.RollingWindow = 10

	path := filepath.Join(root, "collar.json")
	if err := os.WriteFile(path, []byte(collarJSON), 0644); err != nil {
		t.Fatal(err)
	}
	return cfg, path
}

func execute(cfg *config.Config, args ...string) (string, error) {
	cmd := NewRootCmd(cfg, zerolog.Nop())
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestRunWritesArtifacts(t *testing.T) {
	cfg, path := testEnv(t)

	out, err := execute(cfg, "run", path, "--benchmark", "underlying")
	if err != nil {
		t.Fatalf("run failed: %v\n%s", err, out)
	}
	for _, want := range []string{
		"PERFORMANCE METRICS SUMMARY",
		"POSITION SUMMARY",
		"Stock Position: 100 shares of TEST",
		"Short 1 Call @ 160.00 (Premium: 3.10)",
		"BENCHMARK COMPARISON (TEST",
		"| Run ID:       ",
		"| Leg 1: ",
		"Backtest completed successfully!",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	f, err := os.Open(filepath.Join(cfg.Output.Dir, report.CurveFile))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	curve, err := report.ReadCurve(f)
	if err != nil {
		t.Fatal(err)
	}
	if len(curve) == 0 || !curve[0].Date.Equal(models.Date(2024, 1, 2)) || !curve.Last().Date.Equal(models.Date(2024, 3, 15)) {
		t.Fatalf("curve spans %d rows", len(curve))
	}
	if curve[0].TotalPL != 0 {
		t.Errorf("first Total_PL = %v, want 0", curve[0].TotalPL)
	}
	if _, err := os.Stat(filepath.Join(cfg.Output.Dir, report.MetricsFile)); err != nil {
		t.Errorf("metrics not written: %v", err)
	}
}

func TestRunJSON(t *testing.T) {
	cfg, path := testEnv(t)
	outDir := filepath.Join(t.TempDir(), "json")

	out, err := execute(cfg, "run", path, "--json", "--output", outDir, "--chart")
	if err != nil {
		t.Fatalf("run failed: %v\n%s", err, out)
	}
	var doc report.Document
	if err := json.Unmarshal([]byte(out), &doc); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if len(doc.RunID) != 36 {
		t.Errorf("run id = %q", doc.RunID)
	}
	if doc.Ticker != "TEST" || len(doc.Legs) != 2 || doc.Metrics == nil || doc.Metrics.TradingDays == 0 {
		t.Errorf("document = %+v", doc)
	}
	for _, leg := range doc.Legs {
		if leg.State != "exercised" && leg.State != "expired" {
			t.Errorf("leg %s ended %s", leg.Description, leg.State)
		}
	}
	if _, err := os.Stat(filepath.Join(outDir, report.ChartFile)); err != nil {
		t.Errorf("chart not written: %v", err)
	}
}

func TestRunMissingData(t *testing.T) {
	cfg, path := testEnv(t)
	cfg.Data.Dir = t.TempDir()

	if _, err := execute(cfg, "run", path); err == nil {
		t.Fatal("expected failure without price data")
	}
	if _, err := os.Stat(filepath.Join(cfg.Output.Dir, report.CurveFile)); !os.IsNotExist(err) {
		t.Error("no curve should be written when the run fails")
	}
}

func TestValidate(t *testing.T) {
	cfg, path := testEnv(t)

	out, err := execute(cfg, "validate", path)
	if err != nil {
		t.Fatalf("validate failed: %v\n%s", err, out)
	}
	for _, want := range []string{"Configuration is valid", "Ticker:     TEST", "Legs:       2", "Date Range: 2024-01-02 to 2024-03-15"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	bad := filepath.Join(t.TempDir(), "bad.json")
	doc := `{"ticker": "", "share_qty": 100, "legs": [
	  {"side": "sideways", "type": "call", "strike": 100, "premium": 1, "qty": 0,
	   "trade_date": "2024-01-02", "expiry": "2024-01-01"}]}`
	if err := os.WriteFile(bad, []byte(doc), 0644); err != nil {
		t.Fatal(err)
	}
	out, err = execute(cfg, "validate", bad)
	if err == nil {
		t.Fatal("expected validation failure")
	}
	if !strings.Contains(out, "Configuration is invalid") {
		t.Errorf("output = %s", out)
	}
	for _, field := range []string{"ticker", "legs[0].side", "legs[0].qty"} {
		if !strings.Contains(out, field) {
			t.Errorf("violation for %s not reported:\n%s", field, out)
		}
	}

	out, _ = execute(cfg, "validate", bad, "--json")
	var rep validationReport
	if err := json.Unmarshal([]byte(out), &rep); err != nil {
		t.Fatalf("json output: %v\n%s", err, out)
	}
	if rep.Valid || len(rep.Errors) < 3 {
		t.Errorf("report = %+v", rep)
	}
}

func TestExamples(t *testing.T) {
	cfg, _ := testEnv(t)

	out, err := execute(cfg, "examples")
	if err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"collar", "covered-call", "protective-put", "synthetic-long"} {
		if !strings.Contains(out, name) {
			t.Errorf("examples list missing %s", name)
		}
	}

	out, err = execute(cfg, "examples", "collar")
	if err != nil {
		t.Fatal(err)
	}
	pc, err := portfolio.Parse([]byte(out))
	if err != nil {
		t.Fatalf("printed example does not parse: %v\n%s", err, out)
	}
	if pc.Ticker != "AAPL" || len(pc.Legs) != 2 {
		t.Errorf("collar example = %+v", pc)
	}

	if _, err := execute(cfg, "examples", "strangle"); err == nil {
		t.Error("expected error for unknown example")
	}

	dir := t.TempDir()
	if _, err := execute(cfg, "examples", "--write", dir); err != nil {
		t.Fatal(err)
	}
	files, _ := filepath.Glob(filepath.Join(dir, "*.json"))
	if len(files) != len(portfolio.Examples()) {
		t.Errorf("wrote %d files", len(files))
	}
}

func TestVersionAndConfig(t *testing.T) {
	cfg, _ := testEnv(t)

	out, err := execute(cfg, "version")
	if err != nil || !strings.Contains(out, Version) {
		t.Errorf("version output %q err %v", out, err)
	}

	out, err = execute(cfg, "config", "show")
	if err != nil || !strings.Contains(out, "Volatility Window:   20 prices") {
		t.Errorf("config show output %q err %v", out, err)
	}

	if _, err := execute(cfg, "config", "validate"); err != nil {
		t.Errorf("default settings should validate: %v", err)
	}
}

func TestDrawEquityCurve(t *testing.T) {
	var buf bytes.Buffer
	o := &Output{writer: &buf}
	curve := models.EquityCurve{
		{Date: models.Date(2024, 1, 2), TotalPL: 0},
		{Date: models.Date(2024, 1, 3), TotalPL: 100},
		{Date: models.Date(2024, 1, 4), TotalPL: -50},
	}
	drawEquityCurve(o, curve)
	out := buf.String()
	if strings.Count(out, "*") != 3 || !strings.Contains(out, "2024-01-02 .. 2024-01-04") {
		t.Errorf("chart:\n%s", out)
	}
}

func TestBox(t *testing.T) {
	var buf bytes.Buffer
	o := &Output{writer: &buf}
	o.Box("TEST run", []string{"short", "a much longer line"})

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 4 || !strings.HasPrefix(lines[0], "+- TEST run -") {
		t.Fatalf("box:\n%s", buf.String())
	}
	for _, line := range lines {
		if len(line) != len(lines[0]) {
			t.Errorf("ragged box line %q", line)
		}
	}
	if lines[1] != "| short              |" {
		t.Errorf("padded line = %q", lines[1])
	}
}
