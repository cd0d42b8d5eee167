package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	graphcbo "github.com/mstrYoda/graphcbo"
)

const catalogDoc = `{
  "max_pattern_size": 2,
  "entries": [
    {"pattern": {"vertices": [{"id": 0, "types": [1]}]}, "count": 1000},
    {"pattern": {"vertices": [{"id": 0, "types": [1]}, {"id": 1, "types": [1]}],
                 "edges": [{"id": 0, "src": 0, "dst": 1, "triples": [{"src": 1, "dst": 1, "edge": 10}]}]}, "count": 5000}
  ]
}`

const knowsPattern = `{
  "vertices": [{"id": 0, "types": [1]}, {"id": 1, "types": [1]}],
  "edges": [{"id": 0, "src": 0, "dst": 1, "triples": [{"src": 1, "dst": 1, "edge": 10}]}]
}`

const knowsStep = `{"pattern": ` + knowsPattern + `, "target": 1, "edges": [0]}`

// run executes the root command with args and returns what it wrote to
// stdout.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

// mustRun is run for commands expected to succeed.
func mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := run(t, args...)
	if err != nil {
		t.Fatalf("graphcbo %s: %v", strings.Join(args, " "), err)
	}
	return out
}

// wantError runs a command expected to fail with an error mentioning want.
func wantError(t *testing.T, want string, args ...string) {
	t.Helper()
	_, err := run(t, args...)
	if err == nil {
		t.Fatalf("graphcbo %s: expected error", strings.Join(args, " "))
	}
	if !strings.Contains(err.Error(), want) {
		t.Errorf("graphcbo %s: error %q does not mention %q", strings.Join(args, " "), err, want)
	}
}

func decode(t *testing.T, out string, v any) {
	t.Helper()
	if err := json.Unmarshal([]byte(out), v); err != nil {
		t.Fatalf("output is not valid JSON: %v\n%s", err, out)
	}
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func importedCatalog(t *testing.T) (dir, catalog string) {
	t.Helper()
	dir = t.TempDir()
	catalog = filepath.Join(dir, "stats.db")
	mustRun(t, "import", writeFile(t, dir, "stats.json", catalogDoc), "--catalog", catalog)
	return dir, catalog
}

func TestEstimateCommand(t *testing.T) {
	dir, catalog := importedCatalog(t)

	var got estimateOutput
	decode(t, mustRun(t, "estimate", writeFile(t, dir, "pattern.json", knowsPattern), "--catalog", catalog), &got)
	if !got.Known || got.Count != 5000 {
		t.Errorf("estimate = %+v, want known count 5000", got)
	}
}

func TestCostAndWeightCommands(t *testing.T) {
	dir, catalog := importedCatalog(t)
	step := writeFile(t, dir, "step.json", knowsStep)

	var cost graphcbo.DetailedExpandCost
	decode(t, mustRun(t, "cost", step, "--catalog", catalog), &cost)
	want := graphcbo.DetailedExpandCost{ExpandRows: 5000, ExpandFilteringRows: 5000, GetVRows: 5000, GetVFilteringRows: 5000}
	if cost != want {
		t.Errorf("cost = %+v, want %+v", cost, want)
	}

	var w weightOutput
	decode(t, mustRun(t, "weight", step, "--catalog", catalog), &w)
	if len(w.Order) != 1 || w.Order[0] != 0 || w.Weight != 5000 {
		t.Errorf("weight = %+v, want order [0] weight 5000", w)
	}

	out := mustRun(t, "explain", step, "--catalog", catalog)
	for _, want := range []string{"EXPLAIN (weight=5000.00):", "Expand"} {
		if !strings.Contains(out, want) {
			t.Errorf("explain output missing %q:\n%s", want, out)
		}
	}
}

func TestConfigFileSuppliesCatalog(t *testing.T) {
	dir, catalog := importedCatalog(t)
	cfg := writeFile(t, dir, "graphcbo.toml", "[catalog]\npath = \""+filepath.ToSlash(catalog)+"\"\n")

	mustRun(t, "estimate", writeFile(t, dir, "pattern.json", knowsPattern), "--config", cfg)
}

func TestCommandErrors(t *testing.T) {
	dir, catalog := importedCatalog(t)
	pattern := writeFile(t, dir, "pattern.json", knowsPattern)

	wantError(t, "no catalog", "estimate", pattern)
	wantError(t, "missing.json", "estimate", filepath.Join(dir, "missing.json"), "--catalog", catalog)
	wantError(t, "invalid --log-level", "estimate", pattern, "--catalog", catalog, "--log-level", "loud")

	twoEdges := `{"pattern": {
	  "vertices": [{"id": 0, "types": [1]}, {"id": 1, "types": [1]}, {"id": 2, "types": [1]}],
	  "edges": [
	    {"id": 0, "src": 0, "dst": 1, "triples": [{"src": 1, "dst": 1, "edge": 10}]},
	    {"id": 1, "src": 2, "dst": 1, "triples": [{"src": 1, "dst": 1, "edge": 10}]}
	  ]}, "target": 1, "edges": [0, 1]}`
	wantError(t, "exactly one edge", "cost", writeFile(t, dir, "two.json", twoEdges), "--catalog", catalog)
}
