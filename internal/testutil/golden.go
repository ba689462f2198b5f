// Package testutil provides shared test infrastructure for the trace analyzer.
// It consolidates golden dataset types and fixture helpers used across
// sim/, its sub-packages and cmd.
package testutil

import (
	"bytes"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

// GoldenDataset represents the structure of testdata/golden.yaml.
type GoldenDataset struct {
	Tests []GoldenTestCase `yaml:"tests"`
}

// GoldenTestCase is one trace with its classification lists and the
// expected outputs of both stages.
type GoldenTestCase struct {
	Name         string        `yaml:"name"`
	Stateful     []string      `yaml:"stateful"`
	Framework    []string      `yaml:"framework"`
	Time         []string      `yaml:"time"`
	Verification []string      `yaml:"verification"`
	Trace        []string      `yaml:"trace"`
	Demarcated   []string      `yaml:"demarcated"`
	Cache        GoldenCache   `yaml:"cache"`
	Metrics      GoldenMetrics `yaml:"metrics"`
}

// GoldenCache is the cache geometry used for the case.
type GoldenCache struct {
	CacheSize     uint64 `yaml:"cache_size"`
	BlockSize     uint64 `yaml:"block_size"`
	Associativity uint64 `yaml:"associativity"`
}

// GoldenMetrics represents the expected counts for a case.
type GoldenMetrics struct {
	Hits           uint64 `yaml:"hits"`
	Misses         uint64 `yaml:"misses"`
	Instructions   int    `yaml:"instructions"`
	Calls          int    `yaml:"calls"`
	Collapsed      int    `yaml:"collapsed"`
	Deduplicated   int    `yaml:"deduplicated"`
	Elided         int    `yaml:"elided"`
	FinalStackSize int    `yaml:"final_stack_size"`
}

// LoadGoldenDataset loads the golden dataset from the testdata directory.
// The path is resolved relative to this source file: internal/testutil/ → testdata/.
func LoadGoldenDataset(t *testing.T) *GoldenDataset {
	t.Helper()

	_, thisFile, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("Failed to get current file path")
	}
	// Navigate from internal/testutil/ to repo root testdata/
	path := filepath.Join(filepath.Dir(thisFile), "..", "..", "testdata", "golden.yaml")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read golden dataset: %v", err)
	}

	var dataset GoldenDataset
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&dataset); err != nil {
		t.Fatalf("Failed to parse golden dataset: %v", err)
	}

	return &dataset
}

// WriteTrace writes body framed by the runtime's header and EOF sentinel and
// returns the file path.
func WriteTrace(t *testing.T, dir, name string, body []string) string {
	t.Helper()
	var sb strings.Builder
	sb.WriteString("Function | Instruction | Operands\n")
	for _, l := range body {
		sb.WriteString(l)
		sb.WriteByte('\n')
	}
	sb.WriteString("EOF\n")
	return WriteFile(t, dir, name, sb.String())
}

// WriteNames writes a classification list, one name per line.
func WriteNames(t *testing.T, dir, name string, names []string) string {
	t.Helper()
	content := strings.Join(names, "\n")
	if len(names) > 0 {
		content += "\n"
	}
	return WriteFile(t, dir, name, content)
}

// WriteFile writes content under dir and returns the path.
func WriteFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
	return path
}

// ReadLines returns the lines of a file without the trailing newline.
func ReadLines(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading %s: %v", path, err)
	}
	text := strings.TrimSuffix(string(data), "\n")
	if text == "" {
		return nil
	}
	return strings.Split(text, "\n")
}
