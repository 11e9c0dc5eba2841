// Package testutil provides shared test helpers for golden file testing.
package testutil

import (
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// Update is a flag that, when set, regenerates golden files from current output.
// Usage: go test ./... -update
var Update = flag.Bool("update", false, "update golden files")

// InputName is the makefile each golden case directory must contain.
const InputName = "input.mk"

// TransformFunc turns the makefile read from path into the text under test.
type TransformFunc func(t *testing.T, path string, src []byte) string

// RunGolden reads InputName from dir, applies fn, and compares the result
// against the file called golden in the same directory.
func RunGolden(t *testing.T, dir, golden string, fn TransformFunc) {
	t.Helper()

	inputPath := filepath.Join(dir, InputName)
	goldenPath := filepath.Join(dir, golden)

	src, err := os.ReadFile(inputPath)
	if err != nil {
		t.Fatalf("failed to read %s: %v", inputPath, err)
	}

	actual := fn(t, inputPath, src)

	if *Update {
		if err := os.WriteFile(goldenPath, []byte(actual), 0o644); err != nil {
			t.Fatalf("failed to update golden file %s: %v", goldenPath, err)
		}
		t.Logf("updated golden file: %s", goldenPath)
		return
	}

	want, err := os.ReadFile(goldenPath)
	if err != nil {
		t.Fatalf("failed to read %s: %v", goldenPath, err)
	}

	if diff := cmp.Diff(string(want), actual); diff != "" {
		t.Errorf("%s mismatch (-want +got):\n%s", goldenPath, diff)
	}
}

// RunGoldenDir runs RunGolden as a subtest for every case directory under
// testdataDir that holds an InputName file.
func RunGoldenDir(t *testing.T, testdataDir, golden string, fn TransformFunc) {
	t.Helper()

	entries, err := os.ReadDir(testdataDir)
	if err != nil {
		t.Fatalf("failed to read testdata dir %s: %v", testdataDir, err)
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		dir := filepath.Join(testdataDir, entry.Name())
		if _, err := os.Stat(filepath.Join(dir, InputName)); err != nil {
			continue
		}

		t.Run(entry.Name(), func(t *testing.T) {
			RunGolden(t, dir, golden, fn)
		})
	}
}
