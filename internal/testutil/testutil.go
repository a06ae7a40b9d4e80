// Package testutil provides testing utilities for regvm tests.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/akhildatla/regvm/pkg/vm"
)

// TempFile creates a temporary file with the given content and extension.
// The file is automatically cleaned up when the test finishes.
func TempFile(t *testing.T, content, ext string) string {
	t.Helper()
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "test"+ext)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write temp file: %v", err)
	}
	return path
}

// LoadProgram loads source into a fresh Vm built from cfg, failing the
// test on a parse error.
func LoadProgram(t *testing.T, cfg vm.Config, source string) *vm.Vm {
	t.Helper()
	machine := vm.New(cfg)
	if err := machine.Load(source); err != nil {
		t.Fatalf("failed to load program: %v", err)
	}
	return machine
}

// RunToEnd runs machine to termination and fails the test if it blocks,
// errors, or terminates with a recorded error.
func RunToEnd(t *testing.T, machine *vm.Vm) {
	t.Helper()
	if err := machine.Run(); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if machine.State() != vm.StateTerminated {
		t.Fatalf("expected terminated, got %s", machine.State())
	}
	if err := machine.Err(); err != nil {
		t.Fatalf("program crashed: %v", err)
	}
}

// DrainInt64 drains the machine's output queue as int64 values.
func DrainInt64(t *testing.T, machine *vm.Vm) []int64 {
	t.Helper()
	raw := machine.DequeueAllOutput()
	out := make([]int64, 0, len(raw))
	for _, v := range raw {
		n, err := machine.ToInt(v)
		if err != nil {
			t.Fatalf("output value %v: %v", v, err)
		}
		out = append(out, n)
	}
	return out
}

// AssertInt64Equal checks if two int64 values are equal.
func AssertInt64Equal(t *testing.T, expected, actual int64) {
	t.Helper()
	if expected != actual {
		t.Errorf("expected %d, got %d", expected, actual)
	}
}
