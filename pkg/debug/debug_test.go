package debug

import (
	"bytes"
	"os"
	"strings"
	"testing"
)

// captureStderr runs fn while redirecting os.Stderr and returns what was
// written.
func captureStderr(t *testing.T, fn func()) string {
	t.Helper()

	original := os.Stderr
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("failed to create pipe: %v", err)
	}
	os.Stderr = w
	defer func() { os.Stderr = original }()

	fn()

	if err := w.Close(); err != nil {
		t.Fatalf("failed to close pipe writer: %v", err)
	}
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(r); err != nil {
		t.Fatalf("failed to read pipe: %v", err)
	}
	return buf.String()
}

func TestPrintfEnabled(t *testing.T) {
	originalState := Enabled
	defer Init(originalState)

	Init(true)
	output := captureStderr(t, func() {
		Printf("promoting %s to %s", "app", "qa")
	})

	if !strings.Contains(output, "[DEBUG] promoting app to qa") {
		t.Errorf("unexpected debug output: %q", output)
	}
}

func TestPrintfDisabled(t *testing.T) {
	originalState := Enabled
	defer Init(originalState)

	Init(false)
	output := captureStderr(t, func() {
		Printf("should not appear")
	})

	if output != "" {
		t.Errorf("expected no output when disabled, got: %q", output)
	}
}

func TestPrintln(t *testing.T) {
	originalState := Enabled
	defer Init(originalState)

	Init(true)
	output := captureStderr(t, func() {
		Println("step", " complete")
	})

	if !strings.Contains(output, "[DEBUG] step complete") {
		t.Errorf("unexpected debug output: %q", output)
	}
}

func TestDumpValue(t *testing.T) {
	originalState := Enabled
	defer Init(originalState)

	Init(true)
	output := captureStderr(t, func() {
		DumpValue("hops", 2)
	})

	if !strings.Contains(output, "[DEBUG] hops: 2") {
		t.Errorf("unexpected debug output: %q", output)
	}
}
