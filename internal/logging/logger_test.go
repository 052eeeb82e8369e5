package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDisabledModeIsSilent(t *testing.T) {
	dir := t.TempDir()
	if err := Initialize(dir, false); err != nil {
		t.Fatalf("Initialize error = %v", err)
	}
	Get(CategoryKernel).Info("should vanish %d", 42)

	if _, err := os.Stat(filepath.Join(dir, "logs")); !os.IsNotExist(err) {
		t.Error("logs directory created in disabled mode")
	}
}

func TestDebugModeWritesCategoryFile(t *testing.T) {
	dir := t.TempDir()
	if err := Initialize(dir, true); err != nil {
		t.Fatalf("Initialize error = %v", err)
	}
	Get(CategoryKernel).Info("prove %s", "dog isA mammal")
	Get(CategoryKernel).Warn("slow path")

	data, err := os.ReadFile(filepath.Join(dir, "logs", "kernel.log"))
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	text := string(data)
	if !strings.Contains(text, "prove dog isA mammal") {
		t.Errorf("log missing info line:\n%s", text)
	}
	if !strings.Contains(text, "WARN") {
		t.Errorf("log missing warn level:\n%s", text)
	}

	// Re-initializing in disabled mode silences subsequent writes.
	if err := Initialize(dir, false); err != nil {
		t.Fatalf("Initialize error = %v", err)
	}
	Get(CategoryKernel).Error("after disable")
	data, _ = os.ReadFile(filepath.Join(dir, "logs", "kernel.log"))
	if strings.Contains(string(data), "after disable") {
		t.Error("disabled logger still wrote")
	}
}

func TestTimerLogsDuration(t *testing.T) {
	dir := t.TempDir()
	if err := Initialize(dir, true); err != nil {
		t.Fatalf("Initialize error = %v", err)
	}
	timer := StartTimer(CategorySession, "Learn")
	timer.Stop()

	data, err := os.ReadFile(filepath.Join(dir, "logs", "session.log"))
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(data), "Learn took") {
		t.Errorf("timer line missing:\n%s", string(data))
	}
}
