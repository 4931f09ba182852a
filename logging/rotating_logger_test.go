package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestWeekKey(t *testing.T) {
	tests := []struct {
		date     time.Time
		expected string
	}{
		{time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC), "2026-W01"},
		{time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC), "2026-W43"},
		{time.Date(2027, 1, 1, 12, 0, 0, 0, time.UTC), "2026-W53"},
	}

	for _, tt := range tests {
		if got := weekKey(tt.date); got != tt.expected {
			t.Errorf("weekKey(%s) = %s, want %s", tt.date.Format("2006-01-02"), got, tt.expected)
		}
	}
}

func TestRotatingLoggerWritesWeeklyFile(t *testing.T) {
	dir := t.TempDir()
	rl := NewRotatingLogger(dir, 4, 1024*1024)
	if err := rl.Open(); err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer rl.Close()

	if _, err := rl.Write([]byte("first line\n")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	expected := logFilePrefix + weekKey(time.Now()) + ".log"
	if rl.CurrentFileName() != expected {
		t.Errorf("Expected file %s, got %s", expected, rl.CurrentFileName())
	}

	content, err := os.ReadFile(filepath.Join(dir, expected))
	if err != nil {
		t.Fatalf("Failed to read log file: %v", err)
	}
	if !strings.Contains(string(content), "first line") {
		t.Errorf("Log file missing written line: %q", content)
	}
}

func TestRotatingLoggerRotatesOnSize(t *testing.T) {
	dir := t.TempDir()
	rl := NewRotatingLogger(dir, 4, 64)
	if err := rl.Open(); err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer rl.Close()

	line := []byte(strings.Repeat("x", 40) + "\n")
	for range 3 {
		if _, err := rl.Write(line); err != nil {
			t.Fatalf("Write failed: %v", err)
		}
	}

	week := weekKey(time.Now())
	if _, err := os.Stat(filepath.Join(dir, logFilePrefix+week+".log")); err != nil {
		t.Errorf("Expected base log file: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, logFilePrefix+week+"_01.log")); err != nil {
		t.Errorf("Expected first numbered log file: %v", err)
	}
	if rl.CurrentFileName() != logFilePrefix+week+"_02.log" {
		t.Errorf("Expected second numbered file, got %s", rl.CurrentFileName())
	}
}

func TestCleanupOldLogs(t *testing.T) {
	dir := t.TempDir()
	rl := NewRotatingLogger(dir, 1, 1024*1024)
	if err := rl.Open(); err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer rl.Close()

	old := filepath.Join(dir, logFilePrefix+"2020-W01.log")
	recent := filepath.Join(dir, logFilePrefix+"2020-W02.log")
	unrelated := filepath.Join(dir, "notes.txt")
	for _, path := range []string{old, recent, unrelated} {
		if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
	}
	oldTime := time.Now().Add(-30 * 24 * time.Hour)
	if err := os.Chtimes(old, oldTime, oldTime); err != nil {
		t.Fatal(err)
	}
	if err := os.Chtimes(unrelated, oldTime, oldTime); err != nil {
		t.Fatal(err)
	}

	deleted, err := rl.cleanupOldLogs()
	if err != nil {
		t.Fatalf("cleanupOldLogs failed: %v", err)
	}
	if deleted != 1 {
		t.Errorf("Expected 1 deleted file, got %d", deleted)
	}
	if _, err := os.Stat(old); !os.IsNotExist(err) {
		t.Error("Old log file should be removed")
	}
	if _, err := os.Stat(recent); err != nil {
		t.Error("Recent log file should be kept")
	}
	if _, err := os.Stat(unrelated); err != nil {
		t.Error("Non-log files should be kept")
	}
}

func TestCloseIsSafeTwice(t *testing.T) {
	rl := NewRotatingLogger(t.TempDir(), 4, 1024*1024)
	if err := rl.Open(); err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if err := rl.Close(); err != nil {
		t.Errorf("First close failed: %v", err)
	}
	if err := rl.Close(); err != nil {
		t.Errorf("Second close failed: %v", err)
	}
}
