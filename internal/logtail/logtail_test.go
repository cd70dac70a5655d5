package logtail

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestRead(t *testing.T) {
	tmpDir := t.TempDir()
	logPath := filepath.Join(tmpDir, "explore.log")

	var content strings.Builder
	var expectedAll []string
	for i := 1; i <= 10; i++ {
		line := fmt.Sprintf("2026-10-15T10:00:%02dZ INF line %d", i, i)
		content.WriteString(line + "\n")
		expectedAll = append(expectedAll, line)
	}
	if err := os.WriteFile(logPath, []byte(content.String()), 0o644); err != nil {
		t.Fatalf("failed to create test log file: %v", err)
	}

	tests := []struct {
		name     string
		maxLines int
		expected []string
	}{
		{name: "none (0)", maxLines: 0, expected: nil},
		{name: "partial (5)", maxLines: 5, expected: expectedAll[5:]},
		{name: "exactly all (10)", maxLines: 10, expected: expectedAll},
		{name: "more than exists (20)", maxLines: 20, expected: expectedAll},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Read(logPath, tt.maxLines, zerolog.TraceLevel)
			if err != nil {
				t.Fatalf("Read() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("Read() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestRead_FiltersByLevel(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "explore.log")
	lines := []string{
		"2026-10-15T10:00:00Z DBG thumbnail fetched component=areas",
		"2026-10-15T10:00:01Z INF download started area=Acadia",
		"2026-10-15T10:00:02Z ERR download failed area=Baxter",
		"goroutine trace without level",
	}
	if err := os.WriteFile(logPath, []byte(strings.Join(lines, "\n")+"\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	got, err := Read(logPath, 10, zerolog.InfoLevel)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	want := lines[1:]
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Read() = %v, want %v", got, want)
	}
}

func TestRead_MissingFile(t *testing.T) {
	got, err := Read(filepath.Join(t.TempDir(), "absent.log"), 10, zerolog.InfoLevel)
	if err != nil || got != nil {
		t.Fatalf("Read() = %v, %v; want nil, nil", got, err)
	}
}

func TestLineLevel(t *testing.T) {
	if level, ok := LineLevel("2026-10-15T10:00:00Z WRN slow portal"); !ok || level != zerolog.WarnLevel {
		t.Fatalf("LineLevel = %v, %v; want warn", level, ok)
	}
	if _, ok := LineLevel("plain"); ok {
		t.Fatalf("LineLevel(plain) reported a level")
	}
}
