package logtail

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestRead(t *testing.T) {
	tmpDir := t.TempDir()
	logPath := filepath.Join(tmpDir, "test.log")

	var content strings.Builder
	var expectedAll []string
	for i := 1; i <= 10; i++ {
		line := fmt.Sprintf("Line %d", i)
		content.WriteString(line + "\n")
		expectedAll = append(expectedAll, line)
	}

	if err := os.WriteFile(logPath, []byte(content.String()), 0644); err != nil {
		t.Fatalf("failed to create test log file: %v", err)
	}

	tests := []struct {
		name     string
		maxLines int
		expected []string
	}{
		{"read all (0)", 0, expectedAll},
		{"read all (negative)", -1, expectedAll},
		{"read partial (5)", 5, expectedAll[5:]},
		{"read exactly all (10)", 10, expectedAll},
		{"read more than exists (20)", 20, expectedAll},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Read(logPath, tt.maxLines)
			if err != nil {
				t.Fatalf("Read() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("Read() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestRead_MissingFile(t *testing.T) {
	lines, err := Read(filepath.Join(t.TempDir(), "nope.log"), 10)
	if err != nil || lines != nil {
		t.Fatalf("Read() = %v, %v; want nil, nil", lines, err)
	}
}

func TestParseLine(t *testing.T) {
	line := `time=2026-10-19T12:00:00.000Z level=WARN msg="character fetch failed" component=syncer generation=3 error="dial tcp 127.0.0.1:8787: connect: connection refused"`
	got := ParseLine(line)

	if got.Time != "2026-10-19T12:00:00.000Z" || got.Level != "WARN" {
		t.Fatalf("ParseLine time/level = %q/%q", got.Time, got.Level)
	}
	if got.Message != "character fetch failed" {
		t.Fatalf("Message = %q", got.Message)
	}
	want := []Attr{
		{"component", "syncer"},
		{"generation", "3"},
		{"error", "dial tcp 127.0.0.1:8787: connect: connection refused"},
	}
	if !reflect.DeepEqual(got.Attrs, want) {
		t.Fatalf("Attrs = %#v, want %#v", got.Attrs, want)
	}
	if got.Raw != line {
		t.Fatalf("Raw not preserved")
	}
}

func TestParseLine_EscapedQuotes(t *testing.T) {
	got := ParseLine(`level=INFO msg="said \"hi\"" n=1`)
	if got.Message != `said "hi"` {
		t.Fatalf("Message = %q", got.Message)
	}
	if len(got.Attrs) != 1 || got.Attrs[0].Value != "1" {
		t.Fatalf("Attrs = %#v", got.Attrs)
	}
}

func TestParseLine_PlainText(t *testing.T) {
	got := ParseLine("  panic: something broke  ")
	if got.Level != "" || got.Message != "panic: something broke" {
		t.Fatalf("ParseLine = %#v", got)
	}
}

func TestAtLeast(t *testing.T) {
	entries := ParseLines([]string{
		"level=DEBUG msg=a",
		"level=INFO msg=b",
		"level=ERROR msg=c",
		"plain",
	})

	got := AtLeast(entries, "info")
	var msgs []string
	for _, e := range got {
		msgs = append(msgs, e.Message)
	}
	if !reflect.DeepEqual(msgs, []string{"b", "c", "plain"}) {
		t.Fatalf("AtLeast = %v", msgs)
	}

	if len(AtLeast(entries, "bogus")) != len(entries) {
		t.Fatalf("unknown level should keep everything")
	}
}
