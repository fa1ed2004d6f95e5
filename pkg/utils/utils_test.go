package utils

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestTrimSpaceSlice(t *testing.T) {
	tests := []struct {
		name     string
		input    []string
		expected []string
	}{
		{"mixed whitespace and content", []string{"  hello  ", "", "  world", "test  ", "   "}, []string{"hello", "world", "test"}},
		{"empty slice", []string{}, []string{}},
		{"all empty/whitespace", []string{"", "  ", "   ", "\t"}, []string{}},
		{"no trimming needed", []string{"hello", "world"}, []string{"hello", "world"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertStrings(t, tt.expected, TrimSpaceSlice(tt.input))
		})
	}
}

func TestUniqueStrings(t *testing.T) {
	got := UniqueStrings([]string{"b", " a ", "b", "", "Map[int, string]", "a"})
	assertStrings(t, []string{"b", "a", "Map[int, string]"}, got)
}

func assertStrings(t *testing.T, expected, got []string) {
	t.Helper()
	if len(got) != len(expected) {
		t.Fatalf("Expected %v, got %v", expected, got)
	}
	for i := range expected {
		if got[i] != expected[i] {
			t.Errorf("At index %d: expected %q, got %q", i, expected[i], got[i])
		}
	}
}

func TestSafeCreateFile(t *testing.T) {
	dir := t.TempDir()

	path := filepath.Join(dir, "nested", "out", "callgraph.txt")
	f, err := SafeCreateFile(path)
	if err != nil {
		t.Fatalf("SafeCreateFile() failed: %v", err)
	}
	f.Close()
	if !FileExists(path) {
		t.Errorf("Expected %s to exist", path)
	}
	if !DirectoryExists(filepath.Dir(path)) {
		t.Errorf("Expected parent directory to be created")
	}

	invalid := []string{"", "../escape.txt", "out/../../escape.txt", "/etc/callgraph.txt", "/proc/self/x"}
	for _, p := range invalid {
		if _, err := SafeCreateFile(p); err == nil {
			t.Errorf("Expected SafeCreateFile(%q) to fail", p)
		}
	}
}

func TestFileAndDirectoryExists(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "f.txt")
	if err := os.WriteFile(file, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	if FileExists("") || DirectoryExists("") {
		t.Error("Empty paths must not exist")
	}
	if !FileExists(file) || FileExists(dir) {
		t.Error("FileExists misclassified paths")
	}
	if !DirectoryExists(dir) || DirectoryExists(file) {
		t.Error("DirectoryExists misclassified paths")
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"DataStore.TotalValue", "DataStore.TotalValue"},
		{"shop.DataStore[shop.Electronics].TotalValue", "shop.DataStore-shop.Electronics-.TotalValue"},
		{"example.com/app.main", "example.com-app.main"},
		{"  ***  ", ""},
		{"Map[int, string]", "Map-int-string"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := SanitizeFilename(tt.input); got != tt.expected {
				t.Errorf("SanitizeFilename(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}

	long := SanitizeFilename(strings.Repeat("abcdefgh", 20))
	if len(long) > maxSlugLength {
		t.Errorf("Expected slug of at most %d characters, got %d", maxSlugLength, len(long))
	}
}

func TestCallerReportFilename(t *testing.T) {
	a := CallerReportFilename("DataStore.TotalValue", "json")
	b := CallerReportFilename("DataStore.TotalValue", ".json")
	if a != b {
		t.Errorf("Extension handling differs: %q vs %q", a, b)
	}
	if !strings.HasPrefix(a, "callers-DataStore.TotalValue-") || !strings.HasSuffix(a, ".json") {
		t.Errorf("Unexpected file name %q", a)
	}

	// same slug, different queries
	x := CallerReportFilename("shop.Sum[int]", "txt")
	y := CallerReportFilename("shop.Sum(int)", "txt")
	if x == y {
		t.Errorf("Expected distinct file names, both were %q", x)
	}

	if got := CallerReportFilename("***", "txt"); !strings.HasPrefix(got, "callers-target-") {
		t.Errorf("Expected fallback slug, got %q", got)
	}
}

func TestTimer(t *testing.T) {
	timer := NewTimer(NewLogger(&bytes.Buffer{}, false, true))
	timer.Record("collect", 2*time.Millisecond)
	timer.Record("collect", 4*time.Millisecond)
	if err := timer.Measure("build", func() error { return nil }); err != nil {
		t.Fatalf("Measure() returned %v", err)
	}

	stats := timer.Stats()
	if len(stats) != 2 || stats[0].Name != "build" || stats[1].Name != "collect" {
		t.Fatalf("Unexpected stats %+v", stats)
	}
	if stats[1].Count != 2 || stats[1].Total != 6*time.Millisecond || stats[1].Average() != 3*time.Millisecond {
		t.Errorf("Unexpected collect stat %+v", stats[1])
	}

	var table bytes.Buffer
	if err := timer.WriteTable(&table); err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"Timer Name", "Count", "Total (ms)", "Avg (ms)", "collect", "6.00", "3.00"} {
		if !strings.Contains(table.String(), want) {
			t.Errorf("Table missing %q:\n%s", want, table.String())
		}
	}

	var prom bytes.Buffer
	if err := timer.WritePrometheus(&prom); err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"callgraph_phase_seconds_total", `callgraph_phase_runs_total{phase="collect"} 2`} {
		if !strings.Contains(prom.String(), want) {
			t.Errorf("Prometheus output missing %q:\n%s", want, prom.String())
		}
	}
}

func TestNilTimer(t *testing.T) {
	var timer *Timer
	called := false
	if err := timer.Measure("x", func() error { called = true; return nil }); err != nil || !called {
		t.Errorf("nil Timer must still run the operation")
	}
	timer.Record("x", time.Second)
	if timer.Stats() != nil {
		t.Error("nil Timer must report no stats")
	}
}

func TestTimerConcurrentRecord(t *testing.T) {
	timer := NewTimer(NewLogger(&bytes.Buffer{}, false, true))
	done := make(chan struct{})
	for i := 0; i < 8; i++ {
		go func() {
			for j := 0; j < 100; j++ {
				timer.Record("extract", time.Microsecond)
			}
			done <- struct{}{}
		}()
	}
	for i := 0; i < 8; i++ {
		<-done
	}
	if got := timer.Stats()[0].Count; got != 800 {
		t.Errorf("Expected 800 measurements, got %d", got)
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, false, false)
	logger.Debug("hidden")
	logger.Info("shown")
	if strings.Contains(buf.String(), "hidden") || !strings.Contains(buf.String(), "shown") {
		t.Errorf("Unexpected info-level output: %s", buf.String())
	}

	buf.Reset()
	NewLogger(&buf, true, false).Debug("debug line")
	if !strings.Contains(buf.String(), "debug line") {
		t.Errorf("Verbose logger dropped debug output")
	}

	buf.Reset()
	quiet := NewLogger(&buf, true, true)
	quiet.Warn("warning")
	if buf.Len() != 0 {
		t.Errorf("Quiet logger wrote %q", buf.String())
	}

	buf.Reset()
	tagged, id := WithRunID(NewLogger(&buf, false, false))
	tagged.Info("run")
	if id == "" || !strings.Contains(buf.String(), "run_id="+id) {
		t.Errorf("Expected run_id=%s in %q", id, buf.String())
	}
}

func TestVerboseLogger(t *testing.T) {
	var buf bytes.Buffer
	v := &VerboseLogger{verbose: true, out: &buf}
	v.Logf("wrote %s\n", "callgraph.txt")
	if !v.IsVerbose() || buf.String() != "wrote callgraph.txt\n" {
		t.Errorf("Unexpected verbose output %q", buf.String())
	}

	buf.Reset()
	quiet := &VerboseLogger{verbose: false, out: &buf}
	quiet.Logf("should not %s", "appear")
	if quiet.IsVerbose() || buf.Len() != 0 {
		t.Errorf("Non-verbose logger wrote %q", buf.String())
	}
}
