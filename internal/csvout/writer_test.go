package csvout

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestCleanRegionName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Kerala", "KERALA"},
		{"Andaman & Nicobar Islands", "ANDAMAN_and_NICOBAR_ISLANDS"},
		{"Dadra & Nagar Haveli / Daman & Diu", "DADRA_and_NAGAR_HAVELI___DAMAN_and_DIU"},
		{"Tamil Nadu", "TAMIL_NADU"},
	}
	for _, tt := range tests {
		if got := CleanRegionName(tt.in); got != tt.want {
			t.Errorf("CleanRegionName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFilename_Shape(t *testing.T) {
	ts := time.Date(2025, 3, 14, 15, 9, 26, 0, time.UTC)
	got := Filename("/tmp/out", "Tamil Nadu", "phase1_complete", ts)
	want := filepath.Join("/tmp/out", "TAMIL_NADU_phase1_complete_20250314_150926.csv")
	if got != want {
		t.Errorf("Filename = %q, want %q", got, want)
	}
}

func TestWriter_HeaderOnceAndIncrementalAppend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	w := New(path, []string{"a", "b"})

	// No file until the first non-empty batch.
	if err := w.Append(nil); err != nil {
		t.Fatalf("empty append: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatal("file should not exist before first non-empty batch")
	}

	if err := w.Append([][]string{{"1", "2"}}); err != nil {
		t.Fatalf("first batch: %v", err)
	}

	// A crash after the first batch must leave a readable prefix.
	rows := readCSV(t, path)
	if len(rows) != 2 || rows[0][0] != "a" || rows[1][1] != "2" {
		t.Fatalf("after first batch got %v", rows)
	}

	if err := w.Append([][]string{{"3", "4"}, {"5", "6"}}); err != nil {
		t.Fatalf("second batch: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	rows = readCSV(t, path)
	if len(rows) != 4 {
		t.Fatalf("got %d rows, want header + 3", len(rows))
	}
	if rows[0][0] != "a" {
		t.Error("header must stay first and unrepeated")
	}
	if w.Rows() != 3 {
		t.Errorf("Rows() = %d, want 3", w.Rows())
	}
}

func TestWriter_RejectsMisshapenRow(t *testing.T) {
	w := New(filepath.Join(t.TempDir(), "out.csv"), []string{"a", "b", "c"})
	defer w.Close()

	if err := w.Append([][]string{{"only", "two"}}); err == nil {
		t.Fatal("expected error for row narrower than header")
	}
}

func TestWriter_CloseWithoutDataIsNoop(t *testing.T) {
	path := filepath.Join(t.TempDir(), "never.csv")
	w := New(path, []string{"a"})
	if err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("no file should be created by Close alone")
	}
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return rows
}
