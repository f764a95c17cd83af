package checkpoint

import (
	"context"
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "checkpoint.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSeenMark_RoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	seen, err := s.Seen(ctx, "KERALA_phase1.csv", "32070100101")
	if err != nil {
		t.Fatalf("Seen: %v", err)
	}
	if seen {
		t.Fatal("fresh store must not report codes as seen")
	}

	if err := s.Mark(ctx, "KERALA_phase1.csv", "32070100101"); err != nil {
		t.Fatalf("Mark: %v", err)
	}
	seen, err = s.Seen(ctx, "KERALA_phase1.csv", "32070100101")
	if err != nil {
		t.Fatalf("Seen: %v", err)
	}
	if !seen {
		t.Error("marked code must be seen")
	}
}

func TestMark_Idempotent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := s.Mark(ctx, "scope", "123456789"); err != nil {
			t.Fatalf("Mark #%d: %v", i+1, err)
		}
	}
	n, err := s.Count(ctx, "scope")
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 1 {
		t.Errorf("Count = %d, want 1 after repeated marks", n)
	}
}

func TestScopes_Isolated(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.Mark(ctx, "run_a.csv", "111111111"); err != nil {
		t.Fatalf("Mark: %v", err)
	}
	seen, err := s.Seen(ctx, "run_b.csv", "111111111")
	if err != nil {
		t.Fatalf("Seen: %v", err)
	}
	if seen {
		t.Error("a code marked in one scope must not leak into another")
	}
}

func TestOpen_ReopenKeepsMarks(t *testing.T) {
	path := filepath.Join(t.TempDir(), "checkpoint.db")
	ctx := context.Background()

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := s.Mark(ctx, "scope", "222222222"); err != nil {
		t.Fatalf("Mark: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	s, err = Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()
	seen, err := s.Seen(ctx, "scope", "222222222")
	if err != nil {
		t.Fatalf("Seen: %v", err)
	}
	if !seen {
		t.Error("marks must survive reopening, that is the point of the store")
	}
}
