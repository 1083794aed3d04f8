package counterstore

import (
	"sync"
	"testing"

	"github.com/civicworks/civicconnect/internal/testutil"
)

func TestNext_Sequential(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	s := New(db)

	first, err := s.Next(ctx, "test_seq")
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if first != 1 {
		t.Errorf("first value = %d, want 1", first)
	}

	second, err := s.Next(ctx, "test_seq")
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if second != 2 {
		t.Errorf("second value = %d, want 2", second)
	}
}

func TestNext_ConcurrentUnique(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	s := New(db)

	const n = 20
	results := make(chan int64, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := s.Next(ctx, "concurrent_seq")
			if err != nil {
				t.Errorf("Next: %v", err)
				return
			}
			results <- v
		}()
	}
	wg.Wait()
	close(results)

	seen := make(map[int64]bool)
	for v := range results {
		if seen[v] {
			t.Errorf("duplicate sequence value %d", v)
		}
		seen[v] = true
	}
}

func TestFormatReportID(t *testing.T) {
	if got := FormatReportID(1); got != "RC-0001" {
		t.Errorf("FormatReportID(1) = %q", got)
	}
	if got := FormatReportID(12345); got != "RC-12345" {
		t.Errorf("FormatReportID(12345) = %q", got)
	}
}
