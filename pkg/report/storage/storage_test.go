package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/clayv/RateGate/pkg/config"
	"github.com/clayv/RateGate/pkg/report"
)

var baseTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestSQLite(t *testing.T, driver string) *SQLiteStorage {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "nested", "reports.db")
	s, err := NewSQLiteStorage(&SQLiteConfig{
		Path:        dbPath,
		Driver:      driver,
		BusyTimeout: 5 * time.Second,
	})
	if err != nil {
		if driver == DriverCgo && strings.Contains(err.Error(), "CGO_ENABLED") {
			t.Skip("cgo sqlite driver unavailable in this build")
		}
		t.Fatalf("Failed to create SQLite storage: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	if _, err := os.Stat(dbPath); err != nil {
		t.Fatalf("database file not created: %v", err)
	}
	return s
}

// backends returns every backend under test, keyed by name.
func backends(t *testing.T) map[string]report.Storage {
	return map[string]report.Storage{
		"memory":         NewMemoryStorage(),
		"sqlite-modernc": newTestSQLite(t, DriverModernc),
	}
}

func sampleReport(id, gate string, offset time.Duration, passed bool) *report.Report {
	return &report.Report{
		ID:          id,
		RunID:       "run-1",
		Gate:        gate,
		Occurrences: 10,
		TimeUnit:    time.Second,
		Workers:     4,
		Duration:    5 * time.Second,
		Timeout:     time.Second,
		StartedAt:   baseTime.Add(offset),
		Elapsed:     5 * time.Second,
		RecordedAt:  baseTime.Add(offset + 5*time.Second),
		Attempts:    120,
		Admitted:    60,
		Rejected:    58,
		Cancelled:   2,
		LatencyP50:  3 * time.Millisecond,
		LatencyP99:  900 * time.Millisecond,
		LatencyMax:  990 * time.Millisecond,
		MaxInWindow: 10,
		TotalBound:  60,
		Passed:      passed,
	}
}

// ============================================================================
// Contract tests (all backends)
// ============================================================================

func TestStorage_StoreAndGet(t *testing.T) {
	ctx := context.Background()

	for name, st := range backends(t) {
		t.Run(name, func(t *testing.T) {
			want := sampleReport("a", "mailer", 0, false)
			want.Error = "gate disposed"
			if err := st.Store(ctx, want); err != nil {
				t.Fatalf("Store() error = %v", err)
			}

			got, err := st.Get(ctx, "a")
			if err != nil {
				t.Fatalf("Get() error = %v", err)
			}
			if !got.StartedAt.Equal(want.StartedAt) || !got.RecordedAt.Equal(want.RecordedAt) {
				t.Errorf("timestamps = %v/%v, want %v/%v", got.StartedAt, got.RecordedAt, want.StartedAt, want.RecordedAt)
			}
			got.StartedAt, got.RecordedAt = want.StartedAt, want.RecordedAt
			if *got != *want {
				t.Errorf("Get() = %+v, want %+v", got, want)
			}

			_, err = st.Get(ctx, "missing")
			if !errors.Is(err, report.ErrNotFound) {
				t.Errorf("Get(missing) error = %v, want ErrNotFound", err)
			}
		})
	}
}

func TestStorage_StoreReplaces(t *testing.T) {
	ctx := context.Background()

	for name, st := range backends(t) {
		t.Run(name, func(t *testing.T) {
			r := sampleReport("a", "mailer", 0, false)
			if err := st.Store(ctx, r); err != nil {
				t.Fatal(err)
			}
			r.Passed = true
			if err := st.Store(ctx, r); err != nil {
				t.Fatal(err)
			}

			n, _ := st.Count(ctx, &report.Query{})
			if n != 1 {
				t.Errorf("Count() = %d, want 1", n)
			}
			got, _ := st.Get(ctx, "a")
			if got == nil || !got.Passed {
				t.Error("second Store() should replace the first")
			}
		})
	}
}

func TestStorage_QueryFiltersAndOrder(t *testing.T) {
	ctx := context.Background()
	passed := true
	from := baseTime.Add(time.Minute)

	for name, st := range backends(t) {
		t.Run(name, func(t *testing.T) {
			for _, r := range []*report.Report{
				sampleReport("r0", "mailer", 0, true),
				sampleReport("r1", "mailer", time.Minute, false),
				sampleReport("r2", "search", 2*time.Minute, true),
				sampleReport("r3", "mailer", 3*time.Minute, true),
			} {
				if err := st.Store(ctx, r); err != nil {
					t.Fatal(err)
				}
			}

			tests := []struct {
				name  string
				query *report.Query
				want  []string
			}{
				{"all newest first", &report.Query{}, []string{"r3", "r2", "r1", "r0"}},
				{"by gate", &report.Query{Gate: "mailer"}, []string{"r3", "r1", "r0"}},
				{"passed only", &report.Query{Passed: &passed}, []string{"r3", "r2", "r0"}},
				{"since", &report.Query{StartTime: &from}, []string{"r3", "r2", "r1"}},
				{"limit", &report.Query{Limit: 2}, []string{"r3", "r2"}},
				{"offset", &report.Query{Offset: 3}, []string{"r0"}},
				{"past end", &report.Query{Offset: 10}, []string{}},
				{"no match", &report.Query{RunID: "other"}, []string{}},
			}

			for _, tt := range tests {
				t.Run(tt.name, func(t *testing.T) {
					got, err := st.Query(ctx, tt.query)
					if err != nil {
						t.Fatalf("Query() error = %v", err)
					}
					ids := make([]string, 0, len(got))
					for _, r := range got {
						ids = append(ids, r.ID)
					}
					if strings.Join(ids, ",") != strings.Join(tt.want, ",") {
						t.Errorf("Query() = %v, want %v", ids, tt.want)
					}
				})
			}
		})
	}
}

func TestStorage_CountAndDelete(t *testing.T) {
	ctx := context.Background()
	cutoff := baseTime.Add(90 * time.Second)

	for name, st := range backends(t) {
		t.Run(name, func(t *testing.T) {
			for i, gate := range []string{"a", "a", "b", "b"} {
				r := sampleReport(string(rune('w'+i)), gate, time.Duration(i)*time.Minute, true)
				if err := st.Store(ctx, r); err != nil {
					t.Fatal(err)
				}
			}

			if n, _ := st.Count(ctx, &report.Query{Gate: "b"}); n != 2 {
				t.Errorf("Count(gate=b) = %d, want 2", n)
			}

			deleted, err := st.Delete(ctx, &report.Query{EndTime: &cutoff})
			if err != nil {
				t.Fatalf("Delete() error = %v", err)
			}
			if deleted != 2 {
				t.Errorf("Delete() = %d, want 2", deleted)
			}
			if n, _ := st.Count(ctx, &report.Query{}); n != 2 {
				t.Errorf("Count() after delete = %d, want 2", n)
			}
		})
	}
}

// ============================================================================
// SQLite specifics
// ============================================================================

func TestSQLiteStorage_Reopen(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "reports.db")

	s, err := NewSQLiteStorage(&SQLiteConfig{Path: dbPath})
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Store(ctx, sampleReport("keep", "mailer", 0, true)); err != nil {
		t.Fatal(err)
	}
	s.Close()

	s, err = NewSQLiteStorage(&SQLiteConfig{Path: dbPath})
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer s.Close()

	if _, err := s.Get(ctx, "keep"); err != nil {
		t.Errorf("report lost across reopen: %v", err)
	}
}

func TestSQLiteStorage_CgoDriver(t *testing.T) {
	ctx := context.Background()
	s := newTestSQLite(t, DriverCgo)

	if err := s.Store(ctx, sampleReport("c", "mailer", 0, true)); err != nil {
		t.Fatalf("Store() error = %v", err)
	}
	got, err := s.Get(ctx, "c")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !got.StartedAt.Equal(baseTime) {
		t.Errorf("StartedAt = %v, want %v", got.StartedAt, baseTime)
	}
}

func TestSQLiteStorage_UnknownDriver(t *testing.T) {
	_, err := NewSQLiteStorage(&SQLiteConfig{Path: filepath.Join(t.TempDir(), "x.db"), Driver: "odbc"})
	var se *report.StorageError
	if !errors.As(err, &se) || se.Operation != "open" {
		t.Errorf("error = %v, want open StorageError", err)
	}
}

func TestOpen(t *testing.T) {
	st, err := Open(config.StorageConfig{Backend: "memory"})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := st.(*MemoryStorage); !ok {
		t.Errorf("Open(memory) = %T", st)
	}

	st, err = Open(config.StorageConfig{
		Backend: "sqlite",
		SQLite:  config.SQLiteConfig{Path: filepath.Join(t.TempDir(), "r.db"), Driver: "modernc"},
	})
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()
	if _, ok := st.(*SQLiteStorage); !ok {
		t.Errorf("Open(sqlite) = %T", st)
	}

	if _, err := Open(config.StorageConfig{Backend: "postgres"}); err == nil {
		t.Error("Open(postgres) should fail")
	}
}
