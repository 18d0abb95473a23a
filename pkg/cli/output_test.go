package cli

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/clayv/RateGate/pkg/loadgen"
	"github.com/clayv/RateGate/pkg/report"
)

func sampleResults() ResultsTable {
	return ResultsTable{
		{
			Gate:        "mailer",
			Occurrences: 5,
			TimeUnit:    time.Second,
			Workers:     8,
			Elapsed:     2 * time.Second,
			Admitted:    15,
			Rejected:    3,
			MaxInWindow: 5,
			Passed:      true,
			Latency:     loadgen.Latency{P99: 990 * time.Millisecond},
		},
		{
			Gate:        "search",
			Occurrences: 1,
			TimeUnit:    100 * time.Millisecond,
			Workers:     2,
			Elapsed:     time.Second,
			Admitted:    3,
			Error:       "rate gate disposed",
		},
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    OutputFormat
		wantErr bool
	}{
		{"", FormatText, false},
		{"text", FormatText, false},
		{"JSON", FormatJSON, false},
		{"csv", FormatCSV, false},
		{"junit", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseFormat(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseFormat(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestTextFormatter(t *testing.T) {
	buf := &bytes.Buffer{}
	if err := NewFormatter(FormatText).FormatTo(buf, sampleResults()); err != nil {
		t.Fatalf("FormatTo() error = %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header and 2 rows, got:\n%s", buf.String())
	}
	if !strings.HasPrefix(lines[0], "GATE") {
		t.Errorf("header = %q", lines[0])
	}
	for _, want := range []string{"mailer", "5/1s", "7.5", "990ms", "5/5", "PASS"} {
		if !strings.Contains(lines[1], want) {
			t.Errorf("row %q missing %q", lines[1], want)
		}
	}
	if !strings.Contains(lines[2], "ERROR") {
		t.Errorf("row %q should show ERROR", lines[2])
	}
}

func TestTextFormatter_Plain(t *testing.T) {
	buf := &bytes.Buffer{}
	if err := (&TextFormatter{}).FormatTo(buf, "config valid"); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "config valid\n" {
		t.Errorf("FormatTo() = %q", buf.String())
	}
}

func TestJSONFormatter(t *testing.T) {
	buf := &bytes.Buffer{}
	if err := NewFormatter(FormatJSON).FormatTo(buf, sampleResults()); err != nil {
		t.Fatalf("FormatTo() error = %v", err)
	}

	var decoded []map[string]any
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if len(decoded) != 2 || decoded[0]["gate"] != "mailer" {
		t.Errorf("unexpected JSON %s", buf.String())
	}
	if !strings.Contains(buf.String(), "\n  ") {
		t.Error("JSON output should be indented")
	}
}

func TestCSVFormatter(t *testing.T) {
	reports := ReportsTable{{
		ID:          "r1",
		Gate:        "mailer",
		Occurrences: 2,
		TimeUnit:    time.Minute,
		StartedAt:   time.Date(2026, 1, 2, 3, 4, 5, 0, time.Local),
		Admitted:    4,
		MaxInWindow: 3,
	}}

	buf := &bytes.Buffer{}
	if err := NewFormatter(FormatCSV).FormatTo(buf, reports); err != nil {
		t.Fatalf("FormatTo() error = %v", err)
	}

	records, err := csv.NewReader(buf).ReadAll()
	if err != nil {
		t.Fatalf("invalid CSV: %v", err)
	}
	want := []string{"r1", "2026-01-02 03:04:05", "mailer", "2/1m0s", "4", "3/2", "FAIL"}
	if len(records) != 2 || strings.Join(records[1], "|") != strings.Join(want, "|") {
		t.Errorf("CSV rows = %v, want header + %v", records, want)
	}
}

func TestCSVFormatter_RequiresTabular(t *testing.T) {
	if err := (&CSVFormatter{}).FormatTo(&bytes.Buffer{}, map[string]int{"a": 1}); err == nil {
		t.Error("expected error for non-tabular data")
	}
}

func TestReportsTable_Empty(t *testing.T) {
	buf := &bytes.Buffer{}
	if err := NewFormatter(FormatText).FormatTo(buf, ReportsTable([]*report.Report{})); err != nil {
		t.Fatal(err)
	}
	if strings.Count(buf.String(), "\n") != 1 {
		t.Errorf("empty table should print only the header, got %q", buf.String())
	}
}
