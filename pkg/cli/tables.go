package cli

import (
	"strconv"
	"time"

	"github.com/clayv/RateGate/pkg/loadgen"
	"github.com/clayv/RateGate/pkg/report"
)

// ResultsTable renders load-run results. JSON output keeps the full result.
type ResultsTable []*loadgen.Result

// Header implements Tabular.
func (t ResultsTable) Header() []string {
	return []string{"GATE", "LIMIT", "WORKERS", "ELAPSED", "ADMITTED", "REJECTED", "RATE/S", "P99", "MAX/WINDOW", "RESULT"}
}

// Rows implements Tabular.
func (t ResultsTable) Rows() [][]string {
	rows := make([][]string, 0, len(t))
	for _, r := range t {
		if r == nil {
			continue
		}
		rows = append(rows, []string{
			r.Gate,
			limit(r.Occurrences, r.TimeUnit),
			strconv.Itoa(r.Workers),
			r.Elapsed.Round(time.Millisecond).String(),
			strconv.Itoa(r.Admitted),
			strconv.Itoa(r.Rejected),
			strconv.FormatFloat(r.Throughput(), 'f', 1, 64),
			r.Latency.P99.Round(time.Microsecond).String(),
			strconv.Itoa(r.MaxInWindow) + "/" + strconv.Itoa(r.Occurrences),
			verdict(r.Passed, r.Error),
		})
	}
	return rows
}

// ReportsTable renders stored reports.
type ReportsTable []*report.Report

// Header implements Tabular.
func (t ReportsTable) Header() []string {
	return []string{"ID", "STARTED", "GATE", "LIMIT", "ADMITTED", "MAX/WINDOW", "RESULT"}
}

// Rows implements Tabular.
func (t ReportsTable) Rows() [][]string {
	rows := make([][]string, 0, len(t))
	for _, r := range t {
		rows = append(rows, []string{
			r.ID,
			r.StartedAt.Local().Format(time.DateTime),
			r.Gate,
			limit(r.Occurrences, r.TimeUnit),
			strconv.Itoa(r.Admitted),
			strconv.Itoa(r.MaxInWindow) + "/" + strconv.Itoa(r.Occurrences),
			verdict(r.Passed, r.Error),
		})
	}
	return rows
}

func limit(n int, unit time.Duration) string {
	return strconv.Itoa(n) + "/" + unit.String()
}

func verdict(passed bool, errMsg string) string {
	switch {
	case errMsg != "":
		return "ERROR"
	case passed:
		return "PASS"
	default:
		return "FAIL"
	}
}
