package loadgen

import (
	"sort"
	"time"
)

// MaxInWindow returns the largest number of admissions that fall within
// any half-open window [t, t+window) for t ranging over the admission
// times. times need not be sorted; it is sorted in place.
func MaxInWindow(times []time.Time, window time.Duration) int {
	if len(times) == 0 || window <= 0 {
		return 0
	}

	sort.Slice(times, func(i, j int) bool { return times[i].Before(times[j]) })

	best := 0
	start := 0
	for end := range times {
		for times[end].Sub(times[start]) >= window {
			start++
		}
		if n := end - start + 1; n > best {
			best = n
		}
	}
	return best
}

// TotalBound is the most admissions a gate of occurrences per timeUnit may
// grant over a run of length d: occurrences × ceil(d / timeUnit) + occurrences.
func TotalBound(occurrences int, timeUnit, d time.Duration) int {
	if timeUnit <= 0 {
		return 0
	}
	windows := int((d + timeUnit - 1) / timeUnit)
	return occurrences*windows + occurrences
}

// latencyStats summarises wait durations. durations is sorted in place.
func latencyStats(durations []time.Duration) Latency {
	if len(durations) == 0 {
		return Latency{}
	}

	sort.Slice(durations, func(i, j int) bool { return durations[i] < durations[j] })

	var total time.Duration
	for _, d := range durations {
		total += d
	}

	return Latency{
		Mean: total / time.Duration(len(durations)),
		P50:  percentile(durations, 0.50),
		P90:  percentile(durations, 0.90),
		P99:  percentile(durations, 0.99),
		Max:  durations[len(durations)-1],
	}
}

// percentile uses the nearest-rank method on sorted input.
func percentile(sorted []time.Duration, p float64) time.Duration {
	rank := int(p*float64(len(sorted))+0.999999) - 1
	if rank < 0 {
		rank = 0
	}
	if rank >= len(sorted) {
		rank = len(sorted) - 1
	}
	return sorted[rank]
}
