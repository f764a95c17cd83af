// Package estimate projects processing time from measured per-school rates.
package estimate

import (
	"fmt"
	"math"
	"strings"
)

// Phase names a processing mode for estimation.
type Phase string

const (
	Phase1   Phase = "phase1"
	Phase2   Phase = "phase2"
	Combined Phase = "combined"
)

// Measured per-school rates in seconds, from timed production runs, and the
// risk buffers applied on top of them.
const (
	phase1Rate   = 0.29
	phase2Rate   = 15.90
	combinedRate = 16.19

	phase1Buffer   = 1.25
	phase2Buffer   = 1.40
	combinedBuffer = 1.35
)

// Estimate is one projection for a given school count and phase.
type Estimate struct {
	Schools         int
	Phase           Phase
	Seconds         float64
	Buffered        bool
	BatchSize       int
	NumBatches      int
	BatchTime       string
	DailyCapacity   float64 // schools per 24h at this rate
	WorkdayCapacity float64 // schools per 8h
}

// For projects the processing time for n schools. With buffer enabled the
// phase-specific risk multiplier is applied.
func For(n int, phase Phase, buffer bool) Estimate {
	rate, mult := rateFor(phase)
	secs := float64(n) * rate
	if buffer {
		secs *= mult
	}

	e := Estimate{
		Schools:  n,
		Phase:    phase,
		Seconds:  secs,
		Buffered: buffer,
	}
	e.BatchSize, e.NumBatches, e.BatchTime = batches(n, phase)
	if n > 0 {
		perSchool := secs / float64(n)
		e.DailyCapacity = 86400 / perSchool
		e.WorkdayCapacity = e.DailyCapacity / 3
	}
	return e
}

func rateFor(phase Phase) (rate, buffer float64) {
	switch phase {
	case Phase1:
		return phase1Rate, phase1Buffer
	case Phase2:
		return phase2Rate, phase2Buffer
	default:
		return combinedRate, combinedBuffer
	}
}

// batches recommends a batch split. The thresholds reflect how long a single
// unattended browser session stays reliable for each phase.
func batches(n int, phase Phase) (size, count int, perBatch string) {
	switch phase {
	case Phase1:
		switch {
		case n <= 1000:
			return n, 1, "2-5 minutes"
		case n <= 5000:
			return 2000, ceilDiv(n, 2000), "10-15 minutes"
		default:
			return 5000, ceilDiv(n, 5000), "25-30 minutes"
		}
	case Phase2:
		switch {
		case n <= 100:
			return n, 1, "15-30 minutes"
		case n <= 500:
			return 200, ceilDiv(n, 200), "50-60 minutes"
		default:
			return 500, ceilDiv(n, 500), "2-2.5 hours"
		}
	default:
		switch {
		case n <= 500:
			return n, 1, "1-2 hours"
		case n <= 2000:
			return 1000, ceilDiv(n, 1000), "4-5 hours"
		default:
			return 2000, ceilDiv(n, 2000), "8-10 hours"
		}
	}
}

func ceilDiv(n, d int) int {
	return int(math.Ceil(float64(n) / float64(d)))
}

// FormatSeconds renders a duration as "N days, N hours, N minutes, N
// seconds", omitting zero parts and dropping seconds past a day.
func FormatSeconds(seconds float64) string {
	total := int(seconds)
	days := total / 86400
	hours := (total % 86400) / 3600
	minutes := (total % 3600) / 60
	secs := total % 60

	var parts []string
	if days > 0 {
		parts = append(parts, plural(days, "day"))
	}
	if hours > 0 {
		parts = append(parts, plural(hours, "hour"))
	}
	if minutes > 0 {
		parts = append(parts, plural(minutes, "minute"))
	}
	if secs > 0 && days == 0 {
		parts = append(parts, plural(secs, "second"))
	}
	if len(parts) == 0 {
		return "0 seconds"
	}
	return strings.Join(parts, ", ")
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
