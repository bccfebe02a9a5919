// Request outcome counters and timings for the filter pipeline
package core

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"photo-filters/internal/algorithms"
)

// Outcome classifies how a request ended
type Outcome string

const (
	OutcomeApplied  Outcome = "applied"
	OutcomeFailed   Outcome = "failed"
	OutcomeStale    Outcome = "stale"
	OutcomeRejected Outcome = "rejected"
)

// PipelineStats tracks what happened to every request
type PipelineStats struct {
	mu sync.Mutex

	outcomes map[Outcome]int
	// applied durations per filter
	durations map[algorithms.Filter][]time.Duration
	lastError string
}

func NewPipelineStats() *PipelineStats {
	return &PipelineStats{
		outcomes:  make(map[Outcome]int),
		durations: make(map[algorithms.Filter][]time.Duration),
	}
}

func (ps *PipelineStats) Record(filter algorithms.Filter, outcome Outcome, duration time.Duration, err error) {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	ps.outcomes[outcome]++
	if outcome == OutcomeApplied {
		ps.durations[filter] = append(ps.durations[filter], duration)
	}
	if err != nil {
		ps.lastError = err.Error()
	}
}

func (ps *PipelineStats) Count(outcome Outcome) int {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	return ps.outcomes[outcome]
}

// AverageDuration is the mean time of successful applications of filter.
func (ps *PipelineStats) AverageDuration(filter algorithms.Filter) time.Duration {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	return averageDuration(ps.durations[filter])
}

func (ps *PipelineStats) GetStats() map[string]interface{} {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	total := 0
	for _, n := range ps.outcomes {
		total += n
	}

	stats := map[string]interface{}{
		"total_requests": total,
		"applied":        ps.outcomes[OutcomeApplied],
		"failed":         ps.outcomes[OutcomeFailed],
		"stale":          ps.outcomes[OutcomeStale],
		"rejected":       ps.outcomes[OutcomeRejected],
	}
	if total > 0 {
		stats["success_rate"] = float64(ps.outcomes[OutcomeApplied]) / float64(total)
	}
	if ps.lastError != "" {
		stats["last_error"] = ps.lastError
	}

	var all []time.Duration
	for _, d := range ps.durations {
		all = append(all, d...)
	}
	if len(all) > 0 {
		stats["avg_processing_time"] = averageDuration(all)
	}
	return stats
}

func (ps *PipelineStats) LogSummary(logger *logrus.Logger) {
	logger.WithFields(logrus.Fields(ps.GetStats())).Info("PIPELINE: Summary")
}

func averageDuration(durations []time.Duration) time.Duration {
	if len(durations) == 0 {
		return 0
	}

	var total time.Duration
	for _, d := range durations {
		total += d
	}
	return total / time.Duration(len(durations))
}
