package api

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/warp/allocation-engine/allocation"
)

// Allocation outcomes, by status. Blocks are further broken down by the
// guard reason so a dashboard can tell weekends from duplicates.
var (
	allocationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "allocator_allocations_total",
		Help: "Allocation calls by outcome status.",
	}, []string{"status"})

	guardBlocksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "allocator_guard_blocks_total",
		Help: "Guard blocks by reason.",
	}, []string{"reason"})

	entriesCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "allocator_entries_created_total",
		Help: "Worklog entries successfully submitted.",
	})

	lineFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "allocator_line_failures_total",
		Help: "Per-line submission failures.",
	})
)

func observeResult(result *allocation.AllocationResult) {
	allocationsTotal.WithLabelValues(string(result.Status)).Inc()
	if result.Status == allocation.StatusBlocked {
		guardBlocksTotal.WithLabelValues(string(result.BlockReason)).Inc()
	}
	entriesCreatedTotal.Add(float64(len(result.Created)))
	lineFailuresTotal.Add(float64(len(result.Failed)))
}
