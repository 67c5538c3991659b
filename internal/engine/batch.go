package engine

import (
	"context"
	"sync"
	"time"

	"github.com/Meridian-Contracting/Triage/internal/events"
	"github.com/Meridian-Contracting/Triage/internal/metrics"
	"github.com/Meridian-Contracting/Triage/internal/store"
)

// BatchItemResult is the outcome of one unit of a batch. Exactly one of
// Record or Error is set.
type BatchItemResult struct {
	OpportunityID string                   `json:"opportunity_id"`
	Record        *store.BidDecisionRecord `json:"record,omitempty"`
	Created       bool                     `json:"created"`
	Error         string                   `json:"error,omitempty"`
}

// BatchResult summarizes one batch run. Duplicates are counted separately
// from successes so a replayed batch reads as a no-op rather than a failure.
type BatchResult struct {
	TriggerID string            `json:"trigger_id"`
	Total     int               `json:"total"`
	Succeeded int               `json:"succeeded"`
	Failed    int               `json:"failed"`
	Duplicate int               `json:"duplicate"`
	Items     []BatchItemResult `json:"items"`
}

// EvaluateBatch runs evaluations concurrently through a bounded worker pool.
// One item failing never aborts the others; context cancellation stops
// workers from picking up further units.
func (e *Engine) EvaluateBatch(ctx context.Context, triggerID string, requests []EvaluateRequest) *BatchResult {
	workers := e.cfg.BatchWorkers
	if workers < 1 {
		workers = 1
	}
	if workers > len(requests) {
		workers = len(requests)
	}

	type indexed struct {
		idx int
		req EvaluateRequest
	}
	jobs := make(chan indexed)
	items := make([]BatchItemResult, len(requests))

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				items[job.idx] = e.evaluateBatchItem(ctx, triggerID, job.req)
			}
		}()
	}

	for i, req := range requests {
		if ctx.Err() != nil {
			break
		}
		jobs <- indexed{idx: i, req: req}
	}
	close(jobs)
	wg.Wait()

	result := &BatchResult{TriggerID: triggerID, Total: len(requests), Items: items}
	for i := range items {
		switch {
		case items[i].Error != "":
			result.Failed++
		case items[i].Created:
			result.Succeeded++
		case items[i].Record != nil:
			result.Duplicate++
		default:
			// Unit never ran because the context was cancelled.
			items[i].Error = context.Canceled.Error()
			result.Failed++
		}
	}

	e.logger.Info("batch evaluation completed",
		"trigger_id", triggerID,
		"total", result.Total,
		"succeeded", result.Succeeded,
		"failed", result.Failed,
		"duplicate", result.Duplicate)

	e.publish(events.SubjectBatchCompleted, events.BatchCompletedEvent{
		TriggerID: triggerID,
		Total:     result.Total,
		Succeeded: result.Succeeded,
		Failed:    result.Failed,
		Duplicate: result.Duplicate,
		Timestamp: time.Now().UTC(),
	})
	return result
}

func (e *Engine) evaluateBatchItem(ctx context.Context, triggerID string, req EvaluateRequest) BatchItemResult {
	if req.TriggerID == "" {
		req.TriggerID = triggerID
	}
	oppID := req.OpportunityID
	if oppID == "" && req.Opportunity != nil {
		oppID = req.Opportunity.ID
	}

	rec, created, err := e.Evaluate(ctx, req)
	if err != nil {
		metrics.BatchItemsTotal.WithLabelValues("failed").Inc()
		e.logger.Warn("batch item failed",
			"opportunity_id", oppID, "trigger_id", req.TriggerID, "error", err)
		return BatchItemResult{OpportunityID: oppID, Error: err.Error()}
	}
	if created {
		metrics.BatchItemsTotal.WithLabelValues("created").Inc()
	} else {
		metrics.BatchItemsTotal.WithLabelValues("duplicate").Inc()
	}
	return BatchItemResult{OpportunityID: rec.OpportunityID, Record: rec, Created: created}
}
