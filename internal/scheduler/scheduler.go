// Package scheduler runs periodic sweep evaluations over recently posted
// opportunities. The sweep trigger identifier is derived from the run date,
// so overlapping or restarted sweeps land on the store's idempotency path
// instead of producing duplicate decisions.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/Meridian-Contracting/Triage/internal/config"
	"github.com/Meridian-Contracting/Triage/internal/engine"
	"github.com/Meridian-Contracting/Triage/internal/opportunity"
)

type Scheduler struct {
	cron   *cron.Cron
	engine *engine.Engine
	opps   opportunity.Client
	cfg    config.SchedulerConfig
	logger *slog.Logger
}

func New(eng *engine.Engine, opps opportunity.Client, cfg config.SchedulerConfig, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		cron:   cron.New(),
		engine: eng,
		opps:   opps,
		cfg:    cfg,
		logger: logger,
	}
}

// Start registers the sweep job and starts the cron loop.
func (s *Scheduler) Start() error {
	_, err := s.cron.AddFunc(s.cfg.Spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()
		s.RunSweep(ctx)
	})
	if err != nil {
		return err
	}
	s.cron.Start()
	s.logger.Info("scheduler started", "spec", s.cfg.Spec, "lookback_days", s.cfg.LookbackDays)
	return nil
}

// Stop halts the cron loop and waits for a running sweep to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

// RunSweep pulls recently posted opportunities and evaluates them as one
// batch under a date-derived trigger.
func (s *Scheduler) RunSweep(ctx context.Context) {
	now := time.Now().UTC()
	triggerID := "scheduled-" + now.Format("2006-01-02")

	opps, err := s.opps.SearchOpportunities(ctx, opportunity.SearchParams{
		PostedSince: now.AddDate(0, 0, -s.cfg.LookbackDays),
		Limit:       s.cfg.Limit,
	})
	if err != nil {
		s.logger.Error("sweep search failed", "trigger_id", triggerID, "error", err)
		return
	}
	if len(opps) == 0 {
		s.logger.Info("sweep found no opportunities", "trigger_id", triggerID)
		return
	}

	requests := make([]engine.EvaluateRequest, 0, len(opps))
	for _, opp := range opps {
		requests = append(requests, engine.EvaluateRequest{
			OpportunityID: opp.ID,
			TriggerID:     triggerID,
			DecidedBy:     "scheduler",
			Opportunity:   opp,
		})
	}

	result := s.engine.EvaluateBatch(ctx, triggerID, requests)
	s.logger.Info("sweep completed",
		"trigger_id", triggerID,
		"total", result.Total,
		"succeeded", result.Succeeded,
		"failed", result.Failed,
		"duplicate", result.Duplicate)
}
