package enrich

import (
	"context"
	"log/slog"
	"time"

	"github.com/Meridian-Contracting/Triage/internal/metrics"
	"github.com/Meridian-Contracting/Triage/internal/opportunity"
)

// Analysis is the optional AI-derived signal bundle. Absence of any field —
// or of the whole analysis — is handled by the engine's neutral defaults.
type Analysis struct {
	Confidence            float64  `json:"confidence"`
	RiskFlags             []string `json:"risk_flags,omitempty"`
	TechnicalRequirements []string `json:"technical_requirements,omitempty"`
	Keywords              []string `json:"keywords,omitempty"`
	Narrative             string   `json:"narrative,omitempty"`
}

// Provider is one AI backend capable of analyzing an opportunity.
type Provider interface {
	Name() string
	Analyze(ctx context.Context, opp *opportunity.Opportunity) (*Analysis, error)
}

// Chain tries providers in order and returns the first successful analysis.
// Every call is bounded by the configured timeout. Exhausting the chain is
// not an error: enrichment is best-effort and the caller treats nil as
// "no enrichment".
type Chain struct {
	providers []Provider
	timeout   time.Duration
	logger    *slog.Logger
}

func NewChain(providers []Provider, timeout time.Duration, logger *slog.Logger) *Chain {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Chain{providers: providers, timeout: timeout, logger: logger}
}

func (c *Chain) Enrich(ctx context.Context, opp *opportunity.Opportunity) *Analysis {
	for _, p := range c.providers {
		callCtx, cancel := context.WithTimeout(ctx, c.timeout)
		analysis, err := p.Analyze(callCtx, opp)
		cancel()
		if err != nil {
			metrics.EnrichmentCalls.WithLabelValues(p.Name(), "error").Inc()
			c.logger.Warn("enrichment provider failed, trying next",
				"provider", p.Name(), "opportunity_id", opp.ID, "error", err)
			continue
		}
		if analysis == nil {
			metrics.EnrichmentCalls.WithLabelValues(p.Name(), "empty").Inc()
			continue
		}
		metrics.EnrichmentCalls.WithLabelValues(p.Name(), "ok").Inc()
		return analysis
	}
	return nil
}
