package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server      ServerConfig     `yaml:"server"`
	Database    DatabaseConfig   `yaml:"database"`
	Events      EventsConfig     `yaml:"events"`
	Opportunity ClientConfig     `yaml:"opportunity"`
	Spending    ClientConfig     `yaml:"spending"`
	Enrichment  EnrichmentConfig `yaml:"enrichment"`
	Engine      EngineConfig     `yaml:"engine"`
	Scheduler   SchedulerConfig  `yaml:"scheduler"`
	Logging     LoggingConfig    `yaml:"logging"`
}

type ServerConfig struct {
	Port        int    `yaml:"port"`
	MetricsPort int    `yaml:"metrics_port"`
	AdminToken  string `yaml:"admin_token"`
}

type DatabaseConfig struct {
	URL string `yaml:"url"`
}

type EventsConfig struct {
	URL string `yaml:"url"`
}

type ClientConfig struct {
	URL    string `yaml:"url"`
	APIKey string `yaml:"api_key"`
}

type ProviderConfig struct {
	Name   string `yaml:"name"`
	URL    string `yaml:"url"`
	APIKey string `yaml:"api_key"`
	Model  string `yaml:"model"`
}

type EnrichmentConfig struct {
	TimeoutMs int              `yaml:"timeout_ms"`
	Providers []ProviderConfig `yaml:"providers"`
}

type EngineConfig struct {
	Weights            Weights  `yaml:"weights"`
	GlobalPriorWinRate float64  `yaml:"global_prior_win_rate"`
	BaseBidCost        float64  `yaml:"base_bid_cost"`
	MinimumBidCost     float64  `yaml:"minimum_bid_cost"`
	BatchWorkers       int      `yaml:"batch_workers"`
	Capabilities       []string `yaml:"capabilities"`
	TargetNAICS        []string `yaml:"target_naics"`
	PreferredAgencies  []string `yaml:"preferred_agencies"`
	SetAsidePrograms   []string `yaml:"set_aside_programs"`
}

// Weights holds the twelve decision-factor weights. Loaded once at startup
// and validated before any evaluation runs.
type Weights struct {
	StrategicAlignment   float64 `yaml:"strategic_alignment"`
	CapabilityMatch      float64 `yaml:"capability_match"`
	MarketPosition       float64 `yaml:"market_position"`
	EstimatedValue       float64 `yaml:"estimated_value"`
	ProfitPotential      float64 `yaml:"profit_potential"`
	ResourceRequirements float64 `yaml:"resource_requirements"`
	TechnicalRisk        float64 `yaml:"technical_risk"`
	ScheduleRisk         float64 `yaml:"schedule_risk"`
	CompetitiveRisk      float64 `yaml:"competitive_risk"`
	PastPerformance      float64 `yaml:"past_performance"`
	EligibilityFit       float64 `yaml:"eligibility_fit"`
	SubmissionComplexity float64 `yaml:"submission_complexity"`
}

type SchedulerConfig struct {
	Enabled      bool   `yaml:"enabled"`
	Spec         string `yaml:"spec"`
	LookbackDays int    `yaml:"lookback_days"`
	Limit        int    `yaml:"limit"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func (c *Config) EnrichmentTimeout() time.Duration {
	return time.Duration(c.Enrichment.TimeoutMs) * time.Millisecond
}

func Load(path string) (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:        8700,
			MetricsPort: 8701,
		},
		Events: EventsConfig{
			URL: "nats://localhost:4222",
		},
		Opportunity: ClientConfig{
			URL: "http://localhost:9100",
		},
		Spending: ClientConfig{
			URL: "http://localhost:9101",
		},
		Enrichment: EnrichmentConfig{
			TimeoutMs: 15000,
		},
		Engine: EngineConfig{
			Weights: Weights{
				StrategicAlignment:   0.20,
				CapabilityMatch:      0.18,
				MarketPosition:       0.12,
				EstimatedValue:       0.15,
				ProfitPotential:      0.10,
				ResourceRequirements: 0.05,
				TechnicalRisk:        0.08,
				ScheduleRisk:         0.05,
				CompetitiveRisk:      0.07,
				PastPerformance:      0.00,
				EligibilityFit:       0.00,
				SubmissionComplexity: 0.00,
			},
			GlobalPriorWinRate: 0.30,
			BaseBidCost:        25000,
			MinimumBidCost:     5000,
			BatchWorkers:       4,
			Capabilities: []string{
				"software development", "system integration", "cybersecurity",
				"cloud computing", "data analytics", "engineering", "project management",
			},
			TargetNAICS:       []string{"541330", "541511", "541512", "541513", "541519"},
			PreferredAgencies: []string{"Department of Defense", "Department of Energy", "NASA"},
			SetAsidePrograms:  []string{"small business", "8(a)", "hubzone"},
		},
		Scheduler: SchedulerConfig{
			Enabled:      true,
			Spec:         "@every 1h",
			LookbackDays: 7,
			Limit:        50,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnv(cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("TRIAGE_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = n
		}
	}
	if v := os.Getenv("TRIAGE_METRICS_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Server.MetricsPort = n
		}
	}
	if v := os.Getenv("TRIAGE_ADMIN_TOKEN"); v != "" {
		cfg.Server.AdminToken = v
	}
	if v := os.Getenv("TRIAGE_DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v := os.Getenv("TRIAGE_EVENTS_URL"); v != "" {
		cfg.Events.URL = v
	}
	if v := os.Getenv("TRIAGE_OPPORTUNITY_URL"); v != "" {
		cfg.Opportunity.URL = v
	}
	if v := os.Getenv("TRIAGE_OPPORTUNITY_API_KEY"); v != "" {
		cfg.Opportunity.APIKey = v
	}
	if v := os.Getenv("TRIAGE_SPENDING_URL"); v != "" {
		cfg.Spending.URL = v
	}
	if v := os.Getenv("TRIAGE_BATCH_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Engine.BatchWorkers = n
		}
	}
	if v := os.Getenv("TRIAGE_SCHEDULER_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Scheduler.Enabled = b
		}
	}
	if v := os.Getenv("TRIAGE_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}
