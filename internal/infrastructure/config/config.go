package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	service "github.com/harvestlane/agri-export-compliance-backend/internal/service/compliance"
)

type Config struct {
	Version     string `koanf:"version"`
	Environment string `koanf:"environment"`
	LogLevel    string `koanf:"log_level"`

	Server Server `koanf:"server"`
	Store  Store  `koanf:"store"`
	Redis  Redis  `koanf:"redis"`

	Engine Engine `koanf:"engine"`
}

type Server struct {
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

type Store struct {
	// Backend selects the record store: "memory" or "redis".
	Backend string `koanf:"backend"`
}

type Redis struct {
	Addr        string        `koanf:"addr"`
	Password    string        `koanf:"password"`
	DB          int           `koanf:"db"`
	DialTimeout time.Duration `koanf:"dial_timeout"`
}

// Engine carries the policy tables of the compliance engine.
type Engine struct {
	Scoring   Scoring   `koanf:"scoring"`
	Risk      Risk      `koanf:"risk"`
	Readiness Readiness `koanf:"readiness"`
	Timeline  Timeline  `koanf:"timeline"`

	RecordValidity time.Duration `koanf:"record_validity"`
}

type Scoring struct {
	ChecklistWeight        int  `koanf:"checklist_weight"`
	CertificationWeight    int  `koanf:"certification_weight"`
	TestingWeight          int  `koanf:"testing_weight"`
	DocumentationWeight    int  `koanf:"documentation_weight"`
	CompliantMin           int  `koanf:"compliant_min"`
	ConditionalMin         int  `koanf:"conditional_min"`
	InProgressMin          int  `koanf:"in_progress_min"`
	FullCreditEmptyLedgers bool `koanf:"full_credit_empty_ledgers"`
}

type Risk struct {
	MediumMin   float64 `koanf:"medium_min"`
	HighMin     float64 `koanf:"high_min"`
	CriticalMin float64 `koanf:"critical_min"`
}

type Readiness struct {
	CertificationPoints       int `koanf:"certification_points"`
	TestingPoints             int `koanf:"testing_points"`
	DocumentationPoints       int `koanf:"documentation_points"`
	ChecklistPoints           int `koanf:"checklist_points"`
	RiskPoints                int `koanf:"risk_points"`
	ReadyThreshold            int `koanf:"ready_threshold"`
	AuthorizationValidityDays int `koanf:"authorization_validity_days"`
}

type Timeline struct {
	CriticalWeight  float64 `koanf:"critical_weight"`
	PreparationDays int     `koanf:"preparation_days"`
	ClearanceDays   int     `koanf:"clearance_days"`
	SamplingBuffer  int     `koanf:"sampling_buffer_days"`
}

// Load builds the configuration from defaults, an optional YAML file and
// ACE_-prefixed environment variables, in that order of precedence.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	defaults := defaultConfig()
	if err := k.Load(structs.Provider(defaults, "koanf"), nil); err != nil {
		return nil, fmt.Errorf("loading defaults: %w", err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("ACE_", ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, "ACE_")), "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("loading environment: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Store.Backend != "memory" && c.Store.Backend != "redis" {
		return fmt.Errorf("store.backend must be memory or redis, got %q", c.Store.Backend)
	}

	s := c.Engine.Scoring
	if s.ChecklistWeight+s.CertificationWeight+s.TestingWeight+s.DocumentationWeight != 100 {
		return fmt.Errorf("scoring weights must sum to 100")
	}
	if !(s.CompliantMin > s.ConditionalMin && s.ConditionalMin > s.InProgressMin) {
		return fmt.Errorf("scoring thresholds must be strictly decreasing")
	}

	r := c.Engine.Risk
	if !(r.CriticalMin > r.HighMin && r.HighMin > r.MediumMin) {
		return fmt.Errorf("risk thresholds must be strictly increasing")
	}

	return nil
}

// Policies maps the config onto the engine's policy tables.
func (c *Config) Policies() service.Policies {
	return service.Policies{
		Scoring: service.ScoringPolicy{
			ChecklistWeight:        c.Engine.Scoring.ChecklistWeight,
			CertificationWeight:    c.Engine.Scoring.CertificationWeight,
			TestingWeight:          c.Engine.Scoring.TestingWeight,
			DocumentationWeight:    c.Engine.Scoring.DocumentationWeight,
			CompliantMin:           c.Engine.Scoring.CompliantMin,
			ConditionalMin:         c.Engine.Scoring.ConditionalMin,
			InProgressMin:          c.Engine.Scoring.InProgressMin,
			FullCreditEmptyLedgers: c.Engine.Scoring.FullCreditEmptyLedgers,
		},
		Risk: service.RiskPolicy{
			MediumMin:   c.Engine.Risk.MediumMin,
			HighMin:     c.Engine.Risk.HighMin,
			CriticalMin: c.Engine.Risk.CriticalMin,
		},
		Readiness: service.ReadinessPolicy{
			CertificationPoints:       c.Engine.Readiness.CertificationPoints,
			TestingPoints:             c.Engine.Readiness.TestingPoints,
			DocumentationPoints:       c.Engine.Readiness.DocumentationPoints,
			ChecklistPoints:           c.Engine.Readiness.ChecklistPoints,
			RiskPoints:                c.Engine.Readiness.RiskPoints,
			ReadyThreshold:            c.Engine.Readiness.ReadyThreshold,
			AuthorizationValidityDays: c.Engine.Readiness.AuthorizationValidityDays,
		},
		Timeline: service.TimelinePolicy{
			CriticalWeight:  c.Engine.Timeline.CriticalWeight,
			PreparationDays: c.Engine.Timeline.PreparationDays,
			ClearanceDays:   c.Engine.Timeline.ClearanceDays,
			SamplingBuffer:  c.Engine.Timeline.SamplingBuffer,
		},
		Record: service.RecordPolicy{
			Validity: c.Engine.RecordValidity,
		},
	}
}

func defaultConfig() Config {
	policies := service.DefaultPolicies()
	return Config{
		Version:     "dev",
		Environment: "development",
		LogLevel:    "info",
		Server: Server{
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
		Store: Store{
			Backend: "memory",
		},
		Redis: Redis{
			Addr:        "localhost:6379",
			DialTimeout: 5 * time.Second,
		},
		Engine: Engine{
			Scoring: Scoring{
				ChecklistWeight:        policies.Scoring.ChecklistWeight,
				CertificationWeight:    policies.Scoring.CertificationWeight,
				TestingWeight:          policies.Scoring.TestingWeight,
				DocumentationWeight:    policies.Scoring.DocumentationWeight,
				CompliantMin:           policies.Scoring.CompliantMin,
				ConditionalMin:         policies.Scoring.ConditionalMin,
				InProgressMin:          policies.Scoring.InProgressMin,
				FullCreditEmptyLedgers: policies.Scoring.FullCreditEmptyLedgers,
			},
			Risk: Risk{
				MediumMin:   policies.Risk.MediumMin,
				HighMin:     policies.Risk.HighMin,
				CriticalMin: policies.Risk.CriticalMin,
			},
			Readiness: Readiness{
				CertificationPoints:       policies.Readiness.CertificationPoints,
				TestingPoints:             policies.Readiness.TestingPoints,
				DocumentationPoints:       policies.Readiness.DocumentationPoints,
				ChecklistPoints:           policies.Readiness.ChecklistPoints,
				RiskPoints:                policies.Readiness.RiskPoints,
				ReadyThreshold:            policies.Readiness.ReadyThreshold,
				AuthorizationValidityDays: policies.Readiness.AuthorizationValidityDays,
			},
			Timeline: Timeline{
				CriticalWeight:  policies.Timeline.CriticalWeight,
				PreparationDays: policies.Timeline.PreparationDays,
				ClearanceDays:   policies.Timeline.ClearanceDays,
				SamplingBuffer:  policies.Timeline.SamplingBuffer,
			},
			RecordValidity: policies.Record.Validity,
		},
	}
}
