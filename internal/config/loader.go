package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// Load reads and parses the configuration file and environment variables
func Load(configPath string) (*Config, *Secrets, error) {
	// Read config file
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Parse TOML
	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Apply defaults
	applyDefaults(&cfg)

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}

	// Load secrets from environment
	secrets, err := LoadSecrets()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load secrets: %w", err)
	}

	return &cfg, secrets, nil
}

// applyDefaults sets default values for optional configuration fields
func applyDefaults(cfg *Config) {
	if cfg.Pipeline.RunDir == "" {
		cfg.Pipeline.RunDir = "runs"
	}
	if cfg.Pipeline.CheckpointBackend == "" {
		cfg.Pipeline.CheckpointBackend = "file"
	}
	if cfg.Pipeline.CheckpointDir == "" {
		cfg.Pipeline.CheckpointDir = "checkpoints"
	}
	if cfg.Pipeline.CheckpointTTLHours == 0 {
		cfg.Pipeline.CheckpointTTLHours = DefaultCheckpointTTLHours
	}

	// Timeout defaults per capability category
	if cfg.Timeouts.ResearchSeconds == 0 {
		cfg.Timeouts.ResearchSeconds = 120
	}
	if cfg.Timeouts.GenerationSeconds == 0 {
		cfg.Timeouts.GenerationSeconds = 240
	}
	if cfg.Timeouts.ImageSeconds == 0 {
		cfg.Timeouts.ImageSeconds = 180
	}
	if cfg.Timeouts.PublishSeconds == 0 {
		cfg.Timeouts.PublishSeconds = 60
	}

	// Apply defaults for each model
	for name, model := range cfg.Models {
		if model.Temperature == 0 {
			model.Temperature = 0.7
		}
		if model.TopP == 0 {
			model.TopP = 1.0
		}
		if model.MaxOutputTokens == 0 {
			model.MaxOutputTokens = 4096
		}
		if model.RateLimitPerMinute == 0 {
			model.RateLimitPerMinute = 60
		}
		if model.MaxRetries == 0 {
			model.MaxRetries = 3
		}
		cfg.Models[name] = model
	}

	// Campaign defaults
	for i := range cfg.Campaigns {
		c := &cfg.Campaigns[i]
		if c.PublishStatus == "" {
			c.PublishStatus = "draft"
		}
		if c.WordCount == 0 {
			c.WordCount = 1500
		}
		if c.QualityThreshold == 0 {
			c.QualityThreshold = 3.5
		}
		if c.FlagThreshold == 0 {
			c.FlagThreshold = 3.0
		}
		if c.MaxQualityRetries == 0 && c.QualityGateEnabled {
			c.MaxQualityRetries = 1
		}
		if c.SiteID == "" {
			c.SiteID = cfg.WordPress.SiteID
		}
	}

	// Apply default templates if not provided
	if cfg.PromptTemplates.Research == "" {
		cfg.PromptTemplates.Research = GetDefaultResearchTemplate()
	}
	if cfg.PromptTemplates.ContentGeneration == "" {
		cfg.PromptTemplates.ContentGeneration = GetDefaultContentTemplate()
	}
	if cfg.PromptTemplates.ImageBrief == "" {
		cfg.PromptTemplates.ImageBrief = GetDefaultImageBriefTemplate()
	}
	if cfg.PromptTemplates.QualityRubric == "" {
		cfg.PromptTemplates.QualityRubric = GetDefaultQualityRubricTemplate()
	}
}
