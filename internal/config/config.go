package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/halcyon-labs/pagesmith/pkg/models"
)

// Config represents the complete application configuration
type Config struct {
	Pipeline        PipelineConfig         `toml:"pipeline"`
	Models          map[string]ModelConfig `toml:"models"`
	Timeouts        TimeoutConfig          `toml:"timeouts"`
	WordPress       WordPressConfig        `toml:"wordpress"`
	Sites           []WordPressConfig      `toml:"sites"` // secondary sites for multi-site publishing
	PromptTemplates PromptTemplates        `toml:"prompt_templates"`
	Authors         []AuthorConfig         `toml:"authors"`
	Links           []LinkTarget           `toml:"links"`
	Syndication     []SyndicationChannel   `toml:"syndication"`
	Campaigns       []models.Campaign      `toml:"campaigns"`
	Items           []models.SourceItem    `toml:"items"`
}

// PipelineConfig holds orchestrator-level settings
type PipelineConfig struct {
	RunDir              string `toml:"run_dir"`              // base directory for run sessions (default "runs")
	CheckpointBackend   string `toml:"checkpoint_backend"`   // "file" or "sqlite" (default "file")
	CheckpointDir       string `toml:"checkpoint_dir"`       // directory for file backend (default "checkpoints")
	CheckpointPath      string `toml:"checkpoint_path"`      // database path for sqlite backend
	EnableCheckpointing bool   `toml:"enable_checkpointing"` // persist checkpoints after every stage attempt
	CheckpointTTLHours  int    `toml:"checkpoint_ttl_hours"` // soft TTL before a checkpoint is treated as absent (default 24)
	MetricsAddr         string `toml:"metrics_addr"`         // optional prometheus listen address (e.g. ":2112")
}

// ModelConfig represents configuration for a single model endpoint
type ModelConfig struct {
	BaseURL            string  `toml:"base_url"`
	ModelName          string  `toml:"model_name"`
	Temperature        float64 `toml:"temperature"`
	TopP               float64 `toml:"top_p"`
	MaxOutputTokens    int     `toml:"max_output_tokens"`
	RateLimitPerMinute int     `toml:"rate_limit_per_minute"`
	MaxRetries         int     `toml:"max_retries"` // 0 = default (3)
}

// TimeoutConfig holds per-category bounds wrapped around external capability calls.
// Expiry surfaces as an ordinary stage error.
type TimeoutConfig struct {
	ResearchSeconds   int `toml:"research_seconds"`
	GenerationSeconds int `toml:"generation_seconds"`
	ImageSeconds      int `toml:"image_seconds"`
	PublishSeconds    int `toml:"publish_seconds"`
}

// WordPressConfig identifies one WordPress site
type WordPressConfig struct {
	SiteID   string `toml:"site_id"`
	BaseURL  string `toml:"base_url"`
	Username string `toml:"username"`
}

// PromptTemplates holds all customizable prompt templates
type PromptTemplates struct {
	Research          string `toml:"research"`
	ContentGeneration string `toml:"content_generation"`
	ImageBrief        string `toml:"image_brief"`
	QualityRubric     string `toml:"quality_rubric"`
	ContentSystem     string `toml:"content_system"` // optional system prompt for authoring
	QualitySystem     string `toml:"quality_system"` // optional system prompt for scoring
}

// AuthorConfig is one entry in the author roster
type AuthorConfig struct {
	ID          string   `toml:"id"`
	DisplayName string   `toml:"display_name"`
	Expertise   []string `toml:"expertise"`
}

// LinkTarget is one entry in the internal-link index
type LinkTarget struct {
	URL      string   `toml:"url"`
	Title    string   `toml:"title"`
	Keywords []string `toml:"keywords"`
}

// SyndicationChannel identifies one distribution channel
type SyndicationChannel struct {
	Name     string `toml:"name"`
	Endpoint string `toml:"endpoint"`
}

// Secrets holds sensitive credentials loaded from environment variables
type Secrets struct {
	APIKeys           map[string]string
	WordPressPassword string // application password for the primary site
}

const (
	// MaxQualityRetries bounds how many regeneration passes the quality gate may request
	MaxQualityRetries = 3
	// DefaultCheckpointTTLHours is the soft TTL after which a checkpoint is treated as absent
	DefaultCheckpointTTLHours = 24
)

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	switch c.Pipeline.CheckpointBackend {
	case "file", "sqlite":
	default:
		return fmt.Errorf("pipeline.checkpoint_backend must be \"file\" or \"sqlite\" (got %q)", c.Pipeline.CheckpointBackend)
	}
	if c.Pipeline.CheckpointBackend == "sqlite" && c.Pipeline.CheckpointPath == "" {
		return fmt.Errorf("pipeline.checkpoint_path is required for the sqlite backend")
	}
	if c.Pipeline.CheckpointTTLHours < 1 {
		return fmt.Errorf("pipeline.checkpoint_ttl_hours must be at least 1 (got %d)", c.Pipeline.CheckpointTTLHours)
	}

	// Validate content model exists
	contentModel, ok := c.Models["content"]
	if !ok {
		return fmt.Errorf("models.content is required")
	}
	if err := validateModelConfig("content", contentModel); err != nil {
		return err
	}

	// Research and quality models are optional; validate when present
	for _, name := range []string{"research", "quality", "image"} {
		if mc, ok := c.Models[name]; ok {
			if err := validateModelConfig(name, mc); err != nil {
				return err
			}
		}
	}

	if c.WordPress.BaseURL == "" {
		return fmt.Errorf("wordpress.base_url is required")
	}
	if c.WordPress.Username == "" {
		return fmt.Errorf("wordpress.username is required")
	}
	for i, site := range c.Sites {
		if site.SiteID == "" {
			return fmt.Errorf("sites[%d].site_id is required", i)
		}
		if site.BaseURL == "" {
			return fmt.Errorf("sites[%d].base_url is required", i)
		}
	}

	for i, campaign := range c.Campaigns {
		if campaign.ID == "" {
			return fmt.Errorf("campaigns[%d].id is required", i)
		}
		if campaign.QualityThreshold < 0 || campaign.QualityThreshold > 5 {
			return fmt.Errorf("campaigns[%d].quality_threshold must be between 0 and 5 (got %.2f)", i, campaign.QualityThreshold)
		}
		if campaign.FlagThreshold < 0 || campaign.FlagThreshold > 5 {
			return fmt.Errorf("campaigns[%d].flag_threshold must be between 0 and 5 (got %.2f)", i, campaign.FlagThreshold)
		}
		if campaign.MaxQualityRetries < 0 || campaign.MaxQualityRetries > MaxQualityRetries {
			return fmt.Errorf("campaigns[%d].max_quality_retries must be between 0 and %d (got %d)", i, MaxQualityRetries, campaign.MaxQualityRetries)
		}
		if campaign.QualityGateEnabled {
			if _, ok := c.Models["quality"]; !ok {
				return fmt.Errorf("campaigns[%d] enables the quality gate but models.quality is not configured", i)
			}
			if c.PromptTemplates.QualityRubric == "" {
				return fmt.Errorf("prompt_templates.quality_rubric is required when a campaign enables the quality gate")
			}
		}
		if campaign.MultiSiteEnabled && len(c.Sites) == 0 {
			return fmt.Errorf("campaigns[%d] enables multi-site publishing but no [[sites]] are configured", i)
		}
		if campaign.SyndicationEnabled && len(c.Syndication) == 0 {
			return fmt.Errorf("campaigns[%d] enables syndication but no [[syndication]] channels are configured", i)
		}
	}

	for i, item := range c.Items {
		if item.ID == "" {
			return fmt.Errorf("items[%d].id is required", i)
		}
		if item.Topic == "" {
			return fmt.Errorf("items[%d].topic is required", i)
		}
	}

	if c.PromptTemplates.ContentGeneration == "" {
		return fmt.Errorf("prompt_templates.content_generation is required")
	}

	return nil
}

func validateModelConfig(name string, mc ModelConfig) error {
	if mc.BaseURL == "" {
		return fmt.Errorf("models.%s.base_url is required", name)
	}
	if mc.ModelName == "" {
		return fmt.Errorf("models.%s.model_name is required", name)
	}
	if mc.Temperature < 0 || mc.Temperature > 2 {
		return fmt.Errorf("models.%s.temperature must be between 0 and 2", name)
	}
	if mc.TopP < 0 || mc.TopP > 1 {
		return fmt.Errorf("models.%s.top_p must be between 0 and 1", name)
	}
	if mc.MaxOutputTokens < 1 {
		return fmt.Errorf("models.%s.max_output_tokens must be at least 1", name)
	}
	if mc.RateLimitPerMinute < 1 {
		return fmt.Errorf("models.%s.rate_limit_per_minute must be at least 1", name)
	}
	return nil
}

// CampaignByID returns the campaign with the given id
func (c *Config) CampaignByID(id string) (*models.Campaign, error) {
	for i := range c.Campaigns {
		if c.Campaigns[i].ID == id {
			return &c.Campaigns[i], nil
		}
	}
	return nil, fmt.Errorf("campaign %q not found in configuration", id)
}

// ItemByID returns the source item with the given id
func (c *Config) ItemByID(id string) (models.SourceItem, error) {
	for _, item := range c.Items {
		if item.ID == id {
			return item, nil
		}
	}
	return models.SourceItem{}, fmt.Errorf("item %q not found in configuration", id)
}

// LoadSecrets loads sensitive credentials from environment variables
func LoadSecrets() (*Secrets, error) {
	secrets := &Secrets{
		APIKeys: make(map[string]string),
	}

	// Generic key works for any OpenAI-compatible provider
	if key := os.Getenv("API_KEY"); key != "" {
		secrets.APIKeys["generic"] = key
	}
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		secrets.APIKeys["openai"] = key
	}
	if key := os.Getenv("TOGETHER_API_KEY"); key != "" {
		secrets.APIKeys["together"] = key
	}

	secrets.WordPressPassword = os.Getenv("WORDPRESS_APP_PASSWORD")

	return secrets, nil
}

// GetAPIKey returns the API key for a given base URL
func (s *Secrets) GetAPIKey(baseURL string) string {
	if strings.Contains(baseURL, "openai.com") {
		if key := s.APIKeys["openai"]; key != "" {
			return key
		}
	}
	if strings.Contains(baseURL, "together.xyz") || strings.Contains(baseURL, "together.ai") {
		if key := s.APIKeys["together"]; key != "" {
			return key
		}
	}

	// Fall back to generic API_KEY; empty is fine for local servers without auth
	return s.APIKeys["generic"]
}
