package models

import "time"

// PublishStatus is the WordPress post status a campaign targets
type PublishStatus string

const (
	PublishStatusDraft   PublishStatus = "draft"
	PublishStatusPending PublishStatus = "pending"
	PublishStatusPublish PublishStatus = "publish"
)

// QualityDecision is the verdict emitted by the quality gate
type QualityDecision string

const (
	// DecisionApprove continues the pipeline normally
	DecisionApprove QualityDecision = "approve"
	// DecisionFlag continues but marks the context for manual review routing
	DecisionFlag QualityDecision = "flag"
	// DecisionRetry signals that content quality is unacceptable and
	// generation should be re-run
	DecisionRetry QualityDecision = "retry"
)

// Campaign is the immutable configuration snapshot a run executes under
type Campaign struct {
	ID        string `toml:"id" json:"id"`
	Name      string `toml:"name" json:"name"`
	SiteID    string `toml:"site_id" json:"site_id"`
	Category  string `toml:"category" json:"category"`
	Tone      string `toml:"tone" json:"tone"`
	WordCount int    `toml:"word_count" json:"word_count"`

	// Feature toggles evaluated by stage conditions
	UseResearch        bool `toml:"use_research" json:"use_research"`
	IncludeImages      bool `toml:"include_images" json:"include_images"`
	OptimizeForSEO     bool `toml:"optimize_for_seo" json:"optimize_for_seo"`
	IncludeSchema      bool `toml:"include_schema" json:"include_schema"`
	QualityGateEnabled bool `toml:"quality_gate_enabled" json:"quality_gate_enabled"`
	MultiSiteEnabled   bool `toml:"multi_site_enabled" json:"multi_site_enabled"`
	SyndicationEnabled bool `toml:"syndication_enabled" json:"syndication_enabled"`

	PublishStatus     PublishStatus `toml:"publish_status" json:"publish_status"`
	QualityThreshold  float64       `toml:"quality_threshold" json:"quality_threshold"`
	FlagThreshold     float64       `toml:"flag_threshold" json:"flag_threshold"`
	MaxQualityRetries int           `toml:"max_quality_retries" json:"max_quality_retries"`
}

// SourceItem is the single content item a run processes
type SourceItem struct {
	ID       string   `toml:"id" json:"id"`
	Topic    string   `toml:"topic" json:"topic"`
	Keywords []string `toml:"keywords" json:"keywords"`
	URL      string   `toml:"url" json:"url"`
}

// ResearchResult holds findings gathered before authoring
type ResearchResult struct {
	Summary    string   `json:"summary"`
	KeyPoints  []string `json:"key_points"`
	Sources    []string `json:"sources"`
	Statistics []string `json:"statistics"`
}

// ContentResult is the authored article body and metadata
type ContentResult struct {
	Title           string `json:"title"`
	Slug            string `json:"slug"`
	Body            string `json:"body"`
	Excerpt         string `json:"excerpt"`
	MetaDescription string `json:"meta_description"`
	WordCount       int    `json:"word_count"`
}

// GeneratedImage is a single image produced for the article
type GeneratedImage struct {
	URL      string `json:"url"`
	AltText  string `json:"alt_text"`
	Caption  string `json:"caption"`
	Featured bool   `json:"featured"`
}

// ImageSet holds all images generated for one article
type ImageSet struct {
	Images []GeneratedImage `json:"images"`
}

// AuthorMatch is the author selected for attribution plus a health score
// describing how well the author's expertise covers the topic
type AuthorMatch struct {
	AuthorID    string  `json:"author_id"`
	DisplayName string  `json:"display_name"`
	HealthScore float64 `json:"health_score"`
}

// InternalLink is one link inserted into the article body
type InternalLink struct {
	Anchor string `json:"anchor"`
	Target string `json:"target"`
}

// LinkResult holds the internal links placed by the link indexer
type LinkResult struct {
	Links []InternalLink `json:"links"`
}

// SchemaResult holds the structured-data markup generated for the article
type SchemaResult struct {
	JSONLD string `json:"jsonld"`
	Type   string `json:"type"`
}

// CriterionScore is the score and reasoning for one quality rubric criterion.
// Criteria include the E-E-A-T categories (experience, expertise,
// authoritativeness, trustworthiness) plus readability and keyword coverage.
type CriterionScore struct {
	Score     float64 `json:"score"`
	Reasoning string  `json:"reasoning"`
}

// QualityResult is the quality gate's score breakdown and verdict
type QualityResult struct {
	Scores   map[string]CriterionScore `json:"scores"`
	Total    float64                   `json:"total"`
	Decision QualityDecision           `json:"decision"`
}

// PublishResult is the outcome of publishing to the primary site
type PublishResult struct {
	PostID          int       `json:"post_id"`
	URL             string    `json:"url"`
	Status          string    `json:"status"`
	FeaturedMediaID int       `json:"featured_media_id,omitempty"`
	PublishedAt     time.Time `json:"published_at"`
}

// SitePublishResult is the outcome of publishing to one secondary site
type SitePublishResult struct {
	SiteID string `json:"site_id"`
	PostID int    `json:"post_id"`
	URL    string `json:"url"`
	Error  string `json:"error,omitempty"`
}

// SyndicationResult is the outcome of pushing to one syndication channel
type SyndicationResult struct {
	Channel string `json:"channel"`
	Ref     string `json:"ref"`
	Error   string `json:"error,omitempty"`
}

// DistributionResult aggregates post-publish distribution outcomes
type DistributionResult struct {
	Recorded    bool                `json:"recorded"`
	Sites       []SitePublishResult `json:"sites,omitempty"`
	Syndication []SyndicationResult `json:"syndication,omitempty"`
}
