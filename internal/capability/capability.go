package capability

import (
	"context"
	"errors"
	"log/slog"

	"github.com/halcyon-labs/pagesmith/internal/aiclient"
	"github.com/halcyon-labs/pagesmith/internal/config"
	"github.com/halcyon-labs/pagesmith/internal/wordpress"
	"github.com/halcyon-labs/pagesmith/pkg/models"
)

// ErrRetryRequested is returned by the quality scorer when content quality
// is unacceptable and authoring should be re-run. The pipeline runner maps
// it to a distinct stage outcome instead of treating it as an ordinary failure.
var ErrRetryRequested = errors.New("quality gate requested content regeneration")

// Site bundles the WordPress clients a run publishes through
type Site struct {
	ID        string
	Primary   *wordpress.Client
	Secondary map[string]*wordpress.Client
}

// DedupIndex answers whether a topic has already been covered
type DedupIndex interface {
	IsDuplicate(ctx context.Context, campaign *models.Campaign, item models.SourceItem) (bool, error)
}

// Recorder persists a published item so future runs can deduplicate against it
type Recorder interface {
	Record(ctx context.Context, campaign *models.Campaign, item models.SourceItem, publish *models.PublishResult) error
}

// Researcher gathers findings for a topic before authoring
type Researcher interface {
	Research(ctx context.Context, campaign *models.Campaign, item models.SourceItem) (*models.ResearchResult, error)
}

// ContentGenerator authors the article body and metadata
type ContentGenerator interface {
	Generate(ctx context.Context, campaign *models.Campaign, item models.SourceItem, research *models.ResearchResult) (*models.ContentResult, error)
}

// ImageGenerator produces the article's image set
type ImageGenerator interface {
	Generate(ctx context.Context, campaign *models.Campaign, content *models.ContentResult, item models.SourceItem) (*models.ImageSet, error)
}

// LinkIndexer places internal links into the article body
type LinkIndexer interface {
	PlaceLinks(ctx context.Context, campaign *models.Campaign, content *models.ContentResult) (*models.LinkResult, error)
}

// SchemaGenerator produces structured-data markup for the article
type SchemaGenerator interface {
	Generate(ctx context.Context, campaign *models.Campaign, content *models.ContentResult) (*models.SchemaResult, error)
}

// AuthorRegistry matches an author to the item and scores the fit
type AuthorRegistry interface {
	Match(ctx context.Context, campaign *models.Campaign, item models.SourceItem) (*models.AuthorMatch, error)
}

// QualityScorer scores the article and decides approve, flag, or retry
type QualityScorer interface {
	Score(ctx context.Context, campaign *models.Campaign, item models.SourceItem, content *models.ContentResult) (*models.QualityResult, error)
}

// Publisher publishes to the primary site
type Publisher interface {
	Publish(ctx context.Context, campaign *models.Campaign, site *Site, pc *models.PipelineContext) (*models.PublishResult, error)
}

// MultiSitePublisher publishes to each configured secondary site
type MultiSitePublisher interface {
	PublishAll(ctx context.Context, campaign *models.Campaign, site *Site, content *models.ContentResult) ([]models.SitePublishResult, error)
}

// Syndicator pushes the published post to external distribution channels
type Syndicator interface {
	Syndicate(ctx context.Context, campaign *models.Campaign, publish *models.PublishResult) ([]models.SyndicationResult, error)
}

// Set bundles every capability collaborator a run needs. The orchestrator
// has zero knowledge of the implementations behind these interfaces.
type Set struct {
	Dedup      DedupIndex
	Recorder   Recorder
	Research   Researcher
	Content    ContentGenerator
	Images     ImageGenerator
	Links      LinkIndexer
	Schema     SchemaGenerator
	Authors    AuthorRegistry
	Quality    QualityScorer
	Publisher  Publisher
	MultiSite  MultiSitePublisher
	Syndicator Syndicator
}

// NewSet wires the default capability implementations
func NewSet(cfg *config.Config, secrets *config.Secrets, apiClient *aiclient.Client, logger *slog.Logger) *Set {
	index := NewPublishedIndex(cfg.Pipeline.CheckpointDir, logger)
	return &Set{
		Dedup:      index,
		Recorder:   index,
		Research:   NewLLMResearcher(cfg, secrets, apiClient, logger),
		Content:    NewLLMContentGenerator(cfg, secrets, apiClient, logger),
		Images:     NewImageAPIGenerator(cfg, secrets, apiClient, logger),
		Links:      NewKeywordLinkIndexer(cfg, logger),
		Schema:     NewArticleSchemaGenerator(),
		Authors:    NewRosterAuthorRegistry(cfg),
		Quality:    NewLLMQualityScorer(cfg, secrets, apiClient, logger),
		Publisher:  NewWordPressPublisher(cfg, logger),
		MultiSite:  NewWordPressMultiSitePublisher(cfg, logger),
		Syndicator: NewWebhookSyndicator(cfg, logger),
	}
}
