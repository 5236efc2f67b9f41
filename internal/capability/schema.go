package capability

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/halcyon-labs/pagesmith/pkg/models"
)

// ArticleSchemaGenerator builds Article JSON-LD markup from the content slot.
// No external call is needed; schema generation is deterministic.
type ArticleSchemaGenerator struct{}

// NewArticleSchemaGenerator creates a schema generator
func NewArticleSchemaGenerator() *ArticleSchemaGenerator {
	return &ArticleSchemaGenerator{}
}

// Generate produces schema.org Article markup
func (s *ArticleSchemaGenerator) Generate(ctx context.Context, campaign *models.Campaign, content *models.ContentResult) (*models.SchemaResult, error) {
	if content == nil {
		return nil, fmt.Errorf("no content to describe")
	}

	doc := map[string]interface{}{
		"@context":       "https://schema.org",
		"@type":          "Article",
		"headline":       content.Title,
		"description":    content.MetaDescription,
		"wordCount":      content.WordCount,
		"articleSection": campaign.Category,
	}

	jsonld, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal schema: %w", err)
	}

	return &models.SchemaResult{
		JSONLD: string(jsonld),
		Type:   "Article",
	}, nil
}
