package capability

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/halcyon-labs/pagesmith/internal/config"
	"github.com/halcyon-labs/pagesmith/pkg/models"
)

// maxInternalLinks caps how many links are placed into one article
const maxInternalLinks = 3

// KeywordLinkIndexer selects internal links by matching configured link
// targets against keywords present in the article body. It only reads the
// content slot; the links are applied to the body at publish time so the
// stage can run in parallel with the other enhancement stages.
type KeywordLinkIndexer struct {
	targets []config.LinkTarget
	logger  *slog.Logger
}

// NewKeywordLinkIndexer creates a link indexer over the configured index
func NewKeywordLinkIndexer(cfg *config.Config, logger *slog.Logger) *KeywordLinkIndexer {
	return &KeywordLinkIndexer{
		targets: cfg.Links,
		logger:  logger.With("component", "link_indexer"),
	}
}

// PlaceLinks picks at most one anchor per target, up to the per-article cap
func (l *KeywordLinkIndexer) PlaceLinks(ctx context.Context, campaign *models.Campaign, content *models.ContentResult) (*models.LinkResult, error) {
	if content == nil {
		return nil, fmt.Errorf("no content to link")
	}

	result := &models.LinkResult{}
	lowerBody := strings.ToLower(content.Body)

	for _, target := range l.targets {
		if len(result.Links) >= maxInternalLinks {
			break
		}
		for _, kw := range target.Keywords {
			kw = strings.TrimSpace(kw)
			if kw == "" {
				continue
			}
			idx := strings.Index(lowerBody, strings.ToLower(kw))
			if idx == -1 {
				continue
			}
			result.Links = append(result.Links, models.InternalLink{
				Anchor: content.Body[idx : idx+len(kw)],
				Target: target.URL,
			})
			break // one link per target
		}
	}

	l.logger.Info("Internal links selected", "count", len(result.Links))
	return result, nil
}

// ApplyLinks rewrites the first occurrence of each anchor into a markdown
// link and returns the new body. Called by the publisher before rendering.
func ApplyLinks(body string, links *models.LinkResult) string {
	if links == nil {
		return body
	}
	for _, link := range links.Links {
		idx := strings.Index(body, link.Anchor)
		if idx == -1 {
			continue
		}
		replacement := fmt.Sprintf("[%s](%s)", link.Anchor, link.Target)
		body = body[:idx] + replacement + body[idx+len(link.Anchor):]
	}
	return body
}
