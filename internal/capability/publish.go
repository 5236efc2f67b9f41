package capability

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/halcyon-labs/pagesmith/internal/config"
	"github.com/halcyon-labs/pagesmith/internal/wordpress"
	"github.com/halcyon-labs/pagesmith/pkg/models"
)

// WordPressPublisher publishes the assembled article to the primary site
type WordPressPublisher struct {
	cfg        *config.Config
	httpClient *http.Client // for fetching generated image bytes
	logger     *slog.Logger
}

// NewWordPressPublisher creates a new publisher
func NewWordPressPublisher(cfg *config.Config, logger *slog.Logger) *WordPressPublisher {
	return &WordPressPublisher{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.Timeouts.PublishSeconds) * time.Second,
		},
		logger: logger.With("component", "publisher"),
	}
}

// Publish assembles the post from the context slots and creates it on the
// primary site. The featured image, when present, is uploaded first.
func (p *WordPressPublisher) Publish(ctx context.Context, campaign *models.Campaign, site *Site, pc *models.PipelineContext) (*models.PublishResult, error) {
	if pc.Content == nil {
		return nil, fmt.Errorf("no content to publish")
	}
	if site == nil || site.Primary == nil {
		return nil, fmt.Errorf("no primary site configured")
	}

	ctx, cancel := context.WithTimeout(ctx, time.Duration(p.cfg.Timeouts.PublishSeconds)*time.Second)
	defer cancel()

	body := ApplyLinks(pc.Content.Body, pc.Links)
	if pc.Schema != nil {
		body += "\n\n<script type=\"application/ld+json\">\n" + pc.Schema.JSONLD + "\n</script>"
	}

	// Upload the featured image before creating the post
	featuredMediaID := 0
	if pc.Images != nil {
		for _, img := range pc.Images.Images {
			if !img.Featured || img.URL == "" {
				continue
			}
			media, err := p.uploadImage(ctx, site, pc.Content.Slug, img)
			if err != nil {
				// A missing featured image should not block publication
				p.logger.Warn("Featured image upload failed", "error", err)
				break
			}
			featuredMediaID = media.ID
			break
		}
	}

	status := string(campaign.PublishStatus)
	if pc.NeedsReview {
		// Flagged content is routed to manual review instead of going live
		status = string(models.PublishStatusPending)
	}

	post := wordpressPost(pc, body, status)
	postID, link, err := site.Primary.CreatePost(ctx, post)
	if err != nil {
		return nil, err
	}

	if featuredMediaID != 0 {
		if err := site.Primary.SetFeaturedMedia(ctx, postID, featuredMediaID); err != nil {
			p.logger.Warn("Failed to set featured media", "post_id", postID, "error", err)
		}
	}

	result := &models.PublishResult{
		PostID:          postID,
		URL:             link,
		Status:          status,
		FeaturedMediaID: featuredMediaID,
		PublishedAt:     time.Now(),
	}

	p.logger.Info("Published article",
		"post_id", postID,
		"status", status,
		"needs_review", pc.NeedsReview)

	return result, nil
}

func (p *WordPressPublisher) uploadImage(ctx context.Context, site *Site, slug string, img models.GeneratedImage) (*wordpressMedia, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", img.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create image fetch request: %w", err)
	}
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch generated image: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			p.logger.Warn("Failed to close response body", "error", err)
		}
	}()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("image fetch failed with status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "image/png"
	}

	media, err := site.Primary.UploadMedia(ctx, slug+"-featured.png", contentType, data)
	if err != nil {
		return nil, err
	}
	return &wordpressMedia{ID: media.ID, SourceURL: media.SourceURL}, nil
}

type wordpressMedia struct {
	ID        int
	SourceURL string
}

// WordPressMultiSitePublisher pushes the article to every secondary site.
// Per-site failures are recorded, not fatal.
type WordPressMultiSitePublisher struct {
	cfg    *config.Config
	logger *slog.Logger
}

// NewWordPressMultiSitePublisher creates a new multi-site publisher
func NewWordPressMultiSitePublisher(cfg *config.Config, logger *slog.Logger) *WordPressMultiSitePublisher {
	return &WordPressMultiSitePublisher{
		cfg:    cfg,
		logger: logger.With("component", "multi_site"),
	}
}

// PublishAll creates the post on each secondary site
func (m *WordPressMultiSitePublisher) PublishAll(ctx context.Context, campaign *models.Campaign, site *Site, content *models.ContentResult) ([]models.SitePublishResult, error) {
	if content == nil {
		return nil, fmt.Errorf("no content to publish")
	}
	if site == nil || len(site.Secondary) == 0 {
		return nil, fmt.Errorf("no secondary sites configured")
	}

	var results []models.SitePublishResult
	for siteID, client := range site.Secondary {
		callCtx, cancel := context.WithTimeout(ctx, time.Duration(m.cfg.Timeouts.PublishSeconds)*time.Second)
		postID, link, err := client.CreatePost(callCtx, wordpressPostFromContent(content, string(campaign.PublishStatus)))
		cancel()

		result := models.SitePublishResult{SiteID: siteID}
		if err != nil {
			result.Error = err.Error()
			m.logger.Warn("Secondary site publish failed", "site", siteID, "error", err)
		} else {
			result.PostID = postID
			result.URL = link
		}
		results = append(results, result)
	}

	return results, nil
}

func wordpressPost(pc *models.PipelineContext, body, status string) wordpress.Post {
	return wordpress.Post{
		Title:   pc.Content.Title,
		Content: body,
		Excerpt: pc.Content.Excerpt,
		Slug:    pc.Content.Slug,
		Status:  status,
	}
}

func wordpressPostFromContent(content *models.ContentResult, status string) wordpress.Post {
	return wordpress.Post{
		Title:   content.Title,
		Content: content.Body,
		Excerpt: content.Excerpt,
		Slug:    content.Slug,
		Status:  status,
	}
}
