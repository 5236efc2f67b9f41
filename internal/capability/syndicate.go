package capability

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/halcyon-labs/pagesmith/internal/config"
	"github.com/halcyon-labs/pagesmith/internal/util"
	"github.com/halcyon-labs/pagesmith/pkg/models"
)

// WebhookSyndicator pushes publish notifications to configured channel
// endpoints. Per-channel failures are recorded, not fatal.
type WebhookSyndicator struct {
	channels   []config.SyndicationChannel
	httpClient *http.Client
	logger     *slog.Logger
}

// NewWebhookSyndicator creates a new syndicator
func NewWebhookSyndicator(cfg *config.Config, logger *slog.Logger) *WebhookSyndicator {
	return &WebhookSyndicator{
		channels: cfg.Syndication,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.Timeouts.PublishSeconds) * time.Second,
		},
		logger: logger.With("component", "syndicator"),
	}
}

// syndicationPayload is the webhook body sent to each channel
type syndicationPayload struct {
	CampaignID string `json:"campaign_id"`
	PostID     int    `json:"post_id"`
	URL        string `json:"url"`
	Status     string `json:"status"`
}

// Syndicate notifies every configured channel about the published post
func (s *WebhookSyndicator) Syndicate(ctx context.Context, campaign *models.Campaign, publish *models.PublishResult) ([]models.SyndicationResult, error) {
	if publish == nil {
		return nil, fmt.Errorf("nothing published to syndicate")
	}
	if len(s.channels) == 0 {
		return nil, fmt.Errorf("no syndication channels configured")
	}

	body, err := json.Marshal(syndicationPayload{
		CampaignID: campaign.ID,
		PostID:     publish.PostID,
		URL:        publish.URL,
		Status:     publish.Status,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	var results []models.SyndicationResult
	for _, channel := range s.channels {
		result := models.SyndicationResult{Channel: channel.Name}
		ref, err := s.push(ctx, channel, body)
		if err != nil {
			result.Error = err.Error()
			s.logger.Warn("Syndication push failed", "channel", channel.Name, "error", err)
		} else {
			result.Ref = ref
		}
		results = append(results, result)
	}

	return results, nil
}

func (s *WebhookSyndicator) push(ctx context.Context, channel config.SyndicationChannel, body []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, "POST", channel.Endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("push failed: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			s.logger.Warn("Failed to close response body", "error", err)
		}
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("push failed with status %d: %s", resp.StatusCode, util.TruncateString(string(respBody), 200))
	}

	return util.TruncateString(string(respBody), 100), nil
}
