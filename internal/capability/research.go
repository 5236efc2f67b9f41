package capability

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/halcyon-labs/pagesmith/internal/aiclient"
	"github.com/halcyon-labs/pagesmith/internal/config"
	"github.com/halcyon-labs/pagesmith/internal/util"
	"github.com/halcyon-labs/pagesmith/pkg/models"
)

// LLMResearcher gathers topic findings through a research model
type LLMResearcher struct {
	cfg       *config.Config
	secrets   *config.Secrets
	apiClient *aiclient.Client
	logger    *slog.Logger
}

// NewLLMResearcher creates a new researcher
func NewLLMResearcher(cfg *config.Config, secrets *config.Secrets, apiClient *aiclient.Client, logger *slog.Logger) *LLMResearcher {
	return &LLMResearcher{
		cfg:       cfg,
		secrets:   secrets,
		apiClient: apiClient,
		logger:    logger.With("component", "researcher"),
	}
}

// Research runs the research prompt and parses the structured findings
func (r *LLMResearcher) Research(ctx context.Context, campaign *models.Campaign, item models.SourceItem) (*models.ResearchResult, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Duration(r.cfg.Timeouts.ResearchSeconds)*time.Second)
	defer cancel()

	prompt, err := util.RenderTemplate(r.cfg.PromptTemplates.Research, map[string]interface{}{
		"Topic":    item.Topic,
		"Keywords": strings.Join(item.Keywords, ", "),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to render research template: %w", err)
	}

	// Fall back to the content model when no dedicated research model is configured
	model, ok := r.cfg.Models["research"]
	if !ok {
		model = r.cfg.Models["content"]
	}
	apiKey := r.secrets.GetAPIKey(model.BaseURL)

	resp, err := r.apiClient.ChatCompletion(ctx, model, apiKey, []aiclient.Message{
		{Role: "user", Content: prompt},
	})
	if err != nil {
		return nil, err
	}

	content := resp.Content()
	r.logger.Debug("Received research response", "length", len(content))

	jsonStr := util.SanitizeJSON(util.ExtractJSON(content))

	var result models.ResearchResult
	if err := json.Unmarshal([]byte(jsonStr), &result); err != nil {
		r.logger.Error("Failed to parse research response",
			"error", err,
			"extracted_json", util.TruncateString(jsonStr, 200))
		return nil, fmt.Errorf("failed to parse research response: %w", err)
	}

	r.logger.Info("Research complete",
		"topic", item.Topic,
		"key_points", len(result.KeyPoints),
		"sources", len(result.Sources))

	return &result, nil
}
