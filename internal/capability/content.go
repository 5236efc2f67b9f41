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

// LLMContentGenerator authors articles through the content model
type LLMContentGenerator struct {
	cfg       *config.Config
	secrets   *config.Secrets
	apiClient *aiclient.Client
	logger    *slog.Logger
}

// NewLLMContentGenerator creates a new content generator
func NewLLMContentGenerator(cfg *config.Config, secrets *config.Secrets, apiClient *aiclient.Client, logger *slog.Logger) *LLMContentGenerator {
	return &LLMContentGenerator{
		cfg:       cfg,
		secrets:   secrets,
		apiClient: apiClient,
		logger:    logger.With("component", "content_generator"),
	}
}

// contentPayload is the JSON shape the content model must return
type contentPayload struct {
	Title           string `json:"title"`
	Body            string `json:"body"`
	Excerpt         string `json:"excerpt"`
	MetaDescription string `json:"meta_description"`
}

// Generate authors the article, threading research findings into the prompt
// when they are available
func (g *LLMContentGenerator) Generate(ctx context.Context, campaign *models.Campaign, item models.SourceItem, research *models.ResearchResult) (*models.ContentResult, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Duration(g.cfg.Timeouts.GenerationSeconds)*time.Second)
	defer cancel()

	templateData := map[string]interface{}{
		"Topic":     item.Topic,
		"Keywords":  strings.Join(item.Keywords, ", "),
		"Tone":      campaign.Tone,
		"WordCount": campaign.WordCount,
		"Research":  "",
	}
	if research != nil {
		templateData["Research"] = formatResearch(research)
	}

	prompt, err := util.RenderTemplate(g.cfg.PromptTemplates.ContentGeneration, templateData)
	if err != nil {
		return nil, fmt.Errorf("failed to render content template: %w", err)
	}

	model := g.cfg.Models["content"]
	apiKey := g.secrets.GetAPIKey(model.BaseURL)

	messages := []aiclient.Message{}
	if g.cfg.PromptTemplates.ContentSystem != "" {
		messages = append(messages, aiclient.Message{
			Role:    "system",
			Content: g.cfg.PromptTemplates.ContentSystem,
		})
	}
	messages = append(messages, aiclient.Message{Role: "user", Content: prompt})

	resp, err := g.apiClient.ChatCompletion(ctx, model, apiKey, messages)
	if err != nil {
		return nil, err
	}

	raw := resp.Content()
	g.logger.Debug("Received content response", "length", len(raw))

	jsonStr := util.SanitizeJSON(util.ExtractJSON(raw))

	var payload contentPayload
	if err := json.Unmarshal([]byte(jsonStr), &payload); err != nil {
		g.logger.Error("Failed to parse content response",
			"error", err,
			"extracted_json", util.TruncateString(jsonStr, 200))
		return nil, fmt.Errorf("failed to parse content response: %w", err)
	}

	if payload.Title == "" || payload.Body == "" {
		return nil, fmt.Errorf("content model returned empty title or body")
	}

	// Strip any meta-commentary the model wrapped around the article
	body := util.CleanMetaFromLLMResponse(payload.Body)

	result := &models.ContentResult{
		Title:           payload.Title,
		Slug:            util.Slugify(payload.Title),
		Body:            body,
		Excerpt:         payload.Excerpt,
		MetaDescription: payload.MetaDescription,
		WordCount:       util.CountWords(body),
	}

	g.logger.Info("Content generated",
		"title", result.Title,
		"word_count", result.WordCount,
		"target", campaign.WordCount)

	return result, nil
}

func formatResearch(r *models.ResearchResult) string {
	var b strings.Builder
	b.WriteString("Summary: " + r.Summary + "\n")
	if len(r.KeyPoints) > 0 {
		b.WriteString("Key points:\n")
		for _, p := range r.KeyPoints {
			b.WriteString("- " + p + "\n")
		}
	}
	if len(r.Statistics) > 0 {
		b.WriteString("Statistics:\n")
		for _, s := range r.Statistics {
			b.WriteString("- " + s + "\n")
		}
	}
	if len(r.Sources) > 0 {
		b.WriteString("Sources: " + strings.Join(r.Sources, ", ") + "\n")
	}
	return b.String()
}
