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

	"github.com/halcyon-labs/pagesmith/internal/aiclient"
	"github.com/halcyon-labs/pagesmith/internal/config"
	"github.com/halcyon-labs/pagesmith/internal/util"
	"github.com/halcyon-labs/pagesmith/pkg/models"
)

// defaultImageCount is how many images are generated per article;
// the first is the featured image
const defaultImageCount = 2

// ImageAPIGenerator produces images in two steps: the content model writes
// image briefs, then an OpenAI-compatible images endpoint renders each brief.
type ImageAPIGenerator struct {
	cfg        *config.Config
	secrets    *config.Secrets
	apiClient  *aiclient.Client
	httpClient *http.Client
	logger     *slog.Logger
}

// NewImageAPIGenerator creates a new image generator
func NewImageAPIGenerator(cfg *config.Config, secrets *config.Secrets, apiClient *aiclient.Client, logger *slog.Logger) *ImageAPIGenerator {
	return &ImageAPIGenerator{
		cfg:       cfg,
		secrets:   secrets,
		apiClient: apiClient,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.Timeouts.ImageSeconds) * time.Second,
		},
		logger: logger.With("component", "image_generator"),
	}
}

// imageBrief is one brief produced by the content model
type imageBrief struct {
	Description string `json:"description"`
	AltText     string `json:"alt_text"`
	Caption     string `json:"caption"`
}

// Generate creates briefs and renders them into hosted image URLs
func (g *ImageAPIGenerator) Generate(ctx context.Context, campaign *models.Campaign, content *models.ContentResult, item models.SourceItem) (*models.ImageSet, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Duration(g.cfg.Timeouts.ImageSeconds)*time.Second)
	defer cancel()

	briefs, err := g.generateBriefs(ctx, content, item)
	if err != nil {
		return nil, fmt.Errorf("failed to generate image briefs: %w", err)
	}

	imageModel, ok := g.cfg.Models["image"]
	if !ok {
		return nil, fmt.Errorf("models.image is not configured")
	}
	apiKey := g.secrets.GetAPIKey(imageModel.BaseURL)

	set := &models.ImageSet{}
	for i, brief := range briefs {
		url, err := g.renderImage(ctx, imageModel, apiKey, brief.Description)
		if err != nil {
			// Partial image sets are usable; keep what rendered so far
			g.logger.Warn("Image render failed, continuing with partial set",
				"index", i,
				"error", err)
			continue
		}
		set.Images = append(set.Images, models.GeneratedImage{
			URL:      url,
			AltText:  brief.AltText,
			Caption:  brief.Caption,
			Featured: i == 0,
		})
	}

	if len(set.Images) == 0 {
		return nil, fmt.Errorf("no images could be rendered")
	}

	g.logger.Info("Images generated", "count", len(set.Images))
	return set, nil
}

func (g *ImageAPIGenerator) generateBriefs(ctx context.Context, content *models.ContentResult, item models.SourceItem) ([]imageBrief, error) {
	prompt, err := util.RenderTemplate(g.cfg.PromptTemplates.ImageBrief, map[string]interface{}{
		"Count": defaultImageCount,
		"Title": content.Title,
		"Topic": item.Topic,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to render image brief template: %w", err)
	}

	model := g.cfg.Models["content"]
	apiKey := g.secrets.GetAPIKey(model.BaseURL)

	resp, err := g.apiClient.ChatCompletion(ctx, model, apiKey, []aiclient.Message{
		{Role: "user", Content: prompt},
	})
	if err != nil {
		return nil, err
	}

	jsonStr := util.SanitizeJSON(util.ExtractJSON(resp.Content()))

	var briefs []imageBrief
	if err := json.Unmarshal([]byte(jsonStr), &briefs); err != nil {
		return nil, fmt.Errorf("failed to parse image briefs: %w", err)
	}
	if len(briefs) == 0 {
		return nil, fmt.Errorf("content model returned no image briefs")
	}
	return briefs, nil
}

// imageGenRequest is an OpenAI-compatible images/generations request
type imageGenRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	N      int    `json:"n"`
	Size   string `json:"size"`
}

type imageGenResponse struct {
	Data []struct {
		URL string `json:"url"`
	} `json:"data"`
}

func (g *ImageAPIGenerator) renderImage(ctx context.Context, model config.ModelConfig, apiKey, prompt string) (string, error) {
	body, err := json.Marshal(imageGenRequest{
		Model:  model.ModelName,
		Prompt: prompt,
		N:      1,
		Size:   "1024x1024",
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	endpoint := model.BaseURL
	if endpoint[len(endpoint)-1] != '/' {
		endpoint += "/"
	}
	endpoint += "images/generations"

	req, err := http.NewRequestWithContext(ctx, "POST", endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+apiKey)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("image request failed: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			g.logger.Warn("Failed to close response body", "error", err)
		}
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("image generation failed with status %d: %s", resp.StatusCode, util.TruncateString(string(respBody), 200))
	}

	var parsed imageGenResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("failed to parse image response: %w", err)
	}
	if len(parsed.Data) == 0 || parsed.Data[0].URL == "" {
		return "", fmt.Errorf("image endpoint returned no url")
	}

	return parsed.Data[0].URL, nil
}
