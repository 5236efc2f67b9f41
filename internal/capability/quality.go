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

// LLMQualityScorer runs the quality gate: it scores the article against the
// rubric (E-E-A-T categories plus readability and keyword coverage) and
// converts the average into an approve/flag/retry decision.
type LLMQualityScorer struct {
	cfg       *config.Config
	secrets   *config.Secrets
	apiClient *aiclient.Client
	logger    *slog.Logger
}

// NewLLMQualityScorer creates a new quality scorer
func NewLLMQualityScorer(cfg *config.Config, secrets *config.Secrets, apiClient *aiclient.Client, logger *slog.Logger) *LLMQualityScorer {
	return &LLMQualityScorer{
		cfg:       cfg,
		secrets:   secrets,
		apiClient: apiClient,
		logger:    logger.With("component", "quality_scorer"),
	}
}

// Score evaluates the article. A retry decision is surfaced as
// ErrRetryRequested so the runner can distinguish it from ordinary failure.
func (q *LLMQualityScorer) Score(ctx context.Context, campaign *models.Campaign, item models.SourceItem, content *models.ContentResult) (*models.QualityResult, error) {
	if content == nil {
		return nil, fmt.Errorf("no content to score")
	}

	ctx, cancel := context.WithTimeout(ctx, time.Duration(q.cfg.Timeouts.GenerationSeconds)*time.Second)
	defer cancel()

	prompt, err := util.RenderTemplate(q.cfg.PromptTemplates.QualityRubric, map[string]interface{}{
		"Title":    content.Title,
		"Keywords": strings.Join(item.Keywords, ", "),
		"Body":     content.Body,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to render quality rubric: %w", err)
	}

	model := q.cfg.Models["quality"]
	apiKey := q.secrets.GetAPIKey(model.BaseURL)

	messages := []aiclient.Message{}
	if q.cfg.PromptTemplates.QualitySystem != "" {
		messages = append(messages, aiclient.Message{
			Role:    "system",
			Content: q.cfg.PromptTemplates.QualitySystem,
		})
	}
	messages = append(messages, aiclient.Message{Role: "user", Content: prompt})

	resp, err := q.apiClient.ChatCompletion(ctx, model, apiKey, messages)
	if err != nil {
		return nil, err
	}

	raw := resp.Content()
	q.logger.Debug("Received quality response", "length", len(raw))

	scores, err := q.parseScores(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to parse quality response: %w", err)
	}

	total := averageScore(scores)
	result := &models.QualityResult{
		Scores: scores,
		Total:  total,
	}

	switch {
	case total >= campaign.QualityThreshold:
		result.Decision = models.DecisionApprove
	case total >= campaign.FlagThreshold:
		result.Decision = models.DecisionFlag
	default:
		result.Decision = models.DecisionRetry
	}

	q.logger.Info("Quality gate scored article",
		"total", fmt.Sprintf("%.2f", total),
		"decision", result.Decision,
		"criteria", len(scores))

	if result.Decision == models.DecisionRetry {
		// The result still goes into the context slot; the error carries
		// the signal the runner branches on.
		return result, fmt.Errorf("average score %.2f below flag threshold %.2f: %w",
			total, campaign.FlagThreshold, ErrRetryRequested)
	}

	return result, nil
}

func (q *LLMQualityScorer) parseScores(response string) (map[string]models.CriterionScore, error) {
	jsonStr := util.SanitizeJSON(util.ExtractJSON(response))

	var scores map[string]models.CriterionScore
	if err := json.Unmarshal([]byte(jsonStr), &scores); err != nil {
		q.logger.Error("Failed to unmarshal quality JSON",
			"error", err,
			"extracted_json", util.TruncateString(jsonStr, 200))
		return nil, fmt.Errorf("failed to unmarshal JSON: %w", err)
	}
	if len(scores) == 0 {
		return nil, fmt.Errorf("quality model returned no criteria")
	}

	// Accept any criteria the model returns, but bound the values
	for name, cs := range scores {
		if cs.Score < 1 || cs.Score > 5 {
			return nil, fmt.Errorf("criterion %q score %.1f out of range", name, cs.Score)
		}
	}

	return scores, nil
}

func averageScore(scores map[string]models.CriterionScore) float64 {
	if len(scores) == 0 {
		return 0
	}
	var sum float64
	for _, cs := range scores {
		sum += cs.Score
	}
	return sum / float64(len(scores))
}
