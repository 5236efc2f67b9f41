package writer

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/halcyon-labs/pagesmith/internal/util"
	"github.com/halcyon-labs/pagesmith/pkg/models"
)

// Session owns the on-disk directory for one pipeline invocation: the run
// log, a backup of the config that produced it, and per-item article
// exports for auditing what was sent to WordPress.
type Session struct {
	dir    string
	logger *slog.Logger
}

// NewSession creates (or, when resumeFrom names an existing run directory,
// reopens) the session directory under runDir.
func NewSession(logger *slog.Logger, runDir, resumeFrom string) (*Session, error) {
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create run directory: %w", err)
	}

	var dir string
	if resumeFrom != "" {
		dir = filepath.Join(runDir, resumeFrom)
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			return nil, fmt.Errorf("run directory not found: %s", dir)
		}
		logger.Info("Reusing existing run directory", "path", dir)
	} else {
		timestamp := time.Now().Format("2006-01-02T15-04-05")
		dir = filepath.Join(runDir, "run_"+timestamp)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create run directory: %w", err)
		}
		logger.Info("Created run directory", "path", dir)
	}

	return &Session{dir: dir, logger: logger}, nil
}

// Dir returns the session directory path
func (s *Session) Dir() string {
	return s.dir
}

// LogPath returns the full path to the run log file
func (s *Session) LogPath() string {
	return filepath.Join(s.dir, "run.log")
}

// ConfigBackupPath returns the full path to the config backup
func (s *Session) ConfigBackupPath() string {
	return filepath.Join(s.dir, "config.toml.bak")
}

// BackupConfig copies the config file into the session directory so a run
// can always be traced back to the exact settings that produced it.
func (s *Session) BackupConfig(configPath string) error {
	source, err := os.ReadFile(configPath)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	backupPath := s.ConfigBackupPath()
	if err := os.WriteFile(backupPath, source, 0644); err != nil {
		return fmt.Errorf("failed to write config backup: %w", err)
	}

	s.logger.Info("Backed up config file", "path", backupPath)
	return nil
}

// WriteArticle exports the generated article as markdown with a small
// front-matter block. Returns the written path.
func (s *Session) WriteArticle(pc *models.PipelineContext) (string, error) {
	if pc.Content == nil {
		return "", fmt.Errorf("no content generated for item %s", pc.Item.ID)
	}

	articleDir := filepath.Join(s.dir, "articles")
	if err := os.MkdirAll(articleDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create articles directory: %w", err)
	}

	slug := pc.Content.Slug
	if slug == "" {
		slug = util.Slugify(pc.Item.Topic)
	}

	var front string
	front += "---\n"
	front += fmt.Sprintf("title: %q\n", pc.Content.Title)
	front += fmt.Sprintf("slug: %s\n", slug)
	front += fmt.Sprintf("campaign: %s\n", pc.Campaign.ID)
	front += fmt.Sprintf("status: %s\n", pc.Status)
	if pc.Publish != nil {
		front += fmt.Sprintf("post_id: %d\n", pc.Publish.PostID)
		front += fmt.Sprintf("post_url: %s\n", pc.Publish.URL)
	}
	if pc.NeedsReview {
		front += "needs_review: true\n"
	}
	front += "---\n\n"

	path := filepath.Join(articleDir, slug+".md")
	if err := os.WriteFile(path, []byte(front+pc.Content.Body+"\n"), 0644); err != nil {
		return "", fmt.Errorf("failed to write article: %w", err)
	}
	return path, nil
}

// runSummary is the JSON shape of the per-run summary file
type runSummary struct {
	GeneratedAt time.Time     `json:"generated_at"`
	Items       []itemSummary `json:"items"`
}

type itemSummary struct {
	ItemID      string           `json:"item_id"`
	CampaignID  string           `json:"campaign_id"`
	Status      models.RunStatus `json:"status"`
	Error       string           `json:"error,omitempty"`
	PostID      int              `json:"post_id,omitempty"`
	PostURL     string           `json:"post_url,omitempty"`
	NeedsReview bool             `json:"needs_review,omitempty"`
	Duration    string           `json:"duration"`
}

// WriteSummary records the outcome of every processed item in summary.json
func (s *Session) WriteSummary(contexts []*models.PipelineContext) (string, error) {
	summary := runSummary{GeneratedAt: time.Now()}
	for _, pc := range contexts {
		item := itemSummary{
			ItemID:      pc.Item.ID,
			CampaignID:  pc.Campaign.ID,
			Status:      pc.Status,
			Error:       pc.RunError,
			NeedsReview: pc.NeedsReview,
			Duration:    time.Since(pc.StartedAt).Round(time.Millisecond).String(),
		}
		if pc.Publish != nil {
			item.PostID = pc.Publish.PostID
			item.PostURL = pc.Publish.URL
		}
		summary.Items = append(summary.Items, item)
	}

	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal summary: %w", err)
	}

	path := filepath.Join(s.dir, "summary.json")
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return "", fmt.Errorf("failed to write summary: %w", err)
	}
	return path, nil
}
