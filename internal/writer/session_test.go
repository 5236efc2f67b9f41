package writer

import (
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/halcyon-labs/pagesmith/pkg/models"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewSessionCreatesRunDirectory(t *testing.T) {
	runDir := t.TempDir()

	session, err := NewSession(testLogger(), runDir, "")
	if err != nil {
		t.Fatalf("Failed to create session: %v", err)
	}

	info, err := os.Stat(session.Dir())
	if err != nil {
		t.Fatalf("Session directory does not exist: %v", err)
	}
	if !info.IsDir() {
		t.Error("Expected session path to be a directory")
	}
	if !strings.HasPrefix(filepath.Base(session.Dir()), "run_") {
		t.Errorf("Expected run_ prefix on directory name, got %q", filepath.Base(session.Dir()))
	}
}

func TestNewSessionResumeMissingDirectory(t *testing.T) {
	_, err := NewSession(testLogger(), t.TempDir(), "run_2026-01-01T00-00-00")
	if err == nil {
		t.Fatal("Expected error when resuming a missing run directory")
	}
}

func TestBackupConfig(t *testing.T) {
	runDir := t.TempDir()
	configPath := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(configPath, []byte("[pipeline]\nrun_dir = \"runs\"\n"), 0644); err != nil {
		t.Fatal(err)
	}

	session, err := NewSession(testLogger(), runDir, "")
	if err != nil {
		t.Fatal(err)
	}
	if err := session.BackupConfig(configPath); err != nil {
		t.Fatalf("Failed to back up config: %v", err)
	}

	data, err := os.ReadFile(session.ConfigBackupPath())
	if err != nil {
		t.Fatalf("Backup not written: %v", err)
	}
	if !strings.Contains(string(data), "run_dir") {
		t.Error("Backup does not contain original config content")
	}
}

func TestWriteArticle(t *testing.T) {
	session, err := NewSession(testLogger(), t.TempDir(), "")
	if err != nil {
		t.Fatal(err)
	}

	pc := models.NewPipelineContext("run-1",
		&models.Campaign{ID: "spring-launch"},
		models.SourceItem{ID: "item-1", Topic: "Raised Bed Gardening"},
	)
	pc.Status = models.StatusDone
	pc.Content = &models.ContentResult{
		Title: "Raised Bed Gardening for Beginners",
		Slug:  "raised-bed-gardening",
		Body:  "## Getting Started\n\nPick a sunny spot.",
	}
	pc.Publish = &models.PublishResult{PostID: 42, URL: "https://example.com/raised-bed-gardening"}
	pc.NeedsReview = true

	path, err := session.WriteArticle(pc)
	if err != nil {
		t.Fatalf("Failed to write article: %v", err)
	}
	if filepath.Base(path) != "raised-bed-gardening.md" {
		t.Errorf("Expected slug-based filename, got %q", filepath.Base(path))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	content := string(data)
	for _, want := range []string{
		`title: "Raised Bed Gardening for Beginners"`,
		"campaign: spring-launch",
		"post_id: 42",
		"needs_review: true",
		"## Getting Started",
	} {
		if !strings.Contains(content, want) {
			t.Errorf("Article missing %q:\n%s", want, content)
		}
	}
}

func TestWriteArticleNoContent(t *testing.T) {
	session, err := NewSession(testLogger(), t.TempDir(), "")
	if err != nil {
		t.Fatal(err)
	}

	pc := models.NewPipelineContext("run-1", &models.Campaign{ID: "c"}, models.SourceItem{ID: "item-1"})
	if _, err := session.WriteArticle(pc); err == nil {
		t.Fatal("Expected error when no content was generated")
	}
}

func TestWriteSummary(t *testing.T) {
	session, err := NewSession(testLogger(), t.TempDir(), "")
	if err != nil {
		t.Fatal(err)
	}

	done := models.NewPipelineContext("run-1", &models.Campaign{ID: "c"}, models.SourceItem{ID: "item-1"})
	done.Status = models.StatusDone
	done.Publish = &models.PublishResult{PostID: 7, URL: "https://example.com/p"}

	failed := models.NewPipelineContext("run-1", &models.Campaign{ID: "c"}, models.SourceItem{ID: "item-2"})
	failed.Status = models.StatusFailed
	failed.RunError = "publish: connection refused"

	path, err := session.WriteSummary([]*models.PipelineContext{done, failed})
	if err != nil {
		t.Fatalf("Failed to write summary: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	var summary struct {
		Items []struct {
			ItemID  string           `json:"item_id"`
			Status  models.RunStatus `json:"status"`
			Error   string           `json:"error"`
			PostID  int              `json:"post_id"`
			PostURL string           `json:"post_url"`
		} `json:"items"`
	}
	if err := json.Unmarshal(data, &summary); err != nil {
		t.Fatalf("Summary is not valid JSON: %v", err)
	}
	if len(summary.Items) != 2 {
		t.Fatalf("Expected 2 items, got %d", len(summary.Items))
	}
	if summary.Items[0].PostID != 7 || summary.Items[0].PostURL != "https://example.com/p" {
		t.Errorf("Publish details not recorded: %+v", summary.Items[0])
	}
	if summary.Items[1].Status != models.StatusFailed || summary.Items[1].Error == "" {
		t.Errorf("Failure details not recorded: %+v", summary.Items[1])
	}
}
