package capability

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/halcyon-labs/pagesmith/internal/util"
	"github.com/halcyon-labs/pagesmith/pkg/models"
)

const publishedIndexFilename = "published_index.json"

// publishedEntry is one recorded publication
type publishedEntry struct {
	CampaignID  string    `json:"campaign_id"`
	ItemID      string    `json:"item_id"`
	TopicSlug   string    `json:"topic_slug"`
	PostID      int       `json:"post_id"`
	URL         string    `json:"url"`
	PublishedAt time.Time `json:"published_at"`
}

// PublishedIndex is a file-backed index of topics already published.
// It serves both the dedup check at the start of a run and the record
// stage at the end.
type PublishedIndex struct {
	path    string
	logger  *slog.Logger
	mu      sync.Mutex
	entries []publishedEntry
	loaded  bool
}

// NewPublishedIndex creates an index stored alongside the checkpoint data
func NewPublishedIndex(dir string, logger *slog.Logger) *PublishedIndex {
	return &PublishedIndex{
		path:   filepath.Join(dir, publishedIndexFilename),
		logger: logger.With("component", "published_index"),
	}
}

func (p *PublishedIndex) load() error {
	if p.loaded {
		return nil
	}
	data, err := os.ReadFile(p.path)
	if err != nil {
		if os.IsNotExist(err) {
			p.loaded = true
			return nil
		}
		return fmt.Errorf("failed to read published index: %w", err)
	}
	if err := json.Unmarshal(data, &p.entries); err != nil {
		return fmt.Errorf("failed to parse published index: %w", err)
	}
	p.loaded = true
	return nil
}

// IsDuplicate reports whether the item's topic slug was already published
// for this campaign
func (p *PublishedIndex) IsDuplicate(ctx context.Context, campaign *models.Campaign, item models.SourceItem) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.load(); err != nil {
		return false, err
	}

	slug := util.Slugify(item.Topic)
	for _, e := range p.entries {
		if e.CampaignID == campaign.ID && e.TopicSlug == slug {
			p.logger.Info("Duplicate topic found",
				"topic", item.Topic,
				"existing_post_id", e.PostID)
			return true, nil
		}
	}
	return false, nil
}

// Record appends the published item to the index (atomic tmp+rename write)
func (p *PublishedIndex) Record(ctx context.Context, campaign *models.Campaign, item models.SourceItem, publish *models.PublishResult) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.load(); err != nil {
		return err
	}

	entry := publishedEntry{
		CampaignID:  campaign.ID,
		ItemID:      item.ID,
		TopicSlug:   util.Slugify(item.Topic),
		PublishedAt: time.Now(),
	}
	if publish != nil {
		entry.PostID = publish.PostID
		entry.URL = publish.URL
	}
	p.entries = append(p.entries, entry)

	data, err := json.MarshalIndent(p.entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal published index: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(p.path), 0755); err != nil {
		return fmt.Errorf("failed to create index directory: %w", err)
	}
	tempPath := p.path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write published index: %w", err)
	}
	if err := os.Rename(tempPath, p.path); err != nil {
		return fmt.Errorf("failed to rename published index: %w", err)
	}

	p.logger.Info("Recorded published item", "item_id", item.ID, "post_id", entry.PostID)
	return nil
}
