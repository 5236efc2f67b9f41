package checkpoint

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/halcyon-labs/pagesmith/pkg/models"
)

// DefaultTTL is the soft TTL after which a checkpoint is treated as absent
const DefaultTTL = 24 * time.Hour

// Store is the storage-agnostic checkpoint subsystem. It enforces the soft
// TTL itself; the repository only holds bytes.
type Store struct {
	repo    Repository
	ttl     time.Duration
	logger  *slog.Logger
	enabled bool
	mu      sync.Mutex
}

// NewStore creates a checkpoint store over the given repository.
// A zero ttl selects DefaultTTL.
func NewStore(repo Repository, ttl time.Duration, enabled bool, logger *slog.Logger) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{
		repo:    repo,
		ttl:     ttl,
		logger:  logger.With("component", "checkpoint"),
		enabled: enabled,
	}
}

// Save persists the checkpoint, stamping UpdatedAt
func (s *Store) Save(cp *models.Checkpoint) error {
	if !s.enabled {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cp.UpdatedAt = time.Now()
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = cp.UpdatedAt
	}

	data, err := json.MarshalIndent(cp, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal checkpoint: %w", err)
	}

	key := Key{CampaignID: cp.CampaignID, ItemID: cp.ItemID}
	if err := s.repo.Set(key, data); err != nil {
		return err
	}

	s.logger.Debug("Checkpoint saved",
		"campaign_id", cp.CampaignID,
		"item_id", cp.ItemID,
		"completed_stages", len(cp.CompletedStages))
	return nil
}

// Load returns the checkpoint for the key, or nil when absent. A record
// older than the TTL is treated as absent and deleted as a side effect.
// A corrupt record is treated the same way.
func (s *Store) Load(campaignID, itemID string) (*models.Checkpoint, error) {
	if !s.enabled {
		return nil, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := Key{CampaignID: campaignID, ItemID: itemID}
	data, err := s.repo.Get(key)
	if err != nil {
		if err == ErrNotFound {
			return nil, nil
		}
		return nil, err
	}

	var cp models.Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		s.logger.Warn("Corrupt checkpoint discarded",
			"campaign_id", campaignID,
			"item_id", itemID,
			"error", err)
		if delErr := s.repo.Delete(key); delErr != nil {
			return nil, delErr
		}
		return nil, nil
	}

	if time.Since(cp.UpdatedAt) > s.ttl {
		s.logger.Info("Expired checkpoint discarded",
			"campaign_id", campaignID,
			"item_id", itemID,
			"age", time.Since(cp.UpdatedAt).Round(time.Minute))
		if delErr := s.repo.Delete(key); delErr != nil {
			return nil, delErr
		}
		return nil, nil
	}

	s.logger.Info("Checkpoint loaded",
		"campaign_id", campaignID,
		"item_id", itemID,
		"run_id", cp.RunID,
		"completed_stages", len(cp.CompletedStages))
	return &cp, nil
}

// Clear deletes the checkpoint for the key
func (s *Store) Clear(campaignID, itemID string) error {
	if !s.enabled {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.repo.Delete(Key{CampaignID: campaignID, ItemID: itemID})
}

// Has reports whether a live (non-expired) checkpoint exists for the key
func (s *Store) Has(campaignID, itemID string) bool {
	cp, err := s.Load(campaignID, itemID)
	return err == nil && cp != nil
}

// Info returns a summary of the checkpoint, or nil when absent or expired
func (s *Store) Info(campaignID, itemID string) (*models.CheckpointInfo, error) {
	cp, err := s.Load(campaignID, itemID)
	if err != nil || cp == nil {
		return nil, err
	}
	return &models.CheckpointInfo{
		RunID:           cp.RunID,
		CampaignID:      cp.CampaignID,
		ItemID:          cp.ItemID,
		CompletedStages: cp.CompletedStages,
		CreatedAt:       cp.CreatedAt,
		UpdatedAt:       cp.UpdatedAt,
		Age:             time.Since(cp.UpdatedAt).Round(time.Second).String(),
	}, nil
}

// List returns summaries for every live checkpoint, dropping expired
// records as it goes
func (s *Store) List() ([]models.CheckpointInfo, error) {
	keys, err := s.repo.List()
	if err != nil {
		return nil, err
	}

	var infos []models.CheckpointInfo
	for _, key := range keys {
		info, err := s.Info(key.CampaignID, key.ItemID)
		if err != nil {
			return nil, err
		}
		if info != nil {
			infos = append(infos, *info)
		}
	}
	return infos, nil
}

// Close closes the underlying repository
func (s *Store) Close() error {
	return s.repo.Close()
}
