package models

import "time"

// Checkpoint is the persisted snapshot of run progress, keyed by
// (campaign id, item id). The completed-stage list only grows within a run.
type Checkpoint struct {
	RunID      string `json:"run_id"`
	CampaignID string `json:"campaign_id"`
	ItemID     string `json:"item_id"`

	CompletedStages []string               `json:"completed_stages"`
	StageResults    map[string]StageResult `json:"stage_results"`
	Context         ContextSlice           `json:"context"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Completed reports whether the given stage id is in the completed set
func (cp *Checkpoint) Completed(stageID string) bool {
	for _, id := range cp.CompletedStages {
		if id == stageID {
			return true
		}
	}
	return false
}

// CheckpointInfo is the summary shape returned by checkpoint inspection
type CheckpointInfo struct {
	RunID           string    `json:"run_id"`
	CampaignID      string    `json:"campaign_id"`
	ItemID          string    `json:"item_id"`
	CompletedStages []string  `json:"completed_stages"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
	Age             string    `json:"age"`
}
