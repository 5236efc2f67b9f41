package pipeline

import "github.com/halcyon-labs/pagesmith/pkg/models"

// Stage ids used across the registry and the status table
const (
	StageDedup     = "dedup"
	StageResearch  = "research"
	StageContent   = "content"
	StageImages    = "images"
	StageAuthor    = "author_match"
	StageLinks     = "internal_links"
	StageSchema    = "schema"
	StageQuality   = "quality_gate"
	StagePublish   = "publish"
	StageRecord    = "record"
	StageMultiSite = "multi_site"
	StageSyndicate = "syndicate"
)

// statusForStage is the fixed, total mapping from stage id to the coarse
// status reported to callers. Consumers never need knowledge of individual
// stage identities; this table is the only place the mapping lives.
var statusForStage = map[string]models.RunStatus{
	StageDedup:     models.StatusPending,
	StageResearch:  models.StatusResearching,
	StageContent:   models.StatusGenerating,
	StageImages:    models.StatusImaging,
	StageAuthor:    models.StatusImaging,
	StageLinks:     models.StatusLinking,
	StageSchema:    models.StatusLinking,
	StageQuality:   models.StatusGenerating,
	StagePublish:   models.StatusPublishing,
	StageRecord:    models.StatusPublishing,
	StageMultiSite: models.StatusPublishing,
	StageSyndicate: models.StatusPublishing,
}

// StatusForStage returns the coarse status for a stage id, falling back to
// pending for unknown ids so the mapping is total.
func StatusForStage(id string) models.RunStatus {
	if status, ok := statusForStage[id]; ok {
		return status
	}
	return models.StatusPending
}
