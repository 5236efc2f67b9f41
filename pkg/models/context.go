package models

import "time"

// RunStatus is the coarse pipeline status reported to callers.
// done and failed are terminal.
type RunStatus string

const (
	StatusPending     RunStatus = "pending"
	StatusResearching RunStatus = "researching"
	StatusGenerating  RunStatus = "generating"
	StatusImaging     RunStatus = "imaging"
	StatusLinking     RunStatus = "linking"
	StatusPublishing  RunStatus = "publishing"
	StatusDone        RunStatus = "done"
	StatusFailed      RunStatus = "failed"
)

// Context slot names. Each stage writes only to the slot(s) it owns;
// parallel stages must own disjoint slots.
const (
	SlotDedup        = "dedup"
	SlotResearch     = "research"
	SlotContent      = "content"
	SlotImages       = "images"
	SlotLinks        = "links"
	SlotSchema       = "schema"
	SlotAuthor       = "author"
	SlotQuality      = "quality"
	SlotPublish      = "publish"
	SlotDistribution = "distribution"
)

// PipelineContext is the mutable, run-scoped accumulator threaded through
// all stages. It is owned exclusively by its run and never shared across
// concurrent runs.
type PipelineContext struct {
	RunID    string     `json:"run_id"`
	Campaign *Campaign  `json:"campaign"`
	Item     SourceItem `json:"item"`

	Status   RunStatus `json:"status"`
	RunError string    `json:"run_error,omitempty"`

	// Per-phase result slots. A nil pointer means the phase has not run.
	Duplicate    bool                `json:"duplicate"`
	Research     *ResearchResult     `json:"research,omitempty"`
	Content      *ContentResult      `json:"content,omitempty"`
	Images       *ImageSet           `json:"images,omitempty"`
	Links        *LinkResult         `json:"links,omitempty"`
	Schema       *SchemaResult       `json:"schema,omitempty"`
	Author       *AuthorMatch        `json:"author,omitempty"`
	Quality      *QualityResult      `json:"quality,omitempty"`
	Publish      *PublishResult      `json:"publish,omitempty"`
	Distribution *DistributionResult `json:"distribution,omitempty"`

	// NeedsReview routes the published post to manual review downstream
	NeedsReview bool `json:"needs_review"`

	StartedAt time.Time `json:"started_at"`
}

// NewPipelineContext creates the accumulator for a single run
func NewPipelineContext(runID string, campaign *Campaign, item SourceItem) *PipelineContext {
	return &PipelineContext{
		RunID:     runID,
		Campaign:  campaign,
		Item:      item,
		Status:    StatusPending,
		StartedAt: time.Now(),
	}
}

// ContextSlice is the serializable subset of PipelineContext persisted
// inside a checkpoint. The campaign snapshot is not persisted; a resumed
// run supplies its own (validated against campaign id in the checkpoint).
type ContextSlice struct {
	Duplicate    bool                `json:"duplicate"`
	Research     *ResearchResult     `json:"research,omitempty"`
	Content      *ContentResult      `json:"content,omitempty"`
	Images       *ImageSet           `json:"images,omitempty"`
	Links        *LinkResult         `json:"links,omitempty"`
	Schema       *SchemaResult       `json:"schema,omitempty"`
	Author       *AuthorMatch        `json:"author,omitempty"`
	Quality      *QualityResult      `json:"quality,omitempty"`
	Publish      *PublishResult      `json:"publish,omitempty"`
	Distribution *DistributionResult `json:"distribution,omitempty"`
	NeedsReview  bool                `json:"needs_review"`
}

// Slice extracts the persistable phase slots
func (pc *PipelineContext) Slice() ContextSlice {
	return ContextSlice{
		Duplicate:    pc.Duplicate,
		Research:     pc.Research,
		Content:      pc.Content,
		Images:       pc.Images,
		Links:        pc.Links,
		Schema:       pc.Schema,
		Author:       pc.Author,
		Quality:      pc.Quality,
		Publish:      pc.Publish,
		Distribution: pc.Distribution,
		NeedsReview:  pc.NeedsReview,
	}
}

// ApplySlice restores persisted phase slots into a fresh context
func (pc *PipelineContext) ApplySlice(s ContextSlice) {
	pc.Duplicate = s.Duplicate
	pc.Research = s.Research
	pc.Content = s.Content
	pc.Images = s.Images
	pc.Links = s.Links
	pc.Schema = s.Schema
	pc.Author = s.Author
	pc.Quality = s.Quality
	pc.Publish = s.Publish
	pc.Distribution = s.Distribution
	pc.NeedsReview = s.NeedsReview
}

// ClearSlot resets a named slot to its zero state. Used when a quality-gate
// retry re-runs authoring and its dependents.
func (pc *PipelineContext) ClearSlot(slot string) {
	switch slot {
	case SlotDedup:
		pc.Duplicate = false
	case SlotResearch:
		pc.Research = nil
	case SlotContent:
		pc.Content = nil
	case SlotImages:
		pc.Images = nil
	case SlotLinks:
		pc.Links = nil
	case SlotSchema:
		pc.Schema = nil
	case SlotAuthor:
		pc.Author = nil
	case SlotQuality:
		pc.Quality = nil
	case SlotPublish:
		pc.Publish = nil
	case SlotDistribution:
		pc.Distribution = nil
	}
}

// StageResult records one stage attempt
type StageResult struct {
	StageID  string        `json:"stage_id"`
	Success  bool          `json:"success"`
	Duration time.Duration `json:"duration"`
	Error    string        `json:"error,omitempty"`
	Summary  string        `json:"summary,omitempty"`
}

// PipelineProgress is the push-reported progress shape
type PipelineProgress struct {
	CurrentStage    string    `json:"current_stage"`
	CompletedStages int       `json:"completed_stages"`
	TotalStages     int       `json:"total_stages"`
	Percentage      float64   `json:"percentage"`
	Status          RunStatus `json:"status"`
}
