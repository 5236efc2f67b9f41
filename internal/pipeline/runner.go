package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/halcyon-labs/pagesmith/internal/capability"
	"github.com/halcyon-labs/pagesmith/internal/checkpoint"
	"github.com/halcyon-labs/pagesmith/internal/metrics"
	"github.com/halcyon-labs/pagesmith/pkg/models"
)

// Runner drives one item through the stage registry: filtering applicable
// stages, executing groups sequentially or in parallel, checkpointing after
// every attempt, and isolating optional failures from required ones.
type Runner struct {
	registry *Registry
	store    *checkpoint.Store
	caps     *capability.Set
	site     *capability.Site
	logger   *slog.Logger
	metrics  *metrics.Collector
}

// Options control a single run. All fields are optional.
type Options struct {
	// Resume restores saved progress for this (campaign, item) pair
	// instead of starting fresh.
	Resume bool
	// Progress is invoked after every group with runnable stages and once
	// more on completion. It is always called from the run's goroutine.
	Progress func(models.PipelineProgress)
	// OnStatusChange fires when the coarse run status moves
	OnStatusChange func(models.RunStatus)
}

// NewRunner validates the registry up front so a malformed stage graph
// fails at startup, not mid-run.
func NewRunner(registry *Registry, store *checkpoint.Store, caps *capability.Set, site *capability.Site, logger *slog.Logger, collector *metrics.Collector) (*Runner, error) {
	if err := registry.Validate(); err != nil {
		return nil, fmt.Errorf("invalid stage registry: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		registry: registry,
		store:    store,
		caps:     caps,
		site:     site,
		logger:   logger,
		metrics:  collector,
	}, nil
}

// runState is the per-run bookkeeping threaded through group execution
type runState struct {
	pc        *models.PipelineContext
	completed map[string]bool
	skipped   map[string]bool // condition evaluated false
	results   map[string]models.StageResult
	createdAt time.Time
	total     int
	retries   int
}

type attemptResult struct {
	stage   Stage
	outcome StageOutcome
	summary string
	err     error
	elapsed time.Duration
}

type directive int

const (
	dirContinue directive = iota
	dirAbort
	dirRewind
)

// Run executes the pipeline for one source item. The returned context holds
// the final status and all phase results; the error is non-nil only for a
// required-stage failure or cancellation.
func (r *Runner) Run(ctx context.Context, campaign *models.Campaign, item models.SourceItem, opts Options) (*models.PipelineContext, error) {
	pc := models.NewPipelineContext(uuid.NewString(), campaign, item)
	st := &runState{
		pc:        pc,
		completed: make(map[string]bool),
		skipped:   make(map[string]bool),
		results:   make(map[string]models.StageResult),
		createdAt: time.Now(),
	}

	if opts.Resume {
		r.restore(st)
	}
	st.total = r.registry.ApplicableCount(pc, campaign)

	r.logger.Info("pipeline run starting",
		"run_id", pc.RunID,
		"campaign", campaign.ID,
		"item", item.ID,
		"resumed", opts.Resume && len(st.completed) > 0,
		"stages", st.total)

	for gi := 0; gi < len(r.registry.Groups); gi++ {
		// Cooperative cancellation: checked at group boundaries only, so
		// an in-flight group always finishes and checkpoints before exit.
		if err := ctx.Err(); err != nil {
			r.logger.Warn("pipeline run cancelled", "run_id", pc.RunID, "group", r.registry.Groups[gi].Label)
			return pc, err
		}

		group := r.registry.Groups[gi]
		runnable := r.collectRunnable(group, st)
		if len(runnable) == 0 {
			// Progress observers still get a snapshot per group so a bar
			// advances smoothly past skipped or already-completed groups.
			if len(group.Stages) > 0 {
				r.reportProgress(opts, st, group.Stages[len(group.Stages)-1].ID)
			}
			continue
		}

		if pc.Status != group.Status {
			pc.Status = group.Status
			if opts.OnStatusChange != nil {
				opts.OnStatusChange(group.Status)
			}
		}

		var results []attemptResult
		if group.Parallel && len(runnable) > 1 {
			results = r.runParallel(ctx, runnable, pc)
		} else {
			results = make([]attemptResult, 0, len(runnable))
			for _, stage := range runnable {
				results = append(results, r.attempt(ctx, stage, pc))
			}
		}

		rewound := false
		for _, res := range results {
			dir, err := r.handleResult(st, res)
			switch dir {
			case dirAbort:
				r.reportProgress(opts, st, res.stage.ID)
				if opts.OnStatusChange != nil {
					opts.OnStatusChange(models.StatusFailed)
				}
				return pc, err
			case dirRewind:
				gi = r.registry.GroupIndexOf(StageContent) - 1
				rewound = true
			}
		}
		if rewound {
			continue
		}

		r.reportProgress(opts, st, runnable[len(runnable)-1].ID)
	}

	pc.Status = models.StatusDone
	if err := r.store.Clear(campaign.ID, item.ID); err != nil {
		r.logger.Warn("checkpoint clear failed", "run_id", pc.RunID, "error", err)
	}
	if opts.OnStatusChange != nil {
		opts.OnStatusChange(models.StatusDone)
	}
	if opts.Progress != nil {
		opts.Progress(models.PipelineProgress{
			CompletedStages: len(st.completed),
			TotalStages:     st.total,
			Percentage:      100,
			Status:          models.StatusDone,
		})
	}
	r.logger.Info("pipeline run complete", "run_id", pc.RunID, "needs_review", pc.NeedsReview)
	return pc, nil
}

// restore loads saved progress for the run's (campaign, item) key. A
// missing, expired, or unreadable checkpoint simply starts the run fresh.
func (r *Runner) restore(st *runState) {
	cp, err := r.store.Load(st.pc.Campaign.ID, st.pc.Item.ID)
	if err != nil {
		r.logger.Warn("checkpoint load failed, starting fresh", "error", err)
		return
	}
	if cp == nil {
		return
	}
	st.pc.RunID = cp.RunID
	st.pc.ApplySlice(cp.Context)
	st.createdAt = cp.CreatedAt
	if cp.StageResults != nil {
		st.results = cp.StageResults
	}
	for _, id := range cp.CompletedStages {
		// Ids no longer in the registry are dropped on restore
		if r.registry.Has(id) {
			st.completed[id] = true
		}
	}
	r.logger.Info("checkpoint restored",
		"run_id", cp.RunID,
		"completed", len(st.completed),
		"age", time.Since(cp.UpdatedAt).Round(time.Second).String())
}

// collectRunnable filters a group down to the stages that should execute
// now. A dependency counts as satisfied when it completed, was skipped by
// its own condition, or is absent from the registry entirely.
func (r *Runner) collectRunnable(group StageGroup, st *runState) []Stage {
	var runnable []Stage
	for _, stage := range group.Stages {
		if st.completed[stage.ID] {
			continue
		}
		if stage.Condition != nil && !stage.Condition(st.pc, st.pc.Campaign) {
			st.skipped[stage.ID] = true
			r.logger.Debug("stage skipped", "stage", stage.ID, "reason", "condition")
			continue
		}
		delete(st.skipped, stage.ID)
		if !r.depsSatisfied(stage, st) {
			r.logger.Debug("stage skipped", "stage", stage.ID, "reason", "unmet dependency")
			continue
		}
		runnable = append(runnable, stage)
	}
	return runnable
}

func (r *Runner) depsSatisfied(stage Stage, st *runState) bool {
	for _, dep := range stage.DependsOn {
		if !r.registry.Has(dep) || st.completed[dep] || st.skipped[dep] {
			continue
		}
		return false
	}
	return true
}

func (r *Runner) runParallel(ctx context.Context, runnable []Stage, pc *models.PipelineContext) []attemptResult {
	results := make([]attemptResult, len(runnable))
	var wg sync.WaitGroup
	for i, stage := range runnable {
		wg.Add(1)
		go func(i int, stage Stage) {
			defer wg.Done()
			results[i] = r.attempt(ctx, stage, pc)
		}(i, stage)
	}
	wg.Wait()
	return results
}

// attempt runs one stage and classifies the outcome. Parallel safety rests
// on the slot-disjointness invariant validated at registry build time.
func (r *Runner) attempt(ctx context.Context, stage Stage, pc *models.PipelineContext) attemptResult {
	start := time.Now()
	summary, err := stage.Execute(ctx, pc, r.caps, r.site)
	res := attemptResult{
		stage:   stage,
		summary: summary,
		err:     err,
		elapsed: time.Since(start),
	}
	switch {
	case err == nil:
		res.outcome = OutcomeCompleted
	case errors.Is(err, capability.ErrRetryRequested):
		res.outcome = OutcomeRetryRequested
	case stage.Optional:
		res.outcome = OutcomeFailedOptional
	default:
		res.outcome = OutcomeFailedFatal
	}
	return res
}

// handleResult folds one attempt into the run state, checkpoints, and
// decides how the group loop proceeds.
func (r *Runner) handleResult(st *runState, res attemptResult) (directive, error) {
	id := res.stage.ID
	record := models.StageResult{
		StageID:  id,
		Success:  res.outcome == OutcomeCompleted,
		Duration: res.elapsed,
		Summary:  res.summary,
	}
	if res.err != nil {
		record.Error = res.err.Error()
	}
	st.results[id] = record
	if r.metrics != nil {
		r.metrics.ObserveStage(id, string(res.outcome), res.elapsed)
	}

	switch res.outcome {
	case OutcomeCompleted:
		st.completed[id] = true
		r.logger.Info("stage completed", "stage", id, "duration_ms", res.elapsed.Milliseconds(), "summary", res.summary)
		r.saveCheckpoint(st)
		return dirContinue, nil

	case OutcomeRetryRequested:
		// A retry is only honorable when the registry has an authoring
		// stage to rewind to; otherwise downgrade straight to a flag.
		if st.retries < st.pc.Campaign.MaxQualityRetries && r.registry.GroupIndexOf(StageContent) != -1 {
			st.retries++
			r.logger.Warn("quality gate requested regeneration",
				"stage", id,
				"attempt", st.retries,
				"budget", st.pc.Campaign.MaxQualityRetries)
			r.rewindAuthoring(st)
			r.saveCheckpoint(st)
			return dirRewind, nil
		}
		// Retry budget exhausted: downgrade to a review flag so the item
		// still publishes rather than looping forever.
		st.pc.NeedsReview = true
		if st.pc.Quality != nil {
			st.pc.Quality.Decision = models.DecisionFlag
		}
		st.completed[id] = true
		record.Success = true
		record.Error = ""
		record.Summary = "flagged for review after retry budget exhausted"
		st.results[id] = record
		r.logger.Warn("quality retry budget exhausted, flagging for review", "stage", id)
		r.saveCheckpoint(st)
		return dirContinue, nil

	case OutcomeFailedOptional:
		r.logger.Warn("optional stage failed, continuing", "stage", id, "error", res.err)
		r.saveCheckpoint(st)
		return dirContinue, nil

	default:
		stageErr := &StageError{StageID: id, Err: res.err}
		st.pc.Status = models.StatusFailed
		st.pc.RunError = stageErr.Error()
		r.logger.Error("required stage failed, aborting run", "stage", id, "error", res.err)
		r.saveCheckpoint(st)
		return dirAbort, stageErr
	}
}

// rewindAuthoring un-completes the content stage and everything downstream
// of it, clearing their context slots so the regenerated draft flows through
// each dependent again.
func (r *Runner) rewindAuthoring(st *runState) {
	slots := make(map[string][]string, len(r.registry.Stages()))
	for _, s := range r.registry.Stages() {
		slots[s.ID] = s.Slots
	}
	targets := append([]string{StageContent}, r.registry.Dependents(StageContent)...)
	for _, id := range targets {
		delete(st.completed, id)
		for _, slot := range slots[id] {
			st.pc.ClearSlot(slot)
		}
	}
	st.pc.NeedsReview = false
}

func (r *Runner) saveCheckpoint(st *runState) {
	cp := &models.Checkpoint{
		RunID:           st.pc.RunID,
		CampaignID:      st.pc.Campaign.ID,
		ItemID:          st.pc.Item.ID,
		CompletedStages: r.orderedCompleted(st),
		StageResults:    st.results,
		Context:         st.pc.Slice(),
		CreatedAt:       st.createdAt,
	}
	if err := r.store.Save(cp); err != nil {
		r.logger.Warn("checkpoint save failed", "run_id", st.pc.RunID, "error", err)
	}
	if r.metrics != nil {
		r.metrics.IncCheckpointSave()
	}
}

// orderedCompleted returns the completed set in registry order so
// checkpoint files stay stable and readable.
func (r *Runner) orderedCompleted(st *runState) []string {
	out := make([]string, 0, len(st.completed))
	for _, s := range r.registry.Stages() {
		if st.completed[s.ID] {
			out = append(out, s.ID)
		}
	}
	return out
}

func (r *Runner) reportProgress(opts Options, st *runState, current string) {
	if opts.Progress == nil {
		return
	}
	pct := float64(0)
	if st.total > 0 {
		pct = float64(len(st.completed)) / float64(st.total) * 100
	}
	opts.Progress(models.PipelineProgress{
		CurrentStage:    current,
		CompletedStages: len(st.completed),
		TotalStages:     st.total,
		Percentage:      pct,
		Status:          st.pc.Status,
	})
}
