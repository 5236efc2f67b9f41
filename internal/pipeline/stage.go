package pipeline

import (
	"context"
	"fmt"

	"github.com/halcyon-labs/pagesmith/internal/capability"
	"github.com/halcyon-labs/pagesmith/pkg/models"
)

// StageOutcome classifies the result of one stage attempt. The runner
// branches on this value; stage actions never drive control flow by
// error type alone.
type StageOutcome string

const (
	// OutcomeCompleted means the stage ran and succeeded
	OutcomeCompleted StageOutcome = "completed"
	// OutcomeSkippedByCondition means the stage's condition evaluated false
	OutcomeSkippedByCondition StageOutcome = "skipped_by_condition"
	// OutcomeSkippedDependency means a dependency was not satisfied
	OutcomeSkippedDependency StageOutcome = "skipped_dependency"
	// OutcomeFailedOptional means an optional stage failed; the run continues
	OutcomeFailedOptional StageOutcome = "failed_optional"
	// OutcomeFailedFatal means a required stage failed; the run aborts
	OutcomeFailedFatal StageOutcome = "failed_fatal"
	// OutcomeRetryRequested means the quality gate asked for content regeneration
	OutcomeRetryRequested StageOutcome = "retry_requested"
)

// Condition is a pure, side-effect-free predicate deciding stage
// applicability. A nil Condition means always applicable.
type Condition func(pc *models.PipelineContext, campaign *models.Campaign) bool

// Action executes a stage's work. It writes only to the context slots the
// stage declares in Slots and returns a short human-readable summary.
type Action func(ctx context.Context, pc *models.PipelineContext, caps *capability.Set, site *capability.Site) (string, error)

// Stage is a single named unit of pipeline work
type Stage struct {
	ID        string
	Label     string
	DependsOn []string
	Optional  bool
	Slots     []string // context slots this stage writes; checked for parallel disjointness
	Condition Condition
	Execute   Action
}

// StageGroup is an ordered bundle of stages sharing a dependency tier.
// When Parallel is true the members run as independent concurrent tasks
// and are joined at the group level before their results are merged.
type StageGroup struct {
	Label    string
	Status   models.RunStatus // coarse status reported while this group runs
	Parallel bool
	Stages   []Stage
}

// StageError wraps a stage failure as "<stage>: <message>"
type StageError struct {
	StageID string
	Err     error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.StageID, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}
