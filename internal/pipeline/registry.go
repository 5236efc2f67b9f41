package pipeline

import (
	"fmt"

	"github.com/halcyon-labs/pagesmith/pkg/models"
)

// Registry is the static, ordered list of stage groups defining the whole
// workflow. It is built once at startup and validated before any run.
type Registry struct {
	Groups []StageGroup
}

// Stages returns the flattened stage list in registry order
func (r *Registry) Stages() []Stage {
	var stages []Stage
	for _, group := range r.Groups {
		stages = append(stages, group.Stages...)
	}
	return stages
}

// Has reports whether a stage id exists in the registry
func (r *Registry) Has(id string) bool {
	for _, s := range r.Stages() {
		if s.ID == id {
			return true
		}
	}
	return false
}

// GroupIndexOf returns the index of the group containing the stage id,
// or -1 when absent
func (r *Registry) GroupIndexOf(id string) int {
	for i, group := range r.Groups {
		for _, s := range group.Stages {
			if s.ID == id {
				return i
			}
		}
	}
	return -1
}

// Dependents returns the ids of every stage whose dependency chain
// (transitively) includes the given stage
func (r *Registry) Dependents(id string) []string {
	stages := r.Stages()
	affected := map[string]bool{id: true}

	// One forward pass suffices: dependencies always precede dependents
	// in registry order.
	var out []string
	for _, s := range stages {
		for _, dep := range s.DependsOn {
			if affected[dep] && !affected[s.ID] {
				affected[s.ID] = true
				out = append(out, s.ID)
				break
			}
		}
	}
	return out
}

// Validate enforces the registry's structural invariants: unique stage ids,
// dependencies that precede their dependents (an id absent from the registry
// is vacuously satisfied), acyclicity over declared dependency edges, and
// disjoint slot ownership within every parallel group.
func (r *Registry) Validate() error {
	seen := make(map[string]bool)
	for _, group := range r.Groups {
		for _, s := range group.Stages {
			if s.ID == "" {
				return fmt.Errorf("group %q contains a stage with an empty id", group.Label)
			}
			if seen[s.ID] {
				return fmt.Errorf("duplicate stage id %q", s.ID)
			}
			if s.Execute == nil {
				return fmt.Errorf("stage %q has no action", s.ID)
			}
			if _, ok := statusForStage[s.ID]; !ok {
				return fmt.Errorf("stage %q has no status mapping", s.ID)
			}
			seen[s.ID] = true
		}
	}

	// Dependencies must precede their dependents in registry order
	defined := make(map[string]bool)
	for _, group := range r.Groups {
		// Within a parallel group, members run concurrently and cannot
		// depend on one another; within a sequential group, array order
		// is execution order, so a preceding member is a valid dependency.
		groupDefined := make(map[string]bool)
		for _, s := range group.Stages {
			for _, dep := range s.DependsOn {
				if !seen[dep] {
					continue // absent from the registry: vacuously satisfied
				}
				if defined[dep] {
					continue
				}
				if !group.Parallel && groupDefined[dep] {
					continue
				}
				return fmt.Errorf("stage %q depends on %q, which does not precede it in registry order", s.ID, dep)
			}
			groupDefined[s.ID] = true
		}
		for id := range groupDefined {
			defined[id] = true
		}
	}

	if err := r.checkAcyclic(); err != nil {
		return err
	}

	// Parallel groups: members must write mutually disjoint context slots
	for _, group := range r.Groups {
		if !group.Parallel {
			continue
		}
		owner := make(map[string]string)
		for _, s := range group.Stages {
			for _, slot := range s.Slots {
				if prev, taken := owner[slot]; taken {
					return fmt.Errorf("parallel group %q: stages %q and %q both write slot %q", group.Label, prev, s.ID, slot)
				}
				owner[slot] = s.ID
			}
		}
	}

	return nil
}

// checkAcyclic runs a depth-first search over declared dependency edges.
// Registry order already prevents cycles among well-ordered stages; this
// is the explicit graph check guarding against future registry edits.
func (r *Registry) checkAcyclic() error {
	deps := make(map[string][]string)
	for _, s := range r.Stages() {
		deps[s.ID] = s.DependsOn
	}

	const (
		unvisited = 0
		visiting  = 1
		done      = 2
	)
	state := make(map[string]int)

	var visit func(id string) error
	visit = func(id string) error {
		switch state[id] {
		case visiting:
			return fmt.Errorf("dependency cycle involving stage %q", id)
		case done:
			return nil
		}
		state[id] = visiting
		for _, dep := range deps[id] {
			if _, exists := deps[dep]; !exists {
				continue
			}
			if err := visit(dep); err != nil {
				return err
			}
		}
		state[id] = done
		return nil
	}

	for id := range deps {
		if err := visit(id); err != nil {
			return err
		}
	}
	return nil
}

// ApplicableCount returns how many stages have a true condition for this
// run. Used as the denominator for progress percentages.
func (r *Registry) ApplicableCount(pc *models.PipelineContext, campaign *models.Campaign) int {
	count := 0
	for _, s := range r.Stages() {
		if s.Condition == nil || s.Condition(pc, campaign) {
			count++
		}
	}
	return count
}
