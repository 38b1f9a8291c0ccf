package analyzer

import (
	"context"
	"fmt"
)

// Catalogue lists every analyzer task in the order the "run all" admin
// command executes them (§4.5, §6).
func Catalogue() []Task {
	return []Task{
		SimpleLinkStatistics{},
		LinkReliabilityStatistics{},
		LinkImprovementAnalysis{},
		SimpleServiceUsage{},
		ServiceStatistics{},
		TopologyCentrality{},
		PathSplitRecommendations{},
	}
}

// ByName resolves one task by its report type name, used by the admin
// endpoint's GET /run/<task>.
func ByName(name string) (Task, bool) {
	for _, t := range Catalogue() {
		if t.Name() == name {
			return t, true
		}
	}
	return nil, false
}

// RunByName resolves a task by name and runs it, for the admin
// endpoint's GET /run/<task>.
func (r *Runner) RunByName(ctx context.Context, name string) error {
	task, ok := ByName(name)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTask, name)
	}
	_, err := r.Run(ctx, task)
	return err
}

// RunAll runs every catalogued task and returns one error per task that
// failed (nil entries are omitted), for the admin endpoint's GET /run.
func (r *Runner) RunAll(ctx context.Context) []error {
	var errs []error
	for _, task := range Catalogue() {
		if _, err := r.Run(ctx, task); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}
