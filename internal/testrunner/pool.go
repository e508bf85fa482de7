package testrunner

import (
	"runtime"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
)

// RunParallel dispatches independent test targets to a bounded worker pool,
// one worker per framework family, and merges the results after every group
// finishes. Each worker owns its own subprocess and output buffers; nothing
// mutable is shared. The pool is sized to available CPU parallelism.
//
// The controller loop itself stays sequential; this fork-join exists only
// inside a single step's test execution.
func (r *Runner) RunParallel(targets []string) *Result {
	groups := GroupByFamily(targets)
	if len(groups) <= 1 {
		return r.Run(targets, "")
	}

	// Stable group order so merged output is deterministic.
	families := make([]Family, 0, len(groups))
	for f := range groups {
		families = append(families, f)
	}
	sort.Slice(families, func(i, j int) bool { return families[i] < families[j] })

	results := make([]*Result, len(families))
	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))

	start := time.Now()
	for i, f := range families {
		i, f := i, f
		g.Go(func() error {
			name, args := f.Command(groups[f])
			results[i] = r.invoke(name, args, groups[f])
			return nil
		})
	}
	// Workers never return errors; failures live in their Results.
	_ = g.Wait()

	return mergeResults(results, time.Since(start))
}

// mergeResults combines per-group results into one. The merged exit code is
// zero only when every group exited zero; timeouts poison the merge.
func mergeResults(results []*Result, wall time.Duration) *Result {
	merged := &Result{Duration: wall}
	var stdout, stderr []string
	for _, res := range results {
		if res == nil {
			continue
		}
		if res.Stdout != "" {
			stdout = append(stdout, res.Stdout)
		}
		if res.Stderr != "" {
			stderr = append(stderr, res.Stderr)
		}
		if res.ExitCode != 0 && merged.ExitCode == 0 {
			merged.ExitCode = res.ExitCode
		}
		if res.TimedOut {
			merged.TimedOut = true
		}
		merged.TestsRun = append(merged.TestsRun, res.TestsRun...)
	}
	merged.Stdout = strings.Join(stdout, "\n")
	merged.Stderr = strings.Join(stderr, "\n")
	return merged
}
