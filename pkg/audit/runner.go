package audit

import (
	"context"
	"os"
	"strings"

	"golang.org/x/sync/errgroup"
)

// DisableEnvPrefix is the prefix of the per-check kill switch. Any non-empty
// value in MARSHALL_DISABLE_<NAME> (name upper-cased, dashes mapped to
// underscores) skips the check entirely: no goroutines, no report entry.
const DisableEnvPrefix = "MARSHALL_DISABLE_"

// Disabled reports whether the named check is disabled via environment.
func Disabled(name string) bool {
	key := DisableEnvPrefix + strings.ToUpper(strings.ReplaceAll(name, "-", "_"))
	return os.Getenv(key) != ""
}

// ProgressFunc observes each terminal (check, package) outcome as it lands.
type ProgressFunc func(m Marshall, pkg *Package, res Result)

// Runner fans out every enabled check against every requested package.
type Runner struct {
	marshalls   []Marshall
	concurrency int
}

// NewRunner returns a runner over the given checks.
func NewRunner(marshalls []Marshall) *Runner {
	return &Runner{
		marshalls:   marshalls,
		concurrency: 16,
	}
}

// Run schedules one unit of work per enabled (check, package) pair and
// returns once every unit has produced a terminal outcome. A failing unit is
// recorded as an error outcome and never prevents sibling units from
// completing; the errgroup is used for fan-in only. An empty package list
// yields an empty report without any network activity.
func (r *Runner) Run(ctx context.Context, packages []*Package, progress ProgressFunc) *Report {
	report := NewReport()

	if len(packages) == 0 {
		return report
	}

	g := new(errgroup.Group)
	g.SetLimit(r.concurrency)

	for _, m := range r.marshalls {
		if Disabled(m.Name()) {
			continue
		}

		for _, pkg := range packages {
			g.Go(func() error {
				res, err := m.Validate(ctx, pkg)
				if err != nil {
					res = Errorf("%s", err.Error())
				}

				report.record(m, pkg, res)
				if progress != nil {
					progress(m, pkg, res)
				}
				return nil
			})
		}
	}

	// Goroutines always return nil; Wait is purely a completion barrier.
	_ = g.Wait()

	return report
}
