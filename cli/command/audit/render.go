package audit

import (
	"fmt"
	"sort"

	"preflight/cli/command"
	coreaudit "preflight/pkg/audit"

	"github.com/fvbommel/sortorder"
	"github.com/morikuni/aec"
)

// renderReport prints the per-check outcomes grouped by category, checks in
// natural name order inside each group.
func renderReport(preflightCli command.Cli, report *coreaudit.Report) {
	checks := report.Checks()

	names := make([]string, 0, len(checks))
	for name := range checks {
		names = append(names, name)
	}
	sort.Sort(sortorder.Natural(names))

	out := preflightCli.Out()

	for _, category := range []coreaudit.Category{
		coreaudit.CategorySupplyChainSecurity,
		coreaudit.CategoryPackageHealth,
	} {
		header := false

		for _, name := range names {
			summary := checks[name]
			if summary.Category != category {
				continue
			}

			if !header {
				out.With(aec.Bold).Println(string(category))
				header = true
			}

			switch summary.Status {
			case coreaudit.StatusError:
				out.With(aec.RedF).Printf("  ✖ %s\n", summary.Title)
			case coreaudit.StatusWarning:
				out.With(aec.YellowF).Printf("  ⚠ %s\n", summary.Title)
			default:
				out.With(aec.GreenF).Printf("  ✔ %s\n", summary.Title)
			}

			for _, msg := range summary.Errors {
				fmt.Fprintf(out, "      %s: %s\n", msg.Package, msg.Message)
			}
			for _, msg := range summary.Warnings {
				fmt.Fprintf(out, "      %s: %s\n", msg.Package, msg.Message)
			}
		}

		if header {
			fmt.Fprintln(out)
		}
	}
}
