package audit

import (
	"context"
	"os"
	"time"

	"preflight/cli/command"
	"preflight/cli/version"
	coreaudit "preflight/pkg/audit"
	"preflight/pkg/audit/marshalls"
	"preflight/pkg/progress"
	"preflight/pkg/registry"
	"preflight/pkg/throttle"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

type auditOptions struct {
	maxConcurrent int
	minDelay      int
	yes           bool
}

// NewAuditCommand returns the audit command, the thin glue around the audit
// pipeline: parse package arguments, run every enabled check, render the
// report, and ask for confirmation when blocking problems were found.
func NewAuditCommand(preflightCli command.Cli) *cobra.Command {
	var opts auditOptions

	cmd := &cobra.Command{
		Use:   "audit PACKAGE[@SPECIFIER] [PACKAGE[@SPECIFIER]...]",
		Short: "Audit packages against the registry before installing them",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAudit(cmd.Context(), preflightCli, opts, args)
		},
	}

	flags := cmd.Flags()
	flags.IntVar(&opts.maxConcurrent, "max-concurrent", throttle.DefaultMaxConcurrent, "Maximum concurrent outbound calls")
	flags.IntVar(&opts.minDelay, "min-delay", 0, "Minimum milliseconds between outbound calls")
	flags.BoolVarP(&opts.yes, "yes", "y", false, "Do not prompt on blocking problems")

	return cmd
}

func runAudit(ctx context.Context, preflightCli command.Cli, opts auditOptions, args []string) error {
	packages := make([]*coreaudit.Package, 0, len(args))
	for _, arg := range args {
		pkg, err := coreaudit.ParsePackage(arg)
		if err != nil {
			return err
		}
		packages = append(packages, pkg)
	}

	client, err := registry.New(registry.Options{
		Host:        preflightCli.ClientOptions().Registry,
		AuthToken:   os.Getenv("PREFLIGHT_TOKEN"),
		UserAgent:   "preflight/" + version.Version,
		Throttle:    throttle.New(opts.maxConcurrent, time.Duration(opts.minDelay)*time.Millisecond),
		Log:         preflightCli.Err(),
		LogColorize: preflightCli.Err().IsColorEnabled(),
	})
	if err != nil {
		return errors.Wrap(err, "failed to build registry client")
	}

	runner := coreaudit.NewRunner(marshalls.All(client, nil))

	p := &progress.Progress{
		ProgressColorEnabled:     preflightCli.Err().IsColorEnabled(),
		ProgressIndicatorEnabled: preflightCli.Err().IsTerminal(),
	}

	var report *coreaudit.Report
	_ = p.RunWithProgress("Auditing packages", func() error {
		report = runner.Run(ctx, packages, nil)
		return nil
	}, preflightCli.Err())

	renderReport(preflightCli, report)

	if !report.HasErrors() {
		return nil
	}

	if opts.yes {
		return nil
	}

	confirmed, err := command.PromptForConfirmation(ctx, preflightCli.In(), preflightCli.Out(),
		"The audit found blocking problems. Install anyway?")
	if err != nil {
		return err
	}
	if !confirmed {
		return errors.New("install aborted by audit")
	}

	return nil
}
