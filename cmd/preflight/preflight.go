package main

import (
	"fmt"
	"os"

	"preflight/cli/command"
	"preflight/cli/command/audit"
	"preflight/cli/version"

	"github.com/spf13/cobra"
)

func main() {
	preflightCli, err := command.NewPreflightCli()
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	cmd := newPreflightCommand(preflightCli)

	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(preflightCli.Err(), err)
		os.Exit(1)
	}
}

func newPreflightCommand(preflightCli *command.PreflightCli) *cobra.Command {
	opts := preflightCli.ClientOptions()

	cmd := &cobra.Command{
		Use:              "preflight [OPTIONS] COMMAND [ARG...]",
		Short:            "Audit packages for supply-chain risk before installing them",
		SilenceUsage:     true,
		SilenceErrors:    true,
		TraverseChildren: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return preflightCli.Initialize(opts)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return cmd.Help()
			}
			return fmt.Errorf("preflight: unknown command: preflight %s\n\nRun 'preflight --help' for more information on a command", args[0])
		},
		Version: version.Version,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd:   false,
			HiddenDefaultCmd:    true,
			DisableDescriptions: true,
		},
	}

	opts.InstallFlags(cmd.PersistentFlags())

	addCommands(cmd, preflightCli)

	return cmd
}

func addCommands(cmd *cobra.Command, preflightCli command.Cli) {
	cmd.AddCommand(audit.NewAuditCommand(preflightCli))
}
