package command

import (
	"io"

	"preflight/cli/debug"
	cliflags "preflight/cli/flags"
	"preflight/cli/streams"

	"github.com/spf13/cobra"
)

// Streams is an interface which exposes the standard input and output streams
type Streams interface {
	In() *streams.In
	Out() *streams.Out
	Err() *streams.Out
}

// Cli represents the preflight command line client.
type Cli interface {
	Streams
	SetIn(in *streams.In)
	Apply(ops ...CLIOption) error
	ClientOptions() *cliflags.ClientOptions
}

// PreflightCli is an instance of the preflight command line client.
// Instances of the client can be returned from NewPreflightCli.
type PreflightCli struct {
	in      *streams.In
	out     *streams.Out
	err     *streams.Out
	options *cliflags.ClientOptions
}

// NewPreflightCli returns a PreflightCli instance with all operators applied
// on it. It applies by default the standard streams.
func NewPreflightCli(ops ...CLIOption) (*PreflightCli, error) {
	defaultOps := []CLIOption{
		WithStandardStreams(),
	}
	ops = append(defaultOps, ops...)

	cli := &PreflightCli{}
	if err := cli.Apply(ops...); err != nil {
		return nil, err
	}
	return cli, nil
}

// Out returns the writer used for stdout
func (cli *PreflightCli) Out() *streams.Out {
	return cli.out
}

// Err returns the writer used for stderr
func (cli *PreflightCli) Err() *streams.Out {
	return cli.err
}

// SetIn sets the reader used for stdin
func (cli *PreflightCli) SetIn(in *streams.In) {
	cli.in = in
}

// In returns the reader used for stdin
func (cli *PreflightCli) In() *streams.In {
	return cli.in
}

// ClientOptions returns the options set during Initialize.
func (cli *PreflightCli) ClientOptions() *cliflags.ClientOptions {
	if cli.options == nil {
		cli.options = cliflags.NewClientOptions()
	}
	return cli.options
}

// ShowHelp shows the command help.
func ShowHelp(err io.Writer) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cmd.SetOut(err)
		cmd.HelpFunc()(cmd, args)
		return nil
	}
}

// Apply all the operation on the cli
func (cli *PreflightCli) Apply(ops ...CLIOption) error {
	for _, op := range ops {
		if err := op(cli); err != nil {
			return err
		}
	}
	return nil
}

// Initialize the PreflightCli runs initialization that must happen after
// command line flags are parsed.
func (cli *PreflightCli) Initialize(opts *cliflags.ClientOptions, ops ...CLIOption) error {
	for _, o := range ops {
		if err := o(cli); err != nil {
			return err
		}
	}
	cliflags.SetLogLevel(opts.LogLevel)

	if opts.Debug {
		debug.Enable()
	}

	cli.options = opts

	return nil
}
