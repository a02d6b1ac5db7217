package cli

import (
	"context"

	"github.com/alecthomas/kong"

	"github.com/ardnew/parley/cli/cmd"
	"github.com/ardnew/parley/cli/cmd/repl"
	"github.com/ardnew/parley/pkg"
)

// CLI is the top-level command-line interface for parley.
type CLI struct {
	Log   logConfig   `embed:"" group:"log"   prefix:"log-"`
	Pprof pprofConfig `embed:"" group:"pprof" prefix:"pprof-"`

	Source []string `help:"Template source file(s) or '-' for stdin" name:"source" short:"s"`

	Version kong.VersionFlag `help:"Print version and exit"`

	Check cmd.Check    `cmd:"" help:"Validate sources and list templates"`
	Repl  repl.Command `cmd:"" help:"Evaluate template calls interactively"`

	Render cmd.Render `cmd:"" default:"withargs" help:"Render a named template"`
}

// Run executes the parley CLI with the given context and arguments.
// The exit function is called with the appropriate exit code upon
// completion.
func Run(
	ctx context.Context,
	exit func(code int),
	args ...string,
) error {
	var cli CLI

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	parser, err := kong.New(&cli,
		kong.Name(pkg.Name),
		kong.Description(pkg.Description),
		kong.UsageOnError(),
		kong.Exit(exit),
		kong.ExplicitGroups(
			[]kong.Group{cli.Log.group(), cli.Pprof.group()},
		),
		kong.BindSingletonProvider(func() context.Context {
			return ctx
		}),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
			Summary: true,
		}),
		kong.Vars{"version": pkg.Version}.CloneWith(cli.Pprof.vars()),
	)
	if err != nil {
		return err
	}

	ktx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	// Stuff additional context values for use by commands.
	ctx = cmd.WithSources(ctx, cli.Source)

	cli.Log.start(ctx)

	defer cli.Pprof.start(ctx)()

	// Execute the selected command.
	return ktx.Run(ctx, &cli)
}
