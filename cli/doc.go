// Package cli wires the parley command-line interface: flag parsing via
// kong, early logger configuration, optional profiling, and dispatch to
// the subcommands in [github.com/ardnew/parley/cli/cmd].
//
// The core language implementation never depends on this package; hosts
// embedding the interpreter use [github.com/ardnew/parley/lang]
// directly.
package cli
