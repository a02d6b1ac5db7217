// Package cmd implements the parley subcommands: render, check, and the
// shared source-document loading they depend on.
package cmd
