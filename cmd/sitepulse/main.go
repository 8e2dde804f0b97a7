// Package main is the entry point for the sitepulse CLI.
//
// Usage:
//
//	sitepulse check example.com https://go.dev   # Check URLs given as arguments
//	sitepulse check -f urls.txt -w results.csv   # Check a file, export results
//	sitepulse check -c sitepulse.yaml            # Check everything a config lists
//	sitepulse validate -c sitepulse.yaml         # Validate configuration
//	sitepulse version                            # Show version info
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// Version information - set by GoReleaser at build time via ldflags.
// Example: go build -ldflags "-X main.version=1.0.0"
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// exitInterrupted is the conventional exit status after SIGINT.
const exitInterrupted = 130

// errInterrupted is returned by commands cut short by a signal. It is
// reported with the interrupt exit status rather than as a failure.
var errInterrupted = errors.New("interrupted")

// newRootCmd builds the command tree. A fresh tree per invocation keeps
// flag state from leaking between runs.
func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "sitepulse",
		Short: "Check the availability of many websites at once",
		Long: `Sitepulse checks the availability of websites.

It sends one HTTP request per URL, many at a time, and prints a table of
status codes and response times. Failures such as unresolvable hosts,
refused connections and timeouts are reported per URL and never stop the
rest of the batch.

Quick start:
  sitepulse check example.com https://go.dev
  sitepulse check -f urls.txt -w results.csv
  sitepulse check -c sitepulse.yaml`,
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	root.AddCommand(newCheckCmd(), newValidateCmd(), newVersionCmd())
	return root
}

// newVersionCmd prints version information.
func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long:  `Print the version, commit hash, and build date of this sitepulse binary.`,
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "sitepulse %s\n", version)
			fmt.Fprintf(out, "  commit: %s\n", commit)
			fmt.Fprintf(out, "  built:  %s\n", date)
		},
	}
}

// execute runs the CLI with args and returns the process exit status.
func execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	root := newRootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	if err := root.ExecuteContext(ctx); err != nil {
		if errors.Is(err, errInterrupted) {
			return exitInterrupted
		}
		fmt.Fprintln(stderr, "Error:", err)
		return 1
	}
	return 0
}

func main() {
	// cancel on SIGINT/SIGTERM; in-flight checks finish, the rest are skipped
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := execute(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
