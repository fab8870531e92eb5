package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
)

// errUsage marks command-line mistakes; they exit with status 2.
var errUsage = errors.New("usage")

func main() {
	if len(os.Args) < 2 {
		usage(os.Stderr)
		os.Exit(2)
	}

	cmd, args := os.Args[1], os.Args[2:]
	var err error
	switch cmd {
	case "align":
		err = runAlign(args, os.Stdout)
	case "endorse":
		err = runEndorse(args, os.Stdout)
	case "daily":
		err = runDailyCommand(args, os.Stdout)
	case "schedule":
		err = runSchedule(args, os.Stdout)
	case "migrate":
		err = runMigrate(args, os.Stdout)
	case "help", "-h", "--help":
		usage(os.Stdout)
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", cmd)
		usage(os.Stderr)
		os.Exit(2)
	}

	switch {
	case err == nil:
	case errors.Is(err, flag.ErrHelp):
	case errors.Is(err, errUsage):
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(2)
	default:
		printFailure(os.Stderr, err)
		exitWithError(err)
	}
}

func usage(w io.Writer) {
	fmt.Fprintln(w, `Usage: curing-worklist <command> [flags]

Commands:
  align     map an arbitrary export onto the compact alignment schema
  endorse   run the monthly or weekly endorsement flow
  daily     reconcile yesterday's active list against today's transactions
  schedule  run the daily flow on a cron schedule over a drop directory
  migrate   apply or roll back database migrations (up, down [n], status)

Run "curing-worklist <command> -h" for command flags.`)
}

func usagef(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errUsage, fmt.Sprintf(format, args...))
}

func exitWithError(err error) {
	fmt.Fprintln(os.Stderr, "Error:", err)
	os.Exit(1)
}
