// Command tacc is the command-line driver for the four-pass compiler:
// it exposes "compile", "fmt", and "history" subcommands, the way gmx
// dispatches to cmdBuild/cmdFmt/cmdRun.
package main

import (
	"fmt"
	"os"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	cmd, args := os.Args[1], os.Args[2:]
	switch cmd {
	case "compile":
		cmdCompile(args)
	case "fmt":
		cmdFmt(args)
	case "history":
		cmdHistory(args)
	case "-h", "--help", "help":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "tacc: unknown command %q\n\n", cmd)
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: tacc <command> [arguments]

Commands:
  compile   compile a source file and print its diagnostics and instructions
  fmt       reformat a source file to canonical form
  history   inspect past compile runs recorded in the history database
`)
}
