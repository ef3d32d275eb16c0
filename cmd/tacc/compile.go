package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/btouchard/tacc/internal/compiler/emitter"
	"github.com/btouchard/tacc/internal/compiler/pipeline"
	"github.com/btouchard/tacc/internal/history"
)

func cmdCompile(args []string) {
	fs := flag.NewFlagSet("compile", flag.ExitOnError)
	historyDB := fs.String("history", "", "path to a history database to record this run in (skipped if empty)")
	quiet := fs.Bool("q", false, "suppress the instruction listing on success")
	fs.Usage = func() {
		_, _ = fmt.Fprintf(os.Stderr, "Usage: tacc compile [-history path] [-q] <input>\n\nFlags:\n")
		fs.PrintDefaults()
	}
	_ = fs.Parse(args)

	if fs.NArg() < 1 {
		fs.Usage()
		os.Exit(1)
	}

	inputFile := fs.Arg(0)
	data, err := os.ReadFile(inputFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading file: %v\n", err)
		os.Exit(int(pipeline.ExitInternal))
	}

	result := pipeline.Compile(string(data), pipeline.Options{})

	for _, d := range result.Diagnostics {
		fmt.Fprintln(os.Stderr, d.String())
	}

	if *historyDB != "" {
		recordHistory(*historyDB, inputFile, result)
	}

	if !result.Success {
		fmt.Fprintf(os.Stderr, "compile failed with %d diagnostic(s)\n", len(result.Diagnostics))
		os.Exit(int(result.ExitCode()))
	}

	if !*quiet {
		fmt.Print(emitter.FormatProgram(result.Instructions))
	}
}

func recordHistory(dbPath, inputFile string, result pipeline.Result) {
	store, err := history.Open(dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: could not open history database %s: %v\n", dbPath, err)
		return
	}
	defer func() { _ = store.Close() }()

	var errCount, warnCount int
	for _, d := range result.Diagnostics {
		if d.Severity == "error" {
			errCount++
		} else {
			warnCount++
		}
	}

	rec := &history.CompileRecord{
		SourcePath:       inputFile,
		Success:          result.Success,
		ExitCode:         int(result.ExitCode()),
		ErrorCount:       errCount,
		WarningCount:     warnCount,
		InstructionCount: len(result.Instructions),
	}
	if err := store.Record(rec); err != nil {
		fmt.Fprintf(os.Stderr, "warning: could not record history: %v\n", err)
	}
}
