package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/btouchard/tacc/internal/history"
)

func cmdHistory(args []string) {
	fs := flag.NewFlagSet("history", flag.ExitOnError)
	dbPath := fs.String("db", "tacc_history.db", "path to the history database")
	source := fs.String("source", "", "only show runs for this source path")
	limit := fs.Int("n", 20, "maximum number of runs to show")
	fs.Usage = func() {
		_, _ = fmt.Fprintf(os.Stderr, "Usage: tacc history [-db path] [-source file] [-n count]\n\nFlags:\n")
		fs.PrintDefaults()
	}
	_ = fs.Parse(args)

	store, err := history.Open(*dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening history database: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = store.Close() }()

	var recs []history.CompileRecord
	if *source != "" {
		recs, err = store.ForSource(*source, *limit)
	} else {
		recs, err = store.Recent(*limit)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading history: %v\n", err)
		os.Exit(1)
	}

	if len(recs) == 0 {
		fmt.Println("no compile history recorded")
		return
	}

	for _, r := range recs {
		status := "ok"
		if !r.Success {
			status = fmt.Sprintf("failed (exit %d)", r.ExitCode)
		}
		fmt.Printf("%s  %-30s  %-18s  errors=%d warnings=%d instructions=%d\n",
			r.CreatedAt.Format("2006-01-02 15:04:05"), r.SourcePath, status,
			r.ErrorCount, r.WarningCount, r.InstructionCount)
	}
}
