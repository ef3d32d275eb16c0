package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/btouchard/tacc/internal/compiler/diagnostics"
	"github.com/btouchard/tacc/internal/compiler/parser"
	"github.com/btouchard/tacc/internal/compiler/printer"
)

func cmdFmt(args []string) {
	fs := flag.NewFlagSet("fmt", flag.ExitOnError)
	diff := fs.Bool("d", false, "display diff instead of writing")
	fs.Usage = func() {
		_, _ = fmt.Fprintf(os.Stderr, "Usage: tacc fmt [-d] <files...>\n\nFlags:\n")
		fs.PrintDefaults()
	}
	_ = fs.Parse(args)

	if fs.NArg() < 1 {
		fs.Usage()
		os.Exit(1)
	}

	exitCode := 0
	for _, file := range fs.Args() {
		if err := fmtFile(file, *diff); err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "Error formatting %s: %v\n", file, err)
			exitCode = 1
		}
	}
	if exitCode != 0 {
		os.Exit(exitCode)
	}
}

func fmtFile(path string, showDiff bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	original := string(data)

	sink := diagnostics.NewSink()
	p := parser.New(original, sink)
	prog := p.ParseProgram()
	if sink.HasAnyErrors() {
		for _, d := range sink.All() {
			_, _ = fmt.Fprintln(os.Stderr, d.String())
		}
		return fmt.Errorf("%d syntax error(s), not formatting", len(sink.All()))
	}

	formatted := printer.Print(prog)

	if showDiff {
		if formatted != original {
			fmt.Printf("--- %s\n+++ %s (formatted)\n", path, path)
			printSimpleDiff(original, formatted)
		}
		return nil
	}

	if formatted == original {
		return nil
	}
	return os.WriteFile(path, []byte(formatted), 0644)
}

func printSimpleDiff(a, b string) {
	aLines := strings.Split(a, "\n")
	bLines := strings.Split(b, "\n")

	maxLen := len(aLines)
	if len(bLines) > maxLen {
		maxLen = len(bLines)
	}

	for i := 0; i < maxLen; i++ {
		aLine, bLine := "", ""
		if i < len(aLines) {
			aLine = aLines[i]
		}
		if i < len(bLines) {
			bLine = bLines[i]
		}
		if aLine != bLine {
			if i < len(aLines) {
				fmt.Printf("-%s\n", aLine)
			}
			if i < len(bLines) {
				fmt.Printf("+%s\n", bLine)
			}
		}
	}
}
