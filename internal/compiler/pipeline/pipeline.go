// Package pipeline wires the four compiler passes together behind one
// entry point, the way cmd/gmx/compile.go sequences lexing, parsing,
// and generation: each phase only runs if the previous one produced no
// fatal diagnostics, and every phase shares one diagnostics.Sink so the
// caller sees every recoverable error from every pass it reached.
package pipeline

import (
	"github.com/btouchard/tacc/internal/compiler/ast"
	"github.com/btouchard/tacc/internal/compiler/diagnostics"
	"github.com/btouchard/tacc/internal/compiler/emitter"
	"github.com/btouchard/tacc/internal/compiler/parser"
	"github.com/btouchard/tacc/internal/compiler/resolver"
)

// Options controls how Compile runs. It is empty today; it exists so
// future flags (e.g. disabling a pass for tooling that only wants the
// AST) don't change Compile's signature.
type Options struct{}

// ExitCode mirrors the CLI's process exit status for each failure mode
// a Result can represent.
type ExitCode int

const (
	ExitSuccess  ExitCode = 0
	ExitLex      ExitCode = 1
	ExitParse    ExitCode = 2
	ExitSemantic ExitCode = 3
	ExitCodegen  ExitCode = 4
	ExitInternal ExitCode = 5
)

// Result is everything a single Compile call produced, as far as the
// pipeline got before halting. Fields past the phase that failed are
// left at their zero value.
type Result struct {
	Success      bool
	Diagnostics  []diagnostics.Diagnostic
	AST          *ast.Program
	Scope        *resolver.Scope
	Instructions []emitter.Instruction
}

// ExitCode reports the process exit status spec.md §6 assigns to r:
// success is 0, and a failure is coded by the earliest phase that
// reported a fatal diagnostic.
func (r Result) ExitCode() ExitCode {
	if r.Success {
		return ExitSuccess
	}
	counts := make(map[diagnostics.Phase]int)
	for _, d := range r.Diagnostics {
		if d.Severity == diagnostics.Error {
			counts[d.Phase]++
		}
	}
	switch {
	case counts[diagnostics.Lex] > 0:
		return ExitLex
	case counts[diagnostics.Parse] > 0:
		return ExitParse
	case counts[diagnostics.Semantic] > 0:
		return ExitSemantic
	case counts[diagnostics.Codegen] > 0:
		return ExitCodegen
	default:
		return ExitInternal
	}
}

// Compile runs source through the lexer, parser, resolver, and emitter
// in order, halting before the next phase as soon as the phase just
// run reports a fatal diagnostic. Every phase shares one Sink, so a
// Result's Diagnostics accumulate across however many phases ran.
//
// source need not end in a newline; the lexer's indentation protocol
// expects one, so Compile appends it here rather than asking every
// caller to remember to.
func Compile(source string, _ Options) Result {
	if len(source) == 0 || source[len(source)-1] != '\n' {
		source += "\n"
	}

	sink := diagnostics.NewSink()

	// 1. Parsing (the parser drives its own lexer internally, so lex
	// and parse diagnostics land in the same sink pass).
	p := parser.New(source, sink)
	prog := p.ParseProgram()
	if sink.HasErrors(diagnostics.Lex) || sink.HasErrors(diagnostics.Parse) {
		return Result{Diagnostics: sink.All(), AST: prog}
	}

	// 2. Resolution
	scope := resolver.New(sink).Resolve(prog)
	if sink.HasErrors(diagnostics.Semantic) {
		return Result{Diagnostics: sink.All(), AST: prog, Scope: scope}
	}

	// 3. Code generation
	instrs := emitter.New().Emit(prog)
	if sink.HasErrors(diagnostics.Codegen) {
		return Result{Diagnostics: sink.All(), AST: prog, Scope: scope, Instructions: instrs}
	}

	return Result{
		Success:      true,
		Diagnostics:  sink.All(),
		AST:          prog,
		Scope:        scope,
		Instructions: instrs,
	}
}
