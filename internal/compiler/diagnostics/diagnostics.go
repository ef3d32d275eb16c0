// Package diagnostics is the shared error/warning sink threaded through
// every phase of the compiler pipeline.
package diagnostics

import "fmt"

// Phase identifies which pass of the pipeline produced a Diagnostic.
type Phase string

const (
	Lex      Phase = "lex"
	Parse    Phase = "parse"
	Semantic Phase = "semantic"
	Codegen  Phase = "codegen"
)

// Severity distinguishes fatal problems from advisory ones. Only errors
// halt the driver before the next phase; warnings are reported but do
// not stop the pipeline.
type Severity string

const (
	Error   Severity = "error"
	Warning Severity = "warning"
)

// Kind is a taxonomy tag naming the class of problem (UnexpectedCharacter,
// UndefinedVariable, ArityMismatch, InvalidAssignmentTarget, ...).
type Kind string

// Position is a 1-based source location.
type Position struct {
	Line   int
	Column int
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Diagnostic is a single reported problem.
type Diagnostic struct {
	Phase    Phase
	Severity Severity
	Pos      Position
	Kind     Kind
	Message  string
}

// String renders the diagnostic the way the driver prints it to users:
// "<phase> error at line L:C: <message>".
func (d Diagnostic) String() string {
	return fmt.Sprintf("%s %s at line %s: %s", d.Phase, d.Severity, d.Pos, d.Message)
}

// Sink accumulates diagnostics across all phases of one compile
// invocation. It never aborts on the first error; phases append and
// keep going (recovering where they can), and the driver decides when
// to halt.
type Sink struct {
	diags []Diagnostic
}

// NewSink returns an empty Sink. Compile invocations each get their own
// Sink; nothing here is shared across invocations.
func NewSink() *Sink {
	return &Sink{}
}

func (s *Sink) add(phase Phase, sev Severity, pos Position, kind Kind, format string, args ...interface{}) {
	s.diags = append(s.diags, Diagnostic{
		Phase:    phase,
		Severity: sev,
		Pos:      pos,
		Kind:     kind,
		Message:  fmt.Sprintf(format, args...),
	})
}

// Error records a fatal diagnostic for phase.
func (s *Sink) Error(phase Phase, pos Position, kind Kind, format string, args ...interface{}) {
	s.add(phase, Error, pos, kind, format, args...)
}

// Warn records a non-fatal diagnostic for phase.
func (s *Sink) Warn(phase Phase, pos Position, kind Kind, format string, args ...interface{}) {
	s.add(phase, Warning, pos, kind, format, args...)
}

// All returns every diagnostic recorded so far, in discovery order.
func (s *Sink) All() []Diagnostic {
	return s.diags
}

// HasErrors reports whether any Error-severity diagnostic has been
// recorded for the given phase. The driver calls this after each phase
// to decide whether to halt before running the next one.
func (s *Sink) HasErrors(phase Phase) bool {
	for _, d := range s.diags {
		if d.Phase == phase && d.Severity == Error {
			return true
		}
	}
	return false
}

// HasAnyErrors reports whether any Error-severity diagnostic has been
// recorded across all phases so far.
func (s *Sink) HasAnyErrors() bool {
	for _, d := range s.diags {
		if d.Severity == Error {
			return true
		}
	}
	return false
}

// Counts returns the number of Error-severity diagnostics recorded per
// phase, for the driver's summary line.
func (s *Sink) Counts() map[Phase]int {
	counts := make(map[Phase]int)
	for _, d := range s.diags {
		if d.Severity == Error {
			counts[d.Phase]++
		}
	}
	return counts
}
