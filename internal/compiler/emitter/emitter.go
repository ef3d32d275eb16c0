// Package emitter implements the three-address code generator
// described in spec.md §4.4: a post-order walk of the resolved AST
// that allocates temporaries and labels and emits one instruction at a
// time into a flat, ordered program.
package emitter

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/btouchard/tacc/internal/compiler/ast"
)

// Instruction is one line of the emitted program. Seq is its 1-based
// position, matching the external "<n>: <payload>" text format of
// spec.md §6 that FormatInstruction renders.
type Instruction struct {
	Seq  int
	Text string
}

// String renders an Instruction in the stable "<n>: <payload>" format.
func (i Instruction) String() string {
	return fmt.Sprintf("%d: %s", i.Seq, i.Text)
}

// Emitter walks a Program and produces a flat, ordered list of
// Instructions. It allocates temporaries (t1, t2, ...) and labels (L1,
// L2, ...) from two monotonic counters, fresh per Emitter (spec.md §5:
// every Compile invocation gets fresh state).
type Emitter struct {
	instrs     []Instruction
	tempCount  int
	labelCount int
}

// New returns a ready-to-use Emitter.
func New() *Emitter {
	return &Emitter{}
}

// Emit walks prog's statements in order and returns the resulting
// program as a flat instruction slice.
func (e *Emitter) Emit(prog *ast.Program) []Instruction {
	for _, stmt := range prog.Statements {
		e.emitStatement(stmt)
	}
	return e.instrs
}

func (e *Emitter) newTemp() string {
	e.tempCount++
	return fmt.Sprintf("t%d", e.tempCount)
}

func (e *Emitter) newLabel() string {
	e.labelCount++
	return fmt.Sprintf("L%d", e.labelCount)
}

func (e *Emitter) emit(format string, args ...interface{}) {
	e.instrs = append(e.instrs, Instruction{
		Seq:  len(e.instrs) + 1,
		Text: fmt.Sprintf(format, args...),
	})
}

// ============ STATEMENTS ============

func (e *Emitter) emitStatement(stmt ast.Statement) {
	switch s := stmt.(type) {
	case *ast.Assignment:
		value := e.emitExpr(s.Value)
		e.emit("%s = %s", s.Target, value)
	case *ast.If:
		e.emitIf(s)
	case *ast.While:
		e.emitWhile(s)
	case *ast.For:
		e.emitFor(s)
	case *ast.FunctionDef:
		e.emitFunctionDef(s)
	case *ast.Return:
		if s.Value != nil {
			value := e.emitExpr(s.Value)
			e.emit("RETURN %s", value)
		} else {
			e.emit("RETURN")
		}
	case *ast.ExpressionStatement:
		e.emitExpr(s.Expr)
	}
}

func (e *Emitter) emitBlock(b *ast.Block) {
	if b == nil {
		return
	}
	for _, stmt := range b.Statements {
		e.emitStatement(stmt)
	}
}

// emitIf lowers if/elif*/else? into a chain of conditional branches, one
// "IF_FALSE <cond> GOTO <next>" per condition. A shared end label is
// only allocated (and jumped/fallen to) when there is an else or a
// further elif to skip past; a bare if with no else falls straight
// through its own "next" label, which then doubles as the end, so no
// redundant GOTO/LABEL pair is emitted.
func (e *Emitter) emitIf(s *ast.If) {
	hasElse := len(s.Elifs) > 0 || s.Else != nil
	var end string
	allocEnd := func() string {
		if end == "" {
			end = e.newLabel()
		}
		return end
	}

	cond := e.emitExpr(s.Cond)
	next := e.newLabel()
	e.emit("IF_FALSE %s GOTO %s", cond, next)
	e.emitBlock(s.Then)
	if hasElse {
		e.emit("GOTO %s", allocEnd())
	}
	e.emit("LABEL %s", next)

	for _, elif := range s.Elifs {
		elifCond := e.emitExpr(elif.Cond)
		elifNext := e.newLabel()
		e.emit("IF_FALSE %s GOTO %s", elifCond, elifNext)
		e.emitBlock(elif.Block)
		e.emit("GOTO %s", allocEnd())
		e.emit("LABEL %s", elifNext)
	}

	if s.Else != nil {
		e.emitBlock(s.Else)
	}
	if hasElse {
		e.emit("LABEL %s", allocEnd())
	}
}

func (e *Emitter) emitWhile(s *ast.While) {
	start := e.newLabel()
	end := e.newLabel()

	e.emit("LABEL %s", start)
	cond := e.emitExpr(s.Cond)
	e.emit("IF_FALSE %s GOTO %s", cond, end)
	e.emitBlock(s.Block)
	e.emit("GOTO %s", start)
	e.emit("LABEL %s", end)
}

// emitFor desugars "for v in iter: body" into an index-driven while
// loop over iter, since the IR has no native iterator instruction: it
// counts from 0 to len(iter) and indexes in on each pass.
func (e *Emitter) emitFor(s *ast.For) {
	iterVal := e.emitExpr(s.Iter)

	idx := e.newTemp()
	e.emit("%s = 0", idx)
	length := e.emitCallRaw("len", []string{iterVal})

	start := e.newLabel()
	end := e.newLabel()

	e.emit("LABEL %s", start)
	cond := e.newTemp()
	e.emit("%s = %s < %s", cond, idx, length)
	e.emit("IF_FALSE %s GOTO %s", cond, end)

	elem := e.newTemp()
	e.emit("%s = %s[%s]", elem, iterVal, idx)
	e.emit("%s = %s", s.Var, elem)

	e.emitBlock(s.Block)

	nextIdx := e.newTemp()
	e.emit("%s = %s + 1", nextIdx, idx)
	e.emit("%s = %s", idx, nextIdx)
	e.emit("GOTO %s", start)
	e.emit("LABEL %s", end)
}

// emitFunctionDef emits a FUNC_BEGIN/FUNC_END region; spec.md's
// Non-goals exclude execution of the emitted IR, so this is a listing
// of the body's instructions rather than a callable unit with its own
// frame. Per spec.md §4.4, a RETURN is synthesized if the body's last
// instruction isn't already one (e.g. a function that falls off the
// end of its statements with no explicit return).
func (e *Emitter) emitFunctionDef(fn *ast.FunctionDef) {
	e.emit("FUNC_BEGIN %s, %d", fn.Name, len(fn.Params))
	bodyStart := len(e.instrs)
	e.emitBlock(fn.Body)
	if len(e.instrs) == bodyStart || !strings.HasPrefix(e.instrs[len(e.instrs)-1].Text, "RETURN") {
		e.emit("RETURN")
	}
	e.emit("FUNC_END")
}

// ============ EXPRESSIONS ============

// emitExpr lowers expr and returns the operand text (an identifier, a
// literal, or a freshly allocated temporary) that later instructions
// can reference.
func (e *Emitter) emitExpr(expr ast.Expression) string {
	switch ex := expr.(type) {
	case *ast.Literal:
		return formatLiteral(ex)
	case *ast.Identifier:
		return ex.Name
	case *ast.BinaryOp:
		return e.emitBinary(ex)
	case *ast.UnaryOp:
		return e.emitUnary(ex)
	case *ast.Call:
		return e.emitCall(ex)
	case *ast.Index:
		coll := e.emitExpr(ex.Collection)
		key := e.emitExpr(ex.Key)
		t := e.newTemp()
		e.emit("%s = %s[%s]", t, coll, key)
		return t
	case *ast.ListLiteral:
		elems := make([]string, len(ex.Elements))
		for i, el := range ex.Elements {
			elems[i] = e.emitExpr(el)
		}
		t := e.newTemp()
		e.emit("%s = list %s", t, strings.Join(elems, ", "))
		return t
	}
	return ""
}

func (e *Emitter) emitUnary(u *ast.UnaryOp) string {
	operand := e.emitExpr(u.Operand)
	t := e.newTemp()
	if u.Op == "not" {
		e.emit("%s = not %s", t, operand)
	} else {
		e.emit("%s = %s%s", t, u.Op, operand)
	}
	return t
}

func (e *Emitter) emitBinary(b *ast.BinaryOp) string {
	switch b.Op {
	case "and":
		return e.emitShortCircuit(b, true)
	case "or":
		return e.emitShortCircuit(b, false)
	default:
		left := e.emitExpr(b.Left)
		right := e.emitExpr(b.Right)
		t := e.newTemp()
		e.emit("%s = %s %s %s", t, left, b.Op, right)
		return t
	}
}

// emitShortCircuit lowers "and"/"or" with short-circuit evaluation into
// a shared temp: when the right operand is evaluated, its value is
// stored as-is; when it is skipped, the temp gets a constant instead of
// the left operand's value. "and" jumps past the right operand on a
// falsy left (to a fallback of false); "or" jumps on a truthy left (to
// a fallback of true).
func (e *Emitter) emitShortCircuit(b *ast.BinaryOp, isAnd bool) string {
	t := e.newTemp()
	shortCircuit := e.newLabel()
	end := e.newLabel()

	left := e.emitExpr(b.Left)
	if isAnd {
		e.emit("IF_FALSE %s GOTO %s", left, shortCircuit)
	} else {
		e.emit("IF %s GOTO %s", left, shortCircuit)
	}

	right := e.emitExpr(b.Right)
	e.emit("%s = %s", t, right)
	e.emit("GOTO %s", end)

	e.emit("LABEL %s", shortCircuit)
	if isAnd {
		e.emit("%s = false", t)
	} else {
		e.emit("%s = true", t)
	}

	e.emit("LABEL %s", end)
	return t
}

// emitCall lowers a call expression. The print builtin has no return
// value and no CALL/PARAM pairing of its own in spec.md §4.4's
// instruction set ("PRINT a" takes the value directly); every other
// callee goes through the general PARAM.../CALL path.
func (e *Emitter) emitCall(c *ast.Call) string {
	args := make([]string, len(c.Args))
	for i, a := range c.Args {
		args[i] = e.emitExpr(a)
	}
	if c.Callee == "print" {
		if len(args) == 0 {
			e.emit("PRINT")
		}
		for _, a := range args {
			e.emit("PRINT %s", a)
		}
		return "None"
	}
	return e.emitCallRaw(c.Callee, args)
}

// emitCallRaw emits the PARAM sequence followed by the CALL itself,
// shared by user call sites and by emitFor's synthesized len() call.
func (e *Emitter) emitCallRaw(callee string, args []string) string {
	for _, a := range args {
		e.emit("PARAM %s", a)
	}
	t := e.newTemp()
	e.emit("CALL %s, %d, %s", callee, len(args), t)
	return t
}

func formatLiteral(l *ast.Literal) string {
	switch l.Kind {
	case ast.LitInt:
		return strconv.FormatInt(l.Int, 10)
	case ast.LitFloat:
		return strconv.FormatFloat(l.Float, 'g', -1, 64)
	case ast.LitString:
		return strconv.Quote(l.Str)
	case ast.LitBool:
		if l.Bool {
			return "True"
		}
		return "False"
	case ast.LitNone:
		return "None"
	default:
		return "?"
	}
}

// FormatInstruction renders a single instruction in the stable
// "<n>: <payload>" text format spec.md §6 requires as the emitter's
// external surface.
func FormatInstruction(i Instruction) string {
	return i.String()
}

// FormatProgram renders a whole instruction list, one line per
// instruction, in program order.
func FormatProgram(instrs []Instruction) string {
	var b strings.Builder
	for _, i := range instrs {
		b.WriteString(FormatInstruction(i))
		b.WriteByte('\n')
	}
	return b.String()
}
