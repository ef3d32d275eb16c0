// Package printer renders an *ast.Program back into source text. It
// exists for the round-trip property spec.md §8 requires of the
// parser (print(parse(src)) reparses to an equivalent AST) and backs
// the "tacc fmt" subcommand, the way cmd/gmx/fmt.go rebuilds a .gmx
// file from its parsed sections with a strings.Builder.
package printer

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/btouchard/tacc/internal/compiler/ast"
)

const indentUnit = "    "

// Print renders prog as canonical source text, one statement per line
// with four-space indentation per nesting level.
func Print(prog *ast.Program) string {
	var b strings.Builder
	for _, stmt := range prog.Statements {
		printStatement(&b, stmt, 0)
	}
	return b.String()
}

func writeIndent(b *strings.Builder, depth int) {
	for i := 0; i < depth; i++ {
		b.WriteString(indentUnit)
	}
}

func printStatement(b *strings.Builder, stmt ast.Statement, depth int) {
	writeIndent(b, depth)
	switch s := stmt.(type) {
	case *ast.Assignment:
		fmt.Fprintf(b, "%s = %s\n", s.Target, printExpr(s.Value))
	case *ast.If:
		printIf(b, s, depth)
	case *ast.While:
		fmt.Fprintf(b, "while %s:\n", printExpr(s.Cond))
		printBlock(b, s.Block, depth+1)
	case *ast.For:
		fmt.Fprintf(b, "for %s in %s:\n", s.Var, printExpr(s.Iter))
		printBlock(b, s.Block, depth+1)
	case *ast.FunctionDef:
		fmt.Fprintf(b, "def %s(%s):\n", s.Name, strings.Join(s.Params, ", "))
		printBlock(b, s.Body, depth+1)
	case *ast.Return:
		if s.Value == nil {
			b.WriteString("return\n")
		} else {
			fmt.Fprintf(b, "return %s\n", printExpr(s.Value))
		}
	case *ast.ExpressionStatement:
		fmt.Fprintf(b, "%s\n", printExpr(s.Expr))
	}
}

func printIf(b *strings.Builder, s *ast.If, depth int) {
	fmt.Fprintf(b, "if %s:\n", printExpr(s.Cond))
	printBlock(b, s.Then, depth+1)
	for _, elif := range s.Elifs {
		writeIndent(b, depth)
		fmt.Fprintf(b, "elif %s:\n", printExpr(elif.Cond))
		printBlock(b, elif.Block, depth+1)
	}
	if s.Else != nil {
		writeIndent(b, depth)
		b.WriteString("else:\n")
		printBlock(b, s.Else, depth+1)
	}
}

func printBlock(b *strings.Builder, block *ast.Block, depth int) {
	for _, stmt := range block.Statements {
		printStatement(b, stmt, depth)
	}
}

// printExpr renders expr at "top level" (an assignment's right-hand
// side, a return value, a loop's condition): no enclosing parens.
// Any BinaryOp or UnaryOp nested inside a compound expression is
// always parenthesized by printCompoundChild, trading minimal-parens
// prettiness for an unambiguous reparse.
func printExpr(expr ast.Expression) string {
	switch e := expr.(type) {
	case *ast.Literal:
		return printLiteral(e)
	case *ast.Identifier:
		return e.Name
	case *ast.BinaryOp:
		return fmt.Sprintf("%s %s %s", printCompoundChild(e.Left), e.Op, printCompoundChild(e.Right))
	case *ast.UnaryOp:
		if e.Op == "not" {
			return fmt.Sprintf("not %s", printCompoundChild(e.Operand))
		}
		return fmt.Sprintf("%s%s", e.Op, printCompoundChild(e.Operand))
	case *ast.Call:
		args := make([]string, len(e.Args))
		for i, a := range e.Args {
			args[i] = printExpr(a)
		}
		return fmt.Sprintf("%s(%s)", e.Callee, strings.Join(args, ", "))
	case *ast.Index:
		return fmt.Sprintf("%s[%s]", printCompoundChild(e.Collection), printExpr(e.Key))
	case *ast.ListLiteral:
		elems := make([]string, len(e.Elements))
		for i, el := range e.Elements {
			elems[i] = printExpr(el)
		}
		return fmt.Sprintf("[%s]", strings.Join(elems, ", "))
	}
	return ""
}

// printCompoundChild renders a sub-expression of a BinaryOp, UnaryOp,
// or Index, wrapping it in parens whenever it is itself a BinaryOp or
// UnaryOp so operator precedence can never be reinterpreted on reparse.
func printCompoundChild(expr ast.Expression) string {
	switch expr.(type) {
	case *ast.BinaryOp, *ast.UnaryOp:
		return "(" + printExpr(expr) + ")"
	default:
		return printExpr(expr)
	}
}

func printLiteral(l *ast.Literal) string {
	switch l.Kind {
	case ast.LitInt:
		return strconv.FormatInt(l.Int, 10)
	case ast.LitFloat:
		// Plain decimal with a '.' always present, so the lexer reads it
		// back as a FLOAT (no exponent form, no "1" for 1.0).
		s := strconv.FormatFloat(l.Float, 'f', -1, 64)
		if !strings.Contains(s, ".") {
			s += ".0"
		}
		return s
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
