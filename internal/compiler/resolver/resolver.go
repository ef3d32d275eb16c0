// Package resolver implements the scoped symbol table and lightweight
// type inference pass described in spec.md §4.3: it walks the AST
// built by the parser, binds every name to a Symbol, and annotates
// every expression node with its inferred type.
package resolver

import (
	"fmt"

	"github.com/btouchard/tacc/internal/compiler/ast"
	"github.com/btouchard/tacc/internal/compiler/diagnostics"
)

// Scope is one level of the symbol table: the global scope, or one
// function body's local scope. Blocks (if/while/for bodies) do not
// introduce their own Scope, matching the source language's function-
// level scoping.
type Scope struct {
	Parent  *Scope
	ID      ast.ScopeID
	Symbols map[string]*ast.Symbol
}

func newScope(parent *Scope, id ast.ScopeID) *Scope {
	return &Scope{Parent: parent, ID: id, Symbols: make(map[string]*ast.Symbol)}
}

func (s *Scope) defineLocal(sym *ast.Symbol) {
	s.Symbols[sym.Name] = sym
}

func (s *Scope) lookupLocal(name string) (*ast.Symbol, bool) {
	sym, ok := s.Symbols[name]
	return sym, ok
}

// lookup climbs the scope chain, the way a function body can read (but
// not assign into, without this subset supporting a "global" keyword)
// a name bound in an enclosing scope.
func (s *Scope) lookup(name string) (*ast.Symbol, bool) {
	for sc := s; sc != nil; sc = sc.Parent {
		if sym, ok := sc.Symbols[name]; ok {
			return sym, true
		}
	}
	return nil, false
}

// builtinSignature describes one builtin's calling convention, per the
// table in spec.md §6.
type builtinSignature struct {
	minParams  int
	maxParams  int // -1 means unbounded
	returnType string
}

var builtins = map[string]builtinSignature{
	"print": {minParams: 0, maxParams: -1, returnType: "none"},
	"input": {minParams: 0, maxParams: 1, returnType: "string"},
	"len":   {minParams: 1, maxParams: 1, returnType: "int"},
	"int":   {minParams: 1, maxParams: 1, returnType: "int"},
	"float": {minParams: 1, maxParams: 1, returnType: "float"},
	"str":   {minParams: 1, maxParams: 1, returnType: "string"},
	"bool":  {minParams: 1, maxParams: 1, returnType: "bool"},
	"range": {minParams: 1, maxParams: 3, returnType: "list"},
}

// arityDesc renders a builtin's accepted argument count for an
// ArityMismatch message, e.g. "1", "1-3", or "at least 0".
func arityDesc(sig builtinSignature) string {
	if sig.maxParams < 0 {
		return fmt.Sprintf("at least %d", sig.minParams)
	}
	if sig.minParams == sig.maxParams {
		return fmt.Sprintf("%d", sig.minParams)
	}
	return fmt.Sprintf("%d-%d", sig.minParams, sig.maxParams)
}

func isNumeric(t string) bool {
	return t == "int" || t == "float"
}

// joinTypes implements the type lattice of spec.md §4.3: int and float
// join to float; a type joined with itself is unchanged; anything else
// (including "unknown", the lattice top) joins to "unknown".
func joinTypes(a, b string) string {
	if a == "" {
		return b
	}
	if b == "" {
		return a
	}
	if a == b {
		return a
	}
	if (a == "int" && b == "float") || (a == "float" && b == "int") {
		return "float"
	}
	return "unknown"
}

// Resolver walks a Program, building a scoped symbol table in place
// and reporting semantic errors into a shared diagnostics.Sink.
type Resolver struct {
	diags       *diagnostics.Sink
	global      *Scope
	nextID      ast.ScopeID
	returnTypes map[string]string // function name -> inferred return type
}

// New constructs a Resolver that reports into diags.
func New(diags *diagnostics.Sink) *Resolver {
	return &Resolver{diags: diags}
}

// Resolve walks prog and returns the global scope, the root of the
// symbol table spec.md §6 calls "symbol_tables" in a successful Result.
func (r *Resolver) Resolve(prog *ast.Program) *Scope {
	r.global = r.newScope(nil)

	// Pass 1: register every top-level function's name and arity so
	// calls can forward-reference a function defined later in the file.
	for _, stmt := range prog.Statements {
		if fn, ok := stmt.(*ast.FunctionDef); ok {
			r.declareFunction(fn, r.global)
		}
	}

	// Pass 2: resolve every statement in order, filling in each
	// function's inferred return type as its body is walked.
	for _, stmt := range prog.Statements {
		r.resolveStatement(stmt, r.global)
	}

	return r.global
}

func (r *Resolver) newScope(parent *Scope) *Scope {
	s := newScope(parent, r.nextID)
	r.nextID++
	return s
}

func (r *Resolver) errorf(pos ast.Node, kind diagnostics.Kind, format string, args ...interface{}) {
	line, col := pos.Position()
	r.diags.Error(diagnostics.Semantic, diagnostics.Position{Line: line, Column: col}, kind, format, args...)
}

func (r *Resolver) declareFunction(fn *ast.FunctionDef, scope *Scope) {
	if _, exists := scope.lookupLocal(fn.Name); exists {
		r.errorf(fn, "Redefinition", "function %q is already defined in this scope", fn.Name)
		return
	}
	line, _ := fn.Position()
	scope.defineLocal(&ast.Symbol{
		Name:       fn.Name,
		Kind:       ast.SymFunction,
		Type:       "function",
		DeclLine:   line,
		ScopeID:    scope.ID,
		ParamCount: len(fn.Params),
		ParamNames: fn.Params,
	})
}

// ============ STATEMENTS ============

func (r *Resolver) resolveStatement(stmt ast.Statement, scope *Scope) {
	switch s := stmt.(type) {
	case *ast.Assignment:
		r.resolveAssignment(s, scope)
	case *ast.If:
		r.resolveIf(s, scope)
	case *ast.While:
		r.resolveExpression(s.Cond, scope)
		r.resolveBlock(s.Block, scope)
	case *ast.For:
		r.resolveExpression(s.Iter, scope)
		r.assign(scope, s.Var, "unknown", s.Line)
		r.resolveBlock(s.Block, scope)
	case *ast.FunctionDef:
		r.resolveFunctionBody(s, scope)
	case *ast.Return:
		// Blocks (if/while/for) never introduce their own Scope, so the
		// scope threaded down to a statement is the global scope only
		// when that statement sits outside every FunctionDef.
		if scope == r.global {
			r.errorf(s, "ReturnOutsideFunction", "ReturnOutsideFunction: return outside function")
		}
		if s.Value != nil {
			r.resolveExpression(s.Value, scope)
		}
	case *ast.ExpressionStatement:
		r.resolveExpression(s.Expr, scope)
	}
}

func (r *Resolver) resolveBlock(block *ast.Block, scope *Scope) {
	if block == nil {
		return
	}
	for _, stmt := range block.Statements {
		r.resolveStatement(stmt, scope)
	}
}

func (r *Resolver) resolveAssignment(a *ast.Assignment, scope *Scope) {
	r.resolveExpression(a.Value, scope)
	r.assign(scope, a.Target, a.Value.ResolvedType(), a.Line)
}

// assign binds name in scope's own symbol table (never a parent's),
// joining with any prior type so branches that assign the same
// variable with different types converge per spec.md §4.3 rather than
// one branch silently winning.
func (r *Resolver) assign(scope *Scope, name, valueType string, declLine int) {
	if existing, ok := scope.lookupLocal(name); ok {
		existing.Type = joinTypes(existing.Type, valueType)
		return
	}
	scope.defineLocal(&ast.Symbol{
		Name:     name,
		Kind:     ast.SymVariable,
		Type:     valueType,
		DeclLine: declLine,
		ScopeID:  scope.ID,
	})
}

func (r *Resolver) resolveIf(stmt *ast.If, scope *Scope) {
	r.resolveExpression(stmt.Cond, scope)
	r.resolveBlock(stmt.Then, scope)
	for _, elif := range stmt.Elifs {
		r.resolveExpression(elif.Cond, scope)
		r.resolveBlock(elif.Block, scope)
	}
	if stmt.Else != nil {
		r.resolveBlock(stmt.Else, scope)
	}
}

func (r *Resolver) resolveFunctionBody(fn *ast.FunctionDef, enclosing *Scope) {
	fnScope := r.newScope(enclosing)
	fn.Scope = &fnScope.ID

	for _, param := range fn.Params {
		fnScope.defineLocal(&ast.Symbol{
			Name:     param,
			Kind:     ast.SymParameter,
			Type:     "unknown",
			DeclLine: fn.Line,
			ScopeID:  fnScope.ID,
		})
	}

	r.resolveBlock(fn.Body, fnScope)

	// The function's own Symbol.Type stays "function" (what kind of
	// value the name refers to); its inferred return type (what a call
	// to it produces) is tracked separately in r.returnTypes.
	returnType := inferReturnType(fn.Body)
	if r.returnTypes == nil {
		r.returnTypes = make(map[string]string)
	}
	r.returnTypes[fn.Name] = returnType
}

// inferReturnType joins the types of every return value in a function
// body; a function with no Return statements, or only bare returns,
// returns "none".
func inferReturnType(block *ast.Block) string {
	typ := ""
	var walk func(*ast.Block)
	walk = func(b *ast.Block) {
		if b == nil {
			return
		}
		for _, stmt := range b.Statements {
			switch s := stmt.(type) {
			case *ast.Return:
				if s.Value != nil {
					typ = joinTypes(typ, s.Value.ResolvedType())
				} else {
					typ = joinTypes(typ, "none")
				}
			case *ast.If:
				walk(s.Then)
				for _, elif := range s.Elifs {
					walk(elif.Block)
				}
				walk(s.Else)
			case *ast.While:
				walk(s.Block)
			case *ast.For:
				walk(s.Block)
			}
		}
	}
	walk(block)
	if typ == "" {
		return "none"
	}
	return typ
}

// ============ EXPRESSIONS ============

func (r *Resolver) resolveExpression(expr ast.Expression, scope *Scope) {
	switch e := expr.(type) {
	case *ast.Literal:
		ast.SetResolvedType(e, string(e.Kind))
	case *ast.Identifier:
		r.resolveIdentifier(e, scope)
	case *ast.BinaryOp:
		r.resolveExpression(e.Left, scope)
		r.resolveExpression(e.Right, scope)
		left := e.Left.ResolvedType()
		right := e.Right.ResolvedType()
		r.checkBinaryOperands(e, e.Op, left, right)
		ast.SetResolvedType(e, inferBinaryType(e.Op, left, right))
	case *ast.UnaryOp:
		r.resolveExpression(e.Operand, scope)
		operand := e.Operand.ResolvedType()
		if e.Op != "not" && operand != "unknown" && !isNumeric(operand) {
			r.errorf(e, "TypeMismatch", "TypeMismatch: unary %q requires a numeric operand, got %s", e.Op, operand)
		}
		ast.SetResolvedType(e, inferUnaryType(e.Op, operand))
	case *ast.Call:
		r.resolveCall(e, scope)
	case *ast.Index:
		r.resolveExpression(e.Collection, scope)
		r.resolveExpression(e.Key, scope)
		ast.SetResolvedType(e, "unknown")
	case *ast.ListLiteral:
		for _, el := range e.Elements {
			r.resolveExpression(el, scope)
		}
		ast.SetResolvedType(e, "list")
	}
}

func (r *Resolver) resolveIdentifier(id *ast.Identifier, scope *Scope) {
	sym, ok := scope.lookup(id.Name)
	if !ok {
		// Message text matches spec.md §8 Scenario E's literal expected
		// diagnostic line ("UndefinedVariable: z") rather than a prose
		// description.
		r.errorf(id, "UndefinedVariable", "UndefinedVariable: %s", id.Name)
		ast.SetResolvedType(id, "unknown")
		return
	}
	id.Symbol = sym
	ast.SetResolvedType(id, sym.Type)
}

func (r *Resolver) resolveCall(call *ast.Call, scope *Scope) {
	for _, arg := range call.Args {
		r.resolveExpression(arg, scope)
	}

	if sig, ok := builtins[call.Callee]; ok {
		n := len(call.Args)
		if n < sig.minParams || (sig.maxParams >= 0 && n > sig.maxParams) {
			r.errorf(call, "ArityMismatch", "%q expects %s argument(s), got %d",
				call.Callee, arityDesc(sig), n)
		}
		ast.SetResolvedType(call, sig.returnType)
		return
	}

	sym, ok := r.global.lookupLocal(call.Callee)
	if !ok {
		r.errorf(call, "UndefinedVariable", "UndefinedVariable: call to undefined function %q", call.Callee)
		ast.SetResolvedType(call, "unknown")
		return
	}
	call.Symbol = sym
	if len(call.Args) != sym.ParamCount {
		r.errorf(call, "ArityMismatch", "%q expects %d argument(s), got %d",
			call.Callee, sym.ParamCount, len(call.Args))
	}

	if typ, ok := r.returnTypes[call.Callee]; ok {
		ast.SetResolvedType(call, typ)
	} else {
		// Forward reference to a function not yet walked in pass 2: its
		// return type isn't known yet, so this call site stays unknown.
		ast.SetResolvedType(call, "unknown")
	}
}

// inferBinaryType implements the arithmetic/comparison typing rules of
// spec.md §4.3 and the Open Question decision on integer division
// (recorded in SPEC_FULL.md): '/' between two ints yields a float.
func inferBinaryType(op, left, right string) string {
	switch op {
	case "==", "!=", "<", "<=", ">", ">=", "and", "or":
		return "bool"
	case "/":
		if left == "int" && right == "int" {
			return "float"
		}
		return joinTypes(left, right)
	case "%":
		if left == "int" && right == "int" {
			return "int"
		}
		return "unknown"
	default: // + - * **
		return joinTypes(left, right)
	}
}

func inferUnaryType(op, operand string) string {
	if op == "not" {
		return "bool"
	}
	return operand
}

// checkBinaryOperands implements the operand-kind validation of
// spec.md §4.3: type inference is best-effort and non-blocking ("unknown"
// never itself causes an error), but a known operand-kind combination
// that the operator doesn't accept is a TypeMismatch.
func (r *Resolver) checkBinaryOperands(e *ast.BinaryOp, op, left, right string) {
	if left == "unknown" || right == "unknown" {
		return
	}

	var ok bool
	switch op {
	case "+":
		ok = (isNumeric(left) && isNumeric(right)) ||
			(left == "string" && right == "string") ||
			(left == "list" && right == "list")
	case "-", "/", "%", "**":
		ok = isNumeric(left) && isNumeric(right)
	case "*":
		ok = (isNumeric(left) && isNumeric(right)) ||
			((left == "string" || left == "list") && right == "int") ||
			(left == "int" && (right == "string" || right == "list"))
	case "==", "!=", "<", "<=", ">", ">=":
		ok = (isNumeric(left) && isNumeric(right)) || left == right
	default: // and, or
		ok = true
	}

	if !ok {
		r.errorf(e, "TypeMismatch", "TypeMismatch: operator %q does not accept operand types %s and %s",
			op, left, right)
	}
}
