// Package sandbox compiles vetted script bodies into callables and executes
// them, one invocation per simulation tick, inside an embedded interpreter
// that carries no stdlib and no ambient globals. The only surface reachable
// from a script is the capability facade passed as its sole parameter.
package sandbox

import (
	"bytes"
	"fmt"
	"go/ast"
	"go/parser"
	"go/printer"
	"go/token"
	"strconv"
	"strings"
)

// LoopIterationCeiling bounds the worst-case iteration count of any loop in
// a script. A script runs once per tick at ~60 ticks/second; no legitimate
// per-tick strategy needs more iterations than this.
const LoopIterationCeiling = 100

// InjectLoopGuards rewrites every loop statement in the body so it carries
// an injected counter that forces an early break past the iteration ceiling.
// The rewrite is a parser-level transform, so unusual formatting or
// parentheses inside loop conditions cannot defeat it. Guards must be
// applied exactly once, at compile time: the transform is referentially
// transparent but not idempotent.
func InjectLoopGuards(body string) (string, error) {
	src := "package main\n\nfunc guardShell() {\n" + body + "\n}\n"
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, "script.go", src, parser.SkipObjectResolution)
	if err != nil {
		return "", fmt.Errorf("loop guard parse: %w", err)
	}

	var fn *ast.FuncDecl
	for _, decl := range file.Decls {
		if d, ok := decl.(*ast.FuncDecl); ok {
			fn = d
			break
		}
	}
	if fn == nil || fn.Body == nil {
		return "", fmt.Errorf("loop guard parse: no shell body")
	}

	inj := &guardInjector{}

	// Function literals live inside expressions, which the statement-level
	// rewrite does not descend into. Collect them up front and guard their
	// bodies individually.
	var lits []*ast.FuncLit
	ast.Inspect(fn.Body, func(n ast.Node) bool {
		if fl, ok := n.(*ast.FuncLit); ok {
			lits = append(lits, fl)
		}
		return true
	})
	for _, fl := range lits {
		if fl.Body != nil {
			fl.Body.List = inj.rewriteStmts(fl.Body.List)
		}
	}

	fn.Body.List = inj.rewriteStmts(fn.Body.List)

	var buf bytes.Buffer
	if err := printer.Fprint(&buf, fset, fn.Body); err != nil {
		return "", fmt.Errorf("loop guard print: %w", err)
	}

	out := strings.TrimSpace(buf.String())
	out = strings.TrimPrefix(out, "{")
	out = strings.TrimSuffix(out, "}")
	return strings.TrimSpace(out), nil
}

// guardInjector assigns each guarded loop a fresh counter name so guards in
// the same body never collide.
type guardInjector struct {
	n int
}

func (g *guardInjector) rewriteStmts(list []ast.Stmt) []ast.Stmt {
	out := make([]ast.Stmt, 0, len(list))
	for _, s := range list {
		out = append(out, g.rewriteStmt(s)...)
	}
	return out
}

// rewriteStmt returns the replacement statements for one statement. Loop
// statements expand to a counter declaration plus the guarded loop; all
// other compound statements are recursed into in place.
func (g *guardInjector) rewriteStmt(s ast.Stmt) []ast.Stmt {
	switch st := s.(type) {
	case *ast.ForStmt:
		st.Body.List = g.rewriteStmts(st.Body.List)
		return g.guardLoop(st, st.Body)
	case *ast.RangeStmt:
		st.Body.List = g.rewriteStmts(st.Body.List)
		return g.guardLoop(st, st.Body)
	case *ast.LabeledStmt:
		// The counter declaration must sit outside the label so labeled
		// break/continue keep working.
		inner := g.rewriteStmt(st.Stmt)
		if len(inner) == 0 {
			return []ast.Stmt{st}
		}
		st.Stmt = inner[len(inner)-1]
		return append(inner[:len(inner)-1], st)
	case *ast.BlockStmt:
		st.List = g.rewriteStmts(st.List)
	case *ast.IfStmt:
		st.Body.List = g.rewriteStmts(st.Body.List)
		if st.Else != nil {
			repl := g.rewriteStmt(st.Else)
			if len(repl) == 1 {
				st.Else = repl[0]
			} else {
				st.Else = &ast.BlockStmt{List: repl}
			}
		}
	case *ast.SwitchStmt:
		g.rewriteCaseBodies(st.Body)
	case *ast.TypeSwitchStmt:
		g.rewriteCaseBodies(st.Body)
	}
	return []ast.Stmt{s}
}

func (g *guardInjector) rewriteCaseBodies(body *ast.BlockStmt) {
	if body == nil {
		return
	}
	for _, c := range body.List {
		if cc, ok := c.(*ast.CaseClause); ok {
			cc.Body = g.rewriteStmts(cc.Body)
		}
	}
}

// guardLoop prepends "counter++; if counter > ceiling { break }" to the loop
// body and emits a fresh counter declaration ahead of the loop.
func (g *guardInjector) guardLoop(loop ast.Stmt, body *ast.BlockStmt) []ast.Stmt {
	name := fmt.Sprintf("loopGuard%d", g.n)
	g.n++

	decl := &ast.AssignStmt{
		Lhs: []ast.Expr{ast.NewIdent(name)},
		Tok: token.DEFINE,
		Rhs: []ast.Expr{&ast.BasicLit{Kind: token.INT, Value: "0"}},
	}
	inc := &ast.IncDecStmt{X: ast.NewIdent(name), Tok: token.INC}
	bail := &ast.IfStmt{
		Cond: &ast.BinaryExpr{
			X:  ast.NewIdent(name),
			Op: token.GTR,
			Y:  &ast.BasicLit{Kind: token.INT, Value: strconv.Itoa(LoopIterationCeiling)},
		},
		Body: &ast.BlockStmt{List: []ast.Stmt{&ast.BranchStmt{Tok: token.BREAK}}},
	}

	body.List = append([]ast.Stmt{inc, bail}, body.List...)
	return []ast.Stmt{decl, loop}
}
