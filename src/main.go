// Command parus-sub001 is the compiler driver: it wires the lexer, parser,
// macro expander, name resolver, type checker, SIR builder, capability
// analyzer, OIR builder, and LLVM-IR emitter into the four CLI entry points
// spec.md section 6 describes. It is grounded on the teacher's src/main.go
// run(opt)/main() split, though the pipeline itself has no counterpart in
// the teacher (an LLVM-IR-only backend, no assembler target selection).
package main

import (
	"fmt"
	"os"

	"github.com/GungYe918/parus-sub001/src/ast"
	"github.com/GungYe918/parus-sub001/src/capability"
	"github.com/GungYe918/parus-sub001/src/check"
	"github.com/GungYe918/parus-sub001/src/diag"
	"github.com/GungYe918/parus-sub001/src/lexer"
	"github.com/GungYe918/parus-sub001/src/llvmemit"
	"github.com/GungYe918/parus-sub001/src/macro"
	"github.com/GungYe918/parus-sub001/src/oir"
	"github.com/GungYe918/parus-sub001/src/parser"
	"github.com/GungYe918/parus-sub001/src/resolve"
	"github.com/GungYe918/parus-sub001/src/sir"
	"github.com/GungYe918/parus-sub001/src/source"
	"github.com/GungYe918/parus-sub001/src/token"
	"github.com/GungYe918/parus-sub001/src/typepool"
	"github.com/GungYe918/parus-sub001/src/util"
)

func main() {
	opt, err := util.ParseArgs()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	os.Exit(run(opt))
}

// pipelineResult bundles the artifacts of one full-program compile, for
// callers (the --all/--file modes, and tests) that need to inspect more
// than the process exit code.
type pipelineResult struct {
	Bag    *diag.Bag
	SIR    *sir.Module
	Caps   capability.Results
	OIR    *oir.Module
	LLVMIR string
}

// compileProgram runs the lexer through the LLVM-IR emitter over a single
// in-memory source text and returns every stage's artifacts, stopping
// early (per spec.md section 7's gating rules) the first time a required
// gate fails. It is the same sequence run() drives for ModeAll/ModeFile,
// factored out so tests can exercise the spec's concrete scenarios without
// going through argv/file plumbing.
func compileProgram(text string) pipelineResult {
	srcMgr := source.NewManager()
	fileID := srcMgr.AddText("<test>", text)

	bag := diag.NewBag()
	a := ast.NewArena()
	pool := typepool.NewPool()

	toks := lexTokens(text, fileID, bag)
	p := parser.New(toks, a, pool, bag, 64)
	root := p.ParseProgram()

	reparse := func(ctx macro.Context, ctoks []token.Token) (ast.NodeID, bool) {
		switch ctx {
		case macro.CtxExpr:
			return parser.ParseExprFull(ctoks, a, pool, bag)
		case macro.CtxStmt:
			return parser.ParseStmtFull(ctoks, a, pool, bag)
		case macro.CtxItem:
			return parser.ParseItemFull(ctoks, a, pool, bag)
		case macro.CtxType:
			ty, ok := parser.ParseTypeFull(ctoks, a, pool, bag)
			if !ok {
				return ast.NoNode, false
			}
			tv := a.New(ast.Node{Kind: ast.KTypeValue})
			tvNode := a.Get(tv)
			tvNode.Type = ty
			a.Set(tv, tvNode)
			return tv, true
		default:
			return ast.NoNode, false
		}
	}
	expander := macro.NewExpander(a, pool, bag, reparse, macro.DefaultBatchBudget())
	root = expander.Run(root)

	resolver := resolve.New(a, bag, resolve.ShadowAllow)
	resolved := resolver.Run(root)

	checker := check.New(a, pool, bag, resolved)
	checker.CheckStmt(root)
	checker.FinalizePending()

	res := pipelineResult{Bag: bag}
	if bag.HasError() {
		return res
	}

	sirBuilder := sir.NewBuilder(a, pool, resolved)
	sirMod := sirBuilder.BuildProgram(root)
	res.SIR = sirMod
	sirClean := len(sir.Verify(sirMod)) == 0

	caps := capability.Analyze(sirMod, pool, bag)
	res.Caps = caps
	if bag.HasError() {
		return res
	}

	oirMod := oir.Build(sirMod, pool, sirClean, caps)
	res.OIR = oirMod
	if !oirMod.GatePassed {
		return res
	}

	ir, _ := llvmemit.Emit(oirMod, pool, "<test>")
	res.LLVMIR = ir
	return res
}

// run executes the full pipeline once for opt, printing rendered
// diagnostics to stderr and any requested dump to stdout, and returns the
// process exit code spec.md section 7 specifies: 0 on success, 1 on any
// error-severity diagnostic or gate failure.
func run(opt util.Options) int {
	text, err := util.ReadSource(opt)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	srcMgr := source.NewManager()
	name := opt.Src
	if name == "" {
		name = "<stdin>"
	}
	fileID := srcMgr.AddText(name, text)

	bag := diag.NewBag()
	a := ast.NewArena()
	pool := typepool.NewPool()

	toks := lexTokens(text, fileID, bag)

	var root ast.NodeID
	switch opt.Mode {
	case util.ModeExpr:
		root, _ = parser.ParseExprFull(toks, a, pool, bag)
	case util.ModeStmt:
		root, _ = parser.ParseStmtFull(toks, a, pool, bag)
	default: // ModeAll, ModeFile
		p := parser.New(toks, a, pool, bag, opt.MaxErrors)
		root = p.ParseProgram()
	}

	reparse := func(ctx macro.Context, ctoks []token.Token) (ast.NodeID, bool) {
		switch ctx {
		case macro.CtxExpr:
			return parser.ParseExprFull(ctoks, a, pool, bag)
		case macro.CtxStmt:
			return parser.ParseStmtFull(ctoks, a, pool, bag)
		case macro.CtxItem:
			return parser.ParseItemFull(ctoks, a, pool, bag)
		case macro.CtxType:
			ty, ok := parser.ParseTypeFull(ctoks, a, pool, bag)
			if !ok {
				return ast.NoNode, false
			}
			tv := a.New(ast.Node{Kind: ast.KTypeValue})
			tvNode := a.Get(tv)
			tvNode.Type = ty
			a.Set(tv, tvNode)
			return tv, true
		default:
			return ast.NoNode, false
		}
	}
	budget := macro.DefaultBatchBudget()
	expander := macro.NewExpander(a, pool, bag, reparse, budget)
	root = expander.Run(root)

	shadowPolicy := resolve.ShadowAllow
	switch opt.Shadow {
	case util.ShadowWarn:
		shadowPolicy = resolve.ShadowWarn
	case util.ShadowError:
		shadowPolicy = resolve.ShadowError
	}
	resolver := resolve.New(a, bag, shadowPolicy)
	resolved := resolver.Run(root)

	checker := check.New(a, pool, bag, resolved)
	checker.CheckStmt(root)
	checker.FinalizePending()

	lang := diag.LangEN
	if opt.Lang == "ko" {
		lang = diag.LangKO
	}

	if opt.Mode == util.ModeExpr || opt.Mode == util.ModeStmt {
		printer := ast.Printer{A: a, Pool: pool}
		fmt.Println(printer.Expr(root))
		renderDiagnostics(bag, srcMgr, lang, opt.Context)
		if bag.HasError() {
			return 1
		}
		return 0
	}

	var oirMod *oir.Module
	var ir string
	if !bag.HasError() {
		sirBuilder := sir.NewBuilder(a, pool, resolved)
		sirMod := sirBuilder.BuildProgram(root)
		sirClean := len(sir.Verify(sirMod)) == 0

		caps := capability.Analyze(sirMod, pool, bag)
		if !bag.HasError() {
			oirMod = oir.Build(sirMod, pool, sirClean, caps)
			if oirMod.GatePassed {
				var emitErr error
				ir, emitErr = llvmemit.Emit(oirMod, pool, name)
				if emitErr != nil {
					fmt.Fprintln(os.Stderr, emitErr)
				}
			}
		}
	}

	renderDiagnostics(bag, srcMgr, lang, opt.Context)

	if bag.HasError() {
		return 1
	}
	if oirMod == nil || !oirMod.GatePassed {
		fmt.Fprintln(os.Stderr, "oir gate failed")
		return 1
	}
	if opt.DumpOIR {
		fmt.Println(oirMod.String())
		fmt.Println(ir)
	}
	return 0
}

// lexTokens drains a Lexer's channel into a slice: the parser (unlike the
// teacher's yacc-generated parser, which pulls one token at a time via
// Lex) consumes a complete pre-lexed buffer, per parser.go's doc comment.
func lexTokens(src string, file diag.FileID, bag *diag.Bag) []token.Token {
	l := lexer.New(src, file, bag)
	go l.Run()
	var toks []token.Token
	for t := range l.Tokens {
		toks = append(toks, t)
	}
	return toks
}

// renderDiagnostics prints every diagnostic collected during the run, with
// source-line context, mirroring the teacher's single-pass stderr
// reporting.
func renderDiagnostics(bag *diag.Bag, srcMgr *source.Manager, lang diag.Lang, context int) {
	for _, d := range bag.All() {
		printDiagnostic(d, srcMgr, lang, context)
	}
}

func printDiagnostic(d diag.Diagnostic, srcMgr *source.Manager, lang diag.Lang, context int) {
	pos := srcMgr.Position(d.Span.File, d.Span.Lo)
	msg := diag.Render(d, lang)
	fmt.Fprintf(os.Stderr, "%s: %s:%d:%d: %s\n", d.Severity, srcMgr.Name(d.Span.File), pos.Line, pos.Col, msg)
	if context <= 0 {
		return
	}
	printContext(srcMgr, d.Span.File, pos.Line, context)
}

func printContext(srcMgr *source.Manager, file diag.FileID, line, context int) {
	text := srcMgr.Text(file)
	lines := splitLines(text)
	lo := line - context
	if lo < 1 {
		lo = 1
	}
	hi := line + context
	if hi > len(lines) {
		hi = len(lines)
	}
	for i := lo; i <= hi; i++ {
		marker := "  "
		if i == line {
			marker = "> "
		}
		fmt.Fprintf(os.Stderr, "%s%4d | %s\n", marker, i, lines[i-1])
	}
}

func splitLines(text string) []string {
	var lines []string
	start := 0
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			lines = append(lines, text[start:i])
			start = i + 1
		}
	}
	lines = append(lines, text[start:])
	return lines
}
