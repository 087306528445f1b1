// Package util parses the compiler's command-line surface and reads source
// text, grounded on the teacher's src/util/args.go and src/util/io.go: the
// same hand-rolled index-based flag loop (no flag package — the teacher
// never imports one, and a handful of value-taking and boolean flags don't
// justify pulling one in) and the same "last positional argument is the
// source path, stdin otherwise" convention. The target-triple flags
// (-arch/-os/-vendor/-t) have no counterpart here: this emitter only ever
// targets x86_64-unknown-linux-gnu (src/llvmemit/emit.go), so the backend
// selection surface the teacher exposes is replaced by this spec's own
// mode/diagnostics flags (spec.md section 6).
package util

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
)

// Mode selects which of the four CLI entry points (spec.md section 6) a
// run exercises.
type Mode int

const (
	ModeFile Mode = iota
	ModeExpr
	ModeStmt
	ModeAll
)

// Options holds one parsed invocation of the compiler binary.
type Options struct {
	Mode Mode
	Src  string // ModeFile: path to source file. ModeExpr/Stmt/All: the text itself.

	DumpOIR  bool // --dump oir / --dump-oir
	Lang     string
	Context  int // --context N, diagnostic source-line context
	MaxErrors int // -fmax-errors=N
	Shadow   ShadowMode
	Verbose  bool
}

// ShadowMode mirrors spec.md section 6's -Wshadow/-Werror=shadow pair.
type ShadowMode int

const (
	ShadowDefault ShadowMode = iota
	ShadowWarn
	ShadowError
)

const appVersion = "parus compiler 0.1"
const defaultMaxErrors = 64
const defaultContext = 2

// ParseArgs parses os.Args[1:] into Options. Lang, Context and MaxErrors
// start at their defaults ("en", 2, 64) and are overridden by their flags.
func ParseArgs() (Options, error) {
	opt := Options{Lang: "en", Context: defaultContext, MaxErrors: defaultMaxErrors}
	args := os.Args[1:]
	haveMode := false

	for i := 0; i < len(args); i++ {
		a := args[i]
		switch {
		case a == "-h" || a == "--h" || a == "-help" || a == "--help":
			printHelp()
			os.Exit(0)
		case a == "-v" || a == "--v" || a == "-version" || a == "--version":
			fmt.Println(appVersion)
			os.Exit(0)
		case a == "-vb" || a == "-verbose":
			opt.Verbose = true
		case a == "--dump" || a == "--dump-oir":
			if a == "--dump" {
				if i+1 >= len(args) || args[i+1] != "oir" {
					return opt, fmt.Errorf("--dump expects 'oir'")
				}
				i++
			}
			opt.DumpOIR = true
		case a == "--lang":
			if i+1 >= len(args) {
				return opt, fmt.Errorf("got flag %s but no argument", a)
			}
			switch args[i+1] {
			case "en", "ko":
				opt.Lang = args[i+1]
			default:
				return opt, fmt.Errorf("unexpected --lang value: %s", args[i+1])
			}
			i++
		case a == "--context":
			if i+1 >= len(args) {
				return opt, fmt.Errorf("got flag %s but no argument", a)
			}
			n, err := strconv.Atoi(args[i+1])
			if err != nil || n < 0 {
				return opt, fmt.Errorf("expected non-negative integer context, got: %s", args[i+1])
			}
			opt.Context = n
			i++
		case strings.HasPrefix(a, "-fmax-errors="):
			n, err := strconv.Atoi(strings.TrimPrefix(a, "-fmax-errors="))
			if err != nil || n <= 0 {
				return opt, fmt.Errorf("expected positive integer, got: %s", a)
			}
			opt.MaxErrors = n
		case a == "-Wshadow":
			opt.Shadow = ShadowWarn
		case a == "-Werror=shadow":
			opt.Shadow = ShadowError
		case a == "--file":
			if i+1 >= len(args) {
				return opt, fmt.Errorf("got flag %s but no argument", a)
			}
			opt.Mode, opt.Src, haveMode = ModeFile, args[i+1], true
			i++
		case a == "--expr":
			if i+1 >= len(args) {
				return opt, fmt.Errorf("got flag %s but no argument", a)
			}
			opt.Mode, opt.Src, haveMode = ModeExpr, args[i+1], true
			i++
		case a == "--stmt":
			if i+1 >= len(args) {
				return opt, fmt.Errorf("got flag %s but no argument", a)
			}
			opt.Mode, opt.Src, haveMode = ModeStmt, args[i+1], true
			i++
		case a == "--all":
			if i+1 >= len(args) {
				return opt, fmt.Errorf("got flag %s but no argument", a)
			}
			opt.Mode, opt.Src, haveMode = ModeAll, args[i+1], true
			i++
		case strings.HasPrefix(a, "-"):
			return opt, fmt.Errorf("unexpected flag: %s", a)
		default:
			// A bare positional argument is a source path, same as the
			// teacher's "last non-flag argument is opt.Src" convention.
			opt.Mode, opt.Src, haveMode = ModeFile, a, true
		}
	}

	if !haveMode {
		opt.Mode = ModeFile // ReadSource falls back to stdin.
	}
	return opt, nil
}

func printHelp() {
	w := tabwriter.NewWriter(os.Stdout, 6, 1, 1, 0, 0)
	_, _ = fmt.Fprintln(w, "-h, -help\tPrints this help message and exits.")
	_, _ = fmt.Fprintln(w, "-v, -version\tPrints the compiler version and exits.")
	_, _ = fmt.Fprintln(w, "--file <path>\tCompile a full program read from a file.")
	_, _ = fmt.Fprintln(w, "--expr \"<text>\"\tParse and type-check a single expression.")
	_, _ = fmt.Fprintln(w, "--stmt \"<text>\"\tParse and type-check a single statement.")
	_, _ = fmt.Fprintln(w, "--all \"<text>\"\tCompile a full program given as a single argument.")
	_, _ = fmt.Fprintln(w, "--dump oir, --dump-oir\tDump the OIR and LLVM-IR once the OIR gate passes.")
	_, _ = fmt.Fprintln(w, "--lang en|ko\tDiagnostic rendering language.")
	_, _ = fmt.Fprintln(w, "--context N\tLines of source context shown around a diagnostic.")
	_, _ = fmt.Fprintln(w, "-fmax-errors=N\tFatal error cap (default 64).")
	_, _ = fmt.Fprintln(w, "-Wshadow, -Werror=shadow\tShadowing policy.")
	_, _ = fmt.Fprintln(w, "-vb, -verbose\tPrint extra compiler diagnostics to stdout.")
	_ = w.Flush()
}
