package repl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"lox/internal/lexer"
	"lox/internal/parser"
	"lox/internal/runtime"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"
)

const (
	PROMPT      = "> "
	PROMPT_CONT = "... "
	historyName = ".lox_history"
	banner      = "Lox REPL. Ctrl+C cancels the current input, Ctrl+D exits. Type :help for commands."
	helpText    = `REPL commands:
  :help            Show this help
  :quit / :exit    Leave the REPL
  :load <file>     Run a file in the current session
  :reset           Start over with empty globals
`
)

// LineReader is the part of liner.State the loop needs.
type LineReader interface {
	Prompt(prompt string) (string, error)
}

type Repl struct {
	rt      *runtime.Runtime
	session *runtime.Session
	in      LineReader
	out     io.Writer
	errOut  io.Writer
	history func(string)
}

func New(rt *runtime.Runtime, in LineReader, out, errOut io.Writer) *Repl {
	return &Repl{
		rt:      rt,
		session: rt.NewSession(out),
		in:      in,
		out:     out,
		errOut:  errOut,
		history: func(string) {},
	}
}

// Start runs an interactive session on the terminal with persistent history.
func Start(ctx context.Context, rt *runtime.Runtime) error {
	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	histPath := historyPath(rt.Config.HistoryFile)
	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}

	fmt.Println(banner)
	r := New(rt, ln, os.Stdout, os.Stderr)
	r.history = ln.AppendHistory
	r.Run(ctx)

	f, err := os.Create(histPath)
	if err != nil {
		slog.Warn("could not save history", slog.String("path", histPath), slog.Any("error", err))
		return nil
	}
	defer f.Close()
	_, err = ln.WriteHistory(f)
	return err
}

func historyPath(configured string) string {
	if configured != "" {
		return configured
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return historyName
	}
	return filepath.Join(home, historyName)
}

// Run reads inputs until end of input or :quit. Errors in one input are
// reported and the loop carries on with the next.
func (r *Repl) Run(ctx context.Context) {
	for {
		code, ok := r.readInput()
		if !ok {
			fmt.Fprintln(r.out)
			return
		}

		trimmed := strings.TrimSpace(code)
		if trimmed == "" {
			continue
		}
		if strings.HasPrefix(trimmed, ":") {
			if done := r.command(ctx, trimmed); done {
				return
			}
			continue
		}

		r.eval(ctx, code)
		r.history(strings.ReplaceAll(code, "\n", " "))
	}
}

func (r *Repl) eval(ctx context.Context, code string) {
	res, err := r.session.Eval(ctx, code)
	if err != nil {
		slog.Warn("session input not journaled", slog.Any("error", err))
	}
	for _, msg := range res.Errors() {
		fmt.Fprintln(r.errOut, msg)
	}
}

func (r *Repl) command(ctx context.Context, line string) (exit bool) {
	fields := strings.Fields(line)
	switch strings.ToLower(fields[0]) {
	case ":help":
		fmt.Fprint(r.out, helpText)

	case ":quit", ":exit":
		return true

	case ":reset":
		r.session = r.rt.NewSession(r.out)
		fmt.Fprintln(r.out, "session reset.")

	case ":load":
		if len(fields) < 2 {
			fmt.Fprintln(r.errOut, "usage: :load <file>")
			return false
		}
		src, err := os.ReadFile(fields[1])
		if err != nil {
			fmt.Fprintf(r.errOut, "cannot read %s: %v\n", fields[1], err)
			return false
		}
		r.eval(ctx, string(src))

	default:
		fmt.Fprintln(r.errOut, "unknown command. Type :help for help.")
	}
	return false
}

// readInput keeps prompting while the buffered text only fails to parse
// because it ends too early.
func (r *Repl) readInput() (string, bool) {
	var b strings.Builder

	for {
		prompt := PROMPT
		if b.Len() > 0 {
			prompt = PROMPT_CONT
		}
		line, err := r.in.Prompt(prompt)
		if errors.Is(err, io.EOF) {
			if b.Len() > 0 {
				return b.String(), true
			}
			return "", false
		}
		if errors.Is(err, liner.ErrPromptAborted) {
			b.Reset()
			continue
		}
		if err != nil {
			slog.Error("reading input failed", slog.Any("error", err))
			return "", false
		}

		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)

		code := b.String()
		if strings.HasPrefix(strings.TrimSpace(code), ":") || !needsMoreInput(code) {
			return code, true
		}
	}
}

func needsMoreInput(src string) bool {
	l := lexer.New(src)
	p := parser.New(l.ScanTokens())
	p.ParseProgram()

	for _, e := range l.Errors().Errors() {
		if e.Message != "Unterminated string." {
			return false
		}
	}
	return p.IncompleteInput()
}
