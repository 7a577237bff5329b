package runtime

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"lox/internal/ast"
	"lox/internal/diag"
	"lox/internal/evaluator"
	"lox/internal/journal"
	"lox/internal/parser"
	"lox/internal/resolver"
	"lox/internal/util"
	"os"
	"time"
)

// Process exit codes, following the BSD sysexits convention.
const (
	ExitOK      = 0
	ExitUsage   = 64
	ExitStatic  = 65
	ExitRuntime = 70
	ExitIO      = 74
)

type Runtime struct {
	Config  util.Configuration
	Journal *journal.Journal // nil when runs are not recorded
	Options []evaluator.Option
}

func NewRuntime(config util.Configuration) *Runtime {
	return &Runtime{Config: config}
}

// Result describes one pass of a program through the pipeline. At most one of
// StaticErrors and RuntimeErr is set.
type Result struct {
	Output       string
	StaticErrors []*diag.StaticError
	RuntimeErr   error
	Duration     time.Duration
}

func (r *Result) ExitCode() int {
	switch {
	case len(r.StaticErrors) > 0:
		return ExitStatic
	case r.RuntimeErr != nil:
		return ExitRuntime
	default:
		return ExitOK
	}
}

func (r *Result) Status() journal.Status {
	switch {
	case len(r.StaticErrors) > 0:
		return journal.StatusStaticError
	case r.RuntimeErr != nil:
		return journal.StatusRuntimeError
	default:
		return journal.StatusOK
	}
}

// Errors renders every diagnostic of the run in report order.
func (r *Result) Errors() []string {
	var msgs []string
	for _, e := range r.StaticErrors {
		msgs = append(msgs, e.Error())
	}
	if r.RuntimeErr != nil {
		msgs = append(msgs, r.RuntimeErr.Error())
	}
	return msgs
}

// RunFile reads and runs the program at path. Debug AST dumps, when enabled,
// are written next to the file.
func (r *Runtime) RunFile(ctx context.Context, path string, out io.Writer) (*Result, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read %s: %w", path, err)
	}
	return r.run(ctx, path, string(source), out, true)
}

// Run executes source on a fresh evaluator. Program output goes to out as it
// is produced and is also captured in the Result. The returned error is only
// set when the run could not be journaled; language errors live in Result.
func (r *Runtime) Run(ctx context.Context, name, source string, out io.Writer) (*Result, error) {
	return r.run(ctx, name, source, out, false)
}

func (r *Runtime) run(ctx context.Context, name, source string, out io.Writer, debugAST bool) (*Result, error) {
	ev, capture := r.newEvaluator(out)
	res := r.execute(ctx, ev, capture, name, source, debugAST)
	return res, r.record(ctx, name, source, res)
}

func (r *Runtime) newEvaluator(out io.Writer) (*evaluator.Evaluator, *bytes.Buffer) {
	capture := &bytes.Buffer{}
	return evaluator.New(io.MultiWriter(out, capture), r.Options...), capture
}

func (r *Runtime) execute(ctx context.Context, ev *evaluator.Evaluator, capture *bytes.Buffer, name, source string, debugAST bool) *Result {
	start := time.Now()
	capture.Reset()
	res := &Result{}
	defer func() {
		res.Output = capture.String()
		res.Duration = time.Since(start)
		slog.Info("run finished",
			slog.String("name", name),
			slog.String("status", string(res.Status())),
			slog.Duration("duration", res.Duration))
	}()

	program, errs := parser.ParseSource(source)
	if debugAST {
		r.writeDebugAST(name, program)
	}
	if errs.Len() > 0 {
		res.StaticErrors = errs.Errors()
		return res
	}

	if errs := resolver.New(ev).Resolve(program.Statements); errs.Len() > 0 {
		res.StaticErrors = errs.Errors()
		return res
	}

	if err := ctx.Err(); err != nil {
		res.RuntimeErr = err
		return res
	}
	res.RuntimeErr = ev.Interpret(program.Statements)
	return res
}

func (r *Runtime) record(ctx context.Context, name, source string, res *Result) error {
	if r.Journal == nil {
		return nil
	}
	_, err := r.Journal.Record(ctx, journal.Entry{
		Name:         name,
		SourceSHA256: journal.Checksum(source),
		StartedAt:    time.Now().Add(-res.Duration),
		Duration:     res.Duration,
		Status:       res.Status(),
		Output:       res.Output,
		Errors:       res.Errors(),
	})
	if err != nil {
		slog.Warn("failed to journal run", slog.String("name", name), slog.Any("error", err))
	}
	return err
}

// writeDebugAST dumps the parsed program next to its source file.
func (r *Runtime) writeDebugAST(fullPath string, program *ast.Program) {
	if r.Config.DebugJsonAST {
		json, err := parser.RenderASTAsJSON(program)
		if err != nil {
			slog.Error("Failed to render AST as JSON",
				slog.Any("error", err))
		} else {
			jsonPath := fullPath + ".ast.json"
			if err := os.WriteFile(jsonPath, []byte(json), 0644); err != nil {
				slog.Error("Failed to write AST as JSON",
					slog.String("path", jsonPath),
					slog.Any("error", err))
			}
		}
	}
	if r.Config.DebugTxtAST {
		txtPath := fullPath + ".ast.txt"
		text := parser.RenderASTAsText(program)
		if err := os.WriteFile(txtPath, []byte(text), 0644); err != nil {
			slog.Error("Failed to write AST as text",
				slog.String("path", txtPath),
				slog.Any("error", err))
		}
	}
}

// Session keeps one evaluator alive across inputs, so globals declared by one
// input are visible to the next.
type Session struct {
	rt      *Runtime
	ev      *evaluator.Evaluator
	capture *bytes.Buffer
	inputs  int
}

func (r *Runtime) NewSession(out io.Writer) *Session {
	ev, capture := r.newEvaluator(out)
	return &Session{rt: r, ev: ev, capture: capture}
}

// Eval runs one input. A static or runtime error only affects this input.
func (s *Session) Eval(ctx context.Context, source string) (*Result, error) {
	s.inputs++
	name := fmt.Sprintf("<repl:%d>", s.inputs)
	res := s.rt.execute(ctx, s.ev, s.capture, name, source, false)
	return res, s.rt.record(ctx, name, source, res)
}
