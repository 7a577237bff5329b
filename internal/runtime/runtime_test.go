package runtime

import (
	"bytes"
	"context"
	"lox/internal/diag"
	"lox/internal/journal"
	"lox/internal/util"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRunOutcomes(t *testing.T) {
	tests := []struct {
		name     string
		source   string
		output   string
		exitCode int
		errors   []string
	}{
		{"ok", "print 1 + 1;", "2\n", ExitOK, nil},
		{"syntax", "print 1", "", ExitStatic, []string{"[line 1] Error at end: Expect ';' after value."}},
		{"resolver", "{ var a = a; }", "", ExitStatic,
			[]string{"[line 1] Error at 'a': Can't read local variable in its own initializer."}},
		{"runtime", "print 1;\nprint -nil;", "1\n", ExitRuntime, []string{"Operand must be a number.\n[line 2]"}},
		{"arity", "fun add(a,b) { return a+b; } add(1);", "", ExitRuntime, []string{"Expected 2 arguments but got 1.\n[line 1]"}},
	}

	rt := NewRuntime(util.DefaultConfiguration())
	for _, tt := range tests {
		var out bytes.Buffer
		res, err := rt.Run(context.Background(), tt.name, tt.source, &out)
		if err != nil {
			t.Fatalf("%s: unexpected error %v", tt.name, err)
		}
		if res.Output != tt.output || out.String() != tt.output {
			t.Errorf("%s: expected output %q, got result=%q writer=%q", tt.name, tt.output, res.Output, out.String())
		}
		if res.ExitCode() != tt.exitCode {
			t.Errorf("%s: expected exit code %d, got %d", tt.name, tt.exitCode, res.ExitCode())
		}
		got := res.Errors()
		if strings.Join(got, "|") != strings.Join(tt.errors, "|") {
			t.Errorf("%s: expected errors %q, got %q", tt.name, tt.errors, got)
		}
	}
}

func TestStaticErrorsPreventEvaluation(t *testing.T) {
	rt := NewRuntime(util.DefaultConfiguration())
	var out bytes.Buffer
	res, _ := rt.Run(context.Background(), "mixed", `print "side effect";
fun f() { var x = 1; var x = 2; }`, &out)

	if out.Len() != 0 {
		t.Errorf("program ran despite static errors: %q", out.String())
	}
	if len(res.StaticErrors) != 1 || res.StaticErrors[0].Kind != diag.DuplicateLocal {
		t.Errorf("unexpected static errors %v", res.Errors())
	}
	if res.Status() != journal.StatusStaticError {
		t.Errorf("unexpected status %s", res.Status())
	}
}

func TestSessionKeepsGlobals(t *testing.T) {
	rt := NewRuntime(util.DefaultConfiguration())
	var out bytes.Buffer
	s := rt.NewSession(&out)
	ctx := context.Background()

	inputs := []struct {
		source string
		output string
		code   int
	}{
		{"var count = 0;", "", ExitOK},
		{"fun bump() { count = count + 1; return count; }", "", ExitOK},
		{"print bump();", "1\n", ExitOK},
		{"print nope;", "", ExitRuntime},
		{"{ var a = a; }", "", ExitStatic},
		{"print bump();", "2\n", ExitOK},
	}
	for i, in := range inputs {
		res, err := s.Eval(ctx, in.source)
		if err != nil {
			t.Fatalf("input %d: unexpected error %v", i, err)
		}
		if res.Output != in.output {
			t.Errorf("input %d: expected output %q, got %q", i, in.output, res.Output)
		}
		if res.ExitCode() != in.code {
			t.Errorf("input %d: expected exit code %d, got %d", i, in.code, res.ExitCode())
		}
	}
}

func TestRunFileWritesDebugAST(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "main.lox")
	if err := os.WriteFile(path, []byte("var a = 1;\nprint a;\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := util.DefaultConfiguration()
	cfg.DebugJsonAST = true
	cfg.DebugTxtAST = true
	rt := NewRuntime(cfg)

	var out bytes.Buffer
	res, err := rt.RunFile(context.Background(), path, &out)
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if res.Output != "1\n" {
		t.Errorf("unexpected output %q", res.Output)
	}

	txt, err := os.ReadFile(path + ".ast.txt")
	if err != nil {
		t.Fatalf("text AST not written: %v", err)
	}
	if !strings.Contains(string(txt), "(var a = 1)") {
		t.Errorf("unexpected text AST %q", txt)
	}
	if _, err := os.Stat(path + ".ast.json"); err != nil {
		t.Errorf("JSON AST not written: %v", err)
	}

	if _, err := rt.RunFile(context.Background(), filepath.Join(dir, "missing.lox"), &out); err == nil {
		t.Errorf("expected an error for a missing file")
	}
}

func TestRunsAreJournaled(t *testing.T) {
	ctx := context.Background()
	j, err := journal.Open(ctx, "sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("open journal: %v", err)
	}
	defer j.Close()

	rt := NewRuntime(util.DefaultConfiguration())
	rt.Journal = j

	var out bytes.Buffer
	rt.Run(ctx, "good", "print \"hi\";", &out)
	rt.Run(ctx, "bad", "print x;", &out)

	entries, err := j.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	bad, good := entries[0], entries[1]
	if good.Name != "good" || good.Status != journal.StatusOK || good.Output != "hi\n" {
		t.Errorf("unexpected entry %+v", good)
	}
	if bad.Status != journal.StatusRuntimeError || len(bad.Errors) != 1 {
		t.Errorf("unexpected entry %+v", bad)
	}
	if good.SourceSHA256 != journal.Checksum("print \"hi\";") {
		t.Errorf("unexpected checksum %s", good.SourceSHA256)
	}
}
