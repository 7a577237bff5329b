package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"lox/internal/journal"
	"lox/internal/log"
	"lox/internal/repl"
	"lox/internal/runtime"
	"lox/internal/suite"
	"lox/internal/util"
	"os"
)

var (
	Version   = "dev"
	BuildDate = "unknown"
	Commit    = "unknown"
	help      bool
	version   bool
	// config file
	configPath string
	// logging
	logLevel string
	logFile  string
	// parser config
	debugAST    bool
	debugTxtAST bool
	// run journal
	journalDriver string
	journalDSN    string
	// conformance suite
	conformance string
)

func init() {
	flag.BoolVar(&help, "help", false, "Display help information and exit")
	flag.BoolVar(&help, "h", false, "Display help information and exit")
	flag.BoolVar(&version, "version", false, "Display version information and exit")
	flag.BoolVar(&version, "v", false, "Display version information and exit")
	flag.StringVar(&configPath, "config", "", "Configuration file (default $LOX_HOME/lox.toml)")
	// parser config
	flag.BoolVar(&debugAST, "debug-ast", false, "Render the AST as a JSON file")
	flag.BoolVar(&debugTxtAST, "debug-ast-txt", false, "Render the AST as a text file")
	// log config
	flag.StringVar(&logLevel, "log-level", "none", "Log level: trace, debug, info, warn, error, none")
	flag.StringVar(&logFile, "log-file", "", "Log file path (if not set, logs to stderr)")
	// journal config
	flag.StringVar(&journalDriver, "journal-driver", "", "Record runs with this database driver: sqlite, mysql, postgres")
	flag.StringVar(&journalDSN, "journal-dsn", "", "Data source name for the run journal")
	flag.StringVar(&conformance, "conformance", "", "Run a YAML conformance suite and exit")
}

func main() {
	os.Exit(run())
}

func run() int {
	flag.Parse()

	if version {
		printVersion()
		return runtime.ExitOK
	}

	if help {
		printHelp()
		return runtime.ExitOK
	}

	config, err := loadConfiguration()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return runtime.ExitUsage
	}

	logger := log.InitLogger(config.LogLevel, config.LogFile)
	defer logger.Close()

	ctx := context.Background()
	rt := runtime.NewRuntime(config)

	if config.JournalDriver != "" {
		j, err := journal.Open(ctx, config.JournalDriver, config.JournalDSN)
		if err != nil {
			fmt.Fprintf(os.Stderr, "could not open run journal: %v\n", err)
			return runtime.ExitIO
		}
		defer j.Close()
		rt.Journal = j
	}

	if conformance != "" {
		return runSuite(ctx, rt, conformance)
	}

	switch args := flag.Args(); len(args) {
	case 0:
		if err := repl.Start(ctx, rt); err != nil {
			slog.Error("repl", slog.Any("error", err))
			return runtime.ExitIO
		}
		return runtime.ExitOK
	case 1:
		return runFile(ctx, rt, args[0])
	default:
		fmt.Fprintln(os.Stderr, "Usage: lox [options] [script]")
		return runtime.ExitUsage
	}
}

// loadConfiguration layers defaults, the config file and explicitly set flags.
func loadConfiguration() (util.Configuration, error) {
	config := util.DefaultConfiguration()
	config.Version = Version
	config.BuildDate = BuildDate
	config.Commit = Commit

	path := configPath
	if path == "" {
		if p := util.DefaultConfigPath(); p != "" {
			if _, err := os.Stat(p); err == nil {
				path = p
			}
		}
	}
	if path != "" {
		loaded, err := util.LoadConfigFile(path, config)
		if err != nil {
			return config, err
		}
		config = loaded
	}

	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "log-level":
			config.LogLevel = logLevel
		case "log-file":
			config.LogFile = logFile
		case "debug-ast":
			config.DebugJsonAST = debugAST
		case "debug-ast-txt":
			config.DebugTxtAST = debugTxtAST
		case "journal-driver":
			config.JournalDriver = journalDriver
		case "journal-dsn":
			config.JournalDSN = journalDSN
		}
	})
	return config, nil
}

func runFile(ctx context.Context, rt *runtime.Runtime, path string) int {
	res, err := rt.RunFile(ctx, path, os.Stdout)
	if res == nil {
		fmt.Fprintln(os.Stderr, err)
		return runtime.ExitIO
	}
	for _, msg := range res.Errors() {
		fmt.Fprintln(os.Stderr, msg)
	}
	return res.ExitCode()
}

func runSuite(ctx context.Context, rt *runtime.Runtime, path string) int {
	s, err := suite.Load(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return runtime.ExitIO
	}
	failures := s.Run(ctx, rt)
	for _, f := range failures {
		fmt.Println("FAIL", f)
	}
	fmt.Printf("%s: %d cases, %d failures\n", s.Name, len(s.Cases), len(failures))
	if len(failures) > 0 {
		return 1
	}
	return runtime.ExitOK
}

func printVersion() {
	fmt.Printf("lox version 'v%s' %s %s\n", Version, BuildDate, Commit)
}

func printHelp() {
	fmt.Printf(`Usage: lox [options] [script]

Options:
  -config <path>          Configuration file. Default is $LOX_HOME/lox.toml when present.
  -debug-ast              Render the AST as a JSON file next to the script.
  -debug-ast-txt          Render the AST as a text file next to the script.
  -help                   Display this help information and exit.
  -version                Display version information and exit.
  -log-level <level>      Set the log level: trace, debug, info, warn, error, none. Default is 'none'.
  -log-file <path>        Specify a log file to write logs. Default is stderr.
  -journal-driver <name>  Record every run: sqlite, mysql or postgres.
  -journal-dsn <dsn>      Data source name for the journal database.
  -conformance <file>     Run a YAML conformance suite and exit.

Details:
Without a script an interactive session starts. Exit codes: 64 usage,
65 compile error, 70 runtime error, 74 I/O error.

Examples:
  lox                                   Start the REPL
  lox script.lox                        Run a script
  lox -journal-driver=sqlite -journal-dsn=runs.db script.lox

Version Information:
  Version:    %s
  Build Date: %s
  Commit:     %s
`, Version, BuildDate, Commit)
}
