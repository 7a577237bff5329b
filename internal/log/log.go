package log

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
)

type Level int

const (
	TRACE Level = iota
	DEBUG
	INFO
	WARN
	ERROR
	NONE
)

var levelNames = [...]string{"TRACE", "DEBUG", "INFO", "WARN", "ERROR", "NONE"}

// LevelTrace sits below slog's debug level; the handler prints it as TRACE.
const LevelTrace = slog.LevelDebug - 4

// levelOff is above anything the interpreter logs.
const levelOff = slog.LevelError + 100

func (l Level) String() string {
	if l < TRACE || l > NONE {
		return fmt.Sprintf("Level(%d)", int(l))
	}
	return levelNames[l]
}

// Slog maps the level onto the slog scale.
func (l Level) Slog() slog.Level {
	switch l {
	case TRACE:
		return LevelTrace
	case DEBUG:
		return slog.LevelDebug
	case INFO:
		return slog.LevelInfo
	case WARN:
		return slog.LevelWarn
	case ERROR:
		return slog.LevelError
	default:
		return levelOff
	}
}

func ParseLevel(s string) Level {
	switch strings.ToLower(s) {
	case "trace":
		return TRACE
	case "debug":
		return DEBUG
	case "info":
		return INFO
	case "warn":
		return WARN
	case "error":
		return ERROR
	default:
		return NONE
	}
}

// Logger is the destination behind the default slog logger: stderr, or a
// file that is reopened on SIGHUP so it can be rotated.
type Logger struct {
	level      Level
	path       string
	fileHandle *os.File
	out        io.Writer
	mu         sync.Mutex
	sigs       chan os.Signal
}

var Log *Logger

// InitLogger installs a JSON slog handler as the process default. A log file
// that cannot be opened falls back to stderr.
func InitLogger(logLevel string, logFile string) *Logger {
	l := &Logger{level: ParseLevel(logLevel), out: os.Stderr}

	if logFile != "" {
		fh, err := openLogFile(logFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to open log file '%s': %v; falling back to stderr\n", logFile, err)
		} else {
			l.path = logFile
			l.fileHandle = fh
			l.out = fh
		}
	}

	slog.SetDefault(slog.New(l.Handler()))
	l.setupLogRotation()
	Log = l
	return l
}

// NewLogger writes to w without any file handling.
func NewLogger(level Level, w io.Writer) *Logger {
	return &Logger{level: level, out: w}
}

func (l *Logger) Level() Level {
	return l.level
}

func (l *Logger) Handler() slog.Handler {
	return slog.NewJSONHandler(l, &slog.HandlerOptions{
		AddSource:   false,
		Level:       l.level.Slog(),
		ReplaceAttr: replaceLevelName,
	})
}

func (l *Logger) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.out.Write(p)
}

func replaceLevelName(_ []string, a slog.Attr) slog.Attr {
	if a.Key != slog.LevelKey {
		return a
	}
	if lvl, ok := a.Value.Any().(slog.Level); ok && lvl <= LevelTrace {
		a.Value = slog.StringValue("TRACE")
	}
	return a
}

func openLogFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	return os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
}

func (l *Logger) reopenLogFile() error {
	fh, err := openLogFile(l.path)
	if err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.fileHandle != nil {
		l.fileHandle.Close()
	}
	l.fileHandle = fh
	l.out = fh
	return nil
}

func (l *Logger) setupLogRotation() {
	if l.fileHandle == nil {
		return
	}

	/*
	 * when logging to a file, SIGHUP reopens it after rotation
	 * mv lox.log lox.bak && kill -HUP <pid>
	 */
	l.sigs = make(chan os.Signal, 1)
	signal.Notify(l.sigs, syscall.SIGHUP)
	go func() {
		for range l.sigs {
			if err := l.reopenLogFile(); err != nil {
				fmt.Fprintf(os.Stderr, "could not reopen log file: %v\n", err)
			}
		}
	}()
}

func (l *Logger) Close() error {
	if l.sigs != nil {
		signal.Stop(l.sigs)
		close(l.sigs)
		l.sigs = nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.fileHandle == nil {
		return nil
	}
	err := l.fileHandle.Close()
	l.fileHandle = nil
	l.out = os.Stderr
	return err
}

func Close() {
	if Log != nil {
		_ = Log.Close()
	}
}
