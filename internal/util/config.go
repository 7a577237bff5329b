package util

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

const (
	HomeEnv        = "LOX_HOME"
	ConfigFileName = "lox.toml"
)

type Configuration struct {
	Version   string `toml:"-"`
	BuildDate string `toml:"-"`
	Commit    string `toml:"-"`

	RootPath     string `toml:"root_path"`
	LoxHome      string `toml:"-"`
	DebugJsonAST bool   `toml:"debug_ast_json"`
	DebugTxtAST  bool   `toml:"debug_ast_txt"`

	LogLevel    string `toml:"log_level"`
	LogFile     string `toml:"log_file"`
	HistoryFile string `toml:"history_file"`

	JournalDriver string `toml:"journal_driver"`
	JournalDSN    string `toml:"journal_dsn"`
}

func DefaultConfiguration() Configuration {
	return Configuration{
		RootPath: ".",
		LogLevel: "none",
		LoxHome:  os.Getenv(HomeEnv),
	}
}

// DefaultConfigPath is $LOX_HOME/lox.toml, or empty when LOX_HOME is unset.
func DefaultConfigPath() string {
	home := os.Getenv(HomeEnv)
	if home == "" {
		return ""
	}
	return filepath.Join(home, ConfigFileName)
}

// LoadConfigFile decodes path over base. Keys missing from the file keep the
// value already in base; unknown keys are an error.
func LoadConfigFile(path string, base Configuration) (Configuration, error) {
	cfg := base
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return base, fmt.Errorf("load config %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return base, fmt.Errorf("load config %s: unknown key %q", path, undecoded[0].String())
	}
	return cfg, nil
}
