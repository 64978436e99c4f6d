// Package config loads todos settings from, in increasing priority:
// built-in defaults, a TOML file, environment variables and CLI flags.
package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/sadopc/todos/internal/store"
	"github.com/sadopc/todos/internal/todo"
)

const appName = "todos"

type Config struct {
	DBPath     string `toml:"db_path"`
	StorageKey string `toml:"storage_key"`
	LogPath    string `toml:"log_path"`
	LogLevel   string `toml:"log_level"`
	ExportDir  string `toml:"export_dir"`
	Mouse      bool   `toml:"mouse"`
	AltScreen  bool   `toml:"alt_screen"`

	// File is the config file that was read, empty when none was found.
	File string `toml:"-"`
}

// Load builds the configuration. fs receives the CLI flags; args are the
// arguments after the program name.
func Load(fs *flag.FlagSet, args []string) (*Config, error) {
	if fs == nil {
		fs = flag.NewFlagSet(appName, flag.ContinueOnError)
	}
	var (
		configPath = fs.String("config", "", "path to config.toml")
		dbPath     = fs.String("db", "", "path to the SQLite database")
		logPath    = fs.String("log", "", "path to the log file")
		logLevel   = fs.String("log-level", "", "log level: debug, info, warn, error")
		exportDir  = fs.String("export-dir", "", "directory exports are written to")
		noMouse    = fs.Bool("no-mouse", false, "disable mouse support")
	)
	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parsing flags: %w", err)
	}

	cfg := &Config{}

	// 1. Defaults
	if err := setDefaults(cfg); err != nil {
		return nil, err
	}

	// 2. Config file
	file := *configPath
	if file == "" {
		file = os.Getenv("TODOS_CONFIG")
	}
	explicit := file != ""
	if file == "" {
		file = defaultConfigFile()
	}
	if file != "" {
		if err := loadConfigFile(cfg, expandPath(file)); err != nil {
			if explicit || !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("loading config file %s: %w", file, err)
			}
		} else {
			cfg.File = expandPath(file)
		}
	}

	// 3. Environment
	loadFromEnv(cfg)

	// 4. Flags that were set explicitly
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "db":
			cfg.DBPath = *dbPath
		case "log":
			cfg.LogPath = *logPath
		case "log-level":
			cfg.LogLevel = *logLevel
		case "export-dir":
			cfg.ExportDir = *exportDir
		case "no-mouse":
			cfg.Mouse = !*noMouse
		}
	})

	// 5. Derived values
	if err := finalize(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(cfg *Config) error {
	db, err := store.DefaultDBPath()
	if err != nil {
		return fmt.Errorf("resolve database path: %w", err)
	}
	cfg.DBPath = db
	cfg.StorageKey = todo.StorageKey
	cfg.LogPath = defaultLogPath()
	cfg.LogLevel = "info"
	if home, err := os.UserHomeDir(); err == nil {
		cfg.ExportDir = home
	}
	cfg.Mouse = true
	cfg.AltScreen = true
	return nil
}

func loadConfigFile(cfg *Config, path string) error {
	if _, err := os.Stat(path); err != nil {
		return err
	}
	_, err := toml.DecodeFile(path, cfg)
	return err
}

func loadFromEnv(cfg *Config) {
	if v := os.Getenv("TODOS_DB"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("TODOS_LOG"); v != "" {
		cfg.LogPath = v
	}
	if v := os.Getenv("TODOS_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("TODOS_EXPORT_DIR"); v != "" {
		cfg.ExportDir = v
	}
}

func finalize(cfg *Config) error {
	cfg.DBPath = expandPath(cfg.DBPath)
	cfg.LogPath = expandPath(cfg.LogPath)
	cfg.ExportDir = expandPath(cfg.ExportDir)
	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))
	if strings.TrimSpace(cfg.StorageKey) == "" {
		return errors.New("storage_key must not be empty")
	}
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", cfg.LogLevel)
	}
	return nil
}

func defaultConfigFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, appName, "config.toml")
}

func defaultLogPath() string {
	if dir := os.Getenv("XDG_STATE_HOME"); dir != "" {
		return filepath.Join(dir, appName, appName+".log")
	}
	dir, err := os.UserCacheDir()
	if err != nil {
		return filepath.Join(os.TempDir(), appName+".log")
	}
	return filepath.Join(dir, appName, appName+".log")
}

// expandPath expands a leading ~ and environment variables.
func expandPath(p string) string {
	if p == "" || p == ":memory:" {
		return p
	}
	p = os.ExpandEnv(p)
	if p == "~" || strings.HasPrefix(p, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return p
		}
		return filepath.Join(home, strings.TrimPrefix(p[1:], "/"))
	}
	return p
}
