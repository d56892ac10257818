package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"

	"taskpad/internal/todo"
)

const (
	DefaultConfigFileName = "config.toml"
	DefaultDBName         = "tasks.db"
	DefaultLogName        = "taskpad.log"
	appDirName            = "taskpad"
	envConfigPath         = "TASKPAD_CONFIG"
)

type Keymap struct {
	Quit           string `toml:"quit"`
	Add            string `toml:"add"`
	Up             string `toml:"up"`
	Down           string `toml:"down"`
	Toggle         string `toml:"toggle"`
	Delete         string `toml:"delete"`
	Edit           string `toml:"edit"`
	Confirm        string `toml:"confirm"`
	Cancel         string `toml:"cancel"`
	Undo           string `toml:"undo"`
	Filter         string `toml:"filter"`
	Search         string `toml:"search"`
	ClearCompleted string `toml:"clear_completed"`
	ClearAll       string `toml:"clear_all"`
	Export         string `toml:"export"`
	Settings       string `toml:"settings"`
}

type Config struct {
	DBPath        string `toml:"db_path"`
	LogPath       string `toml:"log_path"`
	ExportDir     string `toml:"export_dir"`
	DefaultFilter string `toml:"default_filter"`
	Keys          Keymap `toml:"keys"`
}

// ResolveConfigPath prefers $TASKPAD_CONFIG, then the user config directory,
// then the working directory.
func ResolveConfigPath() string {
	if p := os.Getenv(envConfigPath); p != "" {
		return p
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return DefaultConfigFileName
	}
	return filepath.Join(dir, appDirName, DefaultConfigFileName)
}

// LoadOrCreate reads the config at path, writing the defaults there first if
// the file does not exist. Relative paths inside the file resolve against
// the config file's directory.
func LoadOrCreate(path string) (Config, error) {
	cfg := defaultConfig()
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := write(path, cfg); err != nil {
			return cfg, err
		}
		return cfg.resolve(filepath.Dir(path)), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if cfg.DBPath == "" {
		cfg.DBPath = DefaultDBName
	}
	if cfg.LogPath == "" {
		cfg.LogPath = DefaultLogName
	}
	cfg.Keys = cfg.Keys.withDefaults(defaultConfig().Keys)
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg.resolve(filepath.Dir(path)), nil
}

func (c Config) Validate() error {
	if _, err := todo.ParseFilter(c.DefaultFilter); err != nil {
		return fmt.Errorf("default_filter: %w", err)
	}
	return nil
}

// Filter returns the configured default filter.
func (c Config) Filter() todo.Filter {
	f, _ := todo.ParseFilter(c.DefaultFilter)
	return f
}

func (c Config) resolve(base string) Config {
	c.DBPath = resolvePath(base, c.DBPath)
	c.LogPath = resolvePath(base, c.LogPath)
	c.ExportDir = resolvePath(base, c.ExportDir)
	return c
}

func resolvePath(base, p string) string {
	if p == "" || filepath.IsAbs(p) || strings.HasPrefix(p, "file:") {
		return p
	}
	return filepath.Join(base, p)
}

// withDefaults fills keys left blank in a hand-edited file.
func (k Keymap) withDefaults(d Keymap) Keymap {
	fill := func(v *string, def string) {
		if *v == "" {
			*v = def
		}
	}
	fill(&k.Quit, d.Quit)
	fill(&k.Add, d.Add)
	fill(&k.Up, d.Up)
	fill(&k.Down, d.Down)
	fill(&k.Toggle, d.Toggle)
	fill(&k.Delete, d.Delete)
	fill(&k.Edit, d.Edit)
	fill(&k.Confirm, d.Confirm)
	fill(&k.Cancel, d.Cancel)
	fill(&k.Undo, d.Undo)
	fill(&k.Filter, d.Filter)
	fill(&k.Search, d.Search)
	fill(&k.ClearCompleted, d.ClearCompleted)
	fill(&k.ClearAll, d.ClearAll)
	fill(&k.Export, d.Export)
	fill(&k.Settings, d.Settings)
	return k
}

func write(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := toml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func defaultConfig() Config {
	return Config{
		DBPath:        DefaultDBName,
		LogPath:       DefaultLogName,
		DefaultFilter: "all",
		Keys: Keymap{
			Quit:           "q",
			Add:            "a",
			Up:             "k",
			Down:           "j",
			Toggle:         " ",
			Delete:         "d",
			Edit:           "e",
			Confirm:        "enter",
			Cancel:         "esc",
			Undo:           "ctrl+z",
			Filter:         "f",
			Search:         "/",
			ClearCompleted: "c",
			ClearAll:       "C",
			Export:         "x",
			Settings:       "s",
		},
	}
}
