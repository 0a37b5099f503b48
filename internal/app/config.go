package app

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/specialistvlad/ensure/internal/selftest"
	"gopkg.in/yaml.v3"
)

// Defaults applied by NewConfig.
const (
	DefaultLogLevel  = "info"
	DefaultLogFormat = "text"
)

// ConfigFileNames are looked up, in order, in the working directory when no
// config file is named explicitly.
var ConfigFileNames = []string{"ensure.yaml", "ensure.yml", "ensure.toml"}

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	Unit string   // root unit to resolve
	Args []string // arguments bound to the root unit

	Roots   []string // search roots, in order
	List    bool     // list available units instead of resolving
	Shell   string
	LogFile string

	LogFormat  string
	LogLevel   string
	NoColor    bool
	Timestamps bool

	// ReportURL, when set, streams tree events to a socket.io server.
	ReportURL       string
	ReportNamespace string
	ReportInsecure  bool
}

// FileConfig is the shape of ensure.yaml / ensure.toml. Every field is
// optional; values set on the command line take precedence.
type FileConfig struct {
	Roots      []string `yaml:"roots" toml:"roots"`
	Shell      string   `yaml:"shell" toml:"shell"`
	LogFile    string   `yaml:"log_file" toml:"log_file"`
	LogFormat  string   `yaml:"log_format" toml:"log_format"`
	LogLevel   string   `yaml:"log_level" toml:"log_level"`
	NoColor    bool     `yaml:"no_color" toml:"no_color"`
	Timestamps bool     `yaml:"timestamps" toml:"timestamps"`

	ReportURL       string `yaml:"report_url" toml:"report_url"`
	ReportNamespace string `yaml:"report_namespace" toml:"report_namespace"`
	ReportInsecure  bool   `yaml:"report_insecure" toml:"report_insecure"`
}

// NewConfig validates cfg and fills in defaults.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.Unit == "" && !cfg.List {
		return nil, errors.New("a unit name is required")
	}
	if cfg.Unit != "" && cfg.List {
		return nil, errors.New("a unit name cannot be combined with --list")
	}

	if cfg.LogLevel == "" {
		cfg.LogLevel = DefaultLogLevel
	}
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
		// valid
	default:
		return nil, fmt.Errorf("invalid log-level %q: must be 'debug', 'info', 'warn', or 'error'", cfg.LogLevel)
	}

	if cfg.LogFormat == "" {
		cfg.LogFormat = DefaultLogFormat
	}
	cfg.LogFormat = strings.ToLower(cfg.LogFormat)
	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		return nil, fmt.Errorf("invalid log-format %q: must be 'text' or 'json'", cfg.LogFormat)
	}

	if len(cfg.Roots) == 0 && cfg.Unit != selftest.RootName {
		roots, err := DefaultRoots()
		if err != nil {
			return nil, err
		}
		cfg.Roots = roots
	}

	if cfg.LogFile == "" {
		cfg.LogFile = DefaultLogFile()
	}

	return &cfg, nil
}

// DefaultRoots returns the project-local primary root, the user-scoped
// fallback root and the alternate project-local root.
func DefaultRoots() ([]string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to determine working directory: %w", err)
	}
	roots := []string{filepath.Join(cwd, "ensure")}
	if home, err := os.UserHomeDir(); err == nil {
		roots = append(roots, filepath.Join(home, ".ensure"))
	}
	roots = append(roots, filepath.Join(cwd, ".ensure"))
	return roots, nil
}

// DefaultLogFile is where raw action output and engine logs go when no log
// file is configured.
func DefaultLogFile() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "ensure", "ensure.log")
}

// FindConfigFile returns the first of ConfigFileNames present in dir.
func FindConfigFile(dir string) (string, bool) {
	for _, name := range ConfigFileNames {
		path := filepath.Join(dir, name)
		if info, err := os.Stat(path); err == nil && info.Mode().IsRegular() {
			return path, true
		}
	}
	return "", false
}

// LoadConfigFile decodes a YAML or TOML config file, chosen by extension.
// Relative roots and log file paths are resolved against the file's
// directory.
func LoadConfigFile(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var fc FileConfig
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &fc); err != nil {
			return nil, fmt.Errorf("failed to decode config file %s: %w", path, err)
		}
	case ".toml":
		if _, err := toml.Decode(string(data), &fc); err != nil {
			return nil, fmt.Errorf("failed to decode config file %s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("unsupported config file extension %q (use .yaml, .yml or .toml)", ext)
	}

	base := filepath.Dir(path)
	for i, root := range fc.Roots {
		fc.Roots[i] = resolvePath(base, root)
	}
	if fc.LogFile != "" {
		fc.LogFile = resolvePath(base, fc.LogFile)
	}
	return &fc, nil
}

// Merge fills every unset field of c from fc.
func (c *Config) Merge(fc *FileConfig) {
	if fc == nil {
		return
	}
	if len(c.Roots) == 0 {
		c.Roots = append([]string(nil), fc.Roots...)
	}
	if c.Shell == "" {
		c.Shell = fc.Shell
	}
	if c.LogFile == "" {
		c.LogFile = fc.LogFile
	}
	if c.LogFormat == "" {
		c.LogFormat = fc.LogFormat
	}
	if c.LogLevel == "" {
		c.LogLevel = fc.LogLevel
	}
	if c.ReportURL == "" {
		c.ReportURL = fc.ReportURL
	}
	if c.ReportNamespace == "" {
		c.ReportNamespace = fc.ReportNamespace
	}
	c.ReportInsecure = c.ReportInsecure || fc.ReportInsecure
	c.NoColor = c.NoColor || fc.NoColor
	c.Timestamps = c.Timestamps || fc.Timestamps
}

func resolvePath(base, p string) string {
	if strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, p[2:])
		}
	}
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(base, p)
}
