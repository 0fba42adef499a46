package cli

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	maxWalkDepth = 25
	envPrefix    = "OAKQUERY"
)

// configNames are the file names searched during auto-discovery, in order.
var configNames = []string{"oak-query.yaml", "oak-query.yml"}

// Config represents the oak-query configuration from oak-query.yaml.
type Config struct {
	// StatementsDir is where doctor looks for statement files when none are
	// given on the command line.
	StatementsDir string `mapstructure:"statements_dir" json:"statements_dir"`

	// Database configuration
	Database DatabaseConfig `mapstructure:"database" json:"database"`

	// Per-command configuration
	Render RenderConfig `mapstructure:"render" json:"render"`
	Exec   ExecConfig   `mapstructure:"exec" json:"exec"`
	Doctor DoctorConfig `mapstructure:"doctor" json:"doctor"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	URL      string `mapstructure:"url" json:"url"`
	Host     string `mapstructure:"host" json:"host"`
	Port     int    `mapstructure:"port" json:"port"`
	Name     string `mapstructure:"name" json:"name"`
	User     string `mapstructure:"user" json:"user"`
	Password string `mapstructure:"password" json:"password"`
	SSLMode  string `mapstructure:"sslmode" json:"sslmode"`
}

// RenderConfig holds render command settings.
type RenderConfig struct {
	// Format is "text" or "yaml".
	Format      string `mapstructure:"format" json:"format"`
	Interpolate bool   `mapstructure:"interpolate" json:"interpolate"`
	Strict      bool   `mapstructure:"strict" json:"strict"`
	// Parallelism bounds concurrent file rendering; 0 means one per CPU.
	Parallelism int `mapstructure:"parallelism" json:"parallelism"`
}

// ExecConfig holds exec command settings.
type ExecConfig struct {
	Timeout       time.Duration `mapstructure:"timeout" json:"timeout"`
	SlowThreshold time.Duration `mapstructure:"slow_threshold" json:"slow_threshold"`
	Strict        bool          `mapstructure:"strict" json:"strict"`
}

// DoctorConfig holds doctor command settings.
type DoctorConfig struct {
	Verbose bool `mapstructure:"verbose" json:"verbose"`
}

// LoadConfig discovers and loads configuration with proper precedence:
// flags > env > config file > defaults.
//
// Returns the loaded config, the path to the config file (empty if none found),
// and any error encountered.
func LoadConfig(explicitConfigPath string) (*Config, string, error) {
	v := viper.New()

	setDefaults(v)

	// OAKQUERY_DATABASE_URL overrides database.url, and so on.
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	configPath, err := findConfigFile(explicitConfigPath)
	if err != nil {
		return nil, "", err
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, configPath, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, configPath, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, configPath, err
	}

	return &cfg, configPath, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("statements_dir", "statements")

	// AutomaticEnv only sees keys viper knows about, so every key gets a
	// default even when it is empty.
	v.SetDefault("database.url", "")
	v.SetDefault("database.host", "")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "")
	v.SetDefault("database.user", "")
	v.SetDefault("database.password", "")
	v.SetDefault("database.sslmode", "prefer")

	v.SetDefault("render.format", "text")
	v.SetDefault("render.interpolate", false)
	v.SetDefault("render.strict", false)
	v.SetDefault("render.parallelism", 0)

	v.SetDefault("exec.timeout", 30*time.Second)
	v.SetDefault("exec.slow_threshold", 100*time.Millisecond)
	v.SetDefault("exec.strict", true)

	v.SetDefault("doctor.verbose", false)
}

func (c *Config) validate() error {
	switch c.Render.Format {
	case "text", "yaml":
	default:
		return fmt.Errorf("render.format must be text or yaml, got %q", c.Render.Format)
	}
	if c.Exec.Timeout < 0 {
		return fmt.Errorf("exec.timeout must not be negative")
	}
	if c.Render.Parallelism < 0 {
		return fmt.Errorf("render.parallelism must not be negative")
	}
	return nil
}

// findConfigFile finds the config file to use.
// If explicitPath is provided, it validates the file exists.
// Otherwise, it walks up from cwd looking for oak-query.yaml or oak-query.yml,
// stopping at a .git directory or after maxWalkDepth levels.
func findConfigFile(explicitPath string) (string, error) {
	if explicitPath != "" {
		if _, err := os.Stat(explicitPath); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicitPath)
		}
		return explicitPath, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("getting cwd: %w", err)
	}

	dir := cwd
	for i := 0; i < maxWalkDepth; i++ {
		for _, name := range configNames {
			path := filepath.Join(dir, name)
			if _, err := os.Stat(path); err == nil {
				return path, nil
			}
		}

		// Stop at the repository root (.git file or directory).
		if _, err := os.Stat(filepath.Join(dir, ".git")); err == nil {
			break
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", nil
}

// HasDatabase reports whether any database settings are configured.
func (c *Config) HasDatabase() bool {
	return c.Database.URL != "" || c.Database.Host != ""
}

// DSN returns the database connection string.
// If database.url is set, it's returned directly.
// Otherwise, builds a DSN from discrete fields.
func (c *Config) DSN() (string, error) {
	db := c.Database

	if db.URL != "" {
		return db.URL, nil
	}

	if db.Host == "" {
		return "", fmt.Errorf("database.host is required when database.url is not set")
	}
	if db.Name == "" {
		return "", fmt.Errorf("database.name is required when database.url is not set")
	}
	if db.User == "" {
		return "", fmt.Errorf("database.user is required when database.url is not set")
	}

	u := &url.URL{
		Scheme: "postgres",
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   "/" + db.Name,
	}

	if db.Password != "" {
		u.User = url.UserPassword(db.User, db.Password)
	} else {
		u.User = url.User(db.User)
	}

	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}

	return u.String(), nil
}

// redactedMask replaces passwords in printed configuration. It matches what
// url.URL.Redacted uses, so both forms read the same.
const redactedMask = "xxxxx"

// Redacted returns a copy of the configuration safe to print.
func (c *Config) Redacted() Config {
	out := *c
	if out.Database.Password != "" {
		out.Database.Password = redactedMask
	}
	if out.Database.URL != "" {
		if u, err := url.Parse(out.Database.URL); err == nil {
			out.Database.URL = u.Redacted()
		}
	}
	return out
}
