package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/spf13/viper"
)

// Environment variables consulted when the check credentials are not configured.
const (
	EnvCheckUsername = "GOUNVEIL_CHECK_USERNAME"
	EnvCheckPassword = "GOUNVEIL_CHECK_PASSWORD"
)

// Load reads configuration from the specified file path.
// It supports YAML files and performs environment variable substitution.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return LoadFromViper(v)
}

// LoadOrDefault behaves like Load but returns DefaultConfig when the file
// does not exist. Any other read error is returned.
func LoadOrDefault(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); errors.Is(err, os.ErrNotExist) {
		cfg := DefaultConfig()
		applyEnvDefaults(cfg)
		return cfg, nil
	}
	return Load(configPath)
}

// LoadFromViper creates a Config from an existing Viper instance.
// Useful for testing or when Viper is configured externally.
func LoadFromViper(v *viper.Viper) (*Config, error) {
	cfg := DefaultConfig()

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Slices merge element-wise onto defaults; replace wholesale instead.
	if v.IsSet("installed_apps") {
		cfg.InstalledApps = v.GetStringSlice("installed_apps")
	}

	substituteEnvVars(cfg)
	applyEnvDefaults(cfg)

	return cfg, nil
}

// envVarPattern matches ${VAR_NAME} or $VAR_NAME patterns
var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}|\$([A-Za-z_][A-Za-z0-9_]*)`)

// substituteEnvVars replaces ${VAR_NAME} patterns with environment variable values.
func substituteEnvVars(cfg *Config) {
	cfg.Database.Host = expandEnvVar(cfg.Database.Host)
	cfg.Database.User = expandEnvVar(cfg.Database.User)
	cfg.Database.Password = expandEnvVar(cfg.Database.Password)
	cfg.Database.Database = expandEnvVar(cfg.Database.Database)
	cfg.Database.Path = expandEnvVar(cfg.Database.Path)

	cfg.Site.BaseURL = expandEnvVar(cfg.Site.BaseURL)

	cfg.Check.Username = expandEnvVar(cfg.Check.Username)
	cfg.Check.Password = expandEnvVar(cfg.Check.Password)

	cfg.Logging.Output = expandEnvVar(cfg.Logging.Output)
}

// applyEnvDefaults fills check credentials from the environment when unset.
func applyEnvDefaults(cfg *Config) {
	if cfg.Check.Username == "" {
		cfg.Check.Username = os.Getenv(EnvCheckUsername)
	}
	if cfg.Check.Password == "" {
		cfg.Check.Password = os.Getenv(EnvCheckPassword)
	}
}

// expandEnvVar expands environment variables in the format ${VAR} or $VAR.
func expandEnvVar(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		var varName string
		if strings.HasPrefix(match, "${") {
			varName = match[2 : len(match)-1]
		} else {
			varName = match[1:]
		}

		if value, exists := os.LookupEnv(varName); exists {
			return value
		}
		// Return original if env var not found
		return match
	})
}
