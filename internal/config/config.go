// Package config provides configuration structures and loading for GoUnveil.
package config

import "time"

// Config represents the complete application configuration.
type Config struct {
	Database      DatabaseConfig   `yaml:"database" mapstructure:"database"`
	Site          SiteConfig       `yaml:"site" mapstructure:"site"`
	Collection    CollectionConfig `yaml:"collection" mapstructure:"collection"`
	InstalledApps []string         `yaml:"installed_apps" mapstructure:"installed_apps"`
	Media         MediaConfig      `yaml:"media" mapstructure:"media"`
	Settings      SettingsConfig   `yaml:"settings" mapstructure:"settings"`
	Apps          []AppConfig      `yaml:"apps" mapstructure:"apps"`
	Check         CheckConfig      `yaml:"check" mapstructure:"check"`
	Output        OutputConfig     `yaml:"output" mapstructure:"output"`
	Server        ServerConfig     `yaml:"server" mapstructure:"server"`
	Logging       LoggingConfig    `yaml:"logging" mapstructure:"logging"`
}

// DatabaseConfig represents the connection to the CMS database.
type DatabaseConfig struct {
	Driver             string `yaml:"driver" mapstructure:"driver"` // mysql, postgres, sqlite3
	Host               string `yaml:"host" mapstructure:"host"`
	Port               int    `yaml:"port" mapstructure:"port"`
	User               string `yaml:"user" mapstructure:"user"`
	Password           string `yaml:"password" mapstructure:"password"`
	Database           string `yaml:"database" mapstructure:"database"`
	Path               string `yaml:"path" mapstructure:"path"` // sqlite3 file
	TLS                string `yaml:"tls" mapstructure:"tls"`   // disable, preferred, required
	MaxConnections     int    `yaml:"max_connections" mapstructure:"max_connections"`
	MaxIdleConnections int    `yaml:"max_idle_connections" mapstructure:"max_idle_connections"`
}

// SiteConfig describes where the CMS is served.
type SiteConfig struct {
	// BaseURL is auto-detected from the default site when empty.
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// CollectionConfig controls instance sampling.
type CollectionConfig struct {
	MaxInstances int `yaml:"max_instances" mapstructure:"max_instances"` // 0 = unlimited
}

// MediaConfig overrides the concrete image and document models.
type MediaConfig struct {
	ImageModel    string `yaml:"image_model" mapstructure:"image_model"`
	DocumentModel string `yaml:"document_model" mapstructure:"document_model"`
}

// SettingsConfig holds schema details used by the settings section collector.
type SettingsConfig struct {
	UserTable     string   `yaml:"user_table" mapstructure:"user_table"`
	FormPageTypes []string `yaml:"form_page_types" mapstructure:"form_page_types"`
	Workflows     bool     `yaml:"workflows" mapstructure:"workflows"`
}

// AppConfig declares what an installed app registers with the CMS admin.
type AppConfig struct {
	Name      string          `yaml:"name" mapstructure:"name"`
	Requires  []string        `yaml:"requires" mapstructure:"requires"`
	PageTypes []string        `yaml:"page_types" mapstructure:"page_types"`
	Snippets  []SnippetConfig `yaml:"snippets" mapstructure:"snippets"`
	Hooks     []HookConfig    `yaml:"hooks" mapstructure:"hooks"` // empty = app has no hooks module
}

// SnippetConfig declares a model registered as a snippet.
type SnippetConfig struct {
	Model       string `yaml:"model" mapstructure:"model"`
	LabelColumn string `yaml:"label_column" mapstructure:"label_column"`
	Table       string `yaml:"table" mapstructure:"table"`
}

// HookConfig declares one member of an app's admin hooks module.
type HookConfig struct {
	Name         string   `yaml:"name" mapstructure:"name"`
	Model        string   `yaml:"model" mapstructure:"model"`
	Capabilities []string `yaml:"capabilities" mapstructure:"capabilities"`
	Bases        []string `yaml:"bases" mapstructure:"bases"`
	BaseURLPath  string   `yaml:"base_url_path" mapstructure:"base_url_path"`
	LabelColumn  string   `yaml:"label_column" mapstructure:"label_column"`
	Table        string   `yaml:"table" mapstructure:"table"`
}

// CheckConfig represents liveness check settings.
type CheckConfig struct {
	Username     string        `yaml:"username" mapstructure:"username"`
	Password     string        `yaml:"password" mapstructure:"password"`
	LoginPath    string        `yaml:"login_path" mapstructure:"login_path"`
	VerifyPath   string        `yaml:"verify_path" mapstructure:"verify_path"`
	Timeout      time.Duration `yaml:"timeout" mapstructure:"timeout"`
	Workers      int           `yaml:"workers" mapstructure:"workers"`
	MaxRedirects int           `yaml:"max_redirects" mapstructure:"max_redirects"`
	UserAgent    string        `yaml:"user_agent" mapstructure:"user_agent"`
}

// OutputConfig represents presentation settings.
type OutputConfig struct {
	Format  string `yaml:"format" mapstructure:"format"` // console, file, json
	File    string `yaml:"file" mapstructure:"file"`
	GroupBy string `yaml:"group_by" mapstructure:"group_by"` // none, interface, type
	NoColor bool   `yaml:"no_color" mapstructure:"no_color"`
}

// ServerConfig represents the JSON API listener.
type ServerConfig struct {
	Address string `yaml:"address" mapstructure:"address"`
}

// LoggingConfig represents logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`   // debug, info, warn, error
	Format string `yaml:"format" mapstructure:"format"` // json or text
	Output string `yaml:"output" mapstructure:"output"` // stdout, stderr, or file path
}

// DefaultInstalledApps mirrors the INSTALLED_APPS of a freshly generated Wagtail project.
var DefaultInstalledApps = []string{
	"wagtail.contrib.forms",
	"wagtail.contrib.redirects",
	"wagtail.embeds",
	"wagtail.sites",
	"wagtail.users",
	"wagtail.snippets",
	"wagtail.documents",
	"wagtail.images",
	"wagtail.search",
	"wagtail.admin",
	"wagtail",
	"django.contrib.admin",
	"django.contrib.auth",
	"django.contrib.contenttypes",
	"django.contrib.sessions",
	"django.contrib.messages",
	"django.contrib.staticfiles",
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Driver:             "postgres",
			Port:               5432,
			TLS:                "preferred",
			MaxConnections:     5,
			MaxIdleConnections: 2,
		},
		Collection: CollectionConfig{
			MaxInstances: 1,
		},
		InstalledApps: append([]string(nil), DefaultInstalledApps...),
		Settings: SettingsConfig{
			UserTable: "auth_user",
			Workflows: true,
		},
		Check: CheckConfig{
			LoginPath:    "/admin/login/",
			VerifyPath:   "/admin/",
			Timeout:      10 * time.Second,
			Workers:      1,
			MaxRedirects: 10,
			UserAgent:    "gounveil/1.0",
		},
		Output: OutputConfig{
			Format:  "console",
			File:    "admin_urls.txt",
			GroupBy: "interface",
		},
		Server: ServerConfig{
			Address: ":8080",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
	}
}

// IsInstalled reports whether app is listed in installed_apps.
func (c *Config) IsInstalled(app string) bool {
	for _, a := range c.InstalledApps {
		if a == app {
			return true
		}
	}
	return false
}

// Overrides contains CLI values that take precedence over the config file.
// Zero values are ignored.
type Overrides struct {
	LogLevel     string
	LogFormat    string
	BaseURL      string
	MaxInstances int // negative = not set
	Output       string
	File         string
	GroupBy      string
	Workers      int
	NoColor      bool
}

// ApplyOverrides applies CLI flag overrides to the configuration.
func (c *Config) ApplyOverrides(o Overrides) {
	if o.LogLevel != "" {
		c.Logging.Level = o.LogLevel
	}
	if o.LogFormat != "" {
		c.Logging.Format = o.LogFormat
	}
	if o.BaseURL != "" {
		c.Site.BaseURL = o.BaseURL
	}
	if o.MaxInstances >= 0 {
		c.Collection.MaxInstances = o.MaxInstances
	}
	if o.Output != "" {
		c.Output.Format = o.Output
	}
	if o.File != "" {
		c.Output.File = o.File
	}
	if o.GroupBy != "" {
		c.Output.GroupBy = o.GroupBy
	}
	if o.Workers > 0 {
		c.Check.Workers = o.Workers
	}
	if o.NoColor {
		c.Output.NoColor = true
	}
}
