package config

import (
	"strings"
	"testing"
)

func validConfig() *Config {
	cfg := DefaultConfig()
	cfg.Database.Host = "localhost"
	cfg.Database.User = "wagtail"
	cfg.Database.Database = "cms"
	cfg.Site.BaseURL = "http://localhost:8000"
	cfg.Apps = []AppConfig{
		{
			Name:      "home",
			PageTypes: []string{"home.homepage"},
			Snippets:  []SnippetConfig{{Model: "home.category"}},
			Hooks: []HookConfig{
				{Name: "BookAdmin", Model: "home.book", Capabilities: []string{"get_admin_urls"}},
				{Name: "helper"},
			},
		},
	}
	return cfg
}

func TestValidate_ValidConfig(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected valid config, got error: %v", err)
	}
}

func TestValidate_SQLite(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Database.Driver = "sqlite3"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for sqlite3 without path")
	}
	if !strings.Contains(err.Error(), "database.path") {
		t.Errorf("expected error about database.path, got: %v", err)
	}

	// Host, user and database are irrelevant for a file database.
	cfg.Database.Path = "/tmp/db.sqlite3"
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected valid sqlite3 config, got error: %v", err)
	}
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(cfg *Config)
		field  string
	}{
		{
			name:   "unknown driver",
			mutate: func(cfg *Config) { cfg.Database.Driver = "oracle" },
			field:  "database.driver",
		},
		{
			name:   "missing host",
			mutate: func(cfg *Config) { cfg.Database.Host = "" },
			field:  "database.host",
		},
		{
			name:   "bad port",
			mutate: func(cfg *Config) { cfg.Database.Port = 70000 },
			field:  "database.port",
		},
		{
			name:   "bad tls",
			mutate: func(cfg *Config) { cfg.Database.TLS = "sometimes" },
			field:  "database.tls",
		},
		{
			name:   "base url without scheme",
			mutate: func(cfg *Config) { cfg.Site.BaseURL = "localhost:8000" },
			field:  "site.base_url",
		},
		{
			name:   "negative max instances",
			mutate: func(cfg *Config) { cfg.Collection.MaxInstances = -1 },
			field:  "collection.max_instances",
		},
		{
			name:   "malformed image model",
			mutate: func(cfg *Config) { cfg.Media.ImageModel = "customimage" },
			field:  "media.image_model",
		},
		{
			name: "duplicate app",
			mutate: func(cfg *Config) {
				cfg.Apps = append(cfg.Apps, AppConfig{Name: "home"})
			},
			field: "apps[1].name",
		},
		{
			name:   "malformed page type",
			mutate: func(cfg *Config) { cfg.Apps[0].PageTypes = []string{"homepage"} },
			field:  "apps[0].page_types[0]",
		},
		{
			name:   "malformed snippet model",
			mutate: func(cfg *Config) { cfg.Apps[0].Snippets[0].Model = "home.a.b" },
			field:  "apps[0].snippets[0].model",
		},
		{
			name:   "unnamed hook",
			mutate: func(cfg *Config) { cfg.Apps[0].Hooks[0].Name = "" },
			field:  "apps[0].hooks[0].name",
		},
		{
			name:   "relative login path",
			mutate: func(cfg *Config) { cfg.Check.LoginPath = "admin/login/" },
			field:  "check.login_path",
		},
		{
			name:   "file output without file",
			mutate: func(cfg *Config) { cfg.Output.Format = "file"; cfg.Output.File = "" },
			field:  "output.file",
		},
		{
			name:   "unknown group by",
			mutate: func(cfg *Config) { cfg.Output.GroupBy = "model" },
			field:  "output.group_by",
		},
		{
			name:   "unknown log level",
			mutate: func(cfg *Config) { cfg.Logging.Level = "verbose" },
			field:  "logging.level",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.field) {
				t.Errorf("expected error about %s, got: %v", tt.field, err)
			}
		})
	}
}

func TestValidate_GroupByIsCaseInsensitive(t *testing.T) {
	cfg := validConfig()
	cfg.Output.GroupBy = "TYPE"
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected upper-case group_by to be accepted, got: %v", err)
	}
}

func TestValidationErrors_Error(t *testing.T) {
	errs := ValidationErrors{
		{Field: "a", Message: "first"},
		{Field: "b", Message: "second"},
	}

	msg := errs.Error()
	if !strings.HasPrefix(msg, "validation failed:") {
		t.Errorf("unexpected prefix: %s", msg)
	}
	if !strings.Contains(msg, "a: first") || !strings.Contains(msg, "b: second") {
		t.Errorf("expected both errors in message, got: %s", msg)
	}

	if (ValidationErrors{}).Error() != "" {
		t.Error("empty ValidationErrors should render as empty string")
	}
}

func TestIsModelKey(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"home.homepage", true},
		{"wagtailcore.page", true},
		{"homepage", false},
		{".homepage", false},
		{"home.", false},
		{"home.a.b", false},
	}
	for _, tt := range tests {
		if got := isModelKey(tt.in); got != tt.want {
			t.Errorf("isModelKey(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
