package config

import (
	"fmt"
	"strings"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("validation failed:\n  - %s", strings.Join(msgs, "\n  - "))
}

// Validate checks the configuration for required fields and valid values.
func (c *Config) Validate() error {
	var errors ValidationErrors

	errors = append(errors, c.validateDatabase()...)
	errors = append(errors, c.validateSite()...)
	errors = append(errors, c.validateCollection()...)
	errors = append(errors, c.validateMedia()...)
	errors = append(errors, c.validateApps()...)
	errors = append(errors, c.validateCheck()...)
	errors = append(errors, c.validateOutput()...)
	errors = append(errors, c.validateLogging()...)

	if len(errors) > 0 {
		return errors
	}
	return nil
}

func (c *Config) validateDatabase() ValidationErrors {
	var errors ValidationErrors
	db := &c.Database

	switch db.Driver {
	case "sqlite3":
		if db.Path == "" {
			errors = append(errors, ValidationError{
				Field:   "database.path",
				Message: "path is required for sqlite3",
			})
		}
		return errors
	case "mysql", "postgres":
	default:
		errors = append(errors, ValidationError{
			Field:   "database.driver",
			Message: "driver must be 'mysql', 'postgres', or 'sqlite3'",
		})
		return errors
	}

	if db.Host == "" {
		errors = append(errors, ValidationError{
			Field:   "database.host",
			Message: "host is required",
		})
	}

	if db.Port <= 0 || db.Port > 65535 {
		errors = append(errors, ValidationError{
			Field:   "database.port",
			Message: "port must be between 1 and 65535",
		})
	}

	if db.User == "" {
		errors = append(errors, ValidationError{
			Field:   "database.user",
			Message: "user is required",
		})
	}

	if db.Database == "" {
		errors = append(errors, ValidationError{
			Field:   "database.database",
			Message: "database name is required",
		})
	}

	validTLS := map[string]bool{"disable": true, "preferred": true, "required": true, "": true}
	if !validTLS[db.TLS] {
		errors = append(errors, ValidationError{
			Field:   "database.tls",
			Message: "tls must be 'disable', 'preferred', or 'required'",
		})
	}

	if db.MaxConnections < 0 {
		errors = append(errors, ValidationError{
			Field:   "database.max_connections",
			Message: "max_connections cannot be negative",
		})
	}

	if db.MaxIdleConnections < 0 {
		errors = append(errors, ValidationError{
			Field:   "database.max_idle_connections",
			Message: "max_idle_connections cannot be negative",
		})
	}

	return errors
}

func (c *Config) validateSite() ValidationErrors {
	var errors ValidationErrors

	u := c.Site.BaseURL
	if u != "" && !strings.HasPrefix(u, "http://") && !strings.HasPrefix(u, "https://") {
		errors = append(errors, ValidationError{
			Field:   "site.base_url",
			Message: "base_url must start with http:// or https://",
		})
	}

	return errors
}

func (c *Config) validateCollection() ValidationErrors {
	var errors ValidationErrors

	if c.Collection.MaxInstances < 0 {
		errors = append(errors, ValidationError{
			Field:   "collection.max_instances",
			Message: "max_instances cannot be negative (use 0 for unlimited)",
		})
	}

	return errors
}

func (c *Config) validateMedia() ValidationErrors {
	var errors ValidationErrors

	// Malformed overrides fall back to the default model at runtime, so they
	// are reported here rather than rejected later.
	for field, model := range map[string]string{
		"media.image_model":    c.Media.ImageModel,
		"media.document_model": c.Media.DocumentModel,
	} {
		if model != "" && !isModelKey(model) {
			errors = append(errors, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("%q must be in app_label.model_name form", model),
			})
		}
	}

	return errors
}

func (c *Config) validateApps() ValidationErrors {
	var errors ValidationErrors
	seen := make(map[string]bool)

	for i, app := range c.Apps {
		prefix := fmt.Sprintf("apps[%d]", i)

		if app.Name == "" {
			errors = append(errors, ValidationError{
				Field:   prefix + ".name",
				Message: "name is required",
			})
		} else if seen[app.Name] {
			errors = append(errors, ValidationError{
				Field:   prefix + ".name",
				Message: fmt.Sprintf("app %q is declared more than once", app.Name),
			})
		}
		seen[app.Name] = true

		for j, pt := range app.PageTypes {
			if !isModelKey(pt) {
				errors = append(errors, ValidationError{
					Field:   fmt.Sprintf("%s.page_types[%d]", prefix, j),
					Message: fmt.Sprintf("%q must be in app_label.model_name form", pt),
				})
			}
		}

		for j, sn := range app.Snippets {
			if !isModelKey(sn.Model) {
				errors = append(errors, ValidationError{
					Field:   fmt.Sprintf("%s.snippets[%d].model", prefix, j),
					Message: fmt.Sprintf("%q must be in app_label.model_name form", sn.Model),
				})
			}
		}

		for j, h := range app.Hooks {
			if h.Name == "" {
				errors = append(errors, ValidationError{
					Field:   fmt.Sprintf("%s.hooks[%d].name", prefix, j),
					Message: "name is required",
				})
			}
			// A hook member without a model is legal; discovery ignores it.
			if h.Model != "" && !isModelKey(h.Model) {
				errors = append(errors, ValidationError{
					Field:   fmt.Sprintf("%s.hooks[%d].model", prefix, j),
					Message: fmt.Sprintf("%q must be in app_label.model_name form", h.Model),
				})
			}
		}
	}

	return errors
}

func (c *Config) validateCheck() ValidationErrors {
	var errors ValidationErrors

	if c.Check.Timeout < 0 {
		errors = append(errors, ValidationError{
			Field:   "check.timeout",
			Message: "timeout cannot be negative",
		})
	}

	if c.Check.Workers < 0 {
		errors = append(errors, ValidationError{
			Field:   "check.workers",
			Message: "workers cannot be negative",
		})
	}

	if c.Check.LoginPath != "" && !strings.HasPrefix(c.Check.LoginPath, "/") {
		errors = append(errors, ValidationError{
			Field:   "check.login_path",
			Message: "login_path must be root-relative",
		})
	}

	return errors
}

func (c *Config) validateOutput() ValidationErrors {
	var errors ValidationErrors

	validFormats := map[string]bool{"console": true, "file": true, "json": true, "": true}
	if !validFormats[c.Output.Format] {
		errors = append(errors, ValidationError{
			Field:   "output.format",
			Message: "format must be 'console', 'file', or 'json'",
		})
	}

	if c.Output.Format == "file" && c.Output.File == "" {
		errors = append(errors, ValidationError{
			Field:   "output.file",
			Message: "file is required when format is 'file'",
		})
	}

	validGroups := map[string]bool{"none": true, "interface": true, "type": true, "": true}
	if !validGroups[strings.ToLower(c.Output.GroupBy)] {
		errors = append(errors, ValidationError{
			Field:   "output.group_by",
			Message: "group_by must be 'none', 'interface', or 'type'",
		})
	}

	return errors
}

func (c *Config) validateLogging() ValidationErrors {
	var errors ValidationErrors

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true, "": true}
	if !validLevels[c.Logging.Level] {
		errors = append(errors, ValidationError{
			Field:   "logging.level",
			Message: "level must be 'debug', 'info', 'warn', or 'error'",
		})
	}

	validFormats := map[string]bool{"json": true, "text": true, "": true}
	if !validFormats[c.Logging.Format] {
		errors = append(errors, ValidationError{
			Field:   "logging.format",
			Message: "format must be 'json' or 'text'",
		})
	}

	return errors
}

// isModelKey reports whether s looks like "app_label.model_name".
func isModelKey(s string) bool {
	app, model, ok := strings.Cut(s, ".")
	return ok && app != "" && model != "" && !strings.Contains(model, ".")
}
