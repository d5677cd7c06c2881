// Package sqlutil provides SQL utility functions for GoUnveil.
package sqlutil

import (
	"regexp"
	"strings"
)

// QuoteIdentifier quotes a table or column name for the given database driver.
// PostgreSQL and SQLite use double quotes; MySQL and anything unrecognised use
// backticks. Embedded quote characters are doubled.
//
//	QuoteIdentifier("mysql", "wagtailcore_page")    -> `wagtailcore_page`
//	QuoteIdentifier("postgres", "wagtailcore_page") -> "wagtailcore_page"
func QuoteIdentifier(driver, name string) string {
	q := quoteChar(driver)
	return q + strings.ReplaceAll(name, q, q+q) + q
}

func quoteChar(driver string) string {
	switch driver {
	case "postgres", "sqlite3":
		return `"`
	default:
		return "`"
	}
}

// validIdentifierRegex restricts identifiers to alphanumerics and underscore,
// which covers every table and column Django generates.
var validIdentifierRegex = regexp.MustCompile("^[a-zA-Z0-9_]+$")

// IsValidIdentifier checks if a name only contains alphanumeric characters and underscores.
func IsValidIdentifier(name string) bool {
	return validIdentifierRegex.MatchString(name)
}

// QuoteIdentifierSafe quotes an identifier after validating it.
// Table and label columns come from the registration manifest, so every
// dynamic identifier goes through here.
func QuoteIdentifierSafe(driver, name string) (string, error) {
	if !IsValidIdentifier(name) {
		return "", &InvalidIdentifierError{Name: name}
	}
	return QuoteIdentifier(driver, name), nil
}

// InvalidIdentifierError is returned when an identifier contains invalid characters.
type InvalidIdentifierError struct {
	Name string
}

func (e *InvalidIdentifierError) Error() string {
	return "invalid identifier: " + e.Name + " (must contain only alphanumeric characters and underscores)"
}
