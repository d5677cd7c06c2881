package sampler

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"

	"github.com/dbsmedya/gounveil/internal/sqlutil"
)

// ErrorKind classifies an instance query failure.
type ErrorKind string

const (
	KindValue    ErrorKind = "value"     // invalid identifier or descriptor
	KindType     ErrorKind = "type"      // scan or conversion failure
	KindNotFound ErrorKind = "not_found" // no rows, missing table
	KindStorage  ErrorKind = "storage"   // driver, operational, timeout
)

// QueryError is a classified failure while sampling a content type.
type QueryError struct {
	Kind        ErrorKind
	ContentType string
	Err         error

	noRows bool
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("%s query for %s: %v", e.Kind, e.ContentType, e.Err)
}

func (e *QueryError) Unwrap() error {
	return e.Err
}

// MySQL error 1146: table doesn't exist. PostgreSQL 42P01: undefined_table.
const (
	mysqlNoSuchTable    = 1146
	postgresNoSuchTable = "42P01"
)

// Classify maps a raw query error onto the failure taxonomy.
func Classify(contentType string, err error) *QueryError {
	var qe *QueryError
	if errors.As(err, &qe) {
		return qe
	}

	kind := KindStorage
	noRows := false

	var idErr *sqlutil.InvalidIdentifierError
	var myErr *mysql.MySQLError
	var pqErr *pq.Error

	switch {
	case errors.As(err, &idErr):
		kind = KindValue
	case errors.Is(err, sql.ErrNoRows):
		kind, noRows = KindNotFound, true
	case errors.As(err, &myErr) && myErr.Number == mysqlNoSuchTable:
		kind = KindNotFound
	case errors.As(err, &pqErr) && string(pqErr.Code) == postgresNoSuchTable:
		kind = KindNotFound
	case strings.Contains(err.Error(), "no such table"):
		kind = KindNotFound
	case strings.Contains(err.Error(), "Scan error"), strings.Contains(err.Error(), "converting"):
		kind = KindType
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		kind = KindStorage
	}

	return &QueryError{Kind: kind, ContentType: contentType, Err: err, noRows: noRows}
}
