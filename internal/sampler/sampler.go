// Package sampler reads bounded instance samples of CMS content types.
//
// Every query failure is recovered locally: the caller gets a safe fallback
// (false, nil, 0) and a warning is logged naming the content type.
package sampler

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/dbsmedya/gounveil/internal/logger"
	"github.com/dbsmedya/gounveil/internal/sqlutil"
	"github.com/dbsmedya/gounveil/internal/types"
)

// Sampler queries instance tables described by types.Descriptor.
type Sampler struct {
	db  *sqlx.DB
	log *logger.Logger
}

// New creates a Sampler. A nil logger falls back to the default logger.
func New(db *sqlx.DB, log *logger.Logger) *Sampler {
	if log == nil {
		log = logger.NewDefault()
	}
	return &Sampler{db: db, log: log}
}

// HasInstances reports whether at least one row exists for d.
func (s *Sampler) HasInstances(ctx context.Context, d types.Descriptor) bool {
	query, args, err := s.buildQuery(d, "1", 1)
	if err != nil {
		s.warn(d, err)
		return false
	}

	var one int
	err = s.db.QueryRowxContext(ctx, query, args...).Scan(&one)
	if err != nil {
		qe := Classify(d.Key(), err)
		// An empty table is the normal zero-instance case.
		if qe.Kind != KindNotFound || !qe.noRows {
			s.warn(d, qe)
		}
		return false
	}
	return true
}

// Sample returns up to maxInstances rows in storage order. maxInstances <= 0
// returns every row. Rows that fail to scan are skipped.
func (s *Sampler) Sample(ctx context.Context, d types.Descriptor, maxInstances int) []types.Instance {
	limit := maxInstances
	if limit < 0 {
		limit = 0
	}

	cols, err := s.selectColumns(d)
	if err != nil {
		s.warn(d, err)
		return nil
	}

	query, args, err := s.buildQuery(d, cols, limit)
	if err != nil {
		s.warn(d, err)
		return nil
	}

	rows, err := s.db.QueryxContext(ctx, query, args...)
	if err != nil {
		s.warn(d, Classify(d.Key(), err))
		return nil
	}
	defer rows.Close()

	var instances []types.Instance
	for rows.Next() {
		values, err := rows.SliceScan()
		if err != nil {
			s.warn(d, Classify(d.Key(), err))
			continue
		}
		inst, err := toInstance(d, values)
		if err != nil {
			s.warn(d, err)
			continue
		}
		instances = append(instances, inst)
	}
	if err := rows.Err(); err != nil {
		s.warn(d, Classify(d.Key(), err))
	}

	return instances
}

// Count returns the number of rows for d, or 0 on failure.
func (s *Sampler) Count(ctx context.Context, d types.Descriptor) int64 {
	query, args, err := s.buildQuery(d, "COUNT(*)", 0)
	if err != nil {
		s.warn(d, err)
		return 0
	}

	var n int64
	if err := s.db.QueryRowxContext(ctx, query, args...).Scan(&n); err != nil {
		s.warn(d, Classify(d.Key(), err))
		return 0
	}
	return n
}

func (s *Sampler) selectColumns(d types.Descriptor) (string, error) {
	driver := s.db.DriverName()
	cols := []string{sqlutil.QuoteIdentifier(driver, "id")}

	for _, col := range []string{d.Source.LabelColumn, d.Source.PathColumn} {
		if col == "" {
			continue
		}
		q, err := sqlutil.QuoteIdentifierSafe(driver, col)
		if err != nil {
			return "", &QueryError{Kind: KindValue, ContentType: d.Key(), Err: err}
		}
		cols = append(cols, q)
	}
	return strings.Join(cols, ", "), nil
}

// buildQuery renders SELECT cols FROM table [WHERE filter] [LIMIT n].
func (s *Sampler) buildQuery(d types.Descriptor, cols string, limit int) (string, []any, error) {
	if d.Source.Table == "" {
		return "", nil, &QueryError{Kind: KindValue, ContentType: d.Key(), Err: fmt.Errorf("no table configured")}
	}
	table, err := sqlutil.QuoteIdentifierSafe(s.db.DriverName(), d.Source.Table)
	if err != nil {
		return "", nil, &QueryError{Kind: KindValue, ContentType: d.Key(), Err: err}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "SELECT %s FROM %s", cols, table)
	if d.Source.Filter != "" {
		b.WriteString(" WHERE ")
		b.WriteString(d.Source.Filter)
	}
	if limit > 0 {
		fmt.Fprintf(&b, " LIMIT %d", limit)
	}

	return s.db.Rebind(b.String()), d.Source.FilterArgs, nil
}

func (s *Sampler) warn(d types.Descriptor, err error) {
	kind := Classify(d.Key(), err).Kind
	s.log.WithContentType(d.Key()).Warnw("instance query failed, using fallback",
		"kind", kind,
		"error", err,
	)
}

// toInstance maps a scanned row (id[, label][, path]) to an Instance.
func toInstance(d types.Descriptor, values []interface{}) (types.Instance, error) {
	if len(values) == 0 {
		return types.Instance{}, &QueryError{Kind: KindType, ContentType: d.Key(), Err: fmt.Errorf("empty row")}
	}

	id := types.ToInt64(values[0])
	if id == 0 && values[0] != nil && types.ToString(values[0]) != "0" {
		return types.Instance{}, &QueryError{
			Kind:        KindType,
			ContentType: d.Key(),
			Err:         fmt.Errorf("cannot convert id %v (%T) to integer", values[0], values[0]),
		}
	}

	inst := types.Instance{ID: id}
	i := 1
	if d.Source.LabelColumn != "" && i < len(values) {
		inst.Label = types.ToString(values[i])
		i++
	}
	if d.Source.PathColumn != "" && i < len(values) {
		inst.Path = types.ToString(values[i])
	}
	if inst.Label == "" {
		inst.Label = DefaultLabel(d.ContentType, id)
	}
	return inst, nil
}

// DefaultLabel mirrors Django's default model string: "{Model} object ({id})".
func DefaultLabel(ct types.ContentType, id int64) string {
	return fmt.Sprintf("%s object (%d)", ct.VerboseName(), id)
}
