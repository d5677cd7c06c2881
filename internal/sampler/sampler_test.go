package sampler

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dbsmedya/gounveil/internal/logger"
	"github.com/dbsmedya/gounveil/internal/sqlutil"
	"github.com/dbsmedya/gounveil/internal/types"
)

func newTestSampler(t *testing.T) (*Sampler, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return New(sqlx.NewDb(db, "sqlmock"), logger.NewNop()), mock
}

func snippetDescriptor() types.Descriptor {
	return types.Descriptor{
		ContentType: types.ContentType{Namespace: "home", Name: "category", Kind: types.KindSnippet},
		Source:      types.TableSource{Table: "home_category", LabelColumn: "name"},
	}
}

func pageDescriptor(id int64) types.Descriptor {
	return types.Descriptor{
		ContentType: types.ContentType{Namespace: "home", Name: "homepage", Kind: types.KindPage, ID: id},
		Source: types.TableSource{
			Table:       "wagtailcore_page",
			LabelColumn: "title",
			PathColumn:  "url_path",
			Filter:      "content_type_id = ?",
			FilterArgs:  []any{id},
		},
	}
}

// ============================================================================
// HasInstances
// ============================================================================

func TestHasInstances(t *testing.T) {
	s, mock := newTestSampler(t)
	d := snippetDescriptor()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM `home_category` LIMIT 1")).
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))

	assert.True(t, s.HasInstances(context.Background(), d))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHasInstances_Empty(t *testing.T) {
	s, mock := newTestSampler(t)
	d := pageDescriptor(7)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM `wagtailcore_page` WHERE content_type_id = ? LIMIT 1")).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"1"}))

	assert.False(t, s.HasInstances(context.Background(), d))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHasInstances_QueryFailureFallsBack(t *testing.T) {
	s, mock := newTestSampler(t)

	mock.ExpectQuery("SELECT 1 FROM").
		WillReturnError(errors.New("connection reset"))

	assert.False(t, s.HasInstances(context.Background(), snippetDescriptor()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHasInstances_InvalidTableNeverQueries(t *testing.T) {
	s, mock := newTestSampler(t)
	d := snippetDescriptor()
	d.Source.Table = "home_category; DROP TABLE auth_user"

	assert.False(t, s.HasInstances(context.Background(), d))
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ============================================================================
// Sample
// ============================================================================

func TestSample_Bounded(t *testing.T) {
	s, mock := newTestSampler(t)
	d := pageDescriptor(3)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT `id`, `title`, `url_path` FROM `wagtailcore_page` WHERE content_type_id = ? LIMIT 2")).
		WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "url_path"}).
			AddRow(int64(4), "Instance 1", "/home/page1/").
			AddRow(int64(5), "Instance 2", "/home/page2/"))

	got := s.Sample(context.Background(), d, 2)
	require.Len(t, got, 2)
	assert.Equal(t, types.Instance{ID: 4, Label: "Instance 1", Path: "/home/page1/"}, got[0])
	assert.Equal(t, types.Instance{ID: 5, Label: "Instance 2", Path: "/home/page2/"}, got[1])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSample_UnlimitedOmitsLimit(t *testing.T) {
	for _, max := range []int{0, -1} {
		s, mock := newTestSampler(t)

		mock.ExpectQuery("^" + regexp.QuoteMeta("SELECT `id`, `name` FROM `home_category`") + "$").
			WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).
				AddRow(int64(1), "News").
				AddRow(int64(2), "Events").
				AddRow(int64(3), "Jobs"))

		got := s.Sample(context.Background(), snippetDescriptor(), max)
		assert.Len(t, got, 3, "max=%d", max)
		assert.NoError(t, mock.ExpectationsWereMet())
	}
}

func TestSample_DefaultLabel(t *testing.T) {
	s, mock := newTestSampler(t)
	d := types.Descriptor{
		ContentType: types.ContentType{Namespace: "wagtailimages", Name: "image", Kind: types.KindImage},
		Source:      types.TableSource{Table: "wagtailimages_image"},
	}

	mock.ExpectQuery(regexp.QuoteMeta("SELECT `id` FROM `wagtailimages_image` LIMIT 1")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow([]byte("12")))

	got := s.Sample(context.Background(), d, 1)
	require.Len(t, got, 1)
	assert.Equal(t, int64(12), got[0].ID)
	assert.Equal(t, "Image object (12)", got[0].Label)
}

func TestSample_NullLabelUsesDefault(t *testing.T) {
	s, mock := newTestSampler(t)

	mock.ExpectQuery("SELECT").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(int64(9), nil))

	got := s.Sample(context.Background(), snippetDescriptor(), 1)
	require.Len(t, got, 1)
	assert.Equal(t, "Category object (9)", got[0].Label)
}

func TestSample_SkipsUnconvertibleRows(t *testing.T) {
	s, mock := newTestSampler(t)

	mock.ExpectQuery("SELECT").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).
			AddRow("not-a-number", "Broken").
			AddRow(int64(2), "Events"))

	got := s.Sample(context.Background(), snippetDescriptor(), 0)
	require.Len(t, got, 1)
	assert.Equal(t, int64(2), got[0].ID)
}

func TestSample_QueryFailureReturnsEmpty(t *testing.T) {
	s, mock := newTestSampler(t)

	mock.ExpectQuery("SELECT").WillReturnError(&pq.Error{Code: "42P01", Message: "relation does not exist"})

	assert.Empty(t, s.Sample(context.Background(), snippetDescriptor(), 1))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSample_InvalidLabelColumn(t *testing.T) {
	s, mock := newTestSampler(t)
	d := snippetDescriptor()
	d.Source.LabelColumn = "name, password"

	assert.Empty(t, s.Sample(context.Background(), d, 1))
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ============================================================================
// Count
// ============================================================================

func TestCount(t *testing.T) {
	s, mock := newTestSampler(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM `home_category`")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(42)))

	assert.Equal(t, int64(42), s.Count(context.Background(), snippetDescriptor()))
}

func TestCount_Failure(t *testing.T) {
	s, mock := newTestSampler(t)

	mock.ExpectQuery("SELECT COUNT").WillReturnError(context.DeadlineExceeded)

	assert.Equal(t, int64(0), s.Count(context.Background(), snippetDescriptor()))
}

// ============================================================================
// Classify
// ============================================================================

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind ErrorKind
	}{
		{name: "invalid identifier", err: &sqlutil.InvalidIdentifierError{Name: "x y"}, kind: KindValue},
		{name: "no rows", err: sql.ErrNoRows, kind: KindNotFound},
		{name: "mysql missing table", err: &mysql.MySQLError{Number: 1146, Message: "Table 'cms.x' doesn't exist"}, kind: KindNotFound},
		{name: "postgres missing table", err: &pq.Error{Code: "42P01"}, kind: KindNotFound},
		{name: "sqlite missing table", err: errors.New("no such table: home_category"), kind: KindNotFound},
		{name: "scan error", err: errors.New(`sql: Scan error on column index 0, name "id": converting driver.Value type string`), kind: KindType},
		{name: "timeout", err: context.DeadlineExceeded, kind: KindStorage},
		{name: "other mysql error", err: &mysql.MySQLError{Number: 1045, Message: "Access denied"}, kind: KindStorage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			qe := Classify("home.category", tt.err)
			assert.Equal(t, tt.kind, qe.Kind)
			assert.ErrorIs(t, qe, tt.err)
			assert.Contains(t, qe.Error(), "home.category")
		})
	}
}

func TestClassify_KeepsExistingQueryError(t *testing.T) {
	orig := &QueryError{Kind: KindType, ContentType: "a.b", Err: errors.New("boom")}
	wrapped := errors.Join(errors.New("context"), orig)

	assert.Same(t, orig, Classify("c.d", wrapped))
}

func TestDefaultLabel(t *testing.T) {
	ct := types.ContentType{Namespace: "home", Name: "blogpage"}
	assert.Equal(t, "Blogpage object (3)", DefaultLabel(ct, 3))
}
