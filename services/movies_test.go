package services

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMovieService(t *testing.T) (*MovieService, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewMovieService(db, "http://example.test"), mock
}

var movieRowColumns = []string{
	"id", "douban_id", "title", "original_title", "plot", "rating", "runtime",
	"studio", "premiered", "set_name", "genres", "tags", "actors", "directors",
	"poster_path", "fanart_path", "streams", "liked", "library", "item_type", "scanned_at",
}

func movieRows(ids ...int) *sqlmock.Rows {
	rows := sqlmock.NewRows(movieRowColumns)
	for _, id := range ids {
		rows.AddRow(id, "", "Movie "+string(rune('A'+id)), "", "", 7.5, 100,
			"", "", "", "", "", "", "", "", "", "", 0, "", "Movie", time.Now())
	}
	return rows
}

func expectCollections(mock sqlmock.Sqlmock, times int) {
	for i := 0; i < times; i++ {
		mock.ExpectQuery(regexp.QuoteMeta("SELECT c.id, c.name FROM collections c")).
			WillReturnRows(sqlmock.NewRows([]string{"id", "name"}))
	}
}

func TestSetLiked_IdempotentSet(t *testing.T) {
	svc, mock := newMovieService(t)

	query := regexp.QuoteMeta("UPDATE movies SET liked = $1 WHERE id = $2 RETURNING liked")
	mock.ExpectQuery(query).WithArgs(1, 7).
		WillReturnRows(sqlmock.NewRows([]string{"liked"}).AddRow(1))
	mock.ExpectQuery(query).WithArgs(1, 7).
		WillReturnRows(sqlmock.NewRows([]string{"liked"}).AddRow(1))

	liked, err := svc.SetLiked(context.Background(), "7", true)
	require.NoError(t, err)
	assert.True(t, liked)

	// Liking an already-liked record leaves the flag true
	liked, err = svc.SetLiked(context.Background(), "7", true)
	require.NoError(t, err)
	assert.True(t, liked)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSetLiked_UnlikeAlreadyUnliked(t *testing.T) {
	svc, mock := newMovieService(t)

	mock.ExpectQuery(regexp.QuoteMeta("UPDATE movies SET liked = $1 WHERE id = $2 RETURNING liked")).
		WithArgs(0, 7).
		WillReturnRows(sqlmock.NewRows([]string{"liked"}).AddRow(0))

	liked, err := svc.SetLiked(context.Background(), "7", false)
	require.NoError(t, err)
	assert.False(t, liked)
}

func TestSetLiked_ByExternalID(t *testing.T) {
	svc, mock := newMovieService(t)

	mock.ExpectQuery(regexp.QuoteMeta("UPDATE movies SET liked = $1 WHERE douban_id = $2 RETURNING liked")).
		WithArgs(1, "tt1292052x").
		WillReturnRows(sqlmock.NewRows([]string{"liked"}).AddRow(1))

	liked, err := svc.SetLiked(context.Background(), "tt1292052x", true)
	require.NoError(t, err)
	assert.True(t, liked)
}

func TestSetLiked_NotFound(t *testing.T) {
	svc, mock := newMovieService(t)

	// Numeric lookup misses, external-id fallback misses too
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE movies SET liked = $1 WHERE id = $2")).
		WillReturnRows(sqlmock.NewRows([]string{"liked"}))
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE movies SET liked = $1 WHERE douban_id = $2")).
		WillReturnRows(sqlmock.NewRows([]string{"liked"}))

	_, err := svc.SetLiked(context.Background(), "999999", true)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetRawMovie_NotFound(t *testing.T) {
	svc, mock := newMovieService(t)

	mock.ExpectQuery("SELECT .* FROM movies WHERE id").
		WillReturnRows(movieRows())
	mock.ExpectQuery("SELECT .* FROM movies WHERE douban_id").
		WillReturnRows(movieRows())

	_, err := svc.GetRawMovie(context.Background(), "999999")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListMovies_PaginationEnvelope(t *testing.T) {
	svc, mock := newMovieService(t)
	mock.MatchExpectationsInOrder(false)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM movies WHERE 1=1")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(101))
	mock.ExpectQuery("SELECT .* FROM movies WHERE 1=1 ORDER BY title ASC").
		WithArgs(50, 0).
		WillReturnRows(movieRows(1, 2))
	expectCollections(mock, 2)

	page, err := svc.ListMovies(context.Background(), MovieFilters{}, PageParams{})
	require.NoError(t, err)

	assert.Equal(t, 101, page.TotalRecordCount)
	assert.Equal(t, 3, page.TotalPages)
	assert.Equal(t, 0, page.StartIndex)
	assert.Equal(t, 50, page.Limit)
	assert.Len(t, page.Items, 2)
	// Output order follows row order
	assert.Equal(t, 1, page.Items[0].ID)
	assert.Equal(t, 2, page.Items[1].ID)
}

func TestRelated_BlendsRankedAndDiscovery(t *testing.T) {
	svc, mock := newMovieService(t)
	mock.MatchExpectationsInOrder(false)

	mock.ExpectQuery("relation = 'primary'").
		WithArgs(1, relatedRankedLimit).
		WillReturnRows(movieRows(2, 3))
	mock.ExpectQuery("relation = 'genre-random'").
		WithArgs(1, relatedRankedLimit+relatedDiscoveryLimit).
		WillReturnRows(movieRows(3, 4, 5))
	expectCollections(mock, 4)

	items, err := svc.Related(context.Background(), 1)
	require.NoError(t, err)

	// Ranked prefix in order, then discovery with the duplicate removed
	require.Len(t, items, 4)
	assert.Equal(t, 2, items[0].ID)
	assert.Equal(t, 3, items[1].ID)

	seen := map[int]bool{}
	for _, it := range items {
		assert.False(t, seen[it.ID], "duplicate id %d in blended list", it.ID)
		seen[it.ID] = true
	}
}

func TestRelated_DiscoveryCapped(t *testing.T) {
	svc, mock := newMovieService(t)
	mock.MatchExpectationsInOrder(false)

	mock.ExpectQuery("relation = 'primary'").
		WillReturnRows(movieRows(2))
	mock.ExpectQuery("relation = 'genre-random'").
		WillReturnRows(movieRows(3, 4, 5, 6, 7, 8, 9))
	expectCollections(mock, 1+relatedDiscoveryLimit)

	items, err := svc.Related(context.Background(), 1)
	require.NoError(t, err)

	assert.Len(t, items, 1+relatedDiscoveryLimit)
}

func TestRelated_GracefulWhenPoolEmpty(t *testing.T) {
	svc, mock := newMovieService(t)
	mock.MatchExpectationsInOrder(false)

	mock.ExpectQuery("relation = 'primary'").
		WillReturnRows(movieRows(2, 3))
	mock.ExpectQuery("relation = 'genre-random'").
		WillReturnRows(movieRows())
	expectCollections(mock, 2)

	items, err := svc.Related(context.Background(), 1)
	require.NoError(t, err)
	assert.Len(t, items, 2)
}

func TestCreateCollection(t *testing.T) {
	svc, mock := newMovieService(t)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO collections (name) VALUES ($1) RETURNING id")).
		WithArgs("Favorites").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(3))

	id, err := svc.CreateCollection(context.Background(), "Favorites")
	require.NoError(t, err)
	assert.Equal(t, 3, id)
}

func TestCreateCollection_DuplicateNameConflicts(t *testing.T) {
	svc, mock := newMovieService(t)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO collections")).
		WithArgs("Favorites").
		WillReturnError(&pgconn.PgError{Code: "23505"})

	_, err := svc.CreateCollection(context.Background(), "Favorites")
	assert.ErrorIs(t, err, ErrConflict)
}

func TestOrderClause_UnknownSortFallsBack(t *testing.T) {
	assert.Equal(t, "ORDER BY title ASC, id ASC", orderClause("bogus; DROP TABLE", "Ascending"))
	assert.Equal(t, "ORDER BY rating DESC, id DESC", orderClause("CommunityRating", "Descending"))
	assert.Equal(t, "ORDER BY random()", orderClause("Random", ""))
}
