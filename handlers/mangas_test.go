package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Mediarr/config"
	"Mediarr/services"
	"Mediarr/storage"
)

var mangaRowColumns = []string{
	"id", "title", "author", "path", "cover", "pages", "page_count", "favorited", "parent_id", "scanned_at",
}

func newMangaRouter(t *testing.T) (chi.Router, sqlmock.Sqlmock, string) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	root := t.TempDir()
	store := storage.New()
	store.Bind(storage.MangaBucket, root)

	cfg := &config.Config{MangaPrefix: "manga"}
	h := NewMangaHandler(services.NewMangaService(db, "http://example.test"), store, cfg)

	r := chi.NewRouter()
	r.Get("/api/manga/items/{id}", h.GetItem)
	r.Post("/api/manga/items/{id}/favorite", h.Favorite)
	r.Get("/api/manga/images/cover/{id}", h.ServeCover)
	r.Get("/api/manga/images/page/{id}/{page}", h.ServePage)
	return r, mock, root
}

func expectMangaRow(mock sqlmock.Sqlmock, pages string) {
	mock.ExpectQuery("FROM mangas WHERE id").
		WillReturnRows(sqlmock.NewRows(mangaRowColumns).
			AddRow(1, "Vagabond", "Inoue", "vagabond", "cover.jpg", pages, 2, 0, nil, time.Now()))
}

func TestFavorite_SetsFromBodyState(t *testing.T) {
	r, mock, _ := newMangaRouter(t)

	mock.ExpectQuery("UPDATE mangas SET favorited").
		WithArgs(1, 1).
		WillReturnRows(sqlmock.NewRows([]string{"favorited"}).AddRow(1))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/manga/items/1/favorite", strings.NewReader(`{"favorited":true}`))
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"Favorited": true}`, rec.Body.String())
}

func TestFavorite_MissingState400(t *testing.T) {
	r, _, _ := newMangaRouter(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/manga/items/1/favorite", strings.NewReader(`{}`))
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetMangaItem_NotFoundJSON(t *testing.T) {
	r, mock, _ := newMangaRouter(t)

	mock.ExpectQuery("FROM mangas WHERE id").
		WillReturnRows(sqlmock.NewRows(mangaRowColumns))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/manga/items/999999", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error": "Manga not found"}`, rec.Body.String())
}

func TestServeCover(t *testing.T) {
	r, mock, root := newMangaRouter(t)
	expectMangaRow(mock, `["p1.jpg"]`)
	writeObject(t, root, "manga/vagabond/cover.jpg", "coverbytes")

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/manga/images/cover/1", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "coverbytes", rec.Body.String())
}

func TestServePage_ByIndex(t *testing.T) {
	r, mock, root := newMangaRouter(t)
	expectMangaRow(mock, `["p1.jpg","p2.jpg"]`)
	writeObject(t, root, "manga/vagabond/p2.jpg", "pagebytes")

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/manga/images/page/1/1", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "pagebytes", rec.Body.String())
}

func TestServePage_IndexOutOfRange404(t *testing.T) {
	r, mock, _ := newMangaRouter(t)
	expectMangaRow(mock, `["p1.jpg"]`)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/manga/images/page/1/5", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServePage_NegativeIndex400(t *testing.T) {
	r, _, _ := newMangaRouter(t)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/manga/images/page/1/-1", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
