package handlers

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
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

func newImageRouter(t *testing.T, bindMovieBucket bool) (chi.Router, sqlmock.Sqlmock, string) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	root := t.TempDir()
	store := storage.New()
	if bindMovieBucket {
		store.Bind(storage.MovieBucket, root)
	}

	cfg := &config.Config{MoviePrefix: "movie"}
	h := NewImageHandler(services.NewMovieService(db, "http://example.test"), store, cfg)

	r := chi.NewRouter()
	r.Get("/api/movie/images/poster/{id}", h.ServePoster)
	r.Get("/api/movie/images/fanart/{id}", h.ServeFanart)
	r.Get("/api/movie/images/actor_thumb/{name}", h.ServeActorThumb)
	r.Get("/api/movie/stream/{id}", h.ServeStream)
	return r, mock, root
}

func expectMovieRow(mock sqlmock.Sqlmock, id int, doubanID, posterPath, streams string) {
	mock.ExpectQuery("SELECT .* FROM movies WHERE").
		WillReturnRows(sqlmock.NewRows(movieRowColumns).
			AddRow(id, doubanID, "Title", "", "", 0.0, 0,
				"", "", "", "", "", "", "", posterPath, "fanart.jpg", streams, 0, "", "Movie", time.Now()))
}

func writeObject(t *testing.T, root, key, content string) {
	full := filepath.Join(root, filepath.FromSlash(key))
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
}

// A record addressed by numeric id whose external identifier differs must
// redirect exactly once to the external-identifier URL.
func TestServePoster_RedirectsToExternalID(t *testing.T) {
	r, mock, _ := newImageRouter(t, true)
	expectMovieRow(mock, 7, "1292052", "poster.jpg", "")

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/movie/images/poster/7", nil))

	assert.Equal(t, http.StatusMovedPermanently, rec.Code)
	assert.Equal(t, "/api/movie/images/poster/1292052", rec.Header().Get("Location"))
}

// The redirect target serves bytes directly; no second redirect.
func TestServePoster_CanonicalFormServesBytes(t *testing.T) {
	r, mock, root := newImageRouter(t, true)
	expectMovieRow(mock, 7, "1292052", "poster.jpg", "")
	writeObject(t, root, "movie/1292052/poster.jpg", "posterbytes")

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/movie/images/poster/1292052", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "posterbytes", rec.Body.String())
}

// The loop guard: identical numeric and external identifiers never
// redirect.
func TestServePoster_EqualIdentifiersNeverRedirect(t *testing.T) {
	r, mock, root := newImageRouter(t, true)
	expectMovieRow(mock, 7, "7", "poster.jpg", "")
	writeObject(t, root, "movie/7/poster.jpg", "posterbytes")

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/movie/images/poster/7", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "posterbytes", rec.Body.String())
}

func TestServePoster_NoStoredPath404(t *testing.T) {
	r, mock, _ := newImageRouter(t, true)
	expectMovieRow(mock, 7, "7", "", "")

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/movie/images/poster/7", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServePoster_MovieNotFound(t *testing.T) {
	r, mock, _ := newImageRouter(t, true)
	mock.ExpectQuery("SELECT .* FROM movies WHERE").
		WillReturnRows(sqlmock.NewRows(movieRowColumns))
	mock.ExpectQuery("SELECT .* FROM movies WHERE").
		WillReturnRows(sqlmock.NewRows(movieRowColumns))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/movie/images/poster/999999", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error": "Movie not found"}`, rec.Body.String())
}

func TestServeStream_MisconfiguredBucket500(t *testing.T) {
	r, mock, _ := newImageRouter(t, false)
	expectMovieRow(mock, 7, "7", "poster.jpg", `["7/movie.mkv"]`)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/movie/stream/7", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error": "Storage not configured"}`, rec.Body.String())
}

func TestServeStream_ServesFirstStreamFile(t *testing.T) {
	r, mock, root := newImageRouter(t, true)
	expectMovieRow(mock, 7, "7", "poster.jpg", `["7/movie.mkv","7/extras.mkv"]`)
	writeObject(t, root, "movie/7/movie.mkv", "streambytes")

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/movie/stream/7", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "streambytes", rec.Body.String())
}

func TestServeStream_NoStreams404(t *testing.T) {
	r, mock, _ := newImageRouter(t, true)
	expectMovieRow(mock, 7, "7", "poster.jpg", "")

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/movie/stream/7", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServeActorThumb(t *testing.T) {
	r, mock, root := newImageRouter(t, true)
	mock.ExpectQuery("SELECT thumb_path FROM actor_thumbs").
		WithArgs("Tony Leung").
		WillReturnRows(sqlmock.NewRows([]string{"thumb_path"}).AddRow("thumbs/tony.jpg"))
	writeObject(t, root, "movie/thumbs/tony.jpg", "thumbbytes")

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/movie/images/actor_thumb/Tony%20Leung", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "thumbbytes", rec.Body.String())
}

func TestServeActorThumb_NotFound(t *testing.T) {
	r, mock, _ := newImageRouter(t, true)
	mock.ExpectQuery("SELECT thumb_path FROM actor_thumbs").
		WillReturnRows(sqlmock.NewRows([]string{"thumb_path"}))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/movie/images/actor_thumb/Nobody", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
