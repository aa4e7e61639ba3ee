package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"path"
	"path/filepath"

	"github.com/go-chi/chi/v5"

	"Mediarr/config"
	"Mediarr/logger"
	"Mediarr/services"
	"Mediarr/storage"
)

// ImageHandler serves movie posters, fanart, actor thumbnails and stream
// files out of the object store. Images are addressed by record
// identifier, never by storage path.
type ImageHandler struct {
	Movies *services.MovieService
	Store  *storage.Store
	Cfg    *config.Config
}

func NewImageHandler(movies *services.MovieService, store *storage.Store, cfg *config.Config) *ImageHandler {
	return &ImageHandler{Movies: movies, Store: store, Cfg: cfg}
}

func (h *ImageHandler) ServePoster(w http.ResponseWriter, r *http.Request) {
	h.serveMovieImage(w, r, "poster")
}

func (h *ImageHandler) ServeFanart(w http.ResponseWriter, r *http.Request) {
	h.serveMovieImage(w, r, "fanart")
}

// serveMovieImage applies the identifier-aliasing rule: a request by
// numeric id whose record carries a different external identifier gets a
// 301 to the external-identifier URL, and only that canonical form is
// used to compute the storage key. The equality guard in the resolver
// keeps records whose two identifiers coincide from redirecting to
// themselves forever.
func (h *ImageHandler) serveMovieImage(w http.ResponseWriter, r *http.Request, kind string) {
	requested := chi.URLParam(r, "id")

	m, err := h.Movies.GetRawMovie(r.Context(), requested)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			respondError(w, http.StatusNotFound, "Movie not found")
			return
		}
		logger.Error().Err(err).Msg("failed to look up movie for image")
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	storedPath := m.PosterPath
	if kind == "fanart" {
		storedPath = m.FanartPath
	}
	if storedPath == "" {
		respondError(w, http.StatusNotFound, "No image available")
		return
	}

	decision := services.ResolveImageIdentifier(requested, m.DoubanID)
	if decision.Redirect {
		http.Redirect(w, r, fmt.Sprintf("/api/movie/images/%s/%s", kind, decision.Canonical), http.StatusMovedPermanently)
		return
	}

	ext := filepath.Ext(storedPath)
	if ext == "" {
		ext = ".jpg"
	}
	key := path.Join(h.Cfg.MoviePrefix, decision.Canonical, kind+ext)
	h.serveObject(w, r, storage.MovieBucket, key)
}

func (h *ImageHandler) ServeActorThumb(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	thumbPath, err := h.Movies.ActorThumbPath(r.Context(), name)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			respondError(w, http.StatusNotFound, "Actor thumbnail not found")
			return
		}
		logger.Error().Err(err).Msg("failed to look up actor thumb")
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.serveObject(w, r, storage.MovieBucket, path.Join(h.Cfg.MoviePrefix, thumbPath))
}

// ServeStream streams the first playable file of the record. Range
// requests pass through to the store so seeking works.
func (h *ImageHandler) ServeStream(w http.ResponseWriter, r *http.Request) {
	m, err := h.Movies.GetRawMovie(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			respondError(w, http.StatusNotFound, "Movie not found")
			return
		}
		logger.Error().Err(err).Msg("failed to look up movie for stream")
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	streams := services.DecodeStringList(m.Streams)
	if len(streams) == 0 {
		respondError(w, http.StatusNotFound, "No stream available")
		return
	}

	h.serveObject(w, r, storage.MovieBucket, path.Join(h.Cfg.MoviePrefix, streams[0]))
}

// ServeStatic is the passthrough route for arbitrary stored assets.
func (h *ImageHandler) ServeStatic(w http.ResponseWriter, r *http.Request) {
	h.serveObject(w, r, storage.StaticBucket, chi.URLParam(r, "*"))
}

func (h *ImageHandler) serveObject(w http.ResponseWriter, r *http.Request, bucket, key string) {
	err := h.Store.Serve(w, r, bucket, key)
	switch {
	case err == nil:
	case errors.Is(err, storage.ErrNotFound):
		respondError(w, http.StatusNotFound, "Object not found")
	case errors.Is(err, storage.ErrNoBucket):
		logger.Error().Err(err).Str("bucket", bucket).Msg("bucket not configured")
		respondError(w, http.StatusInternalServerError, "Storage not configured")
	default:
		logger.Error().Err(err).Str("key", key).Msg("failed to serve object")
		respondError(w, http.StatusInternalServerError, err.Error())
	}
}
