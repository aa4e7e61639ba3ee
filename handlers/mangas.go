package handlers

import (
	"errors"
	"net/http"
	"path"
	"strconv"

	"github.com/go-chi/chi/v5"
	json "github.com/goccy/go-json"

	"Mediarr/config"
	"Mediarr/logger"
	"Mediarr/services"
	"Mediarr/storage"
)

type MangaHandler struct {
	Mangas *services.MangaService
	Store  *storage.Store
	Cfg    *config.Config
}

func NewMangaHandler(mangas *services.MangaService, store *storage.Store, cfg *config.Config) *MangaHandler {
	return &MangaHandler{Mangas: mangas, Store: store, Cfg: cfg}
}

func (h *MangaHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	page, err := h.Mangas.ListMangas(r.Context(), r.URL.Query().Get("SearchTerm"), pageParams(r))
	if err != nil {
		logger.Error().Err(err).Msg("failed to list mangas")
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, page)
}

func mangaID(r *http.Request) (int, error) {
	return strconv.Atoi(chi.URLParam(r, "id"))
}

func (h *MangaHandler) GetItem(w http.ResponseWriter, r *http.Request) {
	id, err := mangaID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid manga id")
		return
	}

	detail, err := h.Mangas.GetManga(r.Context(), id)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			respondError(w, http.StatusNotFound, "Manga not found")
			return
		}
		logger.Error().Err(err).Msg("failed to get manga")
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, detail)
}

type favoriteRequest struct {
	Favorited *bool `json:"favorited"`
}

// Favorite sets the flag from the explicit state carried in the body.
// Unlike the movie like endpoints the verb says nothing here; the
// client states what it wants.
func (h *MangaHandler) Favorite(w http.ResponseWriter, r *http.Request) {
	id, err := mangaID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid manga id")
		return
	}

	var req favoriteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Favorited == nil {
		respondError(w, http.StatusBadRequest, "favorited is required")
		return
	}

	state, err := h.Mangas.SetFavorited(r.Context(), id, *req.Favorited)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			respondError(w, http.StatusNotFound, "Manga not found")
			return
		}
		logger.Error().Err(err).Msg("failed to set favorited flag")
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"Favorited": state})
}

func (h *MangaHandler) ServeCover(w http.ResponseWriter, r *http.Request) {
	id, err := mangaID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid manga id")
		return
	}

	m, err := h.Mangas.GetRawManga(r.Context(), id)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			respondError(w, http.StatusNotFound, "Manga not found")
			return
		}
		logger.Error().Err(err).Msg("failed to look up manga for cover")
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if m.Cover == "" {
		respondError(w, http.StatusNotFound, "No cover available")
		return
	}

	h.serveObject(w, r, path.Join(h.Cfg.MangaPrefix, m.Path, m.Cover))
}

// ServePage streams one page image by zero-based index into the stored
// page list.
func (h *MangaHandler) ServePage(w http.ResponseWriter, r *http.Request) {
	id, err := mangaID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid manga id")
		return
	}
	pageIndex, err := strconv.Atoi(chi.URLParam(r, "page"))
	if err != nil || pageIndex < 0 {
		respondError(w, http.StatusBadRequest, "Invalid page index")
		return
	}

	m, err := h.Mangas.GetRawManga(r.Context(), id)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			respondError(w, http.StatusNotFound, "Manga not found")
			return
		}
		logger.Error().Err(err).Msg("failed to look up manga for page")
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	pages := services.DecodeStringList(m.Pages)
	if pageIndex >= len(pages) {
		respondError(w, http.StatusNotFound, "Page not found")
		return
	}

	h.serveObject(w, r, path.Join(h.Cfg.MangaPrefix, m.Path, pages[pageIndex]))
}

func (h *MangaHandler) ListCollections(w http.ResponseWriter, r *http.Request) {
	collections, err := h.Mangas.ListCollections(r.Context())
	if err != nil {
		logger.Error().Err(err).Msg("failed to list manga collections")
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"Items": collections})
}

func (h *MangaHandler) serveObject(w http.ResponseWriter, r *http.Request, key string) {
	err := h.Store.Serve(w, r, storage.MangaBucket, key)
	switch {
	case err == nil:
	case errors.Is(err, storage.ErrNotFound):
		respondError(w, http.StatusNotFound, "Object not found")
	case errors.Is(err, storage.ErrNoBucket):
		logger.Error().Err(err).Msg("bucket not configured")
		respondError(w, http.StatusInternalServerError, "Storage not configured")
	default:
		logger.Error().Err(err).Str("key", key).Msg("failed to serve object")
		respondError(w, http.StatusInternalServerError, err.Error())
	}
}
