package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	json "github.com/goccy/go-json"

	"Mediarr/logger"
	"Mediarr/services"
)

type MovieHandler struct {
	Movies *services.MovieService
}

func NewMovieHandler(movies *services.MovieService) *MovieHandler {
	return &MovieHandler{Movies: movies}
}

func pageParams(r *http.Request) services.PageParams {
	q := r.URL.Query()
	start, _ := strconv.Atoi(q.Get("StartIndex"))
	limit, _ := strconv.Atoi(q.Get("Limit"))
	return services.PageParams{
		StartIndex: start,
		Limit:      limit,
		SortBy:     q.Get("SortBy"),
		SortOrder:  q.Get("SortOrder"),
	}
}

func movieFilters(r *http.Request) services.MovieFilters {
	q := r.URL.Query()
	return services.MovieFilters{
		SearchTerm:       q.Get("SearchTerm"),
		DoubanID:         q.Get("DoubanID"),
		Genres:           q.Get("Genres"),
		ParentID:         q.Get("ParentID"),
		IncludeItemTypes: q.Get("IncludeItemTypes"),
		Person:           q.Get("Person"),
		Studio:           q.Get("Studio"),
		Series:           q.Get("Series"),
	}
}

func (h *MovieHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	page, err := h.Movies.ListMovies(r.Context(), movieFilters(r), pageParams(r))
	if err != nil {
		logger.Error().Err(err).Msg("failed to list movies")
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, page)
}

func (h *MovieHandler) GetItem(w http.ResponseWriter, r *http.Request) {
	item, err := h.Movies.GetMovie(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			respondError(w, http.StatusNotFound, "Movie not found")
			return
		}
		logger.Error().Err(err).Msg("failed to get movie")
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, item)
}

// Like and Unlike are idempotent sets: the verb carries the desired
// state, so repeating either leaves the flag where it already is.
func (h *MovieHandler) Like(w http.ResponseWriter, r *http.Request) {
	h.setLiked(w, r, true)
}

func (h *MovieHandler) Unlike(w http.ResponseWriter, r *http.Request) {
	h.setLiked(w, r, false)
}

func (h *MovieHandler) setLiked(w http.ResponseWriter, r *http.Request, liked bool) {
	state, err := h.Movies.SetLiked(r.Context(), chi.URLParam(r, "id"), liked)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			respondError(w, http.StatusNotFound, "Movie not found")
			return
		}
		logger.Error().Err(err).Msg("failed to set liked flag")
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"Liked": state})
}

func (h *MovieHandler) Related(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid movie id")
		return
	}

	items, err := h.Movies.Related(r.Context(), id)
	if err != nil {
		logger.Error().Err(err).Msg("failed to get related movies")
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"Items": items})
}

func (h *MovieHandler) Genres(w http.ResponseWriter, r *http.Request) {
	h.listStrings(w, r, h.Movies.Genres)
}

func (h *MovieHandler) Libraries(w http.ResponseWriter, r *http.Request) {
	h.listStrings(w, r, h.Movies.Libraries)
}

func (h *MovieHandler) Studios(w http.ResponseWriter, r *http.Request) {
	h.listStrings(w, r, h.Movies.Studios)
}

func (h *MovieHandler) Series(w http.ResponseWriter, r *http.Request) {
	h.listStrings(w, r, h.Movies.Series)
}

func (h *MovieHandler) listStrings(w http.ResponseWriter, r *http.Request, fetch func(context.Context) ([]string, error)) {
	values, err := fetch(r.Context())
	if err != nil {
		logger.Error().Err(err).Msg("failed to list aggregate")
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string][]string{"Items": values})
}

func (h *MovieHandler) Persons(w http.ResponseWriter, r *http.Request) {
	persons, err := h.Movies.Persons(r.Context(), r.URL.Query().Get("PersonType"))
	if err != nil {
		logger.Error().Err(err).Msg("failed to list persons")
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"Items": persons})
}

func (h *MovieHandler) ListCollections(w http.ResponseWriter, r *http.Request) {
	collections, err := h.Movies.ListCollections(r.Context())
	if err != nil {
		logger.Error().Err(err).Msg("failed to list collections")
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"Items": collections})
}

type createCollectionRequest struct {
	Name string `json:"name"`
}

func (h *MovieHandler) CreateCollection(w http.ResponseWriter, r *http.Request) {
	var req createCollectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		respondError(w, http.StatusBadRequest, "name is required")
		return
	}

	id, err := h.Movies.CreateCollection(r.Context(), req.Name)
	if err != nil {
		if errors.Is(err, services.ErrConflict) {
			respondError(w, http.StatusConflict, "Collection already exists")
			return
		}
		logger.Error().Err(err).Msg("failed to create collection")
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusCreated, map[string]any{"Id": id, "Name": req.Name})
}
