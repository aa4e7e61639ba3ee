package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"golang.org/x/sync/errgroup"

	"Mediarr/models"
)

const movieColumns = "id, douban_id, title, original_title, plot, rating, runtime, studio, premiered, set_name, genres, tags, actors, directors, poster_path, fanart_path, streams, liked, library, item_type, scanned_at"

// Related-items blending caps: the ranked prefix is deterministic, the
// discovery suffix is drawn from the randomized genre pool.
const (
	relatedRankedLimit    = 12
	relatedDiscoveryLimit = 4
)

const defaultPageSize = 50

type MovieService struct {
	db      *sql.DB
	baseURL string
}

func NewMovieService(db *sql.DB, baseURL string) *MovieService {
	return &MovieService{db: db, baseURL: baseURL}
}

type PageParams struct {
	StartIndex int
	Limit      int
	SortBy     string
	SortOrder  string
}

// orderClause maps client sort names onto columns. Unknown names fall
// back to title so a bad SortBy can never reach the SQL text.
func orderClause(sortBy, sortOrder string) string {
	col, ok := map[string]string{
		"SortName":        "title",
		"CommunityRating": "rating",
		"DateCreated":     "scanned_at",
		"PremiereDate":    "premiered",
		"Random":          "random()",
	}[sortBy]
	if !ok {
		col = "title"
	}

	dir := "ASC"
	if strings.EqualFold(sortOrder, "Descending") {
		dir = "DESC"
	}
	if col == "random()" {
		return "ORDER BY random()"
	}
	return fmt.Sprintf("ORDER BY %s %s, id %s", col, dir, dir)
}

func totalPages(count, limit int) int {
	if limit <= 0 {
		return 0
	}
	return (count + limit - 1) / limit
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMovie(row rowScanner) (models.Movie, error) {
	var m models.Movie
	err := row.Scan(&m.ID, &m.DoubanID, &m.Title, &m.OriginalTitle, &m.Plot, &m.Rating,
		&m.Runtime, &m.Studio, &m.Premiered, &m.SetName, &m.Genres, &m.Tags, &m.Actors,
		&m.Directors, &m.PosterPath, &m.FanartPath, &m.Streams, &m.Liked, &m.Library,
		&m.ItemType, &m.ScannedAt)
	return m, err
}

// ListMovies runs the filtered, sorted, paginated listing query and maps
// the page of rows into response shape.
func (s *MovieService) ListMovies(ctx context.Context, f MovieFilters, p PageParams) (*models.MovieItemsPage, error) {
	where, args := BuildMovieWhereClause(f)

	var count int
	countQuery := "SELECT COUNT(*) FROM movies WHERE " + where
	if err := s.db.QueryRowContext(ctx, countQuery, args...).Scan(&count); err != nil {
		return nil, fmt.Errorf("failed to count movies: %w", err)
	}

	if p.Limit <= 0 {
		p.Limit = defaultPageSize
	}
	if p.StartIndex < 0 {
		p.StartIndex = 0
	}

	query := fmt.Sprintf("SELECT %s FROM movies WHERE %s %s LIMIT $%d OFFSET $%d",
		movieColumns, where, orderClause(p.SortBy, p.SortOrder), len(args)+1, len(args)+2)
	rows, err := s.db.QueryContext(ctx, query, append(args, p.Limit, p.StartIndex)...)
	if err != nil {
		return nil, fmt.Errorf("failed to query movies: %w", err)
	}
	defer rows.Close()

	raw := []models.Movie{}
	for rows.Next() {
		m, err := scanMovie(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan movie: %w", err)
		}
		raw = append(raw, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	items, err := s.mapMovies(ctx, raw)
	if err != nil {
		return nil, err
	}

	return &models.MovieItemsPage{
		Items:            items,
		TotalRecordCount: count,
		TotalPages:       totalPages(count, p.Limit),
		StartIndex:       p.StartIndex,
		Limit:            p.Limit,
	}, nil
}

// mapMovies reshapes a batch of rows. Actor thumbnails are resolved in
// one query for the whole batch; the per-row collection lookups run
// concurrently with results written by index so output order follows row
// order, not completion order.
func (s *MovieService) mapMovies(ctx context.Context, raw []models.Movie) ([]models.MovieItem, error) {
	thumbs, err := s.thumbsFor(ctx, raw)
	if err != nil {
		return nil, err
	}
	thumbFor := func(name string) string { return thumbs[name] }

	items := make([]models.MovieItem, len(raw))
	g, gctx := errgroup.WithContext(ctx)
	for i, m := range raw {
		i, m := i, m
		items[i] = mapMovie(m, s.baseURL, thumbFor)
		g.Go(func() error {
			cols, err := s.collectionsForMovie(gctx, m.ID)
			if err != nil {
				return err
			}
			items[i].Collections = cols
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return items, nil
}

// thumbsFor fetches every thumbnail record matching an actor name in the
// batch. Missing names simply stay out of the map.
func (s *MovieService) thumbsFor(ctx context.Context, raw []models.Movie) (map[string]string, error) {
	names := []string{}
	seen := map[string]bool{}
	for _, m := range raw {
		for _, a := range decodeActors(m.Actors) {
			if a.Name != "" && !seen[a.Name] {
				seen[a.Name] = true
				names = append(names, a.Name)
			}
		}
	}

	thumbs := map[string]string{}
	if len(names) == 0 {
		return thumbs, nil
	}

	placeholders := make([]string, len(names))
	args := make([]any, len(names))
	for i, name := range names {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = name
	}

	query := "SELECT name, thumb_path FROM actor_thumbs WHERE name IN (" + strings.Join(placeholders, ", ") + ")"
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query actor thumbs: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var name, path string
		if err := rows.Scan(&name, &path); err != nil {
			return nil, err
		}
		thumbs[name] = path
	}
	return thumbs, rows.Err()
}

// GetRawMovie looks a row up by numeric id first and falls back to the
// external identifier, which is itself often a numeric string. The image
// and stream handlers need the raw row for its storage paths.
func (s *MovieService) GetRawMovie(ctx context.Context, idOrExternal string) (*models.Movie, error) {
	if id, err := strconv.Atoi(idOrExternal); err == nil {
		query := fmt.Sprintf("SELECT %s FROM movies WHERE id = $1", movieColumns)
		m, err := scanMovie(s.db.QueryRowContext(ctx, query, id))
		if err == nil {
			return &m, nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("failed to query movie: %w", err)
		}
	}

	query := fmt.Sprintf("SELECT %s FROM movies WHERE douban_id = $1", movieColumns)
	m, err := scanMovie(s.db.QueryRowContext(ctx, query, idOrExternal))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to query movie: %w", err)
	}
	return &m, nil
}

// GetMovie returns the mapped record or ErrNotFound.
func (s *MovieService) GetMovie(ctx context.Context, idOrExternal string) (*models.MovieItem, error) {
	m, err := s.GetRawMovie(ctx, idOrExternal)
	if err != nil {
		return nil, err
	}

	items, err := s.mapMovies(ctx, []models.Movie{*m})
	if err != nil {
		return nil, err
	}
	return &items[0], nil
}

// SetLiked writes the desired liked state. The verb on the handler side
// carries the state, so repeating a like or unlike is a no-op rather
// than a toggle.
func (s *MovieService) SetLiked(ctx context.Context, idOrExternal string, liked bool) (bool, error) {
	val := 0
	if liked {
		val = 1
	}

	var stored int
	if id, err := strconv.Atoi(idOrExternal); err == nil {
		err := s.db.QueryRowContext(ctx, "UPDATE movies SET liked = $1 WHERE id = $2 RETURNING liked", val, id).Scan(&stored)
		if err == nil {
			return stored != 0, nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return false, fmt.Errorf("failed to update liked flag: %w", err)
		}
	}

	err := s.db.QueryRowContext(ctx, "UPDATE movies SET liked = $1 WHERE douban_id = $2 RETURNING liked", val, idOrExternal).Scan(&stored)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, ErrNotFound
		}
		return false, fmt.Errorf("failed to update liked flag: %w", err)
	}
	return stored != 0, nil
}

// Related returns the blended related-items list: a ranked prefix from
// the precomputed primary relations, then a short randomized discovery
// suffix from the genre pool, with anything already ranked filtered out.
func (s *MovieService) Related(ctx context.Context, id int) ([]models.MovieItem, error) {
	rankedQuery := fmt.Sprintf(`SELECT %s FROM movies m
		JOIN movie_relations r ON r.related_id = m.id
		WHERE r.movie_id = $1 AND r.relation = 'primary'
		ORDER BY r.score DESC, m.rating DESC LIMIT $2`,
		prefixedMovieColumns("m"))
	ranked, err := s.queryMovies(ctx, rankedQuery, id, relatedRankedLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to query ranked relations: %w", err)
	}

	poolQuery := fmt.Sprintf(`SELECT %s FROM movies m
		JOIN movie_relations r ON r.related_id = m.id
		WHERE r.movie_id = $1 AND r.relation = 'genre-random'
		ORDER BY random() LIMIT $2`,
		prefixedMovieColumns("m"))
	pool, err := s.queryMovies(ctx, poolQuery, id, relatedRankedLimit+relatedDiscoveryLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to query discovery pool: %w", err)
	}

	seen := map[int]bool{}
	for _, m := range ranked {
		seen[m.ID] = true
	}

	blended := ranked
	taken := 0
	for _, m := range pool {
		if taken >= relatedDiscoveryLimit {
			break
		}
		if seen[m.ID] {
			continue
		}
		seen[m.ID] = true
		blended = append(blended, m)
		taken++
	}

	return s.mapMovies(ctx, blended)
}

func prefixedMovieColumns(alias string) string {
	cols := strings.Split(movieColumns, ", ")
	for i, c := range cols {
		cols[i] = alias + "." + c
	}
	return strings.Join(cols, ", ")
}

func (s *MovieService) queryMovies(ctx context.Context, query string, args ...any) ([]models.Movie, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.Movie{}
	for rows.Next() {
		m, err := scanMovie(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// Genres aggregates the distinct genre values across the library by
// decoding every row's genre list. The column is JSON text, so this
// cannot be a plain DISTINCT.
func (s *MovieService) Genres(ctx context.Context) ([]string, error) {
	return s.distinctFromJSONColumn(ctx, "SELECT genres FROM movies")
}

func (s *MovieService) distinctFromJSONColumn(ctx context.Context, query string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query column: %w", err)
	}
	defer rows.Close()

	seen := map[string]bool{}
	out := []string{}
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		for _, v := range DecodeStringList(raw) {
			if v != "" && !seen[v] {
				seen[v] = true
				out = append(out, v)
			}
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.Strings(out)
	return out, nil
}

func (s *MovieService) Libraries(ctx context.Context) ([]string, error) {
	return s.distinctColumn(ctx, "SELECT DISTINCT library FROM movies WHERE library <> '' ORDER BY library")
}

func (s *MovieService) Studios(ctx context.Context) ([]string, error) {
	return s.distinctColumn(ctx, "SELECT DISTINCT studio FROM movies WHERE studio <> '' ORDER BY studio")
}

func (s *MovieService) Series(ctx context.Context) ([]string, error) {
	return s.distinctColumn(ctx, "SELECT DISTINCT set_name FROM movies WHERE set_name <> '' ORDER BY set_name")
}

func (s *MovieService) distinctColumn(ctx context.Context, query string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query column: %w", err)
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// Persons lists distinct people of the requested type. Type "Actor"
// decodes the actors column, "Director" the directors column; empty
// means both.
func (s *MovieService) Persons(ctx context.Context, personType string) ([]models.Person, error) {
	out := []models.Person{}
	seen := map[string]bool{}

	add := func(name, ptype, role string) {
		if name == "" || seen[ptype+"/"+name] {
			return
		}
		seen[ptype+"/"+name] = true
		out = append(out, models.Person{Name: name, ID: name, Type: ptype, Role: role})
	}

	if personType == "" || personType == "Actor" {
		rows, err := s.db.QueryContext(ctx, "SELECT actors FROM movies")
		if err != nil {
			return nil, fmt.Errorf("failed to query actors: %w", err)
		}
		for rows.Next() {
			var raw string
			if err := rows.Scan(&raw); err != nil {
				rows.Close()
				return nil, err
			}
			for _, a := range decodeActors(raw) {
				add(a.Name, "Actor", a.Role)
			}
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return nil, err
		}
	}

	if personType == "" || personType == "Director" {
		rows, err := s.db.QueryContext(ctx, "SELECT directors FROM movies")
		if err != nil {
			return nil, fmt.Errorf("failed to query directors: %w", err)
		}
		for rows.Next() {
			var raw string
			if err := rows.Scan(&raw); err != nil {
				rows.Close()
				return nil, err
			}
			for _, d := range DecodeStringList(raw) {
				add(d, "Director", "")
			}
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return nil, err
		}
	}

	return out, nil
}

func (s *MovieService) ListCollections(ctx context.Context) ([]models.Collection, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id, name FROM collections ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("failed to query collections: %w", err)
	}
	defer rows.Close()

	out := []models.Collection{}
	for rows.Next() {
		var c models.Collection
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// CreateCollection inserts a named collection and returns its generated
// id; a duplicate name surfaces as ErrConflict.
func (s *MovieService) CreateCollection(ctx context.Context, name string) (int, error) {
	var id int
	err := s.db.QueryRowContext(ctx, "INSERT INTO collections (name) VALUES ($1) RETURNING id", name).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return 0, ErrConflict
		}
		return 0, fmt.Errorf("failed to create collection: %w", err)
	}
	return id, nil
}

func (s *MovieService) collectionsForMovie(ctx context.Context, movieID int) ([]models.Collection, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT c.id, c.name FROM collections c
		JOIN collection_movies cm ON cm.collection_id = c.id
		WHERE cm.movie_id = $1 ORDER BY c.name`, movieID)
	if err != nil {
		return nil, fmt.Errorf("failed to query movie collections: %w", err)
	}
	defer rows.Close()

	out := []models.Collection{}
	for rows.Next() {
		var c models.Collection
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// ActorThumbPath resolves an actor name to its stored thumbnail path.
func (s *MovieService) ActorThumbPath(ctx context.Context, name string) (string, error) {
	var path string
	err := s.db.QueryRowContext(ctx, "SELECT thumb_path FROM actor_thumbs WHERE name = $1 LIMIT 1", name).Scan(&path)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("failed to query actor thumb: %w", err)
	}
	return path, nil
}
