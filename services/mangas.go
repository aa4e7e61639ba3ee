package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"Mediarr/models"
)

const mangaColumns = "id, title, author, path, cover, pages, page_count, favorited, parent_id, scanned_at"

type MangaService struct {
	db      *sql.DB
	baseURL string
}

func NewMangaService(db *sql.DB, baseURL string) *MangaService {
	return &MangaService{db: db, baseURL: baseURL}
}

func scanManga(row rowScanner) (models.Manga, error) {
	var m models.Manga
	err := row.Scan(&m.ID, &m.Title, &m.Author, &m.Path, &m.Cover, &m.Pages,
		&m.PageCount, &m.Favorited, &m.ParentID, &m.ScannedAt)
	return m, err
}

func (s *MangaService) mapManga(m models.Manga) models.MangaItem {
	item := models.MangaItem{
		ID:         m.ID,
		Name:       m.Title,
		Author:     m.Author,
		PageCount:  m.PageCount,
		Favorited:  m.Favorited != 0,
		IsAppendix: m.ParentID.Valid,
	}
	if m.Cover != "" {
		item.CoverURL = fmt.Sprintf("%s/api/manga/images/cover/%d", s.baseURL, m.ID)
	}
	return item
}

// ListMangas pages through top-level records. Appendix volumes only show
// up on their parent's detail, never in listings.
func (s *MangaService) ListMangas(ctx context.Context, searchTerm string, p PageParams) (*models.MangaItemsPage, error) {
	where := "parent_id IS NULL"
	args := []any{}
	if searchTerm != "" {
		args = append(args, "%"+searchTerm+"%")
		where += " AND (title ILIKE $1 OR author ILIKE $1)"
	}

	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM mangas WHERE "+where, args...).Scan(&count); err != nil {
		return nil, fmt.Errorf("failed to count mangas: %w", err)
	}

	if p.Limit <= 0 {
		p.Limit = defaultPageSize
	}
	if p.StartIndex < 0 {
		p.StartIndex = 0
	}

	query := fmt.Sprintf("SELECT %s FROM mangas WHERE %s %s LIMIT $%d OFFSET $%d",
		mangaColumns, where, mangaOrderClause(p.SortBy, p.SortOrder), len(args)+1, len(args)+2)
	rows, err := s.db.QueryContext(ctx, query, append(args, p.Limit, p.StartIndex)...)
	if err != nil {
		return nil, fmt.Errorf("failed to query mangas: %w", err)
	}
	defer rows.Close()

	items := []models.MangaItem{}
	for rows.Next() {
		m, err := scanManga(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan manga: %w", err)
		}
		items = append(items, s.mapManga(m))
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &models.MangaItemsPage{
		Items:            items,
		TotalRecordCount: count,
		TotalPages:       totalPages(count, p.Limit),
		StartIndex:       p.StartIndex,
		Limit:            p.Limit,
	}, nil
}

func mangaOrderClause(sortBy, sortOrder string) string {
	col, ok := map[string]string{
		"SortName":    "title",
		"DateCreated": "scanned_at",
		"PageCount":   "page_count",
	}[sortBy]
	if !ok {
		col = "title"
	}

	dir := "ASC"
	if strings.EqualFold(sortOrder, "Descending") {
		dir = "DESC"
	}
	return fmt.Sprintf("ORDER BY %s %s, id %s", col, dir, dir)
}

// GetRawManga is used by the image handlers, which need the stored path
// and page list to compute storage keys.
func (s *MangaService) GetRawManga(ctx context.Context, id int) (*models.Manga, error) {
	query := fmt.Sprintf("SELECT %s FROM mangas WHERE id = $1", mangaColumns)
	m, err := scanManga(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to query manga: %w", err)
	}
	return &m, nil
}

// GetManga assembles the detail view: the record itself, a page-image
// URL per stored page, its appendix volumes, and its collections.
func (s *MangaService) GetManga(ctx context.Context, id int) (*models.MangaDetail, error) {
	m, err := s.GetRawManga(ctx, id)
	if err != nil {
		return nil, err
	}

	detail := &models.MangaDetail{
		MangaItem:   s.mapManga(*m),
		PageURLs:    []string{},
		Appendixes:  []models.MangaItem{},
		Collections: []models.MangaCollection{},
	}

	for i := range DecodeStringList(m.Pages) {
		detail.PageURLs = append(detail.PageURLs, fmt.Sprintf("%s/api/manga/images/page/%d/%d", s.baseURL, m.ID, i))
	}

	appendixQuery := fmt.Sprintf("SELECT %s FROM mangas WHERE parent_id = $1 ORDER BY title", mangaColumns)
	rows, err := s.db.QueryContext(ctx, appendixQuery, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query appendixes: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		a, err := scanManga(rows)
		if err != nil {
			return nil, err
		}
		detail.Appendixes = append(detail.Appendixes, s.mapManga(a))
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	cols, err := s.collectionsForManga(ctx, id)
	if err != nil {
		return nil, err
	}
	detail.Collections = cols

	return detail, nil
}

func (s *MangaService) collectionsForManga(ctx context.Context, mangaID int) ([]models.MangaCollection, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT c.id, c.name FROM manga_collections c
		JOIN manga_collection_items i ON i.collection_id = c.id
		WHERE i.manga_id = $1 ORDER BY c.name`, mangaID)
	if err != nil {
		return nil, fmt.Errorf("failed to query manga collections: %w", err)
	}
	defer rows.Close()

	out := []models.MangaCollection{}
	for rows.Next() {
		var c models.MangaCollection
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// SetFavorited writes the desired state from the request body. Repeating
// a set is a no-op, not a toggle.
func (s *MangaService) SetFavorited(ctx context.Context, id int, favorited bool) (bool, error) {
	val := 0
	if favorited {
		val = 1
	}

	var stored int
	err := s.db.QueryRowContext(ctx, "UPDATE mangas SET favorited = $1 WHERE id = $2 RETURNING favorited", val, id).Scan(&stored)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, ErrNotFound
		}
		return false, fmt.Errorf("failed to update favorited flag: %w", err)
	}
	return stored != 0, nil
}

// ListCollections returns the named collections with member counts.
func (s *MangaService) ListCollections(ctx context.Context) ([]models.MangaCollection, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT c.id, c.name, COUNT(i.manga_id) FROM manga_collections c
		LEFT JOIN manga_collection_items i ON i.collection_id = c.id
		GROUP BY c.id, c.name ORDER BY c.name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query manga collections: %w", err)
	}
	defer rows.Close()

	out := []models.MangaCollection{}
	for rows.Next() {
		var c models.MangaCollection
		if err := rows.Scan(&c.ID, &c.Name, &c.ItemCount); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
