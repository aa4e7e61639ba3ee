package models

import (
	"database/sql"
	"time"
)

// Manga is the raw mangas row. Pages holds a JSON-encoded ordered list of
// page filenames relative to Path. ParentID links an appendix volume to
// the primary work it supplements.
type Manga struct {
	ID        int           `json:"id"`
	Title     string        `json:"title"`
	Author    string        `json:"author"`
	Path      string        `json:"path"`
	Cover     string        `json:"cover"`
	Pages     string        `json:"pages"`
	PageCount int           `json:"page_count"`
	Favorited int           `json:"favorited"`
	ParentID  sql.NullInt64 `json:"parent_id"`
	ScannedAt time.Time     `json:"scanned_at"`
}

type MangaCollection struct {
	ID        int    `json:"Id"`
	Name      string `json:"Name"`
	ItemCount int    `json:"ItemCount"`
}
