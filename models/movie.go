package models

import "time"

// Movie is the raw movies row. List-shaped columns (genres, tags, actors,
// directors, streams) hold JSON-encoded text written by the scanner; the
// mapper in services expands them before anything leaves the API.
type Movie struct {
	ID            int       `json:"id"`
	DoubanID      string    `json:"douban_id"`
	Title         string    `json:"title"`
	OriginalTitle string    `json:"original_title"`
	Plot          string    `json:"plot"`
	Rating        float64   `json:"rating"`
	Runtime       int       `json:"runtime"` // minutes
	Studio        string    `json:"studio"`
	Premiered     string    `json:"premiered"`
	SetName       string    `json:"set_name"`
	Genres        string    `json:"genres"`
	Tags          string    `json:"tags"`
	Actors        string    `json:"actors"`
	Directors     string    `json:"directors"`
	PosterPath    string    `json:"poster_path"`
	FanartPath    string    `json:"fanart_path"`
	Streams       string    `json:"streams"`
	Liked         int       `json:"liked"`
	Library       string    `json:"library"`
	ItemType      string    `json:"item_type"`
	ScannedAt     time.Time `json:"scanned_at"`
}

// MovieRelation is one row of the precomputed relation table. Produced
// offline, read-only here.
type MovieRelation struct {
	MovieID   int     `json:"movie_id"`
	RelatedID int     `json:"related_id"`
	Score     float64 `json:"score"`
	Relation  string  `json:"relation"`
}

type Collection struct {
	ID   int    `json:"Id"`
	Name string `json:"Name"`
}

type ActorThumb struct {
	Name      string `json:"name"`
	ThumbPath string `json:"thumb_path"`
}
