package models

// Response shapes. Field names follow the client's expectations rather
// than the column names; the mapper owns the translation.

type Person struct {
	Name            string `json:"Name"`
	ID              string `json:"Id"`
	Type            string `json:"Type"` // Actor or Director
	Role            string `json:"Role,omitempty"`
	PrimaryImageTag string `json:"PrimaryImageTag,omitempty"`
}

type StreamRef struct {
	Name string `json:"Name"`
	URL  string `json:"Url"`
}

type MovieItem struct {
	ID              int          `json:"Id"`
	DoubanID        string       `json:"DoubanId,omitempty"`
	Name            string       `json:"Name"`
	SortName        string       `json:"SortName"`
	OriginalTitle   string       `json:"OriginalTitle,omitempty"`
	Overview        string       `json:"Overview"`
	CommunityRating float64      `json:"CommunityRating"`
	RunTimeTicks    int64        `json:"RunTimeTicks"`
	PremiereDate    string       `json:"PremiereDate,omitempty"`
	Studio          string       `json:"Studio,omitempty"`
	SeriesName      string       `json:"SeriesName,omitempty"`
	Library         string       `json:"Library,omitempty"`
	Type            string       `json:"Type"`
	Genres          []string     `json:"Genres"`
	Tags            []string     `json:"Tags"`
	People          []Person     `json:"People"`
	PosterURL       string       `json:"PosterUrl,omitempty"`
	FanartURL       string       `json:"FanartUrl,omitempty"`
	Streams         []StreamRef  `json:"Streams"`
	Liked           bool         `json:"Liked"`
	Collections     []Collection `json:"Collections"`
}

type MovieItemsPage struct {
	Items            []MovieItem `json:"Items"`
	TotalRecordCount int         `json:"TotalRecordCount"`
	TotalPages       int         `json:"TotalPages"`
	StartIndex       int         `json:"StartIndex"`
	Limit            int         `json:"Limit"`
}

type MangaItem struct {
	ID          int    `json:"Id"`
	Name        string `json:"Name"`
	Author      string `json:"Author,omitempty"`
	CoverURL    string `json:"CoverUrl,omitempty"`
	PageCount   int    `json:"PageCount"`
	Favorited   bool   `json:"Favorited"`
	IsAppendix  bool   `json:"IsAppendix"`
}

// MangaDetail adds the expensive sub-lists the listing endpoint skips.
type MangaDetail struct {
	MangaItem
	PageURLs    []string          `json:"PageUrls"`
	Appendixes  []MangaItem       `json:"Appendixes"`
	Collections []MangaCollection `json:"Collections"`
}

type MangaItemsPage struct {
	Items            []MangaItem `json:"Items"`
	TotalRecordCount int         `json:"TotalRecordCount"`
	TotalPages       int         `json:"TotalPages"`
	StartIndex       int         `json:"StartIndex"`
	Limit            int         `json:"Limit"`
}
