package services

import (
	"fmt"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"

	"Mediarr/models"
)

// One minute of runtime in client ticks (100ns units).
const ticksPerMinute int64 = 600000000

// DecodeStringList expands a JSON-encoded list column. Decode failure
// falls back to comma-splitting the raw value; empty input yields an
// empty list. This never returns an error: scanner output predates the
// JSON encoding and some rows still carry flat comma-joined strings.
func DecodeStringList(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return []string{}
	}

	var list []string
	if err := json.Unmarshal([]byte(raw), &list); err == nil {
		if list == nil {
			return []string{}
		}
		return list
	}

	return splitAndTrim(raw)
}

// actorEntry matches the scanner's actor encoding.
type actorEntry struct {
	Name string `json:"name"`
	Role string `json:"role"`
}

func decodeActors(raw string) []actorEntry {
	if strings.TrimSpace(raw) == "" {
		return []actorEntry{}
	}

	var entries []actorEntry
	if err := json.Unmarshal([]byte(raw), &entries); err == nil && entries != nil {
		return entries
	}

	// Fall back to a flat name list
	out := []actorEntry{}
	for _, name := range DecodeStringList(raw) {
		out = append(out, actorEntry{Name: name})
	}
	return out
}

// imageIdentifier picks the identifier used in synthesized image and
// stream URLs: the numeric id when the row has one, the external id
// otherwise. Storage paths never appear in URLs.
func imageIdentifier(id int, doubanID string) string {
	if id != 0 {
		return strconv.Itoa(id)
	}
	return doubanID
}

// mapMovie reshapes a raw row into the response form. thumbFor resolves
// an actor name to a thumbnail path, or "" when no thumbnail record
// exists; collections are attached separately by the service.
func mapMovie(m models.Movie, baseURL string, thumbFor func(string) string) models.MovieItem {
	ident := imageIdentifier(m.ID, m.DoubanID)

	item := models.MovieItem{
		ID:              m.ID,
		DoubanID:        m.DoubanID,
		Name:            m.Title,
		SortName:        m.Title,
		OriginalTitle:   m.OriginalTitle,
		Overview:        m.Plot,
		CommunityRating: m.Rating,
		RunTimeTicks:    int64(m.Runtime) * ticksPerMinute,
		PremiereDate:    m.Premiered,
		Studio:          m.Studio,
		SeriesName:      m.SetName,
		Library:         m.Library,
		Type:            m.ItemType,
		Genres:          DecodeStringList(m.Genres),
		Tags:            DecodeStringList(m.Tags),
		Liked:           m.Liked != 0,
		People:          []models.Person{},
		Streams:         []models.StreamRef{},
		Collections:     []models.Collection{},
	}
	if item.Type == "" {
		item.Type = "Movie"
	}

	if m.PosterPath != "" {
		item.PosterURL = fmt.Sprintf("%s/api/movie/images/poster/%s", baseURL, ident)
	}
	if m.FanartPath != "" {
		item.FanartURL = fmt.Sprintf("%s/api/movie/images/fanart/%s", baseURL, ident)
	}

	for _, a := range decodeActors(m.Actors) {
		if a.Name == "" {
			continue
		}
		p := models.Person{Name: a.Name, ID: a.Name, Type: "Actor", Role: a.Role}
		if thumbFor != nil && thumbFor(a.Name) != "" {
			p.PrimaryImageTag = fmt.Sprintf("%s/api/movie/images/actor_thumb/%s", baseURL, a.Name)
		}
		item.People = append(item.People, p)
	}
	for _, d := range DecodeStringList(m.Directors) {
		item.People = append(item.People, models.Person{Name: d, ID: d, Type: "Director"})
	}

	for _, s := range DecodeStringList(m.Streams) {
		item.Streams = append(item.Streams, models.StreamRef{
			Name: s,
			URL:  fmt.Sprintf("%s/api/movie/stream/%s", baseURL, ident),
		})
	}

	return item
}
