package models

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"
)

// Artist is an (id, name) pair. The id may be empty for local or unavailable items.
type Artist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Playlist is an immutable reference to a playlist.
type Playlist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Track is a playlist membership entry.
//
// ID is empty for unavailable catalog items. AddedBy is nil when the service
// did not report an adder. Genres is only meaningful when GenresLoaded is set;
// an enriched track may still have no genres.
type Track struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Artists      []Artist  `json:"artists"`
	AddedAt      time.Time `json:"added_at"`
	AddedBy      *string   `json:"added_by"`
	AddedByKind  string    `json:"added_by_kind"`
	Genres       []string  `json:"genres,omitempty"`
	GenresLoaded bool      `json:"genres_loaded"`
}

// ArtistNames returns the artist names in primary-first order.
func (t Track) ArtistNames() []string {
	names := make([]string, len(t.Artists))
	for i, a := range t.Artists {
		names[i] = a.Name
	}
	return names
}

// Adder returns the adding account id or "<unknown>".
func (t Track) Adder() string {
	if t.AddedBy == nil {
		return "<unknown>"
	}
	return *t.AddedBy
}

// AgeDays returns whole days elapsed between AddedAt and now.
func (t Track) AgeDays(now time.Time) int {
	return int(now.Sub(t.AddedAt).Hours() / 24)
}

// WithGenres returns a copy of t carrying the given genres.
func (t Track) WithGenres(genres []string) Track {
	t.Genres = append([]string(nil), genres...)
	t.GenresLoaded = true
	return t
}

// String renders "name by a, b".
func (t Track) String() string {
	return fmt.Sprintf("%s by %s", t.Name, strings.Join(t.ArtistNames(), ", "))
}

// Fields enumerates a track's fields for [Describe].
func (t Track) Fields() map[string]any {
	return map[string]any{
		"id":            t.ID,
		"name":          t.Name,
		"artists":       t.ArtistNames(),
		"added_at":      t.AddedAt.Format(time.RFC3339),
		"added_by":      t.Adder(),
		"added_by_kind": t.AddedByKind,
		"genres":        t.Genres,
		"genres_loaded": t.GenresLoaded,
	}
}

// Fields enumerates a playlist's fields for [Describe].
func (p Playlist) Fields() map[string]any {
	return map[string]any{"id": p.ID, "name": p.Name}
}

// Describe writes sorted "key: value" lines for debugging.
func Describe(w io.Writer, fields map[string]any) {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(w, "%s: %v\n", k, fields[k])
	}
}

// ItemTrack is the track part of a raw playlist entry.
type ItemTrack struct {
	ID      string
	Name    string
	Artists []Artist
}

// PlaylistItem is one raw membership entry as returned by a service page.
//
// Track is nil for entries without a track object (episodes, purged items).
type PlaylistItem struct {
	AddedAt     string
	AddedByID   string
	AddedByKind string
	Track       *ItemTrack
}

// PersonalIndex maps personal playlist name → current tracks.
type PersonalIndex map[string][]Track

// Names returns playlist names in sorted order.
func (p PersonalIndex) Names() []string {
	names := make([]string, 0, len(p))
	for name := range p {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
