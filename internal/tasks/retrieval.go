package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/curator/internal/models"
	"github.com/desertthunder/curator/internal/services"
	"github.com/desertthunder/curator/internal/shared"
)

const (
	defaultPageLimit = 100
	defaultMaxPages  = 100
)

// Retriever pages playlist membership out of a [services.Service] and converts it to tracks.
type Retriever struct {
	svc       services.Service
	pageLimit int
	maxPages  int
	logger    *log.Logger
}

// NewRetriever creates a Retriever. Zero page settings fall back to 100 entries × 100 pages.
func NewRetriever(svc services.Service, cfg shared.SpotifyConfig, logger *log.Logger) *Retriever {
	if cfg.PageLimit <= 0 {
		cfg.PageLimit = defaultPageLimit
	}
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = defaultMaxPages
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Retriever{svc: svc, pageLimit: cfg.PageLimit, maxPages: cfg.MaxPages, logger: logger}
}

// PlaylistItems fetches pages until an empty page or the page cap is reached.
func (r *Retriever) PlaylistItems(ctx context.Context, playlistID string) ([]models.PlaylistItem, error) {
	var all []models.PlaylistItem

	for page := range r.maxPages {
		items, err := r.svc.PlaylistPage(ctx, playlistID, r.pageLimit, page*r.pageLimit)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch playlist %s: %w", playlistID, err)
		}
		if len(items) == 0 {
			return all, nil
		}
		all = append(all, items...)
	}

	r.logger.Warn("page cap reached, playlist may be truncated", "playlist", playlistID, "pages", r.maxPages)
	return all, nil
}

// Tracks fetches a playlist and converts its entries with [ToTracks].
func (r *Retriever) Tracks(ctx context.Context, playlistID string) ([]models.Track, error) {
	items, err := r.PlaylistItems(ctx, playlistID)
	if err != nil {
		return nil, err
	}
	return ToTracks(items, r.logger)
}

// ToTracks converts raw entries to tracks.
//
// Entries without a track object are dropped. An adder kind other than "user" is logged
// and kept. An unparseable added_at is a data-integrity error.
func ToTracks(items []models.PlaylistItem, logger *log.Logger) ([]models.Track, error) {
	tracks := make([]models.Track, 0, len(items))

	for _, it := range items {
		if it.Track == nil {
			logger.Debug("skipping entry without track", "added_at", it.AddedAt)
			continue
		}

		addedAt, err := time.Parse(time.RFC3339, it.AddedAt)
		if err != nil {
			return nil, fmt.Errorf("%w: track %q has invalid added_at %q", shared.ErrDataIntegrity, it.Track.Name, it.AddedAt)
		}

		track := models.Track{
			ID:          it.Track.ID,
			Name:        it.Track.Name,
			Artists:     append([]models.Artist(nil), it.Track.Artists...),
			AddedAt:     addedAt,
			AddedByKind: it.AddedByKind,
		}
		if it.AddedByID != "" {
			adder := it.AddedByID
			track.AddedBy = &adder
		}

		if track.AddedBy != nil && track.AddedByKind != "user" {
			logger.Warn("track added by non-user account", "track", track.Name, "added_by", *track.AddedBy, "kind", track.AddedByKind)
		}

		tracks = append(tracks, track)
	}

	return tracks, nil
}

// EnrichGenres attaches the union of artist genres to every track.
//
// Artists without an id are skipped. Lookups are memoized for the duration of the call only.
func (r *Retriever) EnrichGenres(ctx context.Context, tracks []models.Track, progress ProgressFunc) ([]models.Track, error) {
	cache := make(map[string][]string)
	enriched := make([]models.Track, len(tracks))

	for i, tr := range tracks {
		progress.send(enrichUpdate(i+1, len(tracks), tr))

		var genres []string
		for _, a := range tr.Artists {
			if a.ID == "" {
				continue
			}

			g, ok := cache[a.ID]
			if !ok {
				var err error
				g, err = r.svc.ArtistGenres(ctx, a.ID)
				if err != nil {
					return nil, fmt.Errorf("failed to fetch genres for artist %s: %w", a.ID, err)
				}
				cache[a.ID] = g
			}
			genres = append(genres, g...)
		}

		enriched[i] = tr.WithGenres(genres)
	}

	return enriched, nil
}

// PersonalIndex fetches every playlist and indexes its tracks by playlist name.
func (r *Retriever) PersonalIndex(ctx context.Context, playlists []shared.PlaylistConfig, progress ProgressFunc) (models.PersonalIndex, error) {
	index := make(models.PersonalIndex, len(playlists))

	for i, pl := range playlists {
		progress.send(fetchPlaylistUpdate(FetchPersonal, i+1, len(playlists), pl.Name))

		tracks, err := r.Tracks(ctx, pl.ID)
		if err != nil {
			return nil, err
		}
		index[pl.Name] = tracks

		progress.send(fetchedPlaylistUpdate(FetchPersonal, i+1, len(playlists), pl.Name, len(tracks)))
	}

	return index, nil
}
