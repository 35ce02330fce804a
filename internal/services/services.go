// package services defines interface Service for the streaming service the curator reads from and removes tracks on
package services

import (
	"context"

	"github.com/desertthunder/curator/internal/models"
)

// Service is the collaborator the curation pipelines consume.
type Service interface {
	// PlaylistPage returns up to limit membership entries starting at offset.
	// An empty page signals the end of the playlist.
	PlaylistPage(ctx context.Context, playlistID string, limit, offset int) ([]models.PlaylistItem, error)

	// ArtistGenres returns the genre tags of an artist (possibly none).
	ArtistGenres(ctx context.Context, artistID string) ([]string, error)

	// RemoveTrackOccurrences removes every occurrence of a track from a playlist.
	// Removing a track that is not present is not an error.
	RemoveTrackOccurrences(ctx context.Context, playlistID, trackID string) error

	// Name returns the name of the service (e.g., "Spotify")
	Name() string
}
