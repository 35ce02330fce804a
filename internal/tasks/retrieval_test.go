package tasks

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/desertthunder/curator/internal/models"
	"github.com/desertthunder/curator/internal/shared"
	tu "github.com/desertthunder/curator/internal/testing"
)

func playlistOf(n int) []models.PlaylistItem {
	items := make([]models.PlaylistItem, n)
	for i := range n {
		items[i] = tu.Item(fmt.Sprintf("t%d", i), fmt.Sprintf("Song %d", i), daysAgo(i), "alice",
			models.Artist{ID: "a1", Name: "Artist"})
	}
	return items
}

func TestRetriever(t *testing.T) {
	ctx := context.Background()

	t.Run("pages until an empty page", func(t *testing.T) {
		svc := tu.NewMockService()
		svc.Playlists["p1"] = playlistOf(250)
		r := NewRetriever(svc, shared.SpotifyConfig{PageLimit: 100, MaxPages: 100}, quietLogger())

		items, err := r.PlaylistItems(ctx, "p1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(items) != 250 {
			t.Errorf("expected 250 items, got %d", len(items))
		}
		if len(svc.PageCalls) != 4 {
			t.Fatalf("expected 4 page calls, got %d", len(svc.PageCalls))
		}
		for i, call := range svc.PageCalls {
			if call.Offset != i*100 || call.Limit != 100 {
				t.Errorf("call %d: unexpected limit/offset %d/%d", i, call.Limit, call.Offset)
			}
		}
	})

	t.Run("stops at page cap", func(t *testing.T) {
		svc := tu.NewMockService()
		svc.Playlists["p1"] = playlistOf(50)
		r := NewRetriever(svc, shared.SpotifyConfig{PageLimit: 10, MaxPages: 3}, quietLogger())

		items, err := r.PlaylistItems(ctx, "p1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(items) != 30 || len(svc.PageCalls) != 3 {
			t.Errorf("expected 30 items over 3 calls, got %d over %d", len(items), len(svc.PageCalls))
		}
	})

	t.Run("defaults page settings", func(t *testing.T) {
		svc := tu.NewMockService()
		svc.EmptyPages = true
		r := NewRetriever(svc, shared.SpotifyConfig{}, quietLogger())

		items, err := r.PlaylistItems(ctx, "p1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(items) != 0 || len(svc.PageCalls) != 1 || svc.PageCalls[0].Limit != 100 {
			t.Errorf("expected a single empty page of limit 100, got %+v", svc.PageCalls)
		}
	})

	t.Run("propagates page errors", func(t *testing.T) {
		svc := tu.NewMockService()
		svc.PageErr = shared.ErrAPIRequest
		r := NewRetriever(svc, shared.SpotifyConfig{}, quietLogger())

		if _, err := r.Tracks(ctx, "p1"); !errors.Is(err, shared.ErrAPIRequest) {
			t.Errorf("expected ErrAPIRequest, got %v", err)
		}
	})

	t.Run("EnrichGenres", func(t *testing.T) {
		svc := tu.NewMockService()
		svc.Genres["a1"] = []string{"prog rock"}
		svc.Genres["a2"] = []string{"krautrock", "psych"}
		r := NewRetriever(svc, shared.SpotifyConfig{}, quietLogger())

		tracks := []models.Track{
			{ID: "t1", Name: "One", Artists: []models.Artist{{ID: "a1"}, {ID: "a2"}}},
			{ID: "t2", Name: "Two", Artists: []models.Artist{{ID: "a1"}, {ID: "", Name: "Local"}}},
			{ID: "t3", Name: "Three"},
		}

		var updates int
		enriched, err := r.EnrichGenres(ctx, tracks, func(ProgressUpdate) { updates++ })
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if got := enriched[0].Genres; len(got) != 3 || got[0] != "prog rock" || got[2] != "psych" {
			t.Errorf("unexpected genres for first track %v", got)
		}
		if !enriched[2].GenresLoaded || len(enriched[2].Genres) != 0 {
			t.Errorf("expected loaded empty genres, got %+v", enriched[2])
		}
		if tracks[0].GenresLoaded {
			t.Error("input tracks should not be modified")
		}
		if len(svc.GenreCalls) != 2 {
			t.Errorf("expected 2 memoized artist lookups, got %v", svc.GenreCalls)
		}
		if updates != 3 {
			t.Errorf("expected 3 progress updates, got %d", updates)
		}
	})

	t.Run("EnrichGenres error", func(t *testing.T) {
		svc := tu.NewMockService()
		svc.GenresErr = shared.ErrAPIRequest
		r := NewRetriever(svc, shared.SpotifyConfig{}, quietLogger())

		_, err := r.EnrichGenres(ctx, []models.Track{{ID: "t1", Artists: []models.Artist{{ID: "a1"}}}}, nil)
		if !errors.Is(err, shared.ErrAPIRequest) {
			t.Errorf("expected ErrAPIRequest, got %v", err)
		}
	})

	t.Run("PersonalIndex", func(t *testing.T) {
		svc := tu.NewMockService()
		svc.Playlists["p1"] = playlistOf(3)
		svc.Playlists["p2"] = playlistOf(1)
		r := NewRetriever(svc, shared.SpotifyConfig{}, quietLogger())

		index, err := r.PersonalIndex(ctx, []shared.PlaylistConfig{{ID: "p1", Name: "prog"}, {ID: "p2", Name: "jazz"}}, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(index["prog"]) != 3 || len(index["jazz"]) != 1 {
			t.Errorf("unexpected index sizes %d/%d", len(index["prog"]), len(index["jazz"]))
		}
	})
}

func TestToTracks(t *testing.T) {
	t.Run("converts entries", func(t *testing.T) {
		items := []models.PlaylistItem{
			tu.Item("t1", "One", daysAgo(3), "alice", models.Artist{ID: "a1", Name: "First"}),
			{AddedAt: daysAgo(1).Format("2006-01-02T15:04:05Z"), AddedByKind: "user"},
			{AddedAt: daysAgo(2).Format("2006-01-02T15:04:05Z"), Track: &models.ItemTrack{ID: "t2", Name: "Two"}},
		}

		tracks, err := ToTracks(items, quietLogger())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(tracks) != 2 {
			t.Fatalf("expected entry without track to be dropped, got %d tracks", len(tracks))
		}
		if tracks[0].Adder() != "alice" || !tracks[0].AddedAt.Equal(daysAgo(3)) || tracks[0].GenresLoaded {
			t.Errorf("unexpected first track %+v", tracks[0])
		}
		if tracks[1].AddedBy != nil {
			t.Errorf("expected nil adder, got %q", *tracks[1].AddedBy)
		}
	})

	t.Run("non-user adder is kept", func(t *testing.T) {
		item := tu.Item("t1", "One", daysAgo(3), "bot")
		item.AddedByKind = "application"

		tracks, err := ToTracks([]models.PlaylistItem{item}, quietLogger())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(tracks) != 1 || tracks[0].AddedByKind != "application" {
			t.Errorf("unexpected tracks %+v", tracks)
		}
	})

	t.Run("invalid timestamp", func(t *testing.T) {
		item := tu.Item("t1", "One", daysAgo(3), "alice")
		item.AddedAt = "yesterday"

		if _, err := ToTracks([]models.PlaylistItem{item}, quietLogger()); !errors.Is(err, shared.ErrDataIntegrity) {
			t.Errorf("expected ErrDataIntegrity, got %v", err)
		}
	})
}
