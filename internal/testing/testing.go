// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"io"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/curator/internal/models"
)

// Removal is one recorded [MockService.RemoveTrackOccurrences] call
type Removal struct {
	PlaylistID string
	TrackID    string
}

// PageCall is one recorded [MockService.PlaylistPage] call
type PageCall struct {
	PlaylistID string
	Limit      int
	Offset     int
}

// MockService is an in-memory test double for [services.Service]
//
// Removals delete matching entries from Playlists so repeated calls observe an absent track.
type MockService struct {
	mu sync.Mutex

	Playlists map[string][]models.PlaylistItem // playlist id → entries
	Genres    map[string][]string              // artist id → genres

	PageErr    error
	GenresErr  error
	RemoveErr  error
	EmptyPages bool // serve only empty pages

	PageCalls  []PageCall
	GenreCalls []string
	Removals   []Removal
}

// NewMockService creates a [MockService] with empty fixtures
func NewMockService() *MockService {
	return &MockService{
		Playlists: map[string][]models.PlaylistItem{},
		Genres:    map[string][]string{},
	}
}

func (m *MockService) PlaylistPage(ctx context.Context, playlistID string, limit, offset int) ([]models.PlaylistItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.PageCalls = append(m.PageCalls, PageCall{PlaylistID: playlistID, Limit: limit, Offset: offset})
	if m.PageErr != nil {
		return nil, m.PageErr
	}
	if m.EmptyPages {
		return nil, nil
	}

	items := m.Playlists[playlistID]
	if offset >= len(items) {
		return []models.PlaylistItem{}, nil
	}
	end := min(offset+limit, len(items))
	return append([]models.PlaylistItem(nil), items[offset:end]...), nil
}

func (m *MockService) ArtistGenres(ctx context.Context, artistID string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.GenreCalls = append(m.GenreCalls, artistID)
	if m.GenresErr != nil {
		return nil, m.GenresErr
	}
	return m.Genres[artistID], nil
}

func (m *MockService) RemoveTrackOccurrences(ctx context.Context, playlistID, trackID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Removals = append(m.Removals, Removal{PlaylistID: playlistID, TrackID: trackID})
	if m.RemoveErr != nil {
		return m.RemoveErr
	}

	items, ok := m.Playlists[playlistID]
	if !ok {
		return nil
	}

	kept := make([]models.PlaylistItem, 0, len(items))
	for _, it := range items {
		if it.Track != nil && it.Track.ID == trackID {
			continue
		}
		kept = append(kept, it)
	}
	m.Playlists[playlistID] = kept
	return nil
}

func (m *MockService) Name() string { return "mock" }

// RemovalCount returns the number of recorded removal calls
func (m *MockService) RemovalCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Removals)
}

// Item builds a playlist entry added by a user
func Item(id, name string, addedAt time.Time, adder string, artists ...models.Artist) models.PlaylistItem {
	return models.PlaylistItem{
		AddedAt:     addedAt.UTC().Format(time.RFC3339),
		AddedByID:   adder,
		AddedByKind: "user",
		Track:       &models.ItemTrack{ID: id, Name: name, Artists: artists},
	}
}

// Track builds an enriched-or-not [models.Track] added by adder; an empty adder leaves AddedBy nil
func Track(id, name string, addedAt time.Time, adder string) models.Track {
	t := models.Track{ID: id, Name: name, AddedAt: addedAt, AddedByKind: "user"}
	if adder != "" {
		t.AddedBy = &adder
	}
	return t
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
