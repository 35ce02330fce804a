// Spotify Web API implementation of [Service]
//
// API reference: https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/charmbracelet/log"
	"github.com/desertthunder/curator/internal/models"
	"github.com/desertthunder/curator/internal/shared"
	"github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

// Scopes requests read access to private and collaborative playlists plus modify access for removals.
var Scopes = []string{
	spotifyauth.ScopePlaylistReadPrivate,
	spotifyauth.ScopePlaylistReadCollaborative,
	spotifyauth.ScopePlaylistModifyPublic,
	spotifyauth.ScopePlaylistModifyPrivate,
}

// SpotifyOpts tunes request pacing and retries.
type SpotifyOpts struct {
	RateLimit  float64       // requests per second, <= 0 disables pacing
	MaxRetries int           // retries after the first attempt
	Backoff    time.Duration // initial backoff interval
	Logger     *log.Logger
	BaseURL    string // API base override, must end in "/"
}

// SpotifyService implements [Service] on top of [spotify.Client].
type SpotifyService struct {
	client         *spotify.Client
	limiter        *rate.Limiter
	maxRetries     int
	backoff        time.Duration
	logger         *log.Logger
	onTokenRefresh func(*oauth2.Token)
	mu             sync.Mutex
}

// OAuthConfig returns the authorization-code configuration for the given credentials.
func OAuthConfig(creds *shared.Credentials) *oauth2.Config {
	redirect := creds.RedirectURI
	if redirect == "" {
		redirect = shared.DefaultRedirectURI
	}

	return &oauth2.Config{
		ClientID:     creds.ClientID,
		ClientSecret: creds.ClientSecret,
		RedirectURL:  redirect,
		Scopes:       Scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:  spotifyauth.AuthURL,
			TokenURL: spotifyauth.TokenURL,
		},
	}
}

// NewSpotifyService creates a service authorized by the refresh token in creds.
//
// The first request exchanges the refresh token for an access token.
func NewSpotifyService(ctx context.Context, creds *shared.Credentials, opts SpotifyOpts) (*SpotifyService, error) {
	if creds == nil || creds.ClientID == "" || creds.ClientSecret == "" {
		return nil, fmt.Errorf("%w: client_id and client_secret are required", shared.ErrMissingCredentials)
	}
	if creds.RefreshToken == "" {
		return nil, fmt.Errorf("%w: refresh token is required, run `curator auth`", shared.ErrMissingCredentials)
	}

	s := newSpotifyService(opts)

	token := &oauth2.Token{RefreshToken: creds.RefreshToken}
	source := &refreshableTokenSource{
		source:   OAuthConfig(creds).TokenSource(ctx, token),
		callback: s.tokenRefreshed,
	}

	s.client = newSpotifyClient(oauth2.NewClient(ctx, source), opts)
	return s, nil
}

// NewSpotifyServiceWithClient creates a service that issues requests through httpClient as-is.
func NewSpotifyServiceWithClient(httpClient *http.Client, opts SpotifyOpts) *SpotifyService {
	s := newSpotifyService(opts)
	s.client = newSpotifyClient(httpClient, opts)
	return s
}

func newSpotifyService(opts SpotifyOpts) *SpotifyService {
	limit := rate.Inf
	if opts.RateLimit > 0 {
		limit = rate.Limit(opts.RateLimit)
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}

	return &SpotifyService{
		limiter:    rate.NewLimiter(limit, 1),
		maxRetries: opts.MaxRetries,
		backoff:    opts.Backoff,
		logger:     shared.WithLogger(opts.Logger, "service", "spotify"),
	}
}

func newSpotifyClient(httpClient *http.Client, opts SpotifyOpts) *spotify.Client {
	var clientOpts []spotify.ClientOption
	if opts.BaseURL != "" {
		clientOpts = append(clientOpts, spotify.WithBaseURL(opts.BaseURL))
	}

	wrapped := *httpClient
	wrapped.Transport = &errorBodyTransport{base: httpClient.Transport}
	return spotify.New(&wrapped, clientOpts...)
}

// errorBodyTransport rewrites error responses that carry no JSON error object into
// {"error":{"status":N,"message":...}} so every failed request surfaces as a [spotify.Error].
type errorBodyTransport struct {
	base http.RoundTripper
}

func (t *errorBodyTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}

	resp, err := base.RoundTrip(req)
	if err != nil || resp.StatusCode < http.StatusBadRequest {
		return resp, err
	}

	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return nil, err
	}

	if !hasErrorObject(body) {
		message := http.StatusText(resp.StatusCode)
		if text := strings.TrimSpace(string(body)); text != "" && len(text) <= 200 {
			message += ": " + text
		}

		var envelope struct {
			Error spotify.Error `json:"error"`
		}
		envelope.Error = spotify.Error{Status: resp.StatusCode, Message: message}
		if body, err = json.Marshal(envelope); err != nil {
			return nil, err
		}
		resp.Header.Set("Content-Type", "application/json")
	}

	resp.Body = io.NopCloser(bytes.NewReader(body))
	resp.ContentLength = int64(len(body))
	resp.Header.Del("Content-Length")
	return resp, nil
}

func hasErrorObject(body []byte) bool {
	var envelope struct {
		Error json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return false
	}
	return bytes.HasPrefix(bytes.TrimSpace(envelope.Error), []byte("{"))
}

func (s *SpotifyService) Name() string {
	return "Spotify"
}

// SetTokenRefreshCallback registers fn to receive every newly issued token.
func (s *SpotifyService) SetTokenRefreshCallback(fn func(*oauth2.Token)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onTokenRefresh = fn
}

func (s *SpotifyService) tokenRefreshed(token *oauth2.Token) {
	s.mu.Lock()
	fn := s.onTokenRefresh
	s.mu.Unlock()

	s.logger.Debug("access token refreshed", "expiry", token.Expiry)
	if fn != nil {
		fn(token)
	}
}

// PlaylistPage fetches one page of playlist items.
func (s *SpotifyService) PlaylistPage(ctx context.Context, playlistID string, limit, offset int) ([]models.PlaylistItem, error) {
	var page *spotify.PlaylistItemPage
	op := fmt.Sprintf("playlist %s items offset %d", playlistID, offset)

	err := s.call(ctx, op, func() error {
		var err error
		page, err = s.client.GetPlaylistItems(ctx, spotify.ID(playlistID), spotify.Limit(limit), spotify.Offset(offset))
		return err
	})
	if isStatus(err, http.StatusNotFound) {
		return nil, fmt.Errorf("%w: %s: %w", shared.ErrPlaylistNotFound, playlistID, err)
	}
	if err != nil {
		return nil, err
	}

	items := make([]models.PlaylistItem, 0, len(page.Items))
	for _, it := range page.Items {
		items = append(items, convertItem(it))
	}
	return items, nil
}

// ArtistGenres fetches an artist and returns its genres.
func (s *SpotifyService) ArtistGenres(ctx context.Context, artistID string) ([]string, error) {
	var artist *spotify.FullArtist

	err := s.call(ctx, "artist "+artistID, func() error {
		var err error
		artist, err = s.client.GetArtist(ctx, spotify.ID(artistID))
		return err
	})
	if err != nil {
		return nil, err
	}
	return artist.Genres, nil
}

// RemoveTrackOccurrences issues a single removal request for every occurrence of trackID.
func (s *SpotifyService) RemoveTrackOccurrences(ctx context.Context, playlistID, trackID string) error {
	op := fmt.Sprintf("remove %s from %s", trackID, playlistID)
	return s.call(ctx, op, func() error {
		_, err := s.client.RemoveTracksFromPlaylist(ctx, spotify.ID(playlistID), spotify.ID(trackID))
		return err
	})
}

// call runs fn behind the rate limiter, retrying transient failures with exponential backoff.
func (s *SpotifyService) call(ctx context.Context, op string, fn func() error) error {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = s.backoff
	policy := backoff.WithContext(backoff.WithMaxRetries(eb, uint64(s.maxRetries)), ctx)

	attempt := 0
	err := backoff.RetryNotify(func() error {
		attempt++
		if err := s.limiter.Wait(ctx); err != nil {
			return backoff.Permanent(err)
		}

		err := fn()
		if err != nil && !retryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}, policy, func(err error, wait time.Duration) {
		s.logger.Warn("retrying request", "op", op, "attempt", attempt, "wait", wait, "error", err)
	})

	if err == nil {
		return nil
	}

	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		return fmt.Errorf("%w: %s: %v", shared.ErrRefreshFailed, op, err)
	}
	return fmt.Errorf("%w: %s: %w", shared.ErrAPIRequest, op, err)
}

func isStatus(err error, status int) bool {
	var apiErr spotify.Error
	return errors.As(err, &apiErr) && apiErr.Status == status
}

// retryable reports whether err is worth another attempt.
func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		return false
	}

	var apiErr spotify.Error
	if errors.As(err, &apiErr) {
		return apiErr.Status == http.StatusTooManyRequests || apiErr.Status >= 500
	}

	return true
}

func convertItem(it spotify.PlaylistItem) models.PlaylistItem {
	item := models.PlaylistItem{
		AddedAt:     it.AddedAt,
		AddedByID:   it.AddedBy.ID,
		AddedByKind: adderKind(it.AddedBy),
	}

	if ft := it.Track.Track; ft != nil {
		artists := make([]models.Artist, len(ft.Artists))
		for i, a := range ft.Artists {
			artists[i] = models.Artist{ID: string(a.ID), Name: a.Name}
		}
		item.Track = &models.ItemTrack{
			ID:      string(ft.ID),
			Name:    ft.Name,
			Artists: artists,
		}
	}

	return item
}

// adderKind extracts the object type from a URI such as "spotify:user:abc".
func adderKind(u spotify.User) string {
	parts := strings.Split(string(u.URI), ":")
	if len(parts) >= 3 {
		return parts[1]
	}
	return ""
}

// refreshableTokenSource reports each new access token to callback.
type refreshableTokenSource struct {
	source   oauth2.TokenSource
	callback func(*oauth2.Token)
	mu       sync.Mutex
	last     string
}

func (r *refreshableTokenSource) Token() (*oauth2.Token, error) {
	token, err := r.source.Token()
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	changed := token.AccessToken != r.last
	r.last = token.AccessToken
	r.mu.Unlock()

	if changed && r.callback != nil {
		r.callback(token)
	}
	return token, nil
}
