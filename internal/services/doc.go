// Package services defines the [Service] interface consumed by the curation pipelines and implements it for Spotify.
//
// # Spotify Implementation
//
// [SpotifyService] wraps a [spotify.Client] whose HTTP client is authorized by an
// [oauth2.TokenSource] built from the long-lived refresh token. Access tokens are
// refreshed transparently; when Spotify rotates the refresh token the optional
// callback set with [SpotifyService.SetTokenRefreshCallback] receives the new token.
//
// # Pacing and Retries
//
// Every request waits on a [rate.Limiter] and runs inside an exponential backoff loop.
// 429 and 5xx responses and transport errors are retried up to the configured count;
// other 4xx responses fail immediately.
//
// # Error Handling
//
//   - [shared.ErrAPIRequest] : request failed after retries
//   - [shared.ErrRefreshFailed] : token refresh rejected
//   - [shared.ErrPlaylistNotFound] : playlist page returned 404
package services
