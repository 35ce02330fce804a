// Package models defines the value types the curator pipelines operate on.
//
// All values are read-only snapshots built at the start of a run:
//   - [Track] : one playlist membership entry (the same song in two playlists is two Tracks)
//   - [Playlist] : reference to a named collection, never created or renamed
//   - [PlaylistItem] : a raw membership entry as returned by a service, before conversion
//   - [PersonalIndex] : playlist name → tracks, rebuilt every run
//   - [RemovalRecord] : audit row written for every removal intent
//
// Removals issued during a run are not reflected back into these values.
package models
