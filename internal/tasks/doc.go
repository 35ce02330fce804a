// Package tasks implements the two curation pipelines run against a streaming service.
//
// # Pipelines
//
//  1. [Curator.Todo] : time-phased retention of the staging ("todo") playlist
//     - Fetches the todo playlist and every personal playlist
//     - Builds a [models.PersonalIndex] fresh for the run
//     - Applies [RetentionEngine.Evaluate] to each todo track
//
//  2. [Curator.Filter] : genre and user filtering of curated personal playlists
//     - Fetches each playlist selected by the configured name substrings
//     - Enriches tracks with artist genres
//     - Applies [FilterRules.Evaluate] to each track
//
// # Retention phases
//
// Phases are keyed on whole days since the track was added, recomputed every run:
//
//   - Phase 1 (age >= T1): a track found in any personal playlist is removed as a duplicate
//   - Phase 2 (age > T2): the [ReviewHook] is called, nothing is removed
//   - Phase 3 (age >= T3): the track is removed as stale
//
// # Deletion gate
//
// Every removal goes through [DeletionGate.Delete]. The intent is logged (and audited when a
// store is configured) before anything else; only a danger run issues the removal request.
//
// # Progress Reporting
//
// Pipelines report [ProgressUpdate] values through an optional callback. Reporting is
// synchronous; runs issue one request at a time.
package tasks
