// Package repositories implements SQLite persistence for the removal audit log.
//
// Key Implementations:
//   - [RunRepository] : one row per pipeline invocation
//   - [RemovalRepository] : one row per removal intent with its final status
//   - [AuditLog] : both repositories behind the store interface the pipelines write to
//
// Rows are never deleted; a run without finished_at was aborted.
package repositories
