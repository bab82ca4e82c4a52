// Package store persists run transcripts and the content index in SQLite.
//
// A run owns an ordered job list and the append-only message history the
// orchestrator produced for it. Messages are keyed by their position so a
// replayed append is harmless, which lets an interrupted run be rebuilt and
// resumed. The content_index table backs content.Index so images analysed by
// an earlier run are skipped.
//
// Lock guards a state directory with an advisory file lock; only one run may
// write to a given database at a time.
package store
