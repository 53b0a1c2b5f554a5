// Package journal persists one record per pipeline run in a local SQLite
// database. The journal is bookkeeping, not coordination: the pipeline owns
// the live session, the journal records what happened to it.
package journal
