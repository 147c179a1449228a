// Package database provides SQLite-based storage for RedditLens.
//
// This package implements the Store, which persists:
//   - Community profiles and their collection runs
//   - Collected posts and comments, keyed per run
//   - Analysis results, audience profiles, and generated reports
//
// Design decision: We use SQLite (via modernc.org/sqlite) instead of other
// databases because:
// 1. No external dependencies - the database is a single file
// 2. CGO-free implementation allows easy cross-compilation
// 3. Sufficient performance for our use case
// 4. WAL mode provides good concurrent read performance
//
// Every logical write runs in its own short-lived transaction, so a run
// that dies mid-collection leaves complete, queryable earlier writes
// behind rather than a torn database.
package database
