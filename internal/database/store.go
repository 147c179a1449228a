package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/redditlens/internal/model"
)

// Store provides SQLite-based persistence for communities, collection
// runs, collected records, analysis results, and generated reports.
//
// Design decision: We use a single database file for all communities
// rather than a file per community. Cross-community queries (run history,
// report listings) stay simple, and backup is a single-file copy.
type Store struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures Store behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging for better concurrent performance.
	// This is recommended for most use cases.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a Store at the specified directory.
// If CreateIfNotExists is true, the directory and database file are created.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*Store, error) {
	dbPath := filepath.Join(dbDir, "redditlens.db")

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// modernc.org/sqlite connection string: mode=rw prevents creating new
	// files, mode=rwc allows creation.
	var dsn string
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	} else {
		dsn = dbPath + "?mode=rw"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer; a single connection avoids
	// SQLITE_BUSY churn from the engine's sequential writes.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	s := &Store{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := s.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// CheckConnection verifies the database is reachable. The engine calls
// this during run initialization, before any collection work starts.
func (s *Store) CheckConnection(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// createTables creates the database schema if it doesn't exist.
func (s *Store) createTables() error {
	schema := `
	-- Communities are created once and updated as fresh profile data arrives
	CREATE TABLE IF NOT EXISTS communities (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL UNIQUE,
		display_name TEXT,
		description TEXT,
		subscribers INTEGER DEFAULT 0,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	-- Collection runs bound one data collection pass over a community
	CREATE TABLE IF NOT EXISTS collection_runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		community_id INTEGER NOT NULL REFERENCES communities(id),
		status TEXT NOT NULL DEFAULT 'running',
		posts_collected INTEGER DEFAULT 0,
		comments_collected INTEGER DEFAULT 0,
		error_message TEXT,
		started_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		completed_at DATETIME
	);

	CREATE INDEX IF NOT EXISTS idx_runs_community ON collection_runs(community_id);
	CREATE INDEX IF NOT EXISTS idx_runs_started ON collection_runs(started_at);

	CREATE TABLE IF NOT EXISTS posts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id INTEGER NOT NULL REFERENCES collection_runs(id),
		community_id INTEGER NOT NULL REFERENCES communities(id),
		reddit_id TEXT NOT NULL,
		title TEXT,
		selftext TEXT,
		author TEXT,
		score INTEGER DEFAULT 0,
		upvote_ratio REAL DEFAULT 0,
		num_comments INTEGER DEFAULT 0,
		flair TEXT,
		is_self INTEGER DEFAULT 0,
		is_video INTEGER DEFAULT 0,
		permalink TEXT,
		created_utc DATETIME,
		UNIQUE(reddit_id, run_id)
	);

	CREATE INDEX IF NOT EXISTS idx_posts_run ON posts(run_id);
	CREATE INDEX IF NOT EXISTS idx_posts_reddit ON posts(reddit_id);

	CREATE TABLE IF NOT EXISTS comments (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id INTEGER NOT NULL REFERENCES collection_runs(id),
		reddit_id TEXT NOT NULL,
		post_reddit_id TEXT NOT NULL,
		parent_reddit_id TEXT,
		author TEXT,
		body TEXT,
		score INTEGER DEFAULT 0,
		depth INTEGER DEFAULT 0,
		is_submitter INTEGER DEFAULT 0,
		created_utc DATETIME,
		UNIQUE(reddit_id, run_id)
	);

	CREATE INDEX IF NOT EXISTS idx_comments_run ON comments(run_id);
	CREATE INDEX IF NOT EXISTS idx_comments_post ON comments(post_reddit_id);

	-- One row per run and category, overwritten when the run is re-analyzed
	CREATE TABLE IF NOT EXISTS analysis_results (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id INTEGER NOT NULL REFERENCES collection_runs(id),
		category TEXT NOT NULL,
		result_json TEXT NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(run_id, category)
	);

	CREATE INDEX IF NOT EXISTS idx_analysis_run ON analysis_results(run_id);

	CREATE TABLE IF NOT EXISTS audience_analyses (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id INTEGER NOT NULL UNIQUE REFERENCES collection_runs(id),
		audience_json TEXT NOT NULL,
		personas_json TEXT,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS reports (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id INTEGER NOT NULL REFERENCES collection_runs(id),
		report_type TEXT NOT NULL,
		content TEXT NOT NULL,
		metadata_json TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_reports_run ON reports(run_id);
	`

	_, err := s.db.ExecContext(context.Background(), schema)
	return err
}

// GetOrCreateCommunity inserts the community or refreshes its profile.
// Profile fields are only overwritten when the fresh lookup supplied
// them; a name-only fallback never erases a previously stored profile.
func (s *Store) GetOrCreateCommunity(ctx context.Context, info model.CommunityInfo) (int64, error) {
	query := `
	INSERT INTO communities (name, display_name, description, subscribers)
	VALUES (?, ?, ?, ?)
	ON CONFLICT(name) DO UPDATE SET
		display_name = CASE WHEN excluded.display_name != '' THEN excluded.display_name ELSE display_name END,
		description = CASE WHEN excluded.description != '' THEN excluded.description ELSE description END,
		subscribers = CASE WHEN excluded.subscribers > 0 THEN excluded.subscribers ELSE subscribers END
	`

	if _, err := s.db.ExecContext(ctx, query,
		info.Name,
		info.DisplayName,
		info.Description,
		info.Subscribers,
	); err != nil {
		return 0, fmt.Errorf("failed to store community: %w", err)
	}

	var id int64
	if err := s.db.QueryRowContext(ctx, `SELECT id FROM communities WHERE name = ?`, info.Name).Scan(&id); err != nil {
		return 0, fmt.Errorf("failed to look up community id: %w", err)
	}
	return id, nil
}

// CommunityByID retrieves a stored community profile.
// Returns nil without an error when the id is unknown.
func (s *Store) CommunityByID(ctx context.Context, id int64) (*model.CommunityInfo, error) {
	query := `
	SELECT id, name, display_name, description, subscribers
	FROM communities
	WHERE id = ?
	`

	var info model.CommunityInfo
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&info.ID,
		&info.Name,
		&info.DisplayName,
		&info.Description,
		&info.Subscribers,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get community: %w", err)
	}

	return &info, nil
}

// CreateCollectionRun opens a new run in the "running" state.
func (s *Store) CreateCollectionRun(ctx context.Context, communityID int64) (int64, error) {
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO collection_runs (community_id, status) VALUES (?, 'running')`,
		communityID,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to create collection run: %w", err)
	}
	return result.LastInsertId()
}

// CompleteCollectionRun finishes a run exactly once: as completed when
// errMsg is empty, as failed otherwise.
func (s *Store) CompleteCollectionRun(ctx context.Context, runID int64, posts, comments int, errMsg string) error {
	status := "completed"
	if errMsg != "" {
		status = "failed"
	}

	query := `
	UPDATE collection_runs
	SET status = ?, posts_collected = ?, comments_collected = ?, error_message = ?, completed_at = CURRENT_TIMESTAMP
	WHERE id = ?
	`

	if _, err := s.db.ExecContext(ctx, query, status, posts, comments, errMsg, runID); err != nil {
		return fmt.Errorf("failed to complete collection run: %w", err)
	}
	return nil
}

// CollectionRunByID retrieves one run. Returns nil without an error when
// the id is unknown.
func (s *Store) CollectionRunByID(ctx context.Context, id int64) (*model.CollectionRun, error) {
	query := `
	SELECT id, community_id, status, posts_collected, comments_collected,
		COALESCE(error_message, ''), started_at, COALESCE(completed_at, '')
	FROM collection_runs
	WHERE id = ?
	`

	return s.scanRun(s.db.QueryRowContext(ctx, query, id))
}

// LatestCollectionRun retrieves the most recent completed run of a
// community. Returns nil without an error when the community has none.
func (s *Store) LatestCollectionRun(ctx context.Context, community string) (*model.CollectionRun, error) {
	query := `
	SELECT r.id, r.community_id, r.status, r.posts_collected, r.comments_collected,
		COALESCE(r.error_message, ''), r.started_at, COALESCE(r.completed_at, '')
	FROM collection_runs r
	JOIN communities c ON c.id = r.community_id
	WHERE c.name = ? AND r.status = 'completed'
	ORDER BY r.started_at DESC, r.id DESC
	LIMIT 1
	`

	return s.scanRun(s.db.QueryRowContext(ctx, query, community))
}

// rowScanner covers both sql.Row and sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func (s *Store) scanRun(row rowScanner) (*model.CollectionRun, error) {
	var (
		run                  model.CollectionRun
		startedAt, completed string
	)

	err := row.Scan(
		&run.ID,
		&run.CommunityID,
		&run.Status,
		&run.PostsCollected,
		&run.CommentsCollected,
		&run.ErrorMessage,
		&startedAt,
		&completed,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get collection run: %w", err)
	}

	run.StartedAt = parseTimestamp(startedAt)
	if completed != "" {
		run.CompletedAt = parseTimestamp(completed)
	}
	return &run, nil
}

// InsertPosts stores a collection pass's posts in one transaction.
// Re-collected posts of the same run are overwritten, keyed by
// (reddit_id, run_id).
func (s *Store) InsertPosts(ctx context.Context, runID, communityID int64, posts []model.Post) error {
	if len(posts) == 0 {
		return nil
	}

	query := `
	INSERT INTO posts (run_id, community_id, reddit_id, title, selftext, author, score,
		upvote_ratio, num_comments, flair, is_self, is_video, permalink, created_utc)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(reddit_id, run_id) DO UPDATE SET
		title = excluded.title,
		selftext = excluded.selftext,
		score = excluded.score,
		upvote_ratio = excluded.upvote_ratio,
		num_comments = excluded.num_comments,
		flair = excluded.flair
	`

	return s.withTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, query)
		if err != nil {
			return fmt.Errorf("failed to prepare post insert: %w", err)
		}
		defer stmt.Close()

		for _, p := range posts {
			if _, err := stmt.ExecContext(ctx,
				runID, communityID, p.RedditID, p.Title, p.SelfText, p.Author, p.Score,
				p.UpvoteRatio, p.NumComments, p.Flair, p.IsSelf, p.IsVideo, p.Permalink,
				timestampValue(p.CreatedUTC),
			); err != nil {
				return fmt.Errorf("failed to insert post %s: %w", p.RedditID, err)
			}
		}
		return nil
	})
}

// InsertComments stores a collection pass's comments in one transaction,
// keyed by (reddit_id, run_id) like posts.
func (s *Store) InsertComments(ctx context.Context, runID int64, comments []model.Comment) error {
	if len(comments) == 0 {
		return nil
	}

	query := `
	INSERT INTO comments (run_id, reddit_id, post_reddit_id, parent_reddit_id, author,
		body, score, depth, is_submitter, created_utc)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(reddit_id, run_id) DO UPDATE SET
		body = excluded.body,
		score = excluded.score
	`

	return s.withTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, query)
		if err != nil {
			return fmt.Errorf("failed to prepare comment insert: %w", err)
		}
		defer stmt.Close()

		for _, c := range comments {
			if _, err := stmt.ExecContext(ctx,
				runID, c.RedditID, c.PostID, c.ParentID, c.Author,
				c.Body, c.Score, c.Depth, c.IsSubmitter,
				timestampValue(c.CreatedUTC),
			); err != nil {
				return fmt.Errorf("failed to insert comment %s: %w", c.RedditID, err)
			}
		}
		return nil
	})
}

// PostsOfRun retrieves all posts of a collection run in stored order.
func (s *Store) PostsOfRun(ctx context.Context, runID int64) ([]model.Post, error) {
	query := `
	SELECT reddit_id, title, selftext, author, score, upvote_ratio, num_comments,
		flair, is_self, is_video, permalink, COALESCE(created_utc, '')
	FROM posts
	WHERE run_id = ?
	ORDER BY id
	`

	rows, err := s.db.QueryContext(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query posts: %w", err)
	}
	defer rows.Close()

	var posts []model.Post
	for rows.Next() {
		var (
			p       model.Post
			created string
		)
		if err := rows.Scan(
			&p.RedditID, &p.Title, &p.SelfText, &p.Author, &p.Score, &p.UpvoteRatio,
			&p.NumComments, &p.Flair, &p.IsSelf, &p.IsVideo, &p.Permalink, &created,
		); err != nil {
			return nil, fmt.Errorf("failed to scan post: %w", err)
		}
		if created != "" {
			p.CreatedUTC = parseTimestamp(created)
		}
		posts = append(posts, p)
	}

	return posts, rows.Err()
}

// CommentsOfRun retrieves all comments of a collection run in stored order.
func (s *Store) CommentsOfRun(ctx context.Context, runID int64) ([]model.Comment, error) {
	query := `
	SELECT reddit_id, post_reddit_id, COALESCE(parent_reddit_id, ''), author, body,
		score, depth, is_submitter, COALESCE(created_utc, '')
	FROM comments
	WHERE run_id = ?
	ORDER BY id
	`

	rows, err := s.db.QueryContext(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query comments: %w", err)
	}
	defer rows.Close()

	var comments []model.Comment
	for rows.Next() {
		var (
			c       model.Comment
			created string
		)
		if err := rows.Scan(
			&c.RedditID, &c.PostID, &c.ParentID, &c.Author, &c.Body,
			&c.Score, &c.Depth, &c.IsSubmitter, &created,
		); err != nil {
			return nil, fmt.Errorf("failed to scan comment: %w", err)
		}
		if created != "" {
			c.CreatedUTC = parseTimestamp(created)
		}
		comments = append(comments, c)
	}

	return comments, rows.Err()
}

// UpsertAnalysisResult stores one JSON payload per analysis category in a
// single transaction. Re-analyzing a run overwrites only the categories
// supplied; earlier results of other categories stay untouched.
func (s *Store) UpsertAnalysisResult(ctx context.Context, runID int64, categories map[string]map[string]any) error {
	if len(categories) == 0 {
		return nil
	}

	query := `
	INSERT INTO analysis_results (run_id, category, result_json)
	VALUES (?, ?, ?)
	ON CONFLICT(run_id, category) DO UPDATE SET
		result_json = excluded.result_json,
		updated_at = CURRENT_TIMESTAMP
	`

	return s.withTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, query)
		if err != nil {
			return fmt.Errorf("failed to prepare analysis upsert: %w", err)
		}
		defer stmt.Close()

		for category, result := range categories {
			resultJSON, err := json.Marshal(result)
			if err != nil {
				return fmt.Errorf("failed to serialize %s result: %w", category, err)
			}
			if _, err := stmt.ExecContext(ctx, runID, category, string(resultJSON)); err != nil {
				return fmt.Errorf("failed to upsert %s result: %w", category, err)
			}
		}
		return nil
	})
}

// AnalysisResults retrieves every stored analysis category of a run.
func (s *Store) AnalysisResults(ctx context.Context, runID int64) (map[string]map[string]any, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT category, result_json FROM analysis_results WHERE run_id = ?`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query analysis results: %w", err)
	}
	defer rows.Close()

	results := make(map[string]map[string]any)
	for rows.Next() {
		var category, resultJSON string
		if err := rows.Scan(&category, &resultJSON); err != nil {
			return nil, fmt.Errorf("failed to scan analysis result: %w", err)
		}

		var result map[string]any
		if err := json.Unmarshal([]byte(resultJSON), &result); err != nil {
			continue // Skip malformed rows
		}
		results[category] = result
	}

	return results, rows.Err()
}

// UpsertAudienceAnalysis stores the audience profile and generated
// personas of a run. One row per run, overwritten on re-analysis.
func (s *Store) UpsertAudienceAnalysis(ctx context.Context, runID int64, audience map[string]any, personas any) error {
	audienceJSON, err := json.Marshal(audience)
	if err != nil {
		return fmt.Errorf("failed to serialize audience profile: %w", err)
	}

	var personasJSON string
	if personas != nil {
		raw, err := json.Marshal(personas)
		if err != nil {
			return fmt.Errorf("failed to serialize personas: %w", err)
		}
		personasJSON = string(raw)
	}

	query := `
	INSERT INTO audience_analyses (run_id, audience_json, personas_json)
	VALUES (?, ?, ?)
	ON CONFLICT(run_id) DO UPDATE SET
		audience_json = excluded.audience_json,
		personas_json = CASE WHEN excluded.personas_json != '' THEN excluded.personas_json ELSE personas_json END,
		updated_at = CURRENT_TIMESTAMP
	`

	if _, err := s.db.ExecContext(ctx, query, runID, string(audienceJSON), personasJSON); err != nil {
		return fmt.Errorf("failed to upsert audience analysis: %w", err)
	}
	return nil
}

// InsertReport stores one generated report.
func (s *Store) InsertReport(ctx context.Context, runID int64, reportType, content string, metadata map[string]any) (int64, error) {
	metadataJSON, err := json.Marshal(metadata)
	if err != nil {
		return 0, fmt.Errorf("failed to serialize report metadata: %w", err)
	}

	result, err := s.db.ExecContext(ctx,
		`INSERT INTO reports (run_id, report_type, content, metadata_json) VALUES (?, ?, ?, ?)`,
		runID, reportType, content, string(metadataJSON),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert report: %w", err)
	}
	return result.LastInsertId()
}

// LatestReport retrieves the content of the newest report of a run.
// Returns empty without an error when the run has no reports.
func (s *Store) LatestReport(ctx context.Context, runID int64) (string, error) {
	var content string
	err := s.db.QueryRowContext(ctx,
		`SELECT content FROM reports WHERE run_id = ? ORDER BY created_at DESC, id DESC LIMIT 1`,
		runID,
	).Scan(&content)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get report: %w", err)
	}
	return content, nil
}

// Report is one persisted report artifact of a run.
type Report struct {
	// ID is the store-assigned identity.
	ID int64

	// RunID links the report to its collection run.
	RunID int64

	// Type distinguishes report flavors (e.g. "community_summary").
	Type string

	// Content is the report body.
	Content string

	// CreatedAt is when the report was stored.
	CreatedAt time.Time
}

// ReportsOfRun lists the reports stored for a run, newest first.
func (s *Store) ReportsOfRun(ctx context.Context, runID int64) ([]Report, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, run_id, report_type, content, COALESCE(created_at, '')
		FROM reports WHERE run_id = ? ORDER BY created_at DESC, id DESC`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	defer rows.Close()

	var reports []Report
	for rows.Next() {
		var (
			r       Report
			created string
		)
		if err := rows.Scan(&r.ID, &r.RunID, &r.Type, &r.Content, &created); err != nil {
			return nil, fmt.Errorf("failed to scan report: %w", err)
		}
		r.CreatedAt = parseTimestamp(created)
		reports = append(reports, r)
	}

	return reports, rows.Err()
}

// RunSummary is one row of the run history listing: the run plus its
// community name, without loading the collected records.
type RunSummary struct {
	// Run is the collection run.
	Run model.CollectionRun

	// Community is the community name the run collected.
	Community string
}

// ListCollectionRuns lists recent runs across all communities, newest
// first. A non-empty community filters the listing; limit <= 0 lists
// every run.
func (s *Store) ListCollectionRuns(ctx context.Context, community string, limit int) ([]RunSummary, error) {
	query := `
	SELECT r.id, r.community_id, r.status, r.posts_collected, r.comments_collected,
		COALESCE(r.error_message, ''), r.started_at, COALESCE(r.completed_at, ''), c.name
	FROM collection_runs r
	JOIN communities c ON c.id = r.community_id
	`
	args := make([]any, 0, 2)

	if community != "" {
		query += " WHERE c.name = ?"
		args = append(args, community)
	}
	query += " ORDER BY r.started_at DESC, r.id DESC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list collection runs: %w", err)
	}
	defer rows.Close()

	var results []RunSummary
	for rows.Next() {
		var (
			summary              RunSummary
			startedAt, completed string
		)
		if err := rows.Scan(
			&summary.Run.ID,
			&summary.Run.CommunityID,
			&summary.Run.Status,
			&summary.Run.PostsCollected,
			&summary.Run.CommentsCollected,
			&summary.Run.ErrorMessage,
			&startedAt,
			&completed,
			&summary.Community,
		); err != nil {
			return nil, fmt.Errorf("failed to scan run summary: %w", err)
		}

		summary.Run.StartedAt = parseTimestamp(startedAt)
		if completed != "" {
			summary.Run.CompletedAt = parseTimestamp(completed)
		}
		results = append(results, summary)
	}

	return results, rows.Err()
}

// withTx runs fn in one transaction. Each logical write of the engine maps
// to exactly one call, so a failure rolls back the whole write.
func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// timestampValue formats a time for storage, mapping the zero value to
// NULL so missing API timestamps stay distinguishable.
func timestampValue(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.UTC().Format("2006-01-02 15:04:05")
}

// timestampFormats contains the timestamp formats that SQLite may return.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	"2006-01-02 15:04:05",     // SQLite default datetime format
	"2006-01-02T15:04:05Z",    // ISO 8601 with Z suffix
	"2006-01-02T15:04:05",     // ISO 8601 without timezone
	time.RFC3339,              // Full RFC3339 format
	time.RFC3339Nano,          // RFC3339 with nanoseconds
	"2006-01-02 15:04:05.999", // SQLite with milliseconds
}

// parseTimestamp attempts to parse a timestamp string using multiple formats.
// SQLite may return timestamps in different formats depending on configuration.
// If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
