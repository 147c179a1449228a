package model

import "time"

// CollectionRun is one persisted data collection for a community. Runs are
// created "running" and finished exactly once as "completed" or "failed".
type CollectionRun struct {
	// ID is the store-assigned identity.
	ID int64 `json:"id"`

	// CommunityID links the run to its community record.
	CommunityID int64 `json:"community_id"`

	// Status is "running", "completed", or "failed".
	Status string `json:"status"`

	// PostsCollected and CommentsCollected are the final item counts,
	// recorded at completion.
	PostsCollected    int `json:"posts_collected"`
	CommentsCollected int `json:"comments_collected"`

	// ErrorMessage explains a failed run.
	ErrorMessage string `json:"error_message"`

	// StartedAt and CompletedAt bound the run. CompletedAt is zero while
	// the run is still running.
	StartedAt   time.Time `json:"started_at"`
	CompletedAt time.Time `json:"completed_at"`
}
