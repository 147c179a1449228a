package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() and provide specific
// information about what is wrong with the configuration.
//
// Design decision: We use package-level sentinel errors rather than
// creating new error instances in Validate(). This allows callers to use
// errors.Is() for programmatic error handling while still providing
// human-readable messages. Using errors.New() here rather than fmt.Errorf()
// because we don't need to include dynamic values in these messages.
var (
	// ErrNoCommunity is returned when no community name is specified.
	ErrNoCommunity = errors.New("no community specified: provide at least one community name")

	// ErrInvalidTimeout is returned when the timeout is not positive.
	// A timeout of zero or negative would cause immediate request failures.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidRateLimit is returned when the request rate is not positive.
	// A rate of zero would mean no API traffic at all.
	ErrInvalidRateLimit = errors.New("invalid rate limit: requests per minute must be positive")

	// ErrInvalidPostsLimit is returned when the post budget is not positive.
	ErrInvalidPostsLimit = errors.New("invalid posts limit: must be positive")

	// ErrInvalidCommentsLimit is returned when the per-post comment budget
	// is negative. Zero disables comment collection.
	ErrInvalidCommentsLimit = errors.New("invalid comments limit: must be non-negative")

	// ErrInvalidBatchSize is returned when the batch size is not positive.
	// A batch size of zero would mean no runs execute.
	ErrInvalidBatchSize = errors.New("invalid batch size: must be positive")

	// ErrInvalidTimeFilter is returned for an unknown top-listing window.
	ErrInvalidTimeFilter = errors.New("invalid time filter: must be one of hour, day, week, month, year, all")

	// ErrRunIDWithMultipleCommunities is returned when --run-id is combined
	// with more than one community. A stored run belongs to exactly one.
	ErrRunIDWithMultipleCommunities = errors.New("run id cannot be combined with multiple communities")
)
