package reddit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/nao1215/redditlens/internal/model"
)

// Client defaults.
const (
	// DefaultBaseURL is the public Reddit JSON API endpoint.
	DefaultBaseURL = "https://www.reddit.com"

	// DefaultUserAgent identifies redditlens in requests. Reddit blocks
	// generic user agents aggressively, so a descriptive one is required.
	DefaultUserAgent = "redditlens/1.0 (+https://github.com/nao1215/redditlens)"

	// DefaultTimeout is the per-request timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxAttempts bounds retries of transient failures.
	DefaultMaxAttempts = 3

	// maxPageSize is the largest page the listing endpoints accept.
	maxPageSize = 100

	// maxBodySize caps response bodies to guard against pathological
	// payloads.
	maxBodySize = 10 * 1024 * 1024

	// maxRateLimitRetries bounds how many consecutive 429 responses the
	// client will sleep through before giving up on a call.
	maxRateLimitRetries = 3
)

// errRateLimited signals a 429 response inside the retry loop. It never
// escapes the client.
var errRateLimited = errors.New("reddit: rate limited")

// Client is a rate-limited client for the public Reddit JSON API.
//
// All requests serialize through the client's Limiter, and every response
// feeds quota metadata back into it. Transient transport failures are
// retried with exponential backoff; a 429 response is handled separately
// by sleeping for the server-specified duration before retrying.
type Client struct {
	// httpClient performs the requests. Injected so tests can point the
	// client at an httptest server.
	httpClient *http.Client

	// baseURL is the API root, overridable for tests.
	baseURL string

	// userAgent is sent with every request.
	userAgent string

	// limiter paces requests and absorbs quota metadata.
	limiter *Limiter

	// maxAttempts bounds retries of transient failures.
	maxAttempts int

	// backoffBase and backoffMax shape the exponential retry schedule.
	backoffBase time.Duration
	backoffMax  time.Duration

	// maxCommentDepth bounds comment tree traversal.
	maxCommentDepth int

	// logger for structured logging.
	logger *slog.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets the underlying HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithBaseURL overrides the API root. Used by tests.
func WithBaseURL(u string) ClientOption {
	return func(c *Client) {
		c.baseURL = u
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) ClientOption {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// WithLimiter sets the rate limiter shared by all requests.
func WithLimiter(l *Limiter) ClientOption {
	return func(c *Client) {
		c.limiter = l
	}
}

// WithMaxAttempts bounds retries of transient failures.
func WithMaxAttempts(n int) ClientOption {
	return func(c *Client) {
		if n > 0 {
			c.maxAttempts = n
		}
	}
}

// WithBackoff sets the exponential backoff bounds for transient retries.
func WithBackoff(base, max time.Duration) ClientOption {
	return func(c *Client) {
		if base > 0 {
			c.backoffBase = base
		}
		if max > 0 {
			c.backoffMax = max
		}
	}
}

// WithMaxCommentDepth bounds comment tree traversal.
func WithMaxCommentDepth(depth int) ClientOption {
	return func(c *Client) {
		if depth > 0 {
			c.maxCommentDepth = depth
		}
	}
}

// WithClientLogger sets a custom logger.
func WithClientLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a Reddit API client with the given options.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient:      &http.Client{Timeout: DefaultTimeout},
		baseURL:         DefaultBaseURL,
		userAgent:       DefaultUserAgent,
		limiter:         NewLimiter(DefaultRequestsPerMinute),
		maxAttempts:     DefaultMaxAttempts,
		backoffBase:     2 * time.Second,
		backoffMax:      10 * time.Second,
		maxCommentDepth: DefaultMaxCommentDepth,
		logger:          slog.Default(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// get performs one logical API call with rate limiting and retries.
//
// Retry policy:
//   - transient transport failures retry up to maxAttempts with
//     exponential backoff;
//   - 429 sleeps for the server-specified Retry-After and retries
//     without consuming a backoff attempt;
//   - 404 surfaces as ErrNotFound, never retried;
//   - any other non-2xx status is a fatal APIError for this call.
func (c *Client) get(ctx context.Context, rawURL string) (json.RawMessage, error) {
	backoff := c.backoffBase
	attempts := 0
	rateLimitRetries := 0

	for {
		body, retryAfter, err := c.do(ctx, rawURL)
		if err == nil {
			return body, nil
		}

		switch {
		case errors.Is(err, errRateLimited):
			rateLimitRetries++
			if rateLimitRetries > maxRateLimitRetries {
				return nil, &APIError{StatusCode: http.StatusTooManyRequests, URL: rawURL}
			}
			c.logger.Warn("rate limited, sleeping",
				"url", rawURL,
				"retry_after", retryAfter,
			)
			if sleepErr := sleepCtx(ctx, retryAfter); sleepErr != nil {
				return nil, sleepErr
			}

		case isTransient(ctx, err):
			attempts++
			if attempts >= c.maxAttempts {
				return nil, fmt.Errorf("reddit: request failed after %d attempts: %w", attempts, err)
			}
			c.logger.Debug("transient failure, retrying",
				"url", rawURL,
				"attempt", attempts,
				"backoff", backoff,
				"error", err,
			)
			if sleepErr := sleepCtx(ctx, backoff); sleepErr != nil {
				return nil, sleepErr
			}
			backoff = min(backoff*2, c.backoffMax)

		default:
			return nil, err
		}
	}
}

// do performs a single request. The returned duration is the Retry-After
// interval when the error is errRateLimited.
func (c *Client) do(ctx context.Context, rawURL string) (json.RawMessage, time.Duration, error) {
	if err := c.limiter.Acquire(ctx); err != nil {
		return nil, 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close() //nolint:errcheck // best-effort close on read path

	c.limiter.UpdateFromHeaders(resp.Header)

	switch {
	case resp.StatusCode == http.StatusOK:
		body, readErr := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
		if readErr != nil {
			return nil, 0, readErr
		}
		return body, 0, nil

	case resp.StatusCode == http.StatusTooManyRequests:
		retryAfter := 60 * time.Second
		if v := resp.Header.Get("Retry-After"); v != "" {
			if secs, parseErr := strconv.Atoi(v); parseErr == nil && secs >= 0 {
				retryAfter = time.Duration(secs) * time.Second
			}
		}
		return nil, retryAfter, errRateLimited

	case resp.StatusCode == http.StatusNotFound:
		return nil, 0, ErrNotFound

	default:
		return nil, 0, &APIError{StatusCode: resp.StatusCode, URL: rawURL}
	}
}

// isTransient reports whether an error is worth retrying. Transport-level
// failures (timeouts, connection resets) are transient; a cancelled
// context is not.
func isTransient(ctx context.Context, err error) bool {
	if ctx.Err() != nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) || errors.Is(err, ErrNotFound) {
		return false
	}

	var urlErr *url.Error
	return errors.As(err, &urlErr)
}

// sleepCtx sleeps for d or until the context is cancelled.
func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Posts fetches posts from a subreddit listing, following the pagination
// cursor until limit posts have been gathered, a page comes back empty, or
// no cursor is returned. The result never exceeds limit even when more
// pages were available.
func (c *Client) Posts(ctx context.Context, subreddit, sortMethod string, limit int, timeFilter string) ([]model.Post, error) {
	if limit <= 0 {
		return nil, nil
	}

	var posts []model.Post
	after := ""

	for len(posts) < limit {
		pageSize := min(limit-len(posts), maxPageSize)

		q := url.Values{}
		q.Set("limit", strconv.Itoa(pageSize))
		q.Set("raw_json", "1")
		if sortMethod == "top" && timeFilter != "" {
			q.Set("t", timeFilter)
		}
		if after != "" {
			q.Set("after", after)
		}

		listURL := fmt.Sprintf("%s/r/%s/%s.json?%s", c.baseURL, subreddit, sortMethod, q.Encode())

		raw, err := c.get(ctx, listURL)
		if err != nil {
			return posts, err
		}

		page, cursor, err := parseListingPosts(raw)
		if err != nil {
			return posts, fmt.Errorf("reddit: parsing listing: %w", err)
		}

		if len(page) == 0 {
			break
		}

		posts = append(posts, page...)

		after = cursor
		if after == "" {
			break
		}
	}

	if len(posts) > limit {
		posts = posts[:limit]
	}
	return posts, nil
}

// MultiSortPosts fans out over several sort strategies and merges the
// results into one set keyed by reddit id. When two strategies return the
// same post, the version from the strategy processed first wins.
func (c *Client) MultiSortPosts(ctx context.Context, subreddit string, sortMethods []string, limitPerSort int, timeFilter string) ([]model.Post, error) {
	seen := make(map[string]struct{})
	var merged []model.Post

	for _, sortMethod := range sortMethods {
		posts, err := c.Posts(ctx, subreddit, sortMethod, limitPerSort, timeFilter)
		if err != nil {
			return merged, err
		}

		for _, p := range posts {
			if _, ok := seen[p.RedditID]; ok {
				continue
			}
			seen[p.RedditID] = struct{}{}
			merged = append(merged, p)
		}
	}

	return merged, nil
}

// PostComments fetches one post together with its comment tree, flattened
// to a depth-bounded list.
func (c *Client) PostComments(ctx context.Context, subreddit, postID string, limit int) (model.Post, []model.Comment, error) {
	q := url.Values{}
	q.Set("sort", "top")
	q.Set("limit", strconv.Itoa(limit))
	q.Set("raw_json", "1")

	pageURL := fmt.Sprintf("%s/r/%s/comments/%s.json?%s", c.baseURL, subreddit, postID, q.Encode())

	raw, err := c.get(ctx, pageURL)
	if err != nil {
		return model.Post{}, nil, err
	}

	post, forest, err := parsePostPage(raw)
	if err != nil {
		return model.Post{}, nil, fmt.Errorf("reddit: parsing post page: %w", err)
	}

	return post, flattenCommentTree(forest, postID, c.maxCommentDepth), nil
}

// CommentsForPosts fetches comments for each post in turn. A failure on
// one post is logged and skipped so the rest of the batch still proceeds;
// only context cancellation aborts the batch. The result is sorted by
// score, highest first.
func (c *Client) CommentsForPosts(ctx context.Context, subreddit string, posts []model.Post, perPost int) ([]model.Comment, error) {
	var all []model.Comment

	for _, p := range posts {
		if p.RedditID == "" {
			continue
		}

		_, comments, err := c.PostComments(ctx, subreddit, p.RedditID, perPost)
		if err != nil {
			if ctx.Err() != nil {
				return all, ctx.Err()
			}
			c.logger.Warn("skipping post after comment fetch failure",
				"post_id", p.RedditID,
				"error", err,
			)
			continue
		}

		all = append(all, comments...)
	}

	sort.SliceStable(all, func(i, j int) bool {
		return all[i].Score > all[j].Score
	})

	return all, nil
}

// CommunityAbout fetches the subreddit profile.
func (c *Client) CommunityAbout(ctx context.Context, subreddit string) (*model.CommunityInfo, error) {
	raw, err := c.get(ctx, fmt.Sprintf("%s/r/%s/about.json?raw_json=1", c.baseURL, subreddit))
	if err != nil {
		return nil, err
	}

	info, err := parseAbout(raw)
	if err != nil {
		return nil, fmt.Errorf("reddit: parsing about: %w", err)
	}

	if info.Name == "" {
		info.Name = subreddit
		info.DisplayName = "r/" + subreddit
	}
	return info, nil
}

// UserAbout fetches a user profile. It returns (nil, nil) for deleted
// accounts, bot accounts with no meaningful profile, or a 404 response:
// absence of a profile is not an error.
func (c *Client) UserAbout(ctx context.Context, username string) (*model.Author, error) {
	if username == "" || username == "[deleted]" || username == "AutoModerator" {
		return nil, nil
	}

	raw, err := c.get(ctx, fmt.Sprintf("%s/user/%s/about.json?raw_json=1", c.baseURL, username))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	author, err := parseUser(raw)
	if err != nil {
		return nil, fmt.Errorf("reddit: parsing user: %w", err)
	}
	return author, nil
}
