// Package reddit implements a rate-limited client for the public Reddit
// JSON API (no authentication required).
//
// The client provides paginated listing fetches, multi-sort fan-out with
// deduplication, post detail with flattened comment trees, and community
// and user profile lookups. All requests pass through an adaptive rate
// limiter that respects Reddit's X-Ratelimit response headers, and
// transient failures are retried with exponential backoff.
package reddit
