package model

import "time"

// Post represents a single Reddit submission collected from a community.
// Fields mirror the subset of the listing API payload that the extraction
// and analysis stages consume.
type Post struct {
	// RedditID is the base-36 identifier assigned by Reddit (without the
	// "t3_" kind prefix).
	RedditID string `json:"reddit_id"`

	// Title is the submission title.
	Title string `json:"title"`

	// SelfText is the body of a self (text) post. Empty for link posts.
	SelfText string `json:"selftext"`

	// Author is the submitting user's name. Reddit reports "[deleted]"
	// for removed accounts.
	Author string `json:"author"`

	// Score is the net vote count at collection time.
	Score int `json:"score"`

	// UpvoteRatio is the fraction of votes that were upvotes (0-1).
	UpvoteRatio float64 `json:"upvote_ratio"`

	// NumComments is the comment count reported by the listing.
	NumComments int `json:"num_comments"`

	// Flair is the link flair text, if the community uses flairs.
	Flair string `json:"flair_text"`

	// IsSelf reports whether this is a text post rather than a link.
	IsSelf bool `json:"is_self"`

	// IsVideo reports whether the submission is a hosted video.
	IsVideo bool `json:"is_video"`

	// Permalink is the site-relative URL of the post.
	Permalink string `json:"permalink"`

	// CreatedUTC is the submission time. Zero when the API omitted it.
	CreatedUTC time.Time `json:"created_utc"`
}

// Comment represents a single reply collected from a post's comment tree,
// flattened out of its nested structure.
//
// Depth invariant: a top-level reply to the post has Depth 0 and an empty
// ParentID; a nested reply has Depth exactly one greater than its parent's.
type Comment struct {
	// RedditID is the base-36 identifier (without the "t1_" kind prefix).
	RedditID string `json:"reddit_id"`

	// PostID is the RedditID of the post this comment belongs to.
	PostID string `json:"post_reddit_id"`

	// ParentID is the RedditID of the parent comment. Empty when the
	// parent is the post itself.
	ParentID string `json:"parent_reddit_id"`

	// Author is the commenting user's name.
	Author string `json:"author"`

	// Body is the comment text. Deleted/removed comments are dropped
	// during collection, so Body is never empty here.
	Body string `json:"body"`

	// Score is the net vote count at collection time.
	Score int `json:"score"`

	// Depth is the nesting depth within the reply tree (0 = top level).
	Depth int `json:"depth"`

	// IsSubmitter reports whether the author is the post's author (OP).
	IsSubmitter bool `json:"is_submitter"`

	// CreatedUTC is the comment time. Zero when the API omitted it.
	CreatedUTC time.Time `json:"created_utc"`
}

// Author represents a Reddit user profile from the about endpoint.
type Author struct {
	// Username is the account name.
	Username string `json:"username"`

	// LinkKarma is karma earned from submissions.
	LinkKarma int `json:"link_karma"`

	// CommentKarma is karma earned from comments.
	CommentKarma int `json:"comment_karma"`

	// TotalKarma is the combined karma total.
	TotalKarma int `json:"total_karma"`

	// CreatedUTC is the account creation time.
	CreatedUTC time.Time `json:"account_created_utc"`

	// IsGold reports whether the account has a premium subscription.
	IsGold bool `json:"is_gold"`
}

// CommunityInfo describes a subreddit as reported by its about endpoint,
// plus the database identity once the community has been persisted.
type CommunityInfo struct {
	// Name is the subreddit name without the "r/" prefix.
	Name string `json:"name"`

	// DisplayName is the human-facing name (e.g. "r/golang").
	DisplayName string `json:"display_name"`

	// Description is the public description.
	Description string `json:"description"`

	// Subscribers is the subscriber count at lookup time.
	Subscribers int `json:"subscribers"`

	// ID is the database identity. Zero until persisted.
	ID int64 `json:"community_id"`
}
