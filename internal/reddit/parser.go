package reddit

import (
	"encoding/json"
	"time"

	"github.com/nao1215/redditlens/internal/model"
)

// Thing kinds used by the Reddit JSON API. Every payload object is wrapped
// in a {"kind": ..., "data": ...} envelope.
const (
	kindComment = "t1" // a comment
	kindPost    = "t3" // a link/self post
	kindMore    = "more" // continuation marker, carries no content
)

// DefaultMaxCommentDepth bounds comment tree traversal. Replies nested
// deeper than this are silently omitted rather than treated as an error;
// discussion that deep contributes little to community-level analysis.
const DefaultMaxCommentDepth = 10

// thing is the kind/data envelope wrapping every API payload object.
// Data stays raw until the kind is known.
type thing struct {
	Kind string          `json:"kind"`
	Data json.RawMessage `json:"data"`
}

// listing is the paginated container returned by listing endpoints.
// After is the opaque cursor for the next page; empty means the listing
// is exhausted.
type listing struct {
	Data struct {
		Children []thing `json:"children"`
		After    string  `json:"after"`
	} `json:"data"`
}

// postPayload is the subset of the t3 payload the pipeline consumes.
type postPayload struct {
	ID            string  `json:"id"`
	Title         string  `json:"title"`
	SelfText      string  `json:"selftext"`
	Author        string  `json:"author"`
	Score         int     `json:"score"`
	UpvoteRatio   float64 `json:"upvote_ratio"`
	NumComments   int     `json:"num_comments"`
	LinkFlairText string  `json:"link_flair_text"`
	IsSelf        bool    `json:"is_self"`
	IsVideo       bool    `json:"is_video"`
	Permalink     string  `json:"permalink"`
	CreatedUTC    float64 `json:"created_utc"`
}

// commentPayload is the subset of the t1 payload the pipeline consumes.
// Replies is kept raw because Reddit encodes an empty reply list as the
// empty string "" rather than a listing object.
type commentPayload struct {
	ID          string          `json:"id"`
	Author      string          `json:"author"`
	Body        string          `json:"body"`
	Score       int             `json:"score"`
	ParentID    string          `json:"parent_id"`
	IsSubmitter bool            `json:"is_submitter"`
	CreatedUTC  float64         `json:"created_utc"`
	Replies     json.RawMessage `json:"replies"`
}

// aboutPayload is the subset of the subreddit about payload we keep.
type aboutPayload struct {
	DisplayName       string `json:"display_name"`
	PublicDescription string `json:"public_description"`
	Subscribers       int    `json:"subscribers"`
}

// userPayload is the subset of the user about payload we keep.
type userPayload struct {
	Name         string  `json:"name"`
	LinkKarma    int     `json:"link_karma"`
	CommentKarma int     `json:"comment_karma"`
	TotalKarma   int     `json:"total_karma"`
	CreatedUTC   float64 `json:"created_utc"`
	IsGold       bool    `json:"is_gold"`
}

// parseUnixTime converts the API's fractional Unix timestamp to time.Time.
// Zero input yields the zero time.
func parseUnixTime(ts float64) time.Time {
	if ts == 0 {
		return time.Time{}
	}
	return time.Unix(int64(ts), 0).UTC()
}

// parsePost converts a t3 payload into a model.Post.
func parsePost(p postPayload) model.Post {
	return model.Post{
		RedditID:    p.ID,
		Title:       p.Title,
		SelfText:    p.SelfText,
		Author:      p.Author,
		Score:       p.Score,
		UpvoteRatio: p.UpvoteRatio,
		NumComments: p.NumComments,
		Flair:       p.LinkFlairText,
		IsSelf:      p.IsSelf,
		IsVideo:     p.IsVideo,
		Permalink:   p.Permalink,
		CreatedUTC:  parseUnixTime(p.CreatedUTC),
	}
}

// parseListingPosts extracts the posts from a listing page along with the
// pagination cursor. Non-post children are ignored.
func parseListingPosts(raw json.RawMessage) ([]model.Post, string, error) {
	var page listing
	if err := json.Unmarshal(raw, &page); err != nil {
		return nil, "", err
	}

	posts := make([]model.Post, 0, len(page.Data.Children))
	for _, child := range page.Data.Children {
		if child.Kind != kindPost {
			continue
		}
		var p postPayload
		if err := json.Unmarshal(child.Data, &p); err != nil {
			continue
		}
		posts = append(posts, parsePost(p))
	}

	return posts, page.Data.After, nil
}

// commentFrame pairs an envelope with the depth it sits at in the tree.
type commentFrame struct {
	node  thing
	depth int
}

// flattenCommentTree walks a comment forest and returns the content
// comments as a flat list, in document order.
//
// Traversal rules:
//   - "more" continuation markers carry no content and are skipped.
//   - Comments whose body is empty, "[deleted]", or "[removed]" are
//     skipped; their replies are skipped with them.
//   - Top-level replies to the post get depth 0; each nesting level adds
//     exactly 1.
//   - Nodes deeper than maxDepth are omitted without error.
//
// Design decision: the walk uses an explicit stack rather than recursion
// so the depth cutoff is a plain counter check and arbitrarily deep input
// cannot exhaust the call stack.
func flattenCommentTree(children []thing, postID string, maxDepth int) []model.Comment {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxCommentDepth
	}

	var comments []model.Comment

	// Push in reverse so the stack pops in document order.
	stack := make([]commentFrame, 0, len(children))
	for i := len(children) - 1; i >= 0; i-- {
		stack = append(stack, commentFrame{node: children[i], depth: 0})
	}

	for len(stack) > 0 {
		frame := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if frame.node.Kind != kindComment || frame.depth > maxDepth {
			continue
		}

		var c commentPayload
		if err := json.Unmarshal(frame.node.Data, &c); err != nil {
			continue
		}

		if c.Body == "" || c.Body == "[deleted]" || c.Body == "[removed]" {
			continue
		}

		// parent_id is "t3_<post>" for top-level replies and
		// "t1_<comment>" for nested ones. Only comment parents are
		// recorded; the post linkage is carried by PostID.
		parentID := ""
		if len(c.ParentID) > 3 && c.ParentID[:3] == "t1_" {
			parentID = c.ParentID[3:]
		}

		comments = append(comments, model.Comment{
			RedditID:    c.ID,
			PostID:      postID,
			ParentID:    parentID,
			Author:      c.Author,
			Body:        c.Body,
			Score:       c.Score,
			Depth:       frame.depth,
			IsSubmitter: c.IsSubmitter,
			CreatedUTC:  parseUnixTime(c.CreatedUTC),
		})

		// Replies may be "" (no replies) instead of a listing.
		if len(c.Replies) == 0 || string(c.Replies) == `""` {
			continue
		}

		var replies listing
		if err := json.Unmarshal(c.Replies, &replies); err != nil {
			continue
		}

		for i := len(replies.Data.Children) - 1; i >= 0; i-- {
			stack = append(stack, commentFrame{
				node:  replies.Data.Children[i],
				depth: frame.depth + 1,
			})
		}
	}

	return comments
}

// parsePostPage splits a post detail response into the post payload and
// the raw comment forest. The endpoint returns a two-element array: the
// post listing followed by the comment listing.
func parsePostPage(raw json.RawMessage) (model.Post, []thing, error) {
	var page []listing
	if err := json.Unmarshal(raw, &page); err != nil {
		return model.Post{}, nil, err
	}

	if len(page) < 2 {
		return model.Post{}, nil, nil
	}

	var post model.Post
	if children := page[0].Data.Children; len(children) > 0 && children[0].Kind == kindPost {
		var p postPayload
		if err := json.Unmarshal(children[0].Data, &p); err == nil {
			post = parsePost(p)
		}
	}

	return post, page[1].Data.Children, nil
}

// parseAbout converts a subreddit about response into a CommunityInfo.
func parseAbout(raw json.RawMessage) (*model.CommunityInfo, error) {
	var t thing
	if err := json.Unmarshal(raw, &t); err != nil {
		return nil, err
	}

	var about aboutPayload
	if err := json.Unmarshal(t.Data, &about); err != nil {
		return nil, err
	}

	return &model.CommunityInfo{
		Name:        about.DisplayName,
		DisplayName: "r/" + about.DisplayName,
		Description: about.PublicDescription,
		Subscribers: about.Subscribers,
	}, nil
}

// parseUser converts a user about response into an Author.
func parseUser(raw json.RawMessage) (*model.Author, error) {
	var t thing
	if err := json.Unmarshal(raw, &t); err != nil {
		return nil, err
	}

	var u userPayload
	if err := json.Unmarshal(t.Data, &u); err != nil {
		return nil, err
	}

	return &model.Author{
		Username:     u.Name,
		LinkKarma:    u.LinkKarma,
		CommentKarma: u.CommentKarma,
		TotalKarma:   u.TotalKarma,
		CreatedUTC:   parseUnixTime(u.CreatedUTC),
		IsGold:       u.IsGold,
	}, nil
}
