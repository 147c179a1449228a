package model

// Update is the partial state change a pipeline node returns. Every field
// is optional; the zero value means "no change".
//
// Each field carries one of three merge strategies, applied by the engine's
// reducer table (see engine.Graph):
//
//   - replace: scalar fields set the state value when the pointer is
//     non-nil (or, for strings, when non-empty).
//   - shallow-map-merge: category maps merge key by key; a node writes only
//     its own category key, so a later update never wipes out a sibling's
//     result.
//   - list-append: error strings accumulate, they are never replaced.
//
// Design decision: Update is a struct of optional fields rather than a
// map[string]any so that the set of mergeable fields, and the strategy for
// each, is fixed at compile time instead of inferred per call.
type Update struct {
	// Status replaces the run status when non-nil.
	Status *Status

	// Phase replaces the pipeline phase when non-nil.
	Phase *Phase

	// Err records a fatal error when non-empty. Routers observe it and
	// send the run to the failure terminal.
	Err string

	// Errors are appended to the run's non-fatal error list.
	Errors []string

	// CommunityInfo replaces the community profile when non-nil.
	CommunityInfo *CommunityInfo

	// CommunityID replaces the persisted community identity when non-nil.
	CommunityID *int64

	// RunID replaces the persisted collection run identity when non-nil.
	RunID *int64

	// PostsCollected and CommentsCollected replace the item counts when
	// non-nil.
	PostsCollected    *int
	CommentsCollected *int

	// Posts, Comments, TopPosts, and TopComments replace the record
	// collections when non-nil. An empty non-nil slice is a deliberate
	// "no records" result and still replaces.
	Posts       []Post
	Comments    []Comment
	TopPosts    []Post
	TopComments []Comment

	// Extraction, Analysis, and Synthesis merge shallowly by key.
	Extraction map[string]map[string]any
	Analysis   map[string]map[string]any
	Synthesis  map[string]any

	// ReportPath replaces the report file path when non-empty.
	ReportPath string
}

// Int64Ptr, IntPtr, StatusPtr, and PhasePtr are small helpers for building
// Update literals in node implementations.

// Int64Ptr returns a pointer to v.
func Int64Ptr(v int64) *int64 { return &v }

// IntPtr returns a pointer to v.
func IntPtr(v int) *int { return &v }

// StatusPtr returns a pointer to s.
func StatusPtr(s Status) *Status { return &s }

// PhasePtr returns a pointer to p.
func PhasePtr(p Phase) *Phase { return &p }
