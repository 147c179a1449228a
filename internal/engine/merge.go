package engine

import "github.com/nao1215/redditlens/internal/model"

// reducer applies one state field's merge strategy.
type reducer func(s *model.RunState, u model.Update)

// reducers is the fixed per-field merge table. Each entry owns exactly one
// Update field and one strategy: replace, shallow-map-merge, or
// list-append. The table is resolved once at package load, never per call.
var reducers = []reducer{
	// replace
	func(s *model.RunState, u model.Update) {
		if u.Status != nil {
			s.Status = *u.Status
		}
	},
	func(s *model.RunState, u model.Update) {
		if u.Phase != nil {
			s.Phase = *u.Phase
		}
	},
	func(s *model.RunState, u model.Update) {
		if u.Err != "" {
			s.Err = u.Err
		}
	},
	func(s *model.RunState, u model.Update) {
		if u.CommunityInfo != nil {
			s.CommunityInfo = u.CommunityInfo
		}
	},
	func(s *model.RunState, u model.Update) {
		if u.CommunityID != nil {
			s.CommunityID = *u.CommunityID
		}
	},
	func(s *model.RunState, u model.Update) {
		if u.RunID != nil {
			s.RunID = *u.RunID
		}
	},
	func(s *model.RunState, u model.Update) {
		if u.PostsCollected != nil {
			s.PostsCollected = *u.PostsCollected
		}
	},
	func(s *model.RunState, u model.Update) {
		if u.CommentsCollected != nil {
			s.CommentsCollected = *u.CommentsCollected
		}
	},
	func(s *model.RunState, u model.Update) {
		if u.Posts != nil {
			s.Posts = u.Posts
		}
	},
	func(s *model.RunState, u model.Update) {
		if u.Comments != nil {
			s.Comments = u.Comments
		}
	},
	func(s *model.RunState, u model.Update) {
		if u.TopPosts != nil {
			s.TopPosts = u.TopPosts
		}
	},
	func(s *model.RunState, u model.Update) {
		if u.TopComments != nil {
			s.TopComments = u.TopComments
		}
	},
	func(s *model.RunState, u model.Update) {
		if u.ReportPath != "" {
			s.ReportPath = u.ReportPath
		}
	},

	// shallow-map-merge: only the keys the node produced are written, so
	// a later update never wipes out a sibling category's result.
	func(s *model.RunState, u model.Update) {
		if len(u.Extraction) == 0 {
			return
		}
		if s.Extraction == nil {
			s.Extraction = make(map[string]map[string]any, len(u.Extraction))
		}
		for k, v := range u.Extraction {
			s.Extraction[k] = v
		}
	},
	func(s *model.RunState, u model.Update) {
		if len(u.Analysis) == 0 {
			return
		}
		if s.Analysis == nil {
			s.Analysis = make(map[string]map[string]any, len(u.Analysis))
		}
		for k, v := range u.Analysis {
			s.Analysis[k] = v
		}
	},
	func(s *model.RunState, u model.Update) {
		if len(u.Synthesis) == 0 {
			return
		}
		if s.Synthesis == nil {
			s.Synthesis = make(map[string]any, len(u.Synthesis))
		}
		for k, v := range u.Synthesis {
			s.Synthesis[k] = v
		}
	},

	// list-append
	func(s *model.RunState, u model.Update) {
		s.Errors = append(s.Errors, u.Errors...)
	},
}

// Apply merges one node's partial update into the run state through the
// reducer table.
func Apply(s *model.RunState, u model.Update) {
	for _, apply := range reducers {
		apply(s, u)
	}
}
