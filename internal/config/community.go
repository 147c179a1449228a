package config

// CommunityConfig holds per-community overrides for a single community.
// This allows tuning collection behavior per community without separate
// invocations.
type CommunityConfig struct {
	// PostsLimit overrides the global post budget for this community.
	// If zero, the global PostsLimit is used.
	PostsLimit int `yaml:"postsLimit,omitempty"`

	// CommentsPerPost overrides the per-post comment budget.
	// If zero, the global CommentsPerPost is used.
	CommentsPerPost int `yaml:"commentsPerPost,omitempty"`

	// TimeFilter overrides the top-listing window for this community.
	TimeFilter string `yaml:"timeFilter,omitempty"`

	// SortMethods overrides the sort strategies for this community.
	// If empty, the default strategies (hot, top, new) are used.
	SortMethods []string `yaml:"sortMethods,omitempty"`
}

// File represents the structure of the .redditlens configuration file.
type File struct {
	// Communities maps community names (without the "r/" prefix) to their
	// per-community overrides.
	Communities map[string]CommunityConfig `yaml:"communities,omitempty"`

	// Defaults contains default overrides applied to all communities
	// unless overridden in the community-specific configuration.
	Defaults CommunityConfig `yaml:"defaults,omitempty"`
}

// GetCommunityConfig returns the configuration for a specific community.
// It merges the community-specific configuration with defaults.
func (cf *File) GetCommunityConfig(community string) CommunityConfig {
	result := cf.Defaults

	if cc, ok := cf.Communities[community]; ok {
		if cc.PostsLimit != 0 {
			result.PostsLimit = cc.PostsLimit
		}
		if cc.CommentsPerPost != 0 {
			result.CommentsPerPost = cc.CommentsPerPost
		}
		if cc.TimeFilter != "" {
			result.TimeFilter = cc.TimeFilter
		}
		if len(cc.SortMethods) > 0 {
			result.SortMethods = cc.SortMethods
		}
	}

	return result
}
