// Package model defines the core data structures shared across redditlens:
// collected Reddit records (posts, comments, authors, community profiles),
// the run state threaded through the analysis pipeline, and the partial
// update type that pipeline nodes return.
//
// The model package has no dependencies on other internal packages,
// making it safe to import from anywhere in the codebase.
package model
