// Package main provides the entry point for the RedditLens CLI.
//
// RedditLens collects posts and comments from Reddit communities and
// analyzes them for community insights: activity patterns, audience
// profiles, pain points, and AI-assisted topic analysis.
//
// Usage:
//
//	redditlens analyze <community>
//	redditlens runs
//	redditlens report <community>
//
// See --help for all available options.
package main

// main is the entry point for RedditLens.
func main() {
	Execute()
}
