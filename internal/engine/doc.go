// Package engine orchestrates one community analysis run as a
// single-threaded walk over a fixed directed graph of nodes. Nodes are
// pure functions returning partial updates; the engine alone applies
// updates to the shared run state through a fixed per-field merge table.
package engine
