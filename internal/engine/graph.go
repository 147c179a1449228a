package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/nao1215/redditlens/internal/model"
)

// Graph construction and execution errors.
var (
	// ErrUnknownNode means an edge or route points at a node that was
	// never registered.
	ErrUnknownNode = errors.New("engine: unknown node")

	// ErrDuplicateNode means a node name was registered twice.
	ErrDuplicateNode = errors.New("engine: duplicate node")

	// ErrNoSuccessor means a non-terminal node has neither a static edge
	// nor a router.
	ErrNoSuccessor = errors.New("engine: node has no successor")

	// ErrConflictingSuccessor means a node has both a static edge and a
	// router.
	ErrConflictingSuccessor = errors.New("engine: node has both edge and router")

	// ErrUnknownLabel means a router returned a label outside its
	// registered route table.
	ErrUnknownLabel = errors.New("engine: router returned unregistered label")

	// ErrNoEntry means the graph entry point was never registered.
	ErrNoEntry = errors.New("engine: entry node not registered")
)

// End is the single end marker both terminal nodes converge on.
const End = "__end__"

// Label is a routing decision from a closed, per-router set. Routers may
// only return labels their route table declares; anything else fails the
// run with ErrUnknownLabel.
type Label string

// Routing labels.
const (
	// LabelContinue and LabelAbort follow the init node.
	LabelContinue Label = "continue"
	LabelAbort    Label = "abort"

	// LabelCollect and LabelLoadExisting choose between fresh collection
	// and reusing a stored run.
	LabelCollect      Label = "collect"
	LabelLoadExisting Label = "load_existing"

	// LabelAnalyze and LabelSkipToOutput gate the AI analysis stage.
	LabelAnalyze      Label = "analyze"
	LabelSkipToOutput Label = "skip_to_output"
)

// NodeFunc is one pipeline node: a function of the settled run state
// returning only the fields it produced. Nodes must not mutate the state.
type NodeFunc func(ctx context.Context, s *model.RunState) model.Update

// RouteFunc inspects the settled run state and picks the next edge label.
type RouteFunc func(s *model.RunState) Label

// router pairs a decision function with its closed label set.
type router struct {
	decide RouteFunc
	routes map[Label]string
}

// Graph is a fixed directed graph of named nodes. Construction is
// validated up front: every edge target and every router label must
// resolve to a registered node (or End) before the first run.
type Graph struct {
	entry   string
	nodes   map[string]NodeFunc
	order   []string
	edges   map[string]string
	routers map[string]router
	logger  *slog.Logger
}

// GraphOption configures a Graph.
type GraphOption func(*Graph)

// WithGraphLogger sets a custom logger for graph execution.
func WithGraphLogger(logger *slog.Logger) GraphOption {
	return func(g *Graph) {
		g.logger = logger
	}
}

// NewGraph creates an empty graph whose walk starts at entry.
func NewGraph(entry string, opts ...GraphOption) *Graph {
	g := &Graph{
		entry:   entry,
		nodes:   make(map[string]NodeFunc),
		edges:   make(map[string]string),
		routers: make(map[string]router),
		logger:  slog.Default(),
	}

	for _, opt := range opts {
		opt(g)
	}

	return g
}

// AddNode registers a named node.
func (g *Graph) AddNode(name string, fn NodeFunc) error {
	if _, ok := g.nodes[name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateNode, name)
	}
	g.nodes[name] = fn
	g.order = append(g.order, name)
	return nil
}

// AddEdge declares the static successor of a node.
func (g *Graph) AddEdge(from, to string) {
	g.edges[from] = to
}

// AddRouter declares a conditional successor: after from runs, decide picks
// a label and the walk continues at routes[label].
func (g *Graph) AddRouter(from string, decide RouteFunc, routes map[Label]string) {
	g.routers[from] = router{decide: decide, routes: routes}
}

// Validate checks the graph wiring. It fails at build time when the entry
// is missing, an edge or route targets an unregistered node, a node has
// both or neither kind of successor, or a route table is empty.
func (g *Graph) Validate() error {
	if _, ok := g.nodes[g.entry]; !ok {
		return fmt.Errorf("%w: %s", ErrNoEntry, g.entry)
	}

	for _, name := range g.order {
		_, hasEdge := g.edges[name]
		r, hasRouter := g.routers[name]

		if hasEdge && hasRouter {
			return fmt.Errorf("%w: %s", ErrConflictingSuccessor, name)
		}
		if !hasEdge && !hasRouter {
			return fmt.Errorf("%w: %s", ErrNoSuccessor, name)
		}

		if hasEdge {
			if err := g.checkTarget(name, g.edges[name]); err != nil {
				return err
			}
		}

		if hasRouter {
			if len(r.routes) == 0 {
				return fmt.Errorf("%w: %s (empty route table)", ErrNoSuccessor, name)
			}
			for label, target := range r.routes {
				if err := g.checkTarget(fmt.Sprintf("%s[%s]", name, label), target); err != nil {
					return err
				}
			}
		}
	}

	for from := range g.edges {
		if _, ok := g.nodes[from]; !ok {
			return fmt.Errorf("%w: edge from %s", ErrUnknownNode, from)
		}
	}
	for from := range g.routers {
		if _, ok := g.nodes[from]; !ok {
			return fmt.Errorf("%w: router on %s", ErrUnknownNode, from)
		}
	}

	return nil
}

func (g *Graph) checkTarget(from, target string) error {
	if target == End {
		return nil
	}
	if _, ok := g.nodes[target]; !ok {
		return fmt.Errorf("%w: %s -> %s", ErrUnknownNode, from, target)
	}
	return nil
}

// Run walks the graph from the entry node until the end marker, applying
// each node's update to the state. The only errors it returns are wiring
// defects and context cancellation; node failures are absorbed into the
// state and resolved by the terminal nodes.
func (g *Graph) Run(ctx context.Context, state *model.RunState) error {
	current := g.entry

	for current != End {
		if err := ctx.Err(); err != nil {
			return err
		}

		fn, ok := g.nodes[current]
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnknownNode, current)
		}

		g.logger.Debug("running node", "node", current, "phase", state.Phase)

		Apply(state, g.safeRun(ctx, current, fn, state))

		if r, ok := g.routers[current]; ok {
			label := r.decide(state)
			next, ok := r.routes[label]
			if !ok {
				return fmt.Errorf("%w: %s returned %q", ErrUnknownLabel, current, label)
			}
			g.logger.Debug("routed", "node", current, "label", label, "next", next)
			current = next
			continue
		}

		next, ok := g.edges[current]
		if !ok {
			return fmt.Errorf("%w: %s", ErrNoSuccessor, current)
		}
		current = next
	}

	return nil
}

// safeRun executes one node, converting a panic into a node-scoped error
// update so a defective node degrades the run instead of killing the walk.
func (g *Graph) safeRun(ctx context.Context, name string, fn NodeFunc, state *model.RunState) (update model.Update) {
	defer func() {
		if r := recover(); r != nil {
			g.logger.Error("node panicked", "node", name, "panic", r)
			update = model.Update{
				Errors: []string{fmt.Sprintf("%s: panic: %v", name, r)},
			}
		}
	}()

	return fn(ctx, state)
}
