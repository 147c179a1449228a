package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/nao1215/redditlens/internal/model"
)

func noopNode(context.Context, *model.RunState) model.Update {
	return model.Update{}
}

func TestGraphValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		build   func() *Graph
		wantErr error
	}{
		{
			name: "valid linear graph",
			build: func() *Graph {
				g := NewGraph("a")
				_ = g.AddNode("a", noopNode)
				_ = g.AddNode("b", noopNode)
				g.AddEdge("a", "b")
				g.AddEdge("b", End)
				return g
			},
		},
		{
			name: "valid routed graph",
			build: func() *Graph {
				g := NewGraph("a")
				_ = g.AddNode("a", noopNode)
				_ = g.AddNode("b", noopNode)
				g.AddRouter("a", func(*model.RunState) Label { return LabelContinue }, map[Label]string{
					LabelContinue: "b",
					LabelAbort:    End,
				})
				g.AddEdge("b", End)
				return g
			},
		},
		{
			name: "missing entry",
			build: func() *Graph {
				g := NewGraph("a")
				_ = g.AddNode("b", noopNode)
				g.AddEdge("b", End)
				return g
			},
			wantErr: ErrNoEntry,
		},
		{
			name: "edge to unregistered node",
			build: func() *Graph {
				g := NewGraph("a")
				_ = g.AddNode("a", noopNode)
				g.AddEdge("a", "ghost")
				return g
			},
			wantErr: ErrUnknownNode,
		},
		{
			name: "router label to unregistered node",
			build: func() *Graph {
				g := NewGraph("a")
				_ = g.AddNode("a", noopNode)
				g.AddRouter("a", func(*model.RunState) Label { return LabelContinue }, map[Label]string{
					LabelContinue: "ghost",
				})
				return g
			},
			wantErr: ErrUnknownNode,
		},
		{
			name: "node without successor",
			build: func() *Graph {
				g := NewGraph("a")
				_ = g.AddNode("a", noopNode)
				return g
			},
			wantErr: ErrNoSuccessor,
		},
		{
			name: "node with both edge and router",
			build: func() *Graph {
				g := NewGraph("a")
				_ = g.AddNode("a", noopNode)
				g.AddEdge("a", End)
				g.AddRouter("a", func(*model.RunState) Label { return LabelContinue }, map[Label]string{
					LabelContinue: End,
				})
				return g
			},
			wantErr: ErrConflictingSuccessor,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := tt.build().Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("Validate() error = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestGraphAddNodeRejectsDuplicates(t *testing.T) {
	t.Parallel()

	g := NewGraph("a")
	if err := g.AddNode("a", noopNode); err != nil {
		t.Fatalf("AddNode() error = %v", err)
	}
	if err := g.AddNode("a", noopNode); !errors.Is(err, ErrDuplicateNode) {
		t.Errorf("AddNode() error = %v, want ErrDuplicateNode", err)
	}
}

func TestGraphRunAppliesUpdatesInOrder(t *testing.T) {
	t.Parallel()

	g := NewGraph("first")
	_ = g.AddNode("first", func(_ context.Context, s *model.RunState) model.Update {
		return model.Update{
			Phase:  model.PhasePtr(model.PhaseCollecting),
			Errors: []string{"first ran"},
		}
	})
	_ = g.AddNode("second", func(_ context.Context, s *model.RunState) model.Update {
		// The prior update must be settled before this node observes
		// the state.
		if s.Phase != model.PhaseCollecting {
			t.Errorf("second node observed phase %q, want collecting", s.Phase)
		}
		return model.Update{Errors: []string{"second ran"}}
	})
	g.AddEdge("first", "second")
	g.AddEdge("second", End)
	if err := g.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	state := model.NewRunState("golang")
	if err := g.Run(context.Background(), state); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if len(state.Errors) != 2 || state.Errors[0] != "first ran" || state.Errors[1] != "second ran" {
		t.Errorf("Errors = %v, want both nodes recorded in order", state.Errors)
	}
}

func TestGraphRunRecoversNodePanics(t *testing.T) {
	t.Parallel()

	g := NewGraph("boom")
	_ = g.AddNode("boom", func(context.Context, *model.RunState) model.Update {
		panic("node exploded")
	})
	g.AddEdge("boom", End)

	state := model.NewRunState("golang")
	if err := g.Run(context.Background(), state); err != nil {
		t.Fatalf("Run() error = %v, want the panic absorbed", err)
	}

	if len(state.Errors) != 1 {
		t.Fatalf("Errors = %v, want one panic entry", state.Errors)
	}
}

func TestGraphRunRejectsUnregisteredLabel(t *testing.T) {
	t.Parallel()

	g := NewGraph("a")
	_ = g.AddNode("a", noopNode)
	g.AddRouter("a", func(*model.RunState) Label { return Label("rogue") }, map[Label]string{
		LabelContinue: End,
	})

	err := g.Run(context.Background(), model.NewRunState("golang"))
	if !errors.Is(err, ErrUnknownLabel) {
		t.Errorf("Run() error = %v, want ErrUnknownLabel", err)
	}
}

func TestGraphRunStopsOnCancelledContext(t *testing.T) {
	t.Parallel()

	g := NewGraph("a")
	_ = g.AddNode("a", noopNode)
	g.AddEdge("a", End)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := g.Run(ctx, model.NewRunState("golang")); !errors.Is(err, context.Canceled) {
		t.Errorf("Run() error = %v, want context.Canceled", err)
	}
}

func TestApply(t *testing.T) {
	t.Parallel()

	t.Run("scalars replace only when set", func(t *testing.T) {
		t.Parallel()

		s := model.NewRunState("golang")
		Apply(s, model.Update{
			Status:         model.StatusPtr(model.StatusRunning),
			RunID:          model.Int64Ptr(7),
			PostsCollected: model.IntPtr(42),
		})
		Apply(s, model.Update{}) // no-op must not reset anything

		if s.Status != model.StatusRunning || s.RunID != 7 || s.PostsCollected != 42 {
			t.Errorf("state = (%v, %d, %d), want (running, 7, 42)", s.Status, s.RunID, s.PostsCollected)
		}
	})

	t.Run("category maps merge without clobbering siblings", func(t *testing.T) {
		t.Parallel()

		s := model.NewRunState("golang")
		Apply(s, model.Update{
			Extraction: map[string]map[string]any{
				model.CategoryScores: {"max": 100},
			},
		})
		Apply(s, model.Update{
			Extraction: map[string]map[string]any{
				model.CategoryFlairs: {"unique_flairs": 3},
			},
		})

		if _, ok := s.Extraction[model.CategoryScores]; !ok {
			t.Error("score category was clobbered by a sibling update")
		}
		if _, ok := s.Extraction[model.CategoryFlairs]; !ok {
			t.Error("flair category was not merged")
		}
	})

	t.Run("errors append, never replace", func(t *testing.T) {
		t.Parallel()

		s := model.NewRunState("golang")
		Apply(s, model.Update{Errors: []string{"one"}})
		Apply(s, model.Update{Errors: []string{"two"}})

		if len(s.Errors) != 2 {
			t.Errorf("Errors = %v, want both entries kept", s.Errors)
		}
	})

	t.Run("empty non-nil slice replaces records", func(t *testing.T) {
		t.Parallel()

		s := model.NewRunState("golang")
		s.Posts = []model.Post{{RedditID: "p1"}}

		Apply(s, model.Update{Posts: []model.Post{}})

		if len(s.Posts) != 0 {
			t.Errorf("Posts = %v, want deliberate empty result to replace", s.Posts)
		}
	})
}
