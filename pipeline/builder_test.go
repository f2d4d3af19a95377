package pipeline_test

import (
	"errors"
	"testing"

	"github.com/embergine/embergine"
	"github.com/embergine/embergine/pipeline"
)

type resA struct{ V int }
type resB struct{ V int }
type resC struct{ V int }

func noopSystem(*embergine.Universe) {}

// groupNames extracts the parallel group structure of a builder graph as
// [][]name for assertions.
func groupNames(t *testing.T, graph pipeline.Graph) [][]string {
	t.Helper()
	sequence, ok := graph.(pipeline.SequenceNode)
	if !ok {
		t.Fatalf("expected sequence root, got %T", graph)
	}
	var out [][]string
	for _, child := range sequence.Children {
		switch node := child.(type) {
		case pipeline.ParallelNode:
			var names []string
			for _, member := range node.Children {
				names = append(names, member.(pipeline.SystemNode).Name)
			}
			out = append(out, names)
		case pipeline.SystemNode:
			out = append(out, []string{node.Name})
		default:
			t.Fatalf("unexpected node type %T", child)
		}
	}
	return out
}

func TestParallelBuilderGrouping(t *testing.T) {
	builder := pipeline.NewParallelBuilder(8)

	mustAdd := func(name string, access embergine.Access, deps ...string) {
		t.Helper()
		if err := builder.AddSystem(name, noopSystem, access, deps...); err != nil {
			t.Fatalf("add %s: %v", name, err)
		}
	}
	mustAdd("a", embergine.AccessOf(embergine.Write[resA]()))
	mustAdd("b", embergine.AccessOf(embergine.Write[resB]()))
	mustAdd("c", embergine.AccessOf(embergine.Write[resA](), embergine.Write[resB]()))
	mustAdd("cc", embergine.AccessOf(embergine.Write[resC]()), "a", "b")
	mustAdd("ccc", embergine.AccessOf())

	groups := groupNames(t, builder.Graph())
	expect := [][]string{{"a", "b", "ccc"}, {"c", "cc"}}
	if len(groups) != len(expect) {
		t.Fatalf("unexpected groups: %v", groups)
	}
	for i := range expect {
		if len(groups[i]) != len(expect[i]) {
			t.Fatalf("group %d mismatch: %v", i, groups[i])
		}
		for j := range expect[i] {
			if groups[i][j] != expect[i][j] {
				t.Fatalf("group %d mismatch: got %v want %v", i, groups[i], expect[i])
			}
		}
	}
}

func TestParallelBuilderWriteDisjointInvariant(t *testing.T) {
	builder := pipeline.NewParallelBuilder(2)
	accesses := []embergine.Access{
		embergine.AccessOf(embergine.Write[resA]()),
		embergine.AccessOf(embergine.Write[resA]()),
		embergine.AccessOf(embergine.Write[resB]()),
		embergine.AccessOf(embergine.Write[resB]()),
		embergine.AccessOf(embergine.Write[resC]()),
	}
	names := []string{"s0", "s1", "s2", "s3", "s4"}
	writes := make(map[string]embergine.Access, len(names))
	for i, name := range names {
		if err := builder.AddSystem(name, noopSystem, accesses[i]); err != nil {
			t.Fatalf("add %s: %v", name, err)
		}
		writes[name] = accesses[i]
	}

	for _, group := range groupNames(t, builder.Graph()) {
		if len(group) > 2 {
			t.Fatalf("group exceeds job limit: %v", group)
		}
		for i := 0; i < len(group); i++ {
			for j := i + 1; j < len(group); j++ {
				if !writes[group[i]].Writes.Disjoint(writes[group[j]].Writes) {
					t.Fatalf("group members %s and %s share writes", group[i], group[j])
				}
			}
		}
	}
}

func TestLinearBuilderPreservesOrder(t *testing.T) {
	builder := pipeline.NewLinearBuilder()
	for _, name := range []string{"a", "b", "c", "cc", "ccc"} {
		var deps []string
		if name == "cc" {
			deps = []string{"a", "b"}
		}
		if err := builder.AddSystem(name, noopSystem, embergine.AccessOf(), deps...); err != nil {
			t.Fatalf("add %s: %v", name, err)
		}
	}
	groups := groupNames(t, builder.Graph())
	expect := []string{"a", "b", "c", "cc", "ccc"}
	if len(groups) != len(expect) {
		t.Fatalf("unexpected graph shape: %v", groups)
	}
	for i, name := range expect {
		if len(groups[i]) != 1 || groups[i][0] != name {
			t.Fatalf("unexpected order: %v", groups)
		}
	}
}

func TestBuilderDependencyNotFound(t *testing.T) {
	for _, builder := range []pipeline.Builder{pipeline.NewLinearBuilder(), pipeline.NewParallelBuilder(4)} {
		err := builder.AddSystem("late", noopSystem, embergine.AccessOf(), "missing")
		var notFound pipeline.DependencyNotFoundError
		if !errors.As(err, &notFound) || notFound.Name != "missing" {
			t.Fatalf("expected DependencyNotFoundError, got %v", err)
		}
	}
}

func TestBuilderCrossLayerDependencyFails(t *testing.T) {
	builder := pipeline.NewParallelBuilder(4)
	if err := builder.AddSystemOnLayer("pre", noopSystem, embergine.AccessOf(), nil, pipeline.LayerPre, false); err != nil {
		t.Fatalf("add pre: %v", err)
	}
	err := builder.AddSystemOnLayer("main", noopSystem, embergine.AccessOf(), []string{"pre"}, pipeline.LayerMain, false)
	var notFound pipeline.DependencyNotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("cross-layer dependency must fail, got %v", err)
	}
}

func TestBuilderLayerOrdering(t *testing.T) {
	builder := pipeline.NewLinearBuilder()
	if err := builder.AddSystemOnLayer("post", noopSystem, embergine.AccessOf(), nil, pipeline.LayerPost, false); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := builder.AddSystemOnLayer("pre", noopSystem, embergine.AccessOf(), nil, pipeline.LayerPre, false); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := builder.AddSystem("main", noopSystem, embergine.AccessOf()); err != nil {
		t.Fatalf("add: %v", err)
	}
	groups := groupNames(t, builder.Graph())
	expect := []string{"pre", "main", "post"}
	for i, name := range expect {
		if groups[i][0] != name {
			t.Fatalf("layers out of order: %v", groups)
		}
	}
}
