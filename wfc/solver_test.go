package wfc

import (
	"math/rand"
	"testing"
)

func uniformRange(seed int64) RangeFunc {
	rng := rand.New(rand.NewSource(seed))
	return func(min, max float64) float64 {
		return min + rng.Float64()*(max-min)
	}
}

func uniformModel(t *testing.T, values ...rune) *Model[rune] {
	t.Helper()
	patterns := make([]WeightedPattern[rune], 0, len(values))
	for _, v := range values {
		patterns = append(patterns, pattern1x1(v, 1))
	}
	model, err := ModelFromPatterns(patterns)
	if err != nil {
		t.Fatalf("build model: %v", err)
	}
	return model
}

func TestBuilderRejectsUnmatchedCell(t *testing.T) {
	model := uniformModel(t, 'a', 'b')
	superposition := NewGrid2D(2, 1, []rune{'z'})
	if _, err := NewSolverBuilder(model, superposition, 0); err == nil {
		t.Fatalf("expected cell-has-no-pattern failure")
	}
}

func TestBuilderProgressReporting(t *testing.T) {
	model := uniformModel(t, 'a', 'b', 'c')
	superposition := NewGrid2D(4, 4, []rune{'a', 'b', 'c'})
	builder, err := NewSolverBuilder(model, superposition, 3)
	if err != nil {
		t.Fatalf("builder: %v", err)
	}
	current, max := builder.Progress()
	if current != 0 || max != 16 {
		t.Fatalf("unexpected initial progress: %d/%d", current, max)
	}
	if _, err := builder.Build(); err != ErrBuilderInProgress {
		t.Fatalf("building early must fail, got %v", err)
	}
	steps := 0
	for builder.Process() {
		steps++
		if steps > 1000 {
			t.Fatalf("builder does not terminate")
		}
	}
	if _, err := builder.Build(); err != nil {
		t.Fatalf("build after completion: %v", err)
	}
}

func TestEntropyOfCollapsedCellIsZero(t *testing.T) {
	model := uniformModel(t, 'a', 'b')
	if e := calculateEntropy(model, map[int]struct{}{0: {}}); e != 0 {
		t.Fatalf("single candidate entropy must be exactly 0, got %g", e)
	}
	both := calculateEntropy(model, map[int]struct{}{0: {}, 1: {}})
	if both <= 0 {
		t.Fatalf("two equal candidates must have positive entropy, got %g", both)
	}
}

func TestCollapseUniformLine(t *testing.T) {
	values := []rune{'a', 'b', 'c'}
	model := uniformModel(t, values...)
	superposition := NewGrid2D(8, 1, values)
	solver, err := NewSolver(model, superposition)
	if err != nil {
		t.Fatalf("solver: %v", err)
	}

	steps := 0
	var result Result[rune]
	for {
		result = solver.CollapseStep(false, uniformRange(7))
		if result.Kind != ResultIncomplete {
			break
		}
		steps++
		if steps > 8 {
			t.Fatalf("expected at most one collapse step per cell")
		}
	}
	if result.Kind != ResultCollapsed {
		t.Fatalf("expected collapse, got kind %d", result.Kind)
	}
	if result.Collapsed.Len() != 8 {
		t.Fatalf("unexpected output size")
	}
	progress, total := solver.Progress()
	if progress != total {
		t.Fatalf("progress should report full collapse: %d/%d", progress, total)
	}
}

func TestCollapseDeterministicWithSeed(t *testing.T) {
	values := []rune{'a', 'b', 'c'}
	model := uniformModel(t, values...)

	run := func() []rune {
		solver, err := NewSolver(model, NewGrid2D(6, 4, values))
		if err != nil {
			t.Fatalf("solver: %v", err)
		}
		result := solver.CollapseWithTries(3, uniformRange(1234))
		if result.Kind != ResultCollapsed {
			t.Fatalf("expected collapse, got kind %d", result.Kind)
		}
		return append([]rune(nil), result.Collapsed.Cells()...)
	}

	first := run()
	second := run()
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("same seed must reproduce output, differs at %d", i)
		}
	}
}

func TestCollapsedWindowsMatchAdjacency(t *testing.T) {
	// A seamless checkerboard view yields two 2x2 patterns; the collapsed
	// grid must reproduce the checkerboard, so every neighboring pair of
	// cells maps to patterns the model declares adjacent.
	a, b := 'a', 'b'
	view := GridWithCells(2, []*rune{&a, &b, &b, &a})
	model, err := ModelFromViews(2, 2, true, []Grid2D[*rune]{view})
	if err != nil {
		t.Fatalf("model: %v", err)
	}

	solver, err := NewSolver(model, NewGrid2D(4, 4, []rune{'a', 'b'}))
	if err != nil {
		t.Fatalf("solver: %v", err)
	}
	result := solver.CollapseWithTries(5, uniformRange(99))
	if result.Kind != ResultCollapsed {
		t.Fatalf("expected collapse, got kind %d", result.Kind)
	}

	world := result.Collapsed
	patternFor := func(v rune) int {
		for i, p := range model.Patterns() {
			if top, _ := p.Grid.Cell(0, 0); top == v {
				return i
			}
		}
		t.Fatalf("no pattern for %c", v)
		return -1
	}
	for row := 0; row < world.Rows(); row++ {
		for col := 0; col < world.Cols(); col++ {
			center, _ := world.Cell(col, row)
			right, _ := world.Cell((col+1)%world.Cols(), row)
			below, _ := world.Cell(col, (row+1)%world.Rows())
			if !model.HasNeighbor(patternFor(center), patternFor(right), DirectionRight) {
				t.Fatalf("horizontal pair %c-%c not in adjacency", center, right)
			}
			if !model.HasNeighbor(patternFor(center), patternFor(below), DirectionBottom) {
				t.Fatalf("vertical pair %c-%c not in adjacency", center, below)
			}
		}
	}
}

func TestCollapseWithTriesRestoresState(t *testing.T) {
	values := []rune{'a', 'b'}
	model := uniformModel(t, values...)
	solver, err := NewSolver(model, NewGrid2D(3, 3, values))
	if err != nil {
		t.Fatalf("solver: %v", err)
	}

	// A generator always returning more than the total weight makes every
	// pick fail, so every try is impossible.
	bad := func(min, max float64) float64 { return max + 1 }
	if result := solver.CollapseWithTries(2, bad); result.Kind != ResultImpossible {
		t.Fatalf("expected impossible result")
	}

	// The post-build state was restored, so a sane generator still succeeds.
	if result := solver.CollapseWithTries(1, uniformRange(5)); result.Kind != ResultCollapsed {
		t.Fatalf("expected collapse after restore, got kind %d", result.Kind)
	}
}
