package wfc

import (
	"errors"
	"math"
	"testing"
)

func pattern1x1(v rune, freq int) WeightedPattern[rune] {
	return WeightedPattern[rune]{Grid: GridWithCells(1, []rune{v}), Frequency: freq}
}

func TestModelRejectsBadPatterns(t *testing.T) {
	if _, err := ModelFromPatterns([]WeightedPattern[rune]{pattern1x1('a', 0)}); !errors.Is(err, ErrZeroFrequencyPattern) {
		t.Fatalf("expected zero frequency error, got %v", err)
	}
	empty := WeightedPattern[rune]{Grid: Grid2D[rune]{}, Frequency: 1}
	if _, err := ModelFromPatterns([]WeightedPattern[rune]{empty}); !errors.Is(err, ErrEmptyPattern) {
		t.Fatalf("expected empty pattern error, got %v", err)
	}
}

func TestModelMergesAndNormalizes(t *testing.T) {
	model, err := ModelFromPatterns([]WeightedPattern[rune]{
		pattern1x1('a', 1),
		pattern1x1('a', 2),
		pattern1x1('b', 1),
	})
	if err != nil {
		t.Fatalf("build model: %v", err)
	}
	patterns := model.Patterns()
	if len(patterns) != 2 {
		t.Fatalf("equal patterns should merge, got %d", len(patterns))
	}
	total := 0.0
	for _, p := range patterns {
		total += p.Weight
	}
	if math.Abs(total-1) > 1e-9 {
		t.Fatalf("weights should sum to 1, got %f", total)
	}
	if math.Abs(patterns[0].Weight-0.75) > 1e-9 {
		t.Fatalf("merged weight should be 3/4, got %f", patterns[0].Weight)
	}
}

func TestModelAdjacencyFromViews(t *testing.T) {
	// A horizontal stripe view "ab" sampled 1x1 seamlessly: a and b
	// alternate horizontally and each neighbors itself vertically.
	a, b := 'a', 'b'
	view := GridWithCells(2, []*rune{&a, &b})
	model, err := ModelFromViews(1, 1, true, []Grid2D[*rune]{view})
	if err != nil {
		t.Fatalf("build model: %v", err)
	}
	if len(model.Patterns()) != 2 {
		t.Fatalf("expected 2 patterns, got %d", len(model.Patterns()))
	}
	var ai, bi int
	for i, p := range model.Patterns() {
		if v, _ := p.Grid.Cell(0, 0); v == 'a' {
			ai = i
		} else {
			bi = i
		}
	}
	// 1x1 patterns always union on the (empty) horizontal overlap, so both
	// orderings are legal neighbors; the interesting property is symmetry.
	if !model.HasNeighbor(ai, bi, DirectionLeft) || !model.HasNeighbor(bi, ai, DirectionRight) {
		t.Fatalf("adjacency should be symmetric across directions")
	}
	if model.NeighborCount(ai) == 0 || model.NeighborCount(bi) == 0 {
		t.Fatalf("patterns from a valid view must have neighbors")
	}
}

func TestModelViewWithHoles(t *testing.T) {
	a := 'a'
	view := GridWithCells(2, []*rune{&a, nil})
	model, err := ModelFromViews(1, 1, false, []Grid2D[*rune]{view})
	if err != nil {
		t.Fatalf("build model: %v", err)
	}
	if len(model.Patterns()) != 1 {
		t.Fatalf("windows touching holes contribute nothing, got %d", len(model.Patterns()))
	}
}
