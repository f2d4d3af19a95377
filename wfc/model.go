package wfc

import (
	"errors"
	"fmt"
)

var (
	// ErrZeroFrequencyPattern rejects a sample pattern with zero frequency.
	ErrZeroFrequencyPattern = errors.New("wfc: pattern with zero frequency")
	// ErrEmptyPattern rejects a sample pattern with no cells.
	ErrEmptyPattern = errors.New("wfc: empty pattern")
	// ErrCellHasNoPattern rejects a superposition cell no pattern can fill.
	ErrCellHasNoPattern = errors.New("wfc: superposition cell has no matching pattern")
	// ErrImpossibleInitialState marks a superposition pruned down to an empty cell.
	ErrImpossibleInitialState = errors.New("wfc: impossible initial state")
	// ErrUncollapsedCell marks a grid read back before every cell collapsed.
	ErrUncollapsedCell = errors.New("wfc: found uncollapsed cell")
	// ErrBuilderInProgress rejects building a solver before pruning finished.
	ErrBuilderInProgress = errors.New("wfc: builder in progress")
)

// Direction names the four adjacency axes between patterns.
type Direction uint8

const (
	DirectionLeft Direction = iota
	DirectionRight
	DirectionTop
	DirectionBottom
)

// neighbor is one directional adjacency: the named pattern may sit in the
// given direction relative to the owner.
type neighbor struct {
	pattern   int
	direction Direction
}

// WeightedPattern is a sample pattern with its observed frequency.
type WeightedPattern[T comparable] struct {
	Grid      Grid2D[T]
	Frequency int
}

// Pattern is a merged pattern with its normalized weight.
type Pattern[T comparable] struct {
	Grid   Grid2D[T]
	Weight float64
}

// Model holds merged weighted patterns and their directional adjacency sets.
// Weights sum to one.
type Model[T comparable] struct {
	patterns  []Pattern[T]
	neighbors []map[neighbor]struct{}
}

// ModelFromPatterns merges equal patterns summing frequencies, normalizes
// weights, and computes adjacency: A is left-of B iff B shifted right by one
// column overlaps-equals A on the intersection, and likewise per axis.
func ModelFromPatterns[T comparable](patterns []WeightedPattern[T]) (*Model[T], error) {
	for i, p := range patterns {
		if p.Frequency == 0 {
			return nil, fmt.Errorf("%w: pattern %d", ErrZeroFrequencyPattern, i)
		}
		if p.Grid.IsEmpty() {
			return nil, fmt.Errorf("%w: pattern %d", ErrEmptyPattern, i)
		}
	}
	total := 0
	for _, p := range patterns {
		total += p.Frequency
	}
	unique := make([]WeightedPattern[T], 0, len(patterns))
	for _, p := range patterns {
		merged := false
		for i := range unique {
			if gridsEqual(unique[i].Grid, p.Grid) {
				unique[i].Frequency += p.Frequency
				merged = true
				break
			}
		}
		if !merged {
			unique = append(unique, p)
		}
	}
	merged := make([]Pattern[T], 0, len(unique))
	for _, p := range unique {
		merged = append(merged, Pattern[T]{
			Grid:   p.Grid,
			Weight: float64(p.Frequency) / float64(total),
		})
	}

	neighbors := make([]map[neighbor]struct{}, len(merged))
	for i := range neighbors {
		neighbors[i] = make(map[neighbor]struct{})
	}
	link := func(owner, other int, direction Direction) {
		neighbors[owner][neighbor{pattern: other, direction: direction}] = struct{}{}
	}
	for ai, ap := range merged {
		ac, ar := ap.Grid.Size()
		for bi, bp := range merged {
			bc, br := bp.Grid.Size()
			if ar == br {
				if gridsUnion(bp.Grid, ap.Grid, 1, 0) {
					link(ai, bi, DirectionLeft)
					link(bi, ai, DirectionRight)
				}
				if gridsUnion(ap.Grid, bp.Grid, 1, 0) {
					link(ai, bi, DirectionRight)
					link(bi, ai, DirectionLeft)
				}
			}
			if ac == bc {
				if gridsUnion(bp.Grid, ap.Grid, 0, 1) {
					link(ai, bi, DirectionTop)
					link(bi, ai, DirectionBottom)
				}
				if gridsUnion(ap.Grid, bp.Grid, 0, 1) {
					link(ai, bi, DirectionBottom)
					link(bi, ai, DirectionTop)
				}
			}
		}
	}
	return &Model[T]{patterns: merged, neighbors: neighbors}, nil
}

// ModelFromViews extracts patterns from example views with a sliding window,
// optionally wrapping across seams. Cells are pointers so nil marks holes: a
// window touching a hole contributes no pattern.
func ModelFromViews[T comparable](sampleCols, sampleRows int, seamless bool, views []Grid2D[*T]) (*Model[T], error) {
	var patterns []WeightedPattern[T]
	for _, view := range views {
		var windows []Grid2D[*T]
		if seamless {
			windows = view.WindowsSeamless(sampleCols, sampleRows)
		} else {
			windows = view.Windows(sampleCols, sampleRows)
		}
		for _, window := range windows {
			cells := make([]T, 0, window.Len())
			complete := true
			for _, cell := range window.Cells() {
				if cell == nil {
					complete = false
					break
				}
				cells = append(cells, *cell)
			}
			if !complete {
				continue
			}
			patterns = append(patterns, WeightedPattern[T]{
				Grid:      GridWithCells(window.Cols(), cells),
				Frequency: 1,
			})
		}
	}
	return ModelFromPatterns(patterns)
}

// Patterns exposes the merged weighted patterns.
func (m *Model[T]) Patterns() []Pattern[T] { return m.patterns }

// HasNeighbor reports whether other may sit in the given direction next to
// the pattern.
func (m *Model[T]) HasNeighbor(pattern, other int, direction Direction) bool {
	if pattern < 0 || pattern >= len(m.neighbors) {
		return false
	}
	_, ok := m.neighbors[pattern][neighbor{pattern: other, direction: direction}]
	return ok
}

// NeighborCount reports how many adjacencies a pattern declares.
func (m *Model[T]) NeighborCount(pattern int) int {
	if pattern < 0 || pattern >= len(m.neighbors) {
		return 0
	}
	return len(m.neighbors[pattern])
}
