package wfc

import (
	"fmt"
	"math"
	"sort"
)

// RangeFunc is the caller-supplied random source: it returns a value in
// [min, max). Deterministic generators make collapse reproducible.
type RangeFunc func(min, max float64) float64

// ResultKind discriminates collapse outcomes.
type ResultKind uint8

const (
	// ResultIncomplete means more collapse steps are needed.
	ResultIncomplete ResultKind = iota
	// ResultUncollapsed carries an inspection snapshot of candidate values.
	ResultUncollapsed
	// ResultCollapsed carries the fully resolved grid.
	ResultCollapsed
	// ResultImpossible means some cell ran out of candidates.
	ResultImpossible
)

// Result is the outcome of a collapse step or run.
type Result[T comparable] struct {
	Kind        ResultKind
	Uncollapsed Grid2D[[]T]
	Collapsed   Grid2D[T]
}

// cell is one superposition slot: the candidate pattern indices and the
// cached Shannon entropy over their weights.
type cell struct {
	patterns map[int]struct{}
	entropy  float64
}

func (c cell) sortedPatterns() []int {
	out := make([]int, 0, len(c.patterns))
	for index := range c.patterns {
		out = append(out, index)
	}
	sort.Ints(out)
	return out
}

func (c cell) clone() cell {
	patterns := make(map[int]struct{}, len(c.patterns))
	for index := range c.patterns {
		patterns[index] = struct{}{}
	}
	return cell{patterns: patterns, entropy: c.entropy}
}

func cloneSuperposition(g Grid2D[cell]) Grid2D[cell] {
	cells := make([]cell, 0, g.Len())
	for _, c := range g.Cells() {
		cells = append(cells, c.clone())
	}
	return GridWithCells(g.Cols(), cells)
}

// calculateEntropy computes H = log2(Σw) - (Σ w*log2(w)) / Σw over the
// candidate weights. Iteration is sorted so results are reproducible.
func calculateEntropy[T comparable](model *Model[T], patterns map[int]struct{}) float64 {
	if len(patterns) <= 1 {
		return 0
	}
	indices := make([]int, 0, len(patterns))
	for index := range patterns {
		indices = append(indices, index)
	}
	sort.Ints(indices)
	totalWeight := 0.0
	totalWeightLog := 0.0
	for _, index := range indices {
		weight := model.patterns[index].Weight
		totalWeight += weight
		totalWeightLog += weight * math.Log2(weight)
	}
	return math.Log2(totalWeight) - totalWeightLog/totalWeight
}

type builderPhase uint8

const (
	builderProcess builderPhase = iota
	builderDone
	builderFailed
)

// SolverBuilder prunes an initial superposition incrementally: each Process
// call reduces a bounded number of cells so callers can report progress. The
// grid is treated as toroidal.
type SolverBuilder[T comparable] struct {
	model        *Model[T]
	supers       [2]Grid2D[cell]
	current      int
	phase        builderPhase
	failure      error
	index        int
	reduced      bool
	cellsPerStep int
}

// NewSolverBuilder converts the initial superposition of candidate values
// into candidate pattern indices (patterns whose top-left cell matches) and
// prepares the iterative reduction. cellsPerStep of zero picks a default
// proportional to grid size.
func NewSolverBuilder[T comparable](model *Model[T], superposition Grid2D[[]T], cellsPerStep int) (*SolverBuilder[T], error) {
	cols, rows := superposition.Size()
	maxPatterns := 0
	cells := make([]cell, 0, superposition.Len())
	for row := 0; row < rows; row++ {
		for col := 0; col < cols; col++ {
			values, _ := superposition.Cell(col, row)
			patterns := make(map[int]struct{})
			for _, value := range values {
				for index, pattern := range model.patterns {
					if top, ok := pattern.Grid.Cell(0, 0); ok && top == value {
						patterns[index] = struct{}{}
					}
				}
			}
			if len(patterns) == 0 {
				return nil, fmt.Errorf("%w: (%d, %d)", ErrCellHasNoPattern, col, row)
			}
			if len(patterns) > maxPatterns {
				maxPatterns = len(patterns)
			}
			cells = append(cells, cell{
				patterns: patterns,
				entropy:  calculateEntropy(model, patterns),
			})
		}
	}
	grid := GridWithCells(cols, cells)
	if cellsPerStep <= 0 {
		if maxPatterns > 0 {
			cellsPerStep = grid.Len() / maxPatterns
		} else {
			cellsPerStep = grid.Len()
		}
	}
	if cellsPerStep < 1 {
		cellsPerStep = 1
	}
	return &SolverBuilder[T]{
		model:        model,
		supers:       [2]Grid2D[cell]{grid, cloneSuperposition(grid)},
		cellsPerStep: cellsPerStep,
	}, nil
}

func (b *SolverBuilder[T]) source() *Grid2D[cell] {
	return &b.supers[b.current]
}

func (b *SolverBuilder[T]) target() *Grid2D[cell] {
	return &b.supers[(b.current+1)%2]
}

// Process reduces up to cellsPerStep cells, double-buffering between passes.
// It returns true while more work remains; a pass with no reduction finishes
// the build and an emptied cell fails it.
func (b *SolverBuilder[T]) Process() bool {
	if b.phase != builderProcess {
		return false
	}
	remaining := b.cellsPerStep
	cols := b.source().Cols()
	count := b.source().Len()
	for b.index < count && remaining > 0 {
		col := b.index % cols
		row := b.index / cols
		sample := b.source().SampleSeamless(col, row, 1)
		center, _ := sample.Cell(1, 1)
		switch len(center.patterns) {
		case 0, 1:
			b.target().Set(col, row, cell{patterns: center.patterns, entropy: 0})
		default:
			patterns := b.reducePatterns(center.patterns, sample)
			if len(patterns) == 0 {
				b.phase = builderFailed
				b.failure = ErrImpossibleInitialState
				return false
			}
			if len(patterns) < len(center.patterns) {
				b.reduced = true
			}
			b.target().Set(col, row, cell{
				patterns: patterns,
				entropy:  calculateEntropy(b.model, patterns),
			})
		}
		b.index++
		remaining--
	}
	if b.index == count {
		if b.reduced {
			b.index = 0
			b.reduced = false
			b.current = (b.current + 1) % 2
			return true
		}
		b.phase = builderDone
		return false
	}
	return true
}

// reducePatterns keeps candidates whose declared neighbor sets intersect the
// actual neighbor cells' candidates in all four directions.
func (b *SolverBuilder[T]) reducePatterns(patterns map[int]struct{}, sample Grid2D[cell]) map[int]struct{} {
	return filterByNeighbors(b.model, patterns, sample)
}

// neighborCoordDirs pairs sample coordinates (relative to a 3x3 neighborhood
// centered at 1,1) with the direction the neighbor sits in.
var neighborCoordDirs = [4]struct {
	col, row  int
	direction Direction
}{
	{0, 1, DirectionLeft},
	{2, 1, DirectionRight},
	{1, 0, DirectionTop},
	{1, 2, DirectionBottom},
}

func filterByNeighbors[T comparable](model *Model[T], patterns map[int]struct{}, sample Grid2D[cell]) map[int]struct{} {
	out := make(map[int]struct{})
	for index := range patterns {
		if model.NeighborCount(index) == 0 {
			continue
		}
		supported := true
		for _, nc := range neighborCoordDirs {
			side, _ := sample.Cell(nc.col, nc.row)
			found := false
			for candidate := range side.patterns {
				if model.HasNeighbor(index, candidate, nc.direction) {
					found = true
					break
				}
			}
			if !found {
				supported = false
				break
			}
		}
		if supported {
			out[index] = struct{}{}
		}
	}
	return out
}

// Progress reports (current, max) cells handled in the running pass.
func (b *SolverBuilder[T]) Progress() (int, int) {
	count := b.source().Len()
	if b.phase != builderProcess {
		return count, count
	}
	return b.index, count
}

// Build finalises the pruned superposition into a solver.
func (b *SolverBuilder[T]) Build() (*Solver[T], error) {
	switch b.phase {
	case builderFailed:
		return nil, b.failure
	case builderDone:
		return &Solver[T]{
			model:         b.model,
			superposition: cloneSuperposition(*b.source()),
		}, nil
	default:
		return nil, ErrBuilderInProgress
	}
}

// Solver runs the step-wise collapse loop over a pruned superposition.
type Solver[T comparable] struct {
	model          *Model[T]
	superposition  Grid2D[cell]
	cachedProgress int
}

// NewSolver builds and fully processes a solver in one go.
func NewSolver[T comparable](model *Model[T], superposition Grid2D[[]T]) (*Solver[T], error) {
	builder, err := NewSolverBuilder(model, superposition, superposition.Len())
	if err != nil {
		return nil, err
	}
	for builder.Process() {
	}
	return builder.Build()
}

// NewSolverInspect builds a solver, reporting (current, max) pruning progress
// after every step.
func NewSolverInspect[T comparable](model *Model[T], superposition Grid2D[[]T], cellsPerStep int, inspect func(current, max int)) (*Solver[T], error) {
	builder, err := NewSolverBuilder(model, superposition, cellsPerStep)
	if err != nil {
		return nil, err
	}
	if inspect != nil {
		inspect(builder.Progress())
	}
	for builder.Process() {
		if inspect != nil {
			inspect(builder.Progress())
		}
	}
	if inspect != nil {
		inspect(builder.Progress())
	}
	return builder.Build()
}

// Progress reports (collapsed cells, total cells).
func (s *Solver[T]) Progress() (int, int) {
	return s.cachedProgress, s.superposition.Len()
}

// UncollapsedWorld snapshots every cell's candidate values.
func (s *Solver[T]) UncollapsedWorld() Grid2D[[]T] {
	return s.uncollapsedWorld()
}

// Collapse repeats collapse steps until the grid resolves or becomes
// impossible.
func (s *Solver[T]) Collapse(genRange RangeFunc) Result[T] {
	for {
		result := s.CollapseStep(false, genRange)
		if result.Kind != ResultIncomplete {
			return result
		}
	}
}

// CollapseInspect is Collapse with a snapshot callback after every step.
func (s *Solver[T]) CollapseInspect(genRange RangeFunc, inspect func(current, max int, world Grid2D[[]T])) Result[T] {
	for {
		result := s.CollapseStep(true, genRange)
		if result.Kind != ResultUncollapsed {
			return result
		}
		if inspect != nil {
			current, max := s.Progress()
			inspect(current, max, result.Uncollapsed)
		}
	}
}

// CollapseWithTries retries a failed collapse from the post-build state up to
// the given number of times.
func (s *Solver[T]) CollapseWithTries(tries int, genRange RangeFunc) Result[T] {
	snapshot := cloneSuperposition(s.superposition)
	for ; tries > 0; tries-- {
		s.superposition = cloneSuperposition(snapshot)
		s.cachedProgress = 0
		result := s.Collapse(genRange)
		if result.Kind != ResultImpossible {
			return result
		}
	}
	return Result[T]{Kind: ResultImpossible}
}

// CollapseStep performs one observation: pick the minimum-entropy
// uncollapsed cell, weighted-random-collapse it, and propagate the
// constraint to affected neighbors.
func (s *Solver[T]) CollapseStep(showUncollapsed bool, genRange RangeFunc) Result[T] {
	col, row, found, impossible := s.uncollapsedCoord()
	if impossible {
		return Result[T]{Kind: ResultImpossible}
	}
	if !found {
		collapsed, err := s.collapsedWorld()
		if err != nil {
			return Result[T]{Kind: ResultImpossible}
		}
		return Result[T]{Kind: ResultCollapsed, Collapsed: collapsed}
	}
	if !s.collapseCell(col, row, genRange) {
		return Result[T]{Kind: ResultImpossible}
	}
	cols, rows := s.superposition.Size()
	open := make([][2]int, 0, 4)
	for _, coord := range [4][2]int{
		{(col + cols - 1) % cols, row},
		{(col + 1) % cols, row},
		{col, (row + rows - 1) % rows},
		{col, (row + 1) % rows},
	} {
		duplicate := false
		for _, existing := range open {
			if existing == coord {
				duplicate = true
				break
			}
		}
		if !duplicate {
			open = append(open, coord)
		}
	}
	for len(open) > 0 {
		next := open[0]
		open = open[1:]
		open = s.partiallyReduce(next[0], next[1], open)
	}
	s.cachedProgress = 0
	for _, c := range s.superposition.Cells() {
		if len(c.patterns) == 1 {
			s.cachedProgress++
		}
	}
	if showUncollapsed {
		return Result[T]{Kind: ResultUncollapsed, Uncollapsed: s.uncollapsedWorld()}
	}
	return Result[T]{Kind: ResultIncomplete}
}

// uncollapsedCoord scans for the minimum-entropy cell holding more than one
// candidate. impossible marks a cell with no candidates at all.
func (s *Solver[T]) uncollapsedCoord() (col, row int, found, impossible bool) {
	cols := s.superposition.Cols()
	best := math.Inf(1)
	for index, c := range s.superposition.Cells() {
		if len(c.patterns) == 0 {
			return 0, 0, false, true
		}
		if len(c.patterns) > 1 && c.entropy < best {
			col = index % cols
			row = index / cols
			best = c.entropy
			found = true
		}
	}
	return col, row, found, false
}

// collapseCell weighted-random-picks one candidate and pins the cell to it.
func (s *Solver[T]) collapseCell(col, row int, genRange RangeFunc) bool {
	current, _ := s.superposition.Cell(col, row)
	indices := current.sortedPatterns()
	total := 0.0
	for _, index := range indices {
		total += s.model.patterns[index].Weight
	}
	selected := genRange(0, total)
	for _, index := range indices {
		weight := s.model.patterns[index].Weight
		if selected <= weight {
			s.superposition.Set(col, row, cell{
				patterns: map[int]struct{}{index: {}},
				entropy:  0,
			})
			return true
		}
		selected -= weight
	}
	return false
}

// partiallyReduce recomputes one cell's candidates under the adjacency rule;
// when the set shrinks, the four toroidal neighbors join the open list. The
// open list never holds duplicates.
func (s *Solver[T]) partiallyReduce(col, row int, open [][2]int) [][2]int {
	sample := s.superposition.SampleSeamless(col, row, 1)
	center, _ := sample.Cell(1, 1)
	if len(center.patterns) <= 1 {
		return open
	}
	patterns := filterByNeighbors(s.model, center.patterns, sample)
	if len(patterns) >= len(center.patterns) {
		return open
	}
	s.superposition.Set(col, row, cell{
		patterns: patterns,
		entropy:  calculateEntropy(s.model, patterns),
	})
	cols, rows := s.superposition.Size()
	for _, coord := range [4][2]int{
		{(col + cols - 1) % cols, row},
		{(col + 1) % cols, row},
		{col, (row + rows - 1) % rows},
		{col, (row + 1) % rows},
	} {
		duplicate := false
		for _, existing := range open {
			if existing == coord {
				duplicate = true
				break
			}
		}
		if !duplicate {
			open = append(open, coord)
		}
	}
	return open
}

func (s *Solver[T]) uncollapsedWorld() Grid2D[[]T] {
	cells := make([][]T, 0, s.superposition.Len())
	for _, c := range s.superposition.Cells() {
		values := make([]T, 0, len(c.patterns))
		for _, index := range c.sortedPatterns() {
			if top, ok := s.model.patterns[index].Grid.Cell(0, 0); ok {
				values = append(values, top)
			}
		}
		cells = append(cells, values)
	}
	return GridWithCells(s.superposition.Cols(), cells)
}

func (s *Solver[T]) collapsedWorld() (Grid2D[T], error) {
	cells := make([]T, 0, s.superposition.Len())
	for _, c := range s.superposition.Cells() {
		if len(c.patterns) != 1 {
			return Grid2D[T]{}, ErrUncollapsedCell
		}
		index := c.sortedPatterns()[0]
		top, _ := s.model.patterns[index].Grid.Cell(0, 0)
		cells = append(cells, top)
	}
	return GridWithCells(s.superposition.Cols(), cells), nil
}
