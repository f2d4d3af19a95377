// Package wfc is a constraint-propagation procedural generator: weighted
// sample patterns with directional adjacency collapse a 2D grid cell by cell
// until every window of the output matches the model.
package wfc

// Grid2D is a dense row-major 2D grid.
type Grid2D[T any] struct {
	cols  int
	cells []T
}

// NewGrid2D builds a cols-by-rows grid filled with the given value.
func NewGrid2D[T any](cols, rows int, value T) Grid2D[T] {
	cells := make([]T, cols*rows)
	for i := range cells {
		cells[i] = value
	}
	return Grid2D[T]{cols: cols, cells: cells}
}

// GridWithCells wraps existing row-major cells; len(cells) must be a multiple
// of cols.
func GridWithCells[T any](cols int, cells []T) Grid2D[T] {
	if cols <= 0 {
		return Grid2D[T]{}
	}
	return Grid2D[T]{cols: cols, cells: cells}
}

// Cols reports the column count.
func (g Grid2D[T]) Cols() int { return g.cols }

// Rows reports the row count.
func (g Grid2D[T]) Rows() int {
	if g.cols == 0 {
		return 0
	}
	return len(g.cells) / g.cols
}

// Size reports (cols, rows).
func (g Grid2D[T]) Size() (int, int) { return g.Cols(), g.Rows() }

// Len reports the cell count.
func (g Grid2D[T]) Len() int { return len(g.cells) }

// IsEmpty reports whether the grid holds no cells.
func (g Grid2D[T]) IsEmpty() bool { return len(g.cells) == 0 }

// Cell fetches the value at (col, row).
func (g Grid2D[T]) Cell(col, row int) (T, bool) {
	var zero T
	if col < 0 || row < 0 || col >= g.Cols() || row >= g.Rows() {
		return zero, false
	}
	return g.cells[row*g.cols+col], true
}

// Set stores the value at (col, row).
func (g *Grid2D[T]) Set(col, row int, value T) {
	if col < 0 || row < 0 || col >= g.Cols() || row >= g.Rows() {
		return
	}
	g.cells[row*g.cols+col] = value
}

// Cells exposes the raw row-major cells.
func (g Grid2D[T]) Cells() []T { return g.cells }

// Clone copies the grid, sharing no cell storage.
func (g Grid2D[T]) Clone() Grid2D[T] {
	cells := make([]T, len(g.cells))
	copy(cells, g.cells)
	return Grid2D[T]{cols: g.cols, cells: cells}
}

// view copies the sub-grid starting at (col, row) with the given size,
// wrapping around the edges when wrap is set.
func (g Grid2D[T]) view(col, row, cols, rows int, wrap bool) (Grid2D[T], bool) {
	if cols <= 0 || rows <= 0 || g.IsEmpty() {
		return Grid2D[T]{}, false
	}
	if !wrap && (col+cols > g.Cols() || row+rows > g.Rows()) {
		return Grid2D[T]{}, false
	}
	cells := make([]T, 0, cols*rows)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			sc, sr := col+c, row+r
			if wrap {
				sc = ((sc % g.Cols()) + g.Cols()) % g.Cols()
				sr = ((sr % g.Rows()) + g.Rows()) % g.Rows()
			}
			v, _ := g.Cell(sc, sr)
			cells = append(cells, v)
		}
	}
	return GridWithCells(cols, cells), true
}

// Window copies the sub-grid anchored at (col, row); it fails when the window
// overruns the grid.
func (g Grid2D[T]) Window(col, row, cols, rows int) (Grid2D[T], bool) {
	return g.view(col, row, cols, rows, false)
}

// Windows lists every in-bounds sliding window of the given size.
func (g Grid2D[T]) Windows(cols, rows int) []Grid2D[T] {
	if cols <= 0 || rows <= 0 || cols > g.Cols() || rows > g.Rows() {
		return nil
	}
	out := make([]Grid2D[T], 0, (g.Cols()-cols+1)*(g.Rows()-rows+1))
	for row := 0; row+rows <= g.Rows(); row++ {
		for col := 0; col+cols <= g.Cols(); col++ {
			if w, ok := g.Window(col, row, cols, rows); ok {
				out = append(out, w)
			}
		}
	}
	return out
}

// WindowsSeamless lists a window anchored at every cell, wrapping across the
// seams so sampling treats the grid as toroidal.
func (g Grid2D[T]) WindowsSeamless(cols, rows int) []Grid2D[T] {
	if cols <= 0 || rows <= 0 || g.IsEmpty() {
		return nil
	}
	out := make([]Grid2D[T], 0, g.Len())
	for row := 0; row < g.Rows(); row++ {
		for col := 0; col < g.Cols(); col++ {
			if w, ok := g.view(col, row, cols, rows, true); ok {
				out = append(out, w)
			}
		}
	}
	return out
}

// SampleSeamless copies the (2*margin+1)-square neighborhood centered on
// (col, row), wrapping toroidally.
func (g Grid2D[T]) SampleSeamless(col, row, margin int) Grid2D[T] {
	size := margin*2 + 1
	w, _ := g.view(col-margin, row-margin, size, size, true)
	return w
}

// gridsEqual compares two grids cell-wise.
func gridsEqual[T comparable](a, b Grid2D[T]) bool {
	if a.Cols() != b.Cols() || a.Len() != b.Len() {
		return false
	}
	for i := range a.cells {
		if a.cells[i] != b.cells[i] {
			return false
		}
	}
	return true
}

// gridsUnion reports whether a's region starting at the offset equals b's
// top-left region over their intersection.
func gridsUnion[T comparable](a, b Grid2D[T], colOffset, rowOffset int) bool {
	cols := a.Cols()
	if c := b.Cols() + colOffset; c < cols {
		cols = c
	}
	rows := a.Rows()
	if r := b.Rows() + rowOffset; r < rows {
		rows = r
	}
	for row := rowOffset; row < rows; row++ {
		for col := colOffset; col < cols; col++ {
			av, _ := a.Cell(col, row)
			bv, _ := b.Cell(col-colOffset, row-rowOffset)
			if av != bv {
				return false
			}
		}
	}
	return true
}
