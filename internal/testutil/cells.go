package testutil

import "github.com/roach88/sierra/internal/simulation"

// SingleCells returns one single-cell variable per value, the shape of a
// list of felt arguments.
func SingleCells(values ...int64) [][]simulation.MemCell {
	vars := make([][]simulation.MemCell, len(values))
	for i, v := range values {
		vars[i] = simulation.Cells(v)
	}
	return vars
}
