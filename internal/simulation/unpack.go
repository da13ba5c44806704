package simulation

import "fmt"

// UnpackInputs checks that exactly n variables were supplied and returns them.
func UnpackInputs(n int, inputs [][]MemCell) ([][]MemCell, error) {
	if len(inputs) != n {
		return nil, wrongVarCount(n, len(inputs))
	}
	return inputs, nil
}

// Identity passes exactly n variables through unchanged.
func Identity(n int, inputs [][]MemCell) ([][]MemCell, error) {
	return UnpackInputs(n, inputs)
}

// UnpackSingleCells checks that exactly n variables were supplied, each
// occupying exactly one cell, and returns those cells.
func UnpackSingleCells(n int, inputs [][]MemCell) ([]MemCell, error) {
	if _, err := UnpackInputs(n, inputs); err != nil {
		return nil, err
	}
	cells := make([]MemCell, n)
	for i, v := range inputs {
		if len(v) != 1 {
			return nil, &InputError{
				What:     fmt.Sprintf("cells for input %d", i),
				Expected: 1,
				Got:      len(v),
			}
		}
		cells[i] = v[0]
	}
	return cells, nil
}
