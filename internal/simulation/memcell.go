package simulation

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/holiman/uint256"
)

// prime is the field modulus P = 2^251 + 17*2^192 + 1.
var prime = func() *uint256.Int {
	p := new(uint256.Int).Lsh(uint256.NewInt(1), 251)
	p.Add(p, new(uint256.Int).Lsh(uint256.NewInt(17), 192))
	return p.Add(p, uint256.NewInt(1))
}()

// Prime returns a copy of the field modulus.
func Prime() *uint256.Int {
	return new(uint256.Int).Set(prime)
}

// MemCell is the atomic unit of simulated memory: one field element,
// always reduced modulo Prime().
type MemCell struct {
	v uint256.Int
}

// NewCell returns a cell holding n.
func NewCell(n uint64) MemCell {
	var c MemCell
	c.v.SetUint64(n)
	return c
}

// CellFromInt64 returns a cell holding n; negative values map to P - |n|.
func CellFromInt64(n int64) MemCell {
	if n >= 0 {
		return NewCell(uint64(n))
	}
	var c MemCell
	// -n overflows for MinInt64; uint64 arithmetic handles it.
	c.v.Sub(prime, uint256.NewInt(uint64(-(n + 1))+1))
	return c
}

// CellFromBig returns a cell holding v mod P.
func CellFromBig(v *uint256.Int) MemCell {
	var c MemCell
	c.v.Mod(v, prime)
	return c
}

// CellFromDecimal parses a decimal string, reducing it modulo P.
// A leading '-' maps to the additive inverse.
func CellFromDecimal(s string) (MemCell, error) {
	neg := len(s) > 0 && s[0] == '-'
	digits := s
	if neg {
		digits = s[1:]
	}
	v, err := uint256.FromDecimal(digits)
	if err != nil {
		return MemCell{}, fmt.Errorf("invalid cell value %q: %w", s, err)
	}
	c := CellFromBig(v)
	if neg {
		c = c.Neg()
	}
	return c, nil
}

// Big returns a copy of the cell value.
func (c MemCell) Big() *uint256.Int {
	return new(uint256.Int).Set(&c.v)
}

// IsZero reports whether the cell holds zero.
func (c MemCell) IsZero() bool {
	return c.v.IsZero()
}

// Equal reports whether two cells hold the same field element.
func (c MemCell) Equal(o MemCell) bool {
	return c.v.Eq(&o.v)
}

// Add returns c + o mod P.
func (c MemCell) Add(o MemCell) MemCell {
	var r MemCell
	r.v.AddMod(&c.v, &o.v, prime)
	return r
}

// Neg returns -c mod P.
func (c MemCell) Neg() MemCell {
	if c.IsZero() {
		return c
	}
	var r MemCell
	r.v.Sub(prime, &c.v)
	return r
}

// String returns the decimal value.
func (c MemCell) String() string {
	return c.v.Dec()
}

// MarshalJSON encodes the cell as a decimal string; values exceed int64.
func (c MemCell) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.v.Dec())
}

// UnmarshalJSON accepts a decimal string or a JSON integer.
func (c *MemCell) UnmarshalJSON(data []byte) error {
	var s string
	if len(data) > 0 && data[0] == '"' {
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
	} else {
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return err
		}
		if _, err := strconv.ParseInt(n.String(), 10, 64); err != nil {
			return fmt.Errorf("cell value must be an integer: %s", n)
		}
		s = n.String()
	}
	parsed, err := CellFromDecimal(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// Cells builds one variable from int64 values.
func Cells(values ...int64) []MemCell {
	cells := make([]MemCell, len(values))
	for i, v := range values {
		cells[i] = CellFromInt64(v)
	}
	return cells
}

// FormatVars renders variables as [[a, b], [c]] for logs and text output.
func FormatVars(vars [][]MemCell) string {
	out := "["
	for i, cells := range vars {
		if i > 0 {
			out += ", "
		}
		out += "["
		for j, cell := range cells {
			if j > 0 {
				out += ", "
			}
			out += cell.String()
		}
		out += "]"
	}
	return out + "]"
}

// EqualVars reports whether two variable lists have the same shape and cells.
func EqualVars(a, b [][]MemCell) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if len(a[i]) != len(b[i]) {
			return false
		}
		for j := range a[i] {
			if !a[i][j].Equal(b[i][j]) {
				return false
			}
		}
	}
	return true
}
