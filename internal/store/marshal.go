package store

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/sierra/internal/engine"
	"github.com/roach88/sierra/internal/extensions"
	"github.com/roach88/sierra/internal/ir"
	"github.com/roach88/sierra/internal/simulation"
)

// marshalVars converts cell values to canonical JSON TEXT.
func marshalVars(vars [][]simulation.MemCell) (string, error) {
	data, err := ir.MarshalCanonical(engine.VarsToCanonical(vars))
	if err != nil {
		return "", fmt.Errorf("marshal cells: %w", err)
	}
	return string(data), nil
}

// unmarshalVars parses cell values. Cells are decimal strings, so no
// precision is lost through float64.
func unmarshalVars(data string) ([][]simulation.MemCell, error) {
	var vars [][]simulation.MemCell
	if err := json.Unmarshal([]byte(data), &vars); err != nil {
		return nil, fmt.Errorf("unmarshal cells: %w", err)
	}
	if vars == nil {
		vars = [][]simulation.MemCell{}
	}
	return vars, nil
}

func marshalArgs(args []ir.GenericArg) (string, error) {
	data, err := ir.MarshalCanonical(ir.ArgsToCanonical(args))
	if err != nil {
		return "", fmt.Errorf("marshal args: %w", err)
	}
	return string(data), nil
}

// unmarshalArgs parses an argument list written by marshalArgs. Values go
// through json.Number so int64 literals survive intact.
func unmarshalArgs(data string) ([]ir.GenericArg, error) {
	var raw []map[string]json.RawMessage
	if err := json.Unmarshal([]byte(data), &raw); err != nil {
		return nil, fmt.Errorf("unmarshal args: %w", err)
	}
	args := make([]ir.GenericArg, 0, len(raw))
	for i, obj := range raw {
		if t, ok := obj["type"]; ok {
			var id string
			if err := json.Unmarshal(t, &id); err != nil {
				return nil, fmt.Errorf("unmarshal args[%d]: %w", i, err)
			}
			args = append(args, ir.TypeArg{ID: ir.ConcreteTypeID(id)})
			continue
		}
		if v, ok := obj["value"]; ok {
			var n json.Number
			if err := json.Unmarshal(v, &n); err != nil {
				return nil, fmt.Errorf("unmarshal args[%d]: %w", i, err)
			}
			value, err := n.Int64()
			if err != nil {
				return nil, fmt.Errorf("unmarshal args[%d]: %w", i, err)
			}
			args = append(args, ir.ValueArg{Value: value})
			continue
		}
		return nil, fmt.Errorf("unmarshal args[%d]: neither type nor value", i)
	}
	return args, nil
}

func marshalSignature(sig extensions.Signature) (string, error) {
	data, err := ir.MarshalCanonical(sig.Canonical())
	if err != nil {
		return "", fmt.Errorf("marshal signature: %w", err)
	}
	return string(data), nil
}

func unmarshalSignature(data string) (extensions.Signature, error) {
	var sig extensions.Signature
	if err := json.Unmarshal([]byte(data), &sig); err != nil {
		return extensions.Signature{}, fmt.Errorf("unmarshal signature: %w", err)
	}
	return sig, nil
}
