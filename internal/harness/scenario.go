package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/sierra/internal/simulation"
)

// Scenario defines one simulated call of a program function.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Program is the path of the CUE program manifest (file or directory).
	// LoadScenario resolves it relative to the scenario file.
	Program string `yaml:"program"`

	// Function is the program function to run.
	Function string `yaml:"function"`

	// Inputs holds one cell list per function parameter.
	Inputs [][]Cell `yaml:"inputs"`

	// RunToken is an optional fixed run token. If empty, defaults to
	// testutil.DefaultRunToken.
	RunToken string `yaml:"run_token,omitempty"`

	// MaxSteps overrides the engine step quota when positive.
	MaxSteps int `yaml:"max_steps,omitempty"`

	// Expect is the expected outcome.
	Expect Expect `yaml:"expect"`

	// Assertions validate the recorded trace.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Expect holds either the expected outputs or the expected error code.
type Expect struct {
	Outputs [][]Cell `yaml:"outputs,omitempty"`
	Error   string   `yaml:"error,omitempty"`
}

// Assertion validates the recorded trace.
type Assertion struct {
	// Type is one of step_count, trace_contains, trace_order, trace_count.
	Type string `yaml:"type"`

	// LibFunc is the concrete libfunc id (trace_contains, trace_count).
	LibFunc string `yaml:"libfunc,omitempty"`

	// Statement and Branch narrow trace_contains to one statement or branch.
	Statement *int `yaml:"statement,omitempty"`
	Branch    *int `yaml:"branch,omitempty"`

	// Count is the expected number of steps (step_count, trace_count).
	Count int `yaml:"count,omitempty"`

	// LibFuncs is the expected order (trace_order).
	LibFuncs []string `yaml:"libfuncs,omitempty"`
}

// Assertion type constants.
const (
	AssertStepCount     = "step_count"
	AssertTraceContains = "trace_contains"
	AssertTraceOrder    = "trace_order"
	AssertTraceCount    = "trace_count"
)

// Cell is a cell value in a scenario file: a YAML integer or a decimal
// string. Negative values map to their additive inverse.
type Cell struct {
	simulation.MemCell
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (c *Cell) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: cell must be an integer or decimal string", node.Line)
	}
	switch node.ShortTag() {
	case "!!int", "!!str":
	case "!!float":
		return fmt.Errorf("line %d: floats are forbidden in cells: %s", node.Line, node.Value)
	default:
		return fmt.Errorf("line %d: cell must be an integer or decimal string, got %s", node.Line, node.ShortTag())
	}
	v, err := simulation.CellFromDecimal(node.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	c.MemCell = v
	return nil
}

// cellsToVars converts scenario cells to engine values.
func cellsToVars(cells [][]Cell) [][]simulation.MemCell {
	vars := make([][]simulation.MemCell, len(cells))
	for i, v := range cells {
		vars[i] = make([]simulation.MemCell, len(v))
		for j, c := range v {
			vars[i][j] = c.MemCell
		}
	}
	return vars
}

// LoadScenario reads and parses a scenario YAML file, resolving the program
// path relative to the scenario file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Strict field validation catches typos like "assertion:" vs "assertions:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if scenario.Program != "" && !filepath.IsAbs(scenario.Program) {
		scenario.Program = filepath.Join(filepath.Dir(path), scenario.Program)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Program == "" {
		return fmt.Errorf("program is required")
	}
	if s.Function == "" {
		return fmt.Errorf("function is required")
	}
	if s.MaxSteps < 0 {
		return fmt.Errorf("max_steps must be non-negative")
	}

	if _, err := os.Stat(s.Program); os.IsNotExist(err) {
		return &ProgramNotFoundError{Scenario: s.Name, ResolvedPath: s.Program}
	}

	hasOutputs := s.Expect.Outputs != nil
	hasError := s.Expect.Error != ""
	if hasOutputs == hasError {
		return fmt.Errorf("expect: exactly one of outputs or error is required")
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertStepCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for step_count", index)
		}
	case AssertTraceContains:
		if a.LibFunc == "" {
			return fmt.Errorf("assertions[%d]: libfunc is required for trace_contains", index)
		}
	case AssertTraceOrder:
		if len(a.LibFuncs) == 0 {
			return fmt.Errorf("assertions[%d]: libfuncs list is required for trace_order", index)
		}
	case AssertTraceCount:
		if a.LibFunc == "" {
			return fmt.Errorf("assertions[%d]: libfunc is required for trace_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for trace_count", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
