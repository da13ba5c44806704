package compiler

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/sierra/internal/ir"
)

// LoopWarning reports a cycle in the statement control-flow graph.
//
// Loops are warnings, not errors: a loop that branches out on a runtime
// value (felt_jump_nz counting down) terminates. A loop that never exits is
// stopped by the engine's step quota.
type LoopWarning struct {
	Path    []ir.StatementIdx `json:"path"`    // [4, 7, 8, 4]
	Message string            `json:"message"` // Human-readable description
	Level   string            `json:"level"`   // "warning"
}

// AnalyzeLoops performs static cycle analysis on the statements of p.
//
// The algorithm:
//  1. Build statement → successor edges from branch targets
//  2. Use Tarjan's algorithm to find strongly connected components
//  3. Report each SCC with size > 1 or a self-loop as a warning
//
// Warnings are ordered by their lowest statement index. A program without
// loops returns an empty list.
func AnalyzeLoops(p *ir.Program) []LoopWarning {
	warnings := []LoopWarning{}
	if len(p.Statements) == 0 {
		return warnings
	}

	graph := buildControlFlowGraph(p)
	for _, scc := range tarjanSCC(graph) {
		if len(scc) > 1 || hasSelfLoop(scc[0], graph) {
			warnings = append(warnings, loopToWarning(scc, graph))
		}
	}

	slices.SortFunc(warnings, func(a, b LoopWarning) int {
		return int(a.Path[0] - b.Path[0])
	})
	return warnings
}

// Unreachable returns the statements no function entry can reach, in
// ascending order.
func Unreachable(p *ir.Program) []ir.StatementIdx {
	graph := buildControlFlowGraph(p)
	seen := make([]bool, len(p.Statements))

	var stack []ir.StatementIdx
	for _, fn := range p.Funcs {
		if inRange(fn.Entry, len(p.Statements)) {
			stack = append(stack, fn.Entry)
		}
	}
	for len(stack) > 0 {
		s := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[s] {
			continue
		}
		seen[s] = true
		stack = append(stack, graph[s]...)
	}

	out := []ir.StatementIdx{}
	for i, ok := range seen {
		if !ok {
			out = append(out, ir.StatementIdx(i))
		}
	}
	return out
}

// controlFlowGraph maps a statement index to the statements its branches
// continue at, in branch order.
type controlFlowGraph [][]ir.StatementIdx

// buildControlFlowGraph derives edges from branch targets. Targets outside
// the program are dropped; Validate reports them.
func buildControlFlowGraph(p *ir.Program) controlFlowGraph {
	n := len(p.Statements)
	graph := make(controlFlowGraph, n)
	for i, stmt := range p.Statements {
		graph[i] = []ir.StatementIdx{}
		if stmt.IsReturn() {
			continue
		}
		for _, branch := range stmt.Invocation.Branches {
			next := branch.Target.Statement
			if branch.Target.Fallthrough {
				next = ir.StatementIdx(i + 1)
			}
			if inRange(next, n) && !slices.Contains(graph[i], next) {
				graph[i] = append(graph[i], next)
			}
		}
	}
	return graph
}

func inRange(idx ir.StatementIdx, n int) bool {
	return idx >= 0 && int(idx) < n
}

func hasSelfLoop(node ir.StatementIdx, graph controlFlowGraph) bool {
	return slices.Contains(graph[node], node)
}

// tarjanSCC finds strongly connected components using Tarjan's algorithm.
// Nodes are visited in index order, so the result is deterministic.
func tarjanSCC(graph controlFlowGraph) [][]ir.StatementIdx {
	var (
		index   = 0
		stack   []ir.StatementIdx
		indices = make(map[ir.StatementIdx]int)
		lowlink = make(map[ir.StatementIdx]int)
		onStack = make(map[ir.StatementIdx]bool)
		sccs    [][]ir.StatementIdx
	)

	var strongConnect func(ir.StatementIdx)
	strongConnect = func(v ir.StatementIdx) {
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range graph[v] {
			if _, visited := indices[w]; !visited {
				strongConnect(w)
				lowlink[v] = min(lowlink[v], lowlink[w])
			} else if onStack[w] {
				lowlink[v] = min(lowlink[v], indices[w])
			}
		}

		// v is a root node: pop its component
		if lowlink[v] == indices[v] {
			var scc []ir.StatementIdx
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			slices.Sort(scc)
			sccs = append(sccs, scc)
		}
	}

	for node := range graph {
		if _, visited := indices[ir.StatementIdx(node)]; !visited {
			strongConnect(ir.StatementIdx(node))
		}
	}
	return sccs
}

func loopToWarning(scc []ir.StatementIdx, graph controlFlowGraph) LoopWarning {
	if len(scc) == 1 {
		s := scc[0]
		return LoopWarning{
			Path:    []ir.StatementIdx{s, s},
			Message: fmt.Sprintf("statement %d branches to itself", s),
			Level:   "warning",
		}
	}

	path := reconstructLoopPath(scc, graph)
	parts := make([]string, len(path))
	for i, s := range path {
		parts[i] = fmt.Sprint(s)
	}
	return LoopWarning{
		Path:    path,
		Message: fmt.Sprintf("loop detected: %s", strings.Join(parts, " → ")),
		Level:   "warning",
	}
}

// reconstructLoopPath walks edges inside the SCC from its lowest statement
// until it returns there.
func reconstructLoopPath(scc []ir.StatementIdx, graph controlFlowGraph) []ir.StatementIdx {
	if len(scc) == 0 {
		return []ir.StatementIdx{}
	}

	start := scc[0]
	current := start
	path := []ir.StatementIdx{current}
	visited := make(map[ir.StatementIdx]bool)

	for {
		visited[current] = true

		next := ir.StatementIdx(-1)
		for _, neighbor := range graph[current] {
			if slices.Contains(scc, neighbor) && (!visited[neighbor] || neighbor == start) {
				next = neighbor
				break
			}
		}
		if next < 0 {
			break
		}

		path = append(path, next)
		if next == start {
			break
		}
		current = next
	}
	return path
}
