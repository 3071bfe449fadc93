package flowgraph

import (
	"fmt"
	"sort"
)

// Graph is the declarative step topology: a directed acyclic graph over step
// names where edges point from a step to the steps consuming its output.
// Construction validates the whole structure; a Graph is read-only afterwards
// and safe for concurrent readers.
type Graph struct {
	successors map[string][]string
	root       string
	steps      []string
}

// Options configure graph construction.
type Options struct {
	// KnownStep reports whether a step name is declared in the configuration.
	// Successor names failing this check make construction fail. Nil accepts
	// every name appearing in the flow mapping.
	KnownStep func(name string) bool
}

// New builds a validated Graph from the flow mapping (step name to ordered
// successor names). It fails when a successor references an unknown step,
// when root discovery does not yield exactly one root, or when the mapping
// contains a cycle. Successor order is preserved as declared.
func New(flow map[string][]string, optFns ...func(o *Options)) (*Graph, error) {
	opts := Options{}
	for _, fn := range optFns {
		fn(&opts)
	}

	g := &Graph{successors: make(map[string][]string, len(flow))}

	// Collect the node set: every flow key plus every referenced successor.
	// A successor without its own flow entry is a leaf.
	nodes := make(map[string]bool, len(flow))
	for name, succs := range flow {
		nodes[name] = true
		for _, s := range succs {
			nodes[s] = true
		}
		g.successors[name] = append([]string(nil), succs...)
	}
	if len(nodes) == 0 {
		return nil, fmt.Errorf("flow mapping is empty")
	}

	if opts.KnownStep != nil {
		for name, succs := range flow {
			for _, s := range succs {
				if !opts.KnownStep(s) {
					return nil, fmt.Errorf("step %q references unknown successor %q", name, s)
				}
			}
		}
	}

	root, err := findRoot(flow, nodes)
	if err != nil {
		return nil, err
	}
	g.root = root

	if err := detectCycles(g.successors, nodes); err != nil {
		return nil, err
	}

	g.steps = make([]string, 0, len(nodes))
	for name := range nodes {
		g.steps = append(g.steps, name)
	}
	sort.Strings(g.steps)

	return g, nil
}

// Root returns the unique entry step: the only node never referenced as a
// successor.
func (g *Graph) Root() string { return g.root }

// Successors returns the ordered downstream steps of the given step. The
// slice is a copy; absent or leaf steps yield an empty slice.
func (g *Graph) Successors(name string) []string {
	return append([]string(nil), g.successors[name]...)
}

// Steps returns all step names in the graph, sorted for determinism.
func (g *Graph) Steps() []string {
	return append([]string(nil), g.steps...)
}

// Len returns the number of steps in the graph.
func (g *Graph) Len() int { return len(g.steps) }

// findRoot locates the single node with no incoming edge. Zero candidates
// means every node is referenced (the mapping is cyclic or self-referential);
// several candidates means the flow describes a forest, which this pipeline
// does not support. Both are configuration errors.
func findRoot(flow map[string][]string, nodes map[string]bool) (string, error) {
	referenced := make(map[string]bool)
	for _, succs := range flow {
		for _, s := range succs {
			referenced[s] = true
		}
	}

	var roots []string
	for name := range nodes {
		if !referenced[name] {
			roots = append(roots, name)
		}
	}
	switch len(roots) {
	case 1:
		return roots[0], nil
	case 0:
		return "", fmt.Errorf("flow has no root: every step is referenced as a successor")
	default:
		sort.Strings(roots)
		return "", fmt.Errorf("flow has multiple roots %v: exactly one entry step is required", roots)
	}
}

// detectCycles runs a depth-first search with the classic three node sets:
// permanent nodes are fully visited and known safe, temporary nodes are on
// the current recursion path. Revisiting a temporary node means the flow
// loops back on itself, which would make traversal diverge.
func detectCycles(successors map[string][]string, nodes map[string]bool) error {
	permanent := make(map[string]bool, len(nodes))
	temporary := make(map[string]bool)

	var visit func(name string) error
	visit = func(name string) error {
		if permanent[name] {
			return nil
		}
		if temporary[name] {
			return fmt.Errorf("flow contains a cycle involving step %q", name)
		}
		temporary[name] = true
		for _, s := range successors[name] {
			if err := visit(s); err != nil {
				return err
			}
		}
		delete(temporary, name)
		permanent[name] = true
		return nil
	}

	// Visit every node, not just the root, so disconnected cyclic islands
	// are rejected too.
	names := make([]string, 0, len(nodes))
	for name := range nodes {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := visit(name); err != nil {
			return err
		}
	}
	return nil
}
