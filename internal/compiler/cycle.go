package compiler

import (
	"fmt"
	"sort"
	"strings"

	"github.com/narrata/loom/internal/content"
)

// CycleWarning represents a cycle in the template reference graph.
//
// Cycles are warnings, not errors: the resolver's visited set makes them
// safe at runtime (each ancestor resolves at most once), but a cycle in a
// content pack is almost always an authoring mistake worth surfacing.
type CycleWarning struct {
	Path    []string `json:"path"`    // Cycle path: ["a", "b", "a"]
	Message string   `json:"message"` // Human-readable description
	Level   string   `json:"level"`   // "warning" or "info"
}

// AnalyzeCycles performs static cycle analysis on a template set.
//
// The reference graph has an edge for every extends, mixin, and composition
// reference. Strongly connected components are found with Tarjan's
// algorithm; each SCC larger than one node, or a single node with a
// self-loop, becomes a warning.
//
// A DAG (no cycles) returns an empty warning list. References to unknown
// ids are not reported here - the resolver warns about those at runtime.
func AnalyzeCycles(templates []content.Template) []CycleWarning {
	if len(templates) == 0 {
		return []CycleWarning{}
	}

	graph := buildReferenceGraph(templates)
	sccs := tarjanSCC(graph)

	var warnings []CycleWarning
	for _, scc := range sccs {
		if len(scc) > 1 || (len(scc) == 1 && hasSelfLoop(scc[0], graph)) {
			warnings = append(warnings, cycleSCCToWarning(scc, graph))
		}
	}
	return warnings
}

// referenceGraph maps template id -> referenced template ids.
type referenceGraph map[string][]string

// buildReferenceGraph collects every id-to-id edge a template declares.
func buildReferenceGraph(templates []content.Template) referenceGraph {
	known := make(map[string]bool, len(templates))
	for _, tpl := range templates {
		known[tpl.ID] = true
	}

	graph := make(referenceGraph, len(templates))
	for _, tpl := range templates {
		edges := []string{}
		add := func(id string) {
			// Edges to unknown ids would make phantom nodes; skip them.
			if known[id] {
				edges = append(edges, id)
			}
		}

		for _, parent := range tpl.Extends {
			add(parent)
		}
		for _, mixin := range tpl.Mixins {
			add(mixin)
		}
		for _, entry := range tpl.Composition {
			add(entry.TemplateID)
		}

		graph[tpl.ID] = edges
	}
	return graph
}

// hasSelfLoop checks if a node has an edge to itself.
func hasSelfLoop(node string, graph referenceGraph) bool {
	for _, neighbor := range graph[node] {
		if neighbor == node {
			return true
		}
	}
	return false
}

// tarjanSCC finds strongly connected components using Tarjan's algorithm.
//
// Returns a list of SCCs, where each SCC is a list of template ids.
// Single-node SCCs without self-loops are NOT cycles. Nodes are visited in
// sorted order so warning output is deterministic.
func tarjanSCC(graph referenceGraph) [][]string {
	var (
		index   = 0
		stack   []string
		indices = make(map[string]int)
		lowlink = make(map[string]int)
		onStack = make(map[string]bool)
		sccs    [][]string
	)

	var strongConnect func(string)
	strongConnect = func(v string) {
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

		if lowlink[v] == indices[v] {
			var scc []string
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			sccs = append(sccs, scc)
		}
	}

	nodes := make([]string, 0, len(graph))
	for node := range graph {
		nodes = append(nodes, node)
	}
	sort.Strings(nodes)

	for _, node := range nodes {
		if _, visited := indices[node]; !visited {
			strongConnect(node)
		}
	}

	return sccs
}

// cycleSCCToWarning converts an SCC to a CycleWarning.
func cycleSCCToWarning(scc []string, graph referenceGraph) CycleWarning {
	if len(scc) == 1 {
		id := scc[0]
		return CycleWarning{
			Path:    []string{id, id},
			Message: fmt.Sprintf("Self-referencing template detected: %s → %s", id, id),
			Level:   "warning",
		}
	}

	path := reconstructCyclePath(scc, graph)
	return CycleWarning{
		Path:    path,
		Message: fmt.Sprintf("Template reference cycle detected: %s", strings.Join(path, " → ")),
		Level:   "warning",
	}
}

// reconstructCyclePath builds a representative cycle path from an SCC by
// following edges between SCC members until the start node reappears.
func reconstructCyclePath(scc []string, graph referenceGraph) []string {
	if len(scc) == 0 {
		return []string{}
	}

	sccSet := make(map[string]bool, len(scc))
	for _, node := range scc {
		sccSet[node] = true
	}

	start := scc[0]
	current := start
	path := []string{current}
	visited := make(map[string]bool)

	for {
		visited[current] = true

		var next string
		for _, neighbor := range graph[current] {
			if sccSet[neighbor] && (!visited[neighbor] || neighbor == start) {
				next = neighbor
				break
			}
		}

		if next == "" {
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
