// SPDX-License-Identifier: MPL-2.0

// Package dag orders named declarations that refer to each other by name.
// The build script loader uses it to create tasks after the tasks they depend
// on, and to report a dependency cycle as the closed path that forms it.
package dag

import (
	"errors"
	"fmt"
	"strings"
)

// ErrCycle is the sentinel error wrapped by CycleError.
var ErrCycle = errors.New("dependency cycle")

type (
	// CycleError indicates that the graph contains a cycle, preventing ordering.
	CycleError struct {
		// Cycle is a closed path: the first node is repeated at the end.
		Cycle []string
	}

	// Graph is a directed graph of named nodes. An edge from A to B means
	// A must be declared before B.
	Graph struct {
		adjacency map[string][]string
		// nodes keeps insertion order for deterministic output.
		nodes   []string
		nodeSet map[string]struct{}
	}
)

func (e *CycleError) Error() string {
	return fmt.Sprintf("dependency cycle detected: %s", strings.Join(e.Cycle, " -> "))
}

// Unwrap returns ErrCycle for errors.Is compatibility.
func (e *CycleError) Unwrap() error { return ErrCycle }

// New creates an empty Graph.
func New() *Graph {
	return &Graph{
		adjacency: make(map[string][]string),
		nodeSet:   make(map[string]struct{}),
	}
}

// AddNode adds a node to the graph. Adding an existing node is a no-op.
func (g *Graph) AddNode(name string) {
	if g.HasNode(name) {
		return
	}
	g.nodeSet[name] = struct{}{}
	g.nodes = append(g.nodes, name)
}

// HasNode reports whether name was added to the graph.
func (g *Graph) HasNode(name string) bool {
	_, ok := g.nodeSet[name]
	return ok
}

// Len returns the number of nodes.
func (g *Graph) Len() int { return len(g.nodes) }

// AddEdge adds a directed edge from -> to, meaning "from" comes before "to".
// Both nodes are added if missing. Repeated edges are stored once.
func (g *Graph) AddEdge(from, to string) {
	g.AddNode(from)
	g.AddNode(to)
	for _, existing := range g.adjacency[from] {
		if existing == to {
			return
		}
	}
	g.adjacency[from] = append(g.adjacency[from], to)
}

// TopologicalSort returns an order in which every node follows the nodes it
// has incoming edges from, using Kahn's algorithm. Nodes that are free at the
// same time keep their insertion order. A cyclic graph yields a *CycleError.
func (g *Graph) TopologicalSort() ([]string, error) {
	if len(g.nodes) == 0 {
		return nil, nil
	}

	inDegree := make(map[string]int, len(g.nodes))
	for _, neighbors := range g.adjacency {
		for _, neighbor := range neighbors {
			inDegree[neighbor]++
		}
	}

	var queue []string
	for _, node := range g.nodes {
		if inDegree[node] == 0 {
			queue = append(queue, node)
		}
	}

	result := make([]string, 0, len(g.nodes))
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		result = append(result, node)

		for _, neighbor := range g.adjacency[node] {
			inDegree[neighbor]--
			if inDegree[neighbor] == 0 {
				queue = append(queue, neighbor)
			}
		}
	}

	if len(result) != len(g.nodes) {
		return nil, &CycleError{Cycle: g.findCycle(inDegree)}
	}
	return result, nil
}

// findCycle walks the nodes Kahn's algorithm could not release and returns the
// first closed path it meets. Every such node has a predecessor that is also
// unreleased, so following edges among them must revisit a node.
func (g *Graph) findCycle(inDegree map[string]int) []string {
	const (
		unvisited = iota
		onPath
		finished
	)
	state := make(map[string]int, len(g.nodes))
	var path []string

	var visit func(node string) []string
	visit = func(node string) []string {
		state[node] = onPath
		path = append(path, node)
		for _, next := range g.adjacency[node] {
			if inDegree[next] == 0 {
				continue
			}
			switch state[next] {
			case onPath:
				start := indexOf(path, next)
				cycle := append([]string(nil), path[start:]...)
				return append(cycle, next)
			case unvisited:
				if cycle := visit(next); cycle != nil {
					return cycle
				}
			}
		}
		path = path[:len(path)-1]
		state[node] = finished
		return nil
	}

	for _, node := range g.nodes {
		if inDegree[node] > 0 && state[node] == unvisited {
			if cycle := visit(node); cycle != nil {
				return cycle
			}
		}
	}
	return nil
}

func indexOf(path []string, node string) int {
	for i, n := range path {
		if n == node {
			return i
		}
	}
	return -1
}
