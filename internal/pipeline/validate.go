package pipeline

import "fmt"

// Validate reports every structural defect found: cycles, dangling
// entry/output node references, and unreachable nodes. The pipeline is
// valid iff the returned slice is empty.
func Validate(p *Pipeline) []string {
	var errs []string

	nodeSet := make(map[string]bool, len(p.Nodes))
	for _, n := range p.Nodes {
		nodeSet[n.ID] = true
	}

	for _, id := range p.EntryNodes {
		if !nodeSet[id] {
			errs = append(errs, fmt.Sprintf("entry node %q does not exist", id))
		}
	}
	for _, id := range p.OutputNodes {
		if !nodeSet[id] {
			errs = append(errs, fmt.Sprintf("output node %q does not exist", id))
		}
	}

	if cyclic := findCycle(p); cyclic != "" {
		errs = append(errs, fmt.Sprintf("cycle detected involving node %q", cyclic))
	}

	for _, n := range p.Nodes {
		if !reachableFromEntry(p, n.ID) {
			errs = append(errs, fmt.Sprintf("node %q is not reachable from any entry node", n.ID))
		}
	}

	return errs
}

// findCycle runs DFS with a recursion stack and returns the id of a node
// involved in a cycle, or "" if the graph is acyclic.
func findCycle(p *Pipeline) string {
	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make(map[string]int, len(p.Nodes))
	for _, n := range p.Nodes {
		color[n.ID] = white
	}

	var found string
	var visit func(id string) bool
	visit = func(id string) bool {
		color[id] = gray
		for _, succ := range p.successors(id) {
			switch color[succ] {
			case gray:
				found = succ
				return true
			case white:
				if visit(succ) {
					return true
				}
			}
		}
		color[id] = black
		return false
	}

	for _, n := range p.Nodes {
		if color[n.ID] == white {
			if visit(n.ID) {
				return found
			}
		}
	}
	return ""
}

// reachableFromEntry reports whether nodeID is reachable from any entry
// node via a stack-based traversal.
func reachableFromEntry(p *Pipeline, nodeID string) bool {
	visited := make(map[string]bool)
	stack := append([]string{}, p.EntryNodes...)

	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if cur == nodeID {
			return true
		}
		if visited[cur] {
			continue
		}
		visited[cur] = true
		stack = append(stack, p.successors(cur)...)
	}
	return false
}

// TypeMismatch describes an edge whose producer and consumer declare
// disjoint type sets.
type TypeMismatch struct {
	Edge    Edge
	Message string
}

// ValidateTypes checks, for every edge, that the producer's declared
// output types intersect the consumer's declared input types. metaByNode
// maps node id to its ToolMetadata.
func ValidateTypes(p *Pipeline, metaByNode map[string]ToolMetadata) []TypeMismatch {
	var mismatches []TypeMismatch
	for _, e := range p.Edges {
		producer, ok := metaByNode[e.From]
		if !ok {
			continue
		}
		consumer, ok := metaByNode[e.To]
		if !ok {
			continue
		}
		if !typeSetsIntersect(producer.OutputTypes, consumer.InputTypes) {
			mismatches = append(mismatches, TypeMismatch{
				Edge: e,
				Message: fmt.Sprintf("type mismatch on edge %s -> %s: producer outputs %v, consumer expects %v",
					e.From, e.To, producer.OutputTypes, consumer.InputTypes),
			})
		}
	}
	return mismatches
}

func typeSetsIntersect(a, b []string) bool {
	set := make(map[string]bool, len(a))
	for _, t := range a {
		set[t] = true
	}
	for _, t := range b {
		if set[t] {
			return true
		}
	}
	return false
}
