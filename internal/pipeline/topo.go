package pipeline

import "sort"

// TopologicalOrder returns node ids in an order where every predecessor
// precedes its successors (Kahn's algorithm). Tie-breaking among nodes
// with equal in-degree is by node id, giving a deterministic order
// within one run.
func TopologicalOrder(p *Pipeline) []string {
	inDegree := make(map[string]int, len(p.Nodes))
	for _, n := range p.Nodes {
		inDegree[n.ID] = 0
	}
	for _, e := range p.Edges {
		inDegree[e.To]++
	}

	var ready []string
	for id, deg := range inDegree {
		if deg == 0 {
			ready = append(ready, id)
		}
	}
	sort.Strings(ready)

	var order []string
	for len(ready) > 0 {
		cur := ready[0]
		ready = ready[1:]
		order = append(order, cur)

		var newlyReady []string
		for _, succ := range p.successors(cur) {
			inDegree[succ]--
			if inDegree[succ] == 0 {
				newlyReady = append(newlyReady, succ)
			}
		}
		sort.Strings(newlyReady)
		ready = append(ready, newlyReady...)
		sort.Strings(ready)
	}

	return order
}
