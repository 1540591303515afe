package pascal

import "sort"

// SortClasses returns classes in declaration order for a single unit:
// every parent declared in the same slice precedes its children. Parents
// outside the slice are assumed to come from a used unit. Ties are broken
// by name so the output is deterministic.
func SortClasses(classes []*PasClass) []*PasClass {
	byName := make(map[string]*PasClass, len(classes))
	for _, c := range classes {
		byName[c.Name] = c
	}

	// Build adjacency: parent → children, limited to this set.
	children := make(map[string][]string, len(classes))
	inDegree := make(map[string]int, len(classes))
	for _, c := range classes {
		inDegree[c.Name] += 0
		if _, ok := byName[c.Parent]; ok && c.Parent != c.Name {
			children[c.Parent] = append(children[c.Parent], c.Name)
			inDegree[c.Name]++
		}
	}

	// Kahn's algorithm for topological sort.
	var queue []string
	for name, deg := range inDegree {
		if deg == 0 {
			queue = append(queue, name)
		}
	}
	sort.Strings(queue)

	result := make([]*PasClass, 0, len(classes))
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		result = append(result, byName[node])

		for _, child := range children[node] {
			inDegree[child]--
			if inDegree[child] == 0 {
				queue = insertSorted(queue, child)
			}
		}
	}

	// Classes caught in an inheritance cycle are appended by name; validate
	// reports the cycle.
	if len(result) < len(classes) {
		var rest []string
		for name, deg := range inDegree {
			if deg > 0 {
				rest = append(rest, name)
			}
		}
		sort.Strings(rest)
		for _, name := range rest {
			result = append(result, byName[name])
		}
	}
	return result
}

// insertSorted inserts s into a sorted slice maintaining sort order.
func insertSorted(sorted []string, s string) []string {
	i := sort.SearchStrings(sorted, s)
	sorted = append(sorted, "")
	copy(sorted[i+1:], sorted[i:])
	sorted[i] = s
	return sorted
}
