package schema

import (
	"sort"
	"strings"

	"github.com/go-faster/errors"
)

// ErrCycle is returned by Compile when table references form a cycle.
var ErrCycle = errors.New("foreign key cycle")

// dependencyOrder sorts defs so parents precede children (Kahn's algorithm).
// Ties keep registration order so the result is deterministic.
func dependencyOrder(defs []TableDefinition, roles map[TableRole]string) ([]TableDefinition, error) {
	pos := make(map[string]int, len(defs))
	for i, d := range defs {
		pos[d.Name] = i
	}

	indegree := make([]int, len(defs))
	children := make([][]int, len(defs))
	addEdge := func(parent string, child int) {
		p := pos[parent]
		for _, c := range children[p] {
			if c == child {
				return
			}
		}
		children[p] = append(children[p], child)
		indegree[child]++
	}

	for i, d := range defs {
		for _, fk := range d.ForeignKeys {
			addEdge(fk.ParentTable, i)
		}
		switch d.Parent {
		case ParentSubmission:
			addEdge(roles[RoleSubmission], i)
		case ParentRoundLink:
			addEdge(roles[RoleRoundLink], i)
		}
	}

	var ready []int
	for i := range defs {
		if indegree[i] == 0 {
			ready = append(ready, i)
		}
	}

	order := make([]TableDefinition, 0, len(defs))
	for len(ready) > 0 {
		sort.Ints(ready)
		next := ready[0]
		ready = ready[1:]
		order = append(order, defs[next])
		for _, c := range children[next] {
			indegree[c]--
			if indegree[c] == 0 {
				ready = append(ready, c)
			}
		}
	}

	if len(order) != len(defs) {
		var stuck []string
		for i, d := range defs {
			if indegree[i] > 0 {
				stuck = append(stuck, d.Name)
			}
		}
		return nil, errors.Wrapf(ErrCycle, "tables %s", strings.Join(stuck, ", "))
	}
	return order, nil
}
