package rooms

import (
	"fmt"

	"github.com/danielpatrickdp/emotion-pcg/go-optimizer/internal/appraisal"
)

// minDirectionLength is the shortest offset that still yields a direction.
const minDirectionLength = 1e-4

// #region graph

// Graph owns every Node of one run.
type Graph struct {
	Nodes    []*Node
	critical []*Node // in CriticalOrder
}

// Build creates one Node per instance, assigns critical-path order in input
// order, and derives the direction from each critical room to the next.
func Build(instances []Instance, classifier Classifier) *Graph {
	g := &Graph{Nodes: make([]*Node, 0, len(instances))}

	for i, inst := range instances {
		// 1. Display name: generator name, then template, then synthesized
		name := inst.Name
		if name == "" {
			name = inst.Template
		}
		if name == "" {
			name = fmt.Sprintf("Room_%d", i)
		}

		// 2. Roles: explicit tags win over the naming convention
		roles := inst.Roles
		if len(roles) == 0 {
			roles = classifier.Roles(name)
		}

		n := &Node{
			ID:            fmt.Sprintf("%s_%d", name, i),
			Index:         i,
			Name:          name,
			CriticalOrder: -1,
			WorldPosition: inst.Position,
			Appraisal:     appraisal.Neutral(),
		}
		for _, r := range roles {
			switch r {
			case RoleCritical:
				n.IsOnCriticalPath = true
			case RoleEligible:
				n.IsEligible = true
			case RoleOptional:
				n.IsOptional = true
			case RoleTerminal:
				n.IsTerminal = true
			}
		}

		// 3. Critical order follows generator iteration order
		if n.IsOnCriticalPath {
			n.CriticalOrder = len(g.critical)
			g.critical = append(g.critical, n)
		}

		g.Nodes = append(g.Nodes, n)
	}

	// 4. Direction toward the next critical room
	for i := 0; i+1 < len(g.critical); i++ {
		cur, next := g.critical[i], g.critical[i+1]
		offset := next.WorldPosition.Sub(cur.WorldPosition)
		length := offset.Len()
		if length > minDirectionLength {
			cur.HasNextCritical = true
			cur.NextCriticalDirection = offset.Scale(1 / length)
		}
	}

	return g
}

// #endregion graph

// #region queries

// Critical returns the critical-path nodes in path order.
func (g *Graph) Critical() []*Node {
	return g.critical
}

// CriticalNeighbors returns the previous and next critical nodes of n, or
// nil where there is none. Non-critical nodes have neither.
func (g *Graph) CriticalNeighbors(n *Node) (prev, next *Node) {
	if n == nil || !n.IsOnCriticalPath || n.CriticalOrder < 0 || n.CriticalOrder >= len(g.critical) {
		return nil, nil
	}
	if n.CriticalOrder > 0 {
		prev = g.critical[n.CriticalOrder-1]
	}
	if n.CriticalOrder+1 < len(g.critical) {
		next = g.critical[n.CriticalOrder+1]
	}
	return prev, next
}

// Eligible returns the nodes that may receive optimizer patterns.
func (g *Graph) Eligible() []*Node {
	return g.filter(func(n *Node) bool { return n.IsEligible })
}

// Optional returns the side rooms the filler decorates.
func (g *Graph) Optional() []*Node {
	return g.filter(func(n *Node) bool { return n.IsOptional })
}

// AggregateMembers returns the nodes the level average is taken over: the
// critical path, or every node when nothing is marked critical.
func (g *Graph) AggregateMembers() []*Node {
	if len(g.critical) > 0 {
		return g.critical
	}
	return g.Nodes
}

// Profiles returns the current appraisal of each node in ns.
func Profiles(ns []*Node) []appraisal.Profile {
	out := make([]appraisal.Profile, len(ns))
	for i, n := range ns {
		out[i] = n.Appraisal
	}
	return out
}

func (g *Graph) filter(keep func(*Node) bool) []*Node {
	var out []*Node
	for _, n := range g.Nodes {
		if keep(n) {
			out = append(out, n)
		}
	}
	return out
}

// #endregion queries
