// Package rooms builds the per-run room node graph from the level
// generator's room instances.
package rooms

import (
	"math"

	"github.com/danielpatrickdp/emotion-pcg/go-optimizer/internal/appraisal"
	"github.com/danielpatrickdp/emotion-pcg/go-optimizer/internal/pattern"
)

// #region vec3

// Vec3 is a world-space position or direction.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Sub returns v - o.
func (v Vec3) Sub(o Vec3) Vec3 {
	return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z}
}

// Len returns the Euclidean length of v.
func (v Vec3) Len() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// Scale multiplies each component by s.
func (v Vec3) Scale(s float64) Vec3 {
	return Vec3{v.X * s, v.Y * s, v.Z * s}
}

// #endregion vec3

// #region role

// Role is a structural tag the generator attaches to a room.
type Role string

const (
	RoleCritical Role = "critical" // on the start→end path, counted in the level average
	RoleEligible Role = "eligible" // may receive optimizer-placed patterns
	RoleOptional Role = "optional" // side/dead-end room, decorated by the filler
	RoleTerminal Role = "terminal" // final room of the level
)

// #endregion role

// #region instance

// Instance is one room as emitted by the level generator.
type Instance struct {
	Name     string `json:"name,omitempty"`
	Template string `json:"template,omitempty"`
	Position Vec3   `json:"position"`
	// Roles, when non-empty, replace the name-based classification.
	Roles []Role `json:"roles,omitempty"`
}

// #endregion instance

// #region node

// Node is the mutable per-room state of one optimization run.
type Node struct {
	ID    string
	Index int
	Name  string

	IsOnCriticalPath bool
	IsEligible       bool
	IsOptional       bool
	IsTerminal       bool

	CriticalOrder         int
	WorldPosition         Vec3
	HasNextCritical       bool
	NextCriticalDirection Vec3

	Appraisal       appraisal.Profile
	AppliedPatterns []pattern.Type
}

// HasPattern reports whether p was already applied to n.
func (n *Node) HasPattern(p pattern.Type) bool {
	for _, applied := range n.AppliedPatterns {
		if applied == p {
			return true
		}
	}
	return false
}

// Preview returns n's appraisal as it would be after applying p.
func (n *Node) Preview(p pattern.Type) appraisal.Profile {
	return appraisal.Plus(n.Appraisal, pattern.Delta(p))
}

// Apply adds p's delta to n and records it.
func (n *Node) Apply(p pattern.Type) {
	n.Appraisal.Add(pattern.Delta(p))
	n.AppliedPatterns = append(n.AppliedPatterns, p)
}

// #endregion node
