package cluster

import (
	"errors"

	"github.com/OFFIS-RIT/grove/pkg/graph"
)

var (
	// ErrInvalidSeed is returned when Options.Seed is zero or negative.
	ErrInvalidSeed = errors.New("cluster seed must be positive")
	// ErrInvalidClusterSize is returned when Options.MaxClusterSize is zero
	// or negative.
	ErrInvalidClusterSize = errors.New("max cluster size must be positive")
)

// Assignment places a set of nodes into one community at one level of the
// hierarchy. Level 0 is the root level. Communities larger than the size
// bound are subdivided again, their parts appearing at level+1 with Parent
// set to the community they subdivide. Root communities have Parent -1.
type Assignment struct {
	Level     int
	Community int
	Parent    int
	Nodes     []string
}

// Options control a clustering run.
type Options struct {
	// MaxClusterSize is the largest community size that is not subdivided
	// further.
	MaxClusterSize int
	// UseLargestComponent restricts clustering to the largest connected
	// component. Nodes outside it are absent from the output.
	UseLargestComponent bool
	// Seed drives the deterministic node visit order. Must be positive.
	Seed int64
}

// Clusterer partitions an entity graph into a leveled community hierarchy.
// Implementations must be deterministic: identical inputs produce identical
// assignments across runs and across process restarts.
type Clusterer interface {
	Cluster(g *graph.Graph, opts Options) ([]Assignment, error)
}
