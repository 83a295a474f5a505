package models

import (
	"image"

	"github.com/fabio-echegaray/compartment-segmentation/pkg/geometry"
)

// SliceImage represents a single 2D slice of a z-stack together with the
// stack coordinates it was resolved from.
type SliceImage struct {
	// Image is the raw intensity image for this slice
	Image image.Image

	// Z is the focal-depth index of this slice within the stack
	Z int

	// Channel is the acquisition channel index
	Channel int

	// Frame is the time-frame index
	Frame int
}

// Hypothesis is a single compartment-boundary candidate produced by the
// threshold sweep. It is created once per connected-component contour at a
// given offset and never mutated afterwards, except for the Z tag which the
// stack driver appends before accumulation.
type Hypothesis struct {
	// Offset is the threshold-sweep bias that produced this candidate
	Offset int

	// Boundary is the candidate outline in (x, y) = (column, row) order
	Boundary geometry.Polygon

	// Z is the slice index, tagged by the stack driver
	Z int
}

// Table is an ordered collection of hypotheses, one row per candidate,
// accumulated across all offsets and all z slices of one channel/frame.
// Row order carries no meaning.
type Table []Hypothesis

// ZValues returns the distinct z indices present in the table, in first
// occurrence order.
func (t Table) ZValues() []int {
	seen := make(map[int]bool)
	var out []int
	for _, row := range t {
		if !seen[row.Z] {
			seen[row.Z] = true
			out = append(out, row.Z)
		}
	}
	return out
}

// Noise is the reserved cluster label for rows not reachable from any
// dense neighborhood.
const Noise = -1

// ClusteredRow augments a hypothesis with its cluster assignment.
type ClusteredRow struct {
	Hypothesis

	// Cluster is a non-negative cluster id, or Noise
	Cluster int
}

// ClusteredTable is the output of centroid clustering: the input table in
// its original row order with a cluster label per row. Labels are only
// meaningful within the single clustering invocation that produced them.
type ClusteredTable []ClusteredRow

// NumClusters returns the number of distinct non-noise labels.
func (t ClusteredTable) NumClusters() int {
	seen := make(map[int]bool)
	for _, row := range t {
		if row.Cluster != Noise {
			seen[row.Cluster] = true
		}
	}
	return len(seen)
}

// NumNoise returns the number of rows labeled as noise.
func (t ClusteredTable) NumNoise() int {
	n := 0
	for _, row := range t {
		if row.Cluster == Noise {
			n++
		}
	}
	return n
}
