// Package clustering consolidates polygon hypotheses by spatial proximity
// of their centroids. Candidates produced at different threshold offsets
// and z slices that describe the same underlying structure land on nearly
// identical centroids; density clustering groups them and labels isolated
// candidates as noise.
package clustering

import (
	"fmt"

	"gonum.org/v1/gonum/stat"

	"github.com/fabio-echegaray/compartment-segmentation/internal/models"
)

// ParameterError reports invalid clustering parameters. It is fatal and
// surfaced immediately; no partial result is produced.
type ParameterError struct {
	Eps        float64
	MinSamples int
}

func (e *ParameterError) Error() string {
	return fmt.Sprintf("clustering: invalid parameters eps=%g minSamples=%d (need eps > 0 and minSamples >= 1)",
		e.Eps, e.MinSamples)
}

// Cluster assigns a density-based cluster label to every row of the table.
//
// Each polygon contributes its area centroid as a 2D feature. Features are
// standardized to zero mean and unit variance across the full row set, so
// eps is meaningful regardless of the image's absolute coordinate scale.
// DBSCAN then runs over the standardized points: a point is a core point
// when at least minSamples points (itself included) lie within eps of it;
// clusters are the maximal sets connected through core points, and rows
// reachable from no core point get the noise label -1.
//
// Labels are reproducible: rows are scanned in index order and cluster ids
// assigned in discovery order, so identical input and parameters always
// yield identical labels. Labels are only comparable within one invocation
// over one table.
func Cluster(table models.Table, eps float64, minSamples int) (models.ClusteredTable, error) {
	if eps <= 0 || minSamples < 1 {
		return nil, &ParameterError{Eps: eps, MinSamples: minSamples}
	}

	n := len(table)
	xs := make([]float64, n)
	ys := make([]float64, n)
	for i, row := range table {
		c := row.Boundary.Centroid()
		xs[i] = c.X
		ys[i] = c.Y
	}
	standardize(xs)
	standardize(ys)

	labels := dbscan(xs, ys, eps, minSamples)

	out := make(models.ClusteredTable, n)
	for i, row := range table {
		out[i] = models.ClusteredRow{Hypothesis: row, Cluster: labels[i]}
	}
	return out, nil
}

// standardize rescales values to zero mean and unit variance in place.
// A zero-variance axis collapses to all zeros.
func standardize(v []float64) {
	if len(v) == 0 {
		return
	}
	mean, std := stat.MeanStdDev(v, nil)
	if std == 0 || len(v) < 2 {
		for i := range v {
			v[i] = 0
		}
		return
	}
	for i := range v {
		v[i] = (v[i] - mean) / std
	}
}

const unclassified = -2

// dbscan labels the 2D points (xs[i], ys[i]). Non-negative labels are
// cluster ids in discovery order; -1 marks noise.
func dbscan(xs, ys []float64, eps float64, minSamples int) []int {
	n := len(xs)
	labels := make([]int, n)
	for i := range labels {
		labels[i] = unclassified
	}

	eps2 := eps * eps
	neighborsOf := func(i int) []int {
		var out []int
		for j := 0; j < n; j++ {
			dx := xs[j] - xs[i]
			dy := ys[j] - ys[i]
			if dx*dx+dy*dy <= eps2 {
				out = append(out, j)
			}
		}
		return out
	}

	cluster := 0
	for i := 0; i < n; i++ {
		if labels[i] != unclassified {
			continue
		}
		seeds := neighborsOf(i)
		if len(seeds) < minSamples {
			labels[i] = models.Noise
			continue
		}

		labels[i] = cluster
		// Expand the cluster from the seed neighborhood. Points already
		// labeled noise are border points of this cluster; points claimed
		// by an earlier cluster are left alone.
		for k := 0; k < len(seeds); k++ {
			j := seeds[k]
			if labels[j] == models.Noise {
				labels[j] = cluster
				continue
			}
			if labels[j] != unclassified {
				continue
			}
			labels[j] = cluster
			more := neighborsOf(j)
			if len(more) >= minSamples {
				seeds = append(seeds, more...)
			}
		}
		cluster++
	}
	return labels
}
