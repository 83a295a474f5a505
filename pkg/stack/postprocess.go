package stack

import (
	"github.com/fabio-echegaray/compartment-segmentation/internal/models"
)

// SimplifyPolygons is a post-processor that drops rows whose boundary
// collapses below a minimum enclosed area. The sweep already discards
// degenerate contours at creation time; this removes the near-degenerate
// slivers a very tight threshold level can still produce.
func SimplifyPolygons(minArea float64) PostProcessor {
	return func(rows models.Table) models.Table {
		out := make(models.Table, 0, len(rows))
		for _, row := range rows {
			if row.Boundary.Area() >= minArea {
				out = append(out, row)
			}
		}
		return out
	}
}
