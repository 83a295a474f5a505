// Package visualization renders clustered hypothesis tables as overlay
// images, one per z slice, with a distinct color per cluster. The overlays
// are a diagnostic surface for judging how the sweep-then-cluster pipeline
// grouped candidates; they are not part of the core contract.
package visualization

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"os"
	"path/filepath"

	"github.com/anthonynsimon/bild/imgio"
	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/fabio-echegaray/compartment-segmentation/internal/models"
)

// Overlay renders cluster assignments onto per-slice canvases.
type Overlay struct {
	// table holds the clustered rows to draw
	table models.ClusteredTable

	// width and height are the canvas dimensions, matching the source images
	width  int
	height int
}

// NewOverlay creates an overlay renderer for a clustered table.
func NewOverlay(table models.ClusteredTable, width, height int) *Overlay {
	return &Overlay{table: table, width: width, height: height}
}

// clusterColor maps a cluster id onto a stable, well-separated hue.
// Noise rows are drawn mid-gray.
func clusterColor(cluster int) color.RGBA {
	if cluster == models.Noise {
		return color.RGBA{R: 128, G: 128, B: 128, A: 255}
	}
	// Golden-angle hue stepping keeps consecutive ids visually distinct.
	hue := math.Mod(float64(cluster)*137.5, 360)
	r, g, b := colorful.Hsv(hue, 0.85, 0.95).RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 255}
}

// Render draws every boundary of one z slice onto a black canvas.
func (o *Overlay) Render(z int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, o.width, o.height))
	for _, row := range o.table {
		if row.Z != z {
			continue
		}
		col := clusterColor(row.Cluster)
		verts := row.Boundary.Vertices()
		for i := range verts {
			a := verts[i]
			b := verts[(i+1)%len(verts)]
			drawLine(img, a.X, a.Y, b.X, b.Y, col)
		}
	}
	return img
}

// SaveOverlaySequence writes one PNG per z slice present in the table
// into outputDir, named by z index.
func (o *Overlay) SaveOverlaySequence(outputDir string) error {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("visualization: creating output directory: %w", err)
	}
	for _, z := range o.zIndices() {
		path := filepath.Join(outputDir, fmt.Sprintf("z%03d.png", z))
		if err := imgio.Save(path, o.Render(z), imgio.PNGEncoder()); err != nil {
			return fmt.Errorf("visualization: saving %s: %w", path, err)
		}
	}
	return nil
}

// zIndices lists the distinct z values in the table, in first occurrence order.
func (o *Overlay) zIndices() []int {
	seen := make(map[int]bool)
	var out []int
	for _, row := range o.table {
		if !seen[row.Z] {
			seen[row.Z] = true
			out = append(out, row.Z)
		}
	}
	return out
}

// drawLine rasterizes a line segment by uniform stepping, clipping at the
// canvas bounds.
func drawLine(img *image.RGBA, x0, y0, x1, y1 float64, col color.RGBA) {
	steps := int(math.Max(math.Abs(x1-x0), math.Abs(y1-y0))) + 1
	for i := 0; i <= steps; i++ {
		t := float64(i) / float64(steps)
		x := int(math.Round(x0 + t*(x1-x0)))
		y := int(math.Round(y0 + t*(y1-y0)))
		if x < 0 || x >= img.Rect.Dx() || y < 0 || y >= img.Rect.Dy() {
			continue
		}
		img.SetRGBA(x, y, col)
	}
}
