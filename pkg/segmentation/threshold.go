package segmentation

import (
	"fmt"
	"image"
)

// localMean computes the per-pixel mean intensity over a block of
// blockSize x blockSize pixels centered on each pixel, using a summed-area
// table so the cost is independent of the block size. Blocks are clipped
// at the image border and the mean taken over the clipped area.
func localMean(img *image.Gray, blockSize int) ([]float64, error) {
	if blockSize < 3 || blockSize%2 == 0 {
		return nil, fmt.Errorf("block size must be odd and >= 3, got %d", blockSize)
	}
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	// integral[y][x] holds the sum of all pixels above and left of (x, y),
	// exclusive, in a (width+1) x (height+1) table.
	integral := make([]float64, (width+1)*(height+1))
	for y := 1; y <= height; y++ {
		rowSum := 0.0
		for x := 1; x <= width; x++ {
			rowSum += float64(img.Pix[(y-1)*img.Stride+(x-1)])
			integral[y*(width+1)+x] = integral[(y-1)*(width+1)+x] + rowSum
		}
	}

	half := blockSize / 2
	means := make([]float64, width*height)
	for y := 0; y < height; y++ {
		y0 := y - half
		y1 := y + half + 1
		if y0 < 0 {
			y0 = 0
		}
		if y1 > height {
			y1 = height
		}
		for x := 0; x < width; x++ {
			x0 := x - half
			x1 := x + half + 1
			if x0 < 0 {
				x0 = 0
			}
			if x1 > width {
				x1 = width
			}
			sum := integral[y1*(width+1)+x1] -
				integral[y0*(width+1)+x1] -
				integral[y1*(width+1)+x0] +
				integral[y0*(width+1)+x0]
			means[y*width+x] = sum / float64((x1-x0)*(y1-y0))
		}
	}
	return means, nil
}

// binarize thresholds the texture against a per-pixel cutoff of
// mean - offset. Larger offsets lower the cutoff, admitting more pixels
// as foreground per local neighborhood.
func binarize(img *image.Gray, means []float64, offset float64) []bool {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	out := make([]bool, width*height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			i := y*width + x
			out[i] = float64(img.Pix[y*img.Stride+x]) > means[i]-offset
		}
	}
	return out
}
