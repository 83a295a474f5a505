package segmentation

import (
	"image"
	"image/color"
	"math"
	"testing"
)

func grayImage(width, height int, fill func(x, y int) uint8) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetGray(x, y, color.Gray{Y: fill(x, y)})
		}
	}
	return img
}

// naiveLocalMean is the reference implementation the integral-image
// version must agree with.
func naiveLocalMean(img *image.Gray, blockSize int) []float64 {
	b := img.Bounds()
	width, height := b.Dx(), b.Dy()
	half := blockSize / 2
	out := make([]float64, width*height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			sum, count := 0.0, 0
			for dy := -half; dy <= half; dy++ {
				for dx := -half; dx <= half; dx++ {
					nx, ny := x+dx, y+dy
					if nx < 0 || nx >= width || ny < 0 || ny >= height {
						continue
					}
					sum += float64(img.Pix[ny*img.Stride+nx])
					count++
				}
			}
			out[y*width+x] = sum / float64(count)
		}
	}
	return out
}

// TestLocalMeanMatchesNaive cross-checks the summed-area implementation
// against direct averaging, including the clipped border blocks.
func TestLocalMeanMatchesNaive(t *testing.T) {
	img := grayImage(23, 17, func(x, y int) uint8 { return uint8((x*29 + y*53 + x*y) % 256) })
	for _, block := range []int{3, 5, 9} {
		got, err := localMean(img, block)
		if err != nil {
			t.Fatalf("block %d: unexpected error: %v", block, err)
		}
		want := naiveLocalMean(img, block)
		for i := range want {
			if math.Abs(got[i]-want[i]) > 1e-6 {
				t.Fatalf("block %d, pixel %d: got %f, want %f", block, i, got[i], want[i])
			}
		}
	}
}

// TestLocalMeanRejectsBadBlock ensures even or too-small blocks fail.
func TestLocalMeanRejectsBadBlock(t *testing.T) {
	img := grayImage(8, 8, func(x, y int) uint8 { return 0 })
	for _, block := range []int{0, 1, 2, 4} {
		if _, err := localMean(img, block); err == nil {
			t.Errorf("block %d: expected error", block)
		}
	}
}

// TestBinarizeOffsetDirection verifies that growing the offset lowers the
// cutoff and admits more pixels as foreground.
func TestBinarizeOffsetDirection(t *testing.T) {
	img := grayImage(9, 9, func(x, y int) uint8 {
		if x == 4 && y == 4 {
			return 0
		}
		return 200
	})
	means, err := localMean(img, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	count := func(offset float64) int {
		n := 0
		for _, v := range binarize(img, means, offset) {
			if v {
				n++
			}
		}
		return n
	}

	low := count(1)
	high := count(250)
	if low >= high {
		t.Errorf("foreground count should grow with offset: %d at offset 1, %d at offset 250", low, high)
	}
	if high != 81 {
		t.Errorf("offset above the dynamic range should admit every pixel, got %d of 81", high)
	}

	// The dark pixel sits well below its local mean at offset 1.
	if binarize(img, means, 1)[4*9+4] {
		t.Error("dark pixel should be background at offset 1")
	}
}
