// Package texture converts raw intensity images into normalized
// local-entropy texture maps. Compartment interiors and boundaries are
// heterogeneous at the scale of the entropy neighborhood, so they stand out
// against flat background no matter how faint the original contrast is.
package texture

import (
	"fmt"
	"image"
	"math"

	"github.com/anthonynsimon/bild/blur"
)

// InvalidImageError reports a malformed input image. It is fatal to that
// image's processing but not to the enclosing stack.
type InvalidImageError struct {
	Reason string
}

func (e *InvalidImageError) Error() string {
	return fmt.Sprintf("texture: invalid image: %s", e.Reason)
}

// Params controls the texture computation.
type Params struct {
	// EntropyRadius is the radius in pixels of the disk neighborhood used
	// for the local Shannon entropy
	EntropyRadius int

	// SmoothSigma enables Gaussian pre-smoothing of the input when > 0.
	// Zero disables the denoising stage.
	SmoothSigma float64
}

// DefaultParams returns the parameters used by the reference pipeline.
func DefaultParams() Params {
	return Params{EntropyRadius: 30, SmoothSigma: 0}
}

// Compute converts a raw intensity image into an 8-bit texture map with the
// same spatial dimensions.
//
// The chain is: rescale intensities to the full 16-bit range, invert (dark
// holes become bright), renormalize to [0,1] and quantize to 8 bits, take
// the local Shannon entropy over a disk neighborhood, renormalize and
// quantize again, and invert once more. The final inversion makes
// high-entropy regions dark, which is the convention the downstream
// adaptive thresholding expects for candidate interiors. Every rescale is
// monotonic, so relative intensity ordering survives each stage.
//
// Compute is a pure function of its inputs.
func Compute(img image.Image, params Params) (*image.Gray, error) {
	if img == nil {
		return nil, &InvalidImageError{Reason: "nil image"}
	}
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	if width <= 0 || height <= 0 {
		return nil, &InvalidImageError{Reason: fmt.Sprintf("empty bounds %dx%d", width, height)}
	}
	if params.EntropyRadius < 1 {
		return nil, &InvalidImageError{Reason: fmt.Sprintf("entropy radius %d < 1", params.EntropyRadius)}
	}

	if params.SmoothSigma > 0 {
		img = blur.Gaussian(img, params.SmoothSigma)
	}

	data := imageToFloat(img)

	// Normalize to the full 16-bit range and flip so that dark compartment
	// holes become the bright phase.
	rescale(data, 0, math.MaxUint16)
	invert(data, math.MaxUint16)

	// Second normalization stage: whatever the native bit depth was, the
	// entropy filter below always sees the same 8-bit dynamic range.
	rescale(data, 0, 1)
	quantized := toUint8(data)

	entr := localEntropy(quantized, width, height, params.EntropyRadius)

	rescale(entr, 0, 1)
	texture := toUint8(entr)
	for i, v := range texture {
		texture[i] = math.MaxUint8 - v
	}

	out := image.NewGray(image.Rect(0, 0, width, height))
	copy(out.Pix, texture)
	return out, nil
}

// imageToFloat flattens an image into a row-major float64 buffer using the
// 16-bit red channel, which for grayscale sources is the intensity.
func imageToFloat(img image.Image) []float64 {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	result := make([]float64, width*height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			r, _, _, _ := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			result[y*width+x] = float64(r)
		}
	}
	return result
}

// rescale linearly maps data onto [lo, hi] in place. A constant input maps
// to lo so that flat images stay flat instead of amplifying noise.
func rescale(data []float64, lo, hi float64) {
	if len(data) == 0 {
		return
	}
	min, max := data[0], data[0]
	for _, v := range data {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	if max <= min {
		for i := range data {
			data[i] = lo
		}
		return
	}
	scale := (hi - lo) / (max - min)
	for i, v := range data {
		data[i] = lo + (v-min)*scale
	}
}

// invert mirrors values around the top of the given range.
func invert(data []float64, top float64) {
	for i, v := range data {
		data[i] = top - v
	}
}

// toUint8 quantizes values in [0,1] to the 8-bit range.
func toUint8(data []float64) []uint8 {
	out := make([]uint8, len(data))
	for i, v := range data {
		q := math.Round(v * math.MaxUint8)
		if q < 0 {
			q = 0
		} else if q > math.MaxUint8 {
			q = math.MaxUint8
		}
		out[i] = uint8(q)
	}
	return out
}

// localEntropy computes the Shannon entropy of the 8-bit value histogram
// inside a disk neighborhood around every pixel. The neighborhood is
// clipped at the image border. The histogram slides along each row: only
// the leading and trailing disk columns change between adjacent pixels,
// so the cost per pixel is proportional to the disk diameter rather than
// its area.
func localEntropy(pix []uint8, width, height, radius int) []float64 {
	halfWidths := diskHalfWidths(radius)
	out := make([]float64, width*height)
	var hist [256]int

	add := func(x, y int) int {
		if x < 0 || x >= width || y < 0 || y >= height {
			return 0
		}
		hist[pix[y*width+x]]++
		return 1
	}
	remove := func(x, y int) int {
		if x < 0 || x >= width || y < 0 || y >= height {
			return 0
		}
		hist[pix[y*width+x]]--
		return 1
	}

	for y := 0; y < height; y++ {
		for i := range hist {
			hist[i] = 0
		}
		count := 0

		// Full disk for the first column of this row.
		for dy := -radius; dy <= radius; dy++ {
			w := halfWidths[dy+radius]
			for dx := -w; dx <= w; dx++ {
				count += add(dx, y+dy)
			}
		}

		for x := 0; x < width; x++ {
			if x > 0 {
				for dy := -radius; dy <= radius; dy++ {
					w := halfWidths[dy+radius]
					count -= remove(x-1-w, y+dy)
					count += add(x+w, y+dy)
				}
			}

			h := 0.0
			for _, c := range hist {
				if c > 0 {
					p := float64(c) / float64(count)
					h -= p * math.Log2(p)
				}
			}
			out[y*width+x] = h
		}
	}
	return out
}

// diskHalfWidths returns, per disk row dy in [-radius, radius], the largest
// dx with dx*dx+dy*dy <= radius*radius.
func diskHalfWidths(radius int) []int {
	out := make([]int, 2*radius+1)
	r2 := radius * radius
	for dy := -radius; dy <= radius; dy++ {
		w := 0
		for w+1 <= radius && (w+1)*(w+1)+dy*dy <= r2 {
			w++
		}
		out[dy+radius] = w
	}
	return out
}
