package texture

import (
	"image"
	"image/color"
	"testing"
)

// grayImage builds a Gray image from a per-pixel fill function.
func grayImage(width, height int, fill func(x, y int) uint8) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetGray(x, y, color.Gray{Y: fill(x, y)})
		}
	}
	return img
}

// TestComputeRejectsInvalidInput verifies the malformed-input taxonomy.
func TestComputeRejectsInvalidInput(t *testing.T) {
	if _, err := Compute(nil, DefaultParams()); err == nil {
		t.Fatal("expected error for nil image")
	} else if _, ok := err.(*InvalidImageError); !ok {
		t.Fatalf("expected *InvalidImageError, got %T", err)
	}

	empty := image.NewGray(image.Rect(0, 0, 0, 0))
	if _, err := Compute(empty, DefaultParams()); err == nil {
		t.Fatal("expected error for empty image")
	} else if _, ok := err.(*InvalidImageError); !ok {
		t.Fatalf("expected *InvalidImageError, got %T", err)
	}

	tiny := image.NewGray(image.Rect(0, 0, 4, 4))
	if _, err := Compute(tiny, Params{EntropyRadius: 0}); err == nil {
		t.Fatal("expected error for zero entropy radius")
	}
}

// TestComputePreservesDimensions checks the spatial contract: output has
// the same width and height as the input for several shapes.
func TestComputePreservesDimensions(t *testing.T) {
	shapes := []struct{ w, h int }{{16, 16}, {31, 17}, {8, 40}}
	for _, s := range shapes {
		img := grayImage(s.w, s.h, func(x, y int) uint8 { return uint8((x*7 + y*13) % 251) })
		out, err := Compute(img, Params{EntropyRadius: 4})
		if err != nil {
			t.Fatalf("%dx%d: unexpected error: %v", s.w, s.h, err)
		}
		b := out.Bounds()
		if b.Dx() != s.w || b.Dy() != s.h {
			t.Errorf("expected %dx%d output, got %dx%d", s.w, s.h, b.Dx(), b.Dy())
		}
	}
}

// TestComputeFlatImage verifies that a zero-variance input collapses to a
// uniform bright texture: no entropy anywhere means no candidate interiors.
func TestComputeFlatImage(t *testing.T) {
	img := grayImage(20, 20, func(x, y int) uint8 { return 90 })
	out, err := Compute(img, Params{EntropyRadius: 4})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, v := range out.Pix {
		if v != 255 {
			t.Fatalf("pixel %d: expected uniform 255 texture for flat input, got %d", i, v)
		}
	}
}

// TestComputeTexturedRegionIsDark checks the inversion convention: the
// heterogeneous half of the image must come out darker than the flat half.
func TestComputeTexturedRegionIsDark(t *testing.T) {
	const w, h, radius = 48, 16, 4
	img := grayImage(w, h, func(x, y int) uint8 {
		if x < w/2 && (x+y)%2 == 0 {
			return 200
		}
		return 10
	})

	out, err := Compute(img, Params{EntropyRadius: radius})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Sample well inside each half so the entropy disk stays on one side.
	textured := out.GrayAt(8, h/2).Y
	flat := out.GrayAt(w-4, h/2).Y
	if textured >= flat {
		t.Errorf("textured region (%d) should be darker than flat region (%d)", textured, flat)
	}
	if flat != 255 {
		t.Errorf("flat region should map to 255, got %d", flat)
	}
}

// TestComputeIsPure verifies that two runs over the same input produce
// identical textures and leave the input untouched.
func TestComputeIsPure(t *testing.T) {
	img := grayImage(24, 24, func(x, y int) uint8 { return uint8((x*x + y*3) % 256) })
	before := make([]uint8, len(img.Pix))
	copy(before, img.Pix)

	a, err := Compute(img, Params{EntropyRadius: 3})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := Compute(img, Params{EntropyRadius: 3})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for i := range a.Pix {
		if a.Pix[i] != b.Pix[i] {
			t.Fatalf("pixel %d differs between runs: %d vs %d", i, a.Pix[i], b.Pix[i])
		}
	}
	for i := range before {
		if img.Pix[i] != before[i] {
			t.Fatalf("input pixel %d mutated from %d to %d", i, before[i], img.Pix[i])
		}
	}
}

// TestComputeWithSmoothing only checks that the optional denoising stage
// keeps the output contract; the exact values depend on the blur kernel.
func TestComputeWithSmoothing(t *testing.T) {
	img := grayImage(20, 20, func(x, y int) uint8 { return uint8((x*31 + y*17) % 256) })
	out, err := Compute(img, Params{EntropyRadius: 3, SmoothSigma: 1.5})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b := out.Bounds()
	if b.Dx() != 20 || b.Dy() != 20 {
		t.Errorf("expected 20x20 output, got %dx%d", b.Dx(), b.Dy())
	}
}
