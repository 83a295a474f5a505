package main

import (
	"image"
	"testing"

	"github.com/fabio-echegaray/compartment-segmentation/internal/models"
	"github.com/fabio-echegaray/compartment-segmentation/pkg/stack"
)

// dimSource serves one in-memory slice per (channel, z) at frame 0.
type dimSource struct {
	zs     []int
	slices map[[2]int]image.Image // keyed by {channel, z}
}

func (s *dimSource) ZIndices() []int { return s.zs }

func (s *dimSource) IndexAt(channel, z, frame int) (stack.Handle, bool) {
	if frame != 0 {
		return 0, false
	}
	for i, zi := range s.zs {
		if zi == z {
			if _, ok := s.slices[[2]int{channel, z}]; ok {
				return stack.Handle(channel<<16 | i), true
			}
		}
	}
	return 0, false
}

func (s *dimSource) Image(h stack.Handle) (models.SliceImage, error) {
	channel := int(h) >> 16
	z := s.zs[int(h)&0xffff]
	return models.SliceImage{Image: s.slices[[2]int{channel, z}], Z: z, Channel: channel}, nil
}

func TestStackDimensionsUsesSegmentedChannel(t *testing.T) {
	source := &dimSource{
		zs: []int{0, 1},
		slices: map[[2]int]image.Image{
			{0, 0}: image.NewGray(image.Rect(0, 0, 64, 48)),
			{1, 1}: image.NewGray(image.Rect(0, 0, 20, 20)),
		},
	}

	// Channel 1 only exists at z=1; its dimensions must be reported even
	// though channel 0 appears at an earlier z.
	w, h, err := stackDimensions(source, 1, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if w != 20 || h != 20 {
		t.Errorf("dimensions %dx%d, want 20x20", w, h)
	}

	w, h, err = stackDimensions(source, 0, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if w != 64 || h != 48 {
		t.Errorf("dimensions %dx%d, want 64x48", w, h)
	}

	if _, _, err := stackDimensions(source, 5, 0); err == nil {
		t.Error("expected error for a channel with no slices")
	}
}
