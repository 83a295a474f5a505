// Package stack drives compartment segmentation across a z-stack: it
// resolves each slice through an image source, funnels the per-slice
// texture and threshold sweep through a memoizing cache, tags rows with
// their z index and assembles the unified hypothesis table.
package stack

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/fabio-echegaray/compartment-segmentation/internal/models"
	"github.com/fabio-echegaray/compartment-segmentation/pkg/segmentation"
	"github.com/fabio-echegaray/compartment-segmentation/pkg/texture"
)

// Cache memoizes per-slice segmentation results by key. Compute functions
// handed to it are pure and deterministic, so implementations may persist
// results and must perform at most one computation per key even under
// concurrent access.
type Cache interface {
	Cached(key string, compute func() (models.Table, error)) (models.Table, error)
}

// PostProcessor transforms a per-slice hypothesis table before it is
// accumulated into the stack table. Implementations return an equally- or
// fewer-row table and must preserve boundary and offset semantics.
type PostProcessor func(models.Table) models.Table

// Driver iterates the z-stack and assembles the polygon hypothesis table.
type Driver struct {
	source ImageSource
	cache  Cache
	seg    *segmentation.Segmenter
	texp   texture.Params
	post   []PostProcessor
	log    logrus.FieldLogger
}

// NewDriver wires a stack driver from its collaborators. post processors
// are applied to every slice's table in the given order.
func NewDriver(source ImageSource, cache Cache, seg *segmentation.Segmenter, texp texture.Params, post []PostProcessor, log logrus.FieldLogger) *Driver {
	return &Driver{source: source, cache: cache, seg: seg, texp: texp, post: post, log: log}
}

// SegmentStack segments every available z slice of one channel/frame and
// returns the combined table. Missing coordinates are skipped silently;
// a slice whose image is malformed is dropped with a logged error without
// aborting the rest of the stack. Row order within the result carries no
// meaning.
func (d *Driver) SegmentStack(channel, frame int) (models.Table, error) {
	var out models.Table
	for _, z := range d.source.ZIndices() {
		h, ok := d.source.IndexAt(channel, z, frame)
		if !ok {
			d.log.WithFields(logrus.Fields{"channel": channel, "z": z, "frame": frame}).
				Debug("no image at coordinate, skipping slice")
			continue
		}

		md, err := d.source.Image(h)
		if err != nil {
			d.log.WithField("z", z).Errorf("slice dropped: %v", err)
			continue
		}
		d.log.WithField("z", z).Debug("processing slice")

		key := fmt.Sprintf("z%dc%dt%d-bags", md.Z, md.Channel, md.Frame)
		rows, err := d.cache.Cached(key, func() (models.Table, error) {
			return d.segmentSlice(md)
		})
		if err != nil {
			var invalid *texture.InvalidImageError
			if errors.As(err, &invalid) {
				d.log.WithField("z", z).Errorf("slice dropped: %v", err)
				continue
			}
			return nil, err
		}

		// Copy before tagging: the cache may hand back a shared table.
		tagged := make(models.Table, len(rows))
		copy(tagged, rows)
		for i := range tagged {
			tagged[i].Z = z
		}
		for _, p := range d.post {
			tagged = p(tagged)
		}
		out = append(out, tagged...)
	}
	return out, nil
}

// segmentSlice is the pure per-slice computation handed to the cache:
// texture map first, threshold sweep second.
func (d *Driver) segmentSlice(md models.SliceImage) (models.Table, error) {
	tex, err := texture.Compute(md.Image, d.texp)
	if err != nil {
		return nil, err
	}
	return d.seg.Segment(tex)
}
