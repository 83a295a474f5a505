// Package segmentation extracts compartment-boundary candidates from a
// texture image by sweeping an adaptive-threshold offset across its whole
// range. A single fixed threshold cannot isolate compartments across
// varying contrast; sweeping captures the same structure at many tighter
// and looser thresholds, trading precision for recall. Deduplication is
// deliberately left to the downstream centroid clustering.
package segmentation

import (
	"fmt"
	"image"
	"runtime"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/fabio-echegaray/compartment-segmentation/internal/models"
	"github.com/fabio-echegaray/compartment-segmentation/pkg/geometry"
)

// OffsetError reports a failure at a single sweep offset. It is logged and
// skipped; one offset failing is non-fatal to the overall segmentation.
type OffsetError struct {
	Offset int
	Err    error
}

func (e *OffsetError) Error() string {
	return fmt.Sprintf("segmentation: offset %d: %v", e.Offset, e.Err)
}

func (e *OffsetError) Unwrap() error { return e.Err }

// Params configures the threshold sweep.
type Params struct {
	// OffsetStart and OffsetStop bound the swept threshold bias,
	// inclusive-exclusive
	OffsetStart int
	OffsetStop  int

	// BlockSize is the side of the adaptive-threshold window in pixels;
	// must be odd
	BlockSize int

	// IsoLevel is the isovalue for contour extraction on the label
	// indicator grid, strictly between 0 and 1
	IsoLevel float64

	// NumWorkers is the number of offsets processed concurrently.
	// Zero means one worker per CPU.
	NumWorkers int
}

// DefaultParams returns the reference sweep parameters.
func DefaultParams() Params {
	return Params{
		OffsetStart: 1,
		OffsetStop:  300,
		BlockSize:   35,
		IsoLevel:    0.9,
		NumWorkers:  0,
	}
}

// Segmenter runs the multi-level threshold sweep on texture images.
type Segmenter struct {
	params Params
	log    logrus.FieldLogger
}

// NewSegmenter creates a segmenter with the given parameters and logger.
func NewSegmenter(params Params, log logrus.FieldLogger) *Segmenter {
	return &Segmenter{params: params, log: log}
}

// Segment sweeps the threshold offset over the texture image and returns
// every boundary candidate found, tagged with the offset that produced it.
// The result is a superset across all offsets; no deduplication happens
// here. Segment is pure: identical textures yield identical candidates.
//
// Offsets are processed by a bounded pool of workers, each producing a
// private result list; the lists are joined in offset order once all
// workers finish, so concurrency never changes the output.
func (s *Segmenter) Segment(texture *image.Gray) (models.Table, error) {
	if texture == nil {
		return nil, fmt.Errorf("segmentation: nil texture")
	}
	p := s.params
	if p.OffsetStop <= p.OffsetStart {
		return nil, fmt.Errorf("segmentation: empty offset range [%d, %d)", p.OffsetStart, p.OffsetStop)
	}
	if p.IsoLevel <= 0 || p.IsoLevel >= 1 {
		return nil, fmt.Errorf("segmentation: iso level %g outside (0, 1)", p.IsoLevel)
	}

	bounds := texture.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	// The local mean map does not depend on the offset; compute it once
	// and share it read-only across workers.
	means, err := localMean(texture, p.BlockSize)
	if err != nil {
		return nil, fmt.Errorf("segmentation: %w", err)
	}

	numOffsets := p.OffsetStop - p.OffsetStart
	perOffset := make([]models.Table, numOffsets)
	errs := make([]error, numOffsets)

	workers := p.NumWorkers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > numOffsets {
		workers = numOffsets
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				offset := p.OffsetStart + i
				rows, err := s.segmentOffset(texture, means, width, height, offset)
				if err != nil {
					errs[i] = &OffsetError{Offset: offset, Err: err}
					continue
				}
				perOffset[i] = rows
			}
		}()
	}
	for i := 0; i < numOffsets; i++ {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	var out models.Table
	skipped := 0
	for i, rows := range perOffset {
		if errs[i] != nil {
			skipped++
			s.log.WithField("offset", p.OffsetStart+i).Warnf("sweep offset skipped: %v", errs[i])
			continue
		}
		out = append(out, rows...)
	}
	if skipped > 0 {
		s.log.Warnf("threshold sweep skipped %d of %d offsets", skipped, numOffsets)
	}
	s.log.Debugf("threshold sweep produced %d candidates over %d offsets", len(out), numOffsets)
	return out, nil
}

// segmentOffset runs one level of the sweep: binarize against the local
// threshold, label connected components and trace their contours.
func (s *Segmenter) segmentOffset(texture *image.Gray, means []float64, width, height, offset int) (models.Table, error) {
	binary := binarize(texture, means, float64(offset))
	labels, n := labelComponents(binary, width, height)
	if n == 0 {
		return nil, nil
	}

	contours := findContours(labels, width, height, s.params.IsoLevel)
	var rows models.Table
	for _, c := range contours {
		if len(c.Points) < 3 {
			continue
		}
		// Contour points arrive in (row, column) convention; polygons use
		// (x, y) = (column, row). Chains truncated at the image border are
		// closed implicitly by the polygon's closing edge.
		verts := make([]geometry.Point2D, len(c.Points))
		for i, pt := range c.Points {
			verts[i] = geometry.Point2D{X: pt.Col, Y: pt.Row}
		}
		poly, err := geometry.NewPolygon(verts)
		if err != nil {
			continue // degenerate trace
		}
		rows = append(rows, models.Hypothesis{Offset: offset, Boundary: poly})
	}
	return rows, nil
}
