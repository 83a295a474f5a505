package stack

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/disintegration/imaging"

	"github.com/fabio-echegaray/compartment-segmentation/internal/models"
)

// Handle is an opaque reference to one slice known to an ImageSource.
type Handle int

// ImageSource resolves 2D images out of a z-stack by (channel, z, frame)
// coordinate. Sparse stacks are expected: IndexAt reports false for
// coordinates with no image, which callers treat as a skip, not an error.
type ImageSource interface {
	// ZIndices enumerates the z indices known to the source, in ascending order.
	ZIndices() []int

	// IndexAt looks up the handle for a coordinate, reporting whether an
	// image exists there.
	IndexAt(channel, z, frame int) (Handle, bool)

	// Image loads the slice behind a handle together with its metadata.
	Image(h Handle) (models.SliceImage, error)
}

// slicePattern matches files named like "c0z12t0.png". A bare number in
// the name is accepted as the z index with channel and frame 0, matching
// how plain numbered slice sequences are usually exported.
var (
	slicePattern  = regexp.MustCompile(`(?i)c(\d+)z(\d+)t(\d+)`)
	numberPattern = regexp.MustCompile(`(\d+)`)
)

type sliceFile struct {
	path    string
	z       int
	channel int
	frame   int
}

// DirectorySource is a file-backed ImageSource scanning a directory of
// image files, one file per (channel, z, frame) coordinate.
type DirectorySource struct {
	files []sliceFile
}

// NewDirectorySource indexes the image files in dir. Files whose names
// carry no digits are ignored.
func NewDirectorySource(dir string) (*DirectorySource, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("stack: reading source directory: %w", err)
	}

	var files []sliceFile
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		switch strings.ToLower(filepath.Ext(name)) {
		case ".png", ".jpg", ".jpeg", ".tif", ".tiff", ".bmp":
		default:
			continue
		}

		sf := sliceFile{path: filepath.Join(dir, name)}
		if m := slicePattern.FindStringSubmatch(name); m != nil {
			sf.channel, _ = strconv.Atoi(m[1])
			sf.z, _ = strconv.Atoi(m[2])
			sf.frame, _ = strconv.Atoi(m[3])
		} else if m := numberPattern.FindStringSubmatch(name); m != nil {
			sf.z, _ = strconv.Atoi(m[1])
		} else {
			continue
		}
		files = append(files, sf)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("stack: no image files found in %s", dir)
	}

	sort.Slice(files, func(i, j int) bool {
		if files[i].z != files[j].z {
			return files[i].z < files[j].z
		}
		if files[i].channel != files[j].channel {
			return files[i].channel < files[j].channel
		}
		return files[i].frame < files[j].frame
	})
	return &DirectorySource{files: files}, nil
}

// ZIndices returns the distinct z indices present in the directory.
func (s *DirectorySource) ZIndices() []int {
	seen := make(map[int]bool)
	var out []int
	for _, f := range s.files {
		if !seen[f.z] {
			seen[f.z] = true
			out = append(out, f.z)
		}
	}
	sort.Ints(out)
	return out
}

// IndexAt looks up the file for a (channel, z, frame) coordinate.
func (s *DirectorySource) IndexAt(channel, z, frame int) (Handle, bool) {
	for i, f := range s.files {
		if f.channel == channel && f.z == z && f.frame == frame {
			return Handle(i), true
		}
	}
	return 0, false
}

// Image decodes the slice behind a handle.
func (s *DirectorySource) Image(h Handle) (models.SliceImage, error) {
	if int(h) < 0 || int(h) >= len(s.files) {
		return models.SliceImage{}, fmt.Errorf("stack: handle %d out of range", h)
	}
	f := s.files[h]
	img, err := imaging.Open(f.path)
	if err != nil {
		return models.SliceImage{}, fmt.Errorf("stack: decoding %s: %w", f.path, err)
	}
	return models.SliceImage{Image: img, Z: f.z, Channel: f.channel, Frame: f.frame}, nil
}
