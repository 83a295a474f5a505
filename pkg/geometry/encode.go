package geometry

import (
	"bytes"
	"encoding/gob"
)

// MarshalBinary encodes the vertex sequence so polygons survive gob
// round-trips through the on-disk cache.
func (p Polygon) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(p.vertices); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// UnmarshalBinary restores a polygon written by MarshalBinary.
func (p *Polygon) UnmarshalBinary(data []byte) error {
	return gob.NewDecoder(bytes.NewReader(data)).Decode(&p.vertices)
}
