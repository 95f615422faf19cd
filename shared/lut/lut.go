// Package lut holds 3D color lookup tables used for tone-mapping correction
// and the chunked transfer format used to ship them to rendering clients.
package lut

import (
	"errors"
	"fmt"
	"hash/crc32"
)

// BytesPerTexel is the RGB24 texel size.
const BytesPerTexel = 3

// MaxSize bounds the edge length accepted from the network (256³ RGB24 is 48 MiB).
const MaxSize = 256

var (
	ErrSize     = errors.New("lut: payload size does not match edge size")
	ErrChecksum = errors.New("lut: checksum mismatch")
)

// Cube is an RGB24 3D lookup table. Data is laid out with the red index
// varying fastest, then green, then blue.
type Cube struct {
	Size int
	Data []byte
}

// ByteLen returns the payload length of a cube with the given edge size.
func ByteLen(size int) int {
	return size * size * size * BytesPerTexel
}

// New validates data against size and wraps it without copying.
func New(size int, data []byte) (*Cube, error) {
	if size < 2 || size > MaxSize {
		return nil, fmt.Errorf("%w: edge size %d out of range [2, %d]", ErrSize, size, MaxSize)
	}
	if len(data) != ByteLen(size) {
		return nil, fmt.Errorf("%w: got %d bytes, want %d for edge %d", ErrSize, len(data), ByteLen(size), size)
	}
	return &Cube{Size: size, Data: data}, nil
}

// Identity returns the neutral table of the given edge size.
func Identity(size int) *Cube {
	c := &Cube{Size: size, Data: make([]byte, ByteLen(size))}
	scale := 255 / float64(size-1)
	for b := 0; b < size; b++ {
		for g := 0; g < size; g++ {
			for r := 0; r < size; r++ {
				c.SetTexel(r, g, b,
					uint8(float64(r)*scale+0.5),
					uint8(float64(g)*scale+0.5),
					uint8(float64(b)*scale+0.5))
			}
		}
	}
	return c
}

func (c *Cube) offset(r, g, b int) int {
	return ((b*c.Size+g)*c.Size + r) * BytesPerTexel
}

// Texel returns the mapped color at the given lattice indexes.
func (c *Cube) Texel(r, g, b int) (uint8, uint8, uint8) {
	i := c.offset(r, g, b)
	return c.Data[i], c.Data[i+1], c.Data[i+2]
}

// SetTexel writes a lattice entry.
func (c *Cube) SetTexel(r, g, b int, rv, gv, bv uint8) {
	i := c.offset(r, g, b)
	c.Data[i], c.Data[i+1], c.Data[i+2] = rv, gv, bv
}

// Checksum is the CRC-32 (IEEE) of the payload.
func (c *Cube) Checksum() uint32 {
	return crc32.ChecksumIEEE(c.Data)
}

// Map looks up an 8-bit color at the nearest lattice point.
func (c *Cube) Map(r, g, b uint8) (uint8, uint8, uint8) {
	idx := func(v uint8) int {
		return (int(v)*(c.Size-1) + 127) / 255
	}
	return c.Texel(idx(r), idx(g), idx(b))
}
