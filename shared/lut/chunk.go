package lut

import (
	"errors"
	"fmt"
)

// DefaultChunkSize keeps each chunk well below common WebSocket frame limits.
const DefaultChunkSize = 16 * 1024

var (
	ErrChunkIndex     = errors.New("lut: chunk index out of range")
	ErrDuplicateChunk = errors.New("lut: duplicate chunk")
	ErrIncomplete     = errors.New("lut: transfer incomplete")
)

// Header describes one chunked transfer of a cube.
type Header struct {
	TransferID uint32
	EdgeSize   int
	TotalBytes int
	ChunkCount int
	Checksum   uint32
}

// ChunkCount returns how many chunks of chunkSize a payload of n bytes needs.
func ChunkCount(n, chunkSize int) int {
	if n == 0 {
		return 0
	}
	return (n + chunkSize - 1) / chunkSize
}

// Split slices the payload into chunks of at most chunkSize bytes. The chunks
// alias the cube data.
func (c *Cube) Split(chunkSize int) [][]byte {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	chunks := make([][]byte, 0, ChunkCount(len(c.Data), chunkSize))
	for off := 0; off < len(c.Data); off += chunkSize {
		end := min(off+chunkSize, len(c.Data))
		chunks = append(chunks, c.Data[off:end])
	}
	return chunks
}

// Header builds the transfer header for sending c in chunks of chunkSize.
func (c *Cube) Header(id uint32, chunkSize int) Header {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return Header{
		TransferID: id,
		EdgeSize:   c.Size,
		TotalBytes: len(c.Data),
		ChunkCount: ChunkCount(len(c.Data), chunkSize),
		Checksum:   c.Checksum(),
	}
}

// Assembler rebuilds a cube from chunks received in any order.
type Assembler struct {
	header   Header
	chunks   [][]byte
	received int
	size     int
}

// NewAssembler validates the header and prepares to receive chunks.
func NewAssembler(h Header) (*Assembler, error) {
	if h.EdgeSize < 2 || h.EdgeSize > MaxSize {
		return nil, fmt.Errorf("%w: edge size %d out of range", ErrSize, h.EdgeSize)
	}
	if h.TotalBytes != ByteLen(h.EdgeSize) {
		return nil, fmt.Errorf("%w: header announces %d bytes for edge %d", ErrSize, h.TotalBytes, h.EdgeSize)
	}
	if h.ChunkCount <= 0 || h.ChunkCount > h.TotalBytes {
		return nil, fmt.Errorf("lut: invalid chunk count %d", h.ChunkCount)
	}
	return &Assembler{
		header: h,
		chunks: make([][]byte, h.ChunkCount),
	}, nil
}

// Header returns the transfer header.
func (a *Assembler) Header() Header {
	return a.header
}

// Add stores one chunk. It reports whether all chunks have arrived.
func (a *Assembler) Add(index int, data []byte) (bool, error) {
	if index < 0 || index >= len(a.chunks) {
		return false, fmt.Errorf("%w: %d of %d", ErrChunkIndex, index, len(a.chunks))
	}
	if a.chunks[index] != nil {
		return false, fmt.Errorf("%w: %d", ErrDuplicateChunk, index)
	}
	if len(data) == 0 {
		return false, fmt.Errorf("%w: empty chunk %d", ErrSize, index)
	}
	if a.size+len(data) > a.header.TotalBytes {
		return false, fmt.Errorf("%w: chunk %d overflows %d bytes", ErrSize, index, a.header.TotalBytes)
	}
	a.chunks[index] = data
	a.received++
	a.size += len(data)
	return a.Complete(), nil
}

// Complete reports whether every chunk has been received.
func (a *Assembler) Complete() bool {
	return a.received == len(a.chunks)
}

// Cube concatenates the chunks and verifies size and checksum.
func (a *Assembler) Cube() (*Cube, error) {
	if !a.Complete() {
		return nil, fmt.Errorf("%w: %d of %d chunks", ErrIncomplete, a.received, len(a.chunks))
	}
	data := make([]byte, 0, a.size)
	for _, chunk := range a.chunks {
		data = append(data, chunk...)
	}
	cube, err := New(a.header.EdgeSize, data)
	if err != nil {
		return nil, err
	}
	if sum := cube.Checksum(); sum != a.header.Checksum {
		return nil, fmt.Errorf("%w: got %08x, want %08x", ErrChecksum, sum, a.header.Checksum)
	}
	return cube, nil
}
