package messages

// LUTBegin announces a chunked lookup-table transfer. Chunks with the same
// TransferID follow; a newer TransferID supersedes any unfinished transfer.
type LUTBegin struct {
	TransferID uint32
	EdgeSize   int
	TotalBytes int // EdgeSize³ × 3
	ChunkCount int
	Checksum   uint32 // CRC-32 IEEE of the full payload
}

// LUTChunk is one slice of an RGB24 cube payload.
type LUTChunk struct {
	TransferID uint32
	Index      int
	Data       []byte
}

// LUTCleared tells a client to drop its lookup table. Unfinished transfers
// are abandoned.
type LUTCleared struct{}

// LUTReceived is sent by a client once a transfer completes or fails.
type LUTReceived struct {
	TransferID uint32
	OK         bool
	Reason     string
}
