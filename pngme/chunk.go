package pngme

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"unicode/utf8"

	pngerrors "github.com/flaneur2020/pngme/pngme/errors"
)

const (
	lengthFieldSize = 4
	typeFieldSize   = 4
	crcFieldSize    = 4

	// ChunkOverhead is the size of the framing around chunk data.
	ChunkOverhead = lengthFieldSize + typeFieldSize + crcFieldSize

	// MaxChunkLength is the largest data length a chunk may declare.
	MaxChunkLength = 1<<31 - 1
)

// Chunk is a single PNG chunk record. Length and CRC are derived from the
// type and data at construction and never change afterwards.
type Chunk struct {
	chunkType ChunkType
	data      []byte
	crc       uint32
}

// NewChunk builds a chunk from a type and arbitrary payload bytes. The
// payload is copied.
func NewChunk(chunkType ChunkType, data []byte) *Chunk {
	owned := append([]byte(nil), data...)
	return &Chunk{
		chunkType: chunkType,
		data:      owned,
		crc:       checksum(chunkType, owned),
	}
}

// ChunkFromBytes parses the chunk record laid out as [length][type][data][crc]
// at the start of buf. Bytes after the CRC are ignored.
func ChunkFromBytes(buf []byte) (*Chunk, error) {
	chunk, _, err := readChunk(buf)
	if err != nil {
		return nil, err
	}
	return chunk, nil
}

// readChunk parses the chunk record at the start of buf and returns it with
// the number of bytes consumed.
func readChunk(buf []byte) (*Chunk, int, error) {
	if len(buf) < ChunkOverhead {
		return nil, 0, pngerrors.ErrInvalidLength.
			WithMessage("buffer too short for chunk framing").
			WithDetail("available", len(buf))
	}

	length := binary.BigEndian.Uint32(buf[:lengthFieldSize])
	if length > MaxChunkLength {
		return nil, 0, pngerrors.ErrInvalidLength.
			WithMessage("declared chunk length exceeds 2^31-1").
			WithDetail("declared", length)
	}

	if uint64(len(buf)) < uint64(ChunkOverhead)+uint64(length) {
		return nil, 0, pngerrors.ErrInvalidLength.
			WithDetail("declared", length).
			WithDetail("available", len(buf)-ChunkOverhead)
	}

	total := ChunkOverhead + int(length)

	var chunkType ChunkType
	copy(chunkType[:], buf[lengthFieldSize:lengthFieldSize+typeFieldSize])

	dataStart := lengthFieldSize + typeFieldSize
	data := append([]byte(nil), buf[dataStart:dataStart+int(length)]...)
	embedded := binary.BigEndian.Uint32(buf[dataStart+int(length) : total])

	computed := checksum(chunkType, data)
	if computed != embedded {
		return nil, 0, pngerrors.ErrCrcMismatch.
			WithDetail("chunkType", chunkType.String()).
			WithDetail("expected", embedded).
			WithDetail("actual", computed)
	}

	return &Chunk{chunkType: chunkType, data: data, crc: computed}, total, nil
}

// Type returns the chunk type.
func (c *Chunk) Type() ChunkType {
	return c.chunkType
}

// Length returns the number of data bytes.
func (c *Chunk) Length() uint32 {
	return uint32(len(c.data))
}

// CRC returns the CRC-32 over the type and data.
func (c *Chunk) CRC() uint32 {
	return c.crc
}

// Data returns a copy of the payload.
func (c *Chunk) Data() []byte {
	return append([]byte(nil), c.data...)
}

// DataAsString interprets the payload as UTF-8 text.
func (c *Chunk) DataAsString() (string, error) {
	if !utf8.Valid(c.data) {
		return "", pngerrors.ErrInvalidUtf8.WithDetail("chunkType", c.chunkType.String())
	}
	return string(c.data), nil
}

// Bytes serializes the chunk; it is the inverse of ChunkFromBytes.
func (c *Chunk) Bytes() []byte {
	out := make([]byte, 0, ChunkOverhead+len(c.data))
	out = binary.BigEndian.AppendUint32(out, c.Length())
	out = append(out, c.chunkType[:]...)
	out = append(out, c.data...)
	out = binary.BigEndian.AppendUint32(out, c.crc)
	return out
}

func (c *Chunk) String() string {
	return fmt.Sprintf("Chunk (Type: %s; CRC: %d; Length: %d)", c.chunkType, c.crc, c.Length())
}

func checksum(chunkType ChunkType, data []byte) uint32 {
	h := crc32.NewIEEE()
	h.Write(chunkType[:])
	h.Write(data)
	return h.Sum32()
}
