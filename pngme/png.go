package pngme

import (
	"bytes"
	"strings"

	pngerrors "github.com/flaneur2020/pngme/pngme/errors"
)

// Signature is the fixed 8-byte header of every PNG datastream.
var Signature = [8]byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}

// Png is an ordered list of chunks making up one PNG file. A well-formed file
// starts with IHDR and ends with IEND; AppendChunk keeps the last chunk last.
type Png struct {
	chunks []*Chunk
}

// NewPng builds a container from chunks already in file order.
func NewPng(chunks []*Chunk) *Png {
	return &Png{chunks: append([]*Chunk(nil), chunks...)}
}

// PngFromBytes parses a full PNG datastream: the signature followed by chunk
// records until the input is exhausted. The first malformed chunk aborts the
// parse and its error is returned with the chunk index and offset attached.
func PngFromBytes(buf []byte) (*Png, error) {
	if len(buf) < len(Signature) || !bytes.Equal(buf[:len(Signature)], Signature[:]) {
		return nil, pngerrors.ErrInvalidSignature.WithDetail("size", len(buf))
	}

	var chunks []*Chunk
	offset := len(Signature)
	for offset < len(buf) {
		chunk, n, err := readChunk(buf[offset:])
		if err != nil {
			if pngErr, ok := err.(*pngerrors.PngError); ok {
				return nil, pngErr.
					WithDetail("chunkIndex", len(chunks)).
					WithDetail("offset", offset)
			}
			return nil, err
		}
		chunks = append(chunks, chunk)
		offset += n
	}

	return &Png{chunks: chunks}, nil
}

// AppendChunk inserts chunk immediately before the last chunk (normally IEND).
// An empty container simply receives the chunk.
func (p *Png) AppendChunk(chunk *Chunk) {
	if len(p.chunks) == 0 {
		p.chunks = append(p.chunks, chunk)
		return
	}
	last := len(p.chunks) - 1
	p.chunks = append(p.chunks, nil)
	copy(p.chunks[last+1:], p.chunks[last:])
	p.chunks[last] = chunk
}

// RemoveFirstChunk removes and returns the first chunk of the given type.
// Critical chunks such as IHDR and IEND are not protected.
func (p *Png) RemoveFirstChunk(chunkType string) (*Chunk, error) {
	for i, chunk := range p.chunks {
		if chunk.Type().String() == chunkType {
			p.chunks = append(p.chunks[:i], p.chunks[i+1:]...)
			return chunk, nil
		}
	}
	return nil, pngerrors.ErrChunkNotFound.WithDetail("chunkType", chunkType)
}

// RemoveAllChunks removes every chunk of the given type and returns them in
// file order.
func (p *Png) RemoveAllChunks(chunkType string) ([]*Chunk, error) {
	var removed []*Chunk
	kept := p.chunks[:0]
	for _, chunk := range p.chunks {
		if chunk.Type().String() == chunkType {
			removed = append(removed, chunk)
			continue
		}
		kept = append(kept, chunk)
	}
	for i := len(kept); i < len(p.chunks); i++ {
		p.chunks[i] = nil
	}
	p.chunks = kept

	if len(removed) == 0 {
		return nil, pngerrors.ErrChunkNotFound.WithDetail("chunkType", chunkType)
	}
	return removed, nil
}

// ChunkByType returns the first chunk of the given type, or nil.
func (p *Png) ChunkByType(chunkType string) *Chunk {
	for _, chunk := range p.chunks {
		if chunk.Type().String() == chunkType {
			return chunk
		}
	}
	return nil
}

// Chunks returns the chunks in file order. The slice is a copy.
func (p *Png) Chunks() []*Chunk {
	return append([]*Chunk(nil), p.chunks...)
}

// Bytes serializes the signature followed by every chunk.
func (p *Png) Bytes() []byte {
	size := len(Signature)
	for _, chunk := range p.chunks {
		size += ChunkOverhead + len(chunk.data)
	}

	out := make([]byte, 0, size)
	out = append(out, Signature[:]...)
	for _, chunk := range p.chunks {
		out = append(out, chunk.Bytes()...)
	}
	return out
}

func (p *Png) String() string {
	var sb strings.Builder
	sb.WriteString("PNG {\n")
	for _, chunk := range p.chunks {
		sb.WriteString("  ")
		sb.WriteString(chunk.String())
		sb.WriteString("\n")
	}
	sb.WriteString("}")
	return sb.String()
}
