package pngme

import (
	pngerrors "github.com/flaneur2020/pngme/pngme/errors"
	"github.com/flaneur2020/pngme/pngme/logger"
	"github.com/opencontainers/go-digest"
)

// ChunkInfo describes one chunk for listings.
type ChunkInfo struct {
	Type   string
	Length uint32
	CRC    uint32
	Digest digest.Digest // digest of the chunk data

	Valid            bool
	Critical         bool
	Public           bool
	ReservedBitValid bool
	SafeToCopy       bool
}

// Encode hides message in a new chunk of the given type, placed just before
// IEND, and returns the re-serialized file.
func Encode(file []byte, chunkType string, message string) ([]byte, error) {
	ct, err := ParseChunkType(chunkType)
	if err != nil {
		return nil, err
	}
	if reason := ct.invalidReason(); reason != nil {
		return nil, pngerrors.ErrInvalidChunkType.
			WithDetail("chunkType", chunkType).
			WithCause(reason)
	}

	png, err := PngFromBytes(file)
	if err != nil {
		return nil, err
	}

	chunk := NewChunk(ct, []byte(message))
	logger.Debug("encoding type=%s message=%q crc=%08x", ct, message, chunk.CRC())
	png.AppendChunk(chunk)

	out := png.Bytes()
	logger.Info("Encoded %d bytes into chunk %s (%d chunks total)", chunk.Length(), ct, len(png.chunks))
	return out, nil
}

// Decode returns the text of the first chunk of the given type.
func Decode(file []byte, chunkType string) (string, error) {
	if _, err := ParseChunkType(chunkType); err != nil {
		return "", err
	}

	png, err := PngFromBytes(file)
	if err != nil {
		return "", err
	}

	chunk := png.ChunkByType(chunkType)
	if chunk == nil {
		return "", pngerrors.ErrChunkNotFound.WithDetail("chunkType", chunkType)
	}

	message, err := chunk.DataAsString()
	if err != nil {
		return "", err
	}
	logger.Debug("decoded type=%s message=%q", chunkType, message)
	return message, nil
}

// Remove deletes the first chunk of the given type and returns the
// re-serialized file.
func Remove(file []byte, chunkType string) ([]byte, error) {
	png, err := parseForRemoval(file, chunkType)
	if err != nil {
		return nil, err
	}

	removed, err := png.RemoveFirstChunk(chunkType)
	if err != nil {
		return nil, err
	}
	warnIfCritical(removed.Type())
	logger.Info("Removed chunk %s (%d bytes)", chunkType, removed.Length())
	return png.Bytes(), nil
}

// RemoveAll deletes every chunk of the given type and returns the
// re-serialized file along with the number of chunks removed.
func RemoveAll(file []byte, chunkType string) ([]byte, int, error) {
	png, err := parseForRemoval(file, chunkType)
	if err != nil {
		return nil, 0, err
	}

	removed, err := png.RemoveAllChunks(chunkType)
	if err != nil {
		return nil, 0, err
	}
	warnIfCritical(removed[0].Type())
	logger.Info("Removed %d chunk(s) of type %s", len(removed), chunkType)
	return png.Bytes(), len(removed), nil
}

// ListChunks describes every chunk of the file in order.
func ListChunks(file []byte) ([]ChunkInfo, error) {
	png, err := PngFromBytes(file)
	if err != nil {
		return nil, err
	}

	infos := make([]ChunkInfo, 0, len(png.chunks))
	for _, chunk := range png.chunks {
		ct := chunk.Type()
		infos = append(infos, ChunkInfo{
			Type:             ct.String(),
			Length:           chunk.Length(),
			CRC:              chunk.CRC(),
			Digest:           digest.FromBytes(chunk.data),
			Valid:            ct.IsValid(),
			Critical:         ct.IsCritical(),
			Public:           ct.IsPublic(),
			ReservedBitValid: ct.IsReservedBitValid(),
			SafeToCopy:       ct.IsSafeToCopy(),
		})
	}
	logger.Debug("Listed %d chunks", len(infos))
	return infos, nil
}

func parseForRemoval(file []byte, chunkType string) (*Png, error) {
	if _, err := ParseChunkType(chunkType); err != nil {
		return nil, err
	}
	return PngFromBytes(file)
}

func warnIfCritical(ct ChunkType) {
	if ct.IsCritical() {
		logger.Warn("Removed critical chunk %s; the result may no longer be a conforming PNG", ct)
	}
}
