package pngme

import (
	"fmt"

	pngerrors "github.com/flaneur2020/pngme/pngme/errors"
)

// propertyBit is bit 5 of each type byte; it carries the chunk property
// encoded at that byte position.
const propertyBit = 0x20

// ChunkType is the 4-byte type code of a PNG chunk. The zero value is not
// a valid type.
type ChunkType [4]byte

// ChunkTypeFromBytes wraps raw type bytes. Validity is not checked; use IsValid.
func ChunkTypeFromBytes(b [4]byte) ChunkType {
	return ChunkType(b)
}

// ParseChunkType takes the bytes of s verbatim. It fails only when s is not
// exactly 4 bytes long.
func ParseChunkType(s string) (ChunkType, error) {
	var ct ChunkType
	if len(s) != len(ct) {
		return ct, pngerrors.ErrInvalidTypeLength.
			WithDetail("chunkType", s).
			WithDetail("length", len(s))
	}
	copy(ct[:], s)
	return ct, nil
}

// Bytes returns the raw type bytes.
func (ct ChunkType) Bytes() [4]byte {
	return ct
}

// String returns the type code as text, e.g. "IHDR".
func (ct ChunkType) String() string {
	return string(ct[:])
}

// IsValid reports whether every byte is an ASCII letter and the reserved bit
// is clear.
func (ct ChunkType) IsValid() bool {
	return ct.invalidReason() == nil
}

// invalidReason explains why ct is not valid, or returns nil.
func (ct ChunkType) invalidReason() error {
	for i, b := range ct {
		if !isASCIILetter(b) {
			return fmt.Errorf("byte %d (%#02x) of %q is not an ASCII letter", i, b, ct.String())
		}
	}
	if !ct.IsReservedBitValid() {
		return fmt.Errorf("reserved bit is set in %q (third letter must be upper case)", ct.String())
	}
	return nil
}

// IsCritical reports whether the chunk is required to display the image.
func (ct ChunkType) IsCritical() bool {
	return ct[0]&propertyBit == 0
}

// IsPublic reports whether the type is part of the PNG registry.
func (ct ChunkType) IsPublic() bool {
	return ct[1]&propertyBit == 0
}

// IsReservedBitValid reports whether the reserved bit is clear, as it must be
// in conforming files.
func (ct ChunkType) IsReservedBitValid() bool {
	return ct[2]&propertyBit == 0
}

// IsSafeToCopy reports whether editors that do not recognise the chunk may
// copy it into a modified image.
func (ct ChunkType) IsSafeToCopy() bool {
	return ct[3]&propertyBit != 0
}

func isASCIILetter(b byte) bool {
	return ('A' <= b && b <= 'Z') || ('a' <= b && b <= 'z')
}
