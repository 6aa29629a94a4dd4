package smfparse

import (
	"math"

	"github.com/canidlogic/libsmfparse/smfsource"
)

// Chunk type codes, four ASCII bytes packed big-endian.
const (
	chunkTypeMThd = uint32(0x4D546864)
	chunkTypeMTrk = uint32(0x4D54726B)
)

func readUint16BE(src *smfsource.Source) (int32, *Error) {
	var result int32
	for i := 0; i < 2; i++ {
		b, err := src.ReadByte()
		if err != nil {
			return 0, sourceErr(err)
		}
		result = result<<8 | int32(b)
	}
	return result, nil
}

func readUint32BE(src *smfsource.Source) (uint32, *Error) {
	var result uint32
	for i := 0; i < 4; i++ {
		b, err := src.ReadByte()
		if err != nil {
			return 0, sourceErr(err)
		}
		result = result<<8 | uint32(b)
	}
	return result, nil
}

// readChunkHead reads an 8-byte chunk header and returns the chunk type
// and payload length. Lengths beyond the signed 32-bit range are
// rejected.
func readChunkHead(src *smfsource.Source) (uint32, int64, *Error) {
	ctype, e := readUint32BE(src)
	if e != nil {
		return 0, 0, e
	}

	clen, e := readUint32BE(src)
	if e != nil {
		return 0, 0, e
	}
	if clen > math.MaxInt32 {
		return 0, 0, &Error{Code: ErrHugeChunk}
	}

	return ctype, int64(clen), nil
}

// readTrackByte reads one payload byte of the currently open track
// chunk, decrementing the chunk remainder. An event that needs a byte
// when the remainder is exhausted has run past the end of its chunk.
func (p *Parser) readTrackByte(src *smfsource.Source) (byte, *Error) {
	if p.ckrem == 0 {
		return 0, &Error{Code: ErrOpenTrack}
	}

	b, err := src.ReadByte()
	if err != nil {
		return 0, sourceErr(err)
	}

	p.ckrem--
	return b, nil
}

// readTrackVarint decodes a variable-length integer from the open track
// chunk. Each byte contributes its low seven bits, high bit set meaning
// more bytes follow. At most four bytes are allowed, so the result is
// in range 0 to MaxVarint.
func (p *Parser) readTrackVarint(src *smfsource.Source) (int32, *Error) {
	var v int32

	for i := 0; ; i++ {
		if i >= 4 {
			return 0, &Error{Code: ErrLongVarint}
		}

		b, e := p.readTrackByte(src)
		if e != nil {
			return 0, e
		}

		v = v<<7 | int32(b&0x7F)
		if b&0x80 == 0 {
			return v, nil
		}
	}
}
