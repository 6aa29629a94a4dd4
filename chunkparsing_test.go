package smfparse

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/canidlogic/libsmfparse/smfsource"
)

// encodeVarint is the oracle for the variable-length integer format:
// base-128 big-endian with the continuation bit in the high position.
func encodeVarint(v int32) []byte {
	out := []byte{byte(v & 0x7F)}
	for v >>= 7; v > 0; v >>= 7 {
		out = append([]byte{byte(v&0x7F) | 0x80}, out...)
	}
	return out
}

func TestVarintRoundTrip(t *testing.T) {
	values := []int32{
		0, 1, 0x40, 0x7F,
		0x80, 200, 0x3FFF,
		0x4000, 2097151,
		2097152, 0x08000000, MaxVarint,
	}

	for _, v := range values {
		enc := encodeVarint(v)
		assert.LessOrEqual(t, len(enc), 4, "encoding of %d", v)

		p := &Parser{ckrem: int64(len(enc))}
		got, e := p.readTrackVarint(smfsource.FromBytes(enc))
		if !assert.Nil(t, e, "decoding % 02x", enc) {
			continue
		}
		assert.Equal(t, v, got, "decoding % 02x", enc)
		assert.Equal(t, int64(0), p.ckrem, "remainder after % 02x", enc)
	}
}

func TestVarintTooLong(t *testing.T) {
	p := &Parser{ckrem: 5}
	_, e := p.readTrackVarint(smfsource.FromBytes([]byte{0xFF, 0xFF, 0xFF, 0xFF, 0x00}))

	if assert.NotNil(t, e) {
		assert.Equal(t, ErrLongVarint, e.Code)
	}
}

func TestVarintChunkExhaustion(t *testing.T) {
	// The continuation bit promises another byte but the chunk
	// remainder is spent.
	p := &Parser{ckrem: 1}
	_, e := p.readTrackVarint(smfsource.FromBytes([]byte{0x81, 0x00}))

	if assert.NotNil(t, e) {
		assert.Equal(t, ErrOpenTrack, e.Code)
	}
}

func TestReadChunkHead(t *testing.T) {
	ctype, clen, e := readChunkHead(smfsource.FromBytes([]byte("MTrk\x00\x00\x01\x02")))

	assert.Nil(t, e)
	assert.Equal(t, chunkTypeMTrk, ctype)
	assert.Equal(t, int64(0x102), clen)
}

func TestReadChunkHeadHuge(t *testing.T) {
	_, _, e := readChunkHead(smfsource.FromBytes([]byte("MTrk\x80\x00\x00\x00")))

	if assert.NotNil(t, e) {
		assert.Equal(t, ErrHugeChunk, e.Code)
	}
}

func TestReadChunkHeadTruncated(t *testing.T) {
	_, _, e := readChunkHead(smfsource.FromBytes([]byte("MTrk\x00\x00")))

	if assert.NotNil(t, e) {
		assert.Equal(t, ErrEOF, e.Code)
	}
}
