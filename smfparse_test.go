package smfparse

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/canidlogic/libsmfparse/smfsource"
)

func be16(v uint16) []byte {
	return []byte{byte(v >> 8), byte(v)}
}

func chunk(ctype string, payload []byte) []byte {
	n := uint32(len(payload))
	out := append([]byte(ctype),
		byte(n>>24), byte(n>>16), byte(n>>8), byte(n))
	return append(out, payload...)
}

func headerChunk(format, ntracks, division uint16) []byte {
	payload := append(append(be16(format), be16(ntracks)...), be16(division)...)
	return chunk("MThd", payload)
}

func smfFile(format, ntracks, division uint16, trackPayloads ...[]byte) []byte {
	out := headerChunk(format, ntracks, division)
	for _, tp := range trackPayloads {
		out = append(out, chunk("MTrk", tp)...)
	}
	return out
}

// parseAll reads events until clean EOF or error.
func parseAll(data []byte) ([]Event, error) {
	src := smfsource.FromBytes(data)
	p := NewParser()

	var events []Event
	for {
		ev, err := p.Read(src)
		if err == io.EOF {
			return events, nil
		}
		if err != nil {
			return events, err
		}
		events = append(events, ev)
	}
}

func assertCode(t *testing.T, err error, want ErrorCode) {
	t.Helper()
	if assert.Error(t, err) {
		var pe *Error
		if assert.ErrorAs(t, err, &pe) {
			assert.Equal(t, want, pe.Code)
		}
	}
}

func TestMinimalFormatZeroFile(t *testing.T) {
	data := smfFile(0, 1, 96, []byte{
		0x00, 0x90, 0x3C, 0x64,
		0x60, 0x80, 0x3C, 0x40,
		0x00, 0xFF, 0x2F, 0x00,
	})

	events, err := parseAll(data)
	assert.NoError(t, err)

	want := []Event{
		&Header{Format: 0, NumTracks: 1, Time: TimeSystem{Subdiv: 96}},
		BeginTrackEvent{},
		MIDIEvent{Delta: 0, Type: NoteOn, Channel: 0, Key: 60, Value: 100},
		MIDIEvent{Delta: 96, Type: NoteOff, Channel: 0, Key: 60, Value: 64},
		EndOfTrackEvent{Delta: 0},
	}
	assert.Equal(t, want, events)
}

func TestRunningStatus(t *testing.T) {
	data := smfFile(0, 1, 96, []byte{
		0x00, 0x90, 0x3C, 0x64,
		0x60, 0x3C, 0x00,
		0x00, 0xFF, 0x2F, 0x00,
	})

	events, err := parseAll(data)
	assert.NoError(t, err)

	want := []Event{
		&Header{Format: 0, NumTracks: 1, Time: TimeSystem{Subdiv: 96}},
		BeginTrackEvent{},
		MIDIEvent{Delta: 0, Type: NoteOn, Channel: 0, Key: 60, Value: 100},
		MIDIEvent{Delta: 96, Type: NoteOn, Channel: 0, Key: 60, Value: 0},
		EndOfTrackEvent{Delta: 0},
	}
	assert.Equal(t, want, events)
}

// An event encoded with running status parses identically to the same
// event with its status byte restored.
func TestRunningStatusEquivalence(t *testing.T) {
	withStatus := smfFile(0, 1, 96, []byte{
		0x00, 0x91, 0x40, 0x33,
		0x10, 0x91, 0x43, 0x22,
		0x00, 0xFF, 0x2F, 0x00,
	})
	withoutStatus := smfFile(0, 1, 96, []byte{
		0x00, 0x91, 0x40, 0x33,
		0x10, 0x43, 0x22,
		0x00, 0xFF, 0x2F, 0x00,
	})

	a, errA := parseAll(withStatus)
	b, errB := parseAll(withoutStatus)

	assert.NoError(t, errA)
	assert.NoError(t, errB)
	assert.Equal(t, a, b)
}

func TestRunningStatusWithoutPriorMessage(t *testing.T) {
	data := smfFile(0, 1, 96, []byte{0x00, 0x3C, 0x64})

	_, err := parseAll(data)
	assertCode(t, err, ErrRunStatus)
}

func TestForeignChunkSkipped(t *testing.T) {
	data := headerChunk(1, 1, 96)
	data = append(data, chunk("XYZZ", []byte{0xDE, 0xAD, 0xBE, 0xEF})...)
	data = append(data, chunk("MTrk", []byte{0x00, 0xFF, 0x2F, 0x00})...)

	events, err := parseAll(data)
	assert.NoError(t, err)

	want := []Event{
		&Header{Format: 1, NumTracks: 1, Time: TimeSystem{Subdiv: 96}},
		ChunkEvent{Type: 0x58595A5A},
		BeginTrackEvent{},
		EndOfTrackEvent{Delta: 0},
	}
	assert.Equal(t, want, events)
}

func TestLongVarintDeltaIsSticky(t *testing.T) {
	data := smfFile(0, 1, 96, []byte{0xFF, 0xFF, 0xFF, 0xFF, 0x00})

	src := smfsource.FromBytes(data)
	p := NewParser()

	_, err := p.Read(src) // header
	assert.NoError(t, err)
	_, err = p.Read(src) // begin track
	assert.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err = p.Read(src)
		assertCode(t, err, ErrLongVarint)
	}
}

func TestEOFIsFinal(t *testing.T) {
	data := smfFile(0, 1, 96, []byte{0x00, 0xFF, 0x2F, 0x00})

	src := smfsource.FromBytes(data)
	p := NewParser()

	var got []Event
	for {
		ev, err := p.Read(src)
		if err != nil {
			assert.Equal(t, io.EOF, err)
			break
		}
		got = append(got, ev)
	}
	assert.Len(t, got, 3)

	for i := 0; i < 3; i++ {
		_, err := p.Read(src)
		assert.Equal(t, io.EOF, err)
	}
}

func TestTrailingTrackBytesSkippedAfterEndOfTrack(t *testing.T) {
	// Two bytes of padding after the End Of Track meta-event; they are
	// part of the declared chunk length and must be consumed.
	data := smfFile(1, 2,
		96,
		[]byte{0x00, 0xFF, 0x2F, 0x00, 0xAA, 0xBB},
		[]byte{0x00, 0xFF, 0x2F, 0x00},
	)

	events, err := parseAll(data)
	assert.NoError(t, err)

	want := []Event{
		&Header{Format: 1, NumTracks: 2, Time: TimeSystem{Subdiv: 96}},
		BeginTrackEvent{},
		EndOfTrackEvent{Delta: 0},
		BeginTrackEvent{},
		EndOfTrackEvent{Delta: 0},
	}
	assert.Equal(t, want, events)
}

func TestExtraTracksNotReadPastDeclaredCount(t *testing.T) {
	// A second MTrk chunk beyond the declared count; parsing ends at
	// EOF without touching it.
	data := smfFile(0, 1, 96,
		[]byte{0x00, 0xFF, 0x2F, 0x00},
		[]byte{0x00, 0xFF, 0x2F, 0x00},
	)

	events, err := parseAll(data)
	assert.NoError(t, err)
	assert.Len(t, events, 3)
}

func TestMissingDeclaredTrack(t *testing.T) {
	data := headerChunk(1, 2, 96)
	data = append(data, chunk("MTrk", []byte{0x00, 0xFF, 0x2F, 0x00})...)

	_, err := parseAll(data)
	assertCode(t, err, ErrEOF)
}

func TestSecondHeaderChunk(t *testing.T) {
	data := headerChunk(1, 1, 96)
	data = append(data, headerChunk(1, 1, 96)...)

	_, err := parseAll(data)
	assertCode(t, err, ErrMultiHead)
}

func TestHeaderValidation(t *testing.T) {
	testcases := []struct {
		name string
		data []byte
		want ErrorCode
	}{
		{"bad signature", chunk("MThX", be16(0)), ErrSignature},
		{"short header", chunk("MThd", []byte{0, 0}), ErrHeader},
		{"bad format", headerChunk(3, 1, 96), ErrMIDIFmt},
		{"no tracks", headerChunk(1, 0, 96), ErrNoTracks},
		{"format 0 multi-track", headerChunk(0, 2, 96), ErrMultiTrack},
		{"zero division", headerChunk(0, 1, 0), ErrHeader},
		{"bad frame rate", headerChunk(0, 1, 0x9C28), ErrHeader},
		{"zero SMPTE subdiv", headerChunk(0, 1, 0xE700), ErrHeader},
		{"truncated", []byte("MThd\x00\x00\x00\x06\x00"), ErrEOF},
	}

	for _, tc := range testcases {
		_, err := parseAll(tc.data)
		assertCode(t, err, tc.want)
	}
}

func TestHeaderTrailingBytesSkipped(t *testing.T) {
	// Header declares eight payload bytes; the two extra are skipped.
	payload := append(append(be16(0), be16(1)...), be16(96)...)
	payload = append(payload, 0x7F, 0x7F)
	data := append(chunk("MThd", payload),
		chunk("MTrk", []byte{0x00, 0xFF, 0x2F, 0x00})...)

	events, err := parseAll(data)
	assert.NoError(t, err)
	assert.Equal(t, &Header{Format: 0, NumTracks: 1, Time: TimeSystem{Subdiv: 96}}, events[0])
}

func TestSMPTEHeaderDivision(t *testing.T) {
	// 25 fps is 0xE7 in two's complement, 40 subdivisions per frame.
	data := smfFile(0, 1, 0xE728, []byte{0x00, 0xFF, 0x2F, 0x00})

	events, err := parseAll(data)
	assert.NoError(t, err)
	assert.Equal(t,
		&Header{Format: 0, NumTracks: 1, Time: TimeSystem{Subdiv: 40, FrameRate: 25}},
		events[0])
}

func TestErrorStrings(t *testing.T) {
	codes := []ErrorCode{
		ErrIO, ErrHugeFile, ErrOpenFile, ErrEOF, ErrHugeChunk,
		ErrSignature, ErrHeader, ErrMIDIFmt, ErrNoTracks, ErrMultiTrack,
		ErrMultiHead, ErrOpenTrack, ErrLongVarint, ErrRunStatus,
		ErrBigPayload, ErrBadEvent, ErrSeqNum, ErrChPrefix, ErrBadEOT,
		ErrSetTempo, ErrSMPTEOff, ErrTimeSig, ErrKeySig, ErrMIDIData,
	}

	for i, code := range codes {
		assert.Equal(t, ErrorCode(-1-i), code)
		assert.NotEqual(t, "Unknown error", ErrorString(code))
	}
	assert.Equal(t, "Unknown error", ErrorString(1))
}
