// Package smfparse is a streaming parser for Standard MIDI Files (the
// .mid format).
//
// A Parser pulls bytes from a smfsource.Source and emits one Event per
// call to Read. The first event of a well-formed file is the *Header;
// BeginTrackEvent and EndOfTrackEvent bracket each track chunk; Read
// reports io.EOF once every declared track has been consumed. Format
// and I/O failures are reported as *Error values carrying a stable
// negative code, and are sticky: after the first failure every
// subsequent Read reports the same code without consuming input.
package smfparse

import (
	"io"

	"github.com/canidlogic/libsmfparse/smfsource"
)

// Scratch buffer capacities for sysex, text, and custom meta payloads.
// The buffer grows by doubling from bcapInit; payloads beyond bcapMax
// are rejected.
const (
	bcapInit = 256
	bcapMax  = 32768
)

// Parser statuses. Negative values are the sticky error code.
const (
	statusFresh  = 0
	statusHeader = 1
	statusEOF    = 2
)

// Parser is a pull-driven SMF parser. The zero value is not usable;
// construct with NewParser.
//
// A Parser and the Source it reads must not be shared across goroutines
// without external locking. Distinct parsers on distinct sources are
// independent.
type Parser struct {
	status  int
	ckrem   int64 // bytes left in the open chunk, -1 between chunks
	tracks  int32
	running byte // cached running status, 0 when none
	head    Header
	buf     []byte
}

// NewParser returns a parser positioned before the header chunk.
func NewParser() *Parser {
	return &Parser{ckrem: -1}
}

// Read parses the next event from src.
//
// At the clean end of the file, after all declared tracks have been
// read, it returns (nil, io.EOF), and keeps doing so on further calls.
// On a format or I/O failure it returns (nil, *Error); the failure is
// sticky and re-reported by every subsequent call.
func (p *Parser) Read(src *smfsource.Source) (Event, error) {
	if src == nil {
		fault("Read: nil source")
	}

	switch {
	case p.status < 0:
		return nil, &Error{Code: ErrorCode(p.status)}

	case p.status == statusEOF:
		return nil, io.EOF

	case p.status == statusFresh:
		if e := p.readHeaderChunk(src); e != nil {
			return p.fail(e)
		}
		p.status = statusHeader
		rh := p.head
		return &rh, nil

	case p.ckrem < 0:
		return p.readTopLevel(src)
	}

	return p.readTrackEvent(src)
}

// fail records a sticky error and returns it as the read result.
func (p *Parser) fail(e *Error) (Event, error) {
	p.status = int(e.Code)
	return nil, e
}

// readHeaderChunk reads and validates the MThd chunk, filling in
// p.head.
func (p *Parser) readHeaderChunk(src *smfsource.Source) *Error {
	ctype, clen, e := readChunkHead(src)
	if e != nil {
		return e
	}
	if ctype != chunkTypeMThd {
		return &Error{Code: ErrSignature}
	}
	if clen < 6 {
		return &Error{Code: ErrHeader}
	}

	format, e := readUint16BE(src)
	if e != nil {
		return e
	}
	ntrks, e := readUint16BE(src)
	if e != nil {
		return e
	}
	division, e := readUint16BE(src)
	if e != nil {
		return e
	}

	// Headers longer than six bytes carry data this parser does not
	// know about; skip it.
	if err := src.Skip(clen - 6); err != nil {
		return sourceErr(err)
	}

	if format > 2 {
		return &Error{Code: ErrMIDIFmt}
	}
	if ntrks < 1 {
		return &Error{Code: ErrNoTracks}
	}
	if format == 0 && ntrks > 1 {
		return &Error{Code: ErrMultiTrack}
	}

	var ts TimeSystem
	if division&0x8000 == 0 {
		if division == 0 {
			return &Error{Code: ErrHeader}
		}
		ts = TimeSystem{Subdiv: division}
	} else {
		// SMPTE timing: high byte is the two's-complement negated
		// frame rate, low byte the ticks per frame.
		frameRate := int((division>>8)^0xFF) + 1
		subdiv := division & 0xFF

		if frameRate != 24 && frameRate != 25 && frameRate != 29 && frameRate != 30 {
			return &Error{Code: ErrHeader}
		}
		if subdiv < 1 {
			return &Error{Code: ErrHeader}
		}

		ts = TimeSystem{Subdiv: subdiv, FrameRate: frameRate}
	}

	p.head = Header{
		Format:    int(format),
		NumTracks: ntrks,
		Time:      ts,
	}
	return nil
}

// readTopLevel handles the space between chunks: it opens the next
// track, skips over foreign chunks, or ends the session once every
// declared track has been read.
func (p *Parser) readTopLevel(src *smfsource.Source) (Event, error) {
	if p.tracks >= p.head.NumTracks {
		p.status = statusEOF
		return nil, io.EOF
	}

	ctype, clen, e := readChunkHead(src)
	if e != nil {
		return p.fail(e)
	}

	switch ctype {
	case chunkTypeMThd:
		return p.fail(&Error{Code: ErrMultiHead})

	case chunkTypeMTrk:
		p.tracks++
		p.ckrem = clen
		p.running = 0
		return BeginTrackEvent{}, nil
	}

	if err := src.Skip(clen); err != nil {
		return p.fail(sourceErr(err))
	}
	return ChunkEvent{Type: ctype}, nil
}
