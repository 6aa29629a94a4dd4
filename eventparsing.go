package smfparse

import (
	"github.com/canidlogic/libsmfparse/smfsource"
)

// Meta-event type bytes.
const (
	metaSeqNum     = 0x00
	metaTextFirst  = 0x01
	metaTextLast   = 0x07
	metaChPrefix   = 0x20
	metaEndOfTrack = 0x2F
	metaTempo      = 0x51
	metaSMPTE      = 0x54
	metaTimeSig    = 0x58
	metaKeySig     = 0x59
)

// readTrackEvent reads one delta-prefixed event from the open track
// chunk.
func (p *Parser) readTrackEvent(src *smfsource.Source) (Event, error) {
	delta, e := p.readTrackVarint(src)
	if e != nil {
		return p.fail(e)
	}

	b, e := p.readTrackByte(src)
	if e != nil {
		return p.fail(e)
	}

	if b < 0x80 {
		// No status byte: running-status resumption. The byte just
		// read is the first data parameter.
		if p.running == 0 {
			return p.fail(&Error{Code: ErrRunStatus})
		}
		return p.readChannelMessage(src, delta, p.running, b, true)
	}

	switch {
	case b <= 0xEF:
		return p.readChannelMessage(src, delta, b, 0, false)

	case b == 0xF0 || b == 0xF7:
		p.running = 0
		return p.readSysex(src, delta, b)

	case b == 0xFF:
		p.running = 0
		return p.readMeta(src, delta)
	}

	return p.fail(&Error{Code: ErrBadEvent})
}

// readChannelMessage decodes a MIDI channel message. If haveFirst is
// set, first is a data byte that was already consumed by running-status
// resolution.
func (p *Parser) readChannelMessage(src *smfsource.Source, delta int32, status, first byte, haveFirst bool) (Event, error) {
	msg := status & 0xF0
	twoData := msg != 0xC0 && msg != 0xD0

	var a, b byte
	if haveFirst {
		a = first
	} else {
		var e *Error
		if a, e = p.readTrackByte(src); e != nil {
			return p.fail(e)
		}
	}
	if twoData {
		var e *Error
		if b, e = p.readTrackByte(src); e != nil {
			return p.fail(e)
		}
	}

	// Data bytes are verified after reading, not during.
	if a&0x80 != 0 || b&0x80 != 0 {
		return p.fail(&Error{Code: ErrMIDIData})
	}

	p.running = status

	ev := MIDIEvent{
		Delta:   delta,
		Type:    MIDIEventType(msg),
		Channel: int(status & 0x0F),
	}

	switch msg {
	case 0x80, 0x90, 0xA0:
		ev.Key = int(a)
		ev.Value = int(b)
	case 0xB0:
		ev.Controller = int(a)
		ev.Value = int(b)
	case 0xC0, 0xD0:
		ev.Value = int(a)
	case 0xE0:
		ev.Bend = (int(b)<<7 | int(a)) - 8192
	default:
		fault("readChannelMessage: impossible status")
	}

	return ev, nil
}

// readSysex reads an F0 System-Exclusive event or an F7 escape.
func (p *Parser) readSysex(src *smfsource.Source, delta int32, status byte) (Event, error) {
	n, e := p.readTrackVarint(src)
	if e != nil {
		return p.fail(e)
	}

	data, e := p.readPayload(src, n)
	if e != nil {
		return p.fail(e)
	}

	return SysexEvent{
		Delta:  delta,
		Escape: status == 0xF7,
		Data:   data,
	}, nil
}

// readMeta reads an FF meta-event and validates its payload by type.
func (p *Parser) readMeta(src *smfsource.Source, delta int32) (Event, error) {
	mt, e := p.readTrackByte(src)
	if e != nil {
		return p.fail(e)
	}

	n, e := p.readTrackVarint(src)
	if e != nil {
		return p.fail(e)
	}

	data, e := p.readPayload(src, n)
	if e != nil {
		return p.fail(e)
	}

	switch {
	case mt == metaSeqNum:
		if len(data) != 2 {
			return p.fail(&Error{Code: ErrSeqNum})
		}
		return SequenceNumberEvent{
			Delta:  delta,
			Number: int32(data[0])<<8 | int32(data[1]),
		}, nil

	case mt >= metaTextFirst && mt <= metaTextLast:
		return TextEvent{
			Delta: delta,
			Type:  TextType(mt),
			Text:  data,
		}, nil

	case mt == metaChPrefix:
		if len(data) != 1 || data[0] > 15 {
			return p.fail(&Error{Code: ErrChPrefix})
		}
		return ChannelPrefixEvent{
			Delta:   delta,
			Channel: int(data[0]),
		}, nil

	case mt == metaEndOfTrack:
		if len(data) != 0 {
			return p.fail(&Error{Code: ErrBadEOT})
		}
		// Anything left in the chunk after End Of Track is skipped.
		if p.ckrem > 0 {
			if err := src.Skip(p.ckrem); err != nil {
				return p.fail(sourceErr(err))
			}
		}
		p.ckrem = -1
		return EndOfTrackEvent{Delta: delta}, nil

	case mt == metaTempo:
		if len(data) != 3 {
			return p.fail(&Error{Code: ErrSetTempo})
		}
		beatDur := int32(data[0])<<16 | int32(data[1])<<8 | int32(data[2])
		if beatDur < 1 {
			return p.fail(&Error{Code: ErrSetTempo})
		}
		return TempoEvent{Delta: delta, BeatDur: beatDur}, nil

	case mt == metaSMPTE:
		if len(data) != 5 {
			return p.fail(&Error{Code: ErrSMPTEOff})
		}
		tc := Timecode{
			Hour:   data[0],
			Minute: data[1],
			Second: data[2],
			Frame:  data[3],
			Frac:   data[4],
		}
		if e := p.checkTimecode(tc); e != nil {
			return p.fail(e)
		}
		return SMPTEOffsetEvent{Delta: delta, Timecode: tc}, nil

	case mt == metaTimeSig:
		if len(data) != 4 {
			return p.fail(&Error{Code: ErrTimeSig})
		}
		denomExp := int(data[1])
		if denomExp > 15 {
			return p.fail(&Error{Code: ErrTimeSig})
		}
		denom := 1 << denomExp
		if denom > MaxTimeDenom {
			return p.fail(&Error{Code: ErrTimeSig})
		}
		ts := TimeSignature{
			Numerator:   int(data[0]),
			Denominator: denom,
			Click:       int(data[2]),
			BeatUnit:    int(data[3]),
		}
		if ts.Numerator < 1 || ts.Click < 1 || ts.BeatUnit < 1 {
			return p.fail(&Error{Code: ErrTimeSig})
		}
		return TimeSignatureEvent{Delta: delta, TimeSig: ts}, nil

	case mt == metaKeySig:
		if len(data) != 2 {
			return p.fail(&Error{Code: ErrKeySig})
		}
		key := int(int8(data[0]))
		if key < MinKeyAccidentals || key > MaxKeyAccidentals {
			return p.fail(&Error{Code: ErrKeySig})
		}
		if data[1] > 1 {
			return p.fail(&Error{Code: ErrKeySig})
		}
		return KeySignatureEvent{
			Delta: delta,
			KeySig: KeySignature{
				Key:     key,
				IsMinor: data[1] == 1,
			},
		}, nil
	}

	return MetaEvent{Delta: delta, Type: mt, Data: data}, nil
}

// checkTimecode validates an SMPTE Offset timecode against the generic
// field ranges and, under SMPTE timing, the header's frame rate.
func (p *Parser) checkTimecode(tc Timecode) *Error {
	if tc.Hour > 23 || tc.Minute > 59 || tc.Second > 59 || tc.Frame > 29 || tc.Frac > 99 {
		return &Error{Code: ErrSMPTEOff}
	}

	switch p.head.Time.FrameRate {
	case 24, 25:
		if int(tc.Frame) >= p.head.Time.FrameRate {
			return &Error{Code: ErrSMPTEOff}
		}
	case 29:
		// Drop-frame: timecodes 0 and 1 do not exist in minutes not
		// divisible by ten.
		if tc.Minute%10 != 0 && tc.Frame < 2 {
			return &Error{Code: ErrSMPTEOff}
		}
	}

	return nil
}

// readPayload reads an n-byte payload from the open chunk into the
// parser's scratch buffer. The returned slice aliases the buffer and is
// only valid until the next read.
func (p *Parser) readPayload(src *smfsource.Source, n int32) ([]byte, *Error) {
	if n > bcapMax {
		return nil, &Error{Code: ErrBigPayload}
	}

	if int32(cap(p.buf)) < n {
		ncap := int32(bcapInit)
		for ncap < n {
			ncap <<= 1
		}
		p.buf = make([]byte, ncap)
	}

	buf := p.buf[:n]
	for i := range buf {
		b, e := p.readTrackByte(src)
		if e != nil {
			return nil, e
		}
		buf[i] = b
	}

	return buf, nil
}
