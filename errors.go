package smfparse

import (
	"errors"
	"io"

	"github.com/canidlogic/libsmfparse/smfsource"
)

// ErrorCode identifies a MIDI format or I/O failure reported through
// Parser.Read. Codes are stable negative integers.
type ErrorCode int

const (
	ErrIO         ErrorCode = -1 - iota // I/O failure on the input source
	ErrHugeFile                         // input exceeds the 1 GiB cap
	ErrOpenFile                         // file could not be opened
	ErrEOF                              // unexpected end of file
	ErrHugeChunk                        // chunk length exceeds 2^31-1
	ErrSignature                        // file does not begin with MThd
	ErrHeader                           // invalid header chunk
	ErrMIDIFmt                          // format type not 0, 1, or 2
	ErrNoTracks                         // header declares zero tracks
	ErrMultiTrack                       // format 0 with more than one track
	ErrMultiHead                        // second MThd chunk encountered
	ErrOpenTrack                        // event runs past the end of its track chunk
	ErrLongVarint                       // variable-length integer over four bytes
	ErrRunStatus                        // running status with no cached status byte
	ErrBigPayload                       // sysex or meta payload over 32 KiB
	ErrBadEvent                         // unrecognized event status byte
	ErrSeqNum                           // invalid Sequence Number meta-event
	ErrChPrefix                         // invalid Channel Prefix meta-event
	ErrBadEOT                           // invalid End Of Track meta-event
	ErrSetTempo                         // invalid Set Tempo meta-event
	ErrSMPTEOff                         // invalid SMPTE Offset meta-event
	ErrTimeSig                          // invalid Time Signature meta-event
	ErrKeySig                           // invalid Key Signature meta-event
	ErrMIDIData                         // data byte with high bit set
)

// ErrorString translates an error code into a human-readable message.
func ErrorString(code ErrorCode) string {
	switch code {
	case ErrIO:
		return "I/O error"
	case ErrHugeFile:
		return "MIDI file exceeds 1 GiB in size"
	case ErrOpenFile:
		return "Failed to open MIDI file"
	case ErrEOF:
		return "Unexpected end of MIDI file"
	case ErrHugeChunk:
		return "MIDI file chunk is too large"
	case ErrSignature:
		return "MIDI file lacks correct file header signature"
	case ErrHeader:
		return "MIDI file has invalid header chunk"
	case ErrMIDIFmt:
		return "MIDI file has unrecognized format type"
	case ErrNoTracks:
		return "MIDI file has no declared tracks"
	case ErrMultiTrack:
		return "MIDI format 0 file can't have multiple tracks"
	case ErrMultiHead:
		return "MIDI file has multiple header chunks"
	case ErrOpenTrack:
		return "MIDI event extends beyond the end of its track chunk"
	case ErrLongVarint:
		return "MIDI file has a variable-length integer that is too long"
	case ErrRunStatus:
		return "MIDI running status used without a preceding message"
	case ErrBigPayload:
		return "MIDI event data payload is too large"
	case ErrBadEvent:
		return "MIDI file has unrecognized event type"
	case ErrSeqNum:
		return "MIDI file has invalid Sequence Number meta-event"
	case ErrChPrefix:
		return "MIDI file has invalid Channel Prefix meta-event"
	case ErrBadEOT:
		return "MIDI file has invalid End Of Track meta-event"
	case ErrSetTempo:
		return "MIDI file has invalid Set Tempo meta-event"
	case ErrSMPTEOff:
		return "MIDI file has invalid SMPTE Offset meta-event"
	case ErrTimeSig:
		return "MIDI file has invalid Time Signature meta-event"
	case ErrKeySig:
		return "MIDI file has invalid Key Signature meta-event"
	case ErrMIDIData:
		return "MIDI message has invalid data byte"
	}
	return "Unknown error"
}

func (c ErrorCode) String() string {
	return ErrorString(c)
}

// Error is the error type reported by Parser.Read for MIDI format and
// I/O failures. Once a parser has reported an Error, every subsequent
// Read reports the same code without consuming input.
type Error struct {
	Code ErrorCode
}

func (e *Error) Error() string {
	return ErrorString(e.Code)
}

// sourceErr maps a failure from the input source to a parse error.
// io.EOF here means the input ended somewhere it was not allowed to.
func sourceErr(err error) *Error {
	switch {
	case err == io.EOF:
		return &Error{Code: ErrEOF}
	case errors.Is(err, smfsource.ErrHugeFile):
		return &Error{Code: ErrHugeFile}
	}
	return &Error{Code: ErrIO}
}

func fault(msg string) {
	panic(smfsource.Fault("smfparse: " + msg))
}
