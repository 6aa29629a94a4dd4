package smfparse

import (
	"fmt"
	"strings"
)

// Limits of the SMF binary format.
const (
	MaxVarint         = 0x0FFFFFFF
	MaxData           = 127
	MinBend           = -8192
	MaxBend           = 8191
	MaxSeqNum         = 0xFFFF
	MaxBeatDur        = 0xFFFFFF
	MaxTimeDenom      = 1024
	MinKeyAccidentals = -7
	MaxKeyAccidentals = 7
)

// TimeSystem is the delta-time scheme declared in the file header.
//
// If FrameRate is zero, Subdiv is the number of delta units per beat
// ("MIDI quarter note"), 1 to 32767. Otherwise FrameRate is 24, 25, 29,
// or 30 frames per second and Subdiv is the number of delta units per
// frame, 1 to 127. A FrameRate of 29 does not mean 29 Hz; it selects
// the 30000/1001 Hz rate with drop-frame timecodes.
type TimeSystem struct {
	Subdiv    int32
	FrameRate int
}

// Header is the information parsed from the MThd chunk.
type Header struct {
	// Format 0 has a single track, format 1 has simultaneous tracks,
	// format 2 has tracks independent of each other in time.
	Format int

	// The declared track count. This does not necessarily match the
	// number of track chunks actually present in the file.
	NumTracks int32

	Time TimeSystem
}

// Timecode is an SMPTE hour:minute:second:frame position plus a
// fractional frame in hundredths, as carried by an SMPTE Offset
// meta-event.
type Timecode struct {
	Hour   uint8 // 0-23
	Minute uint8 // 0-59
	Second uint8 // 0-59
	Frame  uint8 // 0-29; bounded by the frame rate under SMPTE timing
	Frac   uint8 // 0-99, always hundredths of a frame
}

// TimeSignature is a notated time signature. Click is the number of
// MIDI clock pulses (24ths of a beat) per metronome click, and BeatUnit
// is the number of notated 32nd-notes per beat.
type TimeSignature struct {
	Numerator   int // 1-255
	Denominator int // power of two, 1-1024
	Click       int // 1-255
	BeatUnit    int // 1-255
}

// KeySignature is a key expressed as a count of accidentals: positive
// counts sharps, negative counts flats, zero is C major / A minor.
type KeySignature struct {
	Key     int // -7 to 7
	IsMinor bool
}

// TextType distinguishes the purpose of a text meta-event. The values
// match the meta-event type bytes in the file.
type TextType int

const (
	TextGeneral TextType = iota + 1
	TextCopyright
	TextTitle
	TextInstrument
	TextLyric
	TextMarker
	TextCue
)

var textTypeNames = map[TextType]string{
	TextGeneral:    "Text",
	TextCopyright:  "Copyright",
	TextTitle:      "Title",
	TextInstrument: "Instrument",
	TextLyric:      "Lyric",
	TextMarker:     "Marker",
	TextCue:        "Cue",
}

func (t TextType) String() string {
	name, ok := textTypeNames[t]
	if !ok {
		return fmt.Sprintf("TextType(%d)", int(t))
	}
	return name
}

// Event is one parsed entity from a MIDI file. The concrete type is
// the discriminator; switch on it to handle specific events.
//
// Payload slices handed out with an event (sysex data, text, custom
// meta data) reference a buffer owned by the parser and remain valid
// only until the next call to Read.
type Event interface {
	isEvent()
}

// MIDIEventType is the high nibble of a channel message status byte.
type MIDIEventType byte

const (
	NoteOff           MIDIEventType = 0x80
	NoteOn            MIDIEventType = 0x90
	KeyAftertouch     MIDIEventType = 0xA0
	Control           MIDIEventType = 0xB0
	Program           MIDIEventType = 0xC0
	ChannelAftertouch MIDIEventType = 0xD0
	PitchBend         MIDIEventType = 0xE0
)

// ChunkEvent reports a top-level chunk that is neither MThd nor MTrk.
// Its payload is skipped. Type holds the four ASCII type bytes
// big-endian, first character in the most significant byte.
type ChunkEvent struct {
	Type uint32
}

// BeginTrackEvent marks the start of an MTrk chunk.
type BeginTrackEvent struct{}

// EndOfTrackEvent is the End Of Track meta-event closing the current
// track chunk.
type EndOfTrackEvent struct {
	Delta int32
}

// MIDIEvent is a channel message. Type selects which of the remaining
// fields are meaningful:
//
//	NoteOff, NoteOn, KeyAftertouch  Key, Value
//	Control                         Controller, Value
//	Program, ChannelAftertouch      Value
//	PitchBend                       Bend
//
// A NoteOn with Value zero means the key is released. The parser does
// not rewrite it to NoteOff; clients see exactly what the file says.
type MIDIEvent struct {
	Delta      int32
	Type       MIDIEventType
	Channel    int // 0-15
	Key        int // 0-127
	Controller int // 0-127
	Value      int // 0-127
	Bend       int // -8192 to 8191
}

// SysexEvent is a System-Exclusive payload. Escape is false for an F0
// event, whose payload should be transmitted with a leading 0xF0 byte,
// and true for an F7 escape, whose payload is transmitted as-is.
type SysexEvent struct {
	Delta  int32
	Escape bool
	Data   []byte
}

// SequenceNumberEvent is the Sequence Number meta-event.
type SequenceNumberEvent struct {
	Delta  int32
	Number int32 // 0-65535
}

// TextEvent is a text-class meta-event. The text is opaque bytes with
// no guaranteed encoding; it may contain NUL bytes.
type TextEvent struct {
	Delta int32
	Type  TextType
	Text  []byte
}

// ChannelPrefixEvent is the Channel Prefix meta-event. The parser only
// surfaces it; it does not attach the channel to following events.
type ChannelPrefixEvent struct {
	Delta   int32
	Channel int // 0-15
}

// TempoEvent is the Set Tempo meta-event. BeatDur is the duration of a
// beat ("MIDI quarter note") in microseconds, 1 to 0xFFFFFF.
type TempoEvent struct {
	Delta   int32
	BeatDur int32
}

// SMPTEOffsetEvent is the SMPTE Offset meta-event.
type SMPTEOffsetEvent struct {
	Delta    int32
	Timecode Timecode
}

// TimeSignatureEvent is the Time Signature meta-event.
type TimeSignatureEvent struct {
	Delta   int32
	TimeSig TimeSignature
}

// KeySignatureEvent is the Key Signature meta-event.
type KeySignatureEvent struct {
	Delta  int32
	KeySig KeySignature
}

// MetaEvent is a meta-event whose type byte the parser does not
// recognize. The payload is surfaced opaquely.
type MetaEvent struct {
	Delta int32
	Type  byte
	Data  []byte
}

func (*Header) isEvent()             {}
func (ChunkEvent) isEvent()          {}
func (BeginTrackEvent) isEvent()     {}
func (EndOfTrackEvent) isEvent()     {}
func (MIDIEvent) isEvent()           {}
func (SysexEvent) isEvent()          {}
func (SequenceNumberEvent) isEvent() {}
func (TextEvent) isEvent()           {}
func (ChannelPrefixEvent) isEvent()  {}
func (TempoEvent) isEvent()          {}
func (SMPTEOffsetEvent) isEvent()    {}
func (TimeSignatureEvent) isEvent()  {}
func (KeySignatureEvent) isEvent()   {}
func (MetaEvent) isEvent()           {}

func (h *Header) String() string {
	if h.Time.FrameRate == 0 {
		return fmt.Sprintf("Header fmt=%d tracks=%d subdiv=%d", h.Format, h.NumTracks, h.Time.Subdiv)
	}
	return fmt.Sprintf("Header fmt=%d tracks=%d fps=%d subdiv=%d", h.Format, h.NumTracks, h.Time.FrameRate, h.Time.Subdiv)
}

func (e ChunkEvent) String() string {
	return fmt.Sprintf("Chunk %08X", e.Type)
}

func (e BeginTrackEvent) String() string {
	return "BeginTrack"
}

func (e EndOfTrackEvent) String() string {
	return "EndOfTrack"
}

func (e MIDIEvent) String() string {
	prefix := fmt.Sprintf("MIDI ch=%d ", e.Channel)

	switch e.Type {
	case NoteOff:
		return prefix + fmt.Sprintf("NoteOff k=%02x v=%02x", e.Key, e.Value)
	case NoteOn:
		return prefix + fmt.Sprintf("NoteOn k=%02x v=%02x", e.Key, e.Value)
	case KeyAftertouch:
		return prefix + fmt.Sprintf("KeyAftertouch k=%02x v=%02x", e.Key, e.Value)
	case Control:
		return prefix + fmt.Sprintf("Control c=%02x v=%02x", e.Controller, e.Value)
	case Program:
		return prefix + fmt.Sprintf("Program p=%02x", e.Value)
	case ChannelAftertouch:
		return prefix + fmt.Sprintf("ChannelAftertouch v=%02x", e.Value)
	case PitchBend:
		return prefix + fmt.Sprintf("PitchBend %+d", e.Bend)
	}
	return prefix + fmt.Sprintf("Unknown:%02x", byte(e.Type))
}

func (e SysexEvent) String() string {
	if e.Escape {
		return fmt.Sprintf("SysexEsc % 02x", e.Data)
	}
	return fmt.Sprintf("Sysex % 02x", e.Data)
}

func (e SequenceNumberEvent) String() string {
	return fmt.Sprintf("SequenceNumber %d", e.Number)
}

func (e TextEvent) String() string {
	return fmt.Sprintf("Meta %s %q", e.Type, string(e.Text))
}

func (e ChannelPrefixEvent) String() string {
	return fmt.Sprintf("ChannelPrefix ch=%d", e.Channel)
}

func (e TempoEvent) String() string {
	return fmt.Sprintf("Tempo %d us/beat", e.BeatDur)
}

func (e SMPTEOffsetEvent) String() string {
	tc := e.Timecode
	return fmt.Sprintf("SMPTEOffset %02d:%02d:%02d:%02d.%02d", tc.Hour, tc.Minute, tc.Second, tc.Frame, tc.Frac)
}

func (e TimeSignatureEvent) String() string {
	ts := e.TimeSig
	return fmt.Sprintf("TimeSignature %d/%d click=%d beat=%d", ts.Numerator, ts.Denominator, ts.Click, ts.BeatUnit)
}

func (e KeySignatureEvent) String() string {
	ks := e.KeySig
	var sb strings.Builder
	sb.WriteString("KeySignature ")
	switch {
	case ks.Key < 0:
		fmt.Fprintf(&sb, "%d flats ", -ks.Key)
	case ks.Key > 0:
		fmt.Fprintf(&sb, "%d sharps ", ks.Key)
	default:
		sb.WriteString("0 sharps/flats ")
	}
	if ks.IsMinor {
		sb.WriteString("minor")
	} else {
		sb.WriteString("major")
	}
	return sb.String()
}

func (e MetaEvent) String() string {
	return fmt.Sprintf("Meta %02x % 02x", e.Type, e.Data)
}
