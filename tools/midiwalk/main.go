// midiwalk dumps all the parsed information in a MIDI file into text
// format. It is both a test program for the parser and an analysis tool
// for MIDI files.
//
// Usage:
//
//	midiwalk < input.mid > output.txt
//	midiwalk path/to/input.mid > output.txt
package main

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/sirupsen/logrus"

	smfparse "github.com/canidlogic/libsmfparse"
	"github.com/canidlogic/libsmfparse/smfsource"
)

// printBinary writes a payload as space-separated base-16 pairs on one
// line, with a leading space and nothing after the last digit.
func printBinary(data []byte) {
	for _, b := range data {
		fmt.Printf(" %02x", b)
	}
}

// printText writes a payload as ASCII, with backslash doubled and
// control codes or non-ASCII bytes printed as backslash followed by two
// base-16 digits.
func printText(data []byte) {
	for _, c := range data {
		switch {
		case c == '\\':
			fmt.Print("\\\\")
		case c >= 0x20 && c <= 0x7e:
			fmt.Printf("%c", c)
		default:
			fmt.Printf("\\%02x", c)
		}
	}
}

func printHeader(h *smfparse.Header) {
	fmt.Printf("MIDI Format %d with %d track(s)\n", h.Format, h.NumTracks)
	switch h.Time.FrameRate {
	case 0:
		fmt.Printf("Delta units per MIDI beat: %d\n", h.Time.Subdiv)
	case 29:
		fmt.Printf("SMPTE frame rate     :  29.97 (30 drop-frame)\n")
		fmt.Printf("Delta units per frame:  %d\n", h.Time.Subdiv)
	default:
		fmt.Printf("SMPTE frame rate:  %d\n", h.Time.FrameRate)
		fmt.Printf("Delta units per frame:  %d\n", h.Time.Subdiv)
	}
	fmt.Printf("\n")
}

func run(src *smfsource.Source) error {
	p := smfparse.NewParser()

	var offs int32
	var tnum int

	for {
		ev, err := p.Read(src)
		if err == io.EOF {
			fmt.Printf("EOF\n")
			return nil
		}
		if err != nil {
			return err
		}

		// Everything inside a track carries a delta; accumulate it
		// into a running offset and show the offset column.
		var delta int32 = -1
		switch e := ev.(type) {
		case smfparse.EndOfTrackEvent:
			delta = e.Delta
		case smfparse.MIDIEvent:
			delta = e.Delta
		case smfparse.SysexEvent:
			delta = e.Delta
		case smfparse.SequenceNumberEvent:
			delta = e.Delta
		case smfparse.TextEvent:
			delta = e.Delta
		case smfparse.ChannelPrefixEvent:
			delta = e.Delta
		case smfparse.TempoEvent:
			delta = e.Delta
		case smfparse.SMPTEOffsetEvent:
			delta = e.Delta
		case smfparse.TimeSignatureEvent:
			delta = e.Delta
		case smfparse.KeySignatureEvent:
			delta = e.Delta
		case smfparse.MetaEvent:
			delta = e.Delta
		}
		if delta >= 0 {
			if delta > math.MaxInt32-offs {
				return errors.New("time offset overflow")
			}
			offs += delta
			fmt.Printf("%08x: ", offs)
		}

		switch e := ev.(type) {
		case *smfparse.Header:
			printHeader(e)

		case smfparse.ChunkEvent:
			fmt.Printf("FOREIGN CHUNK with ID %08X\n\n", e.Type)

		case smfparse.BeginTrackEvent:
			tnum++
			offs = 0
			fmt.Printf("BEGIN TRACK %d\n\n", tnum)

		case smfparse.EndOfTrackEvent:
			fmt.Printf("END TRACK\n\n")

		case smfparse.MIDIEvent:
			fmt.Printf("[%2d] ", e.Channel+1)
			switch e.Type {
			case smfparse.NoteOff:
				fmt.Printf("Note-Off K:%3d V:%3d\n", e.Key, e.Value)
			case smfparse.NoteOn:
				fmt.Printf("Note-On  K:%3d V:%3d\n", e.Key, e.Value)
			case smfparse.KeyAftertouch:
				fmt.Printf("Pressure K:%3d V:%3d\n", e.Key, e.Value)
			case smfparse.Control:
				fmt.Printf("Control  C:%3d V:%3d\n", e.Controller, e.Value)
			case smfparse.Program:
				fmt.Printf("Program  P:%3d\n", e.Value)
			case smfparse.ChannelAftertouch:
				fmt.Printf("Pressure V:%3d\n", e.Value)
			case smfparse.PitchBend:
				fmt.Printf("Pitch %+d\n", e.Bend)
			}

		case smfparse.SysexEvent:
			if e.Escape {
				fmt.Printf("SYSEX-ESC")
			} else {
				fmt.Printf("SYSEX (F0)")
			}
			printBinary(e.Data)
			fmt.Printf("\n")

		case smfparse.SequenceNumberEvent:
			fmt.Printf("Sequence ID %d\n", e.Number)

		case smfparse.TextEvent:
			fmt.Printf("[%s] ", e.Type)
			printText(e.Text)
			fmt.Printf("\n")

		case smfparse.ChannelPrefixEvent:
			fmt.Printf("[%2d] Meta Channel Prefix\n", e.Channel+1)

		case smfparse.TempoEvent:
			fmt.Printf("Tempo %d (%.1f bpm)\n", e.BeatDur, 60000000.0/float64(e.BeatDur))

		case smfparse.SMPTEOffsetEvent:
			tc := e.Timecode
			fmt.Printf("SMPTE Offset %02d:%02d:%02d:%02d.%02d\n",
				tc.Hour, tc.Minute, tc.Second, tc.Frame, tc.Frac)

		case smfparse.TimeSignatureEvent:
			ts := e.TimeSig
			fmt.Printf("Time Signature %d / %d (click %d) (beat %d)\n",
				ts.Numerator, ts.Denominator, ts.Click, ts.BeatUnit)

		case smfparse.KeySignatureEvent:
			ks := e.KeySig
			fmt.Printf("Key Signature ")
			if ks.Key < 0 {
				fmt.Printf("%d flats, ", -ks.Key)
			} else if ks.Key > 0 {
				fmt.Printf("%d sharps, ", ks.Key)
			} else {
				fmt.Printf("0 sharps/flats, ")
			}
			if ks.IsMinor {
				fmt.Printf("minor\n")
			} else {
				fmt.Printf("major\n")
			}

		case smfparse.MetaEvent:
			fmt.Printf("Custom Meta [%02x]", e.Type)
			printBinary(e.Data)
			fmt.Printf("\n")
		}
	}
}

func main() {
	var src *smfsource.Source
	var err error

	switch {
	case len(os.Args) == 2:
		src, err = smfsource.FromPath(os.Args[1])
	case len(os.Args) < 2:
		src, err = smfsource.FromFile(os.Stdin, false, false)
	default:
		logrus.Error("wrong number of program arguments")
		os.Exit(1)
	}
	if err != nil {
		logrus.Errorf("failed to open input: %v", err)
		os.Exit(1)
	}

	if err := run(src); err != nil {
		logrus.Errorf("MIDI parsing error: %v", err)
		os.Exit(1)
	}

	if err := src.Close(); err != nil {
		logrus.Errorf("failed to close input: %v", err)
		os.Exit(1)
	}
}
