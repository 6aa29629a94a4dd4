// Package smfsource provides the byte-level input abstraction that the
// MIDI file parser reads from.
//
// A Source wraps any io.ByteReader. Optional capabilities (rewinding,
// fast skips, closing) are discovered from the wrapped value at
// construction time. The Source tracks a lifecycle state so that a
// failed or exhausted input never has its underlying callbacks invoked
// again; a successful Rewind is the only way back to a usable state.
package smfsource

import (
	"errors"
	"io"
)

// Rewinder is the optional capability of returning to the start of
// input. Rewind returns the source to the beginning so the input can be
// read through again.
type Rewinder interface {
	Rewind() error
}

// Skipper is the optional capability of skipping ahead without reading.
// A skip that would pass the end of input must be shortened so that the
// next read reports EOF.
type Skipper interface {
	Skip(n int64) error
}

var (
	// ErrSourceFailed is reported for any operation on a source that
	// is in a failed state. Only a successful Rewind clears it.
	ErrSourceFailed = errors.New("smfsource: source is in a failed state")

	// ErrNoRewind is reported by Rewind when the wrapped reader does
	// not support rewinding. The source state is unchanged.
	ErrNoRewind = errors.New("smfsource: source does not support rewind")
)

// Fault is the panic value raised on programmer-contract violations
// (nil required arguments, negative skip distances, impossible states).
// These are never raised for malformed input, which is reported through
// ordinary error returns.
type Fault string

func (f Fault) Error() string { return string(f) }

func fault(msg string) {
	panic(Fault("smfsource: " + msg))
}

type state int

const (
	stateNormal state = iota
	stateError
	stateDouble
	stateEOF
)

// Source is an input byte stream with a lifecycle state machine.
//
// A Source must not be shared across goroutines without external
// locking.
type Source struct {
	state  state
	r      io.ByteReader
	rew    Rewinder
	skip   Skipper
	closer io.Closer
	closed bool
}

// New wraps a byte reader as a Source. The reader is the only required
// capability; Rewinder, Skipper, and io.Closer are used if the wrapped
// value implements them.
func New(r io.ByteReader) *Source {
	if r == nil {
		fault("New: nil reader")
	}
	s := &Source{r: r}
	s.rew, _ = r.(Rewinder)
	s.skip, _ = r.(Skipper)
	s.closer, _ = r.(io.Closer)
	return s
}

// ReadByte reads the next byte of input.
//
// At end of input it reports io.EOF, and keeps reporting io.EOF without
// touching the underlying reader until a successful Rewind. After any
// failure it reports ErrSourceFailed the same way.
func (s *Source) ReadByte() (byte, error) {
	switch s.state {
	case stateError, stateDouble:
		return 0, ErrSourceFailed
	case stateEOF:
		return 0, io.EOF
	}

	b, err := s.r.ReadByte()
	if err == io.EOF {
		s.state = stateEOF
		return 0, io.EOF
	}
	if err != nil {
		s.state = stateError
		return 0, err
	}

	return b, nil
}

// Skip advances the input by n bytes without surfacing them. If the
// wrapped reader has no Skipper capability the skip is simulated with
// repeated reads. Skipping past the end of input is not an error; the
// skip is shortened so that the next ReadByte reports io.EOF.
func (s *Source) Skip(n int64) error {
	if n < 0 {
		fault("Skip: negative distance")
	}

	switch s.state {
	case stateError, stateDouble:
		return ErrSourceFailed
	case stateEOF:
		return nil
	}

	if n == 0 {
		return nil
	}

	if s.skip != nil {
		if err := s.skip.Skip(n); err != nil {
			s.state = stateError
			return err
		}
		return nil
	}

	for i := int64(0); i < n; i++ {
		_, err := s.r.ReadByte()
		if err == io.EOF {
			s.state = stateEOF
			return nil
		}
		if err != nil {
			s.state = stateError
			return err
		}
	}

	return nil
}

// CanRewind reports whether the source supports rewinding.
func (s *Source) CanRewind() bool {
	return s.rew != nil
}

// Rewind returns the source to the beginning of input, clearing any
// error or EOF state. If the rewind attempt itself fails the source
// enters a double-error state from which no operation except Close can
// succeed.
func (s *Source) Rewind() error {
	if s.rew == nil {
		return ErrNoRewind
	}
	if s.state == stateDouble {
		return ErrSourceFailed
	}

	if err := s.rew.Rewind(); err != nil {
		s.state = stateDouble
		return err
	}

	s.state = stateNormal
	return nil
}

// Close shuts the source down, invoking the wrapped closer if there is
// one. Close is idempotent; calls after the first succeed without doing
// anything. The returned error reports whether shutdown was clean; the
// source is considered closed either way.
func (s *Source) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true

	if s.closer != nil {
		return s.closer.Close()
	}
	return nil
}
