// Package session keeps the state of one editing session: the current
// raster, its orientation and where in the edit lifecycle it is.
//
// A Session is not safe for concurrent use. Every toolbar action runs to
// completion before the next one is applied.
package session

import (
	"fmt"
	"io"
	"log/slog"

	"picedit/codec"
	"picedit/filter"
	"picedit/raster"
	"picedit/transform"
)

type State int

const (
	Loaded State = iota
	Rotated
	Resized
	Filtered
	Exported
)

func (s State) String() string {
	switch s {
	case Loaded:
		return "loaded"
	case Rotated:
		return "rotated"
	case Resized:
		return "resized"
	case Filtered:
		return "filtered"
	case Exported:
		return "exported"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

type Session struct {
	buf         *raster.Buffer
	orientation transform.Orientation
	state       State
	// exported is kept apart from state so that an export does not hide the
	// last edit.
	exported bool
	dialog   *ResizeDialog
	logger   *slog.Logger
}

func New(b *raster.Buffer, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{buf: b, logger: logger}
}

// Load decodes an image payload and opens a session on it.
func Load(r io.Reader, logger *slog.Logger) (*Session, error) {
	b, format, err := codec.Decode(r)
	if err != nil {
		return nil, err
	}

	s := New(b, logger)
	s.logger.Debug("image loaded", "format", format, "width", b.Width, "height", b.Height)
	return s, nil
}

func (s *Session) Buffer() *raster.Buffer {
	return s.buf
}

func (s *Session) Orientation() transform.Orientation {
	return s.orientation
}

// State reports the last edit applied, or Exported if the buffer has been
// exported since.
func (s *Session) State() State {
	if s.exported {
		return Exported
	}
	return s.state
}

// Apply runs req against the current buffer. On error the session is left
// untouched.
func (s *Session) Apply(req Request) error {
	logger := s.logger.With("request", req.Kind)

	switch req.Kind {
	case Rotate:
		o, err := s.orientation.Rotate(req.Degrees)
		if err != nil {
			return err
		}
		b, err := transform.Rotate(s.buf, req.Degrees)
		if err != nil {
			return err
		}
		logger.Debug("rotated", "degrees", req.Degrees, "orientation", o.Degrees())
		s.set(b, Rotated)
		s.orientation = o
	case Resize:
		interp, err := transform.Kernel(req.Kernel)
		if err != nil {
			return err
		}
		b, err := transform.Scale(s.buf, req.Width, req.Height, interp)
		if err != nil {
			return err
		}
		logger.Debug("resized", "width", b.Width, "height", b.Height)
		s.set(b, Resized)
	case Greyscale:
		filter.Greyscale(s.buf)
		logger.Debug("greyscale applied")
		s.set(s.buf, Filtered)
	default:
		return fmt.Errorf("unsupported request kind: %s", req.Kind)
	}
	return nil
}

// ApplyAll applies reqs in order and stops at the first failure.
func (s *Session) ApplyAll(reqs []Request) error {
	for i, req := range reqs {
		if err := s.Apply(req); err != nil {
			return fmt.Errorf("request %d (%s): %w", i, req.Kind, err)
		}
	}
	return nil
}

func (s *Session) set(b *raster.Buffer, st State) {
	s.buf = b
	s.state = st
	s.exported = false
}

// Export encodes the current buffer to w.
func (s *Session) Export(w io.Writer, format string) error {
	if err := codec.Encode(w, s.buf, format); err != nil {
		return err
	}
	s.exported = true
	return nil
}

// DataURI exports the current buffer as a data URI.
func (s *Session) DataURI(format string) (string, error) {
	uri, err := codec.DataURI(s.buf, format)
	if err != nil {
		return "", err
	}
	s.exported = true
	return uri, nil
}
