package session

import (
	"errors"
	"fmt"

	"picedit/transform"
)

var (
	ErrDialogClosed     = errors.New("resize dialog already closed")
	ErrResizeInProgress = errors.New("a resize is already in progress")
)

type DialogState int

const (
	Previewing DialogState = iota
	Confirmed
	Cancelled
)

func (d DialogState) String() string {
	switch d {
	case Previewing:
		return "previewing"
	case Confirmed:
		return "confirmed"
	case Cancelled:
		return "cancelled"
	}
	return fmt.Sprintf("DialogState(%d)", int(d))
}

// ResizeDialog follows a drag-to-resize interaction. The preview is kept
// at the buffer's aspect ratio and strictly smaller than the buffer, like
// the on-canvas resizer it models. Bounds follow the session's current
// buffer, so edits made while the dialog is open are taken into account.
// Confirm resizes the session once.
type ResizeDialog struct {
	s      *Session
	state  DialogState
	width  int
	height int
	kernel string
}

// BeginResize opens the resize dialog. Only one dialog can be open per
// session.
func (s *Session) BeginResize(kernel string) (*ResizeDialog, error) {
	if s.dialog != nil && s.dialog.state == Previewing {
		return nil, ErrResizeInProgress
	}
	if _, err := transform.Kernel(kernel); err != nil {
		return nil, err
	}

	d := &ResizeDialog{s: s, kernel: kernel}
	d.width, d.height = d.fit(s.buf.Width, s.buf.Height)
	s.dialog = d
	return d, nil
}

// fit clamps a requested size into the current bounds and locks it to the
// current aspect ratio.
func (d *ResizeDialog) fit(width, height int) (int, int) {
	b := d.s.buf
	maxW, maxH := max(b.Width-1, 1), max(b.Height-1, 1)
	width, height = min(max(width, 1), maxW), min(max(height, 1), maxH)
	fw, fh := transform.Fit(b.Width, b.Height, width, height)
	return min(fw, maxW), min(fh, maxH)
}

func (d *ResizeDialog) State() DialogState {
	return d.state
}

// Size returns the previewed target size.
func (d *ResizeDialog) Size() (int, int) {
	if d.state == Previewing {
		return d.fit(d.width, d.height)
	}
	return d.width, d.height
}

// Drag updates the preview from a free-form drag size.
func (d *ResizeDialog) Drag(width, height int) (int, int, error) {
	if d.state != Previewing {
		return d.width, d.height, ErrDialogClosed
	}

	d.width, d.height = d.fit(width, height)
	return d.width, d.height, nil
}

// Confirm applies the previewed resize to the session. A failed resize
// leaves the dialog open.
func (d *ResizeDialog) Confirm() error {
	if d.state != Previewing {
		return ErrDialogClosed
	}

	w, h := d.fit(d.width, d.height)
	if err := d.s.Apply(Request{Kind: Resize, Width: w, Height: h, Kernel: d.kernel}); err != nil {
		return err
	}
	d.width, d.height = w, h
	d.state = Confirmed
	return nil
}

func (d *ResizeDialog) Cancel() error {
	if d.state != Previewing {
		return ErrDialogClosed
	}
	d.state = Cancelled
	return nil
}
