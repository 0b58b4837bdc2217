package session

import (
	"log/slog"

	"picedit/filter"
)

// Details is the image information report shown by the editor.
type Details struct {
	Width    int          `json:"width"`
	Height   int          `json:"height"`
	Rotation int          `json:"rotation"`
	State    string       `json:"state"`
	Stats    filter.Stats `json:"stats"`
}

func (s *Session) Details() Details {
	return Details{
		Width:    s.buf.Width,
		Height:   s.buf.Height,
		Rotation: s.orientation.Degrees(),
		State:    s.State().String(),
		Stats:    filter.Measure(s.buf),
	}
}

// LogDetails writes the details report to logger, or the session logger
// when nil.
func (s *Session) LogDetails(logger *slog.Logger) Details {
	if logger == nil {
		logger = s.logger
	}

	d := s.Details()
	logger.Info("image details",
		slog.Int("width", d.Width),
		slog.Int("height", d.Height),
		slog.Int("rotation", d.Rotation),
		slog.String("state", d.State),
		slog.Group("mean",
			"red", d.Stats.Red.Mean,
			"green", d.Stats.Green.Mean,
			"blue", d.Stats.Blue.Mean,
			"alpha", d.Stats.Alpha.Mean,
			"luma", d.Stats.Luma.Mean,
		),
		slog.Bool("grey", d.Stats.Grey),
	)
	return d
}
