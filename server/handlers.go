package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"picedit/codec"
	"picedit/optimize"
	"picedit/raster"
	"picedit/session"
	"picedit/transform"
)

func (s *Server) readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.cfg.Server.MaxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("could not read request body: %w", err)
	}
	return body, nil
}

// bodyStatus is the response status for a readBody error.
func bodyStatus(err error) int {
	if errors.As(err, new(*http.MaxBytesError)) {
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusBadRequest
}

func isJSON(r *http.Request) bool {
	mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return mt == "application/json"
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

type submitResponse struct {
	ImageSource []byte `json:"imagesource"`
}

// handleSubmit optimises an uploaded data URI. The payload is either the
// raw request body or, for JSON requests, a JSON string or an object with
// an "image" field.
func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	logger := s.logger.With("handler", "submit")

	body, err := s.readBody(w, r)
	if err != nil {
		logger.Error("could not read payload", "error", err)
		writeError(w, bodyStatus(err), err)
		return
	}

	payload := string(body)
	if isJSON(r) {
		if payload, err = jsonPayload(body); err != nil {
			logger.Error("could not parse payload", "error", err)
			writeError(w, http.StatusBadRequest, err)
			return
		}
	}

	bitmap, err := codec.DecodeBase64(payload)
	if err != nil {
		logger.Error("could not decode payload", "error", err)
		writeError(w, http.StatusBadRequest, err)
		return
	}
	logger.Info("got the image bitmap", "bytes", len(bitmap))

	out, err := optimize.PNG(bitmap, s.cfg.Optimize)
	if err != nil {
		logger.Error("could not optimize image", "error", err)
		status := http.StatusInternalServerError
		if errors.Is(err, codec.ErrDecode) {
			status = http.StatusUnprocessableEntity
		}
		writeError(w, status, err)
		return
	}
	logger.Info("got the optimized bitmap", "bytes", len(out), "saved", len(bitmap)-len(out))

	writeJSON(w, http.StatusOK, submitResponse{ImageSource: out})
}

func jsonPayload(body []byte) (string, error) {
	body = bytes.TrimSpace(body)
	if len(body) > 0 && body[0] == '"' {
		var s string
		if err := json.Unmarshal(body, &s); err != nil {
			return "", fmt.Errorf("invalid JSON string: %w", err)
		}
		return s, nil
	}

	var req struct {
		Image string `json:"image"`
	}
	if err := json.Unmarshal(body, &req); err != nil {
		return "", fmt.Errorf("invalid JSON body: %w", err)
	}
	if req.Image == "" {
		return "", errors.New("missing image field")
	}
	return req.Image, nil
}

// handleAPI acknowledges any submitted JSON body by echoing it back.
func (s *Server) handleAPI(w http.ResponseWriter, r *http.Request) {
	body, err := s.readBody(w, r)
	if err != nil {
		writeError(w, bodyStatus(err), err)
		return
	}

	data := json.RawMessage("{}")
	if trimmed := bytes.TrimSpace(body); len(trimmed) > 0 {
		if !json.Valid(trimmed) {
			writeError(w, http.StatusBadRequest, errors.New("invalid JSON body"))
			return
		}
		data = trimmed
	}

	s.logger.Info("successfully submitted data", "bytes", len(body))
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Successfully Submitted Data",
		"data":    data,
	})
}

type editRequest struct {
	Image    string            `json:"image"`
	Requests []session.Request `json:"requests"`
	Format   string            `json:"format"`
}

type editResponse struct {
	Image    string `json:"image"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	Rotation int    `json:"rotation"`
	State    string `json:"state"`
}

// handleEdit runs a sequence of editor requests on one image in a fresh
// session.
func (s *Server) handleEdit(w http.ResponseWriter, r *http.Request) {
	logger := s.logger.With("handler", "edit")

	body, err := s.readBody(w, r)
	if err != nil {
		writeError(w, bodyStatus(err), err)
		return
	}

	var req editRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid edit request: %w", err))
		return
	}

	b, _, err := codec.DecodeDataURI(req.Image)
	if err != nil {
		logger.Error("could not decode image", "error", err)
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	}

	sess := session.New(b, logger)
	if err := sess.ApplyAll(req.Requests); err != nil {
		logger.Warn("could not apply requests", "error", err)
		writeError(w, editStatus(err), err)
		return
	}

	format := req.Format
	if format == "" {
		format = s.cfg.Editor.ExportFormat
	}
	uri, err := sess.DataURI(strings.ToLower(format))
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, codec.ErrUnsupportedFormat) {
			status = http.StatusBadRequest
		}
		writeError(w, status, err)
		return
	}

	out := sess.Buffer()
	writeJSON(w, http.StatusOK, editResponse{
		Image:    uri,
		Width:    out.Width,
		Height:   out.Height,
		Rotation: sess.Orientation().Degrees(),
		State:    sess.State().String(),
	})
}

func editStatus(err error) int {
	switch {
	case errors.Is(err, transform.ErrUnsupportedAngle),
		errors.Is(err, transform.ErrUnknownKernel),
		errors.Is(err, raster.ErrInvalidDimensions),
		errors.Is(err, raster.ErrSizeMismatch),
		errors.Is(err, raster.ErrOutOfBounds):
		return http.StatusBadRequest
	}
	return http.StatusUnprocessableEntity
}
