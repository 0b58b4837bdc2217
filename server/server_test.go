package server

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/png"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/iotest"
	"time"

	"picedit/codec"
	"picedit/config"
	"picedit/raster"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func testServer(t *testing.T) *Server {
	t.Helper()
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "index.html"), []byte("<html>editor</html>"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Join(root, "build"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "build", "bundle.js"), []byte("console.log(1)"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := config.DefaultConfig()
	cfg.Server.ClientRoot = root
	cfg.Server.Gzip = false
	cfg.Optimize.Colors = 4
	return New(cfg, quiet)
}

func sampleURI(t *testing.T) string {
	t.Helper()
	b, err := raster.Blank(4, 2)
	if err != nil {
		t.Fatal(err)
	}
	for i := range b.Pix {
		b.Pix[i] = uint8(i * 9)
	}
	for i := 3; i < len(b.Pix); i += 4 {
		b.Pix[i] = 255
	}
	uri, err := codec.DataURI(b, "png")
	if err != nil {
		t.Fatal(err)
	}
	return uri
}

func do(t *testing.T, s *Server, method, target, contentType string, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func TestStaticFiles(t *testing.T) {
	s := testServer(t)

	w := do(t, s, http.MethodGet, "/", "", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "editor") {
		t.Errorf("expected index page, got %d %q", w.Code, w.Body.String())
	}

	w = do(t, s, http.MethodGet, "/build/bundle.js", "", "")
	if w.Code != http.StatusOK || w.Body.String() != "console.log(1)" {
		t.Errorf("expected bundle, got %d %q", w.Code, w.Body.String())
	}
}

func TestUnknownPathRedirects(t *testing.T) {
	s := testServer(t)

	w := do(t, s, http.MethodGet, "/gallery/42?x=1", "", "")
	if w.Code != http.StatusFound {
		t.Fatalf("expected %d, got %d", http.StatusFound, w.Code)
	}
	if got, want := w.Header().Get("Location"), "/#/gallery/42?x=1"; got != want {
		t.Errorf("expected location %q, got %q", want, got)
	}

	req := httptest.NewRequest(http.MethodGet, "/login", nil)
	req.Host = "evil.example"
	w = httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	if got := w.Header().Get("Location"); got != "/#/login" {
		t.Errorf("expected host independent location, got %q", got)
	}
}

func TestBodyErrors(t *testing.T) {
	s := testServer(t)
	s.cfg.Server.MaxBodyBytes = 16
	s = New(s.cfg, quiet)

	for _, target := range []string{"/submit", "/api", "/edit"} {
		w := do(t, s, http.MethodPost, target, "text/plain", strings.Repeat("a", 64))
		if w.Code != http.StatusRequestEntityTooLarge {
			t.Errorf("%s: expected 413 for oversized body, got %d", target, w.Code)
		}

		req := httptest.NewRequest(http.MethodPost, target, iotest.ErrReader(errors.New("connection reset")))
		w = httptest.NewRecorder()
		s.Handler().ServeHTTP(w, req)
		if w.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400 for broken body, got %d", target, w.Code)
		}
	}
}

func TestCORS(t *testing.T) {
	s := testServer(t)

	w := do(t, s, http.MethodOptions, "/submit", "", "")
	if w.Code != http.StatusNoContent {
		t.Errorf("expected %d for preflight, got %d", http.StatusNoContent, w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("expected wildcard origin, got %q", got)
	}
	if got := w.Header().Get("Access-Control-Allow-Methods"); !strings.Contains(got, "POST") {
		t.Errorf("expected POST in allowed methods, got %q", got)
	}
}

func TestAPIEcho(t *testing.T) {
	s := testServer(t)

	w := do(t, s, http.MethodPost, "/api", "application/json", `{"name":"graffiti"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp struct {
		Message string         `json:"message"`
		Data    map[string]any `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Message != "Successfully Submitted Data" || resp.Data["name"] != "graffiti" {
		t.Errorf("unexpected response %+v", resp)
	}

	w = do(t, s, http.MethodPost, "/api", "", "")
	if !strings.Contains(w.Body.String(), `"data":{}`) {
		t.Errorf("expected empty data object, got %s", w.Body.String())
	}

	w = do(t, s, http.MethodPost, "/api", "application/json", "{nope")
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for invalid JSON, got %d", w.Code)
	}
}

func TestSubmitOptimizes(t *testing.T) {
	s := testServer(t)
	uri := sampleURI(t)

	for name, tc := range map[string]struct {
		contentType string
		body        string
	}{
		"raw":         {"text/plain", uri},
		"json string": {"application/json", `"` + uri + `"`},
		"json object": {"application/json", `{"image":"` + uri + `"}`},
	} {
		t.Run(name, func(t *testing.T) {
			w := do(t, s, http.MethodPost, "/submit", tc.contentType, tc.body)
			if w.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
			}

			var resp submitResponse
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatal(err)
			}
			img, err := png.Decode(bytes.NewReader(resp.ImageSource))
			if err != nil {
				t.Fatalf("could not decode optimized image: %v", err)
			}
			p, ok := img.(*image.Paletted)
			if !ok {
				t.Fatalf("expected paletted image, got %T", img)
			}
			if len(p.Palette) > 4 {
				t.Errorf("expected at most 4 colors, got %d", len(p.Palette))
			}
		})
	}
}

func TestSubmitFailures(t *testing.T) {
	s := testServer(t)

	w := do(t, s, http.MethodPost, "/submit", "text/plain", "data:image/png;base64,AAAA")
	if w.Code == http.StatusOK {
		t.Error("expected failure for a payload that is not an image")
	}

	w = do(t, s, http.MethodPost, "/submit", "text/plain", "***")
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for invalid base64, got %d", w.Code)
	}

	w = do(t, s, http.MethodPost, "/submit", "application/json", `{}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for missing image, got %d", w.Code)
	}
}

func TestEdit(t *testing.T) {
	s := testServer(t)

	body, _ := json.Marshal(map[string]any{
		"image": sampleURI(t),
		"requests": []map[string]any{
			{"kind": "rotate", "degrees": 90},
			{"kind": "resize", "width": 4, "height": 8},
			{"kind": "greyscale"},
		},
	})
	w := do(t, s, http.MethodPost, "/edit", "application/json", string(body))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp editResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Width != 4 || resp.Height != 8 || resp.Rotation != 90 || resp.State != "exported" {
		t.Errorf("unexpected response %+v", resp)
	}

	out, format, err := codec.DecodeDataURI(resp.Image)
	if err != nil {
		t.Fatal(err)
	}
	if format != "png" || out.Width != 4 || out.Height != 8 {
		t.Errorf("unexpected image %s %dx%d", format, out.Width, out.Height)
	}
	if c := out.At(1, 1); c.R != c.G || c.G != c.B {
		t.Errorf("expected grey pixel, got %v", c)
	}
}

func TestEditErrors(t *testing.T) {
	s := testServer(t)
	uri := sampleURI(t)

	tests := []struct {
		name string
		body string
		want int
	}{
		{"bad json", "{", http.StatusBadRequest},
		{"bad image", `{"image":"data:image/png;base64,AAAA"}`, http.StatusUnprocessableEntity},
		{"bad angle", `{"image":"` + uri + `","requests":[{"kind":"rotate","degrees":45}]}`, http.StatusBadRequest},
		{"bad size", `{"image":"` + uri + `","requests":[{"kind":"resize","width":0,"height":3}]}`, http.StatusBadRequest},
		{"bad format", `{"image":"` + uri + `","format":"psd"}`, http.StatusBadRequest},
		{"bad kernel", `{"image":"` + uri + `","requests":[{"kind":"resize","width":2,"height":1,"kernel":"lanczos"}]}`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, s, http.MethodPost, "/edit", "application/json", tt.body)
			if w.Code != tt.want {
				t.Errorf("expected %d, got %d: %s", tt.want, w.Code, w.Body.String())
			}
		})
	}
}

func TestGzip(t *testing.T) {
	s := testServer(t)
	s.cfg.Server.Gzip = true
	s = New(s.cfg, quiet)

	req := httptest.NewRequest(http.MethodGet, "/build/bundle.js", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	if w.Header().Get("Content-Encoding") != "gzip" {
		t.Fatalf("expected gzip encoding, got %q", w.Header().Get("Content-Encoding"))
	}
	zr, err := gzip.NewReader(w.Body)
	if err != nil {
		t.Fatal(err)
	}
	data, err := io.ReadAll(zr)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "console.log(1)" {
		t.Errorf("unexpected body %q", data)
	}
}

func TestRecovery(t *testing.T) {
	h := Recovery(quiet)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", w.Code)
	}
}

func TestServeShutsDownOnCancel(t *testing.T) {
	s := testServer(t)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
