package server

import (
	"net/http"
	"os"
	"path"
	"path/filepath"
)

// static serves files from the client root. Paths that do not name a file
// are redirected to the client's hash route so the single page app can
// resolve them.
func (s *Server) static() http.Handler {
	root := s.cfg.Server.ClientRoot
	files := http.FileServer(http.Dir(root))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			w.Header().Set("Allow", "GET, HEAD")
			http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
			return
		}

		name := path.Clean("/" + r.URL.Path)
		if exists(filepath.Join(root, filepath.FromSlash(name))) {
			files.ServeHTTP(w, r)
			return
		}

		target := "/#" + r.URL.RequestURI()
		s.logger.Debug("redirecting unknown path", "path", r.URL.Path, "to", target)
		w.Header().Set("Location", target)
		w.WriteHeader(http.StatusFound)
	})
}

func exists(name string) bool {
	info, err := os.Stat(name)
	if err != nil {
		return false
	}
	if info.IsDir() {
		_, err = os.Stat(filepath.Join(name, "index.html"))
		return err == nil
	}
	return true
}
