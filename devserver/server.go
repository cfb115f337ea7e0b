package devserver

import (
	"fmt"
	"html"
	"log"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/felixge/httpsnoop"
	"github.com/gorilla/mux"

	"github.com/pylon-ssg/pylon/broker"
	"github.com/pylon-ssg/pylon/paths"
)

// Server is the dev server's HTTP surface, spec.md §6. It owns nothing
// but a broker.Broker to query/mutate the engine and an EnginePaths to
// find files that aren't pages (static assets already copied to
// output_dir by a mount or a pipeline).
type Server struct {
	broker *broker.Broker
	paths  paths.EnginePaths
	hub    *hub
}

// New returns a Server. It starts forwarding b's broadcast messages to
// connected WebSocket clients immediately; call Handler to obtain the
// http.Handler to serve.
func New(b *broker.Broker, ep paths.EnginePaths) *Server {
	s := &Server{broker: b, paths: ep, hub: newHub()}
	go s.hub.pump(b.Broadcast())
	return s
}

// Handler builds the router: GET /ws for the live-reload socket, GET
// /<path> for everything else, matching s3gen's Site.Handler pattern of
// a single mux.Router with one catch-all PathPrefix route.
func (s *Server) Handler() http.Handler {
	router := mux.NewRouter()
	router.Handle("/ws", s.hub)
	router.PathPrefix("/").HandlerFunc(s.handlePage)
	return router
}

// Serve starts an HTTP server on address, grounded on s3gen's own
// Site.Serve/withLogger: httpsnoop-wrapped status/latency logging around
// the router, no extra timeouts configured.
func (s *Server) Serve(address string) error {
	srv := &http.Server{
		Handler: withLogger(s.Handler()),
		Addr:    address,
	}
	log.Printf("devserver: serving on %s", address)
	return srv.ListenAndServe()
}

func withLogger(handler http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m := httpsnoop.CaptureMetrics(handler, w, r)
		log.Printf("http[%d] %s -- %s", m.Code, m.Duration, r.URL.Path)
	})
}

// handlePage implements spec.md §6's GET /<path> routing table.
func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	reqPath := r.URL.Path

	if strings.HasSuffix(reqPath, "/") {
		reqPath += "index.html"
	} else if filepath.Ext(reqPath) == "" {
		http.Redirect(w, r, reqPath+"/", http.StatusSeeOther)
		return
	}

	result := s.broker.RenderPage(reqPath)
	if result.Err != nil {
		s.writeError(w, http.StatusInternalServerError, result.Err)
		return
	}
	if result.Page != nil {
		s.writeHtml(w, http.StatusOK, result.Page.Html)
		return
	}

	s.serveFromDisk(w, r, reqPath)
}

// serveFromDisk handles the "otherwise, serve the file from disk" branch
// of spec.md §6: a path the engine doesn't recognize as a search key,
// typically a static asset a mount or pipeline already copied into
// output_dir.
func (s *Server) serveFromDisk(w http.ResponseWriter, r *http.Request, reqPath string) {
	full := s.paths.AbsOutputDir().Join(strings.TrimPrefix(reqPath, "/")).String()
	contents, err := os.ReadFile(full)
	if os.IsNotExist(err) {
		s.writeError(w, http.StatusNotFound, fmt.Errorf("%s not found", reqPath))
		return
	}
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}

	if strings.EqualFold(filepath.Ext(full), ".html") {
		s.writeHtml(w, http.StatusOK, string(contents))
		return
	}

	if ct := mime.TypeByExtension(filepath.Ext(full)); ct != "" {
		w.Header().Set("Content-Type", ct)
	}
	w.WriteHeader(http.StatusOK)
	w.Write(contents)
}

func (s *Server) writeHtml(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	fmt.Fprint(w, body)
	fmt.Fprint(w, liveReloadScript)
}

// writeError renders the generic HTML error page spec.md §7 requires:
// the formatted error chain plus the live-reload script, so saving a fix
// to the source re-renders this same request automatically.
func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	fmt.Fprintf(w, "<html><body><h1>%d</h1><pre>%s</pre>", status, html.EscapeString(err.Error()))
	fmt.Fprint(w, liveReloadScript)
	fmt.Fprint(w, "</body></html>")
}
