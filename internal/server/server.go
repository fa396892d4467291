// Package server is the local development server for a planet project:
// the solved planet document, rendered maps, the validation report,
// regeneration on demand and a live websocket progress stream.
package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"sync"

	"github.com/google/uuid"

	"tellus/internal/catalog"
	"tellus/pkg/gen"
	"tellus/pkg/habitability"
	"tellus/pkg/raster"
	"tellus/pkg/spec"
)

// Server serves one planet project directory.
type Server struct {
	projectPath string
	port        int

	// Catalog enables the /api/catalog endpoints and save-on-generate.
	// Set before Start; the caller owns the store.
	Catalog *catalog.Store

	hub *progressHub

	mu     sync.RWMutex
	planet *gen.Planet

	genMu sync.Mutex
}

// New creates a server for the given project directory.
func New(projectPath string, port int) *Server {
	return &Server{
		projectPath: projectPath,
		port:        port,
		hub:         newProgressHub(),
	}
}

// Start generates the project's planet and launches the HTTP server.
// A planet that fails validation still serves; the report explains it.
func (s *Server) Start() error {
	if _, err := s.regenerate(); err != nil {
		if s.current() == nil {
			return err
		}
		log.Printf("Generation failed: %v", err)
	}

	addr := fmt.Sprintf(":%d", s.port)
	log.Printf("Tellus server starting on http://localhost%s", addr)
	log.Printf("Project: %s", s.projectPath)

	return http.ListenAndServe(addr, s.routes())
}

// Close shuts down the progress hub. The HTTP listener is owned by Start.
func (s *Server) Close() error {
	s.hub.close()
	return nil
}

func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/planet", s.handlePlanet)
	mux.HandleFunc("GET /api/spec", s.handleSpec)
	mux.HandleFunc("GET /api/validation", s.handleValidation)
	mux.HandleFunc("GET /api/maps/{field}", s.handleMap)
	mux.HandleFunc("POST /api/generate", s.handleGenerate)
	mux.HandleFunc("GET /api/catalog", s.handleCatalogList)
	mux.HandleFunc("GET /api/catalog/{id}", s.handleCatalogLoad)
	mux.HandleFunc("GET /ws/progress", s.handleProgress)
	mux.HandleFunc("GET /", s.handleIndex)

	return mux
}

// regenerate reloads the project spec and rebuilds the planet, keeping
// whatever partial result comes back so the report stays inspectable.
func (s *Server) regenerate() (*gen.Planet, error) {
	s.genMu.Lock()
	defer s.genMu.Unlock()

	ps, err := spec.LoadProject(s.projectPath)
	if err != nil {
		return nil, err
	}
	p, err := gen.Generate(ps, gen.Options{OnProgress: s.hub.notify})
	if p != nil {
		s.mu.Lock()
		s.planet = p
		s.mu.Unlock()
	}
	return p, err
}

func (s *Server) current() *gen.Planet {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.planet
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html")
	fmt.Fprint(w, `<!DOCTYPE html>
<html><head><title>Tellus</title></head>
<body style="margin:0;background:#111;color:#fff;font-family:system-ui;padding:2rem">
<h1>Tellus</h1>
<p>Planet: <a href="/api/planet">/api/planet</a> &middot;
<a href="/api/validation">/api/validation</a> &middot;
<a href="/api/spec">/api/spec</a> &middot;
<a href="/api/catalog">/api/catalog</a> &middot;
<code>ws://&hellip;/ws/progress</code></p>
<p>Maps:`)
	for _, f := range raster.Fields() {
		fmt.Fprintf(w, ` <a href="/api/maps/%s">%s</a>`, f, f)
	}
	fmt.Fprint(w, `</p>
<p>POST <code>/api/generate</code> to rebuild from the project file.</p>
</body></html>`)
}

func (s *Server) handlePlanet(w http.ResponseWriter, _ *http.Request) {
	p := s.current()
	if p == nil {
		http.Error(w, "no planet generated", http.StatusNotFound)
		return
	}
	writeJSON(w, p)
}

func (s *Server) handleSpec(w http.ResponseWriter, _ *http.Request) {
	p := s.current()
	if p == nil {
		http.Error(w, "no planet generated", http.StatusNotFound)
		return
	}
	writeJSON(w, p.Spec)
}

func (s *Server) handleValidation(w http.ResponseWriter, _ *http.Request) {
	p := s.current()
	if p == nil {
		http.Error(w, "no planet generated", http.StatusNotFound)
		return
	}
	writeJSON(w, p.Report)
}

func (s *Server) handleMap(w http.ResponseWriter, r *http.Request) {
	p := s.current()
	if p == nil || p.Grid == nil {
		http.Error(w, "no planet generated", http.StatusNotFound)
		return
	}

	opts := raster.Options{Field: raster.Field(r.PathValue("field"))}
	q := r.URL.Query()
	if v := q.Get("projection"); v != "" {
		opts.Projection = raster.Projection(v)
	}
	if v := q.Get("width"); v != "" {
		px, err := strconv.Atoi(v)
		if err != nil || px <= 0 {
			http.Error(w, "bad width", http.StatusBadRequest)
			return
		}
		opts.WidthPx = px
	}
	opts.Hillshade = boolParam(q.Get("hillshade"))
	opts.Rivers = boolParam(q.Get("rivers"))

	img, err := raster.Render(p.World(), opts)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var buf bytes.Buffer
	if err := raster.EncodePNG(&buf, img); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Write(buf.Bytes())
}

func boolParam(v string) bool {
	return v == "1" || v == "true"
}

type generateResult struct {
	Name         string  `json:"name"`
	Seed         int64   `json:"seed"`
	Regime       string  `json:"regime"`
	AvgTempK     float64 `json:"avg_temp_k"`
	Habitable    bool    `json:"habitable"`
	Habitability string  `json:"habitability"`
	Saved        bool    `json:"saved,omitempty"`
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	p, err := s.regenerate()
	if err != nil {
		if p != nil && p.Report != nil && !p.Report.Valid {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnprocessableEntity)
			json.NewEncoder(w).Encode(p.Report)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	saved := false
	if boolParam(r.URL.Query().Get("save")) && s.Catalog != nil {
		if _, err := s.Catalog.Save(p); err != nil {
			log.Printf("Catalog save failed: %v", err)
		} else {
			saved = true
		}
	}

	writeJSON(w, generateResult{
		Name:         p.Body.Name,
		Seed:         p.Body.Seed,
		Regime:       string(p.Regime),
		AvgTempK:     p.Climate.AvgTempK,
		Habitable:    p.Habitability == habitability.None,
		Habitability: p.Habitability.String(),
		Saved:        saved,
	})
}

func (s *Server) handleCatalogList(w http.ResponseWriter, r *http.Request) {
	if s.Catalog == nil {
		http.Error(w, "catalog not enabled", http.StatusNotFound)
		return
	}

	var (
		sums []catalog.Summary
		err  error
	)
	if boolParam(r.URL.Query().Get("habitable")) {
		sums, err = s.Catalog.Habitable()
	} else {
		sums, err = s.Catalog.List(0)
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if sums == nil {
		sums = []catalog.Summary{}
	}
	writeJSON(w, sums)
}

func (s *Server) handleCatalogLoad(w http.ResponseWriter, r *http.Request) {
	if s.Catalog == nil {
		http.Error(w, "catalog not enabled", http.StatusNotFound)
		return
	}

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, "bad planet id", http.StatusBadRequest)
		return
	}
	e, err := s.Catalog.Load(id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	writeJSON(w, e)
}

func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}
	s.hub.registerClient(conn)
	defer s.hub.unregisterClient(conn)

	// Clients only listen; the read loop just detects disconnect.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
