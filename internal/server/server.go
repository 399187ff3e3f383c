package server

import (
	"database/sql"
	"net/http"

	"github.com/Czaporka/PyGnuplot/internal/api"
	"github.com/Czaporka/PyGnuplot/internal/gnuplot"
	"github.com/Czaporka/PyGnuplot/internal/models"
	"github.com/Czaporka/PyGnuplot/internal/ws"
)

type Server struct {
	mux      *http.ServeMux
	db       *sql.DB
	gnuplot  models.GnuplotStatus
	Registry *gnuplot.Registry
}

func New(db *sql.DB, status models.GnuplotStatus, registry *gnuplot.Registry) *Server {
	s := &Server{
		mux:      http.NewServeMux(),
		db:       db,
		gnuplot:  status,
		Registry: registry,
	}
	s.routes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) routes() {
	figures := api.NewFiguresHandler(s.db, s.Registry)
	wsHandler := ws.NewHandler(s.db, s.Registry)

	// Health
	s.mux.HandleFunc("GET /api/health", s.handleHealth)

	// Figures
	s.mux.HandleFunc("GET /api/figures", figures.HandleList)
	s.mux.HandleFunc("POST /api/figures", figures.HandleCreate)
	s.mux.HandleFunc("GET /api/figures/{id}/commands", figures.HandleHistory)

	// Commands to the current figure
	s.mux.HandleFunc("POST /api/command", figures.HandleCommand)
	s.mux.HandleFunc("POST /api/plot", figures.HandlePlot)
	s.mux.HandleFunc("POST /api/export", figures.HandleExport)

	// Data files
	s.mux.HandleFunc("POST /api/data", figures.HandleSave)

	// WebSocket console
	s.mux.Handle("GET /ws/figure/{id}", wsHandler)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	resp := models.HealthResponse{
		Status:  "ok",
		Gnuplot: s.gnuplot,
		Figures: len(s.Registry.IDs()),
	}
	api.WriteJSON(w, http.StatusOK, resp)
}
