package api

import (
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/Czaporka/PyGnuplot/internal/db"
	"github.com/Czaporka/PyGnuplot/internal/gnuplot"
	"github.com/Czaporka/PyGnuplot/internal/models"
)

type FiguresHandler struct {
	db       *sql.DB
	registry *gnuplot.Registry
}

func NewFiguresHandler(db *sql.DB, registry *gnuplot.Registry) *FiguresHandler {
	return &FiguresHandler{db: db, registry: registry}
}

func (h *FiguresHandler) HandleList(w http.ResponseWriter, _ *http.Request) {
	currentID, _ := h.registry.Current()
	figures := []models.Figure{}
	for _, id := range h.registry.IDs() {
		handle, err := h.registry.Get(id)
		if err != nil {
			continue
		}
		figures = append(figures, h.describe(id, handle, id == currentID))
	}
	WriteJSON(w, http.StatusOK, figures)
}

func (h *FiguresHandler) describe(id int, handle gnuplot.Handle, current bool) models.Figure {
	fig := models.Figure{
		ID:       id,
		Terminal: handle.Terminal(),
		PID:      handle.PID(),
		Current:  current,
	}
	if created, err := db.FigureCreatedAt(h.db, id); err == nil {
		fig.CreatedAt = created
	}
	return fig
}

// HandleCreate selects figure "id", or creates the next one when id is
// omitted, and points it at its own terminal window.
func (h *FiguresHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ID *int `json:"id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
		WriteError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	existing := h.registry.IDs()
	id, figErr := h.registry.Figure(body.ID)

	// A new figure exists even when its "set term" failed, so record it
	// before looking at figErr.
	created := false
	if !slices.Contains(existing, id) {
		if handle, err := h.registry.Get(id); err == nil {
			created = true
			fig := models.Figure{ID: id, Terminal: handle.Terminal(), PID: handle.PID(), CreatedAt: time.Now().UTC()}
			if err := db.RecordFigure(h.db, fig); err != nil {
				log.Printf("api: %v", err)
			}
		}
	}
	if figErr != nil {
		WriteError(w, http.StatusInternalServerError, figErr.Error())
		return
	}
	handle, err := h.registry.Get(id)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.record(id, "set term "+handle.Terminal()+" "+strconv.Itoa(id))

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	WriteJSON(w, status, h.describe(id, handle, true))
}

// HandleCommand dispatches one command to the current figure.
func (h *FiguresHandler) HandleCommand(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Command string `json:"command"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if strings.ContainsAny(body.Command, "\r\n") {
		WriteError(w, http.StatusBadRequest, "command must be a single line")
		return
	}

	if err := h.dispatch(body.Command); err != nil {
		WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *FiguresHandler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		WriteError(w, http.StatusBadRequest, "invalid id")
		return
	}
	if _, err := h.registry.Get(id); err != nil {
		WriteError(w, http.StatusNotFound, err.Error())
		return
	}
	cmds, err := db.Commands(h.db, id)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	WriteJSON(w, http.StatusOK, cmds)
}

// dispatch sends command to the current figure and records it.
func (h *FiguresHandler) dispatch(command string) error {
	id, err := h.registry.Dispatch(command)
	if err != nil {
		return err
	}
	h.record(id, command)
	return nil
}

func (h *FiguresHandler) record(id int, command string) {
	if _, err := db.RecordCommand(h.db, id, command); err != nil {
		log.Printf("api: %v", err)
	}
}

// Sender returns a gnuplot.Sender that records what it dispatches.
func (h *FiguresHandler) Sender() gnuplot.Sender {
	return recordingSender{h}
}

type recordingSender struct{ h *FiguresHandler }

func (s recordingSender) Send(command string) error { return s.h.dispatch(command) }
