package api

import (
	"encoding/json"
	"net/http"

	"github.com/Czaporka/PyGnuplot/internal/gnuplot"
	"github.com/Czaporka/PyGnuplot/internal/models"
)

type columnsBody struct {
	Columns  [][]float64 `json:"columns"`
	Filename string      `json:"filename"`
}

func decodeColumns(w http.ResponseWriter, r *http.Request) (columnsBody, bool) {
	var body columnsBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid JSON")
		return body, false
	}
	if len(body.Columns) == 0 {
		WriteError(w, http.StatusBadRequest, "columns is required")
		return body, false
	}
	return body, true
}

// HandleSave writes columns to a data file on the server's disk.
func (h *FiguresHandler) HandleSave(w http.ResponseWriter, r *http.Request) {
	body, ok := decodeColumns(w, r)
	if !ok {
		return
	}
	filename := body.Filename
	if filename == "" {
		filename = gnuplot.DefaultDataFile
	}
	if err := gnuplot.SaveData(filename, body.Columns); err != nil {
		WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	WriteJSON(w, http.StatusCreated, map[string]string{"filename": filename})
}

// HandlePlot writes columns to a temp file and plots it on the current figure.
func (h *FiguresHandler) HandlePlot(w http.ResponseWriter, r *http.Request) {
	body, ok := decodeColumns(w, r)
	if !ok {
		return
	}
	name, err := gnuplot.Plot(h.Sender(), body.Columns)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	WriteJSON(w, http.StatusCreated, map[string]string{"filename": name})
}

// HandleExport replots the current figure into a PostScript or PDF file.
func (h *FiguresHandler) HandleExport(w http.ResponseWriter, r *http.Request) {
	var body models.ExportRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if body.Term == "" {
		_, current := h.registry.Current()
		body.Term = current.Terminal()
	}
	opts := gnuplot.ExportOptions{
		Filename: body.Filename,
		Width:    body.Width,
		Height:   body.Height,
		FontSize: body.FontSize,
		Term:     body.Term,
	}

	var export func(gnuplot.Sender, gnuplot.ExportOptions) error
	switch body.Format {
	case "ps", "postscript":
		export = gnuplot.PostScript
		if opts.Filename == "" {
			opts.Filename = gnuplot.DefaultPostScriptFile
		}
	case "pdf":
		export = gnuplot.PDF
		if opts.Filename == "" {
			opts.Filename = gnuplot.DefaultPDFFile
		}
	default:
		WriteError(w, http.StatusBadRequest, "format must be 'ps' or 'pdf'")
		return
	}

	if err := export(h.Sender(), opts); err != nil {
		WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	WriteJSON(w, http.StatusCreated, map[string]string{"filename": opts.Filename})
}
