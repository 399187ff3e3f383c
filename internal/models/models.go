package models

import "time"

type Figure struct {
	ID        int       `json:"id"`
	Terminal  string    `json:"terminal"`
	PID       int       `json:"pid"`
	Current   bool      `json:"current"`
	CreatedAt time.Time `json:"created_at"`
}

type Command struct {
	ID       string    `json:"id"`
	FigureID int       `json:"figure_id"`
	Command  string    `json:"command"`
	SentAt   time.Time `json:"sent_at"`
}

type GnuplotStatus struct {
	Installed bool   `json:"installed"`
	Path      string `json:"path,omitempty"`
}

type HealthResponse struct {
	Status  string        `json:"status"`
	Gnuplot GnuplotStatus `json:"gnuplot"`
	Figures int           `json:"figures"`
}

// ExportRequest describes a PostScript or PDF export.
type ExportRequest struct {
	Format   string  `json:"format"` // "ps" or "pdf"
	Filename string  `json:"filename"`
	Width    float64 `json:"width"`
	Height   float64 `json:"height"`
	FontSize float64 `json:"fontsize"`
	Term     string  `json:"term"`
}
