package ws

import (
	"database/sql"
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/Czaporka/PyGnuplot/internal/db"
	"github.com/Czaporka/PyGnuplot/internal/gnuplot"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true // Local-only server
	},
}

// resizeMsg is a control message; any other text is gnuplot input.
type resizeMsg struct {
	Type string `json:"type"`
	Data struct {
		Rows uint16 `json:"rows"`
		Cols uint16 `json:"cols"`
	} `json:"data"`
}

// Handler is an interactive console for one figure. Every line received is
// sent to that figure's gnuplot; captured output is streamed back when the
// figure runs under a pseudo-terminal.
type Handler struct {
	db       *sql.DB
	registry *gnuplot.Registry
}

func NewHandler(db *sql.DB, registry *gnuplot.Registry) *Handler {
	return &Handler{db: db, registry: registry}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	figureID, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		http.Error(w, "invalid figure id", http.StatusBadRequest)
		return
	}

	if _, err := h.registry.Select(figureID); err != nil {
		log.Printf("ws: select figure %d: %v", figureID, err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	handle, err := h.registry.Get(figureID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws: upgrade failed for figure %d: %v", figureID, err)
		return
	}
	defer conn.Close()

	log.Printf("ws: client connected to figure %d", figureID)

	var writeMu sync.Mutex
	send := func(msgType int, data []byte) error {
		writeMu.Lock()
		defer writeMu.Unlock()
		return conn.WriteMessage(msgType, data)
	}

	var wg sync.WaitGroup
	done := make(chan struct{})

	if out, ok := handle.(gnuplot.OutputHandle); ok {
		// Send replay buffer first so late viewers see earlier output
		if replay := out.Replay(); len(replay) > 0 {
			if err := send(websocket.BinaryMessage, replay); err != nil {
				log.Printf("ws: replay send failed: %v", err)
				return
			}
		}

		outputCh, unsub := out.Subscribe()
		defer unsub()

		// gnuplot output -> WebSocket
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case data, ok := <-outputCh:
					if !ok {
						return
					}
					if err := send(websocket.BinaryMessage, data); err != nil {
						log.Printf("ws: write to client failed: %v", err)
						return
					}
				case <-done:
					return
				}
			}
		}()
	}

	// WebSocket -> gnuplot, one command per line
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer close(done)
		for {
			msgType, msg, err := conn.ReadMessage()
			if err != nil {
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					log.Printf("ws: read from client failed: %v", err)
				}
				return
			}
			if msgType == websocket.TextMessage {
				var resize resizeMsg
				if json.Unmarshal(msg, &resize) == nil && resize.Type == "resize" {
					if rs, ok := handle.(gnuplot.Resizer); ok {
						if err := rs.Resize(resize.Data.Rows, resize.Data.Cols); err != nil {
							log.Printf("ws: resize figure %d: %v", figureID, err)
						}
					}
					continue
				}
			}
			for _, line := range splitCommands(string(msg)) {
				if err := h.registry.SendTo(figureID, line); err != nil {
					log.Printf("ws: figure %d: %v", figureID, err)
					send(websocket.TextMessage, []byte("error: "+err.Error()))
					continue
				}
				if _, err := db.RecordCommand(h.db, figureID, line); err != nil {
					log.Printf("ws: %v", err)
				}
			}
		}
	}()

	// Wait for gnuplot to exit or the WebSocket to close
	select {
	case <-done:
		log.Printf("ws: client disconnected from figure %d", figureID)
	case <-handle.Done():
		log.Printf("ws: gnuplot for figure %d exited", figureID)
		send(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "gnuplot exited"))
		conn.Close()
	}
	wg.Wait()
}

// splitCommands breaks a message into non-empty command lines.
func splitCommands(msg string) []string {
	var out []string
	for _, line := range strings.Split(msg, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		out = append(out, line)
	}
	return out
}
