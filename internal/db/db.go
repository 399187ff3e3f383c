package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/Czaporka/PyGnuplot/internal/models"
)

// Open opens (creating if needed) the SQLite database at path.
func Open(path string) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	database, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// SQLite allows a single writer
	database.SetMaxOpenConns(1)
	if err := database.Ping(); err != nil {
		database.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	return database, nil
}

// Migrate runs a migration script. Scripts must be idempotent.
func Migrate(database *sql.DB, migration string) error {
	if _, err := database.Exec(migration); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// RecordFigure stores or refreshes a figure row.
func RecordFigure(database *sql.DB, fig models.Figure) error {
	_, err := database.Exec(`INSERT INTO figures (id, terminal, pid, created_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET terminal = excluded.terminal, pid = excluded.pid, created_at = excluded.created_at`,
		fig.ID, fig.Terminal, fig.PID, fig.CreatedAt)
	if err != nil {
		return fmt.Errorf("record figure %d: %w", fig.ID, err)
	}
	return nil
}

// FigureCreatedAt returns when figure id was last recorded.
func FigureCreatedAt(database *sql.DB, id int) (time.Time, error) {
	var t time.Time
	err := database.QueryRow(`SELECT created_at FROM figures WHERE id = ?`, id).Scan(&t)
	return t, err
}

// RecordCommand appends a dispatched command to figureID's history.
func RecordCommand(database *sql.DB, figureID int, command string) (models.Command, error) {
	c := models.Command{
		ID:       uuid.New().String(),
		FigureID: figureID,
		Command:  command,
		SentAt:   time.Now().UTC(),
	}
	_, err := database.Exec(`INSERT INTO commands (id, figure_id, command, sent_at) VALUES (?, ?, ?, ?)`,
		c.ID, c.FigureID, c.Command, c.SentAt)
	if err != nil {
		return c, fmt.Errorf("record command: %w", err)
	}
	return c, nil
}

// Commands returns figureID's history, oldest first.
func Commands(database *sql.DB, figureID int) ([]models.Command, error) {
	rows, err := database.Query(`SELECT id, figure_id, command, sent_at FROM commands
		WHERE figure_id = ? ORDER BY rowid`, figureID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cmds := []models.Command{}
	for rows.Next() {
		var c models.Command
		if err := rows.Scan(&c.ID, &c.FigureID, &c.Command, &c.SentAt); err != nil {
			return nil, err
		}
		cmds = append(cmds, c)
	}
	return cmds, rows.Err()
}
