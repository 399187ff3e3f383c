package main

import (
	"bufio"
	"context"
	"database/sql"
	"embed"
	"errors"
	"flag"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Czaporka/PyGnuplot/internal/config"
	"github.com/Czaporka/PyGnuplot/internal/db"
	"github.com/Czaporka/PyGnuplot/internal/gnuplot"
	"github.com/Czaporka/PyGnuplot/internal/models"
	"github.com/Czaporka/PyGnuplot/internal/preflight"
	"github.com/Czaporka/PyGnuplot/internal/repl"
	"github.com/Czaporka/PyGnuplot/internal/server"
	"github.com/Czaporka/PyGnuplot/internal/tunnel"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

func main() {
	args := os.Args[1:]
	mode := "serve"
	if len(args) > 0 && (args[0] == "repl" || args[0] == "serve") {
		mode, args = args[0], args[1:]
	}

	cfg, err := config.Load(args)
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	reg, err := gnuplot.NewRegistry(newLauncher(cfg), cfg.Term)
	if err != nil {
		log.Fatalf("Failed to start gnuplot: %v", err)
	}

	// Subcommand dispatch: "pygnuplot repl" drives figures from stdin
	if mode == "repl" {
		if err := repl.Run(reg, os.Stdin, os.Stderr); err != nil {
			log.Fatalf("REPL failed: %v", err)
		}
		return
	}

	if err := serve(cfg, reg); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
	fmt.Println("Server stopped.")
}

func newLauncher(cfg config.Config) gnuplot.Launcher {
	if cfg.PTY {
		return gnuplot.NewPTYLauncher(cfg.GnuplotPath, cfg.GnuplotArgs...)
	}
	return gnuplot.NewExecLauncher(cfg.GnuplotPath, cfg.GnuplotArgs...)
}

func serve(cfg config.Config, reg *gnuplot.Registry) error {
	fmt.Println("PyGnuplot - gnuplot figure server")
	fmt.Println("=================================")
	fmt.Println()

	fmt.Println("Running preflight checks...")
	status := preflight.CheckGnuplot(cfg.GnuplotPath)
	fmt.Println()

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer database.Close()

	migration, err := migrationsFS.ReadFile("migrations/001_initial.sql")
	if err != nil {
		return fmt.Errorf("read migrations: %w", err)
	}
	if err := db.Migrate(database, string(migration)); err != nil {
		return err
	}
	recordSeedFigure(database, reg)

	srv := server.New(database, status, reg)

	addr := fmt.Sprintf("127.0.0.1:%d", cfg.Port)
	httpSrv := &http.Server{
		Addr:    addr,
		Handler: loggingMiddleware(recoveryMiddleware(srv)),
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		fmt.Printf("Server running at http://%s\n", addr)
		if err := httpSrv.ListenAndServe(); err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	// Graceful shutdown. gnuplot windows stay open because of -p.
	g.Go(func() error {
		<-ctx.Done()
		fmt.Println("\nShutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	})

	if cfg.GatewayURL != "" {
		client := tunnel.NewClient(cfg.GatewayURL, cfg.GatewaySecret, addr)
		g.Go(func() error {
			if err := client.Run(ctx); !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}

	return g.Wait()
}

func recordSeedFigure(database *sql.DB, reg *gnuplot.Registry) {
	id, h := reg.Current()
	fig := models.Figure{ID: id, Terminal: h.Terminal(), PID: h.PID(), CreatedAt: time.Now().UTC()}
	if err := db.RecordFigure(database, fig); err != nil {
		log.Printf("Failed to record figure %d: %v", id, err)
	}
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, status: 200}
		next.ServeHTTP(rw, r)

		// Console sessions are long-lived; their end time is not interesting
		if r.Header.Get("Upgrade") == "websocket" {
			return
		}

		log.Printf("%s %s %d %s", r.Method, r.URL.Path, rw.status, time.Since(start).Round(time.Millisecond))
	})
}

func recoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				log.Printf("PANIC: %s %s: %v", r.Method, r.URL.Path, err)
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

// Implement http.Hijacker so WebSocket upgrades work through the middleware.
func (rw *responseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if hj, ok := rw.ResponseWriter.(http.Hijacker); ok {
		return hj.Hijack()
	}
	return nil, nil, fmt.Errorf("underlying ResponseWriter does not implement http.Hijacker")
}
