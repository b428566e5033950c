package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/juju/clock"
	"github.com/juju/errors"

	"github.com/theoremus-urban-solutions/gtfsrt-stoptime-updater/converter"
	"github.com/theoremus-urban-solutions/gtfsrt-stoptime-updater/gtfs"
	"github.com/theoremus-urban-solutions/gtfsrt-stoptime-updater/timetable"
)

// SnapshotSource is the reader side of updater.Publisher.
type SnapshotSource interface {
	GetSnapshot() *timetable.Snapshot
	Current() *timetable.Snapshot
}

// Reporter exposes ingestion counters; updater.Worker implements it.
type Reporter interface {
	Report() map[string]any
}

// Config defines the operation of a Server.
type Config struct {
	Port      int
	Snapshots SnapshotSource
	Index     *gtfs.Index
	Converter *converter.Converter
	Reporter  Reporter // optional

	Clock  clock.Clock
	Logger *slog.Logger
}

// Validate returns an error if config cannot drive a Server.
func (config Config) Validate() error {
	if config.Snapshots == nil {
		return errors.NotValidf("nil Snapshots")
	}
	if config.Index == nil {
		return errors.NotValidf("nil Index")
	}
	if config.Converter == nil {
		return errors.NotValidf("nil Converter")
	}
	if config.Port < 0 || config.Port > 65535 {
		return errors.NotValidf("port %d", config.Port)
	}
	return nil
}

// Server serves published snapshots over HTTP.
type Server struct {
	config Config
	logger *slog.Logger
	http   *http.Server
}

func New(config Config) (*Server, error) {
	if err := config.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	if config.Clock == nil {
		config.Clock = clock.WallClock
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	s := &Server{config: config, logger: config.Logger}
	s.http = &http.Server{
		Addr:              fmt.Sprintf(":%d", config.Port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s, nil
}

// Handler returns the HTTP routes of the server.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("GET /api/siri/estimated-timetable.json", s.handleEstimatedTimetableJSON)
	mux.HandleFunc("GET /api/siri/estimated-timetable.xml", s.handleEstimatedTimetableXML)
	return mux
}

// Start listens on the configured port and serves in the background.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.http.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.http.Addr, err)
	}
	go func() {
		if err := s.http.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.logger.Error("server error", "error", err)
		}
	}()
	s.logger.Info("server listening", "addr", ln.Addr().String())
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
