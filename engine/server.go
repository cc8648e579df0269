// Package engine serves the arena over HTTP: the /ws game gateway, the stats
// endpoints and the dashboard.
package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"slices"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"schlangen.tv/arena/config"
	"schlangen.tv/arena/leaderboard"
	"schlangen.tv/arena/room"
)

// Version can be set before starting the server.
var Version = "1.0.0"

// Server wires the room manager and leaderboard to an HTTP/WebSocket server.
type Server struct {
	Rooms *room.Manager
	Board *leaderboard.Store

	cfg      config.Config
	log      *slog.Logger
	upgrader websocket.Upgrader
	started  time.Time

	sessions    atomic.Int64
	peak        atomic.Int64
	totalJoins  atomic.Int64
	totalLeaves atomic.Int64
	bytesSent   atomic.Int64
	bytesRecv   atomic.Int64

	httpServer *http.Server
	listener   net.Listener
}

// NewServer opens the leaderboard under cfg.DataDir and creates the room
// manager. An empty DataDir keeps everything in memory.
func NewServer(cfg config.Config, log *slog.Logger) (*Server, error) {
	if log == nil {
		log = slog.Default()
	}
	board, err := leaderboard.Open(cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("open leaderboard: %w", err)
	}
	s := &Server{
		Board:   board,
		cfg:     cfg,
		log:     log,
		started: time.Now(),
	}
	s.Rooms = room.NewManager(RoomOptions(cfg), board, log)
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin:     checkOrigin(cfg.AllowedOrigins),
	}
	return s, nil
}

// RoomOptions maps the server configuration onto room options.
func RoomOptions(cfg config.Config) room.Options {
	return room.Options{
		TickHz:       cfg.TickHz,
		Countdown:    cfg.Countdown,
		Intermission: cfg.Intermission,
		MaxRooms:     cfg.MaxRooms,
		Tuning:       cfg.Game,
		Profiles:     cfg.AI,
	}
}

// checkOrigin allows every origin when the list is empty. Requests without
// an Origin header come from non-browser clients and are allowed.
func checkOrigin(allowed []string) func(*http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return len(allowed) == 0 || origin == "" || slices.Contains(allowed, origin)
	}
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/ws", s.HandleWS)
	mux.HandleFunc("/stats", s.HandleStats)
	mux.HandleFunc("/dashboard", HandleDashboard)

	mux.HandleFunc("/ping", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.WriteHeader(200)
		w.Write([]byte("ok"))
	})

	mux.HandleFunc("/api/rooms", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, s.Rooms.ListRooms())
	})

	mux.HandleFunc("/api/leaderboard", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, s.Board.Entries())
	})

	mux.HandleFunc("/api/profile", func(w http.ResponseWriter, r *http.Request) {
		p, ok := s.Board.Profile(r.URL.Query().Get("name"))
		if !ok {
			http.NotFound(w, r)
			return
		}
		writeJSON(w, p)
	})

	return mux
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	json.NewEncoder(w).Encode(v)
}

func (s *Server) logStartup(addr string) {
	s.log.Info("Schlangen.TV arena starting", "version", Version, "tickHz", s.cfg.TickHz)
	s.log.Info("Listening", "http", "http://"+addr, "ws", "ws://"+addr+"/ws", "dashboard", "http://"+addr+"/dashboard")
}

// Start starts the HTTP server in the background (non-blocking).
func (s *Server) Start(port int) error {
	addr := fmt.Sprintf("0.0.0.0:%d", port)
	s.httpServer = &http.Server{Addr: addr, Handler: s.Handler()}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	s.listener = ln

	s.logStartup(addr)

	go s.httpServer.Serve(ln)
	return nil
}

// ListenAndServe starts the HTTP server (blocks until error or shutdown).
func (s *Server) ListenAndServe(port int) error {
	addr := fmt.Sprintf("0.0.0.0:%d", port)
	s.httpServer = &http.Server{Addr: addr, Handler: s.Handler()}

	s.logStartup(addr)

	return s.httpServer.ListenAndServe()
}

// Shutdown stops accepting connections, waits for in-flight HTTP requests
// and stops every room.
func (s *Server) Shutdown(ctx context.Context) error {
	defer s.Rooms.Close()
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}

// Stop shuts the server down immediately.
func (s *Server) Stop() error {
	defer s.Rooms.Close()
	if s.httpServer != nil {
		return s.httpServer.Close()
	}
	return nil
}

// GetStatsJSON returns the current stats as a JSON string.
func (s *Server) GetStatsJSON() string {
	b, _ := json.Marshal(s.Stats())
	return string(b)
}

// LogStats writes a [STATS] line every interval until ctx is done.
func (s *Server) LogStats(ctx context.Context, every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			snap := s.Stats()
			s.log.Info("[STATS]", "uptime", snap.Uptime, "rooms", snap.Rooms, "games", snap.ActiveGames,
				"players", snap.CurrentPlayers, "sessions", snap.Sessions, "peak", snap.PeakSessions,
				"avgTickMs", snap.AvgTickMs, "maxTickMs", snap.MaxTickMs, "bwKBps", snap.BandwidthKBps)
		}
	}
}

func (s *Server) connected() {
	n := s.sessions.Add(1)
	s.totalJoins.Add(1)
	for {
		p := s.peak.Load()
		if n <= p || s.peak.CompareAndSwap(p, n) {
			return
		}
	}
}

func (s *Server) disconnected() {
	s.sessions.Add(-1)
	s.totalLeaves.Add(1)
}
