// Package mobile provides gomobile-compatible bindings for embedding
// the arena server in iOS/tvOS/Android applications.
//
// All exported functions use only primitive types (int, string, error)
// to satisfy gomobile's type restrictions.
package mobile

import (
	"fmt"
	"log/slog"
	"net"
	"os"
	"sync"

	"schlangen.tv/arena/config"
	"schlangen.tv/arena/engine"
)

var (
	srv  *engine.Server
	mu   sync.Mutex
	port int
)

// Start initializes and starts the arena server on the given port.
// Leaderboard and profiles live in dataDir; pass "" to keep them in memory.
// The server runs in the background. Call Stop() to shut it down.
func Start(serverPort int, dataDir string) error {
	mu.Lock()
	defer mu.Unlock()

	if srv != nil {
		return fmt.Errorf("server already running")
	}

	cfg := config.Default()
	cfg.Port = serverPort
	cfg.DataDir = dataDir
	cfg.Validate()

	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.Level()}))
	s, err := engine.NewServer(cfg, log)
	if err != nil {
		return err
	}
	if err := s.Start(cfg.Port); err != nil {
		return err
	}
	srv = s
	port = cfg.Port
	return nil
}

// Stop shuts down the running server.
func Stop() {
	mu.Lock()
	defer mu.Unlock()

	if srv != nil {
		srv.Stop()
		srv = nil
	}
}

// IsRunning returns true if the server is currently running.
func IsRunning() bool {
	mu.Lock()
	defer mu.Unlock()
	return srv != nil
}

// GetStats returns the current server stats as a JSON string.
func GetStats() string {
	mu.Lock()
	s := srv
	mu.Unlock()

	if s == nil {
		return "{}"
	}
	return s.GetStatsJSON()
}

// GetLocalIP returns the device's local network IP address.
func GetLocalIP() string {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return "unknown"
	}
	for _, addr := range addrs {
		if ipNet, ok := addr.(*net.IPNet); ok && !ipNet.IP.IsLoopback() && ipNet.IP.To4() != nil {
			return ipNet.IP.String()
		}
	}
	return "unknown"
}

// GetConnectURL returns the websocket URL players connect to.
func GetConnectURL() string {
	mu.Lock()
	p := port
	mu.Unlock()

	return fmt.Sprintf("ws://%s:%d/ws", GetLocalIP(), p)
}

// GetVersion returns the server version string.
func GetVersion() string {
	return engine.Version
}
