package room

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"slices"
	"strings"
	"sync"
	"sync/atomic"

	"schlangen.tv/arena/game"
	"schlangen.tv/arena/protocol"
)

// CodePrefix starts every room code.
const CodePrefix = "SNAKE-"

const codeChars = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// Manager holds the rooms by code. Rooms are removed when the last human
// leaves.
type Manager struct {
	mu    sync.RWMutex
	rooms map[string]*Room

	opts     Options
	recorder Recorder
	log      *slog.Logger
	started  atomic.Int64
	entropy  io.Reader
}

func NewManager(opts Options, rec Recorder, log *slog.Logger) *Manager {
	if log == nil {
		log = slog.Default()
	}
	return &Manager{
		rooms:    make(map[string]*Room),
		opts:     opts,
		recorder: rec,
		log:      log,
		entropy:  rand.Reader,
	}
}

// Create opens a room with host as its first member.
func (m *Manager) Create(mode game.Mode, host Member) (*Room, error) {
	m.mu.Lock()
	if m.opts.MaxRooms > 0 && len(m.rooms) >= m.opts.MaxRooms {
		m.mu.Unlock()
		return nil, ErrTooManyRooms
	}
	code, seed, err := m.identity()
	if err != nil {
		m.mu.Unlock()
		return nil, fmt.Errorf("create room: %w", err)
	}
	r := New(code, mode, m.opts, m.recorder, seed, m.log)
	r.OnEmpty = m.removeRoom
	r.OnStart = func() { m.started.Add(1) }
	m.rooms[code] = r
	m.mu.Unlock()

	go r.Run()
	if err := r.Join(host, true); err != nil {
		m.removeRoom(code)
		return nil, err
	}
	m.log.Info("[ROOM] created", "room", code, "mode", r.Summary().Mode, "host", host.ID)
	return r, nil
}

// Get looks a room up by code. Codes are matched case-insensitively and
// the prefix may be omitted.
func (m *Manager) Get(code string) (*Room, error) {
	m.mu.RLock()
	r := m.rooms[NormalizeCode(code)]
	m.mu.RUnlock()
	if r == nil {
		return nil, ErrRoomNotFound
	}
	return r, nil
}

// Join adds member to the room with the given code.
func (m *Manager) Join(code string, member Member) (*Room, error) {
	r, err := m.Get(code)
	if err != nil {
		return nil, err
	}
	if err := r.Join(member, false); err != nil {
		return nil, err
	}
	return r, nil
}

func (m *Manager) removeRoom(code string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.rooms[code]; ok {
		r.Stop()
		delete(m.rooms, code)
	}
}

// ListRooms returns the joinable rooms: waiting in the lobby with a free
// seat.
func (m *Manager) ListRooms() []protocol.RoomSummary {
	m.mu.RLock()
	out := make([]protocol.RoomSummary, 0, len(m.rooms))
	for _, r := range m.rooms {
		s := r.Summary()
		if s.Phase != PhaseWaiting || s.Players >= s.MaxPlayers {
			continue
		}
		out = append(out, protocol.RoomSummary{
			Code:       s.Code,
			Host:       s.Host,
			GameMode:   s.Mode,
			Players:    s.Players,
			MaxPlayers: s.MaxPlayers,
		})
	}
	m.mu.RUnlock()
	slices.SortFunc(out, func(a, b protocol.RoomSummary) int { return strings.Compare(a.Code, b.Code) })
	return out
}

// Stats aggregates the room summaries.
type Stats struct {
	Rooms        int     `json:"rooms"`
	ActiveGames  int     `json:"activeGames"`
	Players      int     `json:"players"`
	GamesStarted int64   `json:"gamesStarted"`
	AvgTickMs    float64 `json:"avgTickMs"`
	MaxTickMs    float64 `json:"maxTickMs"`
}

func (m *Manager) Stats() Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()
	st := Stats{Rooms: len(m.rooms), GamesStarted: m.started.Load()}
	var sum float64
	for _, r := range m.rooms {
		s := r.Summary()
		st.Players += s.Players
		if s.Phase != PhaseWaiting {
			st.ActiveGames++
			sum += s.AvgTickMs
		}
		st.MaxTickMs = max(st.MaxTickMs, s.MaxTickMs)
	}
	if st.ActiveGames > 0 {
		st.AvgTickMs = sum / float64(st.ActiveGames)
	}
	return st
}

// Close stops every room.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for code, r := range m.rooms {
		r.Stop()
		delete(m.rooms, code)
	}
}

// NormalizeCode upper-cases a code and adds the prefix if missing.
func NormalizeCode(code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	if !strings.HasPrefix(code, CodePrefix) {
		code = CodePrefix + code
	}
	return code
}

// identity draws an unused code and a world seed. Caller holds mu.
func (m *Manager) identity() (string, uint64, error) {
	code, err := generateCode(m.entropy, 4)
	for err == nil && m.rooms[code] != nil {
		code, err = generateCode(m.entropy, 4)
	}
	if err != nil {
		return "", 0, err
	}
	seed, err := randomSeed(m.entropy)
	return code, seed, err
}

func generateCode(r io.Reader, n int) (string, error) {
	b := make([]byte, n)
	max := big.NewInt(int64(len(codeChars)))
	for i := range b {
		idx, err := rand.Int(r, max)
		if err != nil {
			return "", fmt.Errorf("room code: %w", err)
		}
		b[i] = codeChars[idx.Int64()]
	}
	return CodePrefix + string(b), nil
}

func randomSeed(r io.Reader) (uint64, error) {
	var b [8]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, fmt.Errorf("room seed: %w", err)
	}
	return binary.LittleEndian.Uint64(b[:]), nil
}
