package engine

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"schlangen.tv/arena/protocol"
	"schlangen.tv/arena/room"
)

const (
	writeWait  = 5 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second
)

var (
	errSessionClosed = errors.New("session closed")
	errSlowClient    = errors.New("send buffer full")
)

// ---------------------------------------------------------------------------
// Session
// ---------------------------------------------------------------------------

// Session is one websocket connection. Its id doubles as the player id.
// Everything but Send and Close belongs to the read goroutine.
type Session struct {
	ID string

	srv       *Server
	conn      *websocket.Conn
	codec     protocol.Codec
	sendCh    chan []byte
	done      chan struct{}
	closeOnce sync.Once

	room *room.Room
}

// ---------------------------------------------------------------------------
// WebSocket handler
// ---------------------------------------------------------------------------

// HandleWS upgrades the request and serves the session until it closes.
// Clients pick the frame encoding with ?codec=msgpack; JSON is the default.
func (s *Server) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Debug("[WS] upgrade failed", "remote", r.RemoteAddr, "err", err)
		return
	}

	sess := &Session{
		ID:     uuid.NewString(),
		srv:    s,
		conn:   conn,
		codec:  protocol.CodecFor(r.URL.Query().Get("codec")),
		sendCh: make(chan []byte, s.cfg.SendBuffer),
		done:   make(chan struct{}),
	}
	s.connected()
	s.log.Info("[WS] connected", "session", sess.ID, "remote", r.RemoteAddr, "codec", sess.codec.Name())

	go sess.writePump()
	sess.Send(&protocol.Welcome{SessionID: sess.ID, Version: Version, Codec: sess.codec.Name()})

	// Reader blocks here until disconnect
	sess.readPump()

	sess.leaveRoom(false)
	sess.Close()
	s.disconnected()
	s.log.Debug("[WS] disconnected", "session", sess.ID)
}

// Send queues a frame. It never blocks: a client whose buffer is full is
// disconnected.
func (s *Session) Send(m protocol.ServerMessage) error {
	data, err := protocol.Encode(s.codec, m)
	if err != nil {
		return fmt.Errorf("encode %s: %w", m.Kind(), err)
	}
	select {
	case <-s.done:
		return errSessionClosed
	default:
	}
	select {
	case s.sendCh <- data:
		return nil
	default:
		s.srv.log.Debug("[WS] send buffer full, closing", "session", s.ID)
		s.Close()
		return errSlowClient
	}
}

func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		close(s.done)
		s.conn.Close()
	})
	return nil
}

// ---------------------------------------------------------------------------
// Read pump - one goroutine per session, reads client messages
// ---------------------------------------------------------------------------

func (s *Session) readPump() {
	s.conn.SetReadLimit(s.srv.cfg.ReadLimit)
	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.srv.log.Debug("[WS] unexpected close", "session", s.ID, "err", err)
			} else {
				s.srv.log.Debug("[WS] closed", "session", s.ID, "err", err)
			}
			return
		}
		s.srv.bytesRecv.Add(int64(len(data)))
		s.conn.SetReadDeadline(time.Now().Add(pongWait))

		msg, err := protocol.Decode(s.codec, data)
		if err == nil {
			err = s.dispatch(msg)
		}
		if err != nil {
			s.srv.log.Debug("[WS] rejected", "session", s.ID, "err", err)
			s.Send(&protocol.ErrorMessage{Message: userMessage(err)})
		}
	}
}

// ---------------------------------------------------------------------------
// Write pump - one goroutine per session, sends messages to the client
// ---------------------------------------------------------------------------

func (s *Session) writePump() {
	pingTicker := time.NewTicker(pingPeriod)
	defer pingTicker.Stop()

	frame := websocket.TextMessage
	if s.codec.Binary() {
		frame = websocket.BinaryMessage
	}
	for {
		select {
		case msg := <-s.sendCh:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(frame, msg); err != nil {
				s.Close()
				return
			}
			s.srv.bytesSent.Add(int64(len(msg)))
		case <-pingTicker.C:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				s.Close()
				return
			}
		case <-s.done:
			return
		}
	}
}

// ---------------------------------------------------------------------------
// Dispatch
// ---------------------------------------------------------------------------

func (s *Session) member(name string) room.Member {
	if name = strings.TrimSpace(name); name == "" {
		name = "Player"
	}
	return room.Member{ID: s.ID, Name: name, Conn: s}
}

func (s *Session) dispatch(msg protocol.ClientMessage) error {
	switch m := msg.(type) {
	case protocol.CreateRoom:
		s.leaveRoom(false)
		r, err := s.srv.Rooms.Create(m.GameMode, s.member(m.PlayerName))
		if err != nil {
			return err
		}
		s.room = r
	case protocol.JoinRoom:
		s.leaveRoom(false)
		r, err := s.srv.Rooms.Join(m.RoomCode, s.member(m.PlayerName))
		if err != nil {
			return err
		}
		s.room = r
	case protocol.LeaveRoom:
		if s.room == nil {
			return room.ErrNotInRoom
		}
		s.leaveRoom(true)
	case protocol.ListRooms:
		return s.Send(&protocol.RoomList{Rooms: s.srv.Rooms.ListRooms()})
	case protocol.GetLeaderboard:
		return s.Send(&protocol.Leaderboard{Entries: s.srv.Board.Entries()})
	case protocol.SubmitScore:
		name := strings.TrimSpace(m.PlayerName)
		if name == "" {
			name = "Player"
		}
		rank, err := s.srv.Board.Submit(name, m.Score, m.GameType, m.GameMode)
		if err != nil {
			s.srv.log.Warn("[WS] leaderboard save failed", "err", err)
		}
		return s.Send(&protocol.ScoreSubmitted{Rank: rank, Leaderboard: s.srv.Board.Entries()})
	case protocol.GetProfile:
		out := &protocol.Profile{PlayerName: m.PlayerName}
		if p, ok := s.srv.Board.Profile(m.PlayerName); ok {
			out.Found, out.Profile = true, &p
		}
		return s.Send(out)
	default:
		return s.roomCommand(msg)
	}
	return nil
}

// roomCommand forwards a lobby or in-game command to the session's room.
func (s *Session) roomCommand(msg protocol.ClientMessage) error {
	r := s.room
	if r == nil {
		return room.ErrNotInRoom
	}
	var err error
	switch m := msg.(type) {
	case protocol.Ready:
		err = s.post(room.SetReady{PlayerID: s.ID, Ready: m.Value()})
	case protocol.SetSettings:
		err = r.ChangeSettings(s.ID, m)
	case protocol.StartGame:
		err = r.Start(s.ID)
	case protocol.Input:
		d, _ := m.Dir()
		err = s.post(room.Steer{PlayerID: s.ID, Direction: d})
	case protocol.Chat:
		err = s.post(room.Say{PlayerID: s.ID, Text: m.Message})
	case protocol.ReturnToLobby:
		err = r.ReturnToLobby(s.ID)
	default:
		return fmt.Errorf("%w: %s", protocol.ErrUnknownKind, msg.Kind())
	}
	if errors.Is(err, room.ErrRoomNotFound) {
		s.room = nil
		return room.ErrNotInRoom
	}
	return err
}

func (s *Session) post(cmd any) error {
	if !s.room.Post(cmd) {
		return room.ErrRoomNotFound
	}
	return nil
}

func (s *Session) leaveRoom(notify bool) {
	if s.room == nil {
		return
	}
	s.room.Post(room.Leave{PlayerID: s.ID, Notify: notify})
	s.room = nil
}

// userErrors are shown to players verbatim, capitalized.
var userErrors = []error{
	room.ErrRoomNotFound,
	room.ErrRoomFull,
	room.ErrGameInProgress,
	room.ErrNotHost,
	room.ErrNotReady,
	room.ErrPlayerCount,
	room.ErrNotInRoom,
	room.ErrTooManyRooms,
}

// userMessage is the text of the error frame sent for err.
func userMessage(err error) string {
	var perr *protocol.Error
	if errors.As(err, &perr) {
		if errors.Is(err, protocol.ErrUnknownKind) {
			return fmt.Sprintf("Unknown message type %q", perr.Kind)
		}
		if perr.Kind != "" {
			return fmt.Sprintf("Invalid %s message", perr.Kind)
		}
		return "Invalid message"
	}
	for _, e := range userErrors {
		if errors.Is(err, e) {
			return capitalize(e.Error())
		}
	}
	return "Internal server error"
}

func capitalize(s string) string {
	r, n := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + s[n:]
}
