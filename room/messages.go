package room

import (
	"schlangen.tv/arena/game"
	"schlangen.tv/arena/protocol"
)

// Conn is a client connection as the room sees it. Send must not block.
type Conn interface {
	Send(m protocol.ServerMessage) error
	Close() error
}

// Member is a human joining a room.
type Member struct {
	ID   string
	Name string
	Conn Conn
}

// Commands accepted on Room.Inbox. Replies, where present, are buffered.

type Join struct {
	Member Member
	Host   bool
	Reply  chan<- error
}

type Leave struct {
	PlayerID string
	Notify   bool // send room_left to the leaver
}

type SetReady struct {
	PlayerID string
	Ready    bool
}

type ChangeSettings struct {
	PlayerID string
	Update   protocol.SetSettings
	Reply    chan<- error
}

type Start struct {
	PlayerID string
	Reply    chan<- error
}

type Steer struct {
	PlayerID  string
	Direction game.Direction
}

type Say struct {
	PlayerID string
	Text     string
}

type ReturnToLobby struct {
	PlayerID string
	Reply    chan<- error
}
