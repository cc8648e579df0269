package protocol

import (
	"fmt"

	"schlangen.tv/arena/game"
)

// ClientMessage is a decoded client request. The gateway dispatches on the
// concrete type.
type ClientMessage interface {
	Kind() Kind
}

type CreateRoom struct {
	PlayerName string    `json:"player_name"`
	GameType   string    `json:"game_type,omitempty"`
	GameMode   game.Mode `json:"game_mode,omitempty"`
}

type JoinRoom struct {
	RoomCode   string `json:"room_code"`
	PlayerName string `json:"player_name"`
}

type LeaveRoom struct{}

// Ready defaults to true when the field is absent.
type Ready struct {
	Ready *bool `json:"ready,omitempty"`
}

func (m Ready) Value() bool { return m.Ready == nil || *m.Ready }

// SetSettings carries only the fields the host changed.
type SetSettings struct {
	GameMode       *game.Mode    `json:"game_mode,omitempty"`
	MapSize        *game.MapSize `json:"map_size,omitempty"`
	BarrierDensity *game.Density `json:"barrier_density,omitempty"`
	TimeLimit      *int          `json:"time_limit,omitempty"`
	SeriesLength   *int          `json:"series_length,omitempty"`
	AICount        *int          `json:"ai_count,omitempty"`
	AIDifficulties []string      `json:"ai_difficulties,omitempty"`
	AINames        []string      `json:"ai_names,omitempty"`
}

type StartGame struct{}

type Input struct {
	Direction string `json:"direction"`
}

// Dir parses the requested direction.
func (m Input) Dir() (game.Direction, bool) { return game.ParseDirection(m.Direction) }

func (m Input) validate() error {
	if _, ok := m.Dir(); !ok {
		return fmt.Errorf("bad direction %q", m.Direction)
	}
	return nil
}

type Chat struct {
	Message string `json:"message"`
}

type ReturnToLobby struct{}

type ListRooms struct{}

type SubmitScore struct {
	PlayerName string `json:"player_name"`
	Score      int    `json:"score"`
	GameType   string `json:"game_type,omitempty"`
	GameMode   string `json:"game_mode,omitempty"`
}

type GetLeaderboard struct{}

type GetProfile struct {
	PlayerName string `json:"player_name"`
}

func (CreateRoom) Kind() Kind     { return MsgCreateRoom }
func (JoinRoom) Kind() Kind       { return MsgJoinRoom }
func (LeaveRoom) Kind() Kind      { return MsgLeaveRoom }
func (Ready) Kind() Kind          { return MsgReady }
func (SetSettings) Kind() Kind    { return MsgSetSettings }
func (StartGame) Kind() Kind      { return MsgStartGame }
func (Input) Kind() Kind          { return MsgInput }
func (Chat) Kind() Kind           { return MsgChat }
func (ReturnToLobby) Kind() Kind  { return MsgReturnToLobby }
func (ListRooms) Kind() Kind      { return MsgListRooms }
func (SubmitScore) Kind() Kind    { return MsgSubmitScore }
func (GetLeaderboard) Kind() Kind { return MsgGetLeaderboard }
func (GetProfile) Kind() Kind     { return MsgGetProfile }

type validator interface {
	validate() error
}

type decoder func(c Codec, b []byte) (ClientMessage, error)

func decodeAs[T ClientMessage](c Codec, b []byte) (ClientMessage, error) {
	var m T
	if err := c.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	if v, ok := any(m).(validator); ok {
		if err := v.validate(); err != nil {
			return nil, err
		}
	}
	return m, nil
}

var decoders = map[Kind]decoder{
	MsgCreateRoom:     decodeAs[CreateRoom],
	MsgJoinRoom:       decodeAs[JoinRoom],
	MsgLeaveRoom:      decodeAs[LeaveRoom],
	MsgReady:          decodeAs[Ready],
	MsgSetSettings:    decodeAs[SetSettings],
	MsgStartGame:      decodeAs[StartGame],
	MsgInput:          decodeAs[Input],
	MsgChat:           decodeAs[Chat],
	MsgReturnToLobby:  decodeAs[ReturnToLobby],
	MsgListRooms:      decodeAs[ListRooms],
	MsgSubmitScore:    decodeAs[SubmitScore],
	MsgGetLeaderboard: decodeAs[GetLeaderboard],
	MsgGetProfile:     decodeAs[GetProfile],
}

// Decode reads one client frame. Every failure is a *Error.
func Decode(c Codec, b []byte) (ClientMessage, error) {
	if len(b) == 0 {
		return nil, &Error{Err: fmt.Errorf("%w: empty frame", ErrMalformed)}
	}
	var env Envelope
	if err := c.Unmarshal(b, &env); err != nil {
		return nil, &Error{Err: fmt.Errorf("%w: %v", ErrMalformed, err)}
	}
	dec, ok := decoders[env.Type]
	if !ok {
		return nil, &Error{Kind: env.Type, Err: ErrUnknownKind}
	}
	m, err := dec(c, b)
	if err != nil {
		return nil, &Error{Kind: env.Type, Err: fmt.Errorf("%w: %v", ErrMalformed, err)}
	}
	return m, nil
}
