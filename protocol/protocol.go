// Package protocol is the wire contract between the arena server and its
// clients: flat envelopes discriminated by a "type" field, one struct per
// message kind, and the GameState projection sent full once and as deltas
// afterwards.
package protocol

// Kind is the value of an envelope's "type" field.
type Kind string

// client -> server
const (
	MsgCreateRoom     Kind = "create_room"
	MsgJoinRoom       Kind = "join_room"
	MsgLeaveRoom      Kind = "leave_room"
	MsgReady          Kind = "ready"
	MsgSetSettings    Kind = "set_settings"
	MsgStartGame      Kind = "start_game"
	MsgInput          Kind = "input"
	MsgReturnToLobby  Kind = "return_to_lobby"
	MsgListRooms      Kind = "list_rooms"
	MsgSubmitScore    Kind = "submit_score"
	MsgGetLeaderboard Kind = "get_leaderboard"
	MsgGetProfile     Kind = "get_profile"
)

// MsgChat travels both ways.
const MsgChat Kind = "chat"

// server -> client
const (
	MsgWelcome         Kind = "welcome"
	MsgRoomCreated     Kind = "room_created"
	MsgRoomJoined      Kind = "room_joined"
	MsgRoomLeft        Kind = "room_left"
	MsgRoomList        Kind = "room_list"
	MsgPlayerJoined    Kind = "player_joined"
	MsgPlayerLeft      Kind = "player_left"
	MsgPlayerReady     Kind = "player_ready"
	MsgSettingsChanged Kind = "settings_changed"
	MsgRoomReset       Kind = "room_reset"
	MsgGameStarting    Kind = "game_starting"
	MsgGameStart       Kind = "game_start"
	MsgGameState       Kind = "game_state"
	MsgPlayerDied      Kind = "player_died"
	MsgPlayerRespawned Kind = "player_respawned"
	MsgRoundOver       Kind = "round_over"
	MsgGameOver        Kind = "game_over"
	MsgError           Kind = "error"
	MsgLeaderboard     Kind = "leaderboard"
	MsgScoreSubmitted  Kind = "score_submitted"
	MsgProfile         Kind = "profile"
)

// ClientKinds lists every kind a client may send.
var ClientKinds = []Kind{
	MsgCreateRoom, MsgJoinRoom, MsgLeaveRoom, MsgReady, MsgSetSettings,
	MsgStartGame, MsgInput, MsgChat, MsgReturnToLobby, MsgListRooms,
	MsgSubmitScore, MsgGetLeaderboard, MsgGetProfile,
}

// Envelope is embedded in every message so the discriminator sits at the
// top level of the encoded object.
type Envelope struct {
	Type Kind `json:"type"`
}

func (e *Envelope) stamp(k Kind) { e.Type = k }

// Limits applied to client-supplied text.
const (
	MaxNameLen = 16
	MaxChatLen = 200
)
