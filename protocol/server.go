package protocol

import (
	"schlangen.tv/arena/game"
	"schlangen.tv/arena/leaderboard"
)

// RoomInfo is the lobby view of a room, sent with every lobby change.
type RoomInfo struct {
	Code           string        `json:"code"`
	HostID         string        `json:"host_id"`
	State          string        `json:"state"`
	GameMode       game.Mode     `json:"game_mode"`
	MapSize        game.MapSize  `json:"map_size"`
	BarrierDensity game.Density  `json:"barrier_density"`
	TimeLimit      int           `json:"time_limit"`
	SeriesLength   int           `json:"series_length"`
	Players        []LobbyPlayer `json:"players"`
	MaxPlayers     int           `json:"max_players"`
	MinPlayers     int           `json:"min_players"`
	PlayerCount    int           `json:"player_count"`
	ReadyCount     int           `json:"ready_count"`
	CanStart       bool          `json:"can_start"`
	GameStarted    bool          `json:"game_started"`
	AICount        int           `json:"ai_count"`
	MinAICount     int           `json:"min_ai_count"`
	MaxAICount     int           `json:"max_ai_count"`
	AIDifficulties []string      `json:"ai_difficulties"`
	AINames        []string      `json:"ai_names"`
}

type LobbyPlayer struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Ready    bool   `json:"ready"`
	IsHost   bool   `json:"is_host,omitempty"`
	Quadrant int    `json:"quadrant"`
}

// RoomSummary is one row of the room browser.
type RoomSummary struct {
	Code       string    `json:"code"`
	Host       string    `json:"host"`
	GameMode   game.Mode `json:"game_mode"`
	Players    int       `json:"players"`
	MaxPlayers int       `json:"max_players"`
}

type Welcome struct {
	Envelope
	SessionID string `json:"session_id"`
	Version   string `json:"version"`
	Codec     string `json:"codec"`
}

type RoomCreated struct {
	Envelope
	Room     RoomInfo `json:"room"`
	PlayerID string   `json:"player_id"`
}

type RoomJoined struct {
	Envelope
	Room     RoomInfo `json:"room"`
	PlayerID string   `json:"player_id"`
}

type RoomLeft struct {
	Envelope
}

type RoomList struct {
	Envelope
	Rooms []RoomSummary `json:"rooms"`
}

type PlayerJoined struct {
	Envelope
	Player LobbyPlayer `json:"player"`
	Room   RoomInfo    `json:"room"`
}

type PlayerLeft struct {
	Envelope
	PlayerID string   `json:"player_id"`
	Room     RoomInfo `json:"room"`
}

type PlayerReady struct {
	Envelope
	PlayerID string   `json:"player_id"`
	Ready    bool     `json:"ready"`
	Room     RoomInfo `json:"room"`
}

type SettingsChanged struct {
	Envelope
	Room RoomInfo `json:"room"`
}

type RoomReset struct {
	Envelope
	Room RoomInfo `json:"room"`
}

// GameStarting opens the countdown. The initial state is always full.
type GameStarting struct {
	Envelope
	Countdown    int       `json:"countdown"`
	InitialState GameState `json:"initial_state"`
}

type GameStart struct {
	Envelope
	State GameState `json:"state"`
}

// StateUpdate is the per-tick game_state frame.
type StateUpdate struct {
	Envelope
	State GameState `json:"state"`
}

type PlayerDied struct {
	Envelope
	PlayerID  string  `json:"player_id"`
	KillerID  string  `json:"killer_id,omitempty"`
	Cause     string  `json:"cause"`
	Rank      int     `json:"rank,omitempty"`
	RespawnIn float64 `json:"respawn_in,omitempty"`
}

type PlayerRespawned struct {
	Envelope
	PlayerID string `json:"player_id"`
}

type RoundOver struct {
	Envelope
	Round        int            `json:"round"`
	WinnerID     string         `json:"winner_id,omitempty"`
	SeriesScores map[string]int `json:"series_scores"`
	NextRoundIn  float64        `json:"next_round_in"`
}

type GameOver struct {
	Envelope
	WinnerID     string         `json:"winner_id,omitempty"`
	SeriesScores map[string]int `json:"series_scores,omitempty"`
	FinalState   GameState      `json:"final_state"`
}

type ChatMessage struct {
	Envelope
	PlayerID   string `json:"player_id"`
	PlayerName string `json:"player_name"`
	Message    string `json:"message"`
}

type ErrorMessage struct {
	Envelope
	Message string `json:"message"`
}

type Leaderboard struct {
	Envelope
	Entries []leaderboard.Entry `json:"entries"`
}

type ScoreSubmitted struct {
	Envelope
	Rank        int                 `json:"rank"`
	Leaderboard []leaderboard.Entry `json:"leaderboard"`
}

type Profile struct {
	Envelope
	PlayerName string               `json:"player_name"`
	Found      bool                 `json:"found"`
	Profile    *leaderboard.Profile `json:"profile,omitempty"`
}

func (Welcome) Kind() Kind         { return MsgWelcome }
func (RoomCreated) Kind() Kind     { return MsgRoomCreated }
func (RoomJoined) Kind() Kind      { return MsgRoomJoined }
func (RoomLeft) Kind() Kind        { return MsgRoomLeft }
func (RoomList) Kind() Kind        { return MsgRoomList }
func (PlayerJoined) Kind() Kind    { return MsgPlayerJoined }
func (PlayerLeft) Kind() Kind      { return MsgPlayerLeft }
func (PlayerReady) Kind() Kind     { return MsgPlayerReady }
func (SettingsChanged) Kind() Kind { return MsgSettingsChanged }
func (RoomReset) Kind() Kind       { return MsgRoomReset }
func (GameStarting) Kind() Kind    { return MsgGameStarting }
func (GameStart) Kind() Kind       { return MsgGameStart }
func (StateUpdate) Kind() Kind     { return MsgGameState }
func (PlayerDied) Kind() Kind      { return MsgPlayerDied }
func (PlayerRespawned) Kind() Kind { return MsgPlayerRespawned }
func (RoundOver) Kind() Kind       { return MsgRoundOver }
func (GameOver) Kind() Kind        { return MsgGameOver }
func (ChatMessage) Kind() Kind     { return MsgChat }
func (ErrorMessage) Kind() Kind    { return MsgError }
func (Leaderboard) Kind() Kind     { return MsgLeaderboard }
func (ScoreSubmitted) Kind() Kind  { return MsgScoreSubmitted }
func (Profile) Kind() Kind         { return MsgProfile }
