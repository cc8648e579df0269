// Package room runs game rooms. Each room owns one goroutine that handles
// lobby commands from its Inbox and advances the world on a ticker, so no
// room state is ever shared.
package room

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"schlangen.tv/arena/ai"
	"schlangen.tv/arena/game"
	"schlangen.tv/arena/leaderboard"
	"schlangen.tv/arena/protocol"
)

type Phase string

const (
	PhaseWaiting   Phase = "waiting"
	PhaseCountdown Phase = "countdown"
	PhaseRunning   Phase = "running"
	PhaseRoundOver Phase = "round_over"
	PhaseGameOver  Phase = "game_over"
)

// maxStep caps a single Advance so a stalled process does not teleport
// snakes across the map.
const maxStep = 0.25

type Options struct {
	TickHz       int
	Countdown    float64
	Intermission float64
	MaxRooms     int
	Tuning       game.Tuning
	Profiles     ai.Profiles
}

func DefaultOptions() Options {
	return Options{
		TickHz:       20,
		Countdown:    3,
		Intermission: 5,
		MaxRooms:     200,
		Tuning:       game.DefaultTuning(),
		Profiles:     ai.DefaultProfiles(),
	}
}

// Recorder receives the results of finished games.
type Recorder interface {
	RecordGame(leaderboard.Result) error
	RecordDuel(leaderboard.DuelResult) error
}

// Summary is an immutable view of a room, safe to read from any goroutine.
type Summary struct {
	Code       string
	Host       string
	Mode       game.Mode
	Phase      Phase
	Players    int
	MaxPlayers int
	Games      int
	AvgTickMs  float64
	MaxTickMs  float64
}

type member struct {
	Member
	ready  bool
	synced bool // has received a full snapshot of the current round
}

type Room struct {
	Code  string
	Inbox chan any

	// OnEmpty is called from the room goroutine once the last human leaves.
	OnEmpty func(code string)
	// OnStart is called from the room goroutine whenever a game starts.
	OnStart func()

	log      *slog.Logger
	opts     Options
	recorder Recorder
	rng      game.Rand

	members  []*member
	host     string
	settings Settings
	phase    Phase
	timer    float64
	world    *game.World
	last     time.Time
	games    int

	tickDurations [60]time.Duration
	tickDurIdx    int
	maxTick       time.Duration

	summary  atomic.Pointer[Summary]
	quit     chan struct{}
	stopOnce sync.Once
}

func New(code string, mode game.Mode, opts Options, rec Recorder, seed uint64, log *slog.Logger) *Room {
	if log == nil {
		log = slog.Default()
	}
	r := &Room{
		Code:     code,
		Inbox:    make(chan any, 64),
		log:      log,
		opts:     opts,
		recorder: rec,
		rng:      game.NewRand(seed),
		settings: defaultSettings(mode).normalize(0),
		phase:    PhaseWaiting,
		quit:     make(chan struct{}),
	}
	r.publish()
	return r
}

// Run processes commands and ticks until Stop is called.
func (r *Room) Run() {
	hz := r.opts.TickHz
	if hz <= 0 {
		hz = 20
	}
	ticker := time.NewTicker(time.Second / time.Duration(hz))
	defer ticker.Stop()
	for {
		select {
		case <-r.quit:
			return
		case cmd := <-r.Inbox:
			r.handle(cmd)
		case now := <-ticker.C:
			r.Advance(now)
		}
	}
}

func (r *Room) Stop() {
	r.stopOnce.Do(func() { close(r.quit) })
}

// Done is closed once the room has stopped.
func (r *Room) Done() <-chan struct{} { return r.quit }

// Summary returns the latest published view of the room.
func (r *Room) Summary() Summary { return *r.summary.Load() }

// Post queues a command without waiting. It reports false if the room is
// gone.
func (r *Room) Post(cmd any) bool {
	select {
	case <-r.quit:
		return false
	default:
	}
	select {
	case <-r.quit:
		return false
	case r.Inbox <- cmd:
		return true
	}
}

func (r *Room) call(cmd any, reply chan error) error {
	if !r.Post(cmd) {
		return ErrRoomNotFound
	}
	select {
	case err := <-reply:
		return err
	case <-r.quit:
		return ErrRoomNotFound
	}
}

func (r *Room) Join(m Member, host bool) error {
	reply := make(chan error, 1)
	return r.call(Join{Member: m, Host: host, Reply: reply}, reply)
}

func (r *Room) ChangeSettings(playerID string, u protocol.SetSettings) error {
	reply := make(chan error, 1)
	return r.call(ChangeSettings{PlayerID: playerID, Update: u, Reply: reply}, reply)
}

func (r *Room) Start(playerID string) error {
	reply := make(chan error, 1)
	return r.call(Start{PlayerID: playerID, Reply: reply}, reply)
}

func (r *Room) ReturnToLobby(playerID string) error {
	reply := make(chan error, 1)
	return r.call(ReturnToLobby{PlayerID: playerID, Reply: reply}, reply)
}

func (r *Room) handle(cmd any) {
	var (
		reply chan<- error
		err   error
	)
	switch c := cmd.(type) {
	case Join:
		reply, err = c.Reply, r.join(c.Member, c.Host)
	case Leave:
		r.leave(c.PlayerID, c.Notify)
	case SetReady:
		r.setReady(c.PlayerID, c.Ready)
	case ChangeSettings:
		reply, err = c.Reply, r.changeSettings(c.PlayerID, c.Update)
	case Start:
		reply, err = c.Reply, r.start(c.PlayerID)
	case Steer:
		if r.phase == PhaseRunning && r.find(c.PlayerID) != nil {
			r.world.Steer(c.PlayerID, c.Direction)
		}
	case Say:
		r.say(c.PlayerID, c.Text)
	case ReturnToLobby:
		reply, err = c.Reply, r.returnToLobby(c.PlayerID)
	default:
		r.log.Warn("[ROOM] unknown command", "room", r.Code, "type", fmt.Sprintf("%T", cmd))
	}
	// Publish before replying so callers see their own change.
	r.publish()
	if reply != nil {
		reply <- err
	}
}

func (r *Room) find(id string) *member {
	for _, m := range r.members {
		if m.ID == id {
			return m
		}
	}
	return nil
}

func (r *Room) join(m Member, host bool) error {
	if r.find(m.ID) != nil {
		return nil
	}
	if r.phase != PhaseWaiting {
		return ErrGameInProgress
	}
	if len(r.members) >= MaxPlayers(r.settings.Mode) {
		return ErrRoomFull
	}
	if m.Name = trimName(m.Name); m.Name == "" {
		m.Name = "Player"
	}
	mem := &member{Member: m}
	r.members = append(r.members, mem)
	if host || r.host == "" {
		r.host = m.ID
	}
	r.settings = r.settings.normalize(len(r.members))
	r.log.Info("[JOIN]", "room", r.Code, "player", m.ID, "name", m.Name, "players", len(r.members))

	info := r.info()
	if host {
		r.send(mem, &protocol.RoomCreated{Room: info, PlayerID: m.ID})
		return nil
	}
	r.send(mem, &protocol.RoomJoined{Room: info, PlayerID: m.ID})
	lp := info.Players[len(info.Players)-1]
	for _, o := range r.members {
		if o != mem {
			r.send(o, &protocol.PlayerJoined{Player: lp, Room: info})
		}
	}
	return nil
}

func (r *Room) leave(id string, notify bool) {
	idx := -1
	for i, m := range r.members {
		if m.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return
	}
	m := r.members[idx]
	r.members = append(r.members[:idx], r.members[idx+1:]...)
	level := slog.LevelDebug
	if notify {
		r.send(m, &protocol.RoomLeft{})
		level = slog.LevelInfo
	}
	r.log.Log(context.Background(), level, "[LEAVE]", "room", r.Code, "player", id, "players", len(r.members))

	if len(r.members) == 0 {
		r.log.Info("[ROOM] closed", "room", r.Code)
		if r.OnEmpty != nil {
			r.OnEmpty(r.Code)
		}
		r.Stop()
		return
	}
	if r.host == id {
		r.host = r.members[0].ID
	}
	if r.phase == PhaseWaiting {
		r.settings = r.settings.normalize(len(r.members))
	}
	r.broadcast(&protocol.PlayerLeft{PlayerID: id, Room: r.info()})

	if r.world != nil && r.phase != PhaseWaiting && r.phase != PhaseGameOver {
		r.world.Depart(id)
		r.drain()
		if r.world.Over {
			r.finishGame()
		}
	}
}

func (r *Room) setReady(id string, ready bool) {
	m := r.find(id)
	if m == nil || r.phase != PhaseWaiting {
		return
	}
	m.ready = ready
	r.broadcast(&protocol.PlayerReady{PlayerID: id, Ready: ready || id == r.host, Room: r.info()})
}

func (r *Room) changeSettings(id string, u protocol.SetSettings) error {
	if r.find(id) == nil {
		return ErrNotInRoom
	}
	if id != r.host {
		return ErrNotHost
	}
	if r.phase != PhaseWaiting {
		return ErrGameInProgress
	}
	r.settings = r.settings.apply(u).normalize(len(r.members))
	r.log.Debug("[ROOM] settings", "room", r.Code, "mode", r.settings.Mode, "map", r.settings.MapSize,
		"density", r.settings.Density, "bots", r.settings.AICount)
	r.broadcast(&protocol.SettingsChanged{Room: r.info()})
	return nil
}

// startable reports whether the lobby may start as it stands, and with
// which settings.
func (r *Room) startable() (Settings, error) {
	if r.phase != PhaseWaiting {
		return r.settings, ErrGameInProgress
	}
	for _, m := range r.members {
		if m.ID != r.host && !m.ready {
			return r.settings, ErrNotReady
		}
	}
	s := r.settings.normalize(len(r.members))
	total := len(r.members) + s.AICount
	if total < MinPlayers(s.Mode) || total > MaxPlayers(s.Mode) {
		return s, ErrPlayerCount
	}
	return s, nil
}

func (r *Room) start(id string) error {
	if r.find(id) == nil {
		return ErrNotInRoom
	}
	if id != r.host {
		return ErrNotHost
	}
	s, err := r.startable()
	if err != nil {
		return err
	}
	r.settings = s

	seats := make([]game.Seat, 0, len(r.members)+s.AICount)
	for _, m := range r.members {
		seats = append(seats, game.Seat{ID: m.ID, Name: m.Name})
	}
	for i := 0; i < s.AICount; i++ {
		seats = append(seats, game.Seat{
			ID:         fmt.Sprintf("bot-%d", i+1),
			Name:       s.AINames[i],
			IsAI:       true,
			Difficulty: s.AIDifficulties[i],
		})
	}
	seed := r.rng.Uint64()
	brain := ai.New(r.opts.Profiles, game.NewRand(seed^0x9e3779b97f4a7c15))
	r.world = game.NewWorld(game.Settings{
		Mode:         s.Mode,
		MapSize:      s.MapSize,
		Density:      s.Density,
		TimeLimit:    s.TimeLimit,
		SeriesLength: s.SeriesLength,
	}, r.opts.Tuning, seats, game.NewRand(seed), brain)
	r.games++
	r.log.Info("[START]", "room", r.Code, "mode", r.world.Settings.Mode, "players", len(r.members),
		"bots", s.AICount, "seed", seed)
	if r.OnStart != nil {
		r.OnStart()
	}
	r.countdown()
	return nil
}

func (r *Room) say(id, text string) {
	m := r.find(id)
	if m == nil {
		return
	}
	runes := []rune(strings.TrimSpace(text))
	if len(runes) > protocol.MaxChatLen {
		runes = runes[:protocol.MaxChatLen]
	}
	if len(runes) == 0 {
		return
	}
	r.broadcast(&protocol.ChatMessage{PlayerID: id, PlayerName: m.Name, Message: string(runes)})
}

func (r *Room) returnToLobby(id string) error {
	if r.find(id) == nil {
		return ErrNotInRoom
	}
	switch r.phase {
	case PhaseWaiting:
		return nil
	case PhaseGameOver:
	default:
		if id != r.host {
			return ErrNotHost
		}
	}
	r.world = nil
	r.phase = PhaseWaiting
	r.timer = 0
	for _, m := range r.members {
		m.ready, m.synced = false, false
	}
	r.settings = r.settings.normalize(len(r.members))
	r.log.Info("[ROOM] back to lobby", "room", r.Code)
	r.broadcast(&protocol.RoomReset{Room: r.info()})
	return nil
}

// Advance moves the room's clock to now. The first call only sets the
// reference time.
func (r *Room) Advance(now time.Time) {
	if r.last.IsZero() {
		r.last = now
		return
	}
	dt := now.Sub(r.last).Seconds()
	r.last = now
	if dt <= 0 {
		return
	}
	dt = math.Min(dt, maxStep)

	switch r.phase {
	case PhaseCountdown:
		r.timer -= dt
		if r.timer <= 0 {
			r.begin()
		}
	case PhaseRunning:
		start := time.Now()
		r.world.Advance(dt)
		r.drain()
		r.broadcastState()
		switch {
		case r.world.Over:
			r.finishGame()
		case r.world.RoundOver:
			r.finishRound()
		}
		r.recordTick(time.Since(start))
	case PhaseRoundOver:
		r.timer -= dt
		if r.timer <= 0 {
			r.world.NextRound()
			r.countdown()
		}
	default:
		return
	}
	r.publish()
}

func (r *Room) countdown() {
	r.phase = PhaseCountdown
	r.timer = r.opts.Countdown
	st := r.snapshot(true)
	for _, m := range r.members {
		m.synced = true
	}
	r.broadcast(&protocol.GameStarting{Countdown: int(math.Ceil(r.opts.Countdown)), InitialState: st})
}

func (r *Room) begin() {
	r.phase = PhaseRunning
	r.timer = 0
	r.broadcast(&protocol.GameStart{State: r.snapshot(false)})
}

// drain turns the world's pending events into messages.
func (r *Room) drain() {
	for _, ev := range r.world.Events() {
		switch ev.Kind {
		case game.EventDeath:
			r.log.Debug("[DEATH]", "room", r.Code, "player", ev.PlayerID, "cause", ev.Cause, "killer", ev.KillerID)
			r.broadcast(&protocol.PlayerDied{
				PlayerID:  ev.PlayerID,
				KillerID:  ev.KillerID,
				Cause:     ev.Cause,
				Rank:      ev.Rank,
				RespawnIn: ev.RespawnIn,
			})
		case game.EventRespawn:
			r.log.Debug("[RESPAWN]", "room", r.Code, "player", ev.PlayerID)
			r.broadcast(&protocol.PlayerRespawned{PlayerID: ev.PlayerID})
		}
	}
}

func (r *Room) finishRound() {
	w := r.world
	r.phase = PhaseRoundOver
	r.timer = r.opts.Intermission
	r.log.Info("[ROUND]", "room", r.Code, "round", w.Round, "winner", w.RoundWinnerID)
	r.broadcast(&protocol.RoundOver{
		Round:        w.Round,
		WinnerID:     w.RoundWinnerID,
		SeriesScores: w.SeriesScores(),
		NextRoundIn:  r.opts.Intermission,
	})
}

func (r *Room) finishGame() {
	w := r.world
	r.phase = PhaseGameOver
	msg := &protocol.GameOver{WinnerID: w.WinnerID, FinalState: r.snapshot(true)}
	if w.Settings.Mode == game.ModeDuel {
		msg.SeriesScores = w.SeriesScores()
	}
	r.log.Info("[GAMEOVER]", "room", r.Code, "mode", w.Settings.Mode, "winner", w.WinnerID,
		"elapsed", math.Round(w.Elapsed*10)/10)
	r.broadcast(msg)
	r.record()
}

// record files every present human's result with the recorder.
func (r *Room) record() {
	if r.recorder == nil {
		return
	}
	w := r.world
	vsAIOnly := len(r.members) == 1
	for _, m := range r.members {
		p := w.Player(m.ID)
		if p == nil {
			continue
		}
		err := r.recorder.RecordGame(leaderboard.Result{
			PlayerName: m.Name,
			Mode:       string(w.Settings.Mode),
			Score:      p.Score(),
			Winner:     p.ID == w.WinnerID,
			VsAIOnly:   vsAIOnly,
		})
		if err == nil && w.Settings.Mode == game.ModeDuel {
			res := leaderboard.DuelResult{PlayerName: m.Name, Winner: p.ID == w.WinnerID}
			for _, o := range w.Players {
				if o != p && o.IsAI && !o.Departed {
					res.OpponentAI = o.Difficulty
				}
			}
			err = r.recorder.RecordDuel(res)
		}
		if err != nil {
			r.log.Warn("[PROFILE] record failed", "room", r.Code, "player", m.Name, "err", err)
		}
	}
}

func (r *Room) snapshot(full bool) protocol.GameState {
	st := protocol.Snapshot(r.world, full)
	st.Phase = string(r.phase)
	switch r.phase {
	case PhaseCountdown:
		st.Running = false
		st.Countdown = math.Max(0, math.Round(r.timer*100)/100)
	case PhaseRoundOver:
		st.Running = false
	}
	return st
}

// broadcastState sends each member the current state: a full snapshot to
// anyone not yet synced, a delta to everyone else.
func (r *Room) broadcastState() {
	var full, delta *protocol.StateUpdate
	for _, m := range r.members {
		if !m.synced {
			if full == nil {
				full = &protocol.StateUpdate{State: r.snapshot(true)}
			}
			m.synced = true
			r.send(m, full)
			continue
		}
		if delta == nil {
			delta = &protocol.StateUpdate{State: r.snapshot(false)}
		}
		r.send(m, delta)
	}
}

func (r *Room) send(m *member, msg protocol.ServerMessage) {
	if err := m.Conn.Send(msg); err != nil {
		r.log.Debug("[ROOM] send failed", "room", r.Code, "player", m.ID, "err", err)
	}
}

func (r *Room) broadcast(msg protocol.ServerMessage) {
	for _, m := range r.members {
		r.send(m, msg)
	}
}

func (r *Room) info() protocol.RoomInfo {
	s := r.settings
	lo, hi := AIRange(s.Mode, len(r.members))
	info := protocol.RoomInfo{
		Code:           r.Code,
		HostID:         r.host,
		State:          string(r.phase),
		GameMode:       s.Mode,
		MapSize:        s.MapSize,
		BarrierDensity: s.Density,
		TimeLimit:      s.TimeLimit,
		SeriesLength:   s.SeriesLength,
		Players:        make([]protocol.LobbyPlayer, 0, len(r.members)),
		MaxPlayers:     MaxPlayers(s.Mode),
		MinPlayers:     MinPlayers(s.Mode),
		PlayerCount:    len(r.members),
		GameStarted:    r.phase != PhaseWaiting,
		AICount:        s.AICount,
		MinAICount:     lo,
		MaxAICount:     hi,
		AIDifficulties: s.AIDifficulties,
		AINames:        s.AINames,
	}
	for i, m := range r.members {
		ready := m.ready || m.ID == r.host
		if ready {
			info.ReadyCount++
		}
		info.Players = append(info.Players, protocol.LobbyPlayer{
			ID:       m.ID,
			Name:     m.Name,
			Ready:    ready,
			IsHost:   m.ID == r.host,
			Quadrant: i,
		})
	}
	_, err := r.startable()
	info.CanStart = err == nil
	return info
}

func (r *Room) recordTick(d time.Duration) {
	r.tickDurations[r.tickDurIdx%len(r.tickDurations)] = d
	r.tickDurIdx++
	if d > r.maxTick {
		r.maxTick = d
	}
}

func (r *Room) publish() {
	var total time.Duration
	count := 0
	for _, d := range r.tickDurations {
		if d > 0 {
			total += d
			count++
		}
	}
	avg := 0.0
	if count > 0 {
		avg = float64(total) / float64(count) / 1e6
	}
	s := &Summary{
		Code:       r.Code,
		Mode:       r.settings.Mode,
		Phase:      r.phase,
		Players:    len(r.members),
		MaxPlayers: MaxPlayers(r.settings.Mode),
		Games:      r.games,
		AvgTickMs:  math.Round(avg*100) / 100,
		MaxTickMs:  math.Round(float64(r.maxTick)/1e4) / 100,
	}
	if h := r.find(r.host); h != nil {
		s.Host = h.Name
	}
	r.summary.Store(s)
}
