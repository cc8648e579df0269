package room

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"schlangen.tv/arena/game"
	"schlangen.tv/arena/leaderboard"
	"schlangen.tv/arena/protocol"
)

type fakeConn struct {
	mu   sync.Mutex
	msgs []protocol.ServerMessage
}

func (c *fakeConn) Send(m protocol.ServerMessage) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.msgs = append(c.msgs, m)
	return nil
}

func (c *fakeConn) Close() error { return nil }

// last returns the most recent message of kind k, or nil.
func (c *fakeConn) last(k protocol.Kind) protocol.ServerMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := len(c.msgs) - 1; i >= 0; i-- {
		if c.msgs[i].Kind() == k {
			return c.msgs[i]
		}
	}
	return nil
}

func (c *fakeConn) count(k protocol.Kind) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, m := range c.msgs {
		if m.Kind() == k {
			n++
		}
	}
	return n
}

type fakeRecorder struct {
	games []leaderboard.Result
	duels []leaderboard.DuelResult
}

func (f *fakeRecorder) RecordGame(r leaderboard.Result) error {
	f.games = append(f.games, r)
	return nil
}

func (f *fakeRecorder) RecordDuel(r leaderboard.DuelResult) error {
	f.duels = append(f.duels, r)
	return nil
}

func quietLog() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func testOptions() Options {
	o := DefaultOptions()
	o.Countdown = 0.1
	o.Intermission = 0.2
	return o
}

// testRoom builds a room that is driven by hand instead of by Run.
type testRoom struct {
	*Room
	t     *testing.T
	now   time.Time
	conns map[string]*fakeConn
	rec   *fakeRecorder
}

func newTestRoom(t *testing.T, mode game.Mode, ids ...string) *testRoom {
	t.Helper()
	rec := &fakeRecorder{}
	tr := &testRoom{
		Room:  New("SNAKE-TEST", mode, testOptions(), rec, 1, quietLog()),
		t:     t,
		now:   time.Unix(1000, 0),
		conns: map[string]*fakeConn{},
		rec:   rec,
	}
	tr.Advance(tr.now)
	for i, id := range ids {
		if err := tr.add(id, i == 0); err != nil {
			t.Fatalf("join %s: %v", id, err)
		}
	}
	return tr
}

func (tr *testRoom) add(id string, host bool) error {
	c := &fakeConn{}
	tr.conns[id] = c
	return tr.join(Member{ID: id, Name: strings.ToUpper(id), Conn: c}, host)
}

func (tr *testRoom) step() {
	tr.now = tr.now.Add(50 * time.Millisecond)
	tr.Advance(tr.now)
}

// until steps the clock until the room reaches phase p.
func (tr *testRoom) until(p Phase) {
	tr.t.Helper()
	for i := 0; i < 200; i++ {
		if tr.phase == p {
			return
		}
		tr.step()
	}
	tr.t.Fatalf("phase %s never reached, stuck in %s", p, tr.phase)
}

func (tr *testRoom) readyAll() {
	for _, m := range tr.members {
		tr.setReady(m.ID, true)
	}
}

func TestRoyaleSeatsAndBotFloor(t *testing.T) {
	tr := newTestRoom(t, game.ModeBattleRoyale, "a")
	if tr.settings.AICount != 2 {
		t.Fatalf("royale with one human has %d bots, want 2", tr.settings.AICount)
	}
	for _, id := range []string{"b", "c", "d"} {
		if err := tr.add(id, false); err != nil {
			t.Fatalf("join %s: %v", id, err)
		}
	}
	if tr.settings.AICount != 0 {
		t.Fatalf("full royale keeps %d bots", tr.settings.AICount)
	}
	if err := tr.add("e", false); !errors.Is(err, ErrRoomFull) {
		t.Fatalf("fifth join: %v, want ErrRoomFull", err)
	}
	small := game.MapSmall
	if err := tr.changeSettings("a", protocol.SetSettings{MapSize: &small}); err != nil {
		t.Fatalf("settings: %v", err)
	}
	if tr.settings.MapSize != game.MapMedium {
		t.Fatalf("royale map = %s, want medium", tr.settings.MapSize)
	}
	if tr.conns["b"].count(protocol.MsgSettingsChanged) != 1 {
		t.Fatalf("settings change not broadcast")
	}
}

func TestJoinNotifiesOthers(t *testing.T) {
	tr := newTestRoom(t, game.ModeSurvival, "a", "b")
	if tr.conns["a"].last(protocol.MsgRoomCreated) == nil {
		t.Fatalf("host got no room_created")
	}
	joined, _ := tr.conns["b"].last(protocol.MsgRoomJoined).(*protocol.RoomJoined)
	if joined == nil || joined.PlayerID != "b" || joined.Room.PlayerCount != 2 {
		t.Fatalf("room_joined = %+v", joined)
	}
	pj, _ := tr.conns["a"].last(protocol.MsgPlayerJoined).(*protocol.PlayerJoined)
	if pj == nil || pj.Player.ID != "b" || pj.Player.Quadrant != 1 {
		t.Fatalf("player_joined = %+v", pj)
	}
	if tr.conns["b"].count(protocol.MsgPlayerJoined) != 0 {
		t.Fatalf("joiner was told about itself")
	}
}

func TestStartChecks(t *testing.T) {
	tr := newTestRoom(t, game.ModeSurvival, "a", "b", "c")
	if err := tr.start("b"); !errors.Is(err, ErrNotHost) {
		t.Fatalf("non-host start: %v", err)
	}
	if err := tr.start("a"); !errors.Is(err, ErrNotReady) {
		t.Fatalf("unready start: %v", err)
	}
	tr.readyAll()
	duel := game.ModeDuel
	if err := tr.changeSettings("a", protocol.SetSettings{GameMode: &duel}); err != nil {
		t.Fatalf("settings: %v", err)
	}
	if err := tr.start("a"); !errors.Is(err, ErrPlayerCount) {
		t.Fatalf("three-human duel: %v", err)
	}
	survival := game.ModeSurvival
	tr.changeSettings("a", protocol.SetSettings{GameMode: &survival})
	if err := tr.start("a"); err != nil {
		t.Fatalf("start: %v", err)
	}
	if tr.phase != PhaseCountdown {
		t.Fatalf("phase = %s", tr.phase)
	}
	if err := tr.start("a"); !errors.Is(err, ErrGameInProgress) {
		t.Fatalf("second start: %v", err)
	}
	if err := tr.add("d", false); !errors.Is(err, ErrGameInProgress) {
		t.Fatalf("join mid-game: %v", err)
	}
}

func TestFullSnapshotThenDeltas(t *testing.T) {
	tr := newTestRoom(t, game.ModeHighScore, "a")
	one := 1
	tr.changeSettings("a", protocol.SetSettings{AICount: &one})
	if err := tr.start("a"); err != nil {
		t.Fatalf("start: %v", err)
	}
	c := tr.conns["a"]
	gs, _ := c.last(protocol.MsgGameStarting).(*protocol.GameStarting)
	if gs == nil || !gs.InitialState.Full || gs.InitialState.GridWidth == 0 || gs.InitialState.Mode == nil {
		t.Fatalf("countdown state is not a full snapshot: %+v", gs)
	}
	if len(gs.InitialState.Players) != 2 {
		t.Fatalf("players = %d, want 2", len(gs.InitialState.Players))
	}
	tr.until(PhaseRunning)
	tr.step()
	su, _ := c.last(protocol.MsgGameState).(*protocol.StateUpdate)
	if su == nil || su.State.Full || su.State.Mode != nil || su.State.Walls != nil {
		t.Fatalf("running update should be a delta: %+v", su)
	}
	tr.find("a").synced = false
	tr.step()
	su, _ = c.last(protocol.MsgGameState).(*protocol.StateUpdate)
	if !su.State.Full {
		t.Fatalf("unsynced client got a delta")
	}
	tr.step()
	su, _ = c.last(protocol.MsgGameState).(*protocol.StateUpdate)
	if su.State.Full {
		t.Fatalf("resynced client still gets full states")
	}
}

func TestDuelSeries(t *testing.T) {
	tr := newTestRoom(t, game.ModeDuel, "a", "b")
	tr.readyAll()
	if err := tr.start("a"); err != nil {
		t.Fatalf("start: %v", err)
	}
	c := tr.conns["b"]
	for round, loser := range []string{"b", "a", "b"} {
		tr.until(PhaseRunning)
		tr.world.Player(loser).Snake.Alive = false
		tr.step()
		if round < 2 {
			if tr.phase != PhaseRoundOver {
				t.Fatalf("round %d: phase = %s", round+1, tr.phase)
			}
			ro, _ := c.last(protocol.MsgRoundOver).(*protocol.RoundOver)
			if ro == nil || ro.Round != round+1 || ro.WinnerID == loser {
				t.Fatalf("round %d: round_over = %+v", round+1, ro)
			}
			tr.until(PhaseCountdown)
			if n := c.count(protocol.MsgGameStarting); n != round+2 {
				t.Fatalf("round %d: %d countdowns", round+1, n)
			}
		}
	}
	if tr.phase != PhaseGameOver {
		t.Fatalf("phase = %s, want game_over", tr.phase)
	}
	if n := c.count(protocol.MsgRoundOver); n != 2 {
		t.Fatalf("final round sent round_over too: %d", n)
	}
	over, _ := c.last(protocol.MsgGameOver).(*protocol.GameOver)
	if over == nil || over.WinnerID != "a" {
		t.Fatalf("game_over = %+v", over)
	}
	if over.SeriesScores["a"] != 2 || over.SeriesScores["b"] != 1 {
		t.Fatalf("series = %v", over.SeriesScores)
	}
	if !over.FinalState.Full || over.FinalState.SeriesWinnerID != "a" {
		t.Fatalf("final state = %+v", over.FinalState)
	}
	if len(tr.rec.duels) != 2 || len(tr.rec.games) != 2 {
		t.Fatalf("recorded %d games, %d duels", len(tr.rec.games), len(tr.rec.duels))
	}
	for _, d := range tr.rec.duels {
		if d.Winner != (d.PlayerName == "A") || d.OpponentAI != "" {
			t.Fatalf("duel result %+v", d)
		}
	}
	for i := 0; i < 10; i++ {
		tr.step()
	}
	if tr.world.Round != 3 {
		t.Fatalf("series went on to round %d", tr.world.Round)
	}
}

func TestDuelDepartureEndsSeries(t *testing.T) {
	tr := newTestRoom(t, game.ModeDuel, "a", "b")
	tr.readyAll()
	tr.start("a")
	tr.until(PhaseRunning)
	tr.leave("b", true)
	if tr.phase != PhaseGameOver {
		t.Fatalf("phase = %s", tr.phase)
	}
	over, _ := tr.conns["a"].last(protocol.MsgGameOver).(*protocol.GameOver)
	if over == nil || over.WinnerID != "a" {
		t.Fatalf("game_over = %+v", over)
	}
	if tr.conns["b"].last(protocol.MsgRoomLeft) == nil {
		t.Fatalf("leaver got no room_left")
	}
}

func TestHighScoreDepartureHandsSnakeToBot(t *testing.T) {
	tr := newTestRoom(t, game.ModeHighScore, "a", "b")
	tr.readyAll()
	tr.start("a")
	tr.until(PhaseRunning)
	tr.leave("b", false)
	if tr.phase != PhaseRunning {
		t.Fatalf("phase = %s", tr.phase)
	}
	p := tr.world.Player("b")
	if !p.IsAI || p.Difficulty != game.DepartedBotDifficulty {
		t.Fatalf("departed player %+v not taken over", p)
	}
	if tr.conns["a"].last(protocol.MsgPlayerLeft) == nil {
		t.Fatalf("no player_left")
	}
}

func TestHostTransferAndClose(t *testing.T) {
	tr := newTestRoom(t, game.ModeSurvival, "a", "b")
	var closed string
	tr.OnEmpty = func(code string) { closed = code }
	tr.leave("a", true)
	if tr.host != "b" {
		t.Fatalf("host = %q, want b", tr.host)
	}
	pl, _ := tr.conns["b"].last(protocol.MsgPlayerLeft).(*protocol.PlayerLeft)
	if pl == nil || pl.Room.HostID != "b" {
		t.Fatalf("player_left = %+v", pl)
	}
	tr.leave("b", true)
	if closed != "SNAKE-TEST" {
		t.Fatalf("OnEmpty got %q", closed)
	}
	select {
	case <-tr.Done():
	default:
		t.Fatalf("empty room still running")
	}
}

func TestDisconnectLeaveLogsAtDebug(t *testing.T) {
	tr := newTestRoom(t, game.ModeSurvival, "a", "b", "c")
	var buf bytes.Buffer
	tr.log = slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	leaveLine := func() string {
		for _, line := range strings.Split(buf.String(), "\n") {
			if strings.Contains(line, "[LEAVE]") {
				buf.Reset()
				return line
			}
		}
		t.Fatalf("no leave line in %q", buf.String())
		return ""
	}

	tr.leave("c", false)
	if line := leaveLine(); !strings.Contains(line, "level=DEBUG") {
		t.Fatalf("dropped connection logged as %q", line)
	}
	if tr.conns["c"].last(protocol.MsgRoomLeft) != nil {
		t.Fatalf("room_left sent on a dropped connection")
	}
	tr.leave("b", true)
	if line := leaveLine(); !strings.Contains(line, "level=INFO") {
		t.Fatalf("explicit leave logged as %q", line)
	}
}

func TestReturnToLobby(t *testing.T) {
	tr := newTestRoom(t, game.ModeSurvival, "a", "b")
	tr.readyAll()
	tr.start("a")
	tr.until(PhaseRunning)
	if err := tr.returnToLobby("b"); !errors.Is(err, ErrNotHost) {
		t.Fatalf("non-host abort: %v", err)
	}
	if err := tr.returnToLobby("a"); err != nil {
		t.Fatalf("host abort: %v", err)
	}
	if tr.phase != PhaseWaiting || tr.world != nil {
		t.Fatalf("room not reset: %s", tr.phase)
	}
	if tr.find("b").ready {
		t.Fatalf("ready flags survived the reset")
	}
	if tr.conns["b"].last(protocol.MsgRoomReset) == nil {
		t.Fatalf("no room_reset")
	}
	if err := tr.start("a"); !errors.Is(err, ErrNotReady) {
		t.Fatalf("restart without ready: %v", err)
	}
}

func TestChat(t *testing.T) {
	tr := newTestRoom(t, game.ModeSurvival, "a", "b")
	tr.say("a", "   ")
	if tr.conns["b"].count(protocol.MsgChat) != 0 {
		t.Fatalf("blank chat relayed")
	}
	tr.say("a", strings.Repeat("ä", 300))
	msg, _ := tr.conns["b"].last(protocol.MsgChat).(*protocol.ChatMessage)
	if msg == nil || msg.PlayerName != "A" || len([]rune(msg.Message)) != protocol.MaxChatLen {
		t.Fatalf("chat = %+v", msg)
	}
	tr.say("stranger", "hi")
	if tr.conns["b"].count(protocol.MsgChat) != 1 {
		t.Fatalf("chat from outside the room relayed")
	}
}

func TestSteerIgnoredOutsideRunning(t *testing.T) {
	tr := newTestRoom(t, game.ModeSurvival, "a")
	tr.start("a")
	dir := tr.world.Player("a").Snake.Dir
	turn := game.Up
	if dir == game.Up || dir == game.Down {
		turn = game.Left
	}
	tr.handle(Steer{PlayerID: "a", Direction: turn})
	if tr.world.Player("a").Snake.NextDir() != dir {
		t.Fatalf("steer accepted during countdown")
	}
}

func TestSurvivalRampsAfterFifteenSeconds(t *testing.T) {
	tr := newTestRoom(t, game.ModeSurvival, "a")
	tr.opts.Tuning.StartLength = 10
	two, medium := 2, game.MapMedium
	tr.changeSettings("a", protocol.SetSettings{
		MapSize:        &medium,
		AICount:        &two,
		AIDifficulties: []string{"amateur", "pro"},
	})
	if err := tr.start("a"); err != nil {
		t.Fatalf("start: %v", err)
	}
	w := tr.world
	if len(w.Players) != 3 || w.Players[1].Difficulty != "amateur" || w.Players[2].Difficulty != "pro" {
		t.Fatalf("seats = %+v", w.Players)
	}
	initialDecay := w.DecayInterval
	// Autopilot the human so the clock can run.
	w.Player("a").IsAI = true
	w.Player("a").Difficulty = "world_class"

	tr.until(PhaseRunning)
	for i := 0; w.Elapsed < 15.01; i++ {
		if tr.phase != PhaseRunning || i > 1000 {
			t.Fatalf("game stopped at %.2fs in phase %s", w.Elapsed, tr.phase)
		}
		tr.step()
	}
	if w.SpeedMultiplier <= 1 || w.SpeedMultiplier > 2 {
		t.Fatalf("speed multiplier %v after 15s", w.SpeedMultiplier)
	}
	if w.DecayInterval >= initialDecay {
		t.Fatalf("decay interval %v, want below %v", w.DecayInterval, initialDecay)
	}
	su, _ := tr.conns["a"].last(protocol.MsgGameState).(*protocol.StateUpdate)
	if su.State.CurrentSpeed <= 1 {
		t.Fatalf("clients see speed %v", su.State.CurrentSpeed)
	}
}
