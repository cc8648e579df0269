package engine

import (
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"runtime"
	"time"

	"schlangen.tv/arena/leaderboard"
)

type StatsSnapshot struct {
	Version        string              `json:"version"`
	Uptime         string              `json:"uptime"`
	UptimeSec      int64               `json:"uptimeSec"`
	Rooms          int                 `json:"rooms"`
	ActiveGames    int                 `json:"activeGames"`
	GamesStarted   int64               `json:"gamesStarted"`
	CurrentPlayers int                 `json:"currentPlayers"`
	Sessions       int64               `json:"sessions"`
	PeakSessions   int64               `json:"peakSessions"`
	TotalJoins     int64               `json:"totalJoins"`
	TotalLeaves    int64               `json:"totalLeaves"`
	AvgTickMs      float64             `json:"avgTickMs"`
	MaxTickMs      float64             `json:"maxTickMs"`
	BandwidthKBps  float64             `json:"bandwidthKBps"`
	TotalBytesSent int64               `json:"totalBytesSent"`
	TotalBytesRecv int64               `json:"totalBytesRecv"`
	MemAllocMB     float64             `json:"memAllocMB"`
	MemSysMB       float64             `json:"memSysMB"`
	NumGoroutines  int                 `json:"numGoroutines"`
	GCPauseMs      float64             `json:"gcPauseMs"`
	Leaderboard    []leaderboard.Entry `json:"leaderboard"`
}

func formatDuration(d time.Duration) string {
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%dh %dm %ds", h, m, s)
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }

// Stats builds a snapshot of the server. Bandwidth is averaged over the
// whole uptime.
func (s *Server) Stats() StatsSnapshot {
	uptime := time.Since(s.started)
	rooms := s.Rooms.Stats()

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	lastPause := mem.PauseNs[(mem.NumGC+255)%256]

	sent := s.bytesSent.Load()
	bw := 0.0
	if secs := uptime.Seconds(); secs > 0 {
		bw = float64(sent) / 1024 / secs
	}

	return StatsSnapshot{
		Version:        Version,
		Uptime:         formatDuration(uptime),
		UptimeSec:      int64(uptime.Seconds()),
		Rooms:          rooms.Rooms,
		ActiveGames:    rooms.ActiveGames,
		GamesStarted:   rooms.GamesStarted,
		CurrentPlayers: rooms.Players,
		Sessions:       s.sessions.Load(),
		PeakSessions:   s.peak.Load(),
		TotalJoins:     s.totalJoins.Load(),
		TotalLeaves:    s.totalLeaves.Load(),
		AvgTickMs:      round2(rooms.AvgTickMs),
		MaxTickMs:      round2(rooms.MaxTickMs),
		BandwidthKBps:  round2(bw),
		TotalBytesSent: sent,
		TotalBytesRecv: s.bytesRecv.Load(),
		MemAllocMB:     round2(float64(mem.Alloc) / (1 << 20)),
		MemSysMB:       round2(float64(mem.Sys) / (1 << 20)),
		NumGoroutines:  runtime.NumGoroutine(),
		GCPauseMs:      round2(float64(lastPause) / 1e6),
		Leaderboard:    s.Board.Entries(),
	}
}

func (s *Server) HandleStats(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	json.NewEncoder(w).Encode(s.Stats())
}

func HandleDashboard(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, dashboardHTML)
}

const dashboardHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Schlangen.TV Arena Dashboard</title>
<style>
  * { margin: 0; padding: 0; box-sizing: border-box; }
  body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', sans-serif;
         background: #1a1a2e; color: #eee; padding: 20px; }
  h1 { background: linear-gradient(135deg, #e94560, #c23152); padding: 14px 24px;
       border-radius: 10px; margin-bottom: 24px; color: white; font-size: 22px;
       display: flex; align-items: center; justify-content: space-between; }
  h1 .dot { width: 10px; height: 10px; border-radius: 50%; background: #0f0;
            display: inline-block; margin-right: 8px; animation: pulse 2s infinite; }
  @keyframes pulse { 0%,100% { opacity:1; } 50% { opacity:0.4; } }
  h2 { margin: 0 0 12px; font-size: 16px; color: #aaa; text-transform: uppercase;
       letter-spacing: 1px; }
  .grid { display: grid; grid-template-columns: repeat(auto-fit, minmax(180px, 1fr));
          gap: 14px; margin-bottom: 28px; }
  .card { background: #16213e; border-radius: 10px; padding: 18px;
          border-left: 4px solid #0f3460; }
  .card .label { font-size: 11px; text-transform: uppercase; color: #888;
                 letter-spacing: 0.5px; }
  .card .value { font-size: 32px; font-weight: bold; color: #e94560; margin-top: 4px;
                 font-variant-numeric: tabular-nums; }
  .card .unit { font-size: 13px; color: #666; }
  .card.perf { border-left-color: #00cc88; }
  .card.perf .value { color: #00cc88; }
  table { width: 100%; border-collapse: collapse; background: #16213e;
          border-radius: 10px; overflow: hidden; margin-bottom: 28px; }
  th { background: #0f3460; padding: 10px 14px; text-align: left; font-size: 12px;
       text-transform: uppercase; letter-spacing: 0.5px; }
  td { padding: 9px 14px; border-bottom: 1px solid #1a1a2e; font-size: 14px; }
  .rank { color: #666; font-weight: bold; }
  .status-bar { font-size: 11px; color: #555; margin-top: 16px; text-align: right; }
</style>
</head>
<body>
<h1><span><span class="dot"></span>Schlangen.TV Arena <span id="version" style="font-size:13px;font-weight:normal;color:rgba(255,255,255,0.5)"></span></span><span id="uptime" style="font-size:14px;font-weight:normal;color:rgba(255,255,255,0.7)"></span></h1>
<div class="grid" id="cards"></div>
<h2>Open Rooms</h2>
<table>
  <thead><tr><th>Code</th><th>Host</th><th>Mode</th><th>Players</th></tr></thead>
  <tbody id="rooms"></tbody>
</table>
<h2>Leaderboard</h2>
<table>
  <thead><tr><th>#</th><th>Name</th><th>Score</th><th>Mode</th></tr></thead>
  <tbody id="lb"></tbody>
</table>
<div class="status-bar" id="status">Connecting...</div>
<script>
function fmtBytes(v) {
  if (v >= 1073741824) return (v/1073741824).toFixed(2)+'<span class="unit"> GB</span>';
  if (v >= 1048576) return (v/1048576).toFixed(1)+'<span class="unit"> MB</span>';
  if (v >= 1024) return (v/1024).toFixed(1)+'<span class="unit"> KB</span>';
  return v+'<span class="unit"> B</span>';
}
const cardDefs = [
  {k:'rooms',          label:'Rooms',          unit:''},
  {k:'activeGames',    label:'Games Running',  unit:''},
  {k:'gamesStarted',   label:'Games Started',  unit:''},
  {k:'currentPlayers', label:'Players In Rooms', unit:''},
  {k:'sessions',       label:'Connections',    unit:''},
  {k:'peakSessions',   label:'Peak Connections', unit:''},
  {k:'avgTickMs',      label:'Avg Tick',       unit:'ms', perf:true},
  {k:'maxTickMs',      label:'Max Tick',       unit:'ms', perf:true},
  {k:'bandwidthKBps',  label:'Bandwidth Out',  unit:'KB/s', perf:true},
  {k:'totalBytesSent', label:'Total Sent',     unit:'', perf:true, fmt:fmtBytes},
  {k:'totalBytesRecv', label:'Total Received', unit:'', perf:true, fmt:fmtBytes},
  {k:'memAllocMB',     label:'Heap Memory',    unit:'MB', perf:true},
  {k:'numGoroutines',  label:'Goroutines',     unit:'',   perf:true},
  {k:'gcPauseMs',      label:'GC Pause',       unit:'ms', perf:true},
];
function esc(s) { let d=document.createElement('div'); d.textContent=s; return d.innerHTML; }
function render(d) {
  document.getElementById('uptime').textContent = d.uptime || '';
  if (d.version) document.getElementById('version').textContent = 'v' + d.version;
  let html = '';
  for (const c of cardDefs) {
    let v = d[c.k];
    if (v === undefined) v = '-';
    let valHtml = c.fmt ? c.fmt(v) : v+' <span class="unit">'+c.unit+'</span>';
    html += '<div class="card'+(c.perf?' perf':'')+'"><div class="label">'+c.label+'</div>'+
            '<div class="value">'+valHtml+'</div></div>';
  }
  document.getElementById('cards').innerHTML = html;
  let lb = '';
  if (d.leaderboard && d.leaderboard.length) {
    d.leaderboard.forEach(function(e, i) {
      lb += '<tr><td class="rank">'+(i+1)+'</td><td>'+esc(e.player_name)+'</td><td>'+e.score+'</td><td>'+esc(e.game_mode||'')+'</td></tr>';
    });
  } else {
    lb = '<tr><td colspan="4" style="color:#555;text-align:center">No scores yet</td></tr>';
  }
  document.getElementById('lb').innerHTML = lb;
  document.getElementById('status').textContent = 'Last update: ' + new Date().toLocaleTimeString();
}
function renderRooms(list) {
  let html = '';
  (list || []).forEach(function(r) {
    html += '<tr><td>'+esc(r.code)+'</td><td>'+esc(r.host)+'</td><td>'+esc(r.game_mode)+'</td><td>'+r.players+' / '+r.max_players+'</td></tr>';
  });
  if (!html) html = '<tr><td colspan="4" style="color:#555;text-align:center">No open rooms</td></tr>';
  document.getElementById('rooms').innerHTML = html;
}
function poll() {
  fetch('/stats').then(r=>r.json()).then(render)
    .catch(e=>{ document.getElementById('status').textContent='Error: '+e; });
  fetch('/api/rooms').then(r=>r.json()).then(renderRooms).catch(()=>{});
}
poll();
setInterval(poll, 1000);
</script>
</body>
</html>`
