// Package api serves a generated world over HTTP: status, column samples,
// sites, tracks and chunk detail as JSON, plus a websocket stream that
// pushes sampled regions row by row. Every endpoint is read-only.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/talgya/civworld/internal/civ"
	"github.com/talgya/civworld/internal/column"
	"github.com/talgya/civworld/internal/economy"
	"github.com/talgya/civworld/internal/site"
	"github.com/talgya/civworld/internal/world"
	"github.com/talgya/civworld/internal/worldgen"
)

const (
	maxStreamConns = 4
	// maxStreamCells bounds one region request.
	maxStreamCells = 256 * 256
	sampleRate     = 600
	streamRate     = 60
)

// Server serves one generated world.
type Server struct {
	Index   *worldgen.Index
	WorldID string
	Digest  string

	status      statusView
	streamConns int32
	upgrader    websocket.Upgrader
	sampleLimit *RateLimiter
	streamLimit *RateLimiter
}

// NewServer prepares a server for idx. worldID and digest are reported by
// the status endpoint.
func NewServer(idx *worldgen.Index, worldID, digest string) *Server {
	s := &Server{
		Index:   idx,
		WorldID: worldID,
		Digest:  digest,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		sampleLimit: NewRateLimiter(sampleRate, time.Minute),
		streamLimit: NewRateLimiter(streamRate, time.Minute),
	}
	s.status = s.buildStatus()
	return s
}

// Handler returns the routed API with CORS applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/v1/status", s.handleStatus)
	mux.HandleFunc("GET /api/v1/sample", RateLimitMiddleware(s.sampleLimit, s.handleSample))
	mux.HandleFunc("GET /api/v1/sites", s.handleSites)
	mux.HandleFunc("GET /api/v1/site/{id}", s.handleSiteDetail)
	mux.HandleFunc("GET /api/v1/tracks", s.handleTracks)
	mux.HandleFunc("GET /api/v1/track/{id}", s.handleTrackDetail)
	mux.HandleFunc("GET /api/v1/civs", s.handleCivs)
	mux.HandleFunc("GET /api/v1/chunk/{x}/{y}", s.handleChunk)
	mux.HandleFunc("GET /api/v1/stream", s.handleStream)

	return corsMiddleware(mux)
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	slog.Info("HTTP API starting", "addr", addr, "world", s.WorldID)

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		slog.Info("HTTP API stopping")
		return srv.Shutdown(shutdownCtx)
	}
}

// corsMiddleware adds CORS headers for allowed frontend origins.
// Set CORS_ORIGINS to a comma-separated list of extra allowed origins.
// Localhost dev servers are always allowed.
func corsMiddleware(next http.Handler) http.Handler {
	allowedOrigins := map[string]bool{
		"http://localhost:5173": true,
		"http://localhost:3000": true,
	}
	if env := os.Getenv("CORS_ORIGINS"); env != "" {
		for _, origin := range strings.Split(env, ",") {
			origin = strings.TrimSpace(origin)
			if origin != "" {
				allowedOrigins[origin] = true
			}
		}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if allowedOrigins[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type statusView struct {
	WorldID   string         `json:"world_id"`
	Seed      uint32         `json:"seed"`
	LgX       uint8          `json:"lg_x"`
	LgY       uint8          `json:"lg_y"`
	ChunkSize int            `json:"chunk_size"`
	Digest    string         `json:"digest,omitempty"`
	Sites     map[string]int `json:"sites"`
	Tracks    int            `json:"tracks"`
	Civs      int            `json:"civs"`
	Places    int            `json:"places"`
	Water     waterView      `json:"water"`
}

type waterView struct {
	Ocean int `json:"ocean"`
	Lake  int `json:"lake"`
	River int `json:"river"`
	Land  int `json:"land"`
}

func (s *Server) buildStatus() statusView {
	idx := s.Index
	sites := make(map[string]int)
	for k, n := range idx.SiteCounts() {
		sites[k.String()] = n
	}
	st := idx.Water()
	return statusView{
		WorldID:   s.WorldID,
		Seed:      idx.Seed,
		LgX:       idx.Lg.X,
		LgY:       idx.Lg.Y,
		ChunkSize: world.ChunkSize,
		Digest:    s.Digest,
		Sites:     sites,
		Tracks:    len(idx.Tracks()),
		Civs:      len(idx.Civs()),
		Places:    len(idx.Places()),
		Water:     waterView{Ocean: st.Ocean, Lake: st.Lake, River: st.River, Land: st.Land},
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.status)
}

type riverView struct {
	ChunkX int32   `json:"chunk_x"`
	ChunkY int32   `json:"chunk_y"`
	Kind   string  `json:"kind"`
	T      float32 `json:"t"`
	Width  float32 `json:"width"`
}

type wayView struct {
	Dist  float32 `json:"dist"`
	Width float32 `json:"width"`
	Alt   float32 `json:"alt,omitempty"`
}

type sampleView struct {
	X            int32      `json:"x"`
	Y            int32      `json:"y"`
	Alt          float32    `json:"alt"`
	RiverlessAlt float32    `json:"riverless_alt"`
	Basement     float32    `json:"basement"`
	WaterLevel   float32    `json:"water_level"`
	Chaos        float32    `json:"chaos"`
	WarpFactor   float32    `json:"warp_factor"`
	Temp         float32    `json:"temp"`
	Humidity     float32    `json:"humidity"`
	Rock         float32    `json:"rock"`
	TreeDensity  float32    `json:"tree_density"`
	ForestKind   string     `json:"forest_kind"`
	SpawnRate    float32    `json:"spawn_rate"`
	Surface      [3]float32 `json:"surface_color"`
	SubSurface   [3]float32 `json:"sub_surface_color"`
	StoneCol     [3]uint8   `json:"stone_col"`
	SnowCover    bool       `json:"snow_cover"`
	WaterDist    *float32   `json:"water_dist,omitempty"`
	Gradient     *float32   `json:"gradient,omitempty"`
	River        *riverView `json:"river,omitempty"`
	Path         *wayView   `json:"path,omitempty"`
	Cave         *wayView   `json:"cave,omitempty"`
}

func newSampleView(wpos world.Vec2i, c *column.ColumnSample) sampleView {
	v := sampleView{
		X:            wpos.X,
		Y:            wpos.Y,
		Alt:          c.Alt,
		RiverlessAlt: c.RiverlessAlt,
		Basement:     c.Basement,
		WaterLevel:   c.WaterLevel,
		Chaos:        c.Chaos,
		WarpFactor:   c.WarpFactor,
		Temp:         c.Temp,
		Humidity:     c.Humidity,
		Rock:         c.Rock,
		TreeDensity:  c.TreeDensity,
		ForestKind:   c.ForestKind.String(),
		SpawnRate:    c.SpawnRate,
		Surface:      c.SurfaceColor,
		SubSurface:   c.SubSurfaceColor,
		StoneCol:     c.StoneCol,
		SnowCover:    c.SnowCover,
		WaterDist:    c.WaterDist,
		Gradient:     c.Gradient,
	}
	if c.River != nil {
		v.River = &riverView{
			ChunkX: c.River.Chunk.X,
			ChunkY: c.River.Chunk.Y,
			Kind:   c.River.Kind.String(),
			T:      c.River.T,
			Width:  c.River.Width,
		}
	}
	if c.Path != nil {
		v.Path = &wayView{Dist: c.Path.Dist, Width: c.Path.Meta.Width}
	}
	if c.Cave != nil {
		v.Cave = &wayView{Dist: c.Cave.Dist, Width: c.Cave.Meta.Width, Alt: c.Cave.Meta.Alt}
	}
	return v
}

func (s *Server) handleSample(w http.ResponseWriter, r *http.Request) {
	x, errX := strconv.ParseInt(r.URL.Query().Get("x"), 10, 32)
	y, errY := strconv.ParseInt(r.URL.Query().Get("y"), 10, 32)
	if errX != nil || errY != nil {
		http.Error(w, "x and y must be integers", http.StatusBadRequest)
		return
	}
	wpos := world.Vec2i{X: int32(x), Y: int32(y)}
	c, ok := s.Index.Sample(wpos)
	if !ok {
		http.Error(w, "position outside the map", http.StatusNotFound)
		return
	}
	writeJSON(w, newSampleView(wpos, &c))
}

type siteView struct {
	ID         civ.SiteID   `json:"id"`
	Kind       string       `json:"kind"`
	Name       string       `json:"name"`
	X          int32        `json:"x"`
	Y          int32        `json:"y"`
	Place      civ.PlaceID  `json:"place"`
	Population float32      `json:"population"`
	Coin       float32      `json:"coin"`
	Neighbors  []civ.SiteID `json:"neighbors"`
}

func (s *Server) newSiteView(id civ.SiteID, st civ.Site) siteView {
	return siteView{
		ID:         id,
		Kind:       st.Kind.String(),
		Name:       st.Name,
		X:          st.Center.X,
		Y:          st.Center.Y,
		Place:      st.Place,
		Population: st.Economy.Population,
		Coin:       st.Economy.Coin,
		Neighbors:  s.Index.Neighbors(id),
	}
}

func (s *Server) handleSites(w http.ResponseWriter, r *http.Request) {
	kind := r.URL.Query().Get("kind")
	result := make([]siteView, 0, len(s.Index.Sites()))
	for i, st := range s.Index.Sites() {
		if kind != "" && st.Kind.String() != kind {
			continue
		}
		result = append(result, s.newSiteView(civ.SiteID(i+1), st))
	}
	writeJSON(w, result)
}

func (s *Server) handleSiteDetail(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(r.PathValue("id"), 10, 32)
	if err != nil {
		http.Error(w, "invalid site id", http.StatusBadRequest)
		return
	}
	st, ok := s.Index.Site(civ.SiteID(id))
	if !ok {
		http.Error(w, "site not found", http.StatusNotFound)
		return
	}

	result := map[string]any{
		"site": s.newSiteView(civ.SiteID(id), st),
	}
	if p, ok := s.Index.Place(st.Place); ok {
		result["place"] = map[string]any{
			"x":       p.Center.X,
			"y":       p.Center.Y,
			"chunks":  len(p.Chunks),
			"nat_res": p.NatRes,
		}
	}
	if l := s.Index.Layout(civ.SiteID(id)); l != nil {
		o := l.Origin()
		result["layout"] = map[string]any{
			"kind":   l.Kind().String(),
			"x":      o.X,
			"y":      o.Y,
			"radius": l.Radius(),
			"detail": layoutDetail(l),
		}
	}
	stocks := make(map[string]float32)
	st.Economy.Stocks.Each(func(k economy.Stock, v float32) { stocks[k.String()] = v })
	result["stocks"] = stocks
	writeJSON(w, result)
}

// layoutDetail summarises the variant-specific parts of a layout.
func layoutDetail(l site.Layout) map[string]any {
	switch v := l.(type) {
	case *site.Settlement:
		return map[string]any{"plots": len(v.Plots)}
	case *site.Dungeon:
		return map[string]any{"floors": len(v.Floors), "difficulty": v.Difficulty}
	case *site.Castle:
		return map[string]any{"wall_radius": v.WallRadius, "towers": len(v.Towers)}
	}
	return nil
}

type trackView struct {
	ID   civ.TrackID   `json:"id"`
	A    civ.SiteID    `json:"a"`
	B    civ.SiteID    `json:"b"`
	Cost float32       `json:"cost"`
	Len  int           `json:"len"`
	Path []world.Vec2i `json:"path,omitempty"`
}

func (s *Server) handleTracks(w http.ResponseWriter, r *http.Request) {
	result := make([]trackView, 0, len(s.Index.Tracks()))
	for i, t := range s.Index.Tracks() {
		result = append(result, trackView{ID: civ.TrackID(i + 1), A: t.A, B: t.B, Cost: t.Cost, Len: len(t.Path)})
	}
	writeJSON(w, result)
}

func (s *Server) handleTrackDetail(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(r.PathValue("id"), 10, 32)
	if err != nil {
		http.Error(w, "invalid track id", http.StatusBadRequest)
		return
	}
	t, ok := s.Index.Track(civ.TrackID(id))
	if !ok {
		http.Error(w, "track not found", http.StatusNotFound)
		return
	}
	writeJSON(w, trackView{ID: civ.TrackID(id), A: t.A, B: t.B, Cost: t.Cost, Len: len(t.Path), Path: t.Path})
}

func (s *Server) handleCivs(w http.ResponseWriter, r *http.Request) {
	type civView struct {
		ID       civ.CivID   `json:"id"`
		Name     string      `json:"name"`
		Capital  civ.SiteID  `json:"capital"`
		Homeland civ.PlaceID `json:"homeland"`
	}
	result := make([]civView, 0, len(s.Index.Civs()))
	for i, c := range s.Index.Civs() {
		result = append(result, civView{ID: civ.CivID(i + 1), Name: c.Name, Capital: c.Capital, Homeland: c.Homeland})
	}
	writeJSON(w, result)
}

func (s *Server) handleChunk(w http.ResponseWriter, r *http.Request) {
	x, errX := strconv.ParseInt(r.PathValue("x"), 10, 32)
	y, errY := strconv.ParseInt(r.PathValue("y"), 10, 32)
	if errX != nil || errY != nil {
		http.Error(w, "invalid chunk position", http.StatusBadRequest)
		return
	}
	pos := world.Vec2i{X: int32(x), Y: int32(y)}
	c, ok := s.Index.Chunk(pos)
	if !ok {
		http.Error(w, "chunk outside the map", http.StatusNotFound)
		return
	}

	result := map[string]any{
		"x":            pos.X,
		"y":            pos.Y,
		"alt":          c.Alt,
		"basement":     c.Basement,
		"water_alt":    c.WaterAlt,
		"chaos":        c.Chaos,
		"temp":         c.Temp,
		"humidity":     c.Humidity,
		"rockiness":    c.Rockiness,
		"tree_density": c.TreeDensity,
		"forest_kind":  c.ForestKind.String(),
		"river_kind":   c.River.Kind.String(),
		"flux":         c.River.Flux,
		"path_bits":    c.Path.Way.Neighbors,
		"cave_bits":    c.Cave.Way.Neighbors,
		"place":        c.Place,
		"sites":        c.Sites,
	}
	if c.Downhill != nil {
		result["downhill"] = *c.Downhill
	}
	if c.River.IsRiver() {
		result["cross_section"] = [2]float32{c.River.CrossSection[0], c.River.CrossSection[1]}
	}
	writeJSON(w, result)
}

// RegionRequest asks the stream for a block of samples.
type RegionRequest struct {
	Type string `json:"type"` // "REGION"
	X0   int32  `json:"x0"`
	Y0   int32  `json:"y0"`
	W    int32  `json:"w"`
	H    int32  `json:"h"`
	Step int32  `json:"step"`
}

// RowMsg carries one sampled row of a region. Out-of-map columns are NaN-free
// zeros flagged in Missing.
type RowMsg struct {
	Type    string       `json:"type"` // "ROW"
	Y       int32        `json:"y"`
	Alt     []float32    `json:"alt"`
	Water   []float32    `json:"water"`
	Color   [][3]float32 `json:"color"`
	Missing []int        `json:"missing,omitempty"`
}

type streamMsg struct {
	Type   string `json:"type"`
	Rows   int    `json:"rows,omitempty"`
	Reason string `json:"reason,omitempty"`
}

func (r RegionRequest) validate() error {
	if r.Type != "REGION" {
		return fmt.Errorf("expected REGION, got %q", r.Type)
	}
	if r.Step <= 0 || r.W <= 0 || r.H <= 0 {
		return fmt.Errorf("w, h and step must be positive")
	}
	if int64(r.X0)+int64(r.W) > math.MaxInt32 || int64(r.Y0)+int64(r.H) > math.MaxInt32 {
		return fmt.Errorf("region overflows world coordinates")
	}
	cells := r.cols() * r.rows()
	if cells > maxStreamCells {
		return fmt.Errorf("region of %d cells exceeds %d", cells, maxStreamCells)
	}
	return nil
}

func (r RegionRequest) cols() int64 { return (int64(r.W) + int64(r.Step) - 1) / int64(r.Step) }
func (r RegionRequest) rows() int64 { return (int64(r.H) + int64(r.Step) - 1) / int64(r.Step) }

func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	ip := clientIP(r)
	if !s.streamLimit.Allow(ip) {
		w.Header().Set("Retry-After", strconv.Itoa(s.streamLimit.RetryAfter(ip)))
		http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
		return
	}
	current := atomic.AddInt32(&s.streamConns, 1)
	defer atomic.AddInt32(&s.streamConns, -1)
	if current > maxStreamConns {
		http.Error(w, "too many stream connections", http.StatusServiceUnavailable)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()
	slog.Info("stream client connected", "ip", ip)

	for {
		_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		var req RegionRequest
		if err := conn.ReadJSON(&req); err != nil {
			slog.Debug("stream client gone", "ip", ip, "error", err)
			return
		}
		if err := req.validate(); err != nil {
			_ = conn.WriteJSON(streamMsg{Type: "ERROR", Reason: err.Error()})
			continue
		}
		rows, err := s.streamRegion(conn, req)
		if err != nil {
			return
		}
		if err := conn.WriteJSON(streamMsg{Type: "DONE", Rows: rows}); err != nil {
			return
		}
	}
}

func (s *Server) streamRegion(conn *websocket.Conn, req RegionRequest) (int, error) {
	cols, nrows := req.cols(), req.rows()
	rows := 0
	for j := int64(0); j < nrows; j++ {
		y := req.Y0 + int32(j)*req.Step
		row := RowMsg{Type: "ROW", Y: y}
		for i := int64(0); i < cols; i++ {
			x := req.X0 + int32(i)*req.Step
			c, ok := s.Index.Sample(world.Vec2i{X: x, Y: y})
			if !ok {
				row.Missing = append(row.Missing, int(i))
			}
			row.Alt = append(row.Alt, c.Alt)
			row.Water = append(row.Water, c.WaterLevel)
			row.Color = append(row.Color, c.SurfaceColor)
		}
		_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
		if err := conn.WriteJSON(row); err != nil {
			return rows, err
		}
		rows++
	}
	return rows, nil
}

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(data)
}
