package api

import (
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/talgya/civworld/internal/config"
	"github.com/talgya/civworld/internal/world"
	"github.com/talgya/civworld/internal/worldgen"
)

var (
	smallOnce sync.Once
	smallIdx  *worldgen.Index
	smallErr  error
)

func smallWorld(t *testing.T) *worldgen.Index {
	t.Helper()
	smallOnce.Do(func() {
		smallIdx, smallErr = worldgen.Generate(4, world.MapSizeLg{X: 6, Y: 6}, config.DefaultWorldConfig())
	})
	if smallErr != nil {
		t.Fatalf("generate: %v", smallErr)
	}
	return smallIdx
}

func getJSON(t *testing.T, h http.Handler, path string, out any) int {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code == http.StatusOK && out != nil {
		if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
			t.Fatalf("%s: decode: %v", path, err)
		}
	}
	return rec.Code
}

func TestStatus(t *testing.T) {
	idx := smallWorld(t)
	h := NewServer(idx, "world-1", "d1").Handler()

	var st statusView
	if code := getJSON(t, h, "/api/v1/status", &st); code != http.StatusOK {
		t.Fatalf("status code %d", code)
	}
	if st.WorldID != "world-1" || st.Seed != 4 || st.LgX != 6 || st.ChunkSize != world.ChunkSize {
		t.Fatalf("status = %+v", st)
	}
	total := st.Water.Ocean + st.Water.Lake + st.Water.River + st.Water.Land
	if total != idx.ChunkCount() {
		t.Fatalf("water tally %d, want %d chunks", total, idx.ChunkCount())
	}
}

func TestSampleEndpoint(t *testing.T) {
	idx := smallWorld(t)
	h := NewServer(idx, "w", "").Handler()

	var v sampleView
	if code := getJSON(t, h, "/api/v1/sample?x=100&y=200", &v); code != http.StatusOK {
		t.Fatalf("sample code %d", code)
	}
	want, _ := idx.Sample(world.Vec2i{X: 100, Y: 200})
	if v.X != 100 || v.Y != 200 || v.Alt != want.Alt || v.WaterLevel != want.WaterLevel {
		t.Fatalf("sample view %+v, want alt %v", v, want.Alt)
	}

	if code := getJSON(t, h, "/api/v1/sample?x=-5&y=0", nil); code != http.StatusNotFound {
		t.Fatalf("out-of-map code %d, want 404", code)
	}
	if code := getJSON(t, h, "/api/v1/sample?x=abc&y=0", nil); code != http.StatusBadRequest {
		t.Fatalf("bad param code %d, want 400", code)
	}
}

func TestChunkEndpoint(t *testing.T) {
	idx := smallWorld(t)
	h := NewServer(idx, "w", "").Handler()

	var got map[string]any
	if code := getJSON(t, h, "/api/v1/chunk/3/7", &got); code != http.StatusOK {
		t.Fatalf("chunk code %d", code)
	}
	c, ok := idx.Chunk(world.Vec2i{X: 3, Y: 7})
	if !ok {
		t.Fatalf("chunk 3,7 missing")
	}
	if got["river_kind"] != c.River.Kind.String() || float32(got["alt"].(float64)) != c.Alt {
		t.Fatalf("chunk view %v", got)
	}
	if code := getJSON(t, h, "/api/v1/chunk/64/0", nil); code != http.StatusNotFound {
		t.Fatalf("off-map chunk code %d", code)
	}
}

func TestSitesEndpoints(t *testing.T) {
	if testing.Short() {
		t.Skip("civ generation")
	}
	idx, err := worldgen.Generate(2, world.MapSizeLg{X: 8, Y: 8}, config.DefaultWorldConfig())
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	h := NewServer(idx, "w", "").Handler()

	var sites []siteView
	if code := getJSON(t, h, "/api/v1/sites", &sites); code != http.StatusOK {
		t.Fatalf("sites code %d", code)
	}
	if len(sites) != len(idx.Sites()) {
		t.Fatalf("got %d sites, want %d", len(sites), len(idx.Sites()))
	}

	var settlements []siteView
	getJSON(t, h, "/api/v1/sites?kind=settlement", &settlements)
	for _, s := range settlements {
		if s.Kind != "settlement" {
			t.Fatalf("kind filter leaked %q", s.Kind)
		}
	}

	if len(sites) > 0 {
		var detail map[string]any
		if code := getJSON(t, h, fmt.Sprintf("/api/v1/site/%d", sites[0].ID), &detail); code != http.StatusOK {
			t.Fatalf("site detail code %d", code)
		}
		if _, ok := detail["layout"]; !ok {
			t.Fatalf("site detail lacks layout: %v", detail)
		}
	}
	if code := getJSON(t, h, "/api/v1/site/99999", nil); code != http.StatusNotFound {
		t.Fatalf("missing site code %d", code)
	}

	var tracks []trackView
	getJSON(t, h, "/api/v1/tracks", &tracks)
	if len(tracks) != len(idx.Tracks()) {
		t.Fatalf("got %d tracks, want %d", len(tracks), len(idx.Tracks()))
	}
	if len(tracks) > 0 {
		var tv trackView
		getJSON(t, h, "/api/v1/track/1", &tv)
		if len(tv.Path) != tv.Len || tv.Len == 0 {
			t.Fatalf("track detail path %d, len %d", len(tv.Path), tv.Len)
		}
	}
}

func TestStreamRegion(t *testing.T) {
	idx := smallWorld(t)
	srv := httptest.NewServer(NewServer(idx, "w", "").Handler())
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/stream"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(30 * time.Second))

	if err := conn.WriteJSON(RegionRequest{Type: "REGION", X0: -8, Y0: 0, W: 32, H: 16, Step: 8}); err != nil {
		t.Fatalf("write: %v", err)
	}
	rows := 0
	for {
		var msg map[string]json.RawMessage
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("read: %v", err)
		}
		var typ string
		json.Unmarshal(msg["type"], &typ)
		if typ == "DONE" {
			break
		}
		var row RowMsg
		raw, _ := json.Marshal(msg)
		json.Unmarshal(raw, &row)
		if len(row.Alt) != 4 || len(row.Color) != 4 {
			t.Fatalf("row has %d columns, want 4", len(row.Alt))
		}
		// x = -8 lies off the map.
		if len(row.Missing) != 1 || row.Missing[0] != 0 {
			t.Fatalf("missing = %v, want [0]", row.Missing)
		}
		rows++
	}
	if rows != 2 {
		t.Fatalf("got %d rows, want 2", rows)
	}

	if err := conn.WriteJSON(RegionRequest{Type: "REGION", W: 1 << 12, H: 1 << 12, Step: 1}); err != nil {
		t.Fatalf("write: %v", err)
	}
	var e streamMsg
	if err := conn.ReadJSON(&e); err != nil || e.Type != "ERROR" {
		t.Fatalf("oversized region: %+v, %v", e, err)
	}

	// A step past the last int32 column must not wrap around.
	edge := RegionRequest{Type: "REGION", X0: math.MaxInt32 - 5, Y0: 0, W: 5, H: 1, Step: 10}
	if err := conn.WriteJSON(edge); err != nil {
		t.Fatalf("write: %v", err)
	}
	var row RowMsg
	if err := conn.ReadJSON(&row); err != nil || row.Type != "ROW" {
		t.Fatalf("edge row: %+v, %v", row, err)
	}
	if len(row.Alt) != 1 || len(row.Missing) != 1 {
		t.Fatalf("edge row has %d columns, %d missing", len(row.Alt), len(row.Missing))
	}
	var done streamMsg
	if err := conn.ReadJSON(&done); err != nil || done.Type != "DONE" || done.Rows != 1 {
		t.Fatalf("edge done: %+v, %v", done, err)
	}
}

func TestRegionRequestValidate(t *testing.T) {
	cases := []struct {
		req RegionRequest
		ok  bool
	}{
		{RegionRequest{Type: "REGION", W: 16, H: 16, Step: 4}, true},
		{RegionRequest{Type: "REGION", X0: math.MaxInt32 - 5, W: 5, H: 1, Step: 10}, true},
		{RegionRequest{Type: "REGION", X0: math.MaxInt32 - 2, W: 5, H: 1, Step: 10}, false},
		{RegionRequest{Type: "REGION", Y0: math.MaxInt32, W: 1, H: 1, Step: 1}, false},
		{RegionRequest{Type: "REGION", W: math.MaxInt32, H: 1, Step: math.MaxInt32}, true},
		{RegionRequest{Type: "REGION", W: 16, H: 16, Step: 0}, false},
		{RegionRequest{Type: "ROW", W: 16, H: 16, Step: 1}, false},
	}
	for i, tc := range cases {
		if err := tc.req.validate(); (err == nil) != tc.ok {
			t.Fatalf("case %d: validate(%+v) = %v, want ok=%v", i, tc.req, err, tc.ok)
		}
	}
	if n := (RegionRequest{W: math.MaxInt32, H: 1, Step: math.MaxInt32}).cols(); n != 1 {
		t.Fatalf("cols = %d, want 1", n)
	}
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute)
	now := time.Unix(1000, 0)
	rl.now = func() time.Time { return now }

	if !rl.Allow("a") || !rl.Allow("a") {
		t.Fatalf("first two requests should pass")
	}
	if rl.Allow("a") {
		t.Fatalf("third request should be limited")
	}
	if !rl.Allow("b") {
		t.Fatalf("other clients unaffected")
	}
	if ra := rl.RetryAfter("a"); ra < 1 || ra > 61 {
		t.Fatalf("retry after %d", ra)
	}
	now = now.Add(time.Minute)
	if !rl.Allow("a") {
		t.Fatalf("window should reset")
	}
}

func TestClientIP(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "10.0.0.1:5555"
	if ip := clientIP(r); ip != "10.0.0.1" {
		t.Fatalf("ip = %q", ip)
	}
	r.Header.Set("X-Forwarded-For", "1.2.3.4, 10.0.0.1")
	if ip := clientIP(r); ip != "1.2.3.4" {
		t.Fatalf("forwarded ip = %q", ip)
	}
}
