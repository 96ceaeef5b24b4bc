// Package persistence stores a generated world's atlas in SQLite: its
// identity and inputs plus the places, sites, tracks and civilizations it
// produced. The chunk grid is not stored; it is regenerated from the inputs.
package persistence

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/talgya/civworld/internal/civ"
	"github.com/talgya/civworld/internal/config"
	"github.com/talgya/civworld/internal/world"
)

// worldNamespace scopes world IDs derived from generation inputs.
var worldNamespace = uuid.MustParse("6f1c3a52-94d8-4b0e-8d6a-3f1e7c2b9a40")

// WorldID derives a stable identifier from the inputs of a generation run.
// Equal inputs always produce the same world, so they share an ID.
func WorldID(seed uint32, lg world.MapSizeLg, cfg config.WorldConfig) string {
	raw, _ := json.Marshal(cfg)
	key := fmt.Sprintf("%d/%dx%d/%s", seed, lg.X, lg.Y, raw)
	return uuid.NewSHA1(worldNamespace, []byte(key)).String()
}

// DB wraps a SQLite connection holding one atlas.
type DB struct {
	conn *sqlx.DB
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS world_meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS places (
		id INTEGER PRIMARY KEY,
		center_x INTEGER NOT NULL,
		center_y INTEGER NOT NULL,
		chunks INTEGER NOT NULL,
		wood REAL NOT NULL,
		rock REAL NOT NULL,
		river REAL NOT NULL,
		farmland REAL NOT NULL
	);

	CREATE TABLE IF NOT EXISTS sites (
		id INTEGER PRIMARY KEY,
		kind TEXT NOT NULL,
		name TEXT NOT NULL,
		center_x INTEGER NOT NULL,
		center_y INTEGER NOT NULL,
		place_id INTEGER NOT NULL,
		population REAL NOT NULL,
		coin REAL NOT NULL,
		stocks_json TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS tracks (
		id INTEGER PRIMARY KEY,
		site_a INTEGER NOT NULL,
		site_b INTEGER NOT NULL,
		cost REAL NOT NULL,
		path_json TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS civs (
		id INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		capital INTEGER NOT NULL,
		homeland INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_sites_place ON sites(place_id);
	CREATE INDEX IF NOT EXISTS idx_tracks_a ON tracks(site_a);
	CREATE INDEX IF NOT EXISTS idx_tracks_b ON tracks(site_b);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// Meta identifies a stored world and the inputs that regenerate it.
type Meta struct {
	WorldID string
	Seed    uint32
	Lg      world.MapSizeLg
	Config  config.WorldConfig
	Digest  string
}

// SiteRow is one row of the sites table.
type SiteRow struct {
	ID         int64   `db:"id" json:"id"`
	Kind       string  `db:"kind" json:"kind"`
	Name       string  `db:"name" json:"name"`
	CenterX    int32   `db:"center_x" json:"center_x"`
	CenterY    int32   `db:"center_y" json:"center_y"`
	PlaceID    int64   `db:"place_id" json:"place_id"`
	Population float32 `db:"population" json:"population"`
	Coin       float32 `db:"coin" json:"coin"`
	StocksJSON string  `db:"stocks_json" json:"-"`
}

// TrackRow is one row of the tracks table.
type TrackRow struct {
	ID       int64   `db:"id" json:"id"`
	SiteA    int64   `db:"site_a" json:"site_a"`
	SiteB    int64   `db:"site_b" json:"site_b"`
	Cost     float32 `db:"cost" json:"cost"`
	PathJSON string  `db:"path_json" json:"-"`
}

// SaveAtlas replaces the stored atlas with meta and the contents of c.
func (db *DB) SaveAtlas(meta Meta, c *civ.Civs) error {
	slog.Info("saving atlas", "world", meta.WorldID, "sites", len(c.Sites), "tracks", len(c.Tracks))

	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, table := range []string{"world_meta", "places", "sites", "tracks", "civs"} {
		if _, err := tx.Exec("DELETE FROM " + table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	cfgJSON, err := json.Marshal(meta.Config)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	kv := map[string]string{
		"world_id": meta.WorldID,
		"seed":     strconv.FormatUint(uint64(meta.Seed), 10),
		"lg_x":     strconv.Itoa(int(meta.Lg.X)),
		"lg_y":     strconv.Itoa(int(meta.Lg.Y)),
		"config":   string(cfgJSON),
		"digest":   meta.Digest,
	}
	for k, v := range kv {
		if _, err := tx.Exec("INSERT INTO world_meta (key, value) VALUES (?, ?)", k, v); err != nil {
			return fmt.Errorf("insert meta %s: %w", k, err)
		}
	}

	for i, p := range c.Places {
		_, err := tx.Exec(`INSERT INTO places
			(id, center_x, center_y, chunks, wood, rock, river, farmland)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			i+1, p.Center.X, p.Center.Y, len(p.Chunks),
			p.NatRes.Wood, p.NatRes.Rock, p.NatRes.River, p.NatRes.Farmland,
		)
		if err != nil {
			return fmt.Errorf("insert place %d: %w", i+1, err)
		}
	}

	stmt, err := tx.Preparex(`INSERT INTO sites
		(id, kind, name, center_x, center_y, place_id, population, coin, stocks_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for i, s := range c.Sites {
		stocks, _ := json.Marshal(s.Economy.Stocks.Data)
		_, err := stmt.Exec(
			i+1, s.Kind.String(), s.Name, s.Center.X, s.Center.Y, s.Place,
			s.Economy.Population, s.Economy.Coin, string(stocks),
		)
		if err != nil {
			return fmt.Errorf("insert site %d: %w", i+1, err)
		}
	}

	for i, t := range c.Tracks {
		path, _ := json.Marshal(t.Path)
		_, err := tx.Exec(
			"INSERT INTO tracks (id, site_a, site_b, cost, path_json) VALUES (?, ?, ?, ?, ?)",
			i+1, t.A, t.B, t.Cost, string(path),
		)
		if err != nil {
			return fmt.Errorf("insert track %d: %w", i+1, err)
		}
	}

	for i, v := range c.Civs {
		_, err := tx.Exec(
			"INSERT INTO civs (id, name, capital, homeland) VALUES (?, ?, ?, ?)",
			i+1, v.Name, v.Capital, v.Homeland,
		)
		if err != nil {
			return fmt.Errorf("insert civ %d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	slog.Info("atlas saved", "world", meta.WorldID)
	return nil
}

// GetMeta retrieves a metadata value.
func (db *DB) GetMeta(key string) (string, error) {
	var value string
	err := db.conn.Get(&value, "SELECT value FROM world_meta WHERE key = ?", key)
	return value, err
}

// LoadMeta reads back the world identity and generation inputs.
func (db *DB) LoadMeta() (Meta, error) {
	var m Meta
	rows := []struct {
		Key   string `db:"key"`
		Value string `db:"value"`
	}{}
	if err := db.conn.Select(&rows, "SELECT key, value FROM world_meta"); err != nil {
		return m, err
	}
	kv := make(map[string]string, len(rows))
	for _, r := range rows {
		kv[r.Key] = r.Value
	}
	if kv["world_id"] == "" {
		return m, fmt.Errorf("atlas has no world")
	}

	seed, err := strconv.ParseUint(kv["seed"], 10, 32)
	if err != nil {
		return m, fmt.Errorf("seed: %w", err)
	}
	lx, err := strconv.ParseUint(kv["lg_x"], 10, 8)
	if err != nil {
		return m, fmt.Errorf("lg_x: %w", err)
	}
	ly, err := strconv.ParseUint(kv["lg_y"], 10, 8)
	if err != nil {
		return m, fmt.Errorf("lg_y: %w", err)
	}
	if err := json.Unmarshal([]byte(kv["config"]), &m.Config); err != nil {
		return m, fmt.Errorf("config: %w", err)
	}
	m.WorldID = kv["world_id"]
	m.Seed = uint32(seed)
	m.Lg = world.MapSizeLg{X: uint8(lx), Y: uint8(ly)}
	m.Digest = kv["digest"]
	return m, nil
}

// Sites returns stored sites, optionally filtered by kind name.
func (db *DB) Sites(kind string) ([]SiteRow, error) {
	var out []SiteRow
	if kind == "" {
		err := db.conn.Select(&out, "SELECT * FROM sites ORDER BY id")
		return out, err
	}
	err := db.conn.Select(&out, "SELECT * FROM sites WHERE kind = ? ORDER BY id", kind)
	return out, err
}

// TracksOf returns the tracks touching a site.
func (db *DB) TracksOf(siteID int64) ([]TrackRow, error) {
	var out []TrackRow
	err := db.conn.Select(&out,
		"SELECT * FROM tracks WHERE site_a = ? OR site_b = ? ORDER BY id",
		siteID, siteID,
	)
	return out, err
}

// TrackPath decodes a stored track's chunk path.
func (r TrackRow) TrackPath() ([]world.Vec2i, error) {
	var p []world.Vec2i
	err := json.Unmarshal([]byte(r.PathJSON), &p)
	return p, err
}
