// Command worldgen generates a world from a seed and reports, exports or
// serves it.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"math"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/dustin/go-humanize"

	"github.com/talgya/civworld/internal/api"
	"github.com/talgya/civworld/internal/civ"
	"github.com/talgya/civworld/internal/config"
	"github.com/talgya/civworld/internal/persistence"
	"github.com/talgya/civworld/internal/snapshot"
	"github.com/talgya/civworld/internal/world"
	"github.com/talgya/civworld/internal/worldgen"
)

func main() {
	var (
		configPath = flag.String("config", "", "YAML generation config")
		seed       = flag.Int64("seed", -1, "world seed (overrides config)")
		lgX        = flag.Int("lg-x", -1, "log2 map width in chunks (overrides config)")
		lgY        = flag.Int("lg-y", -1, "log2 map height in chunks (overrides config)")
		atlasPath  = flag.String("atlas", "", "write a SQLite atlas to this path")
		snapPath   = flag.String("snapshot", "", "write a compressed snapshot to this path")
		fromAtlas  = flag.String("from", "", "regenerate the world stored in this atlas")
		listen     = flag.String("listen", "", "serve the inspection API on this address")
		verbose    = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})))

	cfg, err := loadConfig(*configPath, *fromAtlas)
	if err != nil {
		slog.Error("config", "error", err)
		os.Exit(1)
	}
	if sd, ok, err := seedFlag(*seed); err != nil {
		slog.Error("config", "error", err)
		os.Exit(1)
	} else if ok {
		cfg.Seed = sd
	}
	if *lgX >= 0 {
		cfg.MapSizeLg.X = uint8(*lgX)
	}
	if *lgY >= 0 {
		cfg.MapSizeLg.Y = uint8(*lgY)
	}
	if *atlasPath != "" {
		cfg.Output.AtlasPath = *atlasPath
	}
	if *snapPath != "" {
		cfg.Output.SnapshotPath = *snapPath
	}
	if *listen != "" {
		cfg.Output.ListenAddr = *listen
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("config", "error", err)
		os.Exit(1)
	}

	lg := world.MapSizeLg{X: cfg.MapSizeLg.X, Y: cfg.MapSizeLg.Y}
	idx, err := worldgen.Generate(cfg.Seed, lg, cfg.World)
	if err != nil {
		slog.Error("generation failed", "error", err)
		os.Exit(1)
	}

	worldID := persistence.WorldID(cfg.Seed, lg, cfg.World)
	digest := idx.Digest()
	printSummary(idx, worldID, digest)

	if p := cfg.Output.AtlasPath; p != "" {
		if err := writeAtlas(p, idx, worldID, digest); err != nil {
			slog.Error("atlas export failed", "path", p, "error", err)
			os.Exit(1)
		}
	}
	if p := cfg.Output.SnapshotPath; p != "" {
		sim, store := idx.Export()
		snap := snapshot.Build(worldID, cfg.Seed, cfg.World, sim, store)
		if err := snapshot.Write(p, &snap); err != nil {
			slog.Error("snapshot failed", "path", p, "error", err)
			os.Exit(1)
		}
		if st, err := os.Stat(p); err == nil {
			slog.Info("snapshot written", "path", p, "size", humanize.Bytes(uint64(st.Size())))
		}
	}

	if addr := cfg.Output.ListenAddr; addr != "" {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		fmt.Printf("API: http://%s/api/v1/status\n", addr)
		if err := api.NewServer(idx, worldID, digest).ListenAndServe(ctx, addr); err != nil {
			slog.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}
}

// seedFlag converts the -seed flag; -1 leaves the configured seed alone.
func seedFlag(v int64) (uint32, bool, error) {
	switch {
	case v == -1:
		return 0, false, nil
	case v < 0 || v > math.MaxUint32:
		return 0, false, fmt.Errorf("-seed %d outside [0, %d]", v, uint64(math.MaxUint32))
	}
	return uint32(v), true, nil
}

// loadConfig reads the YAML config, or the inputs stored in an atlas when
// regenerating. Without either it returns the defaults.
func loadConfig(path, atlas string) (config.GenConfig, error) {
	if atlas != "" {
		db, err := persistence.Open(atlas)
		if err != nil {
			return config.GenConfig{}, err
		}
		defer db.Close()
		meta, err := db.LoadMeta()
		if err != nil {
			return config.GenConfig{}, fmt.Errorf("load atlas meta: %w", err)
		}
		slog.Info("regenerating stored world", "world", meta.WorldID, "seed", meta.Seed)
		cfg := config.DefaultGenConfig()
		cfg.Seed = meta.Seed
		cfg.MapSizeLg = config.MapSize{X: meta.Lg.X, Y: meta.Lg.Y}
		cfg.World = meta.Config
		return cfg, nil
	}
	if path == "" {
		return config.DefaultGenConfig(), nil
	}
	return config.Load(path)
}

func writeAtlas(path string, idx *worldgen.Index, worldID, digest string) error {
	db, err := persistence.Open(path)
	if err != nil {
		return err
	}
	defer db.Close()
	meta := persistence.Meta{
		WorldID: worldID,
		Seed:    idx.Seed,
		Lg:      idx.Lg,
		Config:  idx.Config,
		Digest:  digest,
	}
	_, store := idx.Export()
	return db.SaveAtlas(meta, store)
}

func printSummary(idx *worldgen.Index, worldID, digest string) {
	st := idx.Water()
	counts := idx.SiteCounts()
	kinds := make([]civ.SiteKind, 0, len(counts))
	for k := range counts {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })

	var pop float64
	for _, s := range idx.Sites() {
		pop += float64(s.Economy.Population)
	}

	fmt.Printf("\nWorld %s (seed %d, %dx%d chunks)\n", worldID, idx.Seed, 1<<idx.Lg.X, 1<<idx.Lg.Y)
	fmt.Printf("  digest     %s\n", digest)
	fmt.Printf("  water      %s ocean, %s lake, %s river, %s land chunks\n",
		humanize.Comma(int64(st.Ocean)), humanize.Comma(int64(st.Lake)),
		humanize.Comma(int64(st.River)), humanize.Comma(int64(st.Land)))
	fmt.Printf("  civs       %d\n", len(idx.Civs()))
	for _, k := range kinds {
		fmt.Printf("  %-10s %d\n", k.String()+"s", counts[k])
	}
	fmt.Printf("  tracks     %d\n", len(idx.Tracks()))
	fmt.Printf("  population %s\n", humanize.Comma(int64(pop)))
}
