// Command vibematch recommends tracks from a local audio-feature dataset.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/vibematch/vibematch/internal/config"
	"github.com/vibematch/vibematch/internal/library"
	"github.com/vibematch/vibematch/internal/moodai"
	"github.com/vibematch/vibematch/internal/recommend"
	"github.com/vibematch/vibematch/internal/spotify"
	"github.com/vibematch/vibematch/internal/web"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cmd := ""
	if len(os.Args) > 1 {
		cmd = os.Args[1]
	}

	switch cmd {
	case "init":
		return cmdInit(os.Args[2:])
	case "serve":
		return cmdServe(os.Args[2:])
	case "recommend":
		return cmdRecommend(os.Args[2:])
	case "mood":
		return cmdMood(os.Args[2:])
	case "clusters":
		return cmdClusters(os.Args[2:])
	case "search":
		return cmdSearch(os.Args[2:])
	case "chat":
		return cmdChat(os.Args[2:])
	default:
		printHelp()
		return nil
	}
}

func printHelp() {
	fmt.Println("Usage: vibematch <command> [options]")
	fmt.Println("Commands:")
	fmt.Println("  init        Write a default config file")
	fmt.Println("  serve       Run the HTTP API server")
	fmt.Println("  recommend   Recommend tracks similar to a seed track")
	fmt.Println("  mood        Recommend tracks near a mood point")
	fmt.Println("  clusters    Describe clusters or sample tracks from one")
	fmt.Println("  search      Search tracks in the dataset")
	fmt.Println("  chat        Describe your mood, get matching tracks")
}

// loadConfig reads the config file, falling back to defaults plus
// environment variables when the file does not exist.
func loadConfig(path string) (config.Config, error) {
	cfg, err := config.Load(path)
	if errors.Is(err, os.ErrNotExist) {
		cfg = config.Default()
		cfg.ResolveEnv()
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

func buildRecommender(cfg config.Config, dataPath string) (*recommend.Recommender, error) {
	path := cfg.Dataset.Path
	if dataPath != "" {
		path = dataPath
	}
	rec, err := recommend.FromCSV(path, recommend.Config{
		Clusters:     cfg.Dataset.Clusters,
		NeighborPool: cfg.Dataset.NeighborPool,
		Seed:         cfg.Dataset.Seed,
	})
	if err != nil {
		return nil, fmt.Errorf("loading dataset %s: %w", path, err)
	}
	return rec, nil
}

func cmdInit(args []string) error {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	path := fs.String("path", config.DefaultPath, "path to write config")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if err := config.Save(*path, config.Default()); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	abs, err := filepath.Abs(*path)
	if err != nil {
		abs = *path
	}
	fmt.Println("Config written to:", abs)
	return nil
}

func cmdServe(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	cfgPath := fs.String("config", config.DefaultPath, "config path")
	addr := fs.String("addr", "", "listen address (overrides config)")
	dataPath := fs.String("data", "", "dataset CSV path (overrides config)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadConfig(*cfgPath)
	if err != nil {
		return err
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	rec, err := buildRecommender(cfg, *dataPath)
	if err != nil {
		return err
	}
	logger.Info().
		Int("tracks", rec.Len()).
		Int("dropped", rec.Dropped()).
		Int("features", rec.Features()).
		Int("clusters", rec.Clusters()).
		Int("kmeans_iterations", rec.Iterations()).
		Msg("dataset loaded")

	lib, err := library.Open(cfg.Library.DBPath)
	if err != nil {
		return fmt.Errorf("opening playlist library: %w", err)
	}
	defer lib.Close()

	var mood *moodai.Client
	if cfg.Ollama.Enabled {
		mood = moodai.NewClient(moodai.Config{BaseURL: cfg.Ollama.URL, Model: cfg.Ollama.Model})
	}

	server, err := web.NewServer(web.ServerConfig{
		Addr:        cfg.Server.Addr,
		Recommender: rec,
		Mood:        mood,
		Library:     lib,
		Logger:      logger,
	})
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	return server.Run()
}

func cmdRecommend(args []string) error {
	fs := flag.NewFlagSet("recommend", flag.ExitOnError)
	cfgPath := fs.String("config", config.DefaultPath, "config path")
	dataPath := fs.String("data", "", "dataset CSV path (overrides config)")
	track := fs.String("track", "", "seed track name")
	artist := fs.String("artist", "", "artist hint for ambiguous names")
	k := fs.Int("k", recommend.DefaultK, "number of recommendations")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *track == "" {
		return errors.New("missing -track")
	}

	cfg, err := loadConfig(*cfgPath)
	if err != nil {
		return err
	}
	rec, err := buildRecommender(cfg, *dataPath)
	if err != nil {
		return err
	}

	seed, recs, err := rec.RecommendByTrack(*track, *artist, *k)
	if err != nil {
		return err
	}

	fmt.Printf("Seed: %s by %s [cluster %d]\n", seed.Track.Name, seed.Track.Artists, seed.Cluster)
	printRecommendations(recs)
	return nil
}

var moodFlagColumns = map[string]string{
	"dance":            "danceability",
	"energy":           "energy",
	"valence":          "valence",
	"acousticness":     "acousticness",
	"instrumentalness": "instrumentalness",
	"speechiness":      "speechiness",
	"liveness":         "liveness",
	"loudness":         "loudness",
	"tempo":            "tempo",
}

func cmdMood(args []string) error {
	fs := flag.NewFlagSet("mood", flag.ExitOnError)
	cfgPath := fs.String("config", config.DefaultPath, "config path")
	dataPath := fs.String("data", "", "dataset CSV path (overrides config)")
	k := fs.Int("k", recommend.DefaultK, "number of recommendations")

	values := make(map[string]*float64, len(moodFlagColumns))
	values["dance"] = fs.Float64("dance", 0, "target danceability (0 to 1)")
	values["energy"] = fs.Float64("energy", 0, "target energy (0 to 1)")
	values["valence"] = fs.Float64("valence", 0, "target valence (0 to 1)")
	values["acousticness"] = fs.Float64("acousticness", 0, "target acousticness (0 to 1)")
	values["instrumentalness"] = fs.Float64("instrumentalness", 0, "target instrumentalness (0 to 1)")
	values["speechiness"] = fs.Float64("speechiness", 0, "target speechiness (0 to 1)")
	values["liveness"] = fs.Float64("liveness", 0, "target liveness (0 to 1)")
	values["loudness"] = fs.Float64("loudness", 0, "target loudness (dB)")
	values["tempo"] = fs.Float64("tempo", 0, "target tempo (BPM)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	// Only flags the user actually set become mood targets. Everything
	// else stays at the dataset average.
	features := make(map[string]float64)
	fs.Visit(func(f *flag.Flag) {
		col, ok := moodFlagColumns[f.Name]
		if !ok {
			return
		}
		features[col] = *values[f.Name]
	})

	cfg, err := loadConfig(*cfgPath)
	if err != nil {
		return err
	}
	rec, err := buildRecommender(cfg, *dataPath)
	if err != nil {
		return err
	}

	recs, err := rec.RecommendByMood(features, *k)
	if err != nil {
		return err
	}
	printRecommendations(recs)
	return nil
}

func cmdClusters(args []string) error {
	fs := flag.NewFlagSet("clusters", flag.ExitOnError)
	cfgPath := fs.String("config", config.DefaultPath, "config path")
	dataPath := fs.String("data", "", "dataset CSV path (overrides config)")
	clusterID := fs.Int("cluster", -1, "sample tracks from this cluster")
	sample := fs.Int("sample", recommend.DefaultK, "number of tracks to sample")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadConfig(*cfgPath)
	if err != nil {
		return err
	}
	rec, err := buildRecommender(cfg, *dataPath)
	if err != nil {
		return err
	}

	if *clusterID >= 0 {
		tracks, err := rec.SampleClusterTracks(*clusterID, *sample)
		if err != nil {
			return err
		}
		fmt.Printf("Cluster %d sample:\n", *clusterID)
		printTracks(tracks)
		return nil
	}

	summaries := rec.DescribeClusters()
	fmt.Printf("%-8s %-6s %-8s %-8s %-8s %-8s %-8s %s\n",
		"cluster", "size", "energy", "valence", "dance", "acoust", "tempo", "label")
	for _, s := range summaries {
		if s.Size == 0 {
			fmt.Printf("%-8d %-6d (empty)\n", s.ID, s.Size)
			continue
		}
		fmt.Printf("%-8d %-6d %-8.3f %-8.3f %-8.3f %-8.3f %-8.1f %s\n",
			s.ID, s.Size,
			s.Means["energy"], s.Means["valence"], s.Means["danceability"],
			s.Means["acousticness"], s.Means["tempo"], s.Label)
	}
	return nil
}

func cmdSearch(args []string) error {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	cfgPath := fs.String("config", config.DefaultPath, "config path")
	dataPath := fs.String("data", "", "dataset CSV path (overrides config)")
	track := fs.String("track", "", "track name substring")
	artist := fs.String("artist", "", "artist substring")
	limit := fs.Int("limit", 0, "maximum results")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadConfig(*cfgPath)
	if err != nil {
		return err
	}
	rec, err := buildRecommender(cfg, *dataPath)
	if err != nil {
		return err
	}

	tracks := rec.SearchTracks(*track, *artist, *limit)
	if len(tracks) == 0 {
		fmt.Println("No matches.")
		return nil
	}
	printTracks(tracks)
	return nil
}

func cmdChat(args []string) error {
	fs := flag.NewFlagSet("chat", flag.ExitOnError)
	cfgPath := fs.String("config", config.DefaultPath, "config path")
	dataPath := fs.String("data", "", "dataset CSV path (overrides config)")
	k := fs.Int("k", recommend.DefaultK, "tracks per suggestion")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadConfig(*cfgPath)
	if err != nil {
		return err
	}
	if !cfg.Ollama.Enabled {
		return errors.New("chat requires ollama; enable it in the config")
	}

	rec, err := buildRecommender(cfg, *dataPath)
	if err != nil {
		return err
	}
	mood := moodai.NewClient(moodai.Config{BaseURL: cfg.Ollama.URL, Model: cfg.Ollama.Model})

	ctx := context.Background()

	// A Spotify client upgrades printed links to live search results, but
	// the chat works fine without credentials.
	var sp *spotify.Client
	if cfg.Spotify.ClientID != "" && cfg.Spotify.ClientSecret != "" {
		sp, err = spotify.NewSearch(ctx, spotify.Config{
			ClientID:     cfg.Spotify.ClientID,
			ClientSecret: cfg.Spotify.ClientSecret,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: spotify search disabled: %v\n", err)
			sp = nil
		}
	}

	fmt.Println("Tell me how you feel and I'll suggest tracks. Type \"quit\" to leave.")
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("you> ")
		if !scanner.Scan() {
			fmt.Println()
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "quit" || line == "exit" {
			return nil
		}

		scores, err := mood.ClassifyMood(ctx, line)
		if err != nil {
			fmt.Fprintf(os.Stderr, "classification failed: %v\n", err)
			continue
		}
		top := scores[0]
		fmt.Printf("Sounds %s (%.0f%%). Try these:\n", top.Label, top.Score*100)

		tracks, err := rec.RecommendByPreset(top.Label, *k)
		if err != nil {
			fmt.Fprintf(os.Stderr, "recommendation failed: %v\n", err)
			continue
		}
		if len(tracks) == 0 {
			fmt.Println("The dataset has no tracks matching that mood.")
			continue
		}
		for i, t := range tracks {
			url := spotify.TrackURL(t.Track.ID)
			if sp != nil {
				if live := searchLink(ctx, sp, t.Track.Name, t.Track.Artists); live != "" {
					url = live
				}
			}
			fmt.Printf("%2d. %s by %s", i+1, t.Track.Name, t.Track.Artists)
			if url != "" {
				fmt.Printf("  %s", url)
			}
			fmt.Println()
		}
	}
}

// searchLink looks the track up on Spotify and returns its URL, or ""
// when the search fails or finds nothing.
func searchLink(ctx context.Context, sp *spotify.Client, name, artists string) string {
	results, err := sp.SearchTracks(ctx, name+" "+artists, 1)
	if err != nil || len(results) == 0 {
		return ""
	}
	return results[0].URL
}

func printRecommendations(recs []recommend.Recommendation) {
	for _, r := range recs {
		fmt.Printf("%2d. %s by %s", r.Rank, r.Track.Name, r.Track.Artists)
		if r.Track.Genre != "" {
			fmt.Printf(" (%s)", r.Track.Genre)
		}
		fmt.Printf("  dist=%.4f", r.Distance)
		if url := spotify.TrackURL(r.Track.ID); url != "" {
			fmt.Printf("  %s", url)
		}
		fmt.Println()
	}
}

func printTracks(tracks []recommend.TrackInfo) {
	for i, t := range tracks {
		fmt.Printf("%2d. %s by %s", i+1, t.Track.Name, t.Track.Artists)
		if t.Track.Genre != "" {
			fmt.Printf(" (%s)", t.Track.Genre)
		}
		fmt.Printf("  [cluster %d]", t.Cluster)
		if url := spotify.TrackURL(t.Track.ID); url != "" {
			fmt.Printf("  %s", url)
		}
		fmt.Println()
	}
}
