// Command apkgc compiles a directory (or git repository) of card files into a
// study-deck package importable by Anki-compatible applications.
package main

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	flag "github.com/spf13/pflag"

	"github.com/conorfennell/apkg"
	"github.com/conorfennell/apkg/internal/gitsource"
	"github.com/conorfennell/apkg/internal/parser"
	"github.com/conorfennell/apkg/internal/storage"
	"github.com/conorfennell/apkg/internal/web"
)

type config struct {
	Name        string `koanf:"name"`
	Description string `koanf:"description"`
	Dir         string `koanf:"dir"`
	Git         string `koanf:"git"`
	Media       string `koanf:"media"`
	Out         string `koanf:"out"`
	Cloze       bool   `koanf:"cloze"`
	Serve       bool   `koanf:"serve"`
	Addr        string `koanf:"addr"`
	LogLevel    string `koanf:"log-level"`
}

func main() {
	f := flag.NewFlagSet("apkgc", flag.ExitOnError)
	f.String("config", "", "Path to a YAML config file")
	f.String("name", "", "Deck name (defaults to the source directory name)")
	f.String("description", "", "Deck description")
	f.String("dir", ".", "Directory to scan for card files")
	f.String("git", "", "Git URL of a card source to fetch before building")
	f.String("media", "", "Directory of media files to bundle")
	f.String("out", "deck.apkg", "Output package path")
	f.Bool("cloze", false, "Use the cloze-deletion note-type")
	f.Bool("serve", false, "Run the HTTP builder service instead")
	f.String("addr", ":8080", "Listen address for --serve")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	if err := f.Parse(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	cfg, err := loadConfig(f)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	log := newLogger(cfg.LogLevel)
	slog.SetDefault(log)

	if cfg.Serve {
		log.Info("starting builder service", "addr", cfg.Addr)
		if err := http.ListenAndServe(cfg.Addr, web.NewServer(log)); err != nil {
			log.Error("server stopped", "error", err)
			os.Exit(1)
		}
		return
	}

	if err := build(context.Background(), log, cfg); err != nil {
		log.Error("build failed", "error", err)
		os.Exit(1)
	}
}

func loadConfig(f *flag.FlagSet) (config, error) {
	k := koanf.New(".")

	if path, _ := f.GetString("config"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return config{}, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}
	if err := k.Load(env.Provider("APKGC_", ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, "APKGC_")), "_", "-")
	}), nil); err != nil {
		return config{}, fmt.Errorf("failed to load environment: %w", err)
	}
	if err := k.Load(posflag.Provider(f, ".", k), nil); err != nil {
		return config{}, fmt.Errorf("failed to load flags: %w", err)
	}

	var cfg config
	if err := k.Unmarshal("", &cfg); err != nil {
		return config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return cfg, nil
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

func build(ctx context.Context, log *slog.Logger, cfg config) error {
	dir := cfg.Dir
	if cfg.Git != "" {
		dir = filepath.Join("repos", strings.TrimSuffix(filepath.Base(cfg.Git), ".git"))
		if err := gitsource.Fetch(ctx, cfg.Git, dir); err != nil {
			return err
		}
	}

	cards, err := scanCards(dir)
	if err != nil {
		return err
	}
	if len(cards) == 0 {
		return fmt.Errorf("no cards found under %s", dir)
	}

	name := cfg.Name
	if name == "" {
		abs, err := filepath.Abs(dir)
		if err != nil {
			return err
		}
		name = filepath.Base(abs)
	}

	eng, err := storage.OpenTemp()
	if err != nil {
		return err
	}
	defer eng.Close()

	opts := []apkg.Option{apkg.WithDescription(cfg.Description)}
	if cfg.Cloze {
		opts = append(opts, apkg.WithCloze())
	}
	session, err := apkg.New(name, eng, opts...)
	if err != nil {
		return err
	}

	for _, card := range cards {
		var cardOpts []apkg.CardOption
		if len(card.Tags) > 0 {
			cardOpts = append(cardOpts, apkg.WithTags(card.Tags...))
		}
		if err := session.AddCard(card.Front, card.Back, cardOpts...); err != nil {
			return fmt.Errorf("failed to add card %q: %w", card.Front, err)
		}
	}

	mediaCount, err := attachMedia(session, cfg.Media)
	if err != nil {
		return err
	}

	data, err := session.Save(ctx)
	if err != nil {
		return err
	}
	if err := os.WriteFile(cfg.Out, data, 0o644); err != nil {
		return fmt.Errorf("failed to write package: %w", err)
	}

	log.Info("package written",
		"path", cfg.Out,
		"deck", name,
		"cards", len(cards),
		"media", mediaCount,
		"bytes", len(data),
	)
	return nil
}

// scanCards walks dir and parses every markdown file it finds.
func scanCards(dir string) ([]parser.Card, error) {
	var cards []parser.Card
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(strings.ToLower(d.Name()), ".md") {
			return nil
		}
		fileCards, parseErr := parser.ParseFile(path)
		if parseErr != nil {
			return fmt.Errorf("error parsing %s: %w", path, parseErr)
		}
		cards = append(cards, fileCards...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return cards, nil
}

// attachMedia registers every file in dir as a deferred media source; content
// is read during Save.
func attachMedia(session *apkg.Session, dir string) (int, error) {
	if dir == "" {
		return 0, nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("failed to read media directory: %w", err)
	}
	count := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		session.AddMediaSource(entry.Name(), func(context.Context) ([]byte, error) {
			return os.ReadFile(path)
		})
		count++
	}
	return count, nil
}
