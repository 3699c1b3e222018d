package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	_ "modernc.org/sqlite"

	"github.com/lox/weatherwidget/internal/api"
	"github.com/lox/weatherwidget/internal/assets"
	"github.com/lox/weatherwidget/internal/condition"
	"github.com/lox/weatherwidget/internal/config"
	"github.com/lox/weatherwidget/internal/imagegen"
	"github.com/lox/weatherwidget/internal/owm"
	"github.com/lox/weatherwidget/internal/store"
	"github.com/lox/weatherwidget/internal/widget"
)

func newFetcher(cfg *config.Config) *owm.Client {
	return owm.NewClient(cfg.APIKey, cfg.Units, cfg.FetchTimeout).WithBaseURL(cfg.BaseURL)
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

type ServeCmd struct {
	Server config.Server `embed:""`
}

func (c *ServeCmd) Run(cfg *config.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := c.Server.Validate(); err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	origin, err := assets.NewOrigin(cfg.Origin())
	if err != nil {
		return err
	}
	cache := assets.NewCache()
	report, err := assets.Preload(ctx, origin, cache, condition.RequiredAssets())
	missing := append(append([]string{}, report.Missing...), report.Failed...)
	if err != nil {
		log.Printf("warning: %v (missing: %s)", err, strings.Join(missing, ", "))
	}
	log.Printf("assets preloaded from %s: %d loaded", origin, len(report.Loaded))

	db, err := sql.Open("sqlite", c.Server.DBPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	db.Exec("PRAGMA journal_mode=WAL")
	db.Exec("PRAGMA busy_timeout=5000")

	st := store.New(db)
	if err := st.Migrate(); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	log.Println("database migrated")

	server := api.NewServer(api.Deps{
		Fetcher:      newFetcher(cfg),
		Store:        st,
		Assets:       cache,
		Missing:      missing,
		BaseUnit:     cfg.BaseUnit(),
		FetchTimeout: cfg.FetchTimeout,
		SessionTTL:   c.Server.SessionTTL,
		CardTTL:      c.Server.CardTTL,
		Port:         c.Server.Port,
	})

	log.Printf("starting server on :%d", c.Server.Port)
	if err := server.Run(ctx); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	log.Println("shutdown complete")
	return nil
}

type LookupCmd struct {
	Place string `short:"p" help:"Place name to search for, e.g. \"Bright, AU\"."`
	Lat   string `help:"Latitude in decimal degrees."`
	Lon   string `help:"Longitude in decimal degrees."`
	JSON  bool   `name:"json" help:"Print the display as JSON."`
}

func (c *LookupCmd) Run(cfg *config.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	w := widget.New(newFetcher(cfg), widget.Options{
		BaseUnit: cfg.BaseUnit(),
		Timeout:  cfg.FetchTimeout,
	})

	var d widget.Display
	switch {
	case strings.TrimSpace(c.Place) != "":
		d = w.Search(ctx, c.Place)
	case c.Lat != "" || c.Lon != "":
		d = w.Locate(ctx, widget.ParseLocator(c.Lat, c.Lon, ""))
	default:
		d = w.Locate(ctx, nil)
	}

	if err := printDisplay(d, c.JSON); err != nil {
		return err
	}

	switch d.Failure {
	case widget.FailureNavigation:
		return &exitError{code: 2, err: d.Failure.Err()}
	case widget.FailureLocation:
		return &exitError{code: 1, err: d.Failure.Err()}
	}
	return nil
}

func printDisplay(d widget.Display, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(d)
	}

	fmt.Println(d.Label)
	if d.ShowUnitControls() {
		fmt.Printf("%s  %s\n", d.Temperature, d.Condition)
	}
	fmt.Println(d.Description)
	return nil
}

type PreloadCmd struct{}

func (c *PreloadCmd) Run(cfg *config.Config) error {
	origin, err := assets.NewOrigin(cfg.Origin())
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	report, err := assets.Preload(ctx, origin, assets.NewCache(), condition.RequiredAssets())
	fmt.Printf("origin: %s\nloaded: %d\n", report.Origin, len(report.Loaded))
	for _, p := range report.Missing {
		fmt.Printf("missing: %s\n", p)
	}
	for _, p := range report.Failed {
		fmt.Printf("failed: %s\n", p)
	}
	return err
}

type GenerateAssetsCmd struct {
	OpenAIKey string `name:"openai-api-key" env:"OPENAI_API_KEY" help:"OpenAI API key."`
	DryRun    bool   `name:"dry-run" help:"List missing assets without generating them."`
}

func (c *GenerateAssetsCmd) Run(cfg *config.Config) error {
	ctx, cancel := signalContext()
	defer cancel()

	report, _ := assets.Preload(ctx, assets.DirOrigin(cfg.AssetDir), assets.NewCache(), condition.RequiredAssets())
	missing := append(append([]string{}, report.Missing...), report.Failed...)
	if len(missing) == 0 {
		log.Printf("all %d assets present in %s", len(report.Loaded), cfg.AssetDir)
		return nil
	}
	if c.DryRun {
		for _, p := range missing {
			fmt.Println(p)
		}
		return nil
	}

	gen, err := imagegen.NewGenerator(c.OpenAIKey)
	if err != nil {
		return err
	}
	written, err := imagegen.FillMissing(ctx, gen, cfg.AssetDir, missing)
	log.Printf("generated %d of %d missing assets into %s", len(written), len(missing), cfg.AssetDir)
	return err
}
